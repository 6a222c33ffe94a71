package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
	"go.uber.org/zap"
)

func (s *Server) CreateBooking(c *gin.Context) {
	var req bookingdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	booking, err := s.bookingSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": booking})
}

func (s *Server) GetBooking(c *gin.Context) {
	booking, err := s.bookingSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": booking})
}

func (s *Server) ListMyBookings(c *gin.Context) {
	bookings, err := s.bookingSvc.ListMine(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bookings})
}

func (s *Server) AddBookingItem(c *gin.Context) {
	var req bookingdomain.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	booking, err := s.bookingSvc.AddItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": booking})
}

// ConfirmBooking locks the booking in and then tries to hand it to a partner.
// Assignment failure is not a confirmation failure; the sweep picks it up.
func (s *Server) ConfirmBooking(c *gin.Context) {
	booking, err := s.bookingSvc.Advance(c.Request.Context(), c.Param("id"), bookingdomain.StatusConfirmed)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	assignment, err := s.dispatchSvc.AutoAssign(c.Request.Context(), booking.ID)
	if err != nil {
		s.log.Warn("auto assignment after confirm failed",
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"data": booking})
		return
	}

	if assignment.Booking != nil {
		booking = assignment.Booking
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       booking,
		"assignment": assignment.Outcome,
	})
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CancelBooking(c *gin.Context) {
	var req cancelBookingRequest
	// The reason body is optional.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}

	booking, err := s.bookingSvc.Cancel(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": booking})
}

func (s *Server) ListBookingsByStatus(c *gin.Context) {
	var query struct {
		Status string `form:"status"`
		Limit  int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	bookings, err := s.bookingSvc.ListByStatus(c.Request.Context(), query.Status, query.Limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bookings})
}

func (s *Server) AutoAssignBooking(c *gin.Context) {
	bookingID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || bookingID == 0 {
		AbortWithError(c, bookingdomain.ErrInvalidBooking)
		return
	}

	result, err := s.dispatchSvc.AutoAssign(c.Request.Context(), bookingID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
