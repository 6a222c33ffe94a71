package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
)

func (s *Server) ListAssignedBookings(c *gin.Context) {
	bookings, err := s.bookingSvc.ListAssigned(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bookings})
}

func (s *Server) PartnerAcceptBooking(c *gin.Context) {
	booking, err := s.dispatchSvc.PartnerAccept(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": booking})
}

type partnerAdvanceRequest struct {
	Status string `json:"status"`
}

// PartnerAdvanceBooking moves an assigned booking to ON_THE_WAY or ARRIVED.
func (s *Server) PartnerAdvanceBooking(c *gin.Context) {
	var req partnerAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	target := bookingdomain.Status(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !bookingdomain.IsValidStatus(target) {
		AbortWithError(c, bookingdomain.ErrInvalidStatus)
		return
	}

	booking, err := s.dispatchSvc.PartnerAdvance(c.Request.Context(), c.Param("id"), target)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": booking})
}
