package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ratingdomain "github.com/smallbiznis/scrapline/internal/rating/domain"
)

func (s *Server) SubmitRating(c *gin.Context) {
	var req ratingdomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rating, err := s.ratingSvc.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": rating})
}

func (s *Server) GetBookingRating(c *gin.Context) {
	rating, err := s.ratingSvc.GetForBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rating})
}

func (s *Server) ListPartnerRatings(c *gin.Context) {
	ratings, err := s.ratingSvc.ListByPartner(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ratings})
}
