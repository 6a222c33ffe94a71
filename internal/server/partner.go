package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	partnerdomain "github.com/smallbiznis/scrapline/internal/partner/domain"
)

func (s *Server) CreatePartner(c *gin.Context) {
	var req partnerdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	partner, err := s.partnerSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": partner})
}

func (s *Server) ListPartners(c *gin.Context) {
	partners, err := s.partnerSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": partners})
}

func (s *Server) GetPartner(c *gin.Context) {
	partner, err := s.partnerSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": partner})
}

type setPartnerActiveRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) SetPartnerActive(c *gin.Context) {
	var req setPartnerActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	partner, err := s.partnerSvc.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": partner})
}
