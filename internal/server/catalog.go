package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/scrapline/internal/catalog/domain"
)

func (s *Server) ListCategories(c *gin.Context) {
	categories, err := s.catalogSvc.ListCategories(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": categories})
}

func (s *Server) GetCategory(c *gin.Context) {
	category, err := s.catalogSvc.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": category})
}

func (s *Server) GetActiveRate(c *gin.Context) {
	rate, err := s.catalogSvc.ActiveRate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rate})
}

func (s *Server) ListRates(c *gin.Context) {
	rates, err := s.catalogSvc.ListRates(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rates})
}

func (s *Server) SetRate(c *gin.Context) {
	var req catalogdomain.SetRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rate, err := s.catalogSvc.SetRate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": rate})
}
