package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListMyAddresses(c *gin.Context) {
	addresses, err := s.addressSvc.ListMine(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": addresses})
}

func (s *Server) GetAddress(c *gin.Context) {
	address, err := s.addressSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": address})
}
