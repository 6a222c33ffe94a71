package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	notificationdomain "github.com/smallbiznis/scrapline/internal/notification/domain"
	"github.com/smallbiznis/scrapline/pkg/db/pagination"
)

func (s *Server) ListMyNotifications(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.notificationSvc.ListMine(c.Request.Context(), notificationdomain.ListRequest{
		Pagination: query,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
