package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	settlementdomain "github.com/smallbiznis/scrapline/internal/settlement/domain"
)

type recordWeightRequest struct {
	WeightKg float64 `json:"weight_kg"`
}

func (s *Server) RecordFinalWeight(c *gin.Context) {
	var req recordWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	item, err := s.settlementSvc.RecordFinalWeight(c.Request.Context(), c.Param("id"), c.Param("item_id"), req.WeightKg)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

type settleBookingRequest struct {
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
}

func (s *Server) SettleBooking(c *gin.Context) {
	var req settleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settlementSvc.Settle(c.Request.Context(), c.Param("id"), settlementdomain.SettleRequest{
		Method:        settlementdomain.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method))),
		TransactionID: strings.TrimSpace(req.TransactionID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBookingPayment(c *gin.Context) {
	payment, err := s.settlementSvc.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payment})
}
