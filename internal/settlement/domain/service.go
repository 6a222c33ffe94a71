package domain

import (
	"context"
	"errors"

	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
)

type Service interface {
	// RecordFinalWeight overwrites the measured weight on an item of an
	// ARRIVED booking. Last write wins.
	RecordFinalWeight(ctx context.Context, bookingID, itemID string, weightKg float64) (*bookingdomain.BookingItem, error)
	// Settle prices final weights against the item snapshots, writes the
	// payment and completes the booking in one transaction.
	Settle(ctx context.Context, bookingID string, req SettleRequest) (*SettleResponse, error)
	GetPayment(ctx context.Context, bookingID string) (*Payment, error)
}

type SettleRequest struct {
	Method        PaymentMethod `json:"method"`
	TransactionID string        `json:"transaction_id"`
}

type SettleResponse struct {
	Booking *bookingdomain.Booking `json:"booking"`
	Payment *Payment               `json:"payment"`
}

var (
	ErrAlreadySettled  = errors.New("already_settled")
	ErrNotSettleable   = errors.New("not_settleable")
	ErrInvalidMethod   = errors.New("invalid_method")
	ErrInvalidWeight   = errors.New("invalid_weight")
	ErrItemNotFound    = errors.New("item_not_found")
	ErrPaymentNotFound = errors.New("payment_not_found")
	ErrNotAuthorized   = errors.New("not_authorized")
)
