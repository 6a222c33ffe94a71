package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	AddItem(ctx context.Context, bookingID string, req ItemRequest) (*Booking, error)
	// Advance moves the booking to the unique forward successor or to
	// CANCELLED. COMPLETED is never reachable here; settlement owns it.
	Advance(ctx context.Context, bookingID string, target Status) (*Booking, error)
	Cancel(ctx context.Context, bookingID string, reason string) (*Booking, error)
	Get(ctx context.Context, bookingID string) (*Booking, error)
	ListMine(ctx context.Context) ([]Booking, error)
	ListAssigned(ctx context.Context) ([]Booking, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]Booking, error)
}

type CreateRequest struct {
	AddressID   string        `json:"address_id"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	Items       []ItemRequest `json:"items"`
}

type ItemRequest struct {
	CategoryID        string  `json:"category_id"`
	EstimatedWeightKg float64 `json:"estimated_weight_kg"`
}

var (
	ErrInvalidBooking    = errors.New("invalid_booking")
	ErrBookingNotFound   = errors.New("booking_not_found")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrTerminalState     = errors.New("terminal_state")
	ErrNotAuthorized     = errors.New("not_authorized")
	ErrNotEditable       = errors.New("booking_not_editable")
	ErrEmptyItems        = errors.New("empty_items")
	ErrInvalidWeight     = errors.New("invalid_weight")
	ErrInvalidSchedule   = errors.New("invalid_schedule")
	ErrRateUnavailable   = errors.New("rate_unavailable")
)
