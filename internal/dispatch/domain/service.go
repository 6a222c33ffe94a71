package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
)

// Outcome reports how an auto-assignment attempt ended. Deferred is not an
// error: the booking stays CONFIRMED and the sweep retries it.
type Outcome string

const (
	OutcomeAssigned Outcome = "assigned"
	OutcomeDeferred Outcome = "deferred"
)

type AssignResult struct {
	Outcome   Outcome                `json:"outcome"`
	PartnerID *snowflake.ID          `json:"partner_id,omitempty"`
	Booking   *bookingdomain.Booking `json:"booking,omitempty"`
}

type Service interface {
	// AutoAssign picks the active partner with the fewest open assignments,
	// ties broken by lowest partner id, for a CONFIRMED unassigned booking.
	AutoAssign(ctx context.Context, bookingID snowflake.ID) (*AssignResult, error)
	// SweepUnassigned retries deferred assignments; returns how many were assigned.
	SweepUnassigned(ctx context.Context, limit int) (int, error)
	PartnerAccept(ctx context.Context, bookingID string) (*bookingdomain.Booking, error)
	PartnerAdvance(ctx context.Context, bookingID string, target bookingdomain.Status) (*bookingdomain.Booking, error)
}

var (
	ErrAlreadyAssigned = errors.New("already_assigned")
	ErrNotAssignable   = errors.New("not_assignable")
	ErrNotAuthorized   = errors.New("not_authorized")
)
