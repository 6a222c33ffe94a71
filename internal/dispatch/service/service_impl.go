package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/scrapline/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
	"github.com/smallbiznis/scrapline/internal/clock"
	"github.com/smallbiznis/scrapline/internal/config"
	dispatchdomain "github.com/smallbiznis/scrapline/internal/dispatch/domain"
	notificationdomain "github.com/smallbiznis/scrapline/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/scrapline/internal/observability/metrics"
	partnerdomain "github.com/smallbiznis/scrapline/internal/partner/domain"
	"github.com/smallbiznis/scrapline/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	BookingRepo bookingdomain.Repository
	PartnerRepo partnerdomain.Repository
	Notifier    notificationdomain.Service
	Audit       auditdomain.Service
	Policy      *config.DispatchPolicyHolder `optional:"true"`
	Metrics     *obsmetrics.Metrics          `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	bookingRepo bookingdomain.Repository
	partnerRepo partnerdomain.Repository
	notifier    notificationdomain.Service
	audit       auditdomain.Service
	policy      *config.DispatchPolicyHolder
	metrics     *obsmetrics.Metrics
}

func New(p Params) dispatchdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("dispatch.service"),
		clock:       p.Clock,
		bookingRepo: p.BookingRepo,
		partnerRepo: p.PartnerRepo,
		notifier:    p.Notifier,
		audit:       p.Audit,
		policy:      p.Policy,
		metrics:     p.Metrics,
	}
}

// maxOpenPickups returns the per-partner load cap, 0 when uncapped.
func (s *Service) maxOpenPickups() int64 {
	if s.policy == nil {
		return 0
	}
	return s.policy.Get().MaxOpenPickups
}

func (s *Service) AutoAssign(ctx context.Context, bookingID snowflake.ID) (*dispatchdomain.AssignResult, error) {
	var result *dispatchdomain.AssignResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}
		if booking.PartnerID != nil {
			return dispatchdomain.ErrAlreadyAssigned
		}
		if booking.Status != bookingdomain.StatusConfirmed {
			return dispatchdomain.ErrNotAssignable
		}

		candidates, err := s.partnerRepo.ListActiveByLoad(ctx, tx)
		if err != nil {
			return err
		}
		if maxOpen := s.maxOpenPickups(); maxOpen > 0 {
			eligible := candidates[:0]
			for _, candidate := range candidates {
				if candidate.OpenAssignments < maxOpen {
					eligible = append(eligible, candidate)
				}
			}
			candidates = eligible
		}
		if len(candidates) == 0 {
			result = &dispatchdomain.AssignResult{Outcome: dispatchdomain.OutcomeDeferred, Booking: booking}
			return nil
		}

		chosen := candidates[0]
		if err := s.assignLocked(ctx, tx, booking, chosen.ID, "system", nil); err != nil {
			return err
		}
		result = &dispatchdomain.AssignResult{
			Outcome:   dispatchdomain.OutcomeAssigned,
			PartnerID: &chosen.ID,
			Booking:   booking,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAssignment(ctx, string(result.Outcome))
	if result.Outcome == dispatchdomain.OutcomeDeferred {
		s.log.Info("assignment deferred, no active partner",
			zap.String("booking_id", bookingID.String()),
		)
	}
	return result, nil
}

func (s *Service) SweepUnassigned(ctx context.Context, limit int) (int, error) {
	pending, err := s.bookingRepo.ListUnassignedConfirmed(ctx, s.db, limit)
	if err != nil {
		return 0, err
	}

	assigned := 0
	for _, booking := range pending {
		result, err := s.AutoAssign(ctx, booking.ID)
		if err != nil {
			// Raced with an accept or cancel; skip and keep sweeping.
			s.log.Warn("sweep assignment failed",
				zap.String("booking_id", booking.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if result.Outcome == dispatchdomain.OutcomeAssigned {
			assigned++
		}
	}
	return assigned, nil
}

// PartnerAccept claims a CONFIRMED unassigned booking for the calling
// partner. With two racing acceptors the row lock serializes them: the first
// wins, the second sees the assignment and fails.
func (s *Service) PartnerAccept(ctx context.Context, bookingID string) (*bookingdomain.Booking, error) {
	principal, err := requirePartner(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	var booking *bookingdomain.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err = s.bookingRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}

		if booking.PartnerID != nil {
			if *booking.PartnerID == principal.PartnerID {
				// Retry of a won race is an idempotent success.
				return nil
			}
			return dispatchdomain.ErrAlreadyAssigned
		}
		if booking.Status != bookingdomain.StatusConfirmed {
			return dispatchdomain.ErrNotAssignable
		}

		actorID := principal.PartnerID.String()
		return s.assignLocked(ctx, tx, booking, principal.PartnerID, "partner", &actorID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAssignment(ctx, "accepted")
	return booking, nil
}

// PartnerAdvance lets the assigned partner drive the booking up to ARRIVED.
func (s *Service) PartnerAdvance(ctx context.Context, bookingID string, target bookingdomain.Status) (*bookingdomain.Booking, error) {
	principal, err := requirePartner(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if target != bookingdomain.StatusOnTheWay && target != bookingdomain.StatusArrived {
		return nil, bookingdomain.ErrInvalidTransition
	}

	var booking *bookingdomain.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err = s.bookingRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}
		if booking.PartnerID == nil || *booking.PartnerID != principal.PartnerID {
			return dispatchdomain.ErrNotAuthorized
		}
		if booking.Status == target {
			return nil
		}
		if !bookingdomain.CanTransition(booking.Status, target) {
			return bookingdomain.ErrInvalidTransition
		}

		from := booking.Status
		now := s.clock.Now()
		if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, target, now); err != nil {
			return err
		}
		booking.Status = target
		booking.UpdatedAt = now

		actorID := principal.PartnerID.String()
		return s.emitTransition(ctx, tx, booking, from, target, "partner", &actorID)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// assignLocked sets the partner on a row-locked CONFIRMED booking and drives
// the state machine to PARTNER_ASSIGNED.
func (s *Service) assignLocked(ctx context.Context, tx *gorm.DB, booking *bookingdomain.Booking, partnerID snowflake.ID, actorType string, actorID *string) error {
	if !bookingdomain.CanTransition(booking.Status, bookingdomain.StatusPartnerAssigned) {
		return bookingdomain.ErrInvalidTransition
	}

	from := booking.Status
	now := s.clock.Now()
	if err := s.bookingRepo.AssignPartner(ctx, tx, booking.ID, partnerID, now); err != nil {
		return err
	}
	booking.PartnerID = &partnerID
	booking.Status = bookingdomain.StatusPartnerAssigned
	booking.UpdatedAt = now

	return s.emitTransition(ctx, tx, booking, from, bookingdomain.StatusPartnerAssigned, actorType, actorID)
}

func (s *Service) emitTransition(ctx context.Context, tx *gorm.DB, booking *bookingdomain.Booking, from, to bookingdomain.Status, actorType string, actorID *string) error {
	if err := s.notifier.Emit(ctx, tx, notificationdomain.EmitRequest{
		UserID:  booking.UserID,
		Icon:    to.Icon(),
		Title:   to.Label(),
		Message: fmt.Sprintf("Booking %s is now %s", booking.ID.String(), strings.ToLower(to.Label())),
	}); err != nil {
		return err
	}

	targetID := booking.ID.String()
	metadata := map[string]any{
		"from": string(from),
		"to":   string(to),
	}
	if booking.PartnerID != nil {
		metadata["partner_id"] = booking.PartnerID.String()
	}
	if err := s.audit.Record(ctx, tx, actorType, actorID, "booking.status_changed", "booking", &targetID, metadata); err != nil {
		return err
	}

	s.metrics.RecordTransition(ctx, string(from), string(to))
	return nil
}

func requirePartner(ctx context.Context) (usercontext.Principal, error) {
	principal, ok := usercontext.PrincipalFromContext(ctx)
	if !ok || principal.PartnerID == 0 {
		return usercontext.Principal{}, dispatchdomain.ErrNotAuthorized
	}
	return principal, nil
}

func parseBookingID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, bookingdomain.ErrInvalidBooking
	}
	return id, nil
}
