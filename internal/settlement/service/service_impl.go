package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/scrapline/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
	"github.com/smallbiznis/scrapline/internal/clock"
	notificationdomain "github.com/smallbiznis/scrapline/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/scrapline/internal/observability/metrics"
	"github.com/smallbiznis/scrapline/internal/pricing"
	settlementdomain "github.com/smallbiznis/scrapline/internal/settlement/domain"
	"github.com/smallbiznis/scrapline/internal/usercontext"
	"github.com/smallbiznis/scrapline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        settlementdomain.Repository
	BookingRepo bookingdomain.Repository
	Notifier    notificationdomain.Service
	Audit       auditdomain.Service
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        settlementdomain.Repository
	bookingRepo bookingdomain.Repository
	notifier    notificationdomain.Service
	audit       auditdomain.Service
	metrics     *obsmetrics.Metrics
}

func New(p Params) settlementdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("settlement.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		bookingRepo: p.BookingRepo,
		notifier:    p.Notifier,
		audit:       p.Audit,
		metrics:     p.Metrics,
	}
}

func (s *Service) RecordFinalWeight(ctx context.Context, bookingID, itemID string, weightKg float64) (*bookingdomain.BookingItem, error) {
	principal, err := requirePartnerOrAdmin(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(bookingID, bookingdomain.ErrInvalidBooking)
	if err != nil {
		return nil, err
	}
	lineID, err := parseID(itemID, settlementdomain.ErrItemNotFound)
	if err != nil {
		return nil, err
	}
	if weightKg <= 0 {
		return nil, settlementdomain.ErrInvalidWeight
	}

	var item *bookingdomain.BookingItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}
		if err := authorizeSettler(principal, booking); err != nil {
			return err
		}
		if booking.Status != bookingdomain.StatusArrived {
			return settlementdomain.ErrNotSettleable
		}

		item, err = s.bookingRepo.FindItemByID(ctx, tx, lineID)
		if err != nil {
			return err
		}
		if item == nil || item.BookingID != booking.ID {
			return settlementdomain.ErrItemNotFound
		}

		if err := s.bookingRepo.SetItemFinalWeight(ctx, tx, lineID, weightKg); err != nil {
			return err
		}
		item.FinalWeightKg = &weightKg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Settle is the single commit point: final total, payment row and the
// COMPLETED transition land together or not at all.
func (s *Service) Settle(ctx context.Context, bookingID string, req settlementdomain.SettleRequest) (*settlementdomain.SettleResponse, error) {
	principal, err := requirePartnerOrAdmin(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(bookingID, bookingdomain.ErrInvalidBooking)
	if err != nil {
		return nil, err
	}

	method := settlementdomain.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(req.Method))))
	if !settlementdomain.IsValidMethod(method) {
		return nil, settlementdomain.ErrInvalidMethod
	}
	var transactionID *string
	if trimmed := strings.TrimSpace(req.TransactionID); trimmed != "" {
		transactionID = &trimmed
	}

	var resp *settlementdomain.SettleResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}
		if err := authorizeSettler(principal, booking); err != nil {
			return err
		}

		existing, err := s.repo.FindByBookingID(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return settlementdomain.ErrAlreadySettled
		}
		if booking.Status != bookingdomain.StatusArrived {
			return settlementdomain.ErrNotSettleable
		}

		items, err := s.bookingRepo.ListItems(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return bookingdomain.ErrEmptyItems
		}

		// Final weight falls back to the estimate; the rate is always the
		// snapshot taken when the item was added.
		lines := make([]pricing.LineItem, 0, len(items))
		for _, item := range items {
			weight := item.EstimatedWeightKg
			if item.FinalWeightKg != nil {
				weight = *item.FinalWeightKg
			}
			lines = append(lines, pricing.LineItem{
				WeightKg:       weight,
				RatePerKgPaise: item.RatePerKgPaise,
			})
		}
		finalTotal := pricing.Estimate(lines)

		now := s.clock.Now()
		payment := &settlementdomain.Payment{
			ID:            s.genID.Generate(),
			BookingID:     booking.ID,
			AmountPaise:   finalTotal,
			Method:        method,
			Status:        settlementdomain.StatusCaptured,
			TransactionID: transactionID,
			CreatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, payment); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return settlementdomain.ErrAlreadySettled
			}
			return err
		}

		from := booking.Status
		if err := s.bookingRepo.Complete(ctx, tx, booking.ID, finalTotal, now); err != nil {
			return err
		}
		booking.Status = bookingdomain.StatusCompleted
		booking.FinalTotalPaise = &finalTotal
		booking.UpdatedAt = now
		booking.Items = items

		if err := s.notifier.Emit(ctx, tx, notificationdomain.EmitRequest{
			UserID:  booking.UserID,
			Icon:    booking.Status.Icon(),
			Title:   booking.Status.Label(),
			Message: fmt.Sprintf("Settled %s via %s", pricing.FormatINR(finalTotal), method),
		}); err != nil {
			return err
		}

		actorID := actorIdentifier(principal)
		targetID := booking.ID.String()
		if err := s.audit.Record(ctx, tx, string(principal.Role), &actorID, "booking.settled", "booking", &targetID, map[string]any{
			"from":              string(from),
			"to":                string(booking.Status),
			"final_total_paise": finalTotal,
			"method":            string(method),
		}); err != nil {
			return err
		}

		resp = &settlementdomain.SettleResponse{Booking: booking, Payment: payment}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSettlement(ctx, string(method))
	s.metrics.RecordTransition(ctx, string(bookingdomain.StatusArrived), string(bookingdomain.StatusCompleted))
	s.log.Info("booking settled",
		zap.String("booking_id", resp.Booking.ID.String()),
		zap.Int64("final_total_paise", resp.Payment.AmountPaise),
		zap.String("method", string(method)),
	)
	return resp, nil
}

func (s *Service) GetPayment(ctx context.Context, bookingID string) (*settlementdomain.Payment, error) {
	principal, ok := usercontext.PrincipalFromContext(ctx)
	if !ok {
		return nil, settlementdomain.ErrNotAuthorized
	}
	id, err := parseID(bookingID, bookingdomain.ErrInvalidBooking)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, bookingdomain.ErrBookingNotFound
	}
	if !principal.IsAdmin() && booking.UserID != principal.UserID &&
		(booking.PartnerID == nil || principal.PartnerID == 0 || *booking.PartnerID != principal.PartnerID) {
		return nil, settlementdomain.ErrNotAuthorized
	}

	payment, err := s.repo.FindByBookingID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, settlementdomain.ErrPaymentNotFound
	}
	return payment, nil
}

func authorizeSettler(principal usercontext.Principal, booking *bookingdomain.Booking) error {
	if principal.IsAdmin() {
		return nil
	}
	if booking.PartnerID == nil || principal.PartnerID == 0 || *booking.PartnerID != principal.PartnerID {
		return settlementdomain.ErrNotAuthorized
	}
	return nil
}

func requirePartnerOrAdmin(ctx context.Context) (usercontext.Principal, error) {
	principal, ok := usercontext.PrincipalFromContext(ctx)
	if !ok || (!principal.IsAdmin() && principal.PartnerID == 0) {
		return usercontext.Principal{}, settlementdomain.ErrNotAuthorized
	}
	return principal, nil
}

func actorIdentifier(principal usercontext.Principal) string {
	if principal.PartnerID != 0 {
		return principal.PartnerID.String()
	}
	return principal.UserID.String()
}

func parseID(raw string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
