package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	addressdomain "github.com/smallbiznis/scrapline/internal/address/domain"
	auditdomain "github.com/smallbiznis/scrapline/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
	catalogdomain "github.com/smallbiznis/scrapline/internal/catalog/domain"
	"github.com/smallbiznis/scrapline/internal/clock"
	notificationdomain "github.com/smallbiznis/scrapline/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/scrapline/internal/observability/metrics"
	"github.com/smallbiznis/scrapline/internal/pricing"
	"github.com/smallbiznis/scrapline/internal/usercontext"
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
	Repo        bookingdomain.Repository
	AddressRepo addressdomain.Repository
	Catalog     catalogdomain.Service
	Notifier    notificationdomain.Service
	Audit       auditdomain.Service
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        bookingdomain.Repository
	addressRepo addressdomain.Repository
	catalog     catalogdomain.Service
	notifier    notificationdomain.Service
	audit       auditdomain.Service
	metrics     *obsmetrics.Metrics
}

func New(p Params) bookingdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("booking.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		addressRepo: p.AddressRepo,
		catalog:     p.Catalog,
		notifier:    p.Notifier,
		audit:       p.Audit,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req bookingdomain.CreateRequest) (*bookingdomain.Booking, error) {
	principal, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	addressID, err := snowflake.ParseString(strings.TrimSpace(req.AddressID))
	if err != nil || addressID == 0 {
		return nil, addressdomain.ErrInvalidAddress
	}
	address, err := s.addressRepo.FindByID(ctx, s.db, addressID)
	if err != nil {
		return nil, err
	}
	if address == nil || address.UserID != principal.UserID {
		return nil, addressdomain.ErrAddressNotFound
	}

	if req.ScheduledAt.IsZero() {
		return nil, bookingdomain.ErrInvalidSchedule
	}

	items, err := s.snapshotItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	booking := &bookingdomain.Booking{
		ID:          s.genID.Generate(),
		UserID:      principal.UserID,
		AddressID:   addressID,
		Status:      bookingdomain.StatusPending,
		ScheduledAt: req.ScheduledAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	lines := make([]pricing.LineItem, 0, len(items))
	for i := range items {
		items[i].BookingID = booking.ID
		items[i].CreatedAt = now
		lines = append(lines, pricing.LineItem{
			WeightKg:       items[i].EstimatedWeightKg,
			RatePerKgPaise: items[i].RatePerKgPaise,
		})
	}
	booking.EstimatedTotalPaise = pricing.Estimate(lines)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, booking); err != nil {
			return err
		}
		for i := range items {
			if err := s.repo.InsertItem(ctx, tx, &items[i]); err != nil {
				return err
			}
		}
		if err := s.notifier.Emit(ctx, tx, notificationdomain.EmitRequest{
			UserID:  booking.UserID,
			Icon:    booking.Status.Icon(),
			Title:   booking.Status.Label(),
			Message: fmt.Sprintf("Pickup scheduled, estimated %s", pricing.FormatINR(booking.EstimatedTotalPaise)),
		}); err != nil {
			return err
		}
		return s.recordAudit(ctx, tx, principal, "booking.created", booking.ID, map[string]any{
			"status":                string(booking.Status),
			"estimated_total_paise": booking.EstimatedTotalPaise,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordBookingCreated(ctx)
	s.log.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.Int64("estimated_total_paise", booking.EstimatedTotalPaise),
	)

	booking.Items = items
	return booking, nil
}

// AddItem appends a line to a PENDING booking and re-derives the estimate
// from the stored snapshots.
func (s *Service) AddItem(ctx context.Context, bookingID string, req bookingdomain.ItemRequest) (*bookingdomain.Booking, error) {
	principal, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	items, err := s.snapshotItems(ctx, []bookingdomain.ItemRequest{req})
	if err != nil {
		return nil, err
	}
	item := items[0]

	var booking *bookingdomain.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}
		if err := authorizeOwner(principal, booking); err != nil {
			return err
		}
		if booking.Status != bookingdomain.StatusPending {
			return bookingdomain.ErrNotEditable
		}

		now := s.clock.Now()
		item.BookingID = booking.ID
		item.CreatedAt = now
		if err := s.repo.InsertItem(ctx, tx, &item); err != nil {
			return err
		}

		existing, err := s.repo.ListItems(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		lines := make([]pricing.LineItem, 0, len(existing))
		for _, it := range existing {
			lines = append(lines, pricing.LineItem{
				WeightKg:       it.EstimatedWeightKg,
				RatePerKgPaise: it.RatePerKgPaise,
			})
		}
		booking.EstimatedTotalPaise = pricing.Estimate(lines)
		booking.UpdatedAt = now
		booking.Items = existing
		return s.repo.SetEstimatedTotal(ctx, tx, booking.ID, booking.EstimatedTotalPaise, now)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *Service) Advance(ctx context.Context, bookingID string, target bookingdomain.Status) (*bookingdomain.Booking, error) {
	principal, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}
	if !bookingdomain.IsValidStatus(target) {
		return nil, bookingdomain.ErrInvalidStatus
	}
	// Settlement is the only door into COMPLETED.
	if target == bookingdomain.StatusCompleted {
		return nil, bookingdomain.ErrInvalidTransition
	}

	var booking *bookingdomain.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}
		if err := authorizeOwner(principal, booking); err != nil {
			return err
		}

		// Same-status retry is an idempotent success.
		if booking.Status == target {
			return nil
		}

		if target == bookingdomain.StatusCancelled {
			if booking.Status.Terminal() {
				return bookingdomain.ErrTerminalState
			}
			return s.cancelLocked(ctx, tx, principal, booking, nil)
		}
		return s.advanceLocked(ctx, tx, principal, booking, target)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *Service) Cancel(ctx context.Context, bookingID string, reason string) (*bookingdomain.Booking, error) {
	principal, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	var reasonPtr *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		reasonPtr = &trimmed
	}

	var booking *bookingdomain.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return bookingdomain.ErrBookingNotFound
		}
		if err := authorizeOwner(principal, booking); err != nil {
			return err
		}
		if booking.Status.Terminal() {
			return bookingdomain.ErrTerminalState
		}
		return s.cancelLocked(ctx, tx, principal, booking, reasonPtr)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// advanceLocked applies a forward transition on a row-locked booking.
func (s *Service) advanceLocked(ctx context.Context, tx *gorm.DB, principal usercontext.Principal, booking *bookingdomain.Booking, target bookingdomain.Status) error {
	if !bookingdomain.CanTransition(booking.Status, target) {
		return bookingdomain.ErrInvalidTransition
	}

	// A booking needs at least one item before it can leave PENDING.
	if booking.Status == bookingdomain.StatusPending {
		items, err := s.repo.ListItems(ctx, tx, booking.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return bookingdomain.ErrEmptyItems
		}
	}

	from := booking.Status
	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, tx, booking.ID, target, now); err != nil {
		return err
	}
	booking.Status = target
	booking.UpdatedAt = now

	return s.emitTransition(ctx, tx, principal, booking, from, target, "")
}

// cancelLocked cancels a row-locked non-terminal booking.
func (s *Service) cancelLocked(ctx context.Context, tx *gorm.DB, principal usercontext.Principal, booking *bookingdomain.Booking, reason *string) error {
	from := booking.Status
	now := s.clock.Now()
	if err := s.repo.SetCancelled(ctx, tx, booking.ID, reason, now); err != nil {
		return err
	}
	booking.Status = bookingdomain.StatusCancelled
	booking.CancelReason = reason
	booking.UpdatedAt = now

	message := ""
	if reason != nil {
		message = *reason
	}
	return s.emitTransition(ctx, tx, principal, booking, from, bookingdomain.StatusCancelled, message)
}

// emitTransition writes the notification and audit entry every successful
// transition carries, inside the caller's transaction.
func (s *Service) emitTransition(ctx context.Context, tx *gorm.DB, principal usercontext.Principal, booking *bookingdomain.Booking, from, to bookingdomain.Status, message string) error {
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("Booking %s is now %s", booking.ID.String(), strings.ToLower(to.Label()))
	}
	if err := s.notifier.Emit(ctx, tx, notificationdomain.EmitRequest{
		UserID:  booking.UserID,
		Icon:    to.Icon(),
		Title:   to.Label(),
		Message: message,
	}); err != nil {
		return err
	}
	if err := s.recordAudit(ctx, tx, principal, "booking.status_changed", booking.ID, map[string]any{
		"from": string(from),
		"to":   string(to),
	}); err != nil {
		return err
	}
	s.metrics.RecordTransition(ctx, string(from), string(to))
	return nil
}

func (s *Service) recordAudit(ctx context.Context, tx *gorm.DB, principal usercontext.Principal, action string, bookingID snowflake.ID, metadata map[string]any) error {
	actorID := principal.UserID.String()
	targetID := bookingID.String()
	return s.audit.Record(ctx, tx, string(principal.Role), &actorID, action, "booking", &targetID, metadata)
}

func (s *Service) Get(ctx context.Context, bookingID string) (*bookingdomain.Booking, error) {
	principal, ok := usercontext.PrincipalFromContext(ctx)
	if !ok {
		return nil, bookingdomain.ErrNotAuthorized
	}
	id, err := parseBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, bookingdomain.ErrBookingNotFound
	}
	if err := authorizeViewer(principal, booking); err != nil {
		return nil, err
	}

	items, err := s.repo.ListItems(ctx, s.db, booking.ID)
	if err != nil {
		return nil, err
	}
	booking.Items = items
	return booking, nil
}

func (s *Service) ListMine(ctx context.Context) ([]bookingdomain.Booking, error) {
	principal, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, s.db, principal.UserID)
}

func (s *Service) ListAssigned(ctx context.Context) ([]bookingdomain.Booking, error) {
	principal, ok := usercontext.PrincipalFromContext(ctx)
	if !ok || principal.PartnerID == 0 {
		return nil, bookingdomain.ErrNotAuthorized
	}
	return s.repo.ListByPartner(ctx, s.db, principal.PartnerID)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit int) ([]bookingdomain.Booking, error) {
	principal, ok := usercontext.PrincipalFromContext(ctx)
	if !ok || !principal.IsAdmin() {
		return nil, bookingdomain.ErrNotAuthorized
	}
	parsed := bookingdomain.Status(strings.ToUpper(strings.TrimSpace(status)))
	if !bookingdomain.IsValidStatus(parsed) {
		return nil, bookingdomain.ErrInvalidStatus
	}
	return s.repo.ListByStatus(ctx, s.db, parsed, limit)
}

// snapshotItems validates requested lines and captures the active rate for
// each category. The snapshot is what every later price computation uses.
func (s *Service) snapshotItems(ctx context.Context, reqs []bookingdomain.ItemRequest) ([]bookingdomain.BookingItem, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	categoryIDs := make([]snowflake.ID, 0, len(reqs))
	for _, req := range reqs {
		if req.EstimatedWeightKg <= 0 {
			return nil, bookingdomain.ErrInvalidWeight
		}
		categoryID, err := snowflake.ParseString(strings.TrimSpace(req.CategoryID))
		if err != nil || categoryID == 0 {
			return nil, catalogdomain.ErrInvalidCategory
		}
		categoryIDs = append(categoryIDs, categoryID)
	}

	rates, err := s.catalog.ActiveRatesByCategory(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}

	items := make([]bookingdomain.BookingItem, 0, len(reqs))
	for i, req := range reqs {
		rate, ok := rates[categoryIDs[i]]
		if !ok {
			return nil, bookingdomain.ErrRateUnavailable
		}
		items = append(items, bookingdomain.BookingItem{
			ID:                s.genID.Generate(),
			CategoryID:        categoryIDs[i],
			EstimatedWeightKg: req.EstimatedWeightKg,
			RatePerKgPaise:    rate.PricePerKgPaise,
		})
	}
	return items, nil
}

func requireUser(ctx context.Context) (usercontext.Principal, error) {
	principal, ok := usercontext.PrincipalFromContext(ctx)
	if !ok || principal.UserID == 0 {
		return usercontext.Principal{}, bookingdomain.ErrNotAuthorized
	}
	return principal, nil
}

func authorizeOwner(principal usercontext.Principal, booking *bookingdomain.Booking) error {
	if principal.IsAdmin() {
		return nil
	}
	if booking.UserID != principal.UserID {
		return bookingdomain.ErrNotAuthorized
	}
	return nil
}

func authorizeViewer(principal usercontext.Principal, booking *bookingdomain.Booking) error {
	if principal.IsAdmin() {
		return nil
	}
	if principal.UserID != 0 && booking.UserID == principal.UserID {
		return nil
	}
	if principal.PartnerID != 0 && booking.PartnerID != nil && *booking.PartnerID == principal.PartnerID {
		return nil
	}
	return bookingdomain.ErrNotAuthorized
}

func parseBookingID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, bookingdomain.ErrInvalidBooking
	}
	return id, nil
}
