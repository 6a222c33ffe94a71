package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/scrapline/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
	"github.com/smallbiznis/scrapline/internal/clock"
	"github.com/smallbiznis/scrapline/internal/config"
	dispatchdomain "github.com/smallbiznis/scrapline/internal/dispatch/domain"
	notificationdomain "github.com/smallbiznis/scrapline/internal/notification/domain"
	partnerdomain "github.com/smallbiznis/scrapline/internal/partner/domain"
	"github.com/smallbiznis/scrapline/internal/usercontext"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memoryBookingRepo struct {
	mu       sync.Mutex
	bookings map[snowflake.ID]*bookingdomain.Booking
	items    map[snowflake.ID][]bookingdomain.BookingItem
}

func newMemoryBookingRepo() *memoryBookingRepo {
	return &memoryBookingRepo{
		bookings: make(map[snowflake.ID]*bookingdomain.Booking),
		items:    make(map[snowflake.ID][]bookingdomain.BookingItem),
	}
}

func (r *memoryBookingRepo) put(booking *bookingdomain.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *booking
	r.bookings[booking.ID] = &clone
}

func (r *memoryBookingRepo) Insert(ctx context.Context, db *gorm.DB, booking *bookingdomain.Booking) error {
	r.put(booking)
	return nil
}

func (r *memoryBookingRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*bookingdomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, nil
	}
	clone := *booking
	return &clone, nil
}

func (r *memoryBookingRepo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*bookingdomain.Booking, error) {
	return r.FindByID(ctx, db, id)
}

func (r *memoryBookingRepo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status bookingdomain.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking, ok := r.bookings[id]; ok {
		booking.Status = status
		booking.UpdatedAt = at
	}
	return nil
}

func (r *memoryBookingRepo) AssignPartner(ctx context.Context, db *gorm.DB, id, partnerID snowflake.ID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking, ok := r.bookings[id]; ok {
		booking.PartnerID = &partnerID
		booking.Status = bookingdomain.StatusPartnerAssigned
		booking.UpdatedAt = at
	}
	return nil
}

func (r *memoryBookingRepo) SetCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID, reason *string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking, ok := r.bookings[id]; ok {
		booking.Status = bookingdomain.StatusCancelled
		booking.CancelReason = reason
	}
	return nil
}

func (r *memoryBookingRepo) SetEstimatedTotal(ctx context.Context, db *gorm.DB, id snowflake.ID, totalPaise int64, at time.Time) error {
	return nil
}

func (r *memoryBookingRepo) Complete(ctx context.Context, db *gorm.DB, id snowflake.ID, finalTotalPaise int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking, ok := r.bookings[id]; ok {
		booking.Status = bookingdomain.StatusCompleted
		booking.FinalTotalPaise = &finalTotalPaise
	}
	return nil
}

func (r *memoryBookingRepo) InsertItem(ctx context.Context, db *gorm.DB, item *bookingdomain.BookingItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.BookingID] = append(r.items[item.BookingID], *item)
	return nil
}

func (r *memoryBookingRepo) ListItems(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) ([]bookingdomain.BookingItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bookingdomain.BookingItem(nil), r.items[bookingID]...), nil
}

func (r *memoryBookingRepo) FindItemByID(ctx context.Context, db *gorm.DB, itemID snowflake.ID) (*bookingdomain.BookingItem, error) {
	return nil, nil
}

func (r *memoryBookingRepo) SetItemFinalWeight(ctx context.Context, db *gorm.DB, itemID snowflake.ID, weightKg float64) error {
	return nil
}

func (r *memoryBookingRepo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]bookingdomain.Booking, error) {
	return nil, nil
}

func (r *memoryBookingRepo) ListByPartner(ctx context.Context, db *gorm.DB, partnerID snowflake.ID) ([]bookingdomain.Booking, error) {
	return nil, nil
}

func (r *memoryBookingRepo) ListByStatus(ctx context.Context, db *gorm.DB, status bookingdomain.Status, limit int) ([]bookingdomain.Booking, error) {
	return nil, nil
}

func (r *memoryBookingRepo) ListUnassignedConfirmed(ctx context.Context, db *gorm.DB, limit int) ([]bookingdomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []bookingdomain.Booking
	for _, booking := range r.bookings {
		if booking.Status == bookingdomain.StatusConfirmed && booking.PartnerID == nil {
			out = append(out, *booking)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// stubPartnerRepo derives the load ordering from the booking repo the same
// way the SQL does: open assignments ascending, then partner id.
type stubPartnerRepo struct {
	partners []partnerdomain.Partner
	bookings *memoryBookingRepo
}

func (r *stubPartnerRepo) Insert(ctx context.Context, db *gorm.DB, partner *partnerdomain.Partner) error {
	r.partners = append(r.partners, *partner)
	return nil
}

func (r *stubPartnerRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*partnerdomain.Partner, error) {
	for _, partner := range r.partners {
		if partner.ID == id {
			clone := partner
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *stubPartnerRepo) List(ctx context.Context, db *gorm.DB) ([]partnerdomain.Partner, error) {
	return append([]partnerdomain.Partner(nil), r.partners...), nil
}

func (r *stubPartnerRepo) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, at time.Time) error {
	for i := range r.partners {
		if r.partners[i].ID == id {
			r.partners[i].Active = active
		}
	}
	return nil
}

func (r *stubPartnerRepo) ListActiveByLoad(ctx context.Context, db *gorm.DB) ([]partnerdomain.PartnerLoad, error) {
	open := map[snowflake.ID]int64{}
	r.bookings.mu.Lock()
	for _, booking := range r.bookings.bookings {
		if booking.PartnerID == nil {
			continue
		}
		switch booking.Status {
		case bookingdomain.StatusPartnerAssigned, bookingdomain.StatusOnTheWay, bookingdomain.StatusArrived:
			open[*booking.PartnerID]++
		}
	}
	r.bookings.mu.Unlock()

	var out []partnerdomain.PartnerLoad
	for _, partner := range r.partners {
		if !partner.Active {
			continue
		}
		out = append(out, partnerdomain.PartnerLoad{
			Partner:         partner,
			OpenAssignments: open[partner.ID],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenAssignments != out[j].OpenAssignments {
			return out[i].OpenAssignments < out[j].OpenAssignments
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type noopNotifier struct{}

func (noopNotifier) Emit(ctx context.Context, db *gorm.DB, req notificationdomain.EmitRequest) error {
	return nil
}

func (noopNotifier) ListMine(ctx context.Context, req notificationdomain.ListRequest) (notificationdomain.ListResponse, error) {
	return notificationdomain.ListResponse{}, nil
}

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, db *gorm.DB, actorType string, actorID *string, action, targetType string, targetID *string, metadata map[string]any) error {
	return nil
}

func (noopAudit) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

type dispatchFixture struct {
	svc         dispatchdomain.Service
	db          *gorm.DB
	bookingRepo *memoryBookingRepo
	partnerRepo *stubPartnerRepo
	clock       *clock.FakeClock
	node        *snowflake.Node
}

func setupDispatchService(t *testing.T) *dispatchFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	node, err := snowflake.NewNode(8)
	require.NoError(t, err)

	bookingRepo := newMemoryBookingRepo()
	partnerRepo := &stubPartnerRepo{bookings: bookingRepo}
	fakeClock := clock.NewFakeClock(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		Clock:       fakeClock,
		BookingRepo: bookingRepo,
		PartnerRepo: partnerRepo,
		Notifier:    noopNotifier{},
		Audit:       noopAudit{},
	})

	return &dispatchFixture{
		svc:         svc,
		db:          conn,
		bookingRepo: bookingRepo,
		partnerRepo: partnerRepo,
		clock:       fakeClock,
		node:        node,
	}
}

func (f *dispatchFixture) addPartner(active bool) snowflake.ID {
	id := f.node.Generate()
	f.partnerRepo.partners = append(f.partnerRepo.partners, partnerdomain.Partner{
		ID:     id,
		Name:   "Partner " + id.String(),
		Active: active,
	})
	return id
}

func (f *dispatchFixture) addBooking(status bookingdomain.Status, partnerID *snowflake.ID) *bookingdomain.Booking {
	booking := &bookingdomain.Booking{
		ID:        f.node.Generate(),
		UserID:    f.node.Generate(),
		Status:    status,
		PartnerID: partnerID,
	}
	f.bookingRepo.put(booking)
	return booking
}

func partnerCtx(partnerID snowflake.ID) context.Context {
	return usercontext.WithPrincipal(context.Background(), usercontext.Principal{
		UserID:    partnerID,
		PartnerID: partnerID,
		Role:      usercontext.RolePartner,
	})
}

func TestAutoAssignPicksLeastLoadedPartner(t *testing.T) {
	f := setupDispatchService(t)

	busy := f.addPartner(true)
	idle := f.addPartner(true)
	f.addBooking(bookingdomain.StatusPartnerAssigned, &busy)

	booking := f.addBooking(bookingdomain.StatusConfirmed, nil)
	result, err := f.svc.AutoAssign(context.Background(), booking.ID)
	require.NoError(t, err)
	require.Equal(t, dispatchdomain.OutcomeAssigned, result.Outcome)
	require.NotNil(t, result.PartnerID)
	require.Equal(t, idle, *result.PartnerID)
	require.Equal(t, bookingdomain.StatusPartnerAssigned, result.Booking.Status)
}

func TestAutoAssignTieBreaksOnLowestID(t *testing.T) {
	f := setupDispatchService(t)

	first := f.addPartner(true)
	f.addPartner(true)

	booking := f.addBooking(bookingdomain.StatusConfirmed, nil)
	result, err := f.svc.AutoAssign(context.Background(), booking.ID)
	require.NoError(t, err)
	require.Equal(t, first, *result.PartnerID)
}

func TestAutoAssignRespectsLoadCap(t *testing.T) {
	f := setupDispatchService(t)

	capped := New(Params{
		DB:          f.db,
		Log:         zap.NewNop(),
		Clock:       f.clock,
		BookingRepo: f.bookingRepo,
		PartnerRepo: f.partnerRepo,
		Notifier:    noopNotifier{},
		Audit:       noopAudit{},
		Policy:      config.StaticDispatchPolicy(config.DispatchPolicy{MaxOpenPickups: 1}),
	})

	partnerID := f.addPartner(true)
	f.addBooking(bookingdomain.StatusPartnerAssigned, &partnerID)

	// The only partner is at the cap, so the booking waits for the sweep.
	booking := f.addBooking(bookingdomain.StatusConfirmed, nil)
	result, err := capped.AutoAssign(context.Background(), booking.ID)
	require.NoError(t, err)
	require.Equal(t, dispatchdomain.OutcomeDeferred, result.Outcome)
	require.Nil(t, result.Booking.PartnerID)
}

func TestAutoAssignDefersWithoutPartners(t *testing.T) {
	f := setupDispatchService(t)

	f.addPartner(false)

	booking := f.addBooking(bookingdomain.StatusConfirmed, nil)
	result, err := f.svc.AutoAssign(context.Background(), booking.ID)
	require.NoError(t, err)
	require.Equal(t, dispatchdomain.OutcomeDeferred, result.Outcome)
	require.Nil(t, result.PartnerID)

	stored, err := f.bookingRepo.FindByID(context.Background(), nil, booking.ID)
	require.NoError(t, err)
	require.Equal(t, bookingdomain.StatusConfirmed, stored.Status)
	require.Nil(t, stored.PartnerID)
}

func TestAutoAssignRejectsPendingBooking(t *testing.T) {
	f := setupDispatchService(t)

	f.addPartner(true)
	booking := f.addBooking(bookingdomain.StatusPending, nil)

	_, err := f.svc.AutoAssign(context.Background(), booking.ID)
	require.ErrorIs(t, err, dispatchdomain.ErrNotAssignable)
}

func TestSweepAssignsDeferredBookings(t *testing.T) {
	f := setupDispatchService(t)

	first := f.addBooking(bookingdomain.StatusConfirmed, nil)
	second := f.addBooking(bookingdomain.StatusConfirmed, nil)
	f.addBooking(bookingdomain.StatusPending, nil)

	assigned, err := f.svc.SweepUnassigned(context.Background(), 10)
	require.NoError(t, err)
	require.Zero(t, assigned)

	f.addPartner(true)
	assigned, err = f.svc.SweepUnassigned(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 2, assigned)

	for _, id := range []snowflake.ID{first.ID, second.ID} {
		stored, err := f.bookingRepo.FindByID(context.Background(), nil, id)
		require.NoError(t, err)
		require.Equal(t, bookingdomain.StatusPartnerAssigned, stored.Status)
	}
}

func TestPartnerAcceptRace(t *testing.T) {
	f := setupDispatchService(t)

	winner := f.addPartner(true)
	loser := f.addPartner(true)
	booking := f.addBooking(bookingdomain.StatusConfirmed, nil)

	got, err := f.svc.PartnerAccept(partnerCtx(winner), booking.ID.String())
	require.NoError(t, err)
	require.Equal(t, winner, *got.PartnerID)

	_, err = f.svc.PartnerAccept(partnerCtx(loser), booking.ID.String())
	require.ErrorIs(t, err, dispatchdomain.ErrAlreadyAssigned)

	// The winner retrying is a no-op success.
	again, err := f.svc.PartnerAccept(partnerCtx(winner), booking.ID.String())
	require.NoError(t, err)
	require.Equal(t, winner, *again.PartnerID)
}

func TestPartnerAdvanceRequiresAssignment(t *testing.T) {
	f := setupDispatchService(t)

	assigned := f.addPartner(true)
	other := f.addPartner(true)
	booking := f.addBooking(bookingdomain.StatusPartnerAssigned, &assigned)

	_, err := f.svc.PartnerAdvance(partnerCtx(other), booking.ID.String(), bookingdomain.StatusOnTheWay)
	require.ErrorIs(t, err, dispatchdomain.ErrNotAuthorized)

	got, err := f.svc.PartnerAdvance(partnerCtx(assigned), booking.ID.String(), bookingdomain.StatusOnTheWay)
	require.NoError(t, err)
	require.Equal(t, bookingdomain.StatusOnTheWay, got.Status)
}

func TestPartnerAdvanceBounds(t *testing.T) {
	f := setupDispatchService(t)

	partnerID := f.addPartner(true)
	booking := f.addBooking(bookingdomain.StatusPartnerAssigned, &partnerID)

	_, err := f.svc.PartnerAdvance(partnerCtx(partnerID), booking.ID.String(), bookingdomain.StatusCompleted)
	require.ErrorIs(t, err, bookingdomain.ErrInvalidTransition)

	_, err = f.svc.PartnerAdvance(partnerCtx(partnerID), booking.ID.String(), bookingdomain.StatusArrived)
	require.ErrorIs(t, err, bookingdomain.ErrInvalidTransition)

	got, err := f.svc.PartnerAdvance(partnerCtx(partnerID), booking.ID.String(), bookingdomain.StatusOnTheWay)
	require.NoError(t, err)
	require.Equal(t, bookingdomain.StatusOnTheWay, got.Status)

	got, err = f.svc.PartnerAdvance(partnerCtx(partnerID), booking.ID.String(), bookingdomain.StatusArrived)
	require.NoError(t, err)
	require.Equal(t, bookingdomain.StatusArrived, got.Status)
}
