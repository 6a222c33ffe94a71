package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/scrapline/internal/audit/domain"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
	"github.com/smallbiznis/scrapline/internal/clock"
	notificationdomain "github.com/smallbiznis/scrapline/internal/notification/domain"
	settlementdomain "github.com/smallbiznis/scrapline/internal/settlement/domain"
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

func (r *memoryBookingRepo) Insert(ctx context.Context, db *gorm.DB, booking *bookingdomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *booking
	r.bookings[booking.ID] = &clone
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
	}
	return nil
}

func (r *memoryBookingRepo) AssignPartner(ctx context.Context, db *gorm.DB, id, partnerID snowflake.ID, at time.Time) error {
	return nil
}

func (r *memoryBookingRepo) SetCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID, reason *string, at time.Time) error {
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
		booking.UpdatedAt = at
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
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, items := range r.items {
		for _, item := range items {
			if item.ID == itemID {
				clone := item
				return &clone, nil
			}
		}
	}
	return nil, nil
}

func (r *memoryBookingRepo) SetItemFinalWeight(ctx context.Context, db *gorm.DB, itemID snowflake.ID, weightKg float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for bookingID, items := range r.items {
		for i := range items {
			if items[i].ID == itemID {
				w := weightKg
				r.items[bookingID][i].FinalWeightKg = &w
			}
		}
	}
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
	return nil, nil
}

type memoryPaymentRepo struct {
	mu       sync.Mutex
	payments map[snowflake.ID]*settlementdomain.Payment
}

func (r *memoryPaymentRepo) Insert(ctx context.Context, db *gorm.DB, payment *settlementdomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *payment
	r.payments[payment.BookingID] = &clone
	return nil
}

func (r *memoryPaymentRepo) FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*settlementdomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.payments[bookingID]
	if !ok {
		return nil, nil
	}
	clone := *payment
	return &clone, nil
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

type settlementFixture struct {
	svc         settlementdomain.Service
	bookingRepo *memoryBookingRepo
	paymentRepo *memoryPaymentRepo
	node        *snowflake.Node
	partnerID   snowflake.ID
}

func setupSettlementService(t *testing.T) *settlementFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	node, err := snowflake.NewNode(9)
	require.NoError(t, err)

	bookingRepo := newMemoryBookingRepo()
	paymentRepo := &memoryPaymentRepo{payments: make(map[snowflake.ID]*settlementdomain.Payment)}

	svc := New(Params{
		DB:          conn,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC)),
		Repo:        paymentRepo,
		BookingRepo: bookingRepo,
		Notifier:    noopNotifier{},
		Audit:       noopAudit{},
	})

	return &settlementFixture{
		svc:         svc,
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		node:        node,
		partnerID:   node.Generate(),
	}
}

func (f *settlementFixture) partnerCtx() context.Context {
	return usercontext.WithPrincipal(context.Background(), usercontext.Principal{
		UserID:    f.partnerID,
		PartnerID: f.partnerID,
		Role:      usercontext.RolePartner,
	})
}

func (f *settlementFixture) arrivedBooking(t *testing.T, weights ...float64) (*bookingdomain.Booking, []bookingdomain.BookingItem) {
	t.Helper()
	booking := &bookingdomain.Booking{
		ID:        f.node.Generate(),
		UserID:    f.node.Generate(),
		Status:    bookingdomain.StatusArrived,
		PartnerID: &f.partnerID,
	}
	require.NoError(t, f.bookingRepo.Insert(context.Background(), nil, booking))

	items := make([]bookingdomain.BookingItem, 0, len(weights))
	for _, w := range weights {
		item := bookingdomain.BookingItem{
			ID:                f.node.Generate(),
			BookingID:         booking.ID,
			CategoryID:        f.node.Generate(),
			EstimatedWeightKg: w,
			RatePerKgPaise:    3000,
		}
		require.NoError(t, f.bookingRepo.InsertItem(context.Background(), nil, &item))
		items = append(items, item)
	}
	return booking, items
}

func TestRecordFinalWeightOverwrites(t *testing.T) {
	f := setupSettlementService(t)
	booking, items := f.arrivedBooking(t, 5)

	item, err := f.svc.RecordFinalWeight(f.partnerCtx(), booking.ID.String(), items[0].ID.String(), 4.5)
	require.NoError(t, err)
	require.NotNil(t, item.FinalWeightKg)
	require.Equal(t, 4.5, *item.FinalWeightKg)

	// Last write wins.
	item, err = f.svc.RecordFinalWeight(f.partnerCtx(), booking.ID.String(), items[0].ID.String(), 4.8)
	require.NoError(t, err)
	require.Equal(t, 4.8, *item.FinalWeightKg)
}

func TestRecordFinalWeightValidation(t *testing.T) {
	f := setupSettlementService(t)
	booking, items := f.arrivedBooking(t, 5)

	_, err := f.svc.RecordFinalWeight(f.partnerCtx(), booking.ID.String(), items[0].ID.String(), 0)
	require.ErrorIs(t, err, settlementdomain.ErrInvalidWeight)

	_, err = f.svc.RecordFinalWeight(f.partnerCtx(), booking.ID.String(), f.node.Generate().String(), 2)
	require.ErrorIs(t, err, settlementdomain.ErrItemNotFound)
}

func TestRecordFinalWeightNeedsArrivedBooking(t *testing.T) {
	f := setupSettlementService(t)
	booking, items := f.arrivedBooking(t, 5)
	require.NoError(t, f.bookingRepo.UpdateStatus(context.Background(), nil, booking.ID, bookingdomain.StatusOnTheWay, time.Now()))

	_, err := f.svc.RecordFinalWeight(f.partnerCtx(), booking.ID.String(), items[0].ID.String(), 4.5)
	require.ErrorIs(t, err, settlementdomain.ErrNotSettleable)
}

func TestSettlePricesFinalWeightAgainstSnapshot(t *testing.T) {
	f := setupSettlementService(t)
	booking, items := f.arrivedBooking(t, 5)

	_, err := f.svc.RecordFinalWeight(f.partnerCtx(), booking.ID.String(), items[0].ID.String(), 4.5)
	require.NoError(t, err)

	resp, err := f.svc.Settle(f.partnerCtx(), booking.ID.String(), settlementdomain.SettleRequest{
		Method: settlementdomain.MethodCash,
	})
	require.NoError(t, err)

	// 4.5 kg at the 3000 paise snapshot.
	require.Equal(t, int64(13500), resp.Payment.AmountPaise)
	require.Equal(t, settlementdomain.MethodCash, resp.Payment.Method)
	require.Equal(t, settlementdomain.StatusCaptured, resp.Payment.Status)
	require.Equal(t, bookingdomain.StatusCompleted, resp.Booking.Status)
	require.NotNil(t, resp.Booking.FinalTotalPaise)
	require.Equal(t, int64(13500), *resp.Booking.FinalTotalPaise)
}

func TestSettleFallsBackToEstimatedWeight(t *testing.T) {
	f := setupSettlementService(t)
	booking, _ := f.arrivedBooking(t, 2, 3)

	resp, err := f.svc.Settle(f.partnerCtx(), booking.ID.String(), settlementdomain.SettleRequest{
		Method: settlementdomain.MethodUPI,
	})
	require.NoError(t, err)
	require.Equal(t, int64(15000), resp.Payment.AmountPaise)
}

func TestSettleTwiceConflicts(t *testing.T) {
	f := setupSettlementService(t)
	booking, _ := f.arrivedBooking(t, 5)

	_, err := f.svc.Settle(f.partnerCtx(), booking.ID.String(), settlementdomain.SettleRequest{
		Method: settlementdomain.MethodCash,
	})
	require.NoError(t, err)

	_, err = f.svc.Settle(f.partnerCtx(), booking.ID.String(), settlementdomain.SettleRequest{
		Method: settlementdomain.MethodCash,
	})
	require.ErrorIs(t, err, settlementdomain.ErrAlreadySettled)
}

func TestSettleRejectsUnknownMethod(t *testing.T) {
	f := setupSettlementService(t)
	booking, _ := f.arrivedBooking(t, 5)

	_, err := f.svc.Settle(f.partnerCtx(), booking.ID.String(), settlementdomain.SettleRequest{
		Method: "CHEQUE",
	})
	require.ErrorIs(t, err, settlementdomain.ErrInvalidMethod)
}

func TestSettleRequiresAssignedPartner(t *testing.T) {
	f := setupSettlementService(t)
	booking, _ := f.arrivedBooking(t, 5)

	stranger := f.node.Generate()
	ctx := usercontext.WithPrincipal(context.Background(), usercontext.Principal{
		UserID:    stranger,
		PartnerID: stranger,
		Role:      usercontext.RolePartner,
	})
	_, err := f.svc.Settle(ctx, booking.ID.String(), settlementdomain.SettleRequest{
		Method: settlementdomain.MethodCash,
	})
	require.ErrorIs(t, err, settlementdomain.ErrNotAuthorized)
}

func TestSettleRequiresArrivedStatus(t *testing.T) {
	f := setupSettlementService(t)
	booking, _ := f.arrivedBooking(t, 5)
	require.NoError(t, f.bookingRepo.UpdateStatus(context.Background(), nil, booking.ID, bookingdomain.StatusOnTheWay, time.Now()))

	_, err := f.svc.Settle(f.partnerCtx(), booking.ID.String(), settlementdomain.SettleRequest{
		Method: settlementdomain.MethodCash,
	})
	require.ErrorIs(t, err, settlementdomain.ErrNotSettleable)
}

func TestGetPayment(t *testing.T) {
	f := setupSettlementService(t)
	booking, _ := f.arrivedBooking(t, 5)

	ownerCtx := usercontext.WithPrincipal(context.Background(), usercontext.Principal{
		UserID: booking.UserID,
		Role:   usercontext.RoleCustomer,
	})

	_, err := f.svc.GetPayment(ownerCtx, booking.ID.String())
	require.ErrorIs(t, err, settlementdomain.ErrPaymentNotFound)

	_, err = f.svc.Settle(f.partnerCtx(), booking.ID.String(), settlementdomain.SettleRequest{
		Method: settlementdomain.MethodCash,
	})
	require.NoError(t, err)

	payment, err := f.svc.GetPayment(ownerCtx, booking.ID.String())
	require.NoError(t, err)
	require.Equal(t, int64(15000), payment.AmountPaise)
}
