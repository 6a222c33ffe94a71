package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	bookingdomain "github.com/smallbiznis/scrapline/internal/booking/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() bookingdomain.Repository {
	return &repo{}
}

const bookingColumns = `id, user_id, address_id, status, scheduled_at, partner_id,
	estimated_total_paise, final_total_paise, cancel_reason, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, b *bookingdomain.Booking) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bookings (
			id, user_id, address_id, status, scheduled_at, partner_id,
			estimated_total_paise, final_total_paise, cancel_reason, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.UserID,
		b.AddressID,
		b.Status,
		b.ScheduledAt,
		b.PartnerID,
		b.EstimatedTotalPaise,
		b.FinalTotalPaise,
		b.CancelReason,
		b.CreatedAt,
		b.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*bookingdomain.Booking, error) {
	var b bookingdomain.Booking
	err := db.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`,
		id,
	).Scan(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == 0 {
		return nil, nil
	}
	return &b, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*bookingdomain.Booking, error) {
	var b bookingdomain.Booking
	err := db.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`,
		id,
	).Scan(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == 0 {
		return nil, nil
	}
	return &b, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status bookingdomain.Status, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		at,
		id,
	).Error
}

func (r *repo) AssignPartner(ctx context.Context, db *gorm.DB, id, partnerID snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bookings SET partner_id = ?, status = ?, updated_at = ? WHERE id = ?`,
		partnerID,
		bookingdomain.StatusPartnerAssigned,
		at,
		id,
	).Error
}

func (r *repo) SetCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID, reason *string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bookings SET status = ?, cancel_reason = ?, updated_at = ? WHERE id = ?`,
		bookingdomain.StatusCancelled,
		reason,
		at,
		id,
	).Error
}

func (r *repo) SetEstimatedTotal(ctx context.Context, db *gorm.DB, id snowflake.ID, totalPaise int64, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bookings SET estimated_total_paise = ?, updated_at = ? WHERE id = ?`,
		totalPaise,
		at,
		id,
	).Error
}

func (r *repo) Complete(ctx context.Context, db *gorm.DB, id snowflake.ID, finalTotalPaise int64, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bookings SET status = ?, final_total_paise = ?, updated_at = ? WHERE id = ?`,
		bookingdomain.StatusCompleted,
		finalTotalPaise,
		at,
		id,
	).Error
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *bookingdomain.BookingItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO booking_items (
			id, booking_id, category_id, estimated_weight_kg, final_weight_kg,
			rate_per_kg_paise, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.BookingID,
		item.CategoryID,
		item.EstimatedWeightKg,
		item.FinalWeightKg,
		item.RatePerKgPaise,
		item.CreatedAt,
	).Error
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) ([]bookingdomain.BookingItem, error) {
	var items []bookingdomain.BookingItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, booking_id, category_id, estimated_weight_kg, final_weight_kg,
		        rate_per_kg_paise, created_at
		 FROM booking_items WHERE booking_id = ? ORDER BY id ASC`,
		bookingID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindItemByID(ctx context.Context, db *gorm.DB, itemID snowflake.ID) (*bookingdomain.BookingItem, error) {
	var item bookingdomain.BookingItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, booking_id, category_id, estimated_weight_kg, final_weight_kg,
		        rate_per_kg_paise, created_at
		 FROM booking_items WHERE id = ?`,
		itemID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) SetItemFinalWeight(ctx context.Context, db *gorm.DB, itemID snowflake.ID, weightKg float64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE booking_items SET final_weight_kg = ? WHERE id = ?`,
		weightKg,
		itemID,
	).Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]bookingdomain.Booking, error) {
	var items []bookingdomain.Booking
	err := db.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY id DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByPartner(ctx context.Context, db *gorm.DB, partnerID snowflake.ID) ([]bookingdomain.Booking, error) {
	var items []bookingdomain.Booking
	err := db.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+` FROM bookings WHERE partner_id = ? ORDER BY id DESC`,
		partnerID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, status bookingdomain.Status, limit int) ([]bookingdomain.Booking, error) {
	var items []bookingdomain.Booking
	stmt := db.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+` FROM bookings WHERE status = ? ORDER BY id ASC LIMIT ?`,
		status,
		normalizeLimit(limit),
	)
	if err := stmt.Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListUnassignedConfirmed(ctx context.Context, db *gorm.DB, limit int) ([]bookingdomain.Booking, error) {
	var items []bookingdomain.Booking
	err := db.WithContext(ctx).Raw(
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE status = ? AND partner_id IS NULL
		 ORDER BY id ASC LIMIT ?`,
		bookingdomain.StatusConfirmed,
		normalizeLimit(limit),
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 500
	}
	return limit
}
