package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, booking *Booking) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)
	// FindByIDForUpdate locks the booking row for the enclosing transaction.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Booking, error)

	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, at time.Time) error
	AssignPartner(ctx context.Context, db *gorm.DB, id, partnerID snowflake.ID, at time.Time) error
	SetCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID, reason *string, at time.Time) error
	SetEstimatedTotal(ctx context.Context, db *gorm.DB, id snowflake.ID, totalPaise int64, at time.Time) error
	// Complete sets the final total and moves the booking to COMPLETED.
	Complete(ctx context.Context, db *gorm.DB, id snowflake.ID, finalTotalPaise int64, at time.Time) error

	InsertItem(ctx context.Context, db *gorm.DB, item *BookingItem) error
	ListItems(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) ([]BookingItem, error)
	FindItemByID(ctx context.Context, db *gorm.DB, itemID snowflake.ID) (*BookingItem, error)
	SetItemFinalWeight(ctx context.Context, db *gorm.DB, itemID snowflake.ID, weightKg float64) error

	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Booking, error)
	ListByPartner(ctx context.Context, db *gorm.DB, partnerID snowflake.ID) ([]Booking, error)
	ListByStatus(ctx context.Context, db *gorm.DB, status Status, limit int) ([]Booking, error)
	// ListUnassignedConfirmed feeds the dispatch retry sweep.
	ListUnassignedConfirmed(ctx context.Context, db *gorm.DB, limit int) ([]Booking, error)
}
