package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*Payment, error)
}
