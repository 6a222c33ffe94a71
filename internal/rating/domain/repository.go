package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rating *Rating) error
	FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*Rating, error)
	ListByPartner(ctx context.Context, db *gorm.DB, partnerID snowflake.ID) ([]Rating, error)
}
