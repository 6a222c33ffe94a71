package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListCategories(ctx context.Context, db *gorm.DB) ([]ScrapCategory, error)
	FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ScrapCategory, error)

	ActiveRate(ctx context.Context, db *gorm.DB, categoryID snowflake.ID) (*ScrapRate, error)
	ActiveRates(ctx context.Context, db *gorm.DB, categoryIDs []snowflake.ID) ([]ScrapRate, error)
	ListRates(ctx context.Context, db *gorm.DB, categoryID snowflake.ID) ([]ScrapRate, error)
	RetireActiveRate(ctx context.Context, db *gorm.DB, categoryID snowflake.ID, at time.Time) error
	InsertRate(ctx context.Context, db *gorm.DB, rate *ScrapRate) error
}
