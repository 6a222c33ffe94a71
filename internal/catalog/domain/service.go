package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	ListCategories(ctx context.Context) ([]ScrapCategory, error)
	GetCategory(ctx context.Context, id string) (*ScrapCategory, error)
	ActiveRate(ctx context.Context, categoryID string) (*ScrapRate, error)
	ActiveRatesByCategory(ctx context.Context, categoryIDs []snowflake.ID) (map[snowflake.ID]ScrapRate, error)
	SetRate(ctx context.Context, req SetRateRequest) (*ScrapRate, error)
	ListRates(ctx context.Context, categoryID string) ([]ScrapRate, error)
}

type SetRateRequest struct {
	CategoryID      string     `json:"category_id"`
	PricePerKgPaise int64      `json:"price_per_kg_paise"`
	EffectiveFrom   *time.Time `json:"effective_from"`
}

var (
	ErrInvalidCategory  = errors.New("invalid_category")
	ErrCategoryNotFound = errors.New("category_not_found")
	ErrInvalidRate      = errors.New("invalid_rate")
	ErrRateNotFound     = errors.New("rate_not_found")
)
