package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/scrapline/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) ListCategories(ctx context.Context, db *gorm.DB) ([]catalogdomain.ScrapCategory, error) {
	var items []catalogdomain.ScrapCategory
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, parent_id, unit, created_at
		 FROM scrap_categories ORDER BY id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.ScrapCategory, error) {
	var c catalogdomain.ScrapCategory
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, parent_id, unit, created_at
		 FROM scrap_categories WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) ActiveRate(ctx context.Context, db *gorm.DB, categoryID snowflake.ID) (*catalogdomain.ScrapRate, error) {
	var rate catalogdomain.ScrapRate
	err := db.WithContext(ctx).Raw(
		`SELECT id, category_id, price_per_kg_paise, active, effective_from, retired_at, created_at
		 FROM scrap_rates WHERE category_id = ? AND active`,
		categoryID,
	).Scan(&rate).Error
	if err != nil {
		return nil, err
	}
	if rate.ID == 0 {
		return nil, nil
	}
	return &rate, nil
}

func (r *repo) ActiveRates(ctx context.Context, db *gorm.DB, categoryIDs []snowflake.ID) ([]catalogdomain.ScrapRate, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	var rates []catalogdomain.ScrapRate
	err := db.WithContext(ctx).Raw(
		`SELECT id, category_id, price_per_kg_paise, active, effective_from, retired_at, created_at
		 FROM scrap_rates WHERE category_id IN ? AND active`,
		categoryIDs,
	).Scan(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *repo) ListRates(ctx context.Context, db *gorm.DB, categoryID snowflake.ID) ([]catalogdomain.ScrapRate, error) {
	var rates []catalogdomain.ScrapRate
	err := db.WithContext(ctx).Raw(
		`SELECT id, category_id, price_per_kg_paise, active, effective_from, retired_at, created_at
		 FROM scrap_rates WHERE category_id = ? ORDER BY effective_from DESC, id DESC`,
		categoryID,
	).Scan(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *repo) RetireActiveRate(ctx context.Context, db *gorm.DB, categoryID snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE scrap_rates SET active = ?, retired_at = ? WHERE category_id = ? AND active`,
		false,
		at,
		categoryID,
	).Error
}

func (r *repo) InsertRate(ctx context.Context, db *gorm.DB, rate *catalogdomain.ScrapRate) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO scrap_rates (
			id, category_id, price_per_kg_paise, active, effective_from, retired_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rate.ID,
		rate.CategoryID,
		rate.PricePerKgPaise,
		rate.Active,
		rate.EffectiveFrom,
		rate.RetiredAt,
		rate.CreatedAt,
	).Error
}
