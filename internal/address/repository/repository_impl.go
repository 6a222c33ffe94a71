package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	addressdomain "github.com/smallbiznis/scrapline/internal/address/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() addressdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*addressdomain.Address, error) {
	var a addressdomain.Address
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, label, line1, line2, city, pincode, created_at
		 FROM addresses WHERE id = ?`,
		id,
	).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]addressdomain.Address, error) {
	var items []addressdomain.Address
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, label, line1, line2, city, pincode, created_at
		 FROM addresses WHERE user_id = ? ORDER BY id ASC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
