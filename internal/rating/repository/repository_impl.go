package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	ratingdomain "github.com/smallbiznis/scrapline/internal/rating/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() ratingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rating *ratingdomain.Rating) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO ratings (
			id, booking_id, user_id, partner_id, stars, comment, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rating.ID,
		rating.BookingID,
		rating.UserID,
		rating.PartnerID,
		rating.Stars,
		rating.Comment,
		rating.CreatedAt,
	).Error
}

func (r *repo) FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*ratingdomain.Rating, error) {
	var rating ratingdomain.Rating
	err := db.WithContext(ctx).Raw(
		`SELECT id, booking_id, user_id, partner_id, stars, comment, created_at
		 FROM ratings WHERE booking_id = ?`,
		bookingID,
	).Scan(&rating).Error
	if err != nil {
		return nil, err
	}
	if rating.ID == 0 {
		return nil, nil
	}
	return &rating, nil
}

func (r *repo) ListByPartner(ctx context.Context, db *gorm.DB, partnerID snowflake.ID) ([]ratingdomain.Rating, error) {
	var ratings []ratingdomain.Rating
	err := db.WithContext(ctx).Raw(
		`SELECT id, booking_id, user_id, partner_id, stars, comment, created_at
		 FROM ratings WHERE partner_id = ? ORDER BY id DESC`,
		partnerID,
	).Scan(&ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}
