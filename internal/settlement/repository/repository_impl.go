package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	settlementdomain "github.com/smallbiznis/scrapline/internal/settlement/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() settlementdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *settlementdomain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, booking_id, amount_paise, method, status, transaction_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.BookingID,
		p.AmountPaise,
		p.Method,
		p.Status,
		p.TransactionID,
		p.CreatedAt,
	).Error
}

func (r *repo) FindByBookingID(ctx context.Context, db *gorm.DB, bookingID snowflake.ID) (*settlementdomain.Payment, error) {
	var p settlementdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, booking_id, amount_paise, method, status, transaction_id, created_at
		 FROM payments WHERE booking_id = ?`,
		bookingID,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}
