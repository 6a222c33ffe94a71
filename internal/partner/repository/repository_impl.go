package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	partnerdomain "github.com/smallbiznis/scrapline/internal/partner/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() partnerdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *partnerdomain.Partner) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO partners (
			id, name, phone, vehicle, rating, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Name,
		p.Phone,
		p.Vehicle,
		p.Rating,
		p.Active,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*partnerdomain.Partner, error) {
	var p partnerdomain.Partner
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, phone, vehicle, rating, active, created_at, updated_at
		 FROM partners WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]partnerdomain.Partner, error) {
	var items []partnerdomain.Partner
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, phone, vehicle, rating, active, created_at, updated_at
		 FROM partners ORDER BY id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE partners SET active = ?, updated_at = ? WHERE id = ?`,
		active,
		at,
		id,
	).Error
}

func (r *repo) ListActiveByLoad(ctx context.Context, db *gorm.DB) ([]partnerdomain.PartnerLoad, error) {
	var items []partnerdomain.PartnerLoad
	err := db.WithContext(ctx).Raw(
		`SELECT p.id, p.name, p.phone, p.vehicle, p.rating, p.active, p.created_at, p.updated_at,
		        COUNT(b.id) AS open_assignments
		 FROM partners p
		 LEFT JOIN bookings b
		   ON b.partner_id = p.id
		  AND b.status IN ('PARTNER_ASSIGNED', 'ON_THE_WAY', 'ARRIVED')
		 WHERE p.active
		 GROUP BY p.id, p.name, p.phone, p.vehicle, p.rating, p.active, p.created_at, p.updated_at
		 ORDER BY open_assignments ASC, p.id ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
