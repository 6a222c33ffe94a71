package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, partner *Partner) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Partner, error)
	List(ctx context.Context, db *gorm.DB) ([]Partner, error)
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, at time.Time) error

	// ListActiveByLoad returns active partners ordered by open assignment
	// count ascending, then id ascending.
	ListActiveByLoad(ctx context.Context, db *gorm.DB) ([]PartnerLoad, error)
}
