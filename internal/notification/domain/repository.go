package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	UserID snowflake.ID
	Cursor *snowflake.ID
	Limit  int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, notification *Notification) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Notification, error)
}
