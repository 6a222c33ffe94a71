package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Address, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Address, error)
}
