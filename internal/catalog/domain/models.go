package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ScrapCategory is immutable reference data describing a sellable scrap type.
// Categories form at most a two-level tree.
type ScrapCategory struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	Name      string        `json:"name" gorm:"type:text;not null"`
	ParentID  *snowflake.ID `json:"parent_id,omitempty" gorm:"index"`
	Unit      string        `json:"unit" gorm:"type:text;not null;default:'kg'"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ScrapCategory) TableName() string { return "scrap_categories" }

// ScrapRate is the buyback rate for a category. Exactly one rate per category
// is active at a time; bookings snapshot the rate at item creation and are
// never repriced when it changes.
type ScrapRate struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	CategoryID      snowflake.ID `json:"category_id" gorm:"not null;index"`
	PricePerKgPaise int64        `json:"price_per_kg_paise" gorm:"not null"`
	Active          bool         `json:"active" gorm:"not null;default:true"`
	EffectiveFrom   time.Time    `json:"effective_from" gorm:"not null"`
	RetiredAt       *time.Time   `json:"retired_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ScrapRate) TableName() string { return "scrap_rates" }
