package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Notification is an append-only in-app message for a customer.
type Notification struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID `json:"user_id" gorm:"not null;index"`
	Icon      string       `json:"icon" gorm:"type:text"`
	Title     string       `json:"title" gorm:"type:text;not null"`
	Message   string       `json:"message" gorm:"type:text;not null"`
	Read      bool         `json:"read" gorm:"not null;default:false"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Notification) TableName() string { return "notifications" }
