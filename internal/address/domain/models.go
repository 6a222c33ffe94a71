package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Address is customer pickup location reference data, owned by the identity
// system upstream. Bookings validate against it and never mutate it.
type Address struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID    snowflake.ID `json:"user_id" gorm:"not null;index"`
	Label     string       `json:"label" gorm:"type:text"`
	Line1     string       `json:"line1" gorm:"type:text;not null"`
	Line2     string       `json:"line2,omitempty" gorm:"type:text"`
	City      string       `json:"city" gorm:"type:text;not null"`
	Pincode   string       `json:"pincode" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Address) TableName() string { return "addresses" }
