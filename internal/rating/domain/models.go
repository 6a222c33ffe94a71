package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Rating closes a completed booking: one per booking, 1 to 5 stars.
// Partner aggregate scores are recomputed out of band.
type Rating struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	BookingID snowflake.ID `json:"booking_id" gorm:"not null;uniqueIndex"`
	UserID    snowflake.ID `json:"user_id" gorm:"not null;index"`
	PartnerID snowflake.ID `json:"partner_id" gorm:"not null;index"`
	Stars     int          `json:"stars" gorm:"not null"`
	Comment   string       `json:"comment,omitempty" gorm:"type:text"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Rating) TableName() string { return "ratings" }
