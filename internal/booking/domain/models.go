package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Booking is one scheduled scrap pickup. Amounts are paise. The estimated
// total is derived from item snapshots; the final total is written exactly
// once, at settlement.
type Booking struct {
	ID                  snowflake.ID  `json:"id" gorm:"primaryKey"`
	UserID              snowflake.ID  `json:"user_id" gorm:"not null;index"`
	AddressID           snowflake.ID  `json:"address_id" gorm:"not null"`
	Status              Status        `json:"status" gorm:"type:text;not null"`
	ScheduledAt         time.Time     `json:"scheduled_at" gorm:"not null"`
	PartnerID           *snowflake.ID `json:"partner_id,omitempty" gorm:"index"`
	EstimatedTotalPaise int64         `json:"estimated_total_paise" gorm:"not null;default:0"`
	FinalTotalPaise     *int64        `json:"final_total_paise,omitempty"`
	CancelReason        *string       `json:"cancel_reason,omitempty" gorm:"type:text"`
	CreatedAt           time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Items []BookingItem `json:"items,omitempty" gorm:"-"`
}

func (Booking) TableName() string { return "bookings" }

// BookingItem is one category line on a booking. RatePerKgPaise is the
// active rate captured when the item was added; rate changes never reprice it.
type BookingItem struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	BookingID         snowflake.ID `json:"booking_id" gorm:"not null;index"`
	CategoryID        snowflake.ID `json:"category_id" gorm:"not null"`
	EstimatedWeightKg float64      `json:"estimated_weight_kg" gorm:"not null"`
	FinalWeightKg     *float64     `json:"final_weight_kg,omitempty"`
	RatePerKgPaise    int64        `json:"rate_per_kg_paise" gorm:"not null"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (BookingItem) TableName() string { return "booking_items" }
