package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type PaymentMethod string

const (
	MethodCash PaymentMethod = "CASH"
	MethodUPI  PaymentMethod = "UPI"
)

func IsValidMethod(m PaymentMethod) bool {
	return m == MethodCash || m == MethodUPI
}

// Payment is the single settlement record for a booking. One row per
// booking, written once at the commit point of Settle.
type Payment struct {
	ID            snowflake.ID  `json:"id" gorm:"primaryKey"`
	BookingID     snowflake.ID  `json:"booking_id" gorm:"not null;uniqueIndex"`
	AmountPaise   int64         `json:"amount_paise" gorm:"not null"`
	Method        PaymentMethod `json:"method" gorm:"type:text;not null"`
	Status        string        `json:"status" gorm:"type:text;not null"`
	TransactionID *string       `json:"transaction_id,omitempty" gorm:"type:text"`
	CreatedAt     time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Payment) TableName() string { return "payments" }

const StatusCaptured = "CAPTURED"
