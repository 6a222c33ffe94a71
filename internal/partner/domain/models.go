package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Partner is a pickup agent who collects scrap from customers.
type Partner struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Phone     string       `json:"phone" gorm:"type:text;not null"`
	Vehicle   string       `json:"vehicle" gorm:"type:text"`
	Rating    float64      `json:"rating" gorm:"not null;default:0"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Partner) TableName() string { return "partners" }

// PartnerLoad pairs a partner with the number of bookings currently assigned
// to them and not yet closed. Dispatch orders candidates by this load.
type PartnerLoad struct {
	Partner
	OpenAssignments int64 `json:"open_assignments" gorm:"column:open_assignments"`
}
