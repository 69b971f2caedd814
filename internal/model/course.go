package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Course is owned by the catalog. This service reads price and title and
// increments TotalEnrollments.
type Course struct {
	ID               string          `gorm:"primaryKey;size:64;not null" json:"id"`
	Title            string          `gorm:"size:255;not null" json:"title"`
	Description      string          `gorm:"type:text" json:"description"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	MentorID         string          `gorm:"size:64;index" json:"mentorId"`
	TotalEnrollments int64           `gorm:"not null;default:0" json:"totalEnrollments"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}
