package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OSSDestination is a destination country enrolled in the One-Stop-Shop
// scheme. While active, consumer sales into that country are taxed at the
// destination's rate instead of the seller's home rate.
type OSSDestination struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CountryCode  string          `gorm:"type:varchar(2);not null;uniqueIndex" json:"country_code"`
	StandardRate decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"standard_rate"` // percent
	ReducedRate  decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"reduced_rate"`  // percent
	Active       bool            `gorm:"not null;default:true;index" json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
