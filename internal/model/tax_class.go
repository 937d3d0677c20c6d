package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxClass is a taxable category (standard goods, reduced-rate goods, ...).
// Line items reference a class; the applicable numeric rate comes from the
// TaxRate rows attached to it.
type TaxClass struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	IsDefault bool      `gorm:"not null;default:false;index" json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaxRate is one numeric rate applicable to a class under optional country,
// zone and validity-window constraints. Several rows may exist per class;
// lookups disambiguate by scope + validity, then lowest priority number wins.
type TaxRate struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TaxClassID uuid.UUID       `gorm:"type:uuid;not null;index" json:"tax_class_id"`
	TaxClass   *TaxClass       `gorm:"foreignKey:TaxClassID" json:"tax_class,omitempty"`
	Rate       decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate"`      // percent, e.g. 19 = 19%
	Country    *string         `gorm:"type:varchar(2);index" json:"country"`         // nil = any country
	Zone       *string         `gorm:"type:varchar(20);index" json:"zone"`           // nil = any zone, else a Zone code
	ValidFrom  *time.Time      `gorm:"index" json:"valid_from"`                      // nil = open start
	ValidTo    *time.Time      `gorm:"index" json:"valid_to"`                        // nil = open end
	Priority   int             `gorm:"not null;default:0;index" json:"priority"`     // lower = tried first
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AppliesTo reports whether the row is eligible for the given country, zone
// and instant: every non-nil scope must match and asOf must fall inside the
// validity window.
func (r TaxRate) AppliesTo(country string, zone Zone, asOf time.Time) bool {
	if r.Country != nil && *r.Country != country {
		return false
	}
	if r.Zone != nil && *r.Zone != zone.Code() {
		return false
	}
	if r.ValidFrom != nil && r.ValidFrom.After(asOf) {
		return false
	}
	if r.ValidTo != nil && r.ValidTo.Before(asOf) {
		return false
	}
	return true
}
