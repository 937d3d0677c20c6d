package model

import (
	"time"

	"github.com/google/uuid"
)

// VATVerification is the audit trail of one registration-number check against
// the external authority. Rows are append-only: every attempt writes a new
// record and "latest" is resolved by CheckedAt, never by an update.
type VATVerification struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VATNumber     string     `gorm:"type:varchar(20);not null;index" json:"vat_number"`
	CountryCode   string     `gorm:"type:varchar(2);not null;index" json:"country_code"`
	TraderName    string     `gorm:"type:varchar(255)" json:"trader_name,omitempty"`
	TraderAddress string     `gorm:"type:text" json:"trader_address,omitempty"`
	Valid         bool       `gorm:"not null" json:"valid"`
	RequestID     string     `gorm:"type:varchar(50)" json:"request_id,omitempty"` // correlation id from the authority
	PartnerID     *uuid.UUID `gorm:"type:uuid;index" json:"partner_id,omitempty"`  // customer/supplier in the calling system
	CheckedAt     time.Time  `gorm:"not null;index" json:"checked_at"`
}
