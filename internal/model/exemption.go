package model

import (
	"time"

	"github.com/google/uuid"
)

// Exemption codes referenced by the classifier.
const (
	ExemptionIntraCommunity = "intra_community_supply"
	ExemptionExport         = "export_third_country"
)

// Exemption stores the legal wording that must appear on an invoice for a
// classification code, in the primary language plus an English translation.
type Exemption struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	TextEN    string    `gorm:"type:text" json:"text_en"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
