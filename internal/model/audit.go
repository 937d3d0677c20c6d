package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateTaxClass = "CREATE_TAX_CLASS"
	ActionUpdateTaxClass = "UPDATE_TAX_CLASS"
	ActionDeleteTaxClass = "DELETE_TAX_CLASS"

	ActionCreateTaxRate = "CREATE_TAX_RATE"
	ActionUpdateTaxRate = "UPDATE_TAX_RATE"
	ActionDeleteTaxRate = "DELETE_TAX_RATE"

	ActionCreateOSSDestination = "CREATE_OSS_DESTINATION"
	ActionUpdateOSSDestination = "UPDATE_OSS_DESTINATION"
	ActionDeleteOSSDestination = "DELETE_OSS_DESTINATION"

	ActionUpsertExemption = "UPSERT_EXEMPTION"
	ActionDeleteExemption = "DELETE_EXEMPTION"
)

// AuditLog tracks who changed which piece of tax configuration and when.
// UserID comes from the JWT subject of the calling admin; it is nullable so
// automated migrations can write entries too.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // serialized JSON payload of the change
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
