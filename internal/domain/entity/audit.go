package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions written by the POS engine
const (
	AuditSessionOpened     = "session.opened"
	AuditSessionOpeningSet = "session.opening_cash"
	AuditSessionClosed     = "session.closed"
	AuditSessionAutoClosed = "session.auto_closed"
	AuditReceiptIssued     = "receipt.issued"
	AuditReceiptVoided     = "receipt.voided"
	AuditReceiptRefunded   = "receipt.refunded"
)

// AuditEntry records who did what to which POS entity.
type AuditEntry struct {
	ID         uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	TenantID   uuid.UUID              `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ActorID    *uuid.UUID             `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	Action     string                 `gorm:"size:64;not null;index" json:"action"`
	EntityType string                 `gorm:"size:64;not null" json:"entity_type"`
	EntityID   uuid.UUID              `gorm:"type:uuid;not null;index" json:"entity_id"`
	Details    map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new audit entry
func (a *AuditEntry) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the AuditEntry model
func (AuditEntry) TableName() string {
	return "audit_entries"
}
