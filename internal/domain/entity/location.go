package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is a physical shop of a tenant, read from the tenant directory.
type Location struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Address    string    `gorm:"size:255" json:"address,omitempty"`
	Phone      string    `gorm:"size:50" json:"phone,omitempty"`
	TaxID      string    `gorm:"size:32" json:"tax_id,omitempty"`
	FiscalMode bool      `gorm:"not null;default:false" json:"fiscal_mode"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new location
func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Location model
func (Location) TableName() string {
	return "locations"
}
