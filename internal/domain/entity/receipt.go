package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Receipt is a sale or refund document. Once issued only its status may change.
type Receipt struct {
	ID                uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	TenantID          uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_receipts_tenant_number,priority:1;uniqueIndex:idx_receipts_tenant_idem,priority:1" json:"tenant_id"`
	LocationID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"location_id"`
	SessionID         uuid.UUID          `gorm:"type:uuid;not null;index" json:"session_id"`
	Number            string             `gorm:"size:32;not null;uniqueIndex:idx_receipts_tenant_number,priority:2" json:"number"`
	BusinessDate      time.Time          `gorm:"type:date;not null" json:"business_date"`
	Type              enum.ReceiptType   `gorm:"not null;default:0" json:"type"`
	Status            enum.ReceiptStatus `gorm:"not null;default:0;index" json:"status"`
	OriginalReceiptID *uuid.UUID         `gorm:"type:uuid;index" json:"original_receipt_id,omitempty"`

	PaymentMethod  enum.PaymentMethod `gorm:"not null;default:0" json:"payment_method"`
	CashAmount     decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"cash_amount"`
	CardAmount     decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"card_amount"`
	TransferAmount decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"transfer_amount"`
	CashReceived   decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"cash_received"`
	ChangeDue      decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"change_due"`

	Subtotal       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_amount"`
	TotalCost      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_cost"`
	TotalProfit    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_profit"`

	BuyerName  string `gorm:"size:255" json:"buyer_name,omitempty"`
	BuyerTaxID string `gorm:"size:32" json:"buyer_tax_id,omitempty"`

	IdempotencyKey *string `gorm:"size:255;uniqueIndex:idx_receipts_tenant_idem,priority:2" json:"idempotency_key,omitempty"`
	RequestHash    string  `gorm:"size:64" json:"-"`
	// Placeholder until fiscal devices are integrated
	FiscalStatus string `gorm:"size:32" json:"fiscal_status,omitempty"`

	CreatedBy  *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	IssuedBy   *uuid.UUID `gorm:"type:uuid" json:"issued_by,omitempty"`
	IssuedAt   *time.Time `json:"issued_at,omitempty"`
	VoidedBy   *uuid.UUID `gorm:"type:uuid" json:"voided_by,omitempty"`
	VoidedAt   *time.Time `json:"voided_at,omitempty"`
	VoidReason string     `gorm:"size:500" json:"void_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []ReceiptItem `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE" json:"items"`
}

// BeforeCreate generates a UUID before creating a new receipt
func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Receipt model
func (Receipt) TableName() string {
	return "receipts"
}

// IsDraft reports whether lines may still be added or removed.
func (r *Receipt) IsDraft() bool {
	return r.Status == enum.ReceiptStatusDraft
}

// IsCounted reports whether the receipt contributes to session aggregation.
func (r *Receipt) IsCounted() bool {
	return r.Status == enum.ReceiptStatusIssued
}

// Recalculate recomputes every line and the header totals from the current items.
func (r *Receipt) Recalculate() {
	subtotal := decimal.Zero
	cost := decimal.Zero
	for i := range r.Items {
		r.Items[i].Compute()
		subtotal = subtotal.Add(r.Items[i].LineTotal)
		cost = cost.Add(r.Items[i].LineCost)
	}
	r.Subtotal = subtotal
	r.TotalCost = cost
	r.TotalAmount = subtotal.Sub(r.DiscountAmount)
	r.TotalProfit = r.TotalAmount.Sub(cost)
}

// ItemByID returns a pointer to the line with the given id.
func (r *Receipt) ItemByID(id uuid.UUID) (*ReceiptItem, bool) {
	for i := range r.Items {
		if r.Items[i].ID == id {
			return &r.Items[i], true
		}
	}
	return nil, false
}

// NextPosition returns the position for a line appended now.
func (r *Receipt) NextPosition() int {
	max := 0
	for _, it := range r.Items {
		if it.Position > max {
			max = it.Position
		}
	}
	return max + 1
}

// ReceiptCounter backs the per-tenant, per-day receipt sequence.
type ReceiptCounter struct {
	TenantID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	BusinessDate time.Time `gorm:"type:date;primaryKey"`
	LastSeq      int       `gorm:"not null;default:0"`
}

// TableName returns the table name for the ReceiptCounter model
func (ReceiptCounter) TableName() string {
	return "receipt_counters"
}
