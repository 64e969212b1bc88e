package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashRegisterSession is the day-scoped unit of POS activity for one location.
// There is exactly one row per (tenant, location, business date).
type CashRegisterSession struct {
	ID           uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	TenantID     uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_sessions_tenant_location_date,priority:1" json:"tenant_id"`
	LocationID   uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_sessions_tenant_location_date,priority:2" json:"location_id"`
	BusinessDate time.Time          `gorm:"type:date;not null;uniqueIndex:idx_sessions_tenant_location_date,priority:3;index" json:"business_date"`
	Status       enum.SessionStatus `gorm:"not null;default:0;index" json:"status"`
	FiscalMode   bool               `gorm:"not null;default:false" json:"fiscal_mode"`

	OpeningCash decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"opening_cash"`
	OpenedBy    *uuid.UUID      `gorm:"type:uuid" json:"opened_by,omitempty"`
	OpenedAt    time.Time       `gorm:"not null" json:"opened_at"`

	ClosingCash  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"closing_cash"`
	ExpectedCash decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"expected_cash"`
	CashVariance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cash_variance"`
	ClosedBy     *uuid.UUID      `gorm:"type:uuid" json:"closed_by,omitempty"`
	ClosedAt     *time.Time      `json:"closed_at,omitempty"`
	AutoClosed   bool            `gorm:"not null;default:false" json:"auto_closed"`

	// Running totals, refreshed after every issuance, void and refund
	TotalRevenue  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_revenue"`
	TotalCost     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_cost"`
	TotalProfit   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_profit"`
	TotalDiscount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_discount"`
	RefundTotal   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"refund_total"`
	CashTotal     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cash_total"`
	CardTotal     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"card_total"`
	TransferTotal decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"transfer_total"`
	ReceiptCount  int             `gorm:"not null;default:0" json:"receipt_count"`
	RefundCount   int             `gorm:"not null;default:0" json:"refund_count"`
	VoidedCount   int             `gorm:"not null;default:0" json:"voided_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new session
func (s *CashRegisterSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CashRegisterSession model
func (CashRegisterSession) TableName() string {
	return "cash_register_sessions"
}

// IsOpen reports whether the session still accepts receipts.
func (s *CashRegisterSession) IsOpen() bool {
	return s.Status == enum.SessionStatusOpen
}

// ApplyTotals copies aggregated figures onto the session's running totals.
func (s *CashRegisterSession) ApplyTotals(t Totals) {
	s.TotalRevenue = t.Revenue
	s.TotalCost = t.Cost
	s.TotalProfit = t.Profit
	s.TotalDiscount = t.Discount
	s.RefundTotal = t.RefundTotal
	s.CashTotal = t.Cash
	s.CardTotal = t.Card
	s.TransferTotal = t.Transfer
	s.ReceiptCount = t.ReceiptCount
	s.RefundCount = t.RefundCount
	s.VoidedCount = t.VoidedCount
	s.ExpectedCash = RoundMoney(s.OpeningCash.Add(t.Cash))
}
