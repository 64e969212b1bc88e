package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DailyReport is the Z report of one session. It is derived data and is
// regenerated (upserted) rather than edited.
type DailyReport struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_reports_tenant_location_date,priority:1" json:"tenant_id"`
	LocationID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_reports_tenant_location_date,priority:2" json:"location_id"`
	BusinessDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_daily_reports_tenant_location_date,priority:3" json:"business_date"`
	SessionID    uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`

	OpeningCash  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"opening_cash"`
	ClosingCash  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"closing_cash"`
	ExpectedCash decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"expected_cash"`
	CashVariance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cash_variance"`

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

	// Signed unit counts per line kind over counted receipts
	PhoneUnits     int `gorm:"not null;default:0" json:"phone_units"`
	SparePartUnits int `gorm:"not null;default:0" json:"spare_part_units"`
	ServiceUnits   int `gorm:"not null;default:0" json:"service_units"`
	GoodsUnits     int `gorm:"not null;default:0" json:"goods_units"`
	TicketUnits    int `gorm:"not null;default:0" json:"ticket_units"`
	CustomUnits    int `gorm:"not null;default:0" json:"custom_units"`

	IsFinal     bool      `gorm:"not null;default:false" json:"is_final"`
	GeneratedAt time.Time `gorm:"not null" json:"generated_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new report
func (d *DailyReport) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the DailyReport model
func (DailyReport) TableName() string {
	return "daily_reports"
}

// Totals is the aggregation of a session's receipts.
type Totals struct {
	Revenue      decimal.Decimal
	Cost         decimal.Decimal
	Profit       decimal.Decimal
	Discount     decimal.Decimal
	RefundTotal  decimal.Decimal
	Cash         decimal.Decimal
	Card         decimal.Decimal
	Transfer     decimal.Decimal
	ReceiptCount int
	RefundCount  int
	VoidedCount  int
	Units        map[enum.ItemKind]int
}

// Summarize aggregates receipts. Only ISSUED receipts count; refund receipts
// carry negative amounts so they net against sales. Voided receipts are only counted.
func Summarize(receipts []Receipt) Totals {
	t := Totals{
		Revenue:     decimal.Zero,
		Cost:        decimal.Zero,
		Profit:      decimal.Zero,
		Discount:    decimal.Zero,
		RefundTotal: decimal.Zero,
		Cash:        decimal.Zero,
		Card:        decimal.Zero,
		Transfer:    decimal.Zero,
		Units:       make(map[enum.ItemKind]int),
	}
	for i := range receipts {
		r := &receipts[i]
		if r.Status == enum.ReceiptStatusVoided {
			t.VoidedCount++
			continue
		}
		if !r.IsCounted() {
			continue
		}
		t.Revenue = t.Revenue.Add(r.TotalAmount)
		t.Cost = t.Cost.Add(r.TotalCost)
		t.Profit = t.Profit.Add(r.TotalProfit)
		t.Discount = t.Discount.Add(r.DiscountAmount)
		t.Cash = t.Cash.Add(r.CashAmount)
		t.Card = t.Card.Add(r.CardAmount)
		t.Transfer = t.Transfer.Add(r.TransferAmount)
		if r.Type == enum.ReceiptTypeRefund {
			t.RefundCount++
			t.RefundTotal = t.RefundTotal.Add(r.TotalAmount)
		} else {
			t.ReceiptCount++
		}
		for _, it := range r.Items {
			t.Units[it.Kind] += it.Quantity
		}
	}
	return t
}

// Fill copies the session figures and aggregated totals into the report.
func (d *DailyReport) Fill(s *CashRegisterSession, t Totals) {
	d.TenantID = s.TenantID
	d.LocationID = s.LocationID
	d.BusinessDate = s.BusinessDate
	d.SessionID = s.ID
	d.OpeningCash = s.OpeningCash
	d.ClosingCash = s.ClosingCash
	d.ExpectedCash = s.ExpectedCash
	d.CashVariance = s.CashVariance
	d.TotalRevenue = t.Revenue
	d.TotalCost = t.Cost
	d.TotalProfit = t.Profit
	d.TotalDiscount = t.Discount
	d.RefundTotal = t.RefundTotal
	d.CashTotal = t.Cash
	d.CardTotal = t.Card
	d.TransferTotal = t.Transfer
	d.ReceiptCount = t.ReceiptCount
	d.RefundCount = t.RefundCount
	d.VoidedCount = t.VoidedCount
	d.PhoneUnits = t.Units[enum.ItemKindPhone]
	d.SparePartUnits = t.Units[enum.ItemKindSparePart]
	d.ServiceUnits = t.Units[enum.ItemKindService]
	d.GoodsUnits = t.Units[enum.ItemKindGoods]
	d.TicketUnits = t.Units[enum.ItemKindTicket]
	d.CustomUnits = t.Units[enum.ItemKindCustom]
	d.IsFinal = !s.IsOpen()
}
