package entity

import (
	"time"

	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// SlipHeader is the shop block printed at the top of a slip.
type SlipHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TaxID     string `json:"tax_id,omitempty"`
}

// SlipLine is one printed line.
type SlipLine struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	Total       decimal.Decimal `json:"total"`
}

// Slip is the printable view of a receipt. It is composed at print time and not stored.
type Slip struct {
	Header         SlipHeader         `json:"header"`
	Number         string             `json:"number"`
	Type           enum.ReceiptType   `json:"type"`
	OriginalNumber string             `json:"original_number,omitempty"`
	IssuedAt       string             `json:"issued_at"`
	BuyerName      string             `json:"buyer_name,omitempty"`
	BuyerTaxID     string             `json:"buyer_tax_id,omitempty"`
	Lines          []SlipLine         `json:"lines"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	Discount       decimal.Decimal    `json:"discount"`
	Total          decimal.Decimal    `json:"total"`
	PaymentMethod  enum.PaymentMethod `json:"payment_method"`
	Cash           decimal.Decimal    `json:"cash"`
	Card           decimal.Decimal    `json:"card"`
	Transfer       decimal.Decimal    `json:"transfer"`
	CashReceived   decimal.Decimal    `json:"cash_received"`
	Change         decimal.Decimal    `json:"change"`
}

// NewSlip composes the printable view of an issued receipt.
func NewSlip(r *Receipt, loc *Location, originalNumber string, zone *time.Location) *Slip {
	slip := &Slip{
		Number:         r.Number,
		Type:           r.Type,
		OriginalNumber: originalNumber,
		BuyerName:      r.BuyerName,
		BuyerTaxID:     r.BuyerTaxID,
		Subtotal:       r.Subtotal,
		Discount:       r.DiscountAmount,
		Total:          r.TotalAmount,
		PaymentMethod:  r.PaymentMethod,
		Cash:           r.CashAmount,
		Card:           r.CardAmount,
		Transfer:       r.TransferAmount,
		CashReceived:   r.CashReceived,
		Change:         r.ChangeDue,
	}
	if loc != nil {
		slip.Header = SlipHeader{StoreName: loc.Name, Address: loc.Address, Phone: loc.Phone, TaxID: loc.TaxID}
	}
	if r.IssuedAt != nil {
		if zone == nil {
			zone = time.UTC
		}
		slip.IssuedAt = r.IssuedAt.In(zone).Format("2006-01-02 15:04")
	}
	for _, it := range r.Items {
		slip.Lines = append(slip.Lines, SlipLine{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			DiscountPct: it.DiscountPct,
			Total:       it.LineTotal,
		})
	}
	return slip
}
