package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnsureSessionRequest opens (or returns) today's register session of a location
type EnsureSessionRequest struct {
	LocationID uuid.UUID `json:"location_id" binding:"required"`
}

// OpeningCashRequest sets the float counted into the drawer
type OpeningCashRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"gte=0"`
}

// CloseSessionRequest closes a register session with the counted drawer cash
type CloseSessionRequest struct {
	ClosingCash decimal.Decimal `json:"closing_cash" binding:"gte=0"`
}

// CreateReceiptRequest starts a draft receipt
type CreateReceiptRequest struct {
	SessionID uuid.UUID `json:"session_id" binding:"required"`
}

// ReceiptItemRequest is one line. Exactly one reference matching Kind must be set;
// CUSTOM lines carry a description and unit price instead.
type ReceiptItemRequest struct {
	Kind        string           `json:"kind" binding:"required,item_kind"`
	ItemID      *uuid.UUID       `json:"item_id"`
	Description string           `json:"description" binding:"max=255"`
	Quantity    int              `json:"quantity" binding:"required,min=1"`
	UnitPrice   *decimal.Decimal `json:"unit_price" binding:"omitempty,gte=0"`
	DiscountPct decimal.Decimal  `json:"discount_pct" binding:"gte=0,lte=100"`
}

// PaymentRequest settles a receipt
type PaymentRequest struct {
	Method         string           `json:"method" binding:"required,payment_method"`
	CashReceived   *decimal.Decimal `json:"cash_received" binding:"omitempty,gte=0"`
	CardAmount     decimal.Decimal  `json:"card_amount" binding:"gte=0"`
	TransferAmount decimal.Decimal  `json:"transfer_amount" binding:"gte=0"`
}

// BuyerRequest identifies a business buyer on the receipt
type BuyerRequest struct {
	Name  string `json:"name" binding:"required,max=255"`
	TaxID string `json:"tax_id" binding:"max=32"`
}

// IssueReceiptRequest issues a draft receipt
type IssueReceiptRequest struct {
	Payment        PaymentRequest  `json:"payment"`
	Buyer          *BuyerRequest   `json:"buyer"`
	DiscountAmount decimal.Decimal `json:"discount_amount" binding:"gte=0"`
}

// CheckoutRequest builds and issues a receipt in one call
type CheckoutRequest struct {
	LocationID     uuid.UUID            `json:"location_id" binding:"required"`
	Items          []ReceiptItemRequest `json:"items" binding:"required,min=1,dive"`
	Payment        PaymentRequest       `json:"payment"`
	Buyer          *BuyerRequest        `json:"buyer"`
	DiscountAmount decimal.Decimal      `json:"discount_amount" binding:"gte=0"`
}

// VoidReceiptRequest cancels an issued sale
type VoidReceiptRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RefundLineRequest refunds part of one original line
type RefundLineRequest struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

// RefundRequest refunds lines of an issued sale. No lines refunds everything left.
type RefundRequest struct {
	Lines  []RefundLineRequest `json:"lines" binding:"omitempty,dive"`
	Reason string              `json:"reason" binding:"max=500"`
}

// TicketDeliveryRequest issues the receipt of a delivered repair ticket
type TicketDeliveryRequest struct {
	LocationID *uuid.UUID     `json:"location_id"`
	Payment    PaymentRequest `json:"payment"`
}

// ReceiptFilterRequest are the list query parameters
type ReceiptFilterRequest struct {
	SessionID  string `form:"session_id" binding:"omitempty,uuid"`
	LocationID string `form:"location_id" binding:"omitempty,uuid"`
	Status     string `form:"status"`
	Type       string `form:"type"`
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
}
