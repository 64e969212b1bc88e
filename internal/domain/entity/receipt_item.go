package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ItemRef is the closed set of things a receipt line can sell.
// Implementations: PhoneRef, SparePartRef, ServiceRef, GoodsRef, TicketRef, CustomRef.
type ItemRef interface {
	Kind() enum.ItemKind
	isItemRef()
}

type PhoneRef struct{ ListingID uuid.UUID }

type SparePartRef struct{ PartID uuid.UUID }

type ServiceRef struct{ ServiceID uuid.UUID }

type GoodsRef struct{ GoodsID uuid.UUID }

type TicketRef struct{ TicketID uuid.UUID }

// CustomRef is a free-text line with no catalog entity behind it.
type CustomRef struct{ Description string }

func (PhoneRef) Kind() enum.ItemKind     { return enum.ItemKindPhone }
func (SparePartRef) Kind() enum.ItemKind { return enum.ItemKindSparePart }
func (ServiceRef) Kind() enum.ItemKind   { return enum.ItemKindService }
func (GoodsRef) Kind() enum.ItemKind     { return enum.ItemKindGoods }
func (TicketRef) Kind() enum.ItemKind    { return enum.ItemKindTicket }
func (CustomRef) Kind() enum.ItemKind    { return enum.ItemKindCustom }

func (PhoneRef) isItemRef()     {}
func (SparePartRef) isItemRef() {}
func (ServiceRef) isItemRef()   {}
func (GoodsRef) isItemRef()     {}
func (TicketRef) isItemRef()    {}
func (CustomRef) isItemRef()    {}

// StockRef addresses an inventory row whose quantity the stock ledger mutates.
type StockRef struct {
	Kind enum.ItemKind
	ID   uuid.UUID
}

func (r StockRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// ReceiptItem is one line of a receipt. Quantity is negative on refund lines.
type ReceiptItem struct {
	ID        uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ReceiptID uuid.UUID     `gorm:"type:uuid;not null;index" json:"receipt_id"`
	Position  int           `gorm:"not null" json:"position"`
	Kind      enum.ItemKind `gorm:"not null" json:"kind"`

	PhoneListingID *uuid.UUID `gorm:"type:uuid;index" json:"phone_listing_id,omitempty"`
	SparePartID    *uuid.UUID `gorm:"type:uuid;index" json:"spare_part_id,omitempty"`
	ServiceID      *uuid.UUID `gorm:"type:uuid" json:"service_id,omitempty"`
	GoodsItemID    *uuid.UUID `gorm:"type:uuid;index" json:"goods_item_id,omitempty"`
	TicketID       *uuid.UUID `gorm:"type:uuid;index" json:"ticket_id,omitempty"`
	Description    string     `gorm:"size:255" json:"description"`

	// Set on refund lines
	OriginalItemID *uuid.UUID `gorm:"type:uuid;index" json:"original_item_id,omitempty"`

	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"unit_price"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"purchase_price"`
	DiscountPct   decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount_pct"`
	LineTotal     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"line_total"`
	LineCost      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"line_cost"`
	LineProfit    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"line_profit"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new receipt item
func (i *ReceiptItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ReceiptItem model
func (ReceiptItem) TableName() string {
	return "receipt_items"
}

// SetRef stores ref in the kind column and the matching foreign key, clearing the others.
func (i *ReceiptItem) SetRef(ref ItemRef) {
	i.PhoneListingID, i.SparePartID, i.ServiceID, i.GoodsItemID, i.TicketID = nil, nil, nil, nil, nil
	i.Kind = ref.Kind()
	switch r := ref.(type) {
	case PhoneRef:
		id := r.ListingID
		i.PhoneListingID = &id
	case SparePartRef:
		id := r.PartID
		i.SparePartID = &id
	case ServiceRef:
		id := r.ServiceID
		i.ServiceID = &id
	case GoodsRef:
		id := r.GoodsID
		i.GoodsItemID = &id
	case TicketRef:
		id := r.TicketID
		i.TicketID = &id
	case CustomRef:
		i.Description = r.Description
	}
}

// Ref rebuilds the typed reference from the stored columns.
func (i *ReceiptItem) Ref() (ItemRef, error) {
	missing := func() (ItemRef, error) {
		return nil, fmt.Errorf("receipt item %s: %s line without reference", i.ID, i.Kind)
	}
	switch i.Kind {
	case enum.ItemKindPhone:
		if i.PhoneListingID == nil {
			return missing()
		}
		return PhoneRef{ListingID: *i.PhoneListingID}, nil
	case enum.ItemKindSparePart:
		if i.SparePartID == nil {
			return missing()
		}
		return SparePartRef{PartID: *i.SparePartID}, nil
	case enum.ItemKindService:
		if i.ServiceID == nil {
			return missing()
		}
		return ServiceRef{ServiceID: *i.ServiceID}, nil
	case enum.ItemKindGoods:
		if i.GoodsItemID == nil {
			return missing()
		}
		return GoodsRef{GoodsID: *i.GoodsItemID}, nil
	case enum.ItemKindTicket:
		if i.TicketID == nil {
			return missing()
		}
		return TicketRef{TicketID: *i.TicketID}, nil
	case enum.ItemKindCustom:
		return CustomRef{Description: i.Description}, nil
	}
	return nil, fmt.Errorf("receipt item %s: unknown kind %d", i.ID, i.Kind)
}

// StockRef returns the inventory row this line moves, if its kind tracks stock.
func (i *ReceiptItem) StockRef() (StockRef, bool) {
	switch i.Kind {
	case enum.ItemKindSparePart:
		if i.SparePartID != nil {
			return StockRef{Kind: i.Kind, ID: *i.SparePartID}, true
		}
	case enum.ItemKindGoods:
		if i.GoodsItemID != nil {
			return StockRef{Kind: i.Kind, ID: *i.GoodsItemID}, true
		}
	}
	return StockRef{}, false
}

// Compute derives the line total, cost and profit from the price snapshots.
func (i *ReceiptItem) Compute() {
	qty := decimal.NewFromInt(int64(i.Quantity))
	factor := hundred.Sub(i.DiscountPct).Div(hundred)
	i.LineTotal = RoundMoney(i.UnitPrice.Mul(qty).Mul(factor))
	i.LineCost = RoundMoney(i.PurchasePrice.Mul(qty))
	i.LineProfit = i.LineTotal.Sub(i.LineCost)
}
