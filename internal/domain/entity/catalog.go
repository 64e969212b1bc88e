package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Catalog rows are owned by the inventory and ticketing modules.
// The POS engine reads prices from them and mutates only Quantity and IsSold.

type PhoneListing struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Brand         string          `gorm:"size:100" json:"brand"`
	Model         string          `gorm:"size:255;not null" json:"model"`
	IMEI          string          `gorm:"size:32;index" json:"imei,omitempty"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"sale_price"`
	IsSold        bool            `gorm:"not null;default:false" json:"is_sold"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (PhoneListing) TableName() string { return "phone_listings" }

// Label is the line description printed on receipts.
func (p *PhoneListing) Label() string {
	return strings.TrimSpace(p.Brand + " " + p.Model)
}

type SparePart struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	SKU           string          `gorm:"size:100;index" json:"sku,omitempty"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"sale_price"`
	Quantity      int             `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (SparePart) TableName() string { return "spare_parts" }

type GoodsItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Barcode       string          `gorm:"size:100;index" json:"barcode,omitempty"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"sale_price"`
	Quantity      int             `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (GoodsItem) TableName() string { return "goods_items" }

type ServiceCatalogEntry struct {
	ID       uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name     string          `gorm:"size:255;not null" json:"name"`
	Price    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"price"`
	Cost     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cost"`
}

func (ServiceCatalogEntry) TableName() string { return "service_catalog" }

// TicketStatusDelivered is the terminal ticket state that triggers billing.
const TicketStatusDelivered = "delivered"

type ServiceTicket struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	LocationID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"location_id"`
	Number        string          `gorm:"size:32;not null" json:"number"`
	CustomerName  string          `gorm:"size:255" json:"customer_name,omitempty"`
	DeviceSummary string          `gorm:"size:255" json:"device_summary,omitempty"`
	Status        string          `gorm:"size:32;not null" json:"status"`
	FinalPrice    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"final_price"`
	PartsCost     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"parts_cost"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
}

func (ServiceTicket) TableName() string { return "service_tickets" }

func (t *ServiceTicket) IsDelivered() bool {
	return strings.EqualFold(t.Status, TicketStatusDelivered)
}

// Label is the line description printed on receipts.
func (t *ServiceTicket) Label() string {
	if t.DeviceSummary == "" {
		return "Repair #" + t.Number
	}
	return "Repair #" + t.Number + " " + t.DeviceSummary
}
