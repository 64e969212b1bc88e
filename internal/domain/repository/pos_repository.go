package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/pkg/pagination"
)

// ErrDuplicateKey is returned when an insert or update hits a uniqueness constraint
// (receipt idempotency key, receipt number).
var ErrDuplicateKey = errors.New("duplicate key")

// Transactor runs fn inside a single database transaction.
// Repositories called with the ctx passed to fn join that transaction;
// nested calls join the outer one.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionRepository defines the interface for cash register session data operations
type SessionRepository interface {
	// CreateIfAbsent inserts the session unless one already exists for its
	// tenant, location and business date. Reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, session *entity.CashRegisterSession) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CashRegisterSession, error)
	// GetForUpdate loads the session and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.CashRegisterSession, error)
	GetByLocationDate(ctx context.Context, locationID uuid.UUID, businessDate time.Time) (*entity.CashRegisterSession, error)
	// ListOpenBefore returns OPEN sessions of a location dated strictly before businessDate.
	ListOpenBefore(ctx context.Context, locationID uuid.UUID, businessDate time.Time) ([]entity.CashRegisterSession, error)
	// ListOpenUpTo returns OPEN sessions dated on or before businessDate.
	ListOpenUpTo(ctx context.Context, businessDate time.Time) ([]entity.CashRegisterSession, error)
	Update(ctx context.Context, session *entity.CashRegisterSession) error
}

// ReceiptRepository defines the interface for receipt data operations.
// Receipts are always loaded with their items ordered by position.
type ReceiptRepository interface {
	// Create inserts the receipt header and any items it carries.
	// Returns ErrDuplicateKey when the idempotency key is already taken.
	Create(ctx context.Context, receipt *entity.Receipt) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Receipt, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.Receipt, error)
	// GetByItemID returns the receipt owning the given line.
	GetByItemID(ctx context.Context, itemID uuid.UUID) (*entity.Receipt, error)
	List(ctx context.Context, params *ReceiptFilterParams) ([]entity.Receipt, int64, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]entity.Receipt, error)
	ListRefunds(ctx context.Context, originalID uuid.UUID) ([]entity.Receipt, error)
	// Update saves header columns only. Returns ErrDuplicateKey on key collision.
	Update(ctx context.Context, receipt *entity.Receipt) error
	AddItem(ctx context.Context, item *entity.ReceiptItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	// NextSequence allocates the next receipt sequence for a tenant and business date.
	NextSequence(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) (int, error)
}

// ReceiptFilterParams contains filtering parameters for receipt queries
type ReceiptFilterParams struct {
	Pagination *pagination.PaginationParams
	SessionID  *uuid.UUID
	LocationID *uuid.UUID
	Status     string
	Type       string
}

// DailyReportRepository defines the interface for Z report data operations
type DailyReportRepository interface {
	// Upsert inserts or replaces the report keyed by tenant, location and business date.
	Upsert(ctx context.Context, report *entity.DailyReport) error
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*entity.DailyReport, error)
}

// StockRepository mutates inventory quantities. It is the only writer of
// spare part and goods quantities.
type StockRepository interface {
	// TryDecrement subtracts qty only if at least qty units are available, in a
	// single conditional statement. Returns false when the row did not qualify.
	TryDecrement(ctx context.Context, ref entity.StockRef, qty int) (bool, error)
	Increment(ctx context.Context, ref entity.StockRef, qty int) error
	// Available returns the current quantity and whether the row exists.
	Available(ctx context.Context, ref entity.StockRef) (int, bool, error)
}

// CatalogRepository reads catalog rows and flips the sold flag on phone listings.
type CatalogRepository interface {
	GetPhone(ctx context.Context, id uuid.UUID) (*entity.PhoneListing, error)
	GetSparePart(ctx context.Context, id uuid.UUID) (*entity.SparePart, error)
	GetGoods(ctx context.Context, id uuid.UUID) (*entity.GoodsItem, error)
	GetService(ctx context.Context, id uuid.UUID) (*entity.ServiceCatalogEntry, error)
	GetTicket(ctx context.Context, id uuid.UUID) (*entity.ServiceTicket, error)
	// MarkPhoneSold sets is_sold only if it is currently false.
	MarkPhoneSold(ctx context.Context, id uuid.UUID) (bool, error)
	MarkPhoneUnsold(ctx context.Context, id uuid.UUID) error
}

// LocationRepository reads the tenant's shop locations.
type LocationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Location, error)
}

// AuditRepository appends audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
}
