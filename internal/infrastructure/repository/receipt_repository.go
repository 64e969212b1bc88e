package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	domainRepo "github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/sangkips/fixdesk-api/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) domainRepo.ReceiptRepository {
	return &receiptRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *receiptRepository) Create(ctx context.Context, receipt *entity.Receipt) error {
	return translate(conn(ctx, r.db).Create(receipt).Error)
}

func (r *receiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	return r.first(conn(ctx, r.db).Scopes(TenantScope(ctx)).Where("id = ?", id))
}

func (r *receiptRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	return r.first(conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(TenantScope(ctx)).
		Where("id = ?", id))
}

func (r *receiptRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Receipt, error) {
	return r.first(conn(ctx, r.db).Scopes(TenantScope(ctx)).Where("idempotency_key = ?", key))
}

func (r *receiptRepository) GetByItemID(ctx context.Context, itemID uuid.UUID) (*entity.Receipt, error) {
	sub := conn(ctx, r.db).Model(&entity.ReceiptItem{}).Select("receipt_id").Where("id = ?", itemID)
	return r.first(conn(ctx, r.db).Scopes(TenantScope(ctx)).Where("id = (?)", sub))
}

func (r *receiptRepository) List(ctx context.Context, params *domainRepo.ReceiptFilterParams) ([]entity.Receipt, int64, error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	query := conn(ctx, r.db).Model(&entity.Receipt{}).Scopes(TenantScope(ctx))
	if params.SessionID != nil {
		query = query.Where("session_id = ?", *params.SessionID)
	}
	if params.LocationID != nil {
		query = query.Where("location_id = ?", *params.LocationID)
	}
	if params.Status != "" {
		for s := enum.ReceiptStatusDraft; s <= enum.ReceiptStatusRefunded; s++ {
			if s.String() == params.Status {
				query = query.Where("status = ?", s)
			}
		}
	}
	if params.Type != "" {
		for t := enum.ReceiptTypeSale; t <= enum.ReceiptTypeRefund; t++ {
			if t.String() == params.Type {
				query = query.Where("type = ?", t)
			}
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var receipts []entity.Receipt
	err := query.
		Preload("Items", orderedItems).
		Order("created_at DESC").
		Offset(params.Pagination.Offset()).
		Limit(params.Pagination.PerPage).
		Find(&receipts).Error
	return receipts, total, err
}

func (r *receiptRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]entity.Receipt, error) {
	var receipts []entity.Receipt
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).
		Preload("Items", orderedItems).
		Where("session_id = ?", sessionID).
		Order("number ASC").
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) ListRefunds(ctx context.Context, originalID uuid.UUID) ([]entity.Receipt, error) {
	var receipts []entity.Receipt
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).
		Preload("Items", orderedItems).
		Where("original_receipt_id = ? AND type = ?", originalID, enum.ReceiptTypeRefund).
		Order("created_at ASC").
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) Update(ctx context.Context, receipt *entity.Receipt) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Save(receipt).Error)
}

func (r *receiptRepository) AddItem(ctx context.Context, item *entity.ReceiptItem) error {
	return conn(ctx, r.db).Create(item).Error
}

func (r *receiptRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return conn(ctx, r.db).Delete(&entity.ReceiptItem{}, "id = ?", itemID).Error
}

// NextSequence bumps the per-day counter row. Concurrent callers serialize on that row.
func (r *receiptRepository) NextSequence(ctx context.Context, tenantID uuid.UUID, businessDate time.Time) (int, error) {
	var seq int
	err := conn(ctx, r.db).Raw(`
		INSERT INTO receipt_counters (tenant_id, business_date, last_seq)
		VALUES (?, ?, 1)
		ON CONFLICT (tenant_id, business_date)
		DO UPDATE SET last_seq = receipt_counters.last_seq + 1
		RETURNING last_seq`, tenantID, businessDate).Scan(&seq).Error
	return seq, err
}

func (r *receiptRepository) first(q *gorm.DB) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := q.Preload("Items", orderedItems).First(&receipt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
