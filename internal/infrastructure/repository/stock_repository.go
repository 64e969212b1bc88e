package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	domainRepo "github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"gorm.io/gorm"
)

type stockRepository struct {
	db *gorm.DB
}

// NewStockRepository creates the stock ledger over spare part and goods quantities
func NewStockRepository(db *gorm.DB) domainRepo.StockRepository {
	return &stockRepository{db: db}
}

func stockModel(kind enum.ItemKind) (interface{}, error) {
	switch kind {
	case enum.ItemKindSparePart:
		return &entity.SparePart{}, nil
	case enum.ItemKindGoods:
		return &entity.GoodsItem{}, nil
	}
	return nil, fmt.Errorf("stock: %s does not track quantity", kind)
}

// TryDecrement issues: UPDATE ... SET quantity = quantity - qty WHERE id = ? AND quantity >= qty
func (r *stockRepository) TryDecrement(ctx context.Context, ref entity.StockRef, qty int) (bool, error) {
	model, err := stockModel(ref.Kind)
	if err != nil {
		return false, err
	}
	result := conn(ctx, r.db).Model(model).
		Scopes(TenantScope(ctx)).
		Where("id = ? AND quantity >= ?", ref.ID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *stockRepository) Increment(ctx context.Context, ref entity.StockRef, qty int) error {
	model, err := stockModel(ref.Kind)
	if err != nil {
		return err
	}
	result := conn(ctx, r.db).Model(model).
		Scopes(TenantScope(ctx)).
		Where("id = ?", ref.ID).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("stock: %s not found", ref)
	}
	return nil
}

func (r *stockRepository) Available(ctx context.Context, ref entity.StockRef) (int, bool, error) {
	model, err := stockModel(ref.Kind)
	if err != nil {
		return 0, false, err
	}
	var qty int
	err = conn(ctx, r.db).Model(model).
		Scopes(TenantScope(ctx)).
		Where("id = ?", ref.ID).
		Select("quantity").
		Take(&qty).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return qty, true, nil
}
