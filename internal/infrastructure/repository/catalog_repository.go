package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	domainRepo "github.com/sangkips/fixdesk-api/internal/domain/repository"
	"gorm.io/gorm"
)

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a read view over the inventory and ticket catalogs
func NewCatalogRepository(db *gorm.DB) domainRepo.CatalogRepository {
	return &catalogRepository{db: db}
}

// findByID loads one tenant-scoped row into dest. Missing rows yield (false, nil).
func (r *catalogRepository) findByID(ctx context.Context, dest interface{}, id uuid.UUID) (bool, error) {
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).First(dest, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *catalogRepository) GetPhone(ctx context.Context, id uuid.UUID) (*entity.PhoneListing, error) {
	var phone entity.PhoneListing
	found, err := r.findByID(ctx, &phone, id)
	if !found {
		return nil, err
	}
	return &phone, nil
}

func (r *catalogRepository) GetSparePart(ctx context.Context, id uuid.UUID) (*entity.SparePart, error) {
	var part entity.SparePart
	found, err := r.findByID(ctx, &part, id)
	if !found {
		return nil, err
	}
	return &part, nil
}

func (r *catalogRepository) GetGoods(ctx context.Context, id uuid.UUID) (*entity.GoodsItem, error) {
	var goods entity.GoodsItem
	found, err := r.findByID(ctx, &goods, id)
	if !found {
		return nil, err
	}
	return &goods, nil
}

func (r *catalogRepository) GetService(ctx context.Context, id uuid.UUID) (*entity.ServiceCatalogEntry, error) {
	var svc entity.ServiceCatalogEntry
	found, err := r.findByID(ctx, &svc, id)
	if !found {
		return nil, err
	}
	return &svc, nil
}

func (r *catalogRepository) GetTicket(ctx context.Context, id uuid.UUID) (*entity.ServiceTicket, error) {
	var ticket entity.ServiceTicket
	found, err := r.findByID(ctx, &ticket, id)
	if !found {
		return nil, err
	}
	return &ticket, nil
}

func (r *catalogRepository) MarkPhoneSold(ctx context.Context, id uuid.UUID) (bool, error) {
	result := conn(ctx, r.db).Model(&entity.PhoneListing{}).
		Scopes(TenantScope(ctx)).
		Where("id = ? AND is_sold = ?", id, false).
		Update("is_sold", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *catalogRepository) MarkPhoneUnsold(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Model(&entity.PhoneListing{}).
		Scopes(TenantScope(ctx)).
		Where("id = ?", id).
		Update("is_sold", false).Error
}
