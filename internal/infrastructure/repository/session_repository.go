package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	domainRepo "github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new cash register session repository
func NewSessionRepository(db *gorm.DB) domainRepo.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) CreateIfAbsent(ctx context.Context, session *entity.CashRegisterSession) (bool, error) {
	result := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "location_id"}, {Name: "business_date"}},
			DoNothing: true,
		}).
		Create(session)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CashRegisterSession, error) {
	return r.first(conn(ctx, r.db).Scopes(TenantScope(ctx)).Where("id = ?", id))
}

func (r *sessionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.CashRegisterSession, error) {
	return r.first(conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(TenantScope(ctx)).
		Where("id = ?", id))
}

func (r *sessionRepository) GetByLocationDate(ctx context.Context, locationID uuid.UUID, businessDate time.Time) (*entity.CashRegisterSession, error) {
	return r.first(conn(ctx, r.db).Scopes(TenantScope(ctx)).
		Where("location_id = ? AND business_date = ?", locationID, businessDate))
}

func (r *sessionRepository) ListOpenBefore(ctx context.Context, locationID uuid.UUID, businessDate time.Time) ([]entity.CashRegisterSession, error) {
	var sessions []entity.CashRegisterSession
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).
		Where("location_id = ? AND status = ? AND business_date < ?", locationID, enum.SessionStatusOpen, businessDate).
		Order("business_date ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) ListOpenUpTo(ctx context.Context, businessDate time.Time) ([]entity.CashRegisterSession, error) {
	var sessions []entity.CashRegisterSession
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).
		Where("status = ? AND business_date <= ?", enum.SessionStatusOpen, businessDate).
		Order("business_date ASC, tenant_id ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) Update(ctx context.Context, session *entity.CashRegisterSession) error {
	return conn(ctx, r.db).Save(session).Error
}

func (r *sessionRepository) first(q *gorm.DB) (*entity.CashRegisterSession, error) {
	var session entity.CashRegisterSession
	err := q.First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
