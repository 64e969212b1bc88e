package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	domainRepo "github.com/sangkips/fixdesk-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type dailyReportRepository struct {
	db *gorm.DB
}

// NewDailyReportRepository creates a new daily report repository
func NewDailyReportRepository(db *gorm.DB) domainRepo.DailyReportRepository {
	return &dailyReportRepository{db: db}
}

func (r *dailyReportRepository) Upsert(ctx context.Context, report *entity.DailyReport) error {
	err := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "location_id"}, {Name: "business_date"}},
			DoUpdates: clause.AssignmentColumns(reportColumns),
		}).
		Create(report).Error
	if err != nil {
		return err
	}
	// Re-read so the caller sees the surviving row id on conflict.
	stored, err := r.GetBySession(ctx, report.SessionID)
	if err != nil {
		return err
	}
	if stored != nil {
		*report = *stored
	}
	return nil
}

func (r *dailyReportRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*entity.DailyReport, error) {
	var report entity.DailyReport
	err := conn(ctx, r.db).Scopes(TenantScope(ctx)).First(&report, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

var reportColumns = []string{
	"session_id",
	"opening_cash", "closing_cash", "expected_cash", "cash_variance",
	"total_revenue", "total_cost", "total_profit", "total_discount", "refund_total",
	"cash_total", "card_total", "transfer_total",
	"receipt_count", "refund_count", "voided_count",
	"phone_units", "spare_part_units", "service_units", "goods_units", "ticket_units", "custom_units",
	"is_final", "generated_at", "updated_at",
}
