package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
)

// ReconciliationService aggregates session receipts into daily (Z) reports.
type ReconciliationService struct {
	*base
}

// GenerateReport aggregates the session's receipts and upserts its daily report.
// On an open session it also refreshes the running totals. A closed session
// keeps the report written at close.
func (s *ReconciliationService) GenerateReport(ctx context.Context, sessionID uuid.UUID) (*entity.DailyReport, error) {
	if _, err := s.tenant(ctx); err != nil {
		return nil, err
	}

	var report *entity.DailyReport
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.store.Sessions.GetForUpdate(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		if session == nil {
			return apperror.NewNotFoundError("Session")
		}

		if !session.IsOpen() {
			existing, err := s.store.Reports.GetBySession(ctx, session.ID)
			if err != nil {
				return fmt.Errorf("failed to load report: %w", err)
			}
			if existing != nil {
				report = existing
				return nil
			}
		}

		totals, err := s.refresh(ctx, session)
		if err != nil {
			return err
		}
		report, err = s.writeReport(ctx, session, totals)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// GetReport returns the stored daily report of a session.
func (s *ReconciliationService) GetReport(ctx context.Context, sessionID uuid.UUID) (*entity.DailyReport, error) {
	report, err := s.store.Reports.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report == nil {
		return nil, apperror.NewNotFoundError("Daily report")
	}
	return report, nil
}

// refresh re-aggregates the session's receipts and, while the session is open,
// stores the result as its running totals. The caller holds the session lock.
func (s *ReconciliationService) refresh(ctx context.Context, session *entity.CashRegisterSession) (entity.Totals, error) {
	receipts, err := s.store.Receipts.ListBySession(ctx, session.ID)
	if err != nil {
		return entity.Totals{}, fmt.Errorf("failed to list session receipts: %w", err)
	}
	totals := entity.Summarize(receipts)
	if !session.IsOpen() {
		return totals, nil
	}
	session.ApplyTotals(totals)
	if err := s.store.Sessions.Update(ctx, session); err != nil {
		return entity.Totals{}, fmt.Errorf("failed to update session totals: %w", err)
	}
	return totals, nil
}

func (s *ReconciliationService) writeReport(ctx context.Context, session *entity.CashRegisterSession, totals entity.Totals) (*entity.DailyReport, error) {
	report := &entity.DailyReport{GeneratedAt: s.cal.now()}
	report.Fill(session, totals)
	if err := s.store.Reports.Upsert(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save daily report: %w", err)
	}
	return report, nil
}
