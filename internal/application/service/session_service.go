package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/sangkips/fixdesk-api/internal/domain/event"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/internal/metrics"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// SessionService owns the one-session-per-location-per-day register lifecycle.
type SessionService struct {
	*base
	reports *ReconciliationService
}

// AutoCloseResult summarizes one end-of-day sweep.
type AutoCloseResult struct {
	Closed  []uuid.UUID        `json:"closed"`
	Skipped int                `json:"skipped"`
	Failed  []AutoCloseFailure `json:"failed,omitempty"`
}

type AutoCloseFailure struct {
	SessionID uuid.UUID `json:"session_id"`
	Error     string    `json:"error"`
}

// EnsureSession returns today's session for the location, creating it with zero
// opening cash when absent. Earlier sessions of the location left OPEN are closed first.
func (s *SessionService) EnsureSession(ctx context.Context, locationID, actor uuid.UUID) (*entity.CashRegisterSession, error) {
	tenantID, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	today := s.cal.Today()

	existing, err := s.store.Sessions.GetByLocationDate(ctx, locationID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	location, err := s.store.Locations.GetByID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load location: %w", err)
	}
	if location == nil {
		return nil, apperror.NewNotFoundError("Location")
	}

	stale, err := s.store.Sessions.ListOpenBefore(ctx, locationID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	for _, old := range stale {
		if _, _, err := s.closeSession(ctx, old.ID, uuid.Nil, nil, true); err != nil && !apperror.IsKind(err, apperror.KindInvalidState) {
			return nil, err
		}
	}

	session := &entity.CashRegisterSession{
		TenantID:     tenantID,
		LocationID:   locationID,
		BusinessDate: today,
		Status:       enum.SessionStatusOpen,
		FiscalMode:   location.FiscalMode,
		OpeningCash:  decimal.Zero,
		OpenedBy:     actorPtr(actor),
		OpenedAt:     s.cal.now(),
	}
	var created bool
	err = s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.store.Sessions.CreateIfAbsent(ctx, session)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		if !created {
			return nil
		}
		return s.audit(ctx, tenantID, actor, entity.AuditSessionOpened, "session", session.ID, map[string]interface{}{
			"location_id":   locationID.String(),
			"business_date": today.Format("2006-01-02"),
		})
	})
	if err != nil {
		return nil, err
	}
	if created {
		log.Info().Str("session_id", session.ID.String()).Str("location_id", locationID.String()).Msg("cash register session opened")
		return session, nil
	}

	// Lost the race to a concurrent opener.
	existing, err = s.store.Sessions.GetByLocationDate(ctx, locationID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("session for location %s vanished after conflict", locationID)
	}
	return existing, nil
}

// GetSession returns a session by id.
func (s *SessionService) GetSession(ctx context.Context, id uuid.UUID) (*entity.CashRegisterSession, error) {
	session, err := s.store.Sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, apperror.NewNotFoundError("Session")
	}
	return session, nil
}

// SetOpeningCash records the counted float of an open session.
func (s *SessionService) SetOpeningCash(ctx context.Context, id, actor uuid.UUID, amount decimal.Decimal) (*entity.CashRegisterSession, error) {
	tenantID, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, apperror.NewFieldError("opening_cash", "must not be negative")
	}

	var out *entity.CashRegisterSession
	err = s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.lockOpenSession(ctx, id)
		if err != nil {
			return err
		}
		previous := session.OpeningCash
		session.OpeningCash = entity.RoundMoney(amount)
		session.ExpectedCash = session.OpeningCash.Add(session.CashTotal)
		if err := s.store.Sessions.Update(ctx, session); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
		out = session
		return s.audit(ctx, tenantID, actor, entity.AuditSessionOpeningSet, "session", session.ID, map[string]interface{}{
			"previous": previous.StringFixed(2),
			"amount":   session.OpeningCash.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CloseRegister closes an open session against the counted closing cash and
// writes its final daily report.
func (s *SessionService) CloseRegister(ctx context.Context, id, actor uuid.UUID, closingCash decimal.Decimal) (*entity.CashRegisterSession, *entity.DailyReport, error) {
	if _, err := s.tenant(ctx); err != nil {
		return nil, nil, err
	}
	if closingCash.IsNegative() {
		return nil, nil, apperror.NewFieldError("closing_cash", "must not be negative")
	}
	return s.closeSession(ctx, id, actor, &closingCash, false)
}

// AutoDailyClose force-closes every OPEN session dated today or earlier, across
// all tenants, using the computed cash as the closing count.
func (s *SessionService) AutoDailyClose(ctx context.Context) (*AutoCloseResult, error) {
	today := s.cal.Today()
	sweepCtx := repository.WithSkipTenantScope(ctx, true)
	sessions, err := s.store.Sessions.ListOpenUpTo(sweepCtx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}

	result := &AutoCloseResult{Closed: []uuid.UUID{}}
	for _, session := range sessions {
		tenantCtx := repository.WithTenant(repository.WithSkipTenantScope(ctx, false), session.TenantID)
		_, _, err := s.closeSession(tenantCtx, session.ID, uuid.Nil, nil, true)
		switch {
		case err == nil:
			result.Closed = append(result.Closed, session.ID)
		case apperror.IsKind(err, apperror.KindInvalidState):
			result.Skipped++
		default:
			log.Error().Err(err).Str("session_id", session.ID.String()).Msg("auto close failed")
			result.Failed = append(result.Failed, AutoCloseFailure{SessionID: session.ID, Error: err.Error()})
		}
	}

	log.Info().
		Int("closed", len(result.Closed)).
		Int("skipped", result.Skipped).
		Int("failed", len(result.Failed)).
		Str("business_date", today.Format("2006-01-02")).
		Msg("daily close sweep finished")
	return result, nil
}

// closeSession closes one session in its own transaction. A nil closing count
// means the computed expected cash is taken as counted.
func (s *SessionService) closeSession(ctx context.Context, id, actor uuid.UUID, closingCash *decimal.Decimal, auto bool) (*entity.CashRegisterSession, *entity.DailyReport, error) {
	var (
		session *entity.CashRegisterSession
		report  *entity.DailyReport
	)
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		session, err = s.lockOpenSession(ctx, id)
		if err != nil {
			return err
		}
		totals, err := s.reports.refresh(ctx, session)
		if err != nil {
			return err
		}

		closing := session.ExpectedCash
		if closingCash != nil {
			closing = entity.RoundMoney(*closingCash)
		}
		now := s.cal.now()
		session.ClosingCash = closing
		session.CashVariance = closing.Sub(session.ExpectedCash)
		session.Status = enum.SessionStatusClosed
		session.ClosedBy = actorPtr(actor)
		session.ClosedAt = &now
		session.AutoClosed = auto
		if err := s.store.Sessions.Update(ctx, session); err != nil {
			return fmt.Errorf("failed to close session: %w", err)
		}

		report, err = s.reports.writeReport(ctx, session, totals)
		if err != nil {
			return err
		}

		action := entity.AuditSessionClosed
		if auto {
			action = entity.AuditSessionAutoClosed
		}
		return s.audit(ctx, session.TenantID, actor, action, "session", session.ID, map[string]interface{}{
			"expected_cash": session.ExpectedCash.StringFixed(2),
			"closing_cash":  session.ClosingCash.StringFixed(2),
			"variance":      session.CashVariance.StringFixed(2),
		})
	})
	if err != nil {
		return nil, nil, err
	}

	mode := "manual"
	if auto {
		mode = "auto"
	}
	metrics.SessionsClosed.WithLabelValues(mode).Inc()
	log.Info().
		Str("session_id", session.ID.String()).
		Str("mode", mode).
		Str("variance", session.CashVariance.StringFixed(2)).
		Msg("cash register session closed")
	s.publish(ctx, event.ReportFinalized, session.TenantID, session.ID)
	return session, report, nil
}
