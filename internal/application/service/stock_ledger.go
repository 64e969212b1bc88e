package service

import (
	"context"
	"fmt"

	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/internal/metrics"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
)

// StockLedger is the only path through which POS code moves inventory quantities.
type StockLedger struct {
	repo repository.StockRepository
}

// NewStockLedger creates a stock ledger over repo.
func NewStockLedger(repo repository.StockRepository) *StockLedger {
	return &StockLedger{repo: repo}
}

// Take decrements ref by qty in one conditional update. When the row does not
// hold qty units nothing changes and an InsufficientStock error carries the shortfall.
func (l *StockLedger) Take(ctx context.Context, ref entity.StockRef, qty int) error {
	if qty <= 0 {
		return apperror.NewFieldError("quantity", "must be positive")
	}
	ok, err := l.repo.TryDecrement(ctx, ref, qty)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if ok {
		return nil
	}

	available, exists, err := l.repo.Available(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to read stock: %w", err)
	}
	if !exists {
		return apperror.NewNotFoundError(itemLabel(ref.Kind))
	}
	metrics.StockRejections.WithLabelValues(ref.Kind.String()).Inc()
	return apperror.NewInsufficientStockError(ref.Kind.String(), ref.ID.String(), qty, available)
}

// Restore increments ref by qty.
func (l *StockLedger) Restore(ctx context.Context, ref entity.StockRef, qty int) error {
	if qty <= 0 {
		return nil
	}
	if err := l.repo.Increment(ctx, ref, qty); err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}
