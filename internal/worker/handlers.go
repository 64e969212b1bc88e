package worker

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/event"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
)

// ReceiptPrinter prints issued receipts.
type ReceiptPrinter interface {
	Enabled() bool
	PrintReceipt(ctx context.Context, receiptID uuid.UUID) (*entity.Slip, error)
}

// ReportArchiver uploads finalized daily reports.
type ReportArchiver interface {
	Archive(ctx context.Context, sessionID uuid.UUID) error
}

// PrintReceiptHandler prints the receipt named by the event.
func PrintReceiptHandler(p ReceiptPrinter) Handler {
	return func(ctx context.Context, evt event.Event) error {
		if !p.Enabled() {
			return nil
		}
		_, err := p.PrintReceipt(repository.WithTenant(ctx, evt.TenantID), evt.EntityID)
		return err
	}
}

// ArchiveReportHandler archives the report of the session named by the event.
func ArchiveReportHandler(a ReportArchiver) Handler {
	return func(ctx context.Context, evt event.Event) error {
		return a.Archive(repository.WithTenant(ctx, evt.TenantID), evt.EntityID)
	}
}

// RegisterHandlers wires the POS follow-up work onto a pool.
func RegisterHandlers(p *Pool, printer ReceiptPrinter, archiver ReportArchiver) {
	p.Register(event.ReceiptIssued, PrintReceiptHandler(printer))
	p.Register(event.ReceiptRefunded, PrintReceiptHandler(printer))
	p.Register(event.ReportFinalized, ArchiveReportHandler(archiver))
}
