package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types published after a POS transaction commits
const (
	ReceiptIssued   = "receipt.issued"
	ReceiptVoided   = "receipt.voided"
	ReceiptRefunded = "receipt.refunded"
	ReportFinalized = "report.finalized"
)

// Event is a post-commit notification. Handlers reload the entity by id.
type Event struct {
	Type       string    `json:"type"`
	TenantID   uuid.UUID `json:"tenant_id"`
	EntityID   uuid.UUID `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher hands events to whatever processes best-effort follow-up work.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}
