package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/sangkips/fixdesk-api/internal/domain/event"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
	"golang.org/x/crypto/blake2b"
)

// Store groups the repositories the POS engine works against.
type Store struct {
	Tx        repository.Transactor
	Sessions  repository.SessionRepository
	Receipts  repository.ReceiptRepository
	Reports   repository.DailyReportRepository
	Stock     repository.StockRepository
	Catalog   repository.CatalogRepository
	Locations repository.LocationRepository
	Audit     repository.AuditRepository
}

// Calendar maps wall-clock time onto business dates.
type Calendar struct {
	Now  func() time.Time
	Zone *time.Location
}

// NewCalendar returns a calendar on the system clock for the named zone.
func NewCalendar(zone string) (Calendar, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Calendar{}, err
	}
	return Calendar{Now: time.Now, Zone: loc}, nil
}

func (c Calendar) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}

// Today returns the current business date.
func (c Calendar) Today() time.Time {
	return entity.BusinessDate(c.now(), c.Zone)
}

// POS bundles the engine's services over one store.
type POS struct {
	Sessions  *SessionService
	Receipts  *ReceiptService
	Issuance  *IssuanceService
	Reversals *ReversalService
	Tickets   *TicketBridge
	Reports   *ReconciliationService
}

// NewPOS wires the POS services together.
func NewPOS(store Store, cal Calendar, events event.Publisher) *POS {
	if events == nil {
		events = LogPublisher{}
	}
	b := &base{store: store, cal: cal, events: events}
	ledger := NewStockLedger(store.Stock)
	reports := &ReconciliationService{base: b}
	sessions := &SessionService{base: b, reports: reports}
	receipts := &ReceiptService{base: b, ledger: ledger}
	issuance := &IssuanceService{base: b, sessions: sessions, receipts: receipts, reports: reports}
	return &POS{
		Sessions:  sessions,
		Receipts:  receipts,
		Issuance:  issuance,
		Reversals: &ReversalService{base: b, ledger: ledger, sessions: sessions, reports: reports},
		Tickets:   &TicketBridge{issuance: issuance},
		Reports:   reports,
	}
}

// base carries what every POS service shares.
type base struct {
	store  Store
	cal    Calendar
	events event.Publisher
}

func (b *base) tenant(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := repository.GetTenantID(ctx)
	if !ok {
		return uuid.Nil, apperror.ErrTenantRequired
	}
	return tenantID, nil
}

func (b *base) audit(ctx context.Context, tenantID uuid.UUID, actor uuid.UUID, action, entityType string, entityID uuid.UUID, details map[string]interface{}) error {
	entry := &entity.AuditEntry{
		TenantID:   tenantID,
		ActorID:    actorPtr(actor),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  b.cal.now(),
	}
	return b.store.Audit.Create(ctx, entry)
}

// publish hands an event to the queue after commit. Failures are logged only.
// The transaction already committed, so a client that hung up must not cancel it.
func (b *base) publish(ctx context.Context, evtType string, tenantID, entityID uuid.UUID) {
	evt := event.Event{Type: evtType, TenantID: tenantID, EntityID: entityID, OccurredAt: b.cal.now()}
	if err := b.events.Publish(context.WithoutCancel(ctx), evt); err != nil {
		log.Warn().Err(err).Str("event", evtType).Str("entity_id", entityID.String()).Msg("failed to publish event")
	}
}

// lockOpenSession locks the session row and requires it to be OPEN.
func (b *base) lockOpenSession(ctx context.Context, id uuid.UUID) (*entity.CashRegisterSession, error) {
	session, err := b.store.Sessions.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, apperror.NewNotFoundError("Session")
	}
	if !session.IsOpen() {
		return nil, apperror.NewInvalidStateError("session %s is %s", session.ID, session.Status)
	}
	return session, nil
}

// newReceipt allocates the next receipt number of the session's business date.
func (b *base) newReceipt(ctx context.Context, session *entity.CashRegisterSession, receiptType enum.ReceiptType, actor uuid.UUID) (*entity.Receipt, error) {
	seq, err := b.store.Receipts.NextSequence(ctx, session.TenantID, session.BusinessDate)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate receipt number: %w", err)
	}
	return &entity.Receipt{
		TenantID:     session.TenantID,
		LocationID:   session.LocationID,
		SessionID:    session.ID,
		Number:       entity.FormatReceiptNumber(session.BusinessDate, seq),
		BusinessDate: session.BusinessDate,
		Type:         receiptType,
		Status:       enum.ReceiptStatusDraft,
		CreatedBy:    actorPtr(actor),
		Items:        []entity.ReceiptItem{},
	}, nil
}

func actorPtr(actor uuid.UUID) *uuid.UUID {
	if actor == uuid.Nil {
		return nil
	}
	return &actor
}

// fingerprint hashes a request payload so key reuse with a different body can be detected.
func fingerprint(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LogPublisher logs events instead of queueing them. Used when Redis is not configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, evt event.Event) error {
	log.Info().
		Str("event", evt.Type).
		Str("tenant_id", evt.TenantID.String()).
		Str("entity_id", evt.EntityID.String()).
		Msg("event published")
	return nil
}
