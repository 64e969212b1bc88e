package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
)

// TicketBridge bills a delivered service ticket without the draft workflow.
type TicketBridge struct {
	issuance *IssuanceService
}

// TicketDeliveryInput is the delivery event handed over by the ticket workflow.
// LocationID defaults to the ticket's own location.
type TicketDeliveryInput struct {
	TicketID   uuid.UUID
	LocationID *uuid.UUID
	Payment    PaymentInput
}

// TicketDeliveryKey is the idempotency key a ticket's delivery is issued under.
func TicketDeliveryKey(ticketID uuid.UUID) string {
	return "ticket-delivery:" + ticketID.String()
}

// IssueForTicketDelivery issues a single-line receipt for the ticket's final
// price. Re-processing the same delivery returns the receipt issued the first time.
func (b *TicketBridge) IssueForTicketDelivery(ctx context.Context, actor uuid.UUID, in TicketDeliveryInput) (*IssueResult, error) {
	if _, err := b.issuance.tenant(ctx); err != nil {
		return nil, err
	}
	key := TicketDeliveryKey(in.TicketID)
	// The ticket alone identifies the event; a retry with another payment method still replays.
	hash := fingerprint(struct{ TicketID uuid.UUID }{in.TicketID})
	if res, err := b.issuance.replay(ctx, key, hash, "ticket_delivery"); res != nil || err != nil {
		return res, err
	}

	ticket, err := b.issuance.store.Catalog.GetTicket(ctx, in.TicketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load service ticket: %w", err)
	}
	if ticket == nil {
		return nil, apperror.NewNotFoundError("Service ticket")
	}
	if !ticket.IsDelivered() {
		return nil, apperror.NewInvalidStateError("ticket %s is %s, only delivered tickets are billed", ticket.Number, ticket.Status)
	}

	locationID := ticket.LocationID
	if in.LocationID != nil {
		locationID = *in.LocationID
	}
	return b.issuance.quickIssue(ctx, actor, QuickIssueInput{
		LocationID:     locationID,
		Items:          []LineInput{{Ref: entity.TicketRef{TicketID: ticket.ID}, Quantity: 1}},
		Payment:        in.Payment,
		IdempotencyKey: key,
	}, hash, "ticket_delivery")
}
