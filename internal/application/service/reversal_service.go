package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/sangkips/fixdesk-api/internal/domain/event"
	"github.com/sangkips/fixdesk-api/internal/metrics"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// ReversalService voids and refunds issued sale receipts.
type ReversalService struct {
	*base
	ledger   *StockLedger
	sessions *SessionService
	reports  *ReconciliationService
}

// RefundLine selects how many units of an original line to refund.
type RefundLine struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

// RefundInput lists the lines to refund. No lines means everything still refundable.
type RefundInput struct {
	Lines          []RefundLine `json:"lines"`
	Reason         string       `json:"reason"`
	IdempotencyKey string       `json:"-"`
}

// Void cancels an ISSUED sale receipt of a still-open session as if it never
// happened: all stock comes back and sold phones are released.
func (s *ReversalService) Void(ctx context.Context, receiptID, actor uuid.UUID, reason string) (*entity.Receipt, error) {
	if _, err := s.tenant(ctx); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.NewFieldError("reason", "is required")
	}

	var receipt *entity.Receipt
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		receipt, err = s.lockIssuedSale(ctx, receiptID)
		if err != nil {
			return err
		}
		refunds, err := s.store.Receipts.ListRefunds(ctx, receipt.ID)
		if err != nil {
			return fmt.Errorf("failed to list refunds: %w", err)
		}
		if len(refunds) > 0 {
			return apperror.NewInvalidStateError("receipt %s has refunds and can no longer be voided", receipt.Number)
		}
		session, err := s.store.Sessions.GetForUpdate(ctx, receipt.SessionID)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		if session == nil || !session.IsOpen() {
			return apperror.NewInvalidStateError("receipt %s belongs to a closed session, refund it instead", receipt.Number)
		}

		for i := range receipt.Items {
			if err := s.restoreLine(ctx, &receipt.Items[i], receipt.Items[i].Quantity); err != nil {
				return err
			}
		}

		now := s.cal.now()
		receipt.Status = enum.ReceiptStatusVoided
		receipt.VoidedBy = actorPtr(actor)
		receipt.VoidedAt = &now
		receipt.VoidReason = reason
		if err := s.store.Receipts.Update(ctx, receipt); err != nil {
			return fmt.Errorf("failed to void receipt: %w", err)
		}
		if _, err := s.reports.refresh(ctx, session); err != nil {
			return err
		}
		return s.audit(ctx, receipt.TenantID, actor, entity.AuditReceiptVoided, "receipt", receipt.ID, map[string]interface{}{
			"number": receipt.Number,
			"reason": reason,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.ReceiptsVoided.Inc()
	s.publish(ctx, event.ReceiptVoided, receipt.TenantID, receipt.ID)
	return receipt, nil
}

// Refund issues a REFUND receipt with negated quantities for the selected lines
// of an ISSUED sale. The refund lands in today's session of the original's
// location. The original becomes REFUNDED once every line is fully refunded.
func (s *ReversalService) Refund(ctx context.Context, originalID, actor uuid.UUID, in RefundInput) (*IssueResult, error) {
	if _, err := s.tenant(ctx); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	hash := fingerprint(struct {
		OriginalID uuid.UUID
		Lines      []RefundLine
	}{originalID, in.Lines})
	if key != "" {
		if res, err := s.replay(ctx, key, hash, "refund"); res != nil || err != nil {
			return res, err
		}
	}

	original, err := s.store.Receipts.GetByID(ctx, originalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	if original == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	current, err := s.sessions.EnsureSession(ctx, original.LocationID, actor)
	if err != nil {
		return nil, err
	}

	var refund *entity.Receipt
	err = s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		original, err := s.lockIssuedSale(ctx, originalID)
		if err != nil {
			return err
		}
		children, err := s.store.Receipts.ListRefunds(ctx, original.ID)
		if err != nil {
			return fmt.Errorf("failed to list refunds: %w", err)
		}
		refunded := refundedQuantities(children)
		plan, err := planRefund(original, refunded, in.Lines)
		if err != nil {
			return err
		}

		session, err := s.lockOpenSession(ctx, current.ID)
		if err != nil {
			return err
		}
		refund, err = s.newReceipt(ctx, session, enum.ReceiptTypeRefund, actor)
		if err != nil {
			return err
		}
		for _, p := range plan {
			refunded[p.item.ID] += p.quantity
		}
		complete := fullyRefunded(original, refunded)
		s.fillRefund(refund, original, children, plan, complete, actor, key, hash, session.FiscalMode)
		if err := s.store.Receipts.Create(ctx, refund); err != nil {
			return fmt.Errorf("failed to create refund: %w", err)
		}

		for _, p := range plan {
			if err := s.restoreLine(ctx, p.item, p.quantity); err != nil {
				return err
			}
		}

		if complete {
			original.Status = enum.ReceiptStatusRefunded
			if err := s.store.Receipts.Update(ctx, original); err != nil {
				return fmt.Errorf("failed to update original receipt: %w", err)
			}
		}

		if _, err := s.reports.refresh(ctx, session); err != nil {
			return err
		}
		if original.SessionID != session.ID {
			origSession, err := s.store.Sessions.GetForUpdate(ctx, original.SessionID)
			if err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}
			if origSession != nil && origSession.IsOpen() {
				if _, err := s.reports.refresh(ctx, origSession); err != nil {
					return err
				}
			}
		}

		return s.audit(ctx, refund.TenantID, actor, entity.AuditReceiptRefunded, "receipt", original.ID, map[string]interface{}{
			"refund_id":     refund.ID.String(),
			"refund_number": refund.Number,
			"total":         refund.TotalAmount.StringFixed(2),
			"reason":        strings.TrimSpace(in.Reason),
		})
	})
	if err != nil {
		return s.recoverDuplicate(ctx, err, key, hash, "refund")
	}

	metrics.ReceiptsIssued.WithLabelValues(refund.Type.String()).Inc()
	s.publish(ctx, event.ReceiptRefunded, refund.TenantID, refund.ID)
	return &IssueResult{Receipt: refund}, nil
}

type refundPart struct {
	item     *entity.ReceiptItem
	quantity int
}

// refundedQuantities sums units already refunded per original line.
func refundedQuantities(children []entity.Receipt) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int)
	for _, child := range children {
		if child.Status != enum.ReceiptStatusIssued {
			continue
		}
		for _, it := range child.Items {
			if it.OriginalItemID != nil {
				out[*it.OriginalItemID] += -it.Quantity
			}
		}
	}
	return out
}

// planRefund resolves the requested lines against what is still refundable.
func planRefund(original *entity.Receipt, refunded map[uuid.UUID]int, lines []RefundLine) ([]refundPart, error) {
	var plan []refundPart
	if len(lines) == 0 {
		for i := range original.Items {
			item := &original.Items[i]
			if remaining := item.Quantity - refunded[item.ID]; remaining > 0 {
				plan = append(plan, refundPart{item: item, quantity: remaining})
			}
		}
		if len(plan) == 0 {
			return nil, apperror.NewInvalidStateError("receipt %s has nothing left to refund", original.Number)
		}
		return plan, nil
	}

	requested := make(map[uuid.UUID]int)
	var order []uuid.UUID
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperror.NewFieldError(fmt.Sprintf("lines[%d].quantity", i), "must be positive")
		}
		if _, ok := original.ItemByID(line.ItemID); !ok {
			return nil, apperror.NewFieldError(fmt.Sprintf("lines[%d].item_id", i), "is not a line of the original receipt")
		}
		if _, seen := requested[line.ItemID]; !seen {
			order = append(order, line.ItemID)
		}
		requested[line.ItemID] += line.Quantity
	}
	for _, id := range order {
		item, _ := original.ItemByID(id)
		remaining := item.Quantity - refunded[id]
		if requested[id] > remaining {
			return nil, apperror.NewFieldError("lines", fmt.Sprintf("only %d unit(s) of %q can still be refunded", remaining, item.Description))
		}
		plan = append(plan, refundPart{item: item, quantity: requested[id]})
	}
	return plan, nil
}

// refundDiscount is the (negative) share of the original header discount a
// refund carries. The share is rounded on the cumulative refunded subtotal and
// the refund that completes the original takes whatever is left, so the
// discounts of all refunds add up to the original discount.
func refundDiscount(original *entity.Receipt, children []entity.Receipt, subtotal decimal.Decimal, complete bool) decimal.Decimal {
	prevSubtotal, prevDiscount := decimal.Zero, decimal.Zero
	for _, child := range children {
		if child.Status != enum.ReceiptStatusIssued {
			continue
		}
		prevSubtotal = prevSubtotal.Sub(child.Subtotal)
		prevDiscount = prevDiscount.Sub(child.DiscountAmount)
	}
	target := original.DiscountAmount
	if !complete {
		target = entity.RoundMoney(original.DiscountAmount.Mul(prevSubtotal.Sub(subtotal)).Div(original.Subtotal))
	}
	return prevDiscount.Sub(target)
}

func fullyRefunded(original *entity.Receipt, refunded map[uuid.UUID]int) bool {
	for _, item := range original.Items {
		if refunded[item.ID] < item.Quantity {
			return false
		}
	}
	return true
}

// fillRefund copies the planned lines with negated quantities, pro-rates the
// original header discount and pays the total back through the original method.
func (s *ReversalService) fillRefund(refund, original *entity.Receipt, children []entity.Receipt, plan []refundPart, complete bool, actor uuid.UUID, key, hash string, fiscal bool) {
	for i, p := range plan {
		src := p.item
		origID := src.ID
		refund.Items = append(refund.Items, entity.ReceiptItem{
			TenantID:       refund.TenantID,
			ReceiptID:      refund.ID,
			Position:       i + 1,
			Kind:           src.Kind,
			PhoneListingID: src.PhoneListingID,
			SparePartID:    src.SparePartID,
			ServiceID:      src.ServiceID,
			GoodsItemID:    src.GoodsItemID,
			TicketID:       src.TicketID,
			Description:    src.Description,
			OriginalItemID: &origID,
			Quantity:       -p.quantity,
			UnitPrice:      src.UnitPrice,
			PurchasePrice:  src.PurchasePrice,
			DiscountPct:    src.DiscountPct,
		})
	}
	refund.Recalculate()
	if !original.Subtotal.IsZero() && !original.DiscountAmount.IsZero() {
		refund.DiscountAmount = refundDiscount(original, children, refund.Subtotal, complete)
		refund.Recalculate()
	}

	method := original.PaymentMethod
	if method == enum.PaymentMethodMixed {
		method = enum.PaymentMethodCash
	}
	refund.PaymentMethod = method
	switch method {
	case enum.PaymentMethodCard:
		refund.CardAmount = refund.TotalAmount
	case enum.PaymentMethodTransfer:
		refund.TransferAmount = refund.TotalAmount
	default:
		refund.CashAmount = refund.TotalAmount
	}
	refund.CashReceived = decimal.Zero
	refund.ChangeDue = decimal.Zero

	now := s.cal.now()
	originalID := original.ID
	refund.OriginalReceiptID = &originalID
	refund.Status = enum.ReceiptStatusIssued
	refund.IssuedAt = &now
	refund.IssuedBy = actorPtr(actor)
	refund.BuyerName = original.BuyerName
	refund.BuyerTaxID = original.BuyerTaxID
	if key != "" {
		refund.IdempotencyKey = &key
		refund.RequestHash = hash
	}
	if fiscal {
		refund.FiscalStatus = fiscalPending
	}
}

func (s *ReversalService) lockIssuedSale(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.store.Receipts.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	if receipt.Type != enum.ReceiptTypeSale {
		return nil, apperror.NewInvalidStateError("receipt %s is a refund and cannot be reversed", receipt.Number)
	}
	if receipt.Status != enum.ReceiptStatusIssued {
		return nil, apperror.NewInvalidStateError("receipt %s is %s, only ISSUED receipts can be reversed", receipt.Number, receipt.Status)
	}
	return receipt, nil
}

// restoreLine gives back qty units of a sold line: stock for stock-bearing
// kinds, the sold flag for phones.
func (s *ReversalService) restoreLine(ctx context.Context, item *entity.ReceiptItem, qty int) error {
	if ref, ok := item.StockRef(); ok {
		return s.ledger.Restore(ctx, ref, qty)
	}
	if item.Kind == enum.ItemKindPhone && item.PhoneListingID != nil {
		if err := s.store.Catalog.MarkPhoneUnsold(ctx, *item.PhoneListingID); err != nil {
			return fmt.Errorf("failed to release phone listing: %w", err)
		}
	}
	return nil
}
