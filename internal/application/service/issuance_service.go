package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/sangkips/fixdesk-api/internal/domain/event"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/internal/metrics"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// fiscalPending marks receipts of fiscal-mode sessions until a fiscal device reports back.
const fiscalPending = "PENDING"

// IssuanceService turns receipts into issued financial documents.
type IssuanceService struct {
	*base
	sessions *SessionService
	receipts *ReceiptService
	reports  *ReconciliationService
}

// IssueInput carries payment and buyer details for issuance.
type IssueInput struct {
	Payment        PaymentInput    `json:"payment"`
	Buyer          *BuyerInput     `json:"buyer,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	IdempotencyKey string          `json:"-"`
}

// QuickIssueInput is a complete sale: lines plus payment, issued in one step.
type QuickIssueInput struct {
	LocationID     uuid.UUID
	Items          []LineInput
	Payment        PaymentInput
	Buyer          *BuyerInput
	DiscountAmount decimal.Decimal
	IdempotencyKey string
}

// IssueResult is the outcome of an issuance path. Replayed is true when the
// idempotency key matched an earlier request and nothing was changed.
type IssueResult struct {
	Receipt  *entity.Receipt `json:"receipt"`
	Replayed bool            `json:"replayed"`
}

// Issue finalizes a DRAFT receipt.
func (s *IssuanceService) Issue(ctx context.Context, receiptID, actor uuid.UUID, in IssueInput) (*IssueResult, error) {
	if _, err := s.tenant(ctx); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	hash := fingerprint(struct {
		ReceiptID uuid.UUID
		Input     IssueInput
	}{receiptID, in})

	if key != "" {
		if res, err := s.replay(ctx, key, hash, "issue"); res != nil || err != nil {
			return res, err
		}
	}

	var receipt *entity.Receipt
	var replayed *IssueResult
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		receipt, err = s.store.Receipts.GetForUpdate(ctx, receiptID)
		if err != nil {
			return fmt.Errorf("failed to load receipt: %w", err)
		}
		if receipt == nil {
			return apperror.NewNotFoundError("Receipt")
		}
		if !receipt.IsDraft() {
			// A concurrent call with the same key may have issued it while we waited on the lock.
			if key != "" && receipt.IdempotencyKey != nil && *receipt.IdempotencyKey == key {
				replayed, err = s.replayOf(receipt, hash, "issue")
				return err
			}
			return apperror.NewInvalidStateError("receipt %s is %s, only DRAFT receipts can be issued", receipt.Number, receipt.Status)
		}
		session, err := s.lockOpenSession(ctx, receipt.SessionID)
		if err != nil {
			return err
		}

		if err := s.finalize(ctx, receipt, session, actor, in, key, hash); err != nil {
			return err
		}
		if err := s.store.Receipts.Update(ctx, receipt); err != nil {
			return fmt.Errorf("failed to issue receipt: %w", err)
		}
		return s.afterIssue(ctx, receipt, session, actor)
	})
	if err != nil {
		return s.recoverDuplicate(ctx, err, key, hash, "issue")
	}
	if replayed != nil {
		return replayed, nil
	}

	s.issued(ctx, receipt)
	return &IssueResult{Receipt: receipt}, nil
}

// QuickIssue creates, fills and issues a receipt in one transaction. The
// idempotency key is checked before any stock moves, and the receipt header
// carrying the key is inserted before any line so a concurrent duplicate
// blocks on the key instead of on inventory.
func (s *IssuanceService) QuickIssue(ctx context.Context, actor uuid.UUID, in QuickIssueInput) (*IssueResult, error) {
	return s.quickIssue(ctx, actor, in, quickIssueFingerprint(in), "quick_issue")
}

func (s *IssuanceService) quickIssue(ctx context.Context, actor uuid.UUID, in QuickIssueInput, hash, operation string) (*IssueResult, error) {
	if _, err := s.tenant(ctx); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if res, err := s.replay(ctx, key, hash, operation); res != nil || err != nil {
			return res, err
		}
	}
	if len(in.Items) == 0 {
		return nil, apperror.NewFieldError("items", "at least one item is required")
	}

	session, err := s.sessions.EnsureSession(ctx, in.LocationID, actor)
	if err != nil {
		return nil, err
	}

	var receipt *entity.Receipt
	err = s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.lockOpenSession(ctx, session.ID)
		if err != nil {
			return err
		}
		receipt, err = s.newReceipt(ctx, session, enum.ReceiptTypeSale, actor)
		if err != nil {
			return err
		}
		if key != "" {
			receipt.IdempotencyKey = &key
			receipt.RequestHash = hash
		}
		if err := s.store.Receipts.Create(ctx, receipt); err != nil {
			return fmt.Errorf("failed to create receipt: %w", err)
		}

		for i, line := range in.Items {
			if _, err := s.receipts.addLine(ctx, receipt, line); err != nil {
				return lineError(i, err)
			}
		}

		issue := IssueInput{Payment: in.Payment, Buyer: in.Buyer, DiscountAmount: in.DiscountAmount}
		if err := s.finalize(ctx, receipt, session, actor, issue, key, hash); err != nil {
			return err
		}
		if err := s.store.Receipts.Update(ctx, receipt); err != nil {
			return fmt.Errorf("failed to issue receipt: %w", err)
		}
		return s.afterIssue(ctx, receipt, session, actor)
	})
	if err != nil {
		return s.recoverDuplicate(ctx, err, key, hash, operation)
	}

	s.issued(ctx, receipt)
	return &IssueResult{Receipt: receipt}, nil
}

// finalize validates and applies discount, buyer and payment, marks sold phones
// and flips the receipt to ISSUED. Nothing is persisted for the receipt itself.
func (s *IssuanceService) finalize(ctx context.Context, receipt *entity.Receipt, session *entity.CashRegisterSession, actor uuid.UUID, in IssueInput, key, hash string) error {
	if len(receipt.Items) == 0 {
		return apperror.NewFieldError("items", "a receipt needs at least one line to be issued")
	}

	receipt.DiscountAmount = decimal.Zero
	receipt.Recalculate()
	discount := entity.RoundMoney(in.DiscountAmount)
	if discount.IsNegative() || discount.GreaterThan(receipt.Subtotal) {
		return apperror.NewFieldError("discount_amount", "must be between 0 and the subtotal")
	}
	receipt.DiscountAmount = discount
	receipt.Recalculate()

	if err := applyBuyer(receipt, in.Buyer); err != nil {
		return err
	}
	if err := applyPayment(receipt, in.Payment); err != nil {
		return err
	}

	for _, item := range receipt.Items {
		if item.Kind != enum.ItemKindPhone || item.PhoneListingID == nil {
			continue
		}
		ok, err := s.store.Catalog.MarkPhoneSold(ctx, *item.PhoneListingID)
		if err != nil {
			return fmt.Errorf("failed to mark phone listing sold: %w", err)
		}
		if !ok {
			return apperror.NewInvalidStateError("phone listing %s is already sold", *item.PhoneListingID)
		}
	}

	now := s.cal.now()
	receipt.Status = enum.ReceiptStatusIssued
	receipt.IssuedAt = &now
	receipt.IssuedBy = actorPtr(actor)
	if key != "" {
		receipt.IdempotencyKey = &key
		receipt.RequestHash = hash
	}
	if session.FiscalMode {
		receipt.FiscalStatus = fiscalPending
	}
	return nil
}

// afterIssue refreshes the session totals and writes the audit entry.
func (s *IssuanceService) afterIssue(ctx context.Context, receipt *entity.Receipt, session *entity.CashRegisterSession, actor uuid.UUID) error {
	if _, err := s.reports.refresh(ctx, session); err != nil {
		return err
	}
	return s.audit(ctx, receipt.TenantID, actor, entity.AuditReceiptIssued, "receipt", receipt.ID, map[string]interface{}{
		"number":         receipt.Number,
		"total":          receipt.TotalAmount.StringFixed(2),
		"payment_method": receipt.PaymentMethod.String(),
	})
}

func (s *IssuanceService) issued(ctx context.Context, receipt *entity.Receipt) {
	metrics.ReceiptsIssued.WithLabelValues(receipt.Type.String()).Inc()
	s.publish(ctx, event.ReceiptIssued, receipt.TenantID, receipt.ID)
}

// replay returns the receipt already stored under key, or nil when the key is unused.
func (b *base) replay(ctx context.Context, key, hash, operation string) (*IssueResult, error) {
	existing, err := b.store.Receipts.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	return b.replayOf(existing, hash, operation)
}

// replayOf answers a repeated request with the receipt stored under its key.
func (b *base) replayOf(existing *entity.Receipt, hash, operation string) (*IssueResult, error) {
	if existing.RequestHash != "" && existing.RequestHash != hash {
		return nil, apperror.NewConflictError("Idempotency key was already used for a different request")
	}
	metrics.IdempotentReplays.WithLabelValues(operation).Inc()
	return &IssueResult{Receipt: existing, Replayed: true}, nil
}

// recoverDuplicate turns a lost race on the idempotency key into a replay.
// The loser fails either on the unique key or on state the winner already
// changed (a refunded original, an exhausted line), so any failure of a keyed
// request is checked against the key before it is reported.
func (b *base) recoverDuplicate(ctx context.Context, err error, key, hash, operation string) (*IssueResult, error) {
	if key == "" {
		return nil, err
	}
	res, rerr := b.replay(ctx, key, hash, operation)
	if rerr != nil {
		if errors.Is(err, repository.ErrDuplicateKey) || apperror.IsKind(rerr, apperror.KindConflict) {
			return nil, rerr
		}
		return nil, err
	}
	if res == nil {
		return nil, err
	}
	return res, nil
}

func lineError(index int, err error) error {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Kind != apperror.KindValidation {
		return err
	}
	fields := make([]apperror.FieldError, len(appErr.Errors))
	for i, fe := range appErr.Errors {
		fields[i] = apperror.FieldError{Field: fmt.Sprintf("items[%d].%s", index, fe.Field), Message: fe.Message}
	}
	return apperror.NewValidationError(fields)
}

type lineFingerprint struct {
	Kind        string
	Ref         entity.ItemRef
	Quantity    int
	UnitPrice   *decimal.Decimal
	DiscountPct string
}

func quickIssueFingerprint(in QuickIssueInput) string {
	lines := make([]lineFingerprint, len(in.Items))
	for i, it := range in.Items {
		kind := ""
		if it.Ref != nil {
			kind = it.Ref.Kind().String()
		}
		lines[i] = lineFingerprint{Kind: kind, Ref: it.Ref, Quantity: it.Quantity, UnitPrice: it.UnitPrice, DiscountPct: it.DiscountPct.String()}
	}
	return fingerprint(struct {
		LocationID uuid.UUID
		Lines      []lineFingerprint
		Payment    PaymentInput
		Buyer      *BuyerInput
		Discount   string
	}{in.LocationID, lines, in.Payment, in.Buyer, in.DiscountAmount.String()})
}
