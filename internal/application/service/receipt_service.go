package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// ReceiptService builds draft receipts line by line.
type ReceiptService struct {
	*base
	ledger *StockLedger
}

// LineInput describes one line to add. UnitPrice overrides the catalog price
// and is required for custom lines.
type LineInput struct {
	Ref         entity.ItemRef
	Quantity    int
	UnitPrice   *decimal.Decimal
	DiscountPct decimal.Decimal
}

// CreateDraft starts a new DRAFT sale receipt in an open session.
func (s *ReceiptService) CreateDraft(ctx context.Context, sessionID, actor uuid.UUID) (*entity.Receipt, error) {
	if _, err := s.tenant(ctx); err != nil {
		return nil, err
	}

	var receipt *entity.Receipt
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.lockOpenSession(ctx, sessionID)
		if err != nil {
			return err
		}
		receipt, err = s.newReceipt(ctx, session, enum.ReceiptTypeSale, actor)
		if err != nil {
			return err
		}
		if err := s.store.Receipts.Create(ctx, receipt); err != nil {
			return fmt.Errorf("failed to create receipt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// AddItem resolves the line against its catalog, takes stock for stock-bearing
// kinds and appends the line to a DRAFT receipt.
func (s *ReceiptService) AddItem(ctx context.Context, receiptID uuid.UUID, in LineInput) (*entity.Receipt, *entity.ReceiptItem, error) {
	if _, err := s.tenant(ctx); err != nil {
		return nil, nil, err
	}

	var (
		receipt *entity.Receipt
		item    *entity.ReceiptItem
	)
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		receipt, err = s.lockDraft(ctx, receiptID)
		if err != nil {
			return err
		}
		item, err = s.addLine(ctx, receipt, in)
		if err != nil {
			return err
		}
		if err := s.store.Receipts.Update(ctx, receipt); err != nil {
			return fmt.Errorf("failed to update receipt totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return receipt, item, nil
}

// RemoveItem deletes a line from a DRAFT receipt and gives its stock back.
func (s *ReceiptService) RemoveItem(ctx context.Context, receiptID, itemID uuid.UUID) (*entity.Receipt, error) {
	if _, err := s.tenant(ctx); err != nil {
		return nil, err
	}

	var receipt *entity.Receipt
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		receipt, err = s.lockDraft(ctx, receiptID)
		if err != nil {
			return err
		}
		item, ok := receipt.ItemByID(itemID)
		if !ok {
			return apperror.NewNotFoundError("Receipt item")
		}
		if ref, ok := item.StockRef(); ok {
			if err := s.ledger.Restore(ctx, ref, item.Quantity); err != nil {
				return err
			}
		}
		if err := s.store.Receipts.DeleteItem(ctx, itemID); err != nil {
			return fmt.Errorf("failed to delete receipt item: %w", err)
		}

		kept := receipt.Items[:0]
		for _, it := range receipt.Items {
			if it.ID != itemID {
				kept = append(kept, it)
			}
		}
		receipt.Items = kept
		receipt.Recalculate()
		if err := s.store.Receipts.Update(ctx, receipt); err != nil {
			return fmt.Errorf("failed to update receipt totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// GetReceipt returns a receipt with its lines.
func (s *ReceiptService) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.store.Receipts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	return receipt, nil
}

// ListReceipts returns a page of receipts matching params.
func (s *ReceiptService) ListReceipts(ctx context.Context, params *repository.ReceiptFilterParams) ([]entity.Receipt, int64, error) {
	receipts, total, err := s.store.Receipts.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list receipts: %w", err)
	}
	return receipts, total, nil
}

func (s *ReceiptService) lockDraft(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.store.Receipts.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	if !receipt.IsDraft() {
		return nil, apperror.NewInvalidStateError("receipt %s is %s, lines can only change on a DRAFT receipt", receipt.Number, receipt.Status)
	}
	return receipt, nil
}

// addLine validates and persists one line on receipt, then recomputes its totals.
// Stock is taken before the line is written.
func (s *ReceiptService) addLine(ctx context.Context, receipt *entity.Receipt, in LineInput) (*entity.ReceiptItem, error) {
	if in.Ref == nil {
		return nil, apperror.NewFieldError("item", "is required")
	}
	if in.Quantity <= 0 {
		return nil, apperror.NewFieldError("quantity", "must be positive")
	}
	if in.DiscountPct.IsNegative() || in.DiscountPct.GreaterThan(hundredPct) {
		return nil, apperror.NewFieldError("discount_pct", "must be between 0 and 100")
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, apperror.NewFieldError("unit_price", "must not be negative")
	}

	item := &entity.ReceiptItem{
		TenantID:    receipt.TenantID,
		ReceiptID:   receipt.ID,
		Position:    receipt.NextPosition(),
		Quantity:    in.Quantity,
		DiscountPct: in.DiscountPct,
	}
	item.SetRef(in.Ref)
	if err := s.resolve(ctx, receipt, in, item); err != nil {
		return nil, err
	}
	if in.UnitPrice != nil {
		item.UnitPrice = entity.RoundMoney(*in.UnitPrice)
	}

	if ref, ok := item.StockRef(); ok {
		if err := s.ledger.Take(ctx, ref, item.Quantity); err != nil {
			return nil, err
		}
	}

	item.Compute()
	if err := s.store.Receipts.AddItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add receipt item: %w", err)
	}
	receipt.Items = append(receipt.Items, *item)
	receipt.Recalculate()
	return item, nil
}

var hundredPct = decimal.NewFromInt(100)

// resolve snapshots description and prices from the catalog the line refers to.
func (s *ReceiptService) resolve(ctx context.Context, receipt *entity.Receipt, in LineInput, item *entity.ReceiptItem) error {
	switch ref := in.Ref.(type) {
	case entity.PhoneRef:
		phone, err := s.store.Catalog.GetPhone(ctx, ref.ListingID)
		if err != nil {
			return fmt.Errorf("failed to load phone listing: %w", err)
		}
		if phone == nil {
			return apperror.NewNotFoundError(itemLabel(enum.ItemKindPhone))
		}
		if phone.IsSold {
			return apperror.NewInvalidStateError("phone listing %s is already sold", phone.ID)
		}
		if in.Quantity != 1 {
			return apperror.NewFieldError("quantity", "a phone listing is sold one unit at a time")
		}
		for _, existing := range receipt.Items {
			if existing.PhoneListingID != nil && *existing.PhoneListingID == phone.ID {
				return apperror.NewFieldError("item", "phone listing is already on this receipt")
			}
		}
		item.Description = phone.Label()
		item.UnitPrice = phone.SalePrice
		item.PurchasePrice = phone.PurchasePrice

	case entity.SparePartRef:
		part, err := s.store.Catalog.GetSparePart(ctx, ref.PartID)
		if err != nil {
			return fmt.Errorf("failed to load spare part: %w", err)
		}
		if part == nil {
			return apperror.NewNotFoundError(itemLabel(enum.ItemKindSparePart))
		}
		item.Description = part.Name
		item.UnitPrice = part.SalePrice
		item.PurchasePrice = part.PurchasePrice

	case entity.ServiceRef:
		svc, err := s.store.Catalog.GetService(ctx, ref.ServiceID)
		if err != nil {
			return fmt.Errorf("failed to load service: %w", err)
		}
		if svc == nil {
			return apperror.NewNotFoundError(itemLabel(enum.ItemKindService))
		}
		item.Description = svc.Name
		item.UnitPrice = svc.Price
		item.PurchasePrice = svc.Cost

	case entity.GoodsRef:
		goods, err := s.store.Catalog.GetGoods(ctx, ref.GoodsID)
		if err != nil {
			return fmt.Errorf("failed to load goods item: %w", err)
		}
		if goods == nil {
			return apperror.NewNotFoundError(itemLabel(enum.ItemKindGoods))
		}
		item.Description = goods.Name
		item.UnitPrice = goods.SalePrice
		item.PurchasePrice = goods.PurchasePrice

	case entity.TicketRef:
		ticket, err := s.store.Catalog.GetTicket(ctx, ref.TicketID)
		if err != nil {
			return fmt.Errorf("failed to load service ticket: %w", err)
		}
		if ticket == nil {
			return apperror.NewNotFoundError(itemLabel(enum.ItemKindTicket))
		}
		if in.Quantity != 1 {
			return apperror.NewFieldError("quantity", "a service ticket is billed once")
		}
		item.Description = ticket.Label()
		item.UnitPrice = ticket.FinalPrice
		item.PurchasePrice = ticket.PartsCost

	case entity.CustomRef:
		desc := strings.TrimSpace(ref.Description)
		if desc == "" {
			return apperror.NewFieldError("description", "is required for custom lines")
		}
		if in.UnitPrice == nil {
			return apperror.NewFieldError("unit_price", "is required for custom lines")
		}
		item.Description = desc
		item.PurchasePrice = decimal.Zero

	default:
		return apperror.NewFieldError("item_kind", "unsupported item kind")
	}
	return nil
}

func itemLabel(kind enum.ItemKind) string {
	switch kind {
	case enum.ItemKindPhone:
		return "Phone listing"
	case enum.ItemKindSparePart:
		return "Spare part"
	case enum.ItemKindService:
		return "Service"
	case enum.ItemKindGoods:
		return "Goods item"
	case enum.ItemKindTicket:
		return "Service ticket"
	}
	return "Item"
}
