package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/sangkips/fixdesk-api/internal/domain/repository"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
	"github.com/sangkips/fixdesk-api/pkg/breaker"
	"github.com/sangkips/fixdesk-api/pkg/printer"
)

// PrinterService handles receipt slip formatting and thermal printing.
type PrinterService struct {
	printer     printer.Printer
	breaker     *breaker.Breaker
	receipts    repository.ReceiptRepository
	locations   repository.LocationRepository
	printerType string
	width       int
	zone        *time.Location
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	br *breaker.Breaker,
	receipts repository.ReceiptRepository,
	locations repository.LocationRepository,
	printerType string,
	width int,
	zone *time.Location,
) *PrinterService {
	return &PrinterService{
		printer:     p,
		breaker:     br,
		receipts:    receipts,
		locations:   locations,
		printerType: printerType,
		width:       width,
		zone:        zone,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
	Breaker    string `json:"breaker"`
}

// Enabled reports whether a physical printer is configured.
func (s *PrinterService) Enabled() bool {
	return s.printerType != "none" && s.printerType != ""
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus(ctx context.Context) *PrinterStatus {
	return &PrinterStatus{
		Configured: s.Enabled(),
		Connected:  s.printer.Ready(ctx),
		Type:       s.printerType,
		Breaker:    s.breaker.State().String(),
	}
}

// BuildSlip composes the printable view of a non-draft receipt.
func (s *PrinterService) BuildSlip(ctx context.Context, receiptID uuid.UUID) (*entity.Slip, error) {
	receipt, err := s.receipts.GetByID(ctx, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	if receipt.IsDraft() {
		return nil, apperror.NewInvalidStateError("receipt %s is still a draft", receipt.Number)
	}

	location, err := s.locations.GetByID(ctx, receipt.LocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load location: %w", err)
	}
	originalNumber := ""
	if receipt.OriginalReceiptID != nil {
		original, err := s.receipts.GetByID(ctx, *receipt.OriginalReceiptID)
		if err != nil {
			return nil, fmt.Errorf("failed to load original receipt: %w", err)
		}
		if original != nil {
			originalNumber = original.Number
		}
	}
	return entity.NewSlip(receipt, location, originalNumber, s.zone), nil
}

// PrintReceipt prints a receipt slip. The slip is returned even when printing
// fails so callers can show it on screen.
func (s *PrinterService) PrintReceipt(ctx context.Context, receiptID uuid.UUID) (*entity.Slip, error) {
	slip, err := s.BuildSlip(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	data := RenderSlip(slip, s.width)
	err = s.breaker.Execute(func() error {
		return s.printer.Print(ctx, data)
	})
	if err != nil {
		log.Warn().Err(err).Str("receipt", slip.Number).Msg("printer error")
		return slip, fmt.Errorf("failed to print receipt: %w", err)
	}
	return slip, nil
}

// RenderSlip converts a slip into ESC/POS bytes.
func RenderSlip(slip *entity.Slip, width int) []byte {
	doc := printer.NewDocument(width)

	doc.Align(printer.Center).Bold(true).Size(printer.Double).
		Line(slip.Header.StoreName).
		Size(printer.Normal).Bold(false)
	if slip.Header.Address != "" {
		doc.Line(slip.Header.Address)
	}
	if slip.Header.Phone != "" {
		doc.Line(slip.Header.Phone)
	}
	if slip.Header.TaxID != "" {
		doc.Line("Tax ID: " + slip.Header.TaxID)
	}
	if slip.Type == enum.ReceiptTypeRefund {
		doc.Bold(true).Line("REFUND").Bold(false)
	}
	doc.Align(printer.Left).Rule('-')

	doc.Columns("Receipt:", slip.Number).
		Columns("Date:", slip.IssuedAt)
	if slip.OriginalNumber != "" {
		doc.Columns("Original:", slip.OriginalNumber)
	}
	if slip.BuyerName != "" {
		doc.Line("Buyer: " + slip.BuyerName)
	}
	if slip.BuyerTaxID != "" {
		doc.Columns("Buyer tax ID:", slip.BuyerTaxID)
	}
	doc.Rule('-')

	for _, line := range slip.Lines {
		doc.Columns(fmt.Sprintf("%dx %s", line.Quantity, line.Description), line.Total.StringFixed(2))
		if line.Quantity > 1 || line.Quantity < -1 {
			doc.Line("  @ " + line.UnitPrice.StringFixed(2))
		}
		if !line.DiscountPct.IsZero() {
			doc.Line("  -" + line.DiscountPct.String() + "%")
		}
	}
	doc.Rule('-')

	doc.Columns("Subtotal:", slip.Subtotal.StringFixed(2))
	if !slip.Discount.IsZero() {
		doc.Columns("Discount:", slip.Discount.Neg().StringFixed(2))
	}
	doc.Bold(true).Columns("TOTAL:", slip.Total.StringFixed(2)).Bold(false)

	if !slip.Cash.IsZero() {
		doc.Columns("Cash:", slip.Cash.StringFixed(2))
	}
	if !slip.Card.IsZero() {
		doc.Columns("Card:", slip.Card.StringFixed(2))
	}
	if !slip.Transfer.IsZero() {
		doc.Columns("Transfer:", slip.Transfer.StringFixed(2))
	}
	if slip.CashReceived.GreaterThan(slip.Cash) {
		doc.Columns("Received:", slip.CashReceived.StringFixed(2)).
			Columns("Change:", slip.Change.StringFixed(2))
	}

	doc.Rule('-').
		Align(printer.Center).
		Feed(1).
		Line("Thank you for your business!").
		Align(printer.Left).
		Feed(3).
		Cut()

	return doc.Bytes()
}
