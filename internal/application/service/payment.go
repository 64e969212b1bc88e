package service

import (
	"strings"

	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
	"github.com/sangkips/fixdesk-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// PaymentInput is how the buyer settles a receipt.
// CashReceived defaults to the cash share of the total when nil.
type PaymentInput struct {
	Method         enum.PaymentMethod `json:"method"`
	CashReceived   *decimal.Decimal   `json:"cash_received,omitempty"`
	CardAmount     decimal.Decimal    `json:"card_amount"`
	TransferAmount decimal.Decimal    `json:"transfer_amount"`
}

// BuyerInput identifies a business buyer.
type BuyerInput struct {
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
}

// applyPayment splits the receipt total across payment methods and computes change.
func applyPayment(r *entity.Receipt, p PaymentInput) error {
	total := r.TotalAmount
	r.PaymentMethod = p.Method
	r.CashAmount, r.CardAmount, r.TransferAmount = decimal.Zero, decimal.Zero, decimal.Zero
	r.CashReceived, r.ChangeDue = decimal.Zero, decimal.Zero

	switch p.Method {
	case enum.PaymentMethodCash:
		return settleCash(r, total, p.CashReceived)
	case enum.PaymentMethodCard:
		r.CardAmount = total
	case enum.PaymentMethodTransfer:
		r.TransferAmount = total
	case enum.PaymentMethodMixed:
		if p.CardAmount.IsNegative() {
			return apperror.NewFieldError("card_amount", "must not be negative")
		}
		if p.TransferAmount.IsNegative() {
			return apperror.NewFieldError("transfer_amount", "must not be negative")
		}
		cash := total.Sub(p.CardAmount).Sub(p.TransferAmount)
		if cash.IsNegative() {
			return apperror.NewFieldError("card_amount", "card and transfer amounts exceed the total")
		}
		r.CardAmount = entity.RoundMoney(p.CardAmount)
		r.TransferAmount = entity.RoundMoney(p.TransferAmount)
		return settleCash(r, entity.RoundMoney(cash), p.CashReceived)
	default:
		return apperror.NewFieldError("payment_method", "unsupported payment method")
	}
	return nil
}

func settleCash(r *entity.Receipt, due decimal.Decimal, received *decimal.Decimal) error {
	paid := due
	if received != nil {
		paid = entity.RoundMoney(*received)
	}
	if paid.LessThan(due) {
		return apperror.NewFieldError("cash_received", "cash received is less than the amount due")
	}
	r.CashAmount = due
	r.CashReceived = paid
	r.ChangeDue = paid.Sub(due)
	return nil
}

// NormalizeTaxID strips spaces and dashes and requires exactly ten digits.
func NormalizeTaxID(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, raw)
	if len(cleaned) != 10 {
		return "", apperror.NewFieldError("buyer.tax_id", "must contain exactly 10 digits")
	}
	for _, c := range cleaned {
		if c < '0' || c > '9' {
			return "", apperror.NewFieldError("buyer.tax_id", "must contain exactly 10 digits")
		}
	}
	return cleaned, nil
}

// applyBuyer validates and records B2B buyer details.
func applyBuyer(r *entity.Receipt, buyer *BuyerInput) error {
	if buyer == nil {
		return nil
	}
	name := strings.TrimSpace(buyer.Name)
	if strings.TrimSpace(buyer.TaxID) != "" {
		taxID, err := NormalizeTaxID(buyer.TaxID)
		if err != nil {
			return err
		}
		if name == "" {
			return apperror.NewFieldError("buyer.name", "is required with a tax id")
		}
		r.BuyerTaxID = taxID
	}
	r.BuyerName = name
	return nil
}
