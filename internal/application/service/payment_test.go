package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/sangkips/fixdesk-api/internal/domain/enum"
)

func TestApplyPayment(t *testing.T) {
	receipt := func() *entity.Receipt {
		return &entity.Receipt{TotalAmount: dec("2500")}
	}

	t.Run("cash defaults to exact", func(t *testing.T) {
		r := receipt()
		require.NoError(t, applyPayment(r, PaymentInput{Method: enum.PaymentMethodCash}))
		assertMoney(t, "2500", r.CashAmount)
		assertMoney(t, "2500", r.CashReceived)
		assertMoney(t, "0", r.ChangeDue)
	})

	t.Run("cash short", func(t *testing.T) {
		err := applyPayment(receipt(), PaymentInput{Method: enum.PaymentMethodCash, CashReceived: decPtr("2499.99")})
		assertField(t, err, "cash_received")
	})

	t.Run("card", func(t *testing.T) {
		r := receipt()
		require.NoError(t, applyPayment(r, PaymentInput{Method: enum.PaymentMethodCard, CardAmount: dec("1")}))
		assertMoney(t, "2500", r.CardAmount)
		assertMoney(t, "0", r.CashAmount)
		assert.Equal(t, enum.PaymentMethodCard, r.PaymentMethod)
	})

	t.Run("transfer", func(t *testing.T) {
		r := receipt()
		require.NoError(t, applyPayment(r, PaymentInput{Method: enum.PaymentMethodTransfer}))
		assertMoney(t, "2500", r.TransferAmount)
	})

	t.Run("mixed", func(t *testing.T) {
		r := receipt()
		require.NoError(t, applyPayment(r, PaymentInput{
			Method:         enum.PaymentMethodMixed,
			CardAmount:     dec("1000"),
			TransferAmount: dec("500"),
			CashReceived:   decPtr("1200"),
		}))
		assertMoney(t, "1000", r.CashAmount)
		assertMoney(t, "1000", r.CardAmount)
		assertMoney(t, "500", r.TransferAmount)
		assertMoney(t, "200", r.ChangeDue)
	})

	t.Run("mixed fully on card", func(t *testing.T) {
		r := receipt()
		require.NoError(t, applyPayment(r, PaymentInput{Method: enum.PaymentMethodMixed, CardAmount: dec("2500")}))
		assertMoney(t, "0", r.CashAmount)
		assertMoney(t, "0", r.ChangeDue)
	})

	t.Run("mixed over total", func(t *testing.T) {
		err := applyPayment(receipt(), PaymentInput{Method: enum.PaymentMethodMixed, CardAmount: dec("2000"), TransferAmount: dec("600")})
		assertField(t, err, "card_amount")
	})

	t.Run("mixed negative", func(t *testing.T) {
		err := applyPayment(receipt(), PaymentInput{Method: enum.PaymentMethodMixed, TransferAmount: dec("-1")})
		assertField(t, err, "transfer_amount")
	})

	t.Run("unknown method", func(t *testing.T) {
		err := applyPayment(receipt(), PaymentInput{Method: enum.PaymentMethod(9)})
		assertField(t, err, "payment_method")
	})
}

func TestNormalizeTaxID(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1234567890", "1234567890", true},
		{"123-456-78-90", "1234567890", true},
		{" 123 456 7890 ", "1234567890", true},
		{"123456789", "", false},
		{"12345678901", "", false},
		{"12345678ab", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizeTaxID(tc.in)
		if !tc.ok {
			assertField(t, err, "buyer.tax_id")
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestApplyBuyer(t *testing.T) {
	r := &entity.Receipt{}
	require.NoError(t, applyBuyer(r, nil))
	assert.Empty(t, r.BuyerName)

	require.NoError(t, applyBuyer(r, &BuyerInput{Name: "Walk-in"}))
	assert.Equal(t, "Walk-in", r.BuyerName)
	assert.Empty(t, r.BuyerTaxID)
}
