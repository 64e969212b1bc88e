package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/fixdesk-api/internal/domain/enum"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeLine(t *testing.T) {
	item := ReceiptItem{Quantity: 3, UnitPrice: d("199.99"), PurchasePrice: d("120"), DiscountPct: d("10")}
	item.Compute()
	assert.Equal(t, "539.97", item.LineTotal.StringFixed(2))
	assert.Equal(t, "360.00", item.LineCost.StringFixed(2))
	assert.Equal(t, "179.97", item.LineProfit.StringFixed(2))

	refund := ReceiptItem{Quantity: -1, UnitPrice: d("1000"), PurchasePrice: d("600")}
	refund.Compute()
	assert.Equal(t, "-1000.00", refund.LineTotal.StringFixed(2))
	assert.Equal(t, "-400.00", refund.LineProfit.StringFixed(2))
}

func TestRecalculate(t *testing.T) {
	r := Receipt{
		DiscountAmount: d("250"),
		Items: []ReceiptItem{
			{ID: uuid.New(), Quantity: 2, UnitPrice: d("1000"), PurchasePrice: d("600"), Position: 1},
			{ID: uuid.New(), Quantity: 1, UnitPrice: d("500"), Position: 2},
		},
	}
	r.Recalculate()
	assert.Equal(t, "2500.00", r.Subtotal.StringFixed(2))
	assert.Equal(t, "2250.00", r.TotalAmount.StringFixed(2))
	assert.Equal(t, "1200.00", r.TotalCost.StringFixed(2))
	assert.Equal(t, "1050.00", r.TotalProfit.StringFixed(2))
	assert.Equal(t, 3, r.NextPosition())

	got, ok := r.ItemByID(r.Items[1].ID)
	require.True(t, ok)
	assert.Equal(t, 2, got.Position)
}

func TestItemRefRoundTrip(t *testing.T) {
	id := uuid.New()
	refs := []ItemRef{
		PhoneRef{ListingID: id},
		SparePartRef{PartID: id},
		ServiceRef{ServiceID: id},
		GoodsRef{GoodsID: id},
		TicketRef{TicketID: id},
		CustomRef{Description: "Screen protector fitting"},
	}
	for _, ref := range refs {
		var item ReceiptItem
		item.SetRef(SparePartRef{PartID: uuid.New()})
		item.SetRef(ref)
		assert.Equal(t, ref.Kind(), item.Kind)

		got, err := item.Ref()
		require.NoError(t, err)
		assert.Equal(t, ref, got)

		stock, tracked := item.StockRef()
		assert.Equal(t, ref.Kind().TracksStock(), tracked, ref.Kind().String())
		if tracked {
			assert.Equal(t, id, stock.ID)
			assert.Equal(t, ref.Kind(), stock.Kind)
		}
	}

	broken := ReceiptItem{Kind: enum.ItemKindGoods}
	_, err := broken.Ref()
	assert.Error(t, err)
}

func TestBusinessDate(t *testing.T) {
	warsaw := time.FixedZone("CET", 3600)

	late := time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), BusinessDate(late, warsaw))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), BusinessDate(late, nil))
	assert.True(t, SameDay(BusinessDate(late, nil), late))

	assert.Equal(t, "20240316-007", FormatReceiptNumber(BusinessDate(late, warsaw), 7))
	assert.Equal(t, "20240315-1234", FormatReceiptNumber(BusinessDate(late, nil), 1234))
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, "1000.01", RoundMoney(d("1000.005")).StringFixed(2))
	assert.Equal(t, "-1000.01", RoundMoney(d("-1000.005")).StringFixed(2))
}

func TestSummarize(t *testing.T) {
	receipts := []Receipt{
		{
			Type: enum.ReceiptTypeSale, Status: enum.ReceiptStatusIssued,
			TotalAmount: d("2500"), TotalCost: d("1200"), TotalProfit: d("1300"), CashAmount: d("2500"),
			Items: []ReceiptItem{{Kind: enum.ItemKindSparePart, Quantity: 2}, {Kind: enum.ItemKindService, Quantity: 1}},
		},
		{
			Type: enum.ReceiptTypeRefund, Status: enum.ReceiptStatusIssued,
			TotalAmount: d("-1000"), TotalCost: d("-600"), TotalProfit: d("-400"), CashAmount: d("-1000"),
			Items: []ReceiptItem{{Kind: enum.ItemKindSparePart, Quantity: -1}},
		},
		{Type: enum.ReceiptTypeSale, Status: enum.ReceiptStatusVoided, TotalAmount: d("80"), CardAmount: d("80")},
		{Type: enum.ReceiptTypeSale, Status: enum.ReceiptStatusDraft, TotalAmount: d("40")},
		{Type: enum.ReceiptTypeSale, Status: enum.ReceiptStatusRefunded, TotalAmount: d("300"), TransferAmount: d("300")},
	}

	tot := Summarize(receipts)
	assert.Equal(t, "1500.00", tot.Revenue.StringFixed(2))
	assert.Equal(t, "600.00", tot.Cost.StringFixed(2))
	assert.Equal(t, "900.00", tot.Profit.StringFixed(2))
	assert.Equal(t, "1500.00", tot.Cash.StringFixed(2))
	assert.True(t, tot.Card.IsZero())
	assert.True(t, tot.Transfer.IsZero())
	assert.Equal(t, "-1000.00", tot.RefundTotal.StringFixed(2))
	assert.Equal(t, 1, tot.ReceiptCount)
	assert.Equal(t, 1, tot.RefundCount)
	assert.Equal(t, 1, tot.VoidedCount)
	assert.Equal(t, 1, tot.Units[enum.ItemKindSparePart])
	assert.Equal(t, 1, tot.Units[enum.ItemKindService])

	empty := Summarize(nil)
	assert.True(t, empty.Revenue.IsZero())
	assert.Equal(t, 0, empty.ReceiptCount)
}
