package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDailyReport(t *testing.T) {
	report := &entity.DailyReport{
		BusinessDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		TotalRevenue: decimal.NewFromInt(2500),
		CashTotal:    decimal.NewFromInt(2500),
		OpeningCash:  decimal.NewFromInt(1000),
		ExpectedCash: decimal.NewFromInt(3500),
		ClosingCash:  decimal.NewFromInt(3500),
		ReceiptCount: 1,
		IsFinal:      true,
		GeneratedAt:  time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC),
	}

	out, err := RenderDailyReport(report, &entity.Location{Name: "Main Street"}, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
