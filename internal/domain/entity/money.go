package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// BusinessDate returns the calendar day of t in zone, as UTC midnight.
// Dates are stored in `date` columns so the zone must be applied before truncation.
func BusinessDate(t time.Time, zone *time.Location) time.Time {
	if zone == nil {
		zone = time.UTC
	}
	y, m, d := t.In(zone).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two business dates fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatReceiptNumber renders the tenant-scoped receipt number, e.g. 20240315-007.
func FormatReceiptNumber(businessDate time.Time, seq int) string {
	return fmt.Sprintf("%s-%03d", businessDate.Format("20060102"), seq)
}
