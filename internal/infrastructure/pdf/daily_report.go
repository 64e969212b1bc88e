package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/sangkips/fixdesk-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RenderDailyReport lays out a Z report on one A4 page.
func RenderDailyReport(report *entity.DailyReport, location *entity.Location, zone *time.Location) ([]byte, error) {
	if zone == nil {
		zone = time.UTC
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	storeName := "Daily report"
	if location != nil {
		storeName = location.Name
	}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, storeName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Z report "+report.BusinessDate.Format("2006-01-02"), "", 1, "C", false, 0, "")
	status := "PRELIMINARY"
	if report.IsFinal {
		status = "FINAL"
	}
	pdf.CellFormat(contentW, 6, fmt.Sprintf("%s, generated %s", status, report.GeneratedAt.In(zone).Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	labelW := contentW * 0.65
	valueW := contentW - labelW
	section := func(title string) {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW, 7, title, "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}
	money := func(label string, v decimal.Decimal) {
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, v.StringFixed(2), "", 1, "R", false, 0, "")
	}
	count := func(label string, n int) {
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, fmt.Sprintf("%d", n), "", 1, "R", false, 0, "")
	}

	section("Sales")
	money("Revenue", report.TotalRevenue)
	money("Cost", report.TotalCost)
	money("Profit", report.TotalProfit)
	money("Discounts", report.TotalDiscount)
	money("Refunds", report.RefundTotal)
	count("Sale receipts", report.ReceiptCount)
	count("Refund receipts", report.RefundCount)
	count("Voided receipts", report.VoidedCount)

	section("Payments")
	money("Cash", report.CashTotal)
	money("Card", report.CardTotal)
	money("Transfer", report.TransferTotal)

	section("Cash drawer")
	money("Opening cash", report.OpeningCash)
	money("Expected cash", report.ExpectedCash)
	money("Counted cash", report.ClosingCash)
	pdf.SetFont("Helvetica", "B", 10)
	money("Variance", report.CashVariance)
	pdf.SetFont("Helvetica", "", 10)

	section("Units by category")
	count("Phones", report.PhoneUnits)
	count("Spare parts", report.SparePartUnits)
	count("Services", report.ServiceUnits)
	count("Goods", report.GoodsUnits)
	count("Repairs", report.TicketUnits)
	count("Other", report.CustomUnits)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render daily report: %w", err)
	}
	return buf.Bytes(), nil
}
