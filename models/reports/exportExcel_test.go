package reports_test

import (
	"bytes"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/models"
	"bitbucket.org/mmdatafocus/ledger_backend/models/reports"
	"github.com/xuri/excelize/v2"
)

func TestExportProfitAndLossExcel(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	sales := []*models.Sale{
		paidSale("1000", "2", "200", "Drinks", now.Add(-time.Hour)),
	}
	expenses := []*models.Expense{
		{Category: "Rent", Amount: d("150"), ExpenseDate: now.Add(-time.Hour)},
	}

	resp, err := reports.ComputeProfitAndLoss(sales, expenses, nil, utcSettings(), now)
	if err != nil {
		t.Fatalf("ComputeProfitAndLoss: %v", err)
	}

	buf, err := reports.ExportProfitAndLossExcel(resp)
	if err != nil {
		t.Fatalf("ExportProfitAndLossExcel: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty workbook buffer")
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Summary", "Categories", "Payment Methods", "Expenses", "Top Customers", "Daily Trend"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Errorf("missing sheet %q", sheet)
		}
	}

	category, err := f.GetCellValue("Categories", "A2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if category != "Drinks" {
		t.Errorf("Categories!A2 = %q, want Drinks", category)
	}
	margin, err := f.GetCellValue("Summary", "B14")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if margin != "60.0" {
		t.Errorf("Summary!B14 (gross margin) = %q, want 60.0", margin)
	}
}
