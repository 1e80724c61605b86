package reports_test

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/models"
	"bitbucket.org/mmdatafocus/ledger_backend/models/reports"
	"github.com/shopspring/decimal"
)

func TestComputeDashboardReport_TodayFilter(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	sales := []*models.Sale{
		paidSale("1000", "2", "200", "A", time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)),
		paidSale("500", "1", "100", "A", time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)),
	}

	resp, err := reports.ComputeDashboardReport(sales, nil, nil, utcSettings(), now)
	if err != nil {
		t.Fatalf("ComputeDashboardReport: %v", err)
	}

	if !resp.TodayRevenue.Equal(d("1000")) {
		t.Errorf("today revenue = %s, want 1000", resp.TodayRevenue)
	}
	// 1000 - 2x200 cost.
	if !resp.TodayProfit.Equal(d("600")) {
		t.Errorf("today profit = %s, want 600", resp.TodayProfit)
	}
	if !resp.TotalRevenue.Equal(d("1500")) {
		t.Errorf("total revenue = %s, want 1500", resp.TotalRevenue)
	}
	if !resp.TotalCollected.Equal(d("1500")) {
		t.Errorf("total collected = %s, want 1500", resp.TotalCollected)
	}
}

func TestComputeDashboardReport_TodayFollowsBusinessTimezone(t *testing.T) {
	// 20:00 UTC on 9 Feb is already 10 Feb in Yangon (UTC+6:30).
	settings := utcSettings()
	settings.Timezone = "Asia/Yangon"
	now := time.Date(2026, 2, 10, 2, 0, 0, 0, time.UTC)
	sale := paidSale("100", "1", "10", "A", time.Date(2026, 2, 9, 20, 0, 0, 0, time.UTC))

	resp, err := reports.ComputeDashboardReport([]*models.Sale{sale}, nil, nil, settings, now)
	if err != nil {
		t.Fatalf("ComputeDashboardReport: %v", err)
	}
	if !resp.TodayRevenue.Equal(d("100")) {
		t.Errorf("today revenue = %s, want 100 (sale falls on today in business timezone)", resp.TodayRevenue)
	}
}

func TestComputeDashboardReport_OverdueCountNeedsOpenBalance(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	saleDate := now.Add(-72 * time.Hour)

	overdue := &models.Sale{
		ProductName:      "widget",
		TotalAmount:      d("100"),
		RemainingBalance: d("100"),
		PaymentStatus:    models.PaymentStatusUnpaid,
		DueDate:          &past,
		SaleDate:         saleDate,
	}
	// Past due date but nothing left to collect.
	settled := &models.Sale{
		ProductName:      "widget",
		TotalAmount:      d("100"),
		PaidAmount:       d("100"),
		RemainingBalance: decimal.Zero,
		PaymentStatus:    models.PaymentStatusPaid,
		DueDate:          &past,
		SaleDate:         saleDate,
	}
	noDue := &models.Sale{
		ProductName:      "widget",
		TotalAmount:      d("100"),
		RemainingBalance: d("100"),
		PaymentStatus:    models.PaymentStatusUnpaid,
		SaleDate:         saleDate,
	}

	resp, err := reports.ComputeDashboardReport(
		[]*models.Sale{overdue, settled, noDue}, nil, nil, utcSettings(), now)
	if err != nil {
		t.Fatalf("ComputeDashboardReport: %v", err)
	}
	if resp.OverdueCount != 1 {
		t.Errorf("overdue count = %d, want 1", resp.OverdueCount)
	}
	if !resp.TotalBalance.Equal(d("200")) {
		t.Errorf("total balance = %s, want 200", resp.TotalBalance)
	}
}

func TestComputeDashboardReport_StockCounters(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	products := []*models.Product{
		{Name: "at-level", StockQuantity: d("5"), ReorderLevel: 5},
		{Name: "below", StockQuantity: d("2"), ReorderLevel: 5},
		{Name: "healthy", StockQuantity: d("50"), ReorderLevel: 5},
		{Name: "empty", StockQuantity: decimal.Zero, ReorderLevel: 5},
		// Misconfigured reorder level falls back to the default of 5.
		{Name: "misconfigured", StockQuantity: d("4"), ReorderLevel: 0},
	}

	resp, err := reports.ComputeDashboardReport(nil, nil, products, utcSettings(), now)
	if err != nil {
		t.Fatalf("ComputeDashboardReport: %v", err)
	}
	// at-level, below, empty, misconfigured.
	if resp.LowStockCount != 4 {
		t.Errorf("low stock count = %d, want 4", resp.LowStockCount)
	}
	if resp.OutOfStockCount != 1 {
		t.Errorf("out of stock count = %d, want 1", resp.OutOfStockCount)
	}
}

func TestComputeDashboardReport_Margins(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	sales := []*models.Sale{
		paidSale("1000", "2", "200", "A", now.Add(-time.Hour)),
	}
	expenses := []*models.Expense{
		{Category: "Rent", Amount: d("150"), ExpenseDate: now.Add(-time.Hour)},
	}

	resp, err := reports.ComputeDashboardReport(sales, expenses, nil, utcSettings(), now)
	if err != nil {
		t.Fatalf("ComputeDashboardReport: %v", err)
	}
	if !resp.GrossProfit.Equal(d("600")) {
		t.Errorf("gross profit = %s, want 600", resp.GrossProfit)
	}
	if !resp.NetProfit.Equal(d("450")) {
		t.Errorf("net profit = %s, want 450", resp.NetProfit)
	}
	if resp.GrossMargin != "60.0" {
		t.Errorf("gross margin = %q, want 60.0", resp.GrossMargin)
	}
	if resp.NetMargin != "45.0" {
		t.Errorf("net margin = %q, want 45.0", resp.NetMargin)
	}
}

func TestComputeDashboardReport_EmptyInputs(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	resp, err := reports.ComputeDashboardReport(nil, nil, nil, utcSettings(), now)
	if err != nil {
		t.Fatalf("ComputeDashboardReport: %v", err)
	}
	if !resp.TotalRevenue.IsZero() || !resp.TodayRevenue.IsZero() || !resp.TotalBalance.IsZero() {
		t.Error("expected zero totals for empty inputs")
	}
	if resp.GrossMargin != "0.0" || resp.NetMargin != "0.0" {
		t.Errorf("margins = %q / %q, want 0.0 / 0.0", resp.GrossMargin, resp.NetMargin)
	}
	if resp.OverdueCount != 0 || resp.LowStockCount != 0 || resp.OutOfStockCount != 0 {
		t.Error("expected zero counters for empty inputs")
	}
}

func TestComputeDashboardReport_UnknownStatusRejected(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	sale := paidSale("100", "1", "10", "A", now)
	sale.PaymentStatus = models.PaymentStatus("VOID")

	if _, err := reports.ComputeDashboardReport([]*models.Sale{sale}, nil, nil, utcSettings(), now); err == nil {
		t.Fatal("expected error for unknown payment status, got nil")
	}
}
