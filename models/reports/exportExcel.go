package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter is a row of a report sheet. The spreadsheet writer consumes
// the computed response verbatim; it never recomputes derived metrics.
type ExcelExporter interface {
	GetCellValues() []interface{}
}

func (g *CategoryBreakdown) GetCellValues() []interface{} {
	return []interface{}{
		g.Category,
		g.Revenue.InexactFloat64(),
		g.Cogs.InexactFloat64(),
		g.Profit.InexactFloat64(),
		g.Quantity.InexactFloat64(),
		g.Count,
		g.Margin,
	}
}

func (g *PaymentMethodBreakdown) GetCellValues() []interface{} {
	return []interface{}{g.Method, g.Amount.InexactFloat64(), g.Percent}
}

func (g *ExpenseBreakdown) GetCellValues() []interface{} {
	return []interface{}{g.Category, g.Amount.InexactFloat64(), g.Percent}
}

func (c *CustomerBreakdown) GetCellValues() []interface{} {
	return []interface{}{
		c.CustomerName,
		c.Revenue.InexactFloat64(),
		c.Paid.InexactFloat64(),
		c.Balance.InexactFloat64(),
		c.Count,
	}
}

func (p *DailyTrendPoint) GetCellValues() []interface{} {
	return []interface{}{p.Day, p.Revenue.InexactFloat64(), p.Profit.InexactFloat64()}
}

// ExportProfitAndLossExcel renders the P&L response as an xlsx workbook:
// one summary sheet plus one sheet per breakdown.
func ExportProfitAndLossExcel(response *ProfitAndLossResponse) (*bytes.Buffer, error) {
	f := excelize.NewFile()

	if err := writeSummarySheet(f, response); err != nil {
		return nil, err
	}

	categoryRows := make([]ExcelExporter, 0, len(response.CategoryBreakdown))
	for _, g := range response.CategoryBreakdown {
		categoryRows = append(categoryRows, g)
	}
	if err := writeSheet(f, "Categories", categoryRows,
		"Category", "Revenue", "COGS", "Profit", "Quantity", "Sales", "Margin %"); err != nil {
		return nil, err
	}

	methodRows := make([]ExcelExporter, 0, len(response.PaymentMethodBreakdown))
	for _, g := range response.PaymentMethodBreakdown {
		methodRows = append(methodRows, g)
	}
	if err := writeSheet(f, "Payment Methods", methodRows,
		"Method", "Amount", "% of Collected"); err != nil {
		return nil, err
	}

	expenseRows := make([]ExcelExporter, 0, len(response.ExpenseBreakdown))
	for _, g := range response.ExpenseBreakdown {
		expenseRows = append(expenseRows, g)
	}
	if err := writeSheet(f, "Expenses", expenseRows,
		"Category", "Amount", "% of Expenses"); err != nil {
		return nil, err
	}

	customerRows := make([]ExcelExporter, 0, len(response.TopCustomers))
	for _, c := range response.TopCustomers {
		customerRows = append(customerRows, c)
	}
	if err := writeSheet(f, "Top Customers", customerRows,
		"Customer", "Revenue", "Paid", "Balance", "Sales"); err != nil {
		return nil, err
	}

	trendRows := make([]ExcelExporter, 0, len(response.DailyTrend))
	for _, p := range response.DailyTrend {
		trendRows = append(trendRows, p)
	}
	if err := writeSheet(f, "Daily Trend", trendRows,
		"Day", "Revenue", "Profit"); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}

func writeSummarySheet(f *excelize.File, response *ProfitAndLossResponse) error {
	sheetName := "Summary"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Currency", response.CurrencyLabel},
		{"Revenue", response.Revenue.InexactFloat64()},
		{"Collected", response.Collected.InexactFloat64()},
		{"COGS", response.Cogs.InexactFloat64()},
		{"Gross Profit", response.GrossProfit.InexactFloat64()},
		{"Total Expenses", response.TotalExpenses.InexactFloat64()},
		{"Net Profit", response.NetProfit.InexactFloat64()},
		{"Refunds", response.Refunds.InexactFloat64()},
		{"Outstanding", response.Outstanding.InexactFloat64()},
		{"Overdue Debt", response.OverdueDebt.InexactFloat64()},
		{"Upcoming Debt", response.UpcomingDebt.InexactFloat64()},
		{"Collection Rate %", response.CollectionRate},
		{"Gross Margin %", response.GrossMargin},
		{"Net Margin %", response.NetMargin},
		{"Sales", response.SaleCount},
		{"Customers", response.CustomerCount},
		{"Units Sold", response.UnitsSold.InexactFloat64()},
		{"Computed At", response.ComputedAt.Format("2006-01-02 15:04:05")},
	}
	for i, row := range rows {
		col := 'A'
		for _, value := range row {
			cell := fmt.Sprintf("%c%d", col, i+1)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
			col++
		}
	}
	return nil
}

func writeSheet(f *excelize.File, sheetName string, data []ExcelExporter, headings ...string) error {
	_, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	// Add headers
	col := 'A'
	for _, h := range headings {
		if err := f.SetCellValue(sheetName, fmt.Sprintf("%c1", col), h); err != nil {
			return err
		}
		col++
	}

	// Add data
	rowNo := 2
	for _, d := range data {
		col := 'A'
		for _, value := range d.GetCellValues() {
			if err := f.SetCellValue(sheetName, fmt.Sprintf("%c%d", col, rowNo), value); err != nil {
				return err
			}
			col++
		}
		rowNo++
	}
	return nil
}
