package reports

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/models"
	"github.com/shopspring/decimal"
)

type DashboardResponse struct {
	TodayRevenue decimal.Decimal `json:"today_revenue"`
	TodayProfit  decimal.Decimal `json:"today_profit"`

	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	TotalBalance   decimal.Decimal `json:"total_balance"`

	OverdueCount    int `json:"overdue_count"`
	LowStockCount   int `json:"low_stock_count"`
	OutOfStockCount int `json:"out_of_stock_count"`

	GrossProfit decimal.Decimal `json:"gross_profit"`
	NetProfit   decimal.Decimal `json:"net_profit"`
	GrossMargin string          `json:"gross_margin"`
	NetMargin   string          `json:"net_margin"`

	CurrencyLabel string    `json:"currency_label"`
	ComputedAt    time.Time `json:"computed_at"`
}

// ComputeDashboardReport aggregates the dashboard KPIs from full snapshots.
// It is deliberately independent of ComputeProfitAndLoss: the dashboard may
// refresh at higher frequency from a partial snapshot, so nothing here feeds
// off the report's output. The formulas themselves come from the shared
// helpers in metric.go so the two call sites cannot drift.
//
// "Today" is the calendar day of `now` in the business timezone; sale
// timestamps are normalized into the same timezone before comparison.
func ComputeDashboardReport(
	sales []*models.Sale,
	expenses []*models.Expense,
	products []*models.Product,
	settings *models.BusinessSettings,
	now time.Time,
) (*DashboardResponse, error) {
	if err := validateSaleStatuses(sales); err != nil {
		return nil, err
	}

	loc := reportLocation(settings)
	today := models.DayKey(now, loc)

	response := &DashboardResponse{
		TodayRevenue:   decimal.Zero,
		TodayProfit:    decimal.Zero,
		TotalRevenue:   decimal.Zero,
		TotalCollected: decimal.Zero,
		TotalBalance:   decimal.Zero,
		GrossProfit:    decimal.Zero,
		NetProfit:      decimal.Zero,
		ComputedAt:     now,
	}
	if settings != nil {
		response.CurrencyLabel = settings.CurrencyLabel
	}

	for _, sale := range sales {
		response.TotalRevenue = response.TotalRevenue.Add(sale.TotalAmount)
		response.TotalCollected = response.TotalCollected.Add(sale.PaidAmount)
		response.TotalBalance = response.TotalBalance.Add(sale.RemainingBalance)

		if models.DayKey(sale.SaleDate, loc) == today {
			response.TodayRevenue = response.TodayRevenue.Add(sale.TotalAmount)
			response.TodayProfit = response.TodayProfit.Add(saleProfit(sale))
		}
		if sale.RemainingBalance.IsPositive() && isOverdue(sale, now) {
			response.OverdueCount++
		}
	}

	for _, product := range products {
		reorderLevel := product.ReorderLevel
		if reorderLevel <= 0 {
			reorderLevel = models.DefaultReorderLevel
		}
		if product.StockQuantity.LessThanOrEqual(decimal.NewFromInt(int64(reorderLevel))) {
			response.LowStockCount++
		}
		if product.StockQuantity.IsZero() {
			response.OutOfStockCount++
		}
	}

	cogs := sumCOGS(sales)
	totalExpenses := sumExpenses(expenses)
	response.GrossProfit = response.TotalRevenue.Sub(cogs)
	response.NetProfit = response.GrossProfit.Sub(totalExpenses)
	response.GrossMargin = ratePercent(response.GrossProfit, response.TotalRevenue)
	response.NetMargin = ratePercent(response.NetProfit, response.TotalRevenue)

	return response, nil
}

// GetDashboardReport loads full snapshots from the store and aggregates them.
func GetDashboardReport(ctx context.Context) (*DashboardResponse, error) {
	started := time.Now()

	settings, err := models.GetBusinessSettings(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := models.ListSales(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	expenses, err := models.ListExpenses(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	products, err := models.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	response, err := ComputeDashboardReport(sales, expenses, products, settings, time.Now())
	if err != nil {
		return nil, err
	}

	logSlowReport(ctx, "dashboard", started, map[string]any{
		"sales":    len(sales),
		"products": len(products),
	})

	return response, nil
}
