package reports

import (
	"context"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/models"
	"github.com/shopspring/decimal"
)

const topCustomerLimit = 10

type CategoryBreakdown struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
	Cogs     decimal.Decimal `json:"cogs"`
	Profit   decimal.Decimal `json:"profit"`
	Quantity decimal.Decimal `json:"quantity"`
	Count    int             `json:"count"`
	Margin   string          `json:"margin"`
}

type PaymentMethodBreakdown struct {
	Method  string          `json:"method"`
	Amount  decimal.Decimal `json:"amount"`
	Percent string          `json:"percent"`
}

type ExpenseBreakdown struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Percent  string          `json:"percent"`
}

type CustomerBreakdown struct {
	CustomerName string          `json:"customer_name"`
	Revenue      decimal.Decimal `json:"revenue"`
	Paid         decimal.Decimal `json:"paid"`
	Balance      decimal.Decimal `json:"balance"`
	Count        int             `json:"count"`
}

type DailyTrendPoint struct {
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

type ProfitAndLossResponse struct {
	Revenue       decimal.Decimal `json:"revenue"`
	Collected     decimal.Decimal `json:"collected"`
	Cogs          decimal.Decimal `json:"cogs"`
	GrossProfit   decimal.Decimal `json:"gross_profit"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetProfit     decimal.Decimal `json:"net_profit"`
	Refunds       decimal.Decimal `json:"refunds"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	OverdueDebt   decimal.Decimal `json:"overdue_debt"`
	UpcomingDebt  decimal.Decimal `json:"upcoming_debt"`

	CollectionRate string `json:"collection_rate"`
	GrossMargin    string `json:"gross_margin"`
	NetMargin      string `json:"net_margin"`

	SaleCount     int             `json:"sale_count"`
	CustomerCount int             `json:"customer_count"`
	UnitsSold     decimal.Decimal `json:"units_sold"`

	StatusCounts map[models.PaymentStatus]int `json:"status_counts"`

	CategoryBreakdown      []*CategoryBreakdown      `json:"category_breakdown"`
	PaymentMethodBreakdown []*PaymentMethodBreakdown `json:"payment_method_breakdown"`
	ExpenseBreakdown       []*ExpenseBreakdown       `json:"expense_breakdown"`
	TopCustomers           []*CustomerBreakdown      `json:"top_customers"`
	DailyTrend             []*DailyTrendPoint        `json:"daily_trend"`

	CurrencyLabel string    `json:"currency_label"`
	ComputedAt    time.Time `json:"computed_at"`
}

// ComputeProfitAndLoss aggregates raw ledger snapshots into the P&L metrics
// object. It is pure: no I/O, no wall clock (the evaluation instant `now` is
// an explicit input so overdue classification is deterministic under test),
// and the inputs are never mutated. Outstanding debt sums the sales' stored
// remaining balances; it does not recompute them from total and paid.
//
// Empty inputs yield a fully zeroed response with empty breakdowns. The only
// failure mode is a payment status outside the closed enumeration.
func ComputeProfitAndLoss(
	sales []*models.Sale,
	expenses []*models.Expense,
	saleReturns []*models.SaleReturn,
	settings *models.BusinessSettings,
	now time.Time,
) (*ProfitAndLossResponse, error) {
	if err := validateSaleStatuses(sales); err != nil {
		return nil, err
	}

	loc := reportLocation(settings)

	response := &ProfitAndLossResponse{
		Revenue:       decimal.Zero,
		Collected:     decimal.Zero,
		Cogs:          decimal.Zero,
		GrossProfit:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		NetProfit:     decimal.Zero,
		Refunds:       decimal.Zero,
		Outstanding:   decimal.Zero,
		OverdueDebt:   decimal.Zero,
		UpcomingDebt:  decimal.Zero,
		UnitsSold:     decimal.Zero,
		StatusCounts: map[models.PaymentStatus]int{
			models.PaymentStatusPaid:    0,
			models.PaymentStatusPartial: 0,
			models.PaymentStatusUnpaid:  0,
			models.PaymentStatusOverdue: 0,
		},
		CategoryBreakdown:      []*CategoryBreakdown{},
		PaymentMethodBreakdown: []*PaymentMethodBreakdown{},
		ExpenseBreakdown:       []*ExpenseBreakdown{},
		TopCustomers:           []*CustomerBreakdown{},
		DailyTrend:             []*DailyTrendPoint{},
		ComputedAt:             now,
	}
	if settings != nil {
		response.CurrencyLabel = settings.CurrencyLabel
	}

	// Grouped accumulators keyed by label, with order slices so a stable sort
	// keeps encounter order for equal amounts.
	categoryGroups := make(map[string]*CategoryBreakdown)
	var categoryOrder []string
	methodGroups := make(map[string]*PaymentMethodBreakdown)
	var methodOrder []string
	customerGroups := make(map[string]*CustomerBreakdown)
	var customerOrder []string
	dayGroups := make(map[string]*DailyTrendPoint)
	var dayOrder []string

	for _, sale := range sales {
		response.Revenue = response.Revenue.Add(sale.TotalAmount)
		response.Collected = response.Collected.Add(sale.PaidAmount)
		response.Cogs = response.Cogs.Add(saleCOGS(sale))
		response.Outstanding = response.Outstanding.Add(sale.RemainingBalance)
		response.UnitsSold = response.UnitsSold.Add(sale.Quantity)
		response.SaleCount++
		response.StatusCounts[sale.PaymentStatus]++

		if sale.RemainingBalance.IsPositive() {
			if isOverdue(sale, now) {
				response.OverdueDebt = response.OverdueDebt.Add(sale.RemainingBalance)
			} else if sale.PaymentStatus != models.PaymentStatusPaid {
				response.UpcomingDebt = response.UpcomingDebt.Add(sale.RemainingBalance)
			}
		}

		category := orDefault(sale.Category, FallbackCategory)
		if _, ok := categoryGroups[category]; !ok {
			categoryGroups[category] = &CategoryBreakdown{
				Category: category,
				Revenue:  decimal.Zero,
				Cogs:     decimal.Zero,
				Profit:   decimal.Zero,
				Quantity: decimal.Zero,
			}
			categoryOrder = append(categoryOrder, category)
		}
		group := categoryGroups[category]
		group.Revenue = group.Revenue.Add(sale.TotalAmount)
		group.Cogs = group.Cogs.Add(saleCOGS(sale))
		group.Quantity = group.Quantity.Add(sale.Quantity)
		group.Count++

		method := orDefault(sale.PaymentMethod, FallbackPaymentMethod)
		if _, ok := methodGroups[method]; !ok {
			methodGroups[method] = &PaymentMethodBreakdown{
				Method: method,
				Amount: decimal.Zero,
			}
			methodOrder = append(methodOrder, method)
		}
		methodGroups[method].Amount = methodGroups[method].Amount.Add(sale.PaidAmount)

		customer := orDefault(sale.CustomerName, FallbackCustomerName)
		if _, ok := customerGroups[customer]; !ok {
			customerGroups[customer] = &CustomerBreakdown{
				CustomerName: customer,
				Revenue:      decimal.Zero,
				Paid:         decimal.Zero,
				Balance:      decimal.Zero,
			}
			customerOrder = append(customerOrder, customer)
		}
		top := customerGroups[customer]
		top.Revenue = top.Revenue.Add(sale.TotalAmount)
		top.Paid = top.Paid.Add(sale.PaidAmount)
		top.Balance = top.Balance.Add(sale.RemainingBalance)
		top.Count++

		day := models.DayKey(sale.SaleDate, loc)
		if _, ok := dayGroups[day]; !ok {
			dayGroups[day] = &DailyTrendPoint{
				Day:     day,
				Revenue: decimal.Zero,
				Profit:  decimal.Zero,
			}
			dayOrder = append(dayOrder, day)
		}
		dayGroups[day].Revenue = dayGroups[day].Revenue.Add(sale.TotalAmount)
		dayGroups[day].Profit = dayGroups[day].Profit.Add(saleProfit(sale))
	}

	for _, expense := range expenses {
		response.TotalExpenses = response.TotalExpenses.Add(expense.Amount)
	}
	for _, saleReturn := range saleReturns {
		response.Refunds = response.Refunds.Add(saleReturn.RefundAmount)
	}

	response.GrossProfit = response.Revenue.Sub(response.Cogs)
	response.NetProfit = response.GrossProfit.Sub(response.TotalExpenses)
	response.CollectionRate = ratePercent(response.Collected, response.Revenue)
	response.GrossMargin = ratePercent(response.GrossProfit, response.Revenue)
	response.NetMargin = ratePercent(response.NetProfit, response.Revenue)
	response.CustomerCount = len(customerOrder)

	for _, category := range categoryOrder {
		group := categoryGroups[category]
		group.Profit = group.Revenue.Sub(group.Cogs)
		group.Margin = ratePercent(group.Profit, group.Revenue)
		response.CategoryBreakdown = append(response.CategoryBreakdown, group)
	}
	sort.SliceStable(response.CategoryBreakdown, func(i, j int) bool {
		return response.CategoryBreakdown[i].Revenue.GreaterThan(response.CategoryBreakdown[j].Revenue)
	})

	for _, method := range methodOrder {
		group := methodGroups[method]
		group.Percent = ratePercent(group.Amount, response.Collected)
		response.PaymentMethodBreakdown = append(response.PaymentMethodBreakdown, group)
	}
	sort.SliceStable(response.PaymentMethodBreakdown, func(i, j int) bool {
		return response.PaymentMethodBreakdown[i].Amount.GreaterThan(response.PaymentMethodBreakdown[j].Amount)
	})

	expenseGroups := make(map[string]*ExpenseBreakdown)
	var expenseOrder []string
	for _, expense := range expenses {
		category := orDefault(expense.Category, FallbackCategory)
		if _, ok := expenseGroups[category]; !ok {
			expenseGroups[category] = &ExpenseBreakdown{
				Category: category,
				Amount:   decimal.Zero,
			}
			expenseOrder = append(expenseOrder, category)
		}
		expenseGroups[category].Amount = expenseGroups[category].Amount.Add(expense.Amount)
	}
	for _, category := range expenseOrder {
		group := expenseGroups[category]
		group.Percent = ratePercent(group.Amount, response.TotalExpenses)
		response.ExpenseBreakdown = append(response.ExpenseBreakdown, group)
	}
	sort.SliceStable(response.ExpenseBreakdown, func(i, j int) bool {
		return response.ExpenseBreakdown[i].Amount.GreaterThan(response.ExpenseBreakdown[j].Amount)
	})

	for _, customer := range customerOrder {
		response.TopCustomers = append(response.TopCustomers, customerGroups[customer])
	}
	sort.SliceStable(response.TopCustomers, func(i, j int) bool {
		return response.TopCustomers[i].Revenue.GreaterThan(response.TopCustomers[j].Revenue)
	})
	if len(response.TopCustomers) > topCustomerLimit {
		response.TopCustomers = response.TopCustomers[:topCustomerLimit]
	}

	// ISO day keys sort lexicographically in chronological order.
	sort.Strings(dayOrder)
	for _, day := range dayOrder {
		response.DailyTrend = append(response.DailyTrend, dayGroups[day])
	}

	return response, nil
}

// GetProfitAndLossReport loads the date-ranged snapshots from the store and
// aggregates them. Date bounds are widened to whole days in the business
// timezone. Cached responses are served verbatim when the report cache is on.
func GetProfitAndLossReport(ctx context.Context, fromDate, toDate time.Time) (*ProfitAndLossResponse, error) {
	started := time.Now()

	settings, err := models.GetBusinessSettings(ctx)
	if err != nil {
		return nil, err
	}

	from := fromDate
	to := toDate
	if !from.IsZero() {
		from = models.StartOfDayUTC(from, settings.Timezone)
	}
	if !to.IsZero() {
		to = models.EndOfDayUTC(to, settings.Timezone)
	}

	if reportCacheEnabled() {
		key := profitAndLossCacheKey(from, to)
		var cached ProfitAndLossResponse
		found, cerr := cacheGet(key, &cached)
		if cerr == nil && found {
			return &cached, nil
		}
	}

	sales, err := models.ListSales(ctx, from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := models.ListExpenses(ctx, from, to)
	if err != nil {
		return nil, err
	}
	saleReturns, err := models.ListSaleReturns(ctx, from, to)
	if err != nil {
		return nil, err
	}

	response, err := ComputeProfitAndLoss(sales, expenses, saleReturns, settings, time.Now())
	if err != nil {
		return nil, err
	}

	if reportCacheEnabled() {
		_ = cacheSet(profitAndLossCacheKey(from, to), response, reportCacheTTL())
	}
	logSlowReport(ctx, "profit_and_loss", started, map[string]any{
		"sales":    len(sales),
		"expenses": len(expenses),
		"returns":  len(saleReturns),
	})

	return response, nil
}
