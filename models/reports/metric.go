package reports

import (
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/models"
	"github.com/shopspring/decimal"
)

// Shared pure arithmetic between the P&L report and the dashboard report.
// The two aggregators are computed independently (the dashboard may refresh
// from a partial snapshot without waiting for the full report) but must not
// drift on formulas, so the formulas live here under stable names.

// Fallback labels for missing categorical fields. Aggregation never fails on
// sparse records; it groups them under these labels instead.
const (
	FallbackCategory      = "Uncategorised"
	FallbackCustomerName  = "Walk-in"
	FallbackPaymentMethod = "Cash"
)

var oneHundred = decimal.NewFromInt(100)

func saleCOGS(sale *models.Sale) decimal.Decimal {
	return sale.Quantity.Mul(sale.CostPrice)
}

// saleProfit is the per-sale profit used by trends and today's KPIs:
// total charged less quantity x unit cost.
func saleProfit(sale *models.Sale) decimal.Decimal {
	return sale.TotalAmount.Sub(saleCOGS(sale))
}

func sumRevenue(sales []*models.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.TotalAmount)
	}
	return total
}

func sumCollected(sales []*models.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(sale.PaidAmount)
	}
	return total
}

func sumCOGS(sales []*models.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, sale := range sales {
		total = total.Add(saleCOGS(sale))
	}
	return total
}

func sumExpenses(expenses []*models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, expense := range expenses {
		total = total.Add(expense.Amount)
	}
	return total
}

// ratePercent renders part/whole as a percentage with exactly one decimal
// place, "0.0" when the denominator is not positive.
func ratePercent(part, whole decimal.Decimal) string {
	if !whole.IsPositive() {
		return "0.0"
	}
	return part.Div(whole).Mul(oneHundred).StringFixed(1)
}

// isOverdue reports whether a sale's due date has passed at the evaluation
// instant. A sale with no due date is never overdue regardless of status;
// a fully paid sale is never overdue regardless of date.
func isOverdue(sale *models.Sale, now time.Time) bool {
	if sale.PaymentStatus == models.PaymentStatusPaid {
		return false
	}
	if sale.DueDate == nil {
		return false
	}
	return sale.DueDate.Before(now)
}

// validateSaleStatuses rejects snapshots carrying statuses outside the closed
// enumeration. Bad numeric data degrades to zero, but an unknown status is a
// data-integrity problem the caller must hear about.
func validateSaleStatuses(sales []*models.Sale) error {
	for _, sale := range sales {
		if !sale.PaymentStatus.Valid() {
			return fmt.Errorf("sale %d: invalid payment status %q", sale.ID, sale.PaymentStatus)
		}
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func reportLocation(settings *models.BusinessSettings) *time.Location {
	if settings == nil {
		return time.UTC
	}
	return models.LocationFor(settings.Timezone)
}
