package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is a closed enumeration. Any other stored value is a
// data-integrity error surfaced to the caller, never silently tallied.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusOverdue PaymentStatus = "OVERDUE"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentStatusPaid, PaymentStatusPartial, PaymentStatusUnpaid, PaymentStatusOverdue:
		return PaymentStatus(s), nil
	}
	return "", fmt.Errorf("invalid payment status %q", s)
}

func (s PaymentStatus) Valid() bool {
	_, err := ParsePaymentStatus(string(s))
	return err == nil
}

// DerivePaymentStatus derives the persisted status from total and paid.
// OVERDUE is a display state derived against a clock at read time; it is
// never produced here.
func DerivePaymentStatus(total, paid decimal.Decimal) PaymentStatus {
	if total.Sub(paid).LessThanOrEqual(decimal.Zero) {
		return PaymentStatusPaid
	}
	if paid.GreaterThan(decimal.Zero) {
		return PaymentStatusPartial
	}
	return PaymentStatusUnpaid
}

// RemainingBalance is max(0, total - paid).
func RemainingBalance(total, paid decimal.Decimal) decimal.Decimal {
	balance := total.Sub(paid)
	if balance.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return balance
}

// LocationFor loads the business timezone, falling back to UTC.
// All day bucketing goes through a single reference timezone so stored
// timestamps and the evaluation clock classify days consistently.
func LocationFor(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DayKey buckets a timestamp into its calendar day in the given timezone.
// ISO day strings sort lexicographically in chronological order.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// StartOfDayUTC converts the start of t's calendar day in the given timezone
// to UTC, for date-ranged queries against UTC-stored timestamps.
func StartOfDayUTC(t time.Time, timezone string) time.Time {
	loc := LocationFor(timezone)
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).In(time.UTC)
}

// EndOfDayUTC converts the end of t's calendar day in the given timezone to UTC.
func EndOfDayUTC(t time.Time, timezone string) time.Time {
	loc := LocationFor(timezone)
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, loc).In(time.UTC)
}
