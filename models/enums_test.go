package models_test

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/models"
	"github.com/shopspring/decimal"
)

func TestDerivePaymentStatus(t *testing.T) {
	cases := []struct {
		name  string
		total string
		paid  string
		want  models.PaymentStatus
	}{
		{"fully paid", "100", "100", models.PaymentStatusPaid},
		{"overpaid", "100", "120", models.PaymentStatusPaid},
		{"partial", "100", "40", models.PaymentStatusPartial},
		{"unpaid", "100", "0", models.PaymentStatusUnpaid},
		{"zero total", "0", "0", models.PaymentStatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.DerivePaymentStatus(
				decimal.RequireFromString(tc.total),
				decimal.RequireFromString(tc.paid))
			if got != tc.want {
				t.Errorf("DerivePaymentStatus(%s, %s) = %s, want %s", tc.total, tc.paid, got, tc.want)
			}
		})
	}
}

func TestRemainingBalanceClampsAtZero(t *testing.T) {
	got := models.RemainingBalance(decimal.RequireFromString("100"), decimal.RequireFromString("120"))
	if !got.IsZero() {
		t.Errorf("RemainingBalance(100, 120) = %s, want 0", got)
	}
	got = models.RemainingBalance(decimal.RequireFromString("100"), decimal.RequireFromString("40"))
	if !got.Equal(decimal.RequireFromString("60")) {
		t.Errorf("RemainingBalance(100, 40) = %s, want 60", got)
	}
}

func TestParsePaymentStatus(t *testing.T) {
	for _, valid := range []string{"PAID", "PARTIAL", "UNPAID", "OVERDUE"} {
		if _, err := models.ParsePaymentStatus(valid); err != nil {
			t.Errorf("ParsePaymentStatus(%q): %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "paid", "REFUNDED", "DONE"} {
		if _, err := models.ParsePaymentStatus(invalid); err == nil {
			t.Errorf("ParsePaymentStatus(%q): expected error", invalid)
		}
	}
}

func TestDayKeyAcrossTimezones(t *testing.T) {
	ts := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	if got := models.DayKey(ts, time.UTC); got != "2026-03-01" {
		t.Errorf("DayKey UTC = %q, want 2026-03-01", got)
	}
	yangon := models.LocationFor("Asia/Yangon")
	if got := models.DayKey(ts, yangon); got != "2026-03-02" {
		t.Errorf("DayKey Yangon = %q, want 2026-03-02", got)
	}
}

func TestLocationForFallsBackToUTC(t *testing.T) {
	if loc := models.LocationFor(""); loc != time.UTC {
		t.Errorf("LocationFor(\"\") = %v, want UTC", loc)
	}
	if loc := models.LocationFor("Not/AZone"); loc != time.UTC {
		t.Errorf("LocationFor bad zone = %v, want UTC", loc)
	}
}

func TestStartAndEndOfDayUTC(t *testing.T) {
	ts := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	start := models.StartOfDayUTC(ts, "UTC")
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Errorf("StartOfDayUTC = %s, want %s", start, want)
	}

	// In Yangon (UTC+6:30) the timestamp is already 2 March; the start of that
	// local day is 17:30 UTC on 1 March.
	start = models.StartOfDayUTC(ts, "Asia/Yangon")
	want = time.Date(2026, 3, 1, 17, 30, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Errorf("StartOfDayUTC Yangon = %s, want %s", start, want)
	}

	end := models.EndOfDayUTC(ts, "UTC")
	if end.Before(ts) || end.Day() != 1 {
		t.Errorf("EndOfDayUTC = %s, want end of 2026-03-01 UTC", end)
	}
}
