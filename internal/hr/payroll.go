package hr

import (
	"time"

	"github.com/shopspring/decimal"
)

var half = decimal.RequireFromString("0.5")

// WorkingDays counts weekdays (Monday through Friday) from start through end
// inclusive. A reversed range counts zero days.
func WorkingDays(start, end time.Time) int {
	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days
}

// MonthRange returns the first and last day of a calendar month, the default
// pay period.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// AttendanceSummary counts each status for one employee over a pay period.
type AttendanceSummary struct {
	Present int
	Late    int
	Absent  int
	HalfDay int
}

// PayBreakdown is the result of the attendance pay calculation.
type PayBreakdown struct {
	WorkingDays int
	DailyRate   decimal.Decimal
	Total       decimal.Decimal
}

// CalculatePay computes attendance-based pay for the pay period from start
// through end. The daily rate is the period salary divided by the period's
// working days; present days earn the full rate and late days half of it.
// Absent days earn nothing. A period without working days pays zero.
func CalculatePay(salary decimal.Decimal, start, end time.Time, summary AttendanceSummary) PayBreakdown {
	days := WorkingDays(start, end)
	breakdown := PayBreakdown{
		WorkingDays: days,
		DailyRate:   decimal.Zero,
		Total:       decimal.Zero,
	}
	if days == 0 {
		return breakdown
	}
	breakdown.DailyRate = salary.Div(decimal.NewFromInt(int64(days))).Round(2)
	presentPay := breakdown.DailyRate.Mul(decimal.NewFromInt(int64(summary.Present)))
	latePay := breakdown.DailyRate.Mul(half).Mul(decimal.NewFromInt(int64(summary.Late))).Round(2)
	breakdown.Total = presentPay.Add(latePay)
	return breakdown
}
