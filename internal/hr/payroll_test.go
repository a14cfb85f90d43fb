package hr

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func feb2026() (time.Time, time.Time) {
	return MonthRange(2026, time.February)
}

func TestWorkingDays(t *testing.T) {
	// February 2026 starts on a Sunday and has 28 days.
	start, end := feb2026()
	require.Equal(t, 20, WorkingDays(start, end))

	// March 2026 has 22 weekdays.
	start, end = MonthRange(2026, time.March)
	require.Equal(t, 22, WorkingDays(start, end))

	// Leap February 2024.
	start, end = MonthRange(2024, time.February)
	require.Equal(t, 21, WorkingDays(start, end))
}

func TestWorkingDaysPartialPeriod(t *testing.T) {
	// Mon Mar 2 through Sun Mar 15, 2026: two full weeks, ten weekdays.
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 10, WorkingDays(start, end))

	// Single weekday and single weekend day.
	require.Equal(t, 1, WorkingDays(start, start))
	sat := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 0, WorkingDays(sat, sat))

	// Reversed range counts nothing.
	require.Equal(t, 0, WorkingDays(end, start))
}

func TestMonthRange(t *testing.T) {
	start, end := MonthRange(2026, time.February)
	require.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), end)

	_, end = MonthRange(2024, time.February)
	require.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), end)
}

func TestCalculatePayAttendance(t *testing.T) {
	// 2200 over 20 working days is 110 a day; 18 present plus one late
	// half-day rate comes to 2035.
	start, end := feb2026()
	breakdown := CalculatePay(money("2200.00"), start, end, AttendanceSummary{
		Present: 18,
		Late:    1,
		Absent:  1,
	})
	require.Equal(t, 20, breakdown.WorkingDays)
	require.True(t, breakdown.DailyRate.Equal(money("110.00")), "got %s", breakdown.DailyRate)
	require.True(t, breakdown.Total.Equal(money("2035.00")), "got %s", breakdown.Total)
}

func TestCalculatePayFullAttendance(t *testing.T) {
	start, end := feb2026()
	breakdown := CalculatePay(money("2200.00"), start, end, AttendanceSummary{Present: 20})
	require.True(t, breakdown.Total.Equal(money("2200.00")))
}

func TestCalculatePayNoAttendance(t *testing.T) {
	start, end := feb2026()
	breakdown := CalculatePay(money("2200.00"), start, end, AttendanceSummary{Absent: 20})
	require.True(t, breakdown.Total.IsZero())
}

func TestCalculatePayArbitraryPeriod(t *testing.T) {
	// A two-week period with ten working days: 1000 over 10 days is 100
	// a day, 8 present plus 2 late half-days pays 900.
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	breakdown := CalculatePay(money("1000.00"), start, end, AttendanceSummary{
		Present: 8,
		Late:    2,
	})
	require.Equal(t, 10, breakdown.WorkingDays)
	require.True(t, breakdown.DailyRate.Equal(money("100.00")))
	require.True(t, breakdown.Total.Equal(money("900.00")), "got %s", breakdown.Total)
}

func TestCalculatePayEmptyPeriod(t *testing.T) {
	// A weekend-only period has no working days and pays zero.
	sat := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	sun := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	breakdown := CalculatePay(money("2200.00"), sat, sun, AttendanceSummary{})
	require.Zero(t, breakdown.WorkingDays)
	require.True(t, breakdown.DailyRate.IsZero())
	require.True(t, breakdown.Total.IsZero())
}

func TestCalculatePayRoundsDailyRate(t *testing.T) {
	// 3000 over 22 days is 136.3636..., rounded to 136.36.
	start, end := MonthRange(2026, time.March)
	breakdown := CalculatePay(money("3000.00"), start, end, AttendanceSummary{Present: 22})
	require.True(t, breakdown.DailyRate.Equal(money("136.36")))
	require.True(t, breakdown.Total.Equal(money("2999.92")), "got %s", breakdown.Total)
}

func TestCalculatePayLateOnly(t *testing.T) {
	start, end := feb2026()
	breakdown := CalculatePay(money("2200.00"), start, end, AttendanceSummary{Late: 20})
	require.True(t, breakdown.Total.Equal(money("1100.00")))
}
