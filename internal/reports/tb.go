package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// BuildTrialBalance lists every account with posted activity through asOf.
// Column placement uses raw activity, not normal balance: an account whose
// debits exceed its credits lands in the debit column even when its normal
// balance is credit, so the two columns always foot to the same total.
func BuildTrialBalance(activity []AccountActivity, asOf time.Time) TrialBalance {
	tb := TrialBalance{
		AsOf:         asOf,
		Rows:         make([]TrialBalanceRow, 0, len(activity)),
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	for _, a := range activity {
		if a.Debits.IsZero() && a.Credits.IsZero() {
			continue
		}
		net := a.Debits.Sub(a.Credits)
		row := TrialBalanceRow{Code: a.Code, Name: a.Name, Type: a.Type}
		if net.IsNegative() {
			row.Credit = net.Neg()
		} else {
			row.Debit = net
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebits = tb.TotalDebits.Add(row.Debit)
		tb.TotalCredits = tb.TotalCredits.Add(row.Credit)
	}
	tb.Balanced = tb.TotalDebits.Equal(tb.TotalCredits)
	return tb
}
