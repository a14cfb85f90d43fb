package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// BuildBalanceSheet classifies life-to-date balances as of a date. Revenue
// and expense activity rolls up into a synthetic current earnings line under
// equity so the statement balances without a formal year-end close.
func BuildBalanceSheet(activity []AccountActivity, asOf time.Time) BalanceSheet {
	bs := BalanceSheet{
		AsOf:             asOf,
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
		TotalEquity:      decimal.Zero,
	}
	earnings := decimal.Zero
	for _, a := range activity {
		balance := a.Balance()
		if balance.IsZero() {
			continue
		}
		line := StatementLine{Code: a.Code, Name: a.Name, Amount: balance}
		switch a.Type {
		case ledger.AccountTypeAsset:
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets = bs.TotalAssets.Add(balance)
		case ledger.AccountTypeLiability:
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(balance)
		case ledger.AccountTypeEquity:
			bs.Equity = append(bs.Equity, line)
			bs.TotalEquity = bs.TotalEquity.Add(balance)
		case ledger.AccountTypeRevenue:
			earnings = earnings.Add(balance)
		case ledger.AccountTypeExpense:
			earnings = earnings.Sub(balance)
		}
	}
	if !earnings.IsZero() {
		bs.Equity = append(bs.Equity, StatementLine{Name: "Current Period Earnings", Amount: earnings})
		bs.TotalEquity = bs.TotalEquity.Add(earnings)
	}
	bs.Balanced = bs.TotalAssets.Equal(bs.TotalLiabilities.Add(bs.TotalEquity))
	return bs
}
