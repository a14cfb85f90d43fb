package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// BuildIncomeStatement presents revenue against expenses for a window.
func BuildIncomeStatement(activity []AccountActivity, from, to time.Time) IncomeStatement {
	is := IncomeStatement{
		From:          from,
		To:            to,
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, a := range activity {
		balance := a.Balance()
		if balance.IsZero() {
			continue
		}
		line := StatementLine{Code: a.Code, Name: a.Name, Amount: balance}
		switch a.Type {
		case ledger.AccountTypeRevenue:
			is.Revenue = append(is.Revenue, line)
			is.TotalRevenue = is.TotalRevenue.Add(balance)
		case ledger.AccountTypeExpense:
			is.Expenses = append(is.Expenses, line)
			is.TotalExpenses = is.TotalExpenses.Add(balance)
		}
	}
	is.NetIncome = is.TotalRevenue.Sub(is.TotalExpenses)
	return is
}
