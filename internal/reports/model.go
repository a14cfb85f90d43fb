// Package reports builds financial statements from posted ledger activity.
// Builders are pure: they take pre-aggregated rows and produce statements,
// so every statement is testable without a database.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// AccountActivity aggregates posted debits and credits for one account over
// a reporting window.
type AccountActivity struct {
	AccountID     int64
	Code          string
	Name          string
	Type          ledger.AccountType
	NormalBalance ledger.NormalBalance
	Debits        decimal.Decimal
	Credits       decimal.Decimal
}

// Balance returns the account's signed balance, positive on its normal side.
func (a AccountActivity) Balance() decimal.Decimal {
	if a.NormalBalance == ledger.NormalBalanceCredit {
		return a.Credits.Sub(a.Debits)
	}
	return a.Debits.Sub(a.Credits)
}

// TrialBalanceRow is one account on the trial balance.
type TrialBalanceRow struct {
	Code   string             `json:"code"`
	Name   string             `json:"name"`
	Type   ledger.AccountType `json:"type"`
	Debit  decimal.Decimal    `json:"debit"`
	Credit decimal.Decimal    `json:"credit"`
}

// TrialBalance lists every account with activity and proves the books balance.
type TrialBalance struct {
	AsOf         time.Time         `json:"as_of"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  decimal.Decimal   `json:"total_debits"`
	TotalCredits decimal.Decimal   `json:"total_credits"`
	Balanced     bool              `json:"balanced"`
}

// StatementLine is one account line on a classified statement.
type StatementLine struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// BalanceSheet presents assets against liabilities and equity as of a date.
type BalanceSheet struct {
	AsOf             time.Time       `json:"as_of"`
	Assets           []StatementLine `json:"assets"`
	Liabilities      []StatementLine `json:"liabilities"`
	Equity           []StatementLine `json:"equity"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
	Balanced         bool            `json:"balanced"`
}

// IncomeStatement presents revenue against expenses over a window.
type IncomeStatement struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Revenue       []StatementLine `json:"revenue"`
	Expenses      []StatementLine `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
}

// CashMovement is a counter line of a posted entry that touched a cash
// account. Amount is positive for cash inflows.
type CashMovement struct {
	EntryID     int64
	Date        time.Time
	Memo        string
	CounterType ledger.AccountType
	CounterName string
	Amount      decimal.Decimal
}

// CashFlowSection groups movements under one activity heading.
type CashFlowSection struct {
	Lines []CashFlowLine  `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// CashFlowLine is one movement on the cash flow statement.
type CashFlowLine struct {
	Date   time.Time       `json:"date"`
	Memo   string          `json:"memo"`
	Amount decimal.Decimal `json:"amount"`
}

// CashFlowStatement presents cash movements by activity over a window.
type CashFlowStatement struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Operating     CashFlowSection `json:"operating"`
	Investing     CashFlowSection `json:"investing"`
	Financing     CashFlowSection `json:"financing"`
	NetChange     decimal.Decimal `json:"net_change"`
	BeginningCash decimal.Decimal `json:"beginning_cash"`
	EndingCash    decimal.Decimal `json:"ending_cash"`
}
