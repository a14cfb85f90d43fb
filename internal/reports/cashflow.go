package reports

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

type cashActivity int

const (
	activityOperating cashActivity = iota
	activityInvesting
	activityFinancing
)

// classifyCounter decides the cash flow section for a movement from the
// account on the other side of the cash line. Revenue and expense counters
// are operating; long-term asset counters are investing; liability and
// equity counters are financing. Anything unclassifiable defaults to
// operating rather than being dropped, so sections always reconcile to the
// net change in cash.
func classifyCounter(t ledger.AccountType, name string) cashActivity {
	switch t {
	case ledger.AccountTypeRevenue, ledger.AccountTypeExpense:
		return activityOperating
	case ledger.AccountTypeAsset:
		if strings.Contains(strings.ToLower(name), "long-term") {
			return activityInvesting
		}
		return activityOperating
	case ledger.AccountTypeLiability, ledger.AccountTypeEquity:
		return activityFinancing
	default:
		return activityOperating
	}
}

// BuildCashFlow assembles the statement from counter-line movements of
// cash-touching entries. beginningCash is the cash balance the day before
// the window opens.
func BuildCashFlow(movements []CashMovement, beginningCash decimal.Decimal, from, to time.Time) CashFlowStatement {
	cf := CashFlowStatement{
		From:          from,
		To:            to,
		BeginningCash: beginningCash,
		NetChange:     decimal.Zero,
	}
	cf.Operating.Total = decimal.Zero
	cf.Investing.Total = decimal.Zero
	cf.Financing.Total = decimal.Zero

	for _, m := range movements {
		line := CashFlowLine{Date: m.Date, Memo: m.Memo, Amount: m.Amount}
		section := &cf.Operating
		switch classifyCounter(m.CounterType, m.CounterName) {
		case activityInvesting:
			section = &cf.Investing
		case activityFinancing:
			section = &cf.Financing
		}
		section.Lines = append(section.Lines, line)
		section.Total = section.Total.Add(m.Amount)
		cf.NetChange = cf.NetChange.Add(m.Amount)
	}
	cf.EndingCash = cf.BeginningCash.Add(cf.NetChange)
	return cf
}
