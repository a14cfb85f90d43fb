package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType enumerates chart-of-accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// DefaultNormalBalance returns the conventional balance side for the type.
func (t AccountType) DefaultNormalBalance() NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// NormalBalance is the side on which an account's balance is conventionally positive.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

// EntryStatus enumerates journal lifecycle values.
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "DRAFT"
	EntryStatusPosted   EntryStatus = "POSTED"
	EntryStatusReversed EntryStatus = "REVERSED"
)

// EntryType distinguishes how a journal entry originated.
type EntryType string

const (
	EntryTypeManual    EntryType = "MANUAL"
	EntryTypeSystem    EntryType = "SYSTEM"
	EntryTypeRecurring EntryType = "RECURRING"
)

// Account models a chart of accounts node.
type Account struct {
	ID            int64
	Code          string
	Name          string
	Type          AccountType
	NormalBalance NormalBalance
	ParentID      *int64
	Description   string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FiscalYear bounds a set of accounting periods.
type FiscalYear struct {
	ID        int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
	IsClosed  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Period is a posting window inside a fiscal year. Closing is terminal.
type Period struct {
	ID           int64
	FiscalYearID int64
	Name         string
	StartDate    time.Time
	EndDate      time.Time
	IsClosed     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contains reports whether the date falls inside the period window, inclusive.
func (p Period) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// JournalEntry captures posting metadata and owns its lines.
type JournalEntry struct {
	ID           int64
	EntryNumber  string
	Date         time.Time
	PeriodID     int64
	Memo         string
	Reference    string
	Status       EntryStatus
	Type         EntryType
	SourceModule string
	SourceID     uuid.UUID
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []JournalLine
}

// TotalDebits sums debit amounts across the entry's lines.
func (e JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.Lines {
		total = total.Add(line.Debit)
	}
	return total
}

// TotalCredits sums credit amounts across the entry's lines.
func (e JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.Lines {
		total = total.Add(line.Credit)
	}
	return total
}

// IsBalanced reports exact decimal equality of debit and credit totals.
func (e JournalEntry) IsBalanced() bool {
	return e.TotalDebits().Equal(e.TotalCredits())
}

// JournalLine stores a debit or credit amount for an account. A persisted
// line on a POSTED entry is exactly one of the two, never both, never neither.
type JournalLine struct {
	ID          int64
	EntryID     int64
	AccountID   int64
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LineInput describes a journal line for a posting or draft request.
type LineInput struct {
	AccountID   int64
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// PostingInput groups fields required to create a posted journal entry.
type PostingInput struct {
	Type         EntryType
	Date         time.Time
	Memo         string
	Reference    string
	SourceModule string
	SourceID     uuid.UUID
	CreatedBy    string
	Lines        []LineInput
}

// DraftInput groups fields for a manual draft entry.
type DraftInput struct {
	Date      time.Time
	Memo      string
	Reference string
	CreatedBy string
	Lines     []LineInput
}

var (
	// ErrUnbalancedEntry indicates debit and credit totals differ.
	ErrUnbalancedEntry = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrNoOpenPeriod indicates no open period covers the posting date.
	ErrNoOpenPeriod = errors.New("ledger: no open accounting period")
	// ErrInvalidState indicates a lifecycle transition that is not allowed.
	ErrInvalidState = errors.New("ledger: invalid status transition")
	// ErrDuplicateEntryNumber indicates an entry number collision.
	ErrDuplicateEntryNumber = errors.New("ledger: duplicate entry number")
	// ErrEntryNotFound indicates a missing journal entry.
	ErrEntryNotFound = errors.New("ledger: journal entry not found")
	// ErrAccountNotFound indicates a missing account.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrAccountInactive indicates a line references a deactivated account.
	ErrAccountInactive = errors.New("ledger: account is inactive")
	// ErrAccountCodeTaken indicates a chart code collision.
	ErrAccountCodeTaken = errors.New("ledger: account code already exists")
	// ErrAccountInUse blocks deletion of accounts with children or lines.
	ErrAccountInUse = errors.New("ledger: account has children or journal lines")
	// ErrSourceAlreadyLinked indicates idempotency conflict on a source event.
	ErrSourceAlreadyLinked = errors.New("ledger: source already linked")
	// ErrRoleNotMapped indicates a symbolic account role without a mapping.
	ErrRoleNotMapped = errors.New("ledger: account role not mapped")
	// ErrPeriodNotFound indicates a missing period.
	ErrPeriodNotFound = errors.New("ledger: period not found")
	// ErrRangeOverlap indicates a period or fiscal year colliding with an
	// existing date range.
	ErrRangeOverlap = errors.New("ledger: date range overlaps an existing one")
)

// Validate checks a single line: non-negative amounts, exactly one side set.
func (l LineInput) Validate() error {
	if l.AccountID == 0 {
		return errors.New("ledger: line missing account")
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return errors.New("ledger: line amount negative")
	}
	if l.Debit.IsPositive() && l.Credit.IsPositive() {
		return errors.New("ledger: line cannot be both debit and credit")
	}
	if l.Debit.IsZero() && l.Credit.IsZero() {
		return errors.New("ledger: line must carry a debit or a credit")
	}
	return nil
}

// Validate ensures posting input meets the criteria for a system posting:
// at least two valid lines and exact decimal balance.
func (in PostingInput) Validate() error {
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	debit, credit := decimal.Zero, decimal.Zero
	for idx, line := range in.Lines {
		if err := line.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", idx, err)
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Equal(credit) {
		return ErrUnbalancedEntry
	}
	if in.SourceModule == "" {
		return errors.New("ledger: source module required")
	}
	if in.SourceID == uuid.Nil {
		return errors.New("ledger: source id required")
	}
	return nil
}
