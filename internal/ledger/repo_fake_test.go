package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeRepo is an in-memory RepositoryPort for service tests. It is not
// transactional; tests exercise service logic, not rollback semantics.
type fakeRepo struct {
	accounts     map[int64]Account
	nextAccount  int64
	roles        map[Role]int64
	fiscalYears  map[int64]FiscalYear
	nextFY       int64
	periods      map[int64]Period
	nextPeriod   int64
	entries      map[int64]JournalEntry
	nextEntry    int64
	lines        map[int64][]JournalLine
	nextLine     int64
	sourceLinks  map[string]int64
	recurring    []RecurringEntry
	failNumbers  int
	usedNumbers  map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts:    map[int64]Account{},
		roles:       map[Role]int64{},
		fiscalYears: map[int64]FiscalYear{},
		periods:     map[int64]Period{},
		entries:     map[int64]JournalEntry{},
		lines:       map[int64][]JournalLine{},
		sourceLinks: map[string]int64{},
		usedNumbers: map[string]bool{},
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) addAccount(code, name string, t AccountType, active bool) Account {
	f.nextAccount++
	a := Account{
		ID:            f.nextAccount,
		Code:          code,
		Name:          name,
		Type:          t,
		NormalBalance: t.DefaultNormalBalance(),
		IsActive:      active,
	}
	f.accounts[a.ID] = a
	return a
}

func (f *fakeRepo) addPeriod(name string, start, end time.Time, closed bool) Period {
	f.nextPeriod++
	p := Period{ID: f.nextPeriod, Name: name, StartDate: start, EndDate: end, IsClosed: closed}
	f.periods[p.ID] = p
	return p
}

func (f *fakeRepo) InsertAccount(_ context.Context, a Account) (Account, error) {
	for _, existing := range f.accounts {
		if existing.Code == a.Code {
			return Account{}, ErrAccountCodeTaken
		}
	}
	f.nextAccount++
	a.ID = f.nextAccount
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeRepo) GetAccount(_ context.Context, id int64) (Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeRepo) GetAccountByCode(_ context.Context, code string) (Account, error) {
	for _, a := range f.accounts {
		if a.Code == code {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (f *fakeRepo) ListAccounts(_ context.Context) ([]Account, error) {
	out := make([]Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeRepo) SetAccountActive(_ context.Context, id int64, active bool) error {
	a, ok := f.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.IsActive = active
	f.accounts[id] = a
	return nil
}

func (f *fakeRepo) AccountHasChildren(_ context.Context, id int64) (bool, error) {
	for _, a := range f.accounts {
		if a.ParentID != nil && *a.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) AccountHasLines(_ context.Context, id int64) (bool, error) {
	for _, lines := range f.lines {
		for _, l := range lines {
			if l.AccountID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeRepo) DeleteAccount(_ context.Context, id int64) error {
	if _, ok := f.accounts[id]; !ok {
		return ErrAccountNotFound
	}
	delete(f.accounts, id)
	return nil
}

func (f *fakeRepo) CountAccounts(_ context.Context) (int64, error) {
	return int64(len(f.accounts)), nil
}

func (f *fakeRepo) GetRoleAccount(ctx context.Context, role Role) (Account, error) {
	id, ok := f.roles[role]
	if !ok {
		return Account{}, ErrRoleNotMapped
	}
	return f.GetAccount(ctx, id)
}

func (f *fakeRepo) UpsertRoleMapping(_ context.Context, role Role, accountID int64) error {
	f.roles[role] = accountID
	return nil
}

func (f *fakeRepo) InsertFiscalYear(_ context.Context, fy FiscalYear) (FiscalYear, error) {
	f.nextFY++
	fy.ID = f.nextFY
	f.fiscalYears[fy.ID] = fy
	return fy, nil
}

func (f *fakeRepo) HasOverlappingFiscalYear(_ context.Context, start, end time.Time) (bool, error) {
	for _, fy := range f.fiscalYears {
		if !fy.StartDate.After(end) && !fy.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) InsertPeriod(_ context.Context, p Period) (Period, error) {
	f.nextPeriod++
	p.ID = f.nextPeriod
	f.periods[p.ID] = p
	return p, nil
}

func (f *fakeRepo) HasOverlappingPeriod(_ context.Context, start, end time.Time) (bool, error) {
	for _, p := range f.periods {
		if !p.StartDate.After(end) && !p.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CountPeriods(_ context.Context) (int64, error) {
	return int64(len(f.periods)), nil
}

func (f *fakeRepo) FindOpenPeriodContaining(_ context.Context, date time.Time) (Period, error) {
	var candidates []Period
	for _, p := range f.periods {
		if !p.IsClosed && p.Contains(date) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return Period{}, ErrNoOpenPeriod
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].StartDate.Before(candidates[j].StartDate) })
	return candidates[0], nil
}

func (f *fakeRepo) FindLatestOpenPeriod(_ context.Context) (Period, error) {
	var latest *Period
	for id := range f.periods {
		p := f.periods[id]
		if p.IsClosed {
			continue
		}
		if latest == nil || p.EndDate.After(latest.EndDate) {
			latest = &p
		}
	}
	if latest == nil {
		return Period{}, ErrNoOpenPeriod
	}
	return *latest, nil
}

func (f *fakeRepo) GetPeriodForUpdate(_ context.Context, id int64) (Period, error) {
	p, ok := f.periods[id]
	if !ok {
		return Period{}, ErrPeriodNotFound
	}
	return p, nil
}

func (f *fakeRepo) MarkPeriodClosed(_ context.Context, id int64) error {
	p, ok := f.periods[id]
	if !ok {
		return ErrPeriodNotFound
	}
	p.IsClosed = true
	f.periods[id] = p
	return nil
}

func (f *fakeRepo) InsertJournalEntry(_ context.Context, e JournalEntry) (JournalEntry, error) {
	if f.failNumbers > 0 {
		f.failNumbers--
		return JournalEntry{}, ErrDuplicateEntryNumber
	}
	if f.usedNumbers[e.EntryNumber] {
		return JournalEntry{}, ErrDuplicateEntryNumber
	}
	f.nextEntry++
	e.ID = f.nextEntry
	f.entries[e.ID] = e
	f.usedNumbers[e.EntryNumber] = true
	return e, nil
}

func (f *fakeRepo) InsertJournalLines(_ context.Context, entryID int64, lines []LineInput) error {
	for _, in := range lines {
		f.nextLine++
		f.lines[entryID] = append(f.lines[entryID], JournalLine{
			ID:        f.nextLine,
			EntryID:   entryID,
			AccountID: in.AccountID,
			Debit:     in.Debit,
			Credit:    in.Credit,
		})
	}
	return nil
}

func (f *fakeRepo) DeleteJournalLine(_ context.Context, entryID, lineID int64) error {
	lines := f.lines[entryID]
	for i, l := range lines {
		if l.ID == lineID {
			f.lines[entryID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}

func (f *fakeRepo) GetJournalForUpdate(ctx context.Context, id int64) (JournalEntry, error) {
	return f.GetJournalWithLines(ctx, id)
}

func (f *fakeRepo) GetJournalWithLines(_ context.Context, id int64) (JournalEntry, error) {
	e, ok := f.entries[id]
	if !ok {
		return JournalEntry{}, ErrEntryNotFound
	}
	e.Lines = append([]JournalLine(nil), f.lines[id]...)
	return e, nil
}

func (f *fakeRepo) ListJournalEntries(_ context.Context) ([]JournalEntry, error) {
	out := make([]JournalEntry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRepo) UpdateJournalStatus(_ context.Context, id int64, status EntryStatus) error {
	e, ok := f.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	e.Status = status
	f.entries[id] = e
	return nil
}

func (f *fakeRepo) LinkSource(_ context.Context, module string, ref uuid.UUID, entryID int64) error {
	key := fmt.Sprintf("%s:%s", module, ref)
	if _, ok := f.sourceLinks[key]; ok {
		return ErrSourceAlreadyLinked
	}
	f.sourceLinks[key] = entryID
	return nil
}

func (f *fakeRepo) SumAccountActivity(_ context.Context, accountID int64, win Window) (decimal.Decimal, decimal.Decimal, error) {
	debits, credits := decimal.Zero, decimal.Zero
	for entryID, lines := range f.lines {
		e := f.entries[entryID]
		if e.Status != EntryStatusPosted {
			continue
		}
		if e.Date.After(win.To) {
			continue
		}
		if win.From != nil && e.Date.Before(*win.From) {
			continue
		}
		for _, l := range lines {
			if l.AccountID != accountID {
				continue
			}
			debits = debits.Add(l.Debit)
			credits = credits.Add(l.Credit)
		}
	}
	return debits, credits, nil
}

func (f *fakeRepo) ListUnbalancedPosted(_ context.Context) ([]string, error) {
	var out []string
	for id, e := range f.entries {
		if e.Status != EntryStatusPosted {
			continue
		}
		d, c := decimal.Zero, decimal.Zero
		for _, l := range f.lines[id] {
			d = d.Add(l.Debit)
			c = c.Add(l.Credit)
		}
		if !d.Equal(c) {
			out = append(out, e.EntryNumber)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeRepo) ListActiveRecurring(_ context.Context, dayOfMonth int) ([]RecurringEntry, error) {
	var out []RecurringEntry
	for _, t := range f.recurring {
		if t.IsActive && t.DayOfMonth <= dayOfMonth {
			out = append(out, t)
		}
	}
	return out, nil
}
