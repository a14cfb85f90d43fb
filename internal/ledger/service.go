package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort is implemented by Repository.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// PostedListener is notified after a journal entry commits as POSTED.
type PostedListener interface {
	JournalPosted(ctx context.Context)
}

// Service implements ledger operations.
type Service struct {
	repo     RepositoryPort
	logger   *slog.Logger
	now      func() time.Time
	onPosted PostedListener
}

// NewService constructs Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// SetPostedListener registers a listener invoked after successful posts.
// Used by the statement cache to invalidate on new activity.
func (s *Service) SetPostedListener(l PostedListener) {
	s.onPosted = l
}

func (s *Service) notifyPosted(ctx context.Context) {
	if s.onPosted != nil {
		s.onPosted.JournalPosted(ctx)
	}
}

// Post validates and posts a system-generated journal entry in its own
// transaction. Manual entries go through the draft lifecycle instead.
func (s *Service) Post(ctx context.Context, in PostingInput) (JournalEntry, error) {
	if in.Type == EntryTypeManual {
		return JournalEntry{}, fmt.Errorf("%w: manual entries must be drafted first", ErrInvalidState)
	}
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var posted JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		posted, err = s.PostTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.notifyPosted(ctx)
	return posted, nil
}

// PostTx posts a balanced entry using the caller's transaction so business
// writes and their accounting commit or roll back together.
func (s *Service) PostTx(ctx context.Context, tx TxRepository, in PostingInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	period, err := s.resolvePeriod(ctx, tx, in.Date)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := s.checkAccounts(ctx, tx, in.Lines); err != nil {
		return JournalEntry{}, err
	}

	entry := JournalEntry{
		Date:         in.Date,
		PeriodID:     period.ID,
		Memo:         in.Memo,
		Reference:    in.Reference,
		Status:       EntryStatusPosted,
		Type:         in.Type,
		SourceModule: in.SourceModule,
		SourceID:     in.SourceID,
		CreatedBy:    in.CreatedBy,
	}
	entry.EntryNumber = newEntryNumber(in.Type, s.now())
	inserted, err := tx.InsertJournalEntry(ctx, entry)
	if errors.Is(err, ErrDuplicateEntryNumber) {
		entry.EntryNumber = newEntryNumber(in.Type, s.now())
		inserted, err = tx.InsertJournalEntry(ctx, entry)
	}
	if err != nil {
		return JournalEntry{}, err
	}
	if err := tx.InsertJournalLines(ctx, inserted.ID, in.Lines); err != nil {
		return JournalEntry{}, err
	}
	if in.SourceID != uuid.Nil {
		if err := tx.LinkSource(ctx, in.SourceModule, in.SourceID, inserted.ID); err != nil {
			return JournalEntry{}, err
		}
	}
	s.logger.Info("journal entry posted",
		"entry_number", inserted.EntryNumber,
		"source_module", in.SourceModule,
		"period_id", period.ID,
	)
	return tx.GetJournalWithLines(ctx, inserted.ID)
}

// resolvePeriod finds the open period containing date, falling back to the
// latest-ending open period when the date falls outside every open one.
func (s *Service) resolvePeriod(ctx context.Context, tx TxRepository, date time.Time) (Period, error) {
	period, err := tx.FindOpenPeriodContaining(ctx, date)
	if errors.Is(err, ErrNoOpenPeriod) {
		return tx.FindLatestOpenPeriod(ctx)
	}
	return period, err
}

func (s *Service) checkAccounts(ctx context.Context, tx TxRepository, lines []LineInput) error {
	for _, line := range lines {
		account, err := tx.GetAccount(ctx, line.AccountID)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return fmt.Errorf("%w: account %s", ErrAccountInactive, account.Code)
		}
	}
	return nil
}

// CreateDraft records a manual draft entry. Drafts may be unbalanced and
// incomplete; balance is enforced only at posting time.
func (s *Service) CreateDraft(ctx context.Context, in DraftInput) (JournalEntry, error) {
	for i, line := range in.Lines {
		if err := line.Validate(); err != nil {
			return JournalEntry{}, fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	var created JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := s.resolvePeriod(ctx, tx, in.Date)
		if err != nil {
			return err
		}
		if err := s.checkAccounts(ctx, tx, in.Lines); err != nil {
			return err
		}
		entry := JournalEntry{
			Date:      in.Date,
			PeriodID:  period.ID,
			Memo:      in.Memo,
			Reference: in.Reference,
			Status:    EntryStatusDraft,
			Type:      EntryTypeManual,
			CreatedBy: in.CreatedBy,
		}
		entry.EntryNumber = newEntryNumber(EntryTypeManual, s.now())
		inserted, err := tx.InsertJournalEntry(ctx, entry)
		if errors.Is(err, ErrDuplicateEntryNumber) {
			entry.EntryNumber = newEntryNumber(EntryTypeManual, s.now())
			inserted, err = tx.InsertJournalEntry(ctx, entry)
		}
		if err != nil {
			return err
		}
		if len(in.Lines) > 0 {
			if err := tx.InsertJournalLines(ctx, inserted.ID, in.Lines); err != nil {
				return err
			}
		}
		created, err = tx.GetJournalWithLines(ctx, inserted.ID)
		return err
	})
	return created, err
}

// AddLine appends a line to a draft entry.
func (s *Service) AddLine(ctx context.Context, entryID int64, line LineInput) (JournalEntry, error) {
	if err := line.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var updated JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetJournalForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != EntryStatusDraft {
			return fmt.Errorf("%w: cannot modify %s entry", ErrInvalidState, entry.Status)
		}
		if err := s.checkAccounts(ctx, tx, []LineInput{line}); err != nil {
			return err
		}
		if err := tx.InsertJournalLines(ctx, entryID, []LineInput{line}); err != nil {
			return err
		}
		updated, err = tx.GetJournalWithLines(ctx, entryID)
		return err
	})
	return updated, err
}

// RemoveLine deletes a line from a draft entry.
func (s *Service) RemoveLine(ctx context.Context, entryID, lineID int64) (JournalEntry, error) {
	var updated JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetJournalForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != EntryStatusDraft {
			return fmt.Errorf("%w: cannot modify %s entry", ErrInvalidState, entry.Status)
		}
		if err := tx.DeleteJournalLine(ctx, entryID, lineID); err != nil {
			return err
		}
		updated, err = tx.GetJournalWithLines(ctx, entryID)
		return err
	})
	return updated, err
}

// PostDraft transitions a draft to POSTED after enforcing balance.
func (s *Service) PostDraft(ctx context.Context, entryID int64) (JournalEntry, error) {
	var posted JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetJournalForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != EntryStatusDraft {
			return fmt.Errorf("%w: only DRAFT entries can be posted", ErrInvalidState)
		}
		if len(entry.Lines) < 2 {
			return ErrTooFewLines
		}
		if !entry.IsBalanced() {
			return fmt.Errorf("%w: debits %s, credits %s", ErrUnbalancedEntry,
				entry.TotalDebits().StringFixed(2), entry.TotalCredits().StringFixed(2))
		}
		period, err := tx.GetPeriodForUpdate(ctx, entry.PeriodID)
		if err != nil {
			return err
		}
		if period.IsClosed {
			return fmt.Errorf("%w: period %s is closed", ErrInvalidState, period.Name)
		}
		if err := tx.UpdateJournalStatus(ctx, entryID, EntryStatusPosted); err != nil {
			return err
		}
		posted, err = tx.GetJournalWithLines(ctx, entryID)
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.notifyPosted(ctx)
	return posted, nil
}

// GetEntry loads an entry with its lines.
func (s *Service) GetEntry(ctx context.Context, entryID int64) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.GetJournalWithLines(ctx, entryID)
		return err
	})
	return entry, err
}

// ListEntries returns journal entry headers, newest first.
func (s *Service) ListEntries(ctx context.Context) ([]JournalEntry, error) {
	var entries []JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entries, err = tx.ListJournalEntries(ctx)
		return err
	})
	return entries, err
}

// CreateAccount adds a chart-of-accounts entry.
func (s *Service) CreateAccount(ctx context.Context, a Account) (Account, error) {
	if a.NormalBalance == "" {
		a.NormalBalance = a.Type.DefaultNormalBalance()
	}
	a.IsActive = true
	var created Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if a.ParentID != nil {
			if _, err := tx.GetAccount(ctx, *a.ParentID); err != nil {
				return err
			}
		}
		var err error
		created, err = tx.InsertAccount(ctx, a)
		return err
	})
	return created, err
}

// DeleteAccount removes an account that has no children and no journal lines.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetAccount(ctx, id); err != nil {
			return err
		}
		hasChildren, err := tx.AccountHasChildren(ctx, id)
		if err != nil {
			return err
		}
		if hasChildren {
			return fmt.Errorf("%w: account has child accounts", ErrAccountInUse)
		}
		hasLines, err := tx.AccountHasLines(ctx, id)
		if err != nil {
			return err
		}
		if hasLines {
			return fmt.Errorf("%w: account has journal activity", ErrAccountInUse)
		}
		return tx.DeleteAccount(ctx, id)
	})
}

// DeactivateAccount hides an account from new postings without deleting history.
func (s *Service) DeactivateAccount(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetAccountActive(ctx, id, false)
	})
}

// ListAccounts returns the chart of accounts ordered by code.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		accounts, err = tx.ListAccounts(ctx)
		return err
	})
	return accounts, err
}

// CreateFiscalYear records a fiscal year. Ranges never overlap an existing
// year.
func (s *Service) CreateFiscalYear(ctx context.Context, fy FiscalYear) (FiscalYear, error) {
	if fy.EndDate.Before(fy.StartDate) {
		return FiscalYear{}, ErrInvalidWindow
	}
	var created FiscalYear
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		overlaps, err := tx.HasOverlappingFiscalYear(ctx, fy.StartDate, fy.EndDate)
		if err != nil {
			return err
		}
		if overlaps {
			return fmt.Errorf("%w: fiscal year %s", ErrRangeOverlap, fy.Name)
		}
		created, err = tx.InsertFiscalYear(ctx, fy)
		return err
	})
	return created, err
}

// CreatePeriod records a period within a fiscal year. Overlapping periods
// would make date-based period resolution ambiguous, so they are rejected.
func (s *Service) CreatePeriod(ctx context.Context, p Period) (Period, error) {
	if p.EndDate.Before(p.StartDate) {
		return Period{}, ErrInvalidWindow
	}
	var created Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		overlaps, err := tx.HasOverlappingPeriod(ctx, p.StartDate, p.EndDate)
		if err != nil {
			return err
		}
		if overlaps {
			return fmt.Errorf("%w: period %s", ErrRangeOverlap, p.Name)
		}
		created, err = tx.InsertPeriod(ctx, p)
		return err
	})
	return created, err
}

// ClosePeriod closes a period. Closing is terminal.
func (s *Service) ClosePeriod(ctx context.Context, id int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetPeriodForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if period.IsClosed {
			return fmt.Errorf("%w: period %s already closed", ErrInvalidState, period.Name)
		}
		return tx.MarkPeriodClosed(ctx, id)
	})
}

// CheckIntegrity reports posted entries whose lines no longer balance.
// Returns entry numbers so the sweep job can log actionable findings.
func (s *Service) CheckIntegrity(ctx context.Context) ([]string, error) {
	var numbers []string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		numbers, err = tx.ListUnbalancedPosted(ctx)
		return err
	})
	return numbers, err
}
