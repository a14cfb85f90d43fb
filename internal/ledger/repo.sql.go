package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository persists ledger entities.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations on the ledger store.
type TxRepository interface {
	InsertAccount(ctx context.Context, a Account) (Account, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	GetAccountByCode(ctx context.Context, code string) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	SetAccountActive(ctx context.Context, id int64, active bool) error
	AccountHasChildren(ctx context.Context, id int64) (bool, error)
	AccountHasLines(ctx context.Context, id int64) (bool, error)
	DeleteAccount(ctx context.Context, id int64) error
	CountAccounts(ctx context.Context) (int64, error)
	GetRoleAccount(ctx context.Context, role Role) (Account, error)
	UpsertRoleMapping(ctx context.Context, role Role, accountID int64) error

	InsertFiscalYear(ctx context.Context, fy FiscalYear) (FiscalYear, error)
	HasOverlappingFiscalYear(ctx context.Context, start, end time.Time) (bool, error)
	InsertPeriod(ctx context.Context, p Period) (Period, error)
	HasOverlappingPeriod(ctx context.Context, start, end time.Time) (bool, error)
	CountPeriods(ctx context.Context) (int64, error)
	FindOpenPeriodContaining(ctx context.Context, date time.Time) (Period, error)
	FindLatestOpenPeriod(ctx context.Context) (Period, error)
	GetPeriodForUpdate(ctx context.Context, id int64) (Period, error)
	MarkPeriodClosed(ctx context.Context, id int64) error

	InsertJournalEntry(ctx context.Context, e JournalEntry) (JournalEntry, error)
	InsertJournalLines(ctx context.Context, entryID int64, lines []LineInput) error
	DeleteJournalLine(ctx context.Context, entryID, lineID int64) error
	GetJournalForUpdate(ctx context.Context, id int64) (JournalEntry, error)
	GetJournalWithLines(ctx context.Context, id int64) (JournalEntry, error)
	ListJournalEntries(ctx context.Context) ([]JournalEntry, error)
	UpdateJournalStatus(ctx context.Context, id int64, status EntryStatus) error
	LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error

	SumAccountActivity(ctx context.Context, accountID int64, win Window) (debits, credits decimal.Decimal, err error)
	ListUnbalancedPosted(ctx context.Context) ([]string, error)

	ListActiveRecurring(ctx context.Context, dayOfMonth int) ([]RecurringEntry, error)
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an existing transaction so other modules can post
// journal entries atomically with their own writes.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const accountColumns = `id, code, name, account_type, normal_balance, parent_id, description, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.ParentID, &a.Description, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *txRepository) InsertAccount(ctx context.Context, a Account) (Account, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO accounts (code, name, account_type, normal_balance, parent_id, description, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+accountColumns,
		a.Code, a.Name, a.Type, a.NormalBalance, a.ParentID, a.Description, a.IsActive)
	inserted, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err, "accounts_code_key") {
			return Account{}, ErrAccountCodeTaken
		}
		return Account{}, err
	}
	return inserted, nil
}

func (r *txRepository) GetAccount(ctx context.Context, id int64) (Account, error) {
	a, err := scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

func (r *txRepository) GetAccountByCode(ctx context.Context, code string) (Account, error) {
	a, err := scanAccount(r.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code=$1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

func (r *txRepository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *txRepository) SetAccountActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.tx.Exec(ctx, `UPDATE accounts SET is_active=$2, updated_at=now() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) AccountHasChildren(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE parent_id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *txRepository) AccountHasLines(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_lines WHERE account_id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *txRepository) DeleteAccount(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	err := r.tx.QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&count)
	return count, err
}

func (r *txRepository) GetRoleAccount(ctx context.Context, role Role) (Account, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+prefixedAccountColumns("a")+` FROM accounts a
JOIN account_mappings m ON m.account_id = a.id WHERE m.role=$1`, role)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrRoleNotMapped
	}
	return a, err
}

func (r *txRepository) UpsertRoleMapping(ctx context.Context, role Role, accountID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO account_mappings (role, account_id) VALUES ($1,$2)
ON CONFLICT (role) DO UPDATE SET account_id=EXCLUDED.account_id, updated_at=now()`, role, accountID)
	return err
}

func (r *txRepository) InsertFiscalYear(ctx context.Context, fy FiscalYear) (FiscalYear, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO fiscal_years (name, start_date, end_date, is_closed)
VALUES ($1,$2,$3,$4) RETURNING id, created_at, updated_at`, fy.Name, fy.StartDate, fy.EndDate, fy.IsClosed)
	if err := row.Scan(&fy.ID, &fy.CreatedAt, &fy.UpdatedAt); err != nil {
		return FiscalYear{}, err
	}
	return fy, nil
}

func (r *txRepository) HasOverlappingFiscalYear(ctx context.Context, start, end time.Time) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM fiscal_years WHERE start_date <= $2 AND end_date >= $1)`,
		start, end).Scan(&exists)
	return exists, err
}

const periodColumns = `id, fiscal_year_id, name, start_date, end_date, is_closed, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.FiscalYearID, &p.Name, &p.StartDate, &p.EndDate, &p.IsClosed, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *txRepository) InsertPeriod(ctx context.Context, p Period) (Period, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO periods (fiscal_year_id, name, start_date, end_date, is_closed)
VALUES ($1,$2,$3,$4,$5) RETURNING `+periodColumns, p.FiscalYearID, p.Name, p.StartDate, p.EndDate, p.IsClosed)
	return scanPeriod(row)
}

func (r *txRepository) HasOverlappingPeriod(ctx context.Context, start, end time.Time) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM periods WHERE start_date <= $2 AND end_date >= $1)`,
		start, end).Scan(&exists)
	return exists, err
}

func (r *txRepository) CountPeriods(ctx context.Context) (int64, error) {
	var count int64
	err := r.tx.QueryRow(ctx, `SELECT count(*) FROM periods`).Scan(&count)
	return count, err
}

func (r *txRepository) FindOpenPeriodContaining(ctx context.Context, date time.Time) (Period, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods
WHERE is_closed=false AND start_date<=$1 AND end_date>=$1 ORDER BY start_date LIMIT 1`, date)
	p, err := scanPeriod(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrNoOpenPeriod
	}
	return p, err
}

func (r *txRepository) FindLatestOpenPeriod(ctx context.Context) (Period, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods
WHERE is_closed=false ORDER BY end_date DESC LIMIT 1`)
	p, err := scanPeriod(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrNoOpenPeriod
	}
	return p, err
}

func (r *txRepository) GetPeriodForUpdate(ctx context.Context, id int64) (Period, error) {
	p, err := scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	return p, err
}

func (r *txRepository) MarkPeriodClosed(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE periods SET is_closed=true, updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

const entryColumns = `id, entry_number, date, period_id, memo, reference, status, entry_type, source_module, source_id, created_by, created_at, updated_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.EntryNumber, &e.Date, &e.PeriodID, &e.Memo, &e.Reference, &e.Status, &e.Type,
		&e.SourceModule, &e.SourceID, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *txRepository) InsertJournalEntry(ctx context.Context, e JournalEntry) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (entry_number, date, period_id, memo, reference, status, entry_type, source_module, source_id, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING `+entryColumns,
		e.EntryNumber, e.Date, e.PeriodID, e.Memo, e.Reference, e.Status, e.Type, e.SourceModule, e.SourceID, e.CreatedBy)
	inserted, err := scanEntry(row)
	if err != nil {
		if isUniqueViolation(err, "journal_entries_entry_number_key") {
			return JournalEntry{}, ErrDuplicateEntryNumber
		}
		return JournalEntry{}, err
	}
	return inserted, nil
}

func (r *txRepository) InsertJournalLines(ctx context.Context, entryID int64, lines []LineInput) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (entry_id, account_id, description, debit_amount, credit_amount)
VALUES ($1,$2,$3,$4,$5)`, entryID, line.AccountID, line.Description, line.Debit, line.Credit); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) DeleteJournalLine(ctx context.Context, entryID, lineID int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE id=$1 AND entry_id=$2`, lineID, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) GetJournalForUpdate(ctx context.Context, id int64) (JournalEntry, error) {
	e, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return JournalEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return JournalEntry{}, err
	}
	lines, err := r.entryLines(ctx, id)
	if err != nil {
		return JournalEntry{}, err
	}
	e.Lines = lines
	return e, nil
}

func (r *txRepository) GetJournalWithLines(ctx context.Context, id int64) (JournalEntry, error) {
	e, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return JournalEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return JournalEntry{}, err
	}
	lines, err := r.entryLines(ctx, id)
	if err != nil {
		return JournalEntry{}, err
	}
	e.Lines = lines
	return e, nil
}

func (r *txRepository) entryLines(ctx context.Context, entryID int64) ([]JournalLine, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, entry_id, account_id, description, debit_amount, credit_amount, created_at, updated_at
FROM journal_lines WHERE entry_id=$1 ORDER BY id`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Description, &l.Debit, &l.Credit, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *txRepository) ListJournalEntries(ctx context.Context) ([]JournalEntry, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *txRepository) UpdateJournalStatus(ctx context.Context, id int64, status EntryStatus) error {
	tag, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (module, ref_id, entry_id) VALUES ($1,$2,$3)`, module, ref, entryID)
	if err != nil {
		if isUniqueViolation(err, "uq_source_links") {
			return ErrSourceAlreadyLinked
		}
		return err
	}
	return nil
}

func (r *txRepository) SumAccountActivity(ctx context.Context, accountID int64, win Window) (decimal.Decimal, decimal.Decimal, error) {
	query := `SELECT COALESCE(sum(l.debit_amount),0), COALESCE(sum(l.credit_amount),0)
FROM journal_lines l JOIN journal_entries e ON e.id = l.entry_id
WHERE l.account_id=$1 AND e.status='POSTED' AND e.date<=$2`
	args := []any{accountID, win.To}
	if win.From != nil {
		query += ` AND e.date>=$3`
		args = append(args, *win.From)
	}
	var debits, credits decimal.Decimal
	if err := r.tx.QueryRow(ctx, query, args...).Scan(&debits, &credits); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return debits, credits, nil
}

func (r *txRepository) ListUnbalancedPosted(ctx context.Context) ([]string, error) {
	rows, err := r.tx.Query(ctx, `SELECT e.entry_number FROM journal_entries e
JOIN journal_lines l ON l.entry_id = e.id
WHERE e.status='POSTED'
GROUP BY e.id, e.entry_number
HAVING sum(l.debit_amount) <> sum(l.credit_amount)
ORDER BY e.entry_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func (r *txRepository) ListActiveRecurring(ctx context.Context, dayOfMonth int) ([]RecurringEntry, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, memo, day_of_month FROM recurring_entries
WHERE is_active=true AND day_of_month<=$1 ORDER BY id`, dayOfMonth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var templates []RecurringEntry
	for rows.Next() {
		var t RecurringEntry
		if err := rows.Scan(&t.ID, &t.Memo, &t.DayOfMonth); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range templates {
		lines, err := r.recurringLines(ctx, templates[i].ID)
		if err != nil {
			return nil, err
		}
		templates[i].Lines = lines
	}
	return templates, nil
}

func (r *txRepository) recurringLines(ctx context.Context, recurringID int64) ([]LineInput, error) {
	rows, err := r.tx.Query(ctx, `SELECT account_id, description, debit_amount, credit_amount
FROM recurring_lines WHERE recurring_id=$1 ORDER BY id`, recurringID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []LineInput
	for rows.Next() {
		var l LineInput
		if err := rows.Scan(&l.AccountID, &l.Description, &l.Debit, &l.Credit); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func prefixedAccountColumns(alias string) string {
	return alias + `.id, ` + alias + `.code, ` + alias + `.name, ` + alias + `.account_type, ` + alias + `.normal_balance, ` +
		alias + `.parent_id, ` + alias + `.description, ` + alias + `.is_active, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
