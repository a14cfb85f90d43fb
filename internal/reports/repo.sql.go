package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// cashAccountFilter matches the asset accounts treated as cash for the cash
// flow statement.
const cashAccountFilter = `a.account_type = 'ASSET' AND (a.name ILIKE '%cash%' OR a.name ILIKE '%bank%')`

// Repository reads posted aggregates for statement building.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ActivityByAccount aggregates posted debits and credits per account within
// the window. Accounts without posted lines in the window are not returned.
func (r *Repository) ActivityByAccount(ctx context.Context, from *time.Time, to time.Time) ([]AccountActivity, error) {
	query := `SELECT a.id, a.code, a.name, a.account_type, a.normal_balance,
COALESCE(sum(l.debit_amount),0), COALESCE(sum(l.credit_amount),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.status = 'POSTED' AND e.date <= $1`
	args := []any{to}
	if from != nil {
		query += ` AND e.date >= $2`
		args = append(args, *from)
	}
	query += ` GROUP BY a.id, a.code, a.name, a.account_type, a.normal_balance ORDER BY a.code`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountActivity
	for rows.Next() {
		var a AccountActivity
		if err := rows.Scan(&a.AccountID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.Debits, &a.Credits); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CashMovements returns the counter lines of posted entries that touched a
// cash account within the window. Amount is signed from cash's point of
// view: a counter credit means cash came in.
func (r *Repository) CashMovements(ctx context.Context, from, to time.Time) ([]CashMovement, error) {
	rows, err := r.pool.Query(ctx, `SELECT e.id, e.date, e.memo, a.account_type, a.name,
l.credit_amount - l.debit_amount
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.status = 'POSTED' AND e.date >= $1 AND e.date <= $2
AND NOT (`+cashAccountFilter+`)
AND EXISTS (
	SELECT 1 FROM journal_lines cl JOIN accounts ca ON ca.id = cl.account_id
	WHERE cl.entry_id = e.id AND ca.account_type = 'ASSET'
	AND (ca.name ILIKE '%cash%' OR ca.name ILIKE '%bank%')
)
ORDER BY e.date, e.id`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CashMovement
	for rows.Next() {
		var m CashMovement
		if err := rows.Scan(&m.EntryID, &m.Date, &m.Memo, &m.CounterType, &m.CounterName, &m.Amount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CashBalance returns total cash on hand from posted activity through asOf.
func (r *Repository) CashBalance(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(sum(l.debit_amount - l.credit_amount),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.status = 'POSTED' AND e.date <= $1 AND `+cashAccountFilter, asOf).Scan(&balance)
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
