package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository persists projects, sales records, and payments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional project operations. Ledger returns a
// ledger repository bound to the same transaction, so sales updates and
// their journal entries commit together.
type TxRepository interface {
	Ledger() ledger.TxRepository

	InsertProject(ctx context.Context, p Project) (Project, error)
	GetProject(ctx context.Context, id int64) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	UpdateProjectStatus(ctx context.Context, id int64, status ProjectStatus) error

	InsertSales(ctx context.Context, s Sales) (Sales, error)
	GetSalesByProjectForUpdate(ctx context.Context, projectID int64) (Sales, error)
	UpdateSales(ctx context.Context, s Sales) error

	InsertPayment(ctx context.Context, p ProjectPayment) (ProjectPayment, error)
	GetPaymentForUpdate(ctx context.Context, id int64) (ProjectPayment, error)
	ListPayments(ctx context.Context, projectID int64) ([]ProjectPayment, error)
	UpdatePayment(ctx context.Context, p ProjectPayment) error
	DeletePayment(ctx context.Context, id int64) error
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Ledger() ledger.TxRepository {
	return ledger.NewTxRepository(r.tx)
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const projectColumns = `id, name, client, budget, status, start_date, description, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Client, &p.Budget, &p.Status, &p.StartDate, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *txRepository) InsertProject(ctx context.Context, p Project) (Project, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO projects (name, client, budget, status, start_date, description)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING `+projectColumns,
		p.Name, p.Client, p.Budget, p.Status, p.StartDate, p.Description)
	return scanProject(row)
}

func (r *txRepository) GetProject(ctx context.Context, id int64) (Project, error) {
	p, err := scanProject(r.tx.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, ErrProjectNotFound
	}
	return p, err
}

func (r *txRepository) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *txRepository) UpdateProjectStatus(ctx context.Context, id int64, status ProjectStatus) error {
	tag, err := r.tx.Exec(ctx, `UPDATE projects SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

const salesColumns = `id, project_id, budget, received, difference, status, closed_at, created_at, updated_at`

func scanSales(row pgx.Row) (Sales, error) {
	var s Sales
	err := row.Scan(&s.ID, &s.ProjectID, &s.Budget, &s.Received, &s.Difference, &s.Status, &s.ClosedAt, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *txRepository) InsertSales(ctx context.Context, s Sales) (Sales, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO sales (project_id, budget, received, difference, status)
VALUES ($1,$2,$3,$4,$5) RETURNING `+salesColumns,
		s.ProjectID, s.Budget, s.Received, s.Difference, s.Status)
	return scanSales(row)
}

func (r *txRepository) GetSalesByProjectForUpdate(ctx context.Context, projectID int64) (Sales, error) {
	s, err := scanSales(r.tx.QueryRow(ctx, `SELECT `+salesColumns+` FROM sales WHERE project_id=$1 FOR UPDATE`, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sales{}, ErrSalesNotFound
	}
	return s, err
}

func (r *txRepository) UpdateSales(ctx context.Context, s Sales) error {
	tag, err := r.tx.Exec(ctx, `UPDATE sales SET received=$2, difference=$3, status=$4, closed_at=$5, updated_at=now() WHERE id=$1`,
		s.ID, s.Received, s.Difference, s.Status, s.ClosedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSalesNotFound
	}
	return nil
}

const paymentColumns = `id, project_id, amount_original, fees, conversion_rate, amount_received, status, paid_at, reference, is_recorded_in_sales, created_at, updated_at`

func scanPayment(row pgx.Row) (ProjectPayment, error) {
	var p ProjectPayment
	err := row.Scan(&p.ID, &p.ProjectID, &p.AmountOriginal, &p.Fees, &p.ConversionRate, &p.AmountReceived,
		&p.Status, &p.PaidAt, &p.Reference, &p.IsRecordedInSales, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *txRepository) InsertPayment(ctx context.Context, p ProjectPayment) (ProjectPayment, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO project_payments (project_id, amount_original, fees, conversion_rate, amount_received, status, paid_at, reference, is_recorded_in_sales)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING `+paymentColumns,
		p.ProjectID, p.AmountOriginal, p.Fees, p.ConversionRate, p.AmountReceived, p.Status, p.PaidAt, p.Reference, p.IsRecordedInSales)
	return scanPayment(row)
}

func (r *txRepository) GetPaymentForUpdate(ctx context.Context, id int64) (ProjectPayment, error) {
	p, err := scanPayment(r.tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM project_payments WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return ProjectPayment{}, ErrPaymentNotFound
	}
	return p, err
}

func (r *txRepository) ListPayments(ctx context.Context, projectID int64) ([]ProjectPayment, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+paymentColumns+` FROM project_payments WHERE project_id=$1 ORDER BY paid_at, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProjectPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *txRepository) UpdatePayment(ctx context.Context, p ProjectPayment) error {
	tag, err := r.tx.Exec(ctx, `UPDATE project_payments SET amount_original=$2, fees=$3, conversion_rate=$4, amount_received=$5, status=$6, paid_at=$7, reference=$8, is_recorded_in_sales=$9, updated_at=now() WHERE id=$1`,
		p.ID, p.AmountOriginal, p.Fees, p.ConversionRate, p.AmountReceived, p.Status, p.PaidAt, p.Reference, p.IsRecordedInSales)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *txRepository) DeletePayment(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM project_payments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
