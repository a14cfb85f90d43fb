package hr

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists employees, attendance, and payroll.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const employeeColumns = `id, name, email, department, position, salary, hired_at, is_active, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Department, &e.Position, &e.Salary, &e.HiredAt, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// InsertEmployee adds an employee.
func (r *Repository) InsertEmployee(ctx context.Context, e Employee) (Employee, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO employees (name, email, department, position, salary, hired_at, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+employeeColumns,
		e.Name, e.Email, e.Department, e.Position, e.Salary, e.HiredAt, e.IsActive)
	return scanEmployee(row)
}

// GetEmployee loads one employee.
func (r *Repository) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	e, err := scanEmployee(r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, err
}

// ListActiveEmployees returns active employees in name order.
func (r *Repository) ListActiveEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees WHERE is_active=true ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertAttendance records a mark for one employee-date, replacing any
// earlier mark for the same day.
func (r *Repository) UpsertAttendance(ctx context.Context, a Attendance) (Attendance, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO attendance (employee_id, date, status, note)
VALUES ($1,$2,$3,$4)
ON CONFLICT (employee_id, date) DO UPDATE SET status=EXCLUDED.status, note=EXCLUDED.note
RETURNING id, employee_id, date, status, note, created_at`,
		a.EmployeeID, a.Date, a.Status, a.Note)
	var saved Attendance
	err := row.Scan(&saved.ID, &saved.EmployeeID, &saved.Date, &saved.Status, &saved.Note, &saved.CreatedAt)
	return saved, err
}

// AttendanceSummaryFor aggregates one employee's marks for a month.
func (r *Repository) AttendanceSummaryFor(ctx context.Context, employeeID int64, year int, month time.Month) (AttendanceSummary, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM attendance
WHERE employee_id=$1 AND date >= $2 AND date < $3 GROUP BY status`, employeeID, start, end)
	if err != nil {
		return AttendanceSummary{}, err
	}
	defer rows.Close()
	var summary AttendanceSummary
	for rows.Next() {
		var status AttendanceStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return AttendanceSummary{}, err
		}
		switch status {
		case AttendancePresent:
			summary.Present = count
		case AttendanceLate:
			summary.Late = count
		case AttendanceAbsent:
			summary.Absent = count
		case AttendanceHalfDay:
			summary.HalfDay = count
		}
	}
	return summary, rows.Err()
}

// HasAttendance reports whether any mark exists for the employee-month.
func (r *Repository) HasAttendance(ctx context.Context, employeeID int64, year int, month time.Month) (bool, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attendance WHERE employee_id=$1 AND date >= $2 AND date < $3)`,
		employeeID, start, end).Scan(&exists)
	return exists, err
}

const payrollColumns = `id, employee_id, year, month, base_salary, working_days, present_days, late_days, absent_days, half_days, bonus, deductions, net_pay, created_at`

func scanPayroll(row pgx.Row) (Payroll, error) {
	var p Payroll
	err := row.Scan(&p.ID, &p.EmployeeID, &p.Year, &p.Month, &p.BaseSalary, &p.WorkingDays, &p.PresentDays,
		&p.LateDays, &p.AbsentDays, &p.HalfDays, &p.Bonus, &p.Deductions, &p.NetPay, &p.CreatedAt)
	return p, err
}

// InsertPayroll records one employee-month's pay.
func (r *Repository) InsertPayroll(ctx context.Context, p Payroll) (Payroll, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO payroll (employee_id, year, month, base_salary, working_days, present_days, late_days, absent_days, half_days, bonus, deductions, net_pay)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING `+payrollColumns,
		p.EmployeeID, p.Year, p.Month, p.BaseSalary, p.WorkingDays, p.PresentDays, p.LateDays, p.AbsentDays, p.HalfDays, p.Bonus, p.Deductions, p.NetPay)
	saved, err := scanPayroll(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Payroll{}, ErrPayrollExists
		}
		return Payroll{}, err
	}
	return saved, nil
}

// ListPayroll returns every payroll row for a month.
func (r *Repository) ListPayroll(ctx context.Context, year int, month time.Month) ([]Payroll, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+payrollColumns+` FROM payroll WHERE year=$1 AND month=$2 ORDER BY employee_id`, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payroll
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
