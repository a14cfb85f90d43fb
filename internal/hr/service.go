package hr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// RepositoryPort is implemented by Repository.
type RepositoryPort interface {
	InsertEmployee(ctx context.Context, e Employee) (Employee, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	ListActiveEmployees(ctx context.Context) ([]Employee, error)
	UpsertAttendance(ctx context.Context, a Attendance) (Attendance, error)
	AttendanceSummaryFor(ctx context.Context, employeeID int64, year int, month time.Month) (AttendanceSummary, error)
	HasAttendance(ctx context.Context, employeeID int64, year int, month time.Month) (bool, error)
	InsertPayroll(ctx context.Context, p Payroll) (Payroll, error)
	ListPayroll(ctx context.Context, year int, month time.Month) ([]Payroll, error)
}

// Service implements HR operations.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateEmployee adds a payroll-eligible employee.
func (s *Service) CreateEmployee(ctx context.Context, e Employee) (Employee, error) {
	if e.Salary.IsNegative() {
		return Employee{}, fmt.Errorf("hr: salary must not be negative")
	}
	e.IsActive = true
	return s.repo.InsertEmployee(ctx, e)
}

// ListEmployees returns active employees.
func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.repo.ListActiveEmployees(ctx)
}

// RecordAttendance marks one employee-date, replacing any earlier mark.
func (s *Service) RecordAttendance(ctx context.Context, employeeID int64, date time.Time, status AttendanceStatus, note string) (Attendance, error) {
	if !status.Valid() {
		return Attendance{}, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	if _, err := s.repo.GetEmployee(ctx, employeeID); err != nil {
		return Attendance{}, err
	}
	return s.repo.UpsertAttendance(ctx, Attendance{
		EmployeeID: employeeID,
		Date:       date.Truncate(24 * time.Hour),
		Status:     status,
		Note:       note,
	})
}

// RunPayrollInput selects the payroll month and optional adjustments.
type RunPayrollInput struct {
	Year       int
	Month      time.Month
	Bonus      decimal.Decimal
	Deductions decimal.Decimal
}

// RunPayroll generates one payroll row per active employee for the month.
// Employees with attendance marks are paid from attendance; employees
// without any marks receive their flat monthly salary. Net pay is the base
// amount plus bonus minus deductions. A month already generated for an
// employee is skipped.
func (s *Service) RunPayroll(ctx context.Context, in RunPayrollInput) ([]Payroll, error) {
	if in.Year < 2000 || in.Month < time.January || in.Month > time.December {
		return nil, ErrInvalidMonth
	}
	employees, err := s.repo.ListActiveEmployees(ctx)
	if err != nil {
		return nil, err
	}
	var results []Payroll
	for _, emp := range employees {
		payroll, err := s.payrollFor(ctx, emp, in)
		if errors.Is(err, ErrPayrollExists) {
			s.logger.Info("payroll already generated",
				"employee_id", emp.ID, "year", in.Year, "month", int(in.Month))
			continue
		}
		if err != nil {
			return results, fmt.Errorf("payroll for employee %d: %w", emp.ID, err)
		}
		results = append(results, payroll)
	}
	return results, nil
}

func (s *Service) payrollFor(ctx context.Context, emp Employee, in RunPayrollInput) (Payroll, error) {
	tracked, err := s.repo.HasAttendance(ctx, emp.ID, in.Year, in.Month)
	if err != nil {
		return Payroll{}, err
	}

	payroll := Payroll{
		EmployeeID: emp.ID,
		Year:       in.Year,
		Month:      in.Month,
		BaseSalary: emp.Salary,
		Bonus:      in.Bonus,
		Deductions: in.Deductions,
	}

	periodStart, periodEnd := MonthRange(in.Year, in.Month)
	base := emp.Salary
	if tracked {
		summary, err := s.repo.AttendanceSummaryFor(ctx, emp.ID, in.Year, in.Month)
		if err != nil {
			return Payroll{}, err
		}
		breakdown := CalculatePay(emp.Salary, periodStart, periodEnd, summary)
		base = breakdown.Total
		payroll.WorkingDays = breakdown.WorkingDays
		payroll.PresentDays = summary.Present
		payroll.LateDays = summary.Late
		payroll.AbsentDays = summary.Absent
		payroll.HalfDays = summary.HalfDay
	} else {
		payroll.WorkingDays = WorkingDays(periodStart, periodEnd)
	}

	payroll.NetPay = base.Add(in.Bonus).Sub(in.Deductions)
	return s.repo.InsertPayroll(ctx, payroll)
}

// ListPayroll returns the generated payroll for a month.
func (s *Service) ListPayroll(ctx context.Context, year int, month time.Month) ([]Payroll, error) {
	if year < 2000 || month < time.January || month > time.December {
		return nil, ErrInvalidMonth
	}
	return s.repo.ListPayroll(ctx, year, month)
}
