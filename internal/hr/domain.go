// Package hr manages employees, attendance, and attendance-based payroll.
package hr

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AttendanceStatus enumerates daily attendance marks.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceHalfDay AttendanceStatus = "HALF_DAY"
)

// Valid reports whether the status is a known mark.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceHalfDay:
		return true
	}
	return false
}

// Employee is a payroll-eligible staff member.
type Employee struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Department string          `json:"department"`
	Position   string          `json:"position"`
	Salary     decimal.Decimal `json:"salary"`
	HiredAt    time.Time       `json:"hired_at"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Attendance is one employee's mark for one date. At most one mark exists
// per employee and date.
type Attendance struct {
	ID         int64            `json:"id"`
	EmployeeID int64            `json:"employee_id"`
	Date       time.Time        `json:"date"`
	Status     AttendanceStatus `json:"status"`
	Note       string           `json:"note"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Payroll is one employee's pay for one month.
type Payroll struct {
	ID          int64           `json:"id"`
	EmployeeID  int64           `json:"employee_id"`
	Year        int             `json:"year"`
	Month       time.Month      `json:"month"`
	BaseSalary  decimal.Decimal `json:"base_salary"`
	WorkingDays int             `json:"working_days"`
	PresentDays int             `json:"present_days"`
	LateDays    int             `json:"late_days"`
	AbsentDays  int             `json:"absent_days"`
	HalfDays    int             `json:"half_days"`
	Bonus       decimal.Decimal `json:"bonus"`
	Deductions  decimal.Decimal `json:"deductions"`
	NetPay      decimal.Decimal `json:"net_pay"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Sentinel errors of the hr module.
var (
	ErrEmployeeNotFound = errors.New("hr: employee not found")
	ErrPayrollExists    = errors.New("hr: payroll already generated for month")
	ErrInvalidStatus    = errors.New("hr: invalid attendance status")
	ErrInvalidMonth     = errors.New("hr: invalid year or month")
)
