// Package projects manages client projects, their sales records, and the
// payments collected against them. Every money movement flows into the
// general ledger through the integration generator.
package projects

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

// SalesStatus enumerates sales record states.
type SalesStatus string

const (
	SalesStatusOpen   SalesStatus = "OPEN"
	SalesStatusClosed SalesStatus = "CLOSED"
)

// PaymentStatus enumerates payment states. Only counted payments affect the
// sales record and the ledger.
type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "PENDING"
	PaymentStatusTransferred PaymentStatus = "TRANSFERRED"
	PaymentStatusReconciled  PaymentStatus = "RECONCILED"
	PaymentStatusFailed      PaymentStatus = "FAILED"
)

// Counted reports whether a payment in this status contributes to received
// totals and the ledger.
func (s PaymentStatus) Counted() bool {
	return s == PaymentStatusTransferred || s == PaymentStatusReconciled
}

// Project is a client engagement with a budget.
type Project struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Client      string          `json:"client"`
	Budget      decimal.Decimal `json:"budget"`
	Status      ProjectStatus   `json:"status"`
	StartDate   time.Time       `json:"start_date"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Sales tracks how much of a project's budget has been collected. Received
// and Difference are derived from counted payments, never edited directly.
type Sales struct {
	ID         int64           `json:"id"`
	ProjectID  int64           `json:"project_id"`
	Budget     decimal.Decimal `json:"budget"`
	Received   decimal.Decimal `json:"received"`
	Difference decimal.Decimal `json:"difference"`
	Status     SalesStatus     `json:"status"`
	ClosedAt   *time.Time      `json:"closed_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Recompute rebuilds the derived columns after received changes. Received
// never drops below zero, and difference is budget minus received.
func (s *Sales) Recompute() {
	if s.Received.IsNegative() {
		s.Received = decimal.Zero
	}
	s.Difference = s.Budget.Sub(s.Received)
}

// ProjectPayment is one payment against a project. AmountReceived is the
// settled figure that hits the sales totals and the ledger; it is derived
// from the original amount, the conversion rate, and transfer fees.
type ProjectPayment struct {
	ID                int64           `json:"id"`
	ProjectID         int64           `json:"project_id"`
	AmountOriginal    decimal.Decimal `json:"amount_original"`
	Fees              decimal.Decimal `json:"fees"`
	ConversionRate    decimal.Decimal `json:"conversion_rate"`
	AmountReceived    decimal.Decimal `json:"amount_received"`
	Status            PaymentStatus   `json:"status"`
	PaidAt            time.Time       `json:"paid_at"`
	Reference         string          `json:"reference"`
	IsRecordedInSales bool            `json:"is_recorded_in_sales"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// RecomputeReceived derives the settled figure. A zero rate means same
// currency and is treated as 1. Rates carry six fractional digits, amounts
// two.
func (p *ProjectPayment) RecomputeReceived() {
	if p.ConversionRate.IsZero() {
		p.ConversionRate = decimal.NewFromInt(1)
	}
	p.ConversionRate = p.ConversionRate.Round(6)
	p.AmountReceived = p.AmountOriginal.Mul(p.ConversionRate).Sub(p.Fees).Round(2)
}

// Sentinel errors of the projects module.
var (
	ErrProjectNotFound = errors.New("projects: project not found")
	ErrSalesNotFound   = errors.New("projects: sales record not found")
	ErrPaymentNotFound = errors.New("projects: payment not found")
	ErrSalesClosed     = errors.New("projects: sales record is closed")
	ErrInvalidAmount   = errors.New("projects: amount must be positive")
	ErrInvalidStatus   = errors.New("projects: invalid payment status")
)
