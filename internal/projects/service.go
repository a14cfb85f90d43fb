package projects

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/integration"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// RepositoryPort is implemented by Repository.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// EntryGenerator posts the accounting consequences of project events.
type EntryGenerator interface {
	ProjectBooked(ctx context.Context, projectID int64, projectName string, budget decimal.Decimal, bookedAt time.Time) error
	PaymentReceivedTx(ctx context.Context, tx ledger.TxRepository, paymentID int64, projectName string, amount decimal.Decimal, paidAt time.Time) error
	PaymentReversedTx(ctx context.Context, tx ledger.TxRepository, paymentID int64, projectName string, amount decimal.Decimal, reversedAt time.Time) error
	SalesWrittenOffTx(ctx context.Context, tx ledger.TxRepository, salesID int64, projectName string, remainder decimal.Decimal, closedAt time.Time) error
}

// Service implements project and payment flows.
type Service struct {
	repo      RepositoryPort
	generator EntryGenerator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs Service.
func NewService(repo RepositoryPort, generator EntryGenerator, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		generator: generator,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateProjectInput carries the fields for a new project.
type CreateProjectInput struct {
	Name        string
	Client      string
	Budget      decimal.Decimal
	StartDate   time.Time
	Description string
}

// CreateProject records a project and its sales record, then books the
// budget as receivable revenue. The booking entry is posted after commit in
// its own transaction: a ledger hiccup never loses the project, and the
// deterministic source id means the entry can be regenerated safely.
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (Project, error) {
	if in.Budget.IsNegative() {
		return Project{}, ErrInvalidAmount
	}
	var project Project
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		project, err = tx.InsertProject(ctx, Project{
			Name:        in.Name,
			Client:      in.Client,
			Budget:      in.Budget,
			Status:      ProjectStatusActive,
			StartDate:   in.StartDate,
			Description: in.Description,
		})
		if err != nil {
			return err
		}
		sales := Sales{
			ProjectID: project.ID,
			Budget:    in.Budget,
			Received:  decimal.Zero,
			Status:    SalesStatusOpen,
		}
		sales.Recompute()
		_, err = tx.InsertSales(ctx, sales)
		return err
	})
	if err != nil {
		return Project{}, err
	}

	if err := s.generator.ProjectBooked(ctx, project.ID, project.Name, project.Budget, project.StartDate); err != nil {
		s.logger.Warn("project booking entry not posted",
			"project_id", project.ID, "error", err)
	}
	return project, nil
}

// GetProject loads one project.
func (s *Service) GetProject(ctx context.Context, id int64) (Project, error) {
	var project Project
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		project, err = tx.GetProject(ctx, id)
		return err
	})
	return project, err
}

// ListProjects returns all projects, newest first.
func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, err = tx.ListProjects(ctx)
		return err
	})
	return out, err
}

// GetSales loads the sales record for a project.
func (s *Service) GetSales(ctx context.Context, projectID int64) (Sales, error) {
	var sales Sales
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		sales, err = tx.GetSalesByProjectForUpdate(ctx, projectID)
		return err
	})
	return sales, err
}

// ListPayments returns a project's payments in paid order.
func (s *Service) ListPayments(ctx context.Context, projectID int64) ([]ProjectPayment, error) {
	var out []ProjectPayment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetProject(ctx, projectID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListPayments(ctx, projectID)
		return err
	})
	return out, err
}

// RecordPaymentInput carries the fields for a new payment. ConversionRate
// defaults to 1 when zero; Fees default to zero.
type RecordPaymentInput struct {
	ProjectID      int64
	AmountOriginal decimal.Decimal
	Fees           decimal.Decimal
	ConversionRate decimal.Decimal
	Status         PaymentStatus
	PaidAt         time.Time
	Reference      string
}

func validPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusTransferred, PaymentStatusReconciled, PaymentStatusFailed:
		return true
	}
	return false
}

// RecordPayment persists a payment, then applies it to the sales record and
// the ledger when its status counts. The insert commits first and the apply
// is best effort: an accounting failure is logged, never surfaced, and the
// payment comes back with the recorded flag still false. Re-saving the
// status retries the apply, which is idempotent through that flag.
func (s *Service) RecordPayment(ctx context.Context, in RecordPaymentInput) (ProjectPayment, error) {
	if in.AmountOriginal.Sign() <= 0 || in.Fees.IsNegative() || in.ConversionRate.IsNegative() {
		return ProjectPayment{}, ErrInvalidAmount
	}
	if !validPaymentStatus(in.Status) {
		return ProjectPayment{}, fmt.Errorf("%w: %s", ErrInvalidStatus, in.Status)
	}
	candidate := ProjectPayment{
		ProjectID:      in.ProjectID,
		AmountOriginal: in.AmountOriginal,
		Fees:           in.Fees,
		ConversionRate: in.ConversionRate,
		Status:         in.Status,
		PaidAt:         in.PaidAt,
		Reference:      in.Reference,
	}
	candidate.RecomputeReceived()
	if candidate.AmountReceived.Sign() <= 0 {
		return ProjectPayment{}, ErrInvalidAmount
	}
	var payment ProjectPayment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetProject(ctx, in.ProjectID); err != nil {
			return err
		}
		sales, err := tx.GetSalesByProjectForUpdate(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		if sales.Status == SalesStatusClosed {
			return ErrSalesClosed
		}
		payment, err = tx.InsertPayment(ctx, candidate)
		return err
	})
	if err != nil {
		return ProjectPayment{}, err
	}
	if payment.Status.Counted() {
		if err := s.ApplyPayment(ctx, payment.ID); err != nil {
			s.logger.Warn("payment saved but not applied",
				"payment_id", payment.ID, "error", err)
			return payment, nil
		}
		payment.IsRecordedInSales = true
	}
	return payment, nil
}

// ApplyPayment records a counted payment in the sales totals and posts the
// cash-for-receivable entry, all in one transaction. Applying an already
// recorded payment is a no-op.
func (s *Service) ApplyPayment(ctx context.Context, paymentID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if !payment.Status.Counted() {
			return fmt.Errorf("%w: %s payment cannot be applied", ErrInvalidStatus, payment.Status)
		}
		if payment.IsRecordedInSales {
			return nil
		}
		return s.applyTx(ctx, tx, payment)
	})
}

// applyTx assumes the payment row is locked and not yet recorded.
func (s *Service) applyTx(ctx context.Context, tx TxRepository, payment ProjectPayment) error {
	sales, err := tx.GetSalesByProjectForUpdate(ctx, payment.ProjectID)
	if err != nil {
		return err
	}
	if sales.Status == SalesStatusClosed {
		return ErrSalesClosed
	}
	project, err := tx.GetProject(ctx, payment.ProjectID)
	if err != nil {
		return err
	}
	if err := s.generator.PaymentReceivedTx(ctx, tx.Ledger(), payment.ID, project.Name, payment.AmountReceived, payment.PaidAt); err != nil {
		return err
	}
	sales.Received = sales.Received.Add(payment.AmountReceived)
	sales.Recompute()
	if err := tx.UpdateSales(ctx, sales); err != nil {
		return err
	}
	payment.IsRecordedInSales = true
	return tx.UpdatePayment(ctx, payment)
}

// reverseTx backs a recorded payment out of the sales totals and posts the
// reversing entry. Resolution failures (unmapped role, no open period) are
// logged and skipped so operational cleanup is never blocked by accounting
// configuration; the sales totals still come back in line.
func (s *Service) reverseTx(ctx context.Context, tx TxRepository, payment ProjectPayment) error {
	sales, err := tx.GetSalesByProjectForUpdate(ctx, payment.ProjectID)
	if err != nil {
		return err
	}
	project, err := tx.GetProject(ctx, payment.ProjectID)
	if err != nil {
		return err
	}
	err = s.generator.PaymentReversedTx(ctx, tx.Ledger(), payment.ID, project.Name, payment.AmountReceived, s.now())
	if err != nil {
		if !integration.IsResolutionError(err) {
			return err
		}
		s.logger.Warn("payment reversal entry skipped",
			"payment_id", payment.ID, "error", err)
	}
	sales.Received = sales.Received.Sub(payment.AmountReceived)
	sales.Recompute()
	return tx.UpdateSales(ctx, sales)
}

// UpdatePaymentStatus transitions a payment. Moving into a counted status
// applies the payment; moving out of one reverses it.
func (s *Service) UpdatePaymentStatus(ctx context.Context, paymentID int64, status PaymentStatus) (ProjectPayment, error) {
	if !validPaymentStatus(status) {
		return ProjectPayment{}, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	var updated ProjectPayment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		wasRecorded := payment.IsRecordedInSales
		payment.Status = status
		switch {
		case status.Counted() && !wasRecorded:
			return s.applyTx(ctx, tx, payment)
		case !status.Counted() && wasRecorded:
			if err := s.reverseTx(ctx, tx, payment); err != nil {
				return err
			}
			payment.IsRecordedInSales = false
		}
		if err := tx.UpdatePayment(ctx, payment); err != nil {
			return err
		}
		updated = payment
		return nil
	})
	if err != nil {
		return ProjectPayment{}, err
	}
	if updated.ID == 0 {
		// applyTx already persisted the payment.
		return s.getPayment(ctx, paymentID)
	}
	return updated, nil
}

func (s *Service) getPayment(ctx context.Context, id int64) (ProjectPayment, error) {
	var payment ProjectPayment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		payment, err = tx.GetPaymentForUpdate(ctx, id)
		return err
	})
	return payment, err
}

// DeletePayment removes a payment. A recorded payment is reversed out of the
// sales totals and the ledger first.
func (s *Service) DeletePayment(ctx context.Context, paymentID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payment, err := tx.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.IsRecordedInSales {
			if err := s.reverseTx(ctx, tx, payment); err != nil {
				return err
			}
		}
		return tx.DeletePayment(ctx, paymentID)
	})
}

// CloseSales closes a project's sales record. Any unpaid remainder is
// written off against revenue; resolution failures skip the entry but still
// close the record.
func (s *Service) CloseSales(ctx context.Context, projectID int64) (Sales, error) {
	var closed Sales
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sales, err := tx.GetSalesByProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if sales.Status == SalesStatusClosed {
			return ErrSalesClosed
		}
		project, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		if sales.Difference.Sign() > 0 {
			err := s.generator.SalesWrittenOffTx(ctx, tx.Ledger(), sales.ID, project.Name, sales.Difference, s.now())
			if err != nil {
				if !integration.IsResolutionError(err) {
					return err
				}
				s.logger.Warn("sales write-off entry skipped",
					"sales_id", sales.ID, "error", err)
			}
		}
		sales.Status = SalesStatusClosed
		closedAt := s.now()
		sales.ClosedAt = &closedAt
		if err := tx.UpdateSales(ctx, sales); err != nil {
			return err
		}
		if err := tx.UpdateProjectStatus(ctx, projectID, ProjectStatusCompleted); err != nil {
			return err
		}
		closed = sales
		return nil
	})
	return closed, err
}
