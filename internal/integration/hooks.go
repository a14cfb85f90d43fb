// Package integration wires business events from operational modules into
// the general ledger. Every generated entry carries a deterministic source
// id, so replaying an event can never double-post.
package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// Ledger exposes the posting operations the generator needs.
type Ledger interface {
	Post(ctx context.Context, in ledger.PostingInput) (ledger.JournalEntry, error)
	PostTx(ctx context.Context, tx ledger.TxRepository, in ledger.PostingInput) (ledger.JournalEntry, error)
	ResolveRole(ctx context.Context, role ledger.Role) (ledger.Account, error)
}

var sourceNamespace = uuid.MustParse("9f2c1b7e-4a3d-4e5f-8b6a-1c2d3e4f5a6b")

// SourceID derives a stable uuid for a business event. The same event key
// always maps to the same id, which the source link table deduplicates.
func SourceID(kind string, id int64) uuid.UUID {
	return uuid.NewSHA1(sourceNamespace, []byte(fmt.Sprintf("%s:%d", kind, id)))
}

// IsResolutionError reports whether posting failed before anything was
// written: a missing role mapping, a missing account, or no open period.
// Callers doing best-effort accounting may skip and log these; any other
// error means a write failed and must abort the caller's transaction.
func IsResolutionError(err error) bool {
	return errors.Is(err, ledger.ErrRoleNotMapped) ||
		errors.Is(err, ledger.ErrAccountNotFound) ||
		errors.Is(err, ledger.ErrAccountInactive) ||
		errors.Is(err, ledger.ErrNoOpenPeriod)
}

// Generator posts the double-entry consequences of project and payment
// events.
type Generator struct {
	ledger Ledger
	logger *slog.Logger
}

// NewGenerator constructs Generator.
func NewGenerator(ledger Ledger, logger *slog.Logger) *Generator {
	return &Generator{ledger: ledger, logger: logger}
}

func (g *Generator) roleAccounts(ctx context.Context, roles ...ledger.Role) (map[ledger.Role]ledger.Account, error) {
	out := make(map[ledger.Role]ledger.Account, len(roles))
	for _, role := range roles {
		account, err := g.ledger.ResolveRole(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", role, err)
		}
		out[role] = account
	}
	return out, nil
}

// ProjectBooked records the revenue recognised when a project's sales row is
// created: debit receivable, credit revenue. Posted in its own transaction;
// a duplicate event is a no-op.
func (g *Generator) ProjectBooked(ctx context.Context, projectID int64, projectName string, budget decimal.Decimal, bookedAt time.Time) error {
	if budget.Sign() <= 0 {
		return nil
	}
	accounts, err := g.roleAccounts(ctx, ledger.RoleAccountsReceivable, ledger.RoleSalesRevenue)
	if err != nil {
		return err
	}
	_, err = g.ledger.Post(ctx, ledger.PostingInput{
		Type:         ledger.EntryTypeSystem,
		Date:         bookedAt,
		Memo:         fmt.Sprintf("Project booked: %s", projectName),
		SourceModule: "projects",
		SourceID:     SourceID("PROJECT", projectID),
		CreatedBy:    "system",
		Lines: []ledger.LineInput{
			{AccountID: accounts[ledger.RoleAccountsReceivable].ID, Description: "Receivable on booking", Debit: budget},
			{AccountID: accounts[ledger.RoleSalesRevenue].ID, Description: "Revenue on booking", Credit: budget},
		},
	})
	if errors.Is(err, ledger.ErrSourceAlreadyLinked) {
		g.logger.Info("project booking already posted", "project_id", projectID)
		return nil
	}
	return err
}

// PaymentReceivedTx moves a counted payment from receivable to cash inside
// the caller's transaction: debit cash, credit receivable.
func (g *Generator) PaymentReceivedTx(ctx context.Context, tx ledger.TxRepository, paymentID int64, projectName string, amount decimal.Decimal, paidAt time.Time) error {
	accounts, err := g.roleAccounts(ctx, ledger.RoleCash, ledger.RoleAccountsReceivable)
	if err != nil {
		return err
	}
	_, err = g.ledger.PostTx(ctx, tx, ledger.PostingInput{
		Type:         ledger.EntryTypeSystem,
		Date:         paidAt,
		Memo:         fmt.Sprintf("Payment received: %s", projectName),
		SourceModule: "payments",
		SourceID:     SourceID("PAYMENT", paymentID),
		CreatedBy:    "system",
		Lines: []ledger.LineInput{
			{AccountID: accounts[ledger.RoleCash].ID, Description: "Cash collected", Debit: amount},
			{AccountID: accounts[ledger.RoleAccountsReceivable].ID, Description: "Receivable settled", Credit: amount},
		},
	})
	if errors.Is(err, ledger.ErrSourceAlreadyLinked) {
		g.logger.Info("payment already posted", "payment_id", paymentID)
		return nil
	}
	return err
}

// PaymentReversedTx undoes a previously recorded payment inside the caller's
// transaction: debit receivable, credit cash.
func (g *Generator) PaymentReversedTx(ctx context.Context, tx ledger.TxRepository, paymentID int64, projectName string, amount decimal.Decimal, reversedAt time.Time) error {
	accounts, err := g.roleAccounts(ctx, ledger.RoleCash, ledger.RoleAccountsReceivable)
	if err != nil {
		return err
	}
	_, err = g.ledger.PostTx(ctx, tx, ledger.PostingInput{
		Type:         ledger.EntryTypeSystem,
		Date:         reversedAt,
		Memo:         fmt.Sprintf("Payment reversed: %s", projectName),
		SourceModule: "payments",
		SourceID:     SourceID("PAYMENT-REVERSAL", paymentID),
		CreatedBy:    "system",
		Lines: []ledger.LineInput{
			{AccountID: accounts[ledger.RoleAccountsReceivable].ID, Description: "Receivable restored", Debit: amount},
			{AccountID: accounts[ledger.RoleCash].ID, Description: "Cash returned", Credit: amount},
		},
	})
	if errors.Is(err, ledger.ErrSourceAlreadyLinked) {
		g.logger.Info("payment reversal already posted", "payment_id", paymentID)
		return nil
	}
	return err
}

// SalesWrittenOffTx reverses the unpaid remainder when a sales record closes
// short of its budget: debit revenue, credit receivable.
func (g *Generator) SalesWrittenOffTx(ctx context.Context, tx ledger.TxRepository, salesID int64, projectName string, remainder decimal.Decimal, closedAt time.Time) error {
	if remainder.Sign() <= 0 {
		return nil
	}
	accounts, err := g.roleAccounts(ctx, ledger.RoleAccountsReceivable, ledger.RoleSalesRevenue)
	if err != nil {
		return err
	}
	_, err = g.ledger.PostTx(ctx, tx, ledger.PostingInput{
		Type:         ledger.EntryTypeSystem,
		Date:         closedAt,
		Memo:         fmt.Sprintf("Sales closed short: %s", projectName),
		SourceModule: "sales",
		SourceID:     SourceID("SALES-CLOSE", salesID),
		CreatedBy:    "system",
		Lines: []ledger.LineInput{
			{AccountID: accounts[ledger.RoleSalesRevenue].ID, Description: "Revenue written off", Debit: remainder},
			{AccountID: accounts[ledger.RoleAccountsReceivable].ID, Description: "Receivable written off", Credit: remainder},
		},
	})
	if errors.Is(err, ledger.ErrSourceAlreadyLinked) {
		g.logger.Info("sales write-off already posted", "sales_id", salesID)
		return nil
	}
	return err
}
