package projects

import (
	"context"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

type fakeRepo struct {
	projects    map[int64]Project
	nextProject int64
	sales       map[int64]Sales
	nextSales   int64
	payments    map[int64]ProjectPayment
	nextPayment int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		projects: map[int64]Project{},
		sales:    map[int64]Sales{},
		payments: map[int64]ProjectPayment{},
	}
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) Ledger() ledger.TxRepository { return nil }

func (f *fakeRepo) InsertProject(_ context.Context, p Project) (Project, error) {
	f.nextProject++
	p.ID = f.nextProject
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeRepo) GetProject(_ context.Context, id int64) (Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListProjects(_ context.Context) ([]Project, error) {
	out := make([]Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRepo) UpdateProjectStatus(_ context.Context, id int64, status ProjectStatus) error {
	p, ok := f.projects[id]
	if !ok {
		return ErrProjectNotFound
	}
	p.Status = status
	f.projects[id] = p
	return nil
}

func (f *fakeRepo) InsertSales(_ context.Context, s Sales) (Sales, error) {
	f.nextSales++
	s.ID = f.nextSales
	f.sales[s.ID] = s
	return s, nil
}

func (f *fakeRepo) GetSalesByProjectForUpdate(_ context.Context, projectID int64) (Sales, error) {
	for _, s := range f.sales {
		if s.ProjectID == projectID {
			return s, nil
		}
	}
	return Sales{}, ErrSalesNotFound
}

func (f *fakeRepo) UpdateSales(_ context.Context, s Sales) error {
	if _, ok := f.sales[s.ID]; !ok {
		return ErrSalesNotFound
	}
	f.sales[s.ID] = s
	return nil
}

func (f *fakeRepo) InsertPayment(_ context.Context, p ProjectPayment) (ProjectPayment, error) {
	f.nextPayment++
	p.ID = f.nextPayment
	f.payments[p.ID] = p
	return p, nil
}

func (f *fakeRepo) GetPaymentForUpdate(_ context.Context, id int64) (ProjectPayment, error) {
	p, ok := f.payments[id]
	if !ok {
		return ProjectPayment{}, ErrPaymentNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListPayments(_ context.Context, projectID int64) ([]ProjectPayment, error) {
	var out []ProjectPayment
	for _, p := range f.payments {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) UpdatePayment(_ context.Context, p ProjectPayment) error {
	if _, ok := f.payments[p.ID]; !ok {
		return ErrPaymentNotFound
	}
	f.payments[p.ID] = p
	return nil
}

func (f *fakeRepo) DeletePayment(_ context.Context, id int64) error {
	if _, ok := f.payments[id]; !ok {
		return ErrPaymentNotFound
	}
	delete(f.payments, id)
	return nil
}

type generatorCall struct {
	kind   string
	id     int64
	amount decimal.Decimal
}

type fakeGenerator struct {
	calls   []generatorCall
	failAll error
}

func (g *fakeGenerator) ProjectBooked(_ context.Context, projectID int64, _ string, budget decimal.Decimal, _ time.Time) error {
	if g.failAll != nil {
		return g.failAll
	}
	g.calls = append(g.calls, generatorCall{"booked", projectID, budget})
	return nil
}

func (g *fakeGenerator) PaymentReceivedTx(_ context.Context, _ ledger.TxRepository, paymentID int64, _ string, amount decimal.Decimal, _ time.Time) error {
	if g.failAll != nil {
		return g.failAll
	}
	g.calls = append(g.calls, generatorCall{"received", paymentID, amount})
	return nil
}

func (g *fakeGenerator) PaymentReversedTx(_ context.Context, _ ledger.TxRepository, paymentID int64, _ string, amount decimal.Decimal, _ time.Time) error {
	if g.failAll != nil {
		return g.failAll
	}
	g.calls = append(g.calls, generatorCall{"reversed", paymentID, amount})
	return nil
}

func (g *fakeGenerator) SalesWrittenOffTx(_ context.Context, _ ledger.TxRepository, salesID int64, _ string, remainder decimal.Decimal, _ time.Time) error {
	if g.failAll != nil {
		return g.failAll
	}
	g.calls = append(g.calls, generatorCall{"writeoff", salesID, remainder})
	return nil
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeGenerator) {
	t.Helper()
	repo := newFakeRepo()
	gen := &fakeGenerator{}
	svc := NewService(repo, gen, slog.Default())
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc, repo, gen
}

func createProject(t *testing.T, svc *Service, budget string) Project {
	t.Helper()
	project, err := svc.CreateProject(context.Background(), CreateProjectInput{
		Name:      "Website build",
		Client:    "Acme",
		Budget:    money(budget),
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return project
}

func TestCreateProjectBooksRevenue(t *testing.T) {
	svc, repo, gen := newTestService(t)

	project := createProject(t, svc, "2000.00")
	require.Equal(t, ProjectStatusActive, project.Status)

	sales, err := svc.GetSales(context.Background(), project.ID)
	require.NoError(t, err)
	require.True(t, sales.Budget.Equal(money("2000.00")))
	require.True(t, sales.Received.IsZero())
	require.True(t, sales.Difference.Equal(money("2000.00")))
	require.Equal(t, SalesStatusOpen, sales.Status)

	require.Len(t, gen.calls, 1)
	require.Equal(t, "booked", gen.calls[0].kind)
	require.Len(t, repo.projects, 1)
}

func TestCreateProjectSurvivesBookingFailure(t *testing.T) {
	svc, repo, gen := newTestService(t)
	gen.failAll = ledger.ErrRoleNotMapped

	project, err := svc.CreateProject(context.Background(), CreateProjectInput{
		Name:      "Unmapped",
		Client:    "Acme",
		Budget:    money("500.00"),
		StartDate: time.Now(),
	})
	require.NoError(t, err)
	require.NotZero(t, project.ID)
	require.Len(t, repo.projects, 1)
}

func TestRecordCountedPaymentUpdatesSales(t *testing.T) {
	svc, _, gen := newTestService(t)
	project := createProject(t, svc, "2000.00")
	ctx := context.Background()

	payment, err := svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("1350.00"),
		Status:         PaymentStatusTransferred,
		PaidAt:         time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, payment.IsRecordedInSales)

	sales, err := svc.GetSales(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, sales.Received.Equal(money("1350.00")))
	require.True(t, sales.Difference.Equal(money("650.00")))

	require.Equal(t, "received", gen.calls[len(gen.calls)-1].kind)
}

func TestRecordPendingPaymentLeavesSalesAlone(t *testing.T) {
	svc, _, gen := newTestService(t)
	project := createProject(t, svc, "2000.00")
	ctx := context.Background()

	payment, err := svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("500.00"),
		Status:         PaymentStatusPending,
		PaidAt:         time.Now(),
	})
	require.NoError(t, err)
	require.False(t, payment.IsRecordedInSales)

	sales, err := svc.GetSales(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, sales.Received.IsZero())
	require.Len(t, gen.calls, 1) // only the booking entry
}

func TestRecordCountedPaymentSurvivesUnmappedRoles(t *testing.T) {
	svc, repo, gen := newTestService(t)
	project := createProject(t, svc, "2000.00")
	ctx := context.Background()

	// CASH mapping missing: the payment must still be saved, unapplied.
	gen.failAll = ledger.ErrRoleNotMapped
	payment, err := svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("1350.00"),
		Status:         PaymentStatusTransferred,
		PaidAt:         time.Now(),
	})
	require.NoError(t, err)
	require.False(t, payment.IsRecordedInSales)
	require.Len(t, repo.payments, 1)

	sales, err := svc.GetSales(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, sales.Received.IsZero())

	// Once the mapping exists, re-saving the status applies the payment.
	gen.failAll = nil
	payment, err = svc.UpdatePaymentStatus(ctx, payment.ID, PaymentStatusTransferred)
	require.NoError(t, err)
	require.True(t, payment.IsRecordedInSales)

	sales, err = svc.GetSales(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, sales.Received.Equal(money("1350.00")))
}

func TestApplyPaymentIsIdempotent(t *testing.T) {
	svc, _, gen := newTestService(t)
	project := createProject(t, svc, "2000.00")
	ctx := context.Background()

	payment, err := svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("1350.00"),
		Status:         PaymentStatusTransferred,
		PaidAt:         time.Now(),
	})
	require.NoError(t, err)

	callsBefore := len(gen.calls)
	require.NoError(t, svc.ApplyPayment(ctx, payment.ID))
	require.Len(t, gen.calls, callsBefore)

	sales, err := svc.GetSales(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, sales.Received.Equal(money("1350.00")), "applying twice must not double count")
}

func TestStatusTransitionsApplyAndReverse(t *testing.T) {
	svc, _, _ := newTestService(t)
	project := createProject(t, svc, "2000.00")
	ctx := context.Background()

	payment, err := svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("700.00"),
		Status:         PaymentStatusPending,
		PaidAt:         time.Now(),
	})
	require.NoError(t, err)

	// Pending -> transferred counts the payment.
	payment, err = svc.UpdatePaymentStatus(ctx, payment.ID, PaymentStatusTransferred)
	require.NoError(t, err)
	require.True(t, payment.IsRecordedInSales)
	sales, err := svc.GetSales(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, sales.Received.Equal(money("700.00")))

	// Transferred -> failed reverses it.
	payment, err = svc.UpdatePaymentStatus(ctx, payment.ID, PaymentStatusFailed)
	require.NoError(t, err)
	require.False(t, payment.IsRecordedInSales)
	sales, err = svc.GetSales(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, sales.Received.IsZero())
	require.True(t, sales.Difference.Equal(money("2000.00")))
}

func TestDeleteRecordedPaymentReverses(t *testing.T) {
	svc, repo, gen := newTestService(t)
	project := createProject(t, svc, "2000.00")
	ctx := context.Background()

	payment, err := svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("1350.00"),
		Status:         PaymentStatusTransferred,
		PaidAt:         time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePayment(ctx, payment.ID))
	require.Empty(t, repo.payments)
	require.Equal(t, "reversed", gen.calls[len(gen.calls)-1].kind)

	sales, err := svc.GetSales(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, sales.Received.IsZero())
}

func TestDeletePaymentSkipsReversalOnResolutionError(t *testing.T) {
	svc, repo, gen := newTestService(t)
	project := createProject(t, svc, "2000.00")
	ctx := context.Background()

	payment, err := svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("300.00"),
		Status:         PaymentStatusTransferred,
		PaidAt:         time.Now(),
	})
	require.NoError(t, err)

	// Mapping removed after the payment was applied.
	gen.failAll = ledger.ErrRoleNotMapped
	require.NoError(t, svc.DeletePayment(ctx, payment.ID))
	require.Empty(t, repo.payments)

	sales, err := svc.GetSales(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, sales.Received.IsZero(), "sales totals recover even without the entry")
}

func TestReceivedNeverGoesNegative(t *testing.T) {
	svc, repo, _ := newTestService(t)
	project := createProject(t, svc, "2000.00")
	ctx := context.Background()

	payment, err := svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("400.00"),
		Status:         PaymentStatusTransferred,
		PaidAt:         time.Now(),
	})
	require.NoError(t, err)

	// Simulate drift: received was already zeroed out of band.
	for id, s := range repo.sales {
		s.Received = decimal.Zero
		s.Recompute()
		repo.sales[id] = s
	}

	require.NoError(t, svc.DeletePayment(ctx, payment.ID))
	sales, err := svc.GetSales(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, sales.Received.IsZero())
	require.True(t, sales.Difference.Equal(money("2000.00")))
}

func TestCloseSalesWritesOffRemainder(t *testing.T) {
	svc, repo, gen := newTestService(t)
	project := createProject(t, svc, "2000.00")
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("1350.00"),
		Status:         PaymentStatusTransferred,
		PaidAt:         time.Now(),
	})
	require.NoError(t, err)

	closed, err := svc.CloseSales(ctx, project.ID)
	require.NoError(t, err)
	require.Equal(t, SalesStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	require.Equal(t, time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC), *closed.ClosedAt)

	last := gen.calls[len(gen.calls)-1]
	require.Equal(t, "writeoff", last.kind)
	require.True(t, last.amount.Equal(money("650.00")))
	require.Equal(t, ProjectStatusCompleted, repo.projects[project.ID].Status)

	// Closing twice fails, and a closed record takes no more payments.
	_, err = svc.CloseSales(ctx, project.ID)
	require.ErrorIs(t, err, ErrSalesClosed)
	_, err = svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("10.00"),
		Status:         PaymentStatusTransferred,
		PaidAt:         time.Now(),
	})
	require.ErrorIs(t, err, ErrSalesClosed)
}

func TestCloseFullyPaidSalesSkipsWriteOff(t *testing.T) {
	svc, _, gen := newTestService(t)
	project := createProject(t, svc, "1000.00")
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("1000.00"),
		Status:         PaymentStatusReconciled,
		PaidAt:         time.Now(),
	})
	require.NoError(t, err)

	_, err = svc.CloseSales(ctx, project.ID)
	require.NoError(t, err)
	for _, call := range gen.calls {
		require.NotEqual(t, "writeoff", call.kind)
	}
}

func TestRecordPaymentDerivesReceivedAmount(t *testing.T) {
	svc, _, gen := newTestService(t)
	project := createProject(t, svc, "2000.00")
	ctx := context.Background()

	// 1500 USD at 0.900000 minus 25 in fees settles as 1325.00.
	payment, err := svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("1500.00"),
		Fees:           money("25.00"),
		ConversionRate: money("0.9"),
		Status:         PaymentStatusTransferred,
		PaidAt:         time.Now(),
	})
	require.NoError(t, err)
	require.True(t, payment.AmountReceived.Equal(money("1325.00")))
	require.True(t, payment.ConversionRate.Equal(money("0.9")))

	sales, err := svc.GetSales(ctx, project.ID)
	require.NoError(t, err)
	require.True(t, sales.Received.Equal(money("1325.00")), "sales totals use the settled figure")
	require.True(t, gen.calls[len(gen.calls)-1].amount.Equal(money("1325.00")), "ledger entry uses the settled figure")
}

func TestRecordPaymentDefaultsRateToOne(t *testing.T) {
	svc, _, _ := newTestService(t)
	project := createProject(t, svc, "2000.00")

	payment, err := svc.RecordPayment(context.Background(), RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("400.00"),
		Status:         PaymentStatusPending,
		PaidAt:         time.Now(),
	})
	require.NoError(t, err)
	require.True(t, payment.AmountReceived.Equal(money("400.00")))
	require.True(t, payment.ConversionRate.Equal(money("1")))
}

func TestRecordPaymentValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	project := createProject(t, svc, "2000.00")
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("-5.00"),
		Status:         PaymentStatusPending,
		PaidAt:         time.Now(),
	})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("5.00"),
		Status:         PaymentStatus("BOGUS"),
		PaidAt:         time.Now(),
	})
	require.ErrorIs(t, err, ErrInvalidStatus)

	// Fees swallowing the whole converted amount leave nothing to receive.
	_, err = svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      project.ID,
		AmountOriginal: money("20.00"),
		Fees:           money("20.00"),
		Status:         PaymentStatusPending,
		PaidAt:         time.Now(),
	})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordPayment(ctx, RecordPaymentInput{
		ProjectID:      999,
		AmountOriginal: money("5.00"),
		Status:         PaymentStatusPending,
		PaidAt:         time.Now(),
	})
	require.ErrorIs(t, err, ErrProjectNotFound)
}
