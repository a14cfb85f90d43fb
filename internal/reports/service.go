package reports

import (
	"context"
	"log/slog"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// Service builds statements, caching results until the next posting.
type Service struct {
	repo   *Repository
	cache  *Cache
	logger *slog.Logger
}

// NewService constructs Service. cache may be nil.
func NewService(repo *Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

const dayFormat = "2006-01-02"

// TrialBalance builds the trial balance as of a date.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	key, err := s.cache.BuildKey(ctx, "statements", "tb", asOf.Format(dayFormat))
	if err != nil {
		return TrialBalance{}, err
	}
	var tb TrialBalance
	err = s.cache.FetchJSON(ctx, key, &tb, func(ctx context.Context) (any, error) {
		activity, err := s.repo.ActivityByAccount(ctx, nil, asOf)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(activity, asOf), nil
	})
	return tb, err
}

// BalanceSheet builds the balance sheet as of a date.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	key, err := s.cache.BuildKey(ctx, "statements", "bs", asOf.Format(dayFormat))
	if err != nil {
		return BalanceSheet{}, err
	}
	var bs BalanceSheet
	err = s.cache.FetchJSON(ctx, key, &bs, func(ctx context.Context) (any, error) {
		activity, err := s.repo.ActivityByAccount(ctx, nil, asOf)
		if err != nil {
			return nil, err
		}
		return BuildBalanceSheet(activity, asOf), nil
	})
	return bs, err
}

// IncomeStatement builds the income statement over [from,to].
func (s *Service) IncomeStatement(ctx context.Context, from, to time.Time) (IncomeStatement, error) {
	if from.After(to) {
		return IncomeStatement{}, ledger.ErrInvalidWindow
	}
	key, err := s.cache.BuildKey(ctx, "statements", "is", from.Format(dayFormat), to.Format(dayFormat))
	if err != nil {
		return IncomeStatement{}, err
	}
	var is IncomeStatement
	err = s.cache.FetchJSON(ctx, key, &is, func(ctx context.Context) (any, error) {
		activity, err := s.repo.ActivityByAccount(ctx, &from, to)
		if err != nil {
			return nil, err
		}
		return BuildIncomeStatement(activity, from, to), nil
	})
	return is, err
}

// CashFlow builds the cash flow statement over [from,to].
func (s *Service) CashFlow(ctx context.Context, from, to time.Time) (CashFlowStatement, error) {
	if from.After(to) {
		return CashFlowStatement{}, ledger.ErrInvalidWindow
	}
	key, err := s.cache.BuildKey(ctx, "statements", "cf", from.Format(dayFormat), to.Format(dayFormat))
	if err != nil {
		return CashFlowStatement{}, err
	}
	var cf CashFlowStatement
	err = s.cache.FetchJSON(ctx, key, &cf, func(ctx context.Context) (any, error) {
		movements, err := s.repo.CashMovements(ctx, from, to)
		if err != nil {
			return nil, err
		}
		beginning, err := s.repo.CashBalance(ctx, from.AddDate(0, 0, -1))
		if err != nil {
			return nil, err
		}
		return BuildCashFlow(movements, beginning, from, to), nil
	})
	return cf, err
}
