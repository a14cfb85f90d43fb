package ledger

import (
	"context"
	"fmt"
	"time"
)

type seedAccount struct {
	code        string
	name        string
	accountType AccountType
}

var defaultChart = []seedAccount{
	{"1000", "Cash", AccountTypeAsset},
	{"1100", "Accounts Receivable", AccountTypeAsset},
	{"1200", "Equipment", AccountTypeAsset},
	{"2000", "Accounts Payable", AccountTypeLiability},
	{"2100", "Salaries Payable", AccountTypeLiability},
	{"3000", "Retained Earnings", AccountTypeEquity},
	{"4000", "Sales Revenue", AccountTypeRevenue},
	{"4100", "Service Revenue", AccountTypeRevenue},
	{"5000", "Salaries Expense", AccountTypeExpense},
	{"5100", "Rent Expense", AccountTypeExpense},
	{"5200", "Office Supplies Expense", AccountTypeExpense},
}

var defaultRoles = map[Role]string{
	RoleCash:               "1000",
	RoleAccountsReceivable: "1100",
	RoleSalesRevenue:       "4000",
}

// EnsureDefaults seeds the chart of accounts, a current-year calendar with
// quarterly periods, and the role mappings the automatic entry generator
// needs. Safe to call on every startup; each block runs only on empty tables.
func (s *Service) EnsureDefaults(ctx context.Context, now time.Time) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		accountCount, err := tx.CountAccounts(ctx)
		if err != nil {
			return err
		}
		if accountCount == 0 {
			for _, seed := range defaultChart {
				account := Account{
					Code:          seed.code,
					Name:          seed.name,
					Type:          seed.accountType,
					NormalBalance: seed.accountType.DefaultNormalBalance(),
					IsActive:      true,
				}
				if _, err := tx.InsertAccount(ctx, account); err != nil {
					return fmt.Errorf("seed account %s: %w", seed.code, err)
				}
			}
			s.logger.Info("seeded default chart of accounts", "accounts", len(defaultChart))
		}

		periodCount, err := tx.CountPeriods(ctx)
		if err != nil {
			return err
		}
		if periodCount == 0 {
			if err := s.seedCalendar(ctx, tx, now.Year()); err != nil {
				return err
			}
		}

		for role, code := range defaultRoles {
			if _, err := tx.GetRoleAccount(ctx, role); err == nil {
				continue
			}
			account, err := tx.GetAccountByCode(ctx, code)
			if err != nil {
				return fmt.Errorf("map role %s: %w", role, err)
			}
			if err := tx.UpsertRoleMapping(ctx, role, account.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) seedCalendar(ctx context.Context, tx TxRepository, year int) error {
	fy, err := tx.InsertFiscalYear(ctx, FiscalYear{
		Name:      fmt.Sprintf("FY %d", year),
		StartDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return err
	}
	for q := 0; q < 4; q++ {
		start := time.Date(year, time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 3, 0).AddDate(0, 0, -1)
		period := Period{
			FiscalYearID: fy.ID,
			Name:         fmt.Sprintf("Q%d %d", q+1, year),
			StartDate:    start,
			EndDate:      end,
		}
		if _, err := tx.InsertPeriod(ctx, period); err != nil {
			return err
		}
	}
	s.logger.Info("seeded fiscal calendar", "fiscal_year", fy.Name)
	return nil
}
