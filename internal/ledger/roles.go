package ledger

import "context"

// Role is a stable symbolic name for an account consumed by automatic entry
// generation. Generators depend on roles, never on display names, so renaming
// an account cannot break postings.
type Role string

const (
	RoleCash               Role = "CASH"
	RoleAccountsReceivable Role = "ACCOUNTS_RECEIVABLE"
	RoleSalesRevenue       Role = "SALES_REVENUE"
)

// ResolveRole returns the account mapped to a symbolic role.
func (s *Service) ResolveRole(ctx context.Context, role Role) (Account, error) {
	var account Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		account, err = tx.GetRoleAccount(ctx, role)
		return err
	})
	return account, err
}

// MapRole binds a role to an account, replacing any previous binding.
func (s *Service) MapRole(ctx context.Context, role Role, accountID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetAccount(ctx, accountID); err != nil {
			return err
		}
		return tx.UpsertRoleMapping(ctx, role, accountID)
	})
}
