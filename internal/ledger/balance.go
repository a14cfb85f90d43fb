package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidWindow indicates a reporting window with from after to.
var ErrInvalidWindow = errors.New("ledger: window start after end")

// Window bounds a balance computation. A nil From means "from the beginning
// of time", i.e. an as-of query.
type Window struct {
	From *time.Time
	To   time.Time
}

// AsOf builds a window covering everything dated on or before the given date.
func AsOf(date time.Time) Window {
	return Window{To: date}
}

// Between builds an inclusive [from,to] window.
func Between(from, to time.Time) (Window, error) {
	if from.After(to) {
		return Window{}, ErrInvalidWindow
	}
	f := from
	return Window{From: &f, To: to}, nil
}

// Balance computes the signed balance of an account over the window. Only
// lines of POSTED entries count; DRAFT and REVERSED entries are always
// excluded. The sign follows the account's normal balance. This is the
// single authoritative balance definition reused by every statement.
func (s *Service) Balance(ctx context.Context, accountID int64, win Window) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		debits, credits, err := tx.SumAccountActivity(ctx, accountID, win)
		if err != nil {
			return err
		}
		balance = signedBalance(account.NormalBalance, debits, credits)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func signedBalance(nb NormalBalance, debits, credits decimal.Decimal) decimal.Decimal {
	if nb == NormalBalanceCredit {
		return credits.Sub(debits)
	}
	return debits.Sub(credits)
}
