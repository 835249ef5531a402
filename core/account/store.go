package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned when a debit exceeds the current
// balance. No partial debit occurs.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Balance returns the customer's balance; an account that was never
// credited reads as zero.
func Balance(ctx context.Context, db sqlx.ExtContext, email string) (decimal.Decimal, error) {
	const q = `SELECT balance FROM accounts WHERE email = $1`

	var bal decimal.Decimal
	if err := sqlx.GetContext(ctx, db, &bal, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("fetching balance of %s: %w", email, err)
	}

	return bal, nil
}

// Credit adds amount to the customer's balance, creating the account row
// on first use.
func Credit(ctx context.Context, db sqlx.ExtContext, email string, amount decimal.Decimal) error {
	const q = `
	INSERT INTO accounts (email, balance, updated_at) VALUES ($1, $2, $3)
	ON CONFLICT (email) DO UPDATE SET balance = accounts.balance + $2, updated_at = $3`

	if _, err := db.ExecContext(ctx, q, email, amount, time.Now().UTC()); err != nil {
		return fmt.Errorf("crediting %s: %w", email, err)
	}

	return nil
}

// Debit subtracts amount from the customer's balance. The sufficiency
// check lives in the statement so a concurrent debit cannot overdraw.
func Debit(ctx context.Context, db sqlx.ExtContext, email string, amount decimal.Decimal) error {
	const q = `
	UPDATE accounts SET balance = balance - $2, updated_at = $3
	WHERE email = $1 AND balance >= $2`

	res, err := db.ExecContext(ctx, q, email, amount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("debiting %s: %w", email, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debiting %s: %w", email, err)
	}
	if n == 0 {
		return ErrInsufficientFunds
	}

	return nil
}

// Store adapts the accounts table to the checkout engine.
type Store struct {
	DB *sqlx.DB
}

func (s Store) Balance(ctx context.Context, email string) (decimal.Decimal, error) {
	return Balance(ctx, s.DB, email)
}

func (s Store) Debit(ctx context.Context, email string, amount decimal.Decimal) error {
	return Debit(ctx, s.DB, email, amount)
}
