package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/wshao/campus-market/random"
)

// Payment records the balance movement of one order, one-to-one with the
// order header.
type Payment struct {
	OrderID       string          `json:"orderId" db:"order_id"`
	Reference     string          `json:"reference" db:"reference"`
	BalanceBefore decimal.Decimal `json:"balanceBefore" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter" db:"balance_after"`
	PaidAt        time.Time       `json:"paidAt" db:"paid_at"`
}

func Create(ctx context.Context, db sqlx.ExtContext, pay Payment) error {
	const q = `
	INSERT INTO payments (order_id, reference, balance_before, balance_after, paid_at)
	VALUES (:order_id, :reference, :balance_before, :balance_after, :paid_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, pay); err != nil {
		return fmt.Errorf("inserting payment for order[%s]: %w", pay.OrderID, err)
	}

	return nil
}

// Ledger adapts the payments table to the checkout engine.
type Ledger struct {
	DB *sqlx.DB
}

func (l Ledger) Append(ctx context.Context, pay Payment) error {
	if pay.Reference == "" {
		pay.Reference = random.String(12)
	}
	if pay.PaidAt.IsZero() {
		pay.PaidAt = time.Now().UTC()
	}
	return Create(ctx, l.DB, pay)
}
