package order

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/wshao/campus-market/database"
	"github.com/wshao/campus-market/validate"
)

func Create(ctx context.Context, db sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders
		(order_id, email, fulfilment, location, promo, subtotal, discount, fee, total, created_at)
	VALUES
		(:order_id, :email, :fulfilment, :location, :promo, :subtotal, :discount, :fee, :total, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ord); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items (order_id, product_id, quantity)
	VALUES (:order_id, :product_id, :quantity)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}

	return nil
}

func FetchByEmail(ctx context.Context, db sqlx.ExtContext, email string) ([]Order, error) {
	const q = `SELECT * FROM orders WHERE email = $1 ORDER BY created_at DESC`

	orders := []Order{}
	if err := sqlx.SelectContext(ctx, db, &orders, q, email); err != nil {
		return nil, fmt.Errorf("listing orders of %s: %w", email, err)
	}

	return orders, nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, orderID string) ([]Item, error) {
	const q = `SELECT * FROM order_items WHERE order_id = $1`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, orderID); err != nil {
		return nil, fmt.Errorf("listing items of order[%s]: %w", orderID, err)
	}

	return items, nil
}

func CountByEmail(ctx context.Context, db sqlx.ExtContext, email string) (int, error) {
	const q = `SELECT COUNT(*) FROM orders WHERE email = $1`

	var n int
	if err := sqlx.GetContext(ctx, db, &n, q, email); err != nil {
		return 0, fmt.Errorf("counting orders of %s: %w", email, err)
	}

	return n, nil
}

// Ledger adapts the order tables to the checkout engine: one Append writes
// the header and all item rows in a single transaction.
type Ledger struct {
	DB *sqlx.DB
}

func (l Ledger) Append(ctx context.Context, ord Order, items []Item) (string, error) {
	ord.ID = validate.GenerateID()
	ord.CreatedAt = time.Now().UTC()

	err := database.Transaction(l.DB, func(tx sqlx.ExtContext) error {
		if err := Create(ctx, tx, ord); err != nil {
			return err
		}

		for _, it := range items {
			it.OrderID = ord.ID
			if err := CreateItem(ctx, tx, it); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return "", fmt.Errorf("appending order for %s: %w", ord.Email, err)
	}
	return ord.ID, nil
}

func (l Ledger) CountPriorOrders(ctx context.Context, email string) (int, error) {
	return CountByEmail(ctx, l.DB, email)
}
