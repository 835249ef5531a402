package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when no product carries the requested id.
	ErrNotFound = errors.New("product not found")

	// ErrStockConflict is returned when an adjustment would drive stock
	// below zero. Callers validating stock beforehand must treat it as a
	// consistency failure, not a user error.
	ErrStockConflict = errors.New("stock adjustment would go negative")
)

func Create(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	INSERT INTO products
		(product_id, name, category, subcategory, brand, description, price, member_price, stock, created_at, updated_at)
	VALUES
		(:product_id, :name, :category, :subcategory, :brand, :description, :price, :member_price, :stock, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}

	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	UPDATE products SET
		name = :name,
		category = :category,
		subcategory = :subcategory,
		brand = :brand,
		description = :description,
		price = :price,
		member_price = :member_price,
		stock = :stock,
		updated_at = :updated_at
	WHERE product_id = :product_id`

	res, err := sqlx.NamedExecContext(ctx, db, q, p)
	if err != nil {
		return fmt.Errorf("updating product[%s]: %w", p.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM products WHERE product_id = $1`

	res, err := db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("deleting product[%s]: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Product, error) {
	const q = `SELECT * FROM products WHERE product_id = $1`

	var p Product
	if err := sqlx.GetContext(ctx, db, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("fetching product[%s]: %w", id, err)
	}

	return p, nil
}

// FetchAll lists the catalog with in-stock items first, then name ascending.
// The filter builds optional WHERE clauses; Search matches name, brand,
// category and subcategory case-insensitively.
func FetchAll(ctx context.Context, db sqlx.ExtContext, f Filter) ([]Product, error) {
	q := strings.Builder{}
	q.WriteString(`SELECT * FROM products`)

	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		p := arg("%" + strings.ToLower(f.Search) + "%")
		clauses = append(clauses, fmt.Sprintf(
			`(lower(name) LIKE %[1]s OR lower(brand) LIKE %[1]s OR lower(category) LIKE %[1]s OR lower(subcategory) LIKE %[1]s)`, p))
	}
	if f.Category != "" {
		clauses = append(clauses, fmt.Sprintf(`lower(category) = %s`, arg(strings.ToLower(f.Category))))
	}
	if f.Brand != "" {
		clauses = append(clauses, fmt.Sprintf(`lower(brand) = %s`, arg(strings.ToLower(f.Brand))))
	}
	if f.MinPrice != nil {
		clauses = append(clauses, fmt.Sprintf(`price >= %s`, arg(*f.MinPrice)))
	}
	if f.MaxPrice != nil {
		clauses = append(clauses, fmt.Sprintf(`price <= %s`, arg(*f.MaxPrice)))
	}
	if f.InStockOnly {
		clauses = append(clauses, `stock > 0`)
	}

	if len(clauses) > 0 {
		q.WriteString(" WHERE " + strings.Join(clauses, " AND "))
	}
	q.WriteString(` ORDER BY (stock <= 0), lower(name)`)

	products := []Product{}
	if err := sqlx.SelectContext(ctx, db, &products, q.String(), args...); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	return products, nil
}

// Categories returns the distinct non-blank categories, normalized to
// lower case and trimmed.
func Categories(ctx context.Context, db sqlx.ExtContext) ([]string, error) {
	const q = `
	SELECT DISTINCT lower(btrim(category)) FROM products
	WHERE btrim(category) <> ''`

	cats := []string{}
	if err := sqlx.SelectContext(ctx, db, &cats, q); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	return cats, nil
}

// AdjustStock applies delta to the product's stock, refusing to go below
// zero. The guard is enforced in the statement itself so two writers
// cannot both decrement past the last unit.
func AdjustStock(ctx context.Context, db sqlx.ExtContext, id string, delta int) error {
	const q = `
	UPDATE products SET stock = stock + $2, updated_at = $3
	WHERE product_id = $1 AND stock + $2 >= 0`

	res, err := db.ExecContext(ctx, q, id, delta, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("adjusting stock of product[%s]: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjusting stock of product[%s]: %w", id, err)
	}
	if n == 0 {
		if _, err := Fetch(ctx, db, id); err != nil {
			return err
		}
		return ErrStockConflict
	}

	return nil
}

// Store adapts the package queries to the interfaces the checkout engine
// depends on.
type Store struct {
	DB *sqlx.DB
}

func (s Store) Get(ctx context.Context, id string) (Product, error) {
	return Fetch(ctx, s.DB, id)
}

func (s Store) AdjustStock(ctx context.Context, id string, delta int) error {
	return AdjustStock(ctx, s.DB, id, delta)
}
