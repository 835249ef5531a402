package promo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Fetch looks up a promo definition by code, case-insensitively.
func Fetch(ctx context.Context, db sqlx.ExtContext, code string) (Promo, error) {
	const q = `SELECT * FROM promos WHERE code = $1`

	var p Promo
	if err := sqlx.GetContext(ctx, db, &p, q, strings.ToUpper(strings.TrimSpace(code))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Promo{}, ErrNotFound
		}
		return Promo{}, fmt.Errorf("fetching promo[%s]: %w", code, err)
	}

	return p, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Promo, error) {
	const q = `SELECT * FROM promos ORDER BY code`

	promos := []Promo{}
	if err := sqlx.SelectContext(ctx, db, &promos, q); err != nil {
		return nil, fmt.Errorf("listing promos: %w", err)
	}

	return promos, nil
}

// Catalog adapts the promos table to the Finder interface.
type Catalog struct {
	DB *sqlx.DB
}

func (c Catalog) Find(ctx context.Context, code string) (Promo, error) {
	return Fetch(ctx, c.DB, code)
}
