// Package store holds the directory of campus pickup locations.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/wshao/campus-market/api/web"
	"github.com/wshao/campus-market/api/weberr"
)

var ErrNotFound = errors.New("store not found")

type Store struct {
	ID      string `json:"id" db:"store_id"`
	Name    string `json:"name" db:"name"`
	Address string `json:"address" db:"address"`
	Hours   string `json:"hours" db:"hours"`
	Phone   string `json:"phone" db:"phone"`
}

// Location renders the store for an order's location field.
func (s Store) Location() string {
	return s.Name + " - " + s.Address
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Store, error) {
	const q = `SELECT * FROM stores WHERE store_id = $1`

	var s Store
	if err := sqlx.GetContext(ctx, db, &s, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Store{}, ErrNotFound
		}
		return Store{}, fmt.Errorf("fetching store[%s]: %w", id, err)
	}

	return s, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Store, error) {
	const q = `SELECT * FROM stores ORDER BY store_id`

	stores := []Store{}
	if err := sqlx.SelectContext(ctx, db, &stores, q); err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}

	return stores, nil
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		stores, err := FetchAll(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, stores, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		s, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, s, http.StatusOK)
	}
}
