package order

import (
	"context"
	"errors"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/wshao/campus-market/api/web"
	"github.com/wshao/campus-market/api/weberr"
	"github.com/wshao/campus-market/core/claims"
	"github.com/wshao/campus-market/validate"
)

// HandleList returns the authenticated customer's order history, newest
// first.
func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		orders, err := FetchByEmail(ctx, db, clm.Email)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, orders, http.StatusOK)
	}
}

// HandleShowItems returns the line items of one of the customer's orders.
func HandleShowItems(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NotFound(err)
		}

		orders, err := FetchByEmail(ctx, db, clm.Email)
		if err != nil {
			return err
		}

		owned := false
		for _, o := range orders {
			if o.ID == id {
				owned = true
				break
			}
		}
		if !owned {
			return weberr.NotFound(errors.New("order not found"))
		}

		items, err := FetchItems(ctx, db, id)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, items, http.StatusOK)
	}
}
