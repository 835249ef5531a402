package membership

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/wshao/campus-market/api/web"
	"github.com/wshao/campus-market/api/weberr"
	"github.com/wshao/campus-market/core/account"
	"github.com/wshao/campus-market/core/claims"
	"github.com/wshao/campus-market/database"
)

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		m, err := Fetch(ctx, db, clm.Email)
		if err != nil {
			if errors.Is(err, ErrNoMembership) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, m, http.StatusOK)
	}
}

// HandlePurchase buys or renews a membership for one year, debiting the
// yearly fee from the stored balance. Renewal extends a still-active
// membership from its current end date.
func HandlePurchase(db *sqlx.DB, fee decimal.Decimal) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var ext Membership
		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := account.Debit(ctx, tx, clm.Email, fee); err != nil {
				return err
			}

			cur, err := Fetch(ctx, tx, clm.Email)
			if err != nil && !errors.Is(err, ErrNoMembership) {
				return err
			}

			ext = cur.Extend(clm.Email, time.Now().UTC())
			return Upsert(ctx, tx, ext)
		})
		if err != nil {
			if errors.Is(err, account.ErrInsufficientFunds) {
				return weberr.Unprocessable(err)
			}
			return err
		}

		return web.Respond(ctx, w, ext, http.StatusOK)
	}
}

func HandleCancel(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		m, err := Fetch(ctx, db, clm.Email)
		if err != nil {
			if errors.Is(err, ErrNoMembership) {
				return weberr.NotFound(err)
			}
			return err
		}

		m.Status = StatusCancelled
		if err := Upsert(ctx, db, m); err != nil {
			return err
		}

		return web.Respond(ctx, w, m, http.StatusOK)
	}
}
