package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/wshao/campus-market/api/web"
	"github.com/wshao/campus-market/api/weberr"
	"github.com/wshao/campus-market/core/claims"
)

// maxTopUp caps a single top-up.
var maxTopUp = decimal.New(1000, 0)

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		bal, err := Balance(ctx, db, clm.Email)
		if err != nil {
			return err
		}

		acc := Account{Email: clm.Email, Balance: bal}
		return web.Respond(ctx, w, acc, http.StatusOK)
	}
}

func HandleTopUp(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var tu TopUp
		if err := web.Decode(w, r, &tu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if !tu.Amount.IsPositive() {
			return weberr.Unprocessable(errors.New("please enter a positive amount"))
		}
		if tu.Amount.GreaterThan(maxTopUp) {
			return weberr.Unprocessable(errors.New("please enter a smaller amount (max 1000.00 per top-up)"))
		}

		if err := Credit(ctx, db, clm.Email, tu.Amount); err != nil {
			return err
		}

		bal, err := Balance(ctx, db, clm.Email)
		if err != nil {
			return err
		}

		acc := Account{Email: clm.Email, Balance: bal}
		return web.Respond(ctx, w, acc, http.StatusOK)
	}
}
