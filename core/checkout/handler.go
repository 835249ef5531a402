package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/wshao/campus-market/api/web"
	"github.com/wshao/campus-market/api/weberr"
	"github.com/wshao/campus-market/core/cart"
	"github.com/wshao/campus-market/core/claims"
	"github.com/wshao/campus-market/core/order"
	"github.com/wshao/campus-market/core/store"
	"github.com/wshao/campus-market/validate"
)

type checkoutRequest struct {
	Fulfilment string `json:"fulfilment" validate:"required"`
	StoreID    string `json:"storeId"`
	Address    string `json:"address"`
	Promo      string `json:"promo"`
}

// HandleCheckout commits the customer's cart.
func HandleCheckout(db *sqlx.DB, eng *Engine, carts *cart.Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, mode, location, promoCode, err := decodeCheckout(ctx, db, w, r)
		if err != nil {
			return err
		}

		res, err := eng.Checkout(ctx, clm.Email, carts.Get(clm.Email), mode, location, promoCode)
		if err != nil {
			var rej *RejectedError
			if errors.As(err, &rej) {
				return weberr.NewError(err, rej.Detail, http.StatusUnprocessableEntity,
					weberr.WithFields(map[string]interface{}{"reason": string(rej.Reason)}))
			}
			return err
		}

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

// HandlePreview renders the order summary without committing.
func HandlePreview(db *sqlx.DB, eng *Engine, carts *cart.Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, mode, location, promoCode, err := decodeCheckout(ctx, db, w, r)
		if err != nil {
			return err
		}

		sum, err := eng.BuildOrderSummary(ctx, clm.Name, clm.Email, carts.Get(clm.Email), mode, location, promoCode)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, sum, http.StatusOK)
	}
}

// decodeCheckout parses the shared request shape of preview and commit and
// resolves the pickup store into a location line.
func decodeCheckout(ctx context.Context, db *sqlx.DB, w http.ResponseWriter, r *http.Request) (claims.Claims, order.Fulfilment, string, string, error) {
	clm, err := claims.Get(ctx)
	if err != nil {
		return claims.Claims{}, "", "", "", weberr.NotAuthorized(errors.New("user not authenticated"))
	}

	var req checkoutRequest
	if err := web.Decode(w, r, &req); err != nil {
		return claims.Claims{}, "", "", "", weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
	}

	if err := validate.Check(req); err != nil {
		return claims.Claims{}, "", "", "", weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
	}

	mode, err := order.ParseFulfilment(req.Fulfilment)
	if err != nil {
		return claims.Claims{}, "", "", "", weberr.BadRequest(err)
	}

	var location string
	switch mode {
	case order.Pickup:
		s, err := store.Fetch(ctx, db, strings.TrimSpace(req.StoreID))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return claims.Claims{}, "", "", "", weberr.Unprocessable(errors.New("unknown pickup store"))
			}
			return claims.Claims{}, "", "", "", err
		}
		location = s.Location()
	case order.Delivery:
		location = strings.TrimSpace(req.Address)
		if location == "" {
			return claims.Claims{}, "", "", "", weberr.Unprocessable(errors.New("delivery address required"))
		}
	}

	return clm, mode, location, req.Promo, nil
}
