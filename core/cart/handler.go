package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/wshao/campus-market/api/web"
	"github.com/wshao/campus-market/api/weberr"
	"github.com/wshao/campus-market/core/claims"
	"github.com/wshao/campus-market/core/membership"
	"github.com/wshao/campus-market/core/pricing"
	"github.com/wshao/campus-market/core/product"
	"github.com/wshao/campus-market/validate"
)

type itemNew struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required"`
}

type itemUp struct {
	Quantity int `json:"quantity"`
}

type viewLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Unit      decimal.Decimal `json:"unit"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	AddedAt   time.Time       `json:"addedAt"`
}

type view struct {
	Items    []viewLine      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// HandleShow renders the cart with effective unit prices, member pricing
// included when the customer's membership is active.
func HandleShow(db *sqlx.DB, carts *Registry, prc pricing.Resolver) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		isMember, err := membership.Lookup{DB: db}.IsActive(ctx, clm.Email)
		if err != nil {
			return err
		}

		v := view{Items: []viewLine{}, Subtotal: decimal.Zero}
		for l := range carts.Get(clm.Email).Items() {
			p, err := product.Fetch(ctx, db, l.ProductID)
			if err != nil {
				if errors.Is(err, product.ErrNotFound) {
					continue
				}
				return err
			}

			unit := prc.UnitPrice(p, isMember)
			line := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
			v.Subtotal = v.Subtotal.Add(line)
			v.Items = append(v.Items, viewLine{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  l.Quantity,
				Unit:      unit,
				LineTotal: line,
				AddedAt:   l.AddedAt,
			})
		}

		return web.Respond(ctx, w, v, http.StatusOK)
	}
}

// HandleAddItem adds quantity to the cart, merging with an existing line.
func HandleAddItem(db *sqlx.DB, carts *Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in itemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := product.Fetch(ctx, db, in.ProductID); err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if err := carts.Get(clm.Email).AddOrMerge(in.ProductID, in.Quantity); err != nil {
			return weberr.Unprocessable(err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleUpdateItem sets the absolute quantity of a line; zero removes it.
// The requested quantity must not exceed the product's current stock.
func HandleUpdateItem(db *sqlx.DB, carts *Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "product_id")

		var up itemUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		p, err := product.Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		qty := up.Quantity
		if qty > MaxUnitsPerProduct {
			qty = MaxUnitsPerProduct
		}
		if qty > p.Stock {
			return weberr.Unprocessable(fmt.Errorf("insufficient stock (%d available)", p.Stock))
		}

		if err := carts.Get(clm.Email).SetQuantity(id, up.Quantity); err != nil {
			if errors.Is(err, ErrLineNotFound) {
				return weberr.NotFound(err)
			}
			return weberr.Unprocessable(err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleRemoveItem(carts *Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		carts.Get(clm.Email).Remove(web.Param(r, "product_id"))

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleClear(carts *Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		carts.Get(clm.Email).Clear()

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
