package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/wshao/campus-market/api/web"
	"github.com/wshao/campus-market/api/weberr"
	"github.com/wshao/campus-market/validate"
)

// maxCategories caps the number of distinct product categories the catalog
// may carry.
const maxCategories = 10

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f := Filter{
			Search:      web.Query(r, "search"),
			Category:    web.Query(r, "category"),
			Brand:       web.Query(r, "brand"),
			InStockOnly: web.Query(r, "in_stock") == "true",
		}

		if s := web.Query(r, "min_price"); s != "" {
			d, err := decimal.NewFromString(s)
			if err != nil {
				return weberr.BadRequest(fmt.Errorf("parsing min_price: %w", err))
			}
			f.MinPrice = &d
		}
		if s := web.Query(r, "max_price"); s != "" {
			d, err := decimal.NewFromString(s)
			if err != nil {
				return weberr.BadRequest(fmt.Errorf("parsing max_price: %w", err))
			}
			f.MaxPrice = &d
		}

		products, err := FetchAll(ctx, db, f)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, products, http.StatusOK)
	}
}

func HandleCategories(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cats, err := Categories(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, cats, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var pn ProductNew
		if err := web.Decode(w, r, &pn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if pn.Price.IsNegative() || pn.MemberPrice.IsNegative() {
			return weberr.Unprocessable(errors.New("price must be >= 0"))
		}
		if pn.MemberPrice.GreaterThan(pn.Price) {
			return weberr.Unprocessable(errors.New("member price cannot be greater than price"))
		}

		if _, err := Fetch(ctx, db, strings.TrimSpace(pn.ID)); err == nil {
			return weberr.Unprocessable(errors.New("product already exists"))
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		if err := checkCategoryLimit(ctx, db, pn.Category); err != nil {
			return err
		}

		now := time.Now().UTC()
		p := Product{
			ID:          strings.TrimSpace(pn.ID),
			Name:        strings.TrimSpace(pn.Name),
			Category:    strings.TrimSpace(pn.Category),
			Subcategory: strings.TrimSpace(pn.Subcategory),
			Brand:       strings.TrimSpace(pn.Brand),
			Description: strings.TrimSpace(pn.Description),
			Price:       pn.Price,
			MemberPrice: pn.MemberPrice,
			Stock:       pn.Stock,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := Create(ctx, db, p); err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		var up ProductUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if up.Name != nil {
			p.Name = strings.TrimSpace(*up.Name)
		}
		if up.Category != nil && !strings.EqualFold(strings.TrimSpace(*up.Category), p.Category) {
			if err := checkCategoryLimit(ctx, db, *up.Category); err != nil {
				return err
			}
			p.Category = strings.TrimSpace(*up.Category)
		}
		if up.Subcategory != nil {
			p.Subcategory = strings.TrimSpace(*up.Subcategory)
		}
		if up.Brand != nil {
			p.Brand = strings.TrimSpace(*up.Brand)
		}
		if up.Description != nil {
			p.Description = strings.TrimSpace(*up.Description)
		}
		if up.Price != nil {
			p.Price = *up.Price
		}
		if up.MemberPrice != nil {
			p.MemberPrice = *up.MemberPrice
		}
		if up.Stock != nil {
			p.Stock = *up.Stock
		}

		if p.Price.IsNegative() || p.MemberPrice.IsNegative() {
			return weberr.Unprocessable(errors.New("price must be >= 0"))
		}
		if p.MemberPrice.GreaterThan(p.Price) {
			return weberr.Unprocessable(errors.New("member price cannot be greater than price"))
		}

		p.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, p); err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")

		if err := Delete(ctx, db, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// checkCategoryLimit rejects a category that would push the catalog past
// maxCategories distinct categories.
func checkCategoryLimit(ctx context.Context, db *sqlx.DB, category string) error {
	norm := strings.ToLower(strings.TrimSpace(category))
	if norm == "" {
		return nil
	}

	cats, err := Categories(ctx, db)
	if err != nil {
		return err
	}

	if !slices.Contains(cats, norm) && len(cats) >= maxCategories {
		return weberr.Unprocessable(fmt.Errorf("category limit is %d", maxCategories))
	}

	return nil
}
