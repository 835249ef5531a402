package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// maxRate caps every resolved discount at 90%, no matter what percent the
// definition stores.
var maxRate = decimal.New(90, -2)

// firstPickupCodes are valid only on the customer's first-ever order and
// only for pickup fulfilment.
var firstPickupCodes = map[string]bool{
	"FIRST_PICKUP": true,
	"NEWCAMPUS20":  true,
}

// Finder looks up promo definitions; implemented by Catalog and by test
// fakes.
type Finder interface {
	Find(ctx context.Context, code string) (Promo, error)
}

// Resolver turns a promo code into a discount rate.
type Resolver struct {
	Catalog Finder
}

// DiscountRate resolves the rate for a code. Blank, unknown and expired
// codes resolve to zero, as do first-pickup codes outside their
// restriction. Valid codes yield percent/100 clamped to 0.90.
func (r Resolver) DiscountRate(ctx context.Context, code string, isPickup bool, priorOrders int) (decimal.Decimal, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return decimal.Zero, nil
	}

	p, err := r.Catalog.Find(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("resolving promo[%s]: %w", code, err)
	}

	if p.Expired(time.Now().UTC()) {
		return decimal.Zero, nil
	}

	if firstPickupCodes[strings.ToUpper(code)] {
		if !isPickup || priorOrders != 0 {
			return decimal.Zero, nil
		}
	}

	pct := p.Percent
	if pct < 0 {
		pct = 0
	}

	rate := decimal.New(int64(pct), -2)
	if rate.GreaterThan(maxRate) {
		rate = maxRate
	}
	return rate, nil
}
