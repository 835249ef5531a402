package promo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fakeCatalog map[string]Promo

func (f fakeCatalog) Find(ctx context.Context, code string) (Promo, error) {
	p, ok := f[code]
	if !ok {
		return Promo{}, ErrNotFound
	}
	return p, nil
}

type failingCatalog struct{}

func (failingCatalog) Find(ctx context.Context, code string) (Promo, error) {
	return Promo{}, errors.New("catalog unavailable")
}

func TestDiscountRate(t *testing.T) {
	past := time.Now().UTC().AddDate(0, 0, -1)
	future := time.Now().UTC().AddDate(0, 0, 1)

	r := Resolver{Catalog: fakeCatalog{
		"PROMO10":      {Code: "PROMO10", Percent: 10},
		"FIRST_PICKUP": {Code: "FIRST_PICKUP", Percent: 15},
		"NEWCAMPUS20":  {Code: "NEWCAMPUS20", Percent: 20},
		"EXPIRED5":     {Code: "EXPIRED5", Percent: 5, Expiry: &past},
		"FRESH5":       {Code: "FRESH5", Percent: 5, Expiry: &future},
		"MEGA":         {Code: "MEGA", Percent: 120},
		"NEGATIVE":     {Code: "NEGATIVE", Percent: -10},
	}}

	tests := []struct {
		name        string
		code        string
		isPickup    bool
		priorOrders int
		want        string
	}{
		{"blank", "", true, 0, "0"},
		{"whitespace only", "   ", true, 0, "0"},
		{"unknown", "NOPE", true, 0, "0"},
		{"plain code", "PROMO10", false, 3, "0.10"},
		{"expired", "EXPIRED5", true, 0, "0"},
		{"not yet expired", "FRESH5", true, 0, "0.05"},
		{"first pickup ok", "FIRST_PICKUP", true, 0, "0.15"},
		{"first pickup on delivery", "FIRST_PICKUP", false, 0, "0"},
		{"first pickup with history", "FIRST_PICKUP", true, 1, "0"},
		{"campus code ok", "NEWCAMPUS20", true, 0, "0.20"},
		{"campus code with history", "NEWCAMPUS20", true, 2, "0"},
		{"clamped to 90 percent", "MEGA", false, 0, "0.90"},
		{"negative percent floors at zero", "NEGATIVE", false, 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.DiscountRate(context.Background(), tt.code, tt.isPickup, tt.priorOrders)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("expected rate %s, but got %s", tt.want, got)
			}
		})
	}
}

func TestDiscountRateCatalogError(t *testing.T) {
	r := Resolver{Catalog: failingCatalog{}}

	if _, err := r.DiscountRate(context.Background(), "PROMO10", true, 0); err == nil {
		t.Fatal("expected an error when the catalog fails")
	}
}

func TestExpired(t *testing.T) {
	today := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	sameDay := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	dayBefore := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)

	if (Promo{}).Expired(today) {
		t.Fatal("nil expiry must never expire")
	}
	if (Promo{Expiry: &sameDay}).Expired(today) {
		t.Fatal("a promo expiring today is still valid")
	}
	if !(Promo{Expiry: &dayBefore}).Expired(today) {
		t.Fatal("a promo that expired yesterday must be expired")
	}
}
