package checkout

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/wshao/campus-market/core/order"
	"github.com/wshao/campus-market/core/product"
)

func TestBuildOrderSummaryMatchesCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := cartOf(t, [2]interface{}{"p1", 2}, [2]interface{}{"p2", 3})

	sum, err := f.engine.BuildOrderSummary(ctx, "Alice", "alice@student.campus.edu", c, order.Pickup, "S1 - Main St", "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	// A preview must not commit anything.
	if len(f.orders.orders) != 0 || len(f.payments.pays) != 0 {
		t.Fatal("expected no ledger entries after a preview")
	}
	if got := f.accounts.balances["alice@student.campus.edu"]; !got.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected balance unchanged, but got %s", got)
	}
	if c.Len() != 2 {
		t.Fatal("expected the cart to be kept")
	}

	res, err := f.engine.Checkout(ctx, "alice@student.campus.edu", c, order.Pickup, "S1 - Main St", "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if !sum.Total.Equal(res.Total) {
		t.Fatalf("previewed total %s differs from committed total %s", sum.Total, res.Total)
	}
}

func TestBuildOrderSummarySkipsMissingProducts(t *testing.T) {
	f := newFixture(t)

	c := cartOf(t, [2]interface{}{"p1", 1}, [2]interface{}{"ghost", 1})

	sum, err := f.engine.BuildOrderSummary(context.Background(), "Carol", "carol@example.com", c, order.Pickup, "S1", "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if len(sum.Items) != 1 {
		t.Fatalf("expected 1 item, but got %d", len(sum.Items))
	}
	if want := decimal.RequireFromString("10.00"); !sum.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, but got %s", want, sum.Subtotal)
	}
}

func TestBuildOrderSummaryText(t *testing.T) {
	f := newFixture(t)

	c := cartOf(t, [2]interface{}{"p1", 3})

	sum, err := f.engine.BuildOrderSummary(context.Background(), "Carol", "carol@example.com", c, order.Pickup, "S1 - Main St", "first_pickup")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	for _, want := range []string{
		"===== Order Summary =====",
		"Customer: Carol",
		"Email: carol@example.com",
		"Fulfilment: Pickup",
		"Pickup Location: S1 - Main St",
		"Notebook",
		"Promo (FIRST_PICKUP): -4.50",
		"Total Payable: 25.50",
	} {
		if !strings.Contains(sum.Text, want) {
			t.Fatalf("expected text to contain %q, full text:\n%s", want, sum.Text)
		}
	}

	sum, err = f.engine.BuildOrderSummary(context.Background(), "", "carol@example.com", c, order.Delivery, "", "")
	if err != nil {
		t.Fatalf("delivery summary: %v", err)
	}
	for _, want := range []string{
		"Customer: (N/A)",
		"Fulfilment: Delivery",
		"Delivery Address: (N/A)",
		"Delivery Fee: +20.00",
		"Total Payable: 50.00",
	} {
		if !strings.Contains(sum.Text, want) {
			t.Fatalf("expected text to contain %q, full text:\n%s", want, sum.Text)
		}
	}
}

func TestBuildOrderSummaryTruncatesLongNames(t *testing.T) {
	f := newFixture(t)

	name := strings.Repeat("héllo wörld ", 4)
	f.products.byID["p9"] = product.Product{
		ID: "p9", Name: name, Stock: 3,
		Price:       decimal.RequireFromString("1.00"),
		MemberPrice: decimal.RequireFromString("1.00"),
	}

	c := cartOf(t, [2]interface{}{"p9", 1})

	sum, err := f.engine.BuildOrderSummary(context.Background(), "Carol", "carol@example.com", c, order.Pickup, "S1", "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if !utf8.ValidString(sum.Text) {
		t.Fatal("expected valid UTF-8 in the rendered text")
	}

	// Truncation counts runes, not bytes, so a multi-byte character at the
	// cut point stays intact.
	want := string([]rune(name)[:27]) + "…"
	if !strings.Contains(sum.Text, want) {
		t.Fatalf("expected text to contain %q, full text:\n%s", want, sum.Text)
	}
}
