package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wshao/campus-market/core/account"
	"github.com/wshao/campus-market/core/cart"
	"github.com/wshao/campus-market/core/order"
	"github.com/wshao/campus-market/core/payment"
	"github.com/wshao/campus-market/core/pricing"
	"github.com/wshao/campus-market/core/product"
	"github.com/wshao/campus-market/core/promo"
)

var decimalEq = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

type fakeAccounts struct {
	balances map[string]decimal.Decimal
}

func (f *fakeAccounts) Balance(ctx context.Context, email string) (decimal.Decimal, error) {
	return f.balances[email], nil
}

func (f *fakeAccounts) Debit(ctx context.Context, email string, amount decimal.Decimal) error {
	bal := f.balances[email]
	if bal.LessThan(amount) {
		return account.ErrInsufficientFunds
	}
	f.balances[email] = bal.Sub(amount)
	return nil
}

type fakeProducts struct {
	byID map[string]product.Product
}

func (f *fakeProducts) Get(ctx context.Context, id string) (product.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) AdjustStock(ctx context.Context, id string, delta int) error {
	p, ok := f.byID[id]
	if !ok {
		return product.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return product.ErrStockConflict
	}
	p.Stock += delta
	f.byID[id] = p
	return nil
}

type appended struct {
	ord   order.Order
	items []order.Item
}

type fakeOrders struct {
	orders []appended
	prior  map[string]int
}

func (f *fakeOrders) Append(ctx context.Context, ord order.Order, items []order.Item) (string, error) {
	ord.ID = fmt.Sprintf("ord-%d", len(f.orders)+1)
	f.orders = append(f.orders, appended{ord: ord, items: items})
	return ord.ID, nil
}

func (f *fakeOrders) CountPriorOrders(ctx context.Context, email string) (int, error) {
	n := f.prior[email]
	for _, a := range f.orders {
		if a.ord.Email == email {
			n++
		}
	}
	return n, nil
}

type fakePayments struct {
	pays []payment.Payment
}

func (f *fakePayments) Append(ctx context.Context, pay payment.Payment) error {
	f.pays = append(f.pays, pay)
	return nil
}

type fakeMembers struct {
	active map[string]bool
}

func (f *fakeMembers) IsActive(ctx context.Context, email string) (bool, error) {
	return f.active[email], nil
}

type fakeCatalog map[string]promo.Promo

func (f fakeCatalog) Find(ctx context.Context, code string) (promo.Promo, error) {
	p, ok := f[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return promo.Promo{}, promo.ErrNotFound
	}
	return p, nil
}

// fixture wires an engine over in-memory stores with a small catalog and
// the standard pricing rules.
type fixture struct {
	engine   *Engine
	accounts *fakeAccounts
	products *fakeProducts
	orders   *fakeOrders
	payments *fakePayments
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	accounts := &fakeAccounts{balances: map[string]decimal.Decimal{
		"alice@student.campus.edu": decimal.RequireFromString("100.00"),
		"bob@campus.edu":           decimal.RequireFromString("100.00"),
		"carol@example.com":        decimal.RequireFromString("100.00"),
		"poor@example.com":         decimal.RequireFromString("10.00"),
	}}

	products := &fakeProducts{byID: map[string]product.Product{
		"p1": {
			ID: "p1", Name: "Notebook", Stock: 10,
			Price:       decimal.RequireFromString("10.00"),
			MemberPrice: decimal.RequireFromString("8.00"),
		},
		"p2": {
			ID: "p2", Name: "Pen", Stock: 5,
			Price:       decimal.RequireFromString("2.50"),
			MemberPrice: decimal.RequireFromString("2.00"),
		},
	}}

	orders := &fakeOrders{prior: map[string]int{}}
	payments := &fakePayments{}
	members := &fakeMembers{active: map[string]bool{"bob@campus.edu": true}}

	engine := New(Config{
		Log:      log,
		Accounts: accounts,
		Products: products,
		Orders:   orders,
		Payments: payments,
		Members:  members,
		Pricing: pricing.Resolver{
			StudentDomain: "student.campus.edu",
			StaffDomain:   "campus.edu",
			DeliveryFee:   decimal.RequireFromString("20.00"),
		},
		Promos: promo.Resolver{Catalog: fakeCatalog{
			"PROMO10":      {Code: "PROMO10", Percent: 10},
			"FIRST_PICKUP": {Code: "FIRST_PICKUP", Percent: 15},
		}},
	})

	return &fixture{engine: engine, accounts: accounts, products: products, orders: orders, payments: payments}
}

func cartOf(t *testing.T, lines ...[2]interface{}) *cart.Cart {
	t.Helper()
	c := cart.New()
	for _, l := range lines {
		if err := c.AddOrMerge(l[0].(string), l[1].(int)); err != nil {
			t.Fatalf("building cart: %v", err)
		}
	}
	return c
}

func TestCheckoutPickup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := cartOf(t, [2]interface{}{"p1", 3})

	res, err := f.engine.Checkout(ctx, "carol@example.com", c, order.Pickup, "S1 - Main St", "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if want := decimal.RequireFromString("30.00"); !res.Total.Equal(want) {
		t.Fatalf("expected total %s, but got %s", want, res.Total)
	}
	if want := decimal.RequireFromString("70.00"); !res.NewBalance.Equal(want) {
		t.Fatalf("expected balance %s, but got %s", want, res.NewBalance)
	}
	if got := f.products.byID["p1"].Stock; got != 7 {
		t.Fatalf("expected stock 7, but got %d", got)
	}
	if c.Len() != 0 {
		t.Fatal("expected the cart to be cleared")
	}

	if len(f.orders.orders) != 1 {
		t.Fatalf("expected 1 order, but got %d", len(f.orders.orders))
	}
	got := f.orders.orders[0].ord
	want := order.Order{
		ID:         "ord-1",
		Email:      "carol@example.com",
		Fulfilment: order.Pickup,
		Location:   "S1 - Main St",
		Subtotal:   decimal.RequireFromString("30.00"),
		Discount:   decimal.Zero,
		Fee:        decimal.Zero,
		Total:      decimal.RequireFromString("30.00"),
	}
	if diff := cmp.Diff(want, got, decimalEq); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	if len(f.payments.pays) != 1 {
		t.Fatalf("expected 1 payment, but got %d", len(f.payments.pays))
	}
	pay := f.payments.pays[0]
	if pay.OrderID != "ord-1" {
		t.Fatalf("expected payment for ord-1, but got %s", pay.OrderID)
	}
	if !pay.BalanceBefore.Equal(decimal.RequireFromString("100.00")) || !pay.BalanceAfter.Equal(decimal.RequireFromString("70.00")) {
		t.Fatalf("unexpected balance movement: %s -> %s", pay.BalanceBefore, pay.BalanceAfter)
	}
}

func TestCheckoutStudentPickupDiscount(t *testing.T) {
	f := newFixture(t)

	c := cartOf(t, [2]interface{}{"p1", 2})

	res, err := f.engine.Checkout(context.Background(), "alice@student.campus.edu", c, order.Pickup, "S1", "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// 20.00 less the 5% pickup discount.
	if want := decimal.RequireFromString("19.00"); !res.Total.Equal(want) {
		t.Fatalf("expected total %s, but got %s", want, res.Total)
	}
}

func TestCheckoutMemberPricing(t *testing.T) {
	f := newFixture(t)

	c := cartOf(t, [2]interface{}{"p1", 2})

	res, err := f.engine.Checkout(context.Background(), "bob@campus.edu", c, order.Pickup, "S1", "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// 2 x 8.00 member price, less the 5% pickup discount.
	if want := decimal.RequireFromString("15.20"); !res.Total.Equal(want) {
		t.Fatalf("expected total %s, but got %s", want, res.Total)
	}
}

func TestCheckoutDeliveryFee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := cartOf(t, [2]interface{}{"p1", 1})
	res, err := f.engine.Checkout(ctx, "carol@example.com", c, order.Delivery, "12 High St", "")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if want := decimal.RequireFromString("30.00"); !res.Total.Equal(want) {
		t.Fatalf("expected total %s, but got %s", want, res.Total)
	}

	// Students have the delivery fee waived.
	c = cartOf(t, [2]interface{}{"p1", 1})
	res, err = f.engine.Checkout(ctx, "alice@student.campus.edu", c, order.Delivery, "Campus Hall 3", "")
	if err != nil {
		t.Fatalf("student checkout: %v", err)
	}
	if want := decimal.RequireFromString("10.00"); !res.Total.Equal(want) {
		t.Fatalf("expected total %s, but got %s", want, res.Total)
	}
}

func TestCheckoutFirstPickupPromo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := cartOf(t, [2]interface{}{"p1", 3})
	res, err := f.engine.Checkout(ctx, "carol@example.com", c, order.Pickup, "S1", "FIRST_PICKUP")
	if err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	if want := decimal.RequireFromString("25.50"); !res.Total.Equal(want) {
		t.Fatalf("expected total %s, but got %s", want, res.Total)
	}

	// With an order on file the code no longer applies.
	c = cartOf(t, [2]interface{}{"p1", 3})
	res, err = f.engine.Checkout(ctx, "carol@example.com", c, order.Pickup, "S1", "FIRST_PICKUP")
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if want := decimal.RequireFromString("30.00"); !res.Total.Equal(want) {
		t.Fatalf("expected total %s, but got %s", want, res.Total)
	}
}

func TestCheckoutPromoSuppressesStudentDiscount(t *testing.T) {
	f := newFixture(t)

	// An unknown code is worth nothing but its presence still disables the
	// 5% student pickup discount.
	c := cartOf(t, [2]interface{}{"p1", 2})
	res, err := f.engine.Checkout(context.Background(), "alice@student.campus.edu", c, order.Pickup, "S1", "NOPE")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if want := decimal.RequireFromString("20.00"); !res.Total.Equal(want) {
		t.Fatalf("expected total %s, but got %s", want, res.Total)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Checkout(context.Background(), "carol@example.com", cart.New(), order.Pickup, "S1", "")

	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != EmptyCart {
		t.Fatalf("expected EMPTY_CART rejection, but got %v", err)
	}
}

func TestCheckoutUnknownProduct(t *testing.T) {
	f := newFixture(t)

	c := cartOf(t, [2]interface{}{"ghost", 1})
	_, err := f.engine.Checkout(context.Background(), "carol@example.com", c, order.Pickup, "S1", "")

	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != UnknownProduct {
		t.Fatalf("expected UNKNOWN_PRODUCT rejection, but got %v", err)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newFixture(t)

	c := cartOf(t, [2]interface{}{"p2", 6})
	_, err := f.engine.Checkout(context.Background(), "carol@example.com", c, order.Pickup, "S1", "")

	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != InsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK rejection, but got %v", err)
	}
	if got := f.products.byID["p2"].Stock; got != 5 {
		t.Fatalf("expected stock unchanged at 5, but got %d", got)
	}
}

func TestCheckoutInsufficientFunds(t *testing.T) {
	f := newFixture(t)

	c := cartOf(t, [2]interface{}{"p1", 3})
	_, err := f.engine.Checkout(context.Background(), "poor@example.com", c, order.Pickup, "S1", "")

	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != InsufficientFunds {
		t.Fatalf("expected INSUFFICIENT_FUNDS rejection, but got %v", err)
	}

	// A declined attempt leaves everything untouched.
	if got := f.accounts.balances["poor@example.com"]; !got.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected balance unchanged, but got %s", got)
	}
	if got := f.products.byID["p1"].Stock; got != 10 {
		t.Fatalf("expected stock unchanged, but got %d", got)
	}
	if len(f.orders.orders) != 0 || len(f.payments.pays) != 0 {
		t.Fatal("expected no ledger entries")
	}
	if c.Len() != 1 {
		t.Fatal("expected the cart to be kept")
	}
}

// conflictingProducts passes validation but refuses every stock decrement,
// as if another writer emptied the shelf between the gate and the commit.
type conflictingProducts struct {
	*fakeProducts
}

func (c conflictingProducts) AdjustStock(ctx context.Context, id string, delta int) error {
	return product.ErrStockConflict
}

type conflictingAccounts struct {
	*fakeAccounts
}

func (c conflictingAccounts) Debit(ctx context.Context, email string, amount decimal.Decimal) error {
	return account.ErrInsufficientFunds
}

func TestCheckoutFatalStockConflict(t *testing.T) {
	f := newFixture(t)
	f.engine.products = conflictingProducts{f.products}

	c := cartOf(t, [2]interface{}{"p1", 3})
	_, err := f.engine.Checkout(context.Background(), "carol@example.com", c, order.Pickup, "S1", "")

	if !errors.Is(err, ErrFatalInconsistency) {
		t.Fatalf("expected ErrFatalInconsistency, but got %v", err)
	}

	// A consistency failure is a contract breach, never a user-facing
	// rejection.
	var rej *RejectedError
	if errors.As(err, &rej) {
		t.Fatalf("expected no rejection, but got reason %s", rej.Reason)
	}
	if c.Len() != 1 {
		t.Fatal("expected the cart to be kept")
	}
	if len(f.orders.orders) != 0 || len(f.payments.pays) != 0 {
		t.Fatal("expected no ledger entries")
	}
}

func TestCheckoutFatalDebitConflict(t *testing.T) {
	f := newFixture(t)
	f.engine.accounts = conflictingAccounts{f.accounts}

	c := cartOf(t, [2]interface{}{"p1", 3})
	_, err := f.engine.Checkout(context.Background(), "carol@example.com", c, order.Pickup, "S1", "")

	if !errors.Is(err, ErrFatalInconsistency) {
		t.Fatalf("expected ErrFatalInconsistency, but got %v", err)
	}

	var rej *RejectedError
	if errors.As(err, &rej) {
		t.Fatalf("expected no rejection, but got reason %s", rej.Reason)
	}
	if got := f.products.byID["p1"].Stock; got != 10 {
		t.Fatalf("expected stock unchanged, but got %d", got)
	}
}

func TestCheckoutSequentialAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two customers racing for the last units: the first wins, the second
	// is declined on stock and commits nothing.
	c1 := cartOf(t, [2]interface{}{"p2", 4})
	if _, err := f.engine.Checkout(ctx, "carol@example.com", c1, order.Pickup, "S1", ""); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	c2 := cartOf(t, [2]interface{}{"p2", 4})
	_, err := f.engine.Checkout(ctx, "bob@campus.edu", c2, order.Pickup, "S1", "")

	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != InsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK rejection, but got %v", err)
	}
	if got := f.products.byID["p2"].Stock; got != 1 {
		t.Fatalf("expected stock 1, but got %d", got)
	}
	if len(f.orders.orders) != 1 {
		t.Fatalf("expected 1 order, but got %d", len(f.orders.orders))
	}
}
