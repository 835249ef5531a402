// Package checkout implements the order placement engine: it validates a
// cart against live stock, combines membership pricing with promo and
// student discounts under a non-stacking policy, and commits the result by
// debiting the balance, decrementing stock and appending the order and
// payment records.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

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

// maxDiscountRate caps the combined discount, independent of the promo
// resolver's own clamp.
var maxDiscountRate = decimal.New(90, -2)

// AccountStore reads and debits stored balances. Debit must be guarded:
// it fails with account.ErrInsufficientFunds rather than overdraw.
type AccountStore interface {
	Balance(ctx context.Context, email string) (decimal.Decimal, error)
	Debit(ctx context.Context, email string, amount decimal.Decimal) error
}

// ProductStore reads products and adjusts stock. AdjustStock must refuse
// adjustments that would drive stock negative.
type ProductStore interface {
	Get(ctx context.Context, id string) (product.Product, error)
	AdjustStock(ctx context.Context, id string, delta int) error
}

// OrderLedger appends committed orders and counts a customer's prior ones.
type OrderLedger interface {
	Append(ctx context.Context, ord order.Order, items []order.Item) (string, error)
	CountPriorOrders(ctx context.Context, email string) (int, error)
}

// PaymentLedger appends the balance movement of a committed order.
type PaymentLedger interface {
	Append(ctx context.Context, pay payment.Payment) error
}

// MembershipLookup reports whether a customer holds an active membership.
type MembershipLookup interface {
	IsActive(ctx context.Context, email string) (bool, error)
}

type Config struct {
	Log      logrus.FieldLogger
	Accounts AccountStore
	Products ProductStore
	Orders   OrderLedger
	Payments PaymentLedger
	Members  MembershipLookup
	Pricing  pricing.Resolver
	Promos   promo.Resolver
}

// Engine orchestrates checkout. A single mutex serializes the whole
// validate-then-commit section so two concurrent checkouts cannot both
// pass the stock and balance gates and then both write.
type Engine struct {
	mu  sync.Mutex
	log logrus.FieldLogger

	accounts AccountStore
	products ProductStore
	orders   OrderLedger
	payments PaymentLedger
	members  MembershipLookup
	pricing  pricing.Resolver
	promos   promo.Resolver
}

func New(cfg Config) *Engine {
	return &Engine{
		log:      cfg.Log,
		accounts: cfg.Accounts,
		products: cfg.Products,
		orders:   cfg.Orders,
		payments: cfg.Payments,
		members:  cfg.Members,
		pricing:  cfg.Pricing,
		promos:   cfg.Promos,
	}
}

// Pricing exposes the resolver so read-only views can price lines the
// same way checkout does.
func (e *Engine) Pricing() pricing.Resolver {
	return e.pricing
}

// Result reports a committed checkout.
type Result struct {
	OrderID    string          `json:"orderId"`
	Total      decimal.Decimal `json:"total"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

type pricedLine struct {
	product product.Product
	qty     int
	unit    decimal.Decimal
}

// totals is the pricing breakdown shared verbatim between Checkout and
// BuildOrderSummary, so a preview always matches the commit that follows
// it.
type totals struct {
	subtotal    decimal.Decimal
	promoRate   decimal.Decimal
	studentRate decimal.Decimal
	discount    decimal.Decimal
	fee         decimal.Decimal
	total       decimal.Decimal
}

// Checkout runs one placement attempt end to end. Declined attempts
// return a *RejectedError and leave balance, stock and ledgers unchanged.
func (e *Engine) Checkout(ctx context.Context, email string, crt *cart.Cart, mode order.Fulfilment, location, code string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Validating.
	if crt == nil || crt.Len() == 0 {
		return Result{}, reject(EmptyCart, "cart is empty")
	}

	isMember, err := e.members.IsActive(ctx, email)
	if err != nil {
		return Result{}, fmt.Errorf("looking up membership of %s: %w", email, err)
	}

	var lines []pricedLine
	subtotal := decimal.Zero
	for l := range crt.Items() {
		p, err := e.products.Get(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return Result{}, reject(UnknownProduct, "invalid product in cart")
			}
			return Result{}, fmt.Errorf("fetching product[%s]: %w", l.ProductID, err)
		}
		if p.Stock < l.Quantity {
			return Result{}, reject(InsufficientStock, "insufficient stock for %s", p.Name)
		}

		// Pricing. The unit price is snapshotted onto the line for
		// receipt rendering only.
		unit := e.pricing.UnitPrice(p, isMember)
		crt.SetUnitPrice(p.ID, unit)

		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(l.Quantity))))
		lines = append(lines, pricedLine{product: p, qty: l.Quantity, unit: unit})
	}

	t, err := e.totals(ctx, email, subtotal, mode, code)
	if err != nil {
		return Result{}, err
	}

	// Committing gate.
	bal, err := e.accounts.Balance(ctx, email)
	if err != nil {
		return Result{}, fmt.Errorf("fetching balance of %s: %w", email, err)
	}
	if bal.LessThan(t.total) {
		return Result{}, reject(InsufficientFunds, "insufficient funds, please top up")
	}

	// Committing. A guarded write failing here means another writer got
	// between validation and commit; surface it, never swallow it.
	if err := e.accounts.Debit(ctx, email, t.total); err != nil {
		if errors.Is(err, account.ErrInsufficientFunds) {
			return Result{}, fmt.Errorf("%w: balance of %s dropped below total", ErrFatalInconsistency, email)
		}
		return Result{}, fmt.Errorf("debiting %s: %w", email, err)
	}

	for _, l := range lines {
		if err := e.products.AdjustStock(ctx, l.product.ID, -l.qty); err != nil {
			if errors.Is(err, product.ErrStockConflict) {
				return Result{}, fmt.Errorf("%w: stock of product[%s] dropped below requested quantity", ErrFatalInconsistency, l.product.ID)
			}
			return Result{}, fmt.Errorf("adjusting stock of product[%s]: %w", l.product.ID, err)
		}
	}

	ord := order.Order{
		Email:      email,
		Fulfilment: mode,
		Location:   location,
		Promo:      strings.TrimSpace(code),
		Subtotal:   t.subtotal,
		Discount:   t.discount,
		Fee:        t.fee,
		Total:      t.total,
	}

	items := make([]order.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, order.Item{ProductID: l.product.ID, Quantity: l.qty})
	}

	orderID, err := e.orders.Append(ctx, ord, items)
	if err != nil {
		return Result{}, fmt.Errorf("appending order: %w", err)
	}

	newBal := bal.Sub(t.total)
	pay := payment.Payment{
		OrderID:       orderID,
		BalanceBefore: bal,
		BalanceAfter:  newBal,
	}
	if err := e.payments.Append(ctx, pay); err != nil {
		return Result{}, fmt.Errorf("appending payment for order[%s]: %w", orderID, err)
	}

	crt.Clear()

	e.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"email":    email,
		"total":    t.total,
	}).Info("checkout committed")

	return Result{OrderID: orderID, Total: t.total, NewBalance: newBal}, nil
}

// totals resolves the discount and fee rules for a subtotal. A non-blank
// promo code always suppresses the student pickup discount, whether or not
// the code turns out to be worth anything; the two never stack.
func (e *Engine) totals(ctx context.Context, email string, subtotal decimal.Decimal, mode order.Fulfilment, code string) (totals, error) {
	prior, err := e.orders.CountPriorOrders(ctx, email)
	if err != nil {
		return totals{}, fmt.Errorf("counting prior orders of %s: %w", email, err)
	}

	promoRate, err := e.promos.DiscountRate(ctx, code, mode == order.Pickup, prior)
	if err != nil {
		return totals{}, err
	}

	studentRate := decimal.Zero
	if strings.TrimSpace(code) == "" {
		studentRate = e.pricing.StudentPickupRate(email, mode)
	}

	rate := promoRate.Add(studentRate)
	if rate.GreaterThan(maxDiscountRate) {
		rate = maxDiscountRate
	}

	discount := subtotal.Mul(rate).Round(2)
	fee := e.pricing.FulfilmentFee(email, mode)

	total := subtotal.Sub(discount).Add(fee)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return totals{
		subtotal:    subtotal,
		promoRate:   promoRate,
		studentRate: studentRate,
		discount:    discount,
		fee:         fee,
		total:       total,
	}, nil
}
