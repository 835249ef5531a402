package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wshao/campus-market/core/cart"
	"github.com/wshao/campus-market/core/order"
	"github.com/wshao/campus-market/core/product"
)

// SummaryItem is one rendered receipt line.
type SummaryItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Unit      decimal.Decimal `json:"unit"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Summary is a non-mutating preview of a checkout. Its total is computed
// with the same precedence and clamping rules as Checkout, so for an
// unchanged cart the previewed total equals the committed one.
type Summary struct {
	Customer   string           `json:"customer"`
	Email      string           `json:"email"`
	Fulfilment order.Fulfilment `json:"fulfilment"`
	Location   string           `json:"location"`
	Items      []SummaryItem    `json:"items"`
	Subtotal   decimal.Decimal  `json:"subtotal"`
	Discount   decimal.Decimal  `json:"discount"`
	Fee        decimal.Decimal  `json:"fee"`
	Total      decimal.Decimal  `json:"total"`
	Text       string           `json:"text"`
}

// BuildOrderSummary prices the cart without committing anything. Unlike
// Checkout it tolerates lines whose product has disappeared from the
// catalog, skipping them instead of failing.
func (e *Engine) BuildOrderSummary(ctx context.Context, customerName, email string, crt *cart.Cart, mode order.Fulfilment, location, code string) (Summary, error) {
	isMember, err := e.members.IsActive(ctx, email)
	if err != nil {
		return Summary{}, fmt.Errorf("looking up membership of %s: %w", email, err)
	}

	var items []SummaryItem
	subtotal := decimal.Zero
	if crt != nil {
		for l := range crt.Items() {
			if l.Quantity <= 0 {
				continue
			}

			p, err := e.products.Get(ctx, l.ProductID)
			if err != nil {
				if errors.Is(err, product.ErrNotFound) {
					continue
				}
				return Summary{}, fmt.Errorf("fetching product[%s]: %w", l.ProductID, err)
			}

			unit := e.pricing.UnitPrice(p, isMember)
			crt.SetUnitPrice(p.ID, unit)

			line := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
			subtotal = subtotal.Add(line)

			items = append(items, SummaryItem{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  l.Quantity,
				Unit:      unit,
				LineTotal: line,
			})
		}
	}

	t, err := e.totals(ctx, email, subtotal, mode, code)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Customer:   customerName,
		Email:      email,
		Fulfilment: mode,
		Location:   location,
		Items:      items,
		Subtotal:   t.subtotal,
		Discount:   t.discount,
		Fee:        t.fee,
		Total:      t.total,
	}
	s.Text = render(s, t, code)

	return s, nil
}

func render(s Summary, t totals, code string) string {
	var sb strings.Builder

	name := s.Customer
	if strings.TrimSpace(name) == "" {
		name = "(N/A)"
	}
	where := s.Location
	if strings.TrimSpace(where) == "" {
		where = "(N/A)"
	}

	isPickup := s.Fulfilment == order.Pickup

	sb.WriteString("===== Order Summary =====\n")
	fmt.Fprintf(&sb, "Customer: %s\n", name)
	fmt.Fprintf(&sb, "Email: %s\n", s.Email)
	if isPickup {
		fmt.Fprintf(&sb, "Fulfilment: Pickup\nPickup Location: %s\n\n", where)
	} else {
		fmt.Fprintf(&sb, "Fulfilment: Delivery\nDelivery Address: %s\n\n", where)
	}

	sb.WriteString("Items:\n")
	fmt.Fprintf(&sb, "%-28s %6s %10s %12s\n", "Name", "Qty", "Unit", "Line Total")
	sb.WriteString("----------------------------------------------------------------\n")
	for _, it := range s.Items {
		nm := it.Name
		if r := []rune(nm); len(r) > 28 {
			nm = string(r[:27]) + "…"
		}
		fmt.Fprintf(&sb, "%-28s %6d %10s %12s\n", nm, it.Quantity, it.Unit.StringFixed(2), it.LineTotal.StringFixed(2))
	}
	sb.WriteString("----------------------------------------------------------------\n")
	fmt.Fprintf(&sb, "%-28s %6s %10s %12s\n\n", "Subtotal", "", "", t.subtotal.StringFixed(2))

	if t.promoRate.IsPositive() {
		fmt.Fprintf(&sb, "Promo (%s): -%s\n", strings.ToUpper(strings.TrimSpace(code)), t.subtotal.Mul(t.promoRate).Round(2).StringFixed(2))
	}
	if t.studentRate.IsPositive() {
		fmt.Fprintf(&sb, "Student Pickup 5%%: -%s\n", t.subtotal.Mul(t.studentRate).Round(2).StringFixed(2))
	}

	if isPickup {
		fmt.Fprintf(&sb, "Pickup Fee: +%s\n", t.fee.StringFixed(2))
	} else {
		fmt.Fprintf(&sb, "Delivery Fee: +%s\n", t.fee.StringFixed(2))
	}

	sb.WriteString("----------------------------------------\n")
	fmt.Fprintf(&sb, "Total Payable: %s\n", t.total.StringFixed(2))
	sb.WriteString("========================================\n")

	return sb.String()
}
