// Package cart implements the session-scoped shopping cart. Carts live in
// memory only: they are created lazily per customer, dropped on logout, and
// cleared after a successful checkout.
package cart

import (
	"errors"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxTotalUnits caps the sum of quantities across the whole cart.
	MaxTotalUnits = 20

	// MaxUnitsPerProduct caps the quantity of a single line.
	MaxUnitsPerProduct = 10

	// MaxLines caps the number of distinct product lines. This is a separate
	// ceiling from MaxTotalUnits: AddOrMerge enforces the total-units cap,
	// SetQuantity enforces the distinct-lines cap. Both rules are kept as
	// specified; do not unify them.
	MaxLines = 20
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrCartFull          = errors.New("cart can hold at most 20 items in total")
	ErrLineLimitExceeded = errors.New("max 10 units per product")
	ErrLineNotFound      = errors.New("item not in cart")
)

// Line is one (product, quantity) entry. UnitPrice is a derived snapshot
// written at pricing time for receipt rendering; it is never an input to a
// later decision.
type Line struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	AddedAt   time.Time       `json:"addedAt"`
}

// Cart holds the lines of one customer. Safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// AddOrMerge adds qty units of a product, merging with an existing line.
// The total across all lines may not exceed MaxTotalUnits and a single
// line may not exceed MaxUnitsPerProduct.
func (c *Cart) AddOrMerge(productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	if total+qty > MaxTotalUnits {
		return ErrCartFull
	}

	for i, l := range c.lines {
		if l.ProductID == productID {
			if l.Quantity+qty > MaxUnitsPerProduct {
				return ErrLineLimitExceeded
			}
			c.lines[i].Quantity += qty
			return nil
		}
	}

	if qty > MaxUnitsPerProduct {
		return ErrLineLimitExceeded
	}

	c.lines = append(c.lines, Line{
		ProductID: productID,
		Quantity:  qty,
		AddedAt:   time.Now(),
	})
	return nil
}

// SetQuantity sets the absolute quantity of a line. A quantity <= 0 removes
// the line (ErrLineNotFound when absent). Quantities above
// MaxUnitsPerProduct are clamped silently. Creating a new line is subject
// to the MaxLines distinct-line ceiling.
func (c *Cart) SetQuantity(productID string, qty int) error {
	if qty <= 0 {
		if !c.Remove(productID) {
			return ErrLineNotFound
		}
		return nil
	}

	if qty > MaxUnitsPerProduct {
		qty = MaxUnitsPerProduct
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, l := range c.lines {
		if l.ProductID == productID {
			c.lines[i].Quantity = qty
			return nil
		}
	}

	if len(c.lines) >= MaxLines {
		return ErrCartFull
	}

	c.lines = append(c.lines, Line{
		ProductID: productID,
		Quantity:  qty,
		AddedAt:   time.Now(),
	})
	return nil
}

// Remove deletes a line, reporting whether it existed.
func (c *Cart) Remove(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, l := range c.lines {
		if l.ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes all lines.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// SetUnitPrice records the resolved unit price on a line for later receipt
// rendering.
func (c *Cart) SetUnitPrice(productID string, unit decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, l := range c.lines {
		if l.ProductID == productID {
			c.lines[i].UnitPrice = unit
			return
		}
	}
}

// Items returns a restartable sequence over the lines ordered by insertion
// time ascending. Each iteration works on its own snapshot.
func (c *Cart) Items() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		for _, l := range c.snapshot() {
			if !yield(l) {
				return
			}
		}
	}
}

// Len reports the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// TotalUnits reports the sum of quantities across all lines.
func (c *Cart) TotalUnits() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

func (c *Cart) snapshot() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := slices.Clone(c.lines)
	slices.SortStableFunc(lines, func(a, b Line) int {
		return a.AddedAt.Compare(b.AddedAt)
	})
	return lines
}
