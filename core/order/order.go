package order

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fulfilment selects how an order is handed over.
type Fulfilment string

const (
	Pickup   Fulfilment = "PICKUP"
	Delivery Fulfilment = "DELIVERY"
)

// ErrUnknownFulfilment is returned for any mode other than PICKUP or
// DELIVERY.
var ErrUnknownFulfilment = errors.New("fulfilment must be PICKUP or DELIVERY")

// ParseFulfilment normalizes a fulfilment mode, case-insensitively.
func ParseFulfilment(s string) (Fulfilment, error) {
	switch Fulfilment(strings.ToUpper(strings.TrimSpace(s))) {
	case Pickup:
		return Pickup, nil
	case Delivery:
		return Delivery, nil
	}
	return "", ErrUnknownFulfilment
}

// Order is the committed header of one checkout. Created exactly once,
// immutable thereafter.
type Order struct {
	ID         string          `json:"id" db:"order_id"`
	Email      string          `json:"email" db:"email"`
	Fulfilment Fulfilment      `json:"fulfilment" db:"fulfilment"`
	Location   string          `json:"location" db:"location"`
	Promo      string          `json:"promo" db:"promo"`
	Subtotal   decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount   decimal.Decimal `json:"discount" db:"discount"`
	Fee        decimal.Decimal `json:"fee" db:"fee"`
	Total      decimal.Decimal `json:"total" db:"total"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
}

// Item is one (product, quantity) row of an order.
type Item struct {
	OrderID   string `json:"orderId" db:"order_id"`
	ProductID string `json:"productId" db:"product_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
}
