// Package pricing holds the pure pricing rules: effective unit price,
// fulfilment fees and the student pickup discount. Nothing here touches
// storage.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wshao/campus-market/core/order"
	"github.com/wshao/campus-market/core/product"
)

// studentPickupRate is the flat discount for eligible domains on pickup
// orders.
var studentPickupRate = decimal.New(5, -2)

// Resolver evaluates pricing rules against the configured campus domains
// and delivery fee.
type Resolver struct {
	StudentDomain string
	StaffDomain   string
	DeliveryFee   decimal.Decimal
}

// UnitPrice returns the member price for active members, the regular price
// otherwise.
func (r Resolver) UnitPrice(p product.Product, isMember bool) decimal.Decimal {
	if isMember {
		return p.MemberPrice
	}
	return p.Price
}

// FulfilmentFee returns the fee for the chosen mode. Pickup is free;
// delivery costs the flat fee, waived for student addresses.
func (r Resolver) FulfilmentFee(email string, mode order.Fulfilment) decimal.Decimal {
	if mode != order.Delivery {
		return decimal.Zero
	}
	if hasDomain(email, r.StudentDomain) {
		return decimal.Zero
	}
	return r.DeliveryFee
}

// StudentPickupRate returns 0.05 for student or staff addresses on pickup
// orders, zero otherwise.
func (r Resolver) StudentPickupRate(email string, mode order.Fulfilment) decimal.Decimal {
	if mode != order.Pickup {
		return decimal.Zero
	}
	if hasDomain(email, r.StudentDomain) || hasDomain(email, r.StaffDomain) {
		return studentPickupRate
	}
	return decimal.Zero
}

func hasDomain(email, domain string) bool {
	return domain != "" && strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(domain))
}
