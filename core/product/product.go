package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one catalog entry. MemberPrice is the unit price charged to
// customers with an active membership.
type Product struct {
	ID          string          `json:"id" db:"product_id"`
	Name        string          `json:"name" db:"name"`
	Category    string          `json:"category" db:"category"`
	Subcategory string          `json:"subcategory" db:"subcategory"`
	Brand       string          `json:"brand" db:"brand"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	MemberPrice decimal.Decimal `json:"memberPrice" db:"member_price"`
	Stock       int             `json:"stock" db:"stock"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

type ProductNew struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Category    string          `json:"category" validate:"required"`
	Subcategory string          `json:"subcategory"`
	Brand       string          `json:"brand"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	MemberPrice decimal.Decimal `json:"memberPrice"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

type ProductUp struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Subcategory *string          `json:"subcategory"`
	Brand       *string          `json:"brand"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	MemberPrice *decimal.Decimal `json:"memberPrice"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

// Filter narrows catalog queries; zero values mean "no constraint".
type Filter struct {
	Search      string
	Category    string
	Brand       string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStockOnly bool
}
