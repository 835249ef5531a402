package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a customer's stored balance, debited at checkout and credited
// by top-ups.
type Account struct {
	Email     string          `json:"email" db:"email"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// TopUp is the payload for crediting an account.
type TopUp struct {
	Amount decimal.Decimal `json:"amount"`
}
