package promo

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no promo carries the requested code.
var ErrNotFound = errors.New("promo code not found")

// Promo is one promotional discount definition, immutable once loaded.
type Promo struct {
	Code    string     `json:"code" db:"code"`
	Percent int        `json:"percent" db:"percent"`
	Scope   string     `json:"scope" db:"scope"`
	Expiry  *time.Time `json:"expiry" db:"expiry"`
}

// Expired reports whether the promo's expiry date lies strictly before the
// given day. A nil expiry never expires.
func (p Promo) Expired(today time.Time) bool {
	if p.Expiry == nil {
		return false
	}

	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	ey, em, ed := p.Expiry.Date()
	exp := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)

	return exp.Before(day)
}
