package membership

import (
	"time"
)

const (
	StatusActive    = "ACTIVE"
	StatusCancelled = "CANCELLED"
)

// Membership is a customer's membership record. Active membership unlocks
// the member unit price during checkout.
type Membership struct {
	Email     string     `json:"email" db:"email"`
	Plan      string     `json:"plan" db:"plan"`
	Status    string     `json:"status" db:"status"`
	StartDate time.Time  `json:"startDate" db:"start_date"`
	EndDate   *time.Time `json:"endDate" db:"end_date"`
	UpdatedAt time.Time  `json:"-" db:"updated_at"`
}

// Active reports whether the membership counts as active on the given day:
// status ACTIVE and no end date, or an end date on or after today.
func (m Membership) Active(today time.Time) bool {
	if m.Status != StatusActive {
		return false
	}
	if m.EndDate == nil {
		return true
	}
	return !dateOnly(*m.EndDate).Before(dateOnly(today))
}

// Extend pushes the membership one year further. A still-active membership
// extends from its current end date, anything else restarts from today.
// Works on a zero Membership for first-time purchases.
func (m Membership) Extend(email string, today time.Time) Membership {
	base := dateOnly(today)
	if m.EndDate != nil && !dateOnly(*m.EndDate).Before(base) {
		base = dateOnly(*m.EndDate)
	}
	end := base.AddDate(1, 0, 0)

	next := m
	next.Email = email
	next.Status = StatusActive
	if next.Plan == "" {
		next.Plan = "VIP"
	}
	if next.StartDate.IsZero() {
		next.StartDate = dateOnly(today)
	}
	next.EndDate = &end
	return next
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
