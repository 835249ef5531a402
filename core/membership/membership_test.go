package membership

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestActive(t *testing.T) {
	today := date(2026, 6, 1)
	future := date(2026, 6, 1)
	past := date(2026, 5, 31)

	tests := []struct {
		name string
		m    Membership
		want bool
	}{
		{"zero value", Membership{}, false},
		{"active without end", Membership{Status: StatusActive}, true},
		{"active ending today", Membership{Status: StatusActive, EndDate: &future}, true},
		{"active ended yesterday", Membership{Status: StatusActive, EndDate: &past}, false},
		{"cancelled", Membership{Status: StatusCancelled, EndDate: &future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Active(today); got != tt.want {
				t.Fatalf("expected %v, but got %v", tt.want, got)
			}
		})
	}
}

func TestExtendFirstPurchase(t *testing.T) {
	today := date(2026, 6, 1)

	m := Membership{}.Extend("alice@student.campus.edu", today)

	if m.Status != StatusActive {
		t.Fatalf("expected ACTIVE, but got %s", m.Status)
	}
	if m.Plan != "VIP" {
		t.Fatalf("expected plan VIP, but got %s", m.Plan)
	}
	if !m.StartDate.Equal(today) {
		t.Fatalf("expected start %s, but got %s", today, m.StartDate)
	}
	if want := date(2027, 6, 1); m.EndDate == nil || !m.EndDate.Equal(want) {
		t.Fatalf("expected end %s, but got %v", want, m.EndDate)
	}
}

func TestExtendRenewal(t *testing.T) {
	today := date(2026, 6, 1)
	end := date(2026, 9, 1)

	// A renewal before expiry extends from the current end date, so no
	// paid-for time is lost.
	m := Membership{
		Email:     "alice@student.campus.edu",
		Plan:      "VIP",
		Status:    StatusActive,
		StartDate: date(2025, 9, 1),
		EndDate:   &end,
	}.Extend("alice@student.campus.edu", today)

	if want := date(2027, 9, 1); m.EndDate == nil || !m.EndDate.Equal(want) {
		t.Fatalf("expected end %s, but got %v", want, m.EndDate)
	}
	if !m.StartDate.Equal(date(2025, 9, 1)) {
		t.Fatalf("expected start date kept, but got %s", m.StartDate)
	}
}

func TestExtendAfterLapse(t *testing.T) {
	today := date(2026, 6, 1)
	end := date(2026, 1, 15)

	m := Membership{
		Email:   "alice@student.campus.edu",
		Status:  StatusCancelled,
		EndDate: &end,
	}.Extend("alice@student.campus.edu", today)

	if m.Status != StatusActive {
		t.Fatalf("expected ACTIVE, but got %s", m.Status)
	}
	if want := date(2027, 6, 1); m.EndDate == nil || !m.EndDate.Equal(want) {
		t.Fatalf("expected end %s, but got %v", want, m.EndDate)
	}
}
