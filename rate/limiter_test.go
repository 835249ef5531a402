package rate

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	interval := 10 * time.Millisecond
	lim := NewLimiter(1, 100, Every(interval))

	tooshort := 1 * time.Millisecond

	client := "203.0.113.7"
	expected := []bool{true, false, true, true, false, false}
	waits := []time.Duration{tooshort, interval, interval, tooshort, tooshort, tooshort}
	for i, exp := range expected {
		if got := lim.Check(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterWithBurst(t *testing.T) {
	client := "203.0.113.7"
	burst := 10

	interval := 100 * time.Millisecond
	tooshort := 10 * time.Millisecond
	shortest := 1 * time.Millisecond

	// The full burst passes back to back, then the bucket must refill.
	expected := make([]bool, 0, burst+6)
	waits := make([]time.Duration, 0, burst+6)
	for i := 0; i < burst; i++ {
		expected = append(expected, true)
		waits = append(waits, 0)
	}
	expected = append(expected, false, true, true, false, false, false)
	waits = append(waits, interval, interval, tooshort, tooshort, shortest, shortest)

	lim := NewLimiter(burst, 100, Every(interval))
	for i, exp := range expected {
		if got := lim.Check(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterIsolatesClients(t *testing.T) {
	lim := NewLimiter(1, 100, Every(time.Second))

	if !lim.Check("a") {
		t.Fatal("expected first request of client a to pass")
	}
	if lim.Check("a") {
		t.Fatal("expected second request of client a to be limited")
	}
	if !lim.Check("b") {
		t.Fatal("expected client b to have its own bucket")
	}
}
