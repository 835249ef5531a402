// Package rate keeps a token-bucket limiter per client so one customer
// hammering the store cannot starve the rest.
package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter tracks one token bucket per client id. Idle clients are evicted
// after Expiry minutes by a background sweep.
type Limiter struct {
	Expiry   int
	Burst    int
	LimitRPS float64

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func NewLimiter(burst int, expiry int, limitRPS float64) *Limiter {
	lm := &Limiter{
		Expiry:   expiry,
		Burst:    burst,
		LimitRPS: limitRPS,
		clients:  make(map[string]*client),
	}
	go lm.sweep()
	return lm
}

// Check reports whether the client may proceed, consuming one token.
func (l *Limiter) Check(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[id]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(rate.Limit(l.LimitRPS), l.Burst)}
		l.clients[id] = cl
	}
	cl.lastAccess = time.Now()
	return cl.limiter.Allow()
}

func (l *Limiter) sweep() {
	for {
		time.Sleep(time.Minute)

		l.mu.Lock()
		for id, cl := range l.clients {
			if time.Since(cl.lastAccess) > time.Duration(l.Expiry)*time.Minute {
				delete(l.clients, id)
			}
		}
		l.mu.Unlock()
	}
}

// Every converts a minimum interval between requests into a rate.
func Every(interval time.Duration) float64 {
	return float64(rate.Every(interval))
}
