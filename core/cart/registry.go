package cart

import "sync"

// Registry owns the live carts of the process, keyed by customer email.
type Registry struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[string]*Cart)}
}

// Get returns the customer's cart, creating it on first access.
func (r *Registry) Get(email string) *Cart {
	r.mu.RLock()
	c, ok := r.carts[email]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.carts[email]; ok {
		return c
	}
	c = New()
	r.carts[email] = c
	return c
}

// Drop discards the customer's cart. Called on logout.
func (r *Registry) Drop(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, email)
}
