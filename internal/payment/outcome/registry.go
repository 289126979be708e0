package outcome

import (
	"errors"
	"sync"
)

var ErrAttemptExists = errors.New("payment attempt already open")

// Registry tracks the interceptors of open payment attempts by order id.
type Registry struct {
	mu       sync.RWMutex
	attempts map[string]*Interceptor
}

func NewRegistry() *Registry {
	return &Registry{attempts: make(map[string]*Interceptor)}
}

// Open registers a new interceptor. Order ids are single use, so opening an
// id twice is an error.
func (r *Registry) Open(opts Options) (*Interceptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attempts[opts.OrderID]; ok {
		return nil, ErrAttemptExists
	}
	i := NewInterceptor(opts)
	r.attempts[opts.OrderID] = i
	return i, nil
}

func (r *Registry) Get(orderID string) (*Interceptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.attempts[orderID]
	return i, ok
}

func (r *Registry) Close(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, orderID)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.attempts)
}
