package transport

import (
	"context"
	"sync"
)

// Registry routes outbound messages. Addresses with a registered
// direct sender (console connections) bypass the default messaging
// API.
type Registry struct {
	mu       sync.RWMutex
	direct   map[string]Sender
	fallback Sender
}

// NewRegistry creates a registry that falls back to the given sender.
func NewRegistry(fallback Sender) *Registry {
	return &Registry{
		direct:   make(map[string]Sender),
		fallback: fallback,
	}
}

// Register installs a direct sender for addr, replacing any previous
// one.
func (r *Registry) Register(addr string, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.direct[addr] = s
}

// Unregister removes the direct sender for addr.
func (r *Registry) Unregister(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.direct, addr)
}

// Send delivers to the direct sender for addr when one is registered,
// otherwise to the fallback.
func (r *Registry) Send(ctx context.Context, to, body string) error {
	r.mu.RLock()
	s, ok := r.direct[to]
	r.mu.RUnlock()
	if ok {
		return s.Send(ctx, to, body)
	}
	return r.fallback.Send(ctx, to, body)
}
