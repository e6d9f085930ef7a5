package ws

import (
	"sync"
)

// Registry maps a restaurant to the live connections of its admin
// consoles, for session-notification fan-out. References are non-owning;
// Deregister on disconnect is mandatory so no entry outlives its
// connection.
type Registry struct {
	mu     sync.RWMutex
	admins map[int64]map[Conn]struct{} // restaurantID -> set of connections
}

func NewRegistry() *Registry {
	return &Registry{admins: make(map[int64]map[Conn]struct{})}
}

func (r *Registry) Register(restaurantID int64, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.admins[restaurantID]
	if !ok {
		cs = make(map[Conn]struct{})
		r.admins[restaurantID] = cs
	}
	cs[c] = struct{}{}
}

// Deregister removes the connection from every entry it appears in. A
// connection registers under one restaurant, but the scan keeps a stale
// double registration from leaking.
func (r *Registry) Deregister(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for restaurantID, cs := range r.admins {
		delete(cs, c)
		if len(cs) == 0 {
			delete(r.admins, restaurantID)
		}
	}
}

func (r *Registry) NotifyAll(restaurantID int64, event string, payload any) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cs, ok := r.admins[restaurantID]; ok {
		for c := range cs {
			_ = c.Emit(event, payload) // best-effort
		}
	}
}
