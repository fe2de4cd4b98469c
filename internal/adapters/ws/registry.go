package ws

import "sync"

// Registry maps connection ids to live clients so broadcast sets
// resolved by the core can be delivered.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*client)}
}

// bind registers c, returning any client previously bound to the same
// connection id so the caller can close it.
func (r *Registry) bind(c *client) *client {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.clients[c.connectionID]
	r.clients[c.connectionID] = c
	return old
}

// unbind removes the entry only if it still points at c, so a stale
// connection's teardown cannot evict its replacement. Reports whether
// c was the bound client.
func (r *Registry) unbind(c *client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clients[c.connectionID] != c {
		return false
	}
	delete(r.clients, c.connectionID)
	return true
}

func (r *Registry) get(connectionID string) (*client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[connectionID]
	return c, ok
}

// Count reports the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
