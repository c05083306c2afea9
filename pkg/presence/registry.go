package presence

import (
	"gochat/pkg/protocol"
	"sync"
)

// Registry is the authoritative set of currently connected, identity-bound
// clients, keyed by connection id with a secondary per-user index.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Client
	byUser map[string]map[string]*Client
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]*Client),
		byUser: make(map[string]map[string]*Client),
	}
}

// Register adds a client to the roster. Registering an already-registered
// connection id replaces the previous binding idempotently; the replaced
// client is closed so no orphan writer survives.
func (r *Registry) Register(client *Client) {
	r.mu.Lock()
	var replaced *Client
	if existing, ok := r.conns[client.id]; ok && existing != client {
		replaced = existing
		r.removeLocked(existing)
	}
	r.conns[client.id] = client
	userConns, ok := r.byUser[client.identity.UserID]
	if !ok {
		userConns = make(map[string]*Client)
		r.byUser[client.identity.UserID] = userConns
	}
	userConns[client.id] = client
	r.mu.Unlock()

	if replaced != nil {
		replaced.Close()
	}
}

// Deregister removes a connection from the roster. Unknown ids are a no-op,
// tolerating races between liveness reap and transport close.
func (r *Registry) Deregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.conns[connID]
	if !ok {
		return
	}
	r.removeLocked(client)
}

// removeLocked drops a client from both indexes. Caller holds r.mu.
func (r *Registry) removeLocked(client *Client) {
	delete(r.conns, client.id)
	if userConns, ok := r.byUser[client.identity.UserID]; ok {
		delete(userConns, client.id)
		if len(userConns) == 0 {
			delete(r.byUser, client.identity.UserID)
		}
	}
}

// Get returns a registered client by connection id
func (r *Registry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.conns[connID]
	return client, ok
}

// ConnectionsForUser returns every live connection bound to the user,
// supporting multi-device fan-out.
func (r *Registry) ConnectionsForUser(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userConns, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	clients := make([]*Client, 0, len(userConns))
	for _, client := range userConns {
		clients = append(clients, client)
	}
	return clients
}

// Snapshot returns one roster entry per registered connection. Entries are
// not deduplicated by user: each device shows up.
func (r *Registry) Snapshot() []protocol.RosterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]protocol.RosterEntry, 0, len(r.conns))
	for _, client := range r.conns {
		entries = append(entries, protocol.RosterEntry{
			UserID:   client.identity.UserID,
			Username: client.identity.Username,
		})
	}
	return entries
}

// All returns all registered clients
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.conns))
	for _, client := range r.conns {
		clients = append(clients, client)
	}
	return clients
}

// Count returns the number of registered connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
