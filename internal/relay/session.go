package relay

import (
	"sync"

	"github.com/nfrund/relay/internal/domain"
)

// SessionRegistry binds live connections to verified identities. A
// connection is absent until its auth flow succeeds; every routing decision
// starts with a lookup here. Entries are dropped when the transport reports
// the connection gone, so an identity can never outlive its socket.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Identity
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*domain.Identity),
	}
}

// Bind attaches a verified identity to a connection.
func (r *SessionRegistry) Bind(connID string, identity *domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[connID] = identity
}

// Lookup returns the identity bound to a connection, or ok=false for an
// unauthenticated connection.
func (r *SessionRegistry) Lookup(connID string) (*domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.sessions[connID]
	return identity, ok
}

// Drop releases a connection's binding. Safe to call for connections that
// never authenticated.
func (r *SessionRegistry) Drop(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, connID)
}

// Len returns the number of authenticated sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
