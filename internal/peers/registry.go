// Package peers implements the set of known peers, keyed by stable
// identifier. Grounded on gossip.SWIM's members map: a plain map guarded by
// a mutex, with add/remove idioms that never hand out direct pointers
// across goroutine boundaries (see DESIGN.md re: "mutually referential
// peer/room graph").
package peers

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/domain"
)

// Registry is a set of peers unique by identifier. It is coordinator-private
// in normal use (§5) but is safe to call from multiple goroutines since the
// diagnostics API reads it concurrently with the coordinator's event loop.
type Registry struct {
	mu   sync.RWMutex
	self uuid.UUID
	byID map[uuid.UUID]domain.Peer
}

// New returns an empty registry that will refuse to add selfID.
func New(selfID uuid.UUID) *Registry {
	return &Registry{self: selfID, byID: make(map[uuid.UUID]domain.Peer)}
}

// Add inserts p. Returns domain.ErrPeerAlreadyPresent if a peer with the
// same id already exists; this is an additive idempotency signal, not a
// failure (handlers ignore it). Self is never added, silently.
func (r *Registry) Add(p domain.Peer) error {
	if p.ID == r.self {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; ok {
		return domain.ErrPeerAlreadyPresent
	}
	r.byID[p.ID] = p
	return nil
}

// Remove drops id from the registry. Idempotent: removing an unknown id is
// a no-op.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

// Get returns the peer for id and whether it was found.
func (r *Registry) Get(id uuid.UUID) (domain.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

// All returns every known peer. Iteration order is not stable across calls.
func (r *Registry) All() []domain.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Peer, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out
}

// Len returns the number of known peers (excluding self, which is never
// present).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
