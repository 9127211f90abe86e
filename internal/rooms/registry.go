// Package rooms owns the two disjoint room sets a node tracks (created vs
// participating) and the causal-delivery logic that drains each room's
// deferral queue. Grounded on the MessageReceptacle rescan shape from the
// sfurman3/chatroom vector package (other_examples): accept a message,
// merge its clock, then re-scan everything still withheld for messages that
// now qualify.
package rooms

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/domain"
)

// Registry tracks created-rooms and participating-rooms. A room id
// belongs to exactly one of the two sets (invariant #1, §8).
type Registry struct {
	mu            sync.RWMutex
	created       map[uuid.UUID]*domain.Room
	participating map[uuid.UUID]*domain.Room
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		created:       make(map[uuid.UUID]*domain.Room),
		participating: make(map[uuid.UUID]*domain.Room),
	}
}

// AddCreated inserts room into the created-rooms set.
func (r *Registry) AddCreated(room *domain.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created[room.ID] = room
}

// AddParticipating inserts room into the participating-rooms set.
func (r *Registry) AddParticipating(room *domain.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participating[room.ID] = room
}

// IsCreated reports whether id is in the created-rooms set.
func (r *Registry) IsCreated(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.created[id]
	return ok
}

// IsParticipating reports whether id is in the participating-rooms set.
func (r *Registry) IsParticipating(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.participating[id]
	return ok
}

// Get returns the room for id from whichever set holds it.
func (r *Registry) Get(id uuid.UUID) (*domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if room, ok := r.created[id]; ok {
		return room, true
	}
	if room, ok := r.participating[id]; ok {
		return room, true
	}
	return nil, false
}

// GetByName returns the unique room matching name across both sets.
// Returns domain.ErrInvalidParameter if zero rooms match, or a
// *domain.SameRoomNameError if more than one matches (§4.7.2).
func (r *Registry) GetByName(name string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []domain.Room
	for _, room := range r.created {
		if room.Name == name {
			matches = append(matches, *room)
		}
	}
	for _, room := range r.participating {
		if room.Name == name {
			matches = append(matches, *room)
		}
	}

	switch len(matches) {
	case 0:
		return nil, domain.ErrInvalidParameter
	case 1:
		if room, ok := r.created[matches[0].ID]; ok {
			return room, nil
		}
		return r.participating[matches[0].ID], nil
	default:
		return nil, &domain.SameRoomNameError{Name: name, Candidates: matches}
	}
}

// RemoveCreated drops id from the created-rooms set, if present.
func (r *Registry) RemoveCreated(id uuid.UUID) (*domain.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.created[id]
	if ok {
		delete(r.created, id)
	}
	return room, ok
}

// Remove drops id from whichever set holds it.
func (r *Registry) Remove(id uuid.UUID) (*domain.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.created[id]; ok {
		delete(r.created, id)
		return room, true
	}
	if room, ok := r.participating[id]; ok {
		delete(r.participating, id)
		return room, true
	}
	return nil, false
}

// AllCreated returns every created room.
func (r *Registry) AllCreated() []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Room, 0, len(r.created))
	for _, room := range r.created {
		out = append(out, room)
	}
	return out
}

// AllParticipating returns every participating room.
func (r *Registry) AllParticipating() []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Room, 0, len(r.participating))
	for _, room := range r.participating {
		out = append(out, room)
	}
	return out
}

// All returns every room in either set.
func (r *Registry) All() []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Room, 0, len(r.created)+len(r.participating))
	for _, room := range r.created {
		out = append(out, room)
	}
	for _, room := range r.participating {
		out = append(out, room)
	}
	return out
}

// RoomsContainingMember returns every room (both sets) that has peerID as a
// member, used for leave-network cleanup (§4.7 onLeaveNetwork).
func (r *Registry) RoomsContainingMember(peerID uuid.UUID) []*domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Room
	for _, room := range r.created {
		if room.HasMember(peerID) {
			out = append(out, room)
		}
	}
	for _, room := range r.participating {
		if room.HasMember(peerID) {
			out = append(out, room)
		}
	}
	return out
}
