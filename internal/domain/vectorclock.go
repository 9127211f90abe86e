package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// VectorClock maps a peer identifier to a non-negative counter. Missing keys
// are treated as 0, so a freshly constructed VectorClock is already usable.
type VectorClock map[uuid.UUID]int

// NewVectorClock returns an empty clock with entries for every given id set
// to 0, matching the room invariant that every member appears as a key.
func NewVectorClock(ids ...uuid.UUID) VectorClock {
	vc := make(VectorClock, len(ids))
	for _, id := range ids {
		vc[id] = 0
	}
	return vc
}

// Get returns the counter for id, or 0 if absent.
func (vc VectorClock) Get(id uuid.UUID) int {
	return vc[id]
}

// Increment bumps id's coordinate by one, creating the entry if absent.
func (vc VectorClock) Increment(id uuid.UUID) {
	vc[id] = vc[id] + 1
}

// Merge sets each coordinate to the element-wise maximum of vc and other,
// including coordinates only present in other.
func (vc VectorClock) Merge(other VectorClock) {
	for id, v := range other {
		if v > vc[id] {
			vc[id] = v
		}
	}
}

// Clone returns an independent copy.
func (vc VectorClock) Clone() VectorClock {
	out := make(VectorClock, len(vc))
	for id, v := range vc {
		out[id] = v
	}
	return out
}

// LessOrEqual reports whether every coordinate of vc is <= the matching
// coordinate of other (coordinates present only in other count as 0 on vc's
// side and vice versa).
func (vc VectorClock) LessOrEqual(other VectorClock) bool {
	// Coordinates missing from vc are 0, which is <= any non-negative
	// counter, so only vc's own keys need checking.
	for id, v := range vc {
		if v > other.Get(id) {
			return false
		}
	}
	return true
}

// Equal reports whether vc and other have identical effective coordinates.
func (vc VectorClock) Equal(other VectorClock) bool {
	return vc.LessOrEqual(other) && other.LessOrEqual(vc)
}

// LessThan reports vc <= other and vc != other.
func (vc VectorClock) LessThan(other VectorClock) bool {
	return vc.LessOrEqual(other) && !vc.Equal(other)
}

// SliceExcluding returns a copy of vc with id's coordinate zeroed.
func (vc VectorClock) SliceExcluding(id uuid.UUID) VectorClock {
	out := vc.Clone()
	out[id] = 0
	return out
}

// Sum returns the sum of all coordinates.
func (vc VectorClock) Sum() int {
	total := 0
	for _, v := range vc {
		total += v
	}
	return total
}

// String renders the clock deterministically for logging, sorted by id.
func (vc VectorClock) String() string {
	ids := make([]uuid.UUID, 0, len(vc))
	for id := range vc {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var b strings.Builder
	b.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s:%d", id.String()[:8], vc[id])
	}
	b.WriteByte('}')
	return b.String()
}
