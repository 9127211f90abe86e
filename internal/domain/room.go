package domain

import (
	"net/netip"

	"github.com/google/uuid"
)

// Room is a named multicast group with an explicit member set, a vector
// clock tracking causal delivery progress, and a deferral queue of
// causally-pending text messages. A room identifier lives in exactly one of
// {created-rooms, participating-rooms} at each node (see RoomRegistry).
type Room struct {
	ID            uuid.UUID          `json:"id"`
	Name          string             `json:"name"`
	MulticastAddr netip.AddrPort     `json:"multicast_addr"`
	Members       map[uuid.UUID]Peer `json:"members"`
	Clock         VectorClock        `json:"clock"`

	// Deferred holds text messages received but not yet causally
	// deliverable. It is not serialized on the wire — ROOM_MEMBERSHIP only
	// ships the room's static shape.
	Deferred *DeferralQueue `json:"-"`

	// History holds messages delivered so far, in delivery order, for the
	// external shell to render. Not part of the wire shape.
	History []TextMessage `json:"-"`
}

// NewRoom builds a Room with the given members (including self), a zeroed
// vector clock keyed by every member, and an empty deferral queue. Carrying
// full Peer records (not bare ids) lets ROOM_MEMBERSHIP ship each member's
// address on the wire, so a receiving peer can merge previously-unknown
// members into its own registry (§4.7 onRoomMembership).
func NewRoom(name string, multicastAddr netip.AddrPort, members ...Peer) *Room {
	memberMap := make(map[uuid.UUID]Peer, len(members))
	ids := make([]uuid.UUID, 0, len(members))
	for _, p := range members {
		memberMap[p.ID] = p
		ids = append(ids, p.ID)
	}
	return &Room{
		ID:            uuid.New(),
		Name:          name,
		MulticastAddr: multicastAddr,
		Members:       memberMap,
		Clock:         NewVectorClock(ids...),
		Deferred:      NewDeferralQueue(),
	}
}

// MemberIDs returns the member set as a slice, in no particular order.
func (r *Room) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Members))
	for id := range r.Members {
		ids = append(ids, id)
	}
	return ids
}

// HasMember reports whether id is a member of r.
func (r *Room) HasMember(id uuid.UUID) bool {
	_, ok := r.Members[id]
	return ok
}

// AddMember inserts peer into the member set and gives it a vector clock
// coordinate if it didn't already have one, preserving the room invariant
// that every member is a clock key.
func (r *Room) AddMember(peer Peer) {
	r.Members[peer.ID] = peer
	if _, ok := r.Clock[peer.ID]; !ok {
		r.Clock[peer.ID] = 0
	}
}

// OthersExcluding returns every member's Peer record except self's.
func (r *Room) OthersExcluding(self uuid.UUID) []Peer {
	out := make([]Peer, 0, len(r.Members))
	for id, p := range r.Members {
		if id != self {
			out = append(out, p)
		}
	}
	return out
}

// DeferralQueue is a per-room FIFO of messages withheld from delivery
// pending causal dependencies.
type DeferralQueue struct {
	items []TextMessage
}

// NewDeferralQueue returns an empty queue.
func NewDeferralQueue() *DeferralQueue {
	return &DeferralQueue{}
}

// Push appends msg to the queue tail.
func (q *DeferralQueue) Push(msg TextMessage) {
	q.items = append(q.items, msg)
}

// Snapshot returns a copy of the currently queued messages, in FIFO order.
func (q *DeferralQueue) Snapshot() []TextMessage {
	out := make([]TextMessage, len(q.items))
	copy(out, q.items)
	return out
}

// Remove drops the message identified by ackID from the queue, if present.
func (q *DeferralQueue) Remove(ackID uuid.UUID) {
	for i, m := range q.items {
		if m.AckID == ackID {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Len reports the number of queued messages.
func (q *DeferralQueue) Len() int {
	return len(q.items)
}
