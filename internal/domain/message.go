package domain

import "github.com/google/uuid"

// TextMessage is a room chat message, carrying a snapshot of the author's
// room vector clock taken immediately after incrementing the author's own
// coordinate.
type TextMessage struct {
	RoomID   uuid.UUID   `json:"room_id"`
	AuthorID uuid.UUID   `json:"author_id"`
	Text     string      `json:"text"`
	Clock    VectorClock `json:"clock"`
	AckID    uuid.UUID   `json:"ack_id"`
}

// DeliveryStatus is the outcome of evaluating a TextMessage's causality
// against a room's current clock (see rooms.Decide for the rules).
type DeliveryStatus int

const (
	// Discarded means the message is a duplicate or already superseded.
	Discarded DeliveryStatus = iota
	// Accepted means the message can be delivered immediately.
	Accepted
	// Queued means the message must wait in the deferral queue for its
	// causal dependencies to arrive.
	Queued
)

func (s DeliveryStatus) String() string {
	switch s {
	case Discarded:
		return "DISCARDED"
	case Accepted:
		return "ACCEPTED"
	case Queued:
		return "QUEUED"
	default:
		return "UNKNOWN"
	}
}
