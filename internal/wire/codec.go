// Package wire encodes and decodes the protocol's datagrams. A UDP packet is
// already length-delimited by the kernel, so the codec does not add its own
// length prefix — it only needs a self-describing envelope, the same choice
// gossip.Message makes for SWIM traffic.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/domain"
)

// Kind discriminates the envelope payload.
type Kind uint8

const (
	KindPing Kind = iota + 1
	KindPong
	KindRoomMembership
	KindDeleteRoom
	KindRoomText
	KindLeaveNetwork
	KindAckUni
	KindAckMulti
)

func (k Kind) String() string {
	switch k {
	case KindPing:
		return "PING"
	case KindPong:
		return "PONG"
	case KindRoomMembership:
		return "ROOM_MEMBERSHIP"
	case KindDeleteRoom:
		return "DELETE_ROOM"
	case KindRoomText:
		return "ROOM_TEXT"
	case KindLeaveNetwork:
		return "LEAVE_NETWORK"
	case KindAckUni:
		return "ACK_UNI"
	case KindAckMulti:
		return "ACK_MULTI"
	default:
		return "UNKNOWN"
	}
}

// Envelope is the single wire shape every datagram carries. Only the fields
// relevant to Kind are populated; the rest are zero-valued.
type Envelope struct {
	Kind Kind `json:"kind"`

	// PING, PONG
	Sender domain.Peer `json:"sender"`

	// ROOM_MEMBERSHIP
	Room  domain.Room `json:"room"`
	AckID uuid.UUID   `json:"ack_id"`

	// DELETE_ROOM reuses AckID; SenderID below.
	RoomID uuid.UUID `json:"room_id"`

	// ROOM_TEXT
	Text domain.TextMessage `json:"text"`

	// LEAVE_NETWORK reuses Sender + AckID.

	// ACK_UNI, ACK_MULTI, DELETE_ROOM
	SenderID uuid.UUID `json:"sender_id"`
}

// SenderIdentity returns the peer identifier that originated env, used by
// the multicast listener to self-filter loopback deliveries by sender
// identifier rather than source address (§4.5).
func (e Envelope) SenderIdentity() uuid.UUID {
	switch e.Kind {
	case KindPing, KindPong, KindLeaveNetwork:
		return e.Sender.ID
	case KindRoomText:
		return e.Text.AuthorID
	case KindRoomMembership, KindDeleteRoom, KindAckUni, KindAckMulti:
		return e.SenderID
	default:
		return uuid.Nil
	}
}

// Encode marshals env to a byte buffer suitable for a single UDP datagram.
func Encode(env Envelope) ([]byte, error) {
	buf, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Kind, err)
	}
	return buf, nil
}

// Decode unmarshals a datagram into an Envelope. Malformed buffers are
// rejected with an error; callers at the listener layer swallow it (§7).
func Decode(buf []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode: %w", err)
	}
	return env, nil
}

// ─── Constructors ───────────────────────────────────────────────────────────
// One constructor per kind keeps call sites from hand-assembling envelopes
// with the wrong fields populated.

func Ping(self domain.Peer) Envelope {
	return Envelope{Kind: KindPing, Sender: self}
}

func Pong(self domain.Peer) Envelope {
	return Envelope{Kind: KindPong, Sender: self}
}

func RoomMembership(room domain.Room, senderID, ackID uuid.UUID) Envelope {
	return Envelope{Kind: KindRoomMembership, Room: room, SenderID: senderID, AckID: ackID}
}

func DeleteRoom(roomID, senderID, ackID uuid.UUID) Envelope {
	return Envelope{Kind: KindDeleteRoom, RoomID: roomID, SenderID: senderID, AckID: ackID}
}

func RoomText(msg domain.TextMessage) Envelope {
	return Envelope{Kind: KindRoomText, Text: msg}
}

func LeaveNetwork(self domain.Peer, ackID uuid.UUID) Envelope {
	return Envelope{Kind: KindLeaveNetwork, Sender: self, AckID: ackID}
}

func AckUni(senderID, ackID uuid.UUID) Envelope {
	return Envelope{Kind: KindAckUni, SenderID: senderID, AckID: ackID}
}

func AckMulti(senderID, ackID uuid.UUID) Envelope {
	return Envelope{Kind: KindAckMulti, SenderID: senderID, AckID: ackID}
}
