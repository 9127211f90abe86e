package coordinator

import (
	"fmt"
	"net/netip"

	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/domain"
	"github.com/lanchat/lanchat/internal/wire"
)

// CreateRoom builds a Room with self plus selectedPeerIds, assigns it a
// fresh randomized multicast group, adds it to created-rooms, joins the
// group locally, and sends one ROOM_MEMBERSHIP to each other member under a
// single shared ack-id (§4.7 createRoom).
func (c *Coordinator) CreateRoom(name string, selectedPeerIDs []uuid.UUID) (*domain.Room, error) {
	if len(selectedPeerIDs) == 0 {
		return nil, domain.ErrEmptyRoom
	}

	var room *domain.Room
	var createErr error

	c.do(func() {
		for _, id := range selectedPeerIDs {
			if _, ok := c.Peers.Get(id); !ok {
				createErr = fmt.Errorf("%w: unknown peer %s", domain.ErrInvalidParameter, id)
				return
			}
		}

		group := randomMulticastGroup(c.cfg.Network.MulticastPort)
		members := make([]domain.Peer, 0, len(selectedPeerIDs)+1)
		members = append(members, c.self)
		for _, id := range selectedPeerIDs {
			peer, _ := c.Peers.Get(id)
			members = append(members, peer)
		}
		room = domain.NewRoom(name, group, members...)

		c.Rooms.AddCreated(room)
		c.joinMulticastGroup(room.ID, group)

		ackID := uuid.New()
		env := wire.RoomMembership(*room, c.self.ID, ackID)
		var dests []netip.AddrPort
		for _, id := range selectedPeerIDs {
			peer, _ := c.Peers.Get(id)
			dests = append(dests, peer.Addr)
		}
		c.acks.CreateUnicast(ackID, env, dests)
	})

	return room, createErr
}

// DeleteCreatedRoom removes room from created-rooms immediately and
// multicasts a DELETE_ROOM under a fresh ack-id, pending every member but
// self (§4.7 deleteCreatedRoom).
func (c *Coordinator) DeleteCreatedRoom(roomID uuid.UUID) error {
	var opErr error
	c.do(func() {
		room, ok := c.Rooms.RemoveCreated(roomID)
		if !ok {
			opErr = domain.ErrInvalidParameter
			return
		}

		ackID := uuid.New()
		env := wire.DeleteRoom(room.ID, c.self.ID, ackID)
		pending := peerIDs(room.OthersExcluding(c.self.ID))
		if len(pending) > 0 {
			c.acks.CreateMulticast(ackID, env, room.MulticastAddr, pending)
		}

		c.clearDisplayedRoomIfMatches(roomID)
	})
	return opErr
}

// SendRoomText appends text to the displayed room's history, increments
// self's coordinate, snapshots the clock, and multicasts a ROOM_TEXT under
// a fresh ack-id, pending every other member (§4.7 sendRoomText).
func (c *Coordinator) SendRoomText(text string) error {
	var opErr error
	c.do(func() {
		roomID, ok := c.displayedRoomLocked()
		if !ok {
			opErr = domain.ErrInvalidParameter
			return
		}
		room, ok := c.Rooms.Get(roomID)
		if !ok {
			opErr = domain.ErrInvalidParameter
			return
		}

		room.Clock.Increment(c.self.ID)
		msg := domain.TextMessage{
			RoomID:   room.ID,
			AuthorID: c.self.ID,
			Text:     text,
			Clock:    room.Clock.Clone(),
			AckID:    uuid.New(),
		}
		room.History = append(room.History, msg)

		pending := peerIDs(room.OthersExcluding(c.self.ID))
		if len(pending) > 0 {
			c.acks.CreateMulticast(msg.AckID, wire.RoomText(msg), room.MulticastAddr, pending)
		}
	})
	return opErr
}

// LeaveRoom drops a participating room locally: tears down its multicast
// listener, removes it from the registry, and clears the displayed pointer
// if it matched. There is no corresponding wire message — spec.md's only
// network-wide departure operation is shutdown/LEAVE_NETWORK, so leaving a
// single room is purely local bookkeeping for the external shell's "leave"
// intent (§6).
func (c *Coordinator) LeaveRoom(roomID uuid.UUID) error {
	var opErr error
	c.do(func() {
		if _, ok := c.Rooms.Get(roomID); !ok {
			opErr = domain.ErrInvalidParameter
			return
		}
		c.leaveMulticastGroup(roomID)
		c.Rooms.Remove(roomID)
		c.clearDisplayedRoomIfMatches(roomID)
	})
	return opErr
}

// peerIDs projects a Peer slice down to bare identifiers, for ack.Manager
// calls that only need to know who still owes an ack.
func peerIDs(peers []domain.Peer) []uuid.UUID {
	ids := make([]uuid.UUID, len(peers))
	for i, p := range peers {
		ids[i] = p.ID
	}
	return ids
}

func (c *Coordinator) displayedRoomLocked() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.displayedRoom == nil {
		return uuid.Nil, false
	}
	return *c.displayedRoom, true
}
