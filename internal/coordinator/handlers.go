package coordinator

import (
	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/domain"
	"github.com/lanchat/lanchat/internal/netio"
	"github.com/lanchat/lanchat/internal/rooms"
	"github.com/lanchat/lanchat/internal/wire"
)

// dispatch runs on the event loop goroutine only; every handler below may
// freely mutate c.Peers, c.Rooms, and c.acks without additional locking.
func (c *Coordinator) dispatch(ev netio.Event) {
	env := ev.Env
	switch env.Kind {
	case wire.KindPing:
		c.onPing(env.Sender)
	case wire.KindPong:
		c.onPong(env.Sender)
	case wire.KindRoomMembership:
		c.onRoomMembership(env.Room, env.AckID, ev.From)
	case wire.KindRoomText:
		c.onRoomText(env.Text)
	case wire.KindDeleteRoom:
		c.onDeleteRoom(env.RoomID, env.AckID, env.SenderID)
	case wire.KindLeaveNetwork:
		c.onLeaveNetwork(env.Sender, env.AckID)
	case wire.KindAckUni:
		c.onAckUni(env.AckID, ev.From)
	case wire.KindAckMulti:
		c.onAckMulti(env.AckID, env.SenderID)
	default:
		c.logf("dropping datagram of unrecognized kind %v from %s", env.Kind, ev.From)
	}
}

// onPing replies with PONG unless peer is self, then adds peer to the
// registry, ignoring the benign ErrPeerAlreadyPresent signal (§4.7 onPing).
func (c *Coordinator) onPing(peer domain.Peer) {
	if peer.ID == c.self.ID {
		return
	}
	c.sender.SendUnicast(wire.Pong(c.self), peer.Addr)
	c.addPeer(peer)
}

// onPong adds peer, ignoring duplicates (§4.7 onPong).
func (c *Coordinator) onPong(peer domain.Peer) {
	c.addPeer(peer)
}

func (c *Coordinator) addPeer(peer domain.Peer) {
	if err := c.Peers.Add(peer); err == nil {
		c.notify(Notification{Kind: NotificationPeerDiscovered, Message: peer.Username, PeerID: peer.ID})
	}
}

// onRoomMembership acks the sender at its datagram source address, merges
// any previously-unknown room members into the peer registry, and — the
// first time this room is seen — joins it as a participating room and
// notifies (§4.7 onRoomMembership).
func (c *Coordinator) onRoomMembership(room domain.Room, ackID uuid.UUID, fromAddr string) {
	if addr, err := parseAddrPort(fromAddr); err == nil {
		c.sender.SendUnicast(wire.AckUni(c.self.ID, ackID), addr)
	}

	for _, member := range room.Members {
		if member.ID != c.self.ID {
			c.addPeer(member)
		}
	}

	if c.Rooms.IsParticipating(room.ID) || c.Rooms.IsCreated(room.ID) {
		return
	}

	roomCopy := room
	roomCopy.Deferred = domain.NewDeferralQueue()
	c.Rooms.AddParticipating(&roomCopy)
	c.joinMulticastGroup(roomCopy.ID, roomCopy.MulticastAddr)

	c.notify(Notification{Kind: NotificationRoomJoined, Message: roomCopy.Name, RoomID: roomCopy.ID})
}

// onRoomText acks the sender's room, looks up the room, and evaluates
// causality (§4.7.1 via internal/rooms).
func (c *Coordinator) onRoomText(msg domain.TextMessage) {
	room, ok := c.Rooms.Get(msg.RoomID)
	if !ok {
		return
	}
	c.sender.SendMulticast(wire.AckMulti(c.self.ID, msg.AckID), room.MulticastAddr)

	status, delivered := rooms.Deliver(room, msg, c.self.ID)
	if status == domain.Accepted {
		for _, m := range delivered {
			c.notify(Notification{Kind: NotificationRoomText, Message: m.Text, RoomID: room.ID, PeerID: m.AuthorID})
		}
	}
}

// onDeleteRoom acks, then (if we participate in the room) drops any
// multicast ack lists targeting its group, removes the room, and clears
// the displayed pointer if it matched (§4.7 onDeleteRoom).
func (c *Coordinator) onDeleteRoom(roomID, ackID, senderID uuid.UUID) {
	room, ok := c.Rooms.Get(roomID)
	if ok {
		c.sender.SendMulticast(wire.AckMulti(c.self.ID, ackID), room.MulticastAddr)
	}
	if !c.Rooms.IsParticipating(roomID) {
		return
	}

	c.acks.OnRoomDeleted(room.MulticastAddr)
	c.leaveMulticastGroup(roomID)
	c.Rooms.Remove(roomID)
	c.clearDisplayedRoomIfMatches(roomID)

	c.notify(Notification{Kind: NotificationRoomDeleted, Message: room.Name, RoomID: roomID, PeerID: senderID})
}

// onLeaveNetwork acks, removes every room containing peer (notifying for
// each), applies ack-list peer-departure fixups, removes peer from the
// registry, and clears the displayed pointer if it was removed
// (§4.7 onLeaveNetwork).
func (c *Coordinator) onLeaveNetwork(peer domain.Peer, ackID uuid.UUID) {
	c.sender.SendUnicast(wire.AckUni(c.self.ID, ackID), peer.Addr)

	for _, room := range c.Rooms.RoomsContainingMember(peer.ID) {
		c.leaveMulticastGroup(room.ID)
		c.Rooms.Remove(room.ID)
		c.clearDisplayedRoomIfMatches(room.ID)
		c.notify(Notification{Kind: NotificationRoomDeleted, Message: room.Name, RoomID: room.ID, PeerID: peer.ID})
	}

	c.acks.OnPeerDeparture(peer.ID, peer.Addr)
	c.Peers.Remove(peer.ID)

	c.notify(Notification{Kind: NotificationPeerLeft, Message: peer.Username, PeerID: peer.ID})
}

// onAckUni forwards to the ack manager's unicast update (§4.6).
func (c *Coordinator) onAckUni(ackID uuid.UUID, fromAddr string) {
	addr, err := parseAddrPort(fromAddr)
	if err != nil {
		return
	}
	c.acks.UpdateUni(ackID, addr)
}

// onAckMulti forwards to the ack manager's multicast update (§4.6).
func (c *Coordinator) onAckMulti(ackID, senderID uuid.UUID) {
	c.acks.UpdateMulti(ackID, senderID)
}
