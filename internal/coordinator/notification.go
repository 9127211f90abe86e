package coordinator

import "github.com/google/uuid"

// NotificationKind discriminates the user-visible events the coordinator
// raises for the external shell to render (§1 Non-goals: notification
// rendering itself is out of scope, but the coordinator must produce the
// events for whatever shell is listening).
type NotificationKind int

const (
	NotificationPeerDiscovered NotificationKind = iota
	NotificationPeerLeft
	NotificationRoomJoined
	NotificationRoomDeleted
	NotificationRoomText
)

func (k NotificationKind) String() string {
	switch k {
	case NotificationPeerDiscovered:
		return "PEER_DISCOVERED"
	case NotificationPeerLeft:
		return "PEER_LEFT"
	case NotificationRoomJoined:
		return "ROOM_JOINED"
	case NotificationRoomDeleted:
		return "ROOM_DELETED"
	case NotificationRoomText:
		return "ROOM_TEXT"
	default:
		return "UNKNOWN"
	}
}

// Notification is one user-facing event. Only the fields relevant to Kind
// are populated.
type Notification struct {
	Kind    NotificationKind
	Message string
	RoomID  uuid.UUID
	PeerID  uuid.UUID
}

// notify posts n without blocking the event loop; if the notification
// buffer is full because the shell isn't draining fast enough, n itself is
// dropped and logged rather than stalling protocol processing.
func (c *Coordinator) notify(n Notification) {
	select {
	case c.notifications <- n:
	default:
		c.logf("dropped notification %s (%s): consumer too slow", n.Kind, n.Message)
	}
}
