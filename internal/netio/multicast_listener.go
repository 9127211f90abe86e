package netio

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/ipv4"

	"github.com/lanchat/lanchat/internal/dsa"
	"github.com/lanchat/lanchat/internal/wire"
)

// MulticastListener is bound to one room's multicast group. It joins the
// group on every usable interface the way zeromq-gyre's beacon joins its
// discovery group on every interface, via golang.org/x/net/ipv4 — the
// fetchable, maintained descendant of the deprecated code.google.com/p/
// go.net/ipv4 package that beacon.go imports for the identical purpose.
//
// Because a process receives its own multicast sends back via loopback,
// self-filtering cannot use the source address (it IS the local address
// for a loopback delivery on some kernels, but need not be — the spec
// requires comparing the sender identifier carried inside the message
// instead, §4.5).
type MulticastListener struct {
	pc     *ipv4.PacketConn
	self   uuid.UUID
	dedup  *dsa.DedupFilter
	events chan Event
}

// NewMulticastListener binds a UDP socket to group's port on all
// interfaces and joins the multicast group on every multicast-capable
// interface. selfID is used to drop this process's own loopback deliveries.
func NewMulticastListener(group netip.AddrPort, selfID uuid.UUID, bufSize int) (*MulticastListener, error) {
	// Every room shares the configured multicast port (only the group
	// address varies, §4.7 createRoom), so a node joining a second room
	// binds the same port a second time. SO_REUSEADDR lets that bind
	// succeed instead of failing with "address already in use".
	lc := reusableListenConfig()
	conn, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", group.Port()))
	if err != nil {
		return nil, fmt.Errorf("netio: listen multicast: %w", err)
	}

	pc := ipv4.NewPacketConn(conn)
	groupAddr := &net.UDPAddr{IP: net.IP(group.Addr().AsSlice())}

	ifaces, err := net.Interfaces()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("netio: list interfaces: %w", err)
	}

	joined := 0
	for i := range ifaces {
		iface := ifaces[i]
		if iface.Flags&net.FlagMulticast == 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if err := pc.JoinGroup(&iface, groupAddr); err == nil {
			joined++
		}
	}
	if joined == 0 {
		conn.Close()
		return nil, fmt.Errorf("netio: no interface could join group %s", group)
	}

	return &MulticastListener{
		pc:     pc,
		self:   selfID,
		dedup:  dsa.NewDedupFilter(dsa.DefaultDedupConfig()),
		events: make(chan Event, bufSize),
	}, nil
}

// Events returns the channel the coordinator reads dispatched datagrams
// from.
func (l *MulticastListener) Events() <-chan Event {
	return l.events
}

// Close leaves the group and closes the underlying socket.
func (l *MulticastListener) Close() error {
	return l.pc.Close()
}

// Run reads until ctx is cancelled or the socket is closed.
func (l *MulticastListener) Run(ctx context.Context) {
	buf := make([]byte, 65536)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.pc.SetReadDeadline(time.Now().Add(readDeadline))
		n, _, from, err := l.pc.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return // socket closed
		}

		env, err := wire.Decode(buf[:n])
		if err != nil {
			log.Printf("[netio] dropping malformed multicast datagram from %s: %v", from, err)
			continue
		}

		if env.SenderIdentity() == l.self {
			continue // our own multicast loopback
		}

		// Dedup also guards against the kernel occasionally redelivering
		// the same datagram on more than one joined interface.
		ackID := env.AckID
		if env.Kind == wire.KindRoomText {
			ackID = env.Text.AckID // ROOM_TEXT carries its ack id inside the message
		}
		dedupKey := fmt.Sprintf("%s:%s:%s", env.Kind, ackID, env.SenderIdentity())
		if l.dedup.Seen(dedupKey) {
			continue
		}

		select {
		case l.events <- Event{Env: env, From: from.String()}:
		case <-ctx.Done():
			return
		}
	}
}
