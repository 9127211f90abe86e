// Package coordinator is the authoritative state owner (§4.7): one logical
// thread of control, serialized over a single channel, fed by independent
// I/O producers (the unicast listener, one multicast listener per joined
// room, and a retransmission ticker). Grounded on how gossip.SWIM
// centralizes every membership mutation behind one select loop in Start,
// generalized here from a mutex to a channel hand-off per §5/§9's explicit
// call to prefer single-consumer serialization over mutex fan-out.
package coordinator

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/ack"
	"github.com/lanchat/lanchat/internal/config"
	"github.com/lanchat/lanchat/internal/domain"
	"github.com/lanchat/lanchat/internal/netio"
	"github.com/lanchat/lanchat/internal/peers"
	"github.com/lanchat/lanchat/internal/rooms"
	"github.com/lanchat/lanchat/internal/wire"
)

// Coordinator owns every piece of mutable protocol state. Its exported
// methods are safe to call from any goroutine: each enqueues a closure onto
// the single event loop and blocks until that closure has run, so the state
// it touches is never mutated concurrently.
type Coordinator struct {
	cfg  config.Config
	self domain.Peer

	Peers *peers.Registry
	Rooms *rooms.Registry
	acks  *ack.Manager

	sender        *netio.Sender
	uniConn       *net.UDPConn
	broadcastAddr netip.AddrPort

	multicastListeners map[uuid.UUID]context.CancelFunc

	displayedRoom *uuid.UUID

	requests      chan request
	incoming      chan netio.Event
	notifications chan Notification

	mu      sync.Mutex // guards displayedRoom read from outside the loop (diagnostics)
	loopCtx context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

type request struct {
	fn   func()
	done chan struct{}
}

// Start resolves the local outbound IP by dummy-connecting a UDP socket to
// a well-known external address (§4.7 start), binds the unicast socket,
// builds the self Peer record, and launches the event loop.
func Start(cfg config.Config, username string) (*Coordinator, error) {
	localIP, err := resolveLocalIP()
	if err != nil {
		return nil, fmt.Errorf("coordinator: resolve local ip: %w", err)
	}

	uniConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: localIP, Port: cfg.Network.UnicastPort})
	if err != nil {
		return nil, fmt.Errorf("%w: bind unicast socket: %v", domain.ErrIOFailure, err)
	}
	// discoverNewPeers (§4.7) sends PING to 255.255.255.255 over this same
	// socket; without SO_BROADCAST the kernel refuses that sendto with
	// EACCES.
	if err := netio.EnableBroadcast(uniConn); err != nil {
		uniConn.Close()
		return nil, fmt.Errorf("%w: enable broadcast on unicast socket: %v", domain.ErrIOFailure, err)
	}

	selfAddr, ok := netip.AddrFromSlice(localIP.To4())
	if !ok {
		uniConn.Close()
		return nil, fmt.Errorf("coordinator: local ip %s is not IPv4", localIP)
	}
	// Advertise the port actually bound (differs from the configured one
	// when that is 0 and the OS picks a free port).
	boundPort := uniConn.LocalAddr().(*net.UDPAddr).Port
	self := domain.NewSelfPeer(username, netip.AddrPortFrom(selfAddr, uint16(boundPort)))

	loopCtx, cancel := context.WithCancel(context.Background())

	c := &Coordinator{
		cfg:                cfg,
		self:               self,
		Peers:              peers.New(self.ID),
		Rooms:              rooms.New(),
		uniConn:            uniConn,
		sender:             netio.NewSender(uniConn),
		broadcastAddr:      netip.AddrPortFrom(netip.AddrFrom4([4]byte{255, 255, 255, 255}), uint16(cfg.Network.UnicastPort)),
		multicastListeners: make(map[uuid.UUID]context.CancelFunc),
		requests:           make(chan request),
		incoming:           make(chan netio.Event, 256),
		notifications:      make(chan Notification, 256),
		loopCtx:            loopCtx,
		cancel:             cancel,
		stopped:            make(chan struct{}),
	}
	c.acks = ack.NewManager(c.sender, cfg.RetransmitInterval())

	uniListener := netio.NewUnicastListener(uniConn, 256)
	go uniListener.Run(loopCtx)
	go forward(loopCtx, uniListener.Events(), c.incoming)

	go c.loop()

	return c, nil
}

// Self returns this node's own Peer record.
func (c *Coordinator) Self() domain.Peer { return c.self }

// Notifications returns the channel the external shell drains user-visible
// events from.
func (c *Coordinator) Notifications() <-chan Notification { return c.notifications }

// AckStats exposes the ack manager's active-list counts for diagnostics.
func (c *Coordinator) AckStats() ack.Stats { return c.acks.Stats() }

// DisplayedRoom returns the currently displayed room id, if any.
func (c *Coordinator) DisplayedRoom() (uuid.UUID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.displayedRoom == nil {
		return uuid.Nil, false
	}
	return *c.displayedRoom, true
}

// SetDisplayedRoom changes which room sendRoomText targets, after
// confirming roomID is known (either set).
func (c *Coordinator) SetDisplayedRoom(roomID uuid.UUID) error {
	var outErr error
	c.do(func() {
		if _, ok := c.Rooms.Get(roomID); !ok {
			outErr = domain.ErrInvalidParameter
			return
		}
		c.setDisplayedRoomLocked(roomID)
	})
	return outErr
}

func (c *Coordinator) setDisplayedRoomLocked(roomID uuid.UUID) {
	c.mu.Lock()
	c.displayedRoom = &roomID
	c.mu.Unlock()
}

func (c *Coordinator) clearDisplayedRoomIfMatches(roomID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.displayedRoom != nil && *c.displayedRoom == roomID {
		c.displayedRoom = nil
	}
}

// do enqueues fn onto the event loop and blocks until it has run, giving
// every exported Coordinator method the single-writer guarantee described
// in §5 without requiring its own lock over protocol state.
func (c *Coordinator) do(fn func()) {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case c.requests <- req:
		<-req.done
	case <-c.stopped:
	}
}

func (c *Coordinator) loop() {
	defer close(c.stopped)

	ticker := time.NewTicker(c.cfg.RetransmitInterval())
	defer ticker.Stop()

	for {
		select {
		case <-c.loopCtx.Done():
			return
		case req := <-c.requests:
			req.fn()
			close(req.done)
		case ev := <-c.incoming:
			c.dispatch(ev)
		case now := <-ticker.C:
			c.acks.Tick(now)
		}
	}
}

// discoverNewPeers broadcasts a PING (§4.7).
func (c *Coordinator) DiscoverNewPeers() {
	c.do(func() {
		c.sender.Broadcast(wire.Ping(c.self), c.broadcastAddr)
	})
}

// Shutdown broadcasts LEAVE_NETWORK under one shared ack-id to every known
// peer, waits (bounded) for that waiting list to complete, then tears down
// every socket.
func (c *Coordinator) Shutdown() {
	ackID := uuid.New()
	var dests []netip.AddrPort

	c.do(func() {
		env := wire.LeaveNetwork(c.self, ackID)
		for _, p := range c.Peers.All() {
			dests = append(dests, p.Addr)
		}
		if len(dests) > 0 {
			c.acks.CreateUnicast(ackID, env, dests)
		}
	})

	if len(dests) > 0 {
		c.acks.Wait(ackID, c.cfg.ShutdownDeadline())
	}

	c.do(func() {
		for _, cancelRoom := range c.multicastListeners {
			cancelRoom()
		}
	})

	c.cancel()
	<-c.stopped
	c.uniConn.Close()
}

func (c *Coordinator) logf(format string, args ...any) {
	log.Printf("[coordinator] "+format, args...)
}

// forward copies every event from src to dst until ctx is cancelled or src
// closes, the fan-in glue letting N independent listener goroutines share
// one event-loop input channel.
func forward(ctx context.Context, src <-chan netio.Event, dst chan<- netio.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			select {
			case dst <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// resolveLocalIP dummy-connects a UDP socket to a well-known external
// address purely to learn which local interface/IP the OS would route
// through — no packet is actually sent (§4.7 start).
func resolveLocalIP() (net.IP, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP, nil
}

// parseAddrPort parses the string form net.UDPAddr.String() produces (as
// carried on netio.Event.From) back into a netip.AddrPort.
func parseAddrPort(s string) (netip.AddrPort, error) {
	return netip.ParseAddrPort(s)
}

// randomMulticastGroup picks an address in the administratively-scoped
// 239.0.0.0/8 range, excluding the 239.0.0.0/16 and site-local-scope
// (239.255.0.0/16) subranges (§4.7 createRoom, §6).
func randomMulticastGroup(port int) netip.AddrPort {
	for {
		b2 := byte(rand.Intn(256))
		b3 := byte(rand.Intn(256))
		b4 := byte(1 + rand.Intn(254)) // avoid .0 and .255
		if b2 == 0 {
			continue // 239.0.0.0/16 excluded
		}
		if b2 == 255 {
			continue // 239.255.0.0/16 reserved
		}
		addr := netip.AddrFrom4([4]byte{239, b2, b3, b4})
		return netip.AddrPortFrom(addr, uint16(port))
	}
}
