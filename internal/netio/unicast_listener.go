package netio

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/lanchat/lanchat/internal/wire"
)

// readDeadline bounds each ReadFromUDP call so the loop can observe ctx
// cancellation without blocking forever, the same trick gossip.SWIM's
// receiveLoop uses.
const readDeadline = time.Second

// UnicastListener is bound to the well-known unicast port and dispatches
// every decoded datagram not originating from self (§4.5, compared by
// source address — the process always knows its own bound address, unlike
// the multicast case where loopback delivers the packet from the kernel
// with the real remote address already stripped).
type UnicastListener struct {
	conn     *net.UDPConn
	selfAddr *net.UDPAddr
	events   chan Event
}

// NewUnicastListener wraps conn, bound by the caller to the configured
// unicast port.
func NewUnicastListener(conn *net.UDPConn, bufSize int) *UnicastListener {
	return &UnicastListener{
		conn:     conn,
		selfAddr: conn.LocalAddr().(*net.UDPAddr),
		events:   make(chan Event, bufSize),
	}
}

// Events returns the channel the coordinator reads dispatched datagrams
// from.
func (l *UnicastListener) Events() <-chan Event {
	return l.events
}

// Run reads until ctx is cancelled or the socket is closed, decoding and
// posting each non-self datagram to Events(). It never surfaces a socket
// close as an error (§4.5): the loop simply returns.
func (l *UnicastListener) Run(ctx context.Context) {
	buf := make([]byte, 65536)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, from, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return // socket closed
		}

		if from.IP.Equal(l.selfAddr.IP) && from.Port == l.selfAddr.Port {
			continue
		}

		env, err := wire.Decode(buf[:n])
		if err != nil {
			log.Printf("[netio] dropping malformed unicast datagram from %s: %v", from, err)
			continue
		}

		select {
		case l.events <- Event{Env: env, From: from.String()}:
		case <-ctx.Done():
			return
		}
	}
}
