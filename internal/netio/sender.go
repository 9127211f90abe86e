// Package netio is the network I/O layer: a single blocking Sender and the
// two listener flavours (unicast, per-room multicast) that turn raw UDP
// datagrams into decoded wire.Envelope events for the coordinator. Grounded
// on gossip.SWIM's sendMessage/receiveLoop pair, split into standalone types
// since this protocol has more socket shapes (one multicast group per joined
// room) than SWIM's single membership socket.
package netio

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/lanchat/lanchat/internal/wire"
)

// Sender is the single blocking send primitive (§4.4): given an envelope
// and a destination, it encodes and writes. It does not block on acks and
// owns no retry state — that belongs to internal/ack.
type Sender struct {
	conn *net.UDPConn
}

// NewSender wraps an already-bound UDP socket. The same socket serves
// unicast, broadcast, and multicast sends — multicast datagrams need no
// group membership to be sent, only to be received.
func NewSender(conn *net.UDPConn) *Sender {
	return &Sender{conn: conn}
}

// SendUnicast encodes env and writes it to dest.
func (s *Sender) SendUnicast(env wire.Envelope, dest netip.AddrPort) error {
	return s.write(env, dest)
}

// SendMulticast encodes env and writes it to the room's multicast group.
func (s *Sender) SendMulticast(env wire.Envelope, group netip.AddrPort) error {
	return s.write(env, group)
}

// Broadcast encodes env and writes it to the LAN broadcast address, used
// only for PING discovery (§4.7 discoverNewPeers).
func (s *Sender) Broadcast(env wire.Envelope, broadcastAddr netip.AddrPort) error {
	return s.write(env, broadcastAddr)
}

func (s *Sender) write(env wire.Envelope, dest netip.AddrPort) error {
	buf, err := wire.Encode(env)
	if err != nil {
		return fmt.Errorf("netio: encode %s: %w", env.Kind, err)
	}
	if _, err := s.conn.WriteToUDP(buf, net.UDPAddrFromAddrPort(dest)); err != nil {
		return fmt.Errorf("netio: write %s to %s: %w", env.Kind, dest, err)
	}
	return nil
}
