package netio

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/domain"
	"github.com/lanchat/lanchat/internal/wire"
)

func TestSender_SendUnicastRoundTrip(t *testing.T) {
	recvConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer recvConn.Close()

	sendConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer sendConn.Close()

	sender := NewSender(sendConn)
	self := domain.NewSelfPeer("alice", netip.MustParseAddrPort("127.0.0.1:9000"))
	dest := recvConn.LocalAddr().(*net.UDPAddr).AddrPort()

	if err := sender.SendUnicast(wire.Ping(self), dest); err != nil {
		t.Fatalf("SendUnicast: %v", err)
	}

	buf := make([]byte, 65536)
	recvConn.SetReadDeadline(time.Now().Add(time.Second))
	n, _, err := recvConn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}

	env, err := wire.Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Kind != wire.KindPing || env.Sender.ID != self.ID {
		t.Errorf("decoded envelope = %+v, want a PING from %v", env, self.ID)
	}
}

func TestUnicastListener_DispatchesOthers(t *testing.T) {
	listenerConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listenerConn.Close()

	listener := NewUnicastListener(listenerConn, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	listenerAddr := listenerConn.LocalAddr().(*net.UDPAddr).AddrPort()

	// A datagram claiming to originate from the listener's own address
	// should never surface from the listener socket itself, since we can
	// only simulate "self" by sending from a second socket bound to a
	// distinct address — the listener's own self-check is address-based,
	// so the only way to trigger self-drop here is to send from that same
	// address, which the OS won't let a second socket bind to. Instead
	// this test verifies the straightforward dispatch path: a peer socket
	// sends, and the listener posts a decoded event.
	peerConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer peerConn.Close()
	peerSender := NewSender(peerConn)

	self := domain.NewSelfPeer("bob", netip.MustParseAddrPort("127.0.0.1:9000"))
	if err := peerSender.SendUnicast(wire.Pong(self), listenerAddr); err != nil {
		t.Fatalf("SendUnicast: %v", err)
	}

	select {
	case ev := <-listener.Events():
		if ev.Env.Kind != wire.KindPong || ev.Env.Sender.ID != self.ID {
			t.Errorf("event = %+v, want a PONG from %v", ev.Env, self.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatched event")
	}
}

func TestMulticastListener_FiltersOwnSenderIdentity(t *testing.T) {
	group := netip.MustParseAddrPort("239.5.6.7:9301")
	self := uuid.New()

	listener, err := NewMulticastListener(group, self, 8)
	if err != nil {
		t.Skipf("multicast not available in this sandbox: %v", err)
	}
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	sendConn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer sendConn.Close()
	sender := NewSender(sendConn)

	msg := domain.TextMessage{AuthorID: self, Text: "from myself"}
	if err := sender.SendMulticast(wire.RoomText(msg), group); err != nil {
		t.Fatalf("SendMulticast: %v", err)
	}

	other := uuid.New()
	msg2 := domain.TextMessage{AuthorID: other, Text: "from someone else"}
	if err := sender.SendMulticast(wire.RoomText(msg2), group); err != nil {
		t.Fatalf("SendMulticast: %v", err)
	}

	select {
	case ev := <-listener.Events():
		if ev.Env.Text.AuthorID != other {
			t.Errorf("expected only the non-self message to surface, got author %v", ev.Env.Text.AuthorID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the non-self message")
	}
}
