package ack

import (
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/wire"
)

type fakeSender struct {
	unicastSends   []netip.AddrPort
	multicastSends []netip.AddrPort
}

func (f *fakeSender) SendUnicast(env wire.Envelope, dest netip.AddrPort) error {
	f.unicastSends = append(f.unicastSends, dest)
	return nil
}

func (f *fakeSender) SendMulticast(env wire.Envelope, group netip.AddrPort) error {
	f.multicastSends = append(f.multicastSends, group)
	return nil
}

func addr(port uint16) netip.AddrPort {
	return netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), port)
}

func TestManager_UnicastCompletesWhenAllAck(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, time.Hour)

	ackID := uuid.New()
	d1, d2 := addr(9001), addr(9002)
	m.CreateUnicast(ackID, wire.Envelope{}, []netip.AddrPort{d1, d2})
	if len(sender.unicastSends) != 2 {
		t.Fatalf("want 2 initial sends, got %d", len(sender.unicastSends))
	}
	if m.Stats().UnicastLists != 1 {
		t.Fatalf("want 1 active unicast list")
	}

	m.UpdateUni(ackID, d1)
	if m.Stats().UnicastLists != 1 {
		t.Fatalf("list should still be active after one ack of two")
	}

	m.UpdateUni(ackID, d2)
	if m.Stats().UnicastLists != 0 {
		t.Fatalf("list should complete once every destination acked")
	}
}

func TestManager_MulticastCompletesWhenAllAck(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, time.Hour)

	ackID := uuid.New()
	p1, p2 := uuid.New(), uuid.New()
	group := addr(9100)
	m.CreateMulticast(ackID, wire.Envelope{}, group, []uuid.UUID{p1, p2})
	if len(sender.multicastSends) != 1 {
		t.Fatalf("want exactly 1 multicast send, got %d", len(sender.multicastSends))
	}

	m.UpdateMulti(ackID, p1)
	if m.Stats().MulticastLists != 1 {
		t.Fatalf("list should still be active")
	}
	m.UpdateMulti(ackID, p2)
	if m.Stats().MulticastLists != 0 {
		t.Fatalf("list should complete")
	}
}

func TestManager_TickRetransmitsDueListsOnly(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, 10*time.Millisecond)

	ackID := uuid.New()
	d1 := addr(9001)
	m.CreateUnicast(ackID, wire.Envelope{}, []netip.AddrPort{d1})

	m.Tick(time.Now()) // not due yet
	if len(sender.unicastSends) != 1 {
		t.Fatalf("tick before deadline should not resend, got %d sends", len(sender.unicastSends))
	}

	m.Tick(time.Now().Add(20 * time.Millisecond))
	if len(sender.unicastSends) != 2 {
		t.Fatalf("tick after deadline should resend once, got %d sends", len(sender.unicastSends))
	}
}

func TestManager_OnPeerDepartureDropsOnlyThatPeersEntry(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, time.Hour)

	ackID := uuid.New()
	d1, d2 := addr(9001), addr(9002)
	p1 := uuid.New()
	m.CreateUnicast(ackID, wire.Envelope{}, []netip.AddrPort{d1, d2})

	m.OnPeerDeparture(p1, d1)
	if m.Stats().UnicastLists != 1 {
		t.Fatalf("list should survive: one destination remains")
	}

	m.OnPeerDeparture(p1, d2)
	if m.Stats().UnicastLists != 0 {
		t.Fatalf("list should complete once its last destination departs")
	}
}

func TestManager_OnRoomDeletedDropsMulticastListsForThatGroup(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, time.Hour)

	ackID := uuid.New()
	group := addr(9200)
	m.CreateMulticast(ackID, wire.Envelope{}, group, []uuid.UUID{uuid.New()})

	m.OnRoomDeleted(group)
	if m.Stats().MulticastLists != 0 {
		t.Fatalf("multicast list targeting the deleted room's group should be dropped")
	}
}

func TestManager_WaitReturnsOnCompletion(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, time.Hour)

	ackID := uuid.New()
	d1 := addr(9001)
	m.CreateUnicast(ackID, wire.Envelope{}, []netip.AddrPort{d1})

	go func() {
		time.Sleep(5 * time.Millisecond)
		m.UpdateUni(ackID, d1)
	}()

	start := time.Now()
	m.Wait(ackID, time.Second)
	if time.Since(start) >= time.Second {
		t.Fatalf("Wait should have returned as soon as the list completed, not waited for the deadline")
	}
}

func TestManager_WaitTimesOutIfNeverCompleted(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender, time.Hour)

	ackID := uuid.New()
	m.CreateUnicast(ackID, wire.Envelope{}, []netip.AddrPort{addr(9001)})

	start := time.Now()
	m.Wait(ackID, 10*time.Millisecond)
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("Wait should honor the deadline when the list never completes")
	}
}
