package coordinator

import (
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/config"
	"github.com/lanchat/lanchat/internal/domain"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Network.UnicastPort = 0 // let the OS pick a free port
	return cfg
}

func TestCoordinator_StartAndShutdown(t *testing.T) {
	c, err := Start(testConfig(), "alice")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Self().Username != "alice" {
		t.Errorf("Self().Username = %q, want alice", c.Self().Username)
	}
	if c.Self().ID == uuid.Nil {
		t.Error("Self().ID should be non-nil")
	}
	c.Shutdown()
}

func TestCoordinator_CreateRoom_UnknownPeerErrors(t *testing.T) {
	c, err := Start(testConfig(), "alice")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Shutdown()

	_, err = c.CreateRoom("lounge", []uuid.UUID{uuid.New()})
	if err == nil {
		t.Fatal("expected an error creating a room with an unknown peer")
	}
}

func TestCoordinator_CreateRoom_EmptyMemberListErrors(t *testing.T) {
	c, err := Start(testConfig(), "alice")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Shutdown()

	_, err = c.CreateRoom("lounge", nil)
	if err != domain.ErrEmptyRoom {
		t.Fatalf("err = %v, want ErrEmptyRoom", err)
	}
}

func TestCoordinator_SetDisplayedRoom_UnknownRoomErrors(t *testing.T) {
	c, err := Start(testConfig(), "alice")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Shutdown()

	if err := c.SetDisplayedRoom(uuid.New()); err == nil {
		t.Fatal("expected an error setting an unknown room as displayed")
	}
}

func TestCoordinator_LeaveRoom_UnknownRoomErrors(t *testing.T) {
	c, err := Start(testConfig(), "alice")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Shutdown()

	if err := c.LeaveRoom(uuid.New()); err == nil {
		t.Fatal("expected an error leaving an unknown room")
	}
}

func TestCoordinator_DiscoverNewPeers_DoesNotPanic(t *testing.T) {
	c, err := Start(testConfig(), "alice")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Shutdown()

	c.DiscoverNewPeers()
}

// TestCoordinator_DiscoverNewPeers_ReachesAnotherCoordinator exercises
// discovery end-to-end rather than just checking it doesn't panic: without
// SO_BROADCAST on the unicast socket, Broadcast's sendto to 255.255.255.255
// fails with EACCES and bob never sees alice's PING.
func TestCoordinator_DiscoverNewPeers_ReachesAnotherCoordinator(t *testing.T) {
	alice, err := Start(testConfig(), "alice")
	if err != nil {
		t.Fatalf("Start(alice): %v", err)
	}
	defer alice.Shutdown()

	bob, err := Start(testConfig(), "bob")
	if err != nil {
		t.Fatalf("Start(bob): %v", err)
	}
	defer bob.Shutdown()

	alice.broadcastAddr = netip.AddrPortFrom(alice.broadcastAddr.Addr(), bob.self.Addr.Port())
	alice.DiscoverNewPeers()

	select {
	case n := <-bob.Notifications():
		if n.Kind != NotificationPeerDiscovered {
			t.Fatalf("notification kind = %v, want NotificationPeerDiscovered", n.Kind)
		}
		if n.PeerID != alice.Self().ID {
			t.Fatalf("notification peer = %s, want alice's id %s", n.PeerID, alice.Self().ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("bob never received alice's broadcast PING")
	}
}
