package coordinator

import (
	"context"
	"net/netip"

	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/netio"
)

// joinMulticastGroup binds a MulticastListener for room and starts feeding
// its decoded events into the shared incoming channel. Must be called from
// the event loop goroutine (it mutates multicastListeners).
func (c *Coordinator) joinMulticastGroup(roomID uuid.UUID, group netip.AddrPort) {
	if _, already := c.multicastListeners[roomID]; already {
		return
	}

	listener, err := netio.NewMulticastListener(group, c.self.ID, 256)
	if err != nil {
		c.logf("join multicast group for room %s failed: %v", roomID, err)
		return
	}

	ctx, cancel := context.WithCancel(c.loopCtx)
	c.multicastListeners[roomID] = func() {
		cancel()
		listener.Close()
	}

	go listener.Run(ctx)
	go forward(ctx, listener.Events(), c.incoming)
}

// leaveMulticastGroup tears down the listener for roomID, if any.
func (c *Coordinator) leaveMulticastGroup(roomID uuid.UUID) {
	cancel, ok := c.multicastListeners[roomID]
	if !ok {
		return
	}
	cancel()
	delete(c.multicastListeners, roomID)
}
