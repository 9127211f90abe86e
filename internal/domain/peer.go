package domain

import (
	"net/netip"

	"github.com/google/uuid"
)

// Peer is a process participating in the network, identified by a UUID with
// a human-readable username and the network address it is reachable at.
type Peer struct {
	ID       uuid.UUID      `json:"id"`
	Username string         `json:"username"`
	Addr     netip.AddrPort `json:"addr"`
}

// NewSelfPeer builds the Peer record for this process, generated once at
// startup.
func NewSelfPeer(username string, addr netip.AddrPort) Peer {
	return Peer{ID: uuid.New(), Username: username, Addr: addr}
}
