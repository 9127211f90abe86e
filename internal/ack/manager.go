// Package ack implements the two ack waiting list flavours (unicast,
// multicast), their retransmission scheduling, and the peer-departure /
// room-deletion fixups described in spec §4.6. Grounded on gossip.SWIM's
// pending map (an ack-id → outstanding-recipients table signalled by the
// receive loop) and its probeCycle retry shape, generalized from "one ack
// per probe" to "N destinations per ack, multicast or unicast".
package ack

import (
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/dsa"
	"github.com/lanchat/lanchat/internal/wire"
)

// Sender is the narrow send capability the ack manager needs; satisfied by
// internal/netio.Sender. Kept as an interface here to avoid a netio<->ack
// import cycle (netio's listeners feed events back through the
// coordinator, which owns both this Manager and the real Sender).
type Sender interface {
	SendUnicast(env wire.Envelope, dest netip.AddrPort) error
	SendMulticast(env wire.Envelope, group netip.AddrPort) error
}

// unicastEntry is one outstanding (message, destination) reply the list is
// still waiting on.
type unicastEntry struct {
	env  wire.Envelope
	dest netip.AddrPort
}

// unicastList is the unicast ack waiting list flavour: N independent
// destinations, each acking the same ackId.
type unicastList struct {
	ackID   uuid.UUID
	entries []unicastEntry
	done    chan struct{}
}

// multicastList is the multicast ack waiting list flavour: one message, a
// set of member peers still owing an ack.
type multicastList struct {
	ackID   uuid.UUID
	env     wire.Envelope
	group   netip.AddrPort
	pending map[uuid.UUID]struct{}
	done    chan struct{}
}

// Manager owns every active ack waiting list. It is coordinator-private: a
// single goroutine (the coordinator's event loop) is expected to call
// Create*/Update*/Tick/On* serially (§5), so no locking guards those calls.
// A light mutex protects only the read-only Stats snapshot the diagnostics
// API takes from a different goroutine.
type Manager struct {
	sender    Sender
	interval  time.Duration
	scheduler *dsa.Scheduler

	mu        sync.Mutex // guards the two maps for Stats() only
	unicasts  map[uuid.UUID]*unicastList
	multicast map[uuid.UUID]*multicastList
}

// NewManager returns a Manager that retransmits every interval until each
// list completes.
func NewManager(sender Sender, interval time.Duration) *Manager {
	return &Manager{
		sender:    sender,
		interval:  interval,
		scheduler: dsa.NewScheduler(),
		unicasts:  make(map[uuid.UUID]*unicastList),
		multicast: make(map[uuid.UUID]*multicastList),
	}
}

// CreateUnicast sends env to every destination and installs a waiting list
// that retransmits to whichever destinations haven't acked yet, until all
// have (invariant #3, §8: timer runs iff pending is non-empty).
func (m *Manager) CreateUnicast(ackID uuid.UUID, env wire.Envelope, dests []netip.AddrPort) {
	if len(dests) == 0 {
		return
	}
	list := &unicastList{ackID: ackID, done: make(chan struct{})}
	for _, d := range dests {
		list.entries = append(list.entries, unicastEntry{env: env, dest: d})
		m.sender.SendUnicast(env, d)
	}
	m.mu.Lock()
	m.unicasts[ackID] = list
	m.mu.Unlock()
	m.scheduler.Push(dsa.ScheduleItem{AckID: ackID, FireAt: time.Now().Add(m.interval)})
}

// CreateMulticast sends env once to group and installs a waiting list keyed
// on the member peers still owing an ack.
func (m *Manager) CreateMulticast(ackID uuid.UUID, env wire.Envelope, group netip.AddrPort, pending []uuid.UUID) {
	if len(pending) == 0 {
		return
	}
	list := &multicastList{
		ackID:   ackID,
		env:     env,
		group:   group,
		pending: make(map[uuid.UUID]struct{}, len(pending)),
		done:    make(chan struct{}),
	}
	for _, id := range pending {
		list.pending[id] = struct{}{}
	}
	m.sender.SendMulticast(env, group)

	m.mu.Lock()
	m.multicast[ackID] = list
	m.mu.Unlock()
	m.scheduler.Push(dsa.ScheduleItem{AckID: ackID, FireAt: time.Now().Add(m.interval)})
}

// UpdateUni handles an ACK_UNI: removes the entry addressed to senderAddr
// from ackID's unicast list. Completes (and drops) the list once every
// destination has replied.
func (m *Manager) UpdateUni(ackID uuid.UUID, senderAddr netip.AddrPort) {
	m.mu.Lock()
	list, ok := m.unicasts[ackID]
	m.mu.Unlock()
	if !ok {
		return
	}

	kept := list.entries[:0]
	for _, e := range list.entries {
		if e.dest != senderAddr {
			kept = append(kept, e)
		}
	}
	list.entries = kept

	if len(list.entries) == 0 {
		m.completeUnicast(ackID)
	}
}

// UpdateMulti handles an ACK_MULTI: removes senderID from ackID's pending
// set. Completes (and drops) the list once the pending set empties.
func (m *Manager) UpdateMulti(ackID, senderID uuid.UUID) {
	m.mu.Lock()
	list, ok := m.multicast[ackID]
	m.mu.Unlock()
	if !ok {
		return
	}

	delete(list.pending, senderID)
	if len(list.pending) == 0 {
		m.completeMulticast(ackID)
	}
}

// Tick re-emits every waiting list whose retransmission deadline has
// passed and reschedules it.
func (m *Manager) Tick(now time.Time) {
	for _, item := range m.scheduler.PopDue(now) {
		if m.retransmit(item.AckID) {
			m.scheduler.Push(dsa.ScheduleItem{AckID: item.AckID, FireAt: now.Add(m.interval)})
		}
	}
}

// retransmit re-sends the list identified by ackID. Returns false if the
// list no longer exists (already completed), in which case it must not be
// rescheduled.
func (m *Manager) retransmit(ackID uuid.UUID) bool {
	m.mu.Lock()
	uList, uOK := m.unicasts[ackID]
	mList, mOK := m.multicast[ackID]
	m.mu.Unlock()

	switch {
	case uOK:
		for _, e := range uList.entries {
			m.sender.SendUnicast(e.env, e.dest)
		}
		return true
	case mOK:
		m.sender.SendMulticast(mList.env, mList.group)
		return true
	default:
		return false
	}
}

// OnPeerDeparture applies the fixups described in §4.6 for a peer that just
// left the network, addressed at peerAddr. For multicast lists the peer is
// simply dropped from the pending set (the list completes naturally). For
// unicast lists — correcting the source's iterate-and-drop-whole-list bug
// noted in spec.md §9 — only the entry addressed to peerAddr is removed;
// the list completes only if doing so empties it.
func (m *Manager) OnPeerDeparture(peerID uuid.UUID, peerAddr netip.AddrPort) {
	m.mu.Lock()
	multicastIDs := make([]uuid.UUID, 0, len(m.multicast))
	for id := range m.multicast {
		multicastIDs = append(multicastIDs, id)
	}
	unicastIDs := make([]uuid.UUID, 0, len(m.unicasts))
	for id := range m.unicasts {
		unicastIDs = append(unicastIDs, id)
	}
	m.mu.Unlock()

	// Build the drop list first, then mutate outside any map iteration
	// (§9 design note: never mutate the ack-list collection mid-iteration).
	for _, id := range multicastIDs {
		m.UpdateMulti(id, peerID)
	}
	for _, id := range unicastIDs {
		m.UpdateUni(id, peerAddr)
	}
}

// OnRoomDeleted discards any multicast list targeting the deleted room's
// multicast group, without waiting for outstanding acks.
func (m *Manager) OnRoomDeleted(group netip.AddrPort) {
	m.mu.Lock()
	var drop []uuid.UUID
	for id, list := range m.multicast {
		if list.group == group {
			drop = append(drop, id)
		}
	}
	m.mu.Unlock()

	for _, id := range drop {
		m.completeMulticast(id)
	}
}

func (m *Manager) completeUnicast(ackID uuid.UUID) {
	m.mu.Lock()
	list, ok := m.unicasts[ackID]
	if ok {
		delete(m.unicasts, ackID)
	}
	m.mu.Unlock()
	if ok {
		m.scheduler.Remove(ackID)
		close(list.done)
	}
}

func (m *Manager) completeMulticast(ackID uuid.UUID) {
	m.mu.Lock()
	list, ok := m.multicast[ackID]
	if ok {
		delete(m.multicast, ackID)
	}
	m.mu.Unlock()
	if ok {
		m.scheduler.Remove(ackID)
		close(list.done)
	}
}

// Wait blocks until ackID's waiting list (either flavour) completes, or
// deadline is reached first. Used by shutdown() to give LEAVE_NETWORK a
// bounded chance to be acked by every known peer (§4.7 shutdown,
// §5 cancellation and timeout).
func (m *Manager) Wait(ackID uuid.UUID, deadline time.Duration) {
	m.mu.Lock()
	var done chan struct{}
	if list, ok := m.unicasts[ackID]; ok {
		done = list.done
	} else if list, ok := m.multicast[ackID]; ok {
		done = list.done
	}
	m.mu.Unlock()

	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(deadline):
	}
}

// Stats reports the number of active lists of each flavour, safe to call
// from a goroutine other than the coordinator's (diagnostics API).
type Stats struct {
	UnicastLists   int
	MulticastLists int
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{UnicastLists: len(m.unicasts), MulticastLists: len(m.multicast)}
}
