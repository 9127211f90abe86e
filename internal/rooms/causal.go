package rooms

import (
	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/domain"
)

// Decide evaluates msg's causality against room's current clock, from the
// perspective of the local node self (§4.7.1). It does not mutate room.
func Decide(room *domain.Room, msg domain.TextMessage, self uuid.UUID) domain.DeliveryStatus {
	R := room.Clock
	M := msg.Clock

	if M.LessOrEqual(R) {
		return domain.Discarded
	}

	if !R.LessThan(M) && !M.LessThan(R) {
		// Concurrent: neither happens-before the other. Accept
		// optimistically if the non-self coordinates diverge by at most
		// one step; otherwise wait for a fill-in message.
		//
		// Open question (spec.md §9): the bound is the sum across all
		// non-self coordinates, not a per-coordinate comparison. Kept as
		// specified.
		diff := M.SliceExcluding(self).Sum() - R.SliceExcluding(self).Sum()
		if abs(diff) <= 1 {
			return domain.Accepted
		}
		return domain.Queued
	}

	// R < M: causally later. Require FIFO-per-author (no gap in the
	// author's own coordinate) and no missing dependency from any other
	// author.
	author := msg.AuthorID
	if M.Get(author) != R.Get(author)+1 {
		return domain.Queued
	}
	for id, v := range M {
		if id == author {
			continue
		}
		if v > R.Get(id) {
			return domain.Queued
		}
	}
	return domain.Accepted
}

// Deliver applies msg to room according to Decide's verdict: ACCEPTED
// appends to history, merges the clock, and recursively drains the
// deferral queue for anything that now qualifies; QUEUED appends to the
// deferral tail; DISCARDED drops msg. Returns msg's own status and the full
// list of messages delivered as a result (msg first, then any flushed from
// the queue, in delivery order).
func Deliver(room *domain.Room, msg domain.TextMessage, self uuid.UUID) (domain.DeliveryStatus, []domain.TextMessage) {
	status := Decide(room, msg, self)

	switch status {
	case domain.Discarded:
		return status, nil
	case domain.Queued:
		room.Deferred.Push(msg)
		return status, nil
	default: // domain.Accepted
		deliver(room, msg)
		delivered := []domain.TextMessage{msg}
		delivered = append(delivered, rescan(room, self)...)
		return status, delivered
	}
}

func deliver(room *domain.Room, msg domain.TextMessage) {
	room.History = append(room.History, msg)
	room.Clock.Merge(msg.Clock)
}

// rescan repeatedly sweeps the deferral queue, delivering or discarding
// anything that now qualifies, until a full pass makes no progress.
func rescan(room *domain.Room, self uuid.UUID) []domain.TextMessage {
	var delivered []domain.TextMessage

	for {
		progressed := false
		for _, qm := range room.Deferred.Snapshot() {
			switch Decide(room, qm, self) {
			case domain.Discarded:
				room.Deferred.Remove(qm.AckID)
				progressed = true
			case domain.Accepted:
				room.Deferred.Remove(qm.AckID)
				deliver(room, qm)
				delivered = append(delivered, qm)
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return delivered
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
