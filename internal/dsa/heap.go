// Package dsa holds the two small data structures the protocol layer builds
// on: a deadline-ordered min-heap driving retransmission, and a Bloom filter
// pre-filtering repeated multicast deliveries. Both are adapted
// from the teacher's task-scheduling data structures to the coordination
// core's needs; neither pulls in a third-party dependency, matching the
// teacher's own dsa package (pure stdlib).
package dsa

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ─── Retransmission Scheduler (Min-Heap) ───────────────────────────────────
// Every active ack waiting list owns a retransmission deadline instead of
// its own goroutine+ticker. A single min-heap orders all of them so one
// timer can drive every list's resend, the way the teacher's PriorityQueue
// lets one structure replace N independent scheduling loops.

// ScheduleItem is a pending retransmission: AckID identifies the waiting
// list to re-emit when FireAt is reached.
type ScheduleItem struct {
	AckID  uuid.UUID
	FireAt time.Time
}

// Scheduler is a thread-safe min-heap ordered by FireAt.
type Scheduler struct {
	mu    sync.Mutex
	items []ScheduleItem
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Push inserts or re-inserts an item. O(log n).
func (s *Scheduler) Push(item ScheduleItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	s.siftUp(len(s.items) - 1)
}

// Peek returns the earliest-firing item without removing it.
func (s *Scheduler) Peek() (ScheduleItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return ScheduleItem{}, false
	}
	return s.items[0], true
}

// Pop removes and returns the earliest-firing item. O(log n).
func (s *Scheduler) Pop() (ScheduleItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.popLocked()
}

func (s *Scheduler) popLocked() (ScheduleItem, bool) {
	if len(s.items) == 0 {
		return ScheduleItem{}, false
	}
	top := s.items[0]
	last := len(s.items) - 1
	s.items[0] = s.items[last]
	s.items = s.items[:last]
	if len(s.items) > 0 {
		s.siftDown(0)
	}
	return top, true
}

// PopDue removes and returns every item whose FireAt is <= now.
func (s *Scheduler) PopDue(now time.Time) []ScheduleItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []ScheduleItem
	for len(s.items) > 0 && !s.items[0].FireAt.After(now) {
		item, _ := s.popLocked()
		due = append(due, item)
	}
	return due
}

// Remove drops every scheduled entry for ackID (a waiting list may be
// rescheduled multiple times before it completes and stops being pushed).
func (s *Scheduler) Remove(ackID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, it := range s.items {
		if it.AckID != ackID {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.heapify()
}

// Len reports the number of scheduled items.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Scheduler) heapify() {
	for i := len(s.items)/2 - 1; i >= 0; i-- {
		s.siftDown(i)
	}
}

func (s *Scheduler) less(i, j int) bool {
	return s.items[i].FireAt.Before(s.items[j].FireAt)
}

func (s *Scheduler) siftUp(idx int) {
	for idx > 0 {
		parent := (idx - 1) / 2
		if s.less(idx, parent) {
			s.items[idx], s.items[parent] = s.items[parent], s.items[idx]
			idx = parent
		} else {
			break
		}
	}
}

func (s *Scheduler) siftDown(idx int) {
	n := len(s.items)
	for {
		smallest := idx
		left := 2*idx + 1
		right := 2*idx + 2

		if left < n && s.less(left, smallest) {
			smallest = left
		}
		if right < n && s.less(right, smallest) {
			smallest = right
		}
		if smallest == idx {
			break
		}
		s.items[idx], s.items[smallest] = s.items[smallest], s.items[idx]
		idx = smallest
	}
}
