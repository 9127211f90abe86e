package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestVectorClock_GetMissingIsZero(t *testing.T) {
	vc := NewVectorClock()
	id := uuid.New()
	if got := vc.Get(id); got != 0 {
		t.Errorf("Get(missing) = %d, want 0", got)
	}
}

func TestVectorClock_Increment(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	vc := NewVectorClock(a, b)
	vc.Increment(a)
	vc.Increment(a)
	if got := vc.Get(a); got != 2 {
		t.Errorf("Get(a) = %d, want 2", got)
	}
	if got := vc.Get(b); got != 0 {
		t.Errorf("Get(b) = %d, want 0", got)
	}
}

func TestVectorClock_Merge(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	vc1 := VectorClock{a: 1, b: 0}
	vc2 := VectorClock{a: 0, b: 2}
	vc1.Merge(vc2)

	if got := vc1.Get(a); got != 1 {
		t.Errorf("Get(a) = %d, want 1", got)
	}
	if got := vc1.Get(b); got != 2 {
		t.Errorf("Get(b) = %d, want 2", got)
	}
}

func TestVectorClock_Merge_CommutativeAssociativeIdempotent(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	vc1 := VectorClock{a: 3, b: 1}
	vc2 := VectorClock{a: 1, b: 4, c: 2}
	vc3 := VectorClock{c: 1}

	left := vc1.Clone()
	left.Merge(vc2)
	right := vc2.Clone()
	right.Merge(vc1)
	if !left.Equal(right) {
		t.Errorf("merge not commutative: %v vs %v", left, right)
	}

	lhs := vc1.Clone()
	lhs.Merge(vc2)
	lhs.Merge(vc3)
	rhs := vc2.Clone()
	rhs.Merge(vc3)
	rhs.Merge(vc1)
	if !lhs.Equal(rhs) {
		t.Errorf("merge not associative-equivalent: %v vs %v", lhs, rhs)
	}

	idem := vc1.Clone()
	idem.Merge(vc1)
	if !idem.Equal(vc1) {
		t.Errorf("merge not idempotent: %v vs %v", idem, vc1)
	}
}

func TestVectorClock_IncrementStrictlyRaisesOrdering(t *testing.T) {
	a := uuid.New()
	before := VectorClock{a: 1}
	after := before.Clone()
	after.Increment(a)

	if !before.LessOrEqual(after) {
		t.Error("before should be <= after")
	}
	if after.LessOrEqual(before) {
		t.Error("after should not be <= before")
	}
}

func TestVectorClock_LessThan(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	r := VectorClock{a: 1, b: 0}
	m := VectorClock{a: 1, b: 1}

	if !r.LessThan(m) {
		t.Error("r should be < m")
	}
	if m.LessThan(r) {
		t.Error("m should not be < r")
	}
	if r.LessThan(r) {
		t.Error("clock should never be < itself")
	}
}

func TestVectorClock_SliceExcludingAndSum(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	vc := VectorClock{a: 3, b: 4}

	sliced := vc.SliceExcluding(a)
	if got := sliced.Get(a); got != 0 {
		t.Errorf("sliced Get(a) = %d, want 0", got)
	}
	if got := sliced.Get(b); got != 4 {
		t.Errorf("sliced Get(b) = %d, want 4", got)
	}
	if got := vc.Sum(); got != 7 {
		t.Errorf("Sum() = %d, want 7", got)
	}
}

func TestVectorClock_Concurrent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	vc1 := VectorClock{a: 1, b: 0}
	vc2 := VectorClock{a: 0, b: 1}

	if vc1.LessOrEqual(vc2) || vc2.LessOrEqual(vc1) {
		t.Error("concurrent clocks should be mutually incomparable")
	}
}
