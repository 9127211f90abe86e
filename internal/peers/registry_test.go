package peers

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/lanchat/lanchat/internal/domain"
)

func TestRegistry_AddAndGet(t *testing.T) {
	self := uuid.New()
	r := New(self)

	p := domain.Peer{ID: uuid.New(), Username: "bob"}
	if err := r.Add(p); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, ok := r.Get(p.ID)
	if !ok || got.Username != "bob" {
		t.Fatalf("Get = %v, %v; want bob, true", got, ok)
	}
}

func TestRegistry_AddDuplicate(t *testing.T) {
	r := New(uuid.New())
	p := domain.Peer{ID: uuid.New(), Username: "bob"}
	if err := r.Add(p); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err := r.Add(p)
	if !errors.Is(err, domain.ErrPeerAlreadyPresent) {
		t.Fatalf("Add duplicate = %v, want ErrPeerAlreadyPresent", err)
	}
}

func TestRegistry_AddSelfIsNoop(t *testing.T) {
	self := uuid.New()
	r := New(self)
	if err := r.Add(domain.Peer{ID: self}); err != nil {
		t.Fatalf("Add(self): %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0 — self must never appear in the registry", r.Len())
	}
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := New(uuid.New())
	id := uuid.New()
	r.Remove(id) // no-op on unknown id
	_ = r.Add(domain.Peer{ID: id})
	r.Remove(id)
	r.Remove(id)
	if _, ok := r.Get(id); ok {
		t.Error("peer should be gone after Remove")
	}
}

func TestRegistry_All(t *testing.T) {
	r := New(uuid.New())
	a, b := domain.Peer{ID: uuid.New()}, domain.Peer{ID: uuid.New()}
	_ = r.Add(a)
	_ = r.Add(b)

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("All() len = %d, want 2", len(all))
	}
}
