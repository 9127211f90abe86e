package dsa

import "testing"

func TestBloomFilter_AddAndContains(t *testing.T) {
	bf := NewBloomFilter(BloomConfig{ExpectedItems: 100, FPRate: 0.01})
	bf.Add("a")
	if !bf.Contains("a") {
		t.Error("expected Contains(a) to be true after Add")
	}
	if bf.Contains("never-added") {
		t.Error("Contains on a never-added key is very likely false at this load factor")
	}
	if bf.Count() != 1 {
		t.Errorf("Count() = %d, want 1", bf.Count())
	}
}

func TestBloomFilter_Reset(t *testing.T) {
	bf := NewBloomFilter(BloomConfig{ExpectedItems: 10, FPRate: 0.01})
	bf.Add("a")
	bf.Reset()
	if bf.Count() != 0 {
		t.Errorf("Count() after Reset = %d, want 0", bf.Count())
	}
	if bf.Contains("a") {
		t.Error("Contains(a) should be false after Reset")
	}
}

func TestDedupFilter_SeenMarksAfterFirstCall(t *testing.T) {
	d := NewDedupFilter(BloomConfig{ExpectedItems: 100, FPRate: 0.01})
	if d.Seen("k1") {
		t.Error("first Seen(k1) should report false (not seen before)")
	}
	if !d.Seen("k1") {
		t.Error("second Seen(k1) should report true (already recorded)")
	}
}

func TestDedupFilter_ResetsOnceExpectedItemsReached(t *testing.T) {
	d := NewDedupFilter(BloomConfig{ExpectedItems: 4, FPRate: 0.01})
	for i := 0; i < 4; i++ {
		d.Seen(string(rune('a' + i)))
	}
	// The filter resets on the call that observes count >= ExpectedItems,
	// so a brand-new key right after should register as unseen.
	if d.Seen("z") {
		t.Error("expected a fresh key to be unseen immediately after an internal reset")
	}
}
