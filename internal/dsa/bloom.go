package dsa

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"
)

// ─── Loopback Dedup Filter ──────────────────────────────────────────────────
// A process that joins its own multicast group receives its own sends back
// (§4.5). The listener also sees genuine retransmissions of the same
// message from other members still awaiting completion. DedupFilter answers
// "have I already queued this identifier for the coordinator?" in O(1) so
// the listener can drop the repeat before it ever reaches the event channel.
//
// Built on a Bloom filter: false positives (dropping something novel) are
// bounded by the configured rate and tolerable here because the ack/retry
// layer is already at-least-once. A wrongly dropped key is still recorded,
// so its retransmissions are dropped too until the filter next resets; a
// retransmission after that reset gets through. False negatives never
// happen.

// BloomConfig configures a Bloom filter.
type BloomConfig struct {
	ExpectedItems int     // Expected number of elements before a Reset
	FPRate        float64 // Desired false positive rate (e.g. 0.001 = 0.1%)
}

// DefaultDedupConfig sizes the filter for a few thousand in-flight
// (ackId, senderId) identifiers between resets.
func DefaultDedupConfig() BloomConfig {
	return BloomConfig{ExpectedItems: 4096, FPRate: 0.001}
}

// BloomFilter is a space-efficient probabilistic set.
type BloomFilter struct {
	mu      sync.RWMutex
	bits    []uint64
	numBits uint
	numHash uint
	count   int
}

// NewBloomFilter creates a Bloom filter sized to achieve the target FP rate.
func NewBloomFilter(cfg BloomConfig) *BloomFilter {
	if cfg.ExpectedItems <= 0 {
		cfg.ExpectedItems = 4096
	}
	if cfg.FPRate <= 0 || cfg.FPRate >= 1 {
		cfg.FPRate = 0.001
	}

	n := float64(cfg.ExpectedItems)
	p := cfg.FPRate

	m := uint(math.Ceil(-(n * math.Log(p)) / (math.Log(2) * math.Log(2))))
	k := uint(math.Ceil(float64(m) / n * math.Log(2)))
	if m == 0 {
		m = 64
	}
	if k == 0 {
		k = 1
	}

	words := (m + 63) / 64
	return &BloomFilter{bits: make([]uint64, words), numBits: m, numHash: k}
}

// Add inserts an item into the filter.
func (bf *BloomFilter) Add(item string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	h1, h2 := bf.baseHashes(item)
	for i := uint(0); i < bf.numHash; i++ {
		pos := bf.nthHash(h1, h2, i)
		bf.bits[pos/64] |= 1 << (pos % 64)
	}
	bf.count++
}

// Contains tests whether an item might already be in the filter. False
// means definitely not seen before; true means probably seen.
func (bf *BloomFilter) Contains(item string) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	h1, h2 := bf.baseHashes(item)
	for i := uint(0); i < bf.numHash; i++ {
		pos := bf.nthHash(h1, h2, i)
		if bf.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// Count returns the number of items added since the last Reset.
func (bf *BloomFilter) Count() int {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.count
}

// Reset clears the filter, used once Count grows past the sizing target to
// keep the false-positive rate near its configured bound.
func (bf *BloomFilter) Reset() {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	for i := range bf.bits {
		bf.bits[i] = 0
	}
	bf.count = 0
}

func (bf *BloomFilter) baseHashes(item string) (uint32, uint32) {
	sum := sha256.Sum256([]byte(item))
	h1 := binary.BigEndian.Uint32(sum[0:4])
	h2 := binary.BigEndian.Uint32(sum[4:8])
	return h1, h2
}

func (bf *BloomFilter) nthHash(h1, h2 uint32, i uint) uint {
	return uint((uint64(h1) + uint64(i)*uint64(h2)) % uint64(bf.numBits))
}

// DedupFilter wraps a BloomFilter with the reset-on-growth policy the
// multicast listener needs: a long-lived filter whose FP rate would
// otherwise drift upward as more identifiers accumulate.
type DedupFilter struct {
	cfg    BloomConfig
	filter *BloomFilter
}

// NewDedupFilter returns a filter that auto-resets once it has absorbed
// roughly cfg.ExpectedItems identifiers.
func NewDedupFilter(cfg BloomConfig) *DedupFilter {
	return &DedupFilter{cfg: cfg, filter: NewBloomFilter(cfg)}
}

// Seen reports whether key was already recorded, recording it either way.
func (d *DedupFilter) Seen(key string) bool {
	if d.filter.Count() >= d.cfg.ExpectedItems {
		d.filter.Reset()
	}
	wasSeen := d.filter.Contains(key)
	d.filter.Add(key)
	return wasSeen
}
