package core

import (
	"sync"
	"time"
)

// BoundedHistory is an append-capped, ordered in-memory store. Entries
// beyond the cap are evicted oldest-first (FIFO). Age pruning uses a
// timestamp extractor supplied at construction so the store stays
// generic over element type.
//
// A single coarse lock guards the slice; the contention profile of the
// engine (one reactive writer, one scheduler writer, occasional query
// readers) does not justify sharding.
type BoundedHistory[T any] struct {
	mu      sync.RWMutex
	entries []T
	max     int
	timeOf  func(T) time.Time
}

// NewBoundedHistory creates a history capped at max entries. timeOf
// must return the entry's timestamp for age-based pruning.
func NewBoundedHistory[T any](max int, timeOf func(T) time.Time) *BoundedHistory[T] {
	if max <= 0 {
		max = 1
	}
	return &BoundedHistory[T]{
		entries: make([]T, 0),
		max:     max,
		timeOf:  timeOf,
	}
}

// Append adds an entry, evicting the oldest if the store is full.
func (h *BoundedHistory[T]) Append(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) >= h.max {
		drop := len(h.entries) - h.max + 1
		h.entries = h.entries[drop:]
	}
	h.entries = append(h.entries, v)
}

// Len returns the number of stored entries.
func (h *BoundedHistory[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Snapshot returns a copy of the entries in insertion order.
func (h *BoundedHistory[T]) Snapshot() []T {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]T, len(h.entries))
	copy(out, h.entries)
	return out
}

// Filter returns a copy of the entries matching pred, in order.
func (h *BoundedHistory[T]) Filter(pred func(T) bool) []T {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []T
	for _, v := range h.entries {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// Locked runs fn with the live entry slice under the write lock.
// Callers use it for compound read-modify operations such as resolving
// an alert in place. fn must not retain the slice.
func (h *BoundedHistory[T]) Locked(fn func(entries []T)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.entries)
}

// PruneOlderThan removes entries whose timestamp predates cutoff and
// returns how many were removed. Entries exactly at the cutoff are
// retained.
func (h *BoundedHistory[T]) PruneOlderThan(cutoff time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.entries[:0]
	for _, v := range h.entries {
		if h.timeOf(v).Before(cutoff) {
			continue
		}
		kept = append(kept, v)
	}
	removed := len(h.entries) - len(kept)
	// Zero the tail so evicted pointers do not pin memory.
	var zero T
	for i := len(kept); i < len(h.entries); i++ {
		h.entries[i] = zero
	}
	h.entries = kept
	return removed
}

// PruneToCount drops oldest entries until at most n remain and returns
// how many were removed.
func (h *BoundedHistory[T]) PruneToCount(n int) int {
	if n < 0 {
		n = 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) <= n {
		return 0
	}
	removed := len(h.entries) - n
	h.entries = append(h.entries[:0:0], h.entries[removed:]...)
	return removed
}
