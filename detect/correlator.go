package detect

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"argus/core"
)

// eventBucket holds the recent events for one correlation key in
// arrival order.
type eventBucket struct {
	events []*core.SecurityEvent
}

// CorrelatorStats describes the correlator's current footprint.
type CorrelatorStats struct {
	TrackedKeys int
	TotalEvents int
}

// EventCorrelator maintains a per-key (source IP) ring of recent
// events and counts occurrences inside a sliding time window. Each
// bucket is capped with FIFO eviction, and the key space itself is an
// LRU so a scan across many source addresses cannot grow the map
// without bound.
type EventCorrelator struct {
	mu           sync.Mutex
	buckets      *lru.Cache[string, *eventBucket]
	maxPerBucket int
}

// NewEventCorrelator creates a correlator tracking at most maxKeys
// correlation keys with maxPerBucket events each. Non-positive values
// fall back to the package defaults.
func NewEventCorrelator(maxKeys, maxPerBucket int) (*EventCorrelator, error) {
	if maxKeys <= 0 {
		maxKeys = core.MaxTrackedKeys
	}
	if maxPerBucket <= 0 {
		maxPerBucket = core.MaxEventsPerKey
	}
	cache, err := lru.New[string, *eventBucket](maxKeys)
	if err != nil {
		return nil, err
	}
	return &EventCorrelator{
		buckets:      cache,
		maxPerBucket: maxPerBucket,
	}, nil
}

// Record appends the event into the bucket keyed by its IP address,
// evicting the oldest entry when the bucket is full. Record always
// happens before evaluation, so the event being evaluated is already
// counted among its own occurrences.
func (c *EventCorrelator) Record(event *core.SecurityEvent) {
	if event == nil || event.IPAddress == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.buckets.Get(event.IPAddress)
	if !ok {
		bucket = &eventBucket{}
		c.buckets.Add(event.IPAddress, bucket)
	}

	if len(bucket.events) >= c.maxPerBucket {
		drop := len(bucket.events) - c.maxPerBucket + 1
		bucket.events = bucket.events[drop:]
	}
	bucket.events = append(bucket.events, event)
}

// CountInWindow returns how many recorded events share the event's
// correlation key with a timestamp at or after event.Timestamp−window.
// The boundary is inclusive, and the count includes the event itself
// when it has already been recorded: a threshold of 5 fires on the
// 5th event, not the 6th.
func (c *EventCorrelator) CountInWindow(event *core.SecurityEvent, window time.Duration) int {
	if event == nil || event.IPAddress == "" {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.buckets.Get(event.IPAddress)
	if !ok {
		return 0
	}

	cutoff := event.Timestamp.Add(-window)
	count := 0
	for _, e := range bucket.events {
		if !e.Timestamp.Before(cutoff) {
			count++
		}
	}
	return count
}

// PruneOlderThan drops recorded events older than cutoff across all
// buckets and returns how many were removed. Empty buckets are
// removed from the key space.
func (c *EventCorrelator) PruneOlderThan(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range c.buckets.Keys() {
		bucket, ok := c.buckets.Peek(key)
		if !ok {
			continue
		}
		kept := bucket.events[:0]
		for _, e := range bucket.events {
			if e.Timestamp.Before(cutoff) {
				continue
			}
			kept = append(kept, e)
		}
		removed += len(bucket.events) - len(kept)
		for i := len(kept); i < len(bucket.events); i++ {
			bucket.events[i] = nil
		}
		bucket.events = kept
		if len(bucket.events) == 0 {
			c.buckets.Remove(key)
		}
	}
	return removed
}

// Stats returns the correlator's current footprint.
func (c *EventCorrelator) Stats() CorrelatorStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, key := range c.buckets.Keys() {
		if bucket, ok := c.buckets.Peek(key); ok {
			total += len(bucket.events)
		}
	}
	return CorrelatorStats{
		TrackedKeys: c.buckets.Len(),
		TotalEvents: total,
	}
}
