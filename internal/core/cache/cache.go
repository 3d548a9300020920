// Package cache provides a small TTL-bounded snapshot cache.
//
// The TTL is intentionally short: the cache exists to absorb reload bursts
// and to hold a fallback value during refreshes, not to maximize hit rate.
package cache

import (
	"sync"
	"time"

	"github.com/strideapp/stride/internal/core/program"
)

const (
	// DefaultTTL is how long an entry counts as fresh.
	DefaultTTL = 5 * time.Second
	// DefaultCapacity bounds the entry table. In practice a single key is
	// populated; the bound guards against misuse.
	DefaultCapacity = 100
)

type entry struct {
	value     program.Snapshot
	timestamp time.Time
}

// Cache is a capacity-bounded TTL cache for program snapshots.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]entry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithCapacity overrides the entry bound.
func WithCapacity(n int) Option {
	return func(c *Cache) { c.capacity = n }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]entry),
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached snapshot for key if it is still fresh.
// Expired entries are treated as missing but are not deleted; they remain
// available through GetStale as a fallback value.
func (c *Cache) Get(key string) (program.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return program.Snapshot{}, false
	}
	if c.now().Sub(e.timestamp) > c.ttl {
		return program.Snapshot{}, false
	}
	return e.value, true
}

// GetStale returns the cached snapshot regardless of age. Callers use this
// for rollback/fallback values where a stale snapshot beats no snapshot.
func (c *Cache) GetStale(key string) (program.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return program.Snapshot{}, false
	}
	return e.value, true
}

// Set stores a snapshot under key, evicting the oldest entry when the
// capacity bound is reached.
func (c *Cache) Set(key string, value program.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[key] = entry{value: value, timestamp: c.now()}
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.timestamp.Before(oldest) {
			oldestKey = k
			oldest = e.timestamp
			found = true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}
