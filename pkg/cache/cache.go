package cache

import (
	"sync"
	"time"

	"houseofstone-client/pkg/metrics"
)

const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 100
)

type entry struct {
	payload  []byte
	storedAt time.Time
}

// ResponseCache is an in-memory read-through cache with lazy TTL expiry.
// Expired entries are dropped when read; nothing runs in the background.
// When full, the oldest inserted entry is evicted first.
type ResponseCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[Key]*entry
	order      []Key
	now        func() time.Time
}

type Option func(*ResponseCache)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *ResponseCache) { c.now = now }
}

// NewResponseCache builds a cache. Non-positive arguments fall back to the defaults.
func NewResponseCache(ttl time.Duration, maxEntries int, opts ...Option) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c := &ResponseCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[Key]*entry),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the payload if present and younger than the TTL.
func (c *ResponseCache) Get(k Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.removeLocked(k)
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.Inc()
	return clone(e.payload), true
}

// Set stores payload under k, replacing any previous entry.
func (c *ResponseCache) Set(k Key, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[k]; ok {
		c.removeLocked(k)
	}
	for len(c.order) >= c.maxEntries {
		c.removeLocked(c.order[0])
	}
	c.entries[k] = &entry{payload: clone(payload), storedAt: c.now()}
	c.order = append(c.order, k)
}

// InvalidatePath drops every entry a mutation of path can make stale: the
// resource itself, anything beneath it, and list views of its parent collection.
// It returns the number of entries removed.
func (c *ResponseCache) InvalidatePath(path string) int {
	mutated, _ := SplitPath(path)
	parent := ParentCollection(mutated)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	kept := c.order[:0]
	for _, k := range c.order {
		if affects(mutated, parent, k.Path) {
			delete(c.entries, k)
			removed++
			continue
		}
		kept = append(kept, k)
	}
	c.order = kept
	return removed
}

func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*entry)
	c.order = nil
}

// Len counts stored entries, including expired ones not yet read.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ResponseCache) removeLocked(k Key) {
	delete(c.entries, k)
	for i, o := range c.order {
		if o == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
