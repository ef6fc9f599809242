package store

import (
	"encoding/json"
	"sync"

	"github.com/i474232898/nwac-weather/internal/metrics"
	"github.com/i474232898/nwac-weather/internal/weather"
)

// MemoryCache is a concurrency-safe in-memory memo of raw timeseries payloads.
// Entries live for the process lifetime; there is no eviction.
type MemoryCache struct {
	mu sync.RWMutex

	// key: (site id, start, end), value: raw payload as returned upstream
	data map[weather.CacheKey]json.RawMessage
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[weather.CacheKey]json.RawMessage),
	}
}

// Get returns the payload memoized for key.
func (c *MemoryCache) Get(key weather.CacheKey) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw, ok := c.data[key]
	if ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	return raw, ok
}

// Put memoizes raw under key. The slice is copied so later mutation by the
// caller cannot leak into the cache.
func (c *MemoryCache) Put(key weather.CacheKey, raw json.RawMessage) {
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cp
}

// Len returns the number of memoized payloads.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
