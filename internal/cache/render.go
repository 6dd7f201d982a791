package cache

import (
	"sync"
	"time"

	"expensetracker/internal/metrics"
)

// RenderCache holds rendered artifacts (chart PNGs) keyed by the store
// revision they were rendered from. An entry for an old revision is never
// served once the store has moved on, it just ages out.
type RenderCache struct {
	name string

	mu      sync.Mutex // guards entries and serializes renders
	entries *revisionLRU
}

func NewRenderCache(name string, maxSize int, ttl time.Duration) *RenderCache {
	return &RenderCache{
		name:    name,
		entries: newRevisionLRU(maxSize, ttl),
	}
}

// Fetch returns the artifact for revision, calling render on a miss. Render
// errors are returned and not cached.
func (c *RenderCache) Fetch(revision uint64, render func() ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if data, ok := c.entries.get(revision); ok {
		metrics.CacheLookups.WithLabelValues(c.name, "hit").Inc()
		return data, nil
	}

	metrics.CacheLookups.WithLabelValues(c.name, "miss").Inc()
	data, err := render()
	if err != nil {
		return nil, err
	}
	c.entries.put(revision, data)
	return data, nil
}

// CleanExpired drops entries past their ttl.
func (c *RenderCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.sweep()
}

// Size reports how many revisions are cached.
func (c *RenderCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.size()
}
