// Package leaderboard caches the expensive leaderboard aggregates. Each key
// holds one pre-materialized prefix of the full leaderboard; pagination is
// served by slicing that prefix in memory.
package leaderboard

import (
	"sync"
	"time"

	"github.com/mapperinfluences/backend/internal/cache"
)

const entryTTL = 300 * time.Second

// Prefix sizes of the materialized leaderboards.
const (
	UserWindow    = 500
	BeatmapWindow = 200
)

// UserKey addresses one user leaderboard variant. An empty Country means no
// country filter.
type UserKey struct {
	RankedOnly bool
	Country    string
}

// Cache stores one materialized leaderboard per key.
type Cache[K comparable, V any] struct {
	window  uint32
	mu      sync.Mutex
	entries *cache.TTL[K, []V]
}

// NewCache creates a leaderboard cache materializing the top window rows.
func NewCache[K comparable, V any](window uint32) *Cache[K, V] {
	return &Cache[K, V]{
		window:  window,
		entries: cache.New[K, []V](entryTTL),
	}
}

// Window returns the materialized prefix size.
func (c *Cache[K, V]) Window() uint32 {
	return c.window
}

// Get returns rows [start, start+limit) of the leaderboard under key. On a
// miss it materializes the full window via fetch first. fetch runs without
// the lock, concurrent misses on the same key may fetch twice.
func (c *Cache[K, V]) Get(key K, start, limit uint32, fetch func(window uint32) ([]V, error)) ([]V, error) {
	c.mu.Lock()
	rows, ok := c.entries.Get(key)
	c.mu.Unlock()

	if !ok {
		var err error
		rows, err = fetch(c.window)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries.Set(key, rows)
		c.mu.Unlock()
	}
	return page(rows, start, limit), nil
}

// page slices [start, start+limit) clamped to the available rows.
func page[V any](rows []V, start, limit uint32) []V {
	if int(start) >= len(rows) {
		return []V{}
	}
	end := min(int(start)+int(limit), len(rows))
	return rows[start:end]
}
