// Package graph serves the full influence graph from a single cached
// snapshot, the underlying aggregate is too heavy to run per request.
package graph

import (
	"sync"
	"time"

	"github.com/mapperinfluences/backend/internal/models"
)

const snapshotTTL = 600 * time.Second

// Source produces a fresh graph snapshot.
type Source interface {
	GetGraphData() (models.GraphData, error)
}

// Cache holds one graph snapshot with a timestamp.
type Cache struct {
	source Source

	mu         sync.RWMutex
	data       models.GraphData
	lastUpdate time.Time

	now func() time.Time
}

// NewCache creates an empty cache over the given source. The first read
// fetches.
func NewCache(source Source) *Cache {
	return &Cache{source: source, now: time.Now}
}

// Get returns the cached snapshot, refreshing it from the source when stale.
func (c *Cache) Get() (models.GraphData, error) {
	c.mu.RLock()
	if c.fresh() {
		data := c.data
		c.mu.RUnlock()
		return data, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	// another reader may have refreshed while we waited for the write lock
	if c.fresh() {
		return c.data, nil
	}

	data, err := c.source.GetGraphData()
	if err != nil {
		return models.GraphData{}, err
	}
	c.data = data
	c.lastUpdate = c.now()
	return data, nil
}

func (c *Cache) fresh() bool {
	return !c.lastUpdate.IsZero() && c.now().Sub(c.lastUpdate) <= snapshotTTL
}
