// Package cache provides an insertion-ordered TTL map used by the upstream
// requesters and the leaderboard cache. Expired entries are evicted lazily
// from the insertion head before every read; with a uniform TTL the insertion
// order matches the expiry order, so the sweep stops at the first fresh entry.
//
// The cache is not safe for concurrent use on its own. Callers wrap it in a
// mutex and hold the lock only across the in-memory operation.
package cache

import (
	"container/list"
	"time"
)

type entry[K comparable, V any] struct {
	key        K
	value      V
	insertedAt time.Time
}

// MultipleResult splits a batch lookup into cache hits and missing keys.
type MultipleResult[K comparable, V any] struct {
	Hits   map[K]V
	Misses []K
}

// TTL is a map from key to value with per-entry expiry.
type TTL[K comparable, V any] struct {
	order    *list.List
	items    map[K]*list.Element
	expireIn time.Duration
	now      func() time.Time
}

// New creates a TTL cache with the given entry lifetime.
func New[K comparable, V any](expireIn time.Duration) *TTL[K, V] {
	return &TTL[K, V]{
		order:    list.New(),
		items:    make(map[K]*list.Element),
		expireIn: expireIn,
		now:      time.Now,
	}
}

func (c *TTL[K, V]) discardExpired() {
	now := c.now()
	for front := c.order.Front(); front != nil; front = c.order.Front() {
		e := front.Value.(*entry[K, V])
		if now.Sub(e.insertedAt) <= c.expireIn {
			break
		}
		c.order.Remove(front)
		delete(c.items, e.key)
	}
}

// Get returns the fresh value for a key.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.discardExpired()
	if elem, ok := c.items[key]; ok {
		return elem.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// GetMultiple splits keys into hits and misses in one expiry sweep.
func (c *TTL[K, V]) GetMultiple(keys []K) MultipleResult[K, V] {
	c.discardExpired()

	result := MultipleResult[K, V]{Hits: make(map[K]V)}
	for _, key := range keys {
		if elem, ok := c.items[key]; ok {
			result.Hits[key] = elem.Value.(*entry[K, V]).value
		} else {
			result.Misses = append(result.Misses, key)
		}
	}
	return result
}

// Set stores a value. Re-setting an existing key resets its timestamp and
// moves it to the insertion tail so the uniform-TTL ordering stays intact.
func (c *TTL[K, V]) Set(key K, value V) {
	if elem, ok := c.items[key]; ok {
		c.order.Remove(elem)
		delete(c.items, key)
	}
	e := &entry[K, V]{key: key, value: value, insertedAt: c.now()}
	c.items[key] = c.order.PushBack(e)
}

// SetMultiple stores a batch of key value pairs.
func (c *TTL[K, V]) SetMultiple(pairs map[K]V) {
	for key, value := range pairs {
		c.Set(key, value)
	}
}

// Remove deletes a key, returning the removed value if it was present.
func (c *TTL[K, V]) Remove(key K) (V, bool) {
	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[K, V])
		c.order.Remove(elem)
		delete(c.items, key)
		return e.value, true
	}
	var zero V
	return zero, false
}

// Clear drops every entry.
func (c *TTL[K, V]) Clear() {
	c.order.Init()
	c.items = make(map[K]*list.Element)
}

// Len returns the number of stored entries, expired ones included until the
// next read sweeps them.
func (c *TTL[K, V]) Len() int {
	return len(c.items)
}
