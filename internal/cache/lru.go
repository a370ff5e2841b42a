// Olapic Go SDK - Media Curation API Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/olapic-go

// Package cache provides the TTL-bounded LRU the entity handlers use to avoid
// refetching the same resource URL.
package cache

import (
	"sync"
	"time"
)

// Defaults applied by New for non-positive arguments.
const (
	DefaultCapacity = 1000
	DefaultTTL      = 5 * time.Minute
)

type node[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	prev      *node[V]
	next      *node[V]
}

// LRU is a thread-safe least-recently-used cache with per-entry expiry.
// Expired entries are dropped lazily on access or by CleanupExpired.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	items map[string]*node[V]
	// head.next is the most recently used entry, tail.prev the least.
	head *node[V]
	tail *node[V]

	hits   int64
	misses int64
}

// New creates a cache holding at most capacity entries for ttl each.
func New[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*node[V], capacity),
		head:     &node[V]{},
		tail:     &node[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the live value stored under key and marks it most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	n, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if c.now().After(n.expiresAt) {
		c.remove(n)
		c.misses++
		return zero, false
	}
	c.unlink(n)
	c.pushFront(n)
	c.hits++
	return n.value, true
}

// Add stores value under key, evicting the least recently used entries when
// the cache is full.
func (c *LRU[V]) Add(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if n, ok := c.items[key]; ok {
		n.value = value
		n.expiresAt = expiresAt
		c.unlink(n)
		c.pushFront(n)
		return
	}

	n := &node[V]{key: key, value: value, expiresAt: expiresAt}
	c.pushFront(n)
	c.items[key] = n
	for len(c.items) > c.capacity {
		oldest := c.tail.prev
		if oldest == c.head {
			break
		}
		c.remove(oldest)
	}
}

// Remove deletes key and reports whether it was present.
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if ok {
		c.remove(n)
	}
	return ok
}

// Len returns the number of stored entries, expired ones included.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear drops every entry.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*node[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// CleanupExpired drops expired entries and returns how many were removed.
func (c *LRU[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for n := c.tail.prev; n != c.head; {
		prev := n.prev
		if now.After(n.expiresAt) {
			c.remove(n)
			removed++
		}
		n = prev
	}
	return removed
}

// Stats returns hit and miss counts and the current size.
func (c *LRU[V]) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.items)
}

// The helpers below require c.mu.

func (c *LRU[V]) pushFront(n *node[V]) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *LRU[V]) unlink(n *node[V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *LRU[V]) remove(n *node[V]) {
	c.unlink(n)
	delete(c.items, n.key)
}
