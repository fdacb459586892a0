// Package cache implements domain.Cache: a bounded, time-boxed memoization
// layer for query results keyed by fingerprint (spec §4.2, §5).
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/persistorai/persistor/internal/models"
)

// Cache wraps an expirable LRU of query results.
type Cache struct {
	lru *lru.LRU[string, *models.QueryResult]
}

// New creates a Cache holding up to size entries, each evicted after ttl
// unless refreshed by a new Set for the same key.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{lru: lru.NewLRU[string, *models.QueryResult](size, nil, ttl)}
}

// Get returns the cached result for key, if present and unexpired.
func (c *Cache) Get(key string) (*models.QueryResult, bool) {
	return c.lru.Get(key)
}

// Set stores value under key. ttl is accepted to satisfy domain.Cache but a
// single pool-wide TTL (set at construction) governs eviction — per-entry
// TTLs would require a second eviction mechanism for no observed benefit.
func (c *Cache) Set(key string, value *models.QueryResult, _ time.Duration) {
	c.lru.Add(key, value)
}
