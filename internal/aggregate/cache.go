package aggregate

import (
	"fmt"
	"time"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheSize = 128
	defaultCacheTTL  = 10 * time.Minute
)

// Cache holds search results keyed by query, limit and anchor.
type Cache struct {
	lru *expirable.LRU[string, models.TrackList]
}

// NewCache creates a size-bounded cache whose entries expire after ttl.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{lru: expirable.NewLRU[string, models.TrackList](size, nil, ttl)}
}

// CacheKey is "query_limit", suffixed with "_anchor" when an anchor is set.
func CacheKey(query string, limit int, anchorID string) string {
	key := fmt.Sprintf("%s_%d", query, limit)
	if anchorID != "" {
		key += "_" + anchorID
	}
	return key
}

// Get returns a copy of the cached list.
func (c *Cache) Get(key string) (models.TrackList, bool) {
	if c == nil {
		return models.TrackList{}, false
	}
	list, ok := c.lru.Get(key)
	if !ok {
		return models.TrackList{}, false
	}
	return list.Clone(), true
}

// Add stores a copy of list.
func (c *Cache) Add(key string, list models.TrackList) {
	if c == nil {
		return
	}
	c.lru.Add(key, list.Clone())
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	if c != nil {
		c.lru.Purge()
	}
}
