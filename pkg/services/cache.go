package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bistro-analytics-api/pkg/models"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// CacheStats is the admin view of the cache.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// CacheService is a process-local TTL cache for computed analytics payloads.
// TTLs are resolved from the key prefix so each report family carries its
// own freshness window.
type CacheService struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	ttls       map[string]time.Duration
	defaultTTL time.Duration
	hits       int64
	misses     int64
}

func NewCacheService(ttls map[string]time.Duration, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		entries:    make(map[string]cacheEntry),
		ttls:       ttls,
		defaultTTL: defaultTTL,
	}
}

func (c *CacheService) ttlFor(key string) time.Duration {
	prefix, _, _ := strings.Cut(key, ":")
	if ttl, ok := c.ttls[prefix]; ok {
		return ttl
	}
	return c.defaultTTL
}

// Get returns the cached value when present and unexpired. Every path
// mutates a counter or the map, so the lookup and the eviction happen
// under one write lock; a concurrent Set can never be evicted here.
func (c *CacheService) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.value, true
}

func (c *CacheService) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(c.ttlFor(key))}
}

// GetOrSet serves the cached value or computes, stores and returns a fresh
// one. A compute error is never cached.
func (c *CacheService) GetOrSet(key string, compute func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.Set(key, v)
	return v, nil
}

// ClearPrefix drops every entry under the given key prefix; a blank prefix
// drops everything. Returns the number of evicted entries.
func (c *CacheService) ClearPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	for key := range c.entries {
		if prefix == "" || strings.HasPrefix(key, prefix+":") || key == prefix {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

func (c *CacheService) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// CacheKey builds a deterministic key from a report prefix and the
// normalized filter. Fields are emitted in a fixed order so semantically
// equal filters always share a key.
func CacheKey(prefix string, f models.QueryFilter) string {
	parts := make([]string, 0, 10)
	if !f.StartDate.IsZero() {
		parts = append(parts, "start="+f.StartDate.Format("2006-01-02"))
	}
	if !f.EndDate.IsZero() {
		parts = append(parts, "end="+f.EndDate.Format("2006-01-02"))
	}
	if f.StoreID != 0 {
		parts = append(parts, fmt.Sprintf("store=%d", f.StoreID))
	}
	if f.ChannelID != 0 {
		parts = append(parts, fmt.Sprintf("channel=%d", f.ChannelID))
	}
	if f.CategoryID != 0 {
		parts = append(parts, fmt.Sprintf("category=%d", f.CategoryID))
	}
	if f.CustomerID != 0 {
		parts = append(parts, fmt.Sprintf("customer=%d", f.CustomerID))
	}
	if f.Weekday != models.Absent {
		parts = append(parts, fmt.Sprintf("weekday=%d", f.Weekday))
	}
	if f.Hour != models.Absent {
		parts = append(parts, fmt.Sprintf("hour=%d", f.Hour))
	}
	if f.Status != "" {
		parts = append(parts, "status="+f.Status)
	}
	if f.Limit != 0 {
		parts = append(parts, fmt.Sprintf("limit=%d", f.Limit))
	}
	sort.Strings(parts)
	return prefix + ":" + strings.Join(parts, "&")
}
