// Package cache provides a read-through TTL cache for upstream
// payloads. Each resource class picks its own TTL per call; the cache
// itself has no notion of resource kinds.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	expiresAt time.Time
	value     string
}

// Cache is a thread-safe map of resource path to payload with per-entry
// expiry. Fetches run outside the map lock so a slow upstream call on
// one key never blocks hits on other keys.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group

	// now is swapped out by tests to control expiry.
	now func() time.Time
}

// New creates an empty cache
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// GetOrFetch returns the cached payload for key if it has not expired,
// otherwise invokes fetch, stores the result with the given TTL, and
// returns it. Concurrent callers on the same cold key share one fetch.
// A failed fetch stores nothing.
func (c *Cache) GetOrFetch(key string, ttl time.Duration, fetch func() (string, error)) (string, error) {
	if value, ok := c.lookup(key); ok {
		return value, nil
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another flight may have filled the entry while this caller
		// was waiting on the group.
		if value, ok := c.lookup(key); ok {
			return value, nil
		}

		payload, err := fetch()
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.entries[key] = entry{
			expiresAt: c.now().Add(ttl),
			value:     payload,
		}
		c.mu.Unlock()

		return payload, nil
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

func (c *Cache) lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.expiresAt.After(c.now()) {
		return "", false
	}
	return e.value, true
}
