package memory

import (
	"context"
	"strings"
	"sync"
	"time"
)

// sweepEvery bounds how often Set scans for expired entries.
const sweepEvery = time.Minute

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// Cache keeps provider responses in process memory until their TTL passes.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time

	nextSweep time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = ctx
	if ttl <= 0 {
		return nil
	}

	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if !now.Before(c.nextSweep) {
		for k, e := range c.entries {
			if !now.Before(e.expiresAt) {
				delete(c.entries, k)
			}
		}
		c.nextSweep = now.Add(sweepEvery)
	}
	c.entries[key] = cacheEntry{
		value:     append([]byte(nil), value...),
		expiresAt: now.Add(ttl),
	}
	return nil
}

// Invalidate drops every key starting with prefix; an empty prefix clears the cache.
func (c *Cache) Invalidate(ctx context.Context, prefix string) error {
	_ = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
