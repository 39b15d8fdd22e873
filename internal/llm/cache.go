package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type cacheEntry struct {
	expiry time.Time
	text   string
}

// draftCache holds completed drafts keyed by the request that produced them,
// so stepping back and forth through the wizard does not re-bill the provider.
type draftCache struct {
	entries  map[string]cacheEntry
	stopCh   chan struct{}
	ttl      time.Duration
	mu       sync.RWMutex
	stopOnce sync.Once
}

func newDraftCache(ttl time.Duration) *draftCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &draftCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

func cacheKey(r Request) string {
	sum := sha256.Sum256([]byte(r.System + "\x00" + r.Prompt))
	return hex.EncodeToString(sum[:])
}

func (c *draftCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return "", false
	}

	return entry.text, true
}

func (c *draftCache) set(key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		text:   text,
		expiry: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *draftCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *draftCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *draftCache) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
