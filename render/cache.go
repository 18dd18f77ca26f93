// ABOUTME: In-memory render cache keyed by the sha256 of generated DOT text and output format.
// ABOUTME: Concurrent misses for one key share a single graphviz run; stale entries expire by TTL.
package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/2389-research/pipeflow/flow"
)

// RenderFunc turns DOT text into the requested output format.
type RenderFunc func(ctx context.Context, dotText string, format string) ([]byte, error)

type cacheEntry struct {
	data     []byte
	storedAt time.Time
}

// RenderCache wraps a RenderFunc. A flow that parses to the same structure
// renders once per format until the entry expires, however its text was
// formatted.
type RenderCache struct {
	renderFn RenderFunc
	ttl      time.Duration
	now      func() time.Time
	group    singleflight.Group

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewRenderCache creates a RenderCache wrapping renderFn. A nil renderFn
// uses RenderDOTSource.
func NewRenderCache(renderFn RenderFunc, ttl time.Duration) *RenderCache {
	if renderFn == nil {
		renderFn = RenderDOTSource
	}
	return &RenderCache{
		renderFn: renderFn,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]cacheEntry),
	}
}

// Render converts r to DOT and renders it through the cache.
func (c *RenderCache) Render(ctx context.Context, r *flow.Result, format string) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("cannot render nil result")
	}
	return c.RenderDOTSource(ctx, ToDOT(r), format)
}

// RenderDOTSource renders dotText, serving a fresh cached copy when one
// exists. Failed renders are not cached.
func (c *RenderCache) RenderDOTSource(ctx context.Context, dotText string, format string) ([]byte, error) {
	key := cacheKey(dotText, format)
	if data, ok := c.lookup(key); ok {
		return data, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if data, ok := c.lookup(key); ok {
			return data, nil
		}
		data, err := c.renderFn(ctx, dotText, format)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{data: data, storedAt: c.now()}
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *RenderCache) lookup(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || c.expired(entry) {
		return nil, false
	}
	return entry.data, true
}

func (c *RenderCache) expired(e cacheEntry) bool {
	return c.now().Sub(e.storedAt) >= c.ttl
}

// Prune drops expired entries and returns how many were removed.
func (c *RenderCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len counts stored entries, expired ones included.
func (c *RenderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear empties the cache.
func (c *RenderCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func cacheKey(dotText string, format string) string {
	sum := sha256.Sum256([]byte(dotText))
	return hex.EncodeToString(sum[:]) + ":" + format
}
