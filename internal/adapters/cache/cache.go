package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/padron/pkg/metrics"
)

type entry struct {
	value    any
	storedAt time.Time
}

// Cache is a map-backed Store with no expiry.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]entry
	now     func() time.Time
}

var _ Store = (*Cache)(nil)

// New constructs an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Key]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements Store.Get and records a hit or miss.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		metrics.RecordCacheHit(key.Source)
	} else {
		metrics.RecordCacheMiss(key.Source)
	}
	return e.value, ok
}

// Put implements Store.Put.
func (c *Cache) Put(key Key, value any) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, storedAt: c.now()}
	n := len(c.entries)
	c.mu.Unlock()
	metrics.UpdateCacheEntries(n)
}

// GetOrLoad implements Store.GetOrLoad.
func (c *Cache) GetOrLoad(ctx context.Context, key Key, load func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.Put(key, v)
	return v, nil
}

// Invalidate implements Store.Invalidate.
func (c *Cache) Invalidate(source string) int {
	c.mu.Lock()
	dropped := 0
	for k := range c.entries {
		if k.Source == source {
			delete(c.entries, k)
			dropped++
		}
	}
	n := len(c.entries)
	c.mu.Unlock()

	metrics.RecordCacheInvalidation()
	metrics.UpdateCacheEntries(n)
	return dropped
}

// Purge implements Store.Purge.
func (c *Cache) Purge() int {
	c.mu.Lock()
	dropped := len(c.entries)
	c.entries = make(map[Key]entry)
	c.mu.Unlock()

	metrics.RecordCacheInvalidation()
	metrics.UpdateCacheEntries(0)
	return dropped
}

// Len implements Store.Len.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries implements Store.Entries.
func (c *Cache) Entries() []Info {
	c.mu.RLock()
	out := make([]Info, 0, len(c.entries))
	for k, e := range c.entries {
		out = append(out, Info{Source: k.Source, Params: k.Params.String(), StoredAt: e.storedAt})
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Params < out[j].Params
	})
	return out
}

// Load is a typed GetOrLoad.
func Load[T any](ctx context.Context, s Store, key Key, load func(context.Context) (T, error)) (T, error) {
	v, err := s.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %T for %s", ErrTypeMismatch, v, key.Source)
	}
	return t, nil
}
