// Package memcache is an in-memory TTL cache for computed query results.
//
// Entries live for a fixed TTL. When the cache is full, the single oldest entry
// by insertion time is evicted. If recomputing an expired entry fails, the stale
// payload is served instead of the error.
package memcache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/worldfishcenter/landings/internal/logger"
	"github.com/worldfishcenter/landings/schema"
)

// ComputeFunc produces the value for a key on a miss.
type ComputeFunc[T any] func(ctx context.Context) (T, error)

// Cache memoizes computed values by key.
type Cache[T any] struct {
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	log     *zap.Logger
	name    string

	mu      sync.Mutex
	entries map[string]*entry[T]
	order   *list.List // front is the oldest insertion
	closed  bool
	stats   schema.MemoryCacheStats

	group singleflight.Group
}

type entry[T any] struct {
	key       string
	payload   T
	timestamp time.Time
	elem      *list.Element
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now  func() time.Time
	log  *zap.Logger
	name string
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger used for stale-serve warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithName labels the cache in log lines.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// New creates a cache. A non-positive maxSize falls back to schema.DefaultCacheSize.
func New[T any](ttl time.Duration, maxSize int, opts ...Option) *Cache[T] {
	o := options{now: time.Now, name: "memcache"}
	for _, opt := range opts {
		opt(&o)
	}
	if maxSize <= 0 {
		maxSize = schema.DefaultCacheSize
	}
	return &Cache[T]{
		ttl:     ttl,
		maxSize: maxSize,
		now:     o.now,
		log:     logger.OrNop(o.log),
		name:    o.name,
		entries: make(map[string]*entry[T]),
		order:   list.New(),
	}
}

// Do returns the cached value for key or computes it synchronously.
func (c *Cache[T]) Do(key string, compute func() (T, error)) (T, error) {
	return c.DoContext(context.Background(), key, func(context.Context) (T, error) {
		return compute()
	})
}

// DoContext returns the cached value for key or computes it. Concurrent misses
// for the same key share one compute call. The lock is not held while computing.
//
// The shared compute runs detached from any single caller's cancellation; each
// caller stops waiting when its own ctx is done.
func (c *Cache[T]) DoContext(ctx context.Context, key string, compute ComputeFunc[T]) (T, error) {
	if v, ok := c.lookup(key, true); ok {
		return v, nil
	}

	if c.isClosed() {
		return compute(ctx)
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// Another caller may have stored the key while we waited.
		if v, ok := c.lookup(key, false); ok {
			return v, nil
		}
		v, err := compute(shared)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})

	var (
		res any
		err error
	)
	select {
	case r := <-ch:
		res, err = r.Val, r.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		if stale, ok := c.staleValue(key); ok {
			c.log.Warn("serving stale cache entry after compute failure",
				zap.String("cache", c.name),
				zap.String("key", key),
				zap.Error(err),
			)
			return stale, nil
		}
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// Get returns the value for key when present and fresh.
func (c *Cache[T]) Get(key string) (T, bool) {
	return c.lookup(key, false)
}

// Set stores value under key with the current timestamp, evicting the oldest
// entry first when a new key would exceed the size limit.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	now := c.now()
	if e, ok := c.entries[key]; ok {
		e.payload = value
		e.timestamp = now
		c.order.MoveToBack(e.elem)
		return
	}

	for len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}

	e := &entry[T]{key: key, payload: value, timestamp: now}
	e.elem = c.order.PushBack(e)
	c.entries[key] = e
}

// Len returns the number of entries, fresh or stale.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the keys from oldest to newest insertion.
func (c *Cache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[T]).key)
	}
	return keys
}

// Purge removes every entry but keeps the cache usable.
func (c *Cache[T]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[T])
	c.order.Init()
}

// Close drops every entry. Later calls compute without caching.
func (c *Cache[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = make(map[string]*entry[T])
	c.order.Init()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[T]) Stats() schema.MemoryCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	s.MaxSize = c.maxSize
	return s
}

// lookup returns a fresh payload. When count is set, hits and misses are recorded.
func (c *Cache[T]) lookup(key string, count bool) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().Sub(e.timestamp) < c.ttl {
		if count {
			c.stats.Hits++
		}
		return e.payload, true
	}
	if count {
		c.stats.Misses++
	}
	var zero T
	return zero, false
}

// staleValue returns whatever payload is stored for key, regardless of age.
func (c *Cache[T]) staleValue(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	c.stats.StaleServed++
	return e.payload, true
}

func (c *Cache[T]) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// evictOldestLocked removes the oldest entry (must hold lock).
func (c *Cache[T]) evictOldestLocked() {
	front := c.order.Front()
	if front == nil {
		return
	}
	e := front.Value.(*entry[T])
	c.order.Remove(front)
	delete(c.entries, e.key)
	c.stats.Evictions++
	c.log.Debug("evicted cache entry", zap.String("cache", c.name), zap.String("key", e.key))
}
