// Package querycache is a generic request/response cache keyed by endpoint
// and normalized parameters, with tag-based invalidation driven by mutations.
//
// Reads for the same key share a single in-flight fetch. Entries carry
// logical resource tags; a successful mutation declares the tags it
// invalidates and every entry sharing a matching tag is marked stale.
// Stale entries are refetched on next access, or eagerly when the entry
// still has active subscribers. Entries without subscribers are evicted
// after a per-entry retention window.
package querycache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kantorkita/backoffice/pkg/clockx"
	"github.com/kantorkita/backoffice/pkg/slogx"
)

// FetchFunc loads the payload for a cache entry from the backend.
type FetchFunc func(ctx context.Context) (any, error)

// Options configure one cache entry at fetch time.
type Options struct {
	// Tags are the static resource tags of the entry.
	Tags []Tag

	// ResultTags derives additional tags from the fetched payload, e.g. one
	// ID tag per item of a list response.
	ResultTags func(v any) []Tag

	// KeepUnused is how long the entry survives after its last subscriber
	// leaves. Zero means immediate eviction.
	KeepUnused time.Duration

	// ServeStale serves an invalidated payload immediately while a
	// background refetch runs (stale-while-revalidate).
	ServeStale bool
}

// Cache is safe for concurrent use.
type Cache struct {
	clock   clockx.Clock
	logger  *slog.Logger
	metrics *Metrics

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	value       any
	hasValue    bool
	stale       bool
	tags        []Tag
	lastFetched time.Time
	subscribers int
	evictTimer  clockx.Timer
	fetch       FetchFunc
	opts        Options
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects the clock used for retention timers.
func WithClock(clock clockx.Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// WithLogger sets the cache logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithMetrics attaches cache metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		clock:   clockx.System(),
		logger:  slogx.Nop(),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the cached payload for key, loading it with fn on a miss.
// Concurrent callers for the same key share one in-flight fetch and all
// receive the same settled result.
func (c *Cache) Fetch(ctx context.Context, key string, opts Options, fn FetchFunc) (any, error) {
	c.mu.Lock()
	e := c.entries[key]
	if e != nil && e.hasValue && !e.stale {
		v := e.value
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.Hits.Inc()
		}
		return v, nil
	}

	if e != nil && e.hasValue && e.stale && opts.ServeStale {
		v := e.value
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.StaleServed.Inc()
		}
		go c.refetch(key)
		return v, nil
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.Misses.Inc()
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.fetchAndStore(ctx, key, opts, fn)
	})
	return v, err
}

func (c *Cache) fetchAndStore(ctx context.Context, key string, opts Options, fn FetchFunc) (any, error) {
	v, err := fn(ctx)
	if err != nil {
		// A failed refetch leaves any stale entry in place; the next access
		// attempts again.
		return nil, err
	}

	tags := append([]Tag(nil), opts.Tags...)
	if opts.ResultTags != nil {
		tags = append(tags, opts.ResultTags(v)...)
	}

	c.mu.Lock()
	e := c.entries[key]
	if e == nil {
		e = &entry{}
		c.entries[key] = e
	}
	e.value = v
	e.hasValue = true
	e.stale = false
	e.tags = tags
	e.lastFetched = c.clock.Now()
	e.fetch = fn
	e.opts = opts
	c.mu.Unlock()

	return v, nil
}

// refetch revalidates an entry in the background using its stored fetch
// function. Deliberately detached from any caller context: navigating away
// from one view must not cancel a revalidation other subscribers rely on.
func (c *Cache) refetch(key string) {
	c.mu.Lock()
	e := c.entries[key]
	if e == nil || e.fetch == nil {
		c.mu.Unlock()
		return
	}
	fn := e.fetch
	opts := e.opts
	c.mu.Unlock()

	_, err, _ := c.group.Do(key, func() (any, error) {
		return c.fetchAndStore(context.Background(), key, opts, fn)
	})
	if err != nil {
		c.logger.Warn("cache revalidation failed", "key", key, "error", err)
	}
}

// Invalidate marks every entry sharing any of the given tags as stale.
// Entries with active subscribers are refetched eagerly; the rest refetch on
// next access.
func (c *Cache) Invalidate(tags ...Tag) {
	if len(tags) == 0 {
		return
	}

	c.mu.Lock()
	var eager []string
	for key, e := range c.entries {
		if !e.hasValue || !matchesAny(e.tags, tags) {
			continue
		}
		e.stale = true
		if c.metrics != nil {
			c.metrics.Invalidations.Inc()
		}
		if e.subscribers > 0 && e.fetch != nil {
			eager = append(eager, key)
		}
	}
	c.mu.Unlock()

	for _, key := range eager {
		go c.refetch(key)
	}
}

// Subscribe registers an active consumer of key, keeping the entry resident.
// Subscribing before the first fetch is allowed.
func (c *Cache) Subscribe(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key]
	if e == nil {
		e = &entry{}
		c.entries[key] = e
	}
	e.subscribers++
	if e.evictTimer != nil {
		e.evictTimer.Stop()
		e.evictTimer = nil
	}
}

// Unsubscribe drops one consumer of key. When the last one leaves, the entry
// is evicted after its retention window (immediately by default).
func (c *Cache) Unsubscribe(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key]
	if e == nil {
		return
	}
	e.subscribers--
	if e.subscribers > 0 {
		return
	}
	e.subscribers = 0

	if e.opts.KeepUnused <= 0 {
		c.removeLocked(key)
		return
	}
	e.evictTimer = c.clock.AfterFunc(e.opts.KeepUnused, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if cur := c.entries[key]; cur != nil && cur.subscribers == 0 {
			c.removeLocked(key)
		}
	})
}

func (c *Cache) removeLocked(key string) {
	if e := c.entries[key]; e != nil && e.evictTimer != nil {
		e.evictTimer.Stop()
	}
	delete(c.entries, key)
	if c.metrics != nil {
		c.metrics.Evictions.Inc()
	}
}

// Peek returns the cached payload without triggering a fetch. The second
// result reports whether a non-stale payload was present.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key]
	if e == nil || !e.hasValue || e.stale {
		return nil, false
	}
	return e.value, true
}

// Len reports the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry and cancels pending eviction timers. Called on
// logout so no data outlives the session that fetched it.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.evictTimer != nil {
			e.evictTimer.Stop()
		}
	}
	c.entries = make(map[string]*entry)
}
