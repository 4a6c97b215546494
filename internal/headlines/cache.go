// Package headlines serves the query-less "top headlines" request from a
// single time-windowed slot and passes search queries straight through.
package headlines

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/RobinCoderZhao/newspulse/internal/metrics"
	"github.com/RobinCoderZhao/newspulse/internal/news"
)

const (
	// DefaultTTL is how long a top-headlines fetch stays fresh.
	DefaultTTL = 30 * time.Minute
	// DefaultLimit caps search results returned through the cache.
	DefaultLimit = 10
)

// Fetcher is the primary news source behind the cache. An empty query
// means top headlines.
type Fetcher interface {
	Headlines(ctx context.Context, query string) ([]news.Item, error)
}

// Cache is a single-slot cache for top headlines.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	limit   int
	now     func() time.Time
	logger  *slog.Logger

	mu        sync.Mutex
	items     []news.Item
	fetchedAt time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the freshness window.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) { c.ttl = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New creates an empty cache in front of fetcher.
func New(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		ttl:     DefaultTTL,
		limit:   DefaultLimit,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrFetch returns news for query. A non-empty query always performs a
// live search and leaves the cache alone. An empty query is served from the
// slot while it is fresh and refreshed otherwise.
//
// Fetch failures never surface as errors: the caller receives a single
// "Error" item instead. A failed refresh also resets the slot to an empty,
// freshly stamped list.
func (c *Cache) GetOrFetch(ctx context.Context, query string) []news.Item {
	query = strings.TrimSpace(query)
	if query != "" {
		metrics.ObserveHeadlines("bypass")
		items, err := c.fetcher.Headlines(ctx, query)
		if err != nil {
			c.logger.Warn("headline search failed", "query", query, "error", err)
			metrics.ObserveHeadlines("error")
			return []news.Item{news.ErrorItem(err)}
		}
		if len(items) > c.limit {
			items = items[:c.limit]
		}
		return items
	}

	// held across the refresh so concurrent callers wait for one fetch
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UTC()
	if !c.fetchedAt.IsZero() && now.Sub(c.fetchedAt) < c.ttl {
		metrics.ObserveHeadlines("hit")
		c.logger.Debug("serving cached top headlines", "age", now.Sub(c.fetchedAt))
		return c.snapshot()
	}

	metrics.ObserveHeadlines("miss")
	items, err := c.fetcher.Headlines(ctx, "")
	c.fetchedAt = now
	if err != nil {
		// TODO: keep the last good headlines on transient failures instead
		// of resetting the slot for a whole window.
		c.items = []news.Item{}
		c.logger.Warn("top headlines fetch failed, cache reset", "error", err)
		metrics.ObserveHeadlines("error")
		return []news.Item{news.ErrorItem(err)}
	}
	if items == nil {
		items = []news.Item{}
	}
	c.items = items
	return c.snapshot()
}

// FetchedAt reports when the slot was last written.
func (c *Cache) FetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchedAt
}

// Invalidate marks the slot stale so the next query-less call refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
	c.items = nil
}

func (c *Cache) snapshot() []news.Item {
	out := make([]news.Item, len(c.items))
	copy(out, c.items)
	return out
}
