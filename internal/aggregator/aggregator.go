// Package aggregator fans a topic out to every registered source and merges
// the results into one deduplicated list.
package aggregator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RobinCoderZhao/newspulse/internal/metrics"
	"github.com/RobinCoderZhao/newspulse/internal/news"
	"github.com/RobinCoderZhao/newspulse/internal/sources"
)

// ErrEmptyTopic is returned when a caller asks for an aggregate without a topic.
var ErrEmptyTopic = errors.New("topic is required")

// Aggregator merges the output of several sources.
type Aggregator struct {
	sources       []sources.Source
	sourceTimeout time.Duration
	logger        *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSourceTimeout bounds each source call. Zero disables the extra bound.
func WithSourceTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.sourceTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// New creates an aggregator over srcs. Registration order is the dedup
// priority: earlier sources win ties on title.
func New(srcs []sources.Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources:       srcs,
		sourceTimeout: sources.DefaultTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sources returns the registered sources in priority order.
func (a *Aggregator) Sources() []sources.Source {
	return a.sources
}

// Aggregate fetches topic from all sources concurrently and returns the
// deduplicated items in first-seen order.
func (a *Aggregator) Aggregate(ctx context.Context, topic string) []news.Item {
	start := time.Now()
	results := make([][]news.Item, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			sctx := gctx
			if a.sourceTimeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(gctx, a.sourceTimeout)
				defer cancel()
			}
			results[i] = src.Fetch(sctx, topic)
			return nil
		})
	}
	_ = g.Wait() // sources never return errors

	var total int
	for _, r := range results {
		total += len(r)
	}
	merged := make([]news.Item, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}

	unique := Dedup(merged)
	metrics.AddDuplicatesDropped(len(merged) - len(unique))
	a.logger.Info("aggregated news",
		"topic", topic,
		"sources", len(a.sources),
		"fetched", len(merged),
		"unique", len(unique),
		"duration", time.Since(start),
	)
	return unique
}

// AggregateTopic is Aggregate with input validation for request handlers.
func (a *Aggregator) AggregateTopic(ctx context.Context, topic string) ([]news.Item, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	return a.Aggregate(ctx, topic), nil
}

// Dedup drops every item whose non-empty title was already seen. The
// comparison is exact and case-sensitive; items without a title are kept.
func Dedup(items []news.Item) []news.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]news.Item, 0, len(items))
	for _, it := range items {
		if it.Title != "" {
			if _, dup := seen[it.Title]; dup {
				continue
			}
			seen[it.Title] = struct{}{}
		}
		out = append(out, it)
	}
	return out
}
