// Package timeline turns a set of news items into a dated timeline, using a
// chat-completion backend when it cooperates and a deterministic builder
// when it does not.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/RobinCoderZhao/newspulse/internal/metrics"
	"github.com/RobinCoderZhao/newspulse/internal/news"
	"github.com/RobinCoderZhao/newspulse/pkg/llm"
)

// ErrEmptyTopic is returned when Synthesize is called without a topic.
var ErrEmptyTopic = errors.New("topic is required")

// FallbackMessage is shown to users when the simplified timeline was used.
const FallbackMessage = "Using simplified timeline"

// Kind tags how a Result was produced.
type Kind string

const (
	KindParsed   Kind = "parsed"
	KindFallback Kind = "fallback"
)

// Result is a synthesized timeline.
type Result struct {
	Events []news.TimelineEvent `json:"timeline"`
	Kind   Kind                 `json:"kind"`
	// Reason explains a fallback; empty for parsed results.
	Reason string `json:"-"`
}

// Fallback reports whether the deterministic builder produced the result.
func (r Result) Fallback() bool { return r.Kind == KindFallback }

// Synthesizer builds timelines.
type Synthesizer struct {
	client   llm.Client
	opts     llm.Options
	maxItems int
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithModel overrides the backend model for timeline calls.
func WithModel(model string) Option {
	return func(s *Synthesizer) { s.opts.Model = model }
}

// WithClock replaces time.Now for the fallback's default date.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synthesizer) { s.logger = l }
}

// New creates a Synthesizer. A nil client is allowed; every timeline is
// then built by the fallback.
func New(client llm.Client, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		client: client,
		opts: llm.Options{
			Temperature: 0.3,
			MaxTokens:   1500,
		},
		maxItems: 50,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize orders items into a timeline for topic. Backend failures and
// malformed output are recovered with the fallback builder; the only error
// returned is ErrEmptyTopic.
func (s *Synthesizer) Synthesize(ctx context.Context, topic string, items []news.Item) (Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Result{}, ErrEmptyTopic
	}
	if len(items) == 0 {
		return Result{Events: []news.TimelineEvent{}, Kind: KindParsed}, nil
	}

	res := s.synthesize(ctx, topic, items)
	metrics.ObserveTimeline(string(res.Kind))
	if res.Fallback() {
		s.logger.Warn("timeline fallback used", "topic", topic, "reason", res.Reason, "events", len(res.Events))
	} else {
		s.logger.Info("timeline synthesized", "topic", topic, "events", len(res.Events))
	}
	return res, nil
}

func (s *Synthesizer) synthesize(ctx context.Context, topic string, items []news.Item) Result {
	if s.client == nil {
		return s.fallback(items, "backend not configured")
	}

	raw, err := llm.Complete(ctx, s.client, systemPrompt, userPrompt(topic, items, s.maxItems), s.opts)
	if err != nil {
		return s.fallback(items, fmt.Sprintf("backend: %v", err))
	}

	events, err := parseEvents(raw)
	if err != nil {
		return s.fallback(items, err.Error())
	}
	return Result{Events: events, Kind: KindParsed}
}

func (s *Synthesizer) fallback(items []news.Item, reason string) Result {
	return Result{
		Events: BuildFallback(items, s.now()),
		Kind:   KindFallback,
		Reason: reason,
	}
}

const systemPrompt = `You are a news analyst who builds chronological timelines of events.

From the news articles provided, identify the distinct events related to the topic and
return them as a JSON array. Each element must have exactly this shape:

{"date": "YYYY-MM-DD", "summary": "one or two sentences", "sources": [{"name": "source name", "url": "article url"}]}

Rules:
- Use the YYYY-MM-DD format for every date. If an article has no clear event date,
  make your best guess from its publish time.
- Merge articles that report the same event into one element with several sources.
- Order the array from the most recent event to the oldest.
- Respond with the JSON array only, without commentary or code fences.`

func userPrompt(topic string, items []news.Item, max int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n\nNews articles:\n", topic)
	for i, it := range items {
		if max > 0 && i >= max {
			break
		}
		fmt.Fprintf(&sb, "\n---\nTitle: %s\nDescription: %s\nPublished: %s\nURL: %s\n",
			it.Title, it.Description, it.PublishedAt, it.URL)
	}
	return sb.String()
}
