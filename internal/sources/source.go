// Package sources implements the upstream adapters that turn each news
// provider's native response into canonical news items.
//
// Every adapter swallows its own failures: a source that is down, slow or
// returns garbage contributes an empty slice and a WARN log line, never an
// error, so the aggregator can treat all sources uniformly.
package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/RobinCoderZhao/newspulse/internal/metrics"
	"github.com/RobinCoderZhao/newspulse/internal/news"
)

const (
	// DefaultTimeout bounds a single upstream request.
	DefaultTimeout = 10 * time.Second
	// DefaultLimit is the top-N applied by the list-style sources.
	DefaultLimit = 10

	userAgent   = "NewsPulse/1.0"
	maxBodySize = 8 << 20
)

// Source is the interface all news adapters implement.
type Source interface {
	// Name returns the human-readable label stamped on every item.
	Name() string

	// Fetch returns the source's items for topic. Sources that do not
	// support search ignore topic. Fetch never fails; errors degrade to
	// an empty slice.
	Fetch(ctx context.Context, topic string) []news.Item
}

// Defaults returns the five built-in sources in dedup priority order.
func Defaults(gnewsKey string) []Source {
	return []Source{
		NewGNews(gnewsKey),
		NewGoogleNews(),
		NewReddit(),
		NewHackerNews(DefaultLimit),
		NewWikipedia(),
	}
}

// guard runs fn, records metrics and neutralizes any error.
func guard(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) ([]news.Item, error)) []news.Item {
	start := time.Now()
	items, err := fn(ctx)
	metrics.ObserveSourceFetch(name, len(items), time.Since(start), err)
	if err != nil {
		logger.Warn("source fetch failed", "source", name, "error", err)
		return []news.Item{}
	}
	if items == nil {
		items = []news.Item{}
	}
	logger.Debug("source fetched", "source", name, "items", len(items), "duration", time.Since(start))
	return items
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// getBody performs a GET and returns the body of a 2xx response.
func getBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return body, nil
}

func truncate(items []news.Item, n int) []news.Item {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
