package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/RobinCoderZhao/newspulse/internal/news"
)

// GoogleNews searches the Google News RSS endpoint.
type GoogleNews struct {
	baseURL string
	limit   int
	parser  *gofeed.Parser
	logger  *slog.Logger
}

// NewGoogleNews creates a Google News RSS source scoped to the Indian English edition.
func NewGoogleNews() *GoogleNews {
	parser := gofeed.NewParser()
	parser.Client = newHTTPClient()
	parser.UserAgent = userAgent
	return &GoogleNews{
		baseURL: "https://news.google.com/rss/search",
		limit:   DefaultLimit,
		parser:  parser,
		logger:  slog.Default(),
	}
}

func (g *GoogleNews) Name() string { return "Google News" }

// Fetch parses the search feed for topic and maps the first entries.
func (g *GoogleNews) Fetch(ctx context.Context, topic string) []news.Item {
	return guard(ctx, g.logger, g.Name(), func(ctx context.Context) ([]news.Item, error) {
		feedURL := fmt.Sprintf("%s?q=%s&hl=en-IN&gl=IN&ceid=IN:en", g.baseURL, url.QueryEscape(topic))

		feed, err := g.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			return nil, fmt.Errorf("parse feed: %w", err)
		}

		entries := feed.Items
		if g.limit > 0 && len(entries) > g.limit {
			entries = entries[:g.limit]
		}

		items := make([]news.Item, 0, len(entries))
		for _, e := range entries {
			if e == nil {
				continue
			}
			items = append(items, news.Item{
				Title:       e.Title,
				Description: plainText(e.Description),
				URL:         e.Link,
				PublishedAt: e.Published,
				SourceName:  g.Name(),
			})
		}
		return items, nil
	})
}
