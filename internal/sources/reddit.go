package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/RobinCoderZhao/newspulse/internal/news"
)

// Reddit reads the top listing of r/worldnews. The topic is ignored.
type Reddit struct {
	listingURL string
	limit      int
	client     *http.Client
	logger     *slog.Logger
}

// NewReddit creates the r/worldnews source.
func NewReddit() *Reddit {
	return &Reddit{
		listingURL: fmt.Sprintf("https://www.reddit.com/r/worldnews/top/.json?limit=%d", DefaultLimit),
		limit:      DefaultLimit,
		client:     newHTTPClient(),
		logger:     slog.Default(),
	}
}

func (r *Reddit) Name() string { return "Reddit - r/worldnews" }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title string `json:"title"`
				URL   string `json:"url"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *Reddit) Fetch(ctx context.Context, _ string) []news.Item {
	return guard(ctx, r.logger, r.Name(), func(ctx context.Context) ([]news.Item, error) {
		body, err := getBody(ctx, r.client, r.listingURL)
		if err != nil {
			return nil, err
		}

		var listing redditListing
		if err := json.Unmarshal(body, &listing); err != nil {
			return nil, fmt.Errorf("decode listing: %w", err)
		}

		items := make([]news.Item, 0, len(listing.Data.Children))
		for _, child := range listing.Data.Children {
			items = append(items, news.Item{
				Title:      child.Data.Title,
				URL:        child.Data.URL,
				SourceName: r.Name(),
			})
		}
		return truncate(items, r.limit), nil
	})
}
