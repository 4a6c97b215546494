package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/RobinCoderZhao/newspulse/internal/news"
)

// Wikipedia reads the "on this day" events feed for the current UTC date.
// The topic is ignored.
type Wikipedia struct {
	baseURL string
	now     func() time.Time
	client  *http.Client
	logger  *slog.Logger
}

// NewWikipedia creates the on-this-day source.
func NewWikipedia() *Wikipedia {
	return &Wikipedia{
		baseURL: "https://en.wikipedia.org/api/rest_v1/feed/onthisday/events",
		now:     time.Now,
		client:  newHTTPClient(),
		logger:  slog.Default(),
	}
}

func (w *Wikipedia) Name() string { return "Wikipedia - On This Day" }

type onThisDay struct {
	Events []struct {
		Text  string `json:"text"`
		Pages []struct {
			ContentURLs struct {
				Desktop struct {
					Page string `json:"page"`
				} `json:"desktop"`
			} `json:"content_urls"`
		} `json:"pages"`
	} `json:"events"`
}

func (w *Wikipedia) Fetch(ctx context.Context, _ string) []news.Item {
	return guard(ctx, w.logger, w.Name(), func(ctx context.Context) ([]news.Item, error) {
		u := fmt.Sprintf("%s/%s", w.baseURL, w.now().UTC().Format("01/02"))
		body, err := getBody(ctx, w.client, u)
		if err != nil {
			return nil, err
		}

		var feed onThisDay
		if err := json.Unmarshal(body, &feed); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}

		items := make([]news.Item, 0, len(feed.Events))
		for _, e := range feed.Events {
			var link string
			if len(e.Pages) > 0 {
				link = e.Pages[0].ContentURLs.Desktop.Page
			}
			items = append(items, news.Item{
				Title:      e.Text,
				URL:        link,
				SourceName: w.Name(),
			})
		}
		return items, nil
	})
}
