package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/RobinCoderZhao/newspulse/internal/news"
)

// HackerNews fetches top stories from the Hacker News API. The topic is ignored.
type HackerNews struct {
	baseURL       string
	maxItems      int
	concurrency   int
	detailTimeout time.Duration
	client        *http.Client
	logger        *slog.Logger
}

// NewHackerNews creates a new HN source.
func NewHackerNews(maxItems int) *HackerNews {
	if maxItems <= 0 {
		maxItems = DefaultLimit
	}
	return &HackerNews{
		baseURL:       "https://hacker-news.firebaseio.com/v0",
		maxItems:      maxItems,
		concurrency:   5,
		detailTimeout: DefaultTimeout,
		client:        newHTTPClient(),
		logger:        slog.Default(),
	}
}

func (h *HackerNews) Name() string { return "Hacker News" }

type hnStory struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Time  int64  `json:"time"`
	Type  string `json:"type"`
}

// Fetch lists the top story IDs and then looks up the first maxItems
// concurrently. A failed lookup drops that story only; only a failed
// listing empties the result.
func (h *HackerNews) Fetch(ctx context.Context, _ string) []news.Item {
	return guard(ctx, h.logger, h.Name(), func(ctx context.Context) ([]news.Item, error) {
		ids, err := h.fetchTopStoryIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch top stories: %w", err)
		}
		if len(ids) > h.maxItems {
			ids = ids[:h.maxItems]
		}

		// one slot per id keeps listing order
		stories := make([]*hnStory, len(ids))
		sem := make(chan struct{}, h.concurrency)
		var wg sync.WaitGroup
		for i, id := range ids {
			wg.Add(1)
			go func(i, storyID int) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				story, err := h.fetchStory(ctx, storyID)
				if err != nil {
					h.logger.Debug("hacker news story skipped", "id", storyID, "error", err)
					return
				}
				stories[i] = story
			}(i, id)
		}
		wg.Wait()

		items := make([]news.Item, 0, len(stories))
		for _, s := range stories {
			if s == nil || s.Title == "" {
				continue
			}
			items = append(items, news.Item{
				Title:       s.Title,
				URL:         s.URL,
				PublishedAt: publishedFromUnix(s.Time),
				SourceName:  h.Name(),
			})
		}
		return items, nil
	})
}

func (h *HackerNews) fetchTopStoryIDs(ctx context.Context) ([]int, error) {
	body, err := getBody(ctx, h.client, h.baseURL+"/topstories.json")
	if err != nil {
		return nil, err
	}
	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("decode story ids: %w", err)
	}
	return ids, nil
}

func (h *HackerNews) fetchStory(ctx context.Context, id int) (*hnStory, error) {
	ctx, cancel := context.WithTimeout(ctx, h.detailTimeout)
	defer cancel()

	body, err := getBody(ctx, h.client, fmt.Sprintf("%s/item/%d.json", h.baseURL, id))
	if err != nil {
		return nil, err
	}
	// deleted items come back as the literal "null"
	var story *hnStory
	if err := json.Unmarshal(body, &story); err != nil {
		return nil, fmt.Errorf("decode story %d: %w", id, err)
	}
	if story == nil {
		return nil, fmt.Errorf("story %d not found", id)
	}
	return story, nil
}

func publishedFromUnix(sec int64) string {
	if sec <= 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
