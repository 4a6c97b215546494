package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/RobinCoderZhao/newspulse/internal/news"
)

// ErrMissingAPIKey is returned by GNews.Headlines when no key is configured.
var ErrMissingAPIKey = errors.New("gnews: API key not configured")

// GNews queries the gnews.io structured news API. It is both an aggregate
// source and the primary fetcher behind the top-headlines cache.
type GNews struct {
	apiKey  string
	baseURL string
	limit   int
	client  *http.Client
	logger  *slog.Logger
}

// NewGNews creates a GNews source. An empty apiKey is allowed; every fetch
// then degrades to an empty result.
func NewGNews(apiKey string) *GNews {
	return &GNews{
		apiKey:  apiKey,
		baseURL: "https://gnews.io/api/v4",
		limit:   DefaultLimit,
		client:  newHTTPClient(),
		logger:  slog.Default(),
	}
}

func (g *GNews) Name() string { return "GNews" }

type gnewsResponse struct {
	TotalArticles int            `json:"totalArticles"`
	Articles      []gnewsArticle `json:"articles"`
}

type gnewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"source"`
}

// Fetch searches GNews for topic.
func (g *GNews) Fetch(ctx context.Context, topic string) []news.Item {
	if g.apiKey == "" {
		g.logger.Warn("skipping source, API key missing", "source", g.Name())
		return []news.Item{}
	}
	return guard(ctx, g.logger, g.Name(), func(ctx context.Context) ([]news.Item, error) {
		articles, err := g.request(ctx, "search", url.Values{
			"q":    {topic},
			"lang": {"en"},
		})
		if err != nil {
			return nil, err
		}
		items := make([]news.Item, 0, len(articles))
		for _, a := range articles {
			items = append(items, g.toItem(a))
		}
		return items, nil
	})
}

// Headlines is the error-reporting fetch used by the top-headlines cache:
// top headlines when query is empty, a search otherwise. Results are capped
// at the source limit and carry placeholders for missing fields.
func (g *GNews) Headlines(ctx context.Context, query string) ([]news.Item, error) {
	if g.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	endpoint := "top-headlines"
	params := url.Values{
		"lang":    {"en"},
		"country": {"in"},
		"sortby":  {"publishedAt"},
	}
	if query != "" {
		endpoint = "search"
		params.Set("q", query)
	}

	articles, err := g.request(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	if len(articles) > g.limit {
		articles = articles[:g.limit]
	}

	items := make([]news.Item, 0, len(articles))
	for _, a := range articles {
		items = append(items, g.toItem(a).WithPlaceholders())
	}
	return items, nil
}

func (g *GNews) request(ctx context.Context, endpoint string, params url.Values) ([]gnewsArticle, error) {
	params.Set("token", g.apiKey)
	u := fmt.Sprintf("%s/%s?%s", g.baseURL, endpoint, params.Encode())

	body, err := getBody(ctx, g.client, u)
	if err != nil {
		return nil, fmt.Errorf("gnews %s: %w", endpoint, err)
	}

	var resp gnewsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode gnews %s: %w", endpoint, err)
	}
	return resp.Articles, nil
}

func (g *GNews) toItem(a gnewsArticle) news.Item {
	source := a.Source.Name
	if source == "" {
		source = g.Name()
	}
	return news.Item{
		Title:       a.Title,
		Description: a.Description,
		URL:         a.URL,
		Image:       a.Image,
		PublishedAt: a.PublishedAt,
		SourceName:  source,
	}
}
