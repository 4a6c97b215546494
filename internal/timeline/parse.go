package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/RobinCoderZhao/newspulse/internal/news"
)

var (
	errNoJSON   = errors.New("response is not JSON")
	errNotArray = errors.New("response is not a JSON array")
)

// parseEvents validates a raw backend reply against the timeline contract:
// the first '['..last ']' span if there is one, else the whole trimmed
// reply, must decode as a JSON array of event objects.
func parseEvents(raw string) ([]news.TimelineEvent, error) {
	candidate, ok := extractArray(raw)
	if !ok {
		candidate = strings.TrimSpace(raw)
	}

	var value any
	if err := json.Unmarshal([]byte(candidate), &value); err != nil {
		return nil, fmt.Errorf("%w: %v", errNoJSON, err)
	}
	if _, isArray := value.([]any); !isArray {
		return nil, errNotArray
	}

	var events []news.TimelineEvent
	if err := json.Unmarshal([]byte(candidate), &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	for i := range events {
		if events[i].Sources == nil {
			events[i].Sources = []news.SourceRef{}
		}
	}
	if events == nil {
		events = []news.TimelineEvent{}
	}
	return events, nil
}

// extractArray returns the substring from the first '[' to the last ']'.
func extractArray(s string) (string, bool) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

const (
	fallbackSourceName = "News Source"
	fallbackSummary    = "No summary"
)

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ExtractDate finds a YYYY-MM-DD date in a free-form publish string, or
// formats now (UTC) when there is none.
func ExtractDate(publishedAt string, now time.Time) string {
	if d := datePattern.FindString(publishedAt); d != "" {
		return d
	}
	return now.UTC().Format("2006-01-02")
}

// BuildFallback derives one event per item and orders them newest first.
func BuildFallback(items []news.Item, now time.Time) []news.TimelineEvent {
	events := make([]news.TimelineEvent, 0, len(items))
	for _, it := range items {
		summary := it.Title
		if summary == "" {
			summary = fallbackSummary
		}
		events = append(events, news.TimelineEvent{
			Date:    ExtractDate(it.PublishedAt, now),
			Summary: summary,
			Sources: []news.SourceRef{{Name: fallbackSourceName, URL: it.URL}},
		})
	}
	// YYYY-MM-DD compares correctly as a string
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date > events[j].Date
	})
	return events
}
