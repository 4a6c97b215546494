// Package news defines the canonical records shared by every source adapter,
// the aggregator and the timeline synthesizer.
package news

// Placeholder values used when an upstream record is missing a field.
const (
	PlaceholderTitle       = "No Title"
	PlaceholderDescription = "No description available"
	PlaceholderURL         = "#"
	PlaceholderImage       = "https://via.placeholder.com/150"
	PlaceholderPublishedAt = "Unknown Date"
)

// Item is a single normalized news record.
type Item struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"image,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	SourceName  string `json:"source_name"`
}

// WithPlaceholders returns a copy of the item with every empty display field
// replaced by its placeholder.
func (it Item) WithPlaceholders() Item {
	if it.Title == "" {
		it.Title = PlaceholderTitle
	}
	if it.Description == "" {
		it.Description = PlaceholderDescription
	}
	if it.URL == "" {
		it.URL = PlaceholderURL
	}
	if it.Image == "" {
		it.Image = PlaceholderImage
	}
	if it.PublishedAt == "" {
		it.PublishedAt = PlaceholderPublishedAt
	}
	return it
}

// ErrorItem builds the synthetic item returned in place of results when a
// live fetch fails.
func ErrorItem(err error) Item {
	return Item{
		Title:       "Error",
		Description: "Failed to fetch news: " + err.Error(),
		URL:         PlaceholderURL,
	}
}

// SourceRef names where a timeline event came from.
type SourceRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TimelineEvent is one dated entry of a topic timeline.
type TimelineEvent struct {
	Date    string      `json:"date"` // YYYY-MM-DD, best effort
	Summary string      `json:"summary"`
	Sources []SourceRef `json:"sources"`
}
