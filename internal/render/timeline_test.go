package render

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RobinCoderZhao/newspulse/internal/news"
)

func sampleEvents(n int) []news.TimelineEvent {
	events := make([]news.TimelineEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, news.TimelineEvent{
			Date:    "2024-01-0" + string(rune('1'+i)),
			Summary: strings.Repeat("Something happened in the match today. ", 6),
			Sources: []news.SourceRef{{Name: "Reuters", URL: "https://x"}, {Name: "News Source", URL: "https://y"}},
		})
	}
	return events
}

func TestRender_GrowsWithEvents(t *testing.T) {
	r := NewTimelineRenderer()
	one := r.Render("cricket", sampleEvents(1)).Bounds()
	three := r.Render("cricket", sampleEvents(3)).Bounds()

	if one.Dx() != 1200 || three.Dx() != 1200 {
		t.Fatalf("unexpected widths %d %d", one.Dx(), three.Dx())
	}
	if three.Dy() <= one.Dy() {
		t.Fatalf("more events should make a taller card: %d vs %d", three.Dy(), one.Dy())
	}
}

func TestRender_Empty(t *testing.T) {
	b := NewTimelineRenderer().Render("nothing", nil).Bounds()
	if b.Dy() <= 0 {
		t.Fatal("empty timeline should still render a card")
	}
}

func TestRenderTimelinePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.png")
	if err := RenderTimelinePNG("cricket", sampleEvents(2), path); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if cfg.Width != 1200 {
		t.Fatalf("unexpected width %d", cfg.Width)
	}
}

func TestSourceLine(t *testing.T) {
	r := NewTimelineRenderer()
	r.MaxSourceLen = 10
	got := r.sourceLine([]news.SourceRef{{Name: "Reuters"}, {Name: ""}, {Name: "BBC News"}})
	if got != "Reuters · …" {
		t.Fatalf("unexpected source line %q", got)
	}
}
