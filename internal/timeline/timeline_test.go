package timeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/RobinCoderZhao/newspulse/internal/news"
	"github.com/RobinCoderZhao/newspulse/pkg/llm"
)

type mockLLM struct {
	content string
	err     error
	calls   int
	last    *llm.Request
}

func (m *mockLLM) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	m.calls++
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{Content: m.content}, nil
}
func (m *mockLLM) Provider() llm.Provider { return "mock" }
func (m *mockLLM) Close() error           { return nil }

var fixedNow = time.Date(2024, 3, 9, 22, 30, 0, 0, time.FixedZone("X", -5*3600))

func sampleItems() []news.Item {
	return []news.Item{
		{Title: "Old story", URL: "https://a/1", PublishedAt: "Published on 2023-07-04 by Reuters"},
		{Title: "", URL: "https://a/2", PublishedAt: "Unknown Date"},
		{Title: "New story", URL: "https://a/3", PublishedAt: "2024-01-15T08:00:00Z"},
	}
}

func TestSynthesize_EmptyTopic(t *testing.T) {
	m := &mockLLM{content: "[]"}
	s := New(m)
	if _, err := s.Synthesize(context.Background(), "  ", sampleItems()); !errors.Is(err, ErrEmptyTopic) {
		t.Fatalf("expected ErrEmptyTopic, got %v", err)
	}
	if m.calls != 0 {
		t.Fatalf("backend should not be called, got %d calls", m.calls)
	}
}

func TestSynthesize_NoItemsSkipsBackend(t *testing.T) {
	m := &mockLLM{content: "[]"}
	res, err := New(m).Synthesize(context.Background(), "cricket", nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.calls != 0 {
		t.Fatalf("backend should not be called, got %d calls", m.calls)
	}
	if res.Events == nil || len(res.Events) != 0 {
		t.Fatalf("expected empty non-nil events, got %#v", res.Events)
	}
}

func TestSynthesize_ParsesWrappedArray(t *testing.T) {
	m := &mockLLM{content: `Here you go: [{"date":"2024-01-01","summary":"S","sources":[{"name":"N","url":"U"}]}] thanks`}
	res, err := New(m).Synthesize(context.Background(), "cricket", sampleItems())
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != KindParsed || res.Fallback() {
		t.Fatalf("expected parsed result, got %s (%s)", res.Kind, res.Reason)
	}
	want := news.TimelineEvent{Date: "2024-01-01", Summary: "S", Sources: []news.SourceRef{{Name: "N", URL: "U"}}}
	if len(res.Events) != 1 || res.Events[0].Date != want.Date || res.Events[0].Summary != want.Summary ||
		len(res.Events[0].Sources) != 1 || res.Events[0].Sources[0] != want.Sources[0] {
		t.Fatalf("unexpected events: %+v", res.Events)
	}
}

func TestSynthesize_RequestShape(t *testing.T) {
	m := &mockLLM{content: "[]"}
	if _, err := New(m, WithModel("mixtral-8x7b-32768")).Synthesize(context.Background(), "cricket", sampleItems()); err != nil {
		t.Fatal(err)
	}
	req := m.last
	if req.Temperature != 0.3 || req.MaxTokens != 1500 || req.Model != "mixtral-8x7b-32768" {
		t.Fatalf("unexpected knobs: %+v", req)
	}
	if !strings.Contains(req.System, "JSON array") {
		t.Fatalf("system prompt should describe the output contract: %q", req.System)
	}
	user := req.Messages[0].Content
	for _, want := range []string{"Topic: cricket", "Title: Old story", "URL: https://a/3", "Published: Unknown Date"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
}

func TestSynthesize_FallbackOnProse(t *testing.T) {
	m := &mockLLM{content: "Sorry, I cannot help with that."}
	res, err := New(m, WithClock(func() time.Time { return fixedNow })).Synthesize(context.Background(), "cricket", sampleItems())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Fallback() {
		t.Fatalf("expected fallback, got %s", res.Kind)
	}
	if len(res.Events) != 3 {
		t.Fatalf("expected one event per item, got %d", len(res.Events))
	}
	// fixedNow is 2024-03-10 in UTC
	dates := []string{res.Events[0].Date, res.Events[1].Date, res.Events[2].Date}
	want := []string{"2024-03-10", "2024-01-15", "2023-07-04"}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("dates = %v, want %v", dates, want)
		}
	}
	if res.Events[0].Summary != "No summary" {
		t.Fatalf("expected placeholder summary, got %q", res.Events[0].Summary)
	}
	for _, ev := range res.Events {
		if len(ev.Sources) != 1 || ev.Sources[0].Name != "News Source" {
			t.Fatalf("unexpected fallback sources: %+v", ev.Sources)
		}
	}
}

func TestSynthesize_FallbackOnBackendError(t *testing.T) {
	m := &mockLLM{err: errors.New("503 over capacity")}
	res, err := New(m).Synthesize(context.Background(), "cricket", sampleItems())
	if err != nil {
		t.Fatalf("backend errors should be recovered, got %v", err)
	}
	if !res.Fallback() || !strings.Contains(res.Reason, "over capacity") {
		t.Fatalf("expected fallback with reason, got %+v", res)
	}
}

func TestSynthesize_NilClient(t *testing.T) {
	res, err := New(nil).Synthesize(context.Background(), "cricket", sampleItems())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Fallback() || len(res.Events) != 3 {
		t.Fatalf("expected fallback timeline, got %+v", res)
	}
}

func TestParseEvents(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		wantLen int
	}{
		{"bare array", `[{"date":"2024-01-01","summary":"a","sources":[]}]`, false, 1},
		{"fenced", "```json\n[{\"date\":\"2024-01-01\",\"summary\":\"a\"}]\n```", false, 1},
		{"empty array", "[]", false, 0},
		{"object", `{"date":"2024-01-01"}`, true, 0},
		{"prose", "no timeline today", true, 0},
		{"broken brackets", "see [1, 2", true, 0},
		{"array of numbers", "[1, 2, 3]", true, 0},
		{"reversed brackets", "] then [", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := parseEvents(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if len(events) != tt.wantLen {
					t.Fatalf("got %d events, want %d", len(events), tt.wantLen)
				}
				for _, ev := range events {
					if ev.Sources == nil {
						t.Fatal("sources should never be nil")
					}
				}
			}
		})
	}
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Published on 2023-07-04 by Reuters", "2023-07-04"},
		{"2024-01-15T08:00:00Z", "2024-01-15"},
		{"Unknown Date", "2024-03-10"},
		{"", "2024-03-10"},
		{"Mon, 15 Jan 2024 08:00:00 GMT", "2024-03-10"},
	}
	for _, tt := range tests {
		if got := ExtractDate(tt.in, fixedNow); got != tt.want {
			t.Errorf("ExtractDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildFallback_StableForEqualDates(t *testing.T) {
	items := []news.Item{
		{Title: "first", PublishedAt: "2024-01-01"},
		{Title: "second", PublishedAt: "2024-01-01"},
		{Title: "newer", PublishedAt: "2024-02-01"},
	}
	events := BuildFallback(items, fixedNow)
	got := []string{events[0].Summary, events[1].Summary, events[2].Summary}
	want := []string{"newer", "first", "second"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
