package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/RobinCoderZhao/newspulse/internal/news"
	"github.com/RobinCoderZhao/newspulse/pkg/llm"
)

type stubHeadlines struct {
	items   []news.Item
	queries []string
}

func (s *stubHeadlines) GetOrFetch(ctx context.Context, query string) []news.Item {
	s.queries = append(s.queries, query)
	return s.items
}

type stubLLM struct {
	reply string
	err   error
	req   *llm.Request
}

func (s *stubLLM) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Content: s.reply}, nil
}
func (s *stubLLM) Provider() llm.Provider { return "stub" }
func (s *stubLLM) Close() error           { return nil }

type recordingChats struct {
	saved []string
	err   error
}

func (r *recordingChats) SaveChat(ctx context.Context, sessionID, email, question, answer string) error {
	r.saved = append(r.saved, sessionID+"|"+email+"|"+question+"|"+answer)
	return r.err
}

var cricketItems = []news.Item{
	{Title: "India win", PublishedAt: "2024-01-01", URL: "https://x/1", Description: "d1"},
	{Title: "Rain delay", PublishedAt: "2024-01-02", URL: "https://x/2", Description: "d2"},
}

func TestAsk_EmptyQuestion(t *testing.T) {
	a := New(&stubHeadlines{}, nil)
	if _, err := a.Ask(context.Background(), "", "", "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
}

func TestAsk_Generated(t *testing.T) {
	h := &stubHeadlines{items: cricketItems}
	m := &stubLLM{reply: "  India won the match.  "}
	chats := &recordingChats{}
	a := New(h, m, WithChatLogger(chats))

	ans, err := a.Ask(context.Background(), "sess-1", "a@example.com", "  CRICKET ")
	if err != nil {
		t.Fatal(err)
	}
	if h.queries[0] != "cricket" || ans.Topic != "cricket" {
		t.Fatalf("question should be normalized, got %v", h.queries)
	}
	if !ans.Generated || ans.Response != "India won the match." || ans.SessionID != "sess-1" {
		t.Fatalf("unexpected answer %+v", ans)
	}
	if m.req.Temperature != 0.7 || m.req.MaxTokens != 800 {
		t.Fatalf("unexpected knobs %+v", m.req)
	}
	if !strings.Contains(m.req.Messages[0].Content, "1. India win (2024-01-01)") {
		t.Fatalf("articles missing from prompt: %q", m.req.Messages[0].Content)
	}
	if len(chats.saved) != 1 || chats.saved[0] != "sess-1|a@example.com|  CRICKET |India won the match." {
		t.Fatalf("unexpected chat log %v", chats.saved)
	}
}

func TestAsk_FallbackOnBackendError(t *testing.T) {
	a := New(&stubHeadlines{items: cricketItems}, &stubLLM{err: errors.New("429")})
	ans, err := a.Ask(context.Background(), "", "", "cricket")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Generated {
		t.Fatal("expected fallback answer")
	}
	want := "📰 Latest Cricket News:\n\n🔹 India win\n📅 2024-01-01\n🌐 [Read more](https://x/1)\n\n🔹 Rain delay\n📅 2024-01-02\n🌐 [Read more](https://x/2)"
	if ans.Response != want {
		t.Fatalf("response = %q\nwant %q", ans.Response, want)
	}
	if ans.SessionID == "" {
		t.Fatal("a session id should be generated")
	}
}

func TestAsk_NoNews(t *testing.T) {
	m := &stubLLM{reply: "should not be used"}
	ans, err := New(&stubHeadlines{}, m).Ask(context.Background(), "", "", "curling")
	if err != nil {
		t.Fatal(err)
	}
	if ans.Response != NoNewsResponse || m.req != nil {
		t.Fatalf("expected no-news answer without a backend call, got %+v", ans)
	}
}

func TestAsk_ChatLogFailureIsNotFatal(t *testing.T) {
	a := New(&stubHeadlines{items: cricketItems}, nil, WithChatLogger(&recordingChats{err: errors.New("disk full")}))
	ans, err := a.Ask(context.Background(), "", "", "cricket")
	if err != nil {
		t.Fatalf("chat log errors should not fail Ask: %v", err)
	}
	if !strings.HasPrefix(ans.Response, "📰 Latest Cricket News:") {
		t.Fatalf("unexpected response %q", ans.Response)
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"cricket":      "Cricket",
		"world cup":    "World cup",
		"éLECTIONS":    "Élections",
		"":             "",
		"2024 budget":  "2024 budget",
	}
	for in, want := range tests {
		if got := capitalize(in); got != want {
			t.Errorf("capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if a == b || len(a) != 36 {
		t.Fatalf("unexpected session ids %q %q", a, b)
	}
}
