package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/RobinCoderZhao/newspulse/internal/aggregator"
	"github.com/RobinCoderZhao/newspulse/internal/news"
	"github.com/RobinCoderZhao/newspulse/internal/qa"
	"github.com/RobinCoderZhao/newspulse/internal/store"
	"github.com/RobinCoderZhao/newspulse/internal/timeline"
)

type stubHeadlines struct{ queries []string }

func (s *stubHeadlines) GetOrFetch(ctx context.Context, query string) []news.Item {
	s.queries = append(s.queries, query)
	return []news.Item{{Title: "Top story", URL: "https://x/1", SourceName: "GNews"}}
}

type stubAggregator struct{ items []news.Item }

func (s *stubAggregator) AggregateTopic(ctx context.Context, topic string) ([]news.Item, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, aggregator.ErrEmptyTopic
	}
	return s.items, nil
}

type stubSynth struct{ res timeline.Result }

func (s *stubSynth) Synthesize(ctx context.Context, topic string, items []news.Item) (timeline.Result, error) {
	return s.res, nil
}

type stubAssistant struct{ lastEmail string }

func (s *stubAssistant) Ask(ctx context.Context, sessionID, email, question string) (qa.Answer, error) {
	s.lastEmail = email
	if strings.TrimSpace(question) == "" {
		return qa.Answer{}, qa.ErrEmptyQuestion
	}
	return qa.Answer{SessionID: "sess", Topic: question, Response: "answer"}, nil
}

type fixture struct {
	srv       *httptest.Server
	store     *store.Store
	headlines *stubHeadlines
	agg       *stubAggregator
	synth     *stubSynth
	assistant *stubAssistant
}

func newFixture(t *testing.T, withStore bool) *fixture {
	t.Helper()
	f := &fixture{
		headlines: &stubHeadlines{},
		agg:       &stubAggregator{},
		synth:     &stubSynth{},
		assistant: &stubAssistant{},
	}
	deps := Deps{Headlines: f.headlines, Aggregator: f.agg, Synthesizer: f.synth, Assistant: f.assistant}
	if withStore {
		st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { st.Close() })
		f.store = st
		deps.Store = st
	}
	f.srv = httptest.NewServer(NewServer(deps, "test-secret").Routes())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (f *fixture) register(t *testing.T, email string) string {
	t.Helper()
	resp, body := f.do(t, "POST", "/api/auth/register", "", map[string]string{
		"email": email, "password": "correct-horse", "name": "Reader",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d body %v", resp.StatusCode, body)
	}
	return body["token"].(string)
}

func TestNews_LogsSearches(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "reader@example.com")

	resp, err := http.Get(f.srv.URL + "/api/news")
	if err != nil {
		t.Fatal(err)
	}
	var items []news.Item
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 || items[0].Title != "Top story" {
		t.Fatalf("unexpected items %+v", items)
	}

	f.do(t, "GET", "/api/news?query=%20cricket%20", token, nil)
	if f.headlines.queries[1] != "cricket" {
		t.Fatalf("query should be trimmed, got %q", f.headlines.queries[1])
	}

	logs, err := f.store.SearchHistory(context.Background(), "reader@example.com", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Query != "cricket" {
		t.Fatalf("expected one logged search, got %+v", logs)
	}
}

func TestAggregate_RequiresTopic(t *testing.T) {
	f := newFixture(t, false)
	resp, _ := f.do(t, "GET", "/api/aggregate", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	f.agg.items = []news.Item{{Title: "a"}, {Title: "b"}}
	resp, body := f.do(t, "GET", "/api/aggregate?topic=cricket", "", nil)
	if resp.StatusCode != http.StatusOK || len(body["articles"].([]any)) != 2 {
		t.Fatalf("unexpected response %d %v", resp.StatusCode, body)
	}
}

func TestTimeline(t *testing.T) {
	f := newFixture(t, false)

	resp, _ := f.do(t, "GET", "/api/timeline?topic=", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing topic, got %d", resp.StatusCode)
	}

	resp, body := f.do(t, "GET", "/api/timeline?topic=curling", "", nil)
	if resp.StatusCode != http.StatusOK || body["message"] != NoNewsMessage {
		t.Fatalf("expected no-news message, got %d %v", resp.StatusCode, body)
	}
	if tl, ok := body["timeline"].([]any); !ok || len(tl) != 0 {
		t.Fatalf("expected empty timeline array, got %v", body["timeline"])
	}

	f.agg.items = []news.Item{{Title: "a"}}
	f.synth.res = timeline.Result{
		Events: []news.TimelineEvent{{Date: "2024-01-01", Summary: "a", Sources: []news.SourceRef{}}},
		Kind:   timeline.KindFallback,
	}
	_, body = f.do(t, "GET", "/api/timeline?topic=cricket", "", nil)
	if body["message"] != timeline.FallbackMessage || len(body["timeline"].([]any)) != 1 {
		t.Fatalf("expected fallback message, got %v", body)
	}

	f.synth.res.Kind = timeline.KindParsed
	_, body = f.do(t, "GET", "/api/timeline?topic=cricket", "", nil)
	if _, has := body["message"]; has || body["topic"] != "cricket" {
		t.Fatalf("parsed timeline should carry no message, got %v", body)
	}
}

func TestAsk(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "reader@example.com")

	resp, _ := f.do(t, "POST", "/api/ask", "", map[string]string{"question": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty question, got %d", resp.StatusCode)
	}

	resp, body := f.do(t, "POST", "/api/ask", token, map[string]string{"user_input": "cricket"})
	if resp.StatusCode != http.StatusOK || body["response"] != "answer" {
		t.Fatalf("unexpected answer %d %v", resp.StatusCode, body)
	}
	if f.assistant.lastEmail != "reader@example.com" {
		t.Fatalf("token email should reach the assistant, got %q", f.assistant.lastEmail)
	}
}

func TestAuthFlow(t *testing.T) {
	f := newFixture(t, true)
	f.register(t, "Reader@Example.com")

	resp, _ := f.do(t, "POST", "/api/auth/register", "", map[string]string{"email": "reader@example.com", "password": "correct-horse"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, "POST", "/api/auth/register", "", map[string]string{"email": "x@example.com", "password": "short"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", resp.StatusCode)
	}

	resp, _ = f.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "reader@example.com", "password": "wrong-password"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp, body := f.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "reader@example.com", "password": "correct-horse"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d %v", resp.StatusCode, body)
	}
	token := body["token"].(string)

	resp, body = f.do(t, "GET", "/api/users/me", token, nil)
	if resp.StatusCode != http.StatusOK || body["email"] != "reader@example.com" {
		t.Fatalf("unexpected profile %d %v", resp.StatusCode, body)
	}
	if _, leaked := body["PasswordHash"]; leaked {
		t.Fatal("password hash must not be serialized")
	}

	resp, _ = f.do(t, "GET", "/api/users/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, "GET", "/api/users/me", "not-a-jwt", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", resp.StatusCode)
	}
}

func TestPreferencesAndOnboarding(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "reader@example.com")

	resp, body := f.do(t, "PUT", "/api/preferences", token, map[string]any{"preferences": []string{"cricket", " Cricket ", "", "space"}})
	if resp.StatusCode != http.StatusOK || len(body["preferences"].([]any)) != 2 {
		t.Fatalf("unexpected preferences response %d %v", resp.StatusCode, body)
	}

	resp, _ = f.do(t, "POST", "/api/onboarding", token, map[string]any{"categories": []string{"astrology"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", resp.StatusCode)
	}
	resp, body = f.do(t, "POST", "/api/onboarding", token, map[string]any{"categories": []string{"health"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("onboarding failed: %d %v", resp.StatusCode, body)
	}
	u, _ := f.store.GetUserByEmail(context.Background(), "reader@example.com")
	if len(u.Preferences) != 4 || u.Preferences[0] != "Health" {
		t.Fatalf("unexpected stored preferences %v", u.Preferences)
	}
}

func TestSavedArticlesAndHistory(t *testing.T) {
	f := newFixture(t, true)
	token := f.register(t, "reader@example.com")

	resp, _ := f.do(t, "POST", "/api/saved", token, map[string]string{"title": "no url"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp, body := f.do(t, "POST", "/api/saved", token, map[string]string{"title": "Story", "url": "https://x/1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save failed: %d %v", resp.StatusCode, body)
	}
	id := int64(body["id"].(float64))

	_, body = f.do(t, "GET", "/api/saved", token, nil)
	if len(body["articles"].([]any)) != 1 {
		t.Fatalf("unexpected saved list %v", body)
	}

	resp, _ = f.do(t, "DELETE", "/api/saved/abc", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, "DELETE", "/api/saved/"+strconv.FormatInt(id, 10), token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, "DELETE", "/api/saved/"+strconv.FormatInt(id, 10), token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", resp.StatusCode)
	}

	f.store.SaveChat(context.Background(), "s1", "reader@example.com", "q", "a")
	_, body = f.do(t, "GET", "/api/history", token, nil)
	if len(body["chats"].([]any)) != 1 || len(body["searches"].([]any)) != 0 {
		t.Fatalf("unexpected history %v", body)
	}

	resp, _ = f.do(t, "GET", "/api/digest/latest", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before any digest, got %d", resp.StatusCode)
	}
}

func TestNoStore(t *testing.T) {
	f := newFixture(t, false)
	resp, _ := f.do(t, "POST", "/api/auth/register", "", map[string]string{"email": "a@example.com", "password": "correct-horse"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without store, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, "GET", "/api/news?query=x", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("news should work without a store, got %d", resp.StatusCode)
	}
}

func TestCORSAndHealth(t *testing.T) {
	f := newFixture(t, false)

	req, _ := http.NewRequest(http.MethodOptions, f.srv.URL+"/api/news", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow-origin %q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, f.srv.URL+"/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected health response %d %q", resp.StatusCode, resp.Header.Get("Access-Control-Allow-Origin"))
	}

	resp, err = http.Get(f.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics endpoint returned %d", resp.StatusCode)
	}
}
