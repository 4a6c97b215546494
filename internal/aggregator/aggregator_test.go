package aggregator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/RobinCoderZhao/newspulse/internal/news"
	"github.com/RobinCoderZhao/newspulse/internal/sources"
)

type stubSource struct {
	name  string
	items []news.Item
	block bool
	topic chan string
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context, topic string) []news.Item {
	if s.topic != nil {
		s.topic <- topic
	}
	if s.block {
		<-ctx.Done()
		return []news.Item{}
	}
	return s.items
}

func items(source string, titles ...string) []news.Item {
	out := make([]news.Item, 0, len(titles))
	for _, t := range titles {
		out = append(out, news.Item{Title: t, URL: "https://" + source + "/" + t, SourceName: source})
	}
	return out
}

func TestAggregate_CricketScenario(t *testing.T) {
	gnews := &stubSource{name: "GNews", items: items("gnews", "India win", "Rain delay", "Squad named")}
	rss := &stubSource{name: "Google News", items: items("google", "Rain delay", "Pitch report")}
	empty := []sources.Source{
		&stubSource{name: "Reddit"},
		&stubSource{name: "Hacker News"},
		&stubSource{name: "Wikipedia"},
	}

	a := New(append([]sources.Source{gnews, rss}, empty...))
	got := a.Aggregate(context.Background(), "cricket")
	if len(got) != 4 {
		t.Fatalf("expected 4 items, got %d: %+v", len(got), got)
	}
	for _, it := range got {
		if it.Title == "Rain delay" && it.SourceName != "gnews" {
			t.Fatalf("overlapping title should be attributed to gnews, got %q", it.SourceName)
		}
	}
	want := []string{"India win", "Rain delay", "Squad named", "Pitch report"}
	for i, w := range want {
		if got[i].Title != w {
			t.Errorf("position %d: expected %q, got %q", i, w, got[i].Title)
		}
	}
}

func TestAggregate_PriorityIndependentOfCompletionOrder(t *testing.T) {
	// the higher-priority source finishes last
	slow := &stubSource{name: "A", items: items("A", "X")}
	fast := &stubSource{name: "B", items: items("B", "X", "Y")}
	started := make(chan string, 2)
	slow.topic = started

	a := New([]sources.Source{slowWrapper{slow, 30 * time.Millisecond}, fast})
	got := a.Aggregate(context.Background(), "t")
	if len(got) != 2 || got[0].SourceName != "A" || got[1].Title != "Y" {
		t.Fatalf("unexpected merge: %+v", got)
	}
	if topic := <-started; topic != "t" {
		t.Fatalf("expected topic to be passed through, got %q", topic)
	}
}

type slowWrapper struct {
	inner *stubSource
	delay time.Duration
}

func (s slowWrapper) Name() string { return s.inner.Name() }
func (s slowWrapper) Fetch(ctx context.Context, topic string) []news.Item {
	time.Sleep(s.delay)
	return s.inner.Fetch(ctx, topic)
}

func TestAggregate_AllEmpty(t *testing.T) {
	a := New([]sources.Source{&stubSource{name: "a"}, &stubSource{name: "b"}})
	got := a.Aggregate(context.Background(), "nothing")
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestAggregate_SlowSourceIsBounded(t *testing.T) {
	hung := &stubSource{name: "hung", block: true}
	ok := &stubSource{name: "ok", items: items("ok", "fine")}

	a := New([]sources.Source{hung, ok}, WithSourceTimeout(50*time.Millisecond))
	start := time.Now()
	got := a.Aggregate(context.Background(), "t")
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("aggregate took %s, hung source was not bounded", elapsed)
	}
	if len(got) != 1 || got[0].Title != "fine" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestAggregateTopic_Empty(t *testing.T) {
	called := make(chan string, 1)
	a := New([]sources.Source{&stubSource{name: "a", topic: called}})
	if _, err := a.AggregateTopic(context.Background(), "   "); !errors.Is(err, ErrEmptyTopic) {
		t.Fatalf("expected ErrEmptyTopic, got %v", err)
	}
	select {
	case <-called:
		t.Fatal("no source should be called for an empty topic")
	default:
	}
}

func TestDedup_EmptyTitlesKept(t *testing.T) {
	in := []news.Item{
		{Title: "", URL: "1"},
		{Title: "A", URL: "2"},
		{Title: "", URL: "3"},
		{Title: "a", URL: "4"},
		{Title: "A", URL: "5"},
	}
	got := Dedup(in)
	if len(got) != 4 {
		t.Fatalf("expected 4 items, got %d: %+v", len(got), got)
	}
	var urls string
	for _, it := range got {
		urls += it.URL
	}
	if urls != "1234" {
		t.Fatalf("expected order 1234, got %s", urls)
	}
}

func TestDedup_RandomizedInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	titles := []string{"", "a", "b", "c", "A", "B"}
	for round := 0; round < 200; round++ {
		n := rng.Intn(30)
		in := make([]news.Item, n)
		emptyIn := 0
		for i := range in {
			in[i] = news.Item{Title: titles[rng.Intn(len(titles))], URL: fmt.Sprint(i)}
			if in[i].Title == "" {
				emptyIn++
			}
		}

		got := Dedup(in)
		seen := map[string]bool{}
		emptyOut := 0
		for _, it := range got {
			if it.Title == "" {
				emptyOut++
				continue
			}
			if seen[it.Title] {
				t.Fatalf("round %d: duplicate title %q", round, it.Title)
			}
			seen[it.Title] = true
		}
		if emptyIn != emptyOut {
			t.Fatalf("round %d: %d empty-title items in, %d out", round, emptyIn, emptyOut)
		}
		// first occurrence wins
		for _, it := range got {
			if it.Title == "" {
				continue
			}
			for _, orig := range in {
				if orig.Title == it.Title {
					if orig.URL != it.URL {
						t.Fatalf("round %d: %q kept %s, first was %s", round, it.Title, it.URL, orig.URL)
					}
					break
				}
			}
		}
	}
}
