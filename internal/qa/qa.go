// Package qa answers free-form news questions from the latest matching
// headlines.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/RobinCoderZhao/newspulse/internal/news"
	"github.com/RobinCoderZhao/newspulse/pkg/llm"
)

// ErrEmptyQuestion is returned when Ask receives only whitespace.
var ErrEmptyQuestion = errors.New("please enter some text")

// NoNewsResponse is the answer when no articles match the question.
const NoNewsResponse = "No news found for this topic."

// maxContextArticles bounds how many articles are put in front of the model.
const maxContextArticles = 10

// HeadlineSource returns articles for a search query.
type HeadlineSource interface {
	GetOrFetch(ctx context.Context, query string) []news.Item
}

// ChatLogger persists answered questions.
type ChatLogger interface {
	SaveChat(ctx context.Context, sessionID, email, question, answer string) error
}

// Answer is the result of one question.
type Answer struct {
	SessionID string      `json:"session_id"`
	Topic     string      `json:"topic"`
	Response  string      `json:"response"`
	Articles  []news.Item `json:"articles"`
	// Generated is true when the backend wrote Response.
	Generated bool `json:"generated"`
}

// Assistant answers questions.
type Assistant struct {
	headlines HeadlineSource
	client    llm.Client
	chats     ChatLogger
	opts      llm.Options
	logger    *slog.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithChatLogger records every answered question.
func WithChatLogger(l ChatLogger) Option {
	return func(a *Assistant) { a.chats = l }
}

// WithModel overrides the backend model.
func WithModel(model string) Option {
	return func(a *Assistant) { a.opts.Model = model }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// New creates an Assistant. client may be nil, in which case answers are
// always the formatted article list.
func New(headlines HeadlineSource, client llm.Client, opts ...Option) *Assistant {
	a := &Assistant{
		headlines: headlines,
		client:    client,
		opts:      llm.Options{Temperature: 0.7, MaxTokens: 800},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewSessionID returns a fresh chat session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Ask answers question for the given session. An empty sessionID starts a
// new session; email may be empty for anonymous users.
func (a *Assistant) Ask(ctx context.Context, sessionID, email, question string) (Answer, error) {
	topic := strings.ToLower(strings.TrimSpace(question))
	if topic == "" {
		return Answer{}, ErrEmptyQuestion
	}
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	articles := a.headlines.GetOrFetch(ctx, topic)
	ans := Answer{SessionID: sessionID, Topic: topic, Articles: articles}

	switch {
	case len(articles) == 0:
		ans.Response = NoNewsResponse
	case a.client == nil:
		ans.Response = FormatArticles(topic, articles)
	default:
		reply, err := llm.Complete(ctx, a.client, systemPrompt, userPrompt(question, articles), a.opts)
		reply = strings.TrimSpace(reply)
		if err != nil || reply == "" {
			a.logger.Warn("answer generation failed, listing articles", "topic", topic, "error", err)
			ans.Response = FormatArticles(topic, articles)
		} else {
			ans.Response = reply
			ans.Generated = true
		}
	}

	if a.chats != nil {
		if err := a.chats.SaveChat(ctx, sessionID, email, question, ans.Response); err != nil {
			a.logger.Warn("failed to save chat", "session_id", sessionID, "error", err)
		}
	}
	return ans, nil
}

// FormatArticles renders articles as the plain answer list.
func FormatArticles(topic string, articles []news.Item) string {
	if len(articles) == 0 {
		return NoNewsResponse
	}
	entries := make([]string, 0, len(articles))
	for _, it := range articles {
		entries = append(entries, fmt.Sprintf("🔹 %s\n📅 %s\n🌐 [Read more](%s)", it.Title, it.PublishedAt, it.URL))
	}
	return fmt.Sprintf("📰 Latest %s News:\n\n%s", capitalize(topic), strings.Join(entries, "\n\n"))
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

const systemPrompt = `You are NewsPulse, a news assistant. Answer the user's question using only the
articles provided. Be concise and factual, cite the articles you rely on as markdown links,
and say plainly when the articles do not cover the question.`

func userPrompt(question string, articles []news.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\nArticles:\n", strings.TrimSpace(question))
	for i, it := range articles {
		if i >= maxContextArticles {
			break
		}
		fmt.Fprintf(&sb, "\n%d. %s (%s)\n   %s\n   %s\n", i+1, it.Title, it.PublishedAt, it.Description, it.URL)
	}
	return sb.String()
}
