// Package digest generates and delivers weekly news digests from each
// reader's topic preferences.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RobinCoderZhao/newspulse/internal/metrics"
	"github.com/RobinCoderZhao/newspulse/internal/store"
	"github.com/RobinCoderZhao/newspulse/pkg/llm"
	"github.com/RobinCoderZhao/newspulse/pkg/notify"
)

var (
	// ErrNoPreferences is returned for readers who follow no topics.
	ErrNoPreferences = errors.New("no preferences")
	// ErrNoBackend is returned when no generative backend is configured.
	ErrNoBackend = errors.New("digest generation needs a generative backend")
)

// UserLister lists every reader.
type UserLister interface {
	ListUsers(ctx context.Context) ([]store.User, error)
}

// Saver persists a generated digest.
type Saver interface {
	SaveDigest(ctx context.Context, email, content string) (*store.Digest, error)
}

// Sender delivers a message on every configured channel.
type Sender interface {
	SendAll(ctx context.Context, msg notify.Message) error
}

// Report summarizes one run.
type Report struct {
	Users     int
	Generated int
	Skipped   int
	Failed    int
	Delivered int
}

// Generator produces digests.
type Generator struct {
	users  UserLister
	saver  Saver
	client llm.Client
	sender Sender
	opts   llm.Options
	logger *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithSender delivers each stored digest.
func WithSender(s Sender) Option {
	return func(g *Generator) { g.sender = s }
}

// WithModel overrides the backend model.
func WithModel(model string) Option {
	return func(g *Generator) { g.opts.Model = model }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New creates a Generator.
func New(users UserLister, saver Saver, client llm.Client, opts ...Option) *Generator {
	g := &Generator{
		users:  users,
		saver:  saver,
		client: client,
		opts:   llm.Options{Temperature: 0.7, MaxTokens: 1500},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run generates a digest for every reader with preferences. Per-reader
// failures are logged and counted; only listing readers can fail the run.
func (g *Generator) Run(ctx context.Context) (Report, error) {
	if g.client == nil {
		return Report{}, ErrNoBackend
	}
	users, err := g.users.ListUsers(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list users: %w", err)
	}

	g.logger.Info("weekly digest generation started", "users", len(users))
	rep := Report{Users: len(users)}
	for _, u := range users {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}

		d, err := g.Generate(ctx, u.Email, u.Preferences)
		switch {
		case errors.Is(err, ErrNoPreferences):
			g.logger.Debug("skipping digest, no preferences", "email", u.Email)
			rep.Skipped++
			continue
		case err != nil:
			g.logger.Error("digest generation failed", "email", u.Email, "error", err)
			rep.Failed++
			continue
		}
		rep.Generated++

		if g.sender == nil {
			continue
		}
		msg := notify.FormatDigest(notify.DigestData{
			Email:       d.Email,
			Topics:      u.Preferences,
			Content:     d.Content,
			GeneratedAt: d.GeneratedAt,
		})
		if err := g.sender.SendAll(ctx, msg); err != nil {
			g.logger.Warn("digest delivery failed", "email", u.Email, "error", err)
			continue
		}
		rep.Delivered++
	}

	metrics.AddDigests("generated", rep.Generated)
	metrics.AddDigests("skipped", rep.Skipped)
	metrics.AddDigests("failed", rep.Failed)
	metrics.AddDigests("delivered", rep.Delivered)
	g.logger.Info("weekly digest generation completed",
		"generated", rep.Generated, "skipped", rep.Skipped, "failed", rep.Failed, "delivered", rep.Delivered)
	return rep, nil
}

// Generate writes and stores a digest for one reader.
func (g *Generator) Generate(ctx context.Context, email string, topics []string) (*store.Digest, error) {
	topics = cleanTopics(topics)
	if len(topics) == 0 {
		return nil, ErrNoPreferences
	}
	if g.client == nil {
		return nil, ErrNoBackend
	}

	content, err := llm.Complete(ctx, g.client, "", Prompt(topics), g.opts)
	if err != nil {
		return nil, fmt.Errorf("generate digest: %w", err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("generate digest: empty response")
	}

	d, err := g.saver.SaveDigest(ctx, email, content)
	if err != nil {
		return nil, err
	}
	g.logger.Info("digest saved", "email", email, "topics", len(topics))
	return d, nil
}

// Prompt builds the digest request for topics.
func Prompt(topics []string) string {
	return fmt.Sprintf(`You are a helpful assistant. Generate a weekly news digest based on these topics:
%s
Summarize major updates and developments from the past 7 days grouped by topic.
Use bullet points and explain clearly.`, strings.Join(topics, ", "))
}

func cleanTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
