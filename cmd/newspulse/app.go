package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/RobinCoderZhao/newspulse/internal/aggregator"
	"github.com/RobinCoderZhao/newspulse/internal/appconfig"
	"github.com/RobinCoderZhao/newspulse/internal/digest"
	"github.com/RobinCoderZhao/newspulse/internal/headlines"
	"github.com/RobinCoderZhao/newspulse/internal/logging"
	"github.com/RobinCoderZhao/newspulse/internal/qa"
	"github.com/RobinCoderZhao/newspulse/internal/sources"
	"github.com/RobinCoderZhao/newspulse/internal/store"
	"github.com/RobinCoderZhao/newspulse/internal/timeline"
	"github.com/RobinCoderZhao/newspulse/pkg/llm"
	"github.com/RobinCoderZhao/newspulse/pkg/notify"
	"github.com/RobinCoderZhao/newspulse/pkg/storage"
)

// app holds the wired components a command runs against. llm and store
// are nil when not configured or not requested.
type app struct {
	cfg    appconfig.Config
	logger *slog.Logger

	llm        llm.Client
	aggregator *aggregator.Aggregator
	headlines  *headlines.Cache
	timeline   *timeline.Synthesizer
	store      *store.Store
}

// newApp loads the config, sets up logging and builds the components.
// The store is only opened when withStore is set.
func newApp(ctx context.Context, opts *globalOpts, withStore bool) (*app, error) {
	cfg, err := appconfig.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	logger, err := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	if cfg.LLMEnabled() {
		client, err := llm.NewClient(cfg.LLMClientConfig())
		if err != nil {
			return nil, fmt.Errorf("create LLM client: %w", err)
		}
		a.llm = client
	} else {
		logger.Warn("no LLM API key configured, AI features fall back to plain output")
	}

	a.aggregator = aggregator.New(sources.Defaults(cfg.Sources.GNewsAPIKey),
		aggregator.WithSourceTimeout(cfg.Sources.SourceTimeout),
		aggregator.WithLogger(logger))
	a.headlines = headlines.New(sources.NewGNews(cfg.Sources.GNewsAPIKey),
		headlines.WithTTL(cfg.Sources.HeadlinesTTL),
		headlines.WithLogger(logger))
	a.timeline = timeline.New(a.llm,
		timeline.WithModel(cfg.LLM.Model),
		timeline.WithLogger(logger))

	if withStore {
		if dir := filepath.Dir(cfg.Storage.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				a.Close()
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		db, err := storage.Open(cfg.Storage)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open storage: %w", err)
		}
		st, err := store.New(ctx, db)
		if err != nil {
			db.Close()
			a.Close()
			return nil, err
		}
		a.store = st
	}
	return a, nil
}

// assistant builds the chat assistant, recording exchanges when a store is
// open.
func (a *app) assistant() *qa.Assistant {
	opts := []qa.Option{qa.WithModel(a.cfg.LLM.Model), qa.WithLogger(a.logger)}
	if a.store != nil {
		opts = append(opts, qa.WithChatLogger(a.store))
	}
	return qa.New(a.headlines, a.llm, opts...)
}

// digestOptions configures the digest generator. Delivery is attached only
// when send is set and at least one channel is configured.
func (a *app) digestOptions(send bool) []digest.Option {
	opts := []digest.Option{digest.WithModel(a.cfg.LLM.Model), digest.WithLogger(a.logger)}
	if !send {
		return opts
	}
	d := notify.NewDispatcher()
	if a.cfg.Digest.Email.Enabled() {
		d.Register(notify.NewEmailNotifier(a.cfg.Digest.Email))
	}
	if a.cfg.Digest.Webhook.URL != "" {
		d.Register(notify.NewWebhookNotifier(a.cfg.Digest.Webhook))
	}
	if len(d.Channels()) == 0 {
		a.logger.Info("no digest delivery channel configured, digests are only stored")
		return opts
	}
	return append(opts, digest.WithSender(d))
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.llm != nil {
		a.llm.Close()
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
