package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/newspulse/internal/api"
	"github.com/RobinCoderZhao/newspulse/internal/digest"
	"github.com/RobinCoderZhao/newspulse/internal/scheduler"
)

func serveCmd(opts *globalOpts) *cobra.Command {
	var port string
	var digestInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		Long:  "Serves the news, timeline, chat and account API. When an LLM backend is configured, weekly digests are generated on --digest-interval.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, port, digestInterval)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides server.port)")
	cmd.Flags().DurationVar(&digestInterval, "digest-interval", -1, "digest schedule; 0 disables (default digest.interval)")
	return cmd
}

func runServe(cmd *cobra.Command, opts *globalOpts, port string, digestInterval time.Duration) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, opts, true)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	if port == "" {
		port = cfg.Server.Port
	}
	if digestInterval < 0 {
		digestInterval = cfg.Digest.Interval
	}
	if cfg.Auth.JWTSecret == "" {
		a.logger.Warn("JWT_SECRET is not set, using an insecure development secret")
		cfg.Auth.JWTSecret = "newspulse-dev-secret"
	}

	server := api.NewServer(api.Deps{
		Headlines:   a.headlines,
		Aggregator:  a.aggregator,
		Synthesizer: a.timeline,
		Assistant:   a.assistant(),
		Store:       a.store,
	}, cfg.Auth.JWTSecret,
		api.WithTokenTTL(cfg.Auth.TokenTTL),
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		api.WithLogger(a.logger))

	if digestInterval > 0 && a.llm != nil {
		gen := digest.New(a.store, a.store, a.llm, a.digestOptions(true)...)
		sched := scheduler.New()
		sched.Add(scheduler.Job{Name: "weekly-digest", Fn: func(ctx context.Context) error {
			_, err := gen.Run(ctx)
			return err
		}})
		go sched.Start(ctx, digestInterval, false)
		defer sched.Stop()
	} else {
		a.logger.Info("digest scheduler disabled", "interval", digestInterval, "llm", a.llm != nil)
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting REST API server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	grace := cfg.Server.ShutdownTimeout
	if grace <= 0 {
		grace = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server forced to shutdown", "error", err)
		return err
	}
	return nil
}
