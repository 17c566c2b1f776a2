// Crest computes a time-decayed popularity ranking of posts and composes
// personalized feeds from it.
//
// It owns the ranking and feed stores; raw scores, the social graph, and
// post metadata come from sibling services over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/run"
	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"

	"github.com/agrange/crest/internal/api"
	"github.com/agrange/crest/internal/clients"
	"github.com/agrange/crest/internal/feed"
	"github.com/agrange/crest/internal/migrations"
	"github.com/agrange/crest/internal/ranking"
	"github.com/agrange/crest/internal/sqlite"
	"github.com/agrange/crest/logger"
)

type config struct {
	Database string `env:"DATABASE, required"`

	ScoreSourceURL     string `env:"SCORE_SOURCE_URL, required"`
	SocialGraphURL     string `env:"SOCIAL_GRAPH_URL, required"`
	ContentMetadataURL string `env:"CONTENT_METADATA_URL, required"`

	Port        int    `env:"PORT, default=4444"`
	CorsOrigin  string `env:"CORS_ORIGIN, default=*"`
	FeedCluster string `env:"FEED_CLUSTER"`
	FeedLimit   int    `env:"FEED_LIMIT, default=10"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	// Determine which logger format to use
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, nil)
	if cfg.LoggerFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	}
	l := slog.New(logger.NewContextHandler(handler))
	slog.SetDefault(l)

	// Start the application
	if err := runApp(ctx, cfg); err != nil {
		slog.Error("error running", "error", err)
		os.Exit(1)
	}
}

func runApp(ctx context.Context, cfg config) error {
	// Connect to the sqlite db
	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_txlock=immediate&_journal_mode=WAL&_busy_timeout=5000", cfg.Database))
	if err != nil {
		return fmt.Errorf("error opening database: %s", err)
	}
	defer dbx.Close()

	// Retry until the database is ready
	if err := retry.Fibonacci(ctx, 1*time.Second, func(ctx context.Context) error {
		if err := dbx.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("error pinging database: %s", err)
	}

	// Migrate, always
	if err := migrations.Run(dbx); err != nil {
		return fmt.Errorf("error running migrations: %s", err)
	}

	var (
		repo       = sqlite.New(dbx)
		rankingSvc = ranking.New(clients.NewScoreClient(cfg.ScoreSourceURL), repo)
		feedSvc    = feed.New(
			feed.Config{Cluster: cfg.FeedCluster, TopN: cfg.FeedLimit},
			repo,
			clients.NewSocialClient(cfg.SocialGraphURL),
			clients.NewMetadataClient(cfg.ContentMetadataURL),
			repo,
		)
		srvr = api.NewServer(api.ServerConfig{
			Port:       cfg.Port,
			CorsOrigin: cfg.CorsOrigin,
		}, rankingSvc, feedSvc, repo)
	)

	var g run.Group
	g.Add(func() error {
		slog.Info("starting api server", "port", cfg.Port)
		if err := srvr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error listening: %s", err)
		}

		return nil
	}, func(error) {
		downCtx, downCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer downCancel()
		if err := srvr.Shutdown(downCtx); err != nil {
			slog.Error("error shutting down server", "error", err)
		}
	})
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	sigErr := &run.SignalError{}
	if errors.As(err, sigErr) || errors.Is(err, context.Canceled) {
		slog.Info("shutting down")
		return nil
	}

	return err
}
