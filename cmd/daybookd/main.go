// daybookd serves the JSON API. Enrichment itself runs in the separate
// worker process; this binary only persists records and hands jobs to the
// shared broker.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/daybook-app/daybook/internal/async"
	"github.com/daybook-app/daybook/internal/broker"
	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/export"
	"github.com/daybook-app/daybook/internal/repository"
	"github.com/daybook-app/daybook/internal/server"
	"github.com/daybook-app/daybook/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, reading environment directly")
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}

	registry := repository.NewRegistry(pool, logger)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	b := broker.NewRedisBroker(rdb, logger, broker.WithPollInterval(cfg.Queue.PollInterval))
	enqueuer := async.NewEnqueuer(b, registry, logger,
		async.WithQueue(cfg.Queue.Name),
		async.WithJobTimeout(cfg.Queue.JobTimeout),
		async.WithJobTTL(cfg.Queue.JobTTL),
	)

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to initialize document storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}

	app := &server.App{
		Journals:   registry.Journals,
		Notes:      registry.Notes,
		Tasks:      registry.Tasks,
		Activities: registry.Activities,
		Moments:    registry.Moments,
		Documents:  registry.Documents,
		Enqueuer:   enqueuer,
		Jobs:       b,
		Storage:    store,
		Export: export.NewService(registry.Journals, registry.Notes, registry.Tasks,
			registry.Activities, registry.Moments, logger),
		Logger: logger,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("daybookd listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}
