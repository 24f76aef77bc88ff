// worker claims enrichment jobs from the shared broker and runs them against
// the language model service, one at a time. Run as many replicas as needed;
// the broker guarantees each job lands on exactly one of them.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/daybook-app/daybook/internal/broker"
	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/events"
	"github.com/daybook-app/daybook/internal/llm"
	"github.com/daybook-app/daybook/internal/llm/openai"
	"github.com/daybook-app/daybook/internal/pipeline"
	"github.com/daybook-app/daybook/internal/ratelimit"
	"github.com/daybook-app/daybook/internal/repository"
	"github.com/daybook-app/daybook/internal/worker"
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
	if cfg.LLM.APIKey == "" {
		logger.Error("OPENAI_API_KEY env var is required")
		os.Exit(2)
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
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("broker store unreachable", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}

	b := broker.NewRedisBroker(rdb, logger, broker.WithPollInterval(cfg.Queue.PollInterval))

	// One shared window across every worker replica; the gate is checked
	// before each model call, including retries.
	gate := ratelimit.NewRedisLimiter(rdb, "llm", cfg.RateLimit.Limit, cfg.RateLimit.Window, logger)
	policy := pipeline.NewPolicy(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay, cfg.Retry.MaxDelay)

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		Lenient:     cfg.LLM.Lenient,
	}, logger)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Events.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, logger)
	}
	defer publisher.Close()

	processor := worker.NewProcessor(client, policy, gate, llm.GenerationParams{}, logger)
	w := worker.NewWorker(b, registry, processor, publisher, logger,
		worker.WithQueue(cfg.Queue.Name),
	)

	sweeper := worker.NewSweeper(registry.EnrichableRepos(), b, worker.SweeperConfig{
		Queue:    cfg.Queue.Name,
		Interval: cfg.Sweep.Interval,
		// A record is stuck once it has been PROCESSING for longer than
		// any live job could still be running.
		StaleAfter: cfg.Queue.JobTimeout + cfg.Sweep.Grace,
		Reenqueue:  cfg.Sweep.Reenqueue,
		JobTimeout: cfg.Queue.JobTimeout,
		JobTTL:     cfg.Queue.JobTTL,
	}, logger, w.Metrics())
	go sweeper.Run(ctx)

	stopMetrics := worker.Every(time.Minute, func() {
		s := w.Metrics().SnapshotCounts()
		logger.Info("worker.metrics",
			"claimed", s.Claimed,
			"completed", s.Completed,
			"failed", s.Failed,
			"skipped", s.Skipped,
			"swept", s.Swept,
		)
	})
	defer stopMetrics()

	logger.Info("worker started",
		"queue", cfg.Queue.Name,
		"job_timeout", cfg.Queue.JobTimeout,
		"rate_limit", cfg.RateLimit.Limit,
		"rate_window", cfg.RateLimit.Window,
	)
	if err := w.Run(ctx); err != nil {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
