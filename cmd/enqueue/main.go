// enqueue submits one record to the enrichment queue from the command line.
// Useful for re-running enrichment after a FAILED outcome or backfilling
// records created before the pipeline existed.
//
// Usage: enqueue -kind note -id <uuid> [-requeue]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/async"
	"github.com/daybook-app/daybook/internal/broker"
	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/repository"
)

func main() {
	kindFlag := flag.String("kind", "", "record kind: note, task or activity")
	idFlag := flag.String("id", "", "record id (uuid)")
	requeue := flag.Bool("requeue", false, "resubmit a record already in a terminal status")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	kind, ok := constants.ParseEntityKind(*kindFlag)
	if !ok || !kind.Enrichable() {
		fmt.Fprintf(os.Stderr, "unknown or non-enrichable kind %q (expected one of: %v)\n",
			*kindFlag, constants.EnrichableKinds())
		os.Exit(2)
	}
	entityID, err := uuid.Parse(*idFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "-id must be a uuid: %v\n", err)
		os.Exit(2)
	}

	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env")
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load configuration:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        2,
		MinConns:        1,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open database:", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	registry := repository.NewRegistry(pool, logger)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	b := broker.NewRedisBroker(rdb, logger)
	enqueuer := async.NewEnqueuer(b, registry, logger,
		async.WithQueue(cfg.Queue.Name),
		async.WithJobTimeout(cfg.Queue.JobTimeout),
		async.WithJobTTL(cfg.Queue.JobTTL),
	)

	var jobID uuid.UUID
	if *requeue {
		jobID, err = enqueuer.Reenqueue(ctx, kind, entityID)
	} else {
		jobID, err = enqueuer.Enqueue(ctx, kind, entityID)
		if errors.Is(err, repository.ErrStateConflict) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, "hint: pass -requeue to resubmit a record that already finished")
			os.Exit(1)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "enqueue:", err)
		os.Exit(1)
	}

	fmt.Printf("queued %s %s as job %s on %q\n", kind, entityID, jobID, cfg.Queue.Name)
}
