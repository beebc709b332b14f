// cmd/historian pops finished match summaries from the Redis queue and persists them
// to Postgres.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/pong/internal/cache"
	"github.com/jason-s-yu/pong/internal/config"
	"github.com/jason-s-yu/pong/internal/database"
	"github.com/jason-s-yu/pong/internal/historian"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		logger.WithError(err).Fatal("ensure schema")
	}

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("connect redis")
	}
	defer rdb.Close()

	svc := historian.New(
		cache.NewHistoryQueue(rdb, cfg.Redis.HistoryQueue),
		&database.Matches{DB: pool},
		cfg.Historian,
		logger,
	)
	logger.WithField("queue", cfg.Redis.HistoryQueue).Info("historian started")
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("historian stopped")
	}
	logger.Info("historian shutting down")
}
