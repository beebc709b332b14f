// Package database holds the Postgres-backed collaborators: the user directory, the
// invitation store, match history and ranked ratings.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/pong/internal/config"
)

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.Postgres) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

// matchesSchema covers the tables owned by the game service; users and alarms belong to the user service.
const matchesSchema = `
	CREATE TABLE IF NOT EXISTS matches (
		room_id          UUID PRIMARY KEY,
		blue_user_seq    BIGINT NOT NULL,
		red_user_seq     BIGINT NOT NULL,
		score_blue       INT NOT NULL,
		score_red        INT NOT NULL,
		winner_user_seq  BIGINT,
		is_rank_game     BOOLEAN NOT NULL DEFAULT FALSE,
		reason           TEXT NOT NULL,
		started_at       TIMESTAMPTZ NOT NULL,
		ended_at         TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS matches_blue_idx ON matches (blue_user_seq, ended_at DESC);
	CREATE INDEX IF NOT EXISTS matches_red_idx ON matches (red_user_seq, ended_at DESC);
	CREATE TABLE IF NOT EXISTS ratings (
		user_seq    BIGINT PRIMARY KEY,
		elo         DOUBLE PRECISION NOT NULL,
		rd          DOUBLE PRECISION NOT NULL,
		sigma       DOUBLE PRECISION NOT NULL,
		games       INT NOT NULL DEFAULT 0,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// EnsureSchema creates the matches and ratings tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, matchesSchema); err != nil {
		return fmt.Errorf("create matches schema: %w", err)
	}
	return nil
}
