package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/pong/internal/models"
	"github.com/jason-s-yu/pong/internal/rating"
)

// Ratings reads ranked ratings.
type Ratings struct {
	DB *pgxpool.Pool
}

// Get returns the user's rating, or the default for a user with no ranked games.
func (r *Ratings) Get(ctx context.Context, userSeq int64) (rating.Rating, error) {
	q := `SELECT elo, rd, sigma FROM ratings WHERE user_seq = $1`
	var out rating.Rating
	err := r.DB.QueryRow(ctx, q, userSeq).Scan(&out.Elo, &out.RD, &out.Sigma)
	if errors.Is(err, pgx.ErrNoRows) {
		return rating.Default(), nil
	}
	if err != nil {
		return rating.Rating{}, fmt.Errorf("query rating: %w", err)
	}
	return out, nil
}

// Rated reports whether a summary changes ratings: a ranked match that was decided.
func Rated(s models.MatchSummary) bool {
	return s.IsRankGame && s.Reason != models.EndReasonAborted && s.WinnerUserID != 0
}

func applyRatingTx(ctx context.Context, tx pgx.Tx, s models.MatchSummary) error {
	loserSeq := s.BlueUserID
	if s.WinnerUserID == s.BlueUserID {
		loserSeq = s.RedUserID
	}
	winner, err := loadRatingTx(ctx, tx, s.WinnerUserID)
	if err != nil {
		return err
	}
	loser, err := loadRatingTx(ctx, tx, loserSeq)
	if err != nil {
		return err
	}

	winner, loser = rating.Update1v1(winner, loser)
	if err := saveRatingTx(ctx, tx, s.WinnerUserID, winner); err != nil {
		return err
	}
	return saveRatingTx(ctx, tx, loserSeq, loser)
}

func loadRatingTx(ctx context.Context, tx pgx.Tx, userSeq int64) (rating.Rating, error) {
	q := `SELECT elo, rd, sigma FROM ratings WHERE user_seq = $1 FOR UPDATE`
	var out rating.Rating
	err := tx.QueryRow(ctx, q, userSeq).Scan(&out.Elo, &out.RD, &out.Sigma)
	if errors.Is(err, pgx.ErrNoRows) {
		return rating.Default(), nil
	}
	return out, err
}

func saveRatingTx(ctx context.Context, tx pgx.Tx, userSeq int64, r rating.Rating) error {
	q := `
		INSERT INTO ratings (user_seq, elo, rd, sigma, games, updated_at)
		VALUES ($1, $2, $3, $4, 1, NOW())
		ON CONFLICT (user_seq)
		DO UPDATE SET elo = $2, rd = $3, sigma = $4, games = ratings.games + 1, updated_at = NOW()
	`
	_, err := tx.Exec(ctx, q, userSeq, r.Elo, r.RD, r.Sigma)
	return err
}
