package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/pong/internal/models"
)

// Matches persists finished match summaries.
type Matches struct {
	DB *pgxpool.Pool
}

const insertMatch = `
	INSERT INTO matches (
		room_id, blue_user_seq, red_user_seq, score_blue, score_red,
		winner_user_seq, is_rank_game, reason, started_at, ended_at
	)
	VALUES ($1, $2, $3, $4, $5, NULLIF($6::BIGINT, 0), $7, $8, $9, $10)
	ON CONFLICT (room_id) DO NOTHING
`

// Save records one summary.
func (m *Matches) Save(ctx context.Context, s models.MatchSummary) error {
	return m.SaveBatch(ctx, []models.MatchSummary{s})
}

// SaveBatch records summaries in a single transaction and updates ratings for ranked
// results. Replays of an already stored room are ignored.
func (m *Matches) SaveBatch(ctx context.Context, batch []models.MatchSummary) error {
	if len(batch) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, m.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, s := range batch {
			ct, err := tx.Exec(ctx, insertMatch,
				s.RoomID, s.BlueUserID, s.RedUserID, s.ScoreBlue, s.ScoreRed,
				s.WinnerUserID, s.IsRankGame, s.Reason, s.StartedAt, s.EndedAt,
			)
			if err != nil {
				return fmt.Errorf("insert match %s: %w", s.RoomID, err)
			}
			if ct.RowsAffected() == 0 || !Rated(s) {
				continue
			}
			if err := applyRatingTx(ctx, tx, s); err != nil {
				return fmt.Errorf("rate match %s: %w", s.RoomID, err)
			}
		}
		return nil
	})
}

// Recent returns the user's latest matches, newest first.
func (m *Matches) Recent(ctx context.Context, userSeq int64, limit int) ([]models.MatchSummary, error) {
	q := `
		SELECT room_id, blue_user_seq, red_user_seq, score_blue, score_red,
		       COALESCE(winner_user_seq, 0), is_rank_game, reason, started_at, ended_at
		FROM matches
		WHERE blue_user_seq = $1 OR red_user_seq = $1
		ORDER BY ended_at DESC
		LIMIT $2
	`
	rows, err := m.DB.Query(ctx, q, userSeq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MatchSummary
	for rows.Next() {
		var s models.MatchSummary
		if err := rows.Scan(
			&s.RoomID, &s.BlueUserID, &s.RedUserID, &s.ScoreBlue, &s.ScoreRed,
			&s.WinnerUserID, &s.IsRankGame, &s.Reason, &s.StartedAt, &s.EndedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
