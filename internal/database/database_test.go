package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/pong/internal/config"
	"github.com/jason-s-yu/pong/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a disposable Postgres; they are skipped unless PG_HOST is set.
func testPool(t *testing.T) *Matches {
	t.Helper()
	if os.Getenv("PG_HOST") == "" {
		t.Skip("PG_HOST not set")
	}
	cfg, err := config.Load()
	require.NoError(t, err)

	ctx := context.Background()
	pool, err := Connect(ctx, cfg.Postgres)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, EnsureSchema(ctx, pool))
	return &Matches{DB: pool}
}

func TestMatchesSaveAndRecent(t *testing.T) {
	m := testPool(t)
	ctx := context.Background()
	user := time.Now().UnixNano()

	first := models.MatchSummary{
		RoomID:       uuid.New(),
		BlueUserID:   user,
		RedUserID:    user + 1,
		ScoreBlue:    5,
		ScoreRed:     2,
		WinnerUserID: user,
		Reason:       models.EndReasonScore,
		StartedAt:    time.Now().Add(-2 * time.Minute).UTC().Truncate(time.Millisecond),
		EndedAt:      time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond),
	}
	second := first
	second.RoomID = uuid.New()
	second.WinnerUserID = 0
	second.Reason = models.EndReasonAborted
	second.EndedAt = time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, m.SaveBatch(ctx, []models.MatchSummary{first, second}))
	require.NoError(t, m.Save(ctx, first), "replay is ignored")

	got, err := m.Recent(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.RoomID, got[0].RoomID)
	assert.Zero(t, got[0].WinnerUserID)
	assert.Equal(t, first.RoomID, got[1].RoomID)
	assert.Equal(t, user, got[1].WinnerUserID)
}

func TestUsersMissingIsNil(t *testing.T) {
	m := testPool(t)
	u := &Users{DB: m.DB}
	user, err := u.FindByUserSeq(context.Background(), -1)
	if err != nil {
		t.Skipf("users table unavailable: %v", err)
	}
	assert.Nil(t, user)
}

func TestSaveBatchEmpty(t *testing.T) {
	m := &Matches{}
	assert.NoError(t, m.SaveBatch(context.Background(), nil))
}

func TestRated(t *testing.T) {
	s := models.MatchSummary{IsRankGame: true, WinnerUserID: 1, Reason: models.EndReasonForfeit}
	assert.True(t, Rated(s))

	s.Reason = models.EndReasonAborted
	assert.False(t, Rated(s))

	s = models.MatchSummary{IsRankGame: false, WinnerUserID: 1, Reason: models.EndReasonScore}
	assert.False(t, Rated(s))
}

func TestRankedMatchUpdatesRatings(t *testing.T) {
	m := testPool(t)
	ctx := context.Background()
	winner := time.Now().UnixNano()
	loser := winner + 1

	require.NoError(t, m.Save(ctx, models.MatchSummary{
		RoomID:       uuid.New(),
		BlueUserID:   winner,
		RedUserID:    loser,
		ScoreBlue:    5,
		WinnerUserID: winner,
		IsRankGame:   true,
		Reason:       models.EndReasonScore,
		StartedAt:    time.Now(),
		EndedAt:      time.Now(),
	}))

	ratings := &Ratings{DB: m.DB}
	w, err := ratings.Get(ctx, winner)
	require.NoError(t, err)
	l, err := ratings.Get(ctx, loser)
	require.NoError(t, err)
	assert.Greater(t, w.Elo, 1500.0)
	assert.Less(t, l.Elo, 1500.0)
}

func TestAcceptedInvitationIsNotReturnedAgain(t *testing.T) {
	m := testPool(t)
	ctx := context.Background()
	_, err := m.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS alarms (
			alarm_seq    BIGSERIAL PRIMARY KEY,
			sender_seq   BIGINT NOT NULL,
			receiver_seq BIGINT NOT NULL,
			alarm_type   TEXT NOT NULL,
			is_read      BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		t.Skipf("alarms table unavailable: %v", err)
	}

	var id int64
	err = m.DB.QueryRow(ctx,
		`INSERT INTO alarms (sender_seq, receiver_seq, alarm_type) VALUES (1, 2, 'game_invite') RETURNING alarm_seq`,
	).Scan(&id)
	require.NoError(t, err)
	t.Cleanup(func() { m.DB.Exec(context.Background(), `DELETE FROM alarms WHERE alarm_seq = $1`, id) })

	inv := &Invitations{DB: m.DB}
	got, err := inv.GetInvitationByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ReceiverSeq)

	require.NoError(t, inv.MarkAccepted(ctx, id))
	got, err = inv.GetInvitationByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}
