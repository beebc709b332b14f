package matchmaking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/pong/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(userID int64) models.PlayerSession {
	return models.PlayerSession{UserID: userID, ConnID: uuid.New()}
}

func casual() models.RulePreference {
	return models.RulePreference{BallSpeed: 1, PaddleSize: 1, MatchScore: 5}
}

func ranked() models.RulePreference {
	r := casual()
	r.IsRankGame = true
	return r
}

// TestEnqueueMatchesInArrivalOrder checks that the first arrival takes the blue role.
func TestEnqueueMatchesInArrivalOrder(t *testing.T) {
	q := NewQueue()
	a, b := session(1), session(2)

	pair, err := q.Enqueue(a, casual())
	require.NoError(t, err)
	assert.Nil(t, pair, "first player should wait")
	assert.Equal(t, 1, q.Len())

	pair, err = q.Enqueue(b, casual())
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, int64(1), pair.Blue.Session.UserID)
	assert.Equal(t, int64(2), pair.Red.Session.UserID)
	assert.Equal(t, 0, q.Len(), "both entries leave the queue on match")
	assert.False(t, q.Contains(1))
	assert.False(t, q.Contains(2))
}

func TestEnqueueKeepsClassesApart(t *testing.T) {
	q := NewQueue()

	pair, err := q.Enqueue(session(1), casual())
	require.NoError(t, err)
	assert.Nil(t, pair)

	pair, err = q.Enqueue(session(2), ranked())
	require.NoError(t, err)
	assert.Nil(t, pair, "ranked and casual players never pair")
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 1, q.LenClass(true))
	assert.Equal(t, 1, q.LenClass(false))

	pair, err = q.Enqueue(session(3), ranked())
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, int64(2), pair.Blue.Session.UserID)
	assert.Equal(t, int64(3), pair.Red.Session.UserID)
	assert.Equal(t, 1, q.Len())
}

func TestEnqueueRejectsDuplicates(t *testing.T) {
	q := NewQueue()
	s := session(7)

	_, err := q.Enqueue(s, casual())
	require.NoError(t, err)

	_, err = q.Enqueue(s, casual())
	assert.ErrorIs(t, err, ErrAlreadyQueued)
	_, err = q.Enqueue(s, ranked())
	assert.ErrorIs(t, err, ErrAlreadyQueued)
	assert.Equal(t, 1, q.Len(), "queue size is unchanged by a rejected enqueue")
}

func TestEnqueueRejectsPlayersInGame(t *testing.T) {
	q := NewQueue()
	s := session(7)
	s.InGame = true
	s.RoomID = uuid.New()

	_, err := q.Enqueue(s, casual())
	assert.ErrorIs(t, err, ErrAlreadyInGame)
	assert.Equal(t, 0, q.Len())
}

func TestEnqueueValidatesRule(t *testing.T) {
	q := NewQueue()
	bad := casual()
	bad.MatchScore = 0

	_, err := q.Enqueue(session(1), bad)
	assert.ErrorIs(t, err, models.ErrInvalidRule)
	assert.Equal(t, 0, q.Len())
}

func TestDequeue(t *testing.T) {
	q := NewQueue()
	s := session(4)

	assert.False(t, q.Dequeue(s, casual()), "dequeue of a non-queued session is false")
	assert.Equal(t, 0, q.Len())

	_, err := q.Enqueue(s, casual())
	require.NoError(t, err)
	assert.True(t, q.Dequeue(s, casual()))
	assert.Equal(t, 0, q.Len())
	assert.False(t, q.Dequeue(s, casual()), "second dequeue is a no-op")

	// the slot is free again
	_, err = q.Enqueue(s, casual())
	assert.NoError(t, err)
}

func TestDequeueDoesNotBreakFIFO(t *testing.T) {
	q := NewQueue()
	_, _ = q.Enqueue(session(1), casual())
	require.True(t, q.Remove(1))
	_, _ = q.Enqueue(session(2), casual())

	pair, err := q.Enqueue(session(3), casual())
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, int64(2), pair.Blue.Session.UserID)
}

func TestExpireOlderThan(t *testing.T) {
	q := NewQueue()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	q.now = func() time.Time { return now }

	_, _ = q.Enqueue(session(1), casual())
	now = base.Add(50 * time.Second)
	_, _ = q.Enqueue(session(2), ranked())

	now = base.Add(70 * time.Second)
	expired := q.ExpireOlderThan(time.Minute)
	require.Len(t, expired, 1)
	assert.Equal(t, int64(1), expired[0].Session.UserID)
	assert.False(t, q.Contains(1))
	assert.True(t, q.Contains(2))
	assert.Equal(t, 1, q.Len())
}

// TestQueueSizeInvariant walks a sequence of operations and checks the size delta
// after each one: a match removes two entries, other calls change size by at most one.
func TestQueueSizeInvariant(t *testing.T) {
	q := NewQueue()
	ops := []struct {
		user    int64
		rule    models.RulePreference
		dequeue bool
		delta   int
	}{
		{user: 1, rule: casual(), delta: 1},
		{user: 2, rule: ranked(), delta: 1},
		{user: 3, rule: casual(), delta: -1},
		{user: 9, rule: casual(), dequeue: true, delta: 0},
		{user: 2, rule: ranked(), dequeue: true, delta: -1},
		{user: 4, rule: ranked(), delta: 1},
		{user: 5, rule: ranked(), delta: -1},
	}
	for _, op := range ops {
		before := q.Len()
		if op.dequeue {
			q.Dequeue(session(op.user), op.rule)
		} else {
			_, err := q.Enqueue(session(op.user), op.rule)
			require.NoError(t, err)
		}
		assert.Equal(t, before+op.delta, q.Len(), "user %d", op.user)
	}
}

func TestRequeueKeepsArrivalOrder(t *testing.T) {
	q := NewQueue()
	early := Entry{Session: session(1), Rule: casual(), EnqueuedAt: time.Now().Add(-time.Minute)}

	pair, err := q.Requeue(early)
	require.NoError(t, err)
	assert.Nil(t, pair)
	assert.True(t, q.Contains(1))

	_, err = q.Requeue(early)
	assert.ErrorIs(t, err, ErrAlreadyQueued)

	pair, err = q.Enqueue(session(2), casual())
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, int64(1), pair.Blue.Session.UserID)
	assert.Equal(t, int64(2), pair.Red.Session.UserID)
}

func TestRequeuePairsEarlierArrivalAsBlue(t *testing.T) {
	q := NewQueue()
	_, err := q.Enqueue(session(2), casual())
	require.NoError(t, err)

	pair, err := q.Requeue(Entry{Session: session(1), Rule: casual(), EnqueuedAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, int64(1), pair.Blue.Session.UserID)
	assert.Equal(t, int64(2), pair.Red.Session.UserID)
	assert.Zero(t, q.Len())
}
