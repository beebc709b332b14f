package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/pong/internal/models"
	"github.com/redis/go-redis/v9"
)

// HistoryQueue is a Redis list of finished match summaries. The game server pushes,
// the historian pops and persists.
type HistoryQueue struct {
	rdb  *redis.Client
	name string
}

func NewHistoryQueue(rdb *redis.Client, name string) *HistoryQueue {
	return &HistoryQueue{rdb: rdb, name: name}
}

// Save serializes the summary and pushes it onto the queue.
func (q *HistoryQueue) Save(ctx context.Context, summary models.MatchSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal MatchSummary: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

// Pop waits up to timeout for the next summary. It returns (nil, nil) on timeout.
// Undecodable entries are reported as errors and are not requeued.
func (q *HistoryQueue) Pop(ctx context.Context, timeout time.Duration) (*models.MatchSummary, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop %s: %w", q.name, err)
	}
	if len(res) < 2 {
		return nil, nil
	}

	// res[0] is the queue name and res[1] the payload.
	var summary models.MatchSummary
	if err := json.Unmarshal([]byte(res[1]), &summary); err != nil {
		return nil, fmt.Errorf("invalid match summary: %w", err)
	}
	return &summary, nil
}

// Len returns the number of summaries waiting to be persisted.
func (q *HistoryQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
