package cache

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Presence keeps the set of user seqs with at least one open game connection so
// other platform services can show who is online.
type Presence struct {
	rdb *redis.Client
	key string
}

func NewPresence(rdb *redis.Client, key string) *Presence {
	return &Presence{rdb: rdb, key: key}
}

func (p *Presence) SetOnline(ctx context.Context, userSeq int64) error {
	return p.rdb.SAdd(ctx, p.key, strconv.FormatInt(userSeq, 10)).Err()
}

func (p *Presence) SetOffline(ctx context.Context, userSeq int64) error {
	return p.rdb.SRem(ctx, p.key, strconv.FormatInt(userSeq, 10)).Err()
}

func (p *Presence) IsOnline(ctx context.Context, userSeq int64) (bool, error) {
	return p.rdb.SIsMember(ctx, p.key, strconv.FormatInt(userSeq, 10)).Result()
}

// Count returns the number of online users.
func (p *Presence) Count(ctx context.Context) (int64, error) {
	return p.rdb.SCard(ctx, p.key).Result()
}

// Reset clears the set. The server calls it on startup since connections do not
// survive a restart.
func (p *Presence) Reset(ctx context.Context) error {
	return p.rdb.Del(ctx, p.key).Err()
}
