// Package history tracks which posts were already grabbed so repeated runs
// and the watch loop do not fetch the same media twice.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	KeySeen      = "seen" // STRING. seen:{post_id} set via SETNX with EX (TTL). Cuts off repeated grabs.
	KeyGrabStats = "gs"   // HASH. Maps a subreddit to its grab counter. Allows atomic increment. HINCRBY gs {subreddit} 1

	KeySeparator = ":"
)

type redisHistory struct {
	cl  *redis.Client
	ttl time.Duration
	log *slog.Logger
}

// NewRedisHistory stores the seen set in redis. A ttl of zero keeps seen
// marks forever.
func NewRedisHistory(cl *redis.Client, ttl time.Duration, log *slog.Logger) *redisHistory {
	return &redisHistory{
		cl:  cl,
		ttl: ttl,
		log: log.With(slog.String("item", "RedisHistory")),
	}
}

func (r *redisHistory) Seen(ctx context.Context, postID string) (bool, error) {
	res, err := r.cl.Exists(ctx, getKey(KeySeen, postID)).Result()
	if err != nil {
		return false, fmt.Errorf("cannot check post %s seen: %w", postID, err)
	}

	return res > 0, nil
}

func (r *redisHistory) MarkSeen(ctx context.Context, postID string) error {
	if _, err := r.cl.SetNX(ctx, getKey(KeySeen, postID), "1", r.ttl).Result(); err != nil {
		return fmt.Errorf("cannot mark post %s seen: %w", postID, err)
	}

	return nil
}

func (r *redisHistory) IncGrabCount(ctx context.Context, subreddit string) (int64, error) {
	counter, err := r.cl.HIncrBy(ctx, KeyGrabStats, subreddit, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("cannot increment subreddit %s counter: %w", subreddit, err)
	}

	return counter, nil
}

func getKey(keys ...string) string {
	return strings.Join(keys, KeySeparator)
}
