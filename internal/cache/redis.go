package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/db"
)

const likeCountTTL = time.Hour

// A removed match leaves a tombstone behind so that a lookup which read the
// row before the delete cannot fill the cache with it afterwards.
const (
	matchTombstone    = "-"
	matchTombstoneTTL = 30 * time.Second
)

type RedisCache struct {
	Client   *redis.Client
	MatchTTL time.Duration
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return NewWithClient(redis.NewClient(opts), cfg.Redis.MatchTTL)
}

// NewWithClient wraps an existing client, e.g. one pointed at miniredis.
func NewWithClient(client *redis.Client, matchTTL time.Duration) *RedisCache {
	if matchTTL <= 0 {
		matchTTL = 10 * time.Minute
	}
	return &RedisCache{Client: client, MatchTTL: matchTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForMatch is the same for (a,b) and (b,a).
func KeyForMatch(a, b string) string {
	return "match:" + db.PairKey(a, b)
}

// GetMatch returns the cached match for the pair, or nil on a miss.
func (c *RedisCache) GetMatch(ctx context.Context, a, b string) (*db.Match, error) {
	raw, err := c.Client.Get(ctx, KeyForMatch(a, b)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	} else if err != nil {
		return nil, err
	}
	if string(raw) == matchTombstone {
		return nil, nil
	}
	var m db.Match
	if err := json.Unmarshal(raw, &m); err != nil {
		// corrupt entry, drop it and treat as a miss
		_ = c.Client.Del(ctx, KeyForMatch(a, b)).Err()
		return nil, nil
	}
	m.PairKey = db.PairKey(m.UserA, m.UserB)
	return &m, nil
}

// SetMatch caches a freshly created match, replacing whatever is there.
func (c *RedisCache) SetMatch(ctx context.Context, m *db.Match) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode match: %w", err)
	}
	return c.Client.Set(ctx, KeyForMatch(m.UserA, m.UserB), raw, c.MatchTTL).Err()
}

// FillMatch caches a match read back from the DB. It only writes when the key
// is absent, so it never resurrects a tombstoned pair. Reports whether it wrote.
func (c *RedisCache) FillMatch(ctx context.Context, m *db.Match) (bool, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return false, fmt.Errorf("failed to encode match: %w", err)
	}
	return c.Client.SetNX(ctx, KeyForMatch(m.UserA, m.UserB), raw, c.MatchTTL).Result()
}

// DelMatch replaces the pair's entry with a short-lived tombstone.
func (c *RedisCache) DelMatch(ctx context.Context, a, b string) error {
	return c.Client.Set(ctx, KeyForMatch(a, b), matchTombstone, matchTombstoneTTL).Err()
}

// KeyForLikeCount generates Redis key for a user's like count
func KeyForLikeCount(userID string) string {
	return "likes:count:" + userID
}

func (c *RedisCache) SetLikeCount(ctx context.Context, userID string, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, KeyForLikeCount(userID), count, likeCountTTL).Err()
}

// GetLikeCount returns the cached count; ok is false on a miss.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID string) (count int64, ok bool, err error) {
	key := KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, likeCountTTL).Err()
	count, err = strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func (c *RedisCache) InvalidateLikeCount(ctx context.Context, userID string) error {
	return c.Client.Del(ctx, KeyForLikeCount(userID)).Err()
}
