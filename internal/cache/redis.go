package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/loveknot/internal/config"
)

// BiodataSequenceKey holds the last allocated public biodata id.
const BiodataSequenceKey = "seq:biodata"

type RedisCache struct {
	Client *redis.Client
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
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// NextSequence atomically allocates the next value of the counter at key.
//
// Behavior:
//   - If the key is missing, it is seeded with floor(ctx) via SETNX, so
//     concurrent seeders cannot overwrite each other or a live counter.
//   - The value is then advanced with INCR; every caller gets a distinct value.
//
// Example:
//
//	c.NextSequence(ctx, BiodataSequenceKey, profiles.MaxBiodataID) // -> 21
func (c *RedisCache) NextSequence(
	ctx context.Context,
	key string,
	floor func(context.Context) (int64, error),
) (int64, error) {
	exists, err := c.Client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("check sequence %s: %w", key, err)
	}
	if exists == 0 {
		base, err := floor(ctx)
		if err != nil {
			return 0, fmt.Errorf("seed sequence %s: %w", key, err)
		}
		if err := c.Client.SetNX(ctx, key, base, 0).Err(); err != nil {
			return 0, fmt.Errorf("seed sequence %s: %w", key, err)
		}
	}

	next, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", key, err)
	}
	return next, nil
}

// raiseScript sets KEYS[1] to ARGV[1] only when the stored value is lower.
var raiseScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if current < floor then
  redis.call('SET', KEYS[1], floor)
  return floor
end
return current
`)

// RaiseSequence moves the counter at key up to atLeast, never down.
// Used after a unique-index conflict reveals the counter fell behind the table.
func (c *RedisCache) RaiseSequence(ctx context.Context, key string, atLeast int64) error {
	if err := raiseScript.Run(ctx, c.Client, []string{key}, atLeast).Err(); err != nil {
		return fmt.Errorf("raise sequence %s: %w", key, err)
	}
	return nil
}

// ResetSequence drops the counter so the next allocation re-reads its floor.
func (c *RedisCache) ResetSequence(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}
