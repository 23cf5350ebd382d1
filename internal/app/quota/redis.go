package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "asr:quota"

// RedisGate shares quota state between replicas through Redis.
//
// Quota events live in a sorted set scored by unix milliseconds; a cooldown
// is a plain key whose TTL is the remaining back-off.
type RedisGate struct {
	rdb    redis.UniversalClient
	cfg    Config
	prefix string
	now    func() time.Time
}

// NewRedisGate creates a gate on an existing client.
func NewRedisGate(rdb redis.UniversalClient, cfg Config, prefix string) *RedisGate {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisGate{rdb: rdb, cfg: cfg, prefix: prefix, now: time.Now}
}

func (g *RedisGate) eventsKey(provider string) string {
	return fmt.Sprintf("%s:%s:events", g.prefix, provider)
}

func (g *RedisGate) cooldownKey(provider string) string {
	return fmt.Sprintf("%s:%s:cooldown", g.prefix, provider)
}

// Allow implements Gate.
func (g *RedisGate) Allow(ctx context.Context, provider string) (bool, time.Time, error) {
	ttl, err := g.rdb.PTTL(ctx, g.cooldownKey(provider)).Result()
	if err != nil {
		return true, time.Time{}, fmt.Errorf("read quota cooldown: %w", err)
	}
	if ttl <= 0 {
		return true, time.Time{}, nil
	}
	return false, g.now().Add(ttl), nil
}

// RecordQuota implements Gate.
func (g *RedisGate) RecordQuota(ctx context.Context, provider string) error {
	if !g.cfg.Enabled() {
		return nil
	}

	now := g.now()
	key := g.eventsKey(provider)
	cutoff := now.Add(-g.cfg.Window).UnixMilli()

	pipe := g.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
	count := pipe.ZCard(ctx, key)
	pipe.PExpire(ctx, key, g.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record quota event: %w", err)
	}

	if count.Val() < int64(g.cfg.Threshold) {
		return nil
	}

	pipe = g.rdb.TxPipeline()
	pipe.Set(ctx, g.cooldownKey(provider), now.Add(g.cfg.Cooldown).Format(time.RFC3339), g.cfg.Cooldown)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("start quota cooldown: %w", err)
	}
	return nil
}
