package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flagtactics/playbook/internal/playbook"
)

// ShareCache keeps recently read share snapshots close to the public
// endpoint. Misses and cache failures fall through to the store.
type ShareCache interface {
	Get(ctx context.Context, shareID string) (playbook.SharedFolder, bool)
	Set(ctx context.Context, s playbook.SharedFolder)
	Delete(ctx context.Context, shareID string)
}

type noShareCache struct{}

func (noShareCache) Get(context.Context, string) (playbook.SharedFolder, bool) {
	return playbook.SharedFolder{}, false
}
func (noShareCache) Set(context.Context, playbook.SharedFolder) {}
func (noShareCache) Delete(context.Context, string)             {}

// RedisShareCache stores snapshots under "share:{id}" in their document
// encoding.
type RedisShareCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewRedisShareCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisShareCache {
	return &RedisShareCache{rdb: rdb, ttl: ttl, logger: logger, now: time.Now}
}

func shareKey(id string) string { return "share:" + id }

func (c *RedisShareCache) Get(ctx context.Context, shareID string) (playbook.SharedFolder, bool) {
	raw, err := c.rdb.Get(ctx, shareKey(shareID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("share cache read failed", "share_id", shareID, "error", err)
		}
		return playbook.SharedFolder{}, false
	}
	s, err := playbook.DecodeSnapshot(raw)
	if err != nil {
		c.logger.Warn("share cache entry undecodable", "share_id", shareID, "error", err)
		return playbook.SharedFolder{}, false
	}
	return s, true
}

// Set caches s for the configured TTL, or until the snapshot expires if
// that comes first.
func (c *RedisShareCache) Set(ctx context.Context, s playbook.SharedFolder) {
	ttl := c.ttl
	if s.ExpiresAt != nil {
		left := s.ExpiresAt.Sub(c.now())
		if left <= 0 {
			return
		}
		ttl = min(ttl, left)
	}
	raw, err := playbook.EncodeSnapshot(s)
	if err != nil {
		c.logger.Warn("share cache encode failed", "share_id", s.ShareID, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, shareKey(s.ShareID), raw, ttl).Err(); err != nil {
		c.logger.Warn("share cache write failed", "share_id", s.ShareID, "error", err)
	}
}

func (c *RedisShareCache) Delete(ctx context.Context, shareID string) {
	if err := c.rdb.Del(ctx, shareKey(shareID)).Err(); err != nil {
		c.logger.Warn("share cache delete failed", "share_id", shareID, "error", err)
	}
}
