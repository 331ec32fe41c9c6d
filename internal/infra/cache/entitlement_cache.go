package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type EntitlementChecker interface {
	HasActivePro(ctx context.Context, userID string) (bool, error)
}

// EntitlementCache memoizes positive Pro checks for a short TTL. Negative results
// are never stored, so an upgrade takes effect on the next request. Redis errors
// fall through to the underlying checker.
type EntitlementCache struct {
	client *redis.Client
	next   EntitlementChecker
	ttl    time.Duration
	logger *slog.Logger
}

func NewEntitlementCache(client *redis.Client, next EntitlementChecker, ttl time.Duration, logger *slog.Logger) *EntitlementCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntitlementCache{client: client, next: next, ttl: ttl, logger: logger}
}

func entitlementKey(userID string) string {
	return "entitlement:pro:" + userID
}

func (c *EntitlementCache) HasActivePro(ctx context.Context, userID string) (bool, error) {
	key := entitlementKey(userID)

	v, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil && v == "1":
		return true, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.logger.Warn("entitlement cache read failed", slog.String("user_id", userID), slog.Any("err", err))
	}

	ok, err := c.next.HasActivePro(ctx, userID)
	if err != nil || !ok {
		return false, err
	}

	if err := c.client.Set(ctx, key, "1", c.ttl).Err(); err != nil {
		c.logger.Warn("entitlement cache write failed", slog.String("user_id", userID), slog.Any("err", err))
	}
	return true, nil
}
