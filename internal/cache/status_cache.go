package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StatusCache keeps the list of external order statuses until the end of the
// local day, so the admin filter does not hit the store API on every render.
type StatusCache struct {
	redis *RedisClient
	loc   *time.Location
	now   func() time.Time
}

// NewStatusCache creates a new StatusCache; day boundaries follow loc.
func NewStatusCache(redis *RedisClient, loc *time.Location) *StatusCache {
	return &StatusCache{redis: redis, loc: loc, now: time.Now}
}

func (c *StatusCache) key(alias string) string {
	return fmt.Sprintf("yampi:statuses:%s", alias)
}

// ttlUntilEndOfDay returns the time left until 23:59:59 local.
func ttlUntilEndOfDay(now time.Time, loc *time.Location) time.Duration {
	now = now.In(loc)
	eod := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, loc)
	return eod.Sub(now)
}

// Get loads cached statuses into dst. It reports false on a miss.
func (c *StatusCache) Get(ctx context.Context, alias string, dst any) (bool, error) {
	raw, err := c.redis.Get(ctx, c.key(alias))
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal statuses: %w", err)
	}
	return true, nil
}

// Set stores statuses for alias until the end of the day.
func (c *StatusCache) Set(ctx context.Context, alias string, statuses any) error {
	ttl := ttlUntilEndOfDay(c.now(), c.loc)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(statuses)
	if err != nil {
		return fmt.Errorf("failed to marshal statuses: %w", err)
	}
	return c.redis.Set(ctx, c.key(alias), string(data), ttl)
}

// Invalidate drops cached statuses, used after credentials change.
func (c *StatusCache) Invalidate(ctx context.Context, alias string) error {
	return c.redis.Delete(ctx, c.key(alias))
}
