package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskforge/api/internal/models"
)

// StatsCache keeps per-user status counts warm between task mutations. Every
// mutation invalidates the owner's entry, so a warm read can never disagree
// with what a scan of the tasks table would return.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(userID string) string {
	return fmt.Sprintf("stats:user:%s", userID)
}

func (c *StatsCache) Get(ctx context.Context, userID string) (models.TaskStats, bool) {
	raw, err := c.client.Get(ctx, statsKey(userID)).Bytes()
	if err != nil {
		return models.TaskStats{}, false
	}

	var stats models.TaskStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return models.TaskStats{}, false
	}
	return stats, true
}

func (c *StatsCache) Set(ctx context.Context, userID string, stats models.TaskStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	return c.client.Set(ctx, statsKey(userID), raw, c.ttl).Err()
}

func (c *StatsCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, statsKey(userID)).Err()
}
