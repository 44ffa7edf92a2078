package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/finforge/revcast/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SnapshotCacheStats tracks cache performance counters.
type SnapshotCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	mu     sync.Mutex
}

// SnapshotCache publishes the latest price snapshot per symbol to Redis so
// downstream viewers read a single JSON value instead of hitting the bars
// table.
type SnapshotCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
	stats  *SnapshotCacheStats
	prefix string
}

// NewSnapshotCache creates a Redis-backed snapshot cache.
func NewSnapshotCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *SnapshotCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &SnapshotCache{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
		stats:  &SnapshotCacheStats{},
		prefix: "price_snapshot:",
	}
}

// Set publishes a snapshot for its symbol.
func (c *SnapshotCache) Set(ctx context.Context, snapshot *models.PriceSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", snapshot.Symbol, err)
	}

	if err := c.redis.Set(ctx, c.prefix+snapshot.Symbol, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot for %s: %w", snapshot.Symbol, err)
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()
	return nil
}

// Get retrieves the latest snapshot for a symbol. The second return value
// reports whether the snapshot was present.
func (c *SnapshotCache) Get(ctx context.Context, symbol string) (*models.PriceSnapshot, bool) {
	data, err := c.redis.Get(ctx, c.prefix+symbol).Result()
	if err == redis.Nil {
		c.miss()
		return nil, false
	}
	if err != nil {
		c.logger.WithField("symbol", symbol).WithError(err).Warn("Redis error reading snapshot")
		c.miss()
		return nil, false
	}

	var snapshot models.PriceSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		c.logger.WithField("symbol", symbol).WithError(err).Warn("Error decoding cached snapshot")
		c.miss()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	return &snapshot, true
}

// Stats returns a copy of the current counters.
func (c *SnapshotCache) Stats() SnapshotCacheStats {
	c.stats.mu.Lock()
	defer c.stats.mu.Unlock()
	return SnapshotCacheStats{Hits: c.stats.Hits, Misses: c.stats.Misses, Sets: c.stats.Sets}
}

func (c *SnapshotCache) miss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}
