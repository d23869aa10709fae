package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/betablockz/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const statsCachePrefix = "stats:"

// StatsCache memoizes computed window stats in Redis. A nil client turns
// every call into a miss, matching a server started without Redis.
//
// Each value carries the account version it was computed from; a value
// written by a reader that lost a race with a wager carries an older version
// and is treated as a miss.
type StatsCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{redis: rdb, ttl: ttl}
}

type cachedStats struct {
	Version int                 `json:"version"`
	Stats   models.AccountStats `json:"stats"`
}

func statsKey(accountID string) string {
	return statsCachePrefix + accountID
}

// Get returns the cached stats only when they were computed at version.
func (c *StatsCache) Get(ctx context.Context, accountID string, version int) (models.AccountStats, bool) {
	if c == nil || c.redis == nil || c.ttl <= 0 {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, statsKey(accountID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("account_id", accountID).Msg("[STATS-CACHE] read failed")
		}
		return nil, false
	}

	var cached cachedStats
	if err := json.Unmarshal(raw, &cached); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("[STATS-CACHE] corrupt entry")
		return nil, false
	}
	if cached.Version != version || cached.Stats == nil {
		log.Debug().
			Str("account_id", accountID).
			Int("cached_version", cached.Version).
			Int("version", version).
			Msg("[STATS-CACHE] stale entry")
		return nil, false
	}
	return cached.Stats, true
}

// Set stores stats tagged with the account version read before their entries.
func (c *StatsCache) Set(ctx context.Context, accountID string, version int, stats models.AccountStats) {
	if c == nil || c.redis == nil || c.ttl <= 0 {
		return
	}

	raw, err := json.Marshal(cachedStats{Version: version, Stats: stats})
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, statsKey(accountID), raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("[STATS-CACHE] write failed")
	}
}

// Invalidate drops the cached stats after any wager commits for the account.
func (c *StatsCache) Invalidate(ctx context.Context, accountID string) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, statsKey(accountID)).Err(); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("[STATS-CACHE] invalidate failed")
	}
}
