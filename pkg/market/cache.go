package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// DefaultCacheTTL is how long cached market statistics stay fresh.
const DefaultCacheTTL = 24 * time.Hour

// CachedClient is a read-through Redis cache in front of a Client. Redis
// failures never fail a lookup; they fall through to the wrapped client.
type CachedClient struct {
	inner Client
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedClient wraps inner with a Redis cache. A non-positive ttl uses
// DefaultCacheTTL.
func NewCachedClient(inner Client, rdb *redis.Client, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedClient{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(zip string, bedrooms int, pt model.PropertyType) string {
	if pt == "" {
		pt = model.PropertyTypeDefault
	}
	return fmt.Sprintf("market:rents:%s:%d:%s", zip, bedrooms, pt)
}

// GetRentalMarket serves from cache when possible and stores fresh results.
func (c *CachedClient) GetRentalMarket(ctx context.Context, zip string, bedrooms int, pt model.PropertyType) (*model.RentalMarketStats, error) {
	key := cacheKey(zip, bedrooms, pt)
	log := zap.L().With(zap.String("key", key))

	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var stats model.RentalMarketStats
		if uerr := json.Unmarshal([]byte(val), &stats); uerr == nil {
			log.Debug("market: cache hit")
			return &stats, nil
		}
		log.Warn("market: discarding corrupt cache entry")
	case errors.Is(err, redis.Nil):
	default:
		log.Warn("market: cache read failed", zap.Error(err))
	}

	stats, err := c.inner.GetRentalMarket(ctx, zip, bedrooms, pt)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, eris.Errorf("market: no statistics for %s", key)
	}

	b, err := json.Marshal(stats)
	if err == nil {
		err = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	if err != nil {
		log.Warn("market: cache write failed", zap.Error(err))
	}
	return stats, nil
}
