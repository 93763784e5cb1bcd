package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/appraisal-cli/internal/model"
)

type countingClient struct {
	calls int
	stats *model.RentalMarketStats
	err   error
}

func (c *countingClient) GetRentalMarket(_ context.Context, zip string, bedrooms int, _ model.PropertyType) (*model.RentalMarketStats, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	s := *c.stats
	s.Zip = zip
	s.Bedrooms = bedrooms
	return &s, nil
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() }) //nolint:errcheck
	return mr, rdb
}

func TestCachedClient_ReadThrough(t *testing.T) {
	mr, rdb := newRedis(t)
	inner := &countingClient{stats: &model.RentalMarketStats{MedianRent: 2200, Reliable: true}}
	c := NewCachedClient(inner, rdb, time.Hour)
	ctx := context.Background()

	first, err := c.GetRentalMarket(ctx, "33101", 3, model.PropertyTypeSingleFamilyRental)
	require.NoError(t, err)
	second, err := c.GetRentalMarket(ctx, "33101", 3, model.PropertyTypeSingleFamilyRental)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("market:rents:33101:3:single_family_rental"))
	assert.Equal(t, time.Hour, mr.TTL("market:rents:33101:3:single_family_rental"))
}

func TestCachedClient_KeyIncludesBedrooms(t *testing.T) {
	_, rdb := newRedis(t)
	inner := &countingClient{stats: &model.RentalMarketStats{MedianRent: 2000}}
	c := NewCachedClient(inner, rdb, 0)

	_, err := c.GetRentalMarket(context.Background(), "33101", 2, "")
	require.NoError(t, err)
	_, err = c.GetRentalMarket(context.Background(), "33101", 3, "")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedClient_Expiry(t *testing.T) {
	mr, rdb := newRedis(t)
	inner := &countingClient{stats: &model.RentalMarketStats{MedianRent: 2000}}
	c := NewCachedClient(inner, rdb, time.Minute)
	ctx := context.Background()

	_, err := c.GetRentalMarket(ctx, "33101", 3, "")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = c.GetRentalMarket(ctx, "33101", 3, "")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedClient_CorruptEntry(t *testing.T) {
	mr, rdb := newRedis(t)
	require.NoError(t, mr.Set("market:rents:33101:3:default", "{not json"))
	inner := &countingClient{stats: &model.RentalMarketStats{MedianRent: 2100}}
	c := NewCachedClient(inner, rdb, time.Hour)

	stats, err := c.GetRentalMarket(context.Background(), "33101", 3, "")
	require.NoError(t, err)
	assert.Equal(t, 2100.0, stats.MedianRent)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedClient_RedisDown(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	inner := &countingClient{stats: &model.RentalMarketStats{MedianRent: 1900}}
	c := NewCachedClient(inner, rdb, time.Hour)

	stats, err := c.GetRentalMarket(context.Background(), "33101", 3, "")
	require.NoError(t, err)
	assert.Equal(t, 1900.0, stats.MedianRent)
}

func TestCachedClient_InnerErrorNotCached(t *testing.T) {
	mr, rdb := newRedis(t)
	inner := &countingClient{err: errors.New("upstream down")}
	c := NewCachedClient(inner, rdb, time.Hour)

	_, err := c.GetRentalMarket(context.Background(), "33101", 3, "")
	require.Error(t, err)
	assert.Empty(t, mr.Keys())
}
