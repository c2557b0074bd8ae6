package redis

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboardgo/internal/config"
	"onboardgo/internal/models"
)

func TestNilAnalysisCacheIsDisabled(t *testing.T) {
	var cache *AnalysisCache
	assert.Nil(t, NewAnalysisCache(nil, time.Minute))

	gen, err := cache.Generation(context.Background())
	require.NoError(t, err)
	assert.Zero(t, gen)
	entry, ok, err := cache.Load(context.Background(), gen)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, entry)
	require.NoError(t, cache.Store(context.Background(), gen, &AnalysisEntry{}))
	require.NoError(t, cache.Invalidate(context.Background()))
}

func TestNilClientMethodsFail(t *testing.T) {
	var c *Client
	_, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	require.Error(t, c.Set(context.Background(), "k", "v", time.Second))
	_, err = c.Incr(context.Background(), "k")
	require.Error(t, err)
	require.NoError(t, c.Close())
	assert.Nil(t, c.Raw())
}

func TestAnalysisCacheStoreLoadInvalidate(t *testing.T) {
	client := newTestClient(t)
	cache := NewAnalysisCache(client, time.Minute)
	ctx := context.Background()

	entry := &AnalysisEntry{
		Analysis: models.Analysis{
			TotalSessions:     2,
			CompletionRate:    50,
			DropOffRates:      map[int]float64{1: 0, 2: 50, 3: 0, 4: 0, 5: 0},
			MostCommonDropOff: 2,
		},
		Insights: []string{"a", "b"},
		Source:   "rules",
	}
	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Store(ctx, gen, entry))

	got, ok, err := cache.Load(ctx, gen)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry, got)

	require.NoError(t, cache.Invalidate(ctx))
	next, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)
	_, ok, err = cache.Load(ctx, next)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAnalysisCacheStoreAfterInvalidateIsUnreachable(t *testing.T) {
	cache := NewAnalysisCache(newTestClient(t), time.Minute)
	ctx := context.Background()

	before, err := cache.Generation(ctx)
	require.NoError(t, err)
	// a write lands between reading the rows and caching the result
	require.NoError(t, cache.Invalidate(ctx))
	require.NoError(t, cache.Store(ctx, before, &AnalysisEntry{Insights: []string{"old"}}))

	current, err := cache.Generation(ctx)
	require.NoError(t, err)
	_, ok, err := cache.Load(ctx, current)
	require.NoError(t, err)
	assert.False(t, ok)
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed cache tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	db := 0
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			db = parsed
		}
	}
	client, err := NewRedisClient(config.RedisConfig{Host: host, Port: port, DB: db})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.Raw().FlushDB(ctx).Err())
	return client
}
