package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-playback-service/internal/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSolveCacheRoundTrip(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewRedisSolveCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := c.GetSolve(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	want := &domain.SolveResult{
		Cities:        []string{"A", "B"},
		Tour:          domain.Tour{1, 0},
		Cost:          12.5,
		Demand:        map[int]float64{0: 100, 1: 240},
		TotalSupply:   340,
		SupplyWeight:  0.1,
		WeatherMatrix: [][]float64{{0, 2}, {6, 0}},
	}
	require.NoError(t, c.PutSolve(ctx, "abc", want))

	got, ok, err := c.GetSolve(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedisSolveCacheExpires(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisSolveCache(client, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.PutSolve(ctx, "k", &domain.SolveResult{Tour: domain.Tour{0}}))
	assert.Equal(t, 30*time.Second, mr.TTL(solveKeyPrefix+"k"))

	mr.FastForward(31 * time.Second)
	_, ok, err := c.GetSolve(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSolveCacheRejectsBadInput(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewRedisSolveCache(client, time.Minute)
	ctx := context.Background()

	require.Error(t, c.PutSolve(ctx, "", &domain.SolveResult{}))
	require.Error(t, c.PutSolve(ctx, "k", nil))
	_, _, err := c.GetSolve(ctx, "")
	require.Error(t, err)
}

func TestRedisSolveCacheSurfacesConnectionErrors(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisSolveCache(client, time.Minute)
	mr.Close()

	_, _, err := c.GetSolve(context.Background(), "k")
	require.Error(t, err)
}

func TestLRUFrameCacheEvictsOldest(t *testing.T) {
	c, err := NewLRUFrameCache(2)
	require.NoError(t, err)

	c.Add(1, []byte("one"))
	c.Add(2, []byte("two"))
	_, _ = c.Get(1)
	c.Add(3, []byte("three"))

	_, ok := c.Get(2)
	assert.False(t, ok)
	v, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, []byte("one"), v)
	assert.Equal(t, 2, c.Len())

	_, err = NewLRUFrameCache(0)
	require.Error(t, err)
}
