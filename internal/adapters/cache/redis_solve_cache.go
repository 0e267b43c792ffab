package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/platform/obs"
)

const solveKeyPrefix = "tour:solve:"

// RedisSolveCache stores solver results as JSON under a TTL.
type RedisSolveCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSolveCache(client *redis.Client, ttl time.Duration) *RedisSolveCache {
	return &RedisSolveCache{client: client, ttl: ttl}
}

// Return the cached result for key; a miss is (nil, false, nil).
func (r *RedisSolveCache) GetSolve(ctx context.Context, key string) (_ *domain.SolveResult, _ bool, err error) {
	defer obs.Time(ctx, "solve.cache.Get")(&err)

	if r.client == nil {
		return nil, false, errors.New("solve cache: client is nil")
	}
	if key == "" {
		return nil, false, errors.New("get solve cache: key must not be empty")
	}

	b, err := r.client.Get(ctx, solveKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get solve cache: %w", err)
	}

	var res domain.SolveResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, false, fmt.Errorf("get solve cache: decode key=%q: %w", key, err)
	}
	return &res, true, nil
}

// Store res under key, replacing any previous entry.
func (r *RedisSolveCache) PutSolve(ctx context.Context, key string, res *domain.SolveResult) error {
	if r.client == nil {
		return errors.New("solve cache: client is nil")
	}
	if key == "" {
		return errors.New("insert solve cache: key must not be empty")
	}
	if res == nil {
		return errors.New("insert solve cache: result is nil")
	}

	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("insert solve cache: encode: %w", err)
	}
	if err := r.client.Set(ctx, solveKeyPrefix+key, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("insert solve cache key=%q: %w", key, err)
	}
	return nil
}
