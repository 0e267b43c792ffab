package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/ports"
)

// CachedSolver serves repeated identical requests from a SolveCache.
// Cache failures are logged and fall through to the wrapped solver;
// solver failures are never cached.
type CachedSolver struct {
	next  ports.Solver
	cache ports.SolveCache
}

func NewCachedSolver(next ports.Solver, cache ports.SolveCache) *CachedSolver {
	return &CachedSolver{next: next, cache: cache}
}

func (c *CachedSolver) Solve(ctx context.Context, req domain.SolveRequest) (*domain.SolveResult, error) {
	key, err := RequestKey(req)
	if err != nil {
		return nil, err
	}

	if res, ok, err := c.cache.GetSolve(ctx, key); err != nil {
		log.Printf("solve cache read failed key=%s: %v", key, err)
	} else if ok {
		return res, nil
	}

	res, err := c.next.Solve(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.cache.PutSolve(ctx, key, res); err != nil {
		log.Printf("solve cache write failed key=%s: %v", key, err)
	}
	return res, nil
}

// RequestKey digests every field of req. Weather map keys are encoded in
// sorted order, so equal requests always share a key.
func RequestKey(req domain.SolveRequest) (string, error) {
	b, err := json.Marshal(apiSolveRequest{
		CSVData:      req.CSVData,
		WeatherMap:   req.WeatherMap,
		SupplyWeight: req.SupplyWeight,
		StressFactor: req.StressFactor,
	})
	if err != nil {
		return "", fmt.Errorf("solve request key: %w", err)
	}
	return strconv.FormatUint(xxhash.Sum64(b), 16), nil
}
