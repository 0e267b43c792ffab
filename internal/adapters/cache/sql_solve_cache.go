package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/platform/obs"
)

// SQLSolveCache is the Postgres flavour of SqliteSolveCache.
type SQLSolveCache struct {
	DB  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLSolveCache(db *sql.DB, ttl time.Duration) *SQLSolveCache {
	return &SQLSolveCache{DB: db, ttl: ttl, now: time.Now}
}

func (s *SQLSolveCache) GetSolve(ctx context.Context, key string) (_ *domain.SolveResult, _ bool, err error) {
	defer obs.Time(ctx, "solve.cache.sql.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("solve cache: db is nil")
	}
	if key == "" {
		return nil, false, errors.New("get solve cache: key must not be empty")
	}

	q := `
	SELECT
		result,
		expires_at
	FROM solve_cache
	WHERE cache_key = $1;
	`

	var (
		raw       string
		expiresAt sql.NullInt64
	)
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&raw, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get solve cache: query solve_cache table: %w", err)
	}
	if expired(expiresAt, s.now()) {
		return nil, false, nil
	}

	var res domain.SolveResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, false, fmt.Errorf("get solve cache: decode key=%q: %w", key, err)
	}
	return &res, true, nil
}

func (s *SQLSolveCache) PutSolve(ctx context.Context, key string, res *domain.SolveResult) (err error) {
	defer obs.Time(ctx, "solve.cache.sql.Put")(&err)

	if s.DB == nil {
		return errors.New("solve cache: db is nil")
	}
	raw, expiresAt, err := encodeEntry(key, res, s.ttl, s.now())
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO solve_cache (
		cache_key,
		result,
		expires_at
	)
	VALUES ($1, $2, $3)
	ON CONFLICT (cache_key) DO UPDATE SET
		result = EXCLUDED.result,
		expires_at = EXCLUDED.expires_at
	`, key, raw, expiresAt)
	if err != nil {
		return fmt.Errorf("insert solve cache key=%q: %w", key, err)
	}
	return nil
}
