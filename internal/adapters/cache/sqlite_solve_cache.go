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

// SQLite backed cache of solver results, for deployments without Redis.
// Entries past their expiry read as misses; a zero ttl never expires.
type SqliteSolveCache struct {
	DB  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSqliteSolveCache(db *sql.DB, ttl time.Duration) *SqliteSolveCache {
	return &SqliteSolveCache{DB: db, ttl: ttl, now: time.Now}
}

func (s *SqliteSolveCache) GetSolve(ctx context.Context, key string) (_ *domain.SolveResult, _ bool, err error) {
	defer obs.Time(ctx, "solve.cache.sqlite.Get")(&err)

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
	WHERE cache_key = ?;
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

func (s *SqliteSolveCache) PutSolve(ctx context.Context, key string, res *domain.SolveResult) error {
	if s.DB == nil {
		return errors.New("solve cache: db is nil")
	}
	raw, expiresAt, err := encodeEntry(key, res, s.ttl, s.now())
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO solve_cache (
		cache_key,
		result,
		expires_at
	)
	VALUES (?, ?, ?)
	`, key, raw, expiresAt)
	if err != nil {
		return fmt.Errorf("insert solve cache key=%q: %w", key, err)
	}
	return nil
}

func encodeEntry(key string, res *domain.SolveResult, ttl time.Duration, now time.Time) (string, sql.NullInt64, error) {
	if key == "" {
		return "", sql.NullInt64{}, errors.New("insert solve cache: key must not be empty")
	}
	if res == nil {
		return "", sql.NullInt64{}, errors.New("insert solve cache: result is nil")
	}

	b, err := json.Marshal(res)
	if err != nil {
		return "", sql.NullInt64{}, fmt.Errorf("insert solve cache: encode: %w", err)
	}

	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).UnixMilli(), Valid: true}
	}
	return string(b), expiresAt, nil
}

func expired(expiresAt sql.NullInt64, now time.Time) bool {
	return expiresAt.Valid && expiresAt.Int64 <= now.UnixMilli()
}
