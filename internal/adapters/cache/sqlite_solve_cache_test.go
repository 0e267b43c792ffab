package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"tour-playback-service/internal/adapters/repositories"
	"tour-playback-service/internal/domain"
)

func newSolveCacheDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repositories.InitSchema(db))
	return db
}

func TestSqliteSolveCacheRoundTrip(t *testing.T) {
	c := NewSqliteSolveCache(newSolveCacheDB(t), 0)
	ctx := context.Background()

	_, ok, err := c.GetSolve(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := &domain.SolveResult{
		Cities: []string{"A", "B"},
		Tour:   domain.Tour{0, 1},
		Cost:   7,
		Demand: map[int]float64{0: 100, 1: 110},
	}
	require.NoError(t, c.PutSolve(ctx, "k1", want))

	got, ok, err := c.GetSolve(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	want.Cost = 9
	require.NoError(t, c.PutSolve(ctx, "k1", want))
	got, _, err = c.GetSolve(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, 9.0, got.Cost)
}

func TestSqliteSolveCacheExpiry(t *testing.T) {
	c := NewSqliteSolveCache(newSolveCacheDB(t), time.Minute)
	now := time.UnixMilli(1_700_000_000_000)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.PutSolve(ctx, "k", &domain.SolveResult{Tour: domain.Tour{0}}))
	_, ok, err := c.GetSolve(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, err = c.GetSolve(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSqliteSolveCacheRejectsBadInput(t *testing.T) {
	c := NewSqliteSolveCache(newSolveCacheDB(t), 0)
	ctx := context.Background()

	assert.Error(t, c.PutSolve(ctx, "", &domain.SolveResult{}))
	assert.Error(t, c.PutSolve(ctx, "k", nil))
	_, _, err := c.GetSolve(ctx, "")
	assert.Error(t, err)

	var nilDB SqliteSolveCache
	_, _, err = nilDB.GetSolve(ctx, "k")
	assert.Error(t, err)
}
