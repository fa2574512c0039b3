package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T, cache Cache, ttl time.Duration) *Executor {
	t.Helper()
	e, err := NewExecutor(map[string]string{"app": ":memory:"}, cache, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestRun_SelectsRows(t *testing.T) {
	e := newTestExecutor(t, nil, 0)

	res, err := e.Run(context.Background(), 1, "app", "SELECT 1 AS n, 'x' AS s")
	require.NoError(t, err)
	require.Equal(t, []string{"n", "s"}, res.Columns)
	require.Equal(t, 1, res.RowCount)
	require.Equal(t, []any{int64(1), "x"}, res.Rows[0])
	require.False(t, res.Cached)
}

func TestRun_UnknownDatabase(t *testing.T) {
	e := newTestExecutor(t, nil, 0)
	_, err := e.Run(context.Background(), 1, "warehouse", "SELECT 1")
	require.True(t, ErrUnknownDatabase.Has(err))
}

func TestRun_RejectsNonSelect(t *testing.T) {
	e := newTestExecutor(t, nil, 0)
	for _, q := range []string{
		"",
		"DELETE FROM users",
		"UPDATE users SET email = 'x'",
		"DROP TABLE users",
		"SELECT 1; DROP TABLE users",
	} {
		_, err := e.Run(context.Background(), 1, "app", q)
		require.Truef(t, ErrRejectedQuery.Has(err), "query %q: err = %v", q, err)
	}

	// A trailing semicolon alone is still a single statement.
	_, err := e.Run(context.Background(), 1, "app", "SELECT 1;")
	require.NoError(t, err)

	// CTEs count as read-only.
	_, err = e.Run(context.Background(), 1, "app", "WITH t(n) AS (SELECT 1) SELECT n FROM t")
	require.NoError(t, err)
}

func TestRun_CacheHit(t *testing.T) {
	e := newTestExecutor(t, NewMemoryCache(), time.Minute)

	first, err := e.Run(context.Background(), 1, "app", "SELECT 42 AS answer")
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := e.Run(context.Background(), 1, "app", "SELECT 42 AS answer")
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.Columns, second.Columns)
	require.Equal(t, first.RowCount, second.RowCount)

	// A different query misses.
	third, err := e.Run(context.Background(), 1, "app", "SELECT 43 AS answer")
	require.NoError(t, err)
	require.False(t, third.Cached)
}

func TestMemoryCache_TTL(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Nanosecond))
	time.Sleep(2 * time.Millisecond)
	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, []byte("v"), val)
}
