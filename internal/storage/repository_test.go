package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func repositories(t *testing.T) map[string]ClientStateRepository {
	return map[string]ClientStateRepository{
		"sqlite": newSQLite(t),
		"memory": NewMemoryRepository(),
	}
}

func TestClientStateRepository_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := repo.Get(ctx, "s1", "authToken")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, repo.Put(ctx, "s1", "authToken", "tok1"))
			require.NoError(t, repo.Put(ctx, "s1", "authToken", "tok2"))
			require.NoError(t, repo.Put(ctx, "s2", "authToken", "other"))

			v, ok, err := repo.Get(ctx, "s1", "authToken")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "tok2", v)

			require.NoError(t, repo.Delete(ctx, "s1", "authToken"))
			_, ok, err = repo.Get(ctx, "s1", "authToken")
			require.NoError(t, err)
			assert.False(t, ok)

			v, ok, err = repo.Get(ctx, "s2", "authToken")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "other", v)

			require.NoError(t, repo.DeleteSession(ctx, "s2"))
			_, ok, err = repo.Get(ctx, "s2", "authToken")
			require.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, repo.Ping(ctx))
		})
	}
}

func TestSQLiteRepository_PurgeStale(t *testing.T) {
	ctx := context.Background()
	repo := newSQLite(t)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Put(ctx, "old", "authToken", "a"))

	repo.now = func() time.Time { return base.Add(2 * time.Hour) }
	require.NoError(t, repo.Put(ctx, "fresh", "authToken", "b"))

	n, err := repo.PurgeStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err := repo.Get(ctx, "old", "authToken")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = repo.Get(ctx, "fresh", "authToken")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryRepository_PurgeStale(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Put(ctx, "old", "authToken", "a"))
	repo.now = func() time.Time { return base.Add(2 * time.Hour) }

	n, err := repo.PurgeStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	v1, err := RunMigrations(path)
	require.NoError(t, err)
	v2, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v1)
	assert.Equal(t, v1, v2)
}
