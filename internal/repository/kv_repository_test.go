package repository

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countdown/backend/internal/db"
)

func newTestRepository(t *testing.T) *KVRepository {
	t.Helper()

	_, currentFile, _, ok := runtime.Caller(0)
	require.True(t, ok)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")

	database, err := db.OpenSQLite(db.DriverCGO, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, err = db.RunMigrations(context.Background(), database, migrationsDir)
	require.NoError(t, err)
	return NewKVRepository(database)
}

func TestKVRepositoryPutGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.Get(ctx, KeyTimers)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Put(ctx, KeyTimers, []byte(`[1]`)))
	require.NoError(t, repo.Put(ctx, KeyTimers, []byte(`[1,2]`)))

	entry, err := repo.Get(ctx, KeyTimers)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(entry.Value))
	assert.False(t, entry.UpdatedAt.IsZero())

	require.NoError(t, repo.Put(ctx, KeyEvents, []byte(`[]`)))
	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, KeyEvents, entries[0].Key)
	assert.Equal(t, KeyTimers, entries[1].Key)

	require.NoError(t, repo.Delete(ctx, KeyTimers))
	assert.ErrorIs(t, repo.Delete(ctx, KeyTimers), ErrNotFound)
}

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	blob := NewBlob[sample](newTestRepository(t), KeySettings)

	value, err := blob.LoadOr(ctx, sample{Name: "default"})
	require.NoError(t, err)
	assert.Equal(t, "default", value.Name)

	require.NoError(t, blob.Save(ctx, sample{Name: "saved", Count: 3}))
	value, err = blob.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample{Name: "saved", Count: 3}, value)
}

func TestBlobLoadRejectsCorruptValue(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	require.NoError(t, repo.Put(ctx, KeyPomodoro, []byte(`{not json`)))

	_, err := NewBlob[sample](repo, KeyPomodoro).Load(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
