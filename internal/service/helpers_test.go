package service

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"countdown/backend/internal/db"
	"countdown/backend/internal/notify"
	"countdown/backend/internal/repository"
)

var epoch = time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *repository.KVRepository {
	t.Helper()

	_, currentFile, _, ok := runtime.Caller(0)
	require.True(t, ok)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")

	database, err := db.OpenSQLite(db.DriverCGO, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, err = db.RunMigrations(context.Background(), database, migrationsDir)
	require.NoError(t, err)
	return repository.NewKVRepository(database)
}

// newTestRuntime returns a runtime on a fake clock whose tick loops never
// fire on their own, so tests drive Tick directly.
func newTestRuntime() (Runtime, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(epoch)
	idle := 24 * time.Hour
	return Runtime{
		Clock: clock,
		Hub:   notify.NewHub(),
		Intervals: Intervals{
			Timers:    idle,
			Pomodoro:  idle,
			Embed:     idle,
			Events:    idle,
			Stopwatch: idle,
		},
	}, clock
}

func drain(ch <-chan notify.Event) []notify.Event {
	var events []notify.Event
	for {
		select {
		case e := <-ch:
			events = append(events, e)
		default:
			return events
		}
	}
}
