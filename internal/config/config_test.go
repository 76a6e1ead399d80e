package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, time.Minute, cfg.SnapshotInterval)
	assert.Equal(t, time.Hour, cfg.EmbedIdleTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.TickIntervals.Timers)
	assert.Equal(t, 25, cfg.Pomodoro.WorkMinutes)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countdown.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
db_driver: sqlite
log_level: debug
snapshot_interval: 30s
tick_intervals:
  events: 2s
pomodoro:
  work_minutes: 50
  short_break_minutes: 10
  long_break_minutes: 30
  sessions_before_long: 3
  auto_start_breaks: true
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("EMBED_IDLE_TTL_MINUTES", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 30*time.Second, cfg.SnapshotInterval)
	assert.Equal(t, 2*time.Second, cfg.TickIntervals.Events)
	assert.Equal(t, 250*time.Millisecond, cfg.TickIntervals.Timers)
	assert.Equal(t, 50, cfg.Pomodoro.WorkMinutes)
	assert.True(t, cfg.Pomodoro.AutoStartBreaks)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 15*time.Minute, cfg.EmbedIdleTTL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "postgres")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestGetEnvIntFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 5, getEnvInt("SOME_INT", 5))
	t.Setenv("SOME_INT", "12")
	assert.Equal(t, 12, getEnvInt("SOME_INT", 5))
}
