package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"countdown/backend/internal/metrics"
	"countdown/backend/internal/notify"
	"countdown/backend/internal/repository"
	"countdown/backend/internal/scheduler"
)

// persistTimeout bounds saves triggered from tick callbacks, which have no
// request context.
const persistTimeout = 5 * time.Second

// Intervals are the tick periods of each engine family.
type Intervals struct {
	Timers    time.Duration `yaml:"timers"`
	Pomodoro  time.Duration `yaml:"pomodoro"`
	Embed     time.Duration `yaml:"embed"`
	Events    time.Duration `yaml:"events"`
	Stopwatch time.Duration `yaml:"stopwatch"`
}

func DefaultIntervals() Intervals {
	return Intervals{
		Timers:    scheduler.CountdownInterval,
		Pomodoro:  scheduler.CountdownInterval,
		Embed:     scheduler.CountdownInterval,
		Events:    scheduler.SlowInterval,
		Stopwatch: scheduler.ReadoutInterval,
	}
}

// Runtime carries the collaborators shared by every service.
type Runtime struct {
	Clock     clockwork.Clock
	Hub       *notify.Hub
	Recorder  metrics.Recorder
	Intervals Intervals
}

func (r Runtime) withDefaults() Runtime {
	if r.Clock == nil {
		r.Clock = clockwork.NewRealClock()
	}
	if r.Hub == nil {
		r.Hub = notify.NewHub()
	}
	r.Recorder = metrics.OrNoop(r.Recorder)

	defaults := DefaultIntervals()
	if r.Intervals.Timers <= 0 {
		r.Intervals.Timers = defaults.Timers
	}
	if r.Intervals.Pomodoro <= 0 {
		r.Intervals.Pomodoro = defaults.Pomodoro
	}
	if r.Intervals.Embed <= 0 {
		r.Intervals.Embed = defaults.Embed
	}
	if r.Intervals.Events <= 0 {
		r.Intervals.Events = defaults.Events
	}
	if r.Intervals.Stopwatch <= 0 {
		r.Intervals.Stopwatch = defaults.Stopwatch
	}
	return r
}

func (r Runtime) now() time.Time {
	return r.Clock.Now().UTC()
}

func (r Runtime) family(name string, interval time.Duration, tick scheduler.TickFunc) *scheduler.Family {
	return scheduler.NewFamily(name, interval, r.Clock, r.Recorder, func(now time.Time) bool {
		return tick(now.UTC())
	})
}

func (r Runtime) publish(e notify.Event) {
	if e.At.IsZero() {
		e.At = r.now()
	}
	r.Hub.Publish(e)
}

// loadBlob returns the stored value, or fallback when nothing usable is stored.
func loadBlob[T any](ctx context.Context, blob *repository.Blob[T], fallback T) T {
	value, err := blob.LoadOr(ctx, fallback)
	if err != nil {
		slog.Warn("Ignoring unreadable persisted state", "key", blob.Key(), "error", err)
		return fallback
	}
	return value
}

// saveBlob persists value. Failures are logged and counted; in-memory state
// stays authoritative.
func saveBlob[T any](ctx context.Context, r Runtime, blob *repository.Blob[T], value T) error {
	if err := blob.Save(ctx, value); err != nil {
		r.Recorder.IncPersistError(blob.Key())
		slog.Error("Failed to persist state", "key", blob.Key(), "error", err)
		return err
	}
	return nil
}

func backgroundSave[T any](r Runtime, blob *repository.Blob[T], value T) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	_ = saveBlob(ctx, r, blob, value)
}
