package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"countdown/backend/internal/metrics"
)

// Default tick intervals per engine family.
const (
	CountdownInterval = 250 * time.Millisecond
	SlowInterval      = time.Second
	ReadoutInterval   = 16 * time.Millisecond
)

// TickFunc advances every running unit of a family using one now snapshot and
// reports whether any unit is still running afterwards.
type TickFunc func(now time.Time) bool

// Family is the single shared periodic callback of one engine family. The loop
// starts lazily on Wake and stops itself once the callback reports that
// nothing is running.
type Family struct {
	name     string
	interval time.Duration
	clock    clockwork.Clock
	tick     TickFunc
	recorder metrics.Recorder

	mu      sync.Mutex
	running bool
	woken   bool
	stopCh  chan struct{}
}

// NewFamily creates a stopped family.
func NewFamily(name string, interval time.Duration, clock clockwork.Clock, recorder metrics.Recorder, tick TickFunc) *Family {
	if interval <= 0 {
		interval = CountdownInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Family{
		name:     name,
		interval: interval,
		clock:    clock,
		tick:     tick,
		recorder: metrics.OrNoop(recorder),
	}
}

// Name returns the family name used in logs and metrics.
func (f *Family) Name() string { return f.name }

// Interval returns the tick interval.
func (f *Family) Interval() time.Duration { return f.interval }

// Wake starts the loop if it is not running. Calling it while running only
// records that a unit started, so the loop will not stop on a stale answer.
func (f *Family) Wake() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.woken = true
	if f.running {
		return
	}
	f.running = true
	f.stopCh = make(chan struct{})
	f.recorder.SetSchedulerActive(f.name, true)
	slog.Debug("Tick loop started", "family", f.name, "interval", f.interval)
	go f.run(f.stopCh)
}

// Stop terminates the loop immediately.
func (f *Family) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running {
		return
	}
	close(f.stopCh)
	f.running = false
	f.recorder.SetSchedulerActive(f.name, false)
	slog.Debug("Tick loop stopped", "family", f.name)
}

// Active reports whether the loop is running.
func (f *Family) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *Family) run(stopCh chan struct{}) {
	ticker := f.clock.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.Chan():
			select {
			case <-stopCh:
				return
			default:
			}
			f.mu.Lock()
			f.woken = false
			f.mu.Unlock()

			now := f.clock.Now()
			active := f.tick(now)
			f.recorder.ObserveTick(f.name, f.clock.Since(now))
			if active {
				continue
			}

			f.mu.Lock()
			select {
			case <-stopCh:
				f.mu.Unlock()
				return
			default:
			}
			if f.woken {
				f.mu.Unlock()
				continue
			}
			f.running = false
			f.recorder.SetSchedulerActive(f.name, false)
			f.mu.Unlock()
			slog.Debug("Tick loop idle", "family", f.name)
			return
		}
	}
}
