package service

import (
	"context"
	"sync"
	"time"

	"countdown/backend/internal/model"
	"countdown/backend/internal/notify"
	"countdown/backend/internal/scheduler"
	"countdown/backend/internal/timekeeper"
)

const domainStopwatch = "stopwatch"

// StopwatchService owns the in-memory stopwatch. Its tick family only drives
// the elapsed readout; elapsed time itself is derived from the run start.
type StopwatchService struct {
	rt     Runtime
	family *scheduler.Family

	mu        sync.Mutex
	stopwatch timekeeper.Stopwatch
}

func NewStopwatchService(rt Runtime) *StopwatchService {
	rt = rt.withDefaults()
	s := &StopwatchService{
		rt:        rt,
		stopwatch: timekeeper.NewStopwatch(),
	}
	s.family = rt.family(domainStopwatch, rt.Intervals.Stopwatch, s.Tick)
	return s
}

func (s *StopwatchService) State(ctx context.Context) model.StopwatchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(s.rt.now())
}

func (s *StopwatchService) Start(ctx context.Context) model.StopwatchState {
	return s.mutate("start", func(sw *timekeeper.Stopwatch, now time.Time) bool {
		if !sw.Start(now) {
			return false
		}
		s.family.Wake()
		return true
	})
}

func (s *StopwatchService) Pause(ctx context.Context) model.StopwatchState {
	return s.mutate("pause", func(sw *timekeeper.Stopwatch, now time.Time) bool {
		return sw.Pause(now)
	})
}

func (s *StopwatchService) Reset(ctx context.Context) model.StopwatchState {
	return s.mutate("reset", func(sw *timekeeper.Stopwatch, _ time.Time) bool {
		sw.Reset()
		return true
	})
}

// Lap records a split. The lap is nil when the stopwatch is not running.
func (s *StopwatchService) Lap(ctx context.Context) (model.StopwatchState, *timekeeper.Lap) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.rt.now()
	lap, ok := s.stopwatch.Lap(now)
	if !ok {
		return s.viewLocked(now), nil
	}
	s.rt.Recorder.IncOperation(domainStopwatch, "lap")
	return s.viewLocked(now), &lap
}

// Tick publishes the current elapsed readout.
func (s *StopwatchService) Tick(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stopwatch.Running() {
		s.rt.Recorder.SetRunning(domainStopwatch, 0)
		return false
	}
	s.rt.Recorder.SetRunning(domainStopwatch, 1)
	s.rt.publish(notify.Event{
		Kind:      notify.KindReadout,
		Domain:    domainStopwatch,
		ElapsedMs: s.stopwatch.ElapsedMs(now),
		At:        now,
	})
	return true
}

func (s *StopwatchService) Close() {
	s.family.Stop()
}

func (s *StopwatchService) mutate(op string, apply func(*timekeeper.Stopwatch, time.Time) bool) model.StopwatchState {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.rt.now()
	if apply(&s.stopwatch, now) {
		s.rt.Recorder.IncOperation(domainStopwatch, op)
	}
	return s.viewLocked(now)
}

func (s *StopwatchService) viewLocked(now time.Time) model.StopwatchState {
	sw := s.stopwatch
	sw.Laps = append([]timekeeper.Lap{}, s.stopwatch.Laps...)
	elapsed := sw.ElapsedMs(now)
	return model.StopwatchState{Stopwatch: sw, ElapsedMs: elapsed, Display: timekeeper.FormatStopwatch(elapsed)}
}
