package timekeeper

import "time"

// Lap is one stopwatch checkpoint. Index is 1-based in recording order.
type Lap struct {
	Index        int   `json:"index"`
	SplitMs      int64 `json:"splitMs"`
	CumulativeMs int64 `json:"cumulativeMs"`
}

// Stopwatch accumulates elapsed time across runs. The running part is always
// derived from RunStart, never from tick counts.
type Stopwatch struct {
	Status        Status     `json:"status"`
	AccumulatedMs int64      `json:"accumulatedMs"`
	RunStart      *time.Time `json:"runStart,omitempty"`
	Laps          []Lap      `json:"laps"`
	LapMarkMs     int64      `json:"lapMarkMs"`
}

// NewStopwatch returns an idle stopwatch.
func NewStopwatch() Stopwatch {
	return Stopwatch{Status: StatusIdle, Laps: []Lap{}}
}

func (s *Stopwatch) Running() bool {
	return s.Status == StatusRunning && s.RunStart != nil
}

// Start begins or resumes a run. The accumulated time is kept.
func (s *Stopwatch) Start(now time.Time) bool {
	if s.Status == StatusRunning {
		return false
	}
	start := now
	s.RunStart = &start
	s.Status = StatusRunning
	return true
}

// Pause folds the current run into the accumulated time.
func (s *Stopwatch) Pause(now time.Time) bool {
	if !s.Running() {
		return false
	}
	s.AccumulatedMs += sinceMs(*s.RunStart, now)
	s.RunStart = nil
	s.Status = StatusPaused
	return true
}

// Reset clears all accumulated time and laps.
func (s *Stopwatch) Reset() {
	s.Status = StatusIdle
	s.AccumulatedMs = 0
	s.RunStart = nil
	s.Laps = []Lap{}
	s.LapMarkMs = 0
}

// Lap records a checkpoint at the front of the lap list. Only valid while running.
func (s *Stopwatch) Lap(now time.Time) (Lap, bool) {
	if !s.Running() {
		return Lap{}, false
	}
	total := s.ElapsedMs(now)
	lap := Lap{
		Index:        len(s.Laps) + 1,
		SplitMs:      total - s.LapMarkMs,
		CumulativeMs: total,
	}
	s.Laps = append([]Lap{lap}, s.Laps...)
	s.LapMarkMs = total
	return lap, true
}

// ElapsedMs returns the total elapsed milliseconds at now.
func (s *Stopwatch) ElapsedMs(now time.Time) int64 {
	if s.Running() {
		return s.AccumulatedMs + sinceMs(*s.RunStart, now)
	}
	return s.AccumulatedMs
}

// sinceMs clamps to zero so a wall clock stepping backwards cannot shrink the total.
func sinceMs(start, now time.Time) int64 {
	ms := now.Sub(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
