package timekeeper

import (
	"math"
	"time"
)

// MaxSeconds is the longest countdown accepted from input: 99:59:59, the
// largest value FormatClock renders with two hour digits.
const MaxSeconds = 99*3600 + 59*60 + 59

const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

// Status is the lifecycle state of a countdown or stopwatch.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Countdown counts down from TotalSeconds. While running, the remaining time is
// derived from EndTime; RemainingSeconds is only authoritative otherwise.
type Countdown struct {
	TotalSeconds     int        `json:"totalSeconds"`
	RemainingSeconds int        `json:"remainingSeconds"`
	EndTime          *time.Time `json:"endTime,omitempty"`
	Status           Status     `json:"status"`
}

// NewCountdown returns an idle countdown holding the full duration.
func NewCountdown(totalSeconds int) Countdown {
	return Countdown{
		TotalSeconds:     totalSeconds,
		RemainingSeconds: totalSeconds,
		Status:           StatusIdle,
	}
}

// Running reports whether the countdown is running with a known end time.
func (c *Countdown) Running() bool {
	return c.Status == StatusRunning && c.EndTime != nil
}

// Start sets the end time from the remaining seconds. Only idle and paused
// countdowns can start; it reports whether the state changed.
func (c *Countdown) Start(now time.Time) bool {
	if c.Status != StatusIdle && c.Status != StatusPaused {
		return false
	}
	end := now.Add(secondsDuration(c.RemainingSeconds))
	c.EndTime = &end
	c.Status = StatusRunning
	return true
}

// Pause freezes the remaining seconds. It is a no-op unless running.
func (c *Countdown) Pause(now time.Time) bool {
	if !c.Running() {
		return false
	}
	c.RemainingSeconds = secondsUntil(*c.EndTime, now)
	c.EndTime = nil
	c.Status = StatusPaused
	return true
}

// Reset restores the full duration from any state.
func (c *Countdown) Reset() {
	c.RemainingSeconds = c.TotalSeconds
	c.EndTime = nil
	c.Status = StatusIdle
}

// Tick recomputes the remaining seconds from the end time and reports whether
// this tick completed the countdown. Completion fires once per run.
func (c *Countdown) Tick(now time.Time) bool {
	if !c.Running() {
		return false
	}
	remaining := secondsUntil(*c.EndTime, now)
	if remaining > 0 {
		c.RemainingSeconds = remaining
		return false
	}
	c.RemainingSeconds = 0
	c.EndTime = nil
	c.Status = StatusCompleted
	return true
}

// Remaining returns the live remaining seconds without mutating the countdown.
func (c *Countdown) Remaining(now time.Time) int {
	if c.Running() {
		return secondsUntil(*c.EndTime, now)
	}
	if c.RemainingSeconds < 0 {
		return 0
	}
	return c.RemainingSeconds
}

// secondsDuration converts whole seconds to a Duration, clamping at zero and
// saturating instead of overflowing.
func secondsDuration(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	if int64(n) > maxDurationSeconds {
		return time.Duration(maxDurationSeconds) * time.Second
	}
	return time.Duration(n) * time.Second
}

// secondsUntil rounds the time left up to whole seconds, clamped at zero.
func secondsUntil(end, now time.Time) int {
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}
