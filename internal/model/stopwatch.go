package model

import "countdown/backend/internal/timekeeper"

// StopwatchState is the stopwatch with its live elapsed time.
type StopwatchState struct {
	timekeeper.Stopwatch
	ElapsedMs int64  `json:"elapsedMs"`
	Display   string `json:"display"`
}
