package model

import (
	"time"

	"countdown/backend/internal/timekeeper"
)

const MaxTimers = 20

// Timer is a user-created countdown.
type Timer struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	timekeeper.Countdown
	Hours     int       `json:"hours"`
	Minutes   int       `json:"minutes"`
	Seconds   int       `json:"seconds"`
	CreatedAt time.Time `json:"createdAt"`
}

// TimerInput is the entered duration of a timer.
type TimerInput struct {
	Label   string `json:"label"`
	Hours   int    `json:"hours"`
	Minutes int    `json:"minutes"`
	Seconds int    `json:"seconds"`
}

// TotalSeconds returns the entered duration in seconds.
func (in TimerInput) TotalSeconds() int {
	return in.Hours*3600 + in.Minutes*60 + in.Seconds
}

// TimerView is a timer with its live remaining time and display text.
type TimerView struct {
	Timer
	Display string `json:"display"`
}

// TimerList is the timer list together with the pending alarms.
type TimerList struct {
	Timers []TimerView `json:"timers"`
	Alarms []string    `json:"alarms"`
}
