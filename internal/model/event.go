package model

import "time"

const MaxEvents = 50

// CountdownEvent is a named future date.
type CountdownEvent struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	TargetDate time.Time `json:"targetDate"`
	CreatedAt  time.Time `json:"createdAt"`
	Reached    bool      `json:"reached,omitempty"`
}

// EventInput creates or updates an event.
type EventInput struct {
	Name       string    `json:"name"`
	TargetDate time.Time `json:"targetDate"`
}

// EventView is an event with its remaining time.
type EventView struct {
	CountdownEvent
	RemainingSeconds int    `json:"remainingSeconds"`
	Display          string `json:"display"`
}
