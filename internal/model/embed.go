package model

import "countdown/backend/internal/timekeeper"

const (
	EmbedModeMinimal = "minimal"
	EmbedModeFull    = "full"
)

// MaxEmbeds bounds the widget countdowns held at once.
const MaxEmbeds = 100

// EmbedTimer is a standalone widget countdown. It is never persisted.
type EmbedTimer struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	timekeeper.Countdown
	Mode  string `json:"mode"`
	Theme string `json:"theme"`
}

// EmbedView is an embed timer with its live remaining time.
type EmbedView struct {
	EmbedTimer
	Display string `json:"display"`
}
