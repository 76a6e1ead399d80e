package model

import "time"

const MaxWorldClocks = 10

// WorldClock is a saved IANA time zone.
type WorldClock struct {
	ID       string `json:"id"`
	Timezone string `json:"timezone"`
	Label    string `json:"label"`
}

// WorldClockView is a clock with the current time and offset in its zone.
type WorldClockView struct {
	WorldClock
	LocalTime     time.Time `json:"localTime"`
	OffsetSeconds int       `json:"offsetSeconds"`
	Abbreviation  string    `json:"abbreviation"`
}
