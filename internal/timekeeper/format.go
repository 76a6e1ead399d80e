package timekeeper

import (
	"fmt"
	"time"
)

// FormatClock renders seconds as a zero padded HH:MM:SS string.
func FormatClock(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatStopwatch renders milliseconds as MM:SS.CC, or HH:MM:SS.CC once an
// hour has elapsed.
func FormatStopwatch(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	centis := (ms % 1000) / 10
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%02d", hours, minutes, seconds, centis)
	}
	return fmt.Sprintf("%02d:%02d.%02d", minutes, seconds, centis)
}

// FormatEventRemaining describes the time left until target in the coarsest
// unit that still reads well.
func FormatEventRemaining(target, now time.Time) string {
	diff := target.Sub(now)
	if diff <= 0 {
		return "Event passed"
	}

	totalSeconds := int(diff / time.Second)
	hours := totalSeconds / 3600
	if hours < 24 {
		return FormatClock(totalSeconds)
	}

	days := hours / 24
	switch {
	case days < 7:
		return fmt.Sprintf("%dd %dh", days, hours%24)
	case days < 30:
		return fmt.Sprintf("%d days", days)
	}
	return fmt.Sprintf("%d months, %d days", days/30, days%30)
}
