package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"countdown/backend/internal/share"
	"countdown/backend/internal/timekeeper"
)

var errInvalidLink = errors.New("link is not a valid timer or event link")

func runShareTimer(w io.Writer, base, label string, seconds int) error {
	link := share.EncodeTimerURL(base, label, seconds)
	if _, ok := share.DecodeTimerURL(link); !ok {
		return fmt.Errorf("timer needs a label of at most %d characters and 1 to %d seconds", share.MaxLabelLength, share.MaxTimerSeconds)
	}
	_, err := fmt.Fprintln(w, link)
	return err
}

func runShareEvent(w io.Writer, base, name string, at time.Time) error {
	link := share.EncodeEventURL(base, name, at.UnixMilli())
	if _, ok := share.DecodeEventURL(link); !ok {
		return fmt.Errorf("event needs a name of at most %d characters and a valid date", share.MaxLabelLength)
	}
	_, err := fmt.Fprintln(w, link)
	return err
}

func runEmbed(w io.Writer, base string, e share.Embed) error {
	link := share.EncodeEmbedURL(base, e)
	if _, ok := share.ParseEmbed(link); !ok {
		return fmt.Errorf("embed needs a label and a positive duration")
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", link, share.IframeSnippet(link))
	return err
}

func runDecode(w io.Writer, link string) error {
	if t, ok := share.DecodeTimerURL(link); ok {
		_, err := fmt.Fprintf(w, "timer %q %s\n", t.Label, timekeeper.FormatClock(t.DurationSeconds))
		return err
	}
	if e, ok := share.DecodeEventURL(link); ok {
		target := time.UnixMilli(e.TargetDate).UTC()
		_, err := fmt.Fprintf(w, "event %q %s\n", e.Name, target.Format(time.RFC3339))
		return err
	}
	return errInvalidLink
}

// runCountdown drives a countdown to completion, redrawing one line in place
// when interactive and printing one line per second otherwise.
func runCountdown(ctx context.Context, clock clockwork.Clock, w io.Writer, interactive bool, label string, seconds int) error {
	if seconds <= 0 || seconds > share.MaxTimerSeconds {
		return fmt.Errorf("duration must be between 1 and %d seconds", share.MaxTimerSeconds)
	}

	cd := timekeeper.NewCountdown(seconds)
	cd.Start(clock.Now())
	slog.Debug("Countdown started", "label", label, "seconds", seconds)

	ticker := clock.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	last := -1
	draw := func(remaining int) {
		if remaining == last {
			return
		}
		last = remaining
		if interactive {
			fmt.Fprintf(w, "\r%s %s", label, timekeeper.FormatClock(remaining))
			return
		}
		fmt.Fprintf(w, "%s %s\n", label, timekeeper.FormatClock(remaining))
	}
	draw(cd.Remaining(clock.Now()))

	for {
		select {
		case <-ctx.Done():
			if interactive {
				fmt.Fprintln(w)
			}
			return ctx.Err()
		case now := <-ticker.Chan():
			completed := cd.Tick(now)
			draw(cd.RemainingSeconds)
			if completed {
				if interactive {
					fmt.Fprint(w, "\a\n")
				}
				fmt.Fprintf(w, "%s done\n", label)
				return nil
			}
		}
	}
}
