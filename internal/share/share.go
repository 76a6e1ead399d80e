// Package share encodes timers and events into shareable links and decodes
// them back. Decoding never fails loudly: malformed input reports ok == false.
package share

import (
	"fmt"
	"html"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	MaxLabelLength      = 200
	MaxTimerSeconds     = 86400
	MaxEventTimestampMs = int64(32503680000000)
	TimerPath           = "/t"
	EventPath           = "/e"
	EmbedPath           = "/embed/timer"
)

// Timer is the payload of a timer link.
type Timer struct {
	Label           string `json:"label"`
	DurationSeconds int    `json:"durationSeconds"`
}

// Event is the payload of an event link. TargetDate is in Unix milliseconds.
type Event struct {
	Name       string `json:"name"`
	TargetDate int64  `json:"targetDate"`
}

// Embed holds the embed widget parameters.
type Embed struct {
	Label           string `json:"label"`
	DurationSeconds int    `json:"durationSeconds"`
	Mode            string `json:"mode"`
	Theme           string `json:"theme"`
}

// EncodeTimerURL builds <base>/t?l=<label>&d=<seconds>.
func EncodeTimerURL(baseURL, label string, durationSeconds int) string {
	values := url.Values{}
	values.Set("d", strconv.Itoa(durationSeconds))
	values.Set("l", label)
	return joinURL(baseURL, TimerPath, values)
}

// DecodeTimerURL parses the query of a timer link. It accepts a bare query
// string with or without the leading '?' as well as a full URL.
func DecodeTimerURL(raw string) (Timer, bool) {
	values, ok := parseQuery(raw)
	if !ok {
		return Timer{}, false
	}
	label, ok := validLabel(values.Get("l"))
	if !ok {
		return Timer{}, false
	}
	d, ok := parseSeconds(values.Get("d"))
	if !ok {
		return Timer{}, false
	}
	return Timer{Label: label, DurationSeconds: d}, true
}

// EncodeEventURL builds <base>/e?n=<name>&t=<targetMs>.
func EncodeEventURL(baseURL, name string, targetDateMs int64) string {
	values := url.Values{}
	values.Set("n", name)
	values.Set("t", strconv.FormatInt(targetDateMs, 10))
	return joinURL(baseURL, EventPath, values)
}

// DecodeEventURL parses the query of an event link.
func DecodeEventURL(raw string) (Event, bool) {
	values, ok := parseQuery(raw)
	if !ok {
		return Event{}, false
	}
	name, ok := validLabel(values.Get("n"))
	if !ok {
		return Event{}, false
	}
	t, ok := parseNumber(values.Get("t"))
	if !ok || t < 0 || t > float64(MaxEventTimestampMs) {
		return Event{}, false
	}
	return Event{Name: name, TargetDate: int64(t)}, true
}

// EncodeEmbedURL builds the embed widget link.
func EncodeEmbedURL(baseURL string, e Embed) string {
	values := url.Values{}
	values.Set("l", e.Label)
	values.Set("d", strconv.Itoa(e.DurationSeconds))
	if e.Mode != "" {
		values.Set("mode", e.Mode)
	}
	if e.Theme != "" {
		values.Set("theme", e.Theme)
	}
	return joinURL(baseURL, EmbedPath, values)
}

// IframeSnippet wraps an embed link in the markup pasted into third-party pages.
func IframeSnippet(src string) string {
	return fmt.Sprintf(`<iframe src="%s" width="300" height="350" style="border:none;border-radius:8px;" allow="autoplay"></iframe>`, html.EscapeString(src))
}

// ParseEmbed reads embed parameters, accepting the short link keys (l, d) and
// the long ones (label, duration). Unknown modes fall back to minimal and
// unknown themes to light.
func ParseEmbed(raw string) (Embed, bool) {
	values, ok := parseQuery(raw)
	if !ok {
		return Embed{}, false
	}
	label, ok := validLabel(firstValue(values, "l", "label"))
	if !ok {
		return Embed{}, false
	}
	d, ok := parseSeconds(firstValue(values, "d", "duration"))
	if !ok {
		return Embed{}, false
	}

	e := Embed{Label: label, DurationSeconds: d, Mode: "minimal", Theme: "light"}
	if values.Get("mode") == "full" {
		e.Mode = "full"
	}
	if values.Get("theme") == "dark" {
		e.Theme = "dark"
	}
	return e, true
}

// validLabel checks the length of a decoded label in NFC characters, so a
// decomposed accent counts once, and returns the label trimmed but otherwise
// byte for byte as sent.
func validLabel(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	if utf8.RuneCountInString(norm.NFC.String(raw)) > MaxLabelLength {
		return "", false
	}
	return strings.TrimSpace(raw), true
}

// parseSeconds reads a link duration. Any finite decimal or exponent form is
// accepted; fractions round up to whole seconds. The result must lie in
// 1..MaxTimerSeconds.
func parseSeconds(raw string) (int, bool) {
	v, ok := parseNumber(raw)
	if !ok || v <= 0 || v > MaxTimerSeconds {
		return 0, false
	}
	return int(math.Ceil(v)), true
}

func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseQuery(raw string) (url.Values, bool) {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, false
	}
	return values, true
}

func joinURL(baseURL, path string, values url.Values) string {
	return strings.TrimRight(baseURL, "/") + path + "?" + values.Encode()
}

func firstValue(values url.Values, keys ...string) string {
	for _, key := range keys {
		if v := values.Get(key); v != "" {
			return v
		}
	}
	return ""
}
