package handler

import (
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"countdown/backend/internal/notify"
)

const (
	streamBuffer      = 64
	heartbeatInterval = 15 * time.Second
)

// StreamHandler serves hub events as server-sent events.
type StreamHandler struct {
	hub   *notify.Hub
	clock clockwork.Clock
}

func NewStreamHandler(hub *notify.Hub, clock clockwork.Clock) *StreamHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &StreamHandler{hub: hub, clock: clock}
}

// Stream writes one SSE message per event, named after the event kind. The
// optional domains and kinds query parameters are comma separated filters.
func (h *StreamHandler) Stream(c *gin.Context) {
	filter := newEventFilter(c.Query("domains"), c.Query("kinds"))
	events, cancel := h.hub.Subscribe(streamBuffer)
	defer cancel()

	heartbeat := h.clock.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"at": h.clock.Now().UTC()})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case e := <-events:
			if filter.match(e) {
				c.SSEvent(string(e.Kind), e)
			}
			return true
		case now := <-heartbeat.Chan():
			c.SSEvent("ping", gin.H{"at": now.UTC()})
			return true
		}
	})
}

type eventFilter struct {
	domains map[string]struct{}
	kinds   map[string]struct{}
}

func newEventFilter(domains, kinds string) eventFilter {
	return eventFilter{domains: csvSet(domains), kinds: csvSet(kinds)}
}

func (f eventFilter) match(e notify.Event) bool {
	if len(f.domains) > 0 {
		if _, ok := f.domains[e.Domain]; !ok {
			return false
		}
	}
	if len(f.kinds) > 0 {
		if _, ok := f.kinds[string(e.Kind)]; !ok {
			return false
		}
	}
	return true
}

func csvSet(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			set[part] = struct{}{}
		}
	}
	return set
}
