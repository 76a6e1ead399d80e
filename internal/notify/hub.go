package notify

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Kind classifies hub events.
type Kind string

const (
	KindProgress     Kind = "progress"
	KindCompleted    Kind = "completed"
	KindPhaseChange  Kind = "phase_change"
	KindEventReached Kind = "event_reached"
	KindReadout      Kind = "readout"
)

// Durable reports whether events of this kind are worth forwarding to
// external sinks. Progress and readout events are display-only.
func (k Kind) Durable() bool {
	return k == KindCompleted || k == KindPhaseChange || k == KindEventReached
}

// Event is one state change observed by the engines.
type Event struct {
	Kind             Kind      `json:"kind"`
	Domain           string    `json:"domain"`
	UnitID           string    `json:"unitId,omitempty"`
	Label            string    `json:"label,omitempty"`
	RemainingSeconds int       `json:"remainingSeconds"`
	ElapsedMs        int64     `json:"elapsedMs,omitempty"`
	Data             any       `json:"data,omitempty"`
	At               time.Time `json:"at"`
}

// Publisher receives events from the hub.
type Publisher interface {
	Publish(Event)
}

type subscription struct {
	ch   chan Event
	done chan struct{}
}

// Hub fans events out to subscribers without ever blocking the publisher:
// a subscriber whose buffer is full misses the event.
type Hub struct {
	subs    *xsync.MapOf[uint64, *subscription]
	next    atomic.Uint64
	forward []Publisher
}

// NewHub creates a hub. Durable events are also passed to every forward publisher.
func NewHub(forward ...Publisher) *Hub {
	return &Hub{
		subs:    xsync.NewMapOf[uint64, *subscription](),
		forward: forward,
	}
}

// Subscribe registers a new observer. The returned cancel func unregisters it.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	id := h.next.Add(1)
	sub := &subscription{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	h.subs.Store(id, sub)

	cancel := func() {
		if _, ok := h.subs.LoadAndDelete(id); ok {
			close(sub.done)
		}
	}
	return sub.ch, cancel
}

// Subscribers returns the number of registered observers.
func (h *Hub) Subscribers() int {
	return h.subs.Size()
}

// Publish delivers e to every subscriber that has room for it.
func (h *Hub) Publish(e Event) {
	h.subs.Range(func(_ uint64, sub *subscription) bool {
		select {
		case <-sub.done:
		case sub.ch <- e:
		default:
		}
		return true
	})
	if e.Kind.Durable() {
		for _, p := range h.forward {
			p.Publish(e)
		}
	}
}
