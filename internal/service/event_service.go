package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "countdown/backend/internal/errors"
	"countdown/backend/internal/model"
	"countdown/backend/internal/notify"
	"countdown/backend/internal/repository"
	"countdown/backend/internal/scheduler"
	"countdown/backend/internal/timekeeper"
)

const domainEvents = "events"

// EventService owns the countdown events. A slow tick family marks each event
// reached exactly once when its target passes.
type EventService struct {
	rt     Runtime
	blob   *repository.Blob[[]model.CountdownEvent]
	family *scheduler.Family

	mu     sync.Mutex
	events []model.CountdownEvent
}

func NewEventService(ctx context.Context, repo *repository.KVRepository, rt Runtime) *EventService {
	rt = rt.withDefaults()
	s := &EventService{
		rt:   rt,
		blob: repository.NewBlob[[]model.CountdownEvent](repo, repository.KeyEvents),
	}
	s.family = rt.family(domainEvents, rt.Intervals.Events, s.Tick)

	s.events = loadBlob(ctx, s.blob, []model.CountdownEvent{})
	if s.pendingLocked() > 0 {
		s.family.Wake()
	}
	return s
}

func (s *EventService) List(ctx context.Context) []model.EventView {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.rt.now()
	views := make([]model.EventView, 0, len(s.events))
	for _, e := range s.events {
		views = append(views, eventView(e, now))
	}
	return views
}

func (s *EventService) Get(ctx context.Context, id string) (*model.EventView, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, eventNotFound()
	}
	view := eventView(s.events[idx], s.rt.now())
	return &view, nil
}

func (s *EventService) Add(ctx context.Context, in model.EventInput) (*model.EventView, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.rt.now()
	if apiErr := validateEventInput(in, now); apiErr != nil {
		return nil, apiErr
	}
	if len(s.events) >= model.MaxEvents {
		return nil, apperrors.LimitReached("event_limit", "event limit reached", model.MaxEvents)
	}

	event := model.CountdownEvent{
		ID:         uuid.NewString(),
		Name:       in.Name,
		TargetDate: in.TargetDate.UTC(),
		CreatedAt:  now,
	}
	s.events = append(s.events, event)
	s.rt.Recorder.IncOperation(domainEvents, "add")
	_ = saveBlob(ctx, s.rt, s.blob, s.events)
	s.family.Wake()

	view := eventView(event, now)
	return &view, nil
}

func (s *EventService) Update(ctx context.Context, id string, in model.EventInput) (*model.EventView, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.rt.now()
	if apiErr := validateEventInput(in, now); apiErr != nil {
		return nil, apiErr
	}
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, eventNotFound()
	}

	e := &s.events[idx]
	e.Name = in.Name
	e.TargetDate = in.TargetDate.UTC()
	e.Reached = false
	s.rt.Recorder.IncOperation(domainEvents, "update")
	_ = saveBlob(ctx, s.rt, s.blob, s.events)
	s.family.Wake()

	view := eventView(*e, now)
	return &view, nil
}

func (s *EventService) Delete(ctx context.Context, id string) *apperrors.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return eventNotFound()
	}
	s.events = slices.Delete(s.events, idx, idx+1)
	s.rt.Recorder.IncOperation(domainEvents, "delete")
	_ = saveBlob(ctx, s.rt, s.blob, s.events)
	return nil
}

// Tick marks passed events reached and reports whether any event is pending.
func (s *EventService) Tick(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	reached := false
	for i := range s.events {
		e := &s.events[i]
		if e.Reached || e.TargetDate.After(now) {
			continue
		}
		e.Reached = true
		reached = true
		s.rt.Recorder.IncCompletion("event")
		slog.Info("Event reached", "id", e.ID, "name", e.Name)
		s.rt.publish(notify.Event{Kind: notify.KindEventReached, Domain: domainEvents, UnitID: e.ID, Label: e.Name, At: now})
	}
	if reached {
		backgroundSave(s.rt, s.blob, s.events)
	}

	pending := s.pendingLocked()
	s.rt.Recorder.SetRunning(domainEvents, pending)
	return pending > 0
}

func (s *EventService) Snapshot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBlob(ctx, s.rt, s.blob, s.events)
}

func (s *EventService) Close() {
	s.family.Stop()
}

func (s *EventService) pendingLocked() int {
	pending := 0
	for _, e := range s.events {
		if !e.Reached {
			pending++
		}
	}
	return pending
}

func (s *EventService) indexLocked(id string) int {
	return slices.IndexFunc(s.events, func(e model.CountdownEvent) bool { return e.ID == id })
}

func eventView(e model.CountdownEvent, now time.Time) model.EventView {
	remaining := 0
	if left := e.TargetDate.Sub(now); left > 0 {
		remaining = int((left + time.Second - 1) / time.Second)
	}
	return model.EventView{
		CountdownEvent:   e,
		RemainingSeconds: remaining,
		Display:          timekeeper.FormatEventRemaining(e.TargetDate, now),
	}
}

func validateEventInput(in model.EventInput, now time.Time) *apperrors.APIError {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.BadRequest("invalid_name", "name is required")
	}
	if !in.TargetDate.After(now) {
		return apperrors.BadRequest("target_in_past", "target date must be in the future")
	}
	return nil
}

func eventNotFound() *apperrors.APIError {
	return apperrors.NotFound("event_not_found", "event not found")
}
