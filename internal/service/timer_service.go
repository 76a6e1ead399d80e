package service

import (
	"context"
	"log/slog"
	"slices"
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

const domainTimers = "timers"

// TimerService owns the timer list and the queue of unacknowledged alarms.
// Only the list is persisted.
type TimerService struct {
	rt     Runtime
	blob   *repository.Blob[[]model.Timer]
	family *scheduler.Family

	mu     sync.Mutex
	timers []model.Timer
	alarms []string
}

func NewTimerService(ctx context.Context, repo *repository.KVRepository, rt Runtime) *TimerService {
	rt = rt.withDefaults()
	s := &TimerService{
		rt:     rt,
		blob:   repository.NewBlob[[]model.Timer](repo, repository.KeyTimers),
		alarms: []string{},
	}
	s.family = rt.family(domainTimers, rt.Intervals.Timers, s.Tick)

	s.timers = loadBlob(ctx, s.blob, []model.Timer{})
	resume := false
	for i := range s.timers {
		t := &s.timers[i]
		if t.Status == timekeeper.StatusRunning && t.EndTime == nil {
			t.Status = timekeeper.StatusPaused
		}
		if t.Running() {
			resume = true
		}
	}
	if resume {
		s.family.Wake()
	}
	return s
}

func (s *TimerService) List(ctx context.Context) model.TimerList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(s.rt.now())
}

func (s *TimerService) Get(ctx context.Context, id string) (*model.TimerView, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findLocked(id)
	if t == nil {
		return nil, timerNotFound()
	}
	view := timerView(*t, s.rt.now())
	return &view, nil
}

func (s *TimerService) Add(ctx context.Context, in model.TimerInput) (*model.TimerView, *apperrors.APIError) {
	if apiErr := validateTimerInput(in); apiErr != nil {
		return nil, apiErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.timers) >= model.MaxTimers {
		return nil, apperrors.LimitReached("timer_limit", "timer limit reached", model.MaxTimers)
	}

	now := s.rt.now()
	timer := model.Timer{
		ID:        uuid.NewString(),
		Label:     in.Label,
		Countdown: timekeeper.NewCountdown(in.TotalSeconds()),
		Hours:     in.Hours,
		Minutes:   in.Minutes,
		Seconds:   in.Seconds,
		CreatedAt: now,
	}
	s.timers = append(s.timers, timer)
	s.rt.Recorder.IncOperation(domainTimers, "add")
	_ = saveBlob(ctx, s.rt, s.blob, s.timers)

	view := timerView(timer, now)
	return &view, nil
}

// Update replaces the label and duration of an idle timer. Other timers are
// returned unchanged.
func (s *TimerService) Update(ctx context.Context, id string, in model.TimerInput) (*model.TimerView, *apperrors.APIError) {
	if apiErr := validateTimerInput(in); apiErr != nil {
		return nil, apiErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findLocked(id)
	if t == nil {
		return nil, timerNotFound()
	}
	if t.Status == timekeeper.StatusIdle {
		t.Label = in.Label
		t.Hours, t.Minutes, t.Seconds = in.Hours, in.Minutes, in.Seconds
		t.TotalSeconds = in.TotalSeconds()
		t.RemainingSeconds = t.TotalSeconds
		s.rt.Recorder.IncOperation(domainTimers, "update")
		_ = saveBlob(ctx, s.rt, s.blob, s.timers)
	}

	view := timerView(*t, s.rt.now())
	return &view, nil
}

func (s *TimerService) Delete(ctx context.Context, id string) *apperrors.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.timers, func(t model.Timer) bool { return t.ID == id })
	if idx < 0 {
		return timerNotFound()
	}
	s.timers = slices.Delete(s.timers, idx, idx+1)
	s.alarms = slices.DeleteFunc(s.alarms, func(a string) bool { return a == id })
	s.rt.Recorder.IncOperation(domainTimers, "delete")
	_ = saveBlob(ctx, s.rt, s.blob, s.timers)
	return nil
}

func (s *TimerService) Start(ctx context.Context, id string) (*model.TimerView, *apperrors.APIError) {
	return s.mutate(ctx, id, "start", func(t *model.Timer, now time.Time) bool {
		if !t.Start(now) {
			return false
		}
		s.family.Wake()
		return true
	})
}

func (s *TimerService) Pause(ctx context.Context, id string) (*model.TimerView, *apperrors.APIError) {
	return s.mutate(ctx, id, "pause", func(t *model.Timer, now time.Time) bool {
		return t.Pause(now)
	})
}

func (s *TimerService) Reset(ctx context.Context, id string) (*model.TimerView, *apperrors.APIError) {
	return s.mutate(ctx, id, "reset", func(t *model.Timer, _ time.Time) bool {
		t.Reset()
		s.alarms = slices.DeleteFunc(s.alarms, func(a string) bool { return a == t.ID })
		return true
	})
}

// Alarms returns the ids of completed timers not yet dismissed, oldest first.
func (s *TimerService) Alarms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.alarms)
}

// DismissAlarm removes id from the alarm queue. The timer stays completed.
func (s *TimerService) DismissAlarm(ctx context.Context, id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarms = slices.DeleteFunc(s.alarms, func(a string) bool { return a == id })
	s.rt.Recorder.IncOperation(domainTimers, "dismiss")
	return slices.Clone(s.alarms)
}

func (s *TimerService) DismissAllAlarms(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alarms = []string{}
	s.rt.Recorder.IncOperation(domainTimers, "dismiss_all")
	return []string{}
}

// ResetAndDismissAll resets every timer in the alarm queue and empties it.
func (s *TimerService) ResetAndDismissAll(ctx context.Context) model.TimerList {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.timers {
		if slices.Contains(s.alarms, s.timers[i].ID) {
			s.timers[i].Reset()
		}
	}
	s.alarms = []string{}
	s.rt.Recorder.IncOperation(domainTimers, "reset_dismiss_all")
	_ = saveBlob(ctx, s.rt, s.blob, s.timers)
	return s.listLocked(s.rt.now())
}

// Tick advances every running timer with the same now. Completed timers join
// the alarm queue in list order.
func (s *TimerService) Tick(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	running := 0
	completed := false
	for i := range s.timers {
		t := &s.timers[i]
		if !t.Running() {
			continue
		}
		before := t.RemainingSeconds
		if t.Tick(now) {
			completed = true
			s.alarms = append(s.alarms, t.ID)
			s.rt.Recorder.IncCompletion("timer")
			slog.Info("Timer completed", "id", t.ID, "label", t.Label)
			s.rt.publish(notify.Event{Kind: notify.KindCompleted, Domain: domainTimers, UnitID: t.ID, Label: t.Label, At: now})
			continue
		}
		running++
		if t.RemainingSeconds != before {
			s.rt.publish(notify.Event{Kind: notify.KindProgress, Domain: domainTimers, UnitID: t.ID, Label: t.Label, RemainingSeconds: t.RemainingSeconds, At: now})
		}
	}
	s.rt.Recorder.SetRunning(domainTimers, running)
	if completed {
		backgroundSave(s.rt, s.blob, s.timers)
	}
	return running > 0
}

// Snapshot persists the timer list.
func (s *TimerService) Snapshot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBlob(ctx, s.rt, s.blob, s.timers)
}

// Close stops the tick loop.
func (s *TimerService) Close() {
	s.family.Stop()
}

func (s *TimerService) mutate(ctx context.Context, id, op string, apply func(*model.Timer, time.Time) bool) (*model.TimerView, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findLocked(id)
	if t == nil {
		return nil, timerNotFound()
	}
	now := s.rt.now()
	if apply(t, now) {
		s.rt.Recorder.IncOperation(domainTimers, op)
		_ = saveBlob(ctx, s.rt, s.blob, s.timers)
	}
	view := timerView(*t, now)
	return &view, nil
}

func (s *TimerService) findLocked(id string) *model.Timer {
	for i := range s.timers {
		if s.timers[i].ID == id {
			return &s.timers[i]
		}
	}
	return nil
}

func (s *TimerService) listLocked(now time.Time) model.TimerList {
	views := make([]model.TimerView, 0, len(s.timers))
	for _, t := range s.timers {
		views = append(views, timerView(t, now))
	}
	return model.TimerList{Timers: views, Alarms: slices.Clone(s.alarms)}
}

func timerView(t model.Timer, now time.Time) model.TimerView {
	t.RemainingSeconds = t.Remaining(now)
	return model.TimerView{Timer: t, Display: timekeeper.FormatClock(t.RemainingSeconds)}
}

func validateTimerInput(in model.TimerInput) *apperrors.APIError {
	if in.Hours < 0 || in.Minutes < 0 || in.Seconds < 0 {
		return apperrors.BadRequest("invalid_duration", "duration fields must not be negative")
	}
	if in.Hours > timekeeper.MaxSeconds || in.Minutes > timekeeper.MaxSeconds || in.Seconds > timekeeper.MaxSeconds {
		return apperrors.BadRequest("invalid_duration", "duration is too long")
	}
	total := in.TotalSeconds()
	if total <= 0 {
		return apperrors.BadRequest("invalid_duration", "duration must be greater than zero")
	}
	if total > timekeeper.MaxSeconds {
		return apperrors.BadRequest("invalid_duration", "duration must not exceed 99:59:59")
	}
	return nil
}

func timerNotFound() *apperrors.APIError {
	return apperrors.NotFound("timer_not_found", "timer not found")
}
