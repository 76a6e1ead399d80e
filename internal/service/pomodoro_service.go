package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "countdown/backend/internal/errors"
	"countdown/backend/internal/model"
	"countdown/backend/internal/notify"
	"countdown/backend/internal/repository"
	"countdown/backend/internal/scheduler"
	"countdown/backend/internal/timekeeper"
)

const domainPomodoro = "pomodoro"

// PomodoroService owns the single pomodoro tracker. The stored form never
// carries an end time: a running pomodoro comes back paused after a restart.
type PomodoroService struct {
	rt     Runtime
	blob   *repository.Blob[timekeeper.Pomodoro]
	family *scheduler.Family

	mu    sync.Mutex
	state timekeeper.Pomodoro
}

func NewPomodoroService(ctx context.Context, repo *repository.KVRepository, rt Runtime, defaults timekeeper.PomodoroConfig) *PomodoroService {
	rt = rt.withDefaults()
	s := &PomodoroService{
		rt:   rt,
		blob: repository.NewBlob[timekeeper.Pomodoro](repo, repository.KeyPomodoro),
	}
	s.family = rt.family(domainPomodoro, rt.Intervals.Pomodoro, s.Tick)

	s.state = loadBlob(ctx, s.blob, timekeeper.NewPomodoro(defaults))
	s.state.Restore()
	return s
}

func (s *PomodoroService) State(ctx context.Context) model.PomodoroState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(s.rt.now())
}

func (s *PomodoroService) Start(ctx context.Context) model.PomodoroState {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.rt.now()
	if s.state.Start(now) {
		s.family.Wake()
		s.changedLocked(ctx, "start", now)
	}
	return s.viewLocked(now)
}

func (s *PomodoroService) Pause(ctx context.Context) model.PomodoroState {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.rt.now()
	if s.state.Pause(now) {
		s.changedLocked(ctx, "pause", now)
	}
	return s.viewLocked(now)
}

func (s *PomodoroService) Reset(ctx context.Context) model.PomodoroState {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.rt.now()
	s.state.Reset()
	s.changedLocked(ctx, "reset", now)
	return s.viewLocked(now)
}

// Skip ends the current phase immediately. Elapsed work time is recorded.
func (s *PomodoroService) Skip(ctx context.Context) (model.PomodoroState, timekeeper.Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.rt.now()
	transition := s.state.Skip(now)
	s.transitionedLocked(transition, now)
	s.changedLocked(ctx, "skip", now)
	return s.viewLocked(now), transition
}

// SetConfig merges patch into the config. An idle pomodoro picks up the new
// duration of its current phase.
func (s *PomodoroService) SetConfig(ctx context.Context, patch model.PomodoroConfigPatch) (*model.PomodoroState, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := patch.Apply(s.state.Config)
	if !cfg.Valid() {
		return nil, apperrors.BadRequest("invalid_config", "durations must be between 1 and 5999 minutes and sessions positive")
	}

	now := s.rt.now()
	s.state.SetConfig(cfg)
	s.changedLocked(ctx, "set_config", now)
	view := s.viewLocked(now)
	return &view, nil
}

func (s *PomodoroService) History(ctx context.Context) []timekeeper.PomodoroSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]timekeeper.PomodoroSession{}, s.state.History...)
}

func (s *PomodoroService) ClearHistory(ctx context.Context) model.PomodoroState {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.rt.now()
	s.state.ClearHistory()
	s.changedLocked(ctx, "clear_history", now)
	return s.viewLocked(now)
}

// Tick advances the running phase and performs the phase transition when it
// elapses.
func (s *PomodoroService) Tick(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.RemainingSeconds
	transition, changed := s.state.Tick(now)
	if changed {
		s.transitionedLocked(transition, now)
		backgroundSave(s.rt, s.blob, s.state.Persisted(now))
	} else if s.state.RemainingSeconds != before {
		s.rt.publish(notify.Event{
			Kind:             notify.KindProgress,
			Domain:           domainPomodoro,
			Label:            string(s.state.Phase),
			RemainingSeconds: s.state.RemainingSeconds,
			At:               now,
		})
	}

	running := s.state.Running()
	if running {
		s.rt.Recorder.SetRunning(domainPomodoro, 1)
	} else {
		s.rt.Recorder.SetRunning(domainPomodoro, 0)
	}
	return running
}

// Snapshot persists the pomodoro in its stored form.
func (s *PomodoroService) Snapshot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBlob(ctx, s.rt, s.blob, s.state.Persisted(s.rt.now()))
}

func (s *PomodoroService) Close() {
	s.family.Stop()
}

func (s *PomodoroService) transitionedLocked(t timekeeper.Transition, now time.Time) {
	if t.Recorded != nil {
		s.rt.Recorder.IncCompletion("pomodoro_work")
	}
	if t.AutoStarted {
		s.family.Wake()
	}
	slog.Info("Pomodoro phase changed", "from", t.From, "to", t.To, "session", t.Session, "autoStarted", t.AutoStarted)
	s.rt.publish(notify.Event{
		Kind:             notify.KindPhaseChange,
		Domain:           domainPomodoro,
		Label:            string(t.To),
		RemainingSeconds: s.state.RemainingSeconds,
		Data:             t,
		At:               now,
	})
}

func (s *PomodoroService) changedLocked(ctx context.Context, op string, now time.Time) {
	s.rt.Recorder.IncOperation(domainPomodoro, op)
	_ = saveBlob(ctx, s.rt, s.blob, s.state.Persisted(now))
}

func (s *PomodoroService) viewLocked(now time.Time) model.PomodoroState {
	p := s.state
	p.History = append([]timekeeper.PomodoroSession{}, s.state.History...)
	p.RemainingSeconds = p.Remaining(now)
	return model.PomodoroState{Pomodoro: p, Display: timekeeper.FormatClock(p.RemainingSeconds)}
}
