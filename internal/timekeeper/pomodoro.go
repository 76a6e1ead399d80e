package timekeeper

import (
	"time"

	"github.com/google/uuid"
)

// Phase is one interval kind of a pomodoro cycle.
type Phase string

const (
	PhaseWork       Phase = "work"
	PhaseShortBreak Phase = "shortBreak"
	PhaseLongBreak  Phase = "longBreak"
)

// PomodoroConfig holds the cycle durations and auto-start flags.
type PomodoroConfig struct {
	WorkMinutes        int  `json:"workMinutes" yaml:"work_minutes"`
	ShortBreakMinutes  int  `json:"shortBreakMinutes" yaml:"short_break_minutes"`
	LongBreakMinutes   int  `json:"longBreakMinutes" yaml:"long_break_minutes"`
	SessionsBeforeLong int  `json:"sessionsBeforeLong" yaml:"sessions_before_long"`
	AutoStartBreaks    bool `json:"autoStartBreaks" yaml:"auto_start_breaks"`
	AutoStartWork      bool `json:"autoStartWork" yaml:"auto_start_work"`
}

// DefaultPomodoroConfig is the classic 25/5/15 cycle with four sessions.
func DefaultPomodoroConfig() PomodoroConfig {
	return PomodoroConfig{
		WorkMinutes:        25,
		ShortBreakMinutes:  5,
		LongBreakMinutes:   15,
		SessionsBeforeLong: 4,
	}
}

// Valid reports whether the session count is positive and every duration is
// positive and fits in MaxSeconds.
func (c PomodoroConfig) Valid() bool {
	return validMinutes(c.WorkMinutes) && validMinutes(c.ShortBreakMinutes) && validMinutes(c.LongBreakMinutes) && c.SessionsBeforeLong > 0
}

func validMinutes(m int) bool {
	return m > 0 && m <= MaxSeconds/60
}

// PhaseDuration returns the configured length of phase in seconds.
func (c PomodoroConfig) PhaseDuration(phase Phase) int {
	switch phase {
	case PhaseShortBreak:
		return c.ShortBreakMinutes * 60
	case PhaseLongBreak:
		return c.LongBreakMinutes * 60
	default:
		return c.WorkMinutes * 60
	}
}

func (c PomodoroConfig) autoStarts(phase Phase) bool {
	if phase == PhaseWork {
		return c.AutoStartWork
	}
	return c.AutoStartBreaks
}

// PomodoroSession is a completed work interval kept in the history log.
type PomodoroSession struct {
	ID              string    `json:"id"`
	Phase           Phase     `json:"phase"`
	StartedAt       time.Time `json:"startedAt"`
	CompletedAt     time.Time `json:"completedAt"`
	DurationSeconds int       `json:"durationSeconds"`
}

// Transition describes a phase change produced by Tick or Skip.
type Transition struct {
	From        Phase            `json:"from"`
	To          Phase            `json:"to"`
	Session     int              `json:"session"`
	Recorded    *PomodoroSession `json:"recorded,omitempty"`
	AutoStarted bool             `json:"autoStarted"`
}

// Pomodoro is a countdown cycling through work and break phases.
type Pomodoro struct {
	Countdown
	Phase          Phase             `json:"phase"`
	CurrentSession int               `json:"currentSession"`
	TotalCompleted int               `json:"totalCompleted"`
	Config         PomodoroConfig    `json:"config"`
	History        []PomodoroSession `json:"history"`
}

// NewPomodoro returns an idle pomodoro at the start of the first work session.
func NewPomodoro(cfg PomodoroConfig) Pomodoro {
	if !cfg.Valid() {
		cfg = DefaultPomodoroConfig()
	}
	return Pomodoro{
		Countdown:      NewCountdown(cfg.PhaseDuration(PhaseWork)),
		Phase:          PhaseWork,
		CurrentSession: 1,
		Config:         cfg,
		History:        []PomodoroSession{},
	}
}

// Reset returns to an idle first work session. History and the lifetime
// counter are kept.
func (p *Pomodoro) Reset() {
	p.Phase = PhaseWork
	p.CurrentSession = 1
	p.TotalSeconds = p.Config.PhaseDuration(PhaseWork)
	p.Countdown.Reset()
}

// Tick advances the running phase. When the phase elapses it transitions to
// the next phase and returns the transition.
func (p *Pomodoro) Tick(now time.Time) (Transition, bool) {
	if !p.Running() {
		return Transition{}, false
	}
	remaining := secondsUntil(*p.EndTime, now)
	if remaining > 0 {
		p.RemainingSeconds = remaining
		return Transition{}, false
	}

	duration := p.Config.PhaseDuration(p.Phase)
	startedAt := p.EndTime.Add(-secondsDuration(duration))
	return p.advance(now, startedAt, duration), true
}

// Skip ends the current phase immediately. Only the elapsed part of a work
// phase is recorded, and nothing is recorded when no time elapsed.
func (p *Pomodoro) Skip(now time.Time) Transition {
	duration := p.Config.PhaseDuration(p.Phase)
	elapsed := duration - p.Remaining(now)
	if elapsed < 0 {
		elapsed = 0
	}
	startedAt := now.Add(-secondsDuration(elapsed))
	return p.advance(now, startedAt, elapsed)
}

// SetConfig replaces the configuration. An idle pomodoro picks up the new
// duration of its current phase immediately.
func (p *Pomodoro) SetConfig(cfg PomodoroConfig) bool {
	if !cfg.Valid() {
		return false
	}
	p.Config = cfg
	if p.Status == StatusIdle {
		p.TotalSeconds = cfg.PhaseDuration(p.Phase)
		p.RemainingSeconds = p.TotalSeconds
	}
	return true
}

// ClearHistory drops the session log. The lifetime counter is kept.
func (p *Pomodoro) ClearHistory() {
	p.History = []PomodoroSession{}
}

// Persisted returns the form written to storage: a running pomodoro is stored
// paused with its live remaining time and no end time.
func (p *Pomodoro) Persisted(now time.Time) Pomodoro {
	out := *p
	out.History = append([]PomodoroSession(nil), p.History...)
	if out.Status == StatusRunning {
		out.RemainingSeconds = p.Remaining(now)
		out.Status = StatusPaused
	}
	out.EndTime = nil
	return out
}

// Restore repairs a pomodoro loaded from storage.
func (p *Pomodoro) Restore() {
	if !p.Config.Valid() {
		p.Config = DefaultPomodoroConfig()
	}
	switch p.Phase {
	case PhaseWork, PhaseShortBreak, PhaseLongBreak:
	default:
		p.Phase = PhaseWork
	}
	if p.CurrentSession < 1 {
		p.CurrentSession = 1
	}
	if p.TotalSeconds <= 0 {
		p.TotalSeconds = p.Config.PhaseDuration(p.Phase)
	}
	if p.Status == StatusRunning || p.Status == StatusCompleted {
		p.Status = StatusPaused
	}
	if p.Status == "" {
		p.Status = StatusIdle
	}
	p.EndTime = nil
	if p.RemainingSeconds < 0 {
		p.RemainingSeconds = 0
	}
	if p.History == nil {
		p.History = []PomodoroSession{}
	}
}

func (p *Pomodoro) advance(now, startedAt time.Time, elapsed int) Transition {
	t := Transition{From: p.Phase}

	if p.Phase == PhaseWork && elapsed > 0 {
		session := PomodoroSession{
			ID:              uuid.NewString(),
			Phase:           p.Phase,
			StartedAt:       startedAt,
			CompletedAt:     now,
			DurationSeconds: elapsed,
		}
		p.History = append(p.History, session)
		p.TotalCompleted++
		t.Recorded = &session
	}

	next, session := nextPhase(p.Phase, p.CurrentSession, p.Config.SessionsBeforeLong)
	p.Phase = next
	p.CurrentSession = session
	p.TotalSeconds = p.Config.PhaseDuration(next)
	p.RemainingSeconds = p.TotalSeconds
	p.EndTime = nil
	p.Status = StatusIdle

	if p.Config.autoStarts(next) {
		p.Countdown.Start(now)
		t.AutoStarted = true
	}

	t.To = next
	t.Session = session
	return t
}

func nextPhase(phase Phase, session, sessionsBeforeLong int) (Phase, int) {
	switch phase {
	case PhaseWork:
		if session >= sessionsBeforeLong {
			return PhaseLongBreak, session
		}
		return PhaseShortBreak, session
	case PhaseLongBreak:
		return PhaseWork, 1
	default:
		return PhaseWork, session + 1
	}
}
