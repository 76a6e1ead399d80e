package model

import "countdown/backend/internal/timekeeper"

// PomodoroState is the pomodoro as served to clients, with the live remaining
// time substituted while running.
type PomodoroState struct {
	timekeeper.Pomodoro
	Display string `json:"display"`
}

// PomodoroConfigPatch merges into the current config. Nil fields are kept.
type PomodoroConfigPatch struct {
	WorkMinutes        *int  `json:"workMinutes"`
	ShortBreakMinutes  *int  `json:"shortBreakMinutes"`
	LongBreakMinutes   *int  `json:"longBreakMinutes"`
	SessionsBeforeLong *int  `json:"sessionsBeforeLong"`
	AutoStartBreaks    *bool `json:"autoStartBreaks"`
	AutoStartWork      *bool `json:"autoStartWork"`
}

// Apply returns cfg with the patch fields set.
func (p PomodoroConfigPatch) Apply(cfg timekeeper.PomodoroConfig) timekeeper.PomodoroConfig {
	if p.WorkMinutes != nil {
		cfg.WorkMinutes = *p.WorkMinutes
	}
	if p.ShortBreakMinutes != nil {
		cfg.ShortBreakMinutes = *p.ShortBreakMinutes
	}
	if p.LongBreakMinutes != nil {
		cfg.LongBreakMinutes = *p.LongBreakMinutes
	}
	if p.SessionsBeforeLong != nil {
		cfg.SessionsBeforeLong = *p.SessionsBeforeLong
	}
	if p.AutoStartBreaks != nil {
		cfg.AutoStartBreaks = *p.AutoStartBreaks
	}
	if p.AutoStartWork != nil {
		cfg.AutoStartWork = *p.AutoStartWork
	}
	return cfg
}
