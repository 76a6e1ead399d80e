package timekeeper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completePhase starts the current phase at now, lets it run out and ticks.
func completePhase(t *testing.T, p *Pomodoro, now time.Time) time.Time {
	t.Helper()
	p.Start(now)
	end := now.Add(time.Duration(p.RemainingSeconds)*time.Second + 100*time.Millisecond)
	_, done := p.Tick(end)
	require.True(t, done)
	return end
}

func TestPomodoroInitialState(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())

	assert.Equal(t, StatusIdle, p.Status)
	assert.Equal(t, PhaseWork, p.Phase)
	assert.Equal(t, 1, p.CurrentSession)
	assert.Equal(t, 1500, p.RemainingSeconds)
	assert.Nil(t, p.EndTime)
	assert.Empty(t, p.History)
}

func TestPomodoroWorkCompletionScenario(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())
	p.Start(epoch)

	tr, done := p.Tick(epoch.Add(25*time.Minute + time.Second))
	require.True(t, done)

	assert.Equal(t, PhaseShortBreak, p.Phase)
	assert.Equal(t, 300, p.RemainingSeconds)
	assert.Equal(t, StatusIdle, p.Status)
	assert.Nil(t, p.EndTime)
	require.Len(t, p.History, 1)
	assert.Equal(t, 1500, p.History[0].DurationSeconds)
	assert.Equal(t, PhaseWork, p.History[0].Phase)
	assert.Equal(t, epoch, p.History[0].StartedAt)
	assert.Equal(t, 1, p.TotalCompleted)

	assert.Equal(t, PhaseWork, tr.From)
	assert.Equal(t, PhaseShortBreak, tr.To)
	require.NotNil(t, tr.Recorded)
	assert.False(t, tr.AutoStarted)
}

func TestPomodoroTickBeforeEnd(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())
	p.Start(epoch)

	_, done := p.Tick(epoch.Add(5 * time.Second))
	assert.False(t, done)
	assert.Equal(t, 1495, p.RemainingSeconds)
	assert.Equal(t, PhaseWork, p.Phase)
}

func TestPomodoroTickIdleIsNoOp(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())
	_, done := p.Tick(epoch.Add(time.Hour))
	assert.False(t, done)
	assert.Equal(t, 1500, p.RemainingSeconds)
}

func TestPomodoroLongBreakAfterConfiguredSessions(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())
	now := epoch

	for i := 0; i < p.Config.SessionsBeforeLong; i++ {
		now = completePhase(t, &p, now)
		if i < p.Config.SessionsBeforeLong-1 {
			require.Equal(t, PhaseShortBreak, p.Phase)
			now = completePhase(t, &p, now)
			require.Equal(t, i+2, p.CurrentSession)
		}
	}

	assert.Equal(t, PhaseLongBreak, p.Phase)
	assert.Equal(t, 900, p.RemainingSeconds)
	assert.Equal(t, 4, p.CurrentSession)
	assert.Len(t, p.History, 4)
	assert.Equal(t, 4, p.TotalCompleted)

	completePhase(t, &p, now)
	assert.Equal(t, PhaseWork, p.Phase)
	assert.Equal(t, 1, p.CurrentSession)
	assert.Len(t, p.History, 4)
}

func TestPomodoroBreaksAreNotRecorded(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())
	now := completePhase(t, &p, epoch)
	completePhase(t, &p, now)

	assert.Len(t, p.History, 1)
	assert.Equal(t, 1, p.TotalCompleted)
}

func TestPomodoroAutoStart(t *testing.T) {
	cfg := DefaultPomodoroConfig()
	cfg.AutoStartBreaks = true
	p := NewPomodoro(cfg)

	now := completePhase(t, &p, epoch)
	assert.Equal(t, PhaseShortBreak, p.Phase)
	assert.Equal(t, StatusRunning, p.Status)
	require.NotNil(t, p.EndTime)
	assert.Equal(t, now.Add(5*time.Minute), *p.EndTime)

	// work does not auto-start unless its own flag is set
	_, done := p.Tick(now.Add(5 * time.Minute))
	require.True(t, done)
	assert.Equal(t, PhaseWork, p.Phase)
	assert.Equal(t, StatusIdle, p.Status)

	cfg.AutoStartWork = true
	require.True(t, p.SetConfig(cfg))
	now = completePhase(t, &p, now.Add(time.Hour))
	assert.Equal(t, StatusRunning, p.Status)
	completePhase(t, &p, now)
	assert.Equal(t, PhaseWork, p.Phase)
	assert.Equal(t, StatusRunning, p.Status)
}

func TestPomodoroSkipRecordsElapsedWork(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())
	p.Start(epoch)

	tr := p.Skip(epoch.Add(10 * time.Minute))
	require.NotNil(t, tr.Recorded)
	assert.Equal(t, 600, tr.Recorded.DurationSeconds)
	assert.Equal(t, epoch, tr.Recorded.StartedAt)
	assert.Equal(t, PhaseShortBreak, p.Phase)
	assert.Equal(t, StatusIdle, p.Status)
	assert.Equal(t, 300, p.RemainingSeconds)
	assert.Equal(t, 1, p.TotalCompleted)
}

func TestPomodoroSkipWithoutElapsedRecordsNothing(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())

	tr := p.Skip(epoch)
	assert.Nil(t, tr.Recorded)
	assert.Empty(t, p.History)
	assert.Zero(t, p.TotalCompleted)
	assert.Equal(t, PhaseShortBreak, p.Phase)
}

func TestPomodoroSkipBreak(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())
	now := completePhase(t, &p, epoch)
	p.Start(now)

	tr := p.Skip(now.Add(time.Minute))
	assert.Nil(t, tr.Recorded)
	assert.Equal(t, PhaseWork, p.Phase)
	assert.Equal(t, 2, p.CurrentSession)
	assert.Len(t, p.History, 1)
}

func TestPomodoroResetKeepsHistory(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())
	now := completePhase(t, &p, epoch)
	p.Start(now)
	p.Reset()

	assert.Equal(t, StatusIdle, p.Status)
	assert.Equal(t, PhaseWork, p.Phase)
	assert.Equal(t, 1, p.CurrentSession)
	assert.Equal(t, 1500, p.RemainingSeconds)
	assert.Nil(t, p.EndTime)
	assert.Len(t, p.History, 1)
}

func TestPomodoroSetConfig(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())
	cfg := p.Config
	cfg.WorkMinutes = 50

	require.True(t, p.SetConfig(cfg))
	assert.Equal(t, 3000, p.RemainingSeconds)

	p.Start(epoch)
	cfg.WorkMinutes = 10
	require.True(t, p.SetConfig(cfg))
	assert.Equal(t, 3000, p.Remaining(epoch))

	cfg.SessionsBeforeLong = 0
	assert.False(t, p.SetConfig(cfg))

	cfg.SessionsBeforeLong = 4
	cfg.LongBreakMinutes = MaxSeconds/60 + 1
	assert.False(t, p.SetConfig(cfg))
}

func TestPomodoroPersistedDowngradesRunning(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())
	p.Start(epoch)

	saved := p.Persisted(epoch.Add(100 * time.Second))
	assert.Equal(t, StatusPaused, saved.Status)
	assert.Equal(t, 1400, saved.RemainingSeconds)
	assert.Nil(t, saved.EndTime)

	assert.Equal(t, StatusRunning, p.Status)
	assert.NotNil(t, p.EndTime)
}

func TestPomodoroRestoreRepairsState(t *testing.T) {
	p := Pomodoro{}
	p.Status = StatusRunning
	p.Restore()

	assert.Equal(t, DefaultPomodoroConfig(), p.Config)
	assert.Equal(t, PhaseWork, p.Phase)
	assert.Equal(t, 1, p.CurrentSession)
	assert.Equal(t, StatusPaused, p.Status)
	assert.NotNil(t, p.History)
}

func TestPomodoroClearHistory(t *testing.T) {
	p := NewPomodoro(DefaultPomodoroConfig())
	completePhase(t, &p, epoch)
	p.ClearHistory()

	assert.Empty(t, p.History)
	assert.Equal(t, 1, p.TotalCompleted)
}
