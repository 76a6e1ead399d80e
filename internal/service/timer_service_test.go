package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countdown/backend/internal/model"
	"countdown/backend/internal/notify"
	"countdown/backend/internal/timekeeper"
)

func newTimerService(t *testing.T) (*TimerService, Runtime, *clockwork.FakeClock) {
	t.Helper()
	rt, clock := newTestRuntime()
	s := NewTimerService(context.Background(), newTestRepo(t), rt)
	t.Cleanup(s.Close)
	return s, rt, clock
}

func TestTimerServiceStartThenPause(t *testing.T) {
	ctx := context.Background()
	s, _, clock := newTimerService(t)

	added, apiErr := s.Add(ctx, model.TimerInput{Label: "Tea", Minutes: 1})
	require.Nil(t, apiErr)
	assert.Equal(t, 60, added.TotalSeconds)
	assert.Equal(t, timekeeper.StatusIdle, added.Status)

	started, apiErr := s.Start(ctx, added.ID)
	require.Nil(t, apiErr)
	assert.Equal(t, timekeeper.StatusRunning, started.Status)
	require.NotNil(t, started.EndTime)

	clock.Advance(10 * time.Second)
	paused, apiErr := s.Pause(ctx, added.ID)
	require.Nil(t, apiErr)
	assert.Equal(t, timekeeper.StatusPaused, paused.Status)
	assert.Equal(t, 50, paused.RemainingSeconds)
	assert.Nil(t, paused.EndTime)
	assert.Equal(t, "00:00:50", paused.Display)
}

func TestTimerServiceCompletionQueuesAlarmOnce(t *testing.T) {
	ctx := context.Background()
	s, rt, _ := newTimerService(t)
	events, cancel := rt.Hub.Subscribe(16)
	defer cancel()

	added, _ := s.Add(ctx, model.TimerInput{Label: "Eggs", Seconds: 30})
	_, apiErr := s.Start(ctx, added.ID)
	require.Nil(t, apiErr)

	now := rt.Clock.Now().Add(30 * time.Second)
	assert.False(t, s.Tick(now))
	assert.False(t, s.Tick(now.Add(time.Second)))

	assert.Equal(t, []string{added.ID}, s.Alarms())
	got, _ := s.Get(ctx, added.ID)
	assert.Equal(t, timekeeper.StatusCompleted, got.Status)
	assert.Equal(t, 0, got.RemainingSeconds)

	completions := 0
	for _, e := range drain(events) {
		if e.Kind == notify.KindCompleted {
			completions++
			assert.Equal(t, added.ID, e.UnitID)
		}
	}
	assert.Equal(t, 1, completions)
}

func TestTimerServiceTickKeepsRunningUnits(t *testing.T) {
	ctx := context.Background()
	s, rt, _ := newTimerService(t)

	short, _ := s.Add(ctx, model.TimerInput{Label: "short", Seconds: 5})
	long, _ := s.Add(ctx, model.TimerInput{Label: "long", Seconds: 50})
	_, _ = s.Start(ctx, short.ID)
	_, _ = s.Start(ctx, long.ID)

	assert.True(t, s.Tick(rt.Clock.Now().Add(5*time.Second)))
	list := s.List(ctx)
	require.Len(t, list.Timers, 2)
	assert.Equal(t, timekeeper.StatusCompleted, list.Timers[0].Status)
	assert.Equal(t, timekeeper.StatusRunning, list.Timers[1].Status)
	assert.Equal(t, []string{short.ID}, list.Alarms)
}

func TestTimerServiceValidationAndLimit(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTimerService(t)

	_, apiErr := s.Add(ctx, model.TimerInput{Label: "zero"})
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_duration", apiErr.Code)

	_, apiErr = s.Add(ctx, model.TimerInput{Label: "negative", Minutes: 2, Seconds: -1})
	require.NotNil(t, apiErr)

	_, apiErr = s.Add(ctx, model.TimerInput{Label: "too long", Hours: 100})
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_duration", apiErr.Code)

	_, apiErr = s.Add(ctx, model.TimerInput{Label: "wraps", Hours: math.MaxInt, Seconds: 1})
	require.NotNil(t, apiErr)
	assert.Equal(t, "invalid_duration", apiErr.Code)

	longest, apiErr := s.Add(ctx, model.TimerInput{Label: "longest", Hours: 99, Minutes: 59, Seconds: 59})
	require.Nil(t, apiErr)
	require.Nil(t, s.Delete(ctx, longest.ID))

	for i := 0; i < model.MaxTimers; i++ {
		_, apiErr = s.Add(ctx, model.TimerInput{Label: "t", Seconds: 1})
		require.Nil(t, apiErr)
	}
	_, apiErr = s.Add(ctx, model.TimerInput{Label: "overflow", Seconds: 1})
	require.NotNil(t, apiErr)
	assert.Equal(t, "timer_limit", apiErr.Code)

	_, apiErr = s.Start(ctx, "missing")
	require.NotNil(t, apiErr)
	assert.Equal(t, "timer_not_found", apiErr.Code)
}

func TestTimerServiceUpdateOnlyWhenIdle(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTimerService(t)

	added, _ := s.Add(ctx, model.TimerInput{Label: "Run", Minutes: 5})
	updated, apiErr := s.Update(ctx, added.ID, model.TimerInput{Label: "Walk", Minutes: 10})
	require.Nil(t, apiErr)
	assert.Equal(t, "Walk", updated.Label)
	assert.Equal(t, 600, updated.RemainingSeconds)

	_, _ = s.Start(ctx, added.ID)
	unchanged, apiErr := s.Update(ctx, added.ID, model.TimerInput{Label: "Swim", Minutes: 1})
	require.Nil(t, apiErr)
	assert.Equal(t, "Walk", unchanged.Label)
	assert.Equal(t, 600, unchanged.TotalSeconds)
}

func TestTimerServiceAlarmDismissal(t *testing.T) {
	ctx := context.Background()
	s, rt, _ := newTimerService(t)

	a, _ := s.Add(ctx, model.TimerInput{Label: "a", Seconds: 1})
	b, _ := s.Add(ctx, model.TimerInput{Label: "b", Seconds: 2})
	_, _ = s.Start(ctx, a.ID)
	_, _ = s.Start(ctx, b.ID)
	s.Tick(rt.Clock.Now().Add(2 * time.Second))
	require.Equal(t, []string{a.ID, b.ID}, s.Alarms())

	assert.Equal(t, []string{b.ID}, s.DismissAlarm(ctx, a.ID))
	got, _ := s.Get(ctx, a.ID)
	assert.Equal(t, timekeeper.StatusCompleted, got.Status)

	list := s.ResetAndDismissAll(ctx)
	assert.Empty(t, list.Alarms)
	assert.Equal(t, timekeeper.StatusCompleted, list.Timers[0].Status)
	assert.Equal(t, timekeeper.StatusIdle, list.Timers[1].Status)
	assert.Equal(t, 2, list.Timers[1].RemainingSeconds)

	assert.Empty(t, s.DismissAllAlarms(ctx))
}

func TestTimerServiceDeleteClearsAlarm(t *testing.T) {
	ctx := context.Background()
	s, rt, _ := newTimerService(t)

	a, _ := s.Add(ctx, model.TimerInput{Label: "a", Seconds: 1})
	_, _ = s.Start(ctx, a.ID)
	s.Tick(rt.Clock.Now().Add(time.Second))
	require.Len(t, s.Alarms(), 1)

	require.Nil(t, s.Delete(ctx, a.ID))
	assert.Empty(t, s.Alarms())
	assert.NotNil(t, s.Delete(ctx, a.ID))
}

func TestTimerServiceReloadResumesRunningTimer(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	rt, clock := newTestRuntime()

	first := NewTimerService(ctx, repo, rt)
	added, _ := first.Add(ctx, model.TimerInput{Label: "Bread", Minutes: 40})
	_, _ = first.Start(ctx, added.ID)
	first.Close()

	clock.Advance(10 * time.Minute)
	second := NewTimerService(ctx, repo, rt)
	defer second.Close()

	got, apiErr := second.Get(ctx, added.ID)
	require.Nil(t, apiErr)
	assert.Equal(t, timekeeper.StatusRunning, got.Status)
	assert.Equal(t, 30*60, got.RemainingSeconds)
	assert.Empty(t, second.Alarms())
}
