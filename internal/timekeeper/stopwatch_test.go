package timekeeper

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopwatchElapsedIsMonotonicWhileRunning(t *testing.T) {
	sw := NewStopwatch()
	sw.Start(epoch)

	var last int64
	for i := 1; i <= 50; i++ {
		now := epoch.Add(time.Duration(i*17) * time.Millisecond)
		got := sw.ElapsedMs(now)
		require.GreaterOrEqual(t, got, last)
		last = got
	}
	assert.Equal(t, int64(850), last)
}

func TestStopwatchFrozenWhilePaused(t *testing.T) {
	sw := NewStopwatch()
	sw.Start(epoch)
	sw.Pause(epoch.Add(1500 * time.Millisecond))

	assert.Equal(t, int64(1500), sw.ElapsedMs(epoch.Add(2*time.Second)))
	assert.Equal(t, int64(1500), sw.ElapsedMs(epoch.Add(time.Hour)))
	assert.Equal(t, StatusPaused, sw.Status)
	assert.Nil(t, sw.RunStart)
}

func TestStopwatchResumeAccumulates(t *testing.T) {
	sw := NewStopwatch()
	sw.Start(epoch)
	sw.Pause(epoch.Add(time.Second))
	sw.Start(epoch.Add(10 * time.Second))

	assert.Equal(t, int64(3000), sw.ElapsedMs(epoch.Add(12*time.Second)))
}

func TestStopwatchStartIsNoOpWhileRunning(t *testing.T) {
	sw := NewStopwatch()
	sw.Start(epoch)
	assert.False(t, sw.Start(epoch.Add(time.Second)))
	assert.Equal(t, epoch, *sw.RunStart)
}

func TestStopwatchPauseIsNoOpWhenIdle(t *testing.T) {
	sw := NewStopwatch()
	assert.False(t, sw.Pause(epoch))
	assert.Equal(t, StatusIdle, sw.Status)
}

func TestStopwatchLapSplitsSumToCumulative(t *testing.T) {
	sw := NewStopwatch()
	sw.Start(epoch)

	offsets := []time.Duration{1200 * time.Millisecond, 2500 * time.Millisecond, 2600 * time.Millisecond, 9 * time.Second}
	for _, off := range offsets {
		_, ok := sw.Lap(epoch.Add(off))
		require.True(t, ok)
	}

	var sum int64
	for _, lap := range sw.Laps {
		sum += lap.SplitMs
	}
	require.Len(t, sw.Laps, 4)
	assert.Equal(t, sw.Laps[0].CumulativeMs, sum)

	want := []Lap{
		{Index: 4, SplitMs: 6400, CumulativeMs: 9000},
		{Index: 3, SplitMs: 100, CumulativeMs: 2600},
		{Index: 2, SplitMs: 1300, CumulativeMs: 2500},
		{Index: 1, SplitMs: 1200, CumulativeMs: 1200},
	}
	if diff := cmp.Diff(want, sw.Laps); diff != "" {
		t.Fatalf("laps mismatch (-want +got):\n%s", diff)
	}
}

func TestStopwatchLapAcrossPause(t *testing.T) {
	sw := NewStopwatch()
	sw.Start(epoch)
	sw.Lap(epoch.Add(time.Second))
	sw.Pause(epoch.Add(2 * time.Second))

	_, ok := sw.Lap(epoch.Add(3 * time.Second))
	assert.False(t, ok)

	sw.Start(epoch.Add(time.Minute))
	lap, ok := sw.Lap(epoch.Add(time.Minute + 500*time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, Lap{Index: 2, SplitMs: 1500, CumulativeMs: 2500}, lap)
}

func TestStopwatchReset(t *testing.T) {
	sw := NewStopwatch()
	sw.Start(epoch)
	sw.Lap(epoch.Add(time.Second))
	sw.Reset()

	assert.Equal(t, StatusIdle, sw.Status)
	assert.Zero(t, sw.AccumulatedMs)
	assert.Zero(t, sw.LapMarkMs)
	assert.Empty(t, sw.Laps)
	assert.Nil(t, sw.RunStart)
	assert.Zero(t, sw.ElapsedMs(epoch.Add(time.Hour)))
}
