package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

// Snapshotter persists the current in-memory state of a domain.
type Snapshotter interface {
	Snapshot(ctx context.Context) error
}

// Maintenance wraps a gocron scheduler for slow housekeeping jobs that are not
// part of any tick family.
type Maintenance struct {
	scheduler gocron.Scheduler
}

// NewMaintenance creates a maintenance scheduler driven by clock.
func NewMaintenance(clock clockwork.Clock) (*Maintenance, error) {
	opts := []gocron.SchedulerOption{}
	if clock != nil {
		opts = append(opts, gocron.WithClock(clock))
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	return &Maintenance{scheduler: s}, nil
}

// ScheduleSnapshots runs every snapshotter each interval. Returns the job ID.
func (m *Maintenance) ScheduleSnapshots(interval time.Duration, targets map[string]Snapshotter) (string, error) {
	return m.schedule("snapshot", interval, gocron.NewTask(runSnapshots, targets))
}

// ScheduleEvery runs task each interval under name. Returns the job ID.
func (m *Maintenance) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	return m.schedule(name, interval, gocron.NewTask(task))
}

func (m *Maintenance) schedule(name string, interval time.Duration, task gocron.Task) (string, error) {
	job, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		task,
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("create %s job: %w", name, err)
	}
	return job.ID().String(), nil
}

// Start begins running scheduled jobs.
func (m *Maintenance) Start() {
	slog.Info("Starting maintenance scheduler")
	m.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs.
func (m *Maintenance) Stop() error {
	slog.Info("Stopping maintenance scheduler")
	return m.scheduler.Shutdown()
}

func runSnapshots(targets map[string]Snapshotter) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for name, target := range targets {
		if err := target.Snapshot(ctx); err != nil {
			slog.Error("Snapshot failed", "domain", name, "error", err)
		}
	}
}
