package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"

	"countdown/backend/internal/config"
	"countdown/backend/internal/db"
	"countdown/backend/internal/handler"
	"countdown/backend/internal/metrics"
	"countdown/backend/internal/notify"
	"countdown/backend/internal/repository"
	"countdown/backend/internal/router"
	"countdown/backend/internal/scheduler"
	"countdown/backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_, _ = maxprocs.Set()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if cfg.SlogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.OpenSQLite(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if _, err := db.RunMigrations(ctx, database, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	clock := clockwork.NewRealClock()
	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())

	var forward []notify.Publisher
	if cfg.NATSURL != "" {
		publisher, err := notify.ConnectNATS(ctx, cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			slog.Warn("NATS forwarding disabled", "error", err)
		} else {
			defer publisher.Close()
			forward = append(forward, publisher)
		}
	}
	hub := notify.NewHub(forward...)

	rt := service.Runtime{
		Clock:    clock,
		Hub:      hub,
		Recorder: recorder,
		Intervals: service.Intervals{
			Timers:    cfg.TickIntervals.Timers,
			Pomodoro:  cfg.TickIntervals.Pomodoro,
			Embed:     cfg.TickIntervals.Embed,
			Events:    cfg.TickIntervals.Events,
			Stopwatch: cfg.TickIntervals.Stopwatch,
		},
	}

	repo := repository.NewKVRepository(database)

	authService, err := service.NewAuthService(cfg.OwnerPassphrase, cfg.JWTSecret, cfg.TokenTTL, clock)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	if !authService.Enabled() {
		slog.Warn("OWNER_PASSPHRASE is empty, owner routes are unauthenticated")
	}

	timerService := service.NewTimerService(ctx, repo, rt)
	defer timerService.Close()
	pomodoroService := service.NewPomodoroService(ctx, repo, rt, cfg.Pomodoro)
	defer pomodoroService.Close()
	stopwatchService := service.NewStopwatchService(rt)
	defer stopwatchService.Close()
	eventService := service.NewEventService(ctx, repo, rt)
	defer eventService.Close()
	embedService := service.NewEmbedService(rt, cfg.EmbedIdleTTL)
	defer embedService.Close()
	settingsService := service.NewSettingsService(ctx, repo, rt)
	worldClockService, err := service.NewWorldClockService(ctx, repo, rt)
	if err != nil {
		return fmt.Errorf("init world clocks: %w", err)
	}

	snapshotters := map[string]scheduler.Snapshotter{
		repository.KeyTimers:      timerService,
		repository.KeyPomodoro:    pomodoroService,
		repository.KeyEvents:      eventService,
		repository.KeySettings:    settingsService,
		repository.KeyWorldClocks: worldClockService,
	}

	maintenance, err := scheduler.NewMaintenance(clock)
	if err != nil {
		return err
	}
	if _, err := maintenance.ScheduleSnapshots(cfg.SnapshotInterval, snapshotters); err != nil {
		return err
	}
	if _, err := maintenance.ScheduleEvery("embed-prune", cfg.SnapshotInterval, func() {
		if n := embedService.Prune(); n > 0 {
			slog.Info("Pruned idle embed timers", "count", n)
		}
	}); err != nil {
		return err
	}
	maintenance.Start()

	engine := router.New(authService, router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Timers:     handler.NewTimerHandler(timerService),
		Pomodoro:   handler.NewPomodoroHandler(pomodoroService),
		Stopwatch:  handler.NewStopwatchHandler(stopwatchService),
		Events:     handler.NewEventHandler(eventService),
		Embed:      handler.NewEmbedHandler(embedService),
		Settings:   handler.NewSettingsHandler(settingsService),
		WorldClock: handler.NewWorldClockHandler(worldClockService),
		Share:      handler.NewShareHandler(cfg.ShareBaseURL),
		Stream:     handler.NewStreamHandler(hub, clock),
	}, router.Options{
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustedProxies: cfg.TrustedProxies,
		Metrics:        recorder.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Backend listening", "addr", srv.Addr, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	serveErr := g.Wait()

	if err := maintenance.Stop(); err != nil {
		slog.Warn("Stop maintenance scheduler", "error", err)
	}

	// Final flush so a restart resumes from the latest state.
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for name, target := range snapshotters {
		if err := target.Snapshot(flushCtx); err != nil {
			slog.Error("Final snapshot failed", "domain", name, "error", err)
		}
	}
	return serveErr
}
