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
	"countdown/backend/internal/scheduler"
	"countdown/backend/internal/share"
	"countdown/backend/internal/timekeeper"
)

const domainEmbed = "embed"

// DefaultEmbedIdleTTL is how long a stopped widget survives without requests.
const DefaultEmbedIdleTTL = time.Hour

// EmbedService hosts the widget countdowns opened from embed links. They live
// in memory only. Widgets that are not running and have not been touched for
// idleTTL are pruned.
type EmbedService struct {
	rt      Runtime
	family  *scheduler.Family
	idleTTL time.Duration

	mu       sync.Mutex
	order    []string
	embeds   map[string]*model.EmbedTimer
	lastSeen map[string]time.Time
}

func NewEmbedService(rt Runtime, idleTTL time.Duration) *EmbedService {
	rt = rt.withDefaults()
	if idleTTL <= 0 {
		idleTTL = DefaultEmbedIdleTTL
	}
	s := &EmbedService{
		rt:       rt,
		idleTTL:  idleTTL,
		embeds:   make(map[string]*model.EmbedTimer),
		lastSeen: make(map[string]time.Time),
	}
	s.family = rt.family(domainEmbed, rt.Intervals.Embed, s.Tick)
	return s
}

// Open creates a widget countdown. Minimal widgets start immediately.
func (s *EmbedService) Open(ctx context.Context, params share.Embed) (*model.EmbedView, *apperrors.APIError) {
	if strings.TrimSpace(params.Label) == "" {
		return nil, apperrors.BadRequest("invalid_label", "label is required")
	}
	if params.DurationSeconds <= 0 || params.DurationSeconds > share.MaxTimerSeconds {
		return nil, apperrors.BadRequest("invalid_duration", "duration must be between 1 second and 24 hours")
	}
	if params.Mode != model.EmbedModeFull {
		params.Mode = model.EmbedModeMinimal
	}
	if params.Theme != model.ThemeDark {
		params.Theme = model.ThemeLight
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.rt.now()
	s.pruneLocked(now)
	if len(s.embeds) >= model.MaxEmbeds {
		return nil, apperrors.LimitReached("embed_limit", "too many embed timers are open", model.MaxEmbeds)
	}

	embed := &model.EmbedTimer{
		ID:        uuid.NewString(),
		Label:     params.Label,
		Countdown: timekeeper.NewCountdown(params.DurationSeconds),
		Mode:      params.Mode,
		Theme:     params.Theme,
	}
	if embed.Mode == model.EmbedModeMinimal {
		embed.Start(now)
		s.family.Wake()
	}
	s.embeds[embed.ID] = embed
	s.order = append(s.order, embed.ID)
	s.lastSeen[embed.ID] = now
	s.rt.Recorder.IncOperation(domainEmbed, "open")

	view := embedView(*embed, now)
	return &view, nil
}

func (s *EmbedService) Get(ctx context.Context, id string) (*model.EmbedView, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	embed, ok := s.embeds[id]
	if !ok {
		return nil, embedNotFound()
	}
	now := s.rt.now()
	s.lastSeen[id] = now
	view := embedView(*embed, now)
	return &view, nil
}

func (s *EmbedService) Start(ctx context.Context, id string) (*model.EmbedView, *apperrors.APIError) {
	return s.mutate(id, "start", func(e *model.EmbedTimer, now time.Time) bool {
		if !e.Start(now) {
			return false
		}
		s.family.Wake()
		return true
	})
}

func (s *EmbedService) Pause(ctx context.Context, id string) (*model.EmbedView, *apperrors.APIError) {
	return s.mutate(id, "pause", func(e *model.EmbedTimer, now time.Time) bool {
		return e.Pause(now)
	})
}

func (s *EmbedService) Reset(ctx context.Context, id string) (*model.EmbedView, *apperrors.APIError) {
	return s.mutate(id, "reset", func(e *model.EmbedTimer, _ time.Time) bool {
		e.Reset()
		return true
	})
}

// Remove discards a widget countdown.
func (s *EmbedService) Remove(ctx context.Context, id string) *apperrors.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.embeds[id]; !ok {
		return embedNotFound()
	}
	s.removeLocked(id)
	s.rt.Recorder.IncOperation(domainEmbed, "remove")
	return nil
}

// Prune drops stopped widgets idle for longer than the TTL and returns how
// many were removed. Running widgets are kept until they complete.
func (s *EmbedService) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(s.rt.now())
}

// Len returns the number of open widgets.
func (s *EmbedService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.embeds)
}

func (s *EmbedService) pruneLocked(now time.Time) int {
	var stale []string
	for _, id := range s.order {
		if s.embeds[id].Running() {
			continue
		}
		if now.Sub(s.lastSeen[id]) > s.idleTTL {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		s.removeLocked(id)
	}
	if len(stale) > 0 {
		slog.Debug("Pruned idle embed timers", "count", len(stale))
	}
	return len(stale)
}

func (s *EmbedService) removeLocked(id string) {
	delete(s.embeds, id)
	delete(s.lastSeen, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
}

func (s *EmbedService) Tick(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	running := 0
	for _, id := range s.order {
		e := s.embeds[id]
		if !e.Running() {
			continue
		}
		before := e.RemainingSeconds
		if e.Tick(now) {
			s.lastSeen[id] = now
			s.rt.Recorder.IncCompletion("embed")
			slog.Info("Embed timer completed", "id", e.ID, "label", e.Label)
			s.rt.publish(notify.Event{Kind: notify.KindCompleted, Domain: domainEmbed, UnitID: e.ID, Label: e.Label, At: now})
			continue
		}
		running++
		if e.RemainingSeconds != before {
			s.rt.publish(notify.Event{Kind: notify.KindProgress, Domain: domainEmbed, UnitID: e.ID, Label: e.Label, RemainingSeconds: e.RemainingSeconds, At: now})
		}
	}
	s.rt.Recorder.SetRunning(domainEmbed, running)
	return running > 0
}

func (s *EmbedService) Close() {
	s.family.Stop()
}

func (s *EmbedService) mutate(id, op string, apply func(*model.EmbedTimer, time.Time) bool) (*model.EmbedView, *apperrors.APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	embed, ok := s.embeds[id]
	if !ok {
		return nil, embedNotFound()
	}
	now := s.rt.now()
	s.lastSeen[id] = now
	if apply(embed, now) {
		s.rt.Recorder.IncOperation(domainEmbed, op)
	}
	view := embedView(*embed, now)
	return &view, nil
}

func embedView(e model.EmbedTimer, now time.Time) model.EmbedView {
	e.RemainingSeconds = e.Remaining(now)
	return model.EmbedView{EmbedTimer: e, Display: timekeeper.FormatClock(e.RemainingSeconds)}
}

func embedNotFound() *apperrors.APIError {
	return apperrors.NotFound("embed_not_found", "embed timer not found")
}
