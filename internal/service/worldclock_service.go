package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	apperrors "countdown/backend/internal/errors"
	"countdown/backend/internal/model"
	"countdown/backend/internal/repository"
)

const (
	domainWorldClocks = "worldclocks"
	locationCacheSize = 128
)

// WorldClockService owns the ordered list of saved time zones.
type WorldClockService struct {
	rt        Runtime
	blob      *repository.Blob[[]model.WorldClock]
	locations *lru.Cache[string, *time.Location]

	mu     sync.Mutex
	clocks []model.WorldClock
}

func NewWorldClockService(ctx context.Context, repo *repository.KVRepository, rt Runtime) (*WorldClockService, error) {
	rt = rt.withDefaults()
	cache, err := lru.New[string, *time.Location](locationCacheSize)
	if err != nil {
		return nil, err
	}
	s := &WorldClockService{
		rt:        rt,
		blob:      repository.NewBlob[[]model.WorldClock](repo, repository.KeyWorldClocks),
		locations: cache,
	}
	s.clocks = loadBlob(ctx, s.blob, []model.WorldClock{})
	return s, nil
}

func (s *WorldClockService) List(ctx context.Context) []model.WorldClockView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

// Add saves a new zone. The zone must load and must not be saved already.
func (s *WorldClockService) Add(ctx context.Context, timezone, label string) (*model.WorldClockView, *apperrors.APIError) {
	timezone = strings.TrimSpace(timezone)
	loc, ok := s.location(timezone)
	if !ok {
		return nil, apperrors.BadRequest("invalid_timezone", "unknown time zone")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.clocks) >= model.MaxWorldClocks {
		return nil, apperrors.LimitReached("clock_limit", "world clock limit reached", model.MaxWorldClocks)
	}
	if slices.ContainsFunc(s.clocks, func(c model.WorldClock) bool { return c.Timezone == timezone }) {
		return nil, apperrors.Conflict("timezone_exists", "time zone already added", nil)
	}

	if strings.TrimSpace(label) == "" {
		label = defaultClockLabel(timezone)
	}
	clock := model.WorldClock{ID: uuid.NewString(), Timezone: timezone, Label: label}
	s.clocks = append(s.clocks, clock)
	s.rt.Recorder.IncOperation(domainWorldClocks, "add")
	_ = saveBlob(ctx, s.rt, s.blob, s.clocks)

	view := clockView(clock, loc, s.rt.now())
	return &view, nil
}

func (s *WorldClockService) Remove(ctx context.Context, id string) *apperrors.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.clocks, func(c model.WorldClock) bool { return c.ID == id })
	if idx < 0 {
		return apperrors.NotFound("clock_not_found", "world clock not found")
	}
	s.clocks = slices.Delete(s.clocks, idx, idx+1)
	s.rt.Recorder.IncOperation(domainWorldClocks, "remove")
	_ = saveBlob(ctx, s.rt, s.blob, s.clocks)
	return nil
}

// Reorder moves the clock at from to position to. Out of range indexes leave
// the list unchanged.
func (s *WorldClockService) Reorder(ctx context.Context, from, to int) []model.WorldClockView {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.clocks)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return s.listLocked()
	}
	moved := s.clocks[from]
	s.clocks = slices.Delete(s.clocks, from, from+1)
	s.clocks = slices.Insert(s.clocks, to, moved)
	s.rt.Recorder.IncOperation(domainWorldClocks, "reorder")
	_ = saveBlob(ctx, s.rt, s.blob, s.clocks)
	return s.listLocked()
}

func (s *WorldClockService) Snapshot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBlob(ctx, s.rt, s.blob, s.clocks)
}

func (s *WorldClockService) listLocked() []model.WorldClockView {
	now := s.rt.now()
	views := make([]model.WorldClockView, 0, len(s.clocks))
	for _, c := range s.clocks {
		loc, ok := s.location(c.Timezone)
		if !ok {
			loc = time.UTC
		}
		views = append(views, clockView(c, loc, now))
	}
	return views
}

func (s *WorldClockService) location(name string) (*time.Location, bool) {
	if name == "" || name == "Local" {
		return nil, false
	}
	if loc, ok := s.locations.Get(name); ok {
		return loc, true
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, false
	}
	s.locations.Add(name, loc)
	return loc, true
}

func clockView(c model.WorldClock, loc *time.Location, now time.Time) model.WorldClockView {
	local := now.In(loc)
	abbr, offset := local.Zone()
	return model.WorldClockView{WorldClock: c, LocalTime: local, OffsetSeconds: offset, Abbreviation: abbr}
}

func defaultClockLabel(timezone string) string {
	name := timezone
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ReplaceAll(name, "_", " ")
}
