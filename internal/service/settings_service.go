package service

import (
	"context"
	"sync"

	apperrors "countdown/backend/internal/errors"
	"countdown/backend/internal/model"
	"countdown/backend/internal/repository"
)

const domainSettings = "settings"

type SettingsService struct {
	rt   Runtime
	blob *repository.Blob[model.Settings]

	mu       sync.Mutex
	settings model.Settings
}

func NewSettingsService(ctx context.Context, repo *repository.KVRepository, rt Runtime) *SettingsService {
	rt = rt.withDefaults()
	s := &SettingsService{
		rt:   rt,
		blob: repository.NewBlob[model.Settings](repo, repository.KeySettings),
	}
	s.settings = normalizeSettings(loadBlob(ctx, s.blob, model.DefaultSettings()))
	return s
}

func (s *SettingsService) Get(ctx context.Context) model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Update merges patch. Volume is clamped to 0..100; an unknown theme is rejected.
func (s *SettingsService) Update(ctx context.Context, patch model.SettingsPatch) (*model.Settings, *apperrors.APIError) {
	if patch.Theme != nil && !validTheme(*patch.Theme) {
		return nil, apperrors.BadRequest("invalid_theme", "theme must be light, dark or system")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if patch.SoundEnabled != nil {
		next.SoundEnabled = *patch.SoundEnabled
	}
	if patch.Volume != nil {
		next.Volume = *patch.Volume
	}
	if patch.Theme != nil {
		next.Theme = *patch.Theme
	}
	if patch.NotificationsEnabled != nil {
		next.NotificationsEnabled = *patch.NotificationsEnabled
	}
	s.settings = normalizeSettings(next)
	s.rt.Recorder.IncOperation(domainSettings, "update")
	_ = saveBlob(ctx, s.rt, s.blob, s.settings)

	out := s.settings
	return &out, nil
}

func (s *SettingsService) Snapshot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBlob(ctx, s.rt, s.blob, s.settings)
}

func normalizeSettings(in model.Settings) model.Settings {
	in.Volume = max(0, min(100, in.Volume))
	if !validTheme(in.Theme) {
		in.Theme = model.ThemeSystem
	}
	return in
}

func validTheme(theme string) bool {
	switch theme {
	case model.ThemeLight, model.ThemeDark, model.ThemeSystem:
		return true
	}
	return false
}
