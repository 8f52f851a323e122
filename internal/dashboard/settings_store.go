package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"octopanel/pkg/sdk"
)

type SettingsFetcher interface {
	GetSiteSettings(ctx context.Context) (*sdk.SiteSettings, error)
}

// SettingsStore holds the site settings fetched once at session start.
type SettingsStore struct {
	fetch  SettingsFetcher
	logger *slog.Logger

	mu       sync.RWMutex
	settings sdk.SiteSettings
	loaded   bool
}

func NewSettingsStore(fetch SettingsFetcher, logger *slog.Logger) *SettingsStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsStore{fetch: fetch, logger: logger}
}

// Load fetches the settings. Callers treat an error as fatal for the session.
func (s *SettingsStore) Load(ctx context.Context) (sdk.SiteSettings, error) {
	settings, err := s.fetch.GetSiteSettings(ctx)
	if err != nil {
		return sdk.SiteSettings{}, fmt.Errorf("failed to load site settings: %w", err)
	}

	s.mu.Lock()
	s.settings = *settings
	s.loaded = true
	s.mu.Unlock()
	return *settings, nil
}

// Get returns ok=false until the first Load succeeded.
func (s *SettingsStore) Get() (sdk.SiteSettings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, s.loaded
}

// Reload re-fetches after a settings updated event. On failure the
// previous settings stay in place.
func (s *SettingsStore) Reload(ctx context.Context) error {
	if _, err := s.Load(ctx); err != nil {
		s.logger.Warn("settings reload failed, keeping previous settings", "error", err)
		return err
	}
	return nil
}
