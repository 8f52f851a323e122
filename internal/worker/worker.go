package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"octopanel/internal/broker"
	"octopanel/internal/domain"
)

// SettingsTopic carries settings invalidations between daemon instances.
const SettingsTopic = "octopanel:settings"

// Invalidation is published after the worker reloaded its settings.
type Invalidation struct {
	Origin string `json:"origin"`
}

// Loader reads the current site settings.
type Loader func() (domain.SiteSettings, error)

// Worker holds the daemon's cached site settings. Restart asks it to reload
// in the background and announce the new settings to every instance.
type Worker struct {
	id      string
	load    Loader
	broker  broker.Broker
	logger  *slog.Logger
	restart chan struct{}

	mu       sync.RWMutex
	settings domain.SiteSettings
	loaded   bool
}

func New(id string, load Loader, b broker.Broker, logger *slog.Logger) *Worker {
	return &Worker{
		id:      id,
		load:    load,
		broker:  b,
		logger:  logger,
		restart: make(chan struct{}, 1),
	}
}

func (w *Worker) ID() string {
	return w.id
}

// Restart requests a reload. It never blocks; requests arriving while one is
// pending are coalesced.
func (w *Worker) Restart() {
	select {
	case w.restart <- struct{}{}:
	default:
	}
}

// Settings returns the cached settings and whether a load has succeeded.
func (w *Worker) Settings() (domain.SiteSettings, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.settings, w.loaded
}

// Refresh reloads the cache without publishing. A failed load keeps the
// previous settings.
func (w *Worker) Refresh() error {
	s, err := w.load()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.settings = s
	w.loaded = true
	w.mu.Unlock()
	return nil
}

// Run loads the settings once and then serves restart requests until ctx is
// done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Refresh(); err != nil {
		w.logger.Error("Initial settings load failed", "error", err)
	}
	w.logger.Info("Settings worker started", "instance", w.id)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Settings worker stopped")
			return nil
		case <-w.restart:
			if err := w.Refresh(); err != nil {
				w.logger.Error("Settings reload failed", "error", err)
				continue
			}
			w.logger.Info("Settings worker restarted")
			w.publish(ctx)
		}
	}
}

func (w *Worker) publish(ctx context.Context) {
	if w.broker == nil {
		return
	}
	payload, _ := json.Marshal(Invalidation{Origin: w.id})
	if err := w.broker.Publish(ctx, SettingsTopic, payload); err != nil {
		w.logger.Warn("Could not publish settings invalidation", "error", err)
	}
}

// Subscribe calls onChange for every invalidation. Invalidations from other
// instances refresh the cache first.
func (w *Worker) Subscribe(ctx context.Context, onChange func()) error {
	if w.broker == nil {
		return nil
	}
	return w.broker.Subscribe(ctx, SettingsTopic, func(payload []byte) {
		var inv Invalidation
		if err := json.Unmarshal(payload, &inv); err != nil {
			w.logger.Warn("Dropping malformed settings invalidation", "error", err)
			return
		}
		if inv.Origin != w.id {
			if err := w.Refresh(); err != nil {
				w.logger.Error("Settings refresh failed", "origin", inv.Origin, "error", err)
			}
		}
		onChange()
	})
}
