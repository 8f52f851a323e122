package app

import (
	"fmt"
	"log/slog"
	"os"

	"octopanel/internal/broker"
	"octopanel/internal/config"
	"octopanel/internal/domain"
	"octopanel/internal/runner"
	"octopanel/internal/server"
	"octopanel/internal/settings"
	"octopanel/internal/storage"
	"octopanel/internal/updater"
	"octopanel/internal/worker"
	"octopanel/internal/ws"

	"github.com/google/uuid"
)

const consoleHistorySize = 100

type Container struct {
	Config        *config.Config
	Logger        *slog.Logger
	Store         *storage.GormStore
	Broker        broker.Broker
	ServerManager *server.Manager
	HubManager    *ws.HubManager
	Supervisor    *runner.Supervisor
	Settings      *settings.Service
	Logos         *settings.LogoStore
	Worker        *worker.Worker
	Updater       *updater.Checker
}

// NewContainer wires the daemon's components. The Valkey broker is used when
// an address is configured, the in-process one otherwise.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	for _, path := range []string{cfg.ServersPath, cfg.PublicPath} {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("could not create directory '%s': %w", path, err)
		}
	}

	store, err := storage.NewGormStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("could not connect to DB: %w", err)
	}

	var b broker.Broker
	if cfg.Valkey.Addr != "" {
		b, err = broker.NewValkeyBroker(cfg.Valkey.Addr, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
	} else {
		b = broker.NewMemoryBroker()
	}

	hubs := ws.NewHubManager(consoleHistorySize, logger)
	supervisor := runner.NewSupervisor(store, hubs, cfg.ServersPath, logger)
	hubs.SetHandler(supervisor)

	load := func() (domain.SiteSettings, error) {
		return settings.LoadSite(store, cfg.AppName, cfg.Recaptcha)
	}
	w := worker.New(uuid.NewString(), load, b, logger)

	logos := settings.NewLogoStore(cfg.PublicPath)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Store:         store,
		Broker:        b,
		ServerManager: server.NewManager(cfg.ServersPath, store),
		HubManager:    hubs,
		Supervisor:    supervisor,
		Settings:      settings.NewService(store, logos, cfg.Locales, w, logger),
		Logos:         logos,
		Worker:        w,
		Updater:       updater.NewChecker(),
	}, nil
}

func (c *Container) Close() error {
	c.HubManager.StopAll()
	c.Broker.Close()
	return c.Store.Close()
}
