package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"octopanel/internal/api"
	"octopanel/internal/app"
	"octopanel/internal/config"
	"octopanel/internal/domain"
	"octopanel/internal/logger"

	"golang.org/x/sync/errgroup"
)

func main() {
	fmt.Println("Starting Octopanel Daemon...")

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("Error getting user config directory: %v", err)
	}
	configDir := filepath.Join(userConfigDir, config.AppDirName())

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	logger.Init(cfg.Log.Format, cfg.Log.Level)

	fmt.Printf("Using database: %s\n", cfg.DatabasePath)
	fmt.Printf("Using servers directory: %s\n", cfg.ServersPath)
	fmt.Printf("Using public directory: %s\n", cfg.PublicPath)

	container, err := app.NewContainer(cfg, slog.Default())
	if err != nil {
		log.Fatalf("Fatal: %v", err)
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Every instance pushes "settings updated" to its own socket clients,
	// whichever instance saved the settings.
	err = container.Worker.Subscribe(ctx, func() {
		container.HubManager.BroadcastAll(domain.Event{Event: domain.EventSettingsUpdated})
	})
	if err != nil {
		log.Fatalf("Fatal: could not subscribe to settings updates: %v", err)
	}

	apiServer := api.NewAPIServer(container)
	listenAddr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("API Server listening on %s\n", listenAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return apiServer.Start(gctx, listenAddr)
	})
	g.Go(func() error {
		return container.Worker.Run(gctx)
	})
	g.Go(func() error {
		return container.Supervisor.Run(gctx, cfg.Stats.Interval)
	})

	if err := g.Wait(); err != nil {
		slog.Error("daemon stopped with error", "error", err)
	}
	slog.Info("daemon stopped")
}
