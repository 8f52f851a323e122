package cmd

import (
	"log"

	"octopanel/internal/cli/ui"
	"octopanel/internal/dashboard"
)

// RunDashboard loads the site settings once and then alternates between the
// server list and a server console. A settings failure ends the session.
func RunDashboard() {
	settings := dashboard.NewSettingsStore(Client, Logger)

	ctx, cancel := requestContext()
	site, err := settings.Load(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Error loading panel settings: %v", err)
	}
	ui.ApplySettings(site)

	for {
		serverID, err := ui.RunServerDashboard(Client, settings, Logger)
		if err != nil {
			log.Fatal(err)
		}
		if serverID == "" {
			return
		}
		back, err := ui.RunConsole(Client, settings, serverID, Logger)
		if err != nil {
			Logger.Error("console failed", "server", serverID, "error", err)
		}
		if !back {
			return
		}
	}
}
