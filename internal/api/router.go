package api

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"octopanel/internal/app"
	"octopanel/internal/config"
	"octopanel/internal/domain"
	"octopanel/internal/runner"
	"octopanel/internal/server"
	"octopanel/internal/settings"
	"octopanel/internal/storage"
	"octopanel/internal/updater"
	"octopanel/internal/worker"
	"octopanel/internal/ws"
)

type Server struct {
	Config     *config.Config
	Logger     *slog.Logger
	Manager    *server.Manager
	Supervisor *runner.Supervisor
	Store      *storage.GormStore
	HubManager *ws.HubManager
	Settings   *settings.Service
	Worker     *worker.Worker
	Updater    *updater.Checker

	pages *template.Template
}

func NewAPIServer(c *app.Container) *Server {
	return &Server{
		Config:     c.Config,
		Logger:     c.Logger,
		Manager:    c.ServerManager,
		Supervisor: c.Supervisor,
		Store:      c.Store,
		HubManager: c.HubManager,
		Settings:   c.Settings,
		Worker:     c.Worker,
		Updater:    c.Updater,
		pages:      template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

func (api *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	user := func(h http.HandlerFunc) http.Handler { return api.AuthMiddleware(h, "") }
	admin := func(h http.HandlerFunc) http.Handler { return api.AuthMiddleware(h, "admin") }

	mux.Handle("GET /storage/", http.StripPrefix("/storage/", http.FileServer(http.Dir(api.Config.PublicPath))))

	mux.HandleFunc("GET /api/settings", api.handleSiteSettings)
	mux.HandleFunc("POST /auth/login", api.handleLogin)
	mux.HandleFunc("POST /auth/logout", api.handleLogout)
	mux.HandleFunc("POST /auth/setup", api.handleSetup)

	mux.Handle("GET /api/client/servers", user(api.handleListServers))
	mux.Handle("GET /api/client/servers/{uuid}", user(api.handleGetServer))
	mux.Handle("GET /api/client/servers/{uuid}/resources", user(api.handleResources))
	mux.Handle("POST /api/client/servers/{uuid}/power", user(api.handlePower))
	mux.Handle("POST /api/client/servers/{uuid}/command", user(api.handleCommand))
	mux.Handle("GET /api/client/servers/{uuid}/files", user(api.handleListFiles))
	mux.Handle("GET /api/client/servers/{uuid}/ws", user(api.handleConsole))

	mux.Handle("GET /admin/settings", admin(api.handleSettingsPage))
	mux.Handle("PATCH /admin/settings", admin(api.handleSettingsForm))
	mux.Handle("PATCH /api/application/settings", admin(api.handleSettingsAPI))
	mux.Handle("GET /api/application/version", admin(api.handleVersion))
	mux.Handle("POST /api/application/servers", admin(api.handleCreateServer))
	mux.Handle("DELETE /api/application/servers/{uuid}", admin(api.handleDeleteServer))
	mux.Handle("POST /api/application/servers/{uuid}/suspend", admin(api.handleSuspend(true)))
	mux.Handle("POST /api/application/servers/{uuid}/unsuspend", admin(api.handleSuspend(false)))
	mux.Handle("GET /api/application/port-range", admin(api.handleGetPortRange))
	mux.Handle("PUT /api/application/port-range", admin(api.handleSetPortRange))

	return corsMiddleware(methodOverride(mux))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (api *Server) Start(ctx context.Context, listenAddr string) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		api.Logger.Info("API listening", "address", listenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain and runner errors to HTTP status codes.
func (api *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrServerNotFound), errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSuspended),
		errors.Is(err, runner.ErrInvalidTransition),
		errors.Is(err, runner.ErrNotRunning),
		errors.Is(err, runner.ErrNoStartup):
		status = http.StatusConflict
	case errors.Is(err, server.ErrOutsideRoot):
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		api.Logger.Error("Request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}
