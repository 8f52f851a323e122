package api

import (
	"encoding/json"
	"net/http"

	"octopanel/internal/domain"
	"octopanel/internal/server"
)

type powerRequest struct {
	Signal string `json:"signal"`
}

type commandRequest struct {
	Command string `json:"command"`
}

// ResourcesResponse is the body of the resources endpoint.
type ResourcesResponse struct {
	Object     string             `json:"object"`
	Attributes ResourceAttributes `json:"attributes"`
}

type ResourceAttributes struct {
	CurrentState domain.PowerState `json:"current_state"`
	IsSuspended  bool              `json:"is_suspended"`
	Resources    ResourceUsage     `json:"resources"`
}

type ResourceUsage struct {
	MemoryBytes    int64   `json:"memory_bytes"`
	CPUAbsolute    float64 `json:"cpu_absolute"`
	DiskBytes      int64   `json:"disk_bytes"`
	NetworkRxBytes int64   `json:"network_rx_bytes"`
	NetworkTxBytes int64   `json:"network_tx_bytes"`
	Uptime         int64   `json:"uptime"`
}

func (api *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := api.Manager.ListServers()
	if err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, servers)
}

func (api *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	srv, err := api.Manager.GetServer(r.PathValue("uuid"))
	if err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, srv)
}

func (api *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	stats, err := api.Supervisor.Stats(r.PathValue("uuid"))
	if err != nil {
		api.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ResourcesResponse{
		Object: "stats",
		Attributes: ResourceAttributes{
			CurrentState: stats.State,
			IsSuspended:  stats.IsSuspended,
			Resources: ResourceUsage{
				MemoryBytes:    stats.MemoryUsageInBytes,
				CPUAbsolute:    stats.CPUUsagePercent,
				DiskBytes:      stats.DiskUsageInBytes,
				NetworkRxBytes: stats.NetworkRxBytes,
				NetworkTxBytes: stats.NetworkTxBytes,
				Uptime:         stats.UptimeMs,
			},
		},
	})
}

func (api *Server) handlePower(w http.ResponseWriter, r *http.Request) {
	var req powerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	action, err := domain.ParsePowerAction(req.Signal)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	srv, err := api.Manager.GetServer(r.PathValue("uuid"))
	if err != nil {
		api.writeError(w, err)
		return
	}
	if err := api.Supervisor.Power(srv.ID, action); err != nil {
		api.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
		http.Error(w, "Missing command", http.StatusBadRequest)
		return
	}
	srv, err := api.Manager.GetServer(r.PathValue("uuid"))
	if err != nil {
		api.writeError(w, err)
		return
	}
	if err := api.Supervisor.SendCommand(srv.ID, req.Command); err != nil {
		api.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	srv, err := api.Manager.GetServer(r.PathValue("uuid"))
	if err != nil {
		api.writeError(w, err)
		return
	}
	api.HubManager.GetHub(srv.ID).ServeWs(w, r)
}

func (api *Server) handleCreateServer(w http.ResponseWriter, r *http.Request) {
	var req server.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	srv, err := api.Manager.CreateServer(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	api.Logger.Info("Server created", "server", srv.ID, "name", srv.Name)
	writeJSON(w, http.StatusCreated, srv)
}

func (api *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	srv, err := api.Manager.GetServer(r.PathValue("uuid"))
	if err != nil {
		api.writeError(w, err)
		return
	}
	if err := api.Supervisor.Terminate(r.Context(), srv.ID); err != nil {
		api.writeError(w, err)
		return
	}
	api.HubManager.RemoveHub(srv.ID)
	if err := api.Manager.DeleteServer(srv.ID); err != nil {
		api.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Suspending a server also kills it.
func (api *Server) handleSuspend(suspended bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		srv, err := api.Manager.GetServer(r.PathValue("uuid"))
		if err != nil {
			api.writeError(w, err)
			return
		}
		if suspended {
			if err := api.Supervisor.Terminate(r.Context(), srv.ID); err != nil {
				api.writeError(w, err)
				return
			}
		}
		if err := api.Manager.SetSuspended(srv.ID, suspended); err != nil {
			api.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (api *Server) handleGetPortRange(w http.ResponseWriter, r *http.Request) {
	start, end, err := api.Store.GetPortRange()
	if err != nil {
		api.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"start": start, "end": end})
}

func (api *Server) handleSetPortRange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Start int `json:"start"`
		End   int `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := api.Store.SetPortRange(req.Start, req.End); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.Updater.Check(r.Context()))
}
