package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrServerNotFound  = errors.New("server not found")
	ErrSuspended       = errors.New("server is suspended")
	ErrSettingNotFound = errors.New("setting not found")
)

type PowerState string

const (
	PowerOffline  PowerState = "offline"
	PowerStarting PowerState = "starting"
	PowerRunning  PowerState = "running"
	PowerStopping PowerState = "stopping"
)

type PowerAction string

const (
	ActionStart   PowerAction = "start"
	ActionStop    PowerAction = "stop"
	ActionRestart PowerAction = "restart"
	ActionKill    PowerAction = "kill"
)

func ParsePowerAction(s string) (PowerAction, error) {
	switch a := PowerAction(s); a {
	case ActionStart, ActionStop, ActionRestart, ActionKill:
		return a, nil
	}
	return "", fmt.Errorf("invalid power action: %q", s)
}

type Limits struct {
	CPU    int   `json:"cpu"`
	Memory int64 `json:"memory"`
	Disk   int64 `json:"disk"`
}

type Allocation struct {
	IP        string `json:"ip"`
	Port      int    `json:"port"`
	Alias     string `json:"alias,omitempty"`
	IsDefault bool   `json:"is_default"`
}

type Server struct {
	ID                     string       `json:"identifier"`
	UUID                   string       `json:"uuid"`
	Name                   string       `json:"name"`
	Description            string       `json:"description"`
	Limits                 Limits       `json:"limits"`
	Allocations            []Allocation `json:"allocations"`
	IsTransferring         bool         `json:"is_transferring"`
	IsInstalling           bool         `json:"is_installing"`
	IsNodeUnderMaintenance bool         `json:"is_node_under_maintenance"`
	IsSuspended            bool         `json:"is_suspended"`
	Startup                string       `json:"-"`
	StopCommand            string       `json:"-"`
	CreatedAt              time.Time    `json:"created_at"`
}

// DefaultAllocation returns the allocation flagged as default, if any.
func (s *Server) DefaultAllocation() (Allocation, bool) {
	for _, a := range s.Allocations {
		if a.IsDefault {
			return a, true
		}
	}
	return Allocation{}, false
}

type ServerStats struct {
	State              PowerState `json:"current_state"`
	IsSuspended        bool       `json:"is_suspended"`
	CPUUsagePercent    float64    `json:"cpu_absolute"`
	MemoryUsageInBytes int64      `json:"memory_bytes"`
	DiskUsageInBytes   int64      `json:"disk_bytes"`
	NetworkRxBytes     int64      `json:"network_rx_bytes"`
	NetworkTxBytes     int64      `json:"network_tx_bytes"`
	UptimeMs           int64      `json:"uptime"`
}

type FileEntry struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	IsDirectory  bool      `json:"is_directory"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"modified_at"`
}
