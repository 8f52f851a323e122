package sdk

import "time"

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

// ServerStats is one resource sample, from the resources endpoint or a
// socket stats event.
type ServerStats struct {
	CPUUsagePercent    float64 `json:"cpu_absolute"`
	MemoryUsageInBytes int64   `json:"memory_bytes"`
	DiskUsageInBytes   int64   `json:"disk_bytes"`
	NetworkRxBytes     int64   `json:"network_rx_bytes"`
	NetworkTxBytes     int64   `json:"network_tx_bytes"`
	UptimeMs           int64   `json:"uptime"`
	PowerState         string  `json:"state"`
	IsSuspended        bool    `json:"is_suspended"`
}

type resourcesResponse struct {
	Object     string `json:"object"`
	Attributes struct {
		CurrentState string `json:"current_state"`
		IsSuspended  bool   `json:"is_suspended"`
		Resources    struct {
			MemoryBytes    int64   `json:"memory_bytes"`
			CPUAbsolute    float64 `json:"cpu_absolute"`
			DiskBytes      int64   `json:"disk_bytes"`
			NetworkRxBytes int64   `json:"network_rx_bytes"`
			NetworkTxBytes int64   `json:"network_tx_bytes"`
			Uptime         int64   `json:"uptime"`
		} `json:"resources"`
	} `json:"attributes"`
}

type Recaptcha struct {
	Enabled bool   `json:"enabled"`
	SiteKey string `json:"siteKey"`
}

type Theme struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	CardStyle      string `json:"cardStyle"`
	BorderRadius   int    `json:"borderRadius"`
	AnimationSpeed string `json:"animationSpeed"`
	TextContrast   int    `json:"textContrast"`
	CustomCSS      string `json:"customCss,omitempty"`
}

type SiteSettings struct {
	Name      string    `json:"name"`
	Logo      string    `json:"logo,omitempty"`
	LogoSize  int       `json:"logoSize,omitempty"`
	Locale    string    `json:"locale"`
	TwoFactor int       `json:"twoFactorRequired"`
	Recaptcha Recaptcha `json:"recaptcha"`
	Theme     Theme     `json:"theme"`
}

type FileEntry struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	IsDirectory  bool      `json:"is_directory"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"modified_at"`
}

type UpdateInfo struct {
	CurrentVersion  string `json:"current_version"`
	LatestVersion   string `json:"latest_version"`
	UpdateAvailable bool   `json:"update_available"`
	ReleaseURL      string `json:"release_url"`
	Error           string `json:"error,omitempty"`
}

type PortRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type CreateServerRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Limits      Limits `json:"limits"`
	Startup     string `json:"startup"`
	StopCommand string `json:"stop_command,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	RootAdmin bool   `json:"root_admin"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// SettingsResult is the answer to a settings submission. Failed lists keys
// that could not be written.
type SettingsResult struct {
	Values map[string]string `json:"values"`
	Failed map[string]string `json:"failed"`
}

// SocketEvent is the envelope of every websocket message.
type SocketEvent struct {
	Event string   `json:"event"`
	Args  []string `json:"args,omitempty"`
}

type NetworkStats struct {
	RxBytes int64 `json:"rx_bytes"`
	TxBytes int64 `json:"tx_bytes"`
}

// StatsPayload is the JSON carried in args[0] of a stats event.
type StatsPayload struct {
	MemoryBytes int64        `json:"memory_bytes"`
	CPUAbsolute float64      `json:"cpu_absolute"`
	DiskBytes   int64        `json:"disk_bytes"`
	Network     NetworkStats `json:"network"`
	Uptime      int64        `json:"uptime"`
	State       string       `json:"state,omitempty"`
}

func (p StatsPayload) Stats() ServerStats {
	return ServerStats{
		CPUUsagePercent:    p.CPUAbsolute,
		MemoryUsageInBytes: p.MemoryBytes,
		DiskUsageInBytes:   p.DiskBytes,
		NetworkRxBytes:     p.Network.RxBytes,
		NetworkTxBytes:     p.Network.TxBytes,
		UptimeMs:           p.Uptime,
		PowerState:         p.State,
	}
}
