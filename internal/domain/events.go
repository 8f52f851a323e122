package domain

import "encoding/json"

// Socket event names shared by the daemon and its clients.
const (
	EventStats           = "stats"
	EventStatus          = "status"
	EventConsoleOutput   = "console output"
	EventSettingsUpdated = "settings updated"
	EventDaemonError     = "daemon error"

	EventSendStats   = "send stats"
	EventSetState    = "set state"
	EventSendCommand = "send command"
)

type Event struct {
	Event string   `json:"event"`
	Args  []string `json:"args,omitempty"`
}

func (e Event) Encode() []byte {
	b, _ := json.Marshal(e)
	return b
}

type NetworkPayload struct {
	RxBytes int64 `json:"rx_bytes"`
	TxBytes int64 `json:"tx_bytes"`
}

// StatsPayload is the JSON carried in args[0] of a stats event.
type StatsPayload struct {
	MemoryBytes int64          `json:"memory_bytes"`
	CPUAbsolute float64        `json:"cpu_absolute"`
	DiskBytes   int64          `json:"disk_bytes"`
	Network     NetworkPayload `json:"network"`
	Uptime      int64          `json:"uptime"`
	State       PowerState     `json:"state"`
}

func NewStatsPayload(s ServerStats) StatsPayload {
	return StatsPayload{
		MemoryBytes: s.MemoryUsageInBytes,
		CPUAbsolute: s.CPUUsagePercent,
		DiskBytes:   s.DiskUsageInBytes,
		Network:     NetworkPayload{RxBytes: s.NetworkRxBytes, TxBytes: s.NetworkTxBytes},
		Uptime:      s.UptimeMs,
		State:       s.State,
	}
}

func StatsEvent(s ServerStats) Event {
	b, _ := json.Marshal(NewStatsPayload(s))
	return Event{Event: EventStats, Args: []string{string(b)}}
}
