package dashboard

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"octopanel/pkg/sdk"
)

const (
	mib      = 1024 * 1024
	NotAvail = "n/a"
)

// Gauge is the display form of one resource. Percent is raw; use Clamped
// for bar widths.
type Gauge struct {
	Label      string
	Value      float64
	Current    string
	Limit      string
	Percent    float64
	HasPercent bool
	Alarm      bool
}

// Clamped is Percent capped at 100.
func (g Gauge) Clamped() float64 {
	if g.Percent > 100 {
		return 100
	}
	if g.Percent < 0 {
		return 0
	}
	return g.Percent
}

func CPUGauge(usage float64, limit int) Gauge {
	g := Gauge{
		Label:   "CPU",
		Value:   usage,
		Current: strconv.FormatFloat(round2(usage), 'f', -1, 64) + " %",
		Limit:   "Unlimited",
	}
	if limit <= 0 {
		return g
	}
	g.Limit = strconv.Itoa(limit) + " %"
	g.Percent = usage / float64(limit) * 100
	g.HasPercent = true
	g.Alarm = CPUAlarm(usage, limit)
	return g
}

func MemoryGauge(bytes, limitMB int64) Gauge {
	return byteGauge("Memory", bytes, limitMB)
}

func DiskGauge(bytes, limitMB int64) Gauge {
	return byteGauge("Disk", bytes, limitMB)
}

func byteGauge(label string, bytes, limitMB int64) Gauge {
	g := Gauge{
		Label:   label,
		Value:   float64(bytes),
		Current: FormatBytes(bytes),
		Limit:   "Unlimited",
	}
	if limitMB <= 0 {
		return g
	}
	g.Limit = FormatBytes(limitMB * mib)
	g.Percent = float64(bytes) / float64(limitMB*mib) * 100
	g.HasPercent = true
	g.Alarm = ByteAlarm(bytes, limitMB)
	return g
}

// CPUAlarm is true once usage reaches 90% of a non-zero limit.
func CPUAlarm(usage float64, limit int) bool {
	return limit > 0 && usage*10 >= float64(limit)*9
}

// ByteAlarm is true once bytes reach 90% of a non-zero limit in MB.
func ByteAlarm(bytes, limitMB int64) bool {
	return limitMB > 0 && bytes*10 >= limitMB*mib*9
}

var byteUnits = []string{"Bytes", "KiB", "MiB", "GiB", "TiB"}

// FormatBytes renders bytes in binary units with up to two decimals.
func FormatBytes(bytes int64) string {
	if bytes < 1 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	return strconv.FormatFloat(round2(v), 'f', -1, 64) + " " + byteUnits[i]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatUptime renders milliseconds as e.g. "1d 2h 3m" or "4m 5s".
func FormatUptime(ms int64) string {
	secs := ms / 1000
	if secs <= 0 {
		return "0s"
	}
	days := secs / 86400
	hours := secs % 86400 / 3600
	mins := secs % 3600 / 60
	s := secs % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, mins, s)
	case mins > 0:
		return fmt.Sprintf("%dm %ds", mins, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func StatusLabel(state string) string {
	switch state {
	case "running":
		return "Online"
	case "starting":
		return "Starting"
	case "stopping":
		return "Stopping"
	case "offline", "":
		return "Offline"
	default:
		return strings.ToUpper(state[:1]) + state[1:]
	}
}

// Unavailable returns the label shown instead of gauges, if any.
func Unavailable(srv *sdk.Server, stats *sdk.ServerStats) (string, bool) {
	switch {
	case srv.IsSuspended || (stats != nil && stats.IsSuspended):
		return "Server Suspended", true
	case srv.IsTransferring:
		return "Transferring Server", true
	case srv.IsInstalling:
		return "Installing Server", true
	case srv.IsNodeUnderMaintenance:
		return "Node Under Maintenance", true
	}
	return "", false
}

// Address is ip:port of the default allocation, or n/a.
func Address(srv *sdk.Server) string {
	a, ok := srv.DefaultAllocation()
	if !ok {
		return NotAvail
	}
	host := a.IP
	if a.Alias != "" {
		host = a.Alias
	}
	return fmt.Sprintf("%s:%d", host, a.Port)
}

// Port is the default allocation port, or n/a.
func Port(srv *sdk.Server) string {
	a, ok := srv.DefaultAllocation()
	if !ok {
		return NotAvail
	}
	return strconv.Itoa(a.Port)
}
