package dashboard

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"octopanel/pkg/sdk"

	"github.com/jonboulle/clockwork"
)

// API is the part of the client a server view needs.
type API interface {
	StatsFetcher
	SettingsFetcher
	ConsoleURL(id string) (string, error)
}

// Snapshot is everything a render needs, read in one go.
type Snapshot struct {
	Server      sdk.Server
	Status      string
	StatusLabel string
	Connection  ConnState
	HasStats    bool
	Unavailable string
	CPU         Gauge
	Memory      Gauge
	Disk        Gauge
	Uptime      string
	NetworkRx   string
	NetworkTx   string
	Address     string
	Updating    bool
	Console     []string
	LastError   string
}

// ServerView wires a poller and a socket bridge for one server and exposes
// snapshots for rendering. Close tears both down.
type ServerView struct {
	server   sdk.Server
	slot     *StatsSlot
	poller   *Poller
	pulse    *Pulse
	bridge   *Bridge
	console  *ConsoleBuffer
	settings *SettingsStore
	logger   *slog.Logger

	cpu, mem, disk *Smoother

	cancelPoll func()
	cancelWS   context.CancelFunc
	wsDone     chan struct{}

	// Settings reloads started by socket events; Close cancels and waits.
	reloadCtx    context.Context
	cancelReload context.CancelFunc
	reloads      sync.WaitGroup
}

type ViewOptions struct {
	Clock        clockwork.Clock
	PollInterval time.Duration
	Settings     *SettingsStore
	// Changed is called from background goroutines whenever new data
	// arrives. It must not block.
	Changed func()
	// Socket disables the realtime channel when false.
	Socket bool
}

func NewServerView(api API, srv sdk.Server, opts ViewOptions, logger *slog.Logger) *ServerView {
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	changed := opts.Changed
	if changed == nil {
		changed = func() {}
	}

	v := &ServerView{
		server:   srv,
		slot:     NewStatsSlot(),
		pulse:    NewPulse(clock, updatingPulse),
		console:  NewConsoleBuffer(defaultConsoleLines),
		settings: opts.Settings,
		logger:   logger.With("server", srv.ID),
		cpu:      NewSmoother(clock, 0),
		mem:      NewSmoother(clock, 0),
		disk:     NewSmoother(clock, 0),
	}

	v.poller = NewPoller(api, v.slot, clock, v.pulse, v.logger)
	v.poller.Suspended = srv.IsSuspended
	v.cancelPoll = v.poller.StartPolling(srv.ID, opts.PollInterval)

	if !opts.Socket {
		return v
	}

	url, err := api.ConsoleURL(srv.ID)
	if err != nil {
		v.logger.Warn("console channel unavailable", "error", err)
		return v
	}
	transport := NewTransport(url, clock, v.logger)
	v.bridge = NewBridge(transport, v.slot, BridgeHandlers{
		Console: func(line string) {
			v.console.Append(line)
			changed()
		},
		Status:       func(string) { changed() },
		StateChanged: func(ConnState) { changed() },
		DaemonError: func(msg string) {
			v.console.Append("[daemon] " + msg)
			changed()
		},
		SettingsUpdated: func() {
			if v.settings == nil {
				return
			}
			v.reloads.Add(1)
			go func() {
				defer v.reloads.Done()
				ctx, cancel := context.WithTimeout(v.reloadCtx, 10*time.Second)
				defer cancel()
				if v.settings.Reload(ctx) == nil && v.reloadCtx.Err() == nil {
					changed()
				}
			}()
		},
	}, v.logger)

	v.reloadCtx, v.cancelReload = context.WithCancel(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	v.cancelWS = cancel
	v.wsDone = make(chan struct{})
	go func() {
		defer close(v.wsDone)
		transport.Run(ctx, v.bridge)
	}()
	return v
}

func (v *ServerView) Server() sdk.Server {
	return v.server
}

// Matches reports whether the view still reflects srv. A view built from an
// older copy of the server, or one whose poller stopped on a suspended sample
// while the server is no longer suspended, has to be replaced.
func (v *ServerView) Matches(srv sdk.Server) bool {
	cur := v.server
	if cur.UUID != srv.UUID || cur.Name != srv.Name || cur.Description != srv.Description ||
		cur.Limits != srv.Limits ||
		cur.IsSuspended != srv.IsSuspended || cur.IsInstalling != srv.IsInstalling ||
		cur.IsTransferring != srv.IsTransferring || cur.IsNodeUnderMaintenance != srv.IsNodeUnderMaintenance ||
		!slices.Equal(cur.Allocations, srv.Allocations) {
		return false
	}
	stats, has := v.slot.Latest()
	return !has || !stats.IsSuspended || srv.IsSuspended
}

// Bridge is nil when the view runs without a socket.
func (v *ServerView) Bridge() *Bridge {
	return v.bridge
}

func (v *ServerView) Power(action string) error {
	if v.bridge == nil {
		return ErrNotConnected
	}
	return v.bridge.SetPowerState(action)
}

func (v *ServerView) SendCommand(line string) error {
	if v.bridge == nil {
		return ErrNotConnected
	}
	return v.bridge.SendCommand(line)
}

// Snapshot reads the current state. Alarms use the raw sample, the gauge
// values are the smoothed ones.
func (v *ServerView) Snapshot() Snapshot {
	stats, has := v.slot.Latest()
	status := v.slot.PowerState()

	snap := Snapshot{
		Server:      v.server,
		Status:      status,
		StatusLabel: StatusLabel(status),
		HasStats:    has,
		Address:     Address(&v.server),
		Updating:    v.pulse.Active(),
		Console:     v.console.Lines(),
	}
	if v.bridge != nil {
		snap.Connection = v.bridge.State()
	}
	if err := v.poller.LastError(); err != nil {
		snap.LastError = err.Error()
	}

	if label, ok := Unavailable(&v.server, &stats); ok {
		snap.Unavailable = label
		return snap
	}

	limits := v.server.Limits
	snap.CPU = CPUGauge(stats.CPUUsagePercent, limits.CPU)
	snap.Memory = MemoryGauge(stats.MemoryUsageInBytes, limits.Memory)
	snap.Disk = DiskGauge(stats.DiskUsageInBytes, limits.Disk)

	v.cpu.SetTarget(snap.CPU.Percent)
	v.mem.SetTarget(snap.Memory.Clamped())
	v.disk.SetTarget(snap.Disk.Clamped())
	snap.CPU.Percent = v.cpu.Value()
	snap.Memory.Percent = v.mem.Value()
	snap.Disk.Percent = v.disk.Value()

	snap.Uptime = FormatUptime(stats.UptimeMs)
	snap.NetworkRx = FormatBytes(stats.NetworkRxBytes)
	snap.NetworkTx = FormatBytes(stats.NetworkTxBytes)
	return snap
}

// Animating reports whether any gauge is still easing.
func (v *ServerView) Animating() bool {
	return v.cpu.Animating() || v.mem.Animating() || v.disk.Animating()
}

// Close stops polling and releases the socket. No callback fires after it
// returns.
func (v *ServerView) Close() {
	v.cancelPoll()
	if v.bridge != nil {
		v.bridge.Release()
	}
	if v.cancelWS != nil {
		v.cancelWS()
		<-v.wsDone
		v.cancelReload()
		v.reloads.Wait()
	}
}
