package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"octopanel/pkg/sdk"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu     sync.Mutex
	events []sdk.SocketEvent
}

func (r *recordingSender) Send(ev sdk.SocketEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSender) named(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Event == name {
			n++
		}
	}
	return n
}

func TestBridgeRequestsStatsOnEveryConnect(t *testing.T) {
	sender := &recordingSender{}
	b := NewBridge(sender, NewStatsSlot(), BridgeHandlers{}, nil)

	b.SetState(Connecting)
	b.SetState(Connected)
	b.SetState(Connected)
	assert.Equal(t, 1, sender.named(EventSendStats))

	b.SetState(Disconnected)
	b.SetState(Connecting)
	b.SetState(Connected)
	assert.Equal(t, 2, sender.named(EventSendStats))
	assert.Equal(t, Connected, b.State())
}

func TestBridgeParsesStatsPayload(t *testing.T) {
	slot := NewStatsSlot()
	b := NewBridge(&recordingSender{}, slot, BridgeHandlers{}, nil)

	b.HandleEvent(sdk.SocketEvent{Event: EventStats, Args: []string{
		`{"memory_bytes":1048576,"cpu_absolute":12.5,"disk_bytes":2048,"network":{"rx_bytes":10,"tx_bytes":20},"uptime":5000,"state":"running"}`,
	}})

	stats, ok := slot.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(1048576), stats.MemoryUsageInBytes)
	assert.Equal(t, 12.5, stats.CPUUsagePercent)
	assert.Equal(t, int64(2048), stats.DiskUsageInBytes)
	assert.Equal(t, int64(10), stats.NetworkRxBytes)
	assert.Equal(t, int64(20), stats.NetworkTxBytes)
	assert.Equal(t, int64(5000), stats.UptimeMs)
	assert.Equal(t, "running", stats.PowerState)
}

func TestBridgeStatsWithoutStateKeepsStatus(t *testing.T) {
	slot := NewStatsSlot()
	b := NewBridge(&recordingSender{}, slot, BridgeHandlers{}, nil)

	b.HandleEvent(sdk.SocketEvent{Event: EventStatus, Args: []string{"running"}})
	require.Equal(t, "running", slot.PowerState())

	b.HandleEvent(sdk.SocketEvent{Event: EventStats, Args: []string{
		`{"memory_bytes":1048576,"cpu_absolute":12.5,"disk_bytes":2048,"network":{"rx_bytes":10,"tx_bytes":20},"uptime":5000}`,
	}})

	stats, ok := slot.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(1048576), stats.MemoryUsageInBytes)
	assert.Equal(t, "running", slot.PowerState())
	assert.Equal(t, "Online", StatusLabel(slot.PowerState()))

	b.HandleEvent(sdk.SocketEvent{Event: EventStatus, Args: []string{"stopping"}})
	b.HandleEvent(sdk.SocketEvent{Event: EventStats, Args: []string{`{"memory_bytes":1,"uptime":6000}`}})
	assert.Equal(t, "stopping", slot.PowerState())

	b.HandleEvent(sdk.SocketEvent{Event: EventStats, Args: []string{`{"memory_bytes":1,"state":"offline"}`}})
	assert.Equal(t, "offline", slot.PowerState())
}

func TestBridgeDropsMalformedStats(t *testing.T) {
	slot := NewStatsSlot()
	b := NewBridge(&recordingSender{}, slot, BridgeHandlers{}, nil)

	b.HandleEvent(sdk.SocketEvent{Event: EventStats, Args: []string{`{"memory_bytes":1`}})
	b.HandleEvent(sdk.SocketEvent{Event: EventStats})
	_, ok := slot.Latest()
	assert.False(t, ok)

	b.HandleEvent(sdk.SocketEvent{Event: EventStats, Args: []string{`{"memory_bytes":7}`}})
	b.HandleEvent(sdk.SocketEvent{Event: EventStats, Args: []string{`not json`}})
	stats, ok := slot.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(7), stats.MemoryUsageInBytes)
}

func TestBridgeStatusConsoleAndSettings(t *testing.T) {
	slot := NewStatsSlot()
	var lines []string
	var status string
	reloads := 0
	b := NewBridge(&recordingSender{}, slot, BridgeHandlers{
		Status:          func(s string) { status = s },
		Console:         func(l string) { lines = append(lines, l) },
		SettingsUpdated: func() { reloads++ },
	}, nil)

	b.HandleEvent(sdk.SocketEvent{Event: EventStatus, Args: []string{"starting"}})
	b.HandleEvent(sdk.SocketEvent{Event: EventConsoleOutput, Args: []string{"a", "b"}})
	b.HandleEvent(sdk.SocketEvent{Event: EventSettingsUpdated})

	assert.Equal(t, "starting", status)
	assert.Equal(t, "starting", slot.PowerState())
	assert.Equal(t, []string{"a", "b"}, lines)
	assert.Equal(t, 1, reloads)
}

func TestBridgeOutboundAndRelease(t *testing.T) {
	sender := &recordingSender{}
	called := false
	b := NewBridge(sender, NewStatsSlot(), BridgeHandlers{
		Console: func(string) { called = true },
	}, nil)

	require.NoError(t, b.SetPowerState("restart"))
	require.NoError(t, b.SendCommand("say hi"))
	assert.ErrorIs(t, b.SetPowerState("explode"), ErrInvalidAction)

	sender.mu.Lock()
	assert.Equal(t, []sdk.SocketEvent{
		{Event: EventSetState, Args: []string{"restart"}},
		{Event: EventSendCommand, Args: []string{"say hi"}},
	}, sender.events)
	sender.mu.Unlock()

	b.Release()
	b.HandleEvent(sdk.SocketEvent{Event: EventConsoleOutput, Args: []string{"late"}})
	assert.False(t, called)
	assert.ErrorIs(t, b.SetPowerState("start"), ErrReleased)
}

func TestStatsSlotKeepsNewestCapture(t *testing.T) {
	slot := NewStatsSlot()
	older := slot.Next()
	newer := slot.Next()

	assert.True(t, slot.Offer(newer, sdk.ServerStats{MemoryUsageInBytes: 2}))
	assert.False(t, slot.Offer(older, sdk.ServerStats{MemoryUsageInBytes: 1}))

	stats, _ := slot.Latest()
	assert.Equal(t, int64(2), stats.MemoryUsageInBytes)
}

func TestTransportDeliversEventsAndRequestsStats(t *testing.T) {
	upgrader := websocket.Upgrader{}
	requested := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var ev sdk.SocketEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		requested <- ev.Event

		_ = conn.WriteMessage(websocket.TextMessage, []byte("garbage"))
		_ = conn.WriteJSON(sdk.SocketEvent{Event: EventStats, Args: []string{`{"cpu_absolute":33,"state":"running"}`}})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	transport := NewTransport(url, clockwork.NewRealClock(), nil)
	slot := NewStatsSlot()
	bridge := NewBridge(transport, slot, BridgeHandlers{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		transport.Run(ctx, bridge)
	}()

	select {
	case name := <-requested:
		assert.Equal(t, EventSendStats, name)
	case <-time.After(5 * time.Second):
		t.Fatal("no stats request received")
	}

	assert.Eventually(t, func() bool {
		stats, ok := slot.Latest()
		return ok && stats.CPUUsagePercent == 33
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, Connected, bridge.State())

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("transport did not stop")
	}
	assert.Equal(t, Disconnected, bridge.State())
}

func TestTransportSendWithoutConnection(t *testing.T) {
	transport := NewTransport("ws://127.0.0.1:1", clockwork.NewFakeClock(), nil)
	assert.ErrorIs(t, transport.Send(sdk.SocketEvent{Event: EventSendStats}), ErrNotConnected)
}

func TestSocketStatsDisplayValues(t *testing.T) {
	slot := NewStatsSlot()
	b := NewBridge(&recordingSender{}, slot, BridgeHandlers{}, nil)
	b.HandleEvent(sdk.SocketEvent{Event: EventStats, Args: []string{
		`{"memory_bytes": 1048576, "cpu_absolute": 12.5, "disk_bytes": 2097152, "network":{"tx_bytes":100,"rx_bytes":200}, "uptime":5000}`,
	}})
	b.HandleEvent(sdk.SocketEvent{Event: EventStats, Args: []string{"{not json"}})

	stats, ok := slot.Latest()
	require.True(t, ok)
	assert.Equal(t, "1 MiB", MemoryGauge(stats.MemoryUsageInBytes, 0).Current)
	assert.Equal(t, "12.5 %", CPUGauge(stats.CPUUsagePercent, 0).Current)
	assert.Equal(t, "2 MiB", DiskGauge(stats.DiskUsageInBytes, 0).Current)
	assert.Equal(t, "5s", FormatUptime(stats.UptimeMs))
	assert.Equal(t, int64(200), stats.NetworkRxBytes)
	assert.Equal(t, int64(100), stats.NetworkTxBytes)
}
