package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"octopanel/pkg/sdk"
)

// Socket event names.
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

var (
	ErrReleased      = errors.New("bridge released")
	ErrInvalidAction = errors.New("invalid power action")
)

type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Sender writes one event to the socket.
type Sender interface {
	Send(ev sdk.SocketEvent) error
}

// BridgeHandlers are optional callbacks. None runs after Release.
type BridgeHandlers struct {
	Status          func(state string)
	Console         func(line string)
	SettingsUpdated func()
	DaemonError     func(msg string)
	StateChanged    func(ConnState)
}

// Bridge turns socket events into updates of the stats slot and the
// dashboard callbacks.
type Bridge struct {
	sender   Sender
	slot     *StatsSlot
	handlers BridgeHandlers
	logger   *slog.Logger

	mu       sync.Mutex
	state    ConnState
	released bool
}

func NewBridge(sender Sender, slot *StatsSlot, handlers BridgeHandlers, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{sender: sender, slot: slot, handlers: handlers, logger: logger}
}

func (b *Bridge) State() ConnState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetState records a transport transition. Entering Connected asks the
// daemon for a stats push.
func (b *Bridge) SetState(s ConnState) {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}
	prev := b.state
	b.state = s
	cb := b.handlers.StateChanged
	b.mu.Unlock()

	if prev == s {
		return
	}
	if s == Connected {
		if err := b.sender.Send(sdk.SocketEvent{Event: EventSendStats}); err != nil {
			b.logger.Warn("failed to request stats", "error", err)
		}
	}
	if cb != nil {
		cb(s)
	}
}

// HandleEvent dispatches one inbound event.
func (b *Bridge) HandleEvent(ev sdk.SocketEvent) {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}
	h := b.handlers
	b.mu.Unlock()

	switch ev.Event {
	case EventStats:
		seq := b.slot.Next()
		if len(ev.Args) == 0 {
			return
		}
		var payload sdk.StatsPayload
		if err := json.Unmarshal([]byte(ev.Args[0]), &payload); err != nil {
			b.logger.Debug("dropping malformed stats payload", "error", err)
			return
		}
		b.slot.Offer(seq, payload.Stats())
	case EventStatus:
		if len(ev.Args) == 0 {
			return
		}
		b.slot.SetPowerState(ev.Args[0])
		if h.Status != nil {
			h.Status(ev.Args[0])
		}
	case EventConsoleOutput:
		if h.Console == nil {
			return
		}
		for _, line := range ev.Args {
			h.Console(line)
		}
	case EventSettingsUpdated:
		if h.SettingsUpdated != nil {
			h.SettingsUpdated()
		}
	case EventDaemonError:
		if h.DaemonError != nil && len(ev.Args) > 0 {
			h.DaemonError(ev.Args[0])
		}
	}
}

// SetPowerState asks the daemon for a power transition.
func (b *Bridge) SetPowerState(action string) error {
	switch action {
	case "start", "stop", "restart", "kill":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	return b.send(sdk.SocketEvent{Event: EventSetState, Args: []string{action}})
}

func (b *Bridge) SendCommand(line string) error {
	return b.send(sdk.SocketEvent{Event: EventSendCommand, Args: []string{line}})
}

func (b *Bridge) send(ev sdk.SocketEvent) error {
	b.mu.Lock()
	released := b.released
	b.mu.Unlock()
	if released {
		return ErrReleased
	}
	return b.sender.Send(ev)
}

// Release detaches the bridge; later events are ignored.
func (b *Bridge) Release() {
	b.mu.Lock()
	b.released = true
	b.handlers = BridgeHandlers{}
	b.mu.Unlock()
}
