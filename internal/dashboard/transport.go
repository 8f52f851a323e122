package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"octopanel/pkg/sdk"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	reconnectDelay = 3 * time.Second
	writeWait      = 10 * time.Second
)

var ErrNotConnected = errors.New("socket not connected")

// EventSink receives transport transitions and inbound events.
type EventSink interface {
	SetState(ConnState)
	HandleEvent(sdk.SocketEvent)
}

// Transport keeps a websocket open to the server console channel,
// redialing after a fixed delay whenever it drops.
type Transport struct {
	url    string
	dialer *websocket.Dialer
	clock  clockwork.Clock
	delay  time.Duration
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewTransport(url string, clock clockwork.Clock, logger *slog.Logger) *Transport {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		url:    url,
		dialer: websocket.DefaultDialer,
		clock:  clock,
		delay:  reconnectDelay,
		logger: logger,
	}
}

// Run dials and reads until ctx is done.
func (t *Transport) Run(ctx context.Context, sink EventSink) {
	defer sink.SetState(Disconnected)

	for {
		if ctx.Err() != nil {
			return
		}

		sink.SetState(Connecting)
		conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
		if err != nil {
			t.logger.Debug("socket dial failed", "error", err)
			sink.SetState(Disconnected)
			if !t.wait(ctx) {
				return
			}
			continue
		}

		t.mu.Lock()
		t.conn = conn
		t.mu.Unlock()
		sink.SetState(Connected)

		t.read(ctx, conn, sink)

		t.mu.Lock()
		t.conn = nil
		t.mu.Unlock()
		conn.Close()
		sink.SetState(Disconnected)

		if !t.wait(ctx) {
			return
		}
	}
}

func (t *Transport) read(ctx context.Context, conn *websocket.Conn, sink EventSink) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				t.logger.Debug("socket read failed", "error", err)
			}
			return
		}
		var ev sdk.SocketEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		sink.HandleEvent(ev)
	}
}

func (t *Transport) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-t.clock.After(t.delay):
		return true
	}
}

func (t *Transport) Send(ev sdk.SocketEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ErrNotConnected
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteJSON(ev)
}
