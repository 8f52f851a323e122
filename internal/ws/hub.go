package ws

import (
	"log/slog"
	"net/http"
	"sync"

	"octopanel/internal/domain"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler receives events sent by clients of a server channel.
type Handler interface {
	HandleEvent(serverID string, c *Client, ev domain.Event)
}

type HandlerFunc func(serverID string, c *Client, ev domain.Event)

func (f HandlerFunc) HandleEvent(serverID string, c *Client, ev domain.Event) {
	f(serverID, c, ev)
}

type outbound struct {
	data []byte
	keep bool
}

// Hub is the realtime channel of one server. Console output is kept in a
// bounded history and replayed to clients when they connect.
type Hub struct {
	serverID string
	handler  Handler
	logger   *slog.Logger

	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	stopOnce   sync.Once

	history    [][]byte
	maxHistory int
	mu         sync.RWMutex
}

func NewHub(serverID string, maxHistory int, handler Handler, logger *slog.Logger) *Hub {
	if maxHistory < 0 {
		maxHistory = 0
	}
	return &Hub{
		serverID:   serverID,
		handler:    handler,
		logger:     logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 4096),
		register:   make(chan *Client, 8),
		unregister: make(chan *Client, 8),
		stop:       make(chan struct{}),
		maxHistory: maxHistory,
	}
}

func (h *Hub) ServerID() string {
	return h.serverID
}

func (h *Hub) GetHistorySnapshot() [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.history) == 0 {
		return nil
	}
	out := make([][]byte, len(h.history))
	copy(out, h.history)
	return out
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			for _, msg := range h.GetHistorySnapshot() {
				client.enqueue(msg)
			}
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}

		case msg := <-h.broadcast:
			if msg.keep && h.maxHistory > 0 {
				h.mu.Lock()
				h.history = append(h.history, msg.data)
				if len(h.history) > h.maxHistory {
					h.history = h.history[1:]
				}
				h.mu.Unlock()
			}

			for client := range h.clients {
				if !client.enqueue(msg.data) {
					delete(h.clients, client)
					client.close()
				}
			}

		case <-h.stop:
			for client := range h.clients {
				client.close()
			}
			h.mu.Lock()
			h.history = nil
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *Hub) ClearLogs() {
	h.mu.Lock()
	h.history = nil
	h.mu.Unlock()
}

// Broadcast sends ev to every connected client. Console output is also kept
// for replay.
func (h *Hub) Broadcast(ev domain.Event) {
	msg := outbound{data: ev.Encode(), keep: ev.Event == domain.EventConsoleOutput}
	select {
	case h.broadcast <- msg:
	case <-h.stop:
	}
}

func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "server", h.serverID, "error", err)
		return
	}
	client := newClient(h, conn)

	go client.writePump()
	go client.readPump()

	select {
	case h.register <- client:
	case <-h.stop:
		client.close()
	}
}

func (h *Hub) dispatch(c *Client, ev domain.Event) {
	if h.handler != nil {
		h.handler.HandleEvent(h.serverID, c, ev)
	}
}
