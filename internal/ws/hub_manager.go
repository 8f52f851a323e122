package ws

import (
	"log/slog"
	"sync"

	"octopanel/internal/domain"
)

type HubManager struct {
	hubs        map[string]*Hub
	mu          sync.Mutex
	historySize int
	handler     Handler
	logger      *slog.Logger
}

func NewHubManager(historySize int, logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:        make(map[string]*Hub),
		historySize: historySize,
		logger:      logger,
	}
}

// SetHandler installs the handler used by hubs created afterwards.
func (m *HubManager) SetHandler(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

func (m *HubManager) GetHub(serverID string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[serverID]; ok {
		return hub
	}

	hub := NewHub(serverID, m.historySize, m.handler, m.logger)
	go hub.Run()
	m.hubs[serverID] = hub
	return hub
}

func (m *HubManager) RemoveHub(serverID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[serverID]; ok {
		hub.Stop()
		delete(m.hubs, serverID)
	}
}

// BroadcastAll sends ev on every open server channel.
func (m *HubManager) BroadcastAll(ev domain.Event) {
	m.mu.Lock()
	hubs := make([]*Hub, 0, len(m.hubs))
	for _, h := range m.hubs {
		hubs = append(hubs, h)
	}
	m.mu.Unlock()

	for _, h := range hubs {
		h.Broadcast(ev)
	}
}

func (m *HubManager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, hub := range m.hubs {
		hub.Stop()
		delete(m.hubs, id)
	}
}
