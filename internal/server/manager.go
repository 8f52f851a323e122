package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"octopanel/internal/domain"

	"github.com/google/uuid"
)

// Store is the persistence the manager needs on top of the server registry.
type Store interface {
	domain.ServerRepository
	GetPortRange() (int, int, error)
	UsedPorts() (map[int]bool, error)
}

type Manager struct {
	ServersPath string
	Store       Store
}

func NewManager(serversPath string, store Store) *Manager {
	return &Manager{
		ServersPath: serversPath,
		Store:       store,
	}
}

type CreateRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Limits      domain.Limits `json:"limits"`
	Startup     string        `json:"startup"`
	StopCommand string        `json:"stop_command"`
	IP          string        `json:"ip,omitempty"`
}

func (m *Manager) CreateServer(req CreateRequest) (*domain.Server, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 191 {
		return nil, fmt.Errorf("invalid server name: must be 1-191 characters")
	}
	if strings.TrimSpace(req.Startup) == "" {
		return nil, fmt.Errorf("startup command is required")
	}
	if req.Limits.CPU < 0 || req.Limits.Memory < 0 || req.Limits.Disk < 0 {
		return nil, fmt.Errorf("limits must not be negative")
	}

	full := uuid.New().String()
	id := full[:8]

	port, err := AllocatePort(m.Store)
	if err != nil {
		return nil, fmt.Errorf("error allocating port: %w", err)
	}

	ip := req.IP
	if ip == "" {
		ip = "0.0.0.0"
	}

	serverDir := filepath.Join(m.ServersPath, id)
	if err := os.MkdirAll(serverDir, 0755); err != nil {
		return nil, fmt.Errorf("filesystem error: %w", err)
	}

	srv := &domain.Server{
		ID:          id,
		UUID:        full,
		Name:        name,
		Description: req.Description,
		Limits:      req.Limits,
		Allocations: []domain.Allocation{{IP: ip, Port: port, IsDefault: true}},
		Startup:     req.Startup,
		StopCommand: req.StopCommand,
		CreatedAt:   time.Now(),
	}

	if err := m.Store.SaveServer(srv); err != nil {
		os.RemoveAll(serverDir)
		return nil, fmt.Errorf("DB error: %w", err)
	}

	return srv, nil
}

// GetServer resolves a short identifier or UUID.
func (m *Manager) GetServer(id string) (*domain.Server, error) {
	srv, err := m.Store.GetServerByID(id)
	if err != nil {
		return nil, err
	}
	if srv == nil {
		return nil, domain.ErrServerNotFound
	}
	return srv, nil
}

func (m *Manager) ListServers() ([]domain.Server, error) {
	return m.Store.ListServers()
}

func (m *Manager) SetSuspended(id string, suspended bool) error {
	srv, err := m.GetServer(id)
	if err != nil {
		return err
	}
	return m.Store.SetSuspended(srv.ID, suspended)
}

func (m *Manager) DeleteServer(id string) error {
	srv, err := m.GetServer(id)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(filepath.Join(m.ServersPath, srv.ID)); err != nil {
		return fmt.Errorf("error deleting server files: %w", err)
	}

	if err := m.Store.DeleteServer(srv.ID); err != nil {
		return fmt.Errorf("error deleting server from database: %w", err)
	}

	return nil
}
