package server

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"octopanel/internal/domain"
	"octopanel/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewGormStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// A high range keeps the test away from commonly bound ports.
	require.NoError(t, store.SetPortRange(47100, 47120))
	return NewManager(filepath.Join(dir, "servers"), store)
}

func TestCreateServerAllocatesDefaultPort(t *testing.T) {
	m := newTestManager(t)

	first, err := m.CreateServer(CreateRequest{Name: "Survival", Startup: "sleep 1", Limits: domain.Limits{Memory: 1024}})
	require.NoError(t, err)
	second, err := m.CreateServer(CreateRequest{Name: "Creative", Startup: "sleep 1"})
	require.NoError(t, err)

	assert.Len(t, first.ID, 8)
	assert.Equal(t, first.UUID[:8], first.ID)

	a1, ok := first.DefaultAllocation()
	require.True(t, ok)
	a2, ok := second.DefaultAllocation()
	require.True(t, ok)
	assert.NotEqual(t, a1.Port, a2.Port)
	assert.DirExists(t, filepath.Join(m.ServersPath, first.ID))

	got, err := m.GetServer(first.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Survival", got.Name)
	assert.Equal(t, int64(1024), got.Limits.Memory)
	require.Len(t, got.Allocations, 1)
	assert.True(t, got.Allocations[0].IsDefault)
}

func TestCreateServerValidates(t *testing.T) {
	m := newTestManager(t)

	_, err := m.CreateServer(CreateRequest{Name: " ", Startup: "x"})
	assert.Error(t, err)
	_, err = m.CreateServer(CreateRequest{Name: "ok"})
	assert.Error(t, err)
	_, err = m.CreateServer(CreateRequest{Name: "ok", Startup: "x", Limits: domain.Limits{CPU: -1}})
	assert.Error(t, err)
}

func TestSuspendAndDelete(t *testing.T) {
	m := newTestManager(t)
	srv, err := m.CreateServer(CreateRequest{Name: "s", Startup: "x"})
	require.NoError(t, err)

	require.NoError(t, m.SetSuspended(srv.ID, true))
	got, err := m.GetServer(srv.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSuspended)

	require.NoError(t, m.DeleteServer(srv.ID))
	_, err = m.GetServer(srv.ID)
	assert.True(t, errors.Is(err, domain.ErrServerNotFound))
	assert.NoDirExists(t, filepath.Join(m.ServersPath, srv.ID))
}

func TestListFiles(t *testing.T) {
	m := newTestManager(t)
	srv, err := m.CreateServer(CreateRequest{Name: "s", Startup: "x"})
	require.NoError(t, err)

	root := filepath.Join(m.ServersPath, srv.ID)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "world"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "server.log"), []byte("abc"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Banned.json"), []byte("[]"), 0644))

	files, err := m.ListFiles(srv.ID, "/")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "world", files[0].Name)
	assert.True(t, files[0].IsDirectory)
	assert.Equal(t, "Banned.json", files[1].Name)
	assert.Equal(t, "/server.log", files[2].Path)
	assert.Equal(t, int64(3), files[2].Size)

	// Traversal collapses to the server root.
	files, err = m.ListFiles(srv.ID, "/../../")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	_, err = m.ListFiles(srv.ID, "/server.log")
	assert.Error(t, err)
}
