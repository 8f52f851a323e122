package ui

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"octopanel/internal/dashboard"
	"octopanel/internal/logger"
	"octopanel/pkg/sdk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resourcesServer struct {
	suspended atomic.Bool
	fetches   atomic.Int32
}

func (s *resourcesServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.fetches.Add(1)
	state := "running"
	if s.suspended.Load() {
		state = "offline"
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"object":"stats","attributes":{"current_state":%q,"is_suspended":%t,"resources":{"memory_bytes":1024}}}`,
		state, s.suspended.Load())
}

func newTestModel(t *testing.T, daemon http.Handler) *model {
	srv := httptest.NewServer(daemon)
	m := &model{
		client: sdk.NewClient(srv.URL),
		logger: logger.Discard(),
		views:  make(map[string]*dashboard.ServerView),
	}
	t.Cleanup(func() {
		for _, v := range m.views {
			v.Close()
		}
		srv.Close()
	})
	return m
}

func unavailable(m *model, id string) func() string {
	return func() string { return m.views[id].Snapshot().Unavailable }
}

func TestSyncViewsResumesPollingAfterUnsuspend(t *testing.T) {
	daemon := &resourcesServer{}
	m := newTestModel(t, daemon)
	srv := sdk.Server{ID: "abcd1234", UUID: "u1", Name: "lobby"}

	suspended := srv
	suspended.IsSuspended = true
	m.syncViews([]sdk.Server{suspended})
	assert.Equal(t, "Server Suspended", unavailable(m, srv.ID)())
	assert.Zero(t, daemon.fetches.Load())

	m.syncViews([]sdk.Server{srv})
	require.Eventually(t, func() bool {
		return m.views[srv.ID].Snapshot().StatusLabel == "Online"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, unavailable(m, srv.ID)())
	assert.Equal(t, []string{srv.ID}, m.order)
}

func TestSyncViewsReplacesViewStoppedBySuspendedSample(t *testing.T) {
	daemon := &resourcesServer{}
	daemon.suspended.Store(true)
	m := newTestModel(t, daemon)
	srv := sdk.Server{ID: "abcd1234", UUID: "u1"}

	m.syncViews([]sdk.Server{srv})
	require.Eventually(t, func() bool { return unavailable(m, srv.ID)() == "Server Suspended" }, 2*time.Second, 10*time.Millisecond)

	daemon.suspended.Store(false)
	m.syncViews([]sdk.Server{srv})
	require.Eventually(t, func() bool {
		snap := m.views[srv.ID].Snapshot()
		return snap.HasStats && snap.Unavailable == ""
	}, 2*time.Second, 10*time.Millisecond)

	current := m.views[srv.ID]
	m.syncViews([]sdk.Server{srv})
	assert.Same(t, current, m.views[srv.ID])

	m.syncViews(nil)
	assert.Empty(t, m.views)
}
