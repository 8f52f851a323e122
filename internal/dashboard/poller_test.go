package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"octopanel/pkg/sdk"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResources struct {
	mu      sync.Mutex
	calls   int
	results []fakeResult
}

type fakeResult struct {
	stats sdk.ServerStats
	err   error
}

func (f *fakeResources) GetResources(ctx context.Context, id string) (sdk.ServerStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.results) == 0 {
		return sdk.ServerStats{PowerState: "running"}, nil
	}
	r := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return r.stats, r.err
}

func (f *fakeResources) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPollerFetchesImmediatelyThenOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fetch := &fakeResources{}
	p := NewPoller(fetch, NewStatsSlot(), clock, nil, nil)

	cancel := p.StartPolling("srv", 2*time.Second)
	defer cancel()

	clock.BlockUntil(1)
	assert.Equal(t, 1, fetch.count())

	clock.Advance(2 * time.Second)
	assert.Eventually(t, func() bool { return fetch.count() == 2 }, time.Second, 5*time.Millisecond)

	clock.Advance(2 * time.Second)
	assert.Eventually(t, func() bool { return fetch.count() == 3 }, time.Second, 5*time.Millisecond)
}

func TestPollerCancelStopsFetching(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fetch := &fakeResources{}
	p := NewPoller(fetch, NewStatsSlot(), clock, nil, nil)

	cancel := p.StartPolling("srv", 2*time.Second)
	clock.BlockUntil(1)
	cancel()

	clock.Advance(20 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, fetch.count())

	cancel()
}

func TestPollerSkipsSuspendedServer(t *testing.T) {
	fetch := &fakeResources{}
	p := NewPoller(fetch, NewStatsSlot(), clockwork.NewFakeClock(), nil, nil)
	p.Suspended = true

	cancel := p.StartPolling("srv", time.Second)
	cancel()
	assert.Zero(t, fetch.count())
}

func TestPollerStopsWhenSampleIsSuspended(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fetch := &fakeResources{results: []fakeResult{{stats: sdk.ServerStats{IsSuspended: true}}}}
	slot := NewStatsSlot()
	p := NewPoller(fetch, slot, clock, nil, nil)

	cancel := p.StartPolling("srv", time.Second)
	assert.Eventually(t, func() bool {
		stats, ok := slot.Latest()
		return ok && stats.IsSuspended
	}, time.Second, 5*time.Millisecond)

	cancel()
	clock.Advance(10 * time.Second)
	assert.Equal(t, 1, fetch.count())
}

func TestPollerKeepsPreviousSampleOnFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fetch := &fakeResources{results: []fakeResult{
		{stats: sdk.ServerStats{MemoryUsageInBytes: 42, PowerState: "running"}},
		{err: errors.New("connection refused")},
	}}
	slot := NewStatsSlot()
	p := NewPoller(fetch, slot, clock, nil, nil)

	cancel := p.StartPolling("srv", time.Second)
	defer cancel()
	clock.BlockUntil(1)

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return p.LastError() != nil }, time.Second, 5*time.Millisecond)

	stats, ok := slot.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(42), stats.MemoryUsageInBytes)
}

func TestPulseClearsAfterDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := NewPulse(clock, 300*time.Millisecond)

	p.Raise()
	assert.True(t, p.Active())

	clock.Advance(200 * time.Millisecond)
	p.Raise()
	clock.Advance(200 * time.Millisecond)
	assert.True(t, p.Active())

	clock.Advance(100 * time.Millisecond)
	assert.Eventually(t, func() bool { return !p.Active() }, time.Second, 5*time.Millisecond)

	p.Raise()
	p.Clear()
	assert.False(t, p.Active())
}
