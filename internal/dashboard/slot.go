package dashboard

import (
	"sync"
	"sync/atomic"

	"octopanel/pkg/sdk"
)

// StatsSlot is the single sample shared by the poller and the socket bridge.
// Each producer takes a sequence number when it captures a sample; the slot
// keeps the newest capture regardless of arrival order.
type StatsSlot struct {
	seq atomic.Uint64

	mu      sync.RWMutex
	current sdk.ServerStats
	held    uint64
	has     bool
	version uint64
}

func NewStatsSlot() *StatsSlot {
	return &StatsSlot{}
}

// Next reserves a capture sequence number.
func (s *StatsSlot) Next() uint64 {
	return s.seq.Add(1)
}

// Offer stores the sample unless a later capture is already held. A sample
// without a power state keeps the one set by the last status event.
func (s *StatsSlot) Offer(seq uint64, stats sdk.ServerStats) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.has && seq < s.held {
		return false
	}
	if stats.PowerState == "" {
		stats.PowerState = s.current.PowerState
	}
	s.current = stats
	s.held = seq
	s.has = true
	s.version++
	return true
}

// SetPowerState applies a status event to the held sample.
func (s *StatsSlot) SetPowerState(state string) {
	s.mu.Lock()
	s.current.PowerState = state
	s.version++
	s.mu.Unlock()
}

func (s *StatsSlot) Latest() (sdk.ServerStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.has
}

// Version changes on every accepted write.
func (s *StatsSlot) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// PowerState reports the last known state even before the first sample.
func (s *StatsSlot) PowerState() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.PowerState == "" {
		return "offline"
	}
	return s.current.PowerState
}
