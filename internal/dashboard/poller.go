package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"octopanel/pkg/sdk"

	"github.com/jonboulle/clockwork"
)

const DefaultPollInterval = 2 * time.Second

type StatsFetcher interface {
	GetResources(ctx context.Context, id string) (sdk.ServerStats, error)
}

// Poller fetches resource samples over HTTP independently of the socket.
type Poller struct {
	fetch  StatsFetcher
	slot   *StatsSlot
	clock  clockwork.Clock
	pulse  *Pulse
	logger *slog.Logger

	// Suspended suppresses polling entirely.
	Suspended bool

	mu      sync.Mutex
	lastErr error
}

func NewPoller(fetch StatsFetcher, slot *StatsSlot, clock clockwork.Clock, pulse *Pulse, logger *slog.Logger) *Poller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{fetch: fetch, slot: slot, clock: clock, pulse: pulse, logger: logger}
}

// StartPolling fetches once right away and then every interval until the
// returned cancel is called or a sample reports the server suspended.
// After cancel returns no further fetch is issued.
func (p *Poller) StartPolling(serverID string, interval time.Duration) (cancel func()) {
	if p.Suspended {
		return func() {}
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		if !p.poll(ctx, serverID) {
			return
		}

		ticker := p.clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if ctx.Err() != nil {
					return
				}
				if !p.poll(ctx, serverID) {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			<-done
		})
	}
}

// poll reports whether polling should continue.
func (p *Poller) poll(ctx context.Context, serverID string) bool {
	seq := p.slot.Next()
	if p.pulse != nil {
		p.pulse.Raise()
	}

	stats, err := p.fetch.GetResources(ctx, serverID)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Warn("failed to fetch server resources", "server", serverID, "error", err)
		if p.pulse != nil {
			p.pulse.Clear()
		}
		p.setErr(err)
		return true
	}

	p.setErr(nil)
	p.slot.Offer(seq, stats)
	return !stats.IsSuspended
}

func (p *Poller) setErr(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}

// LastError is the error of the most recent fetch, nil after a success.
func (p *Poller) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
