package dashboard

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const updatingPulse = 300 * time.Millisecond

// Pulse is a flag that turns itself off after a fixed duration.
type Pulse struct {
	clock    clockwork.Clock
	duration time.Duration

	mu     sync.Mutex
	active bool
	gen    uint64
	timer  clockwork.Timer
}

func NewPulse(clock clockwork.Clock, d time.Duration) *Pulse {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if d <= 0 {
		d = updatingPulse
	}
	return &Pulse{clock: clock, duration: d}
}

func (p *Pulse) Raise() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.active = true
	gen := p.gen
	p.timer = p.clock.AfterFunc(p.duration, func() {
		p.mu.Lock()
		if p.gen == gen {
			p.active = false
			p.timer = nil
		}
		p.mu.Unlock()
	})
}

func (p *Pulse) Clear() {
	p.mu.Lock()
	p.stopLocked()
	p.active = false
	p.mu.Unlock()
}

func (p *Pulse) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Pulse) stopLocked() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
