package dashboard

import (
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	SmoothDuration = 800 * time.Millisecond
	snapThreshold  = 0.1
)

// Smoother eases a displayed number toward its latest target over
// SmoothDuration with an ease-out-cubic curve.
type Smoother struct {
	clock clockwork.Clock

	mu      sync.Mutex
	from    float64
	target  float64
	start   time.Time
	settled bool
}

func NewSmoother(clock clockwork.Clock, initial float64) *Smoother {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Smoother{clock: clock, from: initial, target: initial, settled: true}
}

func easeOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// SetTarget starts a new animation from the currently displayed value.
func (s *Smoother) SetTarget(target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if target == s.target {
		return
	}
	current := s.valueLocked()
	if math.Abs(target-current) < snapThreshold {
		s.from, s.target, s.settled = target, target, true
		return
	}
	s.from = current
	s.target = target
	s.start = s.clock.Now()
	s.settled = false
}

// Value samples the animation at the current clock time.
func (s *Smoother) Value() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valueLocked()
}

func (s *Smoother) valueLocked() float64 {
	if s.settled {
		return s.target
	}
	elapsed := s.clock.Since(s.start)
	if elapsed >= SmoothDuration {
		s.from, s.settled = s.target, true
		return s.target
	}
	p := float64(elapsed) / float64(SmoothDuration)
	v := s.from + (s.target-s.from)*easeOutCubic(p)
	if math.Abs(s.target-v) < snapThreshold {
		s.from, s.settled = s.target, true
		return s.target
	}
	return v
}

func (s *Smoother) Target() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *Smoother) Animating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valueLocked()
	return !s.settled
}
