// Package breaker stops calling a failing dependency for a cool-down period.
//
// A breaker starts Closed and counts consecutive failures. Reaching
// Config.Threshold trips it Open: calls fail with [ErrOpen] without running.
// Once Config.Cooldown has passed it is HalfOpen and lets probe calls
// through; Config.Probes consecutive successes close it again, and any
// failure reopens it.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrOpen = errors.New("breaker: open")

// State is the position of a breaker.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds the breaker parameters. Zero fields take the defaults below.
type Config struct {
	// Threshold is the number of consecutive failures that trips the breaker.
	Threshold int
	// Cooldown is how long the breaker stays open.
	Cooldown time.Duration
	// Probes is the number of consecutive half-open successes that close it.
	Probes int
	// IsFailure classifies the error returned by a call. A nil IsFailure
	// counts every non-nil error.
	IsFailure func(error) bool
}

// Defaults.
const (
	DefaultThreshold = 5
	DefaultCooldown  = 10 * time.Second
	DefaultProbes    = 1
)

// Breaker is safe for concurrent use.
type Breaker struct {
	cfg   Config
	clock func() time.Time

	mu        sync.Mutex
	state     State
	streak    int // failures while closed, successes while half-open
	trippedAt time.Time
}

// New creates a closed Breaker.
func New(cfg Config) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Probes <= 0 {
		cfg.Probes = DefaultProbes
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	return &Breaker{cfg: cfg, clock: time.Now}
}

// State reports the current state, moving Open to HalfOpen once the cool-down
// has passed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentLocked()
}

// Do runs fn unless the breaker is open, and records its outcome.
func (b *Breaker) Do(fn func() error) error {
	if !b.admit() {
		return ErrOpen
	}
	err := fn()
	b.record(b.cfg.IsFailure(err))
	return err
}

func (b *Breaker) currentLocked() State {
	if b.state == Open && b.clock().Sub(b.trippedAt) >= b.cfg.Cooldown {
		b.state, b.streak = HalfOpen, 0
	}
	return b.state
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.currentLocked() {
	case Open:
		return false
	case HalfOpen:
		return b.streak < b.cfg.Probes
	default:
		return true
	}
}

func (b *Breaker) record(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Closed:
		if !failed {
			b.streak = 0
			return
		}
		if b.streak++; b.streak >= b.cfg.Threshold {
			b.tripLocked()
		}
	case HalfOpen:
		if failed {
			b.tripLocked()
			return
		}
		if b.streak++; b.streak >= b.cfg.Probes {
			b.state, b.streak = Closed, 0
		}
	}
}

func (b *Breaker) tripLocked() {
	b.state, b.streak, b.trippedAt = Open, 0, b.clock()
}
