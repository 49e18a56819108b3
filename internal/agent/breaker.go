package agent

import (
	"sync"
	"time"

	"github.com/riskmind/riskmind/internal/observ"
)

// BreakerState is the lifecycle position of a CircuitBreaker.
type BreakerState string

const (
	BreakerClosed   BreakerState = "CLOSED"
	BreakerOpen     BreakerState = "OPEN"
	BreakerHalfOpen BreakerState = "HALF_OPEN"
)

// BreakerConfig tunes a CircuitBreaker. Zero values take the defaults
// used across the pipeline.
type BreakerConfig struct {
	FailureThreshold float64       // failure rate that trips the breaker
	MinSamples       int           // outcomes required before tripping
	Window           time.Duration // rolling window for counts
	Cooldown         time.Duration // OPEN hold time before a probe
}

func (c *BreakerConfig) applyDefaults() {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 0.5
	}
	if c.MinSamples == 0 {
		c.MinSamples = 10
	}
	if c.Window == 0 {
		c.Window = 10 * time.Minute
	}
	if c.Cooldown == 0 {
		c.Cooldown = time.Minute
	}
}

// CircuitBreaker tracks failure rate over a rolling window and refuses
// work while OPEN. After the cooldown a single probe is admitted in
// HALF_OPEN; its outcome decides between CLOSED and OPEN.
//
// The window reset is checked on every recorded outcome regardless of
// state, so an outcome landing just after the window rolls over zeroes
// the counts even while OPEN. State is unaffected; only the rate
// restarts. See the package tests for the exact shape of this.
type CircuitBreaker struct {
	name string
	cfg  BreakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	successes   int
	lastFailure time.Time
	windowStart time.Time

	now func() time.Time
}

func NewCircuitBreaker(name string, cfg BreakerConfig) *CircuitBreaker {
	cfg.applyDefaults()
	return &CircuitBreaker{
		name:        name,
		cfg:         cfg,
		state:       BreakerClosed,
		windowStart: time.Now(),
		now:         time.Now,
	}
}

// Allow reports whether a unit of work may proceed. While OPEN it flips
// to HALF_OPEN once the cooldown since the last failure has elapsed,
// admitting one probe.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed, BreakerHalfOpen:
		return true
	case BreakerOpen:
		if b.now().Sub(b.lastFailure) >= b.cfg.Cooldown {
			b.transition(BreakerHalfOpen)
			return true
		}
		return false
	}
	return true
}

// Err returns the sentinel error for a refused unit of work.
func (b *CircuitBreaker) Err() error {
	return &CircuitOpenError{Name: b.name}
}

// RecordSuccess notes a successful outcome. A HALF_OPEN probe success
// closes the breaker and zeroes its counts.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetWindowIfElapsed()
	b.successes++
	if b.state == BreakerHalfOpen {
		b.failures = 0
		b.successes = 0
		b.transition(BreakerClosed)
	}
}

// RecordFailure notes a failed outcome and trips the breaker when the
// failure rate over enough samples crosses the threshold.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetWindowIfElapsed()
	b.failures++
	b.lastFailure = b.now()

	if b.state == BreakerHalfOpen {
		b.transition(BreakerOpen)
		return
	}

	total := b.failures + b.successes
	if b.state == BreakerClosed && total > b.cfg.MinSamples {
		rate := float64(b.failures) / float64(total)
		if rate >= b.cfg.FailureThreshold {
			b.transition(BreakerOpen)
		}
	}
}

// Reset forces the breaker back to CLOSED with zeroed counts.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.successes = 0
	b.windowStart = b.now()
	if b.state != BreakerClosed {
		b.transition(BreakerClosed)
	}
}

// BreakerSnapshot is a point-in-time view for health reporting.
type BreakerSnapshot struct {
	Name        string       `json:"name"`
	State       BreakerState `json:"state"`
	Failures    int          `json:"failures"`
	Successes   int          `json:"successes"`
	FailureRate float64      `json:"failure_rate"`
	LastFailure time.Time    `json:"last_failure,omitempty"`
}

func (b *CircuitBreaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := BreakerSnapshot{
		Name:        b.name,
		State:       b.state,
		Failures:    b.failures,
		Successes:   b.successes,
		LastFailure: b.lastFailure,
	}
	if total := b.failures + b.successes; total > 0 {
		s.FailureRate = float64(b.failures) / float64(total)
	}
	return s
}

func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// resetWindowIfElapsed zeroes the counts once the rolling window has
// passed. Called with b.mu held.
func (b *CircuitBreaker) resetWindowIfElapsed() {
	now := b.now()
	if now.Sub(b.windowStart) >= b.cfg.Window {
		b.failures = 0
		b.successes = 0
		b.windowStart = now
	}
}

// transition flips state and emits telemetry. Called with b.mu held.
func (b *CircuitBreaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	observ.Log("breaker_transition", map[string]any{
		"breaker": b.name,
		"from":    string(from),
		"to":      string(to),
	})
	observ.IncCounter("breaker_transitions_total", map[string]string{
		"breaker": b.name,
		"to":      string(to),
	})
}
