package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskmind/riskmind/internal/observ"
)

// Stage is a single-input/single-output unit of work. Validate runs once
// before any attempt; Process is retried inside the Runner.
type Stage[In, Out any] interface {
	Name() string
	Validate(in In) error
	Process(ctx context.Context, in In) (Out, error)
}

// Funcs adapts plain functions into a Stage.
type Funcs[In, Out any] struct {
	StageName  string
	ValidateFn func(In) error
	ProcessFn  func(context.Context, In) (Out, error)
}

func (f Funcs[In, Out]) Name() string { return f.StageName }

func (f Funcs[In, Out]) Validate(in In) error {
	if f.ValidateFn == nil {
		return nil
	}
	return f.ValidateFn(in)
}

func (f Funcs[In, Out]) Process(ctx context.Context, in In) (Out, error) {
	return f.ProcessFn(ctx, in)
}

// Config bounds a Runner's retry loop.
type Config struct {
	RetryAttempts int
	Timeout       time.Duration
	BackoffBase   time.Duration
	BackoffMax    time.Duration
}

func (c *Config) applyDefaults() {
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = time.Second
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = 8 * time.Second
	}
}

// Backoff returns the delay before the next attempt: base doubled per
// completed attempt, capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	d := base << (attempt - 1)
	if d > max || d <= 0 {
		d = max
	}
	return d
}

// Metric records one completed execution.
type Metric struct {
	Duration  time.Duration
	Success   bool
	Timestamp time.Time
	Error     string
}

// Result is the tagged outcome of Runner.Execute.
type Result[Out any] struct {
	Success bool
	Output  Out
	Err     error
	Metric  Metric
}

// Health summarizes the most recent executions of a stage.
type Health struct {
	Name         string   `json:"name"`
	SuccessRate  float64  `json:"success_rate"`
	AvgLatencyMs float64  `json:"avg_latency_ms"`
	RecentErrors []string `json:"recent_errors"`
}

const (
	metricsRetained = 100
	healthWindow    = 20
	healthErrors    = 5
)

// Runner executes a Stage with validation, per-attempt timeouts, retries
// with exponential backoff, and a bounded metrics ring buffer.
type Runner[In, Out any] struct {
	stage Stage[In, Out]
	cfg   Config

	mu      sync.Mutex
	metrics []Metric

	sleep func(ctx context.Context, d time.Duration)
}

func NewRunner[In, Out any](stage Stage[In, Out], cfg Config) *Runner[In, Out] {
	cfg.applyDefaults()
	return &Runner[In, Out]{
		stage: stage,
		cfg:   cfg,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Execute runs the stage to completion or exhaustion of the retry budget.
// A validation failure short-circuits without consuming attempts. A late
// completion after the per-attempt timeout is discarded; it cannot un-fail
// the attempt.
func (r *Runner[In, Out]) Execute(ctx context.Context, in In) Result[Out] {
	start := time.Now()

	if err := r.stage.Validate(in); err != nil {
		if !IsValidation(err) {
			err = &ValidationError{Stage: r.stage.Name(), Reason: err.Error()}
		}
		observ.IncCounter("agent_validation_failures_total", map[string]string{"stage": r.stage.Name()})
		return r.fail(start, err)
	}

	var lastErr error
	for attempt := 1; attempt <= r.cfg.RetryAttempts; attempt++ {
		observ.IncCounter("agent_attempts_total", map[string]string{"stage": r.stage.Name()})

		out, err := r.attempt(ctx, in)
		if err == nil {
			m := r.record(time.Since(start), true, nil)
			return Result[Out]{Success: true, Output: out, Metric: m}
		}
		lastErr = err

		observ.Log("agent_attempt_failed", map[string]any{
			"stage":   r.stage.Name(),
			"attempt": attempt,
			"of":      r.cfg.RetryAttempts,
			"error":   err.Error(),
		})

		// Validation raised from Process is terminal too.
		if IsValidation(err) {
			break
		}
		if attempt < r.cfg.RetryAttempts {
			r.sleep(ctx, Backoff(attempt, r.cfg.BackoffBase, r.cfg.BackoffMax))
			if ctx.Err() != nil {
				lastErr = ctx.Err()
				break
			}
		}
	}

	return r.fail(start, lastErr)
}

func (r *Runner[In, Out]) attempt(ctx context.Context, in In) (Out, error) {
	type outcome struct {
		out Out
		err error
	}
	done := make(chan outcome, 1) // buffered so a late finisher never blocks

	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	go func() {
		out, err := r.stage.Process(attemptCtx, in)
		done <- outcome{out: out, err: err}
	}()

	timer := time.NewTimer(r.cfg.Timeout)
	defer timer.Stop()

	select {
	case oc := <-done:
		return oc.out, oc.err
	case <-timer.C:
		var zero Out
		return zero, &TransientError{
			Stage: r.stage.Name(),
			Err:   fmt.Errorf("timeout after %s", r.cfg.Timeout),
		}
	}
}

func (r *Runner[In, Out]) fail(start time.Time, err error) Result[Out] {
	observ.IncCounter("agent_failures_total", map[string]string{"stage": r.stage.Name()})
	m := r.record(time.Since(start), false, err)
	return Result[Out]{Success: false, Err: err, Metric: m}
}

func (r *Runner[In, Out]) record(d time.Duration, success bool, err error) Metric {
	m := Metric{Duration: d, Success: success, Timestamp: time.Now().UTC()}
	if err != nil {
		m.Error = err.Error()
	}
	observ.RecordDuration("agent_execution", d, map[string]string{"stage": r.stage.Name()})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, m)
	if len(r.metrics) > metricsRetained {
		r.metrics = r.metrics[len(r.metrics)-metricsRetained:]
	}
	return m
}

// Health reports success rate and average latency over the last 20
// executions, with up to 5 recent error messages.
func (r *Runner[In, Out]) Health() Health {
	r.mu.Lock()
	defer r.mu.Unlock()

	recent := r.metrics
	if len(recent) > healthWindow {
		recent = recent[len(recent)-healthWindow:]
	}

	h := Health{Name: r.stage.Name(), RecentErrors: []string{}}
	if len(recent) == 0 {
		return h
	}

	var successes int
	var totalMs float64
	for _, m := range recent {
		if m.Success {
			successes++
		}
		totalMs += float64(m.Duration.Milliseconds())
	}
	h.SuccessRate = float64(successes) / float64(len(recent))
	h.AvgLatencyMs = totalMs / float64(len(recent))

	for _, m := range recent {
		if !m.Success && m.Error != "" {
			h.RecentErrors = append(h.RecentErrors, m.Error)
		}
	}
	if len(h.RecentErrors) > healthErrors {
		h.RecentErrors = h.RecentErrors[len(h.RecentErrors)-healthErrors:]
	}
	return h
}
