package core

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the current state of a circuit breaker.
type BreakerState string

const (
	// BreakerClosed passes requests through normally.
	BreakerClosed BreakerState = "closed"
	// BreakerOpen fails requests immediately.
	BreakerOpen BreakerState = "open"
	// BreakerHalfOpen lets a limited number of probe requests through.
	BreakerHalfOpen BreakerState = "half_open"
)

// ErrBreakerOpen is returned by Allow while the breaker is open.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// CircuitBreaker protects an outbound dependency (e.g. a notification
// webhook) from repeated calls while it is failing. After MaxFailures
// consecutive failures the breaker opens; after Timeout it lets one
// probe through and closes again on success.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       BreakerState
	failures    int
	maxFailures int
	timeout     time.Duration
	openedAt    time.Time
	probing     bool
}

// NewCircuitBreaker creates a closed breaker. maxFailures must be
// positive and timeout must be greater than zero; out-of-range values
// fall back to 3 failures / 60s.
func NewCircuitBreaker(maxFailures int, timeout time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &CircuitBreaker{
		state:       BreakerClosed,
		maxFailures: maxFailures,
		timeout:     timeout,
	}
}

// Allow reports whether a request may proceed.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerOpen:
		if time.Since(cb.openedAt) > cb.timeout {
			cb.state = BreakerHalfOpen
			cb.probing = true
			return nil
		}
		return ErrBreakerOpen
	case BreakerHalfOpen:
		if cb.probing {
			return ErrBreakerOpen
		}
		cb.probing = true
		return nil
	default:
		return nil
	}
}

// RecordSuccess notes a successful request, closing the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = BreakerClosed
	cb.failures = 0
	cb.probing = false
}

// RecordFailure notes a failed request, opening the breaker once the
// failure threshold is reached or a half-open probe fails.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerHalfOpen {
		cb.state = BreakerOpen
		cb.openedAt = time.Now()
		cb.probing = false
		return
	}

	cb.failures++
	if cb.failures >= cb.maxFailures {
		cb.state = BreakerOpen
		cb.openedAt = time.Now()
	}
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
