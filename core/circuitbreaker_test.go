package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	assert.Equal(t, BreakerClosed, cb.State())

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, BreakerClosed, cb.State())
	assert.NoError(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, BreakerOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrBreakerOpen)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, BreakerClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	cb.RecordFailure()
	require.Equal(t, BreakerOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// First call after the timeout is the probe.
	require.NoError(t, cb.Allow())
	assert.Equal(t, BreakerHalfOpen, cb.State())

	// Only one probe is allowed at a time.
	assert.ErrorIs(t, cb.Allow(), ErrBreakerOpen)

	cb.RecordSuccess()
	assert.Equal(t, BreakerClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, cb.Allow())
	cb.RecordFailure()
	assert.Equal(t, BreakerOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrBreakerOpen)
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(0, 0)
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, BreakerClosed, cb.State())
	cb.RecordFailure()
	assert.Equal(t, BreakerOpen, cb.State())
}
