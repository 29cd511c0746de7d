package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errGatewayDown = errors.New("connection refused")

func failing() error { return errGatewayDown }
func ok() error      { return nil }

func newTestCB(openTimeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenTimeout:      openTimeout,
	})
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := newTestCB(time.Minute)

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(failing), errGatewayDown)
		assert.Equal(t, CBClosed, cb.State())
	}
	assert.ErrorIs(t, cb.Execute(failing), errGatewayDown)
	assert.Equal(t, CBOpen, cb.State())

	// Fast fail: the wrapped function is not called.
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := newTestCB(time.Minute)

	require.Error(t, cb.Execute(failing))
	require.Error(t, cb.Execute(failing))
	require.NoError(t, cb.Execute(ok))
	require.Error(t, cb.Execute(failing))
	require.Error(t, cb.Execute(failing))

	// Two failures after a success: still under the threshold.
	assert.Equal(t, CBClosed, cb.State())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	cb := newTestCB(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.Error(t, cb.Execute(failing))
	}
	require.Equal(t, CBOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())

	// A failed probe trips it again.
	require.Error(t, cb.Execute(failing))
	assert.Equal(t, CBOpen, cb.State())
}

func TestBreakerClosesAfterSuccessfulProbes(t *testing.T) {
	cb := newTestCB(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.Error(t, cb.Execute(failing))
	}
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(ok))
	require.Equal(t, CBHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, CBClosed, cb.State())
}
