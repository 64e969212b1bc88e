package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail() error { return errBoom }
func succeed() error { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("printer", Config{FailureThreshold: 2, OpenTimeout: time.Minute})

	assert.ErrorIs(t, b.Execute(fail), errBoom)
	assert.Equal(t, Closed, b.State())
	assert.ErrorIs(t, b.Execute(fail), errBoom)
	assert.Equal(t, Open, b.State())

	called := false
	err := b.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := New("printer", Config{FailureThreshold: 2})

	_ = b.Execute(fail)
	require.NoError(t, b.Execute(succeed))
	_ = b.Execute(fail)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	b := New("archive", Config{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: 10 * time.Second})
	b.now = func() time.Time { return now }

	_ = b.Execute(fail)
	assert.Equal(t, Open, b.State())

	now = now.Add(11 * time.Second)
	assert.Equal(t, HalfOpen, b.State())

	require.NoError(t, b.Execute(succeed))
	assert.Equal(t, HalfOpen, b.State())
	require.NoError(t, b.Execute(succeed))
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	b := New("archive", Config{FailureThreshold: 1, OpenTimeout: time.Second})
	b.now = func() time.Time { return now }

	_ = b.Execute(fail)
	now = now.Add(2 * time.Second)
	assert.ErrorIs(t, b.Execute(fail), errBoom)
	assert.Equal(t, Open, b.State())
	assert.Equal(t, "open", b.State().String())
}
