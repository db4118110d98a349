package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsOnFirstAttempt(t *testing.T) {
	b := NewBaseProvider("test", 3, time.Millisecond)
	calls := 0
	err := b.Retry(context.Background(), func(error) bool { return true }, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryStopsImmediatelyWhenNotRetryable(t *testing.T) {
	b := NewBaseProvider("test", 3, time.Millisecond)
	calls := 0
	sentinel := errors.New("boom")
	err := b.Retry(context.Background(), func(error) bool { return false }, func() error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestRetryExhaustsMaxAttempts(t *testing.T) {
	b := NewBaseProvider("test", 3, time.Millisecond)
	calls := 0
	sentinel := errors.New("transient")
	err := b.Retry(context.Background(), func(error) bool { return true }, func() error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnContextCancellation(t *testing.T) {
	b := NewBaseProvider("test", 5, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := b.Retry(ctx, func(error) bool { return true }, func() error {
		calls++
		if calls == 1 {
			cancel()
		}
		return errors.New("retryable")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryNilOpIsNoop(t *testing.T) {
	b := NewBaseProvider("test", 3, time.Millisecond)
	assert.NoError(t, b.Retry(context.Background(), nil, nil))
}

func TestNewBaseProviderAppliesDefaults(t *testing.T) {
	b := NewBaseProvider("test", 0, 0)
	assert.Equal(t, 3, b.maxRetries)
	assert.Equal(t, time.Second, b.retryDelay)
}
