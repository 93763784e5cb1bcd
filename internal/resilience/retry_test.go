package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackoff(attempts int) Backoff {
	return Backoff{Attempts: attempts, Initial: time.Millisecond, Max: 5 * time.Millisecond, Multiplier: 2}
}

var errUnavailable = &StatusError{Service: "test", StatusCode: 503}

func TestRetry_FirstTry(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), fastBackoff(3), "op", func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestRetry_SucceedsAfterTransient(t *testing.T) {
	calls := 0
	v, err := Retry(context.Background(), fastBackoff(3), "op", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errUnavailable
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestRetry_Exhausted(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastBackoff(4), "op", func(context.Context) (int, error) {
		calls++
		return 0, errUnavailable
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 503, StatusCode(err))
}

func TestRetry_PermanentErrorStops(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastBackoff(5), "op", func(context.Context) (int, error) {
		calls++
		return 0, &StatusError{StatusCode: 404}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	b := Backoff{Attempts: 5, Initial: time.Hour, Max: time.Hour}

	done := make(chan error, 1)
	go func() {
		_, err := Retry(ctx, b, "op", func(context.Context) (int, error) {
			calls++
			return 0, errUnavailable
		})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, errUnavailable))
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not stop on cancellation")
	}
}

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Attempts: 5, Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, b.Delay(0))
	assert.Equal(t, 200*time.Millisecond, b.Delay(1))
	assert.Equal(t, 400*time.Millisecond, b.Delay(2))
	assert.Equal(t, time.Second, b.Delay(10))
}

func TestBackoff_DelayJitterBounds(t *testing.T) {
	b := Backoff{Attempts: 3, Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2, Jitter: 0.5}
	for i := 0; i < 50; i++ {
		d := b.Delay(0)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestBackoff_ZeroUsesDefaults(t *testing.T) {
	n := Backoff{}.normalized()
	assert.Equal(t, DefaultBackoff().Attempts, n.Attempts)
	assert.Equal(t, DefaultBackoff().Initial, n.Initial)
	assert.Equal(t, DefaultBackoff().Multiplier, n.Multiplier)
}
