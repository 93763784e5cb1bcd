package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fail(context.Context) (int, error)    { return 0, errUnavailable }
func succeed(context.Context) (int, error) { return 1, nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker("assessor", 3, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := Guard(context.Background(), b, fail)
		require.Error(t, err)
	}
	assert.Equal(t, Open, b.State())
	assert.Equal(t, 3, b.Failures())

	called := false
	_, err := Guard(context.Background(), b, func(context.Context) (int, error) {
		called = true
		return 1, nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOpen))
	assert.Contains(t, err.Error(), "assessor")
	assert.False(t, called)
}

func TestBreaker_PermanentErrorsDoNotTrip(t *testing.T) {
	b := NewBreaker("assessor", 2, time.Minute)
	notFound := func(context.Context) (int, error) { return 0, &StatusError{StatusCode: 404} }

	for i := 0; i < 5; i++ {
		_, _ = Guard(context.Background(), b, notFound)
	}
	assert.Equal(t, Closed, b.State())
	assert.Equal(t, 0, b.Failures())
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b := NewBreaker("market", 3, time.Minute)

	_, _ = Guard(context.Background(), b, fail)
	_, _ = Guard(context.Background(), b, fail)
	_, err := Guard(context.Background(), b, succeed)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Failures())
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBreaker("listings", 1, 30*time.Second)
	b.now = func() time.Time { return now }

	_, _ = Guard(context.Background(), b, fail)
	require.Equal(t, Open, b.State())

	now = now.Add(31 * time.Second)
	assert.Equal(t, HalfOpen, b.State())

	// A failed probe reopens.
	_, _ = Guard(context.Background(), b, fail)
	assert.Equal(t, Open, b.State())

	now = now.Add(31 * time.Second)
	v, err := Guard(context.Background(), b, succeed)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_Defaults(t *testing.T) {
	b := NewBreaker("x", 0, 0)
	assert.Equal(t, 5, b.threshold)
	assert.Equal(t, 30*time.Second, b.cooldown)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half-open", HalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
