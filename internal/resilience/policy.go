package resilience

import (
	"context"
	"time"

	"github.com/sells-group/appraisal-cli/internal/config"
)

// Policy is the retry and breaker pair guarding one data source.
type Policy struct {
	Backoff Backoff
	Breaker *Breaker
}

// NewPolicy builds a policy for service from configuration. Zero values
// fall back to DefaultBackoff and the breaker defaults.
func NewPolicy(service string, rc config.RetryConfig, cc config.CircuitConfig) *Policy {
	b := DefaultBackoff()
	if rc.MaxAttempts > 0 {
		b.Attempts = rc.MaxAttempts
	}
	if rc.InitialBackoffMs > 0 {
		b.Initial = time.Duration(rc.InitialBackoffMs) * time.Millisecond
	}
	if rc.MaxBackoffMs > 0 {
		b.Max = time.Duration(rc.MaxBackoffMs) * time.Millisecond
	}
	if rc.Multiplier > 0 {
		b.Multiplier = rc.Multiplier
	}
	if rc.JitterFraction >= 0 {
		b.Jitter = rc.JitterFraction
	}
	return &Policy{
		Backoff: b,
		Breaker: NewBreaker(service, cc.FailureThreshold, time.Duration(cc.ResetTimeoutSecs)*time.Second),
	}
}

// Call runs fn under the policy. Each attempt passes through the breaker so
// an open circuit short-circuits the remaining retries. A nil policy calls
// fn once.
func Call[T any](ctx context.Context, p *Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	if p == nil {
		return fn(ctx)
	}
	return Retry(ctx, p.Backoff, op, func(ctx context.Context) (T, error) {
		if p.Breaker == nil {
			return fn(ctx)
		}
		return Guard(ctx, p.Breaker, fn)
	})
}
