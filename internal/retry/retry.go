// Package retry wraps a single upstream call with bounded, classified
// retries. Only failures the provider layer marks retryable (timeouts,
// network errors, 5xx, upstream throttling) consume retry budget; everything
// else propagates immediately.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"praman/internal/provider"
)

// Policy bounds one operation's retry behavior. The delay sequence is
// delay_i = min(InitialDelay * Multiplier^i, MaxDelay).
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// GenerateOTP allows three attempts: the caller is starting a session and a
// short stall is acceptable.
var GenerateOTP = Policy{
	MaxAttempts:  3,
	InitialDelay: 1 * time.Second,
	Multiplier:   2.0,
	MaxDelay:     10 * time.Second,
}

// VerifyOTP allows only two attempts because a human is waiting on the
// response synchronously.
var VerifyOTP = Policy{
	MaxAttempts:  2,
	InitialDelay: 500 * time.Millisecond,
	Multiplier:   2.0,
	MaxDelay:     2 * time.Second,
}

// Do runs fn under the policy, sleeping the backoff delay between retryable
// failures. It returns the last error once attempts exhaust. Context
// cancellation interrupts both the call and the sleep.
func Do[T any](ctx context.Context, policy Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.InitialDelay
	bo.Multiplier = policy.Multiplier
	bo.MaxInterval = policy.MaxDelay
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0 // attempts bound the loop, not wall time
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !provider.IsRetryable(err) || attempt == policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(bo.NextBackOff()):
		}
	}
	return zero, lastErr
}
