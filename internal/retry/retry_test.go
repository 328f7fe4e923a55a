package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"praman/internal/provider"
)

// fastPolicy keeps test runtime negligible.
var fastPolicy = Policy{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	Multiplier:   2.0,
	MaxDelay:     5 * time.Millisecond,
}

func retryableErr() error {
	return provider.NewError(provider.ErrorTimeout, provider.NameSandbox, "deadline exceeded", nil)
}

func permanentErr() error {
	return provider.NewError(provider.ErrorBadInput, provider.NameSandbox, "rejected", nil)
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastPolicy, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesRetryableErrors(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastPolicy, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", retryableErr()
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy, func(context.Context) (string, error) {
		calls++
		return "", retryableErr()
	})
	require.Error(t, err)
	assert.Equal(t, fastPolicy.MaxAttempts, calls)
	assert.Equal(t, provider.ErrorTimeout, provider.CategoryOf(err))
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy, func(context.Context) (string, error) {
		calls++
		return "", permanentErr()
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoDoesNotRetryPlainErrors(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy, func(context.Context) (string, error) {
		calls++
		return "", errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, fastPolicy, func(context.Context) (string, error) {
		calls++
		cancel()
		return "", retryableErr()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoCanceledBeforeFirstCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := Do(ctx, fastPolicy, func(context.Context) (string, error) {
		calls++
		return "", nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestPolicyBudgets(t *testing.T) {
	assert.Equal(t, 3, GenerateOTP.MaxAttempts)
	assert.Equal(t, 2, VerifyOTP.MaxAttempts)
}
