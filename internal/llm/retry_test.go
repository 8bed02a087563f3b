package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingClient fails with err for the first failures calls, then
// succeeds by decoding body.
type countingClient struct {
	failures int
	err      error
	body     string
	calls    int
}

func (c *countingClient) Generate(ctx context.Context, system, user string, out any) error {
	c.calls++
	if c.calls <= c.failures {
		return c.err
	}
	if c.body != "" {
		return (&Fake{}).Respond("", c.body).Generate(ctx, system, user, out)
	}
	return nil
}

func noSleep(r *RetryClient) {
	r.sleep = func(context.Context, time.Duration) error { return nil }
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	inner := &countingClient{
		failures: 2,
		err:      &ProviderError{Provider: "x", Transient: true, Err: errors.New("rate limited")},
	}
	r := WithRetry(inner, 3, nil)
	noSleep(r)

	err := r.Generate(context.Background(), "sys", "user", &struct{}{})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	inner := &countingClient{
		failures: 10,
		err:      &ProviderError{Provider: "x", Transient: true, Err: errors.New("overloaded")},
	}
	r := WithRetry(inner, 3, nil)
	noSleep(r)

	err := r.Generate(context.Background(), "sys", "user", &struct{}{})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 3, inner.calls)
}

func TestRetry_PermanentFailureNotRetried(t *testing.T) {
	inner := &countingClient{
		failures: 10,
		err:      &ProviderError{Provider: "x", Err: errors.New("bad api key")},
	}
	r := WithRetry(inner, 3, nil)
	noSleep(r)

	err := r.Generate(context.Background(), "sys", "user", &struct{}{})
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Equal(t, 1, inner.calls)
}

func TestRetry_BackoffDoubles(t *testing.T) {
	inner := &countingClient{
		failures: 2,
		err:      &ProviderError{Provider: "x", Transient: true, Err: errors.New("throttled")},
	}
	r := WithRetry(inner, 3, nil)

	var delays []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	require.NoError(t, r.Generate(context.Background(), "sys", "user", &struct{}{}))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	inner := &countingClient{
		failures: 10,
		err:      &ProviderError{Provider: "x", Transient: true, Err: errors.New("throttled")},
	}
	r := WithRetry(inner, 3, nil)
	r.sleep = func(ctx context.Context, _ time.Duration) error { return context.Canceled }

	err := r.Generate(context.Background(), "sys", "user", &struct{}{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestWithRetry_DefaultAttempts(t *testing.T) {
	r := WithRetry(NewFake(), 0, nil)
	assert.Equal(t, DefaultMaxAttempts, r.maxAttempts)
}
