package llm

import (
	"context"
	"log/slog"
	"time"
)

// DefaultMaxAttempts is the retry ceiling for transient provider
// failures. Kept small: a provider that fails three times in a row is
// better surfaced as a failed task than hammered further.
const DefaultMaxAttempts = 3

// baseBackoff is the first retry delay; subsequent delays double.
const baseBackoff = time.Second

// RetryClient wraps a Client and retries Generate on transient failures
// with bounded exponential backoff. Non-transient failures and context
// cancellation propagate immediately.
type RetryClient struct {
	inner       Client
	maxAttempts int
	logger      *slog.Logger

	// sleep is swappable for tests.
	sleep func(context.Context, time.Duration) error
}

// WithRetry wraps client with retry behavior. maxAttempts <= 0 selects
// DefaultMaxAttempts.
func WithRetry(client Client, maxAttempts int, logger *slog.Logger) *RetryClient {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryClient{
		inner:       client,
		maxAttempts: maxAttempts,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Generate implements Client.
func (c *RetryClient) Generate(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		lastErr = c.inner.Generate(ctx, systemPrompt, userPrompt, out)
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) || attempt == c.maxAttempts {
			return lastErr
		}

		delay := baseBackoff << (attempt - 1)
		c.logger.Warn("provider call failed, retrying",
			"attempt", attempt, "delay", delay, "error", lastErr)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
