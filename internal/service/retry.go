package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type RetryPolicy struct {
	MaxAttempts int
	Delays      []time.Duration
}

// DefaultRetryPolicy is used for every platform publish.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	Delays:      []time.Duration{2 * time.Minute, 10 * time.Minute},
}

type RetryResult[T any] struct {
	Success   bool
	Result    T
	Attempts  int
	LastError error
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext is the production SleepFunc.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithRetry runs fn until it succeeds or the policy is exhausted. It never
// panics on failure; the outcome is reported in the result.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, sleep SleepFunc, fn func(ctx context.Context, attempt int) (T, error)) RetryResult[T] {
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := fn(ctx, attempt)
		if err == nil {
			return RetryResult[T]{Success: true, Result: result, Attempts: attempt}
		}
		lastErr = err

		if IsNonRetryable(err) {
			return RetryResult[T]{Attempts: attempt, LastError: err}
		}
		if attempt >= maxAttempts {
			break
		}

		wait := backoffDelay(policy.Delays, attempt)
		if retryAfter, ok := RetryAfterOf(err); ok {
			wait = retryAfter
		}

		slog.Warn("attempt failed, retrying", "attempt", attempt, "wait", wait.String(), "error", err.Error())
		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return RetryResult[T]{Attempts: attempt, LastError: fmt.Errorf("%v (retry aborted: %w)", err, sleepErr)}
		}
	}

	return RetryResult[T]{Attempts: maxAttempts, LastError: lastErr}
}

func backoffDelay(delays []time.Duration, attempt int) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx > len(delays)-1 {
		idx = len(delays) - 1
	}
	return delays[idx]
}
