package util

import (
	"context"
	"math"
	"time"
)

// RetryPolicy describes an exponential backoff schedule: BaseDelay doubles
// on each attempt and is capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Delay returns the wait before the given retry (attempt is zero-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Retry runs op up to MaxAttempts times, waiting per the policy between
// attempts. Only errors accepted by retryable are retried; any other error
// returns immediately. The last error is returned once attempts run out.
func Retry[T any](ctx context.Context, policy RetryPolicy, retryable func(error) bool, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if retryable != nil && !retryable(err) {
			return zero, err
		}

		if attempt < attempts-1 {
			if err := sleep(ctx, policy.Delay(attempt)); err != nil {
				return zero, err
			}
		}
	}

	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
