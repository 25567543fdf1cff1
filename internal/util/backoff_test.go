package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyDelayDoublesAndCaps(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    4 * time.Second,
	}

	want := []time.Duration{
		500 * time.Millisecond,
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		4 * time.Second, // capped
	}

	for attempt, expect := range want {
		if got := policy.Delay(attempt); got != expect {
			t.Fatalf("attempt %d: expected delay %v, got %v", attempt, expect, got)
		}
	}
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	fatal := errors.New("bad request")
	calls := 0

	_, err := Retry(context.Background(), RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		func(err error) bool { return false },
		func(ctx context.Context) (int, error) {
			calls++
			return 0, fatal
		})

	if !errors.Is(err, fatal) {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", calls)
	}
}

func TestRetryExhaustsAttemptsOnRetryableError(t *testing.T) {
	transient := errors.New("rate limited")
	calls := 0

	_, err := Retry(context.Background(), RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		func(err error) bool { return true },
		func(ctx context.Context) (int, error) {
			calls++
			return 0, transient
		})

	if !errors.Is(err, transient) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryReturnsFirstSuccess(t *testing.T) {
	calls := 0

	result, err := Retry(context.Background(), RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		func(err error) bool { return true },
		func(ctx context.Context) (string, error) {
			calls++
			if calls < 2 {
				return "", errors.New("transient")
			}
			return "ok", nil
		})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result != "ok" {
		t.Fatalf("expected result ok, got %q", result)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second},
		func(err error) bool { return true },
		func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("transient")
		})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt before cancellation, got %d", calls)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		value, lo, hi, want float64
	}{
		{1.7, 0, 1, 1},
		{-0.2, 0, 1, 0},
		{0.5, 0, 1, 0.5},
		{0, 0, 1, 0},
		{1, 0, 1, 1},
	}

	for _, c := range cases {
		if got := Clamp(c.value, c.lo, c.hi); got != c.want {
			t.Fatalf("Clamp(%v, %v, %v) = %v, want %v", c.value, c.lo, c.hi, got, c.want)
		}
	}
}
