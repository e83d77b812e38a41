package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRetry_Defaults(t *testing.T) {
	cfg := NewRetry(RetryConfig{}).Config()
	if cfg.MaxAttempts != 1 {
		t.Errorf("MaxAttempts = %d, want 1", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 100*time.Millisecond || cfg.MaxDelay != 5*time.Second || cfg.Multiplier != 2 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestRetry_DefaultIsSingleAttempt(t *testing.T) {
	calls := 0
	err := NewRetry(RetryConfig{}).Execute(context.Background(), func(context.Context) error {
		calls++
		return errUpstream
	})
	if !errors.Is(err, errUpstream) || calls != 1 {
		t.Fatalf("err=%v calls=%d, want upstream error after 1 call", err, calls)
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	var delays []time.Duration
	r := NewRetry(RetryConfig{
		MaxAttempts:  4,
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		OnRetry: func(_ int, _ error, d time.Duration) {
			delays = append(delays, d)
		},
	})

	calls := 0
	err := r.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errUpstream
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err=%v calls=%d, want success on call 3", err, calls)
	}
	if len(delays) != 2 {
		t.Fatalf("delays = %v, want 2 retries", delays)
	}
	if delays[0] < time.Millisecond || delays[1] < delays[0] || delays[1] > 4*time.Millisecond {
		t.Errorf("delays = %v, want growing from 1ms capped at 4ms", delays)
	}
}

func TestRetry_ReturnsLastErrorWhenExhausted(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})
	calls := 0
	err := r.Execute(context.Background(), func(context.Context) error {
		calls++
		return errUpstream
	})
	if !errors.Is(err, errUpstream) || calls != 3 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestRetry_SkipsNonTransientErrors(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond})
	for _, cause := range []error{ErrCircuitOpen, ErrRateLimitExceeded, context.Canceled} {
		calls := 0
		err := r.Execute(context.Background(), func(context.Context) error {
			calls++
			return cause
		})
		if !errors.Is(err, cause) || calls != 1 {
			t.Errorf("%v: err=%v calls=%d, want one call", cause, err, calls)
		}
	}
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 10, InitialDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := r.Execute(ctx, func(context.Context) error {
		calls++
		cancel()
		return errUpstream
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errUpstream, true},
		{ErrTimeout, true},
		{context.DeadlineExceeded, true},
		{context.Canceled, false},
		{ErrCircuitOpen, false},
		{ErrRateLimitExceeded, false},
	}
	for _, tc := range tests {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
