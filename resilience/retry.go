package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig configures foreground retries.
type RetryConfig struct {
	// MaxAttempts counts the first call. Default: 1 (no retry)
	MaxAttempts int `yaml:"max_attempts"`

	// InitialDelay is the delay before the first retry. Default: 100ms
	InitialDelay time.Duration `yaml:"initial_delay"`

	// MaxDelay caps a single delay. Default: 5s
	MaxDelay time.Duration `yaml:"max_delay"`

	// Multiplier grows the delay between attempts. Default: 2
	Multiplier float64 `yaml:"multiplier"`

	// Jitter randomizes each delay by up to this fraction. Default: 0
	Jitter float64 `yaml:"jitter"`

	// RetryIf decides whether err is retried. Default: IsTransient
	RetryIf func(err error) bool `yaml:"-"`

	// OnRetry is called before each retry.
	OnRetry func(attempt int, err error, delay time.Duration) `yaml:"-"`
}

// Retry re-runs failed calls with exponential backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a Retry.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.Multiplier < 1 {
		config.Multiplier = 2
	}
	if config.Jitter < 0 || config.Jitter > 1 {
		config.Jitter = 0
	}
	if config.RetryIf == nil {
		config.RetryIf = IsTransient
	}
	return &Retry{config: config}
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig { return r.config }

func (r *Retry) newBackOff() backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     r.config.InitialDelay,
		RandomizationFactor: r.config.Jitter,
		Multiplier:          r.config.Multiplier,
		MaxInterval:         r.config.MaxDelay,
	}
	b.Reset()
	return b
}

// Execute runs op until it succeeds, returns a non-retryable error, or
// MaxAttempts is reached. The last error is returned unchanged.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	bo := r.newBackOff()

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil || !r.config.RetryIf(err) || attempt >= r.config.MaxAttempts {
			return err
		}

		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			return err
		}
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
