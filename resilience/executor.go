package resilience

import (
	"context"
	"fmt"
	"time"
)

// Executor composes the patterns around one call.
//
// Order, outermost first: rate limiter, circuit breaker, retry, timeout.
// Each retry attempt gets its own timeout, and the breaker sees the outcome
// of the whole retried call.
type Executor struct {
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
	retry          *Retry
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an Executor. Without options it runs calls directly.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRateLimiter adds a rate limiter.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.rateLimiter = rl }
}

// WithCircuitBreaker adds a circuit breaker.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

// WithRetry adds foreground retries.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(d) }
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker { return e.circuitBreaker }

// Execute runs op through the configured patterns. A nil Executor runs op
// directly.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	if e == nil {
		return op(ctx)
	}

	run := op
	if e.timeout != nil {
		inner := run
		run = func(ctx context.Context) error { return e.timeout.Execute(ctx, inner) }
	}
	if e.retry != nil {
		inner := run
		run = func(ctx context.Context) error { return e.retry.Execute(ctx, inner) }
	}
	if e.circuitBreaker != nil {
		inner := run
		run = func(ctx context.Context) error { return e.circuitBreaker.Execute(ctx, inner) }
	}
	if e.rateLimiter != nil {
		inner := run
		run = func(ctx context.Context) error { return e.rateLimiter.Execute(ctx, inner) }
	}
	return run(ctx)
}

// Do runs a value-returning op through e.
func Do[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Config describes an Executor. Nil sections are disabled.
type Config struct {
	Timeout        time.Duration         `yaml:"timeout"`
	Retry          *RetryConfig          `yaml:"retry"`
	RateLimit      *RateLimiterConfig    `yaml:"rate_limit"`
	CircuitBreaker *CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// Validate rejects negative settings.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("resilience: timeout must not be negative: %v", c.Timeout)
	}
	if c.Retry != nil && c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("resilience: retry.max_attempts must not be negative: %d", c.Retry.MaxAttempts)
	}
	if c.RateLimit != nil && c.RateLimit.Rate < 0 {
		return fmt.Errorf("resilience: rate_limit.rate must not be negative: %v", c.RateLimit.Rate)
	}
	if c.CircuitBreaker != nil && c.CircuitBreaker.MaxFailures < 0 {
		return fmt.Errorf("resilience: circuit_breaker.max_failures must not be negative: %d", c.CircuitBreaker.MaxFailures)
	}
	return nil
}

// NewExecutorFromConfig builds an Executor from cfg. Each call creates fresh
// breaker and limiter state.
func NewExecutorFromConfig(cfg Config) *Executor {
	var opts []ExecutorOption
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}
	if cfg.Retry != nil {
		opts = append(opts, WithRetry(NewRetry(*cfg.Retry)))
	}
	if cfg.RateLimit != nil {
		opts = append(opts, WithRateLimiter(NewRateLimiter(*cfg.RateLimit)))
	}
	if cfg.CircuitBreaker != nil {
		opts = append(opts, WithCircuitBreaker(NewCircuitBreaker(*cfg.CircuitBreaker)))
	}
	return NewExecutor(opts...)
}
