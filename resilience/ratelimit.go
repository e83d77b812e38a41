package resilience

import (
	"context"
	"sync"
	"time"
)

// RateLimiterConfig configures a RateLimiter.
type RateLimiterConfig struct {
	// Rate is the number of calls allowed per second. Default: 25
	Rate float64 `yaml:"rate"`

	// Burst is the bucket size. Default: 5
	Burst int `yaml:"burst"`

	// Wait blocks for a token instead of failing fast.
	Wait bool `yaml:"wait"`

	// MaxWait caps how long Wait blocks. Default: 1s
	MaxWait time.Duration `yaml:"max_wait"`

	// Clock overrides time.Now.
	Clock func() time.Time `yaml:"-"`
}

// RateLimiter is a token bucket shared by every call through it.
type RateLimiter struct {
	config RateLimiterConfig

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 25
	}
	if config.Burst <= 0 {
		config.Burst = 5
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Second
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &RateLimiter{
		config: config,
		tokens: float64(config.Burst),
		last:   config.Clock(),
	}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	ok, _ := rl.reserve()
	return ok
}

// reserve takes a token, or reports how long until one is available.
func (rl *RateLimiter) reserve() (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1 {
		rl.tokens--
		return true, 0
	}
	missing := 1 - rl.tokens
	return false, time.Duration(missing / rl.config.Rate * float64(time.Second))
}

// Wait blocks until a token is available, MaxWait passes or ctx ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	deadline := rl.config.Clock().Add(rl.config.MaxWait)
	for {
		ok, delay := rl.reserve()
		if ok {
			return nil
		}
		if rl.config.Clock().Add(delay).After(deadline) {
			return ErrRateLimitExceeded
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

// Execute runs op if a token is available.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if rl.config.Wait {
		if err := rl.Wait(ctx); err != nil {
			return err
		}
	} else if !rl.Allow() {
		return ErrRateLimitExceeded
	}
	return op(ctx)
}

// Tokens returns the number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

func (rl *RateLimiter) refillLocked() {
	now := rl.config.Clock()
	if elapsed := now.Sub(rl.last); elapsed > 0 {
		rl.tokens += elapsed.Seconds() * rl.config.Rate
		if burst := float64(rl.config.Burst); rl.tokens > burst {
			rl.tokens = burst
		}
	}
	rl.last = now
}
