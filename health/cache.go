package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/l1fee/cache"
)

// StatsSource exposes cache entry counts. *cache.Cache satisfies it.
type StatsSource interface {
	Stats() cache.Stats
}

// CacheCheckerConfig configures a CacheChecker.
type CacheCheckerConfig struct {
	// PendingRatio is the share of pending entries above which the cache is
	// degraded. Default: 0.5
	PendingRatio float64 `yaml:"pending_ratio"`

	// ErroredRatio is the share of errored entries above which the cache is
	// degraded. Default: 0.5
	ErroredRatio float64 `yaml:"errored_ratio"`

	// MinEntries is the entry count below which ratios are not judged.
	// Default: 10
	MinEntries int `yaml:"min_entries"`
}

// CacheChecker reports a computation cache whose entries are stuck pending
// or mostly errored.
type CacheChecker struct {
	source StatsSource
	config CacheCheckerConfig
}

// NewCacheChecker creates a CacheChecker.
func NewCacheChecker(source StatsSource, config CacheCheckerConfig) *CacheChecker {
	if config.PendingRatio <= 0 {
		config.PendingRatio = 0.5
	}
	if config.ErroredRatio <= 0 {
		config.ErroredRatio = 0.5
	}
	if config.MinEntries <= 0 {
		config.MinEntries = 10
	}
	return &CacheChecker{source: source, config: config}
}

// Name returns "cache".
func (c *CacheChecker) Name() string { return "cache" }

// Check never reports unhealthy: a saturated cache still answers.
func (c *CacheChecker) Check(context.Context) Result {
	s := c.source.Stats()
	details := map[string]any{
		"entries":    s.Entries,
		"pending":    s.Pending,
		"resolved":   s.Resolved,
		"errored":    s.Errored,
		"expired":    s.Expired,
		"generation": s.Generation,
	}
	if s.Entries < c.config.MinEntries {
		return Healthy(fmt.Sprintf("%d entries", s.Entries)).WithDetails(details)
	}

	total := float64(s.Entries)
	if r := float64(s.Pending) / total; r > c.config.PendingRatio {
		return Degraded(fmt.Sprintf("%.0f%% of entries pending", r*100)).WithDetails(details)
	}
	if r := float64(s.Errored) / total; r > c.config.ErroredRatio {
		return Degraded(fmt.Sprintf("%.0f%% of entries errored", r*100)).WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d entries", s.Entries)).WithDetails(details)
}
