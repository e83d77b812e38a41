package fee

import (
	"context"
	"time"

	"github.com/jonwraymond/l1fee/cache"
	"github.com/jonwraymond/l1fee/observe"
)

// Estimator computes and caches L1 security fees.
//
// Contract:
//   - Concurrency: safe for concurrent use. Concurrent requests for equal
//     Args share one computation.
//   - Errors: provider failures surface as *TransportError and are retried
//     only by the next Fetch.
type Estimator struct {
	gate    Gate
	cache   *cache.Cache[Fee]
	compute cache.ComputeFunc[Fee]
	mw      *observe.Middleware
	version int
	retain  bool
	refresh time.Duration
}

type estimatorOptions struct {
	gate      Gate
	policy    cache.Policy
	cacheOpts []cache.Option
	mw        *observe.Middleware
	version   int
	retain    bool
	refresh   time.Duration
}

// Option configures an Estimator.
type Option func(*estimatorOptions)

// WithGate replaces NeedsL1SecurityFee.
func WithGate(g Gate) Option {
	return func(o *estimatorOptions) { o.gate = g }
}

// WithPolicy sets the cache expiry and capacity policy.
func WithPolicy(p cache.Policy) Option {
	return func(o *estimatorOptions) { o.policy = p }
}

// WithCacheOptions passes extra options to the underlying cache. They are
// applied after the policy and the telemetry observer.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(o *estimatorOptions) { o.cacheOpts = append(o.cacheOpts, opts...) }
}

// WithMiddleware records telemetry for every computation and cache event.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(o *estimatorOptions) { o.mw = mw }
}

// WithKeyVersion overrides KeyVersion.
func WithKeyVersion(v int) Option {
	return func(o *estimatorOptions) { o.version = v }
}

// WithRetainPrevious controls whether Watch keeps the last fee when the
// inputs move to a chain without one. Enabled by default.
func WithRetainPrevious(retain bool) Option {
	return func(o *estimatorOptions) { o.retain = retain }
}

// WithRefreshInterval makes Watch refetch the current inputs periodically.
func WithRefreshInterval(d time.Duration) Option {
	return func(o *estimatorOptions) { o.refresh = d }
}

// NewEstimator creates an Estimator backed by a fresh cache.
func NewEstimator(provider PriceProvider, calc Calculator, opts ...Option) (*Estimator, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if calc == nil {
		return nil, ErrNilCalculator
	}

	o := estimatorOptions{
		gate:    NeedsL1SecurityFee,
		policy:  cache.DefaultPolicy(),
		version: KeyVersion,
		retain:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.gate == nil {
		o.gate = NeedsL1SecurityFee
	}
	if o.version < 0 {
		return nil, cache.ErrInvalidVersion
	}
	if o.mw == nil {
		o.mw = observe.NopMiddleware()
	}

	e := &Estimator{
		gate:    o.gate,
		mw:      o.mw,
		version: o.version,
		retain:  o.retain,
		refresh: o.refresh,
	}

	cacheOpts := append([]cache.Option{
		cache.WithPolicy(o.policy),
		cache.WithObserver(cacheTelemetry{mw: o.mw}),
	}, o.cacheOpts...)
	e.cache = cache.New[Fee](cacheOpts...)

	inner := Compute(o.gate, provider, calc)
	e.compute = func(ctx context.Context, key cache.Key) (Fee, error) {
		meta := observe.ComputationMeta{
			Namespace: key.Namespace(),
			Version:   key.Version(),
			Key:       key.String(),
		}
		var chainID ChainID
		if err := key.Field(fieldChainID, &chainID); err == nil {
			meta.ChainID = uint64(chainID)
		}
		return observe.Run(ctx, e.mw, meta, func(ctx context.Context) (Fee, error) {
			return inner(ctx, key)
		})
	}
	return e, nil
}

// Key returns the cache key for args.
func (e *Estimator) Key(args Args) (cache.Key, error) {
	return QueryKey(args, e.version)
}

// KeyVersion returns the schema version used for keys.
func (e *Estimator) KeyVersion() int { return e.version }

// Gate returns the capability gate in use.
func (e *Estimator) Gate() Gate { return e.gate }

// Fetch returns the fee for args, computing it at most once concurrently.
func (e *Estimator) Fetch(ctx context.Context, args Args) (Fee, error) {
	key, err := e.Key(args)
	if err != nil {
		return Fee{}, err
	}
	return e.cache.Fetch(ctx, key, e.compute)
}

// Watch follows a stream of inputs and emits the fee for the latest one.
// Unless disabled with WithRetainPrevious, moving to a chain without a fee
// keeps emitting the last fee with status cache.ObservationRetained.
//
// The returned channel closes after args closes and the last result is
// delivered, or when ctx is done.
func (e *Estimator) Watch(ctx context.Context, args <-chan Args) <-chan cache.Observation[Fee] {
	keys := make(chan cache.Key)
	go func() {
		defer close(keys)
		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-args:
				if !ok {
					return
				}
				key, err := e.Key(a)
				if err != nil {
					e.mw.Logger().Warn(ctx, "fee: dropping unkeyable watch input",
						observe.F("chain_id", uint64(a.ChainID)),
						observe.F("error", err),
					)
					continue
				}
				select {
				case keys <- key:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return e.cache.Watch(ctx, keys, e.compute, cache.WatchOptions[Fee]{
		Skipped:                   func(f Fee) bool { return !f.Applicable() },
		RetainPreviousOnGatedSkip: e.retain,
		RefreshInterval:           e.refresh,
	})
}

// Evict drops the cached fee for args.
func (e *Estimator) Evict(args Args) error {
	key, err := e.Key(args)
	if err != nil {
		return err
	}
	e.cache.Evict(key)
	return nil
}

// Cache exposes the underlying cache for inspection and health checks.
func (e *Estimator) Cache() *cache.Cache[Fee] { return e.cache }

// cacheTelemetry forwards cache events to metrics and the logger.
type cacheTelemetry struct {
	mw *observe.Middleware
}

func (t cacheTelemetry) Observe(ev cache.Event) {
	ctx := context.Background()
	t.mw.Metrics().RecordCacheEvent(ctx, ev.Key.Namespace(), ev.Kind.String())

	switch ev.Kind {
	case cache.EventStale:
		t.mw.Logger().Debug(ctx, "fee: discarded stale computation",
			observe.F("key", ev.Key.String()),
			observe.F("generation", ev.Generation),
		)
	case cache.EventEvict:
		t.mw.Logger().Debug(ctx, "fee: evicted",
			observe.F("key", ev.Key.String()),
			observe.F("reason", ev.Reason.String()),
		)
	}
}
