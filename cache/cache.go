package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Sentinel errors for cache operations.
var (
	ErrInvalidKey       = errors.New("cache: key is invalid")
	ErrInvalidNamespace = errors.New("cache: namespace is invalid")
	ErrInvalidVersion   = errors.New("cache: version must not be negative")
	ErrUnserializable   = errors.New("cache: input fields are not serializable")
	ErrFieldNotFound    = errors.New("cache: key field not found")
	ErrNilCompute       = errors.New("cache: compute function is nil")
	ErrComputePanicked  = errors.New("cache: compute panicked")
)

// Status is the lifecycle state of a cache entry.
type Status int

const (
	// StatusIdle means no computation has run for the key.
	StatusIdle Status = iota
	// StatusPending means a computation is in flight.
	StatusPending
	// StatusResolved means the last computation succeeded.
	StatusResolved
	// StatusErrored means the last computation failed.
	StatusErrored
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// ComputeFunc produces the value for key. It runs at most once concurrently
// per key and on a context that is not cancelled when a waiting caller gives up.
type ComputeFunc[V any] func(ctx context.Context, key Key) (V, error)

// Cache is a keyed, single-flight computation cache.
//
// Contract:
//   - Concurrency: safe for concurrent use. For one key at most one compute
//     call is in flight; concurrent callers join it and observe its outcome.
//   - Context: Fetch returns ctx.Err() when the caller's context ends first.
//     The shared computation keeps running for the other waiters.
//   - Errors: failed computations are stored as errored entries and rerun
//     only by the next explicit Fetch; nothing is retried in the background.
type Cache[V any] struct {
	mu         sync.Mutex
	entries    map[Key]*entry[V]
	policy     Policy
	eviction   EvictionPolicy
	observer   Observer
	now        func() time.Time
	generation uint64
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	policy   Policy
	eviction EvictionPolicy
	observer Observer
	now      func() time.Time
}

// WithPolicy sets the expiry and capacity policy.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithEvictionPolicy injects the capacity eviction hook.
// It takes precedence over Policy.MaxEntries.
func WithEvictionPolicy(ep EvictionPolicy) Option {
	return func(o *options) { o.eviction = ep }
}

// WithObserver registers an observer for cache events.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates an empty cache. Without options entries never expire and the
// table is unbounded.
func New[V any](opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.eviction == nil && o.policy.MaxEntries > 0 {
		o.eviction = NewLRUPolicy(o.policy.MaxEntries)
	}
	if o.eviction == nil {
		o.eviction = unboundedPolicy{}
	}
	if o.observer == nil {
		o.observer = ObserverFunc(func(Event) {})
	}

	return &Cache[V]{
		entries:  make(map[Key]*entry[V]),
		policy:   o.policy,
		eviction: o.eviction,
		observer: o.observer,
		now:      o.now,
	}
}

// Fetch returns the value for key, computing it with compute on a miss.
//
// A resolved entry is returned without calling compute. A pending entry is
// joined. An absent, expired or errored entry starts a new computation under
// a fresh generation.
func (c *Cache[V]) Fetch(ctx context.Context, key Key, compute ComputeFunc[V]) (V, error) {
	var zero V
	if key.IsZero() {
		return zero, ErrInvalidKey
	}
	if compute == nil {
		return zero, ErrNilCompute
	}

	c.mu.Lock()
	var evicted []evictedKey
	e, ok := c.entries[key]
	if ok && c.expiredLocked(e) {
		evicted = append(evicted, c.removeLocked(key, EvictExpired))
		e, ok = nil, false
	}

	if ok {
		switch e.status {
		case StatusResolved:
			value, gen := e.value, e.generation
			c.eviction.Touch(key)
			c.mu.Unlock()
			c.observer.Observe(Event{Kind: EventHit, Key: key, Generation: gen})
			return value, nil

		case StatusPending:
			f := e.flight
			c.eviction.Touch(key)
			c.mu.Unlock()
			c.observer.Observe(Event{Kind: EventJoin, Key: key, Generation: f.generation})
			return f.wait(ctx)
		}
	}

	f, more := c.startLocked(key, e)
	evicted = append(evicted, more...)
	c.mu.Unlock()

	c.notifyEvicted(evicted)
	c.observer.Observe(Event{Kind: EventMiss, Key: key, Generation: f.generation})

	go c.run(context.WithoutCancel(ctx), key, f, compute)
	return f.wait(ctx)
}

// startLocked flips the entry for key to pending under a new generation.
func (c *Cache[V]) startLocked(key Key, e *entry[V]) (*flight[V], []evictedKey) {
	c.generation++
	f := newFlight[V](c.generation)

	var evicted []evictedKey
	if e == nil {
		e = &entry[V]{}
		c.entries[key] = e
		for _, victim := range c.eviction.Admit(key) {
			if victim == key {
				continue
			}
			if _, ok := c.entries[victim]; ok {
				evicted = append(evicted, c.removeLocked(victim, EvictCapacity))
			}
		}
	} else {
		c.eviction.Touch(key)
	}

	var zero V
	e.status = StatusPending
	e.value = zero
	e.err = nil
	e.generation = f.generation
	e.flight = f
	return f, evicted
}

func (c *Cache[V]) run(ctx context.Context, key Key, f *flight[V], compute ComputeFunc[V]) {
	start := c.now()
	value, err := invoke(ctx, key, compute)
	finished := c.now()

	c.mu.Lock()
	f.value, f.err = value, err
	close(f.done)

	e, ok := c.entries[key]
	current := ok && e.flight == f
	if current {
		e.flight = nil
		e.updatedAt = finished
		if err != nil {
			e.status = StatusErrored
			e.err = err
		} else {
			e.status = StatusResolved
			e.value = value
		}
	}
	c.mu.Unlock()

	kind := EventComplete
	if !current {
		kind = EventStale
	}
	c.observer.Observe(Event{
		Kind:       kind,
		Key:        key,
		Generation: f.generation,
		Duration:   finished.Sub(start),
		Err:        err,
	})
}

func invoke[V any](ctx context.Context, key Key, compute ComputeFunc[V]) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero V
			value = zero
			err = fmt.Errorf("%w: %v", ErrComputePanicked, r)
		}
	}()
	return compute(ctx, key)
}

// Evict drops the entry for key. An in-flight computation is not cancelled;
// its result is discarded when it completes. Idempotent.
func (c *Cache[V]) Evict(key Key) {
	c.mu.Lock()
	var evicted []evictedKey
	if _, ok := c.entries[key]; ok {
		evicted = append(evicted, c.removeLocked(key, EvictManual))
	}
	c.mu.Unlock()
	c.notifyEvicted(evicted)
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	evicted := make([]evictedKey, 0, len(c.entries))
	for key := range c.entries {
		evicted = append(evicted, c.removeLocked(key, EvictManual))
	}
	c.mu.Unlock()
	c.notifyEvicted(evicted)
}

// Len returns the number of entries, including pending ones.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Peek returns a snapshot of the entry for key without computing or
// refreshing recency.
func (c *Cache[V]) Peek(key Key) (Snapshot[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.expiredLocked(e) {
		return Snapshot[V]{}, false
	}
	return e.snapshot(), true
}

// Stats returns entry counts by status. Resolved entries past their TTL
// are counted as Expired only, matching what Peek and Fetch would see.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Generation: c.generation}
	for _, e := range c.entries {
		if c.expiredLocked(e) {
			s.Expired++
			continue
		}
		s.Entries++
		switch e.status {
		case StatusPending:
			s.Pending++
		case StatusResolved:
			s.Resolved++
		case StatusErrored:
			s.Errored++
		}
	}
	return s
}

// Stats summarizes the entry table. Entries excludes Expired.
type Stats struct {
	Entries    int
	Pending    int
	Resolved   int
	Errored    int
	Expired    int
	Generation uint64
}

func (c *Cache[V]) expiredLocked(e *entry[V]) bool {
	if c.policy.TTL <= 0 || e.status != StatusResolved {
		return false
	}
	return c.now().Sub(e.updatedAt) >= c.policy.TTL
}

type evictedKey struct {
	key        Key
	generation uint64
	reason     EvictReason
}

func (c *Cache[V]) removeLocked(key Key, reason EvictReason) evictedKey {
	e := c.entries[key]
	delete(c.entries, key)
	c.eviction.Forget(key)
	return evictedKey{key: key, generation: e.generation, reason: reason}
}

func (c *Cache[V]) notifyEvicted(evicted []evictedKey) {
	for _, ev := range evicted {
		c.observer.Observe(Event{
			Kind:       EventEvict,
			Key:        ev.key,
			Generation: ev.generation,
			Reason:     ev.reason,
		})
	}
}
