package cache

import (
	"context"
	"time"
)

// ObservationStatus classifies a value emitted by Watch.
type ObservationStatus int

const (
	// ObservationResolved carries a fresh value for the current key.
	ObservationResolved ObservationStatus = iota
	// ObservationRetained carries the last delivered value because the
	// current key was skipped or failed.
	ObservationRetained
	// ObservationNotApplicable means the current key was skipped and no
	// earlier value exists.
	ObservationNotApplicable
	// ObservationFailed means the current key failed and no earlier value exists.
	ObservationFailed
)

// String returns the string representation of the status.
func (s ObservationStatus) String() string {
	switch s {
	case ObservationResolved:
		return "resolved"
	case ObservationRetained:
		return "retained"
	case ObservationNotApplicable:
		return "not-applicable"
	case ObservationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Observation is one value delivered to a Watch subscriber.
type Observation[V any] struct {
	// Key is the key the observation answers, even when Value was retained
	// from an earlier key.
	Key    Key
	Value  V
	Status ObservationStatus
	// Err is set for failed observations, and for retained ones when the
	// current key failed.
	Err error
}

// HasValue reports whether Value holds a computed or retained value.
func (o Observation[V]) HasValue() bool {
	return o.Status == ObservationResolved || o.Status == ObservationRetained
}

// WatchOptions configures Watch.
type WatchOptions[V any] struct {
	// Skipped reports whether a computed value is the "not applicable"
	// sentinel of the computation family. Nil means nothing is skipped.
	Skipped func(V) bool

	// RetainPreviousOnGatedSkip keeps emitting the last delivered value
	// when a key resolves to a skipped value.
	RetainPreviousOnGatedSkip bool

	// RefreshInterval refetches the current key periodically. Whether the
	// refetch recomputes is up to the cache Policy. Zero disables refresh.
	RefreshInterval time.Duration
}

type watchResult[V any] struct {
	seq   uint64
	key   Key
	value V
	err   error
}

// Watch subscribes to a changing key and emits one Observation per settled
// fetch of the latest key. Results for superseded keys are dropped. Repeating
// the current key does not refetch it unless its last fetch failed.
//
// The returned channel is closed once keys is closed and the last pending
// fetch was delivered, or when ctx is done. Cancelling ctx stops delivery to
// this subscriber only; shared computations keep running.
func (c *Cache[V]) Watch(ctx context.Context, keys <-chan Key, compute ComputeFunc[V], opts WatchOptions[V]) <-chan Observation[V] {
	out := make(chan Observation[V])
	go c.watch(ctx, keys, compute, opts, out)
	return out
}

func (c *Cache[V]) watch(ctx context.Context, keys <-chan Key, compute ComputeFunc[V], opts WatchOptions[V], out chan<- Observation[V]) {
	defer close(out)

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tick <-chan time.Time
	if opts.RefreshInterval > 0 {
		ticker := time.NewTicker(opts.RefreshInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	results := make(chan watchResult[V])
	var (
		seq      uint64
		current  Key
		inflight bool
		failed   bool // last settled fetch of current returned an error
		ret      retention[V]
	)

	start := func(key Key) {
		seq++
		current = key
		inflight = true
		failed = false
		go func(seq uint64, key Key) {
			value, err := c.Fetch(fetchCtx, key, compute)
			select {
			case results <- watchResult[V]{seq: seq, key: key, value: value, err: err}:
			case <-fetchCtx.Done():
			}
		}(seq, key)
	}

	for keys != nil || inflight {
		select {
		case <-ctx.Done():
			return

		case key, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			if key.IsZero() || (key == current && (inflight || !failed)) {
				continue
			}
			start(key)

		case <-tick:
			if !inflight && !current.IsZero() {
				start(current)
			}

		case r := <-results:
			if r.seq != seq {
				continue
			}
			inflight = false
			failed = r.err != nil
			obs := ret.settle(r, opts)
			select {
			case out <- obs:
			case <-ctx.Done():
				return
			}
		}
	}
}

// retention tracks the last delivered value of one subscription.
type retention[V any] struct {
	last    V
	hasLast bool
}

func (r *retention[V]) settle(res watchResult[V], opts WatchOptions[V]) Observation[V] {
	obs := Observation[V]{Key: res.key}

	switch {
	case res.err != nil:
		obs.Err = res.err
		if r.hasLast {
			obs.Value = r.last
			obs.Status = ObservationRetained
		} else {
			obs.Status = ObservationFailed
		}

	case opts.Skipped != nil && opts.Skipped(res.value):
		if opts.RetainPreviousOnGatedSkip && r.hasLast {
			obs.Value = r.last
			obs.Status = ObservationRetained
		} else {
			obs.Value = res.value
			obs.Status = ObservationNotApplicable
			var zero V
			r.last, r.hasLast = zero, false
		}

	default:
		obs.Value = res.value
		obs.Status = ObservationResolved
		r.last, r.hasLast = res.value, true
	}

	return obs
}
