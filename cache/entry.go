package cache

import (
	"context"
	"time"
)

// entry is owned by Cache and only mutated under Cache.mu.
type entry[V any] struct {
	status     Status
	value      V
	err        error
	generation uint64
	flight     *flight[V]
	updatedAt  time.Time
}

func (e *entry[V]) snapshot() Snapshot[V] {
	return Snapshot[V]{
		Status:     e.status,
		Value:      e.value,
		Err:        e.err,
		Generation: e.generation,
		UpdatedAt:  e.updatedAt,
	}
}

// Snapshot is a point-in-time copy of an entry.
type Snapshot[V any] struct {
	Status     Status
	Value      V
	Err        error
	Generation uint64
	UpdatedAt  time.Time
}

// flight is one computation. done is closed after value and err are written,
// so every waiter reads the same outcome.
type flight[V any] struct {
	generation uint64
	done       chan struct{}
	value      V
	err        error
}

func newFlight[V any](generation uint64) *flight[V] {
	return &flight[V]{
		generation: generation,
		done:       make(chan struct{}),
	}
}

func (f *flight[V]) wait(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
