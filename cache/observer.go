package cache

import "time"

// EventKind classifies cache events.
type EventKind int

const (
	// EventHit is a Fetch served from a resolved entry.
	EventHit EventKind = iota
	// EventMiss is a Fetch that started a computation.
	EventMiss
	// EventJoin is a Fetch that joined an in-flight computation.
	EventJoin
	// EventComplete is a computation that finished under the current generation.
	EventComplete
	// EventStale is a computation that finished after its entry was evicted
	// or superseded. Its result was not stored.
	EventStale
	// EventEvict is an entry removed from the table.
	EventEvict
)

// String returns the string representation of the kind.
func (k EventKind) String() string {
	switch k {
	case EventHit:
		return "hit"
	case EventMiss:
		return "miss"
	case EventJoin:
		return "join"
	case EventComplete:
		return "complete"
	case EventStale:
		return "stale"
	case EventEvict:
		return "evict"
	default:
		return "unknown"
	}
}

// Event describes one cache transition.
type Event struct {
	Kind       EventKind
	Key        Key
	Generation uint64

	// Duration and Err are set for EventComplete and EventStale.
	Duration time.Duration
	Err      error

	// Reason is set for EventEvict.
	Reason EvictReason
}

// Observer receives cache events.
//
// Contract:
// - Concurrency: Observe may be called from many goroutines at once.
// - Observe is called without the cache lock held and must return quickly.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }

// Observers fans events out to several observers in order.
type Observers []Observer

// Observe forwards ev to every observer.
func (o Observers) Observe(ev Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ev)
		}
	}
}
