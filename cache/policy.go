package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Policy configures expiry and capacity.
type Policy struct {
	// TTL bounds how long a resolved entry is served before the next Fetch
	// recomputes it. If zero, resolved entries never expire.
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries bounds the table with an LRU eviction policy when no
	// EvictionPolicy is injected. If zero, the table is unbounded.
	MaxEntries int `yaml:"max_entries"`
}

// DefaultPolicy returns the default policy.
// TTL: 30 seconds, MaxEntries: 1024
func DefaultPolicy() Policy {
	return Policy{
		TTL:        30 * time.Second,
		MaxEntries: 1024,
	}
}

// EvictReason says why an entry left the table.
type EvictReason int

const (
	// EvictManual is an explicit Evict or Purge.
	EvictManual EvictReason = iota
	// EvictExpired is a resolved entry older than Policy.TTL.
	EvictExpired
	// EvictCapacity is a victim chosen by the EvictionPolicy.
	EvictCapacity
)

// String returns the string representation of the reason.
func (r EvictReason) String() string {
	switch r {
	case EvictManual:
		return "manual"
	case EvictExpired:
		return "expired"
	case EvictCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// EvictionPolicy decides which keys to drop when the table grows.
//
// Contract:
//   - Concurrency: methods are called with the cache lock held and must not
//     call back into the cache.
//   - Admit records a newly created key and returns the keys to evict.
//   - Touch records an access. Forget drops a key the cache removed itself.
type EvictionPolicy interface {
	Admit(key Key) []Key
	Touch(key Key)
	Forget(key Key)
}

// LRUPolicy evicts the least recently used key once Size keys are tracked.
type LRUPolicy struct {
	lru     *simplelru.LRU[Key, struct{}]
	victims []Key
}

// NewLRUPolicy creates an LRU policy bounded to size keys.
// A size below one is treated as one.
func NewLRUPolicy(size int) *LRUPolicy {
	if size < 1 {
		size = 1
	}
	p := &LRUPolicy{}
	// simplelru only fails for size <= 0.
	p.lru, _ = simplelru.NewLRU[Key, struct{}](size, func(key Key, _ struct{}) {
		p.victims = append(p.victims, key)
	})
	return p
}

// Admit adds key and returns the keys pushed out by it.
func (p *LRUPolicy) Admit(key Key) []Key {
	p.victims = p.victims[:0]
	p.lru.Add(key, struct{}{})
	if len(p.victims) == 0 {
		return nil
	}
	out := make([]Key, len(p.victims))
	copy(out, p.victims)
	return out
}

// Touch marks key as recently used.
func (p *LRUPolicy) Touch(key Key) {
	p.lru.Get(key)
}

// Forget stops tracking key.
func (p *LRUPolicy) Forget(key Key) {
	// Remove fires the eviction callback; the key is not a capacity victim.
	p.lru.Remove(key)
	p.victims = p.victims[:0]
}

// Len returns the number of tracked keys.
func (p *LRUPolicy) Len() int {
	return p.lru.Len()
}

type unboundedPolicy struct{}

func (unboundedPolicy) Admit(Key) []Key { return nil }
func (unboundedPolicy) Touch(Key)       {}
func (unboundedPolicy) Forget(Key)      {}

var (
	_ EvictionPolicy = (*LRUPolicy)(nil)
	_ EvictionPolicy = unboundedPolicy{}
)
