// Package cache provides a keyed, single-flight, versioned computation cache.
//
// BuildKey derives a canonical, comparable Key from a namespace, a set of
// input fields and a schema version. Cache.Fetch runs a computation at most
// once concurrently per key and serves later requests from the stored result.
// Cache.Watch follows a changing key and can keep showing the previous value
// when the new key resolves to a "not applicable" sentinel.
//
// Expiry is controlled by Policy and capacity by an injected EvictionPolicy
// (LRUPolicy is provided). Evicting an entry never cancels its computation;
// a result that arrives for a superseded generation is discarded.
package cache
