// Package cache implements the in-memory memoization layer used by
// every stage of the context engine: per-category TTL and size caps,
// least-recently-used eviction, dependency-aware cascade invalidation
// and a background sweep for expired entries.
//
// The store is guarded by a single mutex; entries never leave the cache
// as mutable references, callers only receive the stored value. Cascade
// invalidation walks an explicit reverse-dependency index with a
// visited set, so cyclic dependency declarations terminate.
package cache
