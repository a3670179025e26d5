// Package repositorycache provides the cached decorator for the article store.
//
// # Overview
//
// CachedStore wraps a store.ArticleStore and intercepts the two reads that
// are safe to share between visitors: article list pages and the tag
// listing. Every other method is delegated unchanged.
//
// # Basic Usage
//
//	base := store.New(db)
//	svc := cache.NewService(backend)
//	cached := repositorycache.New(base, svc, cache.NewDefaultKeySerializer(), repositorycache.TTLsFromConfig(cfg), logger)
//
//	page, err := cached.FindArticles(ctx, filters)
//
// # Cached vs Pass-through Operations
//
// ## Cached Operations
//
//   - FindArticles, keyed by every filter field (status included)
//   - FindAllTags
//
// ## Pass-through Operations
//
//   - Detail reads, because they may record a view and must reflect it
//   - Slug checks, which guard writes
//   - RecordView, UserExists, FindOrCreateUser
//   - All write operations
//
// # Caching Behavior
//
// The cached store follows a read-through caching pattern:
//
//  1. Derive the key from the list filters
//  2. If cache hit, return cached result
//  3. If cache miss, call the base store (concurrent misses share one call)
//  4. Store result with the list, search or tags TTL
//  5. Return result to caller
//
// A context built with WithRefresh skips step 2 and rewrites the entry.
//
// # Cache Invalidation Strategy
//
// Every successful create and update, and every delete that affected at
// least one row, removes all keys under "articles:". Invalidation failures
// are logged; the write itself has already succeeded and is reported as such.
//
// # Error Handling
//
// Errors from the base store are propagated unchanged. Cache errors
// (serialization failures, backend outages) degrade to direct store reads.
//
// # See Also
//
// For key derivation and backends, see the cache package.
// For wiring, see the pkg/di package.
package repositorycache
