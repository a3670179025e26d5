// Package cache provides the read-through cache used in front of the article
// store, together with key derivation.
//
// # Overview
//
// The package exports three pieces:
//
//   - Store: the byte level backend contract (Redis, in-process sturdyc, no-op)
//   - Service: prefixes keys, encodes values with msgpack and coalesces misses
//   - KeySerializer: builds stable cache keys from a namespace and arguments
//
// # Basic Usage
//
//	store, err := cache.NewStore(cache.DefaultConfig())
//	svc := cache.NewService(store, cache.WithLogger(logger))
//
//	key := cache.NewDefaultKeySerializer().SerializeKey("articles:list", filters)
//	page, err := cache.GetOrFetch(ctx, svc, key, 5*time.Minute, func(ctx context.Context) (article.PaginatedArticles, error) {
//		return store.FindArticles(ctx, filters)
//	})
//
// # Key Serialization Strategy
//
// Struct arguments are walked field by field. The `cache` struct tag names
// the segment and takes the options omitempty and hash:
//
//	type ListFilters struct {
//		Page   int    `cache:"page"`
//		Tag    string `cache:"tag,omitempty"`
//		Search string `cache:"search,omitempty,hash"`
//	}
//
// produces "articles:list:page:1:tag:go:search:<xxhash>". Values are escaped
// so a separator or a glob character inside a value cannot break prefix
// invalidation. Keys are stable across processes, which matters once the
// backend is shared (Redis).
//
// # Error Handling
//
// Backend failures on the read path are logged and treated as misses: the
// caller always gets an answer from the source of truth. Invalidate and Delete
// return their errors so writers can log them with request context.
//
// # See Also
//
// The repositorycache package decorates the article store with this service.
package cache
