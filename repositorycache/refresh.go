package repositorycache

import (
	"context"
)

type refreshContextKey struct{}

// WithRefresh marks ctx so cached reads skip the cache lookup, read the
// source and rewrite the entry. Used for requests sent with
// "Cache-Control: no-cache".
func WithRefresh(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, refreshContextKey{}, true)
}

func refreshRequested(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	refresh, _ := ctx.Value(refreshContextKey{}).(bool)
	return refresh
}
