package cacheinfra

import (
	"context"
	"time"
)

// NoopStore never stores anything; every Get is a miss.
type NoopStore struct{}

// NewNoopStore returns the store used when caching is disabled.
func NewNoopStore() NoopStore {
	return NoopStore{}
}

func (NoopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NoopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoopStore) Delete(context.Context, ...string) error { return nil }
func (NoopStore) DeleteByPrefix(context.Context, string) error { return nil }
func (NoopStore) Ping(context.Context) error { return nil }
func (NoopStore) Close() error { return nil }
