package cache

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"
)

// DefaultPrefix namespaces every key the service writes.
const DefaultPrefix = "blog:"

// ErrNilFetch is returned when GetOrFetch is called without a fetch function.
var ErrNilFetch = errors.New("cache: fetch function cannot be nil")

// KeySerializer builds a cache key from a namespace and arbitrary args.
// It is responsible for producing stable keys across calls and processes.
type KeySerializer interface {
	SerializeKey(namespace string, args ...any) string
}

// Store is the byte level contract a cache backend implements. A miss is
// reported as (nil, false, nil); errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
	Close() error
}

// Recorder receives cache outcomes, typically to feed metrics.
type Recorder interface {
	RecordHit(ctx context.Context, namespace string)
	RecordMiss(ctx context.Context, namespace string)
	RecordError(ctx context.Context, op string)
}

type nopRecorder struct{}

func (nopRecorder) RecordHit(context.Context, string)   {}
func (nopRecorder) RecordMiss(context.Context, string)  {}
func (nopRecorder) RecordError(context.Context, string) {}

// FetchFn loads a value from the source of truth on a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Stats is a snapshot of the outcomes seen for one namespace.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// Service is the read-through cache used by the repository decorator. It
// prefixes keys, encodes values with msgpack, coalesces concurrent misses and
// never lets a backend failure reach the caller on the read path.
type Service struct {
	store    Store
	prefix   string
	logger   log.Interface
	recorder Recorder
	group    singleflight.Group
	stats    *xsync.MapOf[string, *counters]

	// generation moves on every Delete and Invalidate; a fetch that started
	// under an older generation does not write its result.
	generation atomic.Uint64
	inflight   *xsync.MapOf[string, struct{}]
}

// Option customizes a Service.
type Option func(*Service)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Service) {
		s.prefix = prefix
	}
}

// WithLogger sets the logger used for degraded operations.
func WithLogger(logger log.Interface) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the hit/miss recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewService wraps store with the read-through behaviour.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		prefix:   DefaultPrefix,
		logger:   log.Log,
		recorder: nopRecorder{},
		stats:    xsync.NewMapOf[string, *counters](),
		inflight: xsync.NewMapOf[string, struct{}](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the backend key for a logical key.
func (s *Service) Key(key string) string {
	return s.prefix + key
}

// Prefix returns the namespace prefix applied to every key.
func (s *Service) Prefix() string {
	return s.prefix
}

// Store exposes the backend, mainly for health checks.
func (s *Service) Store() Store {
	return s.store
}

// Get decodes the cached value for key into dst. Backend and decode failures
// are logged and reported as a miss.
func (s *Service) Get(ctx context.Context, key string, dst any) bool {
	raw, ok, err := s.store.Get(ctx, s.Key(key))
	if err != nil {
		s.degraded(ctx, "get", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := Unmarshal(raw, dst); err != nil {
		s.degraded(ctx, "decode", key, err)
		return false
	}
	return true
}

// Generation returns the current invalidation generation. Pass it to
// SetIfCurrent to drop writes that raced with an invalidation.
func (s *Service) Generation() uint64 {
	return s.generation.Load()
}

// SetIfCurrent stores value only if no Delete or Invalidate happened since gen
// was read.
func (s *Service) SetIfCurrent(ctx context.Context, key string, value any, ttl time.Duration, gen uint64) bool {
	if s.generation.Load() != gen {
		s.logger.WithField("key", key).Debug("cache write skipped after invalidation")
		return false
	}
	s.Set(ctx, key, value, ttl)
	return true
}

// Set encodes value and stores it under key. Failures are logged only.
func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := Marshal(value)
	if err != nil {
		s.degraded(ctx, "encode", key, err)
		return
	}
	if err := s.store.Set(ctx, s.Key(key), data, ttl); err != nil {
		s.degraded(ctx, "set", key, err)
	}
}

// Delete removes the given logical keys.
func (s *Service) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	s.generation.Add(1)
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.Key(k)
		s.group.Forget(full[i])
	}
	if err := s.store.Delete(ctx, full...); err != nil {
		s.recorder.RecordError(ctx, "delete")
		return err
	}
	return nil
}

// Invalidate removes every key starting with the logical prefix.
func (s *Service) Invalidate(ctx context.Context, prefix string) error {
	full := s.Key(prefix)
	s.generation.Add(1)
	s.inflight.Range(func(key string, _ struct{}) bool {
		if strings.HasPrefix(key, full) {
			s.group.Forget(key)
		}
		return true
	})
	if err := s.store.DeleteByPrefix(ctx, full); err != nil {
		s.recorder.RecordError(ctx, "invalidate")
		return err
	}
	return nil
}

// Stats returns hit and miss counts per namespace.
func (s *Service) Stats() map[string]Stats {
	out := make(map[string]Stats)
	s.stats.Range(func(ns string, c *counters) bool {
		out[ns] = Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
		return true
	})
	return out
}

// Close releases the backend.
func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) hit(ctx context.Context, key string) {
	ns := Namespace(key)
	s.counter(ns).hits.Add(1)
	s.recorder.RecordHit(ctx, ns)
}

func (s *Service) miss(ctx context.Context, key string) {
	ns := Namespace(key)
	s.counter(ns).misses.Add(1)
	s.recorder.RecordMiss(ctx, ns)
}

func (s *Service) counter(ns string) *counters {
	c, _ := s.stats.LoadOrCompute(ns, func() *counters { return &counters{} })
	return c
}

func (s *Service) degraded(ctx context.Context, op, key string, err error) {
	s.recorder.RecordError(ctx, op)
	s.logger.WithFields(log.Fields{
		"op":  op,
		"key": key,
	}).WithError(err).Warn("cache degraded")
}

// GetOrFetch returns the cached value for key, or calls fetchFn, caches its
// result for ttl and returns it. Concurrent misses on the same key share one
// fetchFn call, which runs detached from the caller's cancellation. Errors
// from fetchFn are returned and never cached; results fetched across an
// invalidation are returned but not cached.
func GetOrFetch[T any](ctx context.Context, s *Service, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, error) {
	var zero T
	if fetchFn == nil {
		return zero, ErrNilFetch
	}

	var cached T
	if s.Get(ctx, key, &cached) {
		s.hit(ctx, key)
		return cached, nil
	}
	s.miss(ctx, key)

	full := s.Key(key)
	result, err, _ := s.group.Do(full, func() (any, error) {
		s.inflight.Store(full, struct{}{})
		defer s.inflight.Delete(full)

		fetchCtx := context.WithoutCancel(ctx)
		gen := s.Generation()
		value, err := fetchFn(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.SetIfCurrent(fetchCtx, key, value, ttl, gen)
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	return result.(T), nil
}

// Refresh calls fetchFn and rewrites key with the result, skipping the write
// when an invalidation happened meanwhile.
func Refresh[T any](ctx context.Context, s *Service, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, error) {
	var zero T
	if fetchFn == nil {
		return zero, ErrNilFetch
	}
	gen := s.Generation()
	value, err := fetchFn(ctx)
	if err != nil {
		return value, err
	}
	s.SetIfCurrent(ctx, key, value, ttl, gen)
	return value, nil
}

// Namespace returns the first two segments of a logical key, used to group
// statistics ("articles:list:page:1..." -> "articles:list").
func Namespace(key string) string {
	first := strings.IndexByte(key, ':')
	if first < 0 {
		return key
	}
	second := strings.IndexByte(key[first+1:], ':')
	if second < 0 {
		return key
	}
	return key[:first+1+second]
}
