package observe

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/goliatone/go-blog/cache"
)

var _ cache.Recorder = (*CacheMetrics)(nil)

// CacheMetrics counts cache hits and misses per key namespace, and backend
// errors per operation.
type CacheMetrics struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
	errors metric.Int64Counter
}

// NewCacheMetrics creates the cache instruments on meter.
func NewCacheMetrics(meter metric.Meter) (*CacheMetrics, error) {
	hits, err := meter.Int64Counter(
		"blog.cache.hits",
		metric.WithDescription("Cache lookups served from the cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"blog.cache.misses",
		metric.WithDescription("Cache lookups that fell through to the store"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter(
		"blog.cache.errors",
		metric.WithDescription("Cache backend or codec failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &CacheMetrics{hits: hits, misses: misses, errors: errs}, nil
}

func (m *CacheMetrics) RecordHit(ctx context.Context, namespace string) {
	m.hits.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.namespace", namespace)))
}

func (m *CacheMetrics) RecordMiss(ctx context.Context, namespace string) {
	m.misses.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.namespace", namespace)))
}

func (m *CacheMetrics) RecordError(ctx context.Context, op string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.op", op)))
}

// HTTPMetrics records request counts and latencies by route pattern.
type HTTPMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewHTTPMetrics creates the HTTP instruments on meter.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requests, err := meter.Int64Counter(
		"blog.http.requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"blog.http.duration_ms",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{requests: requests, duration: duration}, nil
}

// Middleware measures every request passing through it. The route label is
// the chi pattern, so ids and slugs do not explode cardinality.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		opt := metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.String("http.status_code", strconv.Itoa(status)),
		)
		m.requests.Add(r.Context(), 1, opt)
		m.duration.Record(r.Context(), float64(time.Since(start).Microseconds())/1000, opt)
	})
}
