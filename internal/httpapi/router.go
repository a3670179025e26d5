package httpapi

import (
	"net/http"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-blog/cache"
	"github.com/goliatone/go-blog/internal/health"
)

// DefaultBodyLimit caps JSON request bodies.
const DefaultBodyLimit = 1 << 20

// Options are the dependencies of the router. Health, Metrics,
// MetricsHandler and CacheStats are optional.
type Options struct {
	Articles       ArticleService
	Logger         log.Interface
	Health         *health.Aggregator
	Metrics        func(http.Handler) http.Handler
	MetricsHandler http.Handler
	CacheStats     func() map[string]cache.Stats
	CachePolicy    CachePolicy
	JWTSecret      string
	BodyLimit      int64
}

// NewRouter mounts the API under /api.
func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = log.Log
	}
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = DefaultBodyLimit
	}

	h := &articleHandlers{svc: opts.Articles, logger: opts.Logger, bodyLimit: opts.BodyLimit}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(opts.Logger))
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics)
	}
	r.Use(middleware.Compress(5, "application/json"))
	// HEAD on any GET route runs the GET handler; HTTPCache still sets the ETag.
	r.Use(middleware.GetHead)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Message: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Message: "Method not allowed"})
	})

	guard := func(next http.Handler) http.Handler { return next }
	if opts.JWTSecret != "" {
		guard = JWTGuard([]byte(opts.JWTSecret), opts.Logger)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.StatusHandler())
		r.Get("/healthz", health.LivenessHandler())
		if opts.Health != nil {
			r.Get("/readyz", health.ReadinessHandler(opts.Health))
		}
		if opts.MetricsHandler != nil {
			r.Handle("/metrics", opts.MetricsHandler)
		}
		if opts.CacheStats != nil {
			r.Get("/cache/stats", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, opts.CacheStats())
			})
		}

		r.With(Refresh).Get("/state", h.state)

		r.Route("/articles", func(r chi.Router) {
			r.Use(Refresh)

			r.Group(func(r chi.Router) {
				r.Use(HTTPCache(opts.CachePolicy))
				r.Get("/", h.list)
				r.Get("/tags", h.tags)
				r.Get("/slug/{slug}", h.detailBySlug)
				r.Get("/{id}", h.detail)
			})

			r.Group(func(r chi.Router) {
				r.Use(guard)
				r.Post("/", h.create)
				r.Put("/{id}", h.update)
				r.Delete("/{id}", h.remove)
				r.Delete("/", h.remove)
			})
		})
	})

	return r
}
