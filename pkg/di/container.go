package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/cache"
	"github.com/goliatone/go-blog/internal/config"
	"github.com/goliatone/go-blog/internal/database"
	"github.com/goliatone/go-blog/internal/health"
	"github.com/goliatone/go-blog/internal/httpapi"
	applog "github.com/goliatone/go-blog/internal/log"
	"github.com/goliatone/go-blog/internal/observe"
	"github.com/goliatone/go-blog/repositorycache"
	"github.com/goliatone/go-blog/service"
	"github.com/goliatone/go-blog/store"
)

// ServiceName identifies the process in metrics.
const ServiceName = "go-blog"

// DefaultHealthTimeout bounds a single readiness check.
const DefaultHealthTimeout = 2 * time.Second

// Container provides dependency injection for the blog server.
// It owns singleton instances of the database, cache service, key serializer
// and article service, and exposes the HTTP handler built on top of them.
type Container struct {
	config        config.Config
	logger        log.Interface
	observer      *observe.Observer
	db            *bun.DB
	store         *store.BunStore
	cacheService  *cache.Service
	keySerializer cache.KeySerializer
	cachedStore   *repositorycache.CachedStore
	articles      *service.ArticleService
	health        *health.Aggregator
	handler       http.Handler
}

// Option customizes a Container.
type Option func(*Container)

// WithLogger replaces the logger built from the log configuration.
func WithLogger(logger log.Interface) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDB reuses an open database instead of connecting with the database
// configuration. The container still closes it.
func WithDB(db *bun.DB) Option {
	return func(c *Container) {
		c.db = db
	}
}

// NewContainer wires every component described by cfg. On failure the parts
// built so far are released.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (_ *Container, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = applog.Init(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	}

	defer func() {
		if err != nil {
			_ = c.Close(context.Background())
		}
	}()

	c.observer, err = observe.New(ctx, ServiceName, cfg.Metrics.Exporter)
	if err != nil {
		return nil, err
	}
	cacheMetrics, err := observe.NewCacheMetrics(c.observer.Meter())
	if err != nil {
		return nil, err
	}
	httpMetrics, err := observe.NewHTTPMetrics(c.observer.Meter())
	if err != nil {
		return nil, err
	}

	if c.db == nil {
		c.db, err = database.Open(ctx, cfg.Database, c.logger.WithField("component", "database"))
		if err != nil {
			return nil, err
		}
	}
	c.store = store.New(c.db, store.WithLogger(c.logger.WithField("component", "store")))

	backend, err := cache.NewStore(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("di: cache backend: %w", err)
	}
	c.cacheService = cache.NewService(backend,
		cache.WithPrefix(cfg.Cache.Prefix),
		cache.WithLogger(c.logger.WithField("component", "cache")),
		cache.WithRecorder(cacheMetrics),
	)
	c.keySerializer = cache.NewDefaultKeySerializer()
	c.cachedStore = NewCachedStore(c, c.store)

	c.articles = service.New(c.cachedStore, service.WithLogger(c.logger.WithField("component", "service")))

	c.health = health.NewAggregator(DefaultHealthTimeout)
	c.health.Register(health.PingChecker("database", c.store, health.StatusUnhealthy))
	c.health.Register(health.PingChecker("cache", backend, health.StatusDegraded))

	c.handler = httpapi.NewRouter(httpapi.Options{
		Articles:       c.articles,
		Logger:         c.logger,
		Health:         c.health,
		Metrics:        httpMetrics.Middleware,
		MetricsHandler: c.observer.Handler(),
		CacheStats:     c.cacheService.Stats,
		CachePolicy: httpapi.CachePolicy{
			MaxAge:         cfg.HTTP.CacheMaxAge,
			MustRevalidate: cfg.HTTP.MustRevalidate,
		},
		JWTSecret: cfg.Auth.JWTSecret,
		BodyLimit: cfg.HTTP.BodyLimit,
	})

	c.logger.WithFields(log.Fields{
		"db_driver":     cfg.Database.Driver,
		"cache_backend": cfg.Cache.Backend,
		"metrics":       cfg.Metrics.Exporter,
	}).Debug("container ready")

	return c, nil
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() config.Config {
	return c.config
}

// Logger returns the root logger.
func (c *Container) Logger() log.Interface {
	return c.logger
}

// DB returns the database handle.
func (c *Container) DB() *bun.DB {
	return c.db
}

// Store returns the uncached article store.
func (c *Container) Store() *store.BunStore {
	return c.store
}

// CacheService returns the singleton cache service instance.
// This allows access to the underlying cache for maintenance commands.
func (c *Container) CacheService() *cache.Service {
	return c.cacheService
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// CachedStore returns the cached article store the service reads through.
func (c *Container) CachedStore() *repositorycache.CachedStore {
	return c.cachedStore
}

// Articles returns the article service.
func (c *Container) Articles() *service.ArticleService {
	return c.articles
}

// Health returns the readiness aggregator.
func (c *Container) Health() *health.Aggregator {
	return c.health
}

// Handler returns the HTTP handler serving the API.
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Close releases the cache backend, the database and the meter provider.
// It is safe to call on a partially built container.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.cacheService != nil {
		errs = append(errs, c.cacheService.Close())
	}
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	if c.observer != nil {
		errs = append(errs, c.observer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// NewCachedStore wraps base with the container's cache service, key
// serializer and configured ttls.
func NewCachedStore(container *Container, base store.ArticleStore) *repositorycache.CachedStore {
	return repositorycache.New(
		base,
		container.cacheService,
		container.keySerializer,
		repositorycache.TTLsFromConfig(container.config.Cache),
		container.logger.WithField("component", "repositorycache"),
	)
}
