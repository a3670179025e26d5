package di

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"

	"github.com/goliatone/go-blog/article"
	"github.com/goliatone/go-blog/cache"
	"github.com/goliatone/go-blog/internal/config"
	"github.com/goliatone/go-blog/pkg/testsupport"
	"github.com/goliatone/go-blog/store"
)

func quietLogger() log.Interface {
	return &log.Logger{Handler: discard.New(), Level: log.InfoLevel}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.DSN = "file::memory:?_foreign_keys=on"
	cfg.Database.PingTimeout = 0
	cfg.Cache.Backend = cache.BackendMemory
	cfg.Metrics.Exporter = config.ExporterPrometheus
	return cfg
}

func newTestContainer(t *testing.T, cfg config.Config, opts ...Option) *Container {
	t.Helper()

	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	container, err := NewContainer(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	t.Cleanup(func() { _ = container.Close(context.Background()) })
	return container
}

func get(t *testing.T, h http.Handler, target string) (int, string) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	body, _ := io.ReadAll(rec.Body)
	return rec.Code, string(body)
}

func TestNewContainer(t *testing.T) {
	container := newTestContainer(t, testConfig())

	if container.DB() == nil {
		t.Fatal("DB() should not be nil")
	}
	if container.Store() == nil {
		t.Error("Store() should not be nil")
	}
	if container.CacheService() == nil {
		t.Error("CacheService() should not be nil")
	}
	if container.KeySerializer() == nil {
		t.Error("KeySerializer() should not be nil")
	}
	if container.CachedStore() == nil {
		t.Error("CachedStore() should not be nil")
	}
	if container.Articles() == nil {
		t.Error("Articles() should not be nil")
	}
	if container.Health() == nil {
		t.Error("Health() should not be nil")
	}
	if container.Handler() == nil {
		t.Error("Handler() should not be nil")
	}
	if got := container.CacheService().Prefix(); got != cache.DefaultPrefix {
		t.Errorf("expected prefix %q, got %q", cache.DefaultPrefix, got)
	}
	if got := container.Config().Database.Driver; got != config.DriverSQLite {
		t.Errorf("expected driver %q, got %q", config.DriverSQLite, got)
	}
}

func TestNewContainerWithInvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{name: "port", mutate: func(cfg *config.Config) { cfg.HTTP.Port = 0 }},
		{name: "driver", mutate: func(cfg *config.Config) { cfg.Database.Driver = "oracle" }},
		{name: "cache backend", mutate: func(cfg *config.Config) { cfg.Cache.Backend = "memcached" }},
		{name: "exporter", mutate: func(cfg *config.Config) { cfg.Metrics.Exporter = "statsd" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)

			if _, err := NewContainer(context.Background(), cfg, WithLogger(quietLogger())); err == nil {
				t.Error("NewContainer() should fail with invalid config")
			}
		})
	}
}

func TestContainerSingletonBehavior(t *testing.T) {
	container := newTestContainer(t, testConfig())

	// Call getters multiple times to ensure they return the same instances
	if container.CacheService() != container.CacheService() {
		t.Error("CacheService() should return the same instance (singleton behavior)")
	}
	if container.KeySerializer() != container.KeySerializer() {
		t.Error("KeySerializer() should return the same instance (singleton behavior)")
	}
	if container.Articles() != container.Articles() {
		t.Error("Articles() should return the same instance (singleton behavior)")
	}
}

func TestNewCachedStoreSharesKeys(t *testing.T) {
	container := newTestContainer(t, testConfig())

	filters := article.DefaultListFilters()
	cached := NewCachedStore(container, container.Store())

	if got, want := cached.ListKey(filters), container.CachedStore().ListKey(filters); got != want {
		t.Errorf("expected key %q, got %q", want, got)
	}
}

func TestEndToEndServing(t *testing.T) {
	container := newTestContainer(t, testConfig())
	ctx := context.Background()

	if err := store.CreateSchema(ctx, container.DB()); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}

	created, err := container.Articles().CreateArticle(ctx, article.MutationPayload{
		Title:       "Wiring the container",
		Content:     "Every component is built once and shared by the handler.",
		Tags:        []string{"Go"},
		Status:      article.StatusPublished,
		AuthorName:  "Grace Hopper",
		AuthorEmail: "grace@example.com",
	})
	if err != nil {
		t.Fatalf("CreateArticle() failed: %v", err)
	}
	if created.Slug != "wiring-the-container" {
		t.Errorf("expected slug wiring-the-container, got %q", created.Slug)
	}

	h := container.Handler()

	code, body := get(t, h, "/api/articles")
	if code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", code, body)
	}
	if !strings.Contains(body, `"wiring-the-container"`) {
		t.Errorf("list should contain the new article: %s", body)
	}

	code, body = get(t, h, "/api/articles/slug/wiring-the-container")
	if code != http.StatusOK {
		t.Errorf("detail: expected 200, got %d: %s", code, body)
	}

	code, body = get(t, h, "/api/readyz")
	if code != http.StatusOK {
		t.Errorf("readyz: expected 200, got %d: %s", code, body)
	}

	code, body = get(t, h, "/api/cache/stats")
	if code != http.StatusOK || !strings.Contains(body, "articles:list") {
		t.Errorf("cache stats: unexpected answer %d: %s", code, body)
	}

	code, body = get(t, h, "/api/metrics")
	if code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", code)
	}
	if !strings.Contains(body, "blog_cache_misses_total") {
		t.Errorf("metrics should expose cache misses:\n%s", body)
	}
}

func TestContainerWithoutPrometheus(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Exporter = config.ExporterNone
	container := newTestContainer(t, cfg)

	if code, _ := get(t, container.Handler(), "/api/metrics"); code != http.StatusNotFound {
		t.Errorf("expected 404 without the prometheus exporter, got %d", code)
	}
}

func TestWithDB(t *testing.T) {
	seeded := testsupport.NewSeededStore(t)
	container := newTestContainer(t, testConfig(), WithDB(seeded.DB))

	if container.DB() != seeded.DB {
		t.Fatal("WithDB() should reuse the given database")
	}

	page, err := container.Articles().ListArticles(context.Background(), article.DefaultListFilters())
	if err != nil {
		t.Fatalf("ListArticles() failed: %v", err)
	}
	if page.Meta.TotalItems == 0 {
		t.Error("expected seeded articles to be listed")
	}
}

func TestContainerClose(t *testing.T) {
	container, err := NewContainer(context.Background(), testConfig(), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}

	if err := container.Close(context.Background()); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := container.DB().PingContext(context.Background()); err == nil {
		t.Error("database should be closed")
	}
}
