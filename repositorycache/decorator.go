package repositorycache

import (
	"context"
	"time"

	"github.com/apex/log"

	"github.com/goliatone/go-blog/article"
	"github.com/goliatone/go-blog/cache"
	"github.com/goliatone/go-blog/store"
)

// Interface assertion to ensure CachedStore implements store.ArticleStore
var _ store.ArticleStore = (*CachedStore)(nil)

const (
	// ArticlesPrefix covers every article derived key; writes invalidate it.
	ArticlesPrefix = "articles:"
	// ListNamespace prefixes list page keys.
	ListNamespace = ArticlesPrefix + "list"
	// TagsKey holds the tag listing.
	TagsKey = ArticlesPrefix + "tags"
)

// TTLs configures how long each cached read stays fresh.
type TTLs struct {
	List   time.Duration
	Search time.Duration
	Tags   time.Duration
}

// TTLsFromConfig picks the ttls out of a cache configuration.
func TTLsFromConfig(cfg cache.Config) TTLs {
	return TTLs{List: cfg.ListTTL, Search: cfg.SearchTTL, Tags: cfg.TagsTTL}
}

// CachedStore decorates an article store with read-through caching for list
// pages and tags. Everything else passes through; successful writes
// invalidate every article key.
type CachedStore struct {
	base          store.ArticleStore
	cache         *cache.Service
	keySerializer cache.KeySerializer
	ttls          TTLs
	logger        log.Interface
}

// New creates a CachedStore that wraps base.
func New(base store.ArticleStore, cacheService *cache.Service, keySerializer cache.KeySerializer, ttls TTLs, logger log.Interface) *CachedStore {
	if keySerializer == nil {
		keySerializer = cache.NewDefaultKeySerializer()
	}
	if logger == nil {
		logger = log.Log
	}
	return &CachedStore{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
		ttls:          ttls,
		logger:        logger,
	}
}

// ListKey returns the cache key of a list page.
func (c *CachedStore) ListKey(filters article.ListFilters) string {
	return c.keySerializer.SerializeKey(ListNamespace, filters)
}

func (c *CachedStore) listTTL(filters article.ListFilters) time.Duration {
	if filters.Search != "" {
		return c.ttls.Search
	}
	return c.ttls.List
}

// FindArticles retrieves a page of articles, with caching
func (c *CachedStore) FindArticles(ctx context.Context, filters article.ListFilters) (article.PaginatedArticles, error) {
	key := c.ListKey(filters)
	return readThrough(ctx, c, key, c.listTTL(filters), func(ctx context.Context) (article.PaginatedArticles, error) {
		return c.base.FindArticles(ctx, filters)
	})
}

// FindAllTags retrieves every tag, with caching
func (c *CachedStore) FindAllTags(ctx context.Context) ([]article.Tag, error) {
	return readThrough(ctx, c, TagsKey, c.ttls.Tags, c.base.FindAllTags)
}

// readThrough serves key from the cache, unless the context asks for a
// refresh, in which case the source is read and the entry rewritten.
func readThrough[T any](ctx context.Context, c *CachedStore, key string, ttl time.Duration, fetch cache.FetchFn[T]) (T, error) {
	if !refreshRequested(ctx) {
		return cache.GetOrFetch(ctx, c.cache, key, ttl, fetch)
	}
	return cache.Refresh(ctx, c.cache, key, ttl, fetch)
}

// FindArticleByID passes through; detail reads record views and must be fresh.
func (c *CachedStore) FindArticleByID(ctx context.Context, id int64) (article.Detail, error) {
	return c.base.FindArticleByID(ctx, id)
}

// FindArticleBySlug passes through to the base store.
func (c *CachedStore) FindArticleBySlug(ctx context.Context, slug string) (article.Detail, error) {
	return c.base.FindArticleBySlug(ctx, slug)
}

// IsSlugTaken passes through; slug checks guard writes.
func (c *CachedStore) IsSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	return c.base.IsSlugTaken(ctx, slug, excludeID)
}

// RecordView passes through. View counts are not part of cached summaries.
func (c *CachedStore) RecordView(ctx context.Context, id int64) error {
	return c.base.RecordView(ctx, id)
}

// UserExists passes through to the base store.
func (c *CachedStore) UserExists(ctx context.Context, id int64) (bool, error) {
	return c.base.UserExists(ctx, id)
}

// FindOrCreateUser passes through; a new user has no articles yet.
func (c *CachedStore) FindOrCreateUser(ctx context.Context, name, email string) (int64, error) {
	return c.base.FindOrCreateUser(ctx, name, email)
}

// CreateArticle creates an article. Write operations pass through to the base store
func (c *CachedStore) CreateArticle(ctx context.Context, record article.Record) (int64, error) {
	id, err := c.base.CreateArticle(ctx, record)
	if err == nil {
		c.invalidate(ctx, "create")
	}
	return id, err
}

// UpdateArticle updates an article
func (c *CachedStore) UpdateArticle(ctx context.Context, id int64, record article.Record) error {
	err := c.base.UpdateArticle(ctx, id, record)
	if err == nil {
		c.invalidate(ctx, "update")
	}
	return err
}

// DeleteArticles deletes articles; caches are only invalidated when rows changed
func (c *CachedStore) DeleteArticles(ctx context.Context, ids []int64, hard bool) (int64, error) {
	affected, err := c.base.DeleteArticles(ctx, ids, hard)
	if err == nil && affected > 0 {
		c.invalidate(ctx, "delete")
	}
	return affected, err
}

// Invalidate drops every cached article key.
func (c *CachedStore) Invalidate(ctx context.Context) error {
	return c.cache.Invalidate(ctx, ArticlesPrefix)
}

func (c *CachedStore) invalidate(ctx context.Context, op string) {
	if err := c.Invalidate(ctx); err != nil {
		c.logger.WithFields(log.Fields{
			"op":     op,
			"prefix": ArticlesPrefix,
		}).WithError(err).Warn("cache invalidation failed")
	}
}
