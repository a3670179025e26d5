package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/article"
)

// ArticleStore is the persistence contract of the blog. Implementations treat
// soft deleted articles as absent everywhere except DeleteArticles(hard).
type ArticleStore interface {
	FindArticles(ctx context.Context, filters article.ListFilters) (article.PaginatedArticles, error)
	FindArticleByID(ctx context.Context, id int64) (article.Detail, error)
	FindArticleBySlug(ctx context.Context, slug string) (article.Detail, error)
	IsSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)
	FindAllTags(ctx context.Context) ([]article.Tag, error)
	CreateArticle(ctx context.Context, record article.Record) (int64, error)
	UpdateArticle(ctx context.Context, id int64, record article.Record) error
	DeleteArticles(ctx context.Context, ids []int64, hard bool) (int64, error)
	RecordView(ctx context.Context, id int64) error
	UserExists(ctx context.Context, id int64) (bool, error)
	FindOrCreateUser(ctx context.Context, name, email string) (int64, error)
}

// BunStore implements ArticleStore on top of a bun.DB. It runs on MySQL,
// PostgreSQL and SQLite.
type BunStore struct {
	db     *bun.DB
	logger log.Interface
	now    func() time.Time
}

// Option customizes a BunStore.
type Option func(*BunStore)

// WithLogger sets the logger.
func WithLogger(logger log.Interface) Option {
	return func(s *BunStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *BunStore) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a store using db.
func New(db *bun.DB, opts ...Option) *BunStore {
	s := &BunStore{
		db:     db,
		logger: log.Log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle.
func (s *BunStore) DB() *bun.DB {
	return s.db
}

// Ping checks database connectivity.
func (s *BunStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *BunStore) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// FindArticleByID returns a live article or article.ErrNotFound.
func (s *BunStore) FindArticleByID(ctx context.Context, id int64) (article.Detail, error) {
	return s.findOne(ctx, "a.id = ?", id)
}

// FindArticleBySlug returns a live article or article.ErrNotFound.
func (s *BunStore) FindArticleBySlug(ctx context.Context, slug string) (article.Detail, error) {
	return s.findOne(ctx, "a.slug = ?", slug)
}

func (s *BunStore) findOne(ctx context.Context, where string, arg any) (article.Detail, error) {
	var row articleModel
	err := s.selectArticles(&row).
		Where(where, arg).
		Where("a.is_deleted = ?", false).
		OrderExpr("a.id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return article.Detail{}, article.ErrNotFound
	}
	if err != nil {
		return article.Detail{}, fmt.Errorf("store: find article: %w", err)
	}

	tags, err := s.tagsFor(ctx, []int64{row.ID})
	if err != nil {
		return article.Detail{}, err
	}
	return row.detail(tags[row.ID]), nil
}

// IsSlugTaken reports whether a live article other than excludeID uses slug.
// Pass 0 to exclude nothing.
func (s *BunStore) IsSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	q := s.db.NewSelect().
		Model((*articleModel)(nil)).
		Where("a.slug = ?", slug).
		Where("a.is_deleted = ?", false)
	if excludeID > 0 {
		q = q.Where("a.id <> ?", excludeID)
	}
	taken, err := q.Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("store: check slug: %w", err)
	}
	return taken, nil
}

// CreateArticle inserts the article and its tag links in one transaction.
func (s *BunStore) CreateArticle(ctx context.Context, record article.Record) (int64, error) {
	now := s.timestamp()
	row := &articleModel{
		UserID:         record.AuthorID,
		Title:          record.Title,
		Slug:           record.Slug,
		Excerpt:        record.Excerpt,
		Content:        record.Content,
		Status:         string(record.Status),
		PublishedAt:    utcPtr(record.PublishedAt),
		CreatedAt:      now,
		UpdatedAt:      now,
		ReadingMinutes: record.ReadingMinutes,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert article: %w", err)
		}
		return syncTags(ctx, tx, row.ID, record.Tags)
	})
	if err != nil {
		return 0, fmt.Errorf("store: create article: %w", err)
	}

	s.logger.WithFields(log.Fields{"id": row.ID, "slug": row.Slug}).Debug("article created")
	return row.ID, nil
}

// UpdateArticle rewrites a live article and re-syncs its tags. Missing or
// soft deleted articles yield article.ErrNotFound.
func (s *BunStore) UpdateArticle(ctx context.Context, id int64, record article.Record) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*articleModel)(nil)).
			Where("a.id = ?", id).
			Where("a.is_deleted = ?", false).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("lookup article: %w", err)
		}
		if !exists {
			return article.ErrNotFound
		}

		_, err = tx.NewUpdate().
			Model((*articleModel)(nil)).
			Set("user_id = ?", record.AuthorID).
			Set("title = ?", record.Title).
			Set("slug = ?", record.Slug).
			Set("excerpt = ?", record.Excerpt).
			Set("content = ?", record.Content).
			Set("status = ?", string(record.Status)).
			Set("published_at = ?", utcPtr(record.PublishedAt)).
			Set("reading_minutes = ?", record.ReadingMinutes).
			Set("updated_at = ?", s.timestamp()).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update article: %w", err)
		}
		return syncTags(ctx, tx, id, record.Tags)
	})
	if errors.Is(err, article.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("store: update article %d: %w", id, err)
	}
	return nil
}

// DeleteArticles soft deletes (or removes, when hard) the given articles and
// returns the number of articles affected.
func (s *BunStore) DeleteArticles(ctx context.Context, ids []int64, hard bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	if !hard {
		res, err := s.db.NewUpdate().
			Model((*articleModel)(nil)).
			Set("is_deleted = ?", true).
			Set("updated_at = ?", s.timestamp()).
			Where("id IN (?)", bun.In(ids)).
			Where("is_deleted = ?", false).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("store: soft delete: %w", err)
		}
		return rowsAffected(res)
	}

	var affected int64
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*articleTagModel)(nil)).
			Where("article_id IN (?)", bun.In(ids)).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete tag links: %w", err)
		}
		res, err := tx.NewDelete().
			Model((*articleModel)(nil)).
			Where("id IN (?)", bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete articles: %w", err)
		}
		affected, err = rowsAffected(res)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("store: hard delete: %w", err)
	}
	return affected, nil
}

// RecordView increments the view counter of a live article.
func (s *BunStore) RecordView(ctx context.Context, id int64) error {
	_, err := s.db.NewUpdate().
		Model((*articleModel)(nil)).
		Set("view_count = view_count + 1").
		Where("id = ?", id).
		Where("is_deleted = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: record view: %w", err)
	}
	return nil
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
