package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-blog/article"
	"github.com/goliatone/go-blog/store"
)

// DefaultMaxSlugAttempts bounds the suffix search of ResolveSlug.
const DefaultMaxSlugAttempts = 100

var errMissingAuthor = validation.NewError("validation_author_missing", "author information is missing")

// ArticleService implements the article use cases on top of a store,
// normally the cached decorator so writes invalidate list caches.
type ArticleService struct {
	store           store.ArticleStore
	logger          log.Interface
	now             func() time.Time
	maxSlugAttempts int
}

// Option customizes an ArticleService.
type Option func(*ArticleService)

// WithLogger sets the logger.
func WithLogger(logger log.Interface) Option {
	return func(s *ArticleService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for publication dates.
func WithClock(now func() time.Time) Option {
	return func(s *ArticleService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxSlugAttempts overrides DefaultMaxSlugAttempts.
func WithMaxSlugAttempts(n int) Option {
	return func(s *ArticleService) {
		if n > 0 {
			s.maxSlugAttempts = n
		}
	}
}

// New returns a service backed by st.
func New(st store.ArticleStore, opts ...Option) *ArticleService {
	s := &ArticleService{
		store:           st,
		logger:          log.Log,
		now:             time.Now,
		maxSlugAttempts: DefaultMaxSlugAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListArticles returns one page of articles.
func (s *ArticleService) ListArticles(ctx context.Context, filters article.ListFilters) (article.PaginatedArticles, error) {
	if err := filters.Validate(); err != nil {
		return article.PaginatedArticles{}, article.NewValidationError(err)
	}
	return s.store.FindArticles(ctx, filters)
}

// ListTags returns every tag ordered by name.
func (s *ArticleService) ListTags(ctx context.Context) ([]article.Tag, error) {
	return s.store.FindAllTags(ctx)
}

// GetArticleByID loads a live article. With recordView the view is counted
// and reflected in the returned ViewCount.
func (s *ArticleService) GetArticleByID(ctx context.Context, id int64, recordView bool) (article.Detail, error) {
	detail, err := s.store.FindArticleByID(ctx, id)
	if err != nil {
		return article.Detail{}, err
	}
	return s.withView(ctx, detail, recordView)
}

// GetArticleBySlug loads a live article by slug.
func (s *ArticleService) GetArticleBySlug(ctx context.Context, slug string, recordView bool) (article.Detail, error) {
	detail, err := s.store.FindArticleBySlug(ctx, slug)
	if err != nil {
		return article.Detail{}, err
	}
	return s.withView(ctx, detail, recordView)
}

func (s *ArticleService) withView(ctx context.Context, detail article.Detail, recordView bool) (article.Detail, error) {
	if !recordView {
		return detail, nil
	}
	if err := s.store.RecordView(ctx, detail.ID); err != nil {
		return article.Detail{}, err
	}
	detail.ViewCount++
	return detail, nil
}

// CreateArticle validates the payload, resolves the author and a free slug,
// and persists the article.
func (s *ArticleService) CreateArticle(ctx context.Context, payload article.MutationPayload) (article.CreateResult, error) {
	if err := payload.Validate(); err != nil {
		return article.CreateResult{}, article.NewValidationError(err)
	}

	authorID, err := s.resolveAuthor(ctx, payload)
	if err != nil {
		return article.CreateResult{}, err
	}

	slug, err := s.ResolveSlug(ctx, article.SlugBase(payload), 0)
	if err != nil {
		return article.CreateResult{}, err
	}

	id, err := s.store.CreateArticle(ctx, s.record(payload, slug, authorID))
	if err != nil {
		return article.CreateResult{}, err
	}

	s.logger.WithFields(log.Fields{"id": id, "slug": slug}).Info("article created")
	return article.CreateResult{ID: id, Slug: slug}, nil
}

// UpdateArticle rewrites an existing article. Its own slug does not count as
// taken.
func (s *ArticleService) UpdateArticle(ctx context.Context, id int64, payload article.MutationPayload) (article.UpdateResult, error) {
	if err := payload.Validate(); err != nil {
		return article.UpdateResult{}, article.NewValidationError(err)
	}

	authorID, err := s.resolveAuthor(ctx, payload)
	if err != nil {
		return article.UpdateResult{}, err
	}

	slug, err := s.ResolveSlug(ctx, article.SlugBase(payload), id)
	if err != nil {
		return article.UpdateResult{}, err
	}

	if err := s.store.UpdateArticle(ctx, id, s.record(payload, slug, authorID)); err != nil {
		return article.UpdateResult{}, err
	}

	s.logger.WithFields(log.Fields{"id": id, "slug": slug}).Info("article updated")
	return article.UpdateResult{Slug: slug}, nil
}

// DeleteArticles soft deletes, or hard deletes, the given articles.
func (s *ArticleService) DeleteArticles(ctx context.Context, ids []int64, hard bool) (article.DeleteResult, error) {
	affected, err := s.store.DeleteArticles(ctx, ids, hard)
	if err != nil {
		return article.DeleteResult{}, err
	}
	if affected > 0 {
		s.logger.WithFields(log.Fields{"affected": affected, "hard": hard}).Info("articles deleted")
	}
	return article.DeleteResult{Affected: affected}, nil
}

// ResolveSlug returns desired when no other live article uses it, otherwise
// the first free "desired-N" for N = 1, 2, ... The search gives up with
// article.ErrSlugExhausted after the configured number of attempts.
func (s *ArticleService) ResolveSlug(ctx context.Context, desired string, excludeID int64) (string, error) {
	candidate := desired
	for attempt := 1; attempt <= s.maxSlugAttempts; attempt++ {
		taken, err := s.store.IsSlugTaken(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", desired, attempt)
	}
	return "", fmt.Errorf("%w: %q after %d attempts", article.ErrSlugExhausted, desired, s.maxSlugAttempts)
}

// resolveAuthor accepts an existing author id, or finds/creates the author
// from name and email.
func (s *ArticleService) resolveAuthor(ctx context.Context, payload article.MutationPayload) (int64, error) {
	if payload.AuthorID > 0 {
		ok, err := s.store.UserExists(ctx, payload.AuthorID)
		if err != nil {
			return 0, err
		}
		if ok {
			return payload.AuthorID, nil
		}
	}

	name := strings.TrimSpace(payload.AuthorName)
	email := strings.TrimSpace(payload.AuthorEmail)
	if name != "" && email != "" {
		return s.store.FindOrCreateUser(ctx, name, email)
	}

	return 0, &article.ValidationError{Fields: validation.Errors{"authorId": errMissingAuthor}}
}

func (s *ArticleService) record(p article.MutationPayload, slug string, authorID int64) article.Record {
	var excerpt *string
	if p.Excerpt != nil {
		if trimmed := strings.TrimSpace(*p.Excerpt); trimmed != "" {
			excerpt = &trimmed
		}
	}

	return article.Record{
		Title:          strings.TrimSpace(p.Title),
		Slug:           slug,
		Excerpt:        excerpt,
		Content:        p.Content,
		Status:         p.Status,
		PublishedAt:    article.NormalizePublishedAt(p.Status, p.PublishedAt, s.now()),
		AuthorID:       authorID,
		ReadingMinutes: article.EstimateReadingMinutes(p.Content),
		Tags:           p.NormalizedTags(),
	}
}
