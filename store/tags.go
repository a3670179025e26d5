package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/article"
)

// FindAllTags returns every tag ordered by name.
func (s *BunStore) FindAllTags(ctx context.Context) ([]article.Tag, error) {
	var rows []tagModel
	if err := s.db.NewSelect().Model(&rows).OrderExpr("t.name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("store: list tags: %w", err)
	}

	tags := make([]article.Tag, len(rows))
	for i, row := range rows {
		tags[i] = row.tag()
	}
	return tags, nil
}

// syncTags replaces the tag links of an article with names, creating tags
// that do not exist yet. Names are matched on their slug.
func syncTags(ctx context.Context, tx bun.Tx, articleID int64, names []string) error {
	if _, err := tx.NewDelete().
		Model((*articleTagModel)(nil)).
		Where("article_id = ?", articleID).
		Exec(ctx); err != nil {
		return fmt.Errorf("clear tag links: %w", err)
	}

	seen := make(map[int64]struct{}, len(names))
	links := make([]articleTagModel, 0, len(names))
	for _, name := range names {
		id, err := ensureTag(ctx, tx, name)
		if err != nil {
			return err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		links = append(links, articleTagModel{ArticleID: articleID, TagID: id})
	}

	if len(links) == 0 {
		return nil
	}
	if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
		return fmt.Errorf("link tags: %w", err)
	}
	return nil
}

func ensureTag(ctx context.Context, tx bun.Tx, name string) (int64, error) {
	slug := article.TagSlug(name)

	var existing tagModel
	err := tx.NewSelect().Model(&existing).Where("t.slug = ?", slug).Limit(1).Scan(ctx)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup tag %q: %w", slug, err)
	}

	created := &tagModel{Name: name, Slug: slug}
	if _, err := tx.NewInsert().Model(created).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert tag %q: %w", slug, err)
	}
	return created.ID, nil
}
