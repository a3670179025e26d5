package store

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/article"
)

var sortColumns = map[article.SortField]string{
	article.SortPublishedAt: "a.published_at",
	article.SortCreatedAt:   "a.created_at",
}

var sortDirections = map[article.SortOrder]string{
	article.OrderAsc:  "ASC",
	article.OrderDesc: "DESC",
}

// selectArticles starts an article select carrying the author display name.
func (s *BunStore) selectArticles(dest any) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(dest).
		ColumnExpr("a.*").
		ColumnExpr("u.display_name AS author_name").
		Join("JOIN users AS u ON u.id = a.user_id")
}

// applyListFilters adds the WHERE clause shared by the page and count queries.
func applyListFilters(db bun.IDB, q *bun.SelectQuery, f article.ListFilters) *bun.SelectQuery {
	q = q.Where("a.is_deleted = ?", false)

	if f.Status != "" {
		q = q.Where("a.status = ?", string(f.Status))
	}

	if f.Tag != "" {
		tagged := db.NewSelect().
			TableExpr("article_tags AS at").
			ColumnExpr("1").
			Join("JOIN tags AS t ON t.id = at.tag_id").
			Where("at.article_id = a.id").
			WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("t.slug = ?", f.Tag).WhereOr("t.name = ?", f.Tag)
			})
		q = q.Where("EXISTS (?)", tagged)
	}

	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("a.title LIKE ?", like).WhereOr("a.content LIKE ?", like)
		})
	}

	return q
}

// FindArticles returns one page of live articles matching filters, with the
// tags of each article attached and the total count of matches.
func (s *BunStore) FindArticles(ctx context.Context, filters article.ListFilters) (article.PaginatedArticles, error) {
	column, ok := sortColumns[filters.Sort]
	if !ok {
		column = sortColumns[article.SortPublishedAt]
	}
	direction, ok := sortDirections[filters.Order]
	if !ok {
		direction = sortDirections[article.OrderDesc]
	}

	var rows []articleModel
	q := applyListFilters(s.db, s.selectArticles(&rows), filters).
		OrderExpr(fmt.Sprintf("%s %s", column, direction)).
		OrderExpr(fmt.Sprintf("a.id %s", direction)).
		Limit(filters.PageSize).
		Offset(filters.Offset())
	if err := q.Scan(ctx); err != nil {
		return article.PaginatedArticles{}, fmt.Errorf("store: list articles: %w", err)
	}

	total, err := applyListFilters(s.db, s.db.NewSelect().Model((*articleModel)(nil)), filters).Count(ctx)
	if err != nil {
		return article.PaginatedArticles{}, fmt.Errorf("store: count articles: %w", err)
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	tags, err := s.tagsFor(ctx, ids)
	if err != nil {
		return article.PaginatedArticles{}, err
	}

	items := make([]article.Summary, len(rows))
	for i, row := range rows {
		items[i] = row.summary(tags[row.ID])
	}

	return article.PaginatedArticles{
		Items: items,
		Meta:  article.NewPaginationMeta(filters.Page, filters.PageSize, total),
	}, nil
}

// tagsFor loads the tags of the given articles in one query, grouped by
// article id and sorted by name.
func (s *BunStore) tagsFor(ctx context.Context, ids []int64) (map[int64][]article.Tag, error) {
	out := make(map[int64][]article.Tag, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []articleTagRow
	err := s.db.NewSelect().
		TableExpr("article_tags AS at").
		ColumnExpr("at.article_id, t.id, t.name, t.slug").
		Join("JOIN tags AS t ON t.id = at.tag_id").
		Where("at.article_id IN (?)", bun.In(ids)).
		OrderExpr("t.name ASC").
		OrderExpr("t.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("store: load tags: %w", err)
	}

	for _, row := range rows {
		out[row.ArticleID] = append(out[row.ArticleID], article.Tag{
			ID:   row.ID,
			Name: row.Name,
			Slug: row.Slug,
		})
	}
	return out, nil
}
