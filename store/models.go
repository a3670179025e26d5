package store

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/article"
)

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          int64     `bun:"id,pk,autoincrement"`
	DisplayName string    `bun:"display_name,notnull"`
	Email       string    `bun:"email,notnull,unique"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

type articleModel struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID             int64      `bun:"id,pk,autoincrement"`
	UserID         int64      `bun:"user_id,notnull"`
	Title          string     `bun:"title,notnull"`
	Slug           string     `bun:"slug,notnull"`
	Excerpt        *string    `bun:"excerpt"`
	Content        string     `bun:"content,notnull"`
	Status         string     `bun:"status,notnull"`
	PublishedAt    *time.Time `bun:"published_at"`
	CreatedAt      time.Time  `bun:"created_at,notnull"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull"`
	ViewCount      int64      `bun:"view_count,notnull"`
	ReadingMinutes int        `bun:"reading_minutes,notnull"`
	IsDeleted      bool       `bun:"is_deleted,notnull"`

	AuthorName string `bun:"author_name,scanonly"`
}

type tagModel struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
	Slug string `bun:"slug,notnull,unique"`
}

type articleTagModel struct {
	bun.BaseModel `bun:"table:article_tags,alias:at"`

	ArticleID int64 `bun:"article_id,pk"`
	TagID     int64 `bun:"tag_id,pk"`
}

// articleTagRow is one row of the per-page tag lookup.
type articleTagRow struct {
	ArticleID int64  `bun:"article_id"`
	ID        int64  `bun:"id"`
	Name      string `bun:"name"`
	Slug      string `bun:"slug"`
}

func (m articleModel) summary(tags []article.Tag) article.Summary {
	if tags == nil {
		tags = []article.Tag{}
	}
	var excerpt string
	if m.Excerpt != nil {
		excerpt = *m.Excerpt
	}
	return article.Summary{
		ID:             m.ID,
		Title:          m.Title,
		Slug:           m.Slug,
		Excerpt:        excerpt,
		Author:         m.AuthorName,
		PublishedAt:    utcPtr(m.PublishedAt),
		Tags:           tags,
		ReadingMinutes: m.ReadingMinutes,
	}
}

func (m articleModel) detail(tags []article.Tag) article.Detail {
	return article.Detail{
		Summary:   m.summary(tags),
		Content:   m.Content,
		UpdatedAt: m.UpdatedAt.UTC(),
		Status:    article.Status(m.Status),
		ViewCount: m.ViewCount,
	}
}

func (t tagModel) tag() article.Tag {
	return article.Tag{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
