package store

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

var models = []any{
	(*userModel)(nil),
	(*articleModel)(nil),
	(*tagModel)(nil),
	(*articleTagModel)(nil),
}

type index struct {
	model   any
	name    string
	columns []string
}

var indexes = []index{
	{(*articleModel)(nil), "idx_articles_slug", []string{"slug"}},
	{(*articleModel)(nil), "idx_articles_listing", []string{"is_deleted", "status", "published_at"}},
	{(*articleTagModel)(nil), "idx_article_tags_tag", []string{"tag_id"}},
}

// CreateSchema creates the tables used by the store when they are missing.
// It is meant for development databases and tests; production schemas are
// managed by migrations.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("store: create table: %w", err)
		}
	}

	// MySQL has no CREATE INDEX IF NOT EXISTS.
	if db.Dialect().Name() == dialect.MySQL {
		return nil
	}
	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("store: create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// DropSchema drops every table created by CreateSchema.
func DropSchema(ctx context.Context, db *bun.DB) error {
	for i := len(models) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(models[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("store: drop table: %w", err)
		}
	}
	return nil
}
