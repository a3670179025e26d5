package testsupport

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-blog/article"
	"github.com/goliatone/go-blog/store"
)

// SeedEpoch is the clock start used by Seed; created_at stamps follow the
// fixture order one minute apart.
var SeedEpoch = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

// NewTestDB opens an in-memory SQLite database with the store schema. The
// pool is pinned to one connection so every query sees the same database.
func NewTestDB(t testing.TB) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	if err := store.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

// Seeded bundles a store loaded with the default seed and the ids it created.
type Seeded struct {
	DB       *bun.DB
	Store    *store.BunStore
	Clock    *Clock
	Users    map[string]int64
	Articles map[string]int64
}

// NewSeededStore returns a store over a fresh database loaded with DefaultSeed.
func NewSeededStore(t testing.TB) *Seeded {
	t.Helper()

	db := NewTestDB(t)
	clock := NewClock(SeedEpoch)
	s := store.New(db, store.WithClock(clock.Now))

	seeded := &Seeded{
		DB:       db,
		Store:    s,
		Clock:    clock,
		Users:    map[string]int64{},
		Articles: map[string]int64{},
	}
	seeded.Load(t, DefaultSeed(t))
	return seeded
}

// Load inserts data through the store. Articles are keyed by slug.
func (s *Seeded) Load(t testing.TB, data SeedData) {
	t.Helper()
	ctx := context.Background()

	for _, u := range data.Users {
		id, err := s.Store.FindOrCreateUser(ctx, u.Name, u.Email)
		if err != nil {
			t.Fatalf("failed to seed user %s: %v", u.Email, err)
		}
		s.Users[u.Email] = id
	}

	for _, a := range data.Articles {
		s.Clock.Advance(time.Minute)

		id, err := s.Store.CreateArticle(ctx, article.Record{
			Title:          a.Title,
			Slug:           a.Slug,
			Excerpt:        a.Excerpt,
			Content:        a.Content,
			Status:         a.Status,
			PublishedAt:    a.PublishedAt,
			AuthorID:       s.Users[a.Author],
			ReadingMinutes: article.EstimateReadingMinutes(a.Content),
			Tags:           a.Tags,
		})
		if err != nil {
			t.Fatalf("failed to seed article %s: %v", a.Slug, err)
		}
		s.Articles[a.Slug] = id

		for i := 0; i < a.Views; i++ {
			if err := s.Store.RecordView(ctx, id); err != nil {
				t.Fatalf("failed to seed views for %s: %v", a.Slug, err)
			}
		}
		if a.Deleted {
			if _, err := s.Store.DeleteArticles(ctx, []int64{id}, false); err != nil {
				t.Fatalf("failed to soft delete %s: %v", a.Slug, err)
			}
		}
	}
}
