package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-blog/article"
)

func TestLoadFixture(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	testContent := []byte("test fixture content")

	if err := os.WriteFile(testFile, testContent, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result := LoadFixture(t, testFile)
	if string(result) != string(testContent) {
		t.Errorf("expected %q, got %q", testContent, result)
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "seed.json")

	want := SeedData{Users: []SeedUser{{Name: "Grace Hopper", Email: "grace@example.com"}}}
	jsonData, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("failed to marshal test data: %v", err)
	}
	if err := os.WriteFile(testFile, jsonData, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	var got SeedData
	LoadFixtureJSON(t, testFile, &got)

	if len(got.Users) != 1 || got.Users[0].Email != "grace@example.com" {
		t.Errorf("unexpected fixture content: %+v", got)
	}
}

func TestFixturePath(t *testing.T) {
	got := FixturePath("seed.json")
	want := filepath.Join("testdata", "seed.json")
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	// The embedded seed is also readable from disk.
	var onDisk SeedData
	LoadFixtureJSON(t, got, &onDisk)
	if len(onDisk.Articles) != len(DefaultSeed(t).Articles) {
		t.Error("embedded seed and testdata/seed.json differ")
	}
}

func TestDefaultSeed(t *testing.T) {
	data := DefaultSeed(t)

	if len(data.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(data.Users))
	}
	if len(data.Articles) != 6 {
		t.Fatalf("expected 6 articles, got %d", len(data.Articles))
	}

	emails := map[string]bool{}
	for _, u := range data.Users {
		emails[u.Email] = true
	}
	for _, a := range data.Articles {
		if !emails[a.Author] {
			t.Errorf("article %s refers to unknown author %s", a.Slug, a.Author)
		}
		if !article.ValidSlugParam(a.Slug) {
			t.Errorf("article %s has an invalid slug", a.Slug)
		}
	}
}

func TestClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	if !clock.Now().Equal(start) {
		t.Errorf("expected %v, got %v", start, clock.Now())
	}

	clock.Advance(90 * time.Second)
	if want := start.Add(90 * time.Second); !clock.Now().Equal(want) {
		t.Errorf("expected %v, got %v", want, clock.Now())
	}
}

func TestNewSeededStore(t *testing.T) {
	seeded := NewSeededStore(t)
	ctx := context.Background()

	if len(seeded.Users) != 2 {
		t.Errorf("expected 2 users, got %d", len(seeded.Users))
	}
	if len(seeded.Articles) != 6 {
		t.Errorf("expected 6 articles, got %d", len(seeded.Articles))
	}

	detail, err := seeded.Store.FindArticleBySlug(ctx, "getting-started-with-go")
	if err != nil {
		t.Fatalf("FindArticleBySlug() failed: %v", err)
	}
	if detail.ID != seeded.Articles["getting-started-with-go"] {
		t.Errorf("expected id %d, got %d", seeded.Articles["getting-started-with-go"], detail.ID)
	}
	if detail.ViewCount != 3 {
		t.Errorf("expected 3 views, got %d", detail.ViewCount)
	}
	if want := SeedEpoch.Add(time.Minute); !detail.UpdatedAt.Equal(want) {
		t.Errorf("expected updated_at %v, got %v", want, detail.UpdatedAt)
	}

	_, err = seeded.Store.FindArticleBySlug(ctx, "removed-article")
	if !errors.Is(err, article.ErrNotFound) {
		t.Errorf("expected soft deleted article to be hidden, got %v", err)
	}
}
