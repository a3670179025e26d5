package testsupport

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-blog/article"
)

//go:embed testdata/seed.json
var seedJSON []byte

// SeedUser is a user entry of a seed fixture.
type SeedUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SeedArticle is an article entry of a seed fixture. Author refers to a user
// email.
type SeedArticle struct {
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Excerpt     *string        `json:"excerpt"`
	Content     string         `json:"content"`
	Status      article.Status `json:"status"`
	PublishedAt *time.Time     `json:"publishedAt"`
	Author      string         `json:"author"`
	Tags        []string       `json:"tags"`
	Views       int            `json:"views"`
	Deleted     bool           `json:"deleted"`
}

// SeedData is the content of a seed fixture.
type SeedData struct {
	Users    []SeedUser    `json:"users"`
	Articles []SeedArticle `json:"articles"`
}

// DefaultSeed returns the embedded seed used across package tests.
func DefaultSeed(t testing.TB) SeedData {
	t.Helper()

	var data SeedData
	if err := json.Unmarshal(seedJSON, &data); err != nil {
		t.Fatalf("failed to decode embedded seed: %v", err)
	}
	return data
}

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t testing.TB, path string, dest interface{}) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// Clock is a manually advanced time source.
type Clock struct {
	now time.Time
}

// NewClock starts a clock at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
