package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

type stampedItem struct {
	Slug      string    `msgpack:"slug" json:"slug"`
	UpdatedAt time.Time `msgpack:"updated_at" json:"updatedAt"`
}

type stampedPage struct {
	Items     []stampedItem        `msgpack:"items" json:"items"`
	Latest    *time.Time           `msgpack:"latest" json:"latest"`
	ByAuthor  map[string]time.Time `msgpack:"by_author" json:"byAuthor"`
	Generated time.Time            `msgpack:"generated" json:"generated"`
}

func TestUnmarshal_TimesComeBackInUTC(t *testing.T) {
	prev := time.Local
	time.Local = time.FixedZone("CEST", 2*60*60)
	t.Cleanup(func() { time.Local = prev })

	stamp := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	latest := stamp.Add(time.Hour)
	in := stampedPage{
		Items:     []stampedItem{{Slug: "a", UpdatedAt: stamp}, {Slug: "b", UpdatedAt: stamp.Add(time.Minute)}},
		Latest:    &latest,
		ByAuthor:  map[string]time.Time{"ada": stamp},
		Generated: stamp,
	}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	var out stampedPage
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}

	check := func(name string, got, want time.Time) {
		t.Helper()
		if got.Location() != time.UTC {
			t.Errorf("%s: expected UTC, got %s", name, got.Location())
		}
		if !got.Equal(want) {
			t.Errorf("%s: expected %v, got %v", name, want, got)
		}
	}
	check("items[0]", out.Items[0].UpdatedAt, in.Items[0].UpdatedAt)
	check("items[1]", out.Items[1].UpdatedAt, in.Items[1].UpdatedAt)
	check("latest", *out.Latest, latest)
	check("byAuthor", out.ByAuthor["ada"], stamp)
	check("generated", out.Generated, stamp)

	// A hit must render byte-for-byte like the miss that filled it.
	want, _ := json.Marshal(in)
	got, _ := json.Marshal(out)
	if string(got) != string(want) {
		t.Errorf("rendered hit differs from miss:\n got  %s\n want %s", got, want)
	}
}

func TestGetOrFetch_CachedTimesStayUTC(t *testing.T) {
	prev := time.Local
	time.Local = time.FixedZone("EST", -5*60*60)
	t.Cleanup(func() { time.Local = prev })

	svc := NewService(newMockStore())
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	fetch := func(context.Context) (stampedItem, error) {
		return stampedItem{Slug: "a", UpdatedAt: stamp}, nil
	}

	miss, err := GetOrFetch(context.Background(), svc, "articles:a", time.Minute, fetch)
	if err != nil {
		t.Fatal(err)
	}
	hit, err := GetOrFetch(context.Background(), svc, "articles:a", time.Minute, fetch)
	if err != nil {
		t.Fatal(err)
	}
	if hit.UpdatedAt.String() != miss.UpdatedAt.String() {
		t.Errorf("expected hit %s to match miss %s", hit.UpdatedAt, miss.UpdatedAt)
	}
}
