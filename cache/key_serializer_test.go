package cache

import (
	"strings"
	"testing"
	"time"
)

func joinWithSeparator(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

type listFilters struct {
	Page   int    `cache:"page"`
	Size   int    `cache:"size"`
	Status string `cache:"status,omitempty"`
	Tag    string `cache:"tag,omitempty"`
	Search string `cache:"search,omitempty,hash"`
	Debug  bool   `cache:"-"`
	hidden string
}

func TestDefaultKeySerializer_BasicTypes(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name      string
		namespace string
		args      []any
		want      string
	}{
		{
			name:      "no args",
			namespace: "articles:tags",
			args:      []any{},
			want:      "articles:tags",
		},
		{
			name:      "single int",
			namespace: "articles:detail",
			args:      []any{42},
			want:      joinWithSeparator("articles:detail", "42"),
		},
		{
			name:      "multiple basic types",
			namespace: "get",
			args:      []any{1, "hello", true, 3.14},
			want:      joinWithSeparator("get", "1", "hello", "true", "3.14"),
		},
		{
			name:      "nil arg",
			namespace: "get",
			args:      []any{nil},
			want:      joinWithSeparator("get", "nil"),
		},
		{
			name:      "slice",
			namespace: "articles:ids",
			args:      []any{[]int64{3, 1, 2}},
			want:      joinWithSeparator("articles:ids", "3,1,2"),
		},
		{
			name:      "map sorted",
			namespace: "m",
			args:      []any{map[string]int{"b": 2, "a": 1}},
			want:      joinWithSeparator("m", "a=1,b=2"),
		},
		{
			name:      "time in utc",
			namespace: "t",
			args:      []any{time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))},
			want:      joinWithSeparator("t", "2024-01-02T02%3A04%3A05Z"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey(tt.namespace, tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_StructTags(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	got := serializer.SerializeKey("articles:list", listFilters{Page: 1, Size: 10, Debug: true, hidden: "x"})
	want := "articles:list:page:1:size:10"
	if got != want {
		t.Errorf("expected omitted empty fields, got %q want %q", got, want)
	}

	got = serializer.SerializeKey("articles:list", &listFilters{Page: 2, Size: 20, Status: "draft", Tag: "go"})
	want = "articles:list:page:2:size:20:status:draft:tag:go"
	if got != want {
		t.Errorf("expected pointer to be dereferenced, got %q want %q", got, want)
	}
}

func TestDefaultKeySerializer_HashedSearch(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	a := serializer.SerializeKey("articles:list", listFilters{Page: 1, Size: 10, Search: "redis cache"})
	b := serializer.SerializeKey("articles:list", listFilters{Page: 1, Size: 10, Search: "redis cache"})
	c := serializer.SerializeKey("articles:list", listFilters{Page: 1, Size: 10, Search: "redis caches"})

	if a != b {
		t.Errorf("expected stable keys, got %q and %q", a, b)
	}
	if a == c {
		t.Error("expected different search terms to produce different keys")
	}
	if strings.Contains(a, "redis") {
		t.Errorf("expected search term to be hashed, got %q", a)
	}
	wantSuffix := "search:" + HashSegment("redis cache")
	if !strings.HasSuffix(a, wantSuffix) {
		t.Errorf("expected %q to end with %q", a, wantSuffix)
	}
}

func TestDefaultKeySerializer_EscapesSeparators(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	got := serializer.SerializeKey("articles:list", listFilters{Page: 1, Size: 10, Tag: "c++:* [x]"})
	want := "articles:list:page:1:size:10:tag:c++%3A%2A%20%5Bx%5D"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestDefaultKeySerializer_StatusChangesKey(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	published := serializer.SerializeKey("articles:list", listFilters{Page: 1, Size: 10, Status: "published"})
	draft := serializer.SerializeKey("articles:list", listFilters{Page: 1, Size: 10, Status: "draft"})
	if published == draft {
		t.Error("expected status to be part of the key")
	}
}

func TestHashSegment(t *testing.T) {
	h := HashSegment("x")
	if len(h) != 16 {
		t.Errorf("expected 16 hex chars, got %q", h)
	}
	if h != HashSegment("x") {
		t.Error("expected deterministic hash")
	}
}
