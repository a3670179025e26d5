package article

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Go 1.22: What's New?  ", "go-1-22-what-s-new"},
		{"Crème brûlée", "creme-brulee"},
		{"already-kebab", "already-kebab"},
		{"---", ""},
		{"你好", ""},
		{"Go 语言 入门", "go"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestTagSlug(t *testing.T) {
	assert.Equal(t, "golang", TagSlug("Golang"))

	cjk := TagSlug("数据库")
	assert.True(t, strings.HasPrefix(cjk, "tag-"))
	assert.Equal(t, cjk, TagSlug(" 数据库 "))
	assert.NotEqual(t, cjk, TagSlug("缓存"))
}

func TestSlugBase(t *testing.T) {
	assert.Equal(t, "custom", SlugBase(MutationPayload{Title: "Whatever", Slug: "custom"}))
	assert.Equal(t, "my-post", SlugBase(MutationPayload{Title: "My Post"}))
	assert.Equal(t, FallbackSlug, SlugBase(MutationPayload{Title: "标题"}))
}

func TestEstimateReadingMinutes(t *testing.T) {
	assert.Equal(t, 1, EstimateReadingMinutes(""))
	assert.Equal(t, 1, EstimateReadingMinutes("one two three"))
	assert.Equal(t, 1, EstimateReadingMinutes(strings.Repeat("w ", 220)))
	assert.Equal(t, 2, EstimateReadingMinutes(strings.Repeat("w ", 221)))
}

func TestNormalizePublishedAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 30, 15, 500, time.UTC)
	given := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)

	got := NormalizePublishedAt(StatusPublished, nil, now)
	require.NotNil(t, got)
	assert.Equal(t, now.Truncate(time.Second), *got)

	got = NormalizePublishedAt(StatusPublished, &given, now)
	require.NotNil(t, got)
	assert.Equal(t, given, *got)

	assert.Nil(t, NormalizePublishedAt(StatusDraft, nil, now))

	got = NormalizePublishedAt(StatusDraft, &given, now)
	require.NotNil(t, got)
	assert.Equal(t, given, *got)
}

func TestNewPaginationMeta(t *testing.T) {
	assert.Equal(t, PaginationMeta{Page: 1, PageSize: 10, TotalItems: 0, TotalPages: 0}, NewPaginationMeta(1, 10, 0))
	assert.Equal(t, 3, NewPaginationMeta(1, 10, 21).TotalPages)
	assert.Equal(t, 2, NewPaginationMeta(2, 10, 20).TotalPages)
}

func TestParseListFilters_Defaults(t *testing.T) {
	f, err := ParseListFilters(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, DefaultListFilters(), f)
	assert.Equal(t, 0, f.Offset())
}

func TestParseListFilters_Values(t *testing.T) {
	f, err := ParseListFilters(url.Values{
		"page":     {"3"},
		"pageSize": {"20"},
		"sort":     {"createdAt"},
		"order":    {"asc"},
		"status":   {"draft"},
		"tag":      {"go"},
		"search":   {"cache"},
	})
	require.NoError(t, err)
	assert.Equal(t, ListFilters{
		Page: 3, PageSize: 20, Sort: SortCreatedAt, Order: OrderAsc,
		Status: StatusDraft, Tag: "go", Search: "cache",
	}, f)
	assert.Equal(t, 40, f.Offset())
}

func TestParseListFilters_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		field string
	}{
		{"non numeric page", url.Values{"page": {"x"}}, "page"},
		{"zero page", url.Values{"page": {"0"}}, "page"},
		{"negative page", url.Values{"page": {"-2"}}, "page"},
		{"page size too big", url.Values{"pageSize": {"101"}}, "pageSize"},
		{"unknown sort", url.Values{"sort": {"title"}}, "sort"},
		{"unknown order", url.Values{"order": {"up"}}, "order"},
		{"unknown status", url.Values{"status": {"archived"}}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseListFilters(tt.query)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Details(), tt.field)
		})
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList("1, 2,x,-4,0,7")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 7}, ids)

	_, err = ParseIDList("a,b")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-1", "abc"} {
		_, err := ParseID(raw)
		assert.ErrorIs(t, err, ErrValidation, raw)
	}
}

func validPayload() MutationPayload {
	return MutationPayload{
		Title:    "A valid title",
		Content:  "This content is long enough to pass validation.",
		Tags:     []string{"go", "cache"},
		Status:   StatusPublished,
		AuthorID: 1,
	}
}

func TestMutationPayload_Validate(t *testing.T) {
	long := strings.Repeat("x", 513)

	tests := []struct {
		name   string
		mutate func(p *MutationPayload)
		field  string
	}{
		{"valid", func(p *MutationPayload) {}, ""},
		{"short title", func(p *MutationPayload) { p.Title = "ab" }, "title"},
		{"bad slug", func(p *MutationPayload) { p.Slug = "Not A Slug" }, "slug"},
		{"trailing dash slug", func(p *MutationPayload) { p.Slug = "abc-" }, "slug"},
		{"long excerpt", func(p *MutationPayload) { p.Excerpt = &long }, "excerpt"},
		{"short content", func(p *MutationPayload) { p.Content = "too short" }, "content"},
		{"blank tag", func(p *MutationPayload) { p.Tags = []string{"go", ""} }, "tags"},
		{"too many tags", func(p *MutationPayload) { p.Tags = make([]string, 21) }, "tags"},
		{"unknown status", func(p *MutationPayload) { p.Status = "archived" }, "status"},
		{"missing author", func(p *MutationPayload) { p.AuthorID = 0 }, "authorId"},
		{"negative author", func(p *MutationPayload) { p.AuthorID = -3 }, "authorId"},
		{"author by identity", func(p *MutationPayload) {
			p.AuthorID = 0
			p.AuthorName = "Ada"
			p.AuthorEmail = "ada@example.com"
		}, ""},
		{"bad author email", func(p *MutationPayload) {
			p.AuthorID = 0
			p.AuthorName = "Ada"
			p.AuthorEmail = "nope"
		}, "authorEmail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(&p)
			err := p.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, NewValidationError(err).Details(), tt.field)
		})
	}
}

func TestMutationPayload_NormalizedTags(t *testing.T) {
	p := MutationPayload{Tags: []string{" go ", "cache", "go", "  "}}
	assert.Equal(t, []string{"go", "cache"}, p.NormalizedTags())
}

func TestValidSlugParam(t *testing.T) {
	assert.True(t, ValidSlugParam("hello-world-2"))
	assert.False(t, ValidSlugParam(""))
	assert.False(t, ValidSlugParam("Hello"))
	assert.False(t, ValidSlugParam("a/b"))
}
