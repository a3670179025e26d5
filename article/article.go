package article

import "time"

// Status is the publication state of an article.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Tag is a label attached to articles.
type Tag struct {
	ID   int64  `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
	Slug string `json:"slug" msgpack:"slug"`
}

// Summary is the list representation of an article.
type Summary struct {
	ID             int64      `json:"id" msgpack:"id"`
	Title          string     `json:"title" msgpack:"title"`
	Slug           string     `json:"slug" msgpack:"slug"`
	Excerpt        string     `json:"excerpt" msgpack:"excerpt"`
	Author         string     `json:"author" msgpack:"author"`
	PublishedAt    *time.Time `json:"publishedAt" msgpack:"published_at"`
	Tags           []Tag      `json:"tags" msgpack:"tags"`
	ReadingMinutes int        `json:"readingMinutes" msgpack:"reading_minutes"`
}

// Detail is the full representation of a single article.
type Detail struct {
	Summary
	Content   string    `json:"content" msgpack:"content"`
	UpdatedAt time.Time `json:"updatedAt" msgpack:"updated_at"`
	Status    Status    `json:"status" msgpack:"status"`
	ViewCount int64     `json:"viewCount" msgpack:"view_count"`
}

// ToSummary drops the detail-only fields.
func (d Detail) ToSummary() Summary {
	return d.Summary
}

// PaginationMeta describes the page returned by a list query.
type PaginationMeta struct {
	Page       int `json:"page" msgpack:"page"`
	PageSize   int `json:"pageSize" msgpack:"page_size"`
	TotalItems int `json:"totalItems" msgpack:"total_items"`
	TotalPages int `json:"totalPages" msgpack:"total_pages"`
}

// NewPaginationMeta computes the page count for total items.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	pages := 0
	if total > 0 && pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: pages,
	}
}

// PaginatedArticles is a page of article summaries.
type PaginatedArticles struct {
	Items []Summary      `json:"items" msgpack:"items"`
	Meta  PaginationMeta `json:"meta" msgpack:"meta"`
}

// Record is the normalized write model handed to storage.
type Record struct {
	Title          string
	Slug           string
	Excerpt        *string
	Content        string
	Status         Status
	PublishedAt    *time.Time
	AuthorID       int64
	ReadingMinutes int
	Tags           []string
}

// CreateResult is returned after an article is created.
type CreateResult struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}

// UpdateResult is returned after an article is updated.
type UpdateResult struct {
	Slug string `json:"slug"`
}

// DeleteResult reports how many articles a delete touched.
type DeleteResult struct {
	Affected int64 `json:"affected"`
}

// View names the page the client should hydrate.
type View string

const (
	ViewList     View = "list"
	ViewDetail   View = "detail"
	ViewCreate   View = "create"
	ViewNotFound View = "not-found"
	ViewError    View = "error"
)

// StateError is the error payload embedded in an InitialState.
type StateError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// InitialState is the data a client needs to render its first page.
type InitialState struct {
	View       View               `json:"view"`
	ListData   *PaginatedArticles `json:"listData,omitempty"`
	DetailData *Detail            `json:"detailData,omitempty"`
	Error      *StateError        `json:"error,omitempty"`
}
