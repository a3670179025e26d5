package article

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SortField selects the column list queries are ordered by.
type SortField string

const (
	SortPublishedAt SortField = "publishedAt"
	SortCreatedAt   SortField = "createdAt"
)

// SortOrder is the direction of the list ordering.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListFilters are the parameters of an article list query. The cache tags
// drive key derivation in the cache package; field order is key order.
type ListFilters struct {
	Page     int       `json:"page" cache:"page"`
	PageSize int       `json:"pageSize" cache:"size"`
	Sort     SortField `json:"sort" cache:"sort"`
	Order    SortOrder `json:"order" cache:"order"`
	Status   Status    `json:"status,omitempty" cache:"status,omitempty"`
	Tag      string    `json:"tag,omitempty" cache:"tag,omitempty"`
	Search   string    `json:"search,omitempty" cache:"search,omitempty,hash"`
}

// DefaultListFilters returns the filters used when a request sets none.
func DefaultListFilters() ListFilters {
	return ListFilters{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
		Sort:     SortPublishedAt,
		Order:    OrderDesc,
	}
}

// Offset is the number of rows skipped before the requested page.
func (f ListFilters) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Validate checks ranges and enumerations.
func (f ListFilters) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Page, validation.Required, validation.Min(1)),
		validation.Field(&f.PageSize, validation.Required, validation.Min(1), validation.Max(MaxPageSize)),
		validation.Field(&f.Sort, validation.Required, validation.In(SortPublishedAt, SortCreatedAt)),
		validation.Field(&f.Order, validation.Required, validation.In(OrderAsc, OrderDesc)),
		validation.Field(&f.Status, validation.In(StatusDraft, StatusPublished)),
	)
}

// ParseListFilters reads list filters from a query string, applying defaults
// for absent parameters. Errors are *ValidationError.
func ParseListFilters(values url.Values) (ListFilters, error) {
	f := DefaultListFilters()
	errs := validation.Errors{}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs["page"] = errors.New("must be an integer")
		} else {
			f.Page = n
		}
	}
	if raw := strings.TrimSpace(values.Get("pageSize")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs["pageSize"] = errors.New("must be an integer")
		} else {
			f.PageSize = n
		}
	}
	if raw := values.Get("sort"); raw != "" {
		f.Sort = SortField(raw)
	}
	if raw := values.Get("order"); raw != "" {
		f.Order = SortOrder(raw)
	}
	if raw := values.Get("status"); raw != "" {
		f.Status = Status(raw)
	}
	f.Tag = values.Get("tag")
	f.Search = values.Get("search")

	if len(errs) > 0 {
		return f, &ValidationError{Fields: errs}
	}
	if err := f.Validate(); err != nil {
		return f, NewValidationError(err)
	}
	return f, nil
}

// ParseIDList parses a comma separated id list, keeping positive integers
// only. It fails when nothing valid remains.
func ParseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		ids = append(ids, n)
	}
	if len(ids) == 0 {
		return nil, &ValidationError{Fields: validation.Errors{
			"ids": errors.New("ids must contain at least one valid identifier"),
		}}
	}
	return ids, nil
}

// ParseID parses a positive integer path parameter.
func ParseID(raw string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, &ValidationError{Fields: validation.Errors{
			"id": errors.New("must be a positive integer"),
		}}
	}
	return n, nil
}
