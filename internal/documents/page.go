package documents

import (
	"fmt"
	"strings"
)

const (
	DefaultSearchPageSize = 10
	DefaultFindPageSize   = 20
	MaxPageSize           = 100
)

// Sortable fields, keyed by their API name.
var sortColumns = map[string]string{
	"id":              "id",
	"filename":        "filename",
	"contentType":     "content_type",
	"author":          "author",
	"uploadTimestamp": "upload_timestamp",
}

// SortOrder orders a page by one field.
type SortOrder struct {
	Field string
	Desc  bool
}

// PageRequest selects a zero-based page of a result set.
type PageRequest struct {
	Page int
	Size int
	Sort []SortOrder
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Validate checks bounds and sort fields.
func (p PageRequest) Validate() error {
	if p.Page < 0 {
		return fmt.Errorf("%w: page must not be negative", ErrInvalidInput)
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return fmt.Errorf("%w: size must be between 1 and %d", ErrInvalidInput, MaxPageSize)
	}
	for _, o := range p.Sort {
		if _, ok := sortColumns[o.Field]; !ok {
			return fmt.Errorf("%w: unknown sort field %q", ErrInvalidInput, o.Field)
		}
	}
	return nil
}

// ParseSort reads "field" or "field,asc|desc" expressions. An empty input yields nil.
func ParseSort(exprs []string) ([]SortOrder, error) {
	var orders []SortOrder
	for _, expr := range exprs {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		field, dir, _ := strings.Cut(expr, ",")
		field = strings.TrimSpace(field)
		if _, ok := sortColumns[field]; !ok {
			return nil, fmt.Errorf("%w: unknown sort field %q", ErrInvalidInput, field)
		}
		order := SortOrder{Field: field}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			order.Desc = true
		default:
			return nil, fmt.Errorf("%w: unknown sort direction %q", ErrInvalidInput, dir)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// Page is a bounded slice of a larger result set.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// NewPage assembles a page from its rows and the total row count.
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// withDefaultSort appends the fallback order when none was requested and always
// finishes with id so ties break the same way on every call.
func withDefaultSort(orders []SortOrder, fallback SortOrder) []SortOrder {
	out := make([]SortOrder, 0, len(orders)+2)
	out = append(out, orders...)
	if len(out) == 0 {
		out = append(out, fallback)
	}
	for _, o := range out {
		if o.Field == "id" {
			return out
		}
	}
	return append(out, SortOrder{Field: "id", Desc: out[0].Desc})
}
