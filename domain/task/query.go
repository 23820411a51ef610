package task

import (
	"math"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	DefaultSortBy = "createdAt"
	SortAsc       = "asc"
	SortDesc      = "desc"
)

// sortColumns maps the JSON field names accepted by sortBy to columns.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"dueDate":   "due_date",
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
	"type":      "type",
}

// ListQuery describes one page of an owner's task list.
// Status, Priority and Type are matched verbatim and are not checked
// against the known values, so an unknown value simply matches nothing.
type ListQuery struct {
	Status    string `json:"status,omitempty"`
	Priority  string `json:"priority,omitempty"`
	Type      string `json:"type,omitempty"`
	Search    string `json:"search,omitempty"`
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"`
	Page      int    `json:"page,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Normalize fills defaults and clamps paging values.
func (q ListQuery) Normalize() ListQuery {
	if _, ok := sortColumns[q.SortBy]; !ok {
		q.SortBy = DefaultSortBy
	}
	if q.SortOrder != SortAsc {
		q.SortOrder = SortDesc
	}
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	// Keep (Page-1)*Limit within int.
	if maxPage := math.MaxInt / q.Limit; q.Page > maxPage {
		q.Page = maxPage
	}
	return q
}

// SortColumn returns the store column for SortBy.
func (q ListQuery) SortColumn() string {
	if col, ok := sortColumns[q.SortBy]; ok {
		return col
	}
	return sortColumns[DefaultSortBy]
}

// Descending reports whether results are ordered high to low.
func (q ListQuery) Descending() bool {
	return q.SortOrder != SortAsc
}

// Offset is the number of rows skipped before the page starts.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ParsePositiveInt parses a query string value, returning def when the
// value is missing, malformed or not positive.
func ParsePositiveInt(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Pagination is the paging metadata returned with a list.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// PageCount returns ceil(total/limit).
func PageCount(total int64, limit int) int64 {
	if limit < 1 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

// ListResult is one page of tasks.
type ListResult struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}
