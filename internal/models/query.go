package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/admindata/internal/common"
)

// Unbounded is the PageSize that selects the full result set.
const Unbounded = -1

// DefaultPageSize is used when a query carries no page size.
const DefaultPageSize = 10

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Filter matches records whose Field contains SearchTerm (case-insensitive)
// or, with ExactMatch, equals it.
type Filter struct {
	Field      string `json:"field"`
	SearchTerm string `json:"searchTerm"`
	ExactMatch bool   `json:"exactMatch"`
}

// Sort orders results by Field.
type Sort struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// Query is the uniform paging/filter/sort descriptor understood by the local
// store, the REST backend and the data source façade.
type Query struct {
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
	Filters  []Filter `json:"filters,omitempty"`
	Sort     []Sort   `json:"sort,omitempty"`

	// IncludeDeleted disables the soft-delete/expiry exclusion. Used only by
	// maintenance reads.
	IncludeDeleted bool `json:"-"`
}

// NewQuery returns a query for the first page with the default size.
func NewQuery() Query {
	return Query{Page: 1, PageSize: DefaultPageSize}
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidField reports whether name is safe to use as a field reference.
func ValidField(name string) bool {
	return fieldPattern.MatchString(name)
}

// Normalize clamps paging values and canonicalizes sort directions. It
// returns ErrInvalidQuery when a filter or sort names an unsafe field.
func (q Query) Normalize() (Query, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize == 0 || q.PageSize < Unbounded {
		q.PageSize = DefaultPageSize
	}

	for _, f := range q.Filters {
		if !ValidField(f.Field) {
			return q, fmt.Errorf("%w: filter field %q", common.ErrInvalidQuery, f.Field)
		}
	}

	var sorts []Sort
	for _, s := range q.Sort {
		if !ValidField(s.Field) {
			return q, fmt.Errorf("%w: sort field %q", common.ErrInvalidQuery, s.Field)
		}
		dir := Direction(strings.ToLower(string(s.Direction)))
		if dir != Desc {
			dir = Asc
		}
		sorts = append(sorts, Sort{Field: s.Field, Direction: dir})
	}
	q.Sort = sorts

	return q, nil
}

// IsUnbounded reports whether the query selects every matching record.
func (q Query) IsUnbounded() bool {
	return q.PageSize == Unbounded
}

// Offset returns the number of records skipped before the page.
func (q Query) Offset() int {
	if q.IsUnbounded() || q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// Clone returns a deep copy of the query.
func (q Query) Clone() Query {
	out := q
	out.Filters = append([]Filter(nil), q.Filters...)
	out.Sort = append([]Sort(nil), q.Sort...)
	return out
}

// ActiveFilters returns the filters that constrain the result: a non-exact
// filter with an empty search term matches everything and is dropped.
func (q Query) ActiveFilters() []Filter {
	out := make([]Filter, 0, len(q.Filters))
	for _, f := range q.Filters {
		if f.SearchTerm == "" && !f.ExactMatch {
			continue
		}
		out = append(out, f)
	}
	return out
}
