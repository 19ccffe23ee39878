package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/admindata/internal/common"
)

// URL parameter names of the REST list protocol.
const (
	ParamPage   = "page"
	ParamSize   = "size"
	ParamFilter = "filter"
	ParamSort   = "sort"
)

// Filter separators. Field names never contain either, so the first one in a
// filter value both splits it and decides how the term matches.
const (
	containsSep = ':'
	exactSep    = '='
)

// Values encodes the query as list parameters. An unbounded query omits
// page and size.
//
//	page=2&size=10&filter=name:ri&filter=countryId=lv&sort=name:asc
func (q Query) Values() url.Values {
	v := url.Values{}
	if !q.IsUnbounded() {
		v.Set(ParamPage, strconv.Itoa(q.Page))
		v.Set(ParamSize, strconv.Itoa(q.PageSize))
	}
	for _, f := range q.ActiveFilters() {
		sep := containsSep
		if f.ExactMatch {
			sep = exactSep
		}
		v.Add(ParamFilter, f.Field+string(sep)+f.SearchTerm)
	}
	for _, s := range q.Sort {
		dir := s.Direction
		if dir == "" {
			dir = Asc
		}
		v.Add(ParamSort, s.Field+":"+string(dir))
	}
	return v
}

// QueryFromValues decodes list parameters. Missing size means unbounded.
func QueryFromValues(v url.Values) (Query, error) {
	q := Query{Page: 1, PageSize: Unbounded}

	if s := v.Get(ParamSize); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, fmt.Errorf("%w: size %q", common.ErrInvalidQuery, s)
		}
		q.PageSize = n
	}
	if s := v.Get(ParamPage); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, fmt.Errorf("%w: page %q", common.ErrInvalidQuery, s)
		}
		q.Page = n
	}

	for _, raw := range v[ParamFilter] {
		i := strings.IndexAny(raw, string([]rune{containsSep, exactSep}))
		if i < 0 {
			return q, fmt.Errorf("%w: filter %q", common.ErrInvalidQuery, raw)
		}
		q.Filters = append(q.Filters, Filter{
			Field:      raw[:i],
			SearchTerm: raw[i+1:],
			ExactMatch: raw[i] == exactSep,
		})
	}
	for _, raw := range v[ParamSort] {
		field, dir, _ := strings.Cut(raw, ":")
		q.Sort = append(q.Sort, Sort{Field: field, Direction: Direction(dir)})
	}

	return q.Normalize()
}
