package index

import (
	"net/url"
	"strconv"
	"strings"
)

// SortClause is one resolved sort key.
type SortClause struct {
	Field string
	Desc  bool
}

// String renders "field asc|desc".
func (s SortClause) String() string {
	if s.Desc {
		return s.Field + " desc"
	}
	return s.Field + " asc"
}

// Request is a rendered index query. Field names are index-native.
type Request struct {
	Entity        string
	Query         string // free text; empty when unset
	FilterQueries []string
	Facets        []string
	PivotFacets   [][]string
	FacetQueries  []string
	Fields        []string
	GroupFields   []string
	GroupQueries  []string
	GroupLimit    int // 0 leaves the index default of one document per group
	Sorts         []SortClause
	GroupSorts    []SortClause
	First         int
	PageSize      int
	FacetLimit    int
	Highlight     bool
	Spellcheck    bool
}

// MatchAll is the query used when no free text is given.
const MatchAll = "*:*"

// Params exports the request as Solr select parameters.
func (r Request) Params() url.Values {
	v := url.Values{}

	q := r.Query
	if strings.TrimSpace(q) == "" {
		q = MatchAll
	}
	v.Set("q", q)
	for _, fq := range r.FilterQueries {
		v.Add("fq", fq)
	}
	if len(r.Fields) > 0 {
		v.Set("fl", strings.Join(r.Fields, ","))
	}
	if len(r.Sorts) > 0 {
		v.Set("sort", joinSorts(r.Sorts))
	}
	if r.First > 0 {
		v.Set("start", strconv.Itoa(r.First))
	}
	if r.PageSize > 0 {
		v.Set("rows", strconv.Itoa(r.PageSize))
	}

	if len(r.Facets) > 0 || len(r.PivotFacets) > 0 || len(r.FacetQueries) > 0 {
		v.Set("facet", "true")
		for _, f := range r.Facets {
			v.Add("facet.field", f)
		}
		for _, p := range r.PivotFacets {
			v.Add("facet.pivot", strings.Join(p, ","))
		}
		for _, fq := range r.FacetQueries {
			v.Add("facet.query", fq)
		}
		if r.FacetLimit > 0 {
			v.Set("facet.limit", strconv.Itoa(r.FacetLimit))
		}
	}

	if len(r.GroupFields) > 0 || len(r.GroupQueries) > 0 {
		v.Set("group", "true")
		for _, f := range r.GroupFields {
			v.Add("group.field", f)
		}
		for _, q := range r.GroupQueries {
			v.Add("group.query", q)
		}
		if r.GroupLimit > 0 {
			v.Set("group.limit", strconv.Itoa(r.GroupLimit))
		}
		if len(r.GroupSorts) > 0 {
			v.Set("group.sort", joinSorts(r.GroupSorts))
		}
	}

	if r.Highlight {
		v.Set("hl", "true")
	}
	if r.Spellcheck {
		v.Set("spellcheck", "true")
	}
	return v
}

func joinSorts(sorts []SortClause) string {
	parts := make([]string, len(sorts))
	for i, s := range sorts {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}
