package criteria

import (
	"slices"
	"strings"
)

// Facet requests value counts for a field. When Exclude is set the index
// ignores the active filter queries while counting, so the facet still shows
// the values a user could switch to.
type Facet struct {
	Field   string
	Exclude Filter
}

// FacetQuery counts the documents matching a raw index query.
type FacetQuery struct {
	Query   string
	Exclude Filter
}

// IndexQuery describes a search-index request. Field names are domain names;
// the index renderer resolves them through the field registry.
type IndexQuery struct {
	Entity         string
	Query          string // free text; empty matches everything
	Filter         Filter
	Facets         []Facet
	PivotFacets    [][]string
	FacetQueries   []FacetQuery
	Fields         []string
	FunctionFields []string // raw index expressions, not resolved
	GroupFields    []string // raw index field names
	GroupQueries   []string
	GroupLimit     int // 0 leaves the index default
	Order          *Order
	GroupOrder     *Order
	First          int
	PageSize       int
	FacetLimit     int
	Highlight      bool
	Spellcheck     bool
}

// Excludes reports whether any facet or facet query declares an exclusion.
func (q IndexQuery) Excludes() bool {
	for _, f := range q.Facets {
		if f.Exclude != nil {
			return true
		}
	}
	for _, f := range q.FacetQueries {
		if f.Exclude != nil {
			return true
		}
	}
	return false
}

// IndexQueryBuilder assembles an IndexQuery. Every method returns a new
// builder.
type IndexQueryBuilder struct {
	q   IndexQuery
	err error
}

// NewIndexQuery starts an index query over entity.
func NewIndexQuery(entity string) IndexQueryBuilder {
	return IndexQueryBuilder{q: IndexQuery{Entity: entity}}
}

// Search sets the free-text query.
func (b IndexQueryBuilder) Search(query string) IndexQueryBuilder {
	b.q.Query = query
	return b
}

// Where replaces the filter.
func (b IndexQueryBuilder) Where(f Filter) IndexQueryBuilder {
	b.q.Filter = f
	return b
}

// And conjoins f with the current filter. Each conjoined filter becomes its
// own filter query.
func (b IndexQueryBuilder) And(f Filter) IndexQueryBuilder {
	b.q.Filter = Conjoin(b.q.Filter, f)
	return b
}

// Facet adds a field facet, replacing an earlier facet on the same field.
func (b IndexQueryBuilder) Facet(field string, exclude Filter) IndexQueryBuilder {
	facets := slices.DeleteFunc(slices.Clone(b.q.Facets), func(f Facet) bool { return f.Field == field })
	b.q.Facets = append(facets, Facet{Field: field, Exclude: exclude})
	return b
}

// FacetQuery adds a facet query, replacing an earlier one with the same text.
func (b IndexQueryBuilder) FacetQuery(query string, exclude Filter) IndexQueryBuilder {
	queries := slices.DeleteFunc(slices.Clone(b.q.FacetQueries), func(f FacetQuery) bool { return f.Query == query })
	b.q.FacetQueries = append(queries, FacetQuery{Query: query, Exclude: exclude})
	return b
}

// Pivot adds a pivot facet over fields, outermost first.
func (b IndexQueryBuilder) Pivot(fields ...string) IndexQueryBuilder {
	if len(fields) == 0 {
		return b
	}
	b.q.PivotFacets = append(slices.Clone(b.q.PivotFacets), slices.Clone(fields))
	return b
}

// Select adds projection fields.
func (b IndexQueryBuilder) Select(fields ...string) IndexQueryBuilder {
	b.q.Fields = appendUnique(b.q.Fields, fields...)
	return b
}

// SelectFunction adds raw function-field expressions to the projection.
func (b IndexQueryBuilder) SelectFunction(exprs ...string) IndexQueryBuilder {
	b.q.FunctionFields = appendUnique(b.q.FunctionFields, exprs...)
	return b
}

// GroupBy adds group fields.
func (b IndexQueryBuilder) GroupBy(fields ...string) IndexQueryBuilder {
	b.q.GroupFields = appendUnique(b.q.GroupFields, fields...)
	return b
}

// GroupQuery adds group queries.
func (b IndexQueryBuilder) GroupQuery(queries ...string) IndexQueryBuilder {
	b.q.GroupQueries = appendUnique(b.q.GroupQueries, queries...)
	return b
}

// GroupLimit sets the number of documents returned per group.
func (b IndexQueryBuilder) GroupLimit(n int) IndexQueryBuilder {
	if n < 0 && b.err == nil {
		b.err = NewInvalidArgument("", "group limit must not be negative")
	}
	b.q.GroupLimit = n
	return b
}

// OrderBy appends sort keys.
func (b IndexQueryBuilder) OrderBy(o *Order) IndexQueryBuilder {
	b.q.Order = b.q.Order.Clone().Append(o.Clone())
	return b
}

// GroupOrderBy appends group sort keys.
func (b IndexQueryBuilder) GroupOrderBy(o *Order) IndexQueryBuilder {
	b.q.GroupOrder = b.q.GroupOrder.Clone().Append(o.Clone())
	return b
}

// Page sets the first document and page size.
func (b IndexQueryBuilder) Page(first, size int) IndexQueryBuilder {
	if (first < 0 || size < 0) && b.err == nil {
		b.err = NewInvalidArgument("", "page bounds must not be negative")
	}
	b.q.First = first
	b.q.PageSize = size
	return b
}

// FacetLimit caps the number of values returned per facet.
func (b IndexQueryBuilder) FacetLimit(n int) IndexQueryBuilder {
	b.q.FacetLimit = n
	return b
}

// Highlight switches result highlighting.
func (b IndexQueryBuilder) Highlight(on bool) IndexQueryBuilder {
	b.q.Highlight = on
	return b
}

// Spellcheck switches spelling suggestions.
func (b IndexQueryBuilder) Spellcheck(on bool) IndexQueryBuilder {
	b.q.Spellcheck = on
	return b
}

// Build validates and returns the query.
func (b IndexQueryBuilder) Build() (IndexQuery, error) {
	if b.err != nil {
		return IndexQuery{}, b.err
	}
	if strings.TrimSpace(b.q.Entity) == "" {
		return IndexQuery{}, NewInvalidArgument("", "entity required")
	}
	if err := Check(b.q.Filter); err != nil {
		return IndexQuery{}, err
	}
	q := b.q
	q.Order = q.Order.Clone()
	q.GroupOrder = q.GroupOrder.Clone()
	return q, nil
}

func appendUnique(dst []string, values ...string) []string {
	out := slices.Clone(dst)
	for _, v := range values {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
