package criteria

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// EntityQuery describes a relational query over one root entity.
//
// Built with NewEntityQuery(...).Build(); rendered by the relational package
// either to query text with named parameters or to a structured predicate
// tree (UseCriteria).
type EntityQuery struct {
	Entity      string
	Alias       string
	Joins       JoinSet
	Filter      Filter
	Order       *Order
	First       int  // 0 = from the first row
	PageSize    int  // 0 = unlimited
	UseCache    bool // hint passed through to the executor
	Count       bool // select count(alias); never ordered
	Distinct    bool
	UseCriteria bool
}

// WithAliasPrefix returns the query with every alias prefixed. A query whose
// root alias already carries the prefix is returned unchanged.
func (q EntityQuery) WithAliasPrefix(prefix string) EntityQuery {
	if prefix == "" || strings.HasPrefix(q.Alias, prefix+AliasSeparator) {
		return q
	}
	q.Alias = PrefixAlias(q.Alias, prefix)
	q.Joins = q.Joins.WithAliasPrefix(prefix)
	if q.Filter != nil {
		q.Filter = AddAliasPrefix(q.Filter, prefix)
	}
	q.Order = q.Order.WithAliasPrefix(prefix)
	return q
}

// AsCount returns a copy of the query in count mode.
func (q EntityQuery) AsCount() EntityQuery {
	q.Count = true
	return q
}

// EntityQueryBuilder assembles an EntityQuery. Every method returns a new
// builder; the receiver is never modified, so partially built queries can be
// shared and extended independently.
type EntityQueryBuilder struct {
	q   EntityQuery
	err error
}

// NewEntityQuery starts a query over entity. The alias defaults to the entity
// name with its first letter lower-cased.
func NewEntityQuery(entity string) EntityQueryBuilder {
	return EntityQueryBuilder{q: EntityQuery{
		Entity:   entity,
		Alias:    DefaultAlias(entity),
		UseCache: true,
	}}
}

// DefaultAlias lower-cases the first letter of an entity name.
func DefaultAlias(entity string) string {
	r, size := utf8.DecodeRuneInString(entity)
	if r == utf8.RuneError {
		return entity
	}
	return string(unicode.ToLower(r)) + entity[size:]
}

// As sets the root alias.
func (b EntityQueryBuilder) As(alias string) EntityQueryBuilder {
	if err := CheckAlias(alias); err != nil && b.err == nil {
		b.err = err
	}
	b.q.Alias = alias
	return b
}

// Join adds joins. Duplicates are ignored.
func (b EntityQueryBuilder) Join(joins ...Join) EntityQueryBuilder {
	for _, j := range joins {
		if err := j.check(); err != nil && b.err == nil {
			b.err = err
		}
		b.q.Joins = b.q.Joins.Add(j)
	}
	return b
}

// Where replaces the filter.
func (b EntityQueryBuilder) Where(f Filter) EntityQueryBuilder {
	b.q.Filter = f
	return b
}

// And conjoins f with the current filter.
func (b EntityQueryBuilder) And(f Filter) EntityQueryBuilder {
	b.q.Filter = Conjoin(b.q.Filter, f)
	return b
}

// OrderBy appends sort keys to the order chain.
func (b EntityQueryBuilder) OrderBy(o *Order) EntityQueryBuilder {
	b.q.Order = b.q.Order.Clone().Append(o.Clone())
	return b
}

// Page sets the first row and page size.
func (b EntityQueryBuilder) Page(first, size int) EntityQueryBuilder {
	if (first < 0 || size < 0) && b.err == nil {
		b.err = NewInvalidArgument("", "page bounds must not be negative")
	}
	b.q.First = first
	b.q.PageSize = size
	return b
}

// Cache sets the cache-use hint.
func (b EntityQueryBuilder) Cache(use bool) EntityQueryBuilder {
	b.q.UseCache = use
	return b
}

// Count switches count mode.
func (b EntityQueryBuilder) Count(count bool) EntityQueryBuilder {
	b.q.Count = count
	return b
}

// Distinct switches distinct selection.
func (b EntityQueryBuilder) Distinct(distinct bool) EntityQueryBuilder {
	b.q.Distinct = distinct
	return b
}

// Criteria selects the structured predicate path instead of query text.
func (b EntityQueryBuilder) Criteria(use bool) EntityQueryBuilder {
	b.q.UseCriteria = use
	return b
}

// Build validates and returns the query.
func (b EntityQueryBuilder) Build() (EntityQuery, error) {
	if b.err != nil {
		return EntityQuery{}, b.err
	}
	if strings.TrimSpace(b.q.Entity) == "" {
		return EntityQuery{}, NewInvalidArgument("", "entity required")
	}
	if err := CheckAlias(b.q.Alias); err != nil {
		return EntityQuery{}, err
	}
	if err := Check(b.q.Filter); err != nil {
		return EntityQuery{}, err
	}
	q := b.q
	q.Order = q.Order.Clone()
	return q, nil
}
