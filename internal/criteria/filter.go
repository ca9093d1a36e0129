package criteria

import "strings"

// Filter is the unit of predicate logic shared by both query backends.
//
// This is a sealed interface - only types in this package implement it.
// Renderers dispatch on the concrete type with exhaustive type switches, so
// relational and index rendering stay centralized in their own packages.
//
// Filter kinds:
//   - Equals, Between, In, Like, Null: single-field leaves
//   - FieldEquals: parameterless comparison of two field paths
//   - Coalesce: leaf whose field is wrapped in a null-coalescing function
//   - Exists: correlated sub-query (relational only)
//   - Not: negation of one child
//   - And, Or: boolean groups, arbitrarily nested
type Filter interface {
	filterNode() // Marker method - seals interface to this package

	// Kind names the filter variant.
	Kind() Kind
}

// Kind names a filter variant.
type Kind string

const (
	KindEquals      Kind = "equals"
	KindBetween     Kind = "between"
	KindIn          Kind = "in"
	KindLike        Kind = "like"
	KindNull        Kind = "null"
	KindFieldEquals Kind = "field_equals"
	KindCoalesce    Kind = "coalesce"
	KindExists      Kind = "exists"
	KindNot         Kind = "not"
	KindAnd         Kind = "and"
	KindOr          Kind = "or"
)

// MatchMode selects where the wildcard goes in a Like pattern.
type MatchMode int

const (
	// MatchExact matches the whole value.
	MatchExact MatchMode = iota
	// MatchStart matches values starting with the pattern.
	MatchStart
	// MatchEnd matches values ending with the pattern.
	MatchEnd
	// MatchAnywhere matches values containing the pattern.
	MatchAnywhere
)

// String returns the lower-case mode name.
func (m MatchMode) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchStart:
		return "start"
	case MatchEnd:
		return "end"
	case MatchAnywhere:
		return "anywhere"
	default:
		return "unknown"
	}
}

// ParseMatchMode maps a mode name to a MatchMode. Blank means MatchAnywhere.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return MatchExact, nil
	case "start":
		return MatchStart, nil
	case "end":
		return MatchEnd, nil
	case "", "anywhere":
		return MatchAnywhere, nil
	default:
		return 0, NewInvalidArgument(KindLike, "unknown match mode %q", s)
	}
}

// Wrap applies the mode's wildcard to an already escaped value.
func (m MatchMode) Wrap(value, wildcard string) string {
	switch m {
	case MatchStart:
		return value + wildcard
	case MatchEnd:
		return wildcard + value
	case MatchAnywhere:
		return wildcard + value + wildcard
	default:
		return value
	}
}

// Equals matches rows whose field equals a bound value.
type Equals struct {
	Alias string
	Field string
	Value any
}

// Between matches an inclusive range. A nil bound makes the range one-sided.
type Between struct {
	Alias string
	Field string
	From  any
	To    any
}

// In matches rows whose field is one of a non-empty list of values.
type In struct {
	Alias  string
	Field  string
	Values []any
}

// Like is a case-insensitive pattern match.
type Like struct {
	Alias string
	Field string
	Value string
	Mode  MatchMode
}

// Null matches rows where the field is absent.
type Null struct {
	Alias string
	Field string
}

// FieldEquals compares a field with another field path without binding a
// parameter, e.g. to correlate an Exists sub-query with its outer query.
type FieldEquals struct {
	Alias string
	Field string
	Other string
}

// Coalesce renders its inner filter with the field replaced by
// coalesce(field, Default). The inner filter must be Equals, Between, In or Like.
type Coalesce struct {
	Filter  Filter
	Default any
}

// Exists matches when the sub-query selects at least one row.
type Exists struct {
	Query EntityQuery
}

// Not negates its child.
type Not struct {
	Filter Filter
}

// And matches when every child matches.
type And struct {
	Alias   string
	Filters []Filter
}

// Or matches when at least one child matches.
type Or struct {
	Alias   string
	Filters []Filter
}

func (Equals) filterNode()      {}
func (Between) filterNode()     {}
func (In) filterNode()          {}
func (Like) filterNode()        {}
func (Null) filterNode()        {}
func (FieldEquals) filterNode() {}
func (Coalesce) filterNode()    {}
func (Exists) filterNode()      {}
func (Not) filterNode()         {}
func (And) filterNode()         {}
func (Or) filterNode()          {}

func (Equals) Kind() Kind      { return KindEquals }
func (Between) Kind() Kind     { return KindBetween }
func (In) Kind() Kind          { return KindIn }
func (Like) Kind() Kind        { return KindLike }
func (Null) Kind() Kind        { return KindNull }
func (FieldEquals) Kind() Kind { return KindFieldEquals }
func (Coalesce) Kind() Kind    { return KindCoalesce }
func (Exists) Kind() Kind      { return KindExists }
func (Not) Kind() Kind         { return KindNot }
func (And) Kind() Kind         { return KindAnd }
func (Or) Kind() Kind          { return KindOr }

// NewEquals creates an equality filter. The value is required.
func NewEquals(field string, value any) (Equals, error) {
	f := Equals{Field: field, Value: value}
	return f, checkEquals(f)
}

// NewBetween creates a range filter. At least one bound is required.
func NewBetween(field string, from, to any) (Between, error) {
	f := Between{Field: field, From: from, To: to}
	return f, checkBetween(f)
}

// NewIn creates a membership filter over a non-empty value list.
func NewIn(field string, values ...any) (In, error) {
	f := In{Field: field, Values: append([]any(nil), values...)}
	return f, checkIn(f)
}

// NewLike creates a case-insensitive pattern filter.
func NewLike(field, value string, mode MatchMode) (Like, error) {
	f := Like{Field: field, Value: value, Mode: mode}
	return f, checkLike(f)
}

// NewNull creates a null-check filter.
func NewNull(field string) (Null, error) {
	f := Null{Field: field}
	return f, checkField(KindNull, field)
}

// NewFieldEquals creates a parameterless field comparison.
func NewFieldEquals(field, other string) (FieldEquals, error) {
	f := FieldEquals{Field: field, Other: other}
	return f, checkFieldEquals(f)
}

// NewCoalesce wraps a single-field filter's field in a null-coalescing function.
func NewCoalesce(inner Filter, defaultValue any) (Coalesce, error) {
	f := Coalesce{Filter: inner, Default: defaultValue}
	return f, checkCoalesce(f)
}

// NewExists creates an existence filter over a built sub-query.
func NewExists(q EntityQuery) (Exists, error) {
	f := Exists{Query: q}
	return f, checkExists(f)
}

// NewNot negates a filter.
func NewNot(child Filter) (Not, error) {
	if child == nil {
		return Not{}, NewInvalidArgument(KindNot, "filter required")
	}
	return Not{Filter: child}, nil
}

// NewAnd creates a conjunction. Nil filters are dropped.
func NewAnd(filters ...Filter) And {
	return And{Filters: compact(filters)}
}

// NewOr creates a disjunction. Nil filters are dropped.
func NewOr(filters ...Filter) Or {
	return Or{Filters: compact(filters)}
}

// Add returns a copy of the group with f appended. A child without an alias
// takes the group's alias.
func (g And) Add(f Filter) And {
	if f == nil {
		return g
	}
	g.Filters = append(append([]Filter(nil), g.Filters...), inherit(f, g.Alias))
	return g
}

// Add returns a copy of the group with f appended. A child without an alias
// takes the group's alias.
func (g Or) Add(f Filter) Or {
	if f == nil {
		return g
	}
	g.Filters = append(append([]Filter(nil), g.Filters...), inherit(f, g.Alias))
	return g
}

// Conjoin combines two optional filters with AND. Either may be nil.
// An existing And absorbs the new filter instead of nesting.
func Conjoin(a, b Filter) Filter {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	if g, ok := a.(And); ok {
		return g.Add(b)
	}
	return NewAnd(a, b)
}

// Flatten expands nested And groups into their leaves and non-And subtrees,
// in render order. Any other filter is returned as a single element.
func Flatten(f Filter) []Filter {
	if f == nil {
		return nil
	}
	g, ok := f.(And)
	if !ok {
		return []Filter{f}
	}
	var out []Filter
	for _, child := range g.Filters {
		if child == nil {
			continue
		}
		out = append(out, Flatten(child)...)
	}
	return out
}

// ID builds an equality on the entity's primary key, resolved through keys.
func ID(keys KeyResolver, entity, alias string, value any) (Equals, error) {
	pk, err := keys.PrimaryKey(entity)
	if err != nil {
		return Equals{}, err
	}
	f, err := NewEquals(pk, value)
	if err != nil {
		return Equals{}, err
	}
	f.Alias = alias
	return f, nil
}

// KeyResolver resolves an entity's primary-key field name.
type KeyResolver interface {
	PrimaryKey(entity string) (string, error)
}

func compact(filters []Filter) []Filter {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}
