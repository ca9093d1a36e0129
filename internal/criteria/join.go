package criteria

import "slices"

// JoinKind selects how a related entity widens the query.
type JoinKind int

const (
	// JoinScalar adds the entity to FROM and correlates it in WHERE.
	JoinScalar JoinKind = iota
	// JoinInner behaves like JoinScalar in the rendered text.
	JoinInner
	// JoinLeftOuter renders a left outer join clause.
	JoinLeftOuter
)

// String returns the join kind name.
func (k JoinKind) String() string {
	switch k {
	case JoinScalar:
		return "scalar"
	case JoinInner:
		return "inner"
	case JoinLeftOuter:
		return "left_outer"
	default:
		return "unknown"
	}
}

// ParseJoinKind maps a name to a JoinKind.
func ParseJoinKind(s string) (JoinKind, error) {
	switch s {
	case "scalar":
		return JoinScalar, nil
	case "inner", "":
		return JoinInner, nil
	case "left", "left_outer":
		return JoinLeftOuter, nil
	default:
		return 0, NewInvalidArgument("", "unknown join kind %q", s)
	}
}

// Join relates the root entity to an adjoining entity.
//
// Inner and scalar joins list the adjoining entity in FROM and contribute
// RootAlias.RootField = AdjoiningAlias.AdjoiningField to WHERE. Left outer
// joins contribute a join clause keyed on RootAlias.RootField; when
// AdjoiningEntity and AdjoiningField are set the clause carries an explicit
// ON condition, otherwise it is a path join.
type Join struct {
	Kind            JoinKind
	RootAlias       string
	RootField       string
	AdjoiningAlias  string
	AdjoiningEntity string
	AdjoiningField  string
}

// InnerJoin creates an inner join.
func InnerJoin(rootAlias, rootField, entity, alias, field string) Join {
	return Join{Kind: JoinInner, RootAlias: rootAlias, RootField: rootField,
		AdjoiningAlias: alias, AdjoiningEntity: entity, AdjoiningField: field}
}

// ScalarJoin creates an implicit scalar join.
func ScalarJoin(rootAlias, rootField, entity, alias, field string) Join {
	return Join{Kind: JoinScalar, RootAlias: rootAlias, RootField: rootField,
		AdjoiningAlias: alias, AdjoiningEntity: entity, AdjoiningField: field}
}

// LeftJoin creates a left outer path join on rootAlias.rootField.
func LeftJoin(rootAlias, rootField, alias string) Join {
	return Join{Kind: JoinLeftOuter, RootAlias: rootAlias, RootField: rootField, AdjoiningAlias: alias}
}

// LeftJoinOn creates a left outer join with an explicit ON condition.
func LeftJoinOn(rootAlias, rootField, entity, alias, field string) Join {
	return Join{Kind: JoinLeftOuter, RootAlias: rootAlias, RootField: rootField,
		AdjoiningAlias: alias, AdjoiningEntity: entity, AdjoiningField: field}
}

// IsPath reports whether a left outer join navigates a mapped association
// instead of naming the adjoining entity.
func (j Join) IsPath() bool {
	return j.Kind == JoinLeftOuter && (j.AdjoiningEntity == "" || j.AdjoiningField == "")
}

// WithAliasPrefix returns the join with both aliases prefixed.
func (j Join) WithAliasPrefix(prefix string) Join {
	j.RootAlias = PrefixAlias(j.RootAlias, prefix)
	j.AdjoiningAlias = PrefixAlias(j.AdjoiningAlias, prefix)
	return j
}

func (j Join) check() error {
	if j.RootField == "" || j.AdjoiningAlias == "" {
		return NewInvalidArgument("", "join requires a root field and an adjoining alias")
	}
	if j.Kind != JoinLeftOuter && (j.AdjoiningEntity == "" || j.AdjoiningField == "") {
		return NewInvalidArgument("", "%s join requires an adjoining entity and field", j.Kind)
	}
	if err := CheckAlias(j.AdjoiningAlias); err != nil {
		return err
	}
	return nil
}

// JoinSet holds unique joins in first-declared order.
// The zero value is an empty set. Add returns a new set.
type JoinSet struct {
	joins []Join
}

// NewJoinSet creates a set from joins, dropping duplicates.
func NewJoinSet(joins ...Join) JoinSet {
	var s JoinSet
	for _, j := range joins {
		s = s.Add(j)
	}
	return s
}

// Add returns a set containing j. Adding a join equal to one already present
// returns the set unchanged.
func (s JoinSet) Add(j Join) JoinSet {
	if slices.Contains(s.joins, j) {
		return s
	}
	return JoinSet{joins: append(slices.Clone(s.joins), j)}
}

// Len returns the number of joins.
func (s JoinSet) Len() int {
	return len(s.joins)
}

// All returns the joins in declaration order.
func (s JoinSet) All() []Join {
	return slices.Clone(s.joins)
}

// Of returns the joins of one kind in declaration order.
func (s JoinSet) Of(kinds ...JoinKind) []Join {
	var out []Join
	for _, j := range s.joins {
		if slices.Contains(kinds, j.Kind) {
			out = append(out, j)
		}
	}
	return out
}

// WithAliasPrefix returns a set with every join's aliases prefixed.
func (s JoinSet) WithAliasPrefix(prefix string) JoinSet {
	var out JoinSet
	for _, j := range s.joins {
		out = out.Add(j.WithAliasPrefix(prefix))
	}
	return out
}
