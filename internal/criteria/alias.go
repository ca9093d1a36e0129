package criteria

import "strings"

// AliasSeparator joins a prefix to an alias. Caller-supplied aliases may not
// contain it.
const AliasSeparator = "_"

// Ref returns the rendered field reference: "alias.field", or the bare field
// when alias is blank.
func Ref(alias, field string) string {
	if strings.TrimSpace(alias) == "" {
		return field
	}
	return alias + "." + field
}

// PrefixAlias prepends prefix to alias. Blank aliases stay blank, and an
// alias that already carries the prefix is returned unchanged.
func PrefixAlias(alias, prefix string) string {
	if alias == "" || prefix == "" {
		return alias
	}
	if strings.HasPrefix(alias, prefix+AliasSeparator) {
		return alias
	}
	return prefix + AliasSeparator + alias
}

// CheckAlias rejects aliases containing the reserved separator or whitespace.
func CheckAlias(alias string) error {
	if strings.Contains(alias, AliasSeparator) {
		return NewInvalidArgument("", "alias %q must not contain %q", alias, AliasSeparator)
	}
	if strings.ContainsAny(alias, " \t\r\n.") {
		return NewInvalidArgument("", "alias %q must be a single identifier", alias)
	}
	return nil
}

// SetAlias returns f with its alias set.
//
// Leaves take the alias unconditionally. Groups take the alias and pass it
// down to every descendant that has none (first alias wins). Not and Coalesce
// delegate to their child. Exists is returned unchanged: its sub-query is
// prefixed with the outer alias when rendered.
func SetAlias(f Filter, alias string) Filter {
	switch v := f.(type) {
	case Equals:
		v.Alias = alias
		return v
	case Between:
		v.Alias = alias
		return v
	case In:
		v.Alias = alias
		return v
	case Like:
		v.Alias = alias
		return v
	case Null:
		v.Alias = alias
		return v
	case FieldEquals:
		v.Alias = alias
		return v
	case Coalesce:
		v.Filter = SetAlias(v.Filter, alias)
		return v
	case Not:
		v.Filter = SetAlias(v.Filter, alias)
		return v
	case And:
		v.Alias = alias
		v.Filters = inheritAll(v.Filters, alias)
		return v
	case Or:
		v.Alias = alias
		v.Filters = inheritAll(v.Filters, alias)
		return v
	default:
		return f
	}
}

// AliasOf returns the alias carried by f, looking through Not and Coalesce.
func AliasOf(f Filter) string {
	switch v := f.(type) {
	case Equals:
		return v.Alias
	case Between:
		return v.Alias
	case In:
		return v.Alias
	case Like:
		return v.Alias
	case Null:
		return v.Alias
	case FieldEquals:
		return v.Alias
	case Coalesce:
		return AliasOf(v.Filter)
	case Not:
		return AliasOf(v.Filter)
	case And:
		return v.Alias
	case Or:
		return v.Alias
	default:
		return ""
	}
}

// AddAliasPrefix rewrites every non-blank alias in the tree with PrefixAlias.
// Applying the same prefix twice is a no-op. Exists sub-queries are left
// alone; they are prefixed relative to their outer alias at render time.
func AddAliasPrefix(f Filter, prefix string) Filter {
	switch v := f.(type) {
	case Equals:
		v.Alias = PrefixAlias(v.Alias, prefix)
		return v
	case Between:
		v.Alias = PrefixAlias(v.Alias, prefix)
		return v
	case In:
		v.Alias = PrefixAlias(v.Alias, prefix)
		return v
	case Like:
		v.Alias = PrefixAlias(v.Alias, prefix)
		return v
	case Null:
		v.Alias = PrefixAlias(v.Alias, prefix)
		return v
	case FieldEquals:
		v.Alias = PrefixAlias(v.Alias, prefix)
		return v
	case Coalesce:
		v.Filter = AddAliasPrefix(v.Filter, prefix)
		return v
	case Not:
		v.Filter = AddAliasPrefix(v.Filter, prefix)
		return v
	case And:
		v.Alias = PrefixAlias(v.Alias, prefix)
		v.Filters = prefixAll(v.Filters, prefix)
		return v
	case Or:
		v.Alias = PrefixAlias(v.Alias, prefix)
		v.Filters = prefixAll(v.Filters, prefix)
		return v
	default:
		return f
	}
}

// inherit assigns alias to f and its descendants where no alias is set yet.
func inherit(f Filter, alias string) Filter {
	if alias == "" {
		return f
	}
	switch v := f.(type) {
	case And:
		if v.Alias != "" {
			return v
		}
		v.Alias = alias
		v.Filters = inheritAll(v.Filters, alias)
		return v
	case Or:
		if v.Alias != "" {
			return v
		}
		v.Alias = alias
		v.Filters = inheritAll(v.Filters, alias)
		return v
	case Not:
		v.Filter = inherit(v.Filter, alias)
		return v
	case Coalesce:
		v.Filter = inherit(v.Filter, alias)
		return v
	case Exists:
		return v
	}
	if AliasOf(f) != "" {
		return f
	}
	return SetAlias(f, alias)
}

func inheritAll(filters []Filter, alias string) []Filter {
	out := make([]Filter, len(filters))
	for i, child := range filters {
		out[i] = inherit(child, alias)
	}
	return out
}

func prefixAll(filters []Filter, prefix string) []Filter {
	out := make([]Filter, len(filters))
	for i, child := range filters {
		out[i] = AddAliasPrefix(child, prefix)
	}
	return out
}
