package criteria

import (
	"fmt"
	"strings"
)

// Describe renders a filter tree as a compact, backend-neutral string for logs
// and diagnostics, e.g. and(eq(u.status, active), not(null(u.deletedAt))).
func Describe(f Filter) string {
	var sb strings.Builder
	describe(&sb, f)
	return sb.String()
}

func describe(sb *strings.Builder, f Filter) {
	switch v := f.(type) {
	case nil:
		sb.WriteString("<nil>")
	case Equals:
		fmt.Fprintf(sb, "eq(%s, %v)", Ref(v.Alias, v.Field), v.Value)
	case Between:
		fmt.Fprintf(sb, "between(%s, %s, %s)", Ref(v.Alias, v.Field), bound(v.From), bound(v.To))
	case In:
		fmt.Fprintf(sb, "in(%s, %v)", Ref(v.Alias, v.Field), v.Values)
	case Like:
		fmt.Fprintf(sb, "like(%s, %q, %s)", Ref(v.Alias, v.Field), v.Value, v.Mode)
	case Null:
		fmt.Fprintf(sb, "null(%s)", Ref(v.Alias, v.Field))
	case FieldEquals:
		fmt.Fprintf(sb, "eq(%s, %s)", Ref(v.Alias, v.Field), v.Other)
	case Coalesce:
		fmt.Fprintf(sb, "coalesce(%v, ", v.Default)
		describe(sb, v.Filter)
		sb.WriteString(")")
	case Exists:
		fmt.Fprintf(sb, "exists(%s %s where ", v.Query.Entity, v.Query.Alias)
		describe(sb, v.Query.Filter)
		sb.WriteString(")")
	case Not:
		sb.WriteString("not(")
		describe(sb, v.Filter)
		sb.WriteString(")")
	case And:
		describeGroup(sb, "and", v.Filters)
	case Or:
		describeGroup(sb, "or", v.Filters)
	default:
		fmt.Fprintf(sb, "%T", f)
	}
}

func describeGroup(sb *strings.Builder, op string, filters []Filter) {
	sb.WriteString(op)
	sb.WriteString("(")
	for i, child := range filters {
		if i > 0 {
			sb.WriteString(", ")
		}
		describe(sb, child)
	}
	sb.WriteString(")")
}

func bound(v any) string {
	if v == nil {
		return "*"
	}
	return fmt.Sprint(v)
}
