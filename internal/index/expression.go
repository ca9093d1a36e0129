package index

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/twinq/internal/criteria"
)

// expression renders f in Lucene syntax. Leaves are parenthesized; an AND
// group is a bare conjunction and an OR group is parenthesized. A purely
// negative result is only valid as a whole query, so nested negative clauses
// are anchored to *:* (see nested).
func expression(f criteria.Filter) (string, error) {
	expr, _, err := render(f)
	return expr, err
}

// render returns the Lucene form of f and whether it is purely negative, that
// is made only of prohibited clauses.
func render(f criteria.Filter) (string, bool, error) {
	switch v := f.(type) {
	case criteria.Equals:
		return "(" + v.Field + ":" + Quote(v.Value) + ")", false, nil
	case criteria.Between:
		return "(" + v.Field + ":[" + rangeBound(v.From) + " TO " + rangeBound(v.To) + "])", false, nil
	case criteria.In:
		values := make([]string, len(v.Values))
		for i, value := range v.Values {
			values[i] = Quote(value)
		}
		return "(" + v.Field + ":(" + strings.Join(values, " OR ") + "))", false, nil
	case criteria.Like:
		return "(" + v.Field + ":" + LikeTerm(v.Value, v.Mode) + ")", false, nil
	case criteria.Null:
		return "-(" + v.Field + ":*)", true, nil
	case criteria.Not:
		return negation(v)
	case criteria.And:
		return and(v.Filters)
	case criteria.Or:
		return or(v.Filters)
	case criteria.Coalesce, criteria.Exists, criteria.FieldEquals:
		return "", false, criteria.NewUnsupported(f.Kind(), criteria.BackendIndex)
	case nil:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("unsupported filter type: %T", f)
	}
}

// and joins the children as bare clauses. Prohibited clauses are fine next
// to a required one; the conjunction is negative when every part is.
func and(filters []criteria.Filter) (string, bool, error) {
	parts := make([]string, 0, len(filters))
	negative := true
	for _, child := range filters {
		expr, neg, err := render(child)
		if err != nil {
			return "", false, err
		}
		if expr == "" {
			continue
		}
		negative = negative && neg
		parts = append(parts, expr)
	}
	if len(parts) == 0 {
		return "", false, nil
	}
	return strings.Join(parts, " AND "), negative, nil
}

// or groups the children as optional clauses. An optional clause cannot
// be purely negative, so negative children are anchored first.
func or(filters []criteria.Filter) (string, bool, error) {
	parts := make([]string, 0, len(filters))
	for _, child := range filters {
		expr, neg, err := render(child)
		if err != nil {
			return "", false, err
		}
		if expr == "" {
			continue
		}
		switch {
		case neg:
			expr = nested(expr)
		case isAnd(child):
			expr = "(" + expr + ")"
		}
		parts = append(parts, expr)
	}
	if len(parts) == 0 {
		return "", false, nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", false, nil
}

func isAnd(f criteria.Filter) bool {
	_, ok := f.(criteria.And)
	return ok
}

// nested anchors a purely negative expression to the full document set so it
// keeps its meaning inside a group. Lucene matches nothing for a nested
// group made only of prohibited clauses.
func nested(expr string) string {
	return "(*:* " + expr + ")"
}

// negation renders Not. Double negations collapse structurally: Not(Not(f))
// renders f and Not(Null) renders the positive presence check. A negative
// child that is a single negated term or group loses its minus; any other
// negative child is anchored before being negated again.
func negation(n criteria.Not) (string, bool, error) {
	switch child := n.Filter.(type) {
	case criteria.Not:
		return render(child.Filter)
	case criteria.Null:
		return "(" + child.Field + ":*)", false, nil
	}

	expr, neg, err := render(n.Filter)
	if err != nil || expr == "" {
		return "", false, err
	}
	if neg {
		if rest, ok := strings.CutPrefix(expr, "-"); ok && (isGroup(rest) || isBareToken(rest)) {
			return rest, false, nil
		}
		return "-" + nested(expr), true, nil
	}
	if isGroup(expr) {
		return "-" + expr, true, nil
	}
	return "-(" + expr + ")", true, nil
}

// LikeTerm lower-cases and escapes value and applies the match mode with the
// * wildcard. An exact match on an empty value renders an empty phrase.
func LikeTerm(value string, mode criteria.MatchMode) string {
	// A Caser is stateful and must not be shared between goroutines.
	lowered := cases.Lower(language.Und).String(norm.NFC.String(value))
	term := mode.Wrap(EscapeTerm(lowered), "*")
	if term == "" {
		return `""`
	}
	if term == "**" {
		return "*"
	}
	return term
}
