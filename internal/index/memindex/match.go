package memindex

import (
	"cmp"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/twinq/internal/index"
)

type node interface {
	match(doc index.Document) bool
}

type allNode struct{}

func (allNode) match(index.Document) bool { return true }

// occur is how a clause takes part in a boolean group.
type occur int

const (
	occurMust occur = iota
	occurShould
	occurMustNot
)

type clause struct {
	occur occur
	node  node
}

// boolNode is one group of clauses with Lucene semantics: a prohibited
// clause excludes, required clauses must all match, and optional clauses
// need at least one match when nothing is required. A group made only of
// prohibited clauses matches nothing unless it is the whole query, where
// it is taken against every document.
type boolNode struct {
	clauses []clause
	nested  bool
}

func (n boolNode) match(doc index.Document) bool {
	var required, optional, optionalHit bool
	for _, c := range n.clauses {
		hit := c.node.match(doc)
		switch c.occur {
		case occurMustNot:
			if hit {
				return false
			}
		case occurMust:
			required = true
			if !hit {
				return false
			}
		case occurShould:
			optional = true
			optionalHit = optionalHit || hit
		}
	}
	switch {
	case required:
		return true
	case optional:
		return optionalHit
	default:
		return !n.nested
	}
}

// existsNode matches documents holding a non-null value in field.
type existsNode struct{ field string }

func (n existsNode) match(doc index.Document) bool {
	return len(values(doc, n.field)) > 0
}

// termNode matches a phrase, a plain term or a wildcard pattern. Without a
// field it matches text anywhere in the document.
type termNode struct {
	field   string
	text    string
	phrase  bool
	pattern *regexp.Regexp
}

func (n termNode) match(doc index.Document) bool {
	for _, v := range values(doc, n.field) {
		s := index.FormatValue(v)
		switch {
		case n.field == "":
			if containsFold(s, n.text) {
				return true
			}
		case n.pattern != nil:
			if n.pattern.MatchString(s) {
				return true
			}
		case n.phrase:
			if s == n.text {
				return true
			}
		default:
			if strings.EqualFold(s, n.text) {
				return true
			}
		}
	}
	return false
}

type bound struct {
	text   string
	quoted bool
	open   bool
}

func (b bound) finish(text string) bound {
	b.text = text
	b.open = !b.quoted && text == "*"
	return b
}

// rangeNode matches an inclusive range. Numbers and timestamps compare by
// value, everything else lexically.
type rangeNode struct {
	field    string
	from, to bound
}

func (n rangeNode) match(doc index.Document) bool {
	for _, v := range values(doc, n.field) {
		if (n.from.open || compareBound(v, n.from) >= 0) && (n.to.open || compareBound(v, n.to) <= 0) {
			return true
		}
	}
	return false
}

func compareBound(v any, b bound) int {
	if !b.quoted {
		if f, ok := toFloat(v); ok {
			if bf, err := strconv.ParseFloat(b.text, 64); err == nil {
				return cmp.Compare(f, bf)
			}
		}
		if t, ok := v.(time.Time); ok {
			if bt, err := time.Parse(time.RFC3339, b.text); err == nil {
				return t.Compare(bt)
			}
		}
	}
	return strings.Compare(index.FormatValue(v), b.text)
}

// values returns the non-null values of field, expanding multi-valued
// fields. An empty field name yields every value of the document.
func values(doc index.Document, field string) []any {
	if field == "" {
		var out []any
		for _, v := range doc {
			out = append(out, expand(v)...)
		}
		return out
	}
	return expand(doc[field])
}

func expand(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			if e != nil {
				out = append(out, e)
			}
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	default:
		return []any{v}
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// compareValues orders two stored values. Missing values sort last.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(index.FormatValue(a), index.FormatValue(b))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
