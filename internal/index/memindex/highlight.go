package memindex

import (
	"strings"

	"github.com/roach88/twinq/internal/index"
)

// HighlightKey is the document field used to key highlighting snippets.
const HighlightKey = "id"

// highlight marks the free-text terms of the query in the string fields of
// docs. Documents without an id are skipped.
func highlight(docs []index.Document, query node) map[string]map[string][]string {
	terms := freeTerms(query)
	if len(terms) == 0 {
		return nil
	}

	out := make(map[string]map[string][]string)
	for _, d := range docs {
		id, ok := d[HighlightKey]
		if !ok {
			continue
		}
		fields := make(map[string][]string)
		for field, v := range d {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if snippet, ok := mark(s, terms); ok {
				fields[field] = []string{snippet}
			}
		}
		if len(fields) > 0 {
			out[index.FormatValue(id)] = fields
		}
	}
	return out
}

// freeTerms collects the unfielded, non-negated terms of a query.
func freeTerms(n node) []string {
	switch t := n.(type) {
	case termNode:
		if t.field == "" && t.text != "" {
			return []string{t.text}
		}
	case boolNode:
		var out []string
		for _, c := range t.clauses {
			if c.occur != occurMustNot {
				out = append(out, freeTerms(c.node)...)
			}
		}
		return out
	}
	return nil
}

// mark wraps every case-insensitive occurrence of the terms in <em> tags.
func mark(s string, terms []string) (string, bool) {
	lower := strings.ToLower(s)
	if len(lower) != len(s) {
		return "", false
	}
	hits := make([]bool, len(s))
	found := false
	for _, term := range terms {
		t := strings.ToLower(term)
		for from := 0; ; {
			i := strings.Index(lower[from:], t)
			if i < 0 {
				break
			}
			for j := from + i; j < from+i+len(t); j++ {
				hits[j] = true
			}
			found = true
			from += i + len(t)
		}
	}
	if !found {
		return "", false
	}

	var sb strings.Builder
	open := false
	for i := 0; i < len(s); i++ {
		if hits[i] != open {
			if hits[i] {
				sb.WriteString("<em>")
			} else {
				sb.WriteString("</em>")
			}
			open = hits[i]
		}
		sb.WriteByte(s[i])
	}
	if open {
		sb.WriteString("</em>")
	}
	return sb.String(), true
}
