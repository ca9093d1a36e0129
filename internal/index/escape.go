package index

import (
	"fmt"
	"strings"
	"time"
)

// special lists the characters Lucene's query parser treats as syntax.
const special = `\+-!():^[]"{}~*?|&/`

// EscapeTerm backslash-escapes query syntax and whitespace in a bare term.
func EscapeTerm(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(special, r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Quote renders v as a quoted phrase.
func Quote(v any) string {
	s := FormatValue(v)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// FormatValue renders a bound value the way the index stores it. Times are
// rendered in UTC with second precision.
func FormatValue(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format("2006-01-02T15:04:05Z")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.UTC().Format("2006-01-02T15:04:05Z")
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// rangeBound renders one end of a range: * when open, quoted for strings,
// bare otherwise.
func rangeBound(v any) string {
	switch t := v.(type) {
	case nil:
		return "*"
	case string:
		return Quote(t)
	default:
		return FormatValue(v)
	}
}

// closingParen returns the index of the parenthesis closing the one at
// s[open], honouring quotes and backslash escapes, or -1.
func closingParen(s string, open int) int {
	depth := 0
	inQuote := false
	for i := open; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// isGroup reports whether s is exactly one parenthesized group.
func isGroup(s string) bool {
	return strings.HasPrefix(s, "(") && closingParen(s, 0) == len(s)-1
}

// isBareToken reports whether s is a single term without spaces or groups.
func isBareToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, " ()")
}
