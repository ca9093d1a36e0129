package relational

import (
	"fmt"
	"strings"
)

// Positional replaces every :name marker in text with ? and returns the
// matching values in order of appearance. Quoted literals are copied
// verbatim and a doubled colon (a cast) is not treated as a marker.
func Positional(text string, params []Param) (string, []any, error) {
	named := make(map[string]any, len(params))
	for _, p := range params {
		named[p.Name] = p.Value
	}

	var sb strings.Builder
	sb.Grow(len(text))
	var args []any
	inQuote := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			sb.WriteByte(c)
		case inQuote:
			sb.WriteByte(c)
		case c == ':' && i+1 < len(text) && text[i+1] == ':':
			sb.WriteString("::")
			i++
		case c == ':' && i+1 < len(text) && isNameStart(text[i+1]):
			j := i + 1
			for j < len(text) && isNamePart(text[j]) {
				j++
			}
			name := text[i+1 : j]
			value, ok := named[name]
			if !ok {
				return "", nil, fmt.Errorf("no value bound for parameter %q", name)
			}
			sb.WriteByte('?')
			args = append(args, value)
			i = j - 1
		default:
			sb.WriteByte(c)
		}
	}

	return sb.String(), args, nil
}

func isNameStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNamePart(c byte) bool {
	return isNameStart(c) || ('0' <= c && c <= '9')
}
