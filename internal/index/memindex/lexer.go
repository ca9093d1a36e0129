package memindex

import (
	"regexp"
	"strings"
)

type tokenKind int

const (
	tokEOF    tokenKind = iota
	tokWord             // bare term, escapes processed
	tokPhrase           // quoted phrase, quotes stripped
	tokColon            // :
	tokLParen           // (
	tokRParen           // )
	tokLBrack           // [
	tokRBrack           // ]
	tokMinus            // - prefix
	tokAnd              // AND
	tokOr               // OR
	tokNot              // NOT
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "EOF"
	case tokWord:
		return "WORD"
	case tokPhrase:
		return "PHRASE"
	case tokColon:
		return ":"
	case tokLParen:
		return "("
	case tokRParen:
		return ")"
	case tokLBrack:
		return "["
	case tokRBrack:
		return "]"
	case tokMinus:
		return "-"
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokNot:
		return "NOT"
	default:
		return "UNKNOWN"
	}
}

type token struct {
	kind tokenKind
	lit  string // unescaped text
	glob string // anchored regexp when the word carries unescaped wildcards
	pos  int
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	switch ch := l.input[l.pos]; ch {
	case '(':
		l.pos++
		return token{kind: tokLParen, lit: "(", pos: start}, nil
	case ')':
		l.pos++
		return token{kind: tokRParen, lit: ")", pos: start}, nil
	case '[':
		l.pos++
		return token{kind: tokLBrack, lit: "[", pos: start}, nil
	case ']':
		l.pos++
		return token{kind: tokRBrack, lit: "]", pos: start}, nil
	case ':':
		l.pos++
		return token{kind: tokColon, lit: ":", pos: start}, nil
	case '-':
		l.pos++
		return token{kind: tokMinus, lit: "-", pos: start}, nil
	case '"':
		return l.scanPhrase()
	}
	return l.scanWord()
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) scanPhrase() (token, error) {
	start := l.pos
	l.pos++

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '"':
			l.pos++
			return token{kind: tokPhrase, lit: sb.String(), pos: start}, nil
		case ch == '\\' && l.pos+1 < len(l.input):
			sb.WriteByte(l.input[l.pos+1])
			l.pos += 2
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}
	return token{}, newParseError(start, ErrUnterminatedPhrase, "unterminated phrase")
}

// scanWord reads a bare term up to whitespace or an unescaped delimiter.
// Unescaped * and ? are wildcards; escaped characters are literal.
func (l *lexer) scanWord() (token, error) {
	start := l.pos

	var lit, re strings.Builder
	wild := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\\' {
			if l.pos+1 >= len(l.input) {
				return token{}, newParseError(l.pos, ErrInvalidEscape, "dangling escape")
			}
			esc := l.input[l.pos+1]
			lit.WriteByte(esc)
			re.WriteString(regexp.QuoteMeta(string(esc)))
			l.pos += 2
			continue
		}
		if isDelimiter(ch) {
			break
		}
		switch ch {
		case '*':
			wild = true
			re.WriteString(".*")
		case '?':
			wild = true
			re.WriteByte('.')
		default:
			re.WriteString(regexp.QuoteMeta(string(ch)))
		}
		lit.WriteByte(ch)
		l.pos++
	}

	tok := token{kind: tokWord, lit: lit.String(), pos: start}
	if wild {
		tok.glob = "(?is)^" + re.String() + "$"
	}
	switch tok.lit {
	case "AND", "&&":
		tok.kind = tokAnd
	case "OR", "||":
		tok.kind = tokOr
	case "NOT":
		tok.kind = tokNot
	}
	return tok, nil
}

func isDelimiter(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '(', ')', '[', ']', ':', '"':
		return true
	}
	return false
}
