package memindex

import (
	"regexp"
	"strings"
)

// parser reads the Lucene subset the index renderer produces.
//
// Grammar (EBNF):
//
//	query   = group EOF
//	group   = clause ( [ "AND" | "OR" ] clause )*
//	clause  = [ "-" | "NOT" ] primary
//	primary = "(" group ")" | range | field ":" value | PHRASE | WORD
//	value   = "*" | "(" group ")" | primary
//	range   = "[" bound "TO" bound "]"
//
// Each group becomes one boolean node. Clause occurrence follows the
// Lucene query parser with AND as the default operator: AND makes both
// neighbours required, OR makes both optional and a minus prohibits.
// A value group such as status:("a" OR "b") applies the field to every term
// inside it.
type parser struct {
	lex *lexer
	cur token
}

// conjunction links a clause to the one before it.
type conjunction int

const (
	conjNone conjunction = iota
	conjAnd
	conjOr
)

func parse(input string) (node, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return allNode{}, nil
	}

	p := &parser{lex: &lexer{input: input}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseGroup("", false)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, newParseError(p.cur.pos, ErrUnexpectedToken, "unexpected token: %s", p.cur.kind)
	}
	return expr, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

// parseGroup reads clauses up to a closing parenthesis or the end of input.
// nested is false only for the whole query.
func (p *parser) parseGroup(field string, nested bool) (node, error) {
	var clauses []clause
	for p.cur.kind != tokEOF && p.cur.kind != tokRParen {
		conj := conjAnd
		if len(clauses) == 0 {
			conj = conjNone
		}
		if p.cur.kind == tokAnd || p.cur.kind == tokOr {
			if len(clauses) == 0 {
				return nil, newParseError(p.cur.pos, ErrUnexpectedToken, "unexpected token: %s", p.cur.kind)
			}
			if p.cur.kind == tokOr {
				conj = conjOr
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}

		prohibited := false
		if p.cur.kind == tokMinus || p.cur.kind == tokNot {
			prohibited = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}

		n, err := p.parsePrimary(field)
		if err != nil {
			return nil, err
		}
		clauses = addClause(clauses, conj, prohibited, n)
	}

	if len(clauses) == 0 {
		return nil, newParseError(p.cur.pos, ErrUnexpectedToken, "unexpected token: %s", p.cur.kind)
	}
	if len(clauses) == 1 && clauses[0].occur != occurMustNot {
		return clauses[0].node, nil
	}
	return boolNode{clauses: clauses, nested: nested}, nil
}

// addClause appends n and adjusts the previous clause for the conjunction
// between them. A prohibited clause is never changed.
func addClause(clauses []clause, conj conjunction, prohibited bool, n node) []clause {
	if last := len(clauses) - 1; last >= 0 && clauses[last].occur != occurMustNot {
		switch conj {
		case conjAnd:
			clauses[last].occur = occurMust
		case conjOr:
			clauses[last].occur = occurShould
		}
	}

	c := clause{occur: occurMust, node: n}
	switch {
	case prohibited:
		c.occur = occurMustNot
	case conj == conjOr:
		c.occur = occurShould
	}
	return append(clauses, c)
}

// parseParens reads a parenthesized group; the opening parenthesis is the
// current token.
func (p *parser) parseParens(field string) (node, error) {
	open := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}
	inner, err := p.parseGroup(field, true)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokRParen {
		return nil, newParseError(open.pos, ErrUnmatchedParen, "unmatched parenthesis")
	}
	return inner, p.advance()
}

func (p *parser) parsePrimary(field string) (node, error) {
	tok := p.cur
	switch tok.kind {
	case tokLParen:
		return p.parseParens(field)
	case tokLBrack:
		return p.parseRange(field)
	case tokPhrase:
		return termNode{field: field, text: tok.lit, phrase: true}, p.advance()
	case tokWord:
		if field == "" && p.atColon() {
			return p.parseField(tok.lit)
		}
		n, err := newTerm(field, tok)
		if err != nil {
			return nil, err
		}
		return n, p.advance()
	default:
		return nil, newParseError(tok.pos, ErrUnexpectedToken, "unexpected token: %s", tok.kind)
	}
}

// atColon reports whether the word just scanned is directly followed by a
// field separator.
func (p *parser) atColon() bool {
	return p.lex.pos < len(p.lex.input) && p.lex.input[p.lex.pos] == ':'
}

func (p *parser) parseField(field string) (node, error) {
	if err := p.advance(); err != nil { // colon
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.kind == tokWord && p.cur.lit == "*" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if field == "*" {
			return allNode{}, nil
		}
		return existsNode{field: field}, nil
	}
	return p.parsePrimary(field)
}

func (p *parser) parseRange(field string) (node, error) {
	start := p.cur.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	from, err := p.parseBound(start)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokWord || p.cur.lit != "TO" {
		return nil, newParseError(p.cur.pos, ErrInvalidRange, "expected TO")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	to, err := p.parseBound(start)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokRBrack {
		return nil, newParseError(p.cur.pos, ErrInvalidRange, "expected ]")
	}
	return rangeNode{field: field, from: from, to: to}, p.advance()
}

// parseBound joins the tokens of one range end. Bounds carry no whitespace,
// so a timestamp split at its colons is reassembled here.
func (p *parser) parseBound(start int) (bound, error) {
	var b bound
	var sb strings.Builder
	seen := false
	for {
		switch p.cur.kind {
		case tokPhrase:
			b.quoted = true
			sb.WriteString(p.cur.lit)
		case tokWord:
			if p.cur.lit == "TO" && seen {
				return b.finish(sb.String()), nil
			}
			sb.WriteString(p.cur.lit)
		case tokColon, tokMinus:
			sb.WriteString(p.cur.lit)
		case tokRBrack:
			if !seen {
				return b, newParseError(p.cur.pos, ErrInvalidRange, "empty bound")
			}
			return b.finish(sb.String()), nil
		default:
			return b, newParseError(start, ErrInvalidRange, "unterminated range")
		}
		seen = true
		if err := p.advance(); err != nil {
			return b, err
		}
	}
}

func newTerm(field string, tok token) (node, error) {
	t := termNode{field: field, text: tok.lit}
	if tok.glob != "" {
		if tok.lit == "*" {
			if field == "" {
				return allNode{}, nil
			}
			return existsNode{field: field}, nil
		}
		re, err := regexp.Compile(tok.glob)
		if err != nil {
			return nil, newParseError(tok.pos, ErrInvalidPattern, "invalid pattern %q", tok.lit)
		}
		t.pattern = re
	}
	return t, nil
}
