package memindex

import (
	"errors"
	"fmt"
)

// Lexer errors.
var (
	ErrUnterminatedPhrase = errors.New("unterminated phrase")
	ErrInvalidEscape      = errors.New("invalid escape sequence")
)

// Parser errors.
var (
	ErrUnmatchedParen  = errors.New("unmatched parenthesis")
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrInvalidRange    = errors.New("invalid range")
	ErrInvalidPattern  = errors.New("invalid pattern")
)

// ParseError reports a malformed query with its byte offset.
type ParseError struct {
	Pos     int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(pos int, err error, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Message: fmt.Sprintf(format, args...), Err: err}
}
