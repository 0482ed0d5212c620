package expr

import "fmt"

// SyntaxError describes a malformed expression with a source position.
// It is always recoverable: the caller surfaces it inline at the field.
type SyntaxError struct {
	// Pos is the source position of the offending token
	Pos Position
	// Msg is the human-readable description
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at column %d: %s", e.Pos.Column, e.Msg)
}

// syntaxErrorf builds a SyntaxError at the given position.
func syntaxErrorf(pos Position, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
