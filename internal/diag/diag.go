package diag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Position is a 1-based source location. The zero value means "unknown".
type Position struct {
	Line   int
	Column int
}

func (p Position) Known() bool { return p.Line > 0 && p.Column > 0 }

func (p Position) String() string {
	if !p.Known() {
		return ""
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ScanError reports input the lexer cannot turn into a token.
type ScanError struct {
	Message string
	Pos     Position
}

func (e *ScanError) Error() string { return withPos("scan error", e.Message, e.Pos) }

// ParseError reports a token the grammar does not allow at this point.
type ParseError struct {
	Message string
	Pos     Position
}

func (e *ParseError) Error() string { return withPos("parse error", e.Message, e.Pos) }

// UndefinedProcedureError is raised when a call names a procedure that was
// never declared.
type UndefinedProcedureError struct {
	Name string
	Pos  Position
}

func (e *UndefinedProcedureError) Error() string {
	return withPos("runtime error", "undefined procedure "+e.Name, e.Pos)
}

// UnsupportedError signals a backend limitation: a node/type combination
// the code generator has no rendering for.
type UnsupportedError struct {
	Operation string
	Detail    string
	Pos       Position
}

func (e *UnsupportedError) Error() string {
	msg := e.Operation + " is not supported by the code generator"
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return withPos("unsupported", msg, e.Pos)
}

// RuntimeError covers failures while interpreting or executing a program
// that are not lookups: division by zero, arity mismatch, bad input.
type RuntimeError struct {
	Message string
	Pos     Position
}

func (e *RuntimeError) Error() string { return withPos("runtime error", e.Message, e.Pos) }

// Runtimef builds a RuntimeError at pos.
func Runtimef(pos Position, format string, args ...interface{}) error {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Pos: pos}
}

func withPos(kind, msg string, pos Position) string {
	if pos.Known() {
		return fmt.Sprintf("%s at %s: %s", kind, pos, msg)
	}
	return kind + ": " + msg
}

// PositionOf digs the source position out of any error in the taxonomy,
// looking through pkg/errors wrappers.
func PositionOf(err error) (Position, bool) {
	var (
		scan   *ScanError
		parse  *ParseError
		undef  *UndefinedProcedureError
		unsupp *UnsupportedError
		rt     *RuntimeError
	)
	switch {
	case errors.As(err, &scan):
		return scan.Pos, scan.Pos.Known()
	case errors.As(err, &parse):
		return parse.Pos, parse.Pos.Known()
	case errors.As(err, &undef):
		return undef.Pos, undef.Pos.Known()
	case errors.As(err, &unsupp):
		return unsupp.Pos, unsupp.Pos.Known()
	case errors.As(err, &rt):
		return rt.Pos, rt.Pos.Known()
	}
	return Position{}, false
}

// Render formats err for a terminal: the message, and when the error
// carries a position, the offending source line with a caret under the
// column.
func Render(err error, source string) string {
	var out strings.Builder
	out.WriteString(err.Error())

	pos, ok := PositionOf(err)
	if !ok {
		return out.String()
	}
	lines := strings.Split(source, "\n")
	if pos.Line > len(lines) {
		return out.String()
	}
	ln := strings.TrimRight(lines[pos.Line-1], "\r")
	out.WriteString("\n    ")
	out.WriteString(strings.ReplaceAll(ln, "\t", " "))
	out.WriteString("\n    ")
	col := pos.Column - 1
	if col > len(ln) {
		col = len(ln)
	}
	out.WriteString(strings.Repeat(" ", col))
	out.WriteString("^")
	return out.String()
}
