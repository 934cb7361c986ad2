package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"pascalc/internal/diag"
	"pascalc/internal/token"
)

// Sentinel ends the input early when it appears in the source.
const Sentinel = '$'

// Lexer holds the state while tokenizing input
// It reads one character at a time from the source, like a tape reader
type Lexer struct {
	in   *bufio.Reader
	trie *Trie

	ch      rune // Current character under examination
	eof     bool // Set once the source is exhausted or the sentinel is read
	readErr error

	line   int // Position of ch
	column int
}

// New creates a Lexer over a string.
func New(input string) *Lexer {
	return NewReader(strings.NewReader(input))
}

// NewReader creates a Lexer pulling characters from r on demand.
func NewReader(r io.Reader) *Lexer {
	l := &Lexer{in: bufio.NewReader(r), trie: operators, line: 1}
	l.readChar()
	return l
}

// readChar advances to the next character
// Think of it like moving the tape forward one position
func (l *Lexer) readChar() {
	if l.eof {
		return
	}
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	r, _, err := l.in.ReadRune()
	if err != nil {
		if err != io.EOF {
			l.readErr = err
		}
		l.eof = true
		l.ch = 0
		l.column++
		return
	}
	l.column++
	if r == Sentinel {
		l.eof = true
		l.ch = 0
		return
	}
	l.ch = r
}

func (l *Lexer) pos() diag.Position {
	return diag.Position{Line: l.line, Column: l.column}
}

// NextToken returns the next token from input. Whitespace and comments are
// consumed transparently; at end of input it keeps returning an EOF token.
func (l *Lexer) NextToken() (token.Token, error) {
	for {
		l.skipWhitespace()
		if l.readErr != nil {
			return token.Token{}, errors.Wrap(l.readErr, "read source")
		}

		pos := l.pos()
		if l.eof {
			return token.Token{Type: token.EOF, Line: pos.Line, Column: pos.Column}, nil
		}

		switch {
		case l.trie.Starts(l.ch):
			op, err := l.scanOperator(pos)
			if err != nil {
				return token.Token{}, err
			}
			switch op {
			case token.LINE_COMMENT:
				l.skipLineComment()
				continue
			case token.OPEN_COMMENT:
				if err := l.skipBlockComment(pos); err != nil {
					return token.Token{}, err
				}
				continue
			}
			return token.Token{Type: token.OPERATOR, Literal: op, Line: pos.Line, Column: pos.Column}, nil
		case isDigit(l.ch):
			return l.scanNumber(pos)
		case isLetter(l.ch):
			return l.scanIdentifier(pos), nil
		}

		return token.Token{}, &diag.ScanError{Message: fmt.Sprintf("invalid character %q", l.ch), Pos: pos}
	}
}

// skipWhitespace ignores spaces, tabs, newlines, carriage returns
func (l *Lexer) skipWhitespace() {
	for !l.eof && isWhitespace(l.ch) {
		l.readChar()
	}
}

// scanOperator walks the trie as far as the input allows. A longer match
// always wins; the node it stops on must accept.
func (l *Lexer) scanOperator(pos diag.Position) (string, error) {
	node := l.trie
	for !l.eof {
		next, ok := node.Child(l.ch)
		if !ok {
			break
		}
		node = next
		l.readChar()
	}
	if !node.Accepting() {
		return "", &diag.ScanError{Message: fmt.Sprintf("invalid operator %q", node.Label), Pos: pos}
	}
	return node.Label, nil
}

// skipLineComment consumes through the end of the current line.
func (l *Lexer) skipLineComment() {
	for !l.eof && l.ch != '\n' {
		l.readChar()
	}
	l.readChar()
}

// skipBlockComment consumes through the "*/" matching an already consumed
// "/*". Nested openers start a nested skip.
func (l *Lexer) skipBlockComment(open diag.Position) error {
	for {
		if l.eof {
			return &diag.ScanError{Message: "unterminated block comment", Pos: open}
		}
		switch l.ch {
		case '*':
			l.readChar()
			if !l.eof && l.ch == '/' {
				l.readChar()
				return nil
			}
		case '/':
			nested := l.pos()
			l.readChar()
			if !l.eof && l.ch == '*' {
				l.readChar()
				if err := l.skipBlockComment(nested); err != nil {
					return err
				}
			}
		default:
			l.readChar()
		}
	}
}

// scanNumber reads a maximal run of digits.
func (l *Lexer) scanNumber(pos diag.Position) (token.Token, error) {
	var b strings.Builder
	for !l.eof && isDigit(l.ch) {
		b.WriteRune(l.ch)
		l.readChar()
	}
	if b.Len() == 0 {
		return token.Token{}, &diag.ScanError{Message: "invalid number", Pos: pos}
	}
	return token.Token{Type: token.NUMBER, Literal: b.String(), Line: pos.Line, Column: pos.Column}, nil
}

// scanIdentifier reads a letter followed by letters and digits.
func (l *Lexer) scanIdentifier(pos diag.Position) token.Token {
	var b strings.Builder
	for !l.eof && (isLetter(l.ch) || isDigit(l.ch)) {
		b.WriteRune(l.ch)
		l.readChar()
	}
	return token.Token{Type: token.IDENT, Literal: b.String(), Line: pos.Line, Column: pos.Column}
}

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

// isLetter checks if ch is an ASCII letter; underscores are not allowed
func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
