package parser

import (
	"fmt"

	"pascalc/internal/ast"
	"pascalc/internal/diag"
	"pascalc/internal/lexer"
	"pascalc/internal/token"
)

// Parser is an LL(1) recursive-descent parser. It looks at exactly one
// token and never backtracks.
//
// The first error aborts the parse: internal parse functions panic with a
// bailout and ParseProgram recovers it, so the grammar functions read as
// straight-line code without error plumbing.
type Parser struct {
	l *lexer.Lexer // The lexer feeding us tokens

	curToken token.Token // Current token under examination
	started  bool
}

// bailout carries the error that ended the parse.
type bailout struct{ err error }

// New creates a new parser for the given lexer
func New(l *lexer.Lexer) *Parser {
	return &Parser{l: l}
}

// Parse is a convenience wrapper that lexes and parses src.
func Parse(src string) (*ast.Program, error) {
	return New(lexer.New(src)).ParseProgram()
}

// ParseProgram parses
//
//	program := { procedureDeclaration } statement [ "." ] EOF
//
// A parser is single use.
func (p *Parser) ParseProgram() (program *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			program, err = nil, b.err
		}
	}()

	if !p.started {
		p.started = true
		p.nextToken()
	}

	program = &ast.Program{}
	for p.curIs(token.PROCEDURE) {
		program.Procedures = append(program.Procedures, p.parseProcedureDeclaration())
	}
	program.Main = p.parseStatement()

	if p.curIs(token.PERIOD) {
		p.nextToken()
	}
	if p.curToken.Type != token.EOF {
		p.errorf(p.curToken, "expected end of input, got %s", describe(p.curToken))
	}
	return program, nil
}

// nextToken advances to the next token. Scan errors end the parse.
func (p *Parser) nextToken() {
	tok, err := p.l.NextToken()
	if err != nil {
		panic(bailout{err})
	}
	p.curToken = tok
}

// eat checks the current token against expected and advances past it.
// Build expected with token.Lit to match on spelling alone.
func (p *Parser) eat(expected token.Token) token.Token {
	tok := p.curToken
	if !tok.Equal(expected) {
		p.errorf(tok, "expected %s, got %s", describe(expected), describe(tok))
	}
	p.nextToken()
	return tok
}

// curIs reports whether the current token is spelled lit. An operator
// spelling never matches an identifier and vice versa.
func (p *Parser) curIs(lit string) bool {
	if !p.curToken.Is(lit) {
		return false
	}
	if isWord(lit) {
		return p.curToken.Type == token.IDENT
	}
	return p.curToken.Type == token.OPERATOR
}

func (p *Parser) errorf(at token.Token, format string, args ...interface{}) {
	panic(bailout{&diag.ParseError{
		Message: fmt.Sprintf(format, args...),
		Pos:     diag.Position{Line: at.Line, Column: at.Column},
	}})
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Literal)
}

func isWord(lit string) bool {
	if lit == "" {
		return false
	}
	c := lit[0]
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
