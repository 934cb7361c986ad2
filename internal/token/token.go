package token

import "fmt"

// TokenType is a string alias for token types
// Using string makes debugging easier (we can print "IDENTIFIER" instead of a number)
type TokenType string

// Token holds the type and literal text of one lexical unit.
// Line and Column point at the first character and are zero for tokens
// built by hand (see Lit).
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

const (
	// WILDCARD marks a token built only to drive comparisons; it matches
	// a token of any type with the same literal.
	WILDCARD TokenType = ""

	IDENT    TokenType = "IDENTIFIER"
	NUMBER   TokenType = "NUMBER"
	OPERATOR TokenType = "OPERATOR"
	EOF      TokenType = "EOF"
)

// Operator spellings. Comment openers are operators as far as the trie is
// concerned; the lexer never hands them to the parser.
const (
	EQ           = "="
	PLUS         = "+"
	MINUS        = "-"
	ASTERISK     = "*"
	SLASH        = "/"
	LPAREN       = "("
	RPAREN       = ")"
	LT           = "<"
	GT           = ">"
	LT_EQ        = "<="
	GT_EQ        = ">="
	NOT_EQ       = "<>"
	ASSIGN       = ":="
	SEMICOLON    = ";"
	COMMA        = ","
	PERIOD       = "."
	AND          = "&&"
	OR           = "||"
	LINE_COMMENT = "//"
	OPEN_COMMENT = "/*"
)

// Operators is the full operator alphabet the lexer's trie is built from.
var Operators = []string{
	EQ, PLUS, MINUS, ASTERISK, SLASH, LPAREN, RPAREN, LT, GT,
	LT_EQ, GT_EQ, NOT_EQ, ASSIGN, SEMICOLON, COMMA, PERIOD, AND, OR,
	LINE_COMMENT, OPEN_COMMENT,
}

// Reserved words. The parser matches them by spelling, so they are lexed
// as ordinary identifiers.
const (
	BEGIN     = "BEGIN"
	END       = "END"
	PROCEDURE = "PROCEDURE"
	WRITELN   = "WRITELN"
	READLN    = "READLN"
	IF        = "IF"
	THEN      = "THEN"
	ELSE      = "ELSE"
	WHILE     = "WHILE"
	DO        = "DO"
	FOR       = "FOR"
	TO        = "TO"
	MOD       = "mod"
	TRUE      = "True"
	FALSE     = "False"
)

var keywords = map[string]struct{}{
	BEGIN: {}, END: {}, PROCEDURE: {}, WRITELN: {}, READLN: {},
	IF: {}, THEN: {}, ELSE: {}, WHILE: {}, DO: {}, FOR: {}, TO: {},
	MOD: {}, TRUE: {}, FALSE: {},
}

// IsKeyword reports whether ident is a reserved spelling and therefore
// cannot name a variable or a procedure.
func IsKeyword(ident string) bool {
	_, ok := keywords[ident]
	return ok
}

// Lit builds a wildcard token for comparisons: Lit(";").Equal(tok) holds
// for any tok whose literal is ";".
func Lit(literal string) Token {
	return Token{Type: WILDCARD, Literal: literal}
}

// Equal compares by literal. Types must match too unless either side is a
// wildcard.
func (t Token) Equal(other Token) bool {
	if t.Literal != other.Literal {
		return false
	}
	return t.Type == WILDCARD || other.Type == WILDCARD || t.Type == other.Type
}

// Is reports whether the token's literal is exactly lit, whatever its type.
func (t Token) Is(lit string) bool {
	return t.Literal == lit
}

func (t Token) String() string {
	if t.Type == WILDCARD {
		return fmt.Sprintf("%q", t.Literal)
	}
	return fmt.Sprintf("%s %q", t.Type, t.Literal)
}
