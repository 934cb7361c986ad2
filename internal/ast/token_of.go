package ast

import "pascalc/internal/token"

// TokenOf returns the token a node was built from, and whether that token
// carries a source position. Nodes built by hand have none.
func TokenOf(node Node) (token.Token, bool) {
	var tok token.Token
	switch n := node.(type) {
	case *Literal:
		tok = n.Token
	case *Variable:
		tok = n.Token
	case *BinOp:
		tok = n.Token
	case *ProcedureCall:
		tok = n.Token
	case *Assignment:
		tok = n.Token
	case *Block:
		tok = n.Token
	case *If:
		tok = n.Token
	case *While:
		tok = n.Token
	case *WriteLn:
		tok = n.Token
	case *ReadLn:
		tok = n.Token
	case *ProcedureDeclaration:
		tok = n.Token
	default:
		return token.Token{}, false
	}
	return tok, tok.Line > 0 && tok.Column > 0
}
