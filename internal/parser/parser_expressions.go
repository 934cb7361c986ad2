package parser

import (
	"strconv"

	"pascalc/internal/ast"
	"pascalc/internal/token"
	"pascalc/internal/typesys"
)

// binaryOperators groups operator spellings by precedence level, tightest
// first: 5 + 3 * 2 parses as 5 + (3 * 2) because * sits on a lower level.
var binaryOperators = []map[string]ast.Operator{
	{token.ASTERISK: ast.MUL, token.SLASH: ast.DIV, token.MOD: ast.MOD},
	{token.PLUS: ast.ADD, token.MINUS: ast.SUB},
	{token.EQ: ast.EQ, token.NOT_EQ: ast.NEQ, token.LT: ast.LT, token.GT: ast.GT, token.LT_EQ: ast.LEQ, token.GT_EQ: ast.GEQ},
	{token.AND: ast.AND, token.OR: ast.OR},
}

// loosest is the loosest precedence level; a full expression starts there.
var loosest = len(binaryOperators) - 1

// parseExpression parses both operands one level tighter, then folds any
// run of operators from this level to the left: 1 - 2 - 3 is (1 - 2) - 3.
// Level -1 is a single factor.
func (p *Parser) parseExpression(level int) ast.Expression {
	if level < 0 {
		return p.parseFactor()
	}
	left := p.parseExpression(level - 1)
	for {
		op, ok := p.binaryOperator(level)
		if !ok {
			return left
		}
		tok := p.curToken
		p.nextToken()
		right := p.parseExpression(level - 1)
		left = &ast.BinOp{Token: tok, Operator: op, Left: left, Right: right}
	}
}

func (p *Parser) binaryOperator(level int) (ast.Operator, bool) {
	if p.curToken.Type != token.OPERATOR && !p.curIs(token.MOD) {
		return 0, false
	}
	op, ok := binaryOperators[level][p.curToken.Literal]
	return op, ok
}

// parseFactor handles
//
//	( expr )   -factor   number   True   False   name   name(args)
func (p *Parser) parseFactor() ast.Expression {
	tok := p.curToken
	switch tok.Type {
	case token.OPERATOR:
		switch tok.Literal {
		case token.LPAREN:
			p.nextToken()
			expr := p.parseExpression(loosest)
			p.eat(token.Lit(token.RPAREN))
			return expr
		case token.MINUS:
			p.nextToken()
			operand := p.parseFactor()
			zero := &ast.Literal{Token: tok, Value: 0, Tag: typesys.Int}
			return &ast.BinOp{Token: tok, Operator: ast.SUB, Left: zero, Right: operand}
		}
	case token.NUMBER:
		return p.parseNumber()
	case token.IDENT:
		switch tok.Literal {
		case token.TRUE, token.FALSE:
			p.nextToken()
			value := int32(0)
			if tok.Literal == token.TRUE {
				value = 1
			}
			return &ast.Literal{Token: tok, Value: value, Tag: typesys.Int, Boolean: true}
		}
		name := p.parseName("variable")
		if p.curIs(token.LPAREN) {
			return p.parseProcedureCall(name)
		}
		return &ast.Variable{Token: name, Name: name.Literal, Tag: typesys.Int}
	}
	p.errorf(tok, "expected an expression, got %s", describe(tok))
	return nil
}

// parseNumber reads an integer literal. Literals must fit the 32-bit word.
func (p *Parser) parseNumber() *ast.Literal {
	tok := p.curToken
	if tok.Type != token.NUMBER {
		p.errorf(tok, "expected a number, got %s", describe(tok))
	}
	v, err := strconv.ParseInt(tok.Literal, 10, 32)
	if err != nil {
		p.errorf(tok, "integer literal %s out of range", tok.Literal)
	}
	p.nextToken()
	return &ast.Literal{Token: tok, Value: int32(v), Tag: typesys.Int}
}

// parseName consumes an identifier that is not a reserved word. what names
// the role for the error message.
func (p *Parser) parseName(what string) token.Token {
	tok := p.curToken
	if tok.Type != token.IDENT {
		p.errorf(tok, "expected %s name, got %s", what, describe(tok))
	}
	if token.IsKeyword(tok.Literal) {
		p.errorf(tok, "reserved word %q cannot be used as a %s name", tok.Literal, what)
	}
	p.nextToken()
	return tok
}

// parseVariable consumes a variable name.
func (p *Parser) parseVariable() *ast.Variable {
	tok := p.parseName("variable")
	return &ast.Variable{Token: tok, Name: tok.Literal, Tag: typesys.Int}
}

// parseProcedureCall parses the argument list after an already consumed
// procedure name.
func (p *Parser) parseProcedureCall(name token.Token) *ast.ProcedureCall {
	call := &ast.ProcedureCall{Token: name, Name: name.Literal}
	p.eat(token.Lit(token.LPAREN))
	if !p.curIs(token.RPAREN) {
		call.Arguments = append(call.Arguments, p.parseExpression(loosest))
		for p.curIs(token.COMMA) {
			p.nextToken()
			call.Arguments = append(call.Arguments, p.parseExpression(loosest))
		}
	}
	p.eat(token.Lit(token.RPAREN))
	return call
}
