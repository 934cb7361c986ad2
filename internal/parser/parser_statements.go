package parser

import (
	"pascalc/internal/ast"
	"pascalc/internal/token"
	"pascalc/internal/typesys"
)

// parseStatement dispatches on the spelling of the current token.
func (p *Parser) parseStatement() ast.Statement {
	switch {
	case p.curIs(token.BEGIN):
		return p.parseBlock()
	case p.curIs(token.PROCEDURE):
		return p.parseProcedureDeclaration()
	case p.curIs(token.WRITELN):
		return p.parseWriteLn()
	case p.curIs(token.READLN):
		return p.parseReadLn()
	case p.curIs(token.IF):
		return p.parseIf()
	case p.curIs(token.WHILE):
		return p.parseWhile()
	case p.curIs(token.FOR):
		return p.parseFor()
	}
	return p.parseAssignmentOrCall()
}

// parseBlock parses BEGIN stmt* END followed by ";" or ".". A "." is left
// for ParseProgram, which only accepts it after the main statement.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Token: p.eat(token.Lit(token.BEGIN))}
	for !p.curIs(token.END) && p.curToken.Type != token.EOF {
		block.Statements = append(block.Statements, p.parseStatement())
	}
	p.eat(token.Token{Type: token.IDENT, Literal: token.END})
	if !p.curIs(token.PERIOD) {
		p.eat(token.Lit(token.SEMICOLON))
	}
	return block
}

// parseProcedureDeclaration parses PROCEDURE name(p1, p2, ...); stmt
func (p *Parser) parseProcedureDeclaration() *ast.ProcedureDeclaration {
	decl := &ast.ProcedureDeclaration{Token: p.eat(token.Lit(token.PROCEDURE))}
	name := p.parseName("procedure")

	proc := &ast.Procedure{Name: name.Literal}
	p.eat(token.Lit(token.LPAREN))
	if !p.curIs(token.RPAREN) {
		proc.Parameters = append(proc.Parameters, p.parseVariable())
		for p.curIs(token.COMMA) {
			p.nextToken()
			proc.Parameters = append(proc.Parameters, p.parseVariable())
		}
	}
	p.eat(token.Lit(token.RPAREN))
	p.eat(token.Lit(token.SEMICOLON))
	proc.Body = p.parseStatement()

	decl.Procedure = proc
	return decl
}

// parseWriteLn parses WRITELN(expr);
func (p *Parser) parseWriteLn() *ast.WriteLn {
	stmt := &ast.WriteLn{Token: p.eat(token.Lit(token.WRITELN))}
	p.eat(token.Lit(token.LPAREN))
	stmt.Value = p.parseExpression(loosest)
	p.eat(token.Lit(token.RPAREN))
	p.eat(token.Lit(token.SEMICOLON))
	return stmt
}

// parseReadLn parses READLN(name);
func (p *Parser) parseReadLn() *ast.ReadLn {
	stmt := &ast.ReadLn{Token: p.eat(token.Lit(token.READLN))}
	p.eat(token.Lit(token.LPAREN))
	stmt.Target = p.parseVariable()
	p.eat(token.Lit(token.RPAREN))
	p.eat(token.Lit(token.SEMICOLON))
	return stmt
}

// parseIf parses IF cond THEN stmt [ELSE stmt]. A dangling ELSE binds to
// the nearest IF.
func (p *Parser) parseIf() *ast.If {
	stmt := &ast.If{Token: p.eat(token.Lit(token.IF))}
	stmt.Condition = p.parseExpression(loosest)
	p.eat(token.Lit(token.THEN))
	stmt.Consequence = p.parseStatement()
	if p.curIs(token.ELSE) {
		p.nextToken()
		stmt.Alternative = p.parseStatement()
	}
	return stmt
}

// parseWhile parses WHILE cond DO stmt
func (p *Parser) parseWhile() *ast.While {
	stmt := &ast.While{Token: p.eat(token.Lit(token.WHILE))}
	stmt.Condition = p.parseExpression(loosest)
	p.eat(token.Lit(token.DO))
	stmt.Body = p.parseStatement()
	return stmt
}

// parseFor parses FOR v := from TO to DO stmt into its While form.
func (p *Parser) parseFor() *ast.Block {
	tok := p.eat(token.Lit(token.FOR))
	loopVar := p.parseVariable()
	p.eat(token.Lit(token.ASSIGN))
	from := p.parseExpression(loosest)
	p.eat(token.Lit(token.TO))
	to := p.parseExpression(loosest)
	p.eat(token.Lit(token.DO))
	body := p.parseStatement()
	return ast.NewFor(tok, loopVar, from, to, body)
}

// parseAssignmentOrCall parses name := expr; or name(args);
func (p *Parser) parseAssignmentOrCall() ast.Statement {
	if p.curToken.Type != token.IDENT || token.IsKeyword(p.curToken.Literal) {
		p.errorf(p.curToken, "expected a statement, got %s", describe(p.curToken))
	}
	name := p.parseName("variable")

	switch {
	case p.curIs(token.ASSIGN):
		stmt := &ast.Assignment{
			Token:  p.curToken,
			Target: &ast.Variable{Token: name, Name: name.Literal, Tag: typesys.Int},
		}
		p.nextToken()
		stmt.Value = p.parseExpression(loosest)
		p.eat(token.Lit(token.SEMICOLON))
		return stmt
	case p.curIs(token.LPAREN):
		call := p.parseProcedureCall(name)
		p.eat(token.Lit(token.SEMICOLON))
		return call
	}
	p.errorf(p.curToken, "expected %q or %q after %s, got %s", token.ASSIGN, token.LPAREN, name.Literal, describe(p.curToken))
	return nil
}
