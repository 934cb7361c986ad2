package evaluator

import (
	"pascalc/internal/ast"
	"pascalc/internal/diag"
)

// annotate turns a bare operator failure into a RuntimeError located at
// node.
func annotate(err error, node ast.Node) error {
	if _, ok := diag.PositionOf(err); ok {
		return err
	}
	return diag.Runtimef(positionOf(node), "%s in %s", err, node.String())
}

func positionOf(node ast.Node) diag.Position {
	tok, ok := ast.TokenOf(node)
	if !ok {
		return diag.Position{}
	}
	return diag.Position{Line: tok.Line, Column: tok.Column}
}
