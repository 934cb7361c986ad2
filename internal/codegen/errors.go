package codegen

import (
	"fmt"

	"pascalc/internal/ast"
	"pascalc/internal/diag"
)

// unsupportedf reports a node the backend has no rendering for.
func unsupportedf(node ast.Node, operation, format string, args ...interface{}) error {
	return &diag.UnsupportedError{
		Operation: operation,
		Detail:    fmt.Sprintf(format, args...),
		Pos:       positionOf(node),
	}
}

func positionOf(node ast.Node) diag.Position {
	tok, ok := ast.TokenOf(node)
	if !ok {
		return diag.Position{}
	}
	return diag.Position{Line: tok.Line, Column: tok.Column}
}
