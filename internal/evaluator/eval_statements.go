package evaluator

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"pascalc/internal/ast"
	"pascalc/internal/diag"
	"pascalc/internal/object"
)

// Exec runs a statement for its effects.
func (e *Evaluator) Exec(node ast.Statement, env *object.Environment) error {
	if err := e.step(node); err != nil {
		return err
	}

	switch node := node.(type) {
	case *ast.Assignment:
		v, err := e.Eval(node.Value, env)
		if err != nil {
			return err
		}
		env.SetVariable(node.Target.Name, v)
		return nil

	case *ast.Block:
		for _, stmt := range node.Statements {
			if err := e.Exec(stmt, env); err != nil {
				return err
			}
		}
		return nil

	case *ast.If:
		cond, err := e.Eval(node.Condition, env)
		if err != nil {
			return err
		}
		if cond.Truthy() {
			return e.Exec(node.Consequence, env)
		}
		if node.Alternative != nil {
			return e.Exec(node.Alternative, env)
		}
		return nil

	case *ast.While:
		for {
			cond, err := e.Eval(node.Condition, env)
			if err != nil {
				return err
			}
			if !cond.Truthy() {
				return nil
			}
			if err := e.Exec(node.Body, env); err != nil {
				return err
			}
		}

	case *ast.WriteLn:
		v, err := e.Eval(node.Value, env)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(e.Out, v.Inspect()); err != nil {
			return errors.Wrap(err, "write output")
		}
		return nil

	case *ast.ReadLn:
		v, err := e.readInt(node)
		if err != nil {
			return err
		}
		env.SetVariable(node.Target.Name, v)
		return nil

	case *ast.ProcedureCall:
		_, err := e.call(node, env)
		return err

	case *ast.ProcedureDeclaration:
		env.SetProcedure(node.Procedure.Name, node.Procedure)
		return nil
	}
	return diag.Runtimef(positionOf(node), "cannot execute %T", node)
}

func (e *Evaluator) step(node ast.Node) error {
	e.steps++
	if e.MaxSteps > 0 && e.steps > e.MaxSteps {
		return diag.Runtimef(positionOf(node), "step limit of %d exceeded", e.MaxSteps)
	}
	return nil
}

func (e *Evaluator) readInt(node *ast.ReadLn) (object.Value, error) {
	if e.In == nil {
		return 0, diag.Runtimef(positionOf(node), "READLN: no input")
	}
	v, err := e.In.ReadInt()
	switch {
	case err == nil:
		return v, nil
	case errors.Cause(err) == io.EOF:
		return 0, diag.Runtimef(positionOf(node), "READLN: unexpected end of input")
	}
	return 0, diag.Runtimef(positionOf(node), "READLN: %v", err)
}
