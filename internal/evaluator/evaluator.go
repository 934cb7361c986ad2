package evaluator

import (
	"io"

	"pascalc/internal/ast"
	"pascalc/internal/diag"
	"pascalc/internal/object"
)

// DefaultMaxDepth bounds procedure-call nesting so runaway recursion is
// reported instead of exhausting the Go stack.
const DefaultMaxDepth = 10000

// Evaluator interprets a program by walking its tree.
// Every run owns a fresh environment chain, so one Evaluator can run the
// same tree again and get the same result for the same input.
type Evaluator struct {
	In  object.IntReader // READLN source
	Out io.Writer        // WRITELN sink

	MaxSteps int // statements executed per run, 0 for no limit
	MaxDepth int // nested procedure calls, 0 for DefaultMaxDepth

	steps int
	depth int
}

// New creates an Evaluator reading integers from in and writing to out.
func New(in io.Reader, out io.Writer) *Evaluator {
	return &Evaluator{In: object.NewWordReader(in), Out: out}
}

// Run declares every procedure in a fresh root environment, then executes
// the main statement.
func (e *Evaluator) Run(program *ast.Program) error {
	e.steps, e.depth = 0, 0
	env := object.NewEnvironment()
	for _, decl := range program.Procedures {
		if err := e.Exec(decl, env); err != nil {
			return err
		}
	}
	if program.Main == nil {
		return nil
	}
	return e.Exec(program.Main, env)
}

// Eval computes the value of an expression.
func (e *Evaluator) Eval(node ast.Expression, env *object.Environment) (object.Value, error) {
	switch node := node.(type) {
	case *ast.Literal:
		return object.Value(node.Value), nil

	case *ast.Variable:
		if v, ok := env.GetVariable(node.Name); ok {
			return v, nil
		}
		// reading an unset variable binds it to zero
		env.SetVariable(node.Name, 0)
		return 0, nil

	case *ast.BinOp:
		left, err := e.Eval(node.Left, env)
		if err != nil {
			return 0, err
		}
		right, err := e.Eval(node.Right, env)
		if err != nil {
			return 0, err
		}
		v, err := applyOperator(node.Operator, left, right)
		if err != nil {
			return 0, annotate(err, node)
		}
		return v, nil

	case *ast.ProcedureCall:
		return e.call(node, env)
	}
	return 0, diag.Runtimef(positionOf(node), "cannot evaluate %T", node)
}
