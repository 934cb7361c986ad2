package evaluator

import (
	"pascalc/internal/ast"
	"pascalc/internal/diag"
	"pascalc/internal/object"
)

// call runs a procedure in a child of the caller's environment and returns
// the final value of its return slot, the variable spelled like the
// procedure.
func (e *Evaluator) call(node *ast.ProcedureCall, env *object.Environment) (object.Value, error) {
	proc, ok := env.GetProcedure(node.Name)
	if !ok {
		return 0, &diag.UndefinedProcedureError{Name: node.Name, Pos: positionOf(node)}
	}
	if len(node.Arguments) != len(proc.Parameters) {
		return 0, diag.Runtimef(positionOf(node), "procedure %s expects %d argument(s), got %d",
			proc.Name, len(proc.Parameters), len(node.Arguments))
	}

	// arguments are evaluated in the caller's environment
	args, err := e.evalArguments(node.Arguments, env)
	if err != nil {
		return 0, err
	}

	maxDepth := e.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if e.depth >= maxDepth {
		return 0, diag.Runtimef(positionOf(node), "call depth limit of %d exceeded in %s", maxDepth, proc.Name)
	}
	e.depth++
	defer func() { e.depth-- }()

	callEnv := object.NewEnclosedEnvironment(env)
	for i, param := range proc.Parameters {
		callEnv.DeclareVariable(param.Name, args[i])
	}
	callEnv.DeclareVariable(proc.Name, 0)

	if err := e.Exec(proc.Body, callEnv); err != nil {
		return 0, err
	}
	ret, _ := callEnv.GetVariable(proc.Name)
	return ret, nil
}

func (e *Evaluator) evalArguments(exps []ast.Expression, env *object.Environment) ([]object.Value, error) {
	result := make([]object.Value, 0, len(exps))
	for _, exp := range exps {
		v, err := e.Eval(exp, env)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}
