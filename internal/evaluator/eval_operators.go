package evaluator

import (
	"github.com/pkg/errors"

	"pascalc/internal/ast"
	"pascalc/internal/object"
)

// errDivisionByZero is annotated with the operator's position by the caller.
var errDivisionByZero = errors.New("division by zero")

type operation func(left, right object.Value) (object.Value, error)

// operations holds one entry per operator. Arithmetic wraps in 32 bits,
// && and || treat any non-zero operand as true, and every comparison or
// boolean result is 0 or 1.
var operations = map[ast.Operator]operation{
	ast.ADD: arith(func(l, r object.Value) object.Value { return l + r }),
	ast.SUB: arith(func(l, r object.Value) object.Value { return l - r }),
	ast.MUL: arith(func(l, r object.Value) object.Value { return l * r }),
	ast.DIV: func(l, r object.Value) (object.Value, error) {
		if r == 0 {
			return 0, errDivisionByZero
		}
		return l / r, nil
	},
	ast.MOD: func(l, r object.Value) (object.Value, error) {
		if r == 0 {
			return 0, errDivisionByZero
		}
		return l % r, nil
	},
	ast.EQ:  compare(func(l, r object.Value) bool { return l == r }),
	ast.NEQ: compare(func(l, r object.Value) bool { return l != r }),
	ast.LT:  compare(func(l, r object.Value) bool { return l < r }),
	ast.GT:  compare(func(l, r object.Value) bool { return l > r }),
	ast.LEQ: compare(func(l, r object.Value) bool { return l <= r }),
	ast.GEQ: compare(func(l, r object.Value) bool { return l >= r }),
	ast.AND: compare(func(l, r object.Value) bool { return l.Truthy() && r.Truthy() }),
	ast.OR:  compare(func(l, r object.Value) bool { return l.Truthy() || r.Truthy() }),
}

func arith(fn func(l, r object.Value) object.Value) operation {
	return func(l, r object.Value) (object.Value, error) { return fn(l, r), nil }
}

func compare(fn func(l, r object.Value) bool) operation {
	return func(l, r object.Value) (object.Value, error) { return object.Bool(fn(l, r)), nil }
}

func applyOperator(op ast.Operator, left, right object.Value) (object.Value, error) {
	fn, ok := operations[op]
	if !ok {
		return 0, errors.Errorf("unknown operator %s", op)
	}
	return fn(left, right)
}
