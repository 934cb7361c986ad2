package codegen

import (
	"fmt"

	"pascalc/internal/ast"
	"pascalc/internal/typesys"
)

// formats renders each operator for each operand type it supports as
// "op result lhs rhs". %[1]s is the result register, %[2]s and %[3]s the
// left and right operands. A missing entry is a backend limitation.
//
// && and || first normalise both operands to 0/1 so any non-zero value
// counts as true, as it does when interpreting.
var formats = map[ast.Operator]map[typesys.Type]string{
	ast.ADD: {typesys.Int: "addu %[1]s %[2]s %[3]s"},
	ast.SUB: {typesys.Int: "subu %[1]s %[2]s %[3]s"},
	ast.MUL: {typesys.Int: "mul %[1]s %[2]s %[3]s"},
	ast.DIV: {typesys.Int: "div %[1]s %[2]s %[3]s"},
	ast.MOD: {typesys.Int: "div %[2]s %[3]s\nmfhi %[1]s"},
	ast.EQ:  {typesys.Int: "seq %[1]s %[2]s %[3]s"},
	ast.NEQ: {typesys.Int: "sne %[1]s %[2]s %[3]s"},
	ast.LT:  {typesys.Int: "slt %[1]s %[2]s %[3]s"},
	ast.GT:  {typesys.Int: "sgt %[1]s %[2]s %[3]s"},
	ast.LEQ: {typesys.Int: "sle %[1]s %[2]s %[3]s"},
	ast.GEQ: {typesys.Int: "sge %[1]s %[2]s %[3]s"},
	ast.AND: {typesys.Int: "sne %[2]s %[2]s $zero\nsne %[3]s %[3]s $zero\nand %[1]s %[2]s %[3]s"},
	ast.OR:  {typesys.Int: "sne %[2]s %[2]s $zero\nsne %[3]s %[3]s $zero\nor %[1]s %[2]s %[3]s"},
}

// format renders op on operands of type typ, or reports that the backend
// has no rendering for the pair.
func format(op ast.Operator, typ typesys.Type, result, lhs, rhs string) (string, bool) {
	f, ok := formats[op][typ]
	if !ok {
		return "", false
	}
	return fmt.Sprintf(f, result, lhs, rhs), true
}
