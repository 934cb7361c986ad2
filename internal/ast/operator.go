package ast

import "pascalc/internal/typesys"

// Operator identifies a binary operation.
type Operator int

const (
	ADD Operator = iota
	SUB
	MUL
	DIV
	MOD
	EQ
	NEQ
	LT
	GT
	LEQ
	GEQ
	AND
	OR
)

var operatorSymbols = [...]string{
	ADD: "+",
	SUB: "-",
	MUL: "*",
	DIV: "/",
	MOD: "mod",
	EQ:  "=",
	NEQ: "<>",
	LT:  "<",
	GT:  ">",
	LEQ: "<=",
	GEQ: ">=",
	AND: "&&",
	OR:  "||",
}

// Operators lists every operator, in declaration order.
var Operators = []Operator{ADD, SUB, MUL, DIV, MOD, EQ, NEQ, LT, GT, LEQ, GEQ, AND, OR}

func (op Operator) String() string {
	if op < 0 || int(op) >= len(operatorSymbols) {
		return "?"
	}
	return operatorSymbols[op]
}

// ResultType is the static type of the operator's result. Comparisons and
// boolean operators yield 0/1 integers, so every operator is INT today.
func (op Operator) ResultType() typesys.Type {
	return typesys.Int
}
