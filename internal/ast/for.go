package ast

import (
	"pascalc/internal/token"
	"pascalc/internal/typesys"
)

// NewFor builds FOR v := from TO to DO body out of existing nodes:
//
//	v := from;
//	WHILE v <= to DO BEGIN body v := v + 1; END;
//
// The bound is a live sub-expression, so it is evaluated again before every
// iteration, and v keeps its last value after the loop.
func NewFor(tok token.Token, loopVar *Variable, from, to Expression, body Statement) *Block {
	ref := func() *Variable {
		return &Variable{Token: loopVar.Token, Name: loopVar.Name, Tag: loopVar.Tag}
	}
	one := &Literal{Token: token.Token{Type: token.NUMBER, Literal: "1"}, Value: 1, Tag: typesys.Int}

	return &Block{
		Token: tok,
		Statements: []Statement{
			&Assignment{Token: tok, Target: ref(), Value: from},
			&While{
				Token: tok,
				Condition: &BinOp{
					Token:    token.Token{Type: token.OPERATOR, Literal: token.LT_EQ},
					Operator: LEQ,
					Left:     ref(),
					Right:    to,
				},
				Body: &Block{
					Token: tok,
					Statements: []Statement{
						body,
						&Assignment{
							Token:  tok,
							Target: ref(),
							Value: &BinOp{
								Token:    token.Token{Type: token.OPERATOR, Literal: token.PLUS},
								Operator: ADD,
								Left:     ref(),
								Right:    one,
							},
						},
					},
				},
			},
		},
	}
}
