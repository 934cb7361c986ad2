package ast

import (
	"bytes"
	"strconv"
	"strings"

	"pascalc/internal/token"
	"pascalc/internal/typesys"
)

// Node is the base interface for all AST nodes
// Every node must provide a TokenLiteral (for debugging) and String (for printing)
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement nodes only have effects
// Examples: x := 5; WRITELN(x);
type Statement interface {
	Node
	statementNode()
}

// Expression nodes produce a value and carry a static type tag
// Examples: 5, x, f(2, 3), 5 + 3
type Expression interface {
	Node
	expressionNode()
	Type() typesys.Type
}

// Program is the root node: procedure declarations followed by one
// statement to run.
type Program struct {
	Procedures []*ProcedureDeclaration
	Main       Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Procedures) > 0 {
		return p.Procedures[0].TokenLiteral()
	}
	if p.Main != nil {
		return p.Main.TokenLiteral()
	}
	return ""
}

// String builds the program back into source code (useful for debugging)
func (p *Program) String() string {
	var out bytes.Buffer
	for _, d := range p.Procedures {
		out.WriteString(d.String())
		out.WriteString("\n")
	}
	if p.Main != nil {
		out.WriteString(p.Main.String())
	}
	return out.String()
}

// Literal is an integer constant. True and False are the literals 1 and 0
// with Boolean set so they print back the way they were written.
type Literal struct {
	Token   token.Token
	Value   int32
	Tag     typesys.Type
	Boolean bool
}

func (l *Literal) expressionNode()      {}
func (l *Literal) TokenLiteral() string { return l.Token.Literal }
func (l *Literal) Type() typesys.Type   { return l.Tag }
func (l *Literal) String() string {
	if l.Boolean {
		if l.Value != 0 {
			return token.TRUE
		}
		return token.FALSE
	}
	return strconv.FormatInt(int64(l.Value), 10)
}

// Variable names a storage slot. Identity is the name alone; Tag takes no
// part in Equal, so two same-named variables of different types alias.
type Variable struct {
	Token token.Token
	Name  string
	Tag   typesys.Type
}

func (v *Variable) expressionNode()      {}
func (v *Variable) TokenLiteral() string { return v.Token.Literal }
func (v *Variable) Type() typesys.Type   { return v.Tag }
func (v *Variable) String() string       { return v.Name }

// Equal compares variables by name only.
func (v *Variable) Equal(other *Variable) bool {
	return other != nil && v.Name == other.Name
}

// BinOp applies a binary operator to two eagerly evaluated operands.
type BinOp struct {
	Token    token.Token // The operator token
	Operator Operator
	Left     Expression
	Right    Expression
}

func (b *BinOp) expressionNode()      {}
func (b *BinOp) TokenLiteral() string { return b.Token.Literal }
func (b *BinOp) Type() typesys.Type   { return b.Operator.ResultType() }
func (b *BinOp) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(b.Left.String())
	out.WriteString(" " + b.Operator.String() + " ")
	out.WriteString(b.Right.String())
	out.WriteString(")")
	return out.String()
}

// ProcedureCall is both an expression (its value is the callee's return
// slot) and a statement (the value is dropped). The callee is looked up by
// name when the call runs.
type ProcedureCall struct {
	Token     token.Token // The procedure name token
	Name      string
	Arguments []Expression
}

func (pc *ProcedureCall) expressionNode()      {}
func (pc *ProcedureCall) statementNode()       {}
func (pc *ProcedureCall) TokenLiteral() string { return pc.Token.Literal }
func (pc *ProcedureCall) Type() typesys.Type   { return typesys.Int }
func (pc *ProcedureCall) String() string {
	args := make([]string, 0, len(pc.Arguments))
	for _, a := range pc.Arguments {
		args = append(args, a.String())
	}
	return pc.Name + "(" + strings.Join(args, ", ") + ")"
}

// Assignment represents: <name> := <value>;
type Assignment struct {
	Token  token.Token // The ":=" token
	Target *Variable
	Value  Expression
}

func (a *Assignment) statementNode()       {}
func (a *Assignment) TokenLiteral() string { return a.Token.Literal }
func (a *Assignment) String() string {
	return a.Target.String() + " := " + a.Value.String() + ";"
}

// Block runs its statements in order. It opens no scope of its own.
type Block struct {
	Token      token.Token // The BEGIN token, or the FOR token for a desugared loop
	Statements []Statement
}

func (b *Block) statementNode()       {}
func (b *Block) TokenLiteral() string { return b.Token.Literal }
func (b *Block) String() string {
	var out bytes.Buffer
	out.WriteString("BEGIN ")
	for _, s := range b.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("END;")
	return out.String()
}

// If represents: IF <cond> THEN <stmt> [ELSE <stmt>]
type If struct {
	Token       token.Token
	Condition   Expression
	Consequence Statement
	Alternative Statement // nil without ELSE
}

func (i *If) statementNode()       {}
func (i *If) TokenLiteral() string { return i.Token.Literal }
func (i *If) String() string {
	var out bytes.Buffer
	out.WriteString("IF ")
	out.WriteString(i.Condition.String())
	out.WriteString(" THEN ")
	out.WriteString(i.Consequence.String())
	if i.Alternative != nil {
		out.WriteString(" ELSE ")
		out.WriteString(i.Alternative.String())
	}
	return out.String()
}

// While represents: WHILE <cond> DO <stmt>
type While struct {
	Token     token.Token
	Condition Expression
	Body      Statement
}

func (w *While) statementNode()       {}
func (w *While) TokenLiteral() string { return w.Token.Literal }
func (w *While) String() string {
	return "WHILE " + w.Condition.String() + " DO " + w.Body.String()
}

// WriteLn prints the value of an expression and a line break.
type WriteLn struct {
	Token token.Token
	Value Expression
}

func (w *WriteLn) statementNode()       {}
func (w *WriteLn) TokenLiteral() string { return w.Token.Literal }
func (w *WriteLn) String() string       { return "WRITELN(" + w.Value.String() + ");" }

// ReadLn stores one integer read from the console into Target.
type ReadLn struct {
	Token  token.Token
	Target *Variable
}

func (r *ReadLn) statementNode()       {}
func (r *ReadLn) TokenLiteral() string { return r.Token.Literal }
func (r *ReadLn) String() string       { return "READLN(" + r.Target.String() + ");" }

// Procedure is a named, parameterised statement. It returns whatever its
// implicit return slot, a variable spelled like the procedure, holds when
// the body finishes.
type Procedure struct {
	Name       string
	Parameters []*Variable
	Body       Statement
}

// Equal compares procedures by name only.
func (p *Procedure) Equal(other *Procedure) bool {
	return other != nil && p.Name == other.Name
}

func (p *Procedure) String() string {
	params := make([]string, 0, len(p.Parameters))
	for _, v := range p.Parameters {
		params = append(params, v.Name)
	}
	return "PROCEDURE " + p.Name + "(" + strings.Join(params, ", ") + "); " + p.Body.String()
}

// ProcedureDeclaration binds a Procedure in the environment it runs in.
type ProcedureDeclaration struct {
	Token     token.Token // The PROCEDURE token
	Procedure *Procedure
}

func (pd *ProcedureDeclaration) statementNode()       {}
func (pd *ProcedureDeclaration) TokenLiteral() string { return pd.Token.Literal }
func (pd *ProcedureDeclaration) String() string       { return pd.Procedure.String() }
