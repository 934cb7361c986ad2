package codegen

import (
	"io"

	"github.com/pkg/errors"

	"pascalc/internal/ast"
	"pascalc/internal/typesys"
)

// Registers used by generated code.
const (
	regValue   = "$v0" // expression results, syscall numbers
	regScratch = "$t0" // left operand of a binary operator
	regReturn  = "$ra"
	regArg     = "$a0"
)

// CodeGen translates a program into MIPS-style assembly text.
type CodeGen struct {
	em         *Emitter
	procedures map[string]*ast.Procedure
	order      []*ast.ProcedureDeclaration
}

// New creates a new code generator
func New() *CodeGen {
	return &CodeGen{}
}

// Compile writes the assembly for program to w. Nothing is written when
// compilation fails.
func Compile(program *ast.Program, w io.Writer) error {
	cg := New()
	asm, err := cg.Generate(program)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, asm); err != nil {
		return errors.Wrap(err, "write assembly")
	}
	return nil
}

// Generate produces the assembly for program:
//
//	.text / .globl main / main:
//	  main statement in one scope
//	  exit syscall
//	procedure bodies in declaration order
func (cg *CodeGen) Generate(program *ast.Program) (string, error) {
	cg.em = NewEmitter()
	cg.procedures = make(map[string]*ast.Procedure)
	cg.order = nil
	if err := cg.collectProcedures(program); err != nil {
		return "", err
	}

	em := cg.em
	em.Emit(".text")
	em.Emit(".globl main")
	em.Emit("main:")
	em.BeginScope()
	if program.Main != nil {
		if err := cg.emitStatement(program.Main); err != nil {
			return "", err
		}
	}
	em.FreeScope()
	if err := em.CheckBalanced(); err != nil {
		return "", errors.Wrap(err, "main")
	}
	em.Emit("li $v0 10")
	em.Emit("syscall")

	for _, decl := range cg.order {
		if err := cg.emitProcedure(decl.Procedure); err != nil {
			return "", err
		}
	}
	return em.String(), nil
}

// Emitter exposes the state of the last Generate call.
func (cg *CodeGen) Emitter() *Emitter { return cg.em }

// UnresolvedCalls lists procedures the last Generate call referenced
// without a declaration. Their labels are missing from the output.
func (cg *CodeGen) UnresolvedCalls() []string {
	if cg.em == nil {
		return nil
	}
	return cg.em.UnresolvedCalls()
}

// collectProcedures finds every declaration, including those nested in
// statements, so calls can be checked before their callee is emitted.
// Every procedure is emitted once at top level.
func (cg *CodeGen) collectProcedures(program *ast.Program) error {
	for _, decl := range program.Procedures {
		if err := cg.collectInStatement(decl); err != nil {
			return err
		}
	}
	if program.Main != nil {
		return cg.collectInStatement(program.Main)
	}
	return nil
}

func (cg *CodeGen) collectInStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ProcedureDeclaration:
		name := s.Procedure.Name
		if _, exists := cg.procedures[name]; exists {
			return unsupportedf(s, "PROCEDURE", "duplicate declaration of %s", name)
		}
		cg.procedures[name] = s.Procedure
		cg.order = append(cg.order, s)
		return cg.collectInStatement(s.Procedure.Body)
	case *ast.Block:
		for _, inner := range s.Statements {
			if err := cg.collectInStatement(inner); err != nil {
				return err
			}
		}
	case *ast.If:
		if err := cg.collectInStatement(s.Consequence); err != nil {
			return err
		}
		if s.Alternative != nil {
			return cg.collectInStatement(s.Alternative)
		}
	case *ast.While:
		return cg.collectInStatement(s.Body)
	}
	return nil
}

// emitProcedure emits one procedure frame:
//
//	procedure<name>:
//	  return slot := 0, save $ra
//	  body
//	  $v0 := return slot, restore $ra
//	  pop locals, return slot, $ra and arguments
//	  jr $ra
func (cg *CodeGen) emitProcedure(proc *ast.Procedure) error {
	em := cg.em
	params := make([]string, len(proc.Parameters))
	for i, p := range proc.Parameters {
		params[i] = p.Name
	}

	em.LinkProcedure(params)
	em.Emitf("%s:", ProcedureLabel(proc.Name))
	em.Emit("li $v0 0")
	em.Store(regValue, proc.Name)
	em.Store(regReturn, regReturn)
	if err := cg.emitStatement(proc.Body); err != nil {
		return err
	}
	em.Retrieve(regValue, proc.Name)
	em.Retrieve(regReturn, regReturn)
	em.FreeScope()
	em.Emit("jr $ra")

	if err := em.CheckBalanced(); err != nil {
		return errors.Wrapf(err, "procedure %s", proc.Name)
	}
	return nil
}

// emitStatement emits code with no net effect on the stack.
func (cg *CodeGen) emitStatement(stmt ast.Statement) error {
	em := cg.em
	switch s := stmt.(type) {
	case *ast.Assignment:
		if err := cg.emitExpression(s.Value); err != nil {
			return err
		}
		if err := checkWord(s.Target, "assignment"); err != nil {
			return err
		}
		em.Store(regValue, s.Target.Name)
		return nil

	case *ast.Block:
		for _, inner := range s.Statements {
			if err := cg.emitStatement(inner); err != nil {
				return err
			}
		}
		return nil

	case *ast.If:
		return cg.emitIf(s)

	case *ast.While:
		return cg.emitWhile(s)

	case *ast.WriteLn:
		if err := cg.emitExpression(s.Value); err != nil {
			return err
		}
		if typ := s.Value.Type(); typ != typesys.Int {
			return unsupportedf(s, "WRITELN", "cannot print a %s value", typ)
		}
		em.Emitf("move %s %s", regArg, regValue)
		em.Emitf("li %s 1", regValue)
		em.Emit("syscall")
		em.Emitf("li %s 11", regValue)
		em.Emitf("li %s 10", regArg)
		em.Emit("syscall")
		return nil

	case *ast.ReadLn:
		return unsupportedf(s, "READLN", "console input is only available when interpreting")

	case *ast.ProcedureCall:
		return cg.emitCall(s)

	case *ast.ProcedureDeclaration:
		// emitted after main
		return nil
	}
	return unsupportedf(stmt, "statement", "no rendering for %T", stmt)
}

// emitIf gives each branch its own scope so whatever a branch stores is
// popped before the paths join.
func (cg *CodeGen) emitIf(s *ast.If) error {
	em := cg.em
	elseLabel := em.NewLabel()
	exitLabel := em.NewLabel()

	if err := cg.emitExpression(s.Condition); err != nil {
		return err
	}
	em.Emitf("beqz $v0 %s", elseLabel)
	em.BeginScope()
	if err := cg.emitStatement(s.Consequence); err != nil {
		return err
	}
	em.FreeScope()
	em.Emitf("j %s", exitLabel)
	em.Emitf("%s:", elseLabel)
	if s.Alternative != nil {
		em.BeginScope()
		if err := cg.emitStatement(s.Alternative); err != nil {
			return err
		}
		em.FreeScope()
	}
	em.Emitf("%s: #ENDIF", exitLabel)
	return nil
}

// emitWhile tests the condition before every iteration, including the
// first. The body's variables are popped at the end of each iteration.
func (cg *CodeGen) emitWhile(s *ast.While) error {
	em := cg.em
	startLabel := em.NewLabel()
	endLabel := em.NewLabel()

	em.Emitf("%s: #WHILE", startLabel)
	if err := cg.emitExpression(s.Condition); err != nil {
		return err
	}
	em.Emitf("beqz $v0 %s", endLabel)
	em.BeginScope()
	if err := cg.emitStatement(s.Body); err != nil {
		return err
	}
	em.FreeScope()
	em.Emitf("j %s", startLabel)
	em.Emitf("%s: #ENDWHILE", endLabel)
	return nil
}

// emitExpression leaves the value of expr in $v0 and the stack as it found
// it.
func (cg *CodeGen) emitExpression(expr ast.Expression) error {
	em := cg.em
	switch x := expr.(type) {
	case *ast.Literal:
		if x.Tag != typesys.Int {
			return unsupportedf(x, "literal", "no %s literals", x.Tag)
		}
		em.Emitf("li $v0 %d", x.Value)
		return nil

	case *ast.Variable:
		if err := checkWord(x, "variable"); err != nil {
			return err
		}
		em.Retrieve(regValue, x.Name)
		return nil

	case *ast.BinOp:
		return cg.emitBinOp(x)

	case *ast.ProcedureCall:
		return cg.emitCall(x)
	}
	return unsupportedf(expr, "expression", "no rendering for %T", expr)
}

// emitBinOp evaluates the left operand, parks it on the stack while the
// right one is computed, then combines them.
func (cg *CodeGen) emitBinOp(b *ast.BinOp) error {
	em := cg.em
	lt, rt := b.Left.Type(), b.Right.Type()
	if lt != rt {
		return unsupportedf(b, b.Operator.String(), "operands of type %s and %s", lt, rt)
	}
	code, ok := format(b.Operator, lt, regValue, regScratch, regValue)
	if !ok {
		return unsupportedf(b, b.Operator.String(), "no rendering for %s operands", lt)
	}

	if err := cg.emitExpression(b.Left); err != nil {
		return err
	}
	em.Push(regValue)
	if err := cg.emitExpression(b.Right); err != nil {
		return err
	}
	em.Pop(regScratch)
	em.EmitLines(code)
	return nil
}

// emitCall pushes the arguments left to right and jumps to the procedure.
// The callee pops them, so the caller only adjusts its bookkeeping.
func (cg *CodeGen) emitCall(call *ast.ProcedureCall) error {
	em := cg.em
	if proc, ok := cg.procedures[call.Name]; ok {
		if len(proc.Parameters) != len(call.Arguments) {
			return unsupportedf(call, "call", "procedure %s expects %d argument(s), got %d",
				call.Name, len(proc.Parameters), len(call.Arguments))
		}
	} else {
		em.Unresolved(call.Name)
	}

	em.Emitf("# call %s", call.Name)
	for _, arg := range call.Arguments {
		if err := cg.emitExpression(arg); err != nil {
			return err
		}
		em.PushArgument(regValue)
	}
	em.Emitf("jal %s", ProcedureLabel(call.Name))
	em.ReleaseArguments(len(call.Arguments))
	return nil
}

// checkWord rejects variables whose type does not fit one stack word.
func checkWord(v *ast.Variable, operation string) error {
	if v.Tag != typesys.Int {
		return unsupportedf(v, operation, "%s has type %s", v.Name, v.Tag)
	}
	return nil
}
