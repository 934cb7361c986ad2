package codegen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/pkg/errors"

	"pascalc/internal/ast"
	"pascalc/internal/diag"
	"pascalc/internal/evaluator"
	"pascalc/internal/mips"
	"pascalc/internal/parser"
	"pascalc/internal/token"
	"pascalc/internal/typesys"
)

func TestGenerateMinimalProgram(t *testing.T) {
	asm := generateAssembly(t, "WRITELN(1);")
	want := strings.Join([]string{
		"\t.text",
		"\t.globl main",
		"main:",
		"\tli $v0 1",
		"\tmove $a0 $v0",
		"\tli $v0 1",
		"\tsyscall",
		"\tli $v0 11",
		"\tli $a0 10",
		"\tsyscall",
		"\tli $v0 10",
		"\tsyscall",
	}, "\n") + "\n"
	if asm != want {
		t.Fatalf("assembly:\n%s\nwant:\n%s", asm, want)
	}
}

func TestGenerateBinaryOperator(t *testing.T) {
	asm := generateAssembly(t, "BEGIN x := 2; WRITELN(x + 3); END.")
	wantSeq := []string{
		"\tli $v0 2",
		"\t# new variable x",
		"\tsubu $sp $sp 4",
		"\tsw $v0 ($sp)",
		"\tlw $v0 0($sp)",
		"\tsubu $sp $sp 4",
		"\tsw $v0 ($sp)",
		"\tli $v0 3",
		"\tlw $t0 ($sp)",
		"\taddu $sp $sp 4",
		"\taddu $v0 $t0 $v0",
	}
	if !strings.Contains(asm, strings.Join(wantSeq, "\n")) {
		t.Fatalf("unexpected binary operator code:\n%s", asm)
	}
	// x is popped before the exit syscall
	if !strings.Contains(asm, "\taddu $sp $sp 4\n\tli $v0 10\n\tsyscall\n") {
		t.Fatalf("main scope not freed before exit:\n%s", asm)
	}
}

func TestControlFlowShapes(t *testing.T) {
	asm := generateAssembly(t, "BEGIN i := 0; WHILE i < 3 DO i := i + 1; IF i THEN WRITELN(1); ELSE WRITELN(2); END;")
	for _, want := range []string{
		"label0: #WHILE",
		"\tbeqz $v0 label1",
		"\tj label0",
		"label1: #ENDWHILE",
		"\tbeqz $v0 label2",
		"\tj label3",
		"label2:",
		"label3: #ENDIF",
	} {
		if !strings.Contains(asm, want) {
			t.Fatalf("missing %q in:\n%s", want, asm)
		}
	}
	// the condition is tested before the first iteration
	if strings.Index(asm, "beqz $v0 label1") > strings.Index(asm, "addu $v0 $t0 $v0") {
		t.Fatalf("WHILE must test its condition before the body:\n%s", asm)
	}
}

func TestProceduresFollowMain(t *testing.T) {
	asm := generateAssembly(t, `
PROCEDURE outer(a);
BEGIN
  PROCEDURE inner(b); inner := b * 2;
  outer := inner(a);
END;
BEGIN WRITELN(outer(4)); END.`)

	exit := strings.Index(asm, "\tli $v0 10\n\tsyscall\n")
	outer := strings.Index(asm, "procedureouter:")
	inner := strings.Index(asm, "procedureinner:")
	if exit < 0 || outer < exit || inner < outer {
		t.Fatalf("procedures should follow main in declaration order:\n%s", asm)
	}
	if strings.Count(asm, "procedureinner:") != 1 {
		t.Fatalf("nested procedure emitted more than once:\n%s", asm)
	}
	body := asm[outer:inner]
	for _, want := range []string{"\tli $v0 0", "\tjal procedureinner", "\tjr $ra"} {
		if !strings.Contains(body, want) {
			t.Fatalf("outer is missing %q:\n%s", want, body)
		}
	}
}

func TestGenerateLeavesEmitterBalanced(t *testing.T) {
	cg := New()
	program := parse(t, "PROCEDURE f(a, b); BEGIN IF a THEN c := b; f := c; END; BEGIN x := f(1, 2); WHILE x DO x := x - 1; END;")
	if _, err := cg.Generate(program); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if em := cg.Emitter(); em.Delta() != 0 || em.Depth() != 0 || em.Err() != nil {
		t.Fatalf("emitter left unbalanced: delta=%d depth=%d err=%v", em.Delta(), em.Depth(), em.Err())
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	src := "PROCEDURE f(n); IF n THEN f := n + f(n - 1); BEGIN WRITELN(f(5)); END."
	first := generateAssembly(t, src)
	second := generateAssembly(t, src)
	if first != second {
		t.Fatalf("two compilations differ:\n%v", pretty.Diff(strings.Split(first, "\n"), strings.Split(second, "\n")))
	}
}

func TestUnsupportedPrograms(t *testing.T) {
	tests := []struct {
		input     string
		operation string
		detail    string
	}{
		{"READLN(x);", "READLN", "console input is only available when interpreting"},
		{"PROCEDURE f(); f := 1;\nPROCEDURE f(); f := 2; WRITELN(f());", "PROCEDURE", "duplicate declaration of f"},
		{"BEGIN PROCEDURE g(); g := 1; PROCEDURE g(); g := 2; END;", "PROCEDURE", "duplicate declaration of g"},
		{"PROCEDURE f(a); f := a; WRITELN(f(1, 2));", "call", "procedure f expects 1 argument(s), got 2"},
	}
	for i, tt := range tests {
		_, err := New().Generate(parse(t, tt.input))
		var uerr *diag.UnsupportedError
		if !errors.As(err, &uerr) {
			t.Fatalf("tests[%d] %q: expected *diag.UnsupportedError, got %T (%v)", i, tt.input, err, err)
		}
		if uerr.Operation != tt.operation || uerr.Detail != tt.detail {
			t.Fatalf("tests[%d] %q: got %q / %q", i, tt.input, uerr.Operation, uerr.Detail)
		}
		if !uerr.Pos.Known() {
			t.Fatalf("tests[%d] %q: error has no position", i, tt.input)
		}
	}
}

func TestUnsupportedTypes(t *testing.T) {
	at := token.Token{Type: token.IDENT, Literal: "c", Line: 1, Column: 1}
	charVar := &ast.Variable{Token: at, Name: "c", Tag: typesys.Char}
	intLit := &ast.Literal{Token: at, Value: 1, Tag: typesys.Int}
	charLit := &ast.Literal{Token: at, Value: 'a', Tag: typesys.Char}

	tests := []struct {
		main      ast.Statement
		operation string
	}{
		{&ast.WriteLn{Token: at, Value: charLit}, "literal"},
		{&ast.WriteLn{Token: at, Value: charVar}, "variable"},
		{&ast.Assignment{Token: at, Target: charVar, Value: intLit}, "assignment"},
		{&ast.WriteLn{Token: at, Value: &ast.BinOp{Token: at, Operator: ast.ADD, Left: intLit, Right: charVar}}, "+"},
		{&ast.WriteLn{Token: at, Value: &ast.BinOp{Token: at, Operator: ast.MUL, Left: charVar, Right: charVar}}, "*"},
	}
	for i, tt := range tests {
		var out bytes.Buffer
		err := Compile(&ast.Program{Main: tt.main}, &out)
		var uerr *diag.UnsupportedError
		if !errors.As(err, &uerr) || uerr.Operation != tt.operation {
			t.Fatalf("tests[%d]: expected unsupported %q, got %v", i, tt.operation, err)
		}
		if out.Len() != 0 {
			t.Fatalf("tests[%d]: nothing should be written on failure, got %q", i, out.String())
		}
	}
}

func TestUnresolvedCallsAreReported(t *testing.T) {
	cg := New()
	asm, err := cg.Generate(parse(t, "BEGIN nope(1); WRITELN(other()); nope(2); END;"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := pretty.Diff(cg.UnresolvedCalls(), []string{"nope", "other"}); len(diff) > 0 {
		t.Fatalf("UnresolvedCalls: %v", diff)
	}
	if !strings.Contains(asm, "\tjal procedurenope") {
		t.Fatalf("the call should still be emitted:\n%s", asm)
	}
	if _, err := mips.Assemble(asm); err == nil || !strings.Contains(err.Error(), `undefined label "procedurenope"`) {
		t.Fatalf("expected the missing label to fail assembly, got %v", err)
	}
	if New().UnresolvedCalls() != nil {
		t.Fatalf("a fresh generator has no unresolved calls")
	}
}

func TestCompileWrites(t *testing.T) {
	var out bytes.Buffer
	if err := Compile(parse(t, "WRITELN(7);"), &out); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.HasPrefix(out.String(), "\t.text\n") || !strings.Contains(out.String(), "\tli $v0 7\n") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

// Programs that avoid the documented scoping differences must behave the
// same whether they are interpreted or compiled and executed.
func TestCompiledMatchesInterpreted(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output string
	}{
		{"arithmetic", "BEGIN WRITELN(1+2*3); WRITELN(-7 / 2); WRITELN(-7 mod 3); WRITELN(2147483647 + 1); WRITELN(65536 * 65536); END.", "7\n-3\n-1\n-2147483648\n0\n"},
		{"logic", "BEGIN WRITELN(1 < 2 && 3 > 4 || 1); WRITELN(5 && 2); WRITELN(0 || -3); WRITELN(1 <> 1); WRITELN(True); END.", "1\n1\n1\n0\n1\n"},
		{"unset variable", "WRITELN(never);", "0\n"},
		{"while", "BEGIN i := 1; WHILE i <= 3 DO BEGIN WRITELN(i); i := i + 1; END; END.", "1\n2\n3\n"},
		{"while never runs", "BEGIN i := 5; WHILE i < 3 DO i := i + 1; WRITELN(i); END.", "5\n"},
		{"for", "BEGIN FOR i := 1 TO 3 DO WRITELN(i * i); WRITELN(i); END.", "1\n4\n9\n4\n"},
		{"if else", "BEGIN x := 3; IF x > 2 THEN WRITELN(1); ELSE WRITELN(2); IF x < 2 THEN WRITELN(3); ELSE WRITELN(4); END;", "1\n4\n"},
		{
			"recursion",
			`PROCEDURE fact(n);
			 BEGIN
			   IF n <= 1 THEN fact := 1;
			   ELSE fact := n * fact(n - 1);
			 END;
			 WRITELN(fact(10));`,
			"3628800\n",
		},
		{
			"two recursive calls in one expression",
			`PROCEDURE fib(n);
			 BEGIN
			   IF n < 2 THEN fib := n;
			   ELSE fib := fib(n - 1) + fib(n - 2);
			 END;
			 WRITELN(fib(15));`,
			"610\n",
		},
		{"argument order", "PROCEDURE sub(a, b); sub := a - b; WRITELN(sub(10, 3));", "7\n"},
		{
			"arguments are by value",
			`PROCEDURE bump(x); BEGIN x := x + 1; bump := x; END;
			 BEGIN x := 1; WRITELN(bump(x)); WRITELN(x); END;`,
			"2\n1\n",
		},
		{
			"locals inside a loop",
			`PROCEDURE gcd(a, b);
			 BEGIN
			   WHILE b <> 0 DO BEGIN t := b; b := a mod b; a := t; END;
			   gcd := a;
			 END;
			 WRITELN(gcd(48, 18));`,
			"6\n",
		},
		{
			"call statement discards the value",
			`PROCEDURE show(x); BEGIN WRITELN(x); show := 99; END;
			 show(3);`,
			"3\n",
		},
		{
			"both operands are evaluated",
			`PROCEDURE side(v); BEGIN WRITELN(v); side := v; END;
			 WRITELN(side(0) && side(1));`,
			"0\n1\n0\n",
		},
		{
			"arguments computed while other values are parked",
			`PROCEDURE add3(a, b, c); add3 := a * 100 + b * 10 + c;
			 BEGIN x := 1; y := 2; WRITELN(x + add3(x, y, x + y) * 2); END;`,
			"247\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := parse(t, tt.input)

			var interpreted bytes.Buffer
			if err := evaluator.New(nil, &interpreted).Run(program); err != nil {
				t.Fatalf("interpret: %v", err)
			}
			compiled, err := execute(t, program)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if interpreted.String() != tt.output {
				t.Fatalf("interpreted output=%q want=%q", interpreted.String(), tt.output)
			}
			if compiled != tt.output {
				t.Fatalf("compiled output=%q want=%q", compiled, tt.output)
			}
		})
	}
}

func TestDivisionByZeroFailsBothWays(t *testing.T) {
	program := parse(t, "BEGIN WRITELN(1); WRITELN(1 mod 0); END;")

	var interpreted bytes.Buffer
	ierr := evaluator.New(nil, &interpreted).Run(program)
	compiled, cerr := execute(t, program)

	var rerr *diag.RuntimeError
	if !errors.As(ierr, &rerr) || !errors.As(cerr, &rerr) {
		t.Fatalf("expected runtime errors from both backends, got %v and %v", ierr, cerr)
	}
	if interpreted.String() != "1\n" || compiled != "1\n" {
		t.Fatalf("output before the failure: %q and %q", interpreted.String(), compiled)
	}
}

// A variable first assigned inside a loop body is popped at the end of each
// iteration when compiled, so the next iteration reads it as zero.
func TestLoopBodyVariablesAreFreedWhenCompiled(t *testing.T) {
	program := parse(t, "BEGIN i := 0; WHILE i < 2 DO BEGIN WRITELN(acc); acc := acc + 1; i := i + 1; END; END;")

	var interpreted bytes.Buffer
	if err := evaluator.New(nil, &interpreted).Run(program); err != nil {
		t.Fatalf("interpret: %v", err)
	}
	compiled, err := execute(t, program)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if interpreted.String() != "0\n1\n" || compiled != "0\n0\n" {
		t.Fatalf("interpreted=%q compiled=%q", interpreted.String(), compiled)
	}
}

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	program, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return program
}

func generateAssembly(t *testing.T, src string) string {
	t.Helper()
	asm, err := New().Generate(parse(t, src))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return asm
}

func execute(t *testing.T, program *ast.Program) (string, error) {
	t.Helper()
	asm, err := New().Generate(program)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var out bytes.Buffer
	err = mips.Execute(asm, nil, &out, 1000000)
	return out.String(), err
}
