package parser

import (
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/pkg/errors"

	"pascalc/internal/ast"
	"pascalc/internal/diag"
	"pascalc/internal/lexer"
	"pascalc/internal/token"
	"pascalc/internal/typesys"
)

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1+2*3", "(1 + (2 * 3))"},
		{"1*2+3", "((1 * 2) + 3)"},
		{"1-2-3", "((1 - 2) - 3)"},
		{"8/4/2", "((8 / 4) / 2)"},
		{"7 mod 4 * 2", "((7 mod 4) * 2)"},
		{"a + b < c * d", "((a + b) < (c * d))"},
		{"a < b && c <> d || e", "(((a < b) && (c <> d)) || e)"},
		{"a = b = c", "((a = b) = c)"},
		{"(1+2)*3", "((1 + 2) * 3)"},
		{"-x", "(0 - x)"},
		{"-2*3", "((0 - 2) * 3)"},
		{"- -1", "(0 - (0 - 1))"},
		{"f(1, 2+3) * g()", "(f(1, (2 + 3)) * g())"},
		{"True && False", "(True && False)"},
		{"x >= 1 || y <= 2", "((x >= 1) || (y <= 2))"},
	}

	for i, tt := range tests {
		program := parseOK(t, "WRITELN("+tt.input+");")
		w, ok := program.Main.(*ast.WriteLn)
		if !ok {
			t.Fatalf("tests[%d] main is %T, want *ast.WriteLn", i, program.Main)
		}
		if got := w.Value.String(); got != tt.expected {
			t.Fatalf("tests[%d] %q parsed as %s, want %s", i, tt.input, got, tt.expected)
		}
	}
}

func TestBooleanLiterals(t *testing.T) {
	program := parseOK(t, "x := True;")
	lit, ok := program.Main.(*ast.Assignment).Value.(*ast.Literal)
	if !ok {
		t.Fatalf("expected literal, got %T", program.Main.(*ast.Assignment).Value)
	}
	if lit.Value != 1 || !lit.Boolean || lit.Type() != typesys.Int {
		t.Fatalf("bad True literal: %# v", pretty.Formatter(lit))
	}
}

func TestStatements(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x := 1;", "x := 1;"},
		{"BEGIN END;", "BEGIN END;"},
		{"BEGIN x := 1; WRITELN(x); END.", "BEGIN x := 1; WRITELN(x); END;"},
		{"READLN(n);", "READLN(n);"},
		{"f(1, 2);", "f(1, 2)"},
		{"IF x THEN y := 1;", "IF x THEN y := 1;"},
		{"IF x THEN y := 1; ELSE y := 2;", "IF x THEN y := 1; ELSE y := 2;"},
		{"IF a THEN IF b THEN x := 1; ELSE x := 2;", "IF a THEN IF b THEN x := 1; ELSE x := 2;"},
		{"WHILE i <= 3 DO i := i + 1;", "WHILE (i <= 3) DO i := (i + 1);"},
		{"FOR i := 1 TO n DO WRITELN(i);", "BEGIN i := 1; WHILE (i <= n) DO BEGIN WRITELN(i); i := (i + 1); END; END;"},
	}

	for i, tt := range tests {
		program := parseOK(t, tt.input)
		if got := program.Main.String(); got != tt.expected {
			t.Fatalf("tests[%d] %q => %q, want %q", i, tt.input, got, tt.expected)
		}
	}
}

func TestDanglingElseBindsInnermost(t *testing.T) {
	program := parseOK(t, "IF a THEN IF b THEN x := 1; ELSE x := 2;")
	outer := program.Main.(*ast.If)
	if outer.Alternative != nil {
		t.Fatalf("ELSE attached to the outer IF")
	}
	inner, ok := outer.Consequence.(*ast.If)
	if !ok || inner.Alternative == nil {
		t.Fatalf("ELSE should belong to the inner IF: %# v", pretty.Formatter(outer))
	}
}

func TestProcedureDeclarations(t *testing.T) {
	input := `
PROCEDURE add(a, b);
  add := a + b;
PROCEDURE zero();
  zero := 0;
BEGIN
  WRITELN(add(zero(), 2));
END.
`
	program := parseOK(t, input)
	if len(program.Procedures) != 2 {
		t.Fatalf("expected 2 procedures, got %d", len(program.Procedures))
	}
	add := program.Procedures[0].Procedure
	if add.Name != "add" || len(add.Parameters) != 2 || add.Parameters[1].Name != "b" {
		t.Fatalf("bad add procedure: %# v", pretty.Formatter(add))
	}
	if len(program.Procedures[1].Procedure.Parameters) != 0 {
		t.Fatalf("zero() should take no parameters")
	}

	block := program.Main.(*ast.Block)
	call := block.Statements[0].(*ast.WriteLn).Value.(*ast.ProcedureCall)
	if call.Name != "add" || len(call.Arguments) != 2 {
		t.Fatalf("bad call %s", call)
	}
	if _, ok := call.Arguments[0].(*ast.ProcedureCall); !ok {
		t.Fatalf("zero() should parse as a call, got %T", call.Arguments[0])
	}
}

func TestNestedProcedureDeclarationIsAStatement(t *testing.T) {
	program := parseOK(t, "BEGIN PROCEDURE g(); g := 1; WRITELN(g()); END;")
	block := program.Main.(*ast.Block)
	if _, ok := block.Statements[0].(*ast.ProcedureDeclaration); !ok {
		t.Fatalf("expected a declaration statement, got %T", block.Statements[0])
	}
}

func TestTokensCarryPositions(t *testing.T) {
	program := parseOK(t, "BEGIN\n  x := 1 + y;\nEND;")
	assign := program.Main.(*ast.Block).Statements[0].(*ast.Assignment)
	if assign.Target.Token.Line != 2 || assign.Target.Token.Column != 3 {
		t.Fatalf("target at %d:%d", assign.Target.Token.Line, assign.Target.Token.Column)
	}
	bin := assign.Value.(*ast.BinOp)
	if bin.Token.Literal != token.PLUS || bin.Token.Column != 10 {
		t.Fatalf("operator token %+v", bin.Token)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
		line  int
		col   int
	}{
		{"x := 1", "expected \";\", got end of input", 1, 7},
		{"x = 1;", "expected \":=\" or \"(\" after x", 1, 3},
		{"WRITELN(1;", "expected \")\", got \";\"", 1, 10},
		{"BEGIN x := 1;", "expected \"END\", got end of input", 1, 14},
		{"BEGIN END", "expected \";\", got end of input", 1, 10},
		{"x := ;", "expected an expression, got \";\"", 1, 6},
		{"x := 1; y := 2;", "expected end of input, got \"y\"", 1, 9},
		{"BEGIN END. x := 1;", "expected end of input", 1, 12},
		{"BEGIN BEGIN END. END.", "expected a statement, got \".\"", 1, 16},
		{"x := 2147483648;", "integer literal 2147483648 out of range", 1, 6},
		{"BEGIN := 1;", "expected a statement", 1, 7},
		{"END := 1;", "expected a statement, got \"END\"", 1, 1},
		{"x := THEN;", "reserved word \"THEN\" cannot be used as a variable name", 1, 6},
		{"PROCEDURE WHILE(); x := 1; x := 2;", "reserved word \"WHILE\" cannot be used as a procedure name", 1, 11},
		{"PROCEDURE f(DO); x := 1; x := 2;", "reserved word \"DO\" cannot be used as a variable name", 1, 13},
		{"READLN(1);", "expected variable name, got \"1\"", 1, 8},
		{"FOR i := 1 DO x := 1;", "expected \"TO\", got \"DO\"", 1, 12},
		{"PROCEDURE f(a b); x := 1;", "expected \")\", got \"b\"", 1, 15},
		{"", "expected a statement, got end of input", 1, 1},
	}

	for i, tt := range tests {
		_, err := Parse(tt.input)
		if err == nil {
			t.Fatalf("tests[%d] %q: expected an error", i, tt.input)
		}
		var perr *diag.ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("tests[%d] %q: expected *diag.ParseError, got %T (%v)", i, tt.input, err, err)
		}
		if !strings.Contains(perr.Message, tt.msg) {
			t.Fatalf("tests[%d] %q: message %q does not contain %q", i, tt.input, perr.Message, tt.msg)
		}
		if perr.Pos.Line != tt.line || perr.Pos.Column != tt.col {
			t.Fatalf("tests[%d] %q: error at %s, want %d:%d", i, tt.input, perr.Pos, tt.line, tt.col)
		}
	}
}

func TestScanErrorsPropagate(t *testing.T) {
	_, err := Parse("x := 1 # 2;")
	var serr *diag.ScanError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *diag.ScanError, got %T (%v)", err, err)
	}
}

func TestMaxIntLiteral(t *testing.T) {
	program := parseOK(t, "x := 2147483647;")
	if v := program.Main.(*ast.Assignment).Value.(*ast.Literal).Value; v != 2147483647 {
		t.Fatalf("got %d", v)
	}
	// the minimum is reachable only through unary minus on a smaller literal
	program = parseOK(t, "x := -2147483647 - 1;")
	if got := program.Main.String(); got != "x := ((0 - 2147483647) - 1);" {
		t.Fatalf("got %s", got)
	}
}

func TestSentinelEndsProgram(t *testing.T) {
	program := parseOK(t, "WRITELN(1); $ this is ignored")
	if program.Main.String() != "WRITELN(1);" {
		t.Fatalf("got %s", program.Main)
	}
}

func TestParsingIsDeterministic(t *testing.T) {
	input := "PROCEDURE f(x); f := x * 2; BEGIN i := 0; WHILE i < 3 DO BEGIN WRITELN(f(i)); i := i + 1; END; END."
	first := parseOK(t, input)
	second := parseOK(t, input)
	if diff := pretty.Diff(first, second); len(diff) > 0 {
		t.Fatalf("two parses differ:\n%s", strings.Join(diff, "\n"))
	}
}

func parseOK(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, err := New(lexer.New(input)).ParseProgram()
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return program
}
