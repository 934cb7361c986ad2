package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"pascalc/internal/typesys"
)

// Emitter writes assembly text while simulating the stack. It tracks how
// many bytes the program has pushed since the current frame began (the
// delta), the delta at which each live variable was stored (its offset),
// and which variables each open scope owns, so a variable at offset o is
// always reachable as (delta - o)($sp).
//
// An Emitter belongs to one compilation.
type Emitter struct {
	out bytes.Buffer

	delta      int
	offsets    map[string]int
	scopes     [][]string
	nextLabel  int
	unresolved []string
	lines      int

	err error // first internal inconsistency
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{offsets: make(map[string]int)}
}

// Emit writes one line. Labels start in column 0, everything else is
// indented by a tab.
func (e *Emitter) Emit(code string) {
	if !isLabel(code) {
		code = "\t" + code
	}
	e.out.WriteString(code)
	e.out.WriteByte('\n')
	e.lines++
}

// Emitf formats and writes one line.
func (e *Emitter) Emitf(format string, args ...interface{}) {
	e.Emit(fmt.Sprintf(format, args...))
}

// EmitLines writes a multi-line snippet one line at a time.
func (e *Emitter) EmitLines(code string) {
	for _, line := range strings.Split(code, "\n") {
		e.Emit(line)
	}
}

// isLabel reports whether code defines a label, ignoring a trailing
// comment: "label3: #ENDIF" is a label.
func isLabel(code string) bool {
	if i := strings.IndexByte(code, '#'); i >= 0 {
		code = code[:i]
	}
	return strings.HasSuffix(strings.TrimSpace(code), ":")
}

// Push stores reg on top of the stack.
func (e *Emitter) Push(reg string) {
	e.Emit("subu $sp $sp 4")
	e.Emitf("sw %s ($sp)", reg)
	e.delta += typesys.WordSize
}

// Pop loads the top of the stack into reg and drops it.
func (e *Emitter) Pop(reg string) {
	e.Emitf("lw %s ($sp)", reg)
	e.Emit("addu $sp $sp 4")
	e.delta -= typesys.WordSize
	if e.delta < 0 {
		e.fail("pop below the frame base")
	}
}

// PushArgument pushes one procedure argument. The slot is counted in the
// delta so later arguments still address variables correctly, but it
// belongs to no scope: the callee frees it.
func (e *Emitter) PushArgument(reg string) {
	e.Push(reg)
}

// ReleaseArguments accounts for n arguments the callee has already popped.
// It emits nothing.
func (e *Emitter) ReleaseArguments(n int) {
	e.delta -= n * typesys.WordSize
	if e.delta < 0 {
		e.fail("released more arguments than were pushed")
	}
}

// Store writes reg to the variable name. A name without a slot gets one:
// reg is pushed and the slot is owned by the innermost scope.
func (e *Emitter) Store(reg, name string) {
	if off, ok := e.offsets[name]; ok {
		e.Emitf("sw %s %d($sp)", reg, e.delta-off)
		return
	}
	if len(e.scopes) == 0 {
		e.fail("store of " + name + " outside any scope")
		return
	}
	e.Emitf("# new variable %s", name)
	e.Push(reg)
	e.offsets[name] = e.delta
	top := len(e.scopes) - 1
	e.scopes[top] = append(e.scopes[top], name)
}

// Retrieve loads the variable name into reg. A name with no slot reads as
// zero.
func (e *Emitter) Retrieve(reg, name string) {
	off, ok := e.offsets[name]
	if !ok {
		e.Emitf("li %s 0", reg)
		return
	}
	e.Emitf("lw %s %d($sp)", reg, e.delta-off)
}

// BeginScope opens a scope that owns every variable stored until the
// matching FreeScope.
func (e *Emitter) BeginScope() {
	e.scopes = append(e.scopes, nil)
}

// FreeScope pops the variables the innermost scope owns and forgets their
// offsets.
func (e *Emitter) FreeScope() {
	if len(e.scopes) == 0 {
		e.fail("free of a scope that was never opened")
		return
	}
	top := len(e.scopes) - 1
	owned := e.scopes[top]
	e.scopes = e.scopes[:top]
	if len(owned) == 0 {
		return
	}
	e.Emitf("addu $sp $sp %d", typesys.WordSize*len(owned))
	e.delta -= typesys.WordSize * len(owned)
	for _, name := range owned {
		delete(e.offsets, name)
	}
}

// LinkProcedure starts a procedure frame. On entry the caller has pushed
// one word per parameter, the last one on top, so the frame begins with
// those words already counted and owned by a fresh scope.
func (e *Emitter) LinkProcedure(params []string) {
	if len(e.scopes) != 0 || e.delta != 0 {
		e.fail("procedure linked inside another frame")
	}
	e.BeginScope()
	e.delta = len(params) * typesys.WordSize
	top := len(e.scopes) - 1
	for i, name := range params {
		e.offsets[name] = (i + 1) * typesys.WordSize
		e.scopes[top] = append(e.scopes[top], name)
	}
}

// NewLabel returns a label no other call on this emitter returns.
func (e *Emitter) NewLabel() string {
	label := fmt.Sprintf("label%d", e.nextLabel)
	e.nextLabel++
	return label
}

// ProcedureLabel is the entry label of the procedure name.
func ProcedureLabel(name string) string {
	return "procedure" + name
}

// Unresolved records a call to a procedure that has no declaration.
func (e *Emitter) Unresolved(name string) {
	for _, n := range e.unresolved {
		if n == name {
			return
		}
	}
	e.unresolved = append(e.unresolved, name)
}

// UnresolvedCalls lists the undeclared procedures called so far, in order
// of first call.
func (e *Emitter) UnresolvedCalls() []string {
	return append([]string(nil), e.unresolved...)
}

// Delta is the number of bytes pushed since the current frame began.
func (e *Emitter) Delta() int { return e.delta }

// Depth is the number of open scopes.
func (e *Emitter) Depth() int { return len(e.scopes) }

// Offset reports the slot of a live variable.
func (e *Emitter) Offset(name string) (int, bool) {
	off, ok := e.offsets[name]
	return off, ok
}

// Lines is the number of lines written so far.
func (e *Emitter) Lines() int { return e.lines }

// String returns the text written so far.
func (e *Emitter) String() string { return e.out.String() }

// Bytes returns the text written so far.
func (e *Emitter) Bytes() []byte { return e.out.Bytes() }

// Err returns the first internal inconsistency, if any.
func (e *Emitter) Err() error { return e.err }

// CheckBalanced fails unless every scope is closed and the stack is back at
// the frame base.
func (e *Emitter) CheckBalanced() error {
	if e.err != nil {
		return e.err
	}
	if len(e.scopes) != 0 || e.delta != 0 {
		return errors.Errorf("internal: unbalanced stack: delta %d, %d open scope(s)", e.delta, len(e.scopes))
	}
	return nil
}

func (e *Emitter) fail(msg string) {
	if e.err == nil {
		e.err = errors.New("internal: " + msg)
	}
}
