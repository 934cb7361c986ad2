package object

import "pascalc/internal/ast"

// Environment stores variable and procedure bindings.
// It's a pair of maps with a link to the enclosing scope. A procedure call
// gets a fresh Environment whose parent is the one the call ran in.
type Environment struct {
	vars       map[string]Value
	procedures map[string]*ast.Procedure
	parent     *Environment // nil for the root scope
}

// NewEnvironment creates a root environment
func NewEnvironment() *Environment {
	return &Environment{
		vars:       make(map[string]Value),
		procedures: make(map[string]*ast.Procedure),
	}
}

// NewEnclosedEnvironment creates a child scope of parent
func NewEnclosedEnvironment(parent *Environment) *Environment {
	env := NewEnvironment()
	env.parent = parent
	return env
}

// Parent returns the enclosing scope, or nil at the root.
func (e *Environment) Parent() *Environment { return e.parent }

// SetVariable assigns to the nearest scope that already binds name, or
// binds it locally when no scope does.
func (e *Environment) SetVariable(name string, val Value) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = val
			return
		}
	}
	e.vars[name] = val
}

// DeclareVariable always binds locally, shadowing any outer binding.
func (e *Environment) DeclareVariable(name string, val Value) {
	e.vars[name] = val
}

// GetVariable looks name up here, then in enclosing scopes.
func (e *Environment) GetVariable(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return 0, false
}

// SetProcedure binds proc locally. A later binding of the same name
// replaces the earlier one.
func (e *Environment) SetProcedure(name string, proc *ast.Procedure) {
	e.procedures[name] = proc
}

// GetProcedure looks name up here, then in enclosing scopes.
func (e *Environment) GetProcedure(name string) (*ast.Procedure, bool) {
	for env := e; env != nil; env = env.parent {
		if p, ok := env.procedures[name]; ok {
			return p, true
		}
	}
	return nil, false
}
