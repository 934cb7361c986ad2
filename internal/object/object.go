package object

import (
	"strconv"

	"pascalc/internal/typesys"
)

// Value is the only runtime value: a 32-bit signed integer. Booleans are
// 1 and 0, and anything non-zero counts as true in a condition.
type Value int32

const (
	False Value = 0
	True  Value = 1
)

// Bool converts a Go boolean into its 0/1 value.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Truthy reports whether v selects the THEN branch or continues a loop.
func (v Value) Truthy() bool { return v != 0 }

// Type is always INT.
func (v Value) Type() typesys.Type { return typesys.Int }

// Inspect renders the value the way WRITELN prints it.
func (v Value) Inspect() string { return strconv.FormatInt(int64(v), 10) }
