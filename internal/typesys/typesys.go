package typesys

import "fmt"

// Type tags the static kind of an expression. Only Int is produced by the
// parser; the other tags exist so the code generator's format tables have
// something to reject.
type Type int

const (
	Int Type = iota
	Double
	Char
)

// WordSize is the size of one stack slot on the target.
const WordSize = 4

var names = map[Type]string{
	Int:    "INT",
	Double: "DOUBLE",
	Char:   "CHAR",
}

func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Size returns the storage size of a value of type t in bytes.
func (t Type) Size() int {
	switch t {
	case Int:
		return 4
	case Double:
		return 8
	case Char:
		return 1
	default:
		return 0
	}
}

// Valid reports whether t is one of the declared tags.
func (t Type) Valid() bool {
	_, ok := names[t]
	return ok
}
