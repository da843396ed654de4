package trampoline

import "fmt"

// WrongArgCountError is spec.md §7's WrongArgCount(want, got): the actual
// argument count didn't satisfy the declared arity (exact for a
// non-variadic function, at-least for a variadic one).
type WrongArgCountError struct {
	Want    int
	Got     int
	AtLeast bool
}

func (e *WrongArgCountError) Error() string {
	if e.AtLeast {
		return fmt.Sprintf("goffi: want at least %d arguments, got %d", e.Want, e.Got)
	}
	return fmt.Sprintf("goffi: want %d arguments, got %d", e.Want, e.Got)
}

// IncompatibleArgError is raised when a struct/union-by-value parameter
// was not supplied a backing address to pass by reference.
type IncompatibleArgError struct {
	Index int
	Want  string
}

func (e *IncompatibleArgError) Error() string {
	return fmt.Sprintf("goffi: argument %d: expected a %s-backed value", e.Index, e.Want)
}

// UnsupportedABIError is raised when a Cif names a calling convention this
// platform's Backend cannot lower.
type UnsupportedABIError struct{ ABI string }

func (e *UnsupportedABIError) Error() string {
	return "goffi: unsupported calling convention " + e.ABI
}
