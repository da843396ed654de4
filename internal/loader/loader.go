// Package loader defines the Library Loader boundary named in spec.md §1 as
// an external collaborator: "the low-level dynamic-loader wrappers
// (dlopen/dlsym equivalent)... are named at their boundary only." This
// package ships the interface only; a real implementation (cgo-based, or a
// pure-Go loader in the style of github.com/ebitengine/purego) is supplied
// by the host embedding this engine.
package loader

import "fmt"

// Loader opens shared libraries and resolves symbol addresses in them.
type Loader interface {
	// Open loads the shared library at path (or, if path is "", the main
	// program image, letting already-linked symbols resolve).
	Open(path string) (Handle, error)
}

// Handle is an open shared library.
type Handle interface {
	// Symbol resolves name to its address. Returns (0, err) if not found.
	Symbol(name string) (uintptr, error)
	Close() error
}

// OpenError reports a library-open failure, part of spec.md §7's "Resource
// errors... reported with the offending name".
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("goffi: cannot open library %q: %v", e.Path, e.Err)
}
func (e *OpenError) Unwrap() error { return e.Err }

// SymbolError reports a failed symbol resolution.
type SymbolError struct {
	Library string
	Name    string
	Err     error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("goffi: symbol %q not found in %q: %v", e.Name, e.Library, e.Err)
}
func (e *SymbolError) Unwrap() error { return e.Err }

// Null is a Loader that never resolves anything, used when an engine is
// constructed without a library binding (declarations-only cdef calls).
var Null Loader = nullLoader{}

type nullLoader struct{}

func (nullLoader) Open(path string) (Handle, error) {
	return nil, &OpenError{Path: path, Err: fmt.Errorf("no loader configured")}
}
