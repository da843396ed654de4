package goffi

import (
	"os"

	"github.com/blade-lang/goffi/internal/cparse"
	"github.com/blade-lang/goffi/internal/symtab"
)

// Cdef implements spec.md §6's `cdef(code, lib?)`: parses decls as a
// sequence of C declarations into vm's own global scope. lib, if
// non-empty, overrides any `#define FFI_LIB` directive found in decls;
// pass "" to respect the directive (or leave the scope library-less).
//
// Per spec.md §5 "Cancellation", a parse failure leaves vm's globals
// exactly as they were found: internal/cparse.Parse already rolls back
// every symbol/tag it added during this call before returning its error.
func (vm *VM) Cdef(decls string, lib string) error {
	if !globalEnable.allowParse() {
		return &DisabledError{}
	}
	return cdefInto(vm.globals, decls, lib)
}

// Load implements spec.md §6's `load(filename)`: reads filename and
// parses it the same way Cdef does, except that a `#define FFI_SCOPE
// "name"` directive routes the declarations into that named, VM-local
// scope (created empty on first use) instead of vm's own globals.
//
// A failure to read filename at all is a resource error (spec.md §7):
// it is returned as-is, already naming the offending path via os.PathError.
func (vm *VM) Load(filename string) error {
	if !globalEnable.allowParse() {
		return &DisabledError{}
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	// A first, cheap parse-free pass to learn which scope to target: Parse
	// itself returns the very same directive values in its Result, but only
	// once it has committed to a *symtab.Scope up front, so the scope must
	// be chosen before calling it.
	scopeName, lib := cparse.PeekDirectives(string(data))
	scope := vm.globals
	if scopeName != "" {
		scope = vm.namedScope(scopeName)
	}
	return cdefInto(scope, string(data), lib)
}

// cdefInto is the shared body of Cdef/Load: parse src into scope, binding
// lib (or the file's own FFI_LIB directive) as the scope's library path.
func cdefInto(scope *symtab.Scope, src, lib string) error {
	res, err := cparse.Parse(src, scope)
	if err != nil {
		return newParseErr(err)
	}
	switch {
	case lib != "":
		scope.Library = lib
	case res.Library != "":
		scope.Library = res.Library
	}
	return nil
}
