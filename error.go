package goffi

import (
	"fmt"

	"github.com/blade-lang/goffi/internal/cparse"
	"github.com/blade-lang/goffi/internal/marshal"
	"github.com/blade-lang/goffi/internal/symtab"
	"github.com/blade-lang/goffi/internal/trampoline"
)

// Exception is the stable host exception class spec.md §7 calls
// FFIException: "runtime and resolution errors". The engine only
// identifies the kind; translating it into an actual host-language
// exception object is the embedder's job, per spec.md §1's "we specify
// only the error taxonomy the engine emits".
type Exception interface {
	error
	ffiException()
}

// ParserException is the stable host exception class spec.md §7 calls
// FFIParserException: errors raised during a cdef/load call, after which
// every type/symbol/tag added during that call has already been rolled
// back (internal/symtab's undo log; see cdef.go).
type ParserException interface {
	error
	ffiParserException()
}

// DisabledError is spec.md §6's Disabled: the `enable` configuration
// option is "off", or "preload" and the call site is not the preload
// path, so the whole engine refuses to run.
type DisabledError struct{}

func (e *DisabledError) Error() string { return "goffi: FFI is disabled" }
func (*DisabledError) ffiException()   {}

// ParseErr is spec.md §6's ParseError(line, msg): a cdef/load call failed
// to parse. Line and Msg report the first diagnostic; Err is the full,
// possibly multi-diagnostic, underlying error from internal/cparse.
type ParseErr struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseErr) Error() string {
	return fmt.Sprintf("goffi: parse error at line %d: %s", e.Line, e.Msg)
}
func (e *ParseErr) Unwrap() error     { return e.Err }
func (*ParseErr) ffiParserException() {}

// errorLister matches internal/cparse's unexported multiError type
// structurally: Go interface satisfaction only requires the method
// signature to match, not the implementing type to be exported.
type errorLister interface {
	Errors() []*cparse.ParseError
}

// newParseErr adapts whatever internal/cparse.Parse returned (a single
// *cparse.ParseError, or its unexported multiError wrapping several) into
// the host-visible ParseErr, reporting the first diagnostic's line/message.
func newParseErr(err error) *ParseErr {
	if pe, ok := err.(*cparse.ParseError); ok {
		return &ParseErr{Line: pe.Pos.Line, Msg: pe.Msg, Err: err}
	}
	if el, ok := err.(errorLister); ok {
		if errs := el.Errors(); len(errs) > 0 {
			return &ParseErr{Line: errs[0].Pos.Line, Msg: errs[0].Msg, Err: err}
		}
	}
	return &ParseErr{Err: err, Msg: err.Error()}
}

// wrapMarshalErr adapts whatever internal/marshal.HostToCData returned into
// its root-package Exception counterpart, the same rule newParseErr applies
// to internal/cparse and wrapTrampolineErr applies to internal/trampoline:
// callers assert against goffi's own error types, never an internal
// package's.
func wrapMarshalErr(err error) error {
	switch e := err.(type) {
	case *marshal.IncompatibleAssignmentError:
		return &IncompatibleAssignmentError{e}
	case *marshal.AssignOwnedPointerError:
		return &AssignOwnedPointerError{e}
	case *marshal.NonCStringError:
		return &NonCStringError{e}
	default:
		return err
	}
}

// UnknownTypeError is spec.md §6's UnknownType(name). Type returns it when
// the parsed declaration leaves no type bound. An identifier with no
// typedef/tag binding in the declaration text is not reported with this
// error: the parser rejects it and the caller receives a *ParseErr.
type UnknownTypeError struct{ Name string }

func (e *UnknownTypeError) Error() string { return "goffi: unknown type " + e.Name }
func (*UnknownTypeError) ffiException()   {}

// RedeclarationError is spec.md §6's Redeclaration, surfaced at the
// symtab level (internal/symtab.RedeclarationError) and re-exposed here
// so callers outside this module's internal tree can type-assert it as
// an Exception without reaching into internal/symtab themselves.
type RedeclarationError struct{ *symtab.RedeclarationError }

func (*RedeclarationError) ffiException() {}

// IncompatibleAssignmentError is spec.md §6's
// IncompatibleAssignment(dst_type, src_type_or_host_kind), surfaced at
// the marshal level and re-exposed the same way as RedeclarationError.
type IncompatibleAssignmentError struct {
	*marshal.IncompatibleAssignmentError
}

func (*IncompatibleAssignmentError) ffiException() {}

// IncompatiblePassError is spec.md §6's
// IncompatiblePass(index, expected_type, actual): a call-site argument's
// value could not be marshaled into the declared parameter type.
type IncompatiblePassError struct {
	Index    int
	Expected string
	Actual   string
}

func (e *IncompatiblePassError) Error() string {
	return fmt.Sprintf("goffi: argument %d: expected %s, got %s", e.Index, e.Expected, e.Actual)
}
func (*IncompatiblePassError) ffiException() {}

// ZeroSizeError is spec.md §6's ZeroSize: new(type) was asked to
// allocate storage for a type whose Size is zero (an incomplete type).
type ZeroSizeError struct{ Type string }

func (e *ZeroSizeError) Error() string { return "goffi: cannot allocate zero-size type " + e.Type }
func (*ZeroSizeError) ffiException()   {}

// NullDerefError is spec.md §6's NullDeref: an index or field access
// dereferenced a null pointer CData.
type NullDerefError struct{}

func (e *NullDerefError) Error() string { return "goffi: null pointer dereference" }
func (*NullDerefError) ffiException()   {}

// OutOfBoundsError is spec.md §6's OutOfBounds: an array index fell
// outside [0, length) on a CData with a known, nonzero array length.
type OutOfBoundsError struct {
	Index  int
	Length int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("goffi: index %d out of bounds (length %d)", e.Index, e.Length)
}
func (*OutOfBoundsError) ffiException() {}

// NonCStringError is spec.md §6's NonCString, re-exposed from the
// marshal level: a string(cdata) call targeted a CData whose type is
// neither Pointer(Char) nor Array(Char).
type NonCStringError struct{ *marshal.NonCStringError }

func (*NonCStringError) ffiException() {}

// UnsupportedABIError is spec.md §6's UnsupportedABI, re-exposed from
// the trampoline level: a function type names a calling convention this
// platform's Backend cannot lower.
type UnsupportedABIError struct{ *trampoline.UnsupportedABIError }

func (*UnsupportedABIError) ffiException() {}

// UnsupportedReturnError is spec.md §6's UnsupportedReturn: a function's
// declared return type cannot be unmarshaled by this engine (currently:
// none are rejected, but VLA/flexible-array returns would land here).
type UnsupportedReturnError struct{ Type string }

func (e *UnsupportedReturnError) Error() string {
	return "goffi: unsupported return type " + e.Type
}
func (*UnsupportedReturnError) ffiException() {}

// UnsupportedPassError is spec.md §6's UnsupportedPass: a declared
// parameter type cannot be marshaled for a call (e.g. a VLA parameter).
type UnsupportedPassError struct {
	Index int
	Type  string
}

func (e *UnsupportedPassError) Error() string {
	return fmt.Sprintf("goffi: argument %d: unsupported parameter type %s", e.Index, e.Type)
}
func (*UnsupportedPassError) ffiException() {}

// AssignOwnedPointerError is spec.md §6's AssignOwnedPointer, re-exposed
// from the marshal level: assigning a CData whose own storage is OWNED
// into a pointer-typed location is refused.
type AssignOwnedPointerError struct{ *marshal.AssignOwnedPointerError }

func (*AssignOwnedPointerError) ffiException() {}

// WrongArgCountError is spec.md §6's WrongArgCount(expected, got),
// re-exposed from the trampoline level.
type WrongArgCountError struct{ *trampoline.WrongArgCountError }

func (*WrongArgCountError) ffiException() {}

// NotCallableError is spec.md §6's NotCallable: a call() was attempted on
// a CData whose type is not Func or Pointer(Func). The same error is also
// returned when a field, index, element or null-check operation is applied
// to a CData whose type kind does not support it.
type NotCallableError struct{ Type string }

func (e *NotCallableError) Error() string { return "goffi: " + e.Type + " is not callable" }
func (*NotCallableError) ffiException()   {}

// CompareIncompatibleError is spec.md §6's CompareIncompatible: SubPtr
// was given two pointers whose pointee types differ. Memcmp does not
// compare types and never returns it.
type CompareIncompatibleError struct {
	A, B string
}

func (e *CompareIncompatibleError) Error() string {
	return fmt.Sprintf("goffi: cannot compare %s with %s", e.A, e.B)
}
func (*CompareIncompatibleError) ffiException() {}

// UseAfterFreeError is spec.md §6's UseAfterFree: an operation targeted
// a CData whose backing storage has already been released by free().
type UseAfterFreeError struct{}

func (e *UseAfterFreeError) Error() string { return "goffi: use after free" }
func (*UseAfterFreeError) ffiException()   {}
