package goffi

import (
	"github.com/blade-lang/goffi/internal/cparse"
	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/symtab"
)

// CType is the host-visible handle around a Type Graph node, without
// storage (spec.md Glossary: "host-visible handle to a Type Graph node").
// It carries the ownership bit from ctypes.Ref so that a CType obtained
// from a fresh declaration (owning) can be told apart from one borrowed
// from an existing field/parameter/return type (never owning).
type CType struct {
	ref ctypes.Ref
}

func newCType(ref ctypes.Ref) CType { return CType{ref: ref} }

// borrowCType wraps t as a non-owning CType, the shape every introspection
// accessor below returns for a nested type (a field's type, a pointer's
// target, ...), since none of those transfer ownership of the node.
func borrowCType(t *ctypes.Type) CType {
	if t == nil {
		return CType{}
	}
	return CType{ref: ctypes.Ref{Type: t}}
}

// IsValid reports whether t wraps an actual type node.
func (t CType) IsValid() bool { return t.ref.Type != nil }

func (t CType) raw() *ctypes.Type { return t.ref.Type }

// Name is spec.md §6 CType introspection's `name`: the tag name for a
// struct/union/enum, "" otherwise (matching ctypes.Type.Tag).
func (t CType) Name() string { return t.raw().Tag }

// Kind is spec.md §6's `kind`.
func (t CType) Kind() ctypes.Kind { return t.raw().Kind }

// Size is spec.md §6's `size`, in bytes.
func (t CType) Size() int { return int(t.raw().Size) }

// Align is spec.md §6's `align`, in bytes.
func (t CType) Align() int { return int(t.raw().Align) }

// attrNames pairs every ctypes.Attr bit with its spec.md §3 spelling.
var attrNames = []struct {
	bit  ctypes.Attr
	name string
}{
	{ctypes.CONST, "const"},
	{ctypes.VARIADIC, "variadic"},
	{ctypes.INCOMPLETE_TAG, "incomplete_tag"},
	{ctypes.INCOMPLETE_ARRAY, "incomplete_array"},
	{ctypes.VLA, "vla"},
	{ctypes.UNION, "union"},
	{ctypes.PACKED, "packed"},
	{ctypes.MS_STRUCT, "ms_struct"},
	{ctypes.GCC_STRUCT, "gcc_struct"},
	{ctypes.PERSISTENT, "persistent"},
	{ctypes.STORED, "stored"},
}

// Attributes is spec.md §6's `attributes`: the set bits of t's Attr
// bitset, rendered as their spec.md §3 names.
func (t CType) Attributes() []string {
	var out []string
	for _, a := range attrNames {
		if t.raw().Attr.Has(a.bit) {
			out = append(out, a.name)
		}
	}
	return out
}

// EnumKind is spec.md §6's `enum_kind`: the integer kind backing an Enum
// type. ok is false if t is not an Enum.
func (t CType) EnumKind() (kind ctypes.Kind, ok bool) {
	if t.raw().Kind != ctypes.Enum {
		return 0, false
	}
	return t.raw().Underlying, true
}

// ArrayElement is spec.md §6's `array_element`: the element CType of an
// Array. ok is false if t is not an Array.
func (t CType) ArrayElement() (elem CType, ok bool) {
	if t.raw().Kind != ctypes.Array {
		return CType{}, false
	}
	return borrowCType(t.raw().Elem), true
}

// ArrayLength is spec.md §6's `array_length`. A length of 0 denotes a
// flexible array member or an incomplete outermost array, per spec.md §3
// invariant 3; ok is false if t is not an Array at all.
func (t CType) ArrayLength() (length int, ok bool) {
	if t.raw().Kind != ctypes.Array {
		return 0, false
	}
	return int(t.raw().Length), true
}

// PointerTarget is spec.md §6's `pointer_target`. ok is false if t is not
// a Pointer.
func (t CType) PointerTarget() (target CType, ok bool) {
	if t.raw().Kind != ctypes.Pointer {
		return CType{}, false
	}
	return borrowCType(t.raw().Elem), true
}

// StructFieldNames is spec.md §6's `struct_field_names`. ok is false if t
// is not a Struct/Union.
func (t CType) StructFieldNames() (names []string, ok bool) {
	if t.raw().Kind != ctypes.Struct {
		return nil, false
	}
	for _, f := range t.raw().Fields {
		names = append(names, f.Name)
	}
	return names, true
}

// StructFieldOffset is spec.md §6's `struct_field_offset(name)`.
func (t CType) StructFieldOffset(name string) (offset int, ok bool) {
	f := t.fieldByName(name)
	if f == nil {
		return 0, false
	}
	return int(f.Offset), true
}

// StructFieldType is spec.md §6's `struct_field_type(name)`.
func (t CType) StructFieldType(name string) (field CType, ok bool) {
	f := t.fieldByName(name)
	if f == nil {
		return CType{}, false
	}
	return borrowCType(f.Type), true
}

func (t CType) fieldByName(name string) *ctypes.Field {
	if t.raw().Kind != ctypes.Struct {
		return nil
	}
	return t.raw().FieldByName(name)
}

// FuncABI is spec.md §6's `func_abi`. ok is false if t is not a Func.
func (t CType) FuncABI() (abi ctypes.ABI, ok bool) {
	if t.raw().Kind != ctypes.Func {
		return 0, false
	}
	return t.raw().ABI, true
}

// FuncReturn is spec.md §6's `func_return`.
func (t CType) FuncReturn() (ret CType, ok bool) {
	if t.raw().Kind != ctypes.Func {
		return CType{}, false
	}
	return borrowCType(t.raw().Ret), true
}

// FuncParameterCount is spec.md §6's `func_parameter_count`: the
// declared, non-variadic parameter count.
func (t CType) FuncParameterCount() (n int, ok bool) {
	if t.raw().Kind != ctypes.Func {
		return 0, false
	}
	return len(t.raw().Params), true
}

// FuncParameterType is spec.md §6's `func_parameter_type(i)`.
func (t CType) FuncParameterType(i int) (param CType, ok bool) {
	if t.raw().Kind != ctypes.Func || i < 0 || i >= len(t.raw().Params) {
		return CType{}, false
	}
	return borrowCType(t.raw().Params[i]), true
}

// String renders a best-effort C-like spelling of t, for error messages.
func (t CType) String() string {
	if !t.IsValid() {
		return "<invalid type>"
	}
	return t.raw().String()
}

// typeAnonName is the synthetic typedef name Type uses to smuggle a bare
// declaration through internal/cparse.Parse, which only ever produces
// named symbol/tag bindings, never a standalone type value.
const typeAnonName = "__goffi_typeof"

// Type implements spec.md §6's `type(decl)`: parse decl as a type
// declaration (e.g. "struct Point *", "unsigned long[4]") and return its
// CType, without leaving any lasting trace in scope.
//
// internal/cparse has no entrypoint for parsing a bare type-name outside
// of a declaration or a constant expression's cast/sizeof operand, so decl
// is wrapped as `typedef <decl> __goffi_typeof;` (the synthetic name going
// before a top-level array suffix: `typedef struct Point __goffi_typeof[4];`
// for "struct Point[4]"; a '[' after a '(' or '{' is left in place), parsed into scope via
// cparse.ParseTransient (which, unlike Parse, never commits its additions),
// and the resulting typedef's type captured; the synthetic binding (and any
// tag it happened to introduce, e.g. an inline `struct Point {...}`) is
// then rolled back via scope's own undo log, the same mechanism a failed
// cdef/load call uses, so repeated Type calls never accumulate garbage
// symbols. Parse itself cannot be used here: on success it commits the
// undo log back to the checkpoint, which would make a later Rollback a
// no-op and leave the synthetic typedef (and any tag it introduced)
// permanently in scope.
func Type(scope *symtab.Scope, decl string) (CType, error) {
	checkpoint := scope.Checkpoint()
	head, tail := decl, ""
	for i := 0; i < len(decl) && decl[i] != '(' && decl[i] != '{'; i++ {
		if decl[i] == '[' {
			head, tail = decl[:i], decl[i:]
			break
		}
	}
	src := "typedef " + head + " " + typeAnonName + tail + ";"
	_, err := cparse.ParseTransient(src, scope)
	if err != nil {
		return CType{}, newParseErr(err)
	}
	sym, ok := scope.Symbol(typeAnonName)
	scope.Rollback(checkpoint)
	if !ok {
		return CType{}, &UnknownTypeError{Name: decl}
	}
	return newCType(sym.Type), nil
}
