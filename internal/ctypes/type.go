package ctypes

// Type is a node in the Type Graph. Once a declaration parser call that
// produced it returns successfully, a Type is frozen: every field below is
// treated as read-only by every other package (CData, marshal, trampoline).
//
// Type is always handled through a Ref, never bare, so that ownership
// (spec.md §3 "Ownership encoding") travels with every reference to it.
type Type struct {
	Kind Kind
	Attr Attr

	Size  uint32 // bytes
	Align uint32 // bytes, power of two

	Tag string // struct/union/enum tag name, "" if anonymous

	// Pointer, Array
	Elem *Type

	// Array
	Length uint32 // 0: flexible member or incomplete outermost array

	// Struct/Union
	Fields []*Field

	// Enum
	Underlying Kind   // the integer kind backing the enum
	Enumerators []Enumerator

	// Func
	Ret        *Type
	Params     []*Type
	ABI        ABI
}

// Field describes one struct/union member, including bit-field layout.
type Field struct {
	Name     string
	Type     *Type
	Offset   uint32 // byte offset within the struct
	IsConst  bool
	IsNested bool // produced by add_anonymous_field inlining

	// Bit-field layout; Bits == 0 means this is not a bit-field.
	Bits     uint8
	FirstBit uint8 // bit offset within the field's bit-field packing unit
}

// IsBitField reports whether f occupies less than its declared type's full
// width.
func (f *Field) IsBitField() bool { return f.Bits != 0 }

// Enumerator is one named constant of an Enum type.
type Enumerator struct {
	Name  string
	Value int64
}

// Ref is the ownership-tagged reference described in spec.md §3: "the same
// type node shared as a borrowed reference by many holders while exactly one
// holder owns it". A Ref with Owned set is responsible for arranging for the
// node to be freed (in practice: not referenced again) once its holder goes
// away; a borrowed Ref never frees anything.
type Ref struct {
	Type  *Type
	Owned bool
}

// Borrow returns a non-owning reference to the same node.
func (r Ref) Borrow() Ref { return Ref{Type: r.Type, Owned: false} }

// VoidType, BoolType, ... are the canonical, shared *Type nodes of the
// primitive kinds. They are never owned by anything: they require no storage of
// their own and live for the process lifetime.
var (
	VoidType   = &Type{Kind: Void}
	BoolType   = &Type{Kind: Bool, Size: 1, Align: 1}
	CharType   = &Type{Kind: Char, Size: 1, Align: 1}
	Int8Type   = &Type{Kind: Int8, Size: 1, Align: 1}
	Uint8Type  = &Type{Kind: Uint8, Size: 1, Align: 1}
	Int16Type  = &Type{Kind: Int16, Size: 2, Align: 2}
	Uint16Type = &Type{Kind: Uint16, Size: 2, Align: 2}
	Int32Type  = &Type{Kind: Int32, Size: 4, Align: 4}
	Uint32Type = &Type{Kind: Uint32, Size: 4, Align: 4}
	Int64Type  = &Type{Kind: Int64, Size: 8, Align: 8}
	Uint64Type = &Type{Kind: Uint64, Size: 8, Align: 8}
	Float32Type = &Type{Kind: Float32, Size: 4, Align: 4}
	Float64Type = &Type{Kind: Float64, Size: 8, Align: 8}
	// LongDoubleType resolves Open Question §9.2: the kind is exposed
	// universally, stored as a 128-bit (two uint64) value.
	LongDoubleType = &Type{Kind: LongDouble, Size: 16, Align: 16}
)

// Primitive looks up one of the canonical scalar Types by Kind. Returns nil
// for non-primitive kinds (Pointer, Array, Struct, Enum, Func), which must be
// constructed with the New* functions.
func Primitive(k Kind) *Type {
	switch k {
	case Void:
		return VoidType
	case Bool:
		return BoolType
	case Char:
		return CharType
	case Int8:
		return Int8Type
	case Uint8:
		return Uint8Type
	case Int16:
		return Int16Type
	case Uint16:
		return Uint16Type
	case Int32:
		return Int32Type
	case Uint32:
		return Uint32Type
	case Int64:
		return Int64Type
	case Uint64:
		return Uint64Type
	case Float32:
		return Float32Type
	case Float64:
		return Float64Type
	case LongDouble:
		return LongDoubleType
	default:
		return nil
	}
}

// FieldByName returns the field with the given name, including fields
// inlined from anonymous nested structs/unions, or nil if none matches.
func (t *Type) FieldByName(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// String renders a best-effort C-like spelling of t, used in error messages
// and debug output.
func (t *Type) String() string {
	return render(t)
}

func render(t *Type) string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case Pointer:
		return render(t.Elem) + " *"
	case Array:
		if t.Length == 0 {
			return render(t.Elem) + " []"
		}
		return render(t.Elem) + arrayLenSuffix(t.Length)
	case Struct:
		if t.Attr.Has(UNION) {
			return unionOrStructName("union", t.Tag)
		}
		return unionOrStructName("struct", t.Tag)
	case Enum:
		return unionOrStructName("enum", t.Tag)
	case Func:
		return funcSignature(t)
	default:
		return t.Kind.String()
	}
}

func arrayLenSuffix(n uint32) string {
	return " [" + itoa(n) + "]"
}

func unionOrStructName(kw, tag string) string {
	if tag == "" {
		return kw + " {anonymous}"
	}
	return kw + " " + tag
}

func funcSignature(t *Type) string {
	s := render(t.Ret) + " (*)("
	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += render(p)
	}
	if t.Attr.Has(VARIADIC) {
		if len(t.Params) > 0 {
			s += ", "
		}
		s += "..."
	}
	return s + ")"
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
