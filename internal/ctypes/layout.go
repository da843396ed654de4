package ctypes

import "fmt"

// wordBits is the bit-field packing unit for a non-packed struct (spec.md
// §4.2 "Bit-field layout"): a 32-bit word. Packed structs pack into a byte.
const wordBits = 32

// NewStruct begins construction of a struct or union type. Callers add
// fields with AddField/AddAnonymousField/AddBitField, then finish with
// AdjustStructSize. Align starts at 1 and Size grows as fields are added;
// AdjustStructSize applies the final tail padding.
func NewStruct(tag string, union, packed bool) *Type {
	t := &Type{Kind: Struct, Tag: tag, Align: 1}
	if union {
		t.Attr |= UNION
	}
	if packed {
		t.Attr |= PACKED
	}
	if tag != "" {
		t.Attr |= INCOMPLETE_TAG
	}
	return t
}

// NewEnum begins construction of an enum type with the given underlying
// integer kind (spec.md §3 "Enum{tag?, underlying_int_kind, size, align}").
func NewEnum(tag string, underlying Kind) *Type {
	sz := Primitive(underlying)
	if sz == nil || !underlying.IsInteger() {
		panic(fmt.Sprintf("ctypes: NewEnum: non-integer underlying kind %v", underlying))
	}
	t := &Type{
		Kind:       Enum,
		Tag:        tag,
		Underlying: underlying,
		Size:       sz.Size,
		Align:      sz.Align,
	}
	if tag != "" {
		t.Attr |= INCOMPLETE_TAG
	}
	return t
}

// AddEnumerator appends a named constant to an enum under construction.
func AddEnumerator(e *Type, name string, value int64) {
	if e.Kind != Enum {
		panic("ctypes: AddEnumerator on non-enum type")
	}
	e.Enumerators = append(e.Enumerators, Enumerator{Name: name, Value: value})
}

// CompleteTag rewrites an INCOMPLETE_TAG type in place, turning a forward
// declaration into a complete struct/union/enum. This is the two-phase
// pattern from spec.md §9 "Cyclic type graphs": the tag is installed as
// INCOMPLETE_TAG before its body is parsed so that self-referential pointer
// fields can reference it by tag, then completion rewrites it in place so
// every existing pointer to the tag's Type observes the completed body.
func CompleteTag(incomplete, complete *Type) {
	if !incomplete.Attr.Has(INCOMPLETE_TAG) {
		panic("ctypes: CompleteTag on an already-complete type")
	}
	*incomplete = *complete
	incomplete.Attr &^= INCOMPLETE_TAG
}

// falign computes the effective alignment of a field given the struct's
// packing mode and an optional explicit `aligned(N)` attribute.
func falign(fieldAlign, explicitAlign uint32, packed bool) uint32 {
	if packed {
		return 1
	}
	a := fieldAlign
	if explicitAlign > a {
		a = explicitAlign
	}
	return a
}

func padTo(size, align uint32) uint32 {
	if align == 0 {
		return size
	}
	rem := size % align
	if rem == 0 {
		return size
	}
	return size + (align - rem)
}

// AddField appends a plain (non-bit-field) member, implementing the field
// layout algorithm of spec.md §4.2.
func AddField(s *Type, name string, ft *Type, isConst bool, explicitAlign uint32) *Field {
	mustBeStructUnderConstruction(s)

	fa := falign(ft.Align, explicitAlign, s.Attr.Has(PACKED))
	f := &Field{Name: name, Type: ft, IsConst: isConst}

	if s.Attr.Has(UNION) {
		f.Offset = 0
		if ft.Size > s.Size {
			s.Size = ft.Size
		}
	} else {
		s.Size = padTo(s.Size, fa)
		f.Offset = s.Size
		s.Size += ft.Size
	}

	if !s.Attr.Has(PACKED) && fa > s.Align {
		s.Align = fa
	}

	s.Fields = append(s.Fields, f)
	return f
}

// AddAnonymousField inlines the fields of a nested anonymous struct/union
// into s, relocating each offset by s's current size (or 0 for unions), per
// spec.md §4.2 "Nested anonymous struct inlining". Returns the set of names
// that collided with an existing field (the parser surfaces these as
// "duplicate field" errors).
func AddAnonymousField(s, nested *Type) []string {
	mustBeStructUnderConstruction(s)

	base := uint32(0)
	if !s.Attr.Has(UNION) {
		base = padTo(s.Size, nested.Align)
	}

	var dups []string
	for _, nf := range nested.Fields {
		if s.FieldByName(nf.Name) != nil {
			dups = append(dups, nf.Name)
			continue
		}
		inlined := *nf
		inlined.Offset += base
		inlined.IsNested = true
		s.Fields = append(s.Fields, &inlined)
	}

	if s.Attr.Has(UNION) {
		if nested.Size > s.Size {
			s.Size = nested.Size
		}
	} else {
		s.Size = base + nested.Size
	}
	if !s.Attr.Has(PACKED) && nested.Align > s.Align {
		s.Align = nested.Align
	}
	return dups
}

// bitFieldBaseKindOK reports whether k is an integer base type a bit-field
// may use, per spec.md §4.2.
func bitFieldBaseKindOK(k Kind) bool {
	return k.IsInteger()
}

// AddBitField appends a bit-field member. width is the declared bit count;
// anonymous zero-width bit-fields force alignment of the next field to the
// packing unit and are themselves discarded from s.Fields (spec.md §4.2).
func AddBitField(s *Type, name string, base *Type, width uint8) (*Field, error) {
	mustBeStructUnderConstruction(s)
	if !bitFieldBaseKindOK(base.Kind) {
		return nil, fmt.Errorf("ctypes: bit-field base type must be integer, got %v", base.Kind)
	}
	baseBits := uint8(base.Size * 8)
	if width > baseBits {
		return nil, fmt.Errorf("ctypes: bit-field width %d exceeds base type width %d", width, baseBits)
	}
	if width == 0 {
		if name != "" {
			return nil, fmt.Errorf("ctypes: zero-width bit-field %q must be anonymous", name)
		}
		forceBitFieldAlignment(s, unit(s))
		return nil, nil
	}

	unitBits := unit(s)
	unitBytes := unitBits / 8

	if !s.Attr.Has(UNION) && len(s.Fields) > 0 {
		prev := s.Fields[len(s.Fields)-1]
		if prev.IsBitField() && prev.Type.Size == base.Size {
			cursor := uint32(prev.FirstBit) + uint32(prev.Bits)
			if cursor+uint32(width) <= unitBits {
				f := &Field{
					Name: name, Type: base, Offset: prev.Offset,
					Bits: width, FirstBit: uint8(cursor),
				}
				s.Fields = append(s.Fields, f)
				s.Size = prev.Offset + ceilDiv(cursor+uint32(width), unitBits)*unitBytes
				return f, nil
			}
		}
	}

	// Starts a fresh packing unit.
	var offset uint32
	if s.Attr.Has(UNION) {
		offset = 0
	} else {
		offset = padTo(s.Size, unitBytes)
	}
	f := &Field{Name: name, Type: base, Offset: offset, Bits: width, FirstBit: 0}
	s.Fields = append(s.Fields, f)
	newSize := offset + ceilDiv(uint32(width), unitBits)*unitBytes
	if s.Attr.Has(UNION) {
		if newSize > s.Size {
			s.Size = newSize
		}
	} else {
		s.Size = newSize
	}
	if fa := falign(base.Align, 0, s.Attr.Has(PACKED)); !s.Attr.Has(PACKED) && fa > s.Align {
		s.Align = fa
	}
	return f, nil
}

func unit(s *Type) uint32 {
	if s.Attr.Has(PACKED) {
		return 8
	}
	return wordBits
}

func forceBitFieldAlignment(s *Type, unitBits uint32) {
	unitBytes := unitBits / 8
	s.Size = padTo(s.Size, unitBytes)
}

func ceilDiv(a, b uint32) uint32 {
	return (a + b - 1) / b
}

// AddFlexibleArrayMember appends a zero-length array as the last field of a
// non-union struct (spec.md §3 invariant 3). Its size does not count toward
// s.Size.
func AddFlexibleArrayMember(s *Type, name string, elem *Type) (*Field, error) {
	mustBeStructUnderConstruction(s)
	if s.Attr.Has(UNION) {
		return nil, fmt.Errorf("ctypes: flexible array member not allowed in a union")
	}
	arr := &Type{Kind: Array, Elem: elem, Length: 0, Align: elem.Align, Attr: INCOMPLETE_ARRAY}
	f := &Field{Name: name, Type: arr, Offset: padTo(s.Size, elem.Align)}
	s.Fields = append(s.Fields, f)
	return f, nil
}

// AdjustStructSize pads the struct's final size up to a multiple of its
// alignment, per spec.md §3 invariant 1 ("size is a multiple of align for
// complete, non-packed aggregates"). Must be called once all fields have
// been added; also clears INCOMPLETE_TAG.
func AdjustStructSize(s *Type) {
	mustBeStructUnderConstruction(s)
	if !s.Attr.Has(PACKED) {
		s.Size = padTo(s.Size, s.Align)
	}
	s.Attr &^= INCOMPLETE_TAG
}

func mustBeStructUnderConstruction(t *Type) {
	if t.Kind != Struct {
		panic("ctypes: struct layout operation on non-struct type")
	}
}

// NewPointer builds a pointer-to-elem type. Pointer size/align are fixed at
// 8 bytes, matching the LP64 data model the rest of this engine targets
// (spec.md names no other model).
func NewPointer(elem *Type) *Type {
	return &Type{Kind: Pointer, Elem: elem, Size: 8, Align: 8}
}

// NewArray builds a fixed- or incomplete-length array type. length == 0
// denotes an incomplete outermost array (spec.md §3 invariant 3); callers
// building a flexible array member should use AddFlexibleArrayMember
// instead, since that one is not a free-standing Type.
func NewArray(elem *Type, length uint32) *Type {
	t := &Type{Kind: Array, Elem: elem, Length: length, Align: elem.Align}
	if length == 0 {
		t.Attr |= INCOMPLETE_ARRAY
	} else {
		t.Size = elem.Size * length
	}
	return t
}

// NewVLA builds a `[*]` variable-length array type, legal only inside
// function prototype scope per spec.md §4.3.
func NewVLA(elem *Type) *Type {
	t := NewArray(elem, 0)
	t.Attr |= VLA
	return t
}

// NewFunc validates and builds a function type, per spec.md §4.2 "Function
// types": the return type may not itself be a function or array, and
// parameters may not be Void unless Void is the sole parameter (the C
// `(void)` idiom), in which case the parameter list becomes empty.
// Array-typed and function-typed parameters decay to pointers.
func NewFunc(ret *Type, params []*Type, variadic bool, abi ABI) (*Type, error) {
	if ret.Kind == Func || ret.Kind == Array {
		return nil, fmt.Errorf("ctypes: function return type may not be %v", ret.Kind)
	}

	if len(params) == 1 && params[0].Kind == Void {
		params = nil
	} else {
		decayed := make([]*Type, len(params))
		for i, p := range params {
			if p.Kind == Void {
				return nil, fmt.Errorf("ctypes: void parameter only legal as the sole parameter")
			}
			switch p.Kind {
			case Array:
				decayed[i] = NewPointer(p.Elem)
			case Func:
				decayed[i] = NewPointer(p)
			default:
				decayed[i] = p
			}
		}
		params = decayed
	}

	t := &Type{Kind: Func, Ret: ret, Params: params, ABI: abi, Size: 8, Align: 8}
	if variadic {
		t.Attr |= VARIADIC
	}
	return t, nil
}
