package ctypes

// IsCompatible implements spec.md §4.2 "Subtyping / compatibility": a
// structural walk of pointer and array chains. Scalar kinds must match
// exactly; pointer chains are compatible if they walk to a common scalar or
// if either side reaches Void; array-pointer is compatible one step;
// length-0 arrays match any length; otherwise incompatible.
func IsCompatible(dst, src *Type) bool {
	return compatible(dst, src, false)
}

// IsSame implements the stricter spec.md §4.2 "is_same": no Void relaxation,
// and array lengths must match exactly.
func IsSame(a, b *Type) bool {
	return compatible(a, b, true)
}

func compatible(dst, src *Type, strict bool) bool {
	if dst == nil || src == nil {
		return dst == src
	}

	if dst.Kind == Pointer && src.Kind == Pointer {
		if !strict && (dst.Elem.Kind == Void || src.Elem.Kind == Void) {
			return true
		}
		return compatible(dst.Elem, src.Elem, strict)
	}

	if dst.Kind == Array && src.Kind == Array {
		if !strict && (dst.Length == 0 || src.Length == 0) {
			return compatible(dst.Elem, src.Elem, strict)
		}
		return dst.Length == src.Length && compatible(dst.Elem, src.Elem, strict)
	}

	if !strict {
		if dst.Kind == Array && src.Kind == Pointer {
			return compatible(dst.Elem, src.Elem, strict)
		}
		if dst.Kind == Pointer && src.Kind == Array {
			return compatible(dst.Elem, src.Elem, strict)
		}
	}

	if dst.Kind != src.Kind {
		return false
	}

	switch dst.Kind {
	case Struct, Enum:
		// Structural nominal types: the same declaration produces the same
		// *Type pointer (structs/enums are never duplicated once complete),
		// so pointer identity is the correct notion of "same tag".
		return dst == src
	case Func:
		if !compatible(dst.Ret, src.Ret, strict) || len(dst.Params) != len(src.Params) {
			return false
		}
		for i := range dst.Params {
			if !compatible(dst.Params[i], src.Params[i], strict) {
				return false
			}
		}
		return dst.Attr.Has(VARIADIC) == src.Attr.Has(VARIADIC)
	default:
		// Scalar kinds: must match exactly in both modes.
		return dst.Kind == src.Kind
	}
}
