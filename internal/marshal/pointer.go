package marshal

import (
	"unsafe"

	"github.com/blade-lang/goffi/internal/arena"
	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/xunsafe"
)

// CDataToHost implements spec.md §4.5's `cdata_to_host(ptr, type)`: it
// dispatches on type.Kind to read a scalar; enums read as their underlying
// integer kind; pointer reads return null for a null address, a host
// string for a `const char*`-shaped pointer (pointer to Char), and
// otherwise a borrowed pointer HostValue.
func CDataToHost(p unsafe.Pointer, t *ctypes.Type) HostValue {
	switch t.Kind {
	case ctypes.Pointer:
		addr := xunsafe.Load[uintptr](p)
		if addr == 0 {
			return Null()
		}
		target := unsafe.Pointer(addr)
		if t.Elem != nil && t.Elem.Kind == ctypes.Char {
			return String(readCString(target))
		}
		return Pointer(target, t.Elem)
	case ctypes.Enum:
		return readScalar(p, t.Underlying)
	default:
		return readScalar(p, t.Kind)
	}
}

// HostToCData implements spec.md §4.5's `host_to_cdata(ptr, type, value)`,
// the inverse of CDataToHost. scratch backs any storage host_to_cdata must
// allocate itself (currently: copying a host string into C memory when the
// target is a char*/void* pointer); it may be nil if v is never a
// HostString headed for a pointer target. dstOwnsPointer is true when v
// comes from a CData whose own storage is OWNED: per spec.md §9 Open
// Question 1, assigning such a value to a pointer-typed location is
// refused outright; for other target kinds the flag has no effect.
func HostToCData(p unsafe.Pointer, t *ctypes.Type, v HostValue, scratch *arena.Arena, dstOwnsPointer bool) error {
	if t.Kind == ctypes.Pointer && dstOwnsPointer {
		return &AssignOwnedPointerError{DstType: t.String()}
	}
	switch t.Kind {
	case ctypes.Pointer:
		return writePointer(p, t, v, scratch)
	case ctypes.Enum:
		return writeScalar(p, t.Underlying, v)
	default:
		return writeScalar(p, t.Kind, v)
	}
}

func writePointer(p unsafe.Pointer, t *ctypes.Type, v HostValue, scratch *arena.Arena) error {
	switch v.Kind {
	case HostNull:
		xunsafe.Store[uintptr](p, 0)
		return nil
	case HostString:
		if t.Elem == nil || (t.Elem.Kind != ctypes.Char && t.Elem.Kind != ctypes.Void) {
			return &IncompatibleAssignmentError{DstType: t.String(), SrcKind: v.Kind}
		}
		if scratch == nil {
			return &IncompatibleAssignmentError{DstType: t.String(), SrcKind: v.Kind}
		}
		buf := scratch.Alloc(len(v.Str) + 1)
		xunsafe.CopyBytes(buf, unsafe.Pointer(unsafe.StringData(v.Str)), len(v.Str))
		xunsafe.Store(xunsafe.ByteAdd(buf, len(v.Str)), byte(0))
		xunsafe.Store[uintptr](p, uintptr(buf))
		return nil
	case HostPointer:
		// A void pointee on either side accepts any object pointer (the
		// Void relaxation IsCompatible applies to a pair of pointer types).
		voidSide := (t.Elem != nil && t.Elem.Kind == ctypes.Void) || (v.PtrElem != nil && v.PtrElem.Kind == ctypes.Void)
		if !voidSide && !ctypes.IsCompatible(t.Elem, v.PtrElem) {
			return &IncompatibleAssignmentError{DstType: t.String(), SrcKind: v.Kind}
		}
		xunsafe.Store[uintptr](p, uintptr(v.Ptr))
		return nil
	default:
		return &IncompatibleAssignmentError{DstType: t.String(), SrcKind: v.Kind}
	}
}
