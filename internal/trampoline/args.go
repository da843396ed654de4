package trampoline

import (
	"unsafe"

	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/marshal"
	"github.com/blade-lang/goffi/internal/xunsafe"
)

// Arg is one actual argument supplied to Prepare, already resolved to
// either a host scalar/pointer value or, for a struct/union passed by
// value, the address of its backing storage (spec.md §4.6 step 2: "pass
// the CData's backing address"). For a variadic HostString actual, Addr
// must also be set, to the address of an already NUL-terminated copy the
// caller allocated (the trampoline has no arena of its own to do that
// allocation from).
type Arg struct {
	Value marshal.HostValue
	Addr  unsafe.Pointer // struct/union by-value address, or a variadic string's backing bytes
}

// Prepare classifies actuals against cif's declared signature into one
// ABI-width Slot per argument, per spec.md §4.6 steps 1-2.
func Prepare(cif *Cif, actuals []Arg) ([]Slot, error) {
	declared := len(cif.Params)
	if cif.Variadic {
		if len(actuals) < declared {
			return nil, &WrongArgCountError{Want: declared, Got: len(actuals), AtLeast: true}
		}
	} else if len(actuals) != declared {
		return nil, &WrongArgCountError{Want: declared, Got: len(actuals)}
	}

	slots := make([]Slot, len(actuals))
	for i, a := range actuals {
		if i < declared {
			s, err := passDeclaredArg(a, cif.Params[i])
			if err != nil {
				return nil, err
			}
			slots[i] = s
			continue
		}
		slots[i] = passVariadicArg(a)
	}
	return slots, nil
}

// passDeclaredArg widens a actual to expected's ABI slot width.
func passDeclaredArg(a Arg, expected *ctypes.Type) (Slot, error) {
	if expected.Kind == ctypes.Struct {
		if a.Addr == nil {
			return Slot{}, &IncompatibleArgError{Index: -1, Want: expected.String()}
		}
		var s Slot
		s.ByRef = true
		s.RefAddr = uintptr(a.Addr)
		return s, nil
	}
	var s Slot
	if expected.Kind == ctypes.Pointer && a.Value.Kind == marshal.HostString && a.Addr != nil {
		// The caller already materialized a NUL-terminated copy of the
		// string (e.g. in its own arena) and handed us its address; pass
		// that address straight through instead of asking HostToCData to
		// allocate a second copy from a scratch arena we don't have here.
		xunsafe.Store[uintptr](unsafe.Pointer(&s.Bytes[0]), uintptr(a.Addr))
		return s, nil
	}
	if err := marshal.HostToCData(unsafe.Pointer(&s.Bytes[0]), expected, a.Value, nil, false); err != nil {
		return Slot{}, err
	}
	return s, nil
}

// passVariadicArg widens an extra variadic actual using the default
// argument promotions spec.md §4.6 step 2 specifies for the host-value
// side: integer -> platform long width, floating -> double, string ->
// pointer, null -> pointer, bool -> uint8.
func passVariadicArg(a Arg) Slot {
	var s Slot
	switch a.Value.Kind {
	case marshal.HostInt:
		xunsafe.Store(unsafe.Pointer(&s.Bytes[0]), a.Value.I64)
	case marshal.HostUint:
		xunsafe.Store(unsafe.Pointer(&s.Bytes[0]), a.Value.U64)
	case marshal.HostFloat:
		xunsafe.Store(unsafe.Pointer(&s.Bytes[0]), a.Value.F64)
	case marshal.HostBool:
		xunsafe.Store(unsafe.Pointer(&s.Bytes[0]), uint8(a.Value.I64))
	case marshal.HostString:
		if a.Addr != nil {
			xunsafe.Store[uintptr](unsafe.Pointer(&s.Bytes[0]), uintptr(a.Addr))
		}
	case marshal.HostPointer:
		xunsafe.Store[uintptr](unsafe.Pointer(&s.Bytes[0]), uintptr(a.Value.Ptr))
	case marshal.HostNull:
		// zero value already represents a null pointer slot
	}
	return s
}
