package trampoline

import (
	"unsafe"

	"github.com/blade-lang/goffi/internal/arena"
	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/marshal"
	"github.com/blade-lang/goffi/internal/xunsafe"
)

// Result is what Invoke hands back for a Backend to unmarshal into the
// caller's value representation, per spec.md §4.6 step 6: a primitive or
// pointer return becomes a host scalar (Scalar), while a struct return is
// copied into fresh, caller-owned storage (StructAddr) so the trampoline
// never has to know what an OWNED CData looks like.
type Result struct {
	Scalar     marshal.HostValue
	StructAddr unsafe.Pointer
}

// Invoke runs the full sequence spec.md §4.6 describes: classify actuals
// into slots (step 1-2), hand the call to backend (steps 3-5), then
// unmarshal the return (step 6). retArena backs the fresh copy made for a
// struct-by-value return; it may be nil for any other return kind.
func Invoke(cif *Cif, backend Backend, addr uintptr, actuals []Arg, retArena *arena.Arena) (Result, error) {
	slots, err := Prepare(cif, actuals)
	if err != nil {
		return Result{}, err
	}

	retSize := cif.RetSlotSize()
	var retBuf []byte
	if retSize > 0 {
		retBuf = make([]byte, retSize)
	}

	if err := backend.Call(cif, addr, slots, retBuf); err != nil {
		return Result{}, err
	}

	return unmarshalReturn(cif, retBuf, retArena), nil
}

func unmarshalReturn(cif *Cif, retBuf []byte, retArena *arena.Arena) Result {
	if cif.Ret == nil || cif.Ret.Kind == ctypes.Void {
		return Result{Scalar: marshal.Null()}
	}
	if cif.Ret.Kind == ctypes.Struct {
		dst := retArena.Alloc(int(cif.Ret.Size))
		xunsafe.CopyBytes(dst, unsafe.Pointer(&retBuf[0]), int(cif.Ret.Size))
		return Result{StructAddr: dst}
	}
	return Result{Scalar: marshal.CDataToHost(unsafe.Pointer(&retBuf[0]), cif.Ret)}
}
