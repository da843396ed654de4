package trampoline

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/xunsafe"
)

// GoFuncBackend is the deterministic in-process Backend documented on the
// Backend interface: it invokes a registered Go function value through
// reflect instead of lowering a Cif to a real libffi call, so the
// classification logic above it can be exercised without cgo. It supports
// scalar, pointer, and enum parameters/returns; struct-by-value arguments
// are passed to the target function as their backing unsafe.Pointer rather
// than deep-converted, which is enough to exercise Prepare's by-reference
// classification but not a stand-in for a real ABI's struct-register
// packing rules.
type GoFuncBackend struct {
	mu    sync.Mutex
	funcs map[uintptr]reflect.Value
	next  uintptr
}

// NewGoFuncBackend returns an empty backend.
func NewGoFuncBackend() *GoFuncBackend {
	return &GoFuncBackend{funcs: make(map[uintptr]reflect.Value)}
}

// Register assigns fn a synthetic address a Cif's symbol lookup can use in
// place of a real loaded-library address, and returns it.
func (b *GoFuncBackend) Register(fn any) uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	addr := b.next
	b.funcs[addr] = reflect.ValueOf(fn)
	return addr
}

func (b *GoFuncBackend) lookup(addr uintptr) (reflect.Value, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn, ok := b.funcs[addr]
	return fn, ok
}

// Call implements Backend.
func (b *GoFuncBackend) Call(cif *Cif, addr uintptr, args []Slot, ret []byte) error {
	fn, ok := b.lookup(addr)
	if !ok {
		return fmt.Errorf("trampoline: no function registered at %#x", addr)
	}
	ft := fn.Type()

	in := make([]reflect.Value, 0, len(args))
	for i, s := range args {
		var paramTy *ctypes.Type
		if i < len(cif.Params) {
			paramTy = cif.Params[i]
		}
		want := ft.In(minInt(i, ft.NumIn()-1))
		in = append(in, slotToReflect(s, paramTy, want))
	}

	out := fn.Call(in)
	if cif.Ret == nil || cif.Ret.Kind == ctypes.Void || len(out) == 0 {
		return nil
	}
	writeReflectToRet(out[0], cif.Ret, ret)
	return nil
}

// slotToReflect decodes one argument slot into a reflect.Value fn.Call can
// use. A declared (non-variadic-extra) parameter decodes per its own
// ctypes.Kind width and signedness, exactly as marshal.readScalar would;
// a variadic extra has no declared ctypes.Type (spec.md §4.6 step 2 widens
// it to a host-type category instead), so its width is inferred from the
// Go function's own parameter type, matching what passVariadicArg stored.
func slotToReflect(s Slot, ty *ctypes.Type, want reflect.Type) reflect.Value {
	if s.ByRef {
		return reflect.ValueOf(unsafe.Pointer(s.RefAddr)).Convert(want)
	}
	p := unsafe.Pointer(&s.Bytes[0])
	k := ctypes.Void
	if ty != nil {
		k = effectiveKind(ty)
	} else {
		k = kindFromReflect(want)
	}
	switch k {
	case ctypes.Float32:
		return reflect.ValueOf(float64(xunsafe.Load[float32](p))).Convert(want)
	case ctypes.Float64, ctypes.LongDouble:
		return reflect.ValueOf(xunsafe.Load[float64](p)).Convert(want)
	case ctypes.Pointer:
		return reflect.ValueOf(unsafe.Pointer(xunsafe.Load[uintptr](p))).Convert(want)
	case ctypes.Bool:
		return reflect.ValueOf(xunsafe.Load[byte](p) != 0).Convert(want)
	case ctypes.Int8:
		return reflect.ValueOf(int64(xunsafe.Load[int8](p))).Convert(want)
	case ctypes.Char:
		return reflect.ValueOf(int64(xunsafe.Load[byte](p))).Convert(want)
	case ctypes.Uint8:
		return reflect.ValueOf(uint64(xunsafe.Load[uint8](p))).Convert(want)
	case ctypes.Int16:
		return reflect.ValueOf(int64(xunsafe.Load[int16](p))).Convert(want)
	case ctypes.Uint16:
		return reflect.ValueOf(uint64(xunsafe.Load[uint16](p))).Convert(want)
	case ctypes.Int32:
		return reflect.ValueOf(int64(xunsafe.Load[int32](p))).Convert(want)
	case ctypes.Uint32:
		return reflect.ValueOf(uint64(xunsafe.Load[uint32](p))).Convert(want)
	case ctypes.Uint64:
		return reflect.ValueOf(xunsafe.Load[uint64](p)).Convert(want)
	default: // Int64, and the untyped variadic fallback
		return reflect.ValueOf(xunsafe.Load[int64](p)).Convert(want)
	}
}

// kindFromReflect infers a decode width for a variadic extra from the Go
// target function's own declared parameter type, since no ctypes.Type
// travels with a variadic slot past Prepare.
func kindFromReflect(want reflect.Type) ctypes.Kind {
	switch want.Kind() {
	case reflect.Float32, reflect.Float64:
		return ctypes.Float64
	case reflect.Ptr, reflect.UnsafePointer:
		return ctypes.Pointer
	case reflect.Bool:
		return ctypes.Bool
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ctypes.Uint64
	default:
		return ctypes.Int64
	}
}

func writeReflectToRet(v reflect.Value, ty *ctypes.Type, ret []byte) {
	if len(ret) == 0 {
		return
	}
	p := unsafe.Pointer(&ret[0])
	switch effectiveKind(ty) {
	case ctypes.Struct:
		// The test function returns the backing address of the aggregate
		// (mirroring how a struct-by-value Backend.Call return works:
		// backend writes the bytes, not a pointer scalar, into ret).
		xunsafe.CopyBytes(p, v.UnsafePointer(), int(ty.Size))
	case ctypes.Float32, ctypes.Float64, ctypes.LongDouble:
		xunsafe.Store(p, v.Convert(reflect.TypeOf(float64(0))).Float())
	case ctypes.Pointer:
		xunsafe.Store[uintptr](p, uintptr(v.UnsafePointer()))
	case ctypes.Bool:
		b := byte(0)
		if v.Bool() {
			b = 1
		}
		xunsafe.Store(p, b)
	default:
		if v.Kind() >= reflect.Uint && v.Kind() <= reflect.Uintptr {
			xunsafe.Store(p, v.Convert(reflect.TypeOf(uint64(0))).Uint())
		} else {
			xunsafe.Store(p, v.Convert(reflect.TypeOf(int64(0))).Int())
		}
	}
}

func effectiveKind(t *ctypes.Type) ctypes.Kind {
	if t.Kind == ctypes.Enum {
		return t.Underlying
	}
	return t.Kind
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
