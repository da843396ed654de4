package goffi

import (
	"unsafe"

	"github.com/blade-lang/goffi/internal/arena"
	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/marshal"
	"github.com/blade-lang/goffi/internal/trampoline"
	"github.com/blade-lang/goffi/internal/xunsafe"
)

// Backend re-exports the Call Trampoline's platform boundary (spec.md
// §4.6/§1: "external collaborator named only at the boundary"), so a host
// embedding never has to import internal/trampoline directly to supply
// one.
type Backend = trampoline.Backend

// callable resolves c to the function type and entry address a Call
// targets: a Func-typed CData's own storage address is the entry point
// directly (a function has no sizeof-style value of its own, so ptr
// carries the address without the usual ptr-holder indirection); a
// Pointer(Func)-typed CData follows the ordinary ptr-holder convention,
// its slot holding the entry address.
func (c *CData) callable() (fn *ctypes.Type, addr uintptr, err error) {
	if err := c.checkFreed(); err != nil {
		return nil, 0, err
	}
	t := c.ty.Type
	if t.Kind == ctypes.Func {
		return t, uintptr(c.ptr), nil
	}
	if t.Kind == ctypes.Pointer && t.Elem != nil && t.Elem.Kind == ctypes.Func {
		addr := xunsafe.Load[uintptr](c.ptr)
		if addr == 0 {
			return nil, 0, &NullDerefError{}
		}
		return t.Elem, addr, nil
	}
	return nil, 0, &NotCallableError{Type: t.String()}
}

// Call implements spec.md §4.6: invoke the function or function pointer
// described by c with actuals, using backend for the one unsafe platform
// step. Each actual is either a *CData (a struct/union-by-value actual
// must be one, of a type compatible with the corresponding parameter; any
// other CData contributes its own Value()) or a plain Go value accepted by
// toHostValue. The result is a native Go scalar, nil (void), a borrowed
// Pointer-kind CData, or (for a struct-by-value return) a freshly owned
// struct-kind CData.
func (vm *VM) Call(c *CData, backend Backend, actuals ...any) (any, error) {
	if !globalEnable.allowRuntime() {
		return nil, &DisabledError{}
	}
	fn, addr, err := c.callable()
	if err != nil {
		return nil, err
	}
	cif, err := trampoline.NewCif(fn)
	if err != nil {
		return nil, err
	}
	args, err := vm.prepareArgs(cif, actuals)
	if err != nil {
		return nil, err
	}
	res, err := trampoline.Invoke(cif, backend, addr, args, vm.RequestArena())
	if err != nil {
		return nil, wrapTrampolineErr(err)
	}
	return vm.fromResult(fn.Ret, res), nil
}

// wrapTrampolineErr adapts an internal/trampoline error into its
// root-package Exception counterpart, the same way newParseErr adapts
// internal/cparse errors: callers assert against goffi's own error types,
// never an internal package's.
func wrapTrampolineErr(err error) error {
	switch e := err.(type) {
	case *trampoline.WrongArgCountError:
		return &WrongArgCountError{e}
	case *trampoline.UnsupportedABIError:
		return &UnsupportedABIError{e}
	case *trampoline.IncompatibleArgError:
		return &IncompatiblePassError{Index: e.Index, Expected: e.Want}
	default:
		return err
	}
}

// prepareArgs converts host-facing actuals into the trampoline's own Arg
// shape, materializing any string actual destined for a declared pointer
// parameter into vm's request arena first: internal/trampoline.Prepare has
// no arena of its own to do that allocation from (spec.md §4.6 step 2
// assumes the caller already holds a NUL-terminated copy for such a case).
func (vm *VM) prepareArgs(cif *trampoline.Cif, actuals []any) ([]trampoline.Arg, error) {
	args := make([]trampoline.Arg, len(actuals))
	for i, a := range actuals {
		var expected *ctypes.Type
		if i < len(cif.Params) {
			expected = cif.Params[i]
		}
		arg, err := vm.resolveArg(expected, a)
		if err != nil {
			if _, ok := err.(Exception); ok {
				return nil, err
			}
			return nil, &IncompatiblePassError{Index: i, Expected: typeNameOrAny(expected), Actual: argTypeName(a)}
		}
		args[i] = arg
	}
	return args, nil
}

func typeNameOrAny(t *ctypes.Type) string {
	if t == nil {
		return "any"
	}
	return t.String()
}

func argTypeName(a any) string {
	if cd, ok := a.(*CData); ok {
		return cd.ty.Type.String()
	}
	return goTypeName(a)
}

func (vm *VM) resolveArg(expected *ctypes.Type, a any) (trampoline.Arg, error) {
	if cd, ok := a.(*CData); ok {
		if expected != nil && expected.Kind == ctypes.Struct {
			if cd.ty.Type.Kind != ctypes.Struct || !ctypes.IsCompatible(expected, cd.ty.Type) {
				return trampoline.Arg{}, &IncompatiblePassError{Expected: expected.String(), Actual: cd.ty.Type.String()}
			}
			return trampoline.Arg{Addr: cd.ptr}, nil
		}
		return trampoline.Arg{Value: cd.Value()}, nil
	}
	hv, err := toHostValue(a)
	if err != nil {
		return trampoline.Arg{}, err
	}
	if hv.Kind == marshal.HostString && expected != nil && expected.Kind == ctypes.Pointer {
		buf := vm.RequestArena().Alloc(len(hv.Str) + 1)
		xunsafe.CopyBytes(buf, unsafe.Pointer(unsafe.StringData(hv.Str)), len(hv.Str))
		xunsafe.Store(xunsafe.ByteAdd(buf, len(hv.Str)), byte(0))
		return trampoline.Arg{Value: hv, Addr: buf}, nil
	}
	if hv.Kind == marshal.HostString && expected == nil {
		// Variadic string actual: passVariadicArg also needs a backing
		// address, since a HostValue only carries the Go string header.
		buf := vm.RequestArena().Alloc(len(hv.Str) + 1)
		xunsafe.CopyBytes(buf, unsafe.Pointer(unsafe.StringData(hv.Str)), len(hv.Str))
		xunsafe.Store(xunsafe.ByteAdd(buf, len(hv.Str)), byte(0))
		return trampoline.Arg{Value: hv, Addr: buf}, nil
	}
	return trampoline.Arg{Value: hv}, nil
}

// fromResult converts a Call's raw trampoline.Result into the host-facing
// value Call returns, per spec.md §4.6 step 6: void becomes nil, a struct
// return becomes a freshly owned struct CData, and every other scalar
// kind becomes either a native Go value or, for a pointer return, a
// borrowed Pointer CData backed by a fresh ptr-holder slot in vm's request
// arena.
func (vm *VM) fromResult(ret *ctypes.Type, res trampoline.Result) any {
	if res.StructAddr != nil {
		return &CData{ty: ctypesRefOwned(ret), ptr: res.StructAddr, flags: FlagOwned, vm: vm}
	}
	hv := res.Scalar
	if hv.Kind == marshal.HostPointer {
		slot := vm.RequestArena().Alloc(arena.Align)
		xunsafe.Store[uintptr](slot, uintptr(hv.Ptr))
		return &CData{ty: ctypesRefOwned(ret), ptr: slot, vm: vm}
	}
	return hostValueToNative(hv)
}

func ctypesRefOwned(t *ctypes.Type) ctypes.Ref { return ctypes.Ref{Type: t, Owned: true} }

func goTypeName(a any) string {
	if a == nil {
		return "nil"
	}
	switch a.(type) {
	case bool:
		return "bool"
	case int, int8, int16, int32, int64:
		return "int"
	case uint, uint8, uint16, uint32, uint64:
		return "uint"
	case float32, float64:
		return "float"
	case string:
		return "string"
	default:
		return "unknown"
	}
}
