package goffi

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/trampoline"
)

func TestCall_ScalarAddition(t *testing.T) {
	vm := newVM(t)
	fnType, err := ctypes.NewFunc(ctypes.Int32Type, []*ctypes.Type{ctypes.Int32Type, ctypes.Int32Type}, false, ctypes.ABIDefault)
	require.NoError(t, err)

	backend := trampoline.NewGoFuncBackend()
	addr := backend.Register(func(a, b int32) int32 { return a + b })

	fn := &CData{ty: ctypesRefOwned(fnType), ptr: unsafe.Pointer(addr), vm: vm}

	res, err := vm.Call(fn, backend, int64(3), int64(4))
	require.NoError(t, err)
	assert.EqualValues(t, 7, res)
}

func TestCall_WrongArgCount(t *testing.T) {
	vm := newVM(t)
	fnType, err := ctypes.NewFunc(ctypes.Int32Type, []*ctypes.Type{ctypes.Int32Type}, false, ctypes.ABIDefault)
	require.NoError(t, err)

	backend := trampoline.NewGoFuncBackend()
	addr := backend.Register(func(a int32) int32 { return a })
	fn := &CData{ty: ctypesRefOwned(fnType), ptr: unsafe.Pointer(addr), vm: vm}

	_, err = vm.Call(fn, backend)
	require.Error(t, err)
	var wac *WrongArgCountError
	require.ErrorAs(t, err, &wac)
}

func TestCall_StructReturn(t *testing.T) {
	vm := newVM(t)
	st := ctypes.NewStruct("Point", false, false)
	ctypes.AddField(st, "x", ctypes.Int32Type, false, 0)
	ctypes.AddField(st, "y", ctypes.Int32Type, false, 0)
	ctypes.AdjustStructSize(st)

	fnType, err := ctypes.NewFunc(st, nil, false, ctypes.ABIDefault)
	require.NoError(t, err)

	backend := trampoline.NewGoFuncBackend()
	type point struct{ x, y int32 }
	boxed := point{x: 2, y: 4}
	addr := backend.Register(func() unsafe.Pointer { return unsafe.Pointer(&boxed) })
	fn := &CData{ty: ctypesRefOwned(fnType), ptr: unsafe.Pointer(addr), vm: vm}

	res, err := vm.Call(fn, backend)
	require.NoError(t, err)

	cd, ok := res.(*CData)
	require.True(t, ok)
	assert.True(t, cd.IsOwned())

	xf, err := cd.ReadField("x")
	require.NoError(t, err)
	assert.EqualValues(t, 2, xf.Value().AsI64())
}

func TestCall_StructByValueArg(t *testing.T) {
	vm := newVM(t)
	st := ctypes.NewStruct("Point", false, false)
	ctypes.AddField(st, "x", ctypes.Int32Type, false, 0)
	ctypes.AddField(st, "y", ctypes.Int32Type, false, 0)
	ctypes.AdjustStructSize(st)

	fnType, err := ctypes.NewFunc(ctypes.Int32Type, []*ctypes.Type{st}, false, ctypes.ABIDefault)
	require.NoError(t, err)

	backend := trampoline.NewGoFuncBackend()
	addr := backend.Register(func(p unsafe.Pointer) int32 {
		return *(*int32)(p) + *(*int32)(unsafe.Add(p, 4))
	})
	fn := &CData{ty: ctypesRefOwned(fnType), ptr: unsafe.Pointer(addr), vm: vm}

	pt, err := vm.New(borrowCType(st), true, false)
	require.NoError(t, err)
	require.NoError(t, pt.WriteField("x", int64(10)))
	require.NoError(t, pt.WriteField("y", int64(20)))

	res, err := vm.Call(fn, backend, pt)
	require.NoError(t, err)
	assert.EqualValues(t, 30, res)
}

func TestCall_StringArgument(t *testing.T) {
	vm := newVM(t)
	fnType, err := ctypes.NewFunc(ctypes.Int32Type, []*ctypes.Type{ctypes.NewPointer(ctypes.CharType)}, false, ctypes.ABIDefault)
	require.NoError(t, err)

	backend := trampoline.NewGoFuncBackend()
	var seen string
	addr := backend.Register(func(p unsafe.Pointer) int32 {
		n := 0
		for *(*byte)(unsafe.Add(p, n)) != 0 {
			n++
		}
		seen = string(unsafe.Slice((*byte)(p), n))
		return int32(n)
	})
	fn := &CData{ty: ctypesRefOwned(fnType), ptr: unsafe.Pointer(addr), vm: vm}

	res, err := vm.Call(fn, backend, "hello")
	require.NoError(t, err)
	assert.EqualValues(t, 5, res)
	assert.Equal(t, "hello", seen)
}

func TestCall_NotCallable(t *testing.T) {
	vm := newVM(t)
	c, err := vm.New(borrowCType(ctypes.Int32Type), true, false)
	require.NoError(t, err)

	_, err = vm.Call(c, trampoline.NewGoFuncBackend())
	require.Error(t, err)
	var nc *NotCallableError
	require.ErrorAs(t, err, &nc)
}
