package trampoline

import (
	"testing"
	"unsafe"

	"github.com/blade-lang/goffi/internal/arena"
	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/marshal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInvoke_ScalarAddition is spec.md §8 concrete scenario 4's shape:
// a two-argument int function called through the full classify-call-
// unmarshal pipeline.
func TestInvoke_ScalarAddition(t *testing.T) {
	fn, err := ctypes.NewFunc(ctypes.Int32Type, []*ctypes.Type{ctypes.Int32Type, ctypes.Int32Type}, false, ctypes.ABIDefault)
	require.NoError(t, err)
	cif, err := NewCif(fn)
	require.NoError(t, err)

	backend := NewGoFuncBackend()
	addr := backend.Register(func(a, b int32) int32 { return a + b })

	res, err := Invoke(cif, backend, addr, []Arg{
		{Value: marshal.Int(3)},
		{Value: marshal.Int(4)},
	}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 7, res.Scalar.AsI64())
}

func TestInvoke_WrongArgCount(t *testing.T) {
	fn, err := ctypes.NewFunc(ctypes.Int32Type, []*ctypes.Type{ctypes.Int32Type}, false, ctypes.ABIDefault)
	require.NoError(t, err)
	cif, err := NewCif(fn)
	require.NoError(t, err)

	backend := NewGoFuncBackend()
	addr := backend.Register(func(a int32) int32 { return a })

	_, err = Invoke(cif, backend, addr, nil, nil)
	require.Error(t, err)
	var wrong *WrongArgCountError
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, 1, wrong.Want)
	assert.Equal(t, 0, wrong.Got)
}

// TestInvoke_Variadic is spec.md §8 concrete scenario 8's declaration:
// a printf-shaped function accepting more actuals than declared params.
func TestInvoke_Variadic(t *testing.T) {
	fn, err := ctypes.NewFunc(ctypes.Int32Type, []*ctypes.Type{ctypes.NewPointer(ctypes.CharType)}, true, ctypes.ABIDefault)
	require.NoError(t, err)
	cif, err := NewCif(fn)
	require.NoError(t, err)
	assert.True(t, cif.Variadic)

	backend := NewGoFuncBackend()
	var seen int64
	addr := backend.Register(func(fmtPtr unsafe.Pointer, extra int64) int32 {
		seen = extra
		return 0
	})

	fmtStr := "%d\x00"
	_, err = Invoke(cif, backend, addr, []Arg{
		{Value: marshal.String("%d"), Addr: unsafe.Pointer(unsafe.StringData(fmtStr))},
		{Value: marshal.Int(42)},
	}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 42, seen)
}

func TestInvoke_StructReturn(t *testing.T) {
	st := ctypes.NewStruct("Point", false, false)
	ctypes.AddField(st, "x", ctypes.Int32Type, false, 0)
	ctypes.AddField(st, "y", ctypes.Int32Type, false, 0)
	ctypes.AdjustStructSize(st)

	fn, err := ctypes.NewFunc(st, nil, false, ctypes.ABIDefault)
	require.NoError(t, err)
	cif, err := NewCif(fn)
	require.NoError(t, err)
	require.Len(t, cif.StructDescriptors, 1)

	backend := NewGoFuncBackend()
	type point struct{ x, y int32 }
	boxed := point{x: 2, y: 4}
	addr := backend.Register(func() unsafe.Pointer { return unsafe.Pointer(&boxed) })

	var a arena.Arena
	res, err := Invoke(cif, backend, addr, nil, &a)
	require.NoError(t, err)
	require.NotNil(t, res.StructAddr)

	xv := marshal.CDataToHost(res.StructAddr, ctypes.Int32Type)
	assert.EqualValues(t, 2, xv.AsI64())
}

func TestInvoke_StructByValueArg(t *testing.T) {
	st := ctypes.NewStruct("Point", false, false)
	ctypes.AddField(st, "x", ctypes.Int32Type, false, 0)
	ctypes.AddField(st, "y", ctypes.Int32Type, false, 0)
	ctypes.AdjustStructSize(st)

	fn, err := ctypes.NewFunc(ctypes.Int32Type, []*ctypes.Type{st}, false, ctypes.ABIDefault)
	require.NoError(t, err)
	cif, err := NewCif(fn)
	require.NoError(t, err)

	backend := NewGoFuncBackend()
	addr := backend.Register(func(p unsafe.Pointer) int32 {
		return int32(marshal.CDataToHost(p, ctypes.Int32Type).AsI64() + marshal.CDataToHost(unsafe.Add(p, 4), ctypes.Int32Type).AsI64())
	})

	buf := make([]byte, st.Size)
	*(*int32)(unsafe.Pointer(&buf[0])) = 10
	*(*int32)(unsafe.Add(unsafe.Pointer(&buf[0]), 4)) = 20

	res, err := Invoke(cif, backend, addr, []Arg{{Addr: unsafe.Pointer(&buf[0])}}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 30, res.Scalar.AsI64())
}

func TestMangle(t *testing.T) {
	fn, err := ctypes.NewFunc(ctypes.VoidType, []*ctypes.Type{ctypes.Int32Type, ctypes.Float64Type}, false, ctypes.ABIStdcall)
	require.NoError(t, err)
	cif, err := NewCif(fn)
	require.NoError(t, err)

	assert.Equal(t, "_Foo@12", Mangle("Foo", cif))

	fastFn, err := ctypes.NewFunc(ctypes.VoidType, []*ctypes.Type{ctypes.Int32Type}, false, ctypes.ABIFastcall)
	require.NoError(t, err)
	fastCif, err := NewCif(fastFn)
	require.NoError(t, err)
	assert.Equal(t, "@Foo@4", Mangle("Foo", fastCif))

	plainCif, err := NewCif(fn)
	require.NoError(t, err)
	plainCif.ABI = ctypes.ABICdecl
	assert.Equal(t, "Foo", Mangle("Foo", plainCif))
}

func TestDescribeStruct_UnionDescribesFirstFieldOnly(t *testing.T) {
	u := ctypes.NewStruct("U", true, false)
	ctypes.AddField(u, "asInt", ctypes.Int32Type, false, 0)
	ctypes.AddField(u, "asFloat", ctypes.Float32Type, false, 0)
	ctypes.AdjustStructSize(u)

	d := DescribeStruct(u)
	require.Len(t, d.Elements, 1)
	assert.Equal(t, ctypes.Int32, d.Elements[0])
}

func TestDescribeStruct_FlattensNestedStruct(t *testing.T) {
	inner := ctypes.NewStruct("Inner", false, false)
	ctypes.AddField(inner, "a", ctypes.Int8Type, false, 0)
	ctypes.AddField(inner, "b", ctypes.Int8Type, false, 0)
	ctypes.AdjustStructSize(inner)

	outer := ctypes.NewStruct("Outer", false, false)
	ctypes.AddField(outer, "n", inner, false, 0)
	ctypes.AddField(outer, "c", ctypes.Float64Type, false, 0)
	ctypes.AdjustStructSize(outer)

	d := DescribeStruct(outer)
	assert.Equal(t, []ctypes.Kind{ctypes.Int8, ctypes.Int8, ctypes.Float64}, d.Elements)
}

func TestClosureTable_RegisterLookupUnregister(t *testing.T) {
	fn, err := ctypes.NewFunc(ctypes.VoidType, nil, false, ctypes.ABIDefault)
	require.NoError(t, err)

	tbl := NewClosureTable()
	tbl.Register(0x1000, Closure{Callable: "host-fn", Type: fn})

	c, ok := tbl.Lookup(0x1000)
	require.True(t, ok)
	assert.Equal(t, "host-fn", c.Callable)

	tbl.Unregister(0x1000)
	_, ok = tbl.Lookup(0x1000)
	assert.False(t, ok)
}
