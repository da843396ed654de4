package goffi

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blade-lang/goffi/internal/ctypes"
)

func newVM(t *testing.T) *VM {
	Configure(WithEnable(EnableOn))
	return New()
}

func TestNew_ZeroSizeRejected(t *testing.T) {
	vm := newVM(t)
	_, err := vm.New(borrowCType(ctypes.VoidType), true, false)
	require.Error(t, err)
	var zs *ZeroSizeError
	require.ErrorAs(t, err, &zs)
}

func TestNew_ZeroedStorage(t *testing.T) {
	vm := newVM(t)
	c, err := vm.New(borrowCType(ctypes.Int32Type), true, false)
	require.NoError(t, err)
	assert.EqualValues(t, 0, c.Value().AsI64())
}

func TestWriteField_ReadField_RoundTrip(t *testing.T) {
	vm := newVM(t)
	st := ctypes.NewStruct("Point", false, false)
	ctypes.AddField(st, "x", ctypes.Int32Type, false, 0)
	ctypes.AddField(st, "y", ctypes.Int32Type, false, 0)
	ctypes.AdjustStructSize(st)

	c, err := vm.New(borrowCType(st), true, false)
	require.NoError(t, err)

	require.NoError(t, c.WriteField("x", int64(10)))
	require.NoError(t, c.WriteField("y", int64(20)))

	xf, err := c.ReadField("x")
	require.NoError(t, err)
	assert.EqualValues(t, 10, xf.Value().AsI64())

	yf, err := c.ReadField("y")
	require.NoError(t, err)
	assert.EqualValues(t, 20, yf.Value().AsI64())
}

func TestWriteField_ConstRejected(t *testing.T) {
	vm := newVM(t)
	st := ctypes.NewStruct("Point", false, false)
	ctypes.AddField(st, "x", ctypes.Int32Type, false, 0)
	ctypes.AdjustStructSize(st)

	c, err := vm.New(borrowCType(st), true, false)
	require.NoError(t, err)
	c.flags |= FlagConst

	err = c.WriteField("x", int64(1))
	require.Error(t, err)
	var ia *IncompatibleAssignmentError
	require.ErrorAs(t, err, &ia)
}

func TestWriteField_NoSuchField(t *testing.T) {
	vm := newVM(t)
	st := ctypes.NewStruct("Point", false, false)
	ctypes.AddField(st, "x", ctypes.Int32Type, false, 0)
	ctypes.AdjustStructSize(st)

	c, err := vm.New(borrowCType(st), true, false)
	require.NoError(t, err)

	_, err = c.ReadField("z")
	require.Error(t, err)
	var nf *NoSuchFieldError
	require.ErrorAs(t, err, &nf)
}

func TestArrayIndex_ReadWriteAndBounds(t *testing.T) {
	vm := newVM(t)
	arr := ctypes.NewArray(ctypes.Int32Type, 3)

	c, err := vm.New(borrowCType(arr), true, false)
	require.NoError(t, err)

	require.NoError(t, c.WriteIndex(1, int64(42)))
	el, err := c.ReadIndex(1)
	require.NoError(t, err)
	assert.EqualValues(t, 42, el.Value().AsI64())

	_, err = c.ReadIndex(3)
	require.Error(t, err)
	var oob *OutOfBoundsError
	require.ErrorAs(t, err, &oob)
}

func TestElements_YieldsEveryElement(t *testing.T) {
	vm := newVM(t)
	arr := ctypes.NewArray(ctypes.Int32Type, 3)
	c, err := vm.New(borrowCType(arr), true, false)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, c.WriteIndex(i, int64(i*10)))
	}

	els, err := c.Elements()
	require.NoError(t, err)
	require.Len(t, els, 3)
	for i, el := range els {
		assert.EqualValues(t, i*10, el.Value().AsI64())
	}
}

func TestAddr_PointsAtOwnersStorage(t *testing.T) {
	vm := newVM(t)
	c, err := vm.New(borrowCType(ctypes.Int32Type), true, false)
	require.NoError(t, err)

	addr, err := c.Addr()
	require.NoError(t, err)

	ptrTarget, ok := addr.Type().PointerTarget()
	require.True(t, ok)
	assert.Equal(t, ctypes.Int32, ptrTarget.Kind())
	assert.Same(t, c, addr.borrowedFrom)

	got := *(*uintptr)(addr.ptr)
	assert.Equal(t, uintptr(c.ptr), got)
}

func TestSizeofAlignof(t *testing.T) {
	vm := newVM(t)
	c, err := vm.New(borrowCType(ctypes.Int64Type), true, false)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Sizeof())
	assert.Equal(t, 8, c.Alignof())
}

func TestMemcpyMemcmpMemset(t *testing.T) {
	vm := newVM(t)
	arr := ctypes.NewArray(ctypes.CharType, 8)

	a, err := vm.New(borrowCType(arr), true, false)
	require.NoError(t, err)
	b, err := vm.New(borrowCType(arr), true, false)
	require.NoError(t, err)

	require.NoError(t, a.Memcpy("hello", 5))
	require.NoError(t, b.Memcpy("hello", 5))

	cmp, err := a.Memcmp(b, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)

	require.NoError(t, a.Memset('x', 8))
	s, err := a.StringOf(true, 8)
	require.NoError(t, err)
	assert.Equal(t, "xxxxxxxx", s)
}

func TestStringOf_NulTerminatedCharArray(t *testing.T) {
	vm := newVM(t)
	arr := ctypes.NewArray(ctypes.CharType, 6)
	c, err := vm.New(borrowCType(arr), true, false)
	require.NoError(t, err)
	require.NoError(t, c.Memcpy("hi", 2))

	s, err := c.StringOf(false, 0)
	require.NoError(t, err)
	assert.Equal(t, "hi", s)
}

func TestClone_ByteForByteCopy(t *testing.T) {
	vm := newVM(t)
	st := ctypes.NewStruct("Point", false, false)
	ctypes.AddField(st, "x", ctypes.Int32Type, false, 0)
	ctypes.AdjustStructSize(st)

	c, err := vm.New(borrowCType(st), true, false)
	require.NoError(t, err)
	require.NoError(t, c.WriteField("x", int64(7)))

	clone, err := c.Clone()
	require.NoError(t, err)
	assert.NotEqual(t, c.ptr, clone.ptr)

	cmp, err := clone.Memcmp(c, int(st.Size))
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)
}

func TestIsNull(t *testing.T) {
	vm := newVM(t)
	ptrType := ctypes.NewPointer(ctypes.Int32Type)
	c, err := vm.New(borrowCType(ptrType), true, false)
	require.NoError(t, err)

	isNull, err := c.IsNull()
	require.NoError(t, err)
	assert.True(t, isNull)
}

func TestWriteField_AcceptsCompatiblePointerCData(t *testing.T) {
	vm := newVM(t)
	st := ctypes.NewStruct("Node", false, false)
	ctypes.AddField(st, "next", ctypes.NewPointer(ctypes.Int32Type), false, 0)
	ctypes.AdjustStructSize(st)

	node, err := vm.New(borrowCType(st), true, false)
	require.NoError(t, err)

	target, err := vm.New(borrowCType(ctypes.Int32Type), true, false)
	require.NoError(t, err)

	ptr, err := target.Addr()
	require.NoError(t, err)

	require.NoError(t, node.WriteField("next", ptr))

	field, err := node.ReadField("next")
	require.NoError(t, err)
	isNull, err := field.IsNull()
	require.NoError(t, err)
	assert.False(t, isNull)
}

func TestWriteField_RefusesOwnedPointerCDataIntoPointerTarget(t *testing.T) {
	vm := newVM(t)
	st := ctypes.NewStruct("Node", false, false)
	ctypes.AddField(st, "next", ctypes.NewPointer(ctypes.Int32Type), false, 0)
	ctypes.AdjustStructSize(st)

	node, err := vm.New(borrowCType(st), true, false)
	require.NoError(t, err)

	target, err := vm.New(borrowCType(ctypes.Int32Type), true, false)
	require.NoError(t, err)

	ptr, err := target.Addr()
	require.NoError(t, err)
	ptr.flags |= FlagOwned

	err = node.WriteField("next", ptr)
	require.Error(t, err)
	var ao *AssignOwnedPointerError
	require.ErrorAs(t, err, &ao)
}

func TestFree_MarksOwnerAndBorrowedAliasesAsUseAfterFree(t *testing.T) {
	vm := newVM(t)
	st := ctypes.NewStruct("Point", false, false)
	ctypes.AddField(st, "x", ctypes.Int32Type, false, 0)
	ctypes.AdjustStructSize(st)

	c, err := vm.New(borrowCType(st), true, false)
	require.NoError(t, err)

	field, err := c.ReadField("x")
	require.NoError(t, err)

	c.Free()

	_, err = c.ReadField("x")
	require.Error(t, err)
	var uaf *UseAfterFreeError
	require.ErrorAs(t, err, &uaf)

	_, err = field.ReadIndex(0)
	require.Error(t, err)
	require.ErrorAs(t, err, &uaf)
}

func TestCast_GenericAliasCarriesConst(t *testing.T) {
	vm := newVM(t)
	c, err := vm.New(borrowCType(ctypes.Int32Type), true, false)
	require.NoError(t, err)
	c.flags |= FlagConst

	out, err := vm.Cast(borrowCType(ctypes.Int32Type), c)
	require.NoError(t, err)
	assert.True(t, out.IsConst())
	assert.Equal(t, unsafe.Pointer(c.ptr), unsafe.Pointer(out.ptr))
}
