package ctypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// scenario 7 from spec.md §8: int* -> void* succeeds; int* -> double* fails.
func TestIsCompatible_VoidPointerRelaxation(t *testing.T) {
	intPtr := NewPointer(Int32Type)
	voidPtr := NewPointer(VoidType)
	doublePtr := NewPointer(Float64Type)

	assert.True(t, IsCompatible(voidPtr, intPtr))
	assert.True(t, IsCompatible(intPtr, voidPtr))
	assert.False(t, IsCompatible(doublePtr, intPtr))
}

func TestIsCompatible_ArrayPointerOneStep(t *testing.T) {
	arr := NewArray(Int32Type, 4)
	ptr := NewPointer(Int32Type)
	assert.True(t, IsCompatible(ptr, arr))
	assert.True(t, IsCompatible(arr, ptr))
}

func TestIsCompatible_ZeroLengthArrayMatchesAny(t *testing.T) {
	incomplete := NewArray(Int32Type, 0)
	concrete := NewArray(Int32Type, 10)
	assert.True(t, IsCompatible(incomplete, concrete))
	assert.True(t, IsCompatible(concrete, incomplete))
}

func TestIsSame_StricterThanIsCompatible(t *testing.T) {
	intPtr := NewPointer(Int32Type)
	voidPtr := NewPointer(VoidType)
	assert.True(t, IsCompatible(voidPtr, intPtr))
	assert.False(t, IsSame(voidPtr, intPtr))

	a4 := NewArray(Int32Type, 4)
	a5 := NewArray(Int32Type, 5)
	assert.False(t, IsCompatible(a4, a5)) // non-zero lengths must match even under the loose rule
	assert.False(t, IsSame(a4, a5))
}

func TestIsSame_StructIdentity(t *testing.T) {
	a := NewStruct("S", false, false)
	AdjustStructSize(a)
	b := NewStruct("S", false, false)
	AdjustStructSize(b)

	assert.True(t, IsSame(a, a))
	assert.False(t, IsSame(a, b)) // distinct declarations, even with the same tag spelling
}

func TestIsCompatible_FuncSignature(t *testing.T) {
	f1, _ := NewFunc(Int32Type, []*Type{Int32Type, NewPointer(CharType)}, false, ABIDefault)
	f2, _ := NewFunc(Int32Type, []*Type{Int32Type, NewPointer(CharType)}, false, ABIDefault)
	f3, _ := NewFunc(Int32Type, []*Type{Int32Type}, true, ABIDefault)

	assert.True(t, IsCompatible(f1, f2))
	assert.False(t, IsCompatible(f1, f3))
}
