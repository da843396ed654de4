package goffi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blade-lang/goffi/internal/cparse"
	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/symtab"
)

func TestType_StructAndArray(t *testing.T) {
	scope := symtab.New("<globals>")
	require.NoError(t, parseInto(scope, "struct Point { int x; int y; };"))

	pt, err := Type(scope, "struct Point")
	require.NoError(t, err)
	assert.Equal(t, ctypes.Struct, pt.Kind())
	names, ok := pt.StructFieldNames()
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, names)

	off, ok := pt.StructFieldOffset("y")
	require.True(t, ok)
	assert.Equal(t, 4, off)

	arr, err := Type(scope, "struct Point[4]")
	require.NoError(t, err)
	assert.Equal(t, ctypes.Array, arr.Kind())
	length, ok := arr.ArrayLength()
	require.True(t, ok)
	assert.Equal(t, 4, length)
}

func TestType_RollsBackSyntheticBinding(t *testing.T) {
	scope := symtab.New("<globals>")
	before := scope.Checkpoint()

	_, err := Type(scope, "int")
	require.NoError(t, err)

	assert.Equal(t, before, scope.Checkpoint())
	_, ok := scope.Symbol(typeAnonName)
	assert.False(t, ok)
}

// TestType_RollsBackInlineTag covers the case Rollback alone (after Parse
// already committed) used to miss: an inline struct tag introduced by the
// declaration text itself must not survive the call either.
func TestType_RollsBackInlineTag(t *testing.T) {
	scope := symtab.New("<globals>")
	before := scope.Checkpoint()

	_, err := Type(scope, "struct Inline { int a; } *")
	require.NoError(t, err)

	assert.Equal(t, before, scope.Checkpoint())
	_, ok := scope.Tag("Inline")
	assert.False(t, ok)
	_, ok = scope.Symbol(typeAnonName)
	assert.False(t, ok)
}

func TestType_UnknownTypeError(t *testing.T) {
	scope := symtab.New("<globals>")
	_, err := Type(scope, "DoesNotExist_t")
	require.Error(t, err)
}

func TestCType_PointerAndFuncAccessors(t *testing.T) {
	scope := symtab.New("<globals>")
	require.NoError(t, parseInto(scope, "int add(int a, int b);"))

	sym, ok := scope.Symbol("add")
	require.True(t, ok)
	fn := newCType(sym.Type)

	assert.Equal(t, ctypes.Func, fn.Kind())
	n, ok := fn.FuncParameterCount()
	require.True(t, ok)
	assert.Equal(t, 2, n)

	ret, ok := fn.FuncReturn()
	require.True(t, ok)
	assert.Equal(t, ctypes.Int32, ret.Kind())

	_, ok = fn.ArrayLength()
	assert.False(t, ok)
}

// parseInto is a small test helper shared by this file's cases: parse src
// as a sequence of declarations into scope, discarding the *cparse.Result.
func parseInto(scope *symtab.Scope, src string) error {
	_, err := cparse.Parse(src, scope)
	return err
}
