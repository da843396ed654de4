package cparse

import (
	"testing"

	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *symtab.Scope {
	t.Helper()
	scope := symtab.New("test")
	_, err := Parse(src, scope)
	require.NoError(t, err)
	return scope
}

// TestParse_StructLayout is spec.md §8 concrete scenario 1.
func TestParse_StructLayout(t *testing.T) {
	scope := mustParse(t, `typedef struct P { int x; char y; } P;`)

	sym, ok := scope.Symbol("P")
	require.True(t, ok)
	ty := sym.Type.Type

	assert.EqualValues(t, 8, ty.Size)
	assert.EqualValues(t, 4, ty.Align)
	y := ty.FieldByName("y")
	require.NotNil(t, y)
	assert.EqualValues(t, 4, y.Offset)
}

// TestParse_Union is spec.md §8 concrete scenario 2 (layout half; the
// little-endian byte-view assertion belongs to the marshal package).
func TestParse_Union(t *testing.T) {
	scope := mustParse(t, `union U { uint32_t i; uint8_t b[4]; };`)

	tag, ok := scope.Tag("U")
	require.True(t, ok)
	assert.Equal(t, symtab.TagUnion, tag.Kind)
	assert.EqualValues(t, 4, tag.Type.Size)
	assert.True(t, tag.Type.Attr.Has(ctypes.UNION))

	i := tag.Type.FieldByName("i")
	b := tag.Type.FieldByName("b")
	require.NotNil(t, i)
	require.NotNil(t, b)
	assert.EqualValues(t, 0, i.Offset)
	assert.EqualValues(t, 0, b.Offset)
}

// TestParse_BitFields is spec.md §8 concrete scenario 3's declaration half.
func TestParse_BitFields(t *testing.T) {
	scope := mustParse(t, `struct B { unsigned a:3; unsigned b:5; unsigned c:8; };`)

	tag, ok := scope.Tag("B")
	require.True(t, ok)
	st := tag.Type

	a, b, c := st.FieldByName("a"), st.FieldByName("b"), st.FieldByName("c")
	require.NotNil(t, a)
	require.NotNil(t, b)
	require.NotNil(t, c)

	assert.EqualValues(t, 0, a.FirstBit)
	assert.EqualValues(t, 3, a.Bits)
	assert.EqualValues(t, 3, b.FirstBit)
	assert.EqualValues(t, 5, b.Bits)
	assert.EqualValues(t, 8, c.FirstBit)
	assert.EqualValues(t, 8, c.Bits)
	assert.Equal(t, a.Offset, b.Offset)
	assert.Equal(t, b.Offset, c.Offset)
}

// TestParse_FunctionDeclaration is spec.md §8 concrete scenario 4.
func TestParse_FunctionDeclaration(t *testing.T) {
	scope := mustParse(t, `int strlen(const char *s);`)

	sym, ok := scope.Symbol("strlen")
	require.True(t, ok)
	require.Equal(t, symtab.Function, sym.Kind)

	fn := sym.Type.Type
	assert.Equal(t, ctypes.Func, fn.Kind)
	assert.Equal(t, ctypes.Int32, fn.Ret.Kind)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, ctypes.Pointer, fn.Params[0].Kind)
	assert.Equal(t, ctypes.Char, fn.Params[0].Elem.Kind)
	assert.False(t, fn.Attr.Has(ctypes.VARIADIC))
}

// TestParse_Variadic is spec.md §8 concrete scenario 8's declaration half.
func TestParse_Variadic(t *testing.T) {
	scope := mustParse(t, `int printf(const char *fmt, ...);`)

	sym, ok := scope.Symbol("printf")
	require.True(t, ok)
	fn := sym.Type.Type
	assert.True(t, fn.Attr.Has(ctypes.VARIADIC))
	require.Len(t, fn.Params, 1)
}

func TestParse_ArrayDeclarator(t *testing.T) {
	scope := mustParse(t, `int a[4];`)
	sym, ok := scope.Symbol("a")
	require.True(t, ok)
	ty := sym.Type.Type
	assert.Equal(t, ctypes.Array, ty.Kind)
	assert.EqualValues(t, 4, ty.Length)
	assert.Equal(t, ctypes.Int32, ty.Elem.Kind)
}

// TestParse_PointerToArrayVsArrayOfPointer exercises the "inside-out"
// declarator construction for the two classic ambiguous forms.
func TestParse_PointerToArrayVsArrayOfPointer(t *testing.T) {
	scope := mustParse(t, `
		int (*pa)[3];
		int *ap[3];
	`)

	pa, ok := scope.Symbol("pa")
	require.True(t, ok)
	paTy := pa.Type.Type
	require.Equal(t, ctypes.Pointer, paTy.Kind)
	require.Equal(t, ctypes.Array, paTy.Elem.Kind)
	assert.EqualValues(t, 3, paTy.Elem.Length)
	assert.Equal(t, ctypes.Int32, paTy.Elem.Elem.Kind)

	ap, ok := scope.Symbol("ap")
	require.True(t, ok)
	apTy := ap.Type.Type
	require.Equal(t, ctypes.Array, apTy.Kind)
	assert.EqualValues(t, 3, apTy.Length)
	require.Equal(t, ctypes.Pointer, apTy.Elem.Kind)
	assert.Equal(t, ctypes.Int32, apTy.Elem.Elem.Kind)
}

func TestParse_FunctionPointerTypedef(t *testing.T) {
	scope := mustParse(t, `typedef int (*cmp_fn)(const void *, const void *);`)
	sym, ok := scope.Symbol("cmp_fn")
	require.True(t, ok)
	assert.Equal(t, symtab.TypeAlias, sym.Kind)

	ty := sym.Type.Type
	require.Equal(t, ctypes.Pointer, ty.Kind)
	require.Equal(t, ctypes.Func, ty.Elem.Kind)
	assert.Len(t, ty.Elem.Params, 2)
}

func TestParse_SelfReferentialStruct(t *testing.T) {
	scope := mustParse(t, `struct node { int value; struct node *next; };`)
	tag, ok := scope.Tag("node")
	require.True(t, ok)

	next := tag.Type.FieldByName("next")
	require.NotNil(t, next)
	require.Equal(t, ctypes.Pointer, next.Type.Kind)
	assert.Same(t, tag.Type, next.Type.Elem)
}

func TestParse_EnumWithExplicitAndAutoValues(t *testing.T) {
	scope := mustParse(t, `enum Color { RED = 5, GREEN, BLUE = 10 };`)
	tag, ok := scope.Tag("Color")
	require.True(t, ok)
	require.Len(t, tag.Type.Enumerators, 3)
	assert.Equal(t, int64(5), tag.Type.Enumerators[0].Value)
	assert.Equal(t, int64(6), tag.Type.Enumerators[1].Value)
	assert.Equal(t, int64(10), tag.Type.Enumerators[2].Value)

	green, ok := scope.Symbol("GREEN")
	require.True(t, ok)
	assert.Equal(t, symtab.Const, green.Kind)
	assert.EqualValues(t, 6, green.I64Value)
}

// TestParse_CharLiteralEscapesDecode covers the constant-expression char
// path: a char literal escape must contribute its decoded byte value, not
// the raw backslash, to an enumerator constant.
func TestParse_CharLiteralEscapesDecode(t *testing.T) {
	scope := mustParse(t, `enum Ctl { NUL = '\0', NL = '\n', TAB = '\t', BKSL = '\\', HEX = '\x41', OCT = '\101' };`)
	tag, ok := scope.Tag("Ctl")
	require.True(t, ok)
	require.Len(t, tag.Type.Enumerators, 6)
	assert.Equal(t, int64(0), tag.Type.Enumerators[0].Value)
	assert.Equal(t, int64('\n'), tag.Type.Enumerators[1].Value)
	assert.Equal(t, int64('\t'), tag.Type.Enumerators[2].Value)
	assert.Equal(t, int64('\\'), tag.Type.Enumerators[3].Value)
	assert.Equal(t, int64('A'), tag.Type.Enumerators[4].Value)
	assert.Equal(t, int64('A'), tag.Type.Enumerators[5].Value)
}

func TestParse_AnonymousUnionInlining(t *testing.T) {
	scope := mustParse(t, `
		struct Variant {
			int tag;
			union { int i; float f; };
		};
	`)
	tag, ok := scope.Tag("Variant")
	require.True(t, ok)
	i := tag.Type.FieldByName("i")
	f := tag.Type.FieldByName("f")
	require.NotNil(t, i)
	require.NotNil(t, f)
	assert.True(t, i.IsNested)
	assert.Equal(t, i.Offset, f.Offset)
}

func TestParse_AttributePacked(t *testing.T) {
	scope := mustParse(t, `struct __attribute__((packed)) Packed { char a; int b; };`)
	tag, ok := scope.Tag("Packed")
	require.True(t, ok)
	assert.True(t, tag.Type.Attr.Has(ctypes.PACKED))
	b := tag.Type.FieldByName("b")
	require.NotNil(t, b)
	assert.EqualValues(t, 1, b.Offset)
	assert.EqualValues(t, 5, tag.Type.Size)
}

func TestParse_UnsupportedAttributeIsReported(t *testing.T) {
	scope := symtab.New("test")
	_, err := Parse(`int x __attribute__((bogus_thing));`, scope)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported attribute")
}

func TestParse_RedeclarationRollsBackOnFailure(t *testing.T) {
	scope := symtab.New("test")
	_, err := Parse(`int x;`, scope)
	require.NoError(t, err)

	_, err = Parse(`int y; int x;`, scope) // x redeclared -> whole call must roll back
	require.Error(t, err)

	_, ok := scope.Symbol("y")
	assert.False(t, ok, "a failed cdef call must roll back everything it added, including earlier declarations from the same call")
}

func TestParse_FFIScopeAndLibDirectives(t *testing.T) {
	scope := symtab.New("test")
	res, err := Parse(`
		#define FFI_SCOPE "mylib"
		#define FFI_LIB "libmylib.so"
		int add(int a, int b);
	`, scope)
	require.NoError(t, err)
	assert.Equal(t, "mylib", res.ScopeName)
	assert.Equal(t, "libmylib.so", res.Library)
}

func TestParse_ConstQualifiedTypedef(t *testing.T) {
	scope := mustParse(t, `typedef const int cint;`)
	sym, ok := scope.Symbol("cint")
	require.True(t, ok)
	assert.True(t, sym.IsConst)
}
