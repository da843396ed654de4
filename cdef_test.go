package goffi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCdef_DeclaresIntoGlobals(t *testing.T) {
	Configure(WithEnable(EnableOn))
	vm := New()

	err := vm.Cdef(`
		struct Point { int x; int y; };
		int add(int a, int b);
	`, "")
	require.NoError(t, err)

	_, ok := vm.Globals().Symbol("add")
	assert.True(t, ok)
	_, ok = vm.Globals().Tag("Point")
	assert.True(t, ok)
}

func TestCdef_LibOverridesDirective(t *testing.T) {
	Configure(WithEnable(EnableOn))
	vm := New()

	err := vm.Cdef(`#define FFI_LIB "libfromdirective.so"
int f(void);`, "libexplicit.so")
	require.NoError(t, err)
	assert.Equal(t, "libexplicit.so", vm.Globals().Library)
}

func TestCdef_FailureLeavesGlobalsUnchanged(t *testing.T) {
	Configure(WithEnable(EnableOn))
	vm := New()
	checkpoint := vm.Globals().Checkpoint()

	err := vm.Cdef("int good(void); int bad(", "")
	require.Error(t, err)
	assert.Equal(t, checkpoint, vm.Globals().Checkpoint())

	_, ok := vm.Globals().Symbol("good")
	assert.False(t, ok)
}

func TestCdef_DisabledWhenEnableOff(t *testing.T) {
	Configure(WithEnable(EnableOff))
	t.Cleanup(func() { Configure(WithEnable(EnableOn)) })

	vm := New()
	err := vm.Cdef("int f(void);", "")
	require.Error(t, err)
	var de *DisabledError
	require.ErrorAs(t, err, &de)
}

func TestLoad_RoutesByFFIScopeDirective(t *testing.T) {
	Configure(WithEnable(EnableOn))
	vm := New()

	dir := t.TempDir()
	path := filepath.Join(dir, "widgets.h")
	require.NoError(t, os.WriteFile(path, []byte(`#define FFI_SCOPE "widgets"
int widget_count(void);
`), 0o644))

	require.NoError(t, vm.Load(path))

	_, ok := vm.Globals().Symbol("widget_count")
	assert.False(t, ok, "declaration should not land in the VM's own globals")

	scope, ok := vm.Scope("widgets")
	require.True(t, ok)
	_, ok = scope.Symbol("widget_count")
	assert.True(t, ok)
}

func TestLoad_MissingFileReturnsResourceError(t *testing.T) {
	Configure(WithEnable(EnableOn))
	vm := New()
	err := vm.Load(filepath.Join(t.TempDir(), "does-not-exist.h"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
