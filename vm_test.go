package goffi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blade-lang/goffi/internal/preload"
)

func TestNew_HasDistinctIDAndEmptyGlobals(t *testing.T) {
	a := New()
	b := New()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotNil(t, a.Globals())
}

func TestVM_EnterLeaveOwns(t *testing.T) {
	vm := New()
	assert.False(t, vm.Owns())
	vm.Enter()
	assert.True(t, vm.Owns())
	vm.Leave()
	assert.False(t, vm.Owns())
}

func TestVM_Scope_NamedBeforePreloaded(t *testing.T) {
	tbl := &preload.Table{}
	vm := New(WithPreloaded(tbl))

	_, ok := vm.Scope("missing")
	assert.False(t, ok)

	own := vm.namedScope("widgets")
	got, ok := vm.Scope("widgets")
	require.True(t, ok)
	assert.Same(t, own, got)
}

func TestVM_RequestArenaResetByEndRequest(t *testing.T) {
	vm := New()
	p := vm.RequestArena().Alloc(8)
	require.NotNil(t, p)
	vm.EndRequest()
}
