package xdbg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func exampleUnimplemented() error { return Unsupported() }

func TestUnsupported_NamesCallingFunction(t *testing.T) {
	err := exampleUnimplemented()
	assert.Contains(t, err.Error(), "exampleUnimplemented")
	assert.Contains(t, err.Error(), "not supported")
}

func TestDisabledBuild_IsNoOp(t *testing.T) {
	assert.False(t, Enabled)
	assert.NotPanics(t, func() { Assert(false, "this would panic with ffidebug") })
	assert.NotPanics(t, func() { Log("op", "irrelevant %d", 1) })
}
