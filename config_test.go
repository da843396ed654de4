package goffi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnableMode_Gates(t *testing.T) {
	assert.True(t, EnableOn.allowParse())
	assert.True(t, EnableOn.allowRuntime())

	assert.False(t, EnableOff.allowParse())
	assert.False(t, EnableOff.allowRuntime())

	assert.False(t, EnablePreload.allowParse())
	assert.True(t, EnablePreload.allowRuntime())
}

func TestConfigure_SetsGlobalEnable(t *testing.T) {
	t.Cleanup(func() { globalEnable.set(EnableOn) })

	Configure(WithEnable(EnableOff))
	assert.Equal(t, EnableOff, globalEnable.get())
	assert.False(t, globalEnable.allowRuntime())

	Configure(WithEnable(EnablePreload))
	assert.Equal(t, EnablePreload, globalEnable.get())
	assert.False(t, globalEnable.allowParse())
	assert.True(t, globalEnable.allowRuntime())
}

func TestParsePreloadList(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a.h;b.h;c.h", []string{"a.h", "b.h", "c.h"}},
		{" a.h ; ; b.h", []string{"a.h", "b.h"}},
		{"", nil},
		{"single.h", []string{"single.h"}},
	}
	for _, c := range cases {
		got := ParsePreloadList(c.in)
		if len(c.want) == 0 {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, c.want, got)
	}
}
