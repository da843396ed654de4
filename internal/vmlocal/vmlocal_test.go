package vmlocal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeVM struct{ name string }

func TestLocal_BindCurrentUnbind(t *testing.T) {
	l := New[*fakeVM]()

	_, ok := l.Current()
	assert.False(t, ok)

	vm := &fakeVM{name: "a"}
	l.Bind(vm)

	cur, ok := l.Current()
	assert.True(t, ok)
	assert.Same(t, vm, cur)

	l.Unbind()
	_, ok = l.Current()
	assert.False(t, ok)
}

func TestLocal_IsPerGoroutine(t *testing.T) {
	l := New[*fakeVM]()
	vmA := &fakeVM{name: "a"}
	l.Bind(vmA)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, ok := l.Current()
		assert.False(t, ok, "a goroutine that never called Bind sees nothing")

		vmB := &fakeVM{name: "b"}
		l.Bind(vmB)
		cur, ok := l.Current()
		assert.True(t, ok)
		assert.Same(t, vmB, cur)
	}()
	wg.Wait()

	cur, ok := l.Current()
	assert.True(t, ok)
	assert.Same(t, vmA, cur, "binding on another goroutine must not affect this one")
}

func TestLocal_Owns(t *testing.T) {
	l := New[*fakeVM]()
	vm := &fakeVM{name: "a"}
	other := &fakeVM{name: "b"}
	l.Bind(vm)

	assert.True(t, l.Owns(vm))
	assert.False(t, l.Owns(other))
}
