package trampoline

import (
	"sync"

	"github.com/blade-lang/goffi/internal/ctypes"
)

// HostCallable is whatever the embedding VM uses to represent a callable
// value (a closure, a bound method, ...). The trampoline package never
// inspects it; ClosureTable only ever stores and returns it.
type HostCallable any

// Closure records what a native→host callback trampoline needs at the
// moment native code invokes it: the host value to call and the C
// signature to marshal arguments/return through.
type Closure struct {
	Callable HostCallable
	Type     *ctypes.Type // Kind == Func
}

// ClosureTable keys in-flight native callbacks by their generated code's
// address, per spec.md §9 "Callback generation": "record (host_callable,
// type) in a closure table keyed by the closure's code address".
//
// Generating the actual callable machine code (a libffi closure) is the
// conditionally-compiled, partially-disabled source feature spec.md §9
// names as a Non-goal here; ClosureTable exists so a future Backend that
// does allocate real closures has somewhere to register them, without this
// package needing to change shape when that lands.
type ClosureTable struct {
	mu      sync.RWMutex
	entries map[uintptr]Closure
}

// NewClosureTable returns an empty table.
func NewClosureTable() *ClosureTable {
	return &ClosureTable{entries: make(map[uintptr]Closure)}
}

// Register associates codeAddr with c. A Backend that allocates a real
// libffi closure calls this once the closure's executable address is
// known, before handing that address to native code.
func (t *ClosureTable) Register(codeAddr uintptr, c Closure) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[codeAddr] = c
}

// Lookup returns the Closure registered for codeAddr, the address the
// closure trampoline receives as its own entry point when native code
// calls back in.
func (t *ClosureTable) Lookup(codeAddr uintptr) (Closure, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.entries[codeAddr]
	return c, ok
}

// Unregister removes codeAddr's entry, once the closure's backing
// allocation is freed.
func (t *ClosureTable) Unregister(codeAddr uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, codeAddr)
}
