package goffi

import (
	"sync"

	"github.com/google/uuid"

	"github.com/blade-lang/goffi/internal/arena"
	"github.com/blade-lang/goffi/internal/loader"
	"github.com/blade-lang/goffi/internal/preload"
	"github.com/blade-lang/goffi/internal/symtab"
	"github.com/blade-lang/goffi/internal/vmlocal"
)

// VM is the per-host-VM-instance Globals record of spec.md §5: "All
// parser state, symbol tables, and the preloaded-scope table are owned by
// a Globals record bound to one VM." A host embedding this engine creates
// one VM per scripting-VM instance (and one per clone, if the host's
// thread module clones VMs); VMs share nothing but already-frozen
// PERSISTENT types and the process-wide preloaded-scope table.
type VM struct {
	id uuid.UUID

	mu sync.Mutex // guards callback re-entry (spec.md §9); not contended by normal ops

	globals *symtab.Scope    // this VM's own top-level cdef/load scope
	request arena.Arena      // reset at request end
	perm    arena.Persistent // never reclaimed; backs STORED/PERSISTENT CData

	preloaded *preload.Table // process-wide, read-only once installed
	named     map[string]*symtab.Scope // VM-local scopes opened by load()'s FFI_SCOPE directive
	ld        loader.Loader
}

var current = vmlocal.New[*VM]()

// Option configures a VM at construction time.
type Option func(*VM)

// WithLoader binds vm to a Loader used to resolve symbols for cdef/load
// calls that name a library. The zero value uses loader.Null, which
// refuses every resolution (declarations-only use).
func WithLoader(ld loader.Loader) Option {
	return func(vm *VM) { vm.ld = ld }
}

// WithPreloaded binds vm to a process-wide preloaded-scope Table built by
// preload.Load at MINIT, making its scopes reachable via vm.Scope(name)
// and the scope() host entrypoint in scope.go.
func WithPreloaded(t *preload.Table) Option {
	return func(vm *VM) { vm.preloaded = t }
}

// New creates a VM with its own empty global scope.
func New(opts ...Option) *VM {
	vm := &VM{
		id:      uuid.New(),
		globals: symtab.New("<globals>"),
		ld:      loader.Null,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// ID is the stable debug identifier stamped on vm at construction, used in
// error messages and trace output so multi-VM host programs can tell
// diverging engine instances apart in logs.
func (vm *VM) ID() uuid.UUID { return vm.id }

// Globals returns this VM's own top-level symbol/tag scope, the target of
// cdef/load calls that don't name a preloaded scope.
func (vm *VM) Globals() *symtab.Scope { return vm.globals }

// Scope looks up a named scope by name: the scope(name) host entrypoint
// of spec.md §6. It consults scopes this VM opened itself via Load's
// FFI_SCOPE directive first, then the process-wide preloaded-scope Table
// installed via WithPreloaded, since the latter is frozen and shared
// while the former is VM-local and still mutable.
func (vm *VM) Scope(name string) (*symtab.Scope, bool) {
	if s, ok := vm.named[name]; ok {
		return s, true
	}
	if vm.preloaded == nil {
		return nil, false
	}
	return vm.preloaded.Scope(name)
}

// namedScope returns vm's own scope bound to name, creating it empty on
// first use. Used by Load when a file's FFI_SCOPE directive names a scope
// that isn't (yet) one of vm's own.
func (vm *VM) namedScope(name string) *symtab.Scope {
	if vm.named == nil {
		vm.named = make(map[string]*symtab.Scope)
	}
	s, ok := vm.named[name]
	if !ok {
		s = symtab.New(name)
		vm.named[name] = s
	}
	return s
}

// RequestArena returns the request-scoped allocator backing CData created
// without the PERSISTENT flag.
func (vm *VM) RequestArena() *arena.Arena { return &vm.request }

// Persistent returns the allocator backing CData created with the
// PERSISTENT flag, and frozen preloaded types.
func (vm *VM) Persistent() *arena.Persistent { return &vm.perm }

// Loader returns the Loader bound to vm for resolving cdef/load library
// symbols.
func (vm *VM) Loader() loader.Loader { return vm.ld }

// EndRequest resets vm's request-scoped arena, per spec.md §5's
// "request-scoped (default, resets at VM request end)" allocator
// discipline. Any CData backed by that arena and not also held via a
// borrowedFrom chain from PERSISTENT storage must not be touched again
// after this call.
func (vm *VM) EndRequest() { vm.request.Free() }

// Enter binds the calling goroutine as vm's owning thread, per spec.md
// §5's single-threaded-per-VM scheduling model. A native callback
// trampoline (spec.md §9) calls vm.Owns before dispatching into host
// code; Enter/Leave is how a VM's own driver loop establishes that
// binding in the first place.
func (vm *VM) Enter() { current.Bind(vm) }

// Leave clears the calling goroutine's VM binding.
func (vm *VM) Leave() { current.Unbind() }

// Owns reports whether the calling goroutine is currently bound to vm.
func (vm *VM) Owns() bool { return current.Owns(vm) }

// lock serializes the rare operations that must not interleave with a
// concurrent callback re-entry (spec.md §9: "must be serialized on the
// VM's own lock"). Ordinary CData/call operations don't take it: spec.md
// §5 already guarantees they run on a single cooperative thread.
func (vm *VM) lock()   { vm.mu.Lock() }
func (vm *VM) unlock() { vm.mu.Unlock() }
