// Package vmlocal gives each goroutine playing the role of "a VM's own
// thread" a goroutine-local handle to that VM, via github.com/timandy/routine
// (Go has no native goroutine-local storage). Per spec.md §5's "single-
// threaded cooperative per host VM instance" scheduling model and §9's
// native-callback reentrancy rule, a callback trampoline dispatching back
// into host code must first confirm it is still running on the goroutine
// that owns the VM it is calling into — this package is that check.
package vmlocal

import "github.com/timandy/routine"

// Local is a goroutine-local slot holding whichever value represents the
// owning VM for the calling goroutine. It is generic so the package that
// actually defines a VM type (the root package) can bind its own *VM here
// without vmlocal importing that package back.
type Local[T comparable] struct {
	tl routine.ThreadLocal[T]
}

// New returns an unbound Local.
func New[T comparable]() *Local[T] {
	return &Local[T]{tl: routine.NewThreadLocal[T]()}
}

// Bind marks the calling goroutine as v's owner.
func (l *Local[T]) Bind(v T) {
	l.tl.Set(v)
}

// Unbind clears whatever value the calling goroutine is currently bound
// to, once that goroutine is done acting as a VM's thread.
func (l *Local[T]) Unbind() {
	l.tl.Remove()
}

// Current returns the value bound to the calling goroutine, and whether
// anything is bound at all (the zero value of T is indistinguishable from
// "unbound" otherwise).
func (l *Local[T]) Current() (T, bool) {
	v := l.tl.Get()
	var zero T
	return v, v != zero
}

// Owns reports whether v is bound to the calling goroutine: the
// reentrancy assertion a native callback trampoline makes before
// dispatching into host code (spec.md §9 "Callback generation" must
// "be serialized on the VM's own lock" — Owns is the cheap goroutine-
// identity half of that; an actual lock still guards concurrent access
// to the VM's Globals from other goroutines).
func (l *Local[T]) Owns(v T) bool {
	cur, ok := l.Current()
	return ok && cur == v
}
