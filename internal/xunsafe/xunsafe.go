// Package xunsafe provides a more convenient interface for performing
// unsafe pointer arithmetic than Go's built-in unsafe package, in the style
// of the teacher's internal/xunsafe package. It is the one place in this
// module where raw memory is touched directly; the marshaler, CData layer,
// and call trampoline all route through it instead of using `unsafe`
// themselves.
package xunsafe

import (
	"sync"
	"unsafe"
)

// NoCopy is embedded in types that must not be moved after first use (it
// makes `go vet -copylocks` flag accidental copies via its sync.Mutex
// element type, without taking up space or actually taking a lock).
type NoCopy [0]sync.Mutex

// BitCast reinterprets the bits of v, of type From, as a value of type To.
// Sizes must match; callers are responsible for that invariant.
func BitCast[To, From any](v From) To {
	return *(*To)(unsafe.Pointer(&v))
}

// ByteAdd returns p advanced by n bytes.
func ByteAdd(p unsafe.Pointer, n int) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p) + uintptr(n))
}

// ByteSub returns the byte distance from b to a (a - b).
func ByteSub(a, b unsafe.Pointer) int {
	return int(uintptr(a) - uintptr(b))
}

// IsNil reports whether p is the null pointer.
func IsNil(p unsafe.Pointer) bool { return p == nil }

// Load reads a T out of raw memory at p.
func Load[T any](p unsafe.Pointer) T {
	return *(*T)(p)
}

// Store writes v into raw memory at p.
func Store[T any](p unsafe.Pointer, v T) {
	*(*T)(p) = v
}

// Zero clears n bytes starting at p.
func Zero(p unsafe.Pointer, n int) {
	b := unsafe.Slice((*byte)(p), n)
	clear(b)
}

// CopyBytes copies n bytes from src to dst. Ranges must not overlap, which
// holds for every caller in this module (marshaling always copies between a
// host-owned scratch buffer and engine-owned storage, never storage onto
// itself).
func CopyBytes(dst, src unsafe.Pointer, n int) {
	copy(unsafe.Slice((*byte)(dst), n), unsafe.Slice((*byte)(src), n))
}

// Bytes views n bytes at p as a []byte without copying.
func Bytes(p unsafe.Pointer, n int) []byte {
	return unsafe.Slice((*byte)(p), n)
}

// Equal reports whether the n bytes at a and b are bitwise identical.
func Equal(a, b unsafe.Pointer, n int) bool {
	ab, bb := Bytes(a, n), Bytes(b, n)
	if len(ab) != len(bb) {
		return false
	}
	for i := range ab {
		if ab[i] != bb[i] {
			return false
		}
	}
	return true
}
