// Package arena provides the two-allocator split described in spec.md §5
// "Allocator discipline": a request-scoped Arena (resets cheaply at VM
// request end) and a Persistent arena (survives across requests, backs
// PERSISTENT/STORED types and CData). Both are grounded on the teacher's
// internal/arena bump-allocator: a growing list of doubling-sized blocks,
// handed out a pointer at a time, reset in bulk rather than freed object by
// object.
package arena

import (
	"unsafe"

	"github.com/blade-lang/goffi/internal/xunsafe"
)

// minBlock is the size of the first block an Arena allocates.
const minBlock = 4096

// Align is the alignment of every allocation handed out by an Arena,
// matching the teacher's choice of pointer-width alignment.
const Align = int(unsafe.Sizeof(uintptr(0)))

// Arena is a request-scoped bump allocator. The zero Arena is empty and
// ready to use. It is not safe for concurrent use — each VM owns exactly
// one request arena at a time, per spec.md §5's single-threaded-per-VM
// scheduling model.
type Arena struct {
	_ xunsafe.NoCopy

	blocks [][]byte
	cur    []byte // the tail of blocks[len(blocks)-1], still unused
	used   int    // total bytes handed out, for diagnostics
}

// Alloc returns a pointer to size zeroed bytes, aligned to Align. The
// returned memory remains valid until the next call to Free.
func (a *Arena) Alloc(size int) unsafe.Pointer {
	if size == 0 {
		// A zero-size allocation still needs a distinct, non-nil address so
		// that CData backed by it is distinguishable from a null pointer.
		size = Align
	}
	size = (size + Align - 1) &^ (Align - 1)

	if len(a.cur) < size {
		a.grow(size)
	}
	p := unsafe.Pointer(&a.cur[0])
	a.cur = a.cur[size:]
	a.used += size
	return p
}

func (a *Arena) grow(need int) {
	blockSize := minBlock
	if len(a.blocks) > 0 {
		blockSize = len(a.blocks[len(a.blocks)-1]) * 2
	}
	for blockSize < need {
		blockSize *= 2
	}
	block := make([]byte, blockSize)
	a.blocks = append(a.blocks, block)
	a.cur = block
}

// Free resets the arena so all memory it handed out may be reused. Any
// pointer previously returned by Alloc must not be dereferenced after Free
// returns — the same safety/performance trade-off spec.md §5 attributes to
// the source's request-scoped allocator.
func (a *Arena) Free() {
	for _, b := range a.blocks {
		clear(b)
	}
	if len(a.blocks) > 1 {
		a.blocks = a.blocks[:1]
	}
	if len(a.blocks) == 1 {
		a.cur = a.blocks[0]
	} else {
		a.cur = nil
	}
	a.used = 0
}

// Used returns the number of bytes currently handed out, for diagnostics.
func (a *Arena) Used() int { return a.used }

// Persistent is an arena whose memory is never reclaimed by Free; it backs
// PERSISTENT CData and frozen preloaded types (spec.md §5). Structurally
// identical to Arena, but Free is a permanent no-op rather than a reset, so
// the two are kept as distinct types to make the allocator choice visible
// at every call site (spec.md §4.4's PERSISTENT flag selects between them).
type Persistent struct {
	Arena
}

// Free is a no-op: persistent memory is never reclaimed by this allocator.
func (p *Persistent) Free() {}

// New allocates space for a value of type T in a and copies value into it,
// returning a pointer to the arena-owned copy.
func New[T any](a *Arena, value T) *T {
	p := (*T)(a.Alloc(int(unsafe.Sizeof(value))))
	*p = value
	return p
}
