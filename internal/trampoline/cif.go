// Package trampoline implements the Call Trampoline (spec.md §4.6): given a
// callable CData, it classifies each actual argument into an ABI-width
// slot, synthesizes a struct descriptor for by-value aggregates, applies
// Windows name mangling where the target ABI requires it, and hands the
// prepared call off to a Backend.
//
// The engine owns the classification algorithm; a narrow Backend interface
// owns the one unsafe platform call, mirroring the teacher's split between
// the dynamic-message compiler (which owns layout and thunk selection) and
// its own Backend abstraction for the actual decode loop.
package trampoline

import (
	"fmt"

	"github.com/blade-lang/goffi/internal/ctypes"
)

// Backend is the boundary between this package's portable classification
// logic and the platform call itself. The engine built here exercises a
// deterministic in-process Backend over Go-native function values, so it
// can be built and tested without cgo or a libffi binding; a production
// embedding supplies a Backend that lowers a Cif to ffi_prep_cif/ffi_call
// (or an equivalent), per spec.md §1's "external collaborator named only
// at the boundary".
type Backend interface {
	// Call invokes the function described by cif at addr with the already
	// classified argument slots in args, writing the return value into ret.
	// ret is nil when cif.Ret is void.
	Call(cif *Cif, addr uintptr, args []Slot, ret []byte) error
}

// Cif ("call interface") is the fully classified description of one call:
// the declared return and parameter types, whether the function is
// variadic, its calling convention, and one descriptor per aggregate
// passed or returned by value.
type Cif struct {
	Ret      *ctypes.Type
	Params   []*ctypes.Type
	Variadic bool
	ABI      ctypes.ABI

	// StructDescriptors holds one descriptor per struct/union-by-value
	// parameter or return type, in declaration order; a Backend lowering to
	// libffi turns each into a transient ffi_type_struct.
	StructDescriptors []*StructDescriptor
}

// slotWidth is spec.md §4.6 step 2's "at least max(sizeof(void*),
// sizeof(double))" per-argument slot width on a 64-bit host.
const slotWidth = 8

// Slot is one ABI-width argument slot, holding either a raw scalar payload
// or, for a struct/union-by-value argument, the backing address of the
// CData supplying it (spec.md §4.6 step 2).
type Slot struct {
	Bytes    [slotWidth]byte
	ByRef    bool // true: RefAddr holds the address of the actual aggregate storage
	RefAddr  uintptr
}

// NewCif builds a Cif from a function type's declared signature.
func NewCif(fn *ctypes.Type) (*Cif, error) {
	if fn.Kind != ctypes.Func {
		return nil, fmt.Errorf("trampoline: %s is not a function type", fn)
	}
	cif := &Cif{
		Ret:      fn.Ret,
		Params:   fn.Params,
		Variadic: fn.Attr.Has(ctypes.VARIADIC),
		ABI:      fn.ABI,
	}
	for _, p := range cif.Params {
		if p.Kind == ctypes.Struct {
			cif.StructDescriptors = append(cif.StructDescriptors, DescribeStruct(p))
		}
	}
	if cif.Ret != nil && cif.Ret.Kind == ctypes.Struct {
		cif.StructDescriptors = append(cif.StructDescriptors, DescribeStruct(cif.Ret))
	}
	return cif, nil
}

// RetSlotSize is spec.md §4.6 step 4: "at least max(ret_ffi_type.size,
// sizeof(ffi_arg))".
func (c *Cif) RetSlotSize() int {
	if c.Ret == nil || c.Ret.Kind == ctypes.Void {
		return 0
	}
	if int(c.Ret.Size) > slotWidth {
		return int(c.Ret.Size)
	}
	return slotWidth
}
