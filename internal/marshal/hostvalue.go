// Package marshal implements the Marshaler of spec.md §4.5: converting
// values between the host's dynamic representation and the raw C memory
// described by a *ctypes.Type, including enum underlying-kind dispatch,
// bit-field packing, and pointer/string interop.
package marshal

import (
	"unsafe"

	"github.com/blade-lang/goffi/internal/ctypes"
)

// HostKind discriminates the dynamic shapes a host value can take when
// crossing the marshal boundary.
type HostKind uint8

const (
	HostNull HostKind = iota
	HostBool
	HostInt
	HostUint
	HostFloat
	HostString
	HostPointer
)

// HostValue is the host side of one marshal operation: a dynamic value of
// one of the kinds above, carrying just enough payload to cover every
// scalar, string, and pointer case in spec.md §4.5.
type HostValue struct {
	Kind HostKind

	I64 int64
	U64 uint64
	F64 float64

	Str string // HostString

	Ptr     unsafe.Pointer // HostPointer: the address itself
	PtrElem *ctypes.Type   // HostPointer: the type the address points to, nil if untyped/foreign
}

func Null() HostValue { return HostValue{Kind: HostNull} }

func Bool(b bool) HostValue {
	v := HostValue{Kind: HostBool}
	if b {
		v.I64 = 1
	}
	return v
}

func Int(v int64) HostValue     { return HostValue{Kind: HostInt, I64: v} }
func Uint(v uint64) HostValue   { return HostValue{Kind: HostUint, U64: v} }
func Float(v float64) HostValue { return HostValue{Kind: HostFloat, F64: v} }
func String(s string) HostValue { return HostValue{Kind: HostString, Str: s} }
func Pointer(p unsafe.Pointer, elem *ctypes.Type) HostValue {
	return HostValue{Kind: HostPointer, Ptr: p, PtrElem: elem}
}

// AsI64 widens v to int64, valid for HostBool/HostInt/HostUint/HostFloat.
func (v HostValue) AsI64() int64 {
	switch v.Kind {
	case HostUint:
		return int64(v.U64)
	case HostFloat:
		return int64(v.F64)
	default:
		return v.I64
	}
}

// AsF64 widens v to float64.
func (v HostValue) AsF64() float64 {
	switch v.Kind {
	case HostUint:
		return float64(v.U64)
	case HostFloat:
		return v.F64
	default:
		return float64(v.I64)
	}
}
