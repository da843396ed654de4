// Package ctypes implements the Type Graph: an immutable-after-construction
// DAG of C types, built incrementally by the declaration parser and
// consulted by the marshaler, the CData layer, and the call trampoline.
package ctypes

import "fmt"

// Kind is the sum-type tag of a Type node.
type Kind uint8

const (
	Void Kind = iota
	Bool
	Char
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	LongDouble
	Pointer
	Array
	Struct
	Enum
	Func
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Int8:
		return "int8_t"
	case Uint8:
		return "uint8_t"
	case Int16:
		return "int16_t"
	case Uint16:
		return "uint16_t"
	case Int32:
		return "int32_t"
	case Uint32:
		return "uint32_t"
	case Int64:
		return "int64_t"
	case Uint64:
		return "uint64_t"
	case Float32:
		return "float"
	case Float64:
		return "double"
	case LongDouble:
		return "long double"
	case Pointer:
		return "pointer"
	case Array:
		return "array"
	case Struct:
		return "struct"
	case Enum:
		return "enum"
	case Func:
		return "func"
	default:
		return fmt.Sprintf("ctypes.Kind(%d)", uint8(k))
	}
}

// IsScalar reports whether k is a fixed-width non-aggregate numeric kind.
func (k Kind) IsScalar() bool {
	switch k {
	case Bool, Char, Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Uint64,
		Float32, Float64, LongDouble:
		return true
	}
	return false
}

// IsInteger reports whether k is one of the integer kinds, including Bool
// and Char, which spec.md §4.2 allows as bit-field base types.
func (k Kind) IsInteger() bool {
	switch k {
	case Bool, Char, Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Uint64:
		return true
	}
	return false
}

// IsSigned reports whether an integer kind is signed. Panics if k is not an
// integer kind; callers are expected to have already dispatched on IsInteger.
func (k Kind) IsSigned() bool {
	switch k {
	case Int8, Int16, Int32, Int64, Char:
		return true
	case Uint8, Uint16, Uint32, Uint64, Bool:
		return false
	default:
		panic(fmt.Sprintf("ctypes: IsSigned called on non-integer kind %v", k))
	}
}

// Attr is a bitset of type attributes, matching spec.md §3.
type Attr uint32

const (
	CONST Attr = 1 << iota
	VARIADIC
	INCOMPLETE_TAG
	INCOMPLETE_ARRAY
	VLA
	UNION
	PACKED
	MS_STRUCT
	GCC_STRUCT
	PERSISTENT
	STORED
)

func (a Attr) Has(f Attr) bool { return a&f != 0 }

// ABI is the closed set of calling conventions from spec.md §3 invariant 5.
type ABI uint8

const (
	ABIDefault ABI = iota
	ABICdecl
	ABIFastcall
	ABIThiscall
	ABIStdcall
	ABIPascal
	ABIRegister
	ABIMS
	ABISysV
	ABIVectorcall
)

func (a ABI) String() string {
	switch a {
	case ABIDefault:
		return "default"
	case ABICdecl:
		return "cdecl"
	case ABIFastcall:
		return "fastcall"
	case ABIThiscall:
		return "thiscall"
	case ABIStdcall:
		return "stdcall"
	case ABIPascal:
		return "pascal"
	case ABIRegister:
		return "register"
	case ABIMS:
		return "ms_abi"
	case ABISysV:
		return "sysv_abi"
	case ABIVectorcall:
		return "vectorcall"
	default:
		return "abi?"
	}
}

// RequiresMangling reports whether symbol names under this ABI must be
// mangled per spec.md §4.6 (Windows x86 fastcall/stdcall/vectorcall).
func (a ABI) RequiresMangling() bool {
	switch a {
	case ABIFastcall, ABIStdcall, ABIVectorcall:
		return true
	}
	return false
}
