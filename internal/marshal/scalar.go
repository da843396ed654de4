package marshal

import (
	"unsafe"

	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/xunsafe"
)

// readScalar dispatches on k to read one non-aggregate value out of p,
// implementing the scalar half of spec.md §4.5's `cdata_to_host`.
func readScalar(p unsafe.Pointer, k ctypes.Kind) HostValue {
	switch k {
	case ctypes.Bool:
		return Bool(xunsafe.Load[byte](p) != 0)
	case ctypes.Char:
		return Int(int64(xunsafe.Load[byte](p)))
	case ctypes.Int8:
		return Int(int64(xunsafe.Load[int8](p)))
	case ctypes.Uint8:
		return Uint(uint64(xunsafe.Load[uint8](p)))
	case ctypes.Int16:
		return Int(int64(xunsafe.Load[int16](p)))
	case ctypes.Uint16:
		return Uint(uint64(xunsafe.Load[uint16](p)))
	case ctypes.Int32:
		return Int(int64(xunsafe.Load[int32](p)))
	case ctypes.Uint32:
		return Uint(uint64(xunsafe.Load[uint32](p)))
	case ctypes.Int64:
		return Int(xunsafe.Load[int64](p))
	case ctypes.Uint64:
		return Uint(xunsafe.Load[uint64](p))
	case ctypes.Float32:
		return Float(float64(xunsafe.Load[float32](p)))
	case ctypes.Float64:
		return Float(xunsafe.Load[float64](p))
	case ctypes.LongDouble:
		// Narrowed to the first 8 bytes, read as a float64 (Open Question §9.2:
		// the kind is exposed universally but this engine has no 80/128-bit
		// extended-precision float type of its own to carry the remaining bits
		// through to the host).
		return Float(xunsafe.Load[float64](p))
	default:
		return Null()
	}
}

// writeScalar is the inverse of readScalar.
func writeScalar(p unsafe.Pointer, k ctypes.Kind, v HostValue) error {
	switch k {
	case ctypes.Bool:
		b := byte(0)
		if v.AsI64() != 0 {
			b = 1
		}
		xunsafe.Store(p, b)
	case ctypes.Char:
		if v.Kind != HostString || len(v.Str) != 1 {
			return &NonCStringError{Want: "a one-character host string for a char target"}
		}
		xunsafe.Store(p, v.Str[0])
	case ctypes.Int8:
		xunsafe.Store(p, int8(v.AsI64()))
	case ctypes.Uint8:
		xunsafe.Store(p, uint8(v.AsI64()))
	case ctypes.Int16:
		xunsafe.Store(p, int16(v.AsI64()))
	case ctypes.Uint16:
		xunsafe.Store(p, uint16(v.AsI64()))
	case ctypes.Int32:
		xunsafe.Store(p, int32(v.AsI64()))
	case ctypes.Uint32:
		xunsafe.Store(p, uint32(v.AsI64()))
	case ctypes.Int64:
		xunsafe.Store(p, v.AsI64())
	case ctypes.Uint64:
		xunsafe.Store(p, uint64(v.AsI64()))
	case ctypes.Float32:
		xunsafe.Store(p, float32(v.AsF64()))
	case ctypes.Float64, ctypes.LongDouble:
		xunsafe.Store(p, v.AsF64())
	default:
		return &IncompatibleAssignmentError{DstType: k.String(), SrcKind: v.Kind}
	}
	return nil
}

// readCString scans a NUL-terminated string starting at p. p must not be
// nil; callers check that separately so a null pointer reads as HostNull
// rather than panicking here.
func readCString(p unsafe.Pointer) string {
	n := 0
	for xunsafe.Load[byte](xunsafe.ByteAdd(p, n)) != 0 {
		n++
	}
	return string(xunsafe.Bytes(p, n))
}
