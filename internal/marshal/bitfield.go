package marshal

import (
	"unsafe"

	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/xunsafe"
)

// ReadBitField reads f's bits out of the struct instance at base, per
// spec.md §4.2's bit-field layout (offset/first_bit/bits) and §4.5's
// "base-type sign extension": an unsigned base type zero-extends, a signed
// one sign-extends from the field's own width, not the base type's.
func ReadBitField(base unsafe.Pointer, f *ctypes.Field) HostValue {
	raw := loadUnitBits(xunsafe.ByteAdd(base, int(f.Offset)), f.Type.Size)
	mask := bitMask(f.Bits)
	bits := (raw >> f.FirstBit) & mask

	if f.Type.Kind.IsSigned() {
		signBit := uint64(1) << (f.Bits - 1)
		if f.Bits < 64 && bits&signBit != 0 {
			bits |= ^mask
		}
		return Int(int64(bits))
	}
	return Uint(bits)
}

// WriteBitField writes v into f's bits at base, leaving every other bit in
// the field's packing unit untouched.
func WriteBitField(base unsafe.Pointer, f *ctypes.Field, v HostValue) {
	p := xunsafe.ByteAdd(base, int(f.Offset))
	raw := loadUnitBits(p, f.Type.Size)

	mask := bitMask(f.Bits) << f.FirstBit
	raw &^= mask
	raw |= (uint64(v.AsI64()) << f.FirstBit) & mask

	storeUnitBits(p, f.Type.Size, raw)
}

func bitMask(bits uint8) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

// loadUnitBits/storeUnitBits read or write the bit-field's base-type-sized
// packing unit (1, 2, 4, or 8 bytes) as a plain unsigned integer, the
// common substrate bit-shifting/masking operates over regardless of the
// base type's own signedness.
func loadUnitBits(p unsafe.Pointer, size uint32) uint64 {
	switch size {
	case 1:
		return uint64(xunsafe.Load[uint8](p))
	case 2:
		return uint64(xunsafe.Load[uint16](p))
	case 4:
		return uint64(xunsafe.Load[uint32](p))
	default:
		return xunsafe.Load[uint64](p)
	}
}

func storeUnitBits(p unsafe.Pointer, size uint32, v uint64) {
	switch size {
	case 1:
		xunsafe.Store(p, uint8(v))
	case 2:
		xunsafe.Store(p, uint16(v))
	case 4:
		xunsafe.Store(p, uint32(v))
	default:
		xunsafe.Store(p, v)
	}
}
