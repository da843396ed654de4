package trampoline

import (
	"fmt"

	"github.com/blade-lang/goffi/internal/ctypes"
)

// x86StackSlot is the 32-bit x86 stack argument slot width these mangling
// schemes round each parameter's size up to, per the Windows x86 calling
// convention ABIs (spec.md §4.6: "Windows x86 fastcall/stdcall/vectorcall").
const x86StackSlot = 4

// Mangle computes the decorated symbol name for name under cif's ABI, per
// spec.md §4.6: "@name@N", "_name@N", or "name@@N" where N is the sum of
// rounded-up argument slot sizes. ABIs that don't require mangling
// (ABIDefault, ABICdecl, the SysV/MS 64-bit ABIs, ...) return name
// unchanged.
func Mangle(name string, cif *Cif) string {
	if !cif.ABI.RequiresMangling() {
		return name
	}
	n := argBytes(cif)
	switch cif.ABI {
	case ctypes.ABIFastcall:
		return fmt.Sprintf("@%s@%d", name, n)
	case ctypes.ABIStdcall:
		return fmt.Sprintf("_%s@%d", name, n)
	case ctypes.ABIVectorcall:
		return fmt.Sprintf("%s@@%d", name, n)
	default:
		return name
	}
}

func argBytes(cif *Cif) int {
	total := 0
	for _, p := range cif.Params {
		total += roundUp(int(p.Size), x86StackSlot)
	}
	return total
}

func roundUp(n, to int) int {
	if n <= 0 {
		return 0
	}
	return (n + to - 1) / to * to
}
