package cparse

import "github.com/blade-lang/goffi/internal/ctypes"

// attrSet accumulates the effect of zero or more __attribute__/__declspec
// annotations attached to a declaration, per spec.md §4.3.
type attrSet struct {
	abi           ctypes.ABI
	hasABI        bool
	packed        bool
	alignedTo     uint32 // 0 if no explicit aligned(N)
	msStruct      bool
	gccStruct     bool
	modeOverride  string // "DI","SI","HI","QI","DF","SF", "" if none
}

// abiAttrs maps the calling-convention attribute names to their ABI. The
// full closed set of recognized attributes is the switch in
// parseOneAttribute; anything else raises "Unsupported attribute".
var abiAttrs = map[string]ctypes.ABI{
	"cdecl": ctypes.ABICdecl, "fastcall": ctypes.ABIFastcall,
	"thiscall": ctypes.ABIThiscall, "stdcall": ctypes.ABIStdcall,
	"ms_abi": ctypes.ABIMS, "sysv_abi": ctypes.ABISysV,
	"vectorcall": ctypes.ABIVectorcall,
}

// parseAttributeList parses zero or more `__attribute__((...))` or
// `__declspec(...)` clauses, folding their effect into a shared attrSet.
func (p *parser) parseAttributeList() attrSet {
	var set attrSet
	for {
		switch {
		case p.tok == IDENT && p.lit == "__attribute__":
			p.next()
			p.expect(LPAREN)
			p.expect(LPAREN)
			p.parseAttributeArgs(&set)
			p.expect(RPAREN)
			p.expect(RPAREN)
		case p.tok == IDENT && p.lit == "__declspec":
			p.next()
			p.expect(LPAREN)
			p.parseOneAttribute(&set)
			p.expect(RPAREN)
		default:
			return set
		}
	}
}

func (p *parser) parseAttributeArgs(set *attrSet) {
	for {
		p.parseOneAttribute(set)
		if p.tok == COMMA {
			p.next()
			continue
		}
		return
	}
}

func (p *parser) parseOneAttribute(set *attrSet) {
	if p.tok != IDENT {
		return
	}
	name := p.lit
	pos := p.pos
	p.next()

	var args []string
	if p.tok == LPAREN {
		p.next()
		for p.tok != RPAREN && p.tok != EOF {
			args = append(args, p.lit)
			p.next()
			if p.tok == COMMA {
				p.next()
			}
		}
		p.expect(RPAREN)
	}

	switch name {
	case "cdecl", "fastcall", "thiscall", "stdcall", "ms_abi", "sysv_abi", "vectorcall":
		set.abi, set.hasABI = abiAttrs[name], true
	case "packed":
		set.packed = true
	case "ms_struct":
		set.msStruct = true
	case "gcc_struct":
		set.gccStruct = true
	case "aligned":
		if len(args) == 1 {
			set.alignedTo = parseUintLiteral(args[0])
		} else {
			set.alignedTo = 16 // GCC's default `aligned` without an argument
		}
	case "regparam":
		// Accepted and ignored: this engine has no fastcall-register
		// classifier of its own to feed it, so it is not recorded and does
		// not change layout.
	case "mode":
		if len(args) == 1 {
			set.modeOverride = args[0]
		}
	default:
		p.errorf(pos, "Unsupported attribute: %s", name)
	}
}

func parseUintLiteral(s string) uint32 {
	var n uint32
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}
		n = n*10 + uint32(s[i]-'0')
	}
	return n
}

// applyMode rewrites a pending integer/float kind per a `mode(...)`
// attribute, per spec.md §4.3.
func applyMode(k ctypes.Kind, mode string) ctypes.Kind {
	switch mode {
	case "QI":
		return pickSigned(k, ctypes.Int8, ctypes.Uint8)
	case "HI":
		return pickSigned(k, ctypes.Int16, ctypes.Uint16)
	case "SI":
		return pickSigned(k, ctypes.Int32, ctypes.Uint32)
	case "DI":
		return pickSigned(k, ctypes.Int64, ctypes.Uint64)
	case "SF":
		return ctypes.Float32
	case "DF":
		return ctypes.Float64
	default:
		return k
	}
}

func pickSigned(orig ctypes.Kind, signed, unsigned ctypes.Kind) ctypes.Kind {
	if orig.IsInteger() && !orig.IsSigned() {
		return unsigned
	}
	return signed
}
