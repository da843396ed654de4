package cparse

import (
	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/val"
)

// declBuild is the "inside-out" declarator construction closure: given the
// base type to the left of the declarator (e.g. `int` in `int *a[3]`), it
// returns the fully nested type the declarator describes.
type declBuild func(base *ctypes.Type) *ctypes.Type

func identityBuild(base *ctypes.Type) *ctypes.Type { return base }

// parseDeclaratorFrom parses one declarator and applies it to base,
// returning the declared name (empty for an abstract declarator) and the
// resulting type.
func (p *parser) parseDeclaratorFrom(base *ctypes.Type) (string, *ctypes.Type) {
	name, build := p.parseDeclarator()
	return name, build(base)
}

// parseDeclarator implements the standard C declarator grammar:
//
//	declarator       = pointer? direct-declarator
//	pointer          = '*' type-qualifier* pointer?
//	direct-declarator = IDENT | '(' declarator ')'
//	                   | direct-declarator '[' const-expr? ']'
//	                   | direct-declarator '(' parameter-list ')'
//
// A leading pointer wraps the base type before the direct-declarator's own
// postfix (array/function) suffixes are applied, matching C's rule that
// `*a[3]` is "array of pointer", not "pointer to array".
func (p *parser) parseDeclarator() (string, declBuild) {
	if p.tok == STAR {
		p.next()
		p.skipTypeQualifiers()
		name, inner := p.parseDeclarator()
		build := func(base *ctypes.Type) *ctypes.Type {
			return inner(ctypes.NewPointer(base))
		}
		return name, build
	}
	return p.parseDirectDeclarator()
}

func (p *parser) skipTypeQualifiers() {
	for p.tok == IDENT {
		switch p.lit {
		case "const", "volatile", "restrict", "_Atomic":
			p.next()
			continue
		}
		return
	}
}

func (p *parser) parseDirectDeclarator() (string, declBuild) {
	name := ""
	head := declBuild(identityBuild)

	switch {
	case p.tok == LPAREN:
		p.next()
		name, head = p.parseDeclarator()
		p.expect(RPAREN)
	case p.tok == IDENT && !keywords[p.lit]:
		name = p.lit
		p.next()
	}

	var suffixes []declBuild
	for {
		switch p.tok {
		case LBRACK:
			p.next()
			length, isVLA := p.parseArrayLength()
			p.expect(RBRACK)
			l := length
			vla := isVLA
			suffixes = append(suffixes, func(base *ctypes.Type) *ctypes.Type {
				if vla {
					return ctypes.NewVLA(base)
				}
				return ctypes.NewArray(base, l)
			})
			continue
		case LPAREN:
			p.next()
			params, variadic := p.parseParamList()
			p.expect(RPAREN)
			ps, v := params, variadic
			suffixes = append(suffixes, func(base *ctypes.Type) *ctypes.Type {
				ty, err := ctypes.NewFunc(base, ps, v, ctypes.ABIDefault)
				if err != nil {
					p.errorf(p.pos, "%v", err)
					return ctypes.VoidType
				}
				return ty
			})
			continue
		}
		break
	}

	build := func(base *ctypes.Type) *ctypes.Type {
		t := base
		for i := len(suffixes) - 1; i >= 0; i-- {
			t = suffixes[i](t)
		}
		return head(t)
	}
	return name, build
}

// parseArrayLength parses the contents of `[ ... ]` in a declarator:
// nothing (incomplete/flexible, length 0), `*` (a VLA, only legal in
// function-prototype scope per spec.md §4.3), or a constant expression.
func (p *parser) parseArrayLength() (uint32, bool) {
	if p.tok == RBRACK {
		return 0, false
	}
	if p.tok == STAR {
		p.next()
		return 0, true
	}
	v := p.parseConstExpr()
	if val.IsError(v) {
		return 0, false
	}
	n := v.AsI64()
	if n < 0 {
		p.errorf(p.pos, "array length must not be negative")
		return 0, false
	}
	return uint32(n), false
}

// parseParamList parses a function prototype's parameter-type-list: `void`
// alone, an empty list (treated identically, per spec.md's FFI declarations
// never needing K&R-style unspecified parameters), or a comma-separated
// list of parameter declarations optionally ending in `, ...`.
func (p *parser) parseParamList() ([]*ctypes.Type, bool) {
	if p.tok == RPAREN {
		return nil, false
	}
	if p.tok == IDENT && p.lit == "void" {
		save := p.snapshot()
		p.next()
		if p.tok == RPAREN {
			return nil, false
		}
		p.restore(save)
	}

	var params []*ctypes.Type
	for {
		if p.tok == ELLIPSIS {
			p.next()
			return params, true
		}
		spec := p.parseDeclSpecifiers()
		base := spec.baseType
		if base == nil {
			p.errorf(p.pos, "expected a parameter type")
			base = ctypes.VoidType
		}
		_, ty := p.parseDeclaratorFrom(base)
		params = append(params, ty)
		if p.tok == COMMA {
			p.next()
			continue
		}
		break
	}
	return params, false
}
