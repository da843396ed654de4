package cparse

import (
	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/symtab"
	"github.com/blade-lang/goffi/internal/val"
)

// declSpecResult is the outcome of parsing one declaration-specifier list:
// the storage class / qualifiers that apply to every declarator in the
// list, plus the shared base type each declarator's own pointer/array/
// function suffixes are applied to.
type declSpecResult struct {
	baseType  *ctypes.Type
	isTypedef bool
	isConst   bool
}

// primCounts tallies the primitive type-specifier keywords seen so far, so
// that the closed combination table in classify can match against them
// regardless of the order they were written in (`unsigned long long int`,
// `long long unsigned int`, ... all mean the same thing).
type primCounts struct {
	void, boolean, char, float, double, signed, unsigned bool
	short, long, int_ int // long counts up to 2 ("long long")
}

func (c *primCounts) any() bool {
	return c.void || c.boolean || c.char || c.float || c.double || c.signed ||
		c.unsigned || c.short > 0 || c.long > 0 || c.int_ > 0
}

func (c *primCounts) apply(keyword string) {
	switch keyword {
	case "void":
		c.void = true
	case "_Bool":
		c.boolean = true
	case "char":
		c.char = true
	case "short":
		c.short++
	case "int":
		c.int_++
	case "long":
		c.long++
	case "float":
		c.float = true
	case "double":
		c.double = true
	case "signed":
		c.signed = true
	case "unsigned":
		c.unsigned = true
	}
}

// classify matches the tallied keywords against the closed set of valid C
// primitive type-specifier combinations (spec.md §4.3), mapping each to a
// ctypes.Kind.
func (c *primCounts) classify() (ctypes.Kind, bool) {
	switch {
	case c.void:
		return ctypes.Void, true
	case c.boolean:
		return ctypes.Bool, true
	case c.char:
		if c.signed {
			return ctypes.Int8, true
		}
		if c.unsigned {
			return ctypes.Uint8, true
		}
		return ctypes.Char, true
	case c.double:
		if c.long > 0 {
			return ctypes.LongDouble, true
		}
		return ctypes.Float64, true
	case c.float:
		return ctypes.Float32, true
	case c.short > 0:
		if c.unsigned {
			return ctypes.Uint16, true
		}
		return ctypes.Int16, true
	case c.long > 0:
		if c.unsigned {
			return ctypes.Uint64, true
		}
		return ctypes.Int64, true
	case c.unsigned:
		return ctypes.Uint32, true
	case c.signed, c.int_ > 0:
		return ctypes.Int32, true
	default:
		return ctypes.Void, false
	}
}

func isPrimitiveKeyword(lit string) bool {
	switch lit {
	case "void", "char", "short", "int", "long", "float", "double", "signed", "unsigned", "_Bool":
		return true
	}
	return false
}

// parseDeclSpecifiers parses the declaration-specifier / specifier-qualifier
// list that precedes a declarator: storage class, qualifiers, attributes,
// and exactly one of {primitive-keyword combination, struct/union/enum
// specifier, typedef name}.
func (p *parser) parseDeclSpecifiers() declSpecResult {
	var counts primCounts
	var attrs attrSet
	var explicitType *ctypes.Type
	isTypedef, isConst := false, false

specLoop:
	for {
		switch {
		case p.tok == IDENT && (p.lit == "__attribute__" || p.lit == "__declspec"):
			a := p.parseAttributeList()
			mergeAttrs(&attrs, a)
		case p.tok == IDENT && p.lit == "typedef":
			isTypedef = true
			p.next()
		case p.tok == IDENT && (p.lit == "extern" || p.lit == "static" || p.lit == "auto" || p.lit == "register"):
			p.next()
		case p.tok == IDENT && p.lit == "const":
			isConst = true
			p.next()
		case p.tok == IDENT && (p.lit == "volatile" || p.lit == "restrict" || p.lit == "_Atomic"):
			p.next()
		case p.tok == IDENT && isPrimitiveKeyword(p.lit) && explicitType == nil:
			counts.apply(p.lit)
			p.next()
		case p.tok == IDENT && p.lit == "struct" && explicitType == nil && !counts.any():
			explicitType = p.parseStructOrUnionSpecifier(false)
		case p.tok == IDENT && p.lit == "union" && explicitType == nil && !counts.any():
			explicitType = p.parseStructOrUnionSpecifier(true)
		case p.tok == IDENT && p.lit == "enum" && explicitType == nil && !counts.any():
			explicitType = p.parseEnumSpecifier()
		case p.tok == IDENT && explicitType == nil && !counts.any() && p.isTypedefName(p.lit):
			sym, _ := p.scope.Symbol(p.lit)
			explicitType = sym.Type.Type
			p.next()
		case p.tok == IDENT && explicitType == nil && !counts.any() && stdintTypes[p.lit] != nil:
			explicitType = stdintTypes[p.lit]
			p.next()
		default:
			break specLoop
		}
	}

	var base *ctypes.Type
	switch {
	case explicitType != nil:
		base = explicitType
	case counts.any():
		k, ok := counts.classify()
		if !ok {
			p.errorf(p.pos, "invalid combination of type specifiers")
			base = ctypes.VoidType
			break
		}
		if attrs.modeOverride != "" {
			k = applyMode(k, attrs.modeOverride)
		}
		if prim := ctypes.Primitive(k); prim != nil {
			base = prim
		} else {
			base = ctypes.VoidType
		}
	}

	return declSpecResult{baseType: base, isTypedef: isTypedef, isConst: isConst}
}

func (p *parser) isTypedefName(name string) bool {
	sym, ok := p.scope.Symbol(name)
	return ok && sym.Kind == symtab.TypeAlias
}

// stdintTypes holds the <stdint.h> fixed-width names, usable without a
// typedef of their own; a typedef of the same name in scope takes priority.
var stdintTypes = map[string]*ctypes.Type{
	"int8_t": ctypes.Int8Type, "uint8_t": ctypes.Uint8Type,
	"int16_t": ctypes.Int16Type, "uint16_t": ctypes.Uint16Type,
	"int32_t": ctypes.Int32Type, "uint32_t": ctypes.Uint32Type,
	"int64_t": ctypes.Int64Type, "uint64_t": ctypes.Uint64Type,
}

func mergeAttrs(dst *attrSet, src attrSet) {
	if src.hasABI {
		dst.abi, dst.hasABI = src.abi, true
	}
	dst.packed = dst.packed || src.packed
	dst.msStruct = dst.msStruct || src.msStruct
	dst.gccStruct = dst.gccStruct || src.gccStruct
	if src.alignedTo > dst.alignedTo {
		dst.alignedTo = src.alignedTo
	}
	if src.modeOverride != "" {
		dst.modeOverride = src.modeOverride
	}
}

// parseStructOrUnionSpecifier parses `struct`/`union` [tag] [`{` member-list `}`],
// wiring tag declarations into the scope's tag table with the two-phase
// INCOMPLETE_TAG pattern (spec.md §9): the tag is installed before its body
// is parsed so self-referential pointer fields resolve against the same
// *ctypes.Type that field population then mutates in place.
func (p *parser) parseStructOrUnionSpecifier(isUnion bool) *ctypes.Type {
	p.next() // consume 'struct'/'union'
	lead := p.parseAttributeList()

	tag := ""
	if p.tok == IDENT && !keywords[p.lit] {
		tag = p.lit
		p.next()
	}

	tagKind := symtab.TagStruct
	if isUnion {
		tagKind = symtab.TagUnion
	}

	if p.tok != LBRACE {
		if tag == "" {
			p.errorf(p.pos, "expected a tag or a struct/union body")
			return ctypes.VoidType
		}
		if t, ok := p.scope.Tag(tag); ok {
			return t.Type
		}
		st := ctypes.NewStruct(tag, isUnion, lead.packed)
		if err := p.scope.DefineTag(tag, &symtab.Tag{Kind: tagKind, Type: st}); err != nil {
			p.errorf(p.pos, "%v", err)
		}
		return st
	}

	var st *ctypes.Type
	if tag != "" {
		if existing, ok := p.scope.Tag(tag); ok {
			st = existing.Type
			if !st.Attr.Has(ctypes.INCOMPLETE_TAG) {
				p.errorf(p.pos, "redefinition of tag %s", tag)
			}
		} else {
			st = ctypes.NewStruct(tag, isUnion, lead.packed)
			if err := p.scope.DefineTag(tag, &symtab.Tag{Kind: tagKind, Type: st}); err != nil {
				p.errorf(p.pos, "%v", err)
			}
		}
	} else {
		st = ctypes.NewStruct("", isUnion, lead.packed)
	}

	p.expect(LBRACE)
	for p.tok != RBRACE && p.tok != EOF {
		p.parseStructDeclaration(st)
	}
	p.expect(RBRACE)
	p.parseAttributeList() // trailing `} __attribute__((...));`: parsed and discarded.

	ctypes.AdjustStructSize(st)
	return st
}

// parseStructDeclaration parses one member-declaration inside a struct or
// union body: a specifier-qualifier-list followed by one or more
// struct-declarators (each a declarator, or a bare `:` bit-field width, or
// both), ended by `;`. An anonymous nested struct/union member (no
// declarator at all) is inlined via AddAnonymousField.
func (p *parser) parseStructDeclaration(s *ctypes.Type) {
	startPos := p.pos
	spec := p.parseDeclSpecifiers()
	if spec.baseType == nil {
		p.errorf(startPos, "expected a member type")
		p.next()
		return
	}

	if p.tok == SEMI {
		p.next()
		if spec.baseType.Kind == ctypes.Struct {
			if dups := ctypes.AddAnonymousField(s, spec.baseType); len(dups) > 0 {
				for _, d := range dups {
					p.errorf(startPos, "duplicate field %q", d)
				}
			}
		}
		return
	}

	for {
		if p.tok == COLON {
			p.next()
			width := p.parseConstExpr()
			p.addBitField(s, "", spec.baseType, width, startPos)
		} else {
			name, ty := p.parseDeclaratorFrom(spec.baseType)
			attrs := p.parseAttributeList()
			explicitAlign := attrs.alignedTo
			if p.tok == COLON {
				p.next()
				width := p.parseConstExpr()
				p.addBitField(s, name, ty, width, startPos)
			} else if ty.Kind == ctypes.Array && ty.Attr.Has(ctypes.INCOMPLETE_ARRAY) && name != "" {
				if _, err := ctypes.AddFlexibleArrayMember(s, name, ty.Elem); err != nil {
					p.errorf(startPos, "%v", err)
				}
			} else {
				ctypes.AddField(s, name, ty, spec.isConst, explicitAlign)
			}
		}

		if p.tok == COMMA {
			p.next()
			continue
		}
		break
	}
	p.expect(SEMI)
}

func (p *parser) addBitField(s *ctypes.Type, name string, base *ctypes.Type, width val.Val, pos Position) {
	n := width.AsI64()
	if n < 0 || n > 255 {
		p.errorf(pos, "invalid bit-field width")
		return
	}
	if _, err := ctypes.AddBitField(s, name, base, uint8(n)); err != nil {
		p.errorf(pos, "%v", err)
	}
}

// parseEnumSpecifier parses `enum` [tag] [`{` enumerator-list `}`]. The
// underlying integer kind defaults to Int32 (spec.md §3 "Enum"); a `mode`
// attribute on the enum keyword itself is not a GCC construct, so no
// override path exists here.
func (p *parser) parseEnumSpecifier() *ctypes.Type {
	p.next() // consume 'enum'
	p.parseAttributeList()

	tag := ""
	if p.tok == IDENT && !keywords[p.lit] {
		tag = p.lit
		p.next()
	}

	if p.tok != LBRACE {
		if tag == "" {
			p.errorf(p.pos, "expected a tag or an enum body")
			return ctypes.VoidType
		}
		if t, ok := p.scope.Tag(tag); ok {
			return t.Type
		}
		e := ctypes.NewEnum(tag, ctypes.Int32)
		if err := p.scope.DefineTag(tag, &symtab.Tag{Kind: symtab.TagEnum, Type: e}); err != nil {
			p.errorf(p.pos, "%v", err)
		}
		return e
	}

	var e *ctypes.Type
	if tag != "" {
		if existing, ok := p.scope.Tag(tag); ok {
			e = existing.Type
		} else {
			e = ctypes.NewEnum(tag, ctypes.Int32)
			if err := p.scope.DefineTag(tag, &symtab.Tag{Kind: symtab.TagEnum, Type: e}); err != nil {
				p.errorf(p.pos, "%v", err)
			}
		}
	} else {
		e = ctypes.NewEnum("", ctypes.Int32)
	}

	p.expect(LBRACE)
	next := int64(0)
	for p.tok != RBRACE && p.tok != EOF {
		if p.tok != IDENT {
			p.errorf(p.pos, "expected an enumerator name")
			break
		}
		name := p.lit
		p.next()
		if p.tok == ASSIGN {
			p.next()
			v := p.parseConstExpr()
			next = v.AsI64()
		}
		ctypes.AddEnumerator(e, name, next)
		if err := p.scope.DefineSymbol(&symtab.Symbol{
			Kind: symtab.Const, Name: name, UnderlyingInt: ctypes.Int32, I64Value: next,
		}, false); err != nil {
			p.errorf(p.pos, "%v", err)
		}
		next++
		if p.tok == COMMA {
			p.next()
			continue
		}
		break
	}
	p.expect(RBRACE)
	e.Attr &^= ctypes.INCOMPLETE_TAG
	return e
}
