// Package cparse implements the Declaration Parser of spec.md §4.3: a
// recursive-descent translator from a C-like surface syntax into the Type
// Graph (package ctypes) and the symbol/tag tables (package symtab).
//
// Parser errors propagate through a single non-local exit (a panic/recover
// pair scoped to one Parse call), grounded on cue/parser's own
// panic("too many errors")/recover() bailout idiom, rather than manual
// error plumbing at every recursive call site.
package cparse

import (
	"github.com/blade-lang/goffi/internal/ctypes"
	"github.com/blade-lang/goffi/internal/symtab"
)

// parser holds all state for one Parse call. A parser is single-use.
type parser struct {
	sc  *scanner
	tok Token
	lit string
	pos Position

	errs  ErrorList
	scope *symtab.Scope

	// library is set by a `FFI_LIB` directive, consumed by the caller to
	// bind the scope to a loader.Handle. Directives are pre-scanned
	// textually (see directives.go) before tokenizing begins.
	library string
	scopeName string
}

func newParser(src string, scope *symtab.Scope) *parser {
	p := &parser{sc: newScanner(src), scope: scope}
	p.next()
	return p
}

func (p *parser) next() {
	p.tok, p.lit, p.pos = p.sc.scan()
}

func (p *parser) expect(t Token) Position {
	pos := p.pos
	if p.tok != t {
		p.errorf(pos, "expected %v, got %v", t, p.tok)
	} else {
		p.next()
	}
	return pos
}

// snapshot/restore let the parser look arbitrarily far ahead (used to
// decide whether a parenthesized expression begins a type-name, i.e. a
// cast or a sizeof(type)) and then rewind.
type snapshot struct {
	sc  scanner
	tok Token
	lit string
	pos Position
}

func (p *parser) snapshot() snapshot {
	return snapshot{sc: *p.sc, tok: p.tok, lit: p.lit, pos: p.pos}
}

func (p *parser) restore(s snapshot) {
	*p.sc = s.sc
	p.tok, p.lit, p.pos = s.tok, s.lit, s.pos
}

// looksLikeTypeNameAhead reports whether, with p.tok == LPAREN, the tokens
// immediately inside the parenthesis begin a type-name (a type-qualifier,
// primitive-type keyword, `struct`/`union`/`enum`, or a typedef name) rather
// than an expression.
func (p *parser) looksLikeTypeNameAhead() bool {
	s := p.snapshot()
	p.next() // consume '('
	ok := p.tok == IDENT && p.startsTypeSpecifier(p.lit)
	p.restore(s)
	return ok
}

func (p *parser) startsTypeSpecifier(ident string) bool {
	switch ident {
	case "void", "char", "short", "int", "long", "float", "double",
		"signed", "unsigned", "_Bool", "struct", "union", "enum",
		"const", "volatile", "restrict", "_Atomic":
		return true
	}
	if sym, ok := p.scope.Symbol(ident); ok && sym.Kind == symtab.TypeAlias {
		return true
	}
	return false
}

// Result is the outcome of a successful Parse call: any FFI_SCOPE/FFI_LIB
// directive values it observed. The symbols and tags it added are not
// listed here; they are already committed into the caller's *symtab.Scope.
type Result struct {
	ScopeName string
	Library   string
}

// Parse parses src as a sequence of C declarations, populating scope.
// On error, every symbol/tag/type added during this call is rolled back
// (spec.md §5 "Cancellation": "transactional at the call boundary") and a
// non-nil error is returned; the scope is left exactly as it was found.
func Parse(src string, scope *symtab.Scope) (Result, error) {
	return parse(src, scope, true)
}

// ParseTransient parses src exactly like Parse, but never commits its
// additions into scope, even on success: every symbol/tag it installed
// stays in scope's undo log, so the caller can still roll them back with
// scope.Rollback(checkpoint) using a checkpoint taken before this call.
// Type uses this to smuggle a bare type declaration through the parser
// without leaving any trace of the synthetic typedef, or of any tag an
// inline struct/union/enum in decl happened to introduce, once it has
// captured whatever it needed from the result.
func ParseTransient(src string, scope *symtab.Scope) (Result, error) {
	return parse(src, scope, false)
}

func parse(src string, scope *symtab.Scope, commit bool) (res Result, err error) {
	scopeName, lib := scanDirectives(src)
	checkpoint := scope.Checkpoint()

	p := newParser(src, scope)
	p.scopeName, p.library = scopeName, lib

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
		}
		if e := p.errs.Err(); e != nil {
			scope.Rollback(checkpoint)
			err = e
			return
		}
		if commit {
			scope.Commit(checkpoint)
		}
		res = Result{ScopeName: scopeName, Library: lib}
	}()

	p.parseTranslationUnit()
	return res, err
}

func (p *parser) parseTranslationUnit() {
	for p.tok != EOF {
		p.parseExternalDeclaration()
	}
}

func (p *parser) parseExternalDeclaration() {
	startPos := p.pos
	spec := p.parseDeclSpecifiers()
	if spec.baseType == nil {
		// A bare `;` (stray semicolon) or a standalone struct/union/enum
		// declaration with no declarators is legal; parseDeclSpecifiers
		// already performed any tag registration as a side effect.
		if p.tok == SEMI {
			p.next()
			return
		}
		p.errorf(startPos, "expected a declaration")
		p.next()
		return
	}

	if p.tok == SEMI {
		// `struct Foo { ... };` with no declarator: the type declaration is
		// already complete.
		p.next()
		return
	}

	for {
		name, ty := p.parseDeclaratorFrom(spec.baseType)
		trailing := p.parseAttributeList()
		if trailing.hasABI && ty.Kind == ctypes.Func {
			ty.ABI = trailing.abi
		}

		if name == "" {
			p.errorf(startPos, "declarator requires a name at file scope")
		} else {
			p.installDeclaration(name, ty, spec)
		}

		if p.tok == COMMA {
			p.next()
			continue
		}
		break
	}
	p.expect(SEMI)
}

// installDeclaration registers one declared name, choosing the symbol kind
// per spec.md §3: typedef -> TypeAlias, function type -> Function,
// otherwise -> Variable. extern/static/auto/register storage classes are
// accepted but only typedef/extern carry semantic effect (spec.md §4.3).
func (p *parser) installDeclaration(name string, ty *ctypes.Type, spec declSpecResult) {
	var sym *symtab.Symbol
	switch {
	case spec.isTypedef:
		sym = &symtab.Symbol{Kind: symtab.TypeAlias, Name: name, Type: ctypes.Ref{Type: ty}, IsConst: spec.isConst}
	case ty.Kind == ctypes.Func:
		sym = &symtab.Symbol{Kind: symtab.Function, Name: name, Type: ctypes.Ref{Type: ty}}
	default:
		sym = &symtab.Symbol{Kind: symtab.Variable, Name: name, Type: ctypes.Ref{Type: ty}}
	}
	if err := p.scope.DefineSymbol(sym, spec.isTypedef); err != nil {
		p.errorf(p.pos, "%v", err)
	}
}

// parseTypeName parses a specifier-qualifier-list followed by an optional
// abstract declarator, used by sizeof(type), _Alignof(type), and casts.
func (p *parser) parseTypeName() *ctypes.Type {
	spec := p.parseDeclSpecifiers()
	if spec.baseType == nil {
		p.errorf(p.pos, "expected a type name")
		return ctypes.VoidType
	}
	_, ty := p.parseDeclaratorFrom(spec.baseType)
	return ty
}
