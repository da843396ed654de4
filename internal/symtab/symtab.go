// Package symtab implements the per-scope Symbol and Tag tables of
// spec.md §3/§4.3, plus the transactional undo log that lets a failed
// cdef/load call unwind exactly the entries it added (spec.md §5
// "Cancellation": "frees all types and symbols created during that call,
// and leaves the VM's globals unchanged").
package symtab

import "github.com/blade-lang/goffi/internal/ctypes"

// SymbolKind discriminates the four symbol kinds of spec.md §3.
type SymbolKind uint8

const (
	TypeAlias SymbolKind = iota
	Const
	Variable
	Function
)

// Symbol is an identifier → meaning binding, per spec.md §3.
type Symbol struct {
	Kind SymbolKind
	Name string

	Type    ctypes.Ref // TypeAlias, Variable, Function
	IsConst bool        // TypeAlias only

	UnderlyingInt ctypes.Kind // Const only
	I64Value      int64       // Const only

	Addr uintptr // Variable, Function; 0 ("null") until resolved against a loader
}

// TagKind discriminates the three tag namespaces (struct/union/enum share
// one Kind field on ctypes.Type, but the tag table itself is one flat map).
type TagKind uint8

const (
	TagEnum TagKind = iota
	TagStruct
	TagUnion
)

// Tag is a tag-name → type binding, per spec.md §3 "Tag entry".
type Tag struct {
	Kind TagKind
	Type *ctypes.Type
}

// Scope holds one translation unit's (or one preloaded scope's) symbol and
// tag tables, plus the library binding set by FFI_LIB.
type Scope struct {
	Name    string
	Library string // FFI_LIB path, "" if none was declared

	symbols map[string]*Symbol
	tags    map[string]*Tag

	// undo is a log of closures that reverse one addition; Rollback runs it
	// in reverse order. This is the "transactional at the call boundary"
	// mechanism of spec.md §5.
	undo []func()
}

// New creates an empty scope.
func New(name string) *Scope {
	return &Scope{
		Name:    name,
		symbols: make(map[string]*Symbol),
		tags:    make(map[string]*Tag),
	}
}

// Checkpoint returns the current undo-log length, to be passed to Rollback.
func (s *Scope) Checkpoint() int { return len(s.undo) }

// Rollback undoes every addition made since the given checkpoint, in
// reverse order, then truncates the undo log.
func (s *Scope) Rollback(checkpoint int) {
	for i := len(s.undo) - 1; i >= checkpoint; i-- {
		s.undo[i]()
	}
	s.undo = s.undo[:checkpoint]
}

// Commit discards the undo log back to (but not including) checkpoint,
// without reversing anything: the entries since checkpoint are kept
// permanently. Called once a cdef/load call completes successfully.
func (s *Scope) Commit(checkpoint int) {
	s.undo = s.undo[:checkpoint]
}

// Symbol looks up an identifier in this scope only (no parent-scope chain:
// spec.md's scopes are named, sibling bundles, not nested lexical scopes).
func (s *Scope) Symbol(name string) (*Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// Tag looks up a struct/union/enum tag in this scope.
func (s *Scope) Tag(name string) (*Tag, bool) {
	t, ok := s.tags[name]
	return t, ok
}

// DefineSymbol installs a symbol, recording an undo action. Returns an error
// if name is already bound (spec.md's Redeclaration error taxonomy entry),
// unless replace is true, in which case the existing binding is overwritten
// without comparing the two types (the parser passes true for a typedef
// redeclaration, which C permits when the types are identical).
func (s *Scope) DefineSymbol(sym *Symbol, replace bool) error {
	if old, exists := s.symbols[sym.Name]; exists && !replace {
		return &RedeclarationError{Name: sym.Name, Kind: "symbol"}
	} else if exists {
		prev := old
		s.symbols[sym.Name] = sym
		s.undo = append(s.undo, func() { s.symbols[sym.Name] = prev })
		return nil
	}
	s.symbols[sym.Name] = sym
	name := sym.Name
	s.undo = append(s.undo, func() { delete(s.symbols, name) })
	return nil
}

// DefineTag installs a tag binding. An INCOMPLETE_TAG forward declaration
// may be installed first and later completed in place (ctypes.CompleteTag
// rewrites the *ctypes.Type itself, so the tag table entry need not change).
func (s *Scope) DefineTag(name string, tag *Tag) error {
	if _, exists := s.tags[name]; exists {
		return &RedeclarationError{Name: name, Kind: "tag"}
	}
	s.tags[name] = tag
	s.undo = append(s.undo, func() { delete(s.tags, name) })
	return nil
}

// RedeclarationError is the symtab-level cause behind spec.md's
// `Redeclaration` error taxonomy entry.
type RedeclarationError struct {
	Name string
	Kind string // "symbol" or "tag"
}

func (e *RedeclarationError) Error() string {
	return "goffi: redeclaration of " + e.Kind + " " + e.Name
}
