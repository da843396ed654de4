// Package val implements the Value Model described in spec.md §4.1: a
// tagged numeric/character/string literal value used during
// constant-expression evaluation in the declaration parser.
package val

import "strings"

// Tag is the sum-type discriminant of a Val.
type Tag uint8

const (
	Empty Tag = iota
	ErrorTag
	I32
	I64
	U32
	U64
	F32
	F64
	LongDouble
	CharTag
	StringTag
	NameTag
)

// Val is the tagged union described in spec.md §4.1. Only the fields
// relevant to the active Tag are meaningful.
type Val struct {
	Tag Tag

	I64 int64
	U64 uint64
	F64 float64

	// String/Name: a slice into the original source text. len is stored
	// explicitly (rather than relying on len(Str)) to match the source's
	// (ptr,len) representation, which matters because sizeof a string
	// literal is Len+1 regardless of NUL bytes embedded via later escape
	// decoding elsewhere in the pipeline.
	Str string
	Len int
}

// Error is the distinguished value produced by invalid constant-expression
// operations (spec.md §4.1: division/modulo by zero, sizeof of a literal
// containing a backslash).
var Error = Val{Tag: ErrorTag}

func IsError(v Val) bool { return v.Tag == ErrorTag }

func Int(v int64) Val   { return Val{Tag: I64, I64: v} }
func Uint(v uint64) Val { return Val{Tag: U64, U64: v} }
func Float(v float64) Val {
	return Val{Tag: F64, F64: v}
}
func Char(c byte) Val { return Val{Tag: CharTag, I64: int64(c)} }
func String(s string) Val {
	return Val{Tag: StringTag, Str: s, Len: len(s)}
}
func Name(s string) Val { return Val{Tag: NameTag, Str: s, Len: len(s)} }

// IsFloat reports whether v holds a floating-point value, used to decide
// usual-arithmetic-conversion promotion rules.
func (v Val) IsFloat() bool { return v.Tag == F32 || v.Tag == F64 || v.Tag == LongDouble }

// IsUnsigned reports whether v holds an unsigned integer value.
func (v Val) IsUnsigned() bool { return v.Tag == U32 || v.Tag == U64 }

// AsI64 returns v's value widened to int64, valid only for non-float,
// non-error tags.
func (v Val) AsI64() int64 {
	if v.IsUnsigned() {
		return int64(v.U64)
	}
	return v.I64
}

// AsF64 returns v's value widened to float64.
func (v Val) AsF64() float64 {
	switch {
	case v.IsFloat():
		return v.F64
	case v.IsUnsigned():
		return float64(v.U64)
	default:
		return float64(v.I64)
	}
}

// SizeofString implements spec.md §4.1: "sizeof of a string literal uses
// len+1; if the literal contains a backslash (escape sequences are not
// decoded in Val), the result is Error."
func SizeofString(v Val) Val {
	if v.Tag != StringTag {
		return Error
	}
	if strings.ContainsRune(v.Str, '\\') {
		return Error
	}
	return Uint(uint64(v.Len + 1))
}
