package val

// promote widens the numeric tags for the purposes of
// C's "usual arithmetic conversions", simulated in-place per spec.md §4.1.
// Only the kinds Val actually carries (i64/u64/double) are distinguished;
// I32/U32/F32 promote to the 64-bit tag of the same signedness/float-ness
// before any binary operator runs, matching integer promotion.
func promote(v Val) Val {
	switch v.Tag {
	case I32:
		return Val{Tag: I64, I64: v.I64}
	case U32:
		return Val{Tag: U64, U64: v.U64}
	case F32:
		return Val{Tag: F64, F64: v.F64}
	default:
		return v
	}
}

// usualArith applies C's usual arithmetic conversions to a pair of operands:
// if either is floating point, both become double; else if either is
// unsigned, both become unsigned (spec.md §4.1 "sign flipping on mixed-sign
// comparison").
func usualArith(a, b Val) (Val, Val, bool /*float*/, bool /*unsigned*/) {
	a, b = promote(a), promote(b)
	if a.IsFloat() || b.IsFloat() {
		return Val{Tag: F64, F64: a.AsF64()}, Val{Tag: F64, F64: b.AsF64()}, true, false
	}
	if a.IsUnsigned() || b.IsUnsigned() {
		return Val{Tag: U64, U64: uint64(a.AsI64())}, Val{Tag: U64, U64: uint64(b.AsI64())}, false, true
	}
	return a, b, false, false
}

// BinOp is a constant-expression binary operator.
type BinOp uint8

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	LogAnd
	LogOr
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

// Eval evaluates a constant-expression binary operator over a and b, per
// spec.md §4.1. Division and modulo by zero produce Error rather than
// trapping, matching the source's behavior.
func Eval(op BinOp, a, b Val) Val {
	if IsError(a) || IsError(b) {
		return Error
	}

	switch op {
	case LogAnd:
		return boolVal(a.AsF64() != 0 && b.AsF64() != 0)
	case LogOr:
		return boolVal(a.AsF64() != 0 || b.AsF64() != 0)
	}

	x, y, isFloat, isUnsigned := usualArith(a, b)

	switch op {
	case Eq, Ne, Lt, Le, Gt, Ge:
		return compare(op, x, y, isFloat, isUnsigned)
	}

	if isFloat {
		switch op {
		case Add:
			return Float(x.F64 + y.F64)
		case Sub:
			return Float(x.F64 - y.F64)
		case Mul:
			return Float(x.F64 * y.F64)
		case Div:
			if y.F64 == 0 {
				return Error
			}
			return Float(x.F64 / y.F64)
		default:
			return Error // bitwise/shift/mod on floats is not a legal constant expression
		}
	}

	if isUnsigned {
		ux, uy := x.U64, y.U64
		switch op {
		case Add:
			return Uint(ux + uy)
		case Sub:
			return Uint(ux - uy)
		case Mul:
			return Uint(ux * uy)
		case Div:
			if uy == 0 {
				return Error
			}
			return Uint(ux / uy)
		case Mod:
			if uy == 0 {
				return Error
			}
			return Uint(ux % uy)
		case BitAnd:
			return Uint(ux & uy)
		case BitOr:
			return Uint(ux | uy)
		case BitXor:
			return Uint(ux ^ uy)
		case Shl:
			return Uint(ux << uy)
		case Shr:
			return Uint(ux >> uy)
		}
	}

	ix, iy := x.I64, y.I64
	switch op {
	case Add:
		return Int(ix + iy)
	case Sub:
		return Int(ix - iy)
	case Mul:
		return Int(ix * iy)
	case Div:
		if iy == 0 {
			return Error
		}
		return Int(ix / iy)
	case Mod:
		if iy == 0 {
			return Error
		}
		return Int(ix % iy)
	case BitAnd:
		return Int(ix & iy)
	case BitOr:
		return Int(ix | iy)
	case BitXor:
		return Int(ix ^ iy)
	case Shl:
		return Int(ix << iy)
	case Shr:
		return Int(ix >> iy)
	}
	return Error
}

func compare(op BinOp, x, y Val, isFloat, isUnsigned bool) Val {
	var lt, eq bool
	switch {
	case isFloat:
		lt, eq = x.F64 < y.F64, x.F64 == y.F64
	case isUnsigned:
		lt, eq = x.U64 < y.U64, x.U64 == y.U64
	default:
		lt, eq = x.I64 < y.I64, x.I64 == y.I64
	}
	switch op {
	case Eq:
		return boolVal(eq)
	case Ne:
		return boolVal(!eq)
	case Lt:
		return boolVal(lt)
	case Le:
		return boolVal(lt || eq)
	case Gt:
		return boolVal(!lt && !eq)
	case Ge:
		return boolVal(!lt)
	}
	return Error
}

func boolVal(b bool) Val {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Neg implements unary minus.
func Neg(v Val) Val {
	if IsError(v) {
		return Error
	}
	v = promote(v)
	switch {
	case v.IsFloat():
		return Float(-v.F64)
	case v.IsUnsigned():
		return Uint(-v.U64)
	default:
		return Int(-v.I64)
	}
}

// Not implements bitwise complement; illegal on floats.
func Not(v Val) Val {
	if IsError(v) || v.IsFloat() {
		return Error
	}
	v = promote(v)
	if v.IsUnsigned() {
		return Uint(^v.U64)
	}
	return Int(^v.I64)
}

// LogNot implements logical negation (`!`).
func LogNot(v Val) Val {
	if IsError(v) {
		return Error
	}
	return boolVal(v.AsF64() == 0)
}
