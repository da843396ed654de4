package val

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDivisionByZeroIsError(t *testing.T) {
	assert.True(t, IsError(Eval(Div, Int(10), Int(0))))
	assert.True(t, IsError(Eval(Mod, Int(10), Int(0))))
	assert.True(t, IsError(Eval(Div, Uint(10), Uint(0))))
}

func TestFloatDivisionByZeroIsError(t *testing.T) {
	// Division by zero produces Error for floating-point operands too, not
	// the IEEE-754 +/-Inf.
	v := Eval(Div, Float(1), Float(0))
	assert.True(t, IsError(v))
}

func TestSizeofStringLiteral(t *testing.T) {
	v := SizeofString(String("abc"))
	assert.Equal(t, Uint(4), v)
}

func TestSizeofStringLiteralWithBackslashIsError(t *testing.T) {
	v := SizeofString(String(`a\n`))
	assert.True(t, IsError(v))
}

func TestMixedSignComparisonFlipsSign(t *testing.T) {
	// -1 compared as signed is less than 1u; compared after the usual
	// arithmetic conversions (both become unsigned), -1 becomes a huge
	// unsigned value and so compares greater.
	v := Eval(Gt, Int(-1), Uint(1))
	assert.Equal(t, Int(1), v)
}

func TestArithmeticPromotion(t *testing.T) {
	assert.Equal(t, Int(7), Eval(Add, Int(3), Int(4)))
	assert.Equal(t, Uint(7), Eval(Add, Int(3), Uint(4)))
	assert.Equal(t, Float(7), Eval(Add, Int(3), Float(4)))
}

func TestErrorPropagatesThroughOps(t *testing.T) {
	assert.True(t, IsError(Eval(Add, Error, Int(1))))
	assert.True(t, IsError(Neg(Error)))
}
