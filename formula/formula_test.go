package formula

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPow(t *testing.T) {
	tests := []struct {
		base, exponent float64
		want           CellValue
	}{
		{0, 0, NumberValue(1)},
		{2, 10, NumberValue(1024)},
		{-2, 3, NumberValue(-8)},
		{-1.00001, 1.1, ErrorValue(ErrNum)},
		{0, -1, ErrorValue(ErrDiv0)},
		{10, 400, ErrorValue(ErrNum)},
	}
	for _, tt := range tests {
		if got := Pow(tt.base, tt.exponent); got != tt.want {
			t.Errorf("Pow(%v, %v) = %v, want %v", tt.base, tt.exponent, got, tt.want)
		}
	}

	got := Pow(-27, 1.0/3)
	require.Equal(t, KindNumber, got.Kind)
	assert.InDelta(t, -3, got.Num, 1e-9)
}

func TestOperatorErrorPropagation(t *testing.T) {
	ref := ErrorValue(ErrRef)
	for _, op := range []Operator{OpAdd, OpSub, OpMul, OpDiv, OpPow, OpConcat, OpLT, OpEQ, OpNE} {
		assert.Equal(t, ref, op.Apply(ref, NumberValue(1)), "%s left", op)
		assert.Equal(t, ref, op.Apply(TextValue("x"), ref), "%s right", op)
		assert.Equal(t, ref, op.Apply(ref, ErrorValue(ErrDiv0)), "%s first error wins", op)
	}
	for _, op := range []Operator{OpUPlus, OpUMinus, OpPercent} {
		assert.Equal(t, ref, op.ApplyUnary(ref), "%s", op)
	}
}

func TestOperators(t *testing.T) {
	tests := []struct {
		op   Operator
		a, b CellValue
		want CellValue
	}{
		{OpAdd, NumberValue(1), BoolValue(true), NumberValue(2)},
		{OpAdd, Blank, NumberValue(3), NumberValue(3)},
		{OpSub, TextValue(" 5 "), NumberValue(2), NumberValue(3)},
		{OpMul, TextValue("abc"), NumberValue(2), ErrorValue(ErrValue)},
		{OpDiv, NumberValue(1), Blank, ErrorValue(ErrDiv0)},
		{OpDiv, NumberValue(1), NumberValue(4), NumberValue(0.25)},
		{OpConcat, TextValue("a"), NumberValue(1.5), TextValue("a1.5")},
		{OpConcat, BoolValue(true), Blank, TextValue("TRUE")},
		{OpLT, NumberValue(1e9), TextValue("a"), BoolValue(true)},
		{OpLT, TextValue("zzz"), BoolValue(false), BoolValue(true)},
		{OpEQ, TextValue("abc"), TextValue("ABC"), BoolValue(true)},
		{OpEQ, Blank, TextValue(""), BoolValue(true)},
		{OpEQ, Blank, NumberValue(0), BoolValue(true)},
		{OpGE, NumberValue(2), NumberValue(2), BoolValue(true)},
		{OpNE, NumberValue(1), TextValue("1"), BoolValue(true)},
	}
	for _, tt := range tests {
		if got := tt.op.Apply(tt.a, tt.b); got != tt.want {
			t.Errorf("%v %s %v = %v, want %v", tt.a, tt.op, tt.b, got, tt.want)
		}
	}

	assert.Equal(t, NumberValue(-2), OpUMinus.ApplyUnary(NumberValue(2)))
	assert.Equal(t, TextValue("x"), OpUPlus.ApplyUnary(TextValue("x")))
	assert.Equal(t, NumberValue(0.5), OpPercent.ApplyUnary(NumberValue(50)))
	assert.Equal(t, ErrorValue(ErrValue), OpUMinus.ApplyUnary(TextValue("x")))
}

func TestAreaEvalAbsoluteValue(t *testing.T) {
	g := GridFromRows(
		[]any{1, 2, 3},
		[]any{4, 5, 6},
	)
	a := NewAreaEval(g, 0, 0, 1, 2)
	assert.Equal(t, 2, a.Height())
	assert.Equal(t, 3, a.Width())

	for _, tt := range []struct{ row, col, want int }{{1, 1, 1}, {2, 3, 6}, {1, 2, 2}, {2, 1, 4}} {
		v, err := a.AbsoluteValue(tt.row, tt.col)
		require.NoError(t, err)
		assert.Equal(t, NumberValue(float64(tt.want)), v, "(%d, %d)", tt.row, tt.col)
	}

	for _, off := range [][2]int{{0, 1}, {1, 0}, {3, 1}, {1, 4}} {
		_, err := a.AbsoluteValue(off[0], off[1])
		assert.ErrorIs(t, err, ErrOffsetOutOfRange)
		var oe *OffsetError
		require.True(t, errors.As(err, &oe))
		assert.Equal(t, off[0], oe.Row)
	}

	// Offsets are relative to the area, not the sheet.
	inner := NewAreaEval(g, 1, 2, 1, 1)
	v, err := inner.AbsoluteValue(1, 2)
	require.NoError(t, err)
	assert.Equal(t, NumberValue(6), v)

	var vals []float64
	for v := range a.Values() {
		vals = append(vals, v.Num)
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, vals)
}

func TestCellNames(t *testing.T) {
	tests := []struct {
		row, col int
		name     string
	}{
		{0, 0, "A1"},
		{5, 7, "H6"},
		{0, 25, "Z1"},
		{9, 26, "AA10"},
		{0, 255, "IV1"},
	}
	for _, tt := range tests {
		if got := CellName(tt.row, tt.col); got != tt.name {
			t.Errorf("CellName(%d, %d) = %q, want %q", tt.row, tt.col, got, tt.name)
		}
		c, err := ParseCellName("$" + tt.name)
		if err != nil || c != (Cell{tt.row, tt.col}) {
			t.Errorf("ParseCellName(%q) = %v, %v", tt.name, c, err)
		}
	}
	_, err := ParseCellName("A0")
	assert.Error(t, err)
}

func TestNum2Str(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3, "3"},
		{-0.5, "-0.5"},
		{1.0 / 3, "0.333333333333333"},
		{0.1 + 0.2, "0.3"},
		{1e20, "1E+20"},
	}
	for _, tt := range tests {
		if got := Num2Str(tt.in); got != tt.want {
			t.Errorf("Num2Str(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumberValueRejectsNaN(t *testing.T) {
	assert.Equal(t, ErrorValue(ErrNum), NumberValue(math.NaN()))
	assert.Equal(t, ErrorValue(ErrNum), NumberValue(math.Inf(-1)))
}

func TestErrorCodes(t *testing.T) {
	for code, text := range errorText {
		got, ok := ErrorCodeFromText(text)
		assert.True(t, ok)
		assert.Equal(t, code, got)
	}
	assert.Equal(t, "#ERR(0x01)", ErrorCode(1).String())
}
