package formula

import (
	"fmt"
	"math"
)

// Operator is a unary or binary formula operator.
type Operator uint8

const (
	OpAdd Operator = iota + 1
	OpSub
	OpMul
	OpDiv
	OpPow
	OpConcat
	OpLT
	OpLE
	OpEQ
	OpGE
	OpGT
	OpNE
	OpUPlus
	OpUMinus
	OpPercent
)

var opNames = map[Operator]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpPow: "^", OpConcat: "&",
	OpLT: "<", OpLE: "<=", OpEQ: "=", OpGE: ">=", OpGT: ">", OpNE: "<>",
	OpUPlus: "u+", OpUMinus: "u-", OpPercent: "%",
}

func (o Operator) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Operator(%d)", uint8(o))
}

// Unary reports whether o takes a single operand.
func (o Operator) Unary() bool { return o >= OpUPlus }

// Apply evaluates a binary operator. Operands are checked left to right
// and the first error value is returned unchanged.
func (o Operator) Apply(a, b CellValue) CellValue {
	if a.IsError() {
		return a
	}
	if b.IsError() {
		return b
	}
	switch o {
	case OpConcat:
		sa, _ := toText(a)
		sb, _ := toText(b)
		return TextValue(sa + sb)
	case OpLT, OpLE, OpEQ, OpGE, OpGT, OpNE:
		return BoolValue(compareOp(o, compare(a, b)))
	}

	x, e := toNumber(a)
	if e != nil {
		return ErrorValue(*e)
	}
	y, e := toNumber(b)
	if e != nil {
		return ErrorValue(*e)
	}
	switch o {
	case OpAdd:
		return NumberValue(x + y)
	case OpSub:
		return NumberValue(x - y)
	case OpMul:
		return NumberValue(x * y)
	case OpDiv:
		if y == 0 {
			return ErrorValue(ErrDiv0)
		}
		return NumberValue(x / y)
	case OpPow:
		return Pow(x, y)
	}
	return ErrorValue(ErrValue)
}

// ApplyUnary evaluates a unary operator.
func (o Operator) ApplyUnary(a CellValue) CellValue {
	if a.IsError() {
		return a
	}
	if o == OpUPlus {
		if a.Kind == KindBlank {
			return NumberValue(0)
		}
		return a
	}
	x, e := toNumber(a)
	if e != nil {
		return ErrorValue(*e)
	}
	switch o {
	case OpUMinus:
		return NumberValue(-x)
	case OpPercent:
		return NumberValue(x / 100)
	}
	return ErrorValue(ErrValue)
}

func compareOp(o Operator, c int) bool {
	switch o {
	case OpLT:
		return c < 0
	case OpLE:
		return c <= 0
	case OpEQ:
		return c == 0
	case OpGE:
		return c >= 0
	case OpGT:
		return c > 0
	}
	return c != 0
}

// Pow raises base to exponent. 0^0 is 1 and 0 to a negative power is
// #DIV/0!. A negative base with a fractional exponent between -1 and 1 is
// treated as an odd root, so (-27)^(1/3) is -3; other results that are not
// real numbers are #NUM!.
func Pow(base, exponent float64) CellValue {
	switch {
	case base == 0 && exponent == 0:
		return NumberValue(1)
	case base == 0 && exponent < 0:
		return ErrorValue(ErrDiv0)
	case base < 0 && math.Abs(exponent) > 0 && math.Abs(exponent) < 1:
		return NumberValue(-math.Pow(-base, exponent))
	}
	return NumberValue(math.Pow(base, exponent))
}
