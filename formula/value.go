// Package formula evaluates spreadsheet formulas over a grid of cell values.
//
// Formulas arrive as RPN token lists, either decoded from BIFF8 formula
// bytes (DecodePtgs) or parsed from formula text (Parse). Spreadsheet
// errors such as #DIV/0! are values, not Go errors: Evaluate returns a Go
// error only when the token list itself is malformed.
package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrorCode is a spreadsheet error value, numbered as in BIFF.
type ErrorCode uint8

const (
	ErrNull  ErrorCode = 0x00 // Intersection of two cell ranges is empty
	ErrDiv0  ErrorCode = 0x07 // Division by zero
	ErrValue ErrorCode = 0x0F // Wrong type of operand
	ErrRef   ErrorCode = 0x17 // Illegal or deleted cell reference
	ErrName  ErrorCode = 0x1D // Wrong function or range name
	ErrNum   ErrorCode = 0x24 // Value range overflow
	ErrNA    ErrorCode = 0x2A // Argument or function not available
)

var errorText = map[ErrorCode]string{
	ErrNull:  "#NULL!",
	ErrDiv0:  "#DIV/0!",
	ErrValue: "#VALUE!",
	ErrRef:   "#REF!",
	ErrName:  "#NAME?",
	ErrNum:   "#NUM!",
	ErrNA:    "#N/A",
}

func (c ErrorCode) String() string {
	if s, ok := errorText[c]; ok {
		return s
	}
	return fmt.Sprintf("#ERR(0x%02x)", uint8(c))
}

// ErrorCodeFromText returns the code for an error literal such as "#N/A".
func ErrorCodeFromText(s string) (ErrorCode, bool) {
	for c, text := range errorText {
		if strings.EqualFold(text, s) {
			return c, true
		}
	}
	return 0, false
}

// Kind tells which field of a CellValue is set.
type Kind uint8

const (
	KindBlank Kind = iota
	KindNumber
	KindText
	KindBool
	KindError
)

var kindNames = [...]string{"blank", "number", "text", "bool", "error"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// CellValue is the value of one cell or of one evaluation. The zero value
// is a blank cell.
type CellValue struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
	Err  ErrorCode
}

// Blank is the empty cell.
var Blank = CellValue{}

// NumberValue returns a number. NaN and infinities become #NUM!.
func NumberValue(f float64) CellValue {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ErrorValue(ErrNum)
	}
	return CellValue{Kind: KindNumber, Num: f}
}

// TextValue returns a text value.
func TextValue(s string) CellValue { return CellValue{Kind: KindText, Str: s} }

// BoolValue returns a logical value.
func BoolValue(b bool) CellValue { return CellValue{Kind: KindBool, Bool: b} }

// ErrorValue returns an error value.
func ErrorValue(c ErrorCode) CellValue { return CellValue{Kind: KindError, Err: c} }

// IsError reports whether v is an error value.
func (v CellValue) IsError() bool { return v.Kind == KindError }

// String renders v the way a cell displays it with the General format.
func (v CellValue) String() string {
	switch v.Kind {
	case KindNumber:
		return Num2Str(v.Num)
	case KindText:
		return v.Str
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case KindError:
		return v.Err.String()
	}
	return ""
}

// Num2Str converts a number to text, emulating the General number format
// for values that fit in 15 significant digits.
func Num2Str(num float64) string {
	if num == math.Trunc(num) && math.Abs(num) < 1e15 {
		return strconv.FormatFloat(num, 'f', -1, 64)
	}
	s := strconv.FormatFloat(num, 'g', 15, 64)
	if strings.ContainsAny(s, "e") {
		return strings.ToUpper(s)
	}
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
