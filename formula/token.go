package formula

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenKind identifies the kind of an RPN token.
type TokenKind uint8

const (
	TokNumber TokenKind = iota + 1
	TokText
	TokBool
	TokError
	TokMissing // omitted function argument
	TokRef
	TokArea
	TokOp
	TokFunc
	TokParen // parentheses kept from the source; no effect on evaluation
	TokExp   // points at a shared or array formula
)

var tokenKindNames = map[TokenKind]string{
	TokNumber: "number", TokText: "text", TokBool: "bool", TokError: "error",
	TokMissing: "missing", TokRef: "ref", TokArea: "area", TokOp: "op",
	TokFunc: "func", TokParen: "paren", TokExp: "exp",
}

func (k TokenKind) String() string {
	if s, ok := tokenKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", uint8(k))
}

// Ref is a cell reference inside a token. When Offset is set, the
// components flagged relative are deltas from the formula's own cell;
// otherwise Row and Col are absolute and the flags only record the $ signs.
type Ref struct {
	Row, Col       int
	RowRel, ColRel bool
	Offset         bool
}

// Resolve returns the zero-based cell the reference names when evaluated
// in the formula at origin.
func (r Ref) Resolve(origin Cell) Cell {
	c := Cell{Row: r.Row, Col: r.Col}
	if r.Offset {
		if r.RowRel {
			c.Row += origin.Row
		}
		if r.ColRel {
			c.Col += origin.Col
		}
	}
	return c
}

func (r Ref) String() string {
	if r.Offset {
		var b strings.Builder
		b.WriteString("R")
		if r.RowRel {
			fmt.Fprintf(&b, "[%d]", r.Row)
		} else {
			fmt.Fprintf(&b, "%d", r.Row+1)
		}
		b.WriteString("C")
		if r.ColRel {
			fmt.Fprintf(&b, "[%d]", r.Col)
		} else {
			fmt.Fprintf(&b, "%d", r.Col+1)
		}
		return b.String()
	}
	s := ""
	if !r.ColRel {
		s = "$"
	}
	s += Colname(r.Col)
	if !r.RowRel {
		s += "$"
	}
	return s + strconv.Itoa(r.Row+1)
}

// Token is one element of an RPN formula. Only the fields that belong to
// Kind are meaningful.
type Token struct {
	Kind TokenKind
	Num  float64
	Str  string
	Bool bool
	Err  ErrorCode
	Ref  Ref
	Area [2]Ref
	Op   Operator
	Func int    // BIFF function index, -1 when only Name is known
	Name string // function name
	Argc int
}

// NumberToken returns a numeric literal.
func NumberToken(f float64) Token { return Token{Kind: TokNumber, Num: f} }

// TextToken returns a string literal.
func TextToken(s string) Token { return Token{Kind: TokText, Str: s} }

// BoolToken returns a logical literal.
func BoolToken(b bool) Token { return Token{Kind: TokBool, Bool: b} }

// ErrorToken returns an error literal.
func ErrorToken(c ErrorCode) Token { return Token{Kind: TokError, Err: c} }

// MissingToken stands for an omitted argument.
func MissingToken() Token { return Token{Kind: TokMissing} }

// OpToken returns an operator.
func OpToken(op Operator) Token { return Token{Kind: TokOp, Op: op} }

// RefToken returns a reference to a zero-based cell, written without $.
func RefToken(row, col int) Token {
	return Token{Kind: TokRef, Ref: Ref{Row: row, Col: col, RowRel: true, ColRel: true}}
}

// AreaToken returns a reference to a zero-based range, written without $.
func AreaToken(r1, c1, r2, c2 int) Token {
	return Token{Kind: TokArea, Area: [2]Ref{
		{Row: r1, Col: c1, RowRel: true, ColRel: true},
		{Row: r2, Col: c2, RowRel: true, ColRel: true},
	}}
}

// FuncToken calls a built-in by name with argc arguments.
func FuncToken(name string, argc int) Token {
	name = strings.ToUpper(name)
	idx := -1
	if f, ok := LookupFunction(name); ok {
		idx = f.Index
	}
	return Token{Kind: TokFunc, Func: idx, Name: name, Argc: argc}
}

func (t Token) String() string {
	switch t.Kind {
	case TokNumber:
		return Num2Str(t.Num)
	case TokText:
		return strconv.Quote(t.Str)
	case TokBool:
		return BoolValue(t.Bool).String()
	case TokError:
		return t.Err.String()
	case TokMissing:
		return "<missing>"
	case TokRef:
		return t.Ref.String()
	case TokArea:
		return t.Area[0].String() + ":" + t.Area[1].String()
	case TokOp:
		return t.Op.String()
	case TokFunc:
		name := t.Name
		if name == "" {
			if f, ok := FunctionByIndex(t.Func); ok {
				name = f.Name
			} else {
				name = fmt.Sprintf("FUNC%d", t.Func)
			}
		}
		return fmt.Sprintf("%s/%d", name, t.Argc)
	case TokParen:
		return "()"
	case TokExp:
		return "EXP " + t.Ref.String()
	}
	return t.Kind.String()
}

// FormatRPN renders tokens separated by spaces.
func FormatRPN(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
