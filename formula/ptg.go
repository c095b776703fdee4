package formula

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/yamitzky/msbin-go/lebin"
)

// BIFF8 parsed-expression token codes, in their reference class form.
const (
	tExp       = 0x01
	tTbl       = 0x02
	tAdd       = 0x03
	tSub       = 0x04
	tMul       = 0x05
	tDiv       = 0x06
	tPower     = 0x07
	tConcat    = 0x08
	tLT        = 0x09
	tLE        = 0x0A
	tEQ        = 0x0B
	tGE        = 0x0C
	tGT        = 0x0D
	tNE        = 0x0E
	tIsect     = 0x0F
	tUnion     = 0x10
	tRange     = 0x11
	tUplus     = 0x12
	tUminus    = 0x13
	tPercent   = 0x14
	tParen     = 0x15
	tMissArg   = 0x16
	tStr       = 0x17
	tExtended  = 0x18
	tAttr      = 0x19
	tErr       = 0x1C
	tBool      = 0x1D
	tInt       = 0x1E
	tNum       = 0x1F
	tArray     = 0x20
	tFunc      = 0x21
	tFuncVar   = 0x22
	tName      = 0x23
	tRef       = 0x24
	tArea      = 0x25
	tMemArea   = 0x26
	tMemErr    = 0x27
	tMemNoMem  = 0x28
	tMemFunc   = 0x29
	tRefErr    = 0x2A
	tAreaErr   = 0x2B
	tRefN      = 0x2C
	tAreaN     = 0x2D
	tNameX     = 0x39
	tRef3d     = 0x3A
	tArea3d    = 0x3B
	tRefErr3d  = 0x3C
	tAreaErr3d = 0x3D
)

// tAttr option bits.
const (
	attrSemi   = 0x01
	attrIf     = 0x02
	attrChoose = 0x04
	attrSkip   = 0x08
	attrSum    = 0x10
	attrSpace  = 0x40
)

// ptgSize is the full size of each fixed-size token, including the token
// byte. Zero marks tokens that are variable-sized or not handled here.
var ptgSize = [0x40]int{
	tExp: 5, tTbl: 5,
	tAdd: 1, tSub: 1, tMul: 1, tDiv: 1, tPower: 1, tConcat: 1,
	tLT: 1, tLE: 1, tEQ: 1, tGE: 1, tGT: 1, tNE: 1,
	tIsect: 1, tUnion: 1, tRange: 1,
	tUplus: 1, tUminus: 1, tPercent: 1, tParen: 1, tMissArg: 1,
	tErr: 2, tBool: 2, tInt: 3, tNum: 9, tArray: 8,
	tFunc: 3, tFuncVar: 4, tName: 5, tRef: 5, tArea: 9,
	tMemArea: 7, tMemErr: 7, tMemNoMem: 7, tMemFunc: 3,
	tRefErr: 5, tAreaErr: 9, tRefN: 5, tAreaN: 9,
	tNameX: 7, tRef3d: 7, tArea3d: 11, tRefErr3d: 7, tAreaErr3d: 11,
}

var operatorPtgs = map[byte]Operator{
	tAdd: OpAdd, tSub: OpSub, tMul: OpMul, tDiv: OpDiv, tPower: OpPow, tConcat: OpConcat,
	tLT: OpLT, tLE: OpLE, tEQ: OpEQ, tGE: OpGE, tGT: OpGT, tNE: OpNE,
	tUplus: OpUPlus, tUminus: OpUMinus, tPercent: OpPercent,
}

// PtgError reports a token DecodePtgs could not handle.
type PtgError struct {
	Offset int
	Ptg    byte
	Err    error
}

func (e *PtgError) Error() string {
	return fmt.Sprintf("ptg 0x%02x at offset %d: %v", e.Ptg, e.Offset, e.Err)
}

func (e *PtgError) Unwrap() error { return e.Err }

var errUnknownPtg = errors.New("unknown token")

// adjustRef decodes a BIFF8 row and column pair. Bits 15 and 14 of the
// column word flag a relative row and column. In shared formulas
// (reldelta) relative components are signed offsets.
func adjustRef(rowval, colval uint16, reldelta bool) Ref {
	r := Ref{
		Row:    int(rowval),
		Col:    int(colval & 0xff),
		RowRel: colval&0x8000 != 0,
		ColRel: colval&0x4000 != 0,
		Offset: reldelta,
	}
	if reldelta {
		if r.RowRel && r.Row >= 32768 {
			r.Row -= 65536
		}
		if r.ColRel && r.Col >= 128 {
			r.Col -= 256
		}
	}
	return r
}

// DecodePtgs converts BIFF8 formula bytes (the rgce of a FORMULA, SHRFMLA
// or ARRAY record) into RPN tokens. tRefN and tAreaN produce Refs relative
// to the cell the formula is evaluated in.
func DecodePtgs(data []byte) ([]Token, error) {
	var tokens []Token
	pos := 0
	for pos < len(data) {
		op := data[pos]
		base := op
		if base >= 0x40 {
			base = base&0x1F | 0x20
		}
		fail := func(err error) ([]Token, error) {
			return tokens, &PtgError{Offset: pos, Ptg: op, Err: err}
		}

		size := ptgSize[base]
		if size == 0 {
			switch base {
			case tStr, tAttr:
			default:
				return fail(errUnknownPtg)
			}
		} else if err := lebin.Check(data, pos, size); err != nil {
			return fail(err)
		}
		u16 := func(off int) uint16 {
			v, _ := lebin.Uint16(data, pos+off)
			return v
		}

		switch base {
		case tExp:
			tokens = append(tokens, Token{Kind: TokExp, Ref: Ref{Row: int(u16(1)), Col: int(u16(3))}})
		case tParen:
			tokens = append(tokens, Token{Kind: TokParen})
		case tMissArg:
			tokens = append(tokens, MissingToken())
		case tErr:
			tokens = append(tokens, ErrorToken(ErrorCode(data[pos+1])))
		case tBool:
			tokens = append(tokens, BoolToken(data[pos+1] != 0))
		case tInt:
			tokens = append(tokens, NumberToken(float64(u16(1))))
		case tNum:
			f, _ := lebin.Float64(data, pos+1)
			tokens = append(tokens, NumberToken(f))
		case tStr:
			s, n, err := ptgString(data, pos+1)
			if err != nil {
				return fail(err)
			}
			tokens = append(tokens, TextToken(s))
			size = 1 + n
		case tAttr:
			n, tok, err := ptgAttr(data, pos)
			if err != nil {
				return fail(err)
			}
			if tok != nil {
				tokens = append(tokens, *tok)
			}
			size = n
		case tFunc:
			idx := int(u16(1))
			f, ok := FunctionByIndex(idx)
			if !ok {
				return fail(fmt.Errorf("%w: index %d", ErrUnknownFunction, idx))
			}
			tokens = append(tokens, Token{Kind: TokFunc, Func: idx, Name: f.Name, Argc: f.MinArgs})
		case tFuncVar:
			argc := int(data[pos+1] & 0x7F)
			idx := int(u16(2) & 0x7FFF)
			name := ""
			if f, ok := FunctionByIndex(idx); ok {
				name = f.Name
			}
			tokens = append(tokens, Token{Kind: TokFunc, Func: idx, Name: name, Argc: argc})
		case tRef, tRefN:
			tokens = append(tokens, Token{Kind: TokRef, Ref: adjustRef(u16(1), u16(3), base == tRefN)})
		case tArea, tAreaN:
			rel := base == tAreaN
			tokens = append(tokens, Token{Kind: TokArea, Area: [2]Ref{
				adjustRef(u16(1), u16(5), rel),
				adjustRef(u16(3), u16(7), rel),
			}})
		case tMemArea, tMemErr, tMemNoMem, tMemFunc:
			// The subexpression that follows computes the reference itself.
		case tRefErr, tAreaErr, tRefErr3d, tAreaErr3d:
			tokens = append(tokens, ErrorToken(ErrRef))
		default:
			if o, ok := operatorPtgs[base]; ok {
				tokens = append(tokens, OpToken(o))
				break
			}
			return fail(ErrUnsupportedToken)
		}
		pos += size
	}
	return tokens, nil
}

// ptgString decodes the string of a tStr token: an 8-bit character count
// and an option byte whose low bit selects UTF-16LE over Latin-1.
func ptgString(data []byte, pos int) (string, int, error) {
	if err := lebin.Check(data, pos, 2); err != nil {
		return "", 0, err
	}
	nchars := int(data[pos])
	wide := data[pos+1]&0x01 != 0
	nbytes := nchars
	if wide {
		nbytes *= 2
	}
	raw, err := lebin.Slice(data, pos+2, nbytes)
	if err != nil {
		return "", 0, err
	}
	var out []byte
	if wide {
		out, err = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	} else {
		out, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
	}
	if err != nil {
		return "", 0, err
	}
	return string(out), 2 + nbytes, nil
}

// ptgAttr returns the size of a tAttr token and, for tAttrSum, the SUM call
// it stands for. The other attributes are evaluation hints.
func ptgAttr(data []byte, pos int) (int, *Token, error) {
	if err := lebin.Check(data, pos, 4); err != nil {
		return 0, nil, err
	}
	opts := data[pos+1]
	switch {
	case opts&attrSum != 0:
		tok := Token{Kind: TokFunc, Func: 4, Name: "SUM", Argc: 1}
		return 4, &tok, nil
	case opts&attrChoose != 0:
		nc, _ := lebin.Uint16(data, pos+2)
		n := 4 + 2*(int(nc)+1)
		if err := lebin.Check(data, pos, n); err != nil {
			return 0, nil, err
		}
		return n, nil, nil
	}
	return 4, nil, nil
}
