package biff

import (
	"fmt"
	"math"

	"golang.org/x/text/encoding"

	"github.com/yamitzky/msbin-go/lebin"
)

// Record is a decoded BIFF record.
type Record interface {
	Sid() uint16
}

// CellRecord is a record that sits at one cell of a sheet.
type CellRecord interface {
	Record
	Cell() (row, col int)
}

// Position is the cell address shared by cell records.
type Position struct {
	Row int
	Col int
	XF  uint16
}

// Cell returns the zero-based row and column.
func (p Position) Cell() (int, int) { return p.Row, p.Col }

// BOF starts a workbook globals or sheet substream.
type BOF struct {
	Version    int
	StreamType uint16
	Build      uint16
	Year       uint16
}

// EOF ends a substream.
type EOF struct{}

// Row describes one row of a sheet.
type Row struct {
	Row      int
	FirstCol int
	// LastCol is one past the last used column.
	LastCol int
	Height  uint16
}

// Dimensions holds the used range of a sheet. The last row and column are
// exclusive.
type Dimensions struct {
	FirstRow, LastRow int
	FirstCol, LastCol int
}

// Number is a floating point cell.
type Number struct {
	Position
	Value float64
}

// RK is a number cell stored in the compressed RK form.
type RK struct {
	Position
	Value float64
}

// RKCell is one entry of a MulRK record.
type RKCell struct {
	XF    uint16
	Value float64
}

// MulRK holds a run of RK cells on one row.
type MulRK struct {
	Row      int
	FirstCol int
	LastCol  int
	Cells    []RKCell
}

// Expand returns the run as single-cell Number records.
func (m *MulRK) Expand() []*Number {
	out := make([]*Number, len(m.Cells))
	for i, c := range m.Cells {
		out[i] = &Number{Position: Position{Row: m.Row, Col: m.FirstCol + i, XF: c.XF}, Value: c.Value}
	}
	return out
}

// MulBlank holds a run of formatted empty cells on one row.
type MulBlank struct {
	Row      int
	FirstCol int
	LastCol  int
	XFs      []uint16
}

// Expand returns the run as single-cell Blank records.
func (m *MulBlank) Expand() []*Blank {
	out := make([]*Blank, len(m.XFs))
	for i, xf := range m.XFs {
		out[i] = &Blank{Position: Position{Row: m.Row, Col: m.FirstCol + i, XF: xf}}
	}
	return out
}

// Blank is a formatted empty cell.
type Blank struct {
	Position
}

// Label is a text cell with inline text.
type Label struct {
	Position
	Value string
}

// LabelSST is a text cell whose text is in the shared string table.
type LabelSST struct {
	Position
	SSTIndex uint32
}

// BoolErr is a boolean or error constant cell.
type BoolErr struct {
	Position
	Value   uint8
	IsError bool
}

// FormulaResultKind tells which field of a Formula holds its cached result.
type FormulaResultKind uint8

const (
	ResultNumber FormulaResultKind = iota
	// ResultString results are stored in the STRING record that follows.
	ResultString
	ResultBool
	ResultError
	ResultEmpty
)

// Formula is a formula cell with its cached result and RPN token bytes.
type Formula struct {
	Position
	Kind   FormulaResultKind
	Number float64
	Bool   bool
	Error  uint8
	Flags  uint16
	Tokens []byte
	// Extra holds the data that follows the tokens, such as array constants.
	Extra []byte
}

// Shared reports whether the formula refers to a SHRFMLA record.
func (f *Formula) Shared() bool { return f.Flags&0x0008 != 0 }

// String holds the string result of the preceding formula.
type String struct {
	Value string
}

// SharedFormula holds tokens shared by a block of formula cells.
type SharedFormula struct {
	FirstRow, LastRow int
	FirstCol, LastCol int
	Uses              uint8
	Tokens            []byte
	Extra             []byte
}

// Array holds the tokens of an array formula range.
type Array struct {
	FirstRow, LastRow int
	FirstCol, LastCol int
	Flags             uint16
	Tokens            []byte
	Extra             []byte
}

// Note is a cell comment anchor.
type Note struct {
	Row, Col int
	Flags    uint16
	ObjectID uint16
	Author   string
}

// Cell returns the commented cell.
func (n *Note) Cell() (int, int) { return n.Row, n.Col }

// SST is the shared string table.
type SST struct {
	Total   uint32
	Strings []string
}

// Codepage names the 8-bit text encoding of the workbook.
type Codepage struct {
	Codepage int
}

// Datemode selects the 1900 (0) or 1904 (1) date system.
type Datemode struct {
	Mode int
}

// Unknown is a record this package does not decode.
type Unknown struct {
	Type      uint16
	Data      []byte
	Continues [][]byte
}

func (*BOF) Sid() uint16           { return SidBOF }
func (*EOF) Sid() uint16           { return SidEOF }
func (*Row) Sid() uint16           { return SidRow }
func (*Dimensions) Sid() uint16    { return SidDimensions }
func (*Number) Sid() uint16        { return SidNumber }
func (*RK) Sid() uint16            { return SidRK }
func (*MulRK) Sid() uint16         { return SidMulRK }
func (*MulBlank) Sid() uint16      { return SidMulBlank }
func (*Blank) Sid() uint16         { return SidBlank }
func (*Label) Sid() uint16         { return SidLabel }
func (*LabelSST) Sid() uint16      { return SidLabelSST }
func (*BoolErr) Sid() uint16       { return SidBoolErr }
func (*Formula) Sid() uint16       { return SidFormula }
func (*String) Sid() uint16        { return SidString }
func (*SharedFormula) Sid() uint16 { return SidShrFmla }
func (*Array) Sid() uint16         { return SidArray }
func (*Note) Sid() uint16          { return SidNote }
func (*SST) Sid() uint16           { return SidSST }
func (*Codepage) Sid() uint16      { return SidCodepage }
func (*Datemode) Sid() uint16      { return SidDatemode }
func (u *Unknown) Sid() uint16     { return u.Type }

// DecodeRK converts an RK value: bit 1 selects a 30-bit integer over the
// top 30 bits of a double, and bit 0 divides the result by 100.
func DecodeRK(rk uint32) float64 {
	var v float64
	if rk&0x02 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x01 != 0 {
		v /= 100
	}
	return v
}

// Decoder turns raw records into typed ones. It tracks the BIFF version
// from BOF records and the text encoding from CODEPAGE. The zero value
// assumes BIFF8.
type Decoder struct {
	Version  int
	Encoding encoding.Encoding
}

// Decode decodes raw with a fresh BIFF8 Decoder.
func Decode(raw *RawRecord) (Record, error) {
	var d Decoder
	return d.Decode(raw)
}

func (d *Decoder) biff8() bool { return d.Version == 0 || d.Version >= 80 }

// Decode converts one raw record. Records it does not model come back as
// *Unknown with the data intact.
func (d *Decoder) Decode(raw *RawRecord) (Record, error) {
	rec, err := d.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s record at offset %d: %w", RecordName(raw.Sid), raw.Offset, err)
	}
	return rec, nil
}

func (d *Decoder) decode(raw *RawRecord) (Record, error) {
	p := raw.Data
	switch raw.Sid {
	case SidBOF, 0x0409, 0x0209, 0x0009:
		v, err := Version(raw.Sid, p)
		if err != nil {
			return nil, err
		}
		d.Version = v
		b := &BOF{Version: v}
		b.StreamType, _ = lebin.Uint16(p, 2)
		b.Build, _ = lebin.Uint16(p, 4)
		b.Year, _ = lebin.Uint16(p, 6)
		return b, nil
	case SidEOF:
		return &EOF{}, nil
	case SidCodepage:
		cp, err := lebin.Uint16(p, 0)
		if err != nil {
			return nil, err
		}
		d.Encoding = EncodingFromCodepage(int(cp))
		return &Codepage{Codepage: int(cp)}, nil
	case SidDatemode:
		m, err := lebin.Uint16(p, 0)
		return &Datemode{Mode: int(m)}, err
	case SidRow:
		return decodeRow(p)
	case SidDimensions:
		return d.decodeDimensions(p)
	case SidNumber:
		pos, c, err := decodePosition(p, 14)
		if err != nil {
			return nil, err
		}
		v, _ := c.F64()
		return &Number{Position: pos, Value: v}, nil
	case SidRK:
		pos, c, err := decodePosition(p, 10)
		if err != nil {
			return nil, err
		}
		rk, _ := c.U32()
		return &RK{Position: pos, Value: DecodeRK(rk)}, nil
	case SidMulRK:
		return decodeMulRK(p)
	case SidMulBlank:
		return decodeMulBlank(p)
	case SidBlank:
		pos, _, err := decodePosition(p, 6)
		return &Blank{Position: pos}, err
	case SidLabel:
		pos, _, err := decodePosition(p, 8)
		if err != nil {
			return nil, err
		}
		var s string
		if d.biff8() {
			s, err = UnpackUnicode(p, 6, 2)
		} else {
			s, err = UnpackString(p, 6, d.Encoding, 2)
		}
		return &Label{Position: pos, Value: s}, err
	case SidLabelSST:
		pos, c, err := decodePosition(p, 10)
		if err != nil {
			return nil, err
		}
		idx, _ := c.U32()
		return &LabelSST{Position: pos, SSTIndex: idx}, nil
	case SidBoolErr:
		pos, c, err := decodePosition(p, 8)
		if err != nil {
			return nil, err
		}
		v, _ := c.U8()
		isErr, _ := c.U8()
		return &BoolErr{Position: pos, Value: v, IsError: isErr != 0}, nil
	case SidFormula:
		return decodeFormula(p)
	case SidString:
		var s string
		var err error
		if d.biff8() {
			s, err = UnpackUnicode(p, 0, 2)
		} else {
			s, err = UnpackString(p, 0, d.Encoding, 2)
		}
		return &String{Value: s}, err
	case SidShrFmla:
		return decodeSharedFormula(p)
	case SidArray:
		return decodeArray(p)
	case SidNote:
		return d.decodeNote(p)
	case SidSST:
		return decodeSST(p, raw.Continues)
	}
	return &Unknown{Type: raw.Sid, Data: raw.Data, Continues: raw.Continues}, nil
}

func decodePosition(p []byte, size int) (Position, *lebin.Cursor, error) {
	if err := lebin.Check(p, 0, size); err != nil {
		return Position{}, nil, err
	}
	c := lebin.NewCursor(p, 0)
	row, _ := c.U16()
	col, _ := c.U16()
	xf, _ := c.U16()
	return Position{Row: int(row), Col: int(col), XF: xf}, c, nil
}

func decodeRow(p []byte) (Record, error) {
	if err := lebin.Check(p, 0, 8); err != nil {
		return nil, err
	}
	c := lebin.NewCursor(p, 0)
	row, _ := c.U16()
	first, _ := c.U16()
	last, _ := c.U16()
	height, _ := c.U16()
	return &Row{Row: int(row), FirstCol: int(first), LastCol: int(last), Height: height}, nil
}

func (d *Decoder) decodeDimensions(p []byte) (Record, error) {
	c := lebin.NewCursor(p, 0)
	var dim Dimensions
	if d.biff8() {
		if err := lebin.Check(p, 0, 12); err != nil {
			return nil, err
		}
		fr, _ := c.U32()
		lr, _ := c.U32()
		dim.FirstRow, dim.LastRow = int(fr), int(lr)
	} else {
		if err := lebin.Check(p, 0, 8); err != nil {
			return nil, err
		}
		fr, _ := c.U16()
		lr, _ := c.U16()
		dim.FirstRow, dim.LastRow = int(fr), int(lr)
	}
	fc, _ := c.U16()
	lc, _ := c.U16()
	dim.FirstCol, dim.LastCol = int(fc), int(lc)
	return &dim, nil
}

func decodeMulRK(p []byte) (Record, error) {
	if len(p) < 6 || (len(p)-6)%6 != 0 {
		return nil, fmt.Errorf("MULRK data length %d is not 6 + 6n", len(p))
	}
	c := lebin.NewCursor(p, 0)
	row, _ := c.U16()
	first, _ := c.U16()
	n := (len(p) - 6) / 6
	m := &MulRK{Row: int(row), FirstCol: int(first), Cells: make([]RKCell, n)}
	for i := range m.Cells {
		xf, _ := c.U16()
		rk, _ := c.U32()
		m.Cells[i] = RKCell{XF: xf, Value: DecodeRK(rk)}
	}
	last, _ := c.U16()
	m.LastCol = int(last)
	if m.LastCol != m.FirstCol+n-1 {
		return nil, fmt.Errorf("MULRK columns %d..%d do not match %d cells", m.FirstCol, m.LastCol, n)
	}
	return m, nil
}

func decodeMulBlank(p []byte) (Record, error) {
	if len(p) < 6 || len(p)%2 != 0 {
		return nil, fmt.Errorf("MULBLANK data length %d is not 6 + 2n", len(p))
	}
	c := lebin.NewCursor(p, 0)
	row, _ := c.U16()
	first, _ := c.U16()
	n := (len(p) - 6) / 2
	m := &MulBlank{Row: int(row), FirstCol: int(first), XFs: make([]uint16, n)}
	for i := range m.XFs {
		m.XFs[i], _ = c.U16()
	}
	last, _ := c.U16()
	m.LastCol = int(last)
	if m.LastCol != m.FirstCol+n-1 {
		return nil, fmt.Errorf("MULBLANK columns %d..%d do not match %d cells", m.FirstCol, m.LastCol, n)
	}
	return m, nil
}

// splitTokens reads a cce-byte token array at c and returns it with the
// trailing extra data.
func splitTokens(p []byte, c *lebin.Cursor) ([]byte, []byte, error) {
	cce, err := c.U16()
	if err != nil {
		return nil, nil, err
	}
	tokens, err := c.Bytes(int(cce))
	if err != nil {
		return nil, nil, err
	}
	return tokens, p[c.Pos():], nil
}

func decodeFormula(p []byte) (Record, error) {
	pos, c, err := decodePosition(p, 22)
	if err != nil {
		return nil, err
	}
	res, _ := c.Bytes(8)
	f := &Formula{Position: pos}
	f.Flags, _ = c.U16()
	_ = c.Skip(4)
	if f.Tokens, f.Extra, err = splitTokens(p, c); err != nil {
		return nil, err
	}
	if res[6] == 0xFF && res[7] == 0xFF {
		switch res[0] {
		case 0:
			f.Kind = ResultString
		case 1:
			f.Kind = ResultBool
			f.Bool = res[2] != 0
		case 2:
			f.Kind = ResultError
			f.Error = res[2]
		case 3:
			f.Kind = ResultEmpty
		default:
			return nil, fmt.Errorf("unknown formula result type %d", res[0])
		}
		return f, nil
	}
	f.Number, _ = lebin.Float64(res, 0)
	return f, nil
}

func decodeSharedFormula(p []byte) (Record, error) {
	if err := lebin.Check(p, 0, 10); err != nil {
		return nil, err
	}
	c := lebin.NewCursor(p, 0)
	fr, _ := c.U16()
	lr, _ := c.U16()
	fc, _ := c.U8()
	lc, _ := c.U8()
	_ = c.Skip(1)
	uses, _ := c.U8()
	s := &SharedFormula{FirstRow: int(fr), LastRow: int(lr), FirstCol: int(fc), LastCol: int(lc), Uses: uses}
	var err error
	s.Tokens, s.Extra, err = splitTokens(p, c)
	return s, err
}

func decodeArray(p []byte) (Record, error) {
	if err := lebin.Check(p, 0, 14); err != nil {
		return nil, err
	}
	c := lebin.NewCursor(p, 0)
	fr, _ := c.U16()
	lr, _ := c.U16()
	fc, _ := c.U8()
	lc, _ := c.U8()
	a := &Array{FirstRow: int(fr), LastRow: int(lr), FirstCol: int(fc), LastCol: int(lc)}
	a.Flags, _ = c.U16()
	_ = c.Skip(4)
	var err error
	a.Tokens, a.Extra, err = splitTokens(p, c)
	return a, err
}

func (d *Decoder) decodeNote(p []byte) (Record, error) {
	if err := lebin.Check(p, 0, 8); err != nil {
		return nil, err
	}
	c := lebin.NewCursor(p, 0)
	row, _ := c.U16()
	col, _ := c.U16()
	n := &Note{Row: int(row), Col: int(col)}
	if !d.biff8() {
		return n, nil
	}
	n.Flags, _ = c.U16()
	n.ObjectID, _ = c.U16()
	var err error
	n.Author, err = UnpackUnicode(p, 8, 2)
	return n, err
}
