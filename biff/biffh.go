// Package biff reads the record stream of a BIFF (Excel 2.x to 2003)
// workbook or worksheet and synthesizes placeholder records for the rows
// and cells a sparse sheet leaves out.
package biff

import (
	"fmt"

	"github.com/yamitzky/msbin-go/formula"
)

// FormatError reports a BIFF structure that cannot be read.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return e.Message
}

// NewFormatError creates a new FormatError with the given message.
func NewFormatError(format string, args ...any) *FormatError {
	return &FormatError{Message: fmt.Sprintf(format, args...)}
}

// BOF stream types
const (
	StreamWorkbookGlobals   = 0x5
	StreamWorkbookGlobals4W = 0x100
	StreamWorksheet         = 0x10
	StreamChart             = 0x20
	StreamMacroSheet        = 0x40
)

// Record identifiers (sids)
const (
	SidFormula    uint16 = 0x0006
	SidEOF        uint16 = 0x000A
	SidNote       uint16 = 0x001C
	SidDatemode   uint16 = 0x0022
	SidContinue   uint16 = 0x003C
	SidCodepage   uint16 = 0x0042
	SidBoundSheet uint16 = 0x0085
	SidMulRK      uint16 = 0x00BD
	SidMulBlank   uint16 = 0x00BE
	SidDBCell     uint16 = 0x00D7
	SidRString    uint16 = 0x00D6
	SidSST        uint16 = 0x00FC
	SidLabelSST   uint16 = 0x00FD
	SidExtSST     uint16 = 0x00FF
	SidDimensions uint16 = 0x0200
	SidBlank      uint16 = 0x0201
	SidNumber     uint16 = 0x0203
	SidLabel      uint16 = 0x0204
	SidBoolErr    uint16 = 0x0205
	SidFormula3   uint16 = 0x0206
	SidString     uint16 = 0x0207
	SidRow        uint16 = 0x0208
	SidIndex      uint16 = 0x020B
	SidArray      uint16 = 0x0221
	SidWindow2    uint16 = 0x023E
	SidRK         uint16 = 0x027E
	SidFormula4   uint16 = 0x0406
	SidShrFmla    uint16 = 0x04BC
	SidBOF        uint16 = 0x0809

	// SidNone is reported by the records the missing-record filter
	// synthesizes; they have no on-disk form.
	SidNone uint16 = 0xFFFF
)

var recordNames = map[uint16]string{
	0x0006: "FORMULA",
	0x000A: "EOF",
	0x000C: "CALCCOUNT",
	0x000D: "CALCMODE",
	0x0012: "PROTECT",
	0x0017: "EXTERNSHEET",
	0x0018: "NAME",
	0x001C: "NOTE",
	0x0022: "DATEMODE",
	0x0031: "FONT",
	0x003C: "CONTINUE",
	0x003D: "WINDOW1",
	0x0040: "BACKUP",
	0x0042: "CODEPAGE",
	0x005C: "WRITEACCESS",
	0x005D: "OBJ",
	0x007D: "COLINFO",
	0x0085: "BOUNDSHEET",
	0x008C: "COUNTRY",
	0x0092: "PALETTE",
	0x00BD: "MULRK",
	0x00BE: "MULBLANK",
	0x00D6: "RSTRING",
	0x00D7: "DBCELL",
	0x00E0: "XF",
	0x00E5: "MERGEDCELLS",
	0x00EB: "MSODRAWINGGROUP",
	0x00EC: "MSODRAWING",
	0x00FC: "SST",
	0x00FD: "LABELSST",
	0x00FF: "EXTSST",
	0x01AE: "SUPBOOK",
	0x01B6: "TXO",
	0x0200: "DIMENSIONS",
	0x0201: "BLANK",
	0x0203: "NUMBER",
	0x0204: "LABEL",
	0x0205: "BOOLERR",
	0x0206: "FORMULA",
	0x0207: "STRING",
	0x0208: "ROW",
	0x020B: "INDEX",
	0x0221: "ARRAY",
	0x0225: "DEFAULTROWHEIGHT",
	0x023E: "WINDOW2",
	0x027E: "RK",
	0x0293: "STYLE",
	0x0406: "FORMULA",
	0x041E: "FORMAT",
	0x04BC: "SHRFMLA",
	0x0809: "BOF",
	0x0863: "BOOKEXT",
}

// RecordName returns the conventional name of a BIFF sid, or a hex form for
// sids it does not know.
func RecordName(sid uint16) string {
	if n, ok := recordNames[sid]; ok {
		return n
	}
	return fmt.Sprintf("0x%04X", sid)
}

var biffTextFromNum = map[int]string{
	0:  "(not BIFF)",
	20: "2.0",
	21: "2.1",
	30: "3",
	40: "4S",
	45: "4W",
	50: "5",
	70: "7",
	80: "8",
	85: "8X",
}

// BiffTextFromNum returns a text representation of a BIFF version number.
func BiffTextFromNum(num int) string {
	if text, ok := biffTextFromNum[num]; ok {
		return text
	}
	return fmt.Sprintf("Unknown(%d)", num)
}

// ErrorText returns the spreadsheet text of a BOOLERR or FORMULA error code.
func ErrorText(code uint8) string {
	return formula.ErrorCode(code).String()
}

var cellOpcodeSet = map[uint16]bool{
	SidBoolErr:  true,
	SidFormula:  true,
	SidFormula3: true,
	SidFormula4: true,
	SidLabel:    true,
	SidLabelSST: true,
	SidMulRK:    true,
	SidNumber:   true,
	SidRK:       true,
	SidRString:  true,
	SidBlank:    true,
	SidMulBlank: true,
}

// IsCellOpcode reports whether sid carries cell data.
func IsCellOpcode(sid uint16) bool {
	return cellOpcodeSet[sid]
}

var bofLen = map[uint16]int{
	0x0809: 8,
	0x0409: 6,
	0x0209: 6,
	0x0009: 4,
}

// Version works out the BIFF version from a BOF record: sid gives the
// generation and, for BIFF5 and later, the first word of data the release.
func Version(sid uint16, data []byte) (int, error) {
	want, ok := bofLen[sid]
	if !ok {
		return 0, NewFormatError("expected BOF record; found 0x%04x", sid)
	}
	if len(data) < 4 || len(data) > 20 {
		return 0, NewFormatError("invalid length (%d) for BOF record type 0x%04x", len(data), sid)
	}
	if len(data) < want {
		data = append(append([]byte(nil), data...), make([]byte, want-len(data))...)
	}

	switch sid >> 8 {
	case 0x08:
		version2 := uint16(data[0]) | uint16(data[1])<<8
		build := uint16(data[4]) | uint16(data[5])<<8
		year := uint16(data[6]) | uint16(data[7])<<8
		switch version2 {
		case 0x0600:
			return 80, nil
		case 0x0500:
			if year < 1994 || build == 2412 || build == 3218 || build == 3321 {
				return 50, nil
			}
			return 70, nil
		case 0x0000, 0x0007:
			return 21, nil
		}
		return 0, NewFormatError("unknown BIFF version: 0x%04x", version2)
	case 0x04:
		return 40, nil
	case 0x02:
		return 30, nil
	default:
		return 20, nil
	}
}
