package biff

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamitzky/msbin-go/formula"
)

func f64(v float64) []byte { return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)) }

func u32le(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

func formulaRec(row, col uint16, result []byte, flags uint16, tokens []byte) []byte {
	return raw(SidFormula, cat(u16(row, col, 0), result, u16(flags), make([]byte, 4), u16(uint16(len(tokens))), tokens)...)
}

var stringResult = []byte{0, 0, 0, 0, 0, 0, 0xFF, 0xFF}

func workbookStream() []byte {
	sst := cat(u32le(1), u32le(1), u16(1), []byte{0}, []byte("x"))
	// A1+B1
	sum := cat([]byte{0x24}, u16(0, 0xC000), []byte{0x24}, u16(0, 0xC001), []byte{0x03})
	// "a"&"b"
	concat := cat([]byte{0x17, 1, 0, 'a'}, []byte{0x17, 1, 0, 'b'}, []byte{0x08})
	// R[-1]C*2, shared over A2:B2
	shared := cat([]byte{0x2C}, u16(0xFFFF, 0xC000), []byte{0x1E}, u16(2), []byte{0x05})
	exp := cat([]byte{0x01}, u16(1, 0))
	return cat(
		raw(SidBOF, u16(0x0600, StreamWorkbookGlobals, 0, 0)...),
		raw(SidDatemode, u16(1)...),
		raw(SidSST, sst...),
		raw(SidEOF),
		raw(SidBOF, u16(0x0600, StreamWorksheet, 0, 0)...),
		raw(SidNumber, cat(u16(0, 0, 15), f64(2))...),
		raw(SidRK, cat(u16(0, 1, 15), u32le(3<<2|2))...),
		raw(SidLabelSST, cat(u16(0, 2, 15), u32le(0))...),
		formulaRec(0, 3, f64(5), 0, sum),
		formulaRec(0, 4, stringResult, 0, concat),
		raw(SidString, cat(u16(2), []byte{0}, []byte("ab"))...),
		formulaRec(1, 0, f64(4), 0x0008, exp),
		raw(SidShrFmla, cat(u16(1, 1), []byte{0, 1, 0, 2}, u16(uint16(len(shared))), shared)...),
		formulaRec(1, 1, f64(7), 0x0008, exp),
		raw(SidEOF),
	)
}

func TestLoadWorkbook(t *testing.T) {
	wb, err := LoadWorkbook(workbookStream())
	require.NoError(t, err)
	assert.Equal(t, 80, wb.Version)
	assert.Equal(t, 1, wb.Datemode)
	assert.Equal(t, []string{"x"}, wb.Strings)
	require.Len(t, wb.Sheets, 1)

	s, err := wb.Sheet(0)
	require.NoError(t, err)
	assert.Equal(t, formula.Date1904, s.Datemode)
	assert.Equal(t, formula.NumberValue(2), s.Values.Cell(0, 0))
	assert.Equal(t, formula.NumberValue(3), s.Values.Cell(0, 1))
	assert.Equal(t, formula.TextValue("x"), s.Values.Cell(0, 2))
	assert.Equal(t, formula.NumberValue(5), s.Values.Cell(0, 3))
	assert.Equal(t, formula.TextValue("ab"), s.Values.Cell(0, 4))
	assert.Len(t, s.Formulas, 4)
	assert.Len(t, s.Shared, 1)

	_, err = wb.Sheet(1)
	assert.ErrorIs(t, err, ErrNoWorksheet)
}

func TestSheetRecalculate(t *testing.T) {
	wb, err := LoadWorkbook(workbookStream())
	require.NoError(t, err)
	results := wb.Sheets[0].Recalculate(nil)
	require.Len(t, results, 4)

	var cells []string
	for _, r := range results {
		require.NoError(t, r.Err, r.Cell.String())
		cells = append(cells, r.Cell.String())
	}
	assert.Equal(t, []string{"D1", "E1", "A2", "B2"}, cells)

	assert.True(t, results[0].Matches())
	assert.Equal(t, formula.TextValue("ab"), results[1].Computed)
	assert.True(t, results[1].Matches())
	assert.Equal(t, formula.NumberValue(4), results[2].Computed)
	assert.True(t, results[2].Matches())

	// B2's cached value is stale.
	assert.Equal(t, formula.NumberValue(6), results[3].Computed)
	assert.False(t, results[3].Matches())
}

func TestFormulaTokensMissingAnchor(t *testing.T) {
	buf := cat(
		raw(SidBOF, u16(0x0600, StreamWorksheet, 0, 0)...),
		formulaRec(3, 3, f64(0), 0x0008, cat([]byte{0x01}, u16(1, 0))),
		raw(SidEOF),
	)
	wb, err := LoadWorkbook(buf)
	require.NoError(t, err)
	_, err = wb.Sheets[0].FormulaTokens(formula.Cell{Row: 3, Col: 3})
	assert.ErrorContains(t, err, "no shared or array formula anchored at A2")

	_, err = wb.Sheets[0].FormulaTokens(formula.Cell{})
	assert.Error(t, err)
}

func TestLoadWorkbookBareCells(t *testing.T) {
	wb, err := LoadWorkbook(cat(
		raw(SidBoolErr, cat(u16(0, 0, 0), []byte{0x07, 1})...),
		raw(SidBoolErr, cat(u16(0, 1, 0), []byte{1, 0})...),
		raw(SidLabel, cat(u16(1, 0, 0), u16(2), []byte{0}, []byte("hi"))...),
	))
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)
	g := wb.Sheets[0].Values
	assert.Equal(t, formula.ErrorValue(formula.ErrDiv0), g.Cell(0, 0))
	assert.Equal(t, formula.BoolValue(true), g.Cell(0, 1))
	assert.Equal(t, formula.TextValue("hi"), g.Cell(1, 0))

	_, err = LoadWorkbook(raw(SidLabelSST, cat(u16(0, 0, 0), u32le(4))...))
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}
