package biff

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dense(recs ...Record) []Record {
	return slices.Collect(Filter(slices.Values(recs)))
}

func num(row, col int) *Number {
	return &Number{Position: Position{Row: row, Col: col}}
}

func TestMissingRowsWithoutRowRecords(t *testing.T) {
	got := dense(num(0, 0), num(3, 0))

	require.Equal(t, []Record{
		num(0, 0),
		&MissingRow{Row: 1},
		&MissingRow{Row: 2},
		&LastCellOfRow{Row: 0, LastColumn: 0},
		&LastCellOfRow{Row: 1, LastColumn: -1},
		&LastCellOfRow{Row: 2, LastColumn: -1},
		num(3, 0),
	}, got)
}

func TestMissingRowsAndCells(t *testing.T) {
	bof := &BOF{Version: 80, StreamType: StreamWorksheet}
	dbcell := &Unknown{Type: SidDBCell}
	in := []Record{
		bof,
		&Row{Row: 0}, &Row{Row: 1}, &Row{Row: 2}, &Row{Row: 20},
		&LabelSST{Position: Position{Row: 0, Col: 0}},
		num(1, 0),
		num(1, 3),
		&MulBlank{Row: 2, FirstCol: 1, LastCol: 3, XFs: []uint16{15, 15, 15}},
		&MulRK{Row: 20, FirstCol: 0, LastCol: 1, Cells: []RKCell{{XF: 1, Value: 5}, {XF: 1, Value: 6}}},
		dbcell,
		&EOF{},
	}

	want := []Record{bof, &Row{Row: 0}, &Row{Row: 1}, &Row{Row: 2}}
	for i := 3; i < 20; i++ {
		want = append(want, &MissingRow{Row: i})
	}
	want = append(want,
		&Row{Row: 20},
		&LabelSST{Position: Position{Row: 0, Col: 0}},
		&LastCellOfRow{Row: 0, LastColumn: 0},
		num(1, 0),
		&MissingCell{Row: 1, Column: 1},
		&MissingCell{Row: 1, Column: 2},
		num(1, 3),
		&LastCellOfRow{Row: 1, LastColumn: 3},
		&MissingCell{Row: 2, Column: 0},
		&Blank{Position{2, 1, 15}},
		&Blank{Position{2, 2, 15}},
		&Blank{Position{2, 3, 15}},
		&LastCellOfRow{Row: 2, LastColumn: 3},
	)
	for i := 3; i < 20; i++ {
		want = append(want, &LastCellOfRow{Row: i, LastColumn: -1})
	}
	want = append(want,
		&Number{Position{20, 0, 1}, 5},
		&Number{Position{20, 1, 1}, 6},
		&LastCellOfRow{Row: 20, LastColumn: 1},
		dbcell,
		&EOF{},
	)

	assert.Equal(t, want, dense(in...))
}

func TestFormulaFollowersDoNotEndRow(t *testing.T) {
	formula := &Formula{Position: Position{Row: 0, Col: 0}, Kind: ResultString, Flags: 0x0008}
	got := dense(
		formula,
		&SharedFormula{FirstRow: 0, LastRow: 0, FirstCol: 0, LastCol: 1},
		&String{Value: "s1"},
		num(0, 2),
		&Unknown{Type: SidWindow2},
	)

	var ends, missing int
	for _, rec := range got {
		switch rec.(type) {
		case *LastCellOfRow:
			ends++
		case *MissingCell:
			missing++
		}
	}
	assert.Equal(t, 1, ends)
	assert.Equal(t, 1, missing)
	assert.Equal(t, &MissingCell{Row: 0, Column: 1}, got[3])
	assert.Equal(t, &LastCellOfRow{Row: 0, LastColumn: 2}, got[5])
}

func TestBOFResetsState(t *testing.T) {
	s := NewMissingRecordState()
	s.Process(&Row{Row: 5})
	s.Process(num(5, 4))
	assert.Equal(t, MissingRecordState{LastRowSeen: 5, LastCellRow: 5, LastCellColumn: 4}, *s)

	out := s.Process(&BOF{StreamType: StreamWorksheet})
	assert.Equal(t, []Record{&BOF{StreamType: StreamWorksheet}}, out)
	assert.Equal(t, MissingRecordState{LastRowSeen: -1, LastCellRow: -1, LastCellColumn: -1}, *s)

	// Chart substreams keep the sheet state.
	s.Process(&Row{Row: 2})
	s.Process(&BOF{StreamType: StreamChart})
	assert.Equal(t, 2, s.LastRowSeen)
}

func TestNoteCountsAsCell(t *testing.T) {
	got := dense(num(0, 0), &Note{Row: 0, Col: 2, Author: "a"})
	assert.Equal(t, []Record{num(0, 0), &MissingCell{Row: 0, Column: 1}, &Note{Row: 0, Col: 2, Author: "a"}}, got)
}

func TestFilterStopsEarly(t *testing.T) {
	var n int
	for range Filter(slices.Values([]Record{num(0, 0), num(4, 0), num(5, 0)})) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestFilterOverDecodedStream(t *testing.T) {
	buf := cat(
		raw(SidBOF, u16(0x0600, StreamWorksheet, 0, 0)...),
		raw(SidRow, cat(u16(0, 0, 1, 255), make([]byte, 8))...),
		raw(SidRow, cat(u16(2, 0, 1, 255), make([]byte, 8))...),
		raw(SidBlank, u16(0, 0, 15)...),
		raw(SidBlank, u16(2, 0, 15)...),
		raw(SidEOF),
	)
	var recs []Record
	for rec, err := range Records(buf) {
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	var kinds []string
	for rec := range Filter(slices.Values(recs)) {
		switch r := rec.(type) {
		case *MissingRow:
			kinds = append(kinds, "missing row")
		case *LastCellOfRow:
			kinds = append(kinds, "end")
		default:
			kinds = append(kinds, RecordName(r.Sid()))
		}
	}
	assert.Equal(t, []string{"BOF", "ROW", "missing row", "ROW", "BLANK", "end", "end", "BLANK", "end", "EOF"}, kinds)
}
