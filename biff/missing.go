package biff

import "iter"

// MissingRow stands for a row with no ROW record and no cells.
type MissingRow struct {
	Row int
}

// MissingCell stands for an empty cell between two cells of a row.
type MissingCell struct {
	Row    int
	Column int
}

// LastCellOfRow follows the last cell of a row. LastColumn is -1 for rows
// that had no cells.
type LastCellOfRow struct {
	Row        int
	LastColumn int
}

func (*MissingRow) Sid() uint16    { return SidNone }
func (*MissingCell) Sid() uint16   { return SidNone }
func (*LastCellOfRow) Sid() uint16 { return SidNone }

// MissingRecordState turns a sparse BIFF record stream into a dense one.
// Pass every record of a stream, in order, through Process.
type MissingRecordState struct {
	LastRowSeen    int
	LastCellRow    int
	LastCellColumn int
}

// NewMissingRecordState returns a state with nothing seen yet.
func NewMissingRecordState() *MissingRecordState {
	s := &MissingRecordState{}
	s.Reset()
	return s
}

// Reset forgets all rows and cells, as at the start of a substream.
func (s *MissingRecordState) Reset() {
	s.LastRowSeen = -1
	s.LastCellRow = -1
	s.LastCellColumn = -1
}

func (s *MissingRecordState) missingRows(out []Record, upTo int) []Record {
	for i := s.LastRowSeen + 1; i < upTo; i++ {
		out = append(out, &MissingRow{Row: i})
	}
	return out
}

// Process returns the records to hand on in place of rec: placeholders
// for anything rec skips over, then rec itself. MULRK and MULBLANK come
// back expanded into Number and Blank records.
func (s *MissingRecordState) Process(rec Record) []Record {
	var out []Record
	thisRow, thisCol := -1, -1
	var expanded []Record

	switch r := rec.(type) {
	case *String, *SharedFormula, *Array:
		return []Record{rec}
	case *BOF:
		if r.StreamType == StreamWorkbookGlobals || r.StreamType == StreamWorksheet {
			s.Reset()
		}
	case *Row:
		if s.LastRowSeen+1 < r.Row {
			out = s.missingRows(out, r.Row)
		}
		s.LastRowSeen = r.Row
	case *MulRK:
		for _, n := range r.Expand() {
			expanded = append(expanded, n)
		}
	case *MulBlank:
		for _, b := range r.Expand() {
			expanded = append(expanded, b)
		}
	case CellRecord:
		thisRow, thisCol = r.Cell()
	}

	var lastCol int
	if len(expanded) > 0 {
		thisRow, thisCol = expanded[0].(CellRecord).Cell()
		_, lastCol = expanded[len(expanded)-1].(CellRecord).Cell()
	} else {
		lastCol = thisCol
	}

	if thisRow > s.LastRowSeen+1 {
		out = s.missingRows(out, thisRow)
	}
	if thisRow > s.LastRowSeen {
		s.LastRowSeen = thisRow
	}

	if thisRow != s.LastCellRow && thisRow > 0 {
		if s.LastCellRow == -1 {
			s.LastCellRow = 0
		}
		for i := s.LastCellRow; i < thisRow; i++ {
			col := -1
			if i == s.LastCellRow {
				col = s.LastCellColumn
			}
			out = append(out, &LastCellOfRow{Row: i, LastColumn: col})
		}
	}

	if s.LastCellRow != -1 && s.LastCellColumn != -1 && thisRow == -1 {
		out = append(out, &LastCellOfRow{Row: s.LastCellRow, LastColumn: s.LastCellColumn})
		s.LastCellRow = -1
		s.LastCellColumn = -1
	}

	if thisRow != s.LastCellRow {
		s.LastCellColumn = -1
	}
	for i := s.LastCellColumn + 1; i < thisCol; i++ {
		out = append(out, &MissingCell{Row: thisRow, Column: i})
	}

	if lastCol != -1 {
		s.LastCellColumn = lastCol
		s.LastCellRow = thisRow
	}

	if len(expanded) > 0 {
		return append(out, expanded...)
	}
	return append(out, rec)
}

// Filter wraps records with a fresh state and yields the dense stream.
func Filter(records iter.Seq[Record]) iter.Seq[Record] {
	return NewMissingRecordState().Filter(records)
}

// Filter yields the dense form of records, updating s as it goes.
func (s *MissingRecordState) Filter(records iter.Seq[Record]) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for rec := range records {
			for _, out := range s.Process(rec) {
				if !yield(out) {
					return
				}
			}
		}
	}
}
