package biff

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/yamitzky/msbin-go/formula"
)

// Sheet holds the cell values of one worksheet substream. Formula cells
// carry their cached results.
type Sheet struct {
	Index    int
	Values   formula.MemoryGrid
	Formulas map[formula.Cell]*Formula
	Shared   []*SharedFormula
	Arrays   []*Array
	Datemode int
}

// Workbook is the result of LoadWorkbook.
type Workbook struct {
	Version  int
	Datemode int
	Strings  []string
	Sheets   []*Sheet
}

// LoadWorkbook collects the cell values of every worksheet in a BIFF
// stream. Cells found outside any worksheet substream go to an implicit
// first sheet, so bare cell streams load too. The sheets read before a
// failing record are returned with the error.
func LoadWorkbook(buf []byte) (*Workbook, error) {
	wb := &Workbook{}
	var (
		cur     *Sheet
		pending *formula.Cell
	)
	sheet := func() *Sheet {
		if cur == nil {
			cur = &Sheet{
				Index:    len(wb.Sheets),
				Values:   formula.MemoryGrid{},
				Formulas: make(map[formula.Cell]*Formula),
				Datemode: wb.Datemode,
			}
			wb.Sheets = append(wb.Sheets, cur)
		}
		return cur
	}

	for rec, err := range Records(buf) {
		if err != nil {
			return wb, err
		}
		switch r := rec.(type) {
		case *BOF:
			wb.Version = r.Version
			cur = nil
			if r.StreamType == StreamWorksheet {
				sheet()
			}
		case *EOF:
			cur = nil
		case *SST:
			wb.Strings = r.Strings
		case *Datemode:
			wb.Datemode = r.Mode
		case *Number:
			sheet().Values.Set(r.Row, r.Col, formula.NumberValue(r.Value))
		case *RK:
			sheet().Values.Set(r.Row, r.Col, formula.NumberValue(r.Value))
		case *MulRK:
			for _, n := range r.Expand() {
				sheet().Values.Set(n.Row, n.Col, formula.NumberValue(n.Value))
			}
		case *Label:
			sheet().Values.Set(r.Row, r.Col, formula.TextValue(r.Value))
		case *LabelSST:
			if int(r.SSTIndex) >= len(wb.Strings) {
				return wb, NewFormatError("LABELSST at R%dC%d: string %d of %d", r.Row, r.Col, r.SSTIndex, len(wb.Strings))
			}
			sheet().Values.Set(r.Row, r.Col, formula.TextValue(wb.Strings[r.SSTIndex]))
		case *BoolErr:
			v := formula.BoolValue(r.Value != 0)
			if r.IsError {
				v = formula.ErrorValue(formula.ErrorCode(r.Value))
			}
			sheet().Values.Set(r.Row, r.Col, v)
		case *Formula:
			s := sheet()
			cell := formula.Cell{Row: r.Row, Col: r.Col}
			s.Formulas[cell] = r
			s.Values.Set(r.Row, r.Col, cachedResult(r))
			if r.Kind == ResultString {
				pending = &cell
				continue
			}
		case *String:
			if pending != nil {
				sheet().Values.Set(pending.Row, pending.Col, formula.TextValue(r.Value))
			}
		case *SharedFormula:
			sheet().Shared = append(sheet().Shared, r)
			continue
		case *Array:
			sheet().Arrays = append(sheet().Arrays, r)
			continue
		}
		pending = nil
	}
	return wb, nil
}

func cachedResult(f *Formula) formula.CellValue {
	switch f.Kind {
	case ResultNumber:
		return formula.NumberValue(f.Number)
	case ResultBool:
		return formula.BoolValue(f.Bool)
	case ResultError:
		return formula.ErrorValue(formula.ErrorCode(f.Error))
	}
	// String results arrive in the STRING record that follows; an empty
	// result is an empty string.
	return formula.TextValue("")
}

// FormulaTokens returns the RPN tokens of the formula at cell. Shared and
// array formulas are resolved to the SHRFMLA or ARRAY record that covers
// the cell.
func (s *Sheet) FormulaTokens(cell formula.Cell) ([]formula.Token, error) {
	f, ok := s.Formulas[cell]
	if !ok {
		return nil, fmt.Errorf("no formula at %s", cell)
	}
	tokens, err := formula.DecodePtgs(f.Tokens)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 || tokens[0].Kind != formula.TokExp {
		return tokens, nil
	}
	anchor := tokens[0].Ref.Resolve(cell)
	for _, sh := range s.Shared {
		if sh.FirstRow == anchor.Row && sh.FirstCol == anchor.Col && covers(sh.FirstRow, sh.LastRow, sh.FirstCol, sh.LastCol, cell) {
			return formula.DecodePtgs(sh.Tokens)
		}
	}
	for _, a := range s.Arrays {
		if a.FirstRow == anchor.Row && a.FirstCol == anchor.Col && covers(a.FirstRow, a.LastRow, a.FirstCol, a.LastCol, cell) {
			return formula.DecodePtgs(a.Tokens)
		}
	}
	return nil, fmt.Errorf("%s: no shared or array formula anchored at %s", cell, anchor)
}

func covers(r1, r2, c1, c2 int, cell formula.Cell) bool {
	return cell.Row >= r1 && cell.Row <= r2 && cell.Col >= c1 && cell.Col <= c2
}

// Recalc is the outcome of re-evaluating one formula cell.
type Recalc struct {
	Cell     formula.Cell
	Cached   formula.CellValue
	Computed formula.CellValue
	Err      error
}

// Matches reports whether the computed value agrees with the cached one.
// Numbers are compared to 15 significant digits.
func (r Recalc) Matches() bool {
	if r.Err != nil {
		return false
	}
	if r.Cached.Kind == formula.KindNumber && r.Computed.Kind == formula.KindNumber {
		return formula.Num2Str(r.Cached.Num) == formula.Num2Str(r.Computed.Num)
	}
	return r.Cached == r.Computed
}

// Recalculate evaluates every formula of the sheet against the cached cell
// values and reports each result next to the cached one, in row-major
// order. Formulas that cannot be decoded or evaluated carry Err.
func (s *Sheet) Recalculate(logger *slog.Logger) []Recalc {
	ev := formula.NewEvaluator(s.Values)
	ev.DateMode = s.Datemode
	ev.Logger = logger

	cells := make([]formula.Cell, 0, len(s.Formulas))
	for c := range s.Formulas {
		cells = append(cells, c)
	}
	slices.SortFunc(cells, func(a, b formula.Cell) int {
		return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Col, b.Col))
	})

	out := make([]Recalc, 0, len(cells))
	for _, c := range cells {
		r := Recalc{Cell: c, Cached: s.Values.Cell(c.Row, c.Col)}
		tokens, err := s.FormulaTokens(c)
		if err == nil {
			r.Computed, err = ev.Evaluate(tokens, c)
		}
		if err != nil && logger != nil {
			logger.Debug("formula not evaluated", "cell", c.String(), "error", err)
		}
		r.Err = err
		out = append(out, r)
	}
	return out
}

// ErrNoWorksheet is returned when a workbook has no sheet at the index.
var ErrNoWorksheet = errors.New("no such worksheet")

// Sheet returns the worksheet at index.
func (wb *Workbook) Sheet(index int) (*Sheet, error) {
	if index < 0 || index >= len(wb.Sheets) {
		return nil, fmt.Errorf("%w: %d of %d", ErrNoWorksheet, index, len(wb.Sheets))
	}
	return wb.Sheets[index], nil
}
