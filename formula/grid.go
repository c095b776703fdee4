package formula

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"
)

// Cell is a zero-based cell position.
type Cell struct {
	Row, Col int
}

func (c Cell) String() string { return CellName(c.Row, c.Col) }

// Grid supplies cell values to the evaluator. Cells outside the used range
// are Blank.
type Grid interface {
	Cell(row, col int) CellValue
}

// MemoryGrid is a sparse in-memory Grid.
type MemoryGrid map[Cell]CellValue

func (g MemoryGrid) Cell(row, col int) CellValue { return g[Cell{row, col}] }

// Set stores v at row, col.
func (g MemoryGrid) Set(row, col int, v CellValue) { g[Cell{row, col}] = v }

// GridFromRows builds a grid whose top-left cell is A1. Each element may be
// a float64, int, string, bool, ErrorCode, CellValue or nil.
func GridFromRows(rows ...[]any) MemoryGrid {
	g := MemoryGrid{}
	for r, row := range rows {
		for c, x := range row {
			v := valueOf(x)
			if v.Kind != KindBlank {
				g.Set(r, c, v)
			}
		}
	}
	return g
}

func valueOf(x any) CellValue {
	switch v := x.(type) {
	case CellValue:
		return v
	case float64:
		return NumberValue(v)
	case int:
		return NumberValue(float64(v))
	case string:
		return TextValue(v)
	case bool:
		return BoolValue(v)
	case ErrorCode:
		return ErrorValue(v)
	}
	return Blank
}

// ErrOffsetOutOfRange is matched by every *OffsetError.
var ErrOffsetOutOfRange = errors.New("offset outside area")

// OffsetError reports a 1-based area offset outside the area.
type OffsetError struct {
	Row, Col      int
	Height, Width int
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("offset (%d, %d) outside %dx%d area", e.Row, e.Col, e.Height, e.Width)
}

func (e *OffsetError) Is(target error) bool { return target == ErrOffsetOutOfRange }

// AreaEval is a rectangular range of a grid. Bounds are zero-based and
// inclusive.
type AreaEval struct {
	Grid     Grid
	FirstRow int
	FirstCol int
	LastRow  int
	LastCol  int
}

// NewAreaEval returns the area spanning two corners in either order.
func NewAreaEval(g Grid, r1, c1, r2, c2 int) *AreaEval {
	return &AreaEval{Grid: g, FirstRow: min(r1, r2), FirstCol: min(c1, c2), LastRow: max(r1, r2), LastCol: max(c1, c2)}
}

func (a *AreaEval) Height() int { return a.LastRow - a.FirstRow + 1 }
func (a *AreaEval) Width() int  { return a.LastCol - a.FirstCol + 1 }

// Contains reports whether the zero-based cell lies inside the area.
func (a *AreaEval) Contains(row, col int) bool {
	return row >= a.FirstRow && row <= a.LastRow && col >= a.FirstCol && col <= a.LastCol
}

// AbsoluteValue returns the cell at 1-based offsets from the area's
// top-left corner: (1, 1) is the top-left cell itself.
func (a *AreaEval) AbsoluteValue(row, col int) (CellValue, error) {
	if row < 1 || row > a.Height() || col < 1 || col > a.Width() {
		return Blank, &OffsetError{Row: row, Col: col, Height: a.Height(), Width: a.Width()}
	}
	return a.Grid.Cell(a.FirstRow+row-1, a.FirstCol+col-1), nil
}

// Values yields every cell of the area in row-major order.
func (a *AreaEval) Values() iter.Seq[CellValue] {
	return func(yield func(CellValue) bool) {
		for r := a.FirstRow; r <= a.LastRow; r++ {
			for c := a.FirstCol; c <= a.LastCol; c++ {
				if !yield(a.Grid.Cell(r, c)) {
					return
				}
			}
		}
	}
}

func (a *AreaEval) String() string {
	return CellName(a.FirstRow, a.FirstCol) + ":" + CellName(a.LastRow, a.LastCol)
}

// Colname returns the column letters for a zero-based column index.
func Colname(colx int) string {
	alphabet := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if colx <= 25 {
		return string(alphabet[colx])
	}
	xdiv26, xmod26 := colx/26, colx%26
	return Colname(xdiv26-1) + string(alphabet[xmod26])
}

// CellName returns the A1 name of a zero-based cell, e.g. (5, 7) is "H6".
func CellName(rowx, colx int) string {
	return Colname(colx) + strconv.Itoa(rowx+1)
}

var cellNameRe = regexp.MustCompile(`^\$?([A-Za-z]{1,3})\$?([0-9]{1,7})$`)

// ParseCellName is the inverse of CellName. Dollar signs are accepted and
// ignored.
func ParseCellName(s string) (Cell, error) {
	m := cellNameRe.FindStringSubmatch(s)
	if m == nil {
		return Cell{}, fmt.Errorf("bad cell reference %q", s)
	}
	col := 0
	for _, ch := range strings.ToUpper(m[1]) {
		col = col*26 + int(ch-'A') + 1
	}
	row, _ := strconv.Atoi(m[2])
	if row < 1 {
		return Cell{}, fmt.Errorf("bad cell reference %q", s)
	}
	return Cell{Row: row - 1, Col: col - 1}, nil
}
