package formula

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Function is a built-in spreadsheet function.
type Function struct {
	Name    string
	Index   int // BIFF function number
	MinArgs int
	MaxArgs int // -1 for no limit
	fn      func(*call) operand
}

func (f *Function) arity() string {
	switch {
	case f.MaxArgs < 0:
		return fmt.Sprintf("at least %d", f.MinArgs)
	case f.MinArgs == f.MaxArgs:
		return strconv.Itoa(f.MinArgs)
	}
	return fmt.Sprintf("%d to %d", f.MinArgs, f.MaxArgs)
}

var functions = []*Function{
	{"COUNT", 0, 0, -1, fnCount},
	{"IF", 1, 1, 3, fnIf},
	{"ISNA", 2, 1, 1, isKind(func(v CellValue) bool { return v.IsError() && v.Err == ErrNA })},
	{"ISERROR", 3, 1, 1, isKind(CellValue.IsError)},
	{"SUM", 4, 0, -1, aggregate(sum)},
	{"AVERAGE", 5, 1, -1, aggregate(average)},
	{"MIN", 6, 1, -1, aggregate(minimum)},
	{"MAX", 7, 1, -1, aggregate(maximum)},
	{"ROW", 8, 0, 1, fnRow},
	{"COLUMN", 9, 0, 1, fnColumn},
	{"NA", 10, 0, 0, func(*call) operand { return errOp(ErrNA) }},
	{"SIN", 15, 1, 1, math1(math.Sin)},
	{"COS", 16, 1, 1, math1(math.Cos)},
	{"TAN", 17, 1, 1, math1(math.Tan)},
	{"ATAN", 18, 1, 1, math1(math.Atan)},
	{"PI", 19, 0, 0, func(*call) operand { return numOp(math.Pi) }},
	{"SQRT", 20, 1, 1, math1(math.Sqrt)},
	{"EXP", 21, 1, 1, math1(math.Exp)},
	{"LN", 22, 1, 1, math1(logOf(math.Log))},
	{"LOG10", 23, 1, 1, math1(logOf(math.Log10))},
	{"ABS", 24, 1, 1, math1(math.Abs)},
	{"INT", 25, 1, 1, math1(math.Floor)},
	{"SIGN", 26, 1, 1, math1(sign)},
	{"ROUND", 27, 2, 2, rounding(math.Round)},
	{"INDEX", 29, 2, 4, fnIndex},
	{"REPT", 30, 2, 2, fnRept},
	{"MID", 31, 3, 3, fnMid},
	{"LEN", 32, 1, 1, text1(func(s string) CellValue { return NumberValue(float64(len([]rune(s)))) })},
	{"VALUE", 33, 1, 1, fnValue},
	{"TRUE", 34, 0, 0, func(*call) operand { return valOp(BoolValue(true)) }},
	{"FALSE", 35, 0, 0, func(*call) operand { return valOp(BoolValue(false)) }},
	{"AND", 36, 1, -1, logical(func(acc, b bool) bool { return acc && b }, true)},
	{"OR", 37, 1, -1, logical(func(acc, b bool) bool { return acc || b }, false)},
	{"NOT", 38, 1, 1, fnNot},
	{"MOD", 39, 2, 2, fnMod},
	{"DATE", 65, 3, 3, fnDate},
	{"DAY", 67, 1, 1, datePart(func(_, _, d int) int { return d })},
	{"MONTH", 68, 1, 1, datePart(func(_, m, _ int) int { return m })},
	{"YEAR", 69, 1, 1, datePart(func(y, _, _ int) int { return y })},
	{"NOW", 74, 0, 0, fnNow},
	{"ROWS", 76, 1, 1, dimension((*AreaEval).Height)},
	{"COLUMNS", 77, 1, 1, dimension((*AreaEval).Width)},
	{"CHOOSE", 100, 2, -1, fnChoose},
	{"LOG", 109, 1, 2, fnLog},
	{"LOWER", 112, 1, 1, text1(func(s string) CellValue { return TextValue(strings.ToLower(s)) })},
	{"UPPER", 113, 1, 1, text1(func(s string) CellValue { return TextValue(strings.ToUpper(s)) })},
	{"LEFT", 115, 1, 2, fnLeft},
	{"RIGHT", 116, 1, 2, fnRight},
	{"EXACT", 117, 2, 2, fnExact},
	{"TRIM", 118, 1, 1, text1(func(s string) CellValue { return TextValue(strings.Join(strings.Fields(s), " ")) })},
	{"SUBSTITUTE", 120, 3, 4, fnSubstitute},
	{"FIND", 124, 2, 3, fnFind},
	{"ISERR", 126, 1, 1, isKind(func(v CellValue) bool { return v.IsError() && v.Err != ErrNA })},
	{"ISTEXT", 127, 1, 1, isKind(func(v CellValue) bool { return v.Kind == KindText })},
	{"ISNUMBER", 128, 1, 1, isKind(func(v CellValue) bool { return v.Kind == KindNumber })},
	{"ISBLANK", 129, 1, 1, isKind(func(v CellValue) bool { return v.Kind == KindBlank })},
	{"T", 130, 1, 1, fnT},
	{"N", 131, 1, 1, fnN},
	{"COUNTA", 169, 0, -1, fnCountA},
	{"PRODUCT", 183, 0, -1, aggregate(product)},
	{"ISLOGICAL", 198, 1, 1, isKind(func(v CellValue) bool { return v.Kind == KindBool })},
	{"ROUNDUP", 212, 2, 2, rounding(awayFromZero)},
	{"ROUNDDOWN", 213, 2, 2, rounding(math.Trunc)},
	{"TODAY", 221, 0, 0, fnToday},
	{"MEDIAN", 227, 1, -1, aggregate(median)},
	{"SUMPRODUCT", 228, 1, -1, fnSumProduct},
	{"FLOOR", 285, 2, 2, fnFloor},
	{"CEILING", 288, 2, 2, fnCeiling},
	{"CONCATENATE", 336, 0, -1, fnConcatenate},
	{"POWER", 337, 2, 2, fnPower},
}

var funcByIndex, funcByName = indexFunctions(functions)

func indexFunctions(fs []*Function) (map[int]*Function, map[string]*Function) {
	byIndex := make(map[int]*Function, len(fs))
	byName := make(map[string]*Function, len(fs))
	for _, f := range fs {
		byIndex[f.Index] = f
		byName[f.Name] = f
	}
	return byIndex, byName
}

// FunctionByIndex returns the built-in with the given BIFF function number.
func FunctionByIndex(idx int) (*Function, bool) {
	f, ok := funcByIndex[idx]
	return f, ok
}

// LookupFunction returns the built-in with the given name, in any case.
func LookupFunction(name string) (*Function, bool) {
	f, ok := funcByName[strings.ToUpper(name)]
	return f, ok
}

// Functions returns every built-in ordered by BIFF function number.
func Functions() []*Function {
	return slices.Clone(functions)
}

// call is the argument list of one function invocation.
type call struct {
	ev     *Evaluator
	origin Cell
	args   []operand
}

func (c *call) has(i int) bool { return i < len(c.args) && !c.args[i].missing }

func (c *call) value(i int) CellValue {
	if !c.has(i) {
		return Blank
	}
	return c.args[i].value(c.origin)
}

func (c *call) number(i int) (float64, *ErrorCode) { return toNumber(c.value(i)) }

// integer truncates argument i. Magnitudes past 32 bits are #VALUE!.
func (c *call) integer(i int) (int, *ErrorCode) {
	f, e := c.number(i)
	if e != nil {
		return 0, e
	}
	f = math.Trunc(f)
	if math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, errp(ErrValue)
	}
	return int(f), nil
}

func (c *call) text(i int) (string, *ErrorCode) { return toText(c.value(i)) }

func valOp(v CellValue) operand { return operand{val: v} }
func numOp(f float64) operand { return operand{val: NumberValue(f)} }
func errOp(code ErrorCode) operand { return operand{val: ErrorValue(code)} }
func boolOp(b bool) operand { return operand{val: BoolValue(b)} }
func textOp(s string) operand { return operand{val: TextValue(s)} }
func cellOp(g Grid, r, c int) operand { return operand{area: NewAreaEval(g, r, c, r, c)} }

func math1(fn func(float64) float64) func(*call) operand {
	return func(c *call) operand {
		x, e := c.number(0)
		if e != nil {
			return errOp(*e)
		}
		return numOp(fn(x))
	}
}

func logOf(fn func(float64) float64) func(float64) float64 {
	return func(x float64) float64 {
		if x <= 0 {
			return math.NaN()
		}
		return fn(x)
	}
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func text1(fn func(string) CellValue) func(*call) operand {
	return func(c *call) operand {
		s, e := c.text(0)
		if e != nil {
			return errOp(*e)
		}
		return valOp(fn(s))
	}
}

func isKind(pred func(CellValue) bool) func(*call) operand {
	return func(c *call) operand { return boolOp(pred(c.value(0))) }
}

// numbers collects numeric arguments the way SUM does: referenced cells
// count only when they hold numbers, while direct arguments are coerced.
// The first error value found is returned.
func (c *call) numbers() ([]float64, *ErrorCode) {
	var out []float64
	for _, a := range c.args {
		switch {
		case a.missing:
		case a.area != nil:
			for v := range a.area.Values() {
				switch v.Kind {
				case KindNumber:
					out = append(out, v.Num)
				case KindError:
					return nil, errp(v.Err)
				}
			}
		default:
			f, e := toNumber(a.val)
			if e != nil {
				return nil, e
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func aggregate(fn func([]float64) CellValue) func(*call) operand {
	return func(c *call) operand {
		xs, e := c.numbers()
		if e != nil {
			return errOp(*e)
		}
		return valOp(fn(xs))
	}
}

func sum(xs []float64) CellValue {
	var s float64
	for _, x := range xs {
		s += x
	}
	return NumberValue(s)
}

func average(xs []float64) CellValue {
	if len(xs) == 0 {
		return ErrorValue(ErrDiv0)
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return NumberValue(s / float64(len(xs)))
}

func minimum(xs []float64) CellValue {
	if len(xs) == 0 {
		return NumberValue(0)
	}
	return NumberValue(slices.Min(xs))
}

func maximum(xs []float64) CellValue {
	if len(xs) == 0 {
		return NumberValue(0)
	}
	return NumberValue(slices.Max(xs))
}

func product(xs []float64) CellValue {
	if len(xs) == 0 {
		return NumberValue(0)
	}
	p := 1.0
	for _, x := range xs {
		p *= x
	}
	return NumberValue(p)
}

func median(xs []float64) CellValue {
	if len(xs) == 0 {
		return ErrorValue(ErrNum)
	}
	s := slices.Sorted(slices.Values(xs))
	n := len(s)
	if n%2 == 1 {
		return NumberValue(s[n/2])
	}
	return NumberValue((s[n/2-1] + s[n/2]) / 2)
}

func fnCount(c *call) operand {
	n := 0
	for _, a := range c.args {
		switch {
		case a.missing:
		case a.area != nil:
			for v := range a.area.Values() {
				if v.Kind == KindNumber {
					n++
				}
			}
		default:
			if _, e := toNumber(a.val); e == nil && a.val.Kind != KindBlank {
				n++
			}
		}
	}
	return numOp(float64(n))
}

func fnCountA(c *call) operand {
	n := 0
	for _, a := range c.args {
		switch {
		case a.missing:
		case a.area != nil:
			for v := range a.area.Values() {
				if v.Kind != KindBlank {
					n++
				}
			}
		default:
			n++
		}
	}
	return numOp(float64(n))
}

func fnIf(c *call) operand {
	cond, e := toBool(c.value(0))
	if e != nil {
		return errOp(*e)
	}
	branch := 2
	if cond {
		branch = 1
	}
	if branch >= len(c.args) {
		return boolOp(cond)
	}
	if c.args[branch].missing {
		return numOp(0)
	}
	return c.args[branch]
}

func fnRow(c *call) operand {
	if !c.has(0) {
		return numOp(float64(c.origin.Row + 1))
	}
	a := c.args[0]
	if a.area == nil {
		return errOp(ErrValue)
	}
	return numOp(float64(a.area.FirstRow + 1))
}

func fnColumn(c *call) operand {
	if !c.has(0) {
		return numOp(float64(c.origin.Col + 1))
	}
	a := c.args[0]
	if a.area == nil {
		return errOp(ErrValue)
	}
	return numOp(float64(a.area.FirstCol + 1))
}

func dimension(fn func(*AreaEval) int) func(*call) operand {
	return func(c *call) operand {
		a := c.args[0]
		if a.area == nil {
			if a.val.IsError() {
				return valOp(a.val)
			}
			return numOp(1)
		}
		return numOp(float64(fn(a.area)))
	}
}

// fnIndex returns a reference to one cell of an area. With a single index
// into a one-row area the index selects a column. An index of 0 is only
// accepted for a dimension of size 1.
func fnIndex(c *call) operand {
	row, e := c.integer(1)
	if e != nil {
		return errOp(*e)
	}
	col := 1
	if c.has(2) {
		if col, e = c.integer(2); e != nil {
			return errOp(*e)
		}
	}
	a := c.args[0]
	if a.area == nil {
		if a.val.IsError() {
			return valOp(a.val)
		}
		if row > 1 || col > 1 {
			return errOp(ErrRef)
		}
		return a
	}
	area := a.area
	if !c.has(2) && area.Height() == 1 {
		row, col = 1, row
	}
	if row < 0 || col < 0 {
		return errOp(ErrValue)
	}
	if row == 0 && area.Height() == 1 {
		row = 1
	}
	if col == 0 && area.Width() == 1 {
		col = 1
	}
	if row == 0 || col == 0 {
		return errOp(ErrValue)
	}
	if _, err := area.AbsoluteValue(row, col); err != nil {
		if errors.Is(err, ErrOffsetOutOfRange) {
			return errOp(ErrRef)
		}
		return errOp(ErrValue)
	}
	return cellOp(area.Grid, area.FirstRow+row-1, area.FirstCol+col-1)
}

func fnChoose(c *call) operand {
	i, e := c.integer(0)
	if e != nil {
		return errOp(*e)
	}
	if i < 1 || i >= len(c.args) {
		return errOp(ErrValue)
	}
	if c.args[i].missing {
		return numOp(0)
	}
	return c.args[i]
}

func roundDigits(x float64, digits int, mode func(float64) float64) float64 {
	// Rounding to 15 significant digits first makes 2.675 round like the
	// decimal it was typed as.
	clean := func(v float64) float64 {
		if f, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 15, 64), 64); err == nil {
			return f
		}
		return v
	}
	if digits >= 0 {
		m := math.Pow(10, float64(digits))
		return mode(clean(x*m)) / m
	}
	m := math.Pow(10, float64(-digits))
	return mode(clean(x/m)) * m
}

func awayFromZero(v float64) float64 {
	if v < 0 {
		return -math.Ceil(-v)
	}
	return math.Ceil(v)
}

func rounding(mode func(float64) float64) func(*call) operand {
	return func(c *call) operand {
		x, e := c.number(0)
		if e != nil {
			return errOp(*e)
		}
		d, e := c.integer(1)
		if e != nil {
			return errOp(*e)
		}
		return numOp(roundDigits(x, d, mode))
	}
}

func fnMod(c *call) operand {
	n, e := c.number(0)
	if e != nil {
		return errOp(*e)
	}
	d, e := c.number(1)
	if e != nil {
		return errOp(*e)
	}
	if d == 0 {
		return errOp(ErrDiv0)
	}
	return numOp(n - d*math.Floor(n/d))
}

func fnPower(c *call) operand {
	x, e := c.number(0)
	if e != nil {
		return errOp(*e)
	}
	y, e := c.number(1)
	if e != nil {
		return errOp(*e)
	}
	return valOp(Pow(x, y))
}

func fnLog(c *call) operand {
	x, e := c.number(0)
	if e != nil {
		return errOp(*e)
	}
	base := 10.0
	if c.has(1) {
		if base, e = c.number(1); e != nil {
			return errOp(*e)
		}
	}
	switch {
	case x <= 0 || base <= 0:
		return errOp(ErrNum)
	case base == 1:
		return errOp(ErrDiv0)
	}
	return numOp(math.Log(x) / math.Log(base))
}

func fnFloor(c *call) operand {
	x, e := c.number(0)
	if e != nil {
		return errOp(*e)
	}
	sig, e := c.number(1)
	if e != nil {
		return errOp(*e)
	}
	switch {
	case sig == 0 && x == 0:
		return numOp(0)
	case sig == 0:
		return errOp(ErrDiv0)
	case x > 0 && sig < 0:
		return errOp(ErrNum)
	}
	return numOp(math.Floor(x/sig) * sig)
}

func fnCeiling(c *call) operand {
	x, e := c.number(0)
	if e != nil {
		return errOp(*e)
	}
	sig, e := c.number(1)
	if e != nil {
		return errOp(*e)
	}
	switch {
	case sig == 0:
		return numOp(0)
	case x > 0 && sig < 0:
		return errOp(ErrNum)
	}
	return numOp(math.Ceil(x/sig) * sig)
}

func logical(op func(acc, b bool) bool, init bool) func(*call) operand {
	return func(c *call) operand {
		acc, seen := init, false
		for _, a := range c.args {
			switch {
			case a.missing:
			case a.area != nil:
				for v := range a.area.Values() {
					switch v.Kind {
					case KindError:
						return valOp(v)
					case KindBool, KindNumber:
						b, _ := toBool(v)
						acc, seen = op(acc, b), true
					}
				}
			default:
				b, e := toBool(a.val)
				if e != nil {
					return errOp(*e)
				}
				acc, seen = op(acc, b), true
			}
		}
		if !seen {
			return errOp(ErrValue)
		}
		return boolOp(acc)
	}
}

func fnNot(c *call) operand {
	b, e := toBool(c.value(0))
	if e != nil {
		return errOp(*e)
	}
	return boolOp(!b)
}

func fnValue(c *call) operand {
	v := c.value(0)
	switch v.Kind {
	case KindNumber:
		return valOp(v)
	case KindError:
		return valOp(v)
	case KindBlank:
		return numOp(0)
	}
	s, _ := toText(v)
	if f, ok := parseNumber(s); ok {
		return numOp(f)
	}
	return errOp(ErrValue)
}

func fnT(c *call) operand {
	v := c.value(0)
	switch v.Kind {
	case KindText, KindError:
		return valOp(v)
	}
	return textOp("")
}

func fnN(c *call) operand {
	v := c.value(0)
	switch v.Kind {
	case KindNumber, KindError:
		return valOp(v)
	case KindBool:
		return numOp(float64(b2i(v.Bool)))
	}
	return numOp(0)
}

func (c *call) textAndCount(def int) ([]rune, int, *ErrorCode) {
	s, e := c.text(0)
	if e != nil {
		return nil, 0, e
	}
	n := def
	if c.has(1) {
		if n, e = c.integer(1); e != nil {
			return nil, 0, e
		}
	}
	if n < 0 {
		return nil, 0, errp(ErrValue)
	}
	return []rune(s), n, nil
}

func fnLeft(c *call) operand {
	r, n, e := c.textAndCount(1)
	if e != nil {
		return errOp(*e)
	}
	return textOp(string(r[:min(n, len(r))]))
}

func fnRight(c *call) operand {
	r, n, e := c.textAndCount(1)
	if e != nil {
		return errOp(*e)
	}
	return textOp(string(r[len(r)-min(n, len(r)):]))
}

func fnMid(c *call) operand {
	s, e := c.text(0)
	if e != nil {
		return errOp(*e)
	}
	start, e := c.integer(1)
	if e != nil {
		return errOp(*e)
	}
	n, e := c.integer(2)
	if e != nil {
		return errOp(*e)
	}
	if start < 1 || n < 0 {
		return errOp(ErrValue)
	}
	r := []rune(s)
	if start > len(r) {
		return textOp("")
	}
	return textOp(string(r[start-1 : start-1+min(n, len(r)-(start-1))]))
}

const maxTextLen = 32767

func fnRept(c *call) operand {
	s, e := c.text(0)
	if e != nil {
		return errOp(*e)
	}
	n, e := c.integer(1)
	if e != nil {
		return errOp(*e)
	}
	if n < 0 || n > maxTextLen/max(len([]rune(s)), 1) {
		return errOp(ErrValue)
	}
	return textOp(strings.Repeat(s, n))
}

func fnExact(c *call) operand {
	a, e := c.text(0)
	if e != nil {
		return errOp(*e)
	}
	b, e := c.text(1)
	if e != nil {
		return errOp(*e)
	}
	return boolOp(a == b)
}

func fnSubstitute(c *call) operand {
	var parts [3]string
	for i := range parts {
		s, e := c.text(i)
		if e != nil {
			return errOp(*e)
		}
		parts[i] = s
	}
	text, old, repl := parts[0], parts[1], parts[2]
	if old == "" {
		return textOp(text)
	}
	if !c.has(3) {
		return textOp(strings.ReplaceAll(text, old, repl))
	}
	nth, e := c.integer(3)
	if e != nil {
		return errOp(*e)
	}
	if nth < 1 {
		return errOp(ErrValue)
	}
	pos := 0
	for i := 1; ; i++ {
		j := strings.Index(text[pos:], old)
		if j < 0 {
			return textOp(text)
		}
		if i == nth {
			at := pos + j
			return textOp(text[:at] + repl + text[at+len(old):])
		}
		pos += j + len(old)
	}
}

func fnFind(c *call) operand {
	needle, e := c.text(0)
	if e != nil {
		return errOp(*e)
	}
	hay, e := c.text(1)
	if e != nil {
		return errOp(*e)
	}
	start := 1
	if c.has(2) {
		if start, e = c.integer(2); e != nil {
			return errOp(*e)
		}
	}
	r := []rune(hay)
	if start < 1 || start > len(r)+1 {
		return errOp(ErrValue)
	}
	i := strings.Index(string(r[start-1:]), needle)
	if i < 0 {
		return errOp(ErrValue)
	}
	return numOp(float64(start + len([]rune(string(r[start-1:])[:i]))))
}

func fnConcatenate(c *call) operand {
	var b strings.Builder
	for i := range c.args {
		s, e := c.text(i)
		if e != nil {
			return errOp(*e)
		}
		b.WriteString(s)
	}
	return textOp(b.String())
}

func fnSumProduct(c *call) operand {
	var h, w int
	var areas [][]CellValue
	for i, a := range c.args {
		var vals []CellValue
		ah, aw := 1, 1
		if a.area != nil {
			ah, aw = a.area.Height(), a.area.Width()
			vals = slices.Collect(a.area.Values())
		} else {
			vals = []CellValue{c.value(i)}
		}
		if i == 0 {
			h, w = ah, aw
		} else if ah != h || aw != w {
			return errOp(ErrValue)
		}
		areas = append(areas, vals)
	}
	var total float64
	for k := 0; k < h*w; k++ {
		p := 1.0
		for _, vals := range areas {
			v := vals[k]
			switch v.Kind {
			case KindError:
				return valOp(v)
			case KindNumber:
				p *= v.Num
			default:
				p = 0
			}
		}
		total += p
	}
	return numOp(total)
}

func fnDate(c *call) operand {
	var parts [3]int
	for i := range parts {
		n, e := c.integer(i)
		if e != nil {
			return errOp(*e)
		}
		parts[i] = n
	}
	serial, ok := dateSerial(parts[0], parts[1], parts[2], c.ev.DateMode)
	if !ok {
		return errOp(ErrNum)
	}
	return numOp(serial)
}

func datePart(pick func(y, m, d int) int) func(*call) operand {
	return func(c *call) operand {
		x, e := c.number(0)
		if e != nil {
			return errOp(*e)
		}
		y, m, d, ok := serialParts(x, c.ev.DateMode)
		if !ok {
			return errOp(ErrNum)
		}
		return numOp(float64(pick(y, m, d)))
	}
}

// timeSerial converts a wall-clock time to a date serial, ignoring the
// time zone offset.
func timeSerial(t time.Time, datemode int) float64 {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	epoch := epoch1900Minus1
	if datemode == Date1904 {
		epoch = epoch1904
	}
	return wall.Sub(epoch).Hours() / 24
}

func fnNow(c *call) operand {
	return numOp(timeSerial(c.ev.now(), c.ev.DateMode))
}

func fnToday(c *call) operand {
	return numOp(math.Floor(timeSerial(c.ev.now(), c.ev.DateMode)))
}
