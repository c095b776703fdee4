package formula

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

var (
	ErrStackUnderflow   = errors.New("operand stack underflow")
	ErrLeftoverOperands = errors.New("operands left on stack")
	ErrUnknownFunction  = errors.New("unknown function")
	ErrArgCount         = errors.New("wrong number of arguments")
	ErrUnsupportedToken = errors.New("unsupported token")
	errEmptyFormula     = errors.New("formula has no tokens")
)

// EvalError locates a structural problem in a token list.
type EvalError struct {
	Pos   int // index of the offending token
	Token Token
	Err   error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("token %d (%s): %v", e.Pos, e.Token, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Evaluator runs RPN token lists against a grid.
type Evaluator struct {
	Grid     Grid
	DateMode int              // Date1900 or Date1904
	Now      func() time.Time // clock for NOW and TODAY; time.Now when nil
	Logger   *slog.Logger
}

// NewEvaluator returns an evaluator over g in the 1900 date system.
func NewEvaluator(g Grid) *Evaluator {
	return &Evaluator{Grid: g}
}

func (ev *Evaluator) logger() *slog.Logger {
	if ev.Logger != nil {
		return ev.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (ev *Evaluator) now() time.Time {
	if ev.Now != nil {
		return ev.Now()
	}
	return time.Now()
}

// operand is a stack entry: a value, or a reference that is dereferenced
// only when a value is needed.
type operand struct {
	val     CellValue
	area    *AreaEval
	missing bool
}

// value dereferences o for use at origin. A range yields the cell in the
// origin's row or column when it is one cell thick, else #VALUE!.
func (o operand) value(origin Cell) CellValue {
	if o.area == nil {
		return o.val
	}
	a := o.area
	switch {
	case a.Height() == 1 && a.Width() == 1:
		return a.Grid.Cell(a.FirstRow, a.FirstCol)
	case a.Height() == 1 && origin.Col >= a.FirstCol && origin.Col <= a.LastCol:
		return a.Grid.Cell(a.FirstRow, origin.Col)
	case a.Width() == 1 && origin.Row >= a.FirstRow && origin.Row <= a.LastRow:
		return a.Grid.Cell(origin.Row, a.FirstCol)
	}
	return ErrorValue(ErrValue)
}

// Evaluate runs tokens as the formula of the cell at origin. Spreadsheet
// errors come back as error values; a Go error means the token list is
// malformed.
func (ev *Evaluator) Evaluate(tokens []Token, origin Cell) (CellValue, error) {
	if len(tokens) == 0 {
		return Blank, errEmptyFormula
	}
	stack := make([]operand, 0, len(tokens))
	pop := func(n int) ([]operand, bool) {
		if len(stack) < n {
			return nil, false
		}
		args := make([]operand, n)
		copy(args, stack[len(stack)-n:])
		stack = stack[:len(stack)-n]
		return args, true
	}

	for i, t := range tokens {
		fail := func(err error) (CellValue, error) {
			return Blank, &EvalError{Pos: i, Token: t, Err: err}
		}
		switch t.Kind {
		case TokNumber:
			stack = append(stack, operand{val: NumberValue(t.Num)})
		case TokText:
			stack = append(stack, operand{val: TextValue(t.Str)})
		case TokBool:
			stack = append(stack, operand{val: BoolValue(t.Bool)})
		case TokError:
			stack = append(stack, operand{val: ErrorValue(t.Err)})
		case TokMissing:
			stack = append(stack, operand{missing: true})
		case TokRef:
			c := t.Ref.Resolve(origin)
			stack = append(stack, ev.refOperand(c.Row, c.Col, c.Row, c.Col))
		case TokArea:
			c1, c2 := t.Area[0].Resolve(origin), t.Area[1].Resolve(origin)
			stack = append(stack, ev.refOperand(c1.Row, c1.Col, c2.Row, c2.Col))
		case TokParen:
		case TokOp:
			if t.Op.Unary() {
				args, ok := pop(1)
				if !ok {
					return fail(ErrStackUnderflow)
				}
				stack = append(stack, operand{val: t.Op.ApplyUnary(args[0].value(origin))})
				continue
			}
			args, ok := pop(2)
			if !ok {
				return fail(ErrStackUnderflow)
			}
			stack = append(stack, operand{val: t.Op.Apply(args[0].value(origin), args[1].value(origin))})
		case TokFunc:
			f, ok := FunctionByIndex(t.Func)
			if !ok {
				f, ok = LookupFunction(t.Name)
			}
			if !ok {
				return fail(ErrUnknownFunction)
			}
			if t.Argc < f.MinArgs || (f.MaxArgs >= 0 && t.Argc > f.MaxArgs) {
				return fail(fmt.Errorf("%w: %s takes %s, got %d", ErrArgCount, f.Name, f.arity(), t.Argc))
			}
			args, ok := pop(t.Argc)
			if !ok {
				return fail(ErrStackUnderflow)
			}
			res := f.fn(&call{ev: ev, origin: origin, args: args})
			if res.area == nil && res.val.IsError() {
				ev.logger().Debug("function returned error", "func", f.Name, "cell", origin, "value", res.val)
			}
			stack = append(stack, res)
		default:
			return fail(ErrUnsupportedToken)
		}
	}

	if len(stack) != 1 {
		if len(stack) == 0 {
			return Blank, ErrStackUnderflow
		}
		return Blank, fmt.Errorf("%w: %d", ErrLeftoverOperands, len(stack))
	}
	top := stack[0]
	if top.missing {
		return Blank, nil
	}
	return top.value(origin), nil
}

func (ev *Evaluator) refOperand(r1, c1, r2, c2 int) operand {
	if min(r1, r2) < 0 || min(c1, c2) < 0 {
		return operand{val: ErrorValue(ErrRef)}
	}
	return operand{area: NewAreaEval(ev.Grid, r1, c1, r2, c2)}
}

// EvaluateText parses and evaluates formula text, as in =SUM(A1:A3)*2.
func (ev *Evaluator) EvaluateText(text string, origin Cell) (CellValue, error) {
	tokens, err := Parse(text)
	if err != nil {
		return Blank, err
	}
	return ev.Evaluate(tokens, origin)
}
