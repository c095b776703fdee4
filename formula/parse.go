package formula

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/efp"
)

// ErrSyntax is matched by every *SyntaxError.
var ErrSyntax = errors.New("formula syntax error")

// SyntaxError reports formula text Parse cannot turn into tokens.
type SyntaxError struct {
	Formula string
	Token   string
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s: %s", e.Formula, e.Message)
	}
	return fmt.Sprintf("%s: %s near %q", e.Formula, e.Message, e.Token)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

var infixOps = map[string]Operator{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "^": OpPow, "&": OpConcat,
	"<": OpLT, "<=": OpLE, "=": OpEQ, ">=": OpGE, ">": OpGT, "<>": OpNE,
}

// precedence follows the spreadsheet: negation binds tightest, then
// percent, power, multiplication, addition, concatenation, comparison.
func precedence(o Operator) int {
	switch o {
	case OpUMinus, OpUPlus:
		return 7
	case OpPercent:
		return 6
	case OpPow:
		return 5
	case OpMul, OpDiv:
		return 4
	case OpAdd, OpSub:
		return 3
	case OpConcat:
		return 2
	}
	return 1
}

type stackKind uint8

const (
	stackOp stackKind = iota
	stackFunc
	stackParen
)

type stackEntry struct {
	kind stackKind
	op   Operator
	fn   *funcFrame
}

// funcFrame counts the arguments of a function call while it is open.
type funcFrame struct {
	name   string
	argc   int
	hasArg bool // the current argument has content
}

// Parse converts formula text such as "=SUM(A1:B2)*2" into RPN tokens. The
// leading "=" is optional. References are absolute A1 references on the
// current sheet; names, sheet references and array constants are not
// supported.
func Parse(text string) ([]Token, error) {
	p := efp.ExcelParser()
	items := p.Parse(text)
	if len(items) > 0 && items[0].TType == efp.TokenTypeOperatorInfix && items[0].TValue == "=" {
		// The tokenizer may hand back the leading "=" as a comparison.
		items = items[1:]
	}
	if len(items) == 0 {
		return nil, &SyntaxError{Formula: text, Message: "empty formula"}
	}
	fail := func(tok efp.Token, msg string) ([]Token, error) {
		return nil, &SyntaxError{Formula: text, Token: tok.TValue, Message: msg}
	}

	var out []Token
	var stack []stackEntry
	var frames []*funcFrame
	touch := func() {
		if len(frames) > 0 {
			frames[len(frames)-1].hasArg = true
		}
	}
	// popUntil moves operators to the output until an entry of kind k.
	popUntil := func(k stackKind) (stackEntry, bool) {
		for len(stack) > 0 {
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if e.kind == stackOp {
				out = append(out, OpToken(e.op))
				continue
			}
			return e, e.kind == k
		}
		return stackEntry{}, false
	}

	for _, tok := range items {
		switch tok.TType {
		case efp.TokenTypeOperand:
			touch()
			t, err := operandToken(tok)
			if err != nil {
				return fail(tok, err.Error())
			}
			out = append(out, t)

		case efp.TokenTypeOperatorPrefix:
			touch()
			op := OpUMinus
			if tok.TValue == "+" {
				op = OpUPlus
			}
			stack = append(stack, stackEntry{kind: stackOp, op: op})

		case efp.TokenTypeOperatorPostfix:
			if tok.TValue != "%" {
				return fail(tok, "unknown postfix operator")
			}
			out = append(out, OpToken(OpPercent))

		case efp.TokenTypeOperatorInfix:
			op, ok := infixOps[tok.TValue]
			if !ok {
				return fail(tok, "unsupported operator")
			}
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.kind != stackOp || precedence(top.op) < precedence(op) {
					break
				}
				out = append(out, OpToken(top.op))
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, stackEntry{kind: stackOp, op: op})

		case efp.TokenTypeSubexpression:
			if tok.TSubType == efp.TokenSubTypeStart {
				touch()
				stack = append(stack, stackEntry{kind: stackParen})
				break
			}
			if _, ok := popUntil(stackParen); !ok {
				return fail(tok, "unbalanced parenthesis")
			}
			out = append(out, Token{Kind: TokParen})

		case efp.TokenTypeFunction:
			if tok.TSubType == efp.TokenSubTypeStart {
				touch()
				f := &funcFrame{name: strings.ToUpper(tok.TValue)}
				frames = append(frames, f)
				stack = append(stack, stackEntry{kind: stackFunc, fn: f})
				break
			}
			e, ok := popUntil(stackFunc)
			if !ok {
				return fail(tok, "unbalanced function call")
			}
			f := e.fn
			if f.hasArg || f.argc > 0 {
				if !f.hasArg {
					out = append(out, MissingToken())
				}
				f.argc++
			}
			frames = frames[:len(frames)-1]
			out = append(out, FuncToken(f.name, f.argc))

		case efp.TokenTypeArgument:
			e, ok := popUntil(stackFunc)
			if !ok {
				return fail(tok, "argument separator outside a function call")
			}
			stack = append(stack, e)
			f := e.fn
			if !f.hasArg {
				out = append(out, MissingToken())
			}
			f.argc++
			f.hasArg = false

		default:
			return fail(tok, "unexpected token")
		}
	}

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if e.kind != stackOp {
			return nil, &SyntaxError{Formula: text, Message: "unclosed parenthesis"}
		}
		out = append(out, OpToken(e.op))
	}
	return out, nil
}

func operandToken(tok efp.Token) (Token, error) {
	v := tok.TValue
	switch tok.TSubType {
	case efp.TokenSubTypeText:
		return TextToken(v), nil
	case efp.TokenSubTypeNumber:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Token{}, err
		}
		return NumberToken(f), nil
	case efp.TokenSubTypeLogical:
		return BoolToken(strings.EqualFold(v, "TRUE")), nil
	case efp.TokenSubTypeError:
		c, ok := ErrorCodeFromText(v)
		if !ok {
			return Token{}, errors.New("unknown error literal")
		}
		return ErrorToken(c), nil
	case efp.TokenSubTypeRange:
		return rangeToken(v)
	}
	return Token{}, errors.New("unknown operand")
}

// rangeToken parses A1 and A1:B2 references. Dollar signs mark absolute
// components.
func rangeToken(v string) (Token, error) {
	switch strings.ToUpper(v) {
	case "TRUE":
		return BoolToken(true), nil
	case "FALSE":
		return BoolToken(false), nil
	}
	if strings.Contains(v, "!") {
		return Token{}, errors.New("sheet references are not supported")
	}
	first, second, isArea := strings.Cut(v, ":")
	r1, err := parseRef(first)
	if err != nil {
		return Token{}, err
	}
	if !isArea {
		return Token{Kind: TokRef, Ref: r1}, nil
	}
	r2, err := parseRef(second)
	if err != nil {
		return Token{}, err
	}
	return Token{Kind: TokArea, Area: [2]Ref{r1, r2}}, nil
}

func parseRef(s string) (Ref, error) {
	c, err := ParseCellName(s)
	if err != nil {
		return Ref{}, err
	}
	colAbs := strings.HasPrefix(s, "$")
	rowAbs := strings.Contains(strings.TrimPrefix(s, "$"), "$")
	return Ref{Row: c.Row, Col: c.Col, RowRel: !rowAbs, ColRel: !colAbs}, nil
}
