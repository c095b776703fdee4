package formula

import (
	"strconv"
	"strings"
)

// toNumber coerces v for numeric context. Blank is 0, booleans are 1 and 0,
// text must parse as a number.
func toNumber(v CellValue) (float64, *ErrorCode) {
	switch v.Kind {
	case KindNumber:
		return v.Num, nil
	case KindBlank:
		return 0, nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindText:
		if f, ok := parseNumber(v.Str); ok {
			return f, nil
		}
		return 0, errp(ErrValue)
	}
	return 0, errp(v.Err)
}

func errp(c ErrorCode) *ErrorCode { return &c }

// parseNumber accepts the forms a cell would accept when typing a number:
// surrounding spaces, a leading sign, exponents and a trailing percent.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(s[:len(s)-1])
		scale = 0.01
	}
	if strings.ContainsAny(s, "xXpP_") || strings.EqualFold(s, "nan") || strings.Contains(strings.ToLower(s), "inf") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f * scale, true
}

// toText coerces v for text context.
func toText(v CellValue) (string, *ErrorCode) {
	if v.Kind == KindError {
		return "", errp(v.Err)
	}
	return v.String(), nil
}

// toBool coerces v for logical context. Text other than TRUE or FALSE is
// #VALUE!.
func toBool(v CellValue) (bool, *ErrorCode) {
	switch v.Kind {
	case KindBool:
		return v.Bool, nil
	case KindNumber:
		return v.Num != 0, nil
	case KindBlank:
		return false, nil
	case KindText:
		switch strings.ToUpper(strings.TrimSpace(v.Str)) {
		case "TRUE":
			return true, nil
		case "FALSE":
			return false, nil
		}
		return false, errp(ErrValue)
	}
	return false, errp(v.Err)
}

// kindRank orders values of different kinds: numbers < text < booleans.
func kindRank(k Kind) int {
	switch k {
	case KindText:
		return 1
	case KindBool:
		return 2
	}
	return 0
}

// compare returns -1, 0 or 1. A blank compares as 0, "" or FALSE depending
// on the other side. Neither side may be an error.
func compare(a, b CellValue) int {
	if a.Kind == KindBlank {
		a = blankLike(b.Kind)
	}
	if b.Kind == KindBlank {
		b = blankLike(a.Kind)
	}
	if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
		return cmpInt(ra, rb)
	}
	switch a.Kind {
	case KindText:
		return strings.Compare(strings.ToUpper(a.Str), strings.ToUpper(b.Str))
	case KindBool:
		return cmpInt(b2i(a.Bool), b2i(b.Bool))
	}
	switch {
	case a.Num < b.Num:
		return -1
	case a.Num > b.Num:
		return 1
	}
	return 0
}

func blankLike(k Kind) CellValue {
	switch k {
	case KindText:
		return TextValue("")
	case KindBool:
		return BoolValue(false)
	}
	return NumberValue(0)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
