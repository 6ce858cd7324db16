package frame

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goodsign/monday"
)

// Expr is a lazy column expression. Building an Expr performs no work;
// Eval resolves column references against a Frame and runs the kernels.
// Expressions are immutable and safely shareable.
type Expr struct {
	kind   exprKind
	op     string // operator symbol, aggregation name, or namespace fn
	name   string // column name (colExpr) or alias (aliasExpr)
	lit    any
	args   []*Expr
	window int
	places int
	dtype  DType
	strA   string // substring / old / format layout
	strB   string // replacement / locale
	intA   int    // slice offset
	intB   int    // slice length
}

type exprKind int

const (
	colExpr exprKind = iota
	litExpr
	binExpr
	unaryExpr
	aliasExpr
	isNullExpr
	fillNullExpr
	absExpr
	roundExpr
	castExpr
	aggExpr
	cumSumExpr
	rollExpr
	strExpr
	dtExpr
)

// Col references a column by name.
func Col(name string) *Expr {
	return &Expr{kind: colExpr, name: name}
}

// Lit wraps a literal value (int64, float64, bool, string, time.Time,
// time.Duration, or nil for null).
func Lit(v any) *Expr {
	return &Expr{kind: litExpr, lit: v}
}

func bin(op string, l, r *Expr) *Expr {
	return &Expr{kind: binExpr, op: op, args: []*Expr{l, r}}
}

// Binary operators.

func (e *Expr) Add(o *Expr) *Expr      { return bin("+", e, o) }
func (e *Expr) Sub(o *Expr) *Expr     { return bin("-", e, o) }
func (e *Expr) Mul(o *Expr) *Expr     { return bin("*", e, o) }
func (e *Expr) Div(o *Expr) *Expr     { return bin("/", e, o) }
func (e *Expr) FloorDiv(o *Expr) *Expr { return bin("//", e, o) }
func (e *Expr) Mod(o *Expr) *Expr     { return bin("%", e, o) }
func (e *Expr) Pow(o *Expr) *Expr     { return bin("**", e, o) }
func (e *Expr) Eq(o *Expr) *Expr      { return bin("==", e, o) }
func (e *Expr) Ne(o *Expr) *Expr      { return bin("!=", e, o) }
func (e *Expr) Lt(o *Expr) *Expr      { return bin("<", e, o) }
func (e *Expr) Le(o *Expr) *Expr      { return bin("<=", e, o) }
func (e *Expr) Gt(o *Expr) *Expr      { return bin(">", e, o) }
func (e *Expr) Ge(o *Expr) *Expr      { return bin(">=", e, o) }
func (e *Expr) And(o *Expr) *Expr     { return bin("&", e, o) }
func (e *Expr) Or(o *Expr) *Expr      { return bin("|", e, o) }
func (e *Expr) Xor(o *Expr) *Expr     { return bin("^", e, o) }

// Unary operators.

func (e *Expr) Not() *Expr { return &Expr{kind: unaryExpr, op: "~", args: []*Expr{e}} }
func (e *Expr) Neg() *Expr { return &Expr{kind: unaryExpr, op: "-", args: []*Expr{e}} }

// Alias names the expression's output column.
func (e *Expr) Alias(name string) *Expr {
	return &Expr{kind: aliasExpr, name: name, args: []*Expr{e}}
}

// IsNull marks null rows true.
func (e *Expr) IsNull() *Expr { return &Expr{kind: isNullExpr, args: []*Expr{e}} }

// FillNull replaces null rows with the fill expression's value.
func (e *Expr) FillNull(fill *Expr) *Expr {
	return &Expr{kind: fillNullExpr, args: []*Expr{e, fill}}
}

// Abs takes the absolute value.
func (e *Expr) Abs() *Expr { return &Expr{kind: absExpr, args: []*Expr{e}} }

// Round rounds floats to the given number of decimal places.
func (e *Expr) Round(places int) *Expr {
	return &Expr{kind: roundExpr, places: places, args: []*Expr{e}}
}

// Cast converts to another dtype.
func (e *Expr) Cast(dt DType) *Expr {
	return &Expr{kind: castExpr, dtype: dt, args: []*Expr{e}}
}

// Aggregations collapse the expression to a single row.

func (e *Expr) Sum() *Expr   { return &Expr{kind: aggExpr, op: "sum", args: []*Expr{e}} }
func (e *Expr) Mean() *Expr  { return &Expr{kind: aggExpr, op: "mean", args: []*Expr{e}} }
func (e *Expr) Min() *Expr   { return &Expr{kind: aggExpr, op: "min", args: []*Expr{e}} }
func (e *Expr) Max() *Expr   { return &Expr{kind: aggExpr, op: "max", args: []*Expr{e}} }
func (e *Expr) Count() *Expr { return &Expr{kind: aggExpr, op: "count", args: []*Expr{e}} }
func (e *Expr) First() *Expr { return &Expr{kind: aggExpr, op: "first", args: []*Expr{e}} }
func (e *Expr) Last() *Expr  { return &Expr{kind: aggExpr, op: "last", args: []*Expr{e}} }

// CumSum is the running total.
func (e *Expr) CumSum() *Expr { return &Expr{kind: cumSumExpr, args: []*Expr{e}} }

// Rolling window aggregations; rows before the window fills are null.

func (e *Expr) RollingSum(window int) *Expr {
	return &Expr{kind: rollExpr, op: "sum", window: window, args: []*Expr{e}}
}

func (e *Expr) RollingMean(window int) *Expr {
	return &Expr{kind: rollExpr, op: "mean", window: window, args: []*Expr{e}}
}

func (e *Expr) RollingMin(window int) *Expr {
	return &Expr{kind: rollExpr, op: "min", window: window, args: []*Expr{e}}
}

func (e *Expr) RollingMax(window int) *Expr {
	return &Expr{kind: rollExpr, op: "max", window: window, args: []*Expr{e}}
}

// String namespace. All operate on String columns.

func (e *Expr) StrContains(sub string) *Expr {
	return &Expr{kind: strExpr, op: "contains", strA: sub, args: []*Expr{e}}
}

func (e *Expr) StrStartsWith(prefix string) *Expr {
	return &Expr{kind: strExpr, op: "startswith", strA: prefix, args: []*Expr{e}}
}

func (e *Expr) StrEndsWith(suffix string) *Expr {
	return &Expr{kind: strExpr, op: "endswith", strA: suffix, args: []*Expr{e}}
}

func (e *Expr) StrLower() *Expr { return &Expr{kind: strExpr, op: "lower", args: []*Expr{e}} }
func (e *Expr) StrUpper() *Expr { return &Expr{kind: strExpr, op: "upper", args: []*Expr{e}} }
func (e *Expr) StrStrip() *Expr { return &Expr{kind: strExpr, op: "strip", args: []*Expr{e}} }
func (e *Expr) StrLen() *Expr   { return &Expr{kind: strExpr, op: "len", args: []*Expr{e}} }

func (e *Expr) StrReplace(old, new string) *Expr {
	return &Expr{kind: strExpr, op: "replace", strA: old, strB: new, args: []*Expr{e}}
}

// StrSlice takes length runes starting at offset; a negative offset counts
// from the end.
func (e *Expr) StrSlice(offset, length int) *Expr {
	return &Expr{kind: strExpr, op: "slice", intA: offset, intB: length, args: []*Expr{e}}
}

// Temporal namespace. All operate on Datetime columns.

func (e *Expr) DtYear() *Expr    { return &Expr{kind: dtExpr, op: "year", args: []*Expr{e}} }
func (e *Expr) DtMonth() *Expr   { return &Expr{kind: dtExpr, op: "month", args: []*Expr{e}} }
func (e *Expr) DtDay() *Expr     { return &Expr{kind: dtExpr, op: "day", args: []*Expr{e}} }
func (e *Expr) DtHour() *Expr    { return &Expr{kind: dtExpr, op: "hour", args: []*Expr{e}} }
func (e *Expr) DtMinute() *Expr  { return &Expr{kind: dtExpr, op: "minute", args: []*Expr{e}} }
func (e *Expr) DtSecond() *Expr  { return &Expr{kind: dtExpr, op: "second", args: []*Expr{e}} }
func (e *Expr) DtWeekday() *Expr { return &Expr{kind: dtExpr, op: "weekday", args: []*Expr{e}} }
func (e *Expr) DtDate() *Expr    { return &Expr{kind: dtExpr, op: "date", args: []*Expr{e}} }

// DtFormat renders datetimes as strings. The layout uses Go reference time;
// a non-empty locale renders month and day names via goodsign/monday
// (e.g. "fr_FR").
func (e *Expr) DtFormat(layout, locale string) *Expr {
	return &Expr{kind: dtExpr, op: "format", strA: layout, strB: locale, args: []*Expr{e}}
}

// OutputName is the column name the expression produces: the alias if one
// is set, otherwise the leftmost source column, otherwise "literal".
func (e *Expr) OutputName() string {
	switch e.kind {
	case aliasExpr:
		return e.name
	case colExpr:
		return e.name
	case litExpr:
		return "literal"
	}
	if len(e.args) > 0 {
		return e.args[0].OutputName()
	}
	return "literal"
}

// Eval resolves the expression against a frame and returns the resulting
// series. Aggregations produce a length-1 series.
func (e *Expr) Eval(f *Frame) (*Series, error) {
	switch e.kind {
	case colExpr:
		return f.Column(e.name)

	case litExpr:
		return FromValues("literal", []any{normalizeLit(e.lit)})

	case binExpr:
		l, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		r, err := e.args[1].Eval(f)
		if err != nil {
			return nil, err
		}
		switch e.op {
		case "+":
			return l.Add(r)
		case "-":
			return l.Sub(r)
		case "*":
			return l.Mul(r)
		case "/":
			return l.Div(r)
		case "//":
			return l.FloorDiv(r)
		case "%":
			return l.Mod(r)
		case "**":
			return l.Pow(r)
		case "==":
			return l.Eq(r)
		case "!=":
			return l.Ne(r)
		case "<":
			return l.Lt(r)
		case "<=":
			return l.Le(r)
		case ">":
			return l.Gt(r)
		case ">=":
			return l.Ge(r)
		case "&":
			return l.And(r)
		case "|":
			return l.Or(r)
		case "^":
			return l.Xor(r)
		}
		return nil, fmt.Errorf("unknown operator %q", e.op)

	case unaryExpr:
		v, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		switch e.op {
		case "~":
			return v.Not()
		case "-":
			return v.Neg()
		}
		return nil, fmt.Errorf("unknown operator %q", e.op)

	case aliasExpr:
		v, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		return v.Rename(e.name), nil

	case isNullExpr:
		v, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		return v.IsNull(), nil

	case fillNullExpr:
		v, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		fill, err := e.args[1].Eval(f)
		if err != nil {
			return nil, err
		}
		return v.FillNull(fill)

	case absExpr:
		v, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		return v.Abs()

	case roundExpr:
		v, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		return v.Round(e.places)

	case castExpr:
		v, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		return v.Cast(e.dtype)

	case aggExpr:
		v, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		agg, err := aggregate(v, e.op)
		if err != nil {
			return nil, err
		}
		return FromValues(v.Name(), []any{agg})

	case cumSumExpr:
		v, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		return v.CumSum()

	case rollExpr:
		v, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		return v.rolling(e.window, e.op)

	case strExpr:
		v, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		return strNamespaceOp(v, e)

	case dtExpr:
		v, err := e.args[0].Eval(f)
		if err != nil {
			return nil, err
		}
		return dtNamespaceOp(v, e)
	}
	return nil, fmt.Errorf("unknown expression kind %d", e.kind)
}

// normalizeLit widens plain ints so FromValues sees a supported type.
func normalizeLit(v any) any {
	if n, ok := v.(int); ok {
		return int64(n)
	}
	return v
}

func strNamespaceOp(s *Series, e *Expr) (*Series, error) {
	if s.dtype != String {
		return nil, fmt.Errorf("string operation %q on %s series", e.op, s.dtype)
	}
	n := s.Len()

	boolOut := func(pred func(string) bool) *Series {
		out := &Series{name: s.name, dtype: Bool, b: make([]bool, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !s.valid[i] {
				continue
			}
			out.b[i] = pred(s.str[i])
			out.valid[i] = true
		}
		return out
	}
	strOut := func(fn func(string) string) *Series {
		out := &Series{name: s.name, dtype: String, str: make([]string, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !s.valid[i] {
				continue
			}
			out.str[i] = fn(s.str[i])
			out.valid[i] = true
		}
		return out
	}

	switch e.op {
	case "contains":
		return boolOut(func(v string) bool { return strings.Contains(v, e.strA) }), nil
	case "startswith":
		return boolOut(func(v string) bool { return strings.HasPrefix(v, e.strA) }), nil
	case "endswith":
		return boolOut(func(v string) bool { return strings.HasSuffix(v, e.strA) }), nil
	case "lower":
		return strOut(strings.ToLower), nil
	case "upper":
		return strOut(strings.ToUpper), nil
	case "strip":
		return strOut(strings.TrimSpace), nil
	case "replace":
		return strOut(func(v string) string { return strings.ReplaceAll(v, e.strA, e.strB) }), nil
	case "slice":
		return strOut(func(v string) string { return sliceRunes(v, e.intA, e.intB) }), nil
	case "len":
		out := &Series{name: s.name, dtype: Int64, i64: make([]int64, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !s.valid[i] {
				continue
			}
			out.i64[i] = int64(utf8.RuneCountInString(s.str[i]))
			out.valid[i] = true
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown string operation %q", e.op)
}

// sliceRunes slices by rune offsets; a negative offset counts back from the
// end and the window clamps to the string.
func sliceRunes(v string, offset, length int) string {
	runes := []rune(v)
	if offset < 0 {
		offset += len(runes)
	}
	if offset < 0 {
		length += offset
		offset = 0
	}
	if offset >= len(runes) || length <= 0 {
		return ""
	}
	end := offset + length
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[offset:end])
}

func dtNamespaceOp(s *Series, e *Expr) (*Series, error) {
	if s.dtype != Datetime {
		return nil, fmt.Errorf("temporal operation %q on %s series", e.op, s.dtype)
	}
	n := s.Len()

	intOut := func(fn func(time.Time) int64) *Series {
		out := &Series{name: s.name, dtype: Int64, i64: make([]int64, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !s.valid[i] {
				continue
			}
			out.i64[i] = fn(s.t[i])
			out.valid[i] = true
		}
		return out
	}

	switch e.op {
	case "year":
		return intOut(func(t time.Time) int64 { return int64(t.Year()) }), nil
	case "month":
		return intOut(func(t time.Time) int64 { return int64(t.Month()) }), nil
	case "day":
		return intOut(func(t time.Time) int64 { return int64(t.Day()) }), nil
	case "hour":
		return intOut(func(t time.Time) int64 { return int64(t.Hour()) }), nil
	case "minute":
		return intOut(func(t time.Time) int64 { return int64(t.Minute()) }), nil
	case "second":
		return intOut(func(t time.Time) int64 { return int64(t.Second()) }), nil
	case "weekday":
		// ISO numbering: Monday=1 .. Sunday=7
		return intOut(func(t time.Time) int64 { return int64((int(t.Weekday())+6)%7 + 1) }), nil
	case "date":
		out := &Series{name: s.name, dtype: Datetime, t: make([]time.Time, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !s.valid[i] {
				continue
			}
			t := s.t[i]
			out.t[i] = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			out.valid[i] = true
		}
		return out, nil
	case "format":
		out := &Series{name: s.name, dtype: String, str: make([]string, n), valid: make([]bool, n)}
		locale := monday.Locale(strings.Replace(e.strB, "-", "_", 1))
		for i := 0; i < n; i++ {
			if !s.valid[i] {
				continue
			}
			if e.strB == "" {
				out.str[i] = s.t[i].Format(e.strA)
			} else {
				out.str[i] = monday.Format(s.t[i], e.strA, locale)
			}
			out.valid[i] = true
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown temporal operation %q", e.op)
}
