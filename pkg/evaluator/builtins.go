package evaluator

import (
	"math"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/chervil-lang/chervil/pkg/frame"
	"github.com/chervil-lang/chervil/pkg/tableref"
)

// TableSource resolves a table reference to a frame. A nil result means the
// reference does not resolve; lookup never fails harder than that. The
// evaluator treats the source as read-only.
type TableSource interface {
	Lookup(ref tableref.Ref) *frame.Frame
}

// TableMap is the simplest TableSource: a flat name-to-frame map. Keys may
// be bare table names or "Sheet!Table" qualified names.
type TableMap map[string]*frame.Frame

func (m TableMap) Lookup(ref tableref.Ref) *frame.Frame {
	if ref.SheetName != "" {
		if f, ok := m[ref.SheetName+"!"+ref.TableName]; ok {
			return f
		}
	}
	return m[ref.TableName]
}

// BuildEnv creates the root environment for an evaluation run: constructors,
// the dtype registry, temporal constructors, scalar helpers, and constants.
// Bindings in extra override the defaults name by name.
func BuildEnv(tables TableSource, extra map[string]Object) *Environment {
	env := NewEnvironment()

	env.Set("TABLE", makeTableBuiltin(tables))
	col := &Builtin{Name: "COLUMN", Arity: "1", Fn: builtinColumn}
	env.Set("COLUMN", col)
	env.Set("COL", col)
	env.Set("LIT", &Builtin{Name: "LIT", Arity: "1", Fn: builtinLit})
	env.Set("SERIES", &Builtin{Name: "SERIES", Arity: "1-2", Fn: builtinSeries})

	env.Set("DTYPES", &DTypeRegistry{})

	env.Set("DATETIME", &Builtin{Name: "DATETIME", Arity: "1", Fn: builtinDatetime})
	env.Set("DATE", &Builtin{Name: "DATE", Arity: "1-3", Fn: builtinDate})
	env.Set("DURATION", &Builtin{Name: "DURATION", Arity: "1", Fn: builtinDuration})
	env.Set("NOW", &Builtin{Name: "NOW", Arity: "0", Fn: func(args []Object, kwargs map[string]Object, env *Environment) Object {
		return &Datetime{Value: time.Now()}
	}})
	env.Set("TODAY", &Builtin{Name: "TODAY", Arity: "0", Fn: func(args []Object, kwargs map[string]Object, env *Environment) Object {
		y, m, d := time.Now().Date()
		return &Datetime{Value: time.Date(y, m, d, 0, 0, 0, 0, time.Local)}
	}})

	env.Set("LEN", &Builtin{Name: "LEN", Arity: "1", Fn: builtinLen})
	env.Set("ABS", &Builtin{Name: "ABS", Arity: "1", Fn: builtinAbs})
	env.Set("ROUND", &Builtin{Name: "ROUND", Arity: "1-2", Fn: builtinRound})
	env.Set("MIN", &Builtin{Name: "MIN", Arity: "1+", Fn: makeExtremum("MIN", -1)})
	env.Set("MAX", &Builtin{Name: "MAX", Arity: "1+", Fn: makeExtremum("MAX", 1)})
	env.Set("SUM", &Builtin{Name: "SUM", Arity: "1+", Fn: builtinSum})
	env.Set("FORMAT", &Builtin{Name: "FORMAT", Arity: "1", Keywords: []string{"locale"}, Fn: builtinFormat})

	env.Set("TRUE", TRUE)
	env.Set("FALSE", FALSE)
	env.Set("NULL", NULL)
	env.Set("True", TRUE)
	env.Set("False", FALSE)
	env.Set("None", NULL)

	for name, val := range extra {
		env.Set(name, val)
	}

	return env
}

// makeTableBuiltin builds the TABLE callable over a table source. A string
// argument resolves as a table reference; a list of dicts or a dict of
// lists constructs a fresh frame.
func makeTableBuiltin(tables TableSource) *Builtin {
	return &Builtin{Name: "TABLE", Arity: "1", Fn: func(args []Object, kwargs map[string]Object, env *Environment) Object {
		switch arg := args[0].(type) {
		case *String:
			ref := tableref.Parse(arg.Value)
			if tables == nil {
				return NULL
			}
			f := tables.Lookup(ref)
			if f == nil {
				// Unresolvable references degrade to NULL; callers check.
				return NULL
			}
			if ref.ColumnName != "" {
				s, err := f.Column(ref.ColumnName)
				if err != nil {
					return engineError(err)
				}
				return &SeriesProxy{Series: s}
			}
			return &FrameProxy{Frame: f}

		case *List:
			return tableFromRows(arg.Elements)

		case *Dict:
			return tableFromColumns(arg)
		}

		return newStructuredError("TYPE-0001", map[string]any{
			"Function": "TABLE",
			"Expected": "a reference string, a list of dictionaries, or a dictionary of lists",
			"Got":      string(args[0].Type()),
		})
	}}
}

// tableFromRows builds a frame from a list of dictionaries, one per row.
// Column order is first appearance across the rows.
func tableFromRows(rows []Object) Object {
	maps := make([]map[string]any, len(rows))
	var columns []string
	seen := make(map[string]bool)

	for i, row := range rows {
		d, ok := row.(*Dict)
		if !ok {
			return newStructuredError("TYPE-0001", map[string]any{
				"Function": "TABLE", "Expected": "a dictionary per row", "Got": string(row.Type())})
		}
		m := make(map[string]any, len(d.Order))
		for _, key := range d.Order {
			pair := d.Pairs[key]
			name, ok := pair.Key.(*String)
			if !ok {
				return newStructuredError("TYPE-0001", map[string]any{
					"Function": "TABLE", "Expected": "string column names", "Got": string(pair.Key.Type())})
			}
			v, ok := objectToNative(pair.Value)
			if !ok {
				return newStructuredError("TYPE-0001", map[string]any{
					"Function": "TABLE", "Expected": "scalar cell values", "Got": string(pair.Value.Type())})
			}
			m[name.Value] = v
			if !seen[name.Value] {
				seen[name.Value] = true
				columns = append(columns, name.Value)
			}
		}
		maps[i] = m
	}

	f, err := frame.FromMaps(maps, columns)
	if err != nil {
		return engineError(err)
	}
	return &FrameProxy{Frame: f}
}

// tableFromColumns builds a frame from a dictionary of column lists.
func tableFromColumns(d *Dict) Object {
	names := make([]string, 0, len(d.Order))
	values := make([][]any, 0, len(d.Order))

	for _, key := range d.Order {
		pair := d.Pairs[key]
		name, ok := pair.Key.(*String)
		if !ok {
			return newStructuredError("TYPE-0001", map[string]any{
				"Function": "TABLE", "Expected": "string column names", "Got": string(pair.Key.Type())})
		}
		list, ok := pair.Value.(*List)
		if !ok {
			return newStructuredError("TYPE-0001", map[string]any{
				"Function": "TABLE", "Expected": "a list per column", "Got": string(pair.Value.Type())})
		}
		vals := make([]any, len(list.Elements))
		for i, el := range list.Elements {
			v, ok := objectToNative(el)
			if !ok {
				return newStructuredError("TYPE-0001", map[string]any{
					"Function": "TABLE", "Expected": "scalar cell values", "Got": string(el.Type())})
			}
			vals[i] = v
		}
		names = append(names, name.Value)
		values = append(values, vals)
	}

	f, err := frame.FromColumns(names, values)
	if err != nil {
		return engineError(err)
	}
	return &FrameProxy{Frame: f}
}

func builtinColumn(args []Object, kwargs map[string]Object, env *Environment) Object {
	name, err := argString("COLUMN", args, 0)
	if err != nil {
		return err
	}
	return &ExprProxy{Expr: frame.Col(name)}
}

func builtinLit(args []Object, kwargs map[string]Object, env *Environment) Object {
	v, ok := objectToNative(args[0])
	if !ok {
		return newStructuredError("TYPE-0001", map[string]any{
			"Function": "LIT", "Expected": "a scalar", "Got": string(args[0].Type())})
	}
	return &ExprProxy{Expr: frame.Lit(v)}
}

// builtinSeries constructs a typed column from a list of values, optionally
// named: SERIES(values) or SERIES(name, values).
func builtinSeries(args []Object, kwargs map[string]Object, env *Environment) Object {
	name := "series"
	values := args[0]
	if len(args) == 2 {
		n, err := argString("SERIES", args, 0)
		if err != nil {
			return err
		}
		name = n
		values = args[1]
	}

	list, ok := values.(*List)
	if !ok {
		return newStructuredError("TYPE-0001", map[string]any{
			"Function": "SERIES", "Expected": "a list of values", "Got": string(values.Type())})
	}
	vals := make([]any, len(list.Elements))
	for i, el := range list.Elements {
		v, ok := objectToNative(el)
		if !ok {
			return newStructuredError("TYPE-0001", map[string]any{
				"Function": "SERIES", "Expected": "scalar values", "Got": string(el.Type())})
		}
		vals[i] = v
	}

	s, err := frame.FromValues(name, vals)
	if err != nil {
		return engineError(err)
	}
	return &SeriesProxy{Series: s}
}

func builtinDatetime(args []Object, kwargs map[string]Object, env *Environment) Object {
	s, err := argString("DATETIME", args, 0)
	if err != nil {
		return err
	}
	t, perr := dateparse.ParseAny(s)
	if perr != nil {
		return newStructuredError("TYPE-0005", map[string]any{
			"Value": s, "What": "a datetime"})
	}
	return &Datetime{Value: t}
}

// builtinDate accepts a parseable date string or explicit year, month, day.
func builtinDate(args []Object, kwargs map[string]Object, env *Environment) Object {
	if len(args) == 1 {
		s, err := argString("DATE", args, 0)
		if err != nil {
			return err
		}
		t, perr := dateparse.ParseAny(s)
		if perr != nil {
			return newStructuredError("TYPE-0005", map[string]any{
				"Value": s, "What": "a date"})
		}
		y, m, d := t.Date()
		return &Datetime{Value: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
	}
	if len(args) != 3 {
		return arityErrorFromSpec("DATE", "1-3", len(args))
	}
	y, err := argInt("DATE", args, 0)
	if err != nil {
		return err
	}
	m, err := argInt("DATE", args, 1)
	if err != nil {
		return err
	}
	d, err := argInt("DATE", args, 2)
	if err != nil {
		return err
	}
	return &Datetime{Value: time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)}
}

func builtinDuration(args []Object, kwargs map[string]Object, env *Environment) Object {
	s, err := argString("DURATION", args, 0)
	if err != nil {
		return err
	}
	d, perr := time.ParseDuration(s)
	if perr != nil {
		return newStructuredError("TYPE-0005", map[string]any{
			"Value": s, "What": "a duration"})
	}
	return &Duration{Value: d}
}

func builtinLen(args []Object, kwargs map[string]Object, env *Environment) Object {
	switch arg := args[0].(type) {
	case *String:
		return &Integer{Value: int64(len([]rune(arg.Value)))}
	case *List:
		return &Integer{Value: int64(len(arg.Elements))}
	case *Tuple:
		return &Integer{Value: int64(len(arg.Elements))}
	case *Dict:
		return &Integer{Value: int64(len(arg.Order))}
	case *SeriesProxy:
		return &Integer{Value: int64(arg.Series.Len())}
	case *FrameProxy:
		return &Integer{Value: int64(arg.Frame.Height())}
	}
	return newStructuredError("TYPE-0001", map[string]any{
		"Function": "LEN", "Expected": "a string, collection, series, or table", "Got": string(args[0].Type())})
}

func builtinAbs(args []Object, kwargs map[string]Object, env *Environment) Object {
	switch arg := args[0].(type) {
	case *Integer:
		if arg.Value < 0 {
			return &Integer{Value: -arg.Value}
		}
		return arg
	case *Float:
		return &Float{Value: math.Abs(arg.Value)}
	case *Duration:
		if arg.Value < 0 {
			return &Duration{Value: -arg.Value}
		}
		return arg
	case *ExprProxy:
		return &ExprProxy{Expr: arg.Expr.Abs()}
	case *SeriesProxy:
		out, err := arg.Series.Abs()
		if err != nil {
			return engineError(err)
		}
		return &SeriesProxy{Series: out}
	}
	return newStructuredError("TYPE-0001", map[string]any{
		"Function": "ABS", "Expected": "a number", "Got": string(args[0].Type())})
}

func builtinRound(args []Object, kwargs map[string]Object, env *Environment) Object {
	places := 0
	if len(args) == 2 {
		p, err := argInt("ROUND", args, 1)
		if err != nil {
			return err
		}
		places = p
	}

	switch arg := args[0].(type) {
	case *Integer:
		return arg
	case *Float:
		scale := math.Pow(10, float64(places))
		return &Float{Value: math.Round(arg.Value*scale) / scale}
	case *ExprProxy:
		return &ExprProxy{Expr: arg.Expr.Round(places)}
	case *SeriesProxy:
		out, err := arg.Series.Round(places)
		if err != nil {
			return engineError(err)
		}
		return &SeriesProxy{Series: out}
	}
	return newStructuredError("TYPE-0001", map[string]any{
		"Function": "ROUND", "Expected": "a number", "Got": string(args[0].Type())})
}

// makeExtremum builds MIN or MAX: over variadic scalars, one list, or one
// series. sign is -1 for MIN, 1 for MAX.
func makeExtremum(name string, sign int) BuiltinFunction {
	return func(args []Object, kwargs map[string]Object, env *Environment) Object {
		if len(args) == 1 {
			switch arg := args[0].(type) {
			case *List:
				args = arg.Elements
			case *SeriesProxy:
				var v any
				var err error
				if sign < 0 {
					v, err = arg.Series.Min()
				} else {
					v, err = arg.Series.Max()
				}
				if err != nil {
					return engineError(err)
				}
				return nativeToObject(v)
			case *ExprProxy:
				if sign < 0 {
					return &ExprProxy{Expr: arg.Expr.Min()}
				}
				return &ExprProxy{Expr: arg.Expr.Max()}
			}
		}
		if len(args) == 0 {
			return arityErrorFromSpec(name, "1+", 0)
		}

		best := args[0]
		for _, arg := range args[1:] {
			cmp, ok := compareOrdered(arg, best)
			if !ok {
				return newStructuredError("OP-0004", map[string]any{
					"LeftType":  string(arg.Type()),
					"RightType": string(best.Type()),
				})
			}
			if cmp*sign > 0 {
				best = arg
			}
		}
		return best
	}
}

// builtinSum adds variadic numbers, one list, or one series. Integers stay
// integers until a float appears.
func builtinSum(args []Object, kwargs map[string]Object, env *Environment) Object {
	if len(args) == 1 {
		switch arg := args[0].(type) {
		case *List:
			args = arg.Elements
		case *SeriesProxy:
			v, err := arg.Series.Sum()
			if err != nil {
				return engineError(err)
			}
			return nativeToObject(v)
		case *ExprProxy:
			return &ExprProxy{Expr: arg.Expr.Sum()}
		}
	}

	var intSum int64
	var floatSum float64
	isFloat := false
	for _, arg := range args {
		switch arg := arg.(type) {
		case *Integer:
			intSum += arg.Value
		case *Float:
			isFloat = true
			floatSum += arg.Value
		default:
			return newStructuredError("TYPE-0001", map[string]any{
				"Function": "SUM", "Expected": "numbers", "Got": string(arg.Type())})
		}
	}
	if isFloat {
		return &Float{Value: floatSum + float64(intSum)}
	}
	return &Integer{Value: intSum}
}

// builtinFormat renders a number with locale-aware grouping, e.g.
// FORMAT(1234567.5, locale="de") yields "1.234.567,5".
func builtinFormat(args []Object, kwargs map[string]Object, env *Environment) Object {
	locale, err := kwString("FORMAT", kwargs, "locale", "en")
	if err != nil {
		return err
	}
	tag, terr := language.Parse(locale)
	if terr != nil {
		return newStructuredError("TYPE-0005", map[string]any{
			"Value": locale, "What": "a locale"})
	}
	p := message.NewPrinter(tag)

	switch arg := args[0].(type) {
	case *Integer:
		return &String{Value: p.Sprint(number.Decimal(arg.Value))}
	case *Float:
		return &String{Value: p.Sprint(number.Decimal(arg.Value))}
	case *String:
		return arg
	default:
		return &String{Value: arg.Inspect()}
	}
}
