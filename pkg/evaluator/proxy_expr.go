package evaluator

import (
	"github.com/chervil-lang/chervil/pkg/frame"
)

// exprOps is the allow-list for column-expression proxies. Each operation
// builds a new lazy expression; nothing here touches data.
var exprOps = opTable{
	// Operator spellings, for when the method form reads better than the
	// symbol, e.g. COL("a").add(1).
	"ADD":      exprBinOp("add", "+"),
	"SUB":      exprBinOp("sub", "-"),
	"MUL":      exprBinOp("mul", "*"),
	"DIV":      exprBinOp("div", "/"),
	"FLOORDIV": exprBinOp("floor_div", "//"),
	"MOD":      exprBinOp("mod", "%"),
	"POW":      exprBinOp("pow", "**"),
	"EQ":       exprBinOp("eq", "=="),
	"NE":       exprBinOp("ne", "!="),
	"LT":       exprBinOp("lt", "<"),
	"LE":       exprBinOp("le", "<="),
	"GT":       exprBinOp("gt", ">"),
	"GE":       exprBinOp("ge", ">="),
	"AND":      exprBinOp("and", "&"),
	"OR":       exprBinOp("or", "|"),
	"XOR":      exprBinOp("xor", "^"),

	"NOT": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &ExprProxy{Expr: recv.(*ExprProxy).Expr.Not()}
	}},
	"NEG": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &ExprProxy{Expr: recv.(*ExprProxy).Expr.Neg()}
	}},

	"ALIAS": {arity: "1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		name, err := argString("alias", args, 0)
		if err != nil {
			return err
		}
		return &ExprProxy{Expr: recv.(*ExprProxy).Expr.Alias(name)}
	}},

	"ISNULL": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &ExprProxy{Expr: recv.(*ExprProxy).Expr.IsNull()}
	}},

	"FILLNULL": {arity: "1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		fill, err := argExpr("fill_null", args, 0)
		if err != nil {
			return err
		}
		return &ExprProxy{Expr: recv.(*ExprProxy).Expr.FillNull(fill)}
	}},

	"ABS": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &ExprProxy{Expr: recv.(*ExprProxy).Expr.Abs()}
	}},

	"ROUND": {arity: "0-1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		places := 0
		if len(args) == 1 {
			v, err := argInt("round", args, 0)
			if err != nil {
				return err
			}
			places = v
		}
		return &ExprProxy{Expr: recv.(*ExprProxy).Expr.Round(places)}
	}},

	"CAST": {arity: "1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		dt, err := argDType("cast", args, 0)
		if err != nil {
			return err
		}
		return &ExprProxy{Expr: recv.(*ExprProxy).Expr.Cast(dt)}
	}},

	"SUM":   exprNullaryOp(func(e *frame.Expr) *frame.Expr { return e.Sum() }),
	"MEAN":  exprNullaryOp(func(e *frame.Expr) *frame.Expr { return e.Mean() }),
	"MIN":   exprNullaryOp(func(e *frame.Expr) *frame.Expr { return e.Min() }),
	"MAX":   exprNullaryOp(func(e *frame.Expr) *frame.Expr { return e.Max() }),
	"COUNT": exprNullaryOp(func(e *frame.Expr) *frame.Expr { return e.Count() }),
	"FIRST": exprNullaryOp(func(e *frame.Expr) *frame.Expr { return e.First() }),
	"LAST":  exprNullaryOp(func(e *frame.Expr) *frame.Expr { return e.Last() }),

	"CUMSUM": exprNullaryOp(func(e *frame.Expr) *frame.Expr { return e.CumSum() }),

	"ROLLINGSUM":  exprWindowOp("rolling_sum", (*frame.Expr).RollingSum),
	"ROLLINGMEAN": exprWindowOp("rolling_mean", (*frame.Expr).RollingMean),
	"ROLLINGMIN":  exprWindowOp("rolling_min", (*frame.Expr).RollingMin),
	"ROLLINGMAX":  exprWindowOp("rolling_max", (*frame.Expr).RollingMax),

	"STR": {property: true, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &Namespace{Kind: "string namespace", Expr: recv.(*ExprProxy).Expr, ops: strOps}
	}},
	"DT": {property: true, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &Namespace{Kind: "datetime namespace", Expr: recv.(*ExprProxy).Expr, ops: dtOps}
	}},
}

func exprBinOp(alias, operator string) opEntry {
	return opEntry{arity: "1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		other, err := argExpr(alias, args, 0)
		if err != nil {
			return err
		}
		return &ExprProxy{Expr: applyExprOp(operator, recv.(*ExprProxy).Expr, other)}
	}}
}

func exprNullaryOp(op func(*frame.Expr) *frame.Expr) opEntry {
	return opEntry{arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &ExprProxy{Expr: op(recv.(*ExprProxy).Expr)}
	}}
}

func exprWindowOp(alias string, op func(*frame.Expr, int) *frame.Expr) opEntry {
	return opEntry{arity: "1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		window, err := argInt(alias, args, 0)
		if err != nil {
			return err
		}
		return &ExprProxy{Expr: op(recv.(*ExprProxy).Expr, window)}
	}}
}

// strOps is the allow-list behind the .str namespace of a column expression.
var strOps = opTable{
	"CONTAINS":   nsStrArgOp("contains", (*frame.Expr).StrContains),
	"STARTSWITH": nsStrArgOp("starts_with", (*frame.Expr).StrStartsWith),
	"ENDSWITH":   nsStrArgOp("ends_with", (*frame.Expr).StrEndsWith),

	"LOWER": nsNullaryOp((*frame.Expr).StrLower),
	"UPPER": nsNullaryOp((*frame.Expr).StrUpper),
	"STRIP": nsNullaryOp((*frame.Expr).StrStrip),
	"LEN":   nsNullaryOp((*frame.Expr).StrLen),

	"REPLACE": {arity: "2", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		old, err := argString("replace", args, 0)
		if err != nil {
			return err
		}
		new, err := argString("replace", args, 1)
		if err != nil {
			return err
		}
		return &ExprProxy{Expr: recv.(*Namespace).Expr.StrReplace(old, new)}
	}},

	"SLICE": {arity: "2", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		offset, err := argInt("slice", args, 0)
		if err != nil {
			return err
		}
		length, err := argInt("slice", args, 1)
		if err != nil {
			return err
		}
		return &ExprProxy{Expr: recv.(*Namespace).Expr.StrSlice(offset, length)}
	}},
}

// dtOps is the allow-list behind the .dt namespace of a column expression.
var dtOps = opTable{
	"YEAR":    nsNullaryOp((*frame.Expr).DtYear),
	"MONTH":   nsNullaryOp((*frame.Expr).DtMonth),
	"DAY":     nsNullaryOp((*frame.Expr).DtDay),
	"HOUR":    nsNullaryOp((*frame.Expr).DtHour),
	"MINUTE":  nsNullaryOp((*frame.Expr).DtMinute),
	"SECOND":  nsNullaryOp((*frame.Expr).DtSecond),
	"WEEKDAY": nsNullaryOp((*frame.Expr).DtWeekday),
	"DATE":    nsNullaryOp((*frame.Expr).DtDate),

	"FORMAT": {arity: "1", keywords: []string{"locale"}, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		layout, err := argString("format", args, 0)
		if err != nil {
			return err
		}
		locale, err := kwString("format", kwargs, "locale", "")
		if err != nil {
			return err
		}
		return &ExprProxy{Expr: recv.(*Namespace).Expr.DtFormat(layout, locale)}
	}},
}

func nsNullaryOp(op func(*frame.Expr) *frame.Expr) opEntry {
	return opEntry{arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &ExprProxy{Expr: op(recv.(*Namespace).Expr)}
	}}
}

func nsStrArgOp(alias string, op func(*frame.Expr, string) *frame.Expr) opEntry {
	return opEntry{arity: "1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		s, err := argString(alias, args, 0)
		if err != nil {
			return err
		}
		return &ExprProxy{Expr: op(recv.(*Namespace).Expr, s)}
	}}
}
