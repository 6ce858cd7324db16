package evaluator

import (
	"github.com/chervil-lang/chervil/pkg/frame"
)

// seriesOps is the allow-list for series proxies. Series operations are
// eager; aggregations come back as plain scalars.
var seriesOps = opTable{
	"TOLIST": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		vals := recv.(*SeriesProxy).Series.ToList()
		out := &List{Elements: make([]Object, len(vals))}
		for i, v := range vals {
			out.Elements[i] = nativeToObject(v)
		}
		return out
	}},

	"UNIQUE": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &SeriesProxy{Series: recv.(*SeriesProxy).Series.Unique()}
	}},

	"SORT": {arity: "0", keywords: []string{"descending"}, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		desc, err := kwBool("sort", kwargs, "descending", false)
		if err != nil {
			return err
		}
		return &SeriesProxy{Series: recv.(*SeriesProxy).Series.SortedCopy(desc)}
	}},

	"HEAD": {arity: "0-1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		n := 5
		if len(args) == 1 {
			v, err := argInt("head", args, 0)
			if err != nil {
				return err
			}
			n = v
		}
		return &SeriesProxy{Series: recv.(*SeriesProxy).Series.Head(n)}
	}},

	"TAIL": {arity: "0-1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		n := 5
		if len(args) == 1 {
			v, err := argInt("tail", args, 0)
			if err != nil {
				return err
			}
			n = v
		}
		return &SeriesProxy{Series: recv.(*SeriesProxy).Series.Tail(n)}
	}},

	"CAST": {arity: "1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		dt, err := argDType("cast", args, 0)
		if err != nil {
			return err
		}
		out, serr := recv.(*SeriesProxy).Series.Cast(dt)
		if serr != nil {
			return engineError(serr)
		}
		return &SeriesProxy{Series: out}
	}},

	"RENAME": {arity: "1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		name, err := argString("rename", args, 0)
		if err != nil {
			return err
		}
		return &SeriesProxy{Series: recv.(*SeriesProxy).Series.Rename(name)}
	}},

	"COUNT": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &Integer{Value: int64(recv.(*SeriesProxy).Series.Count())}
	}},

	"SUM":  seriesAggOp((*frame.Series).Sum),
	"MEAN": seriesAggOp((*frame.Series).Mean),
	"MIN":  seriesAggOp((*frame.Series).Min),
	"MAX":  seriesAggOp((*frame.Series).Max),

	"FIRST": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return nativeToObject(recv.(*SeriesProxy).Series.First())
	}},
	"LAST": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return nativeToObject(recv.(*SeriesProxy).Series.Last())
	}},

	"ISNULL": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &SeriesProxy{Series: recv.(*SeriesProxy).Series.IsNull()}
	}},

	"FILLNULL": {arity: "1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		fill, ok := toSeriesOperand(args[0])
		if !ok {
			return newStructuredError("TYPE-0001", map[string]any{
				"Function": "fill_null", "Expected": "a scalar or series", "Got": string(args[0].Type())})
		}
		out, err := recv.(*SeriesProxy).Series.FillNull(fill)
		if err != nil {
			return engineError(err)
		}
		return &SeriesProxy{Series: out}
	}},

	"ABS": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		out, err := recv.(*SeriesProxy).Series.Abs()
		if err != nil {
			return engineError(err)
		}
		return &SeriesProxy{Series: out}
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
		out, serr := recv.(*SeriesProxy).Series.Round(places)
		if serr != nil {
			return engineError(serr)
		}
		return &SeriesProxy{Series: out}
	}},

	"CUMSUM": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		out, err := recv.(*SeriesProxy).Series.CumSum()
		if err != nil {
			return engineError(err)
		}
		return &SeriesProxy{Series: out}
	}},

	"NAME": {property: true, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &String{Value: recv.(*SeriesProxy).Series.Name()}
	}},
	"DTYPE": {property: true, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &DType{Value: recv.(*SeriesProxy).Series.DType()}
	}},
	"LEN": {property: true, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &Integer{Value: int64(recv.(*SeriesProxy).Series.Len())}
	}},
}

func seriesAggOp(op func(*frame.Series) (any, error)) opEntry {
	return opEntry{arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		v, err := op(recv.(*SeriesProxy).Series)
		if err != nil {
			return engineError(err)
		}
		return nativeToObject(v)
	}}
}
