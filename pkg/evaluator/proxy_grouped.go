package evaluator

import (
	"github.com/chervil-lang/chervil/pkg/frame"
)

// groupedOps is the allow-list for grouped-table proxies. Every operation
// aggregates back down to a plain table.
var groupedOps = opTable{
	"AGG": {arity: "1+", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		g := recv.(*GroupedProxy).Grouped
		exprs := make([]*frame.Expr, len(args))
		for i := range args {
			e, err := argExpr("agg", args, i)
			if err != nil {
				return err
			}
			exprs[i] = e
		}
		out, err := g.Agg(exprs...)
		if err != nil {
			return engineError(err)
		}
		return &FrameProxy{Frame: out}
	}},

	"COUNT": groupedAggOp((*frame.GroupedFrame).Count),
	"SUM":   groupedAggOp((*frame.GroupedFrame).SumAll),
	"MEAN":  groupedAggOp((*frame.GroupedFrame).MeanAll),
	"MIN":   groupedAggOp((*frame.GroupedFrame).MinAll),
	"MAX":   groupedAggOp((*frame.GroupedFrame).MaxAll),
	"FIRST": groupedAggOp((*frame.GroupedFrame).First),
	"LAST":  groupedAggOp((*frame.GroupedFrame).Last),

	"KEYS": {property: true, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		keys := recv.(*GroupedProxy).Grouped.Keys()
		out := &List{Elements: make([]Object, len(keys))}
		for i, key := range keys {
			out.Elements[i] = &String{Value: key}
		}
		return out
	}},
}

func groupedAggOp(op func(*frame.GroupedFrame) (*frame.Frame, error)) opEntry {
	return opEntry{arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		out, err := op(recv.(*GroupedProxy).Grouped)
		if err != nil {
			return engineError(err)
		}
		return &FrameProxy{Frame: out}
	}}
}

// rollingOps is the allow-list for rolling-window proxies.
var rollingOps = opTable{
	"AGG": {arity: "1+", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		r := recv.(*RollingProxy).Rolling
		exprs := make([]*frame.Expr, len(args))
		for i := range args {
			e, err := argExpr("agg", args, i)
			if err != nil {
				return err
			}
			exprs[i] = e
		}
		out, err := r.Agg(exprs...)
		if err != nil {
			return engineError(err)
		}
		return &FrameProxy{Frame: out}
	}},

	"WINDOW": {property: true, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &Integer{Value: int64(recv.(*RollingProxy).Rolling.Window())}
	}},
}
