package evaluator

import (
	"github.com/chervil-lang/chervil/pkg/frame"
)

// frameOps is the allow-list for table proxies. Reading, reshaping, and
// deriving tables is all here; the engine's file I/O and in-place mutation
// surface (ReadCSV, WriteCSV, Put) deliberately is not.
var frameOps = opTable{
	"FILTER": {arity: "1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		if p, ok := args[0].(*SeriesProxy); ok {
			out, err := f.FilterSeries(p.Series)
			if err != nil {
				return engineError(err)
			}
			return &FrameProxy{Frame: out}
		}
		e, eerr := argExpr("filter", args, 0)
		if eerr != nil {
			return eerr
		}
		out, err := f.Filter(e)
		if err != nil {
			return engineError(err)
		}
		return &FrameProxy{Frame: out}
	}},

	"SELECT": {arity: "1+", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		if allStringArgs(args) {
			names, err := argStrings("select", args)
			if err != nil {
				return err
			}
			out, ferr := f.Select(names...)
			if ferr != nil {
				return engineError(ferr)
			}
			return &FrameProxy{Frame: out}
		}
		exprs := make([]*frame.Expr, len(args))
		for i := range args {
			e, err := argExpr("select", args, i)
			if err != nil {
				return err
			}
			exprs[i] = e
		}
		out, err := f.SelectExprs(exprs...)
		if err != nil {
			return engineError(err)
		}
		return &FrameProxy{Frame: out}
	}},

	"DROP": {arity: "1+", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		names, err := argStrings("drop", args)
		if err != nil {
			return err
		}
		out, ferr := f.Drop(names...)
		if ferr != nil {
			return engineError(ferr)
		}
		return &FrameProxy{Frame: out}
	}},

	"RENAME": {arity: "2", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		old, err := argString("rename", args, 0)
		if err != nil {
			return err
		}
		new, err := argString("rename", args, 1)
		if err != nil {
			return err
		}
		out, ferr := f.Rename(old, new)
		if ferr != nil {
			return engineError(ferr)
		}
		return &FrameProxy{Frame: out}
	}},

	"WITHCOLUMN": {arity: "2", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		name, err := argString("with_column", args, 0)
		if err != nil {
			return err
		}
		e, err := argExpr("with_column", args, 1)
		if err != nil {
			return err
		}
		out, ferr := f.WithColumn(name, e)
		if ferr != nil {
			return engineError(ferr)
		}
		return &FrameProxy{Frame: out}
	}},

	"SORT": {arity: "1+", keywords: []string{"descending"}, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		names, err := argStrings("sort", args)
		if err != nil {
			return err
		}
		desc, err := kwBool("sort", kwargs, "descending", false)
		if err != nil {
			return err
		}
		keys := make([]frame.SortKey, len(names))
		for i, name := range names {
			keys[i] = frame.SortKey{Column: name, Descending: desc}
		}
		out, ferr := f.Sort(keys...)
		if ferr != nil {
			return engineError(ferr)
		}
		return &FrameProxy{Frame: out}
	}},

	"HEAD": {arity: "0-1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		n := 5
		if len(args) == 1 {
			v, err := argInt("head", args, 0)
			if err != nil {
				return err
			}
			n = v
		}
		return &FrameProxy{Frame: f.Head(n)}
	}},

	"TAIL": {arity: "0-1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		n := 5
		if len(args) == 1 {
			v, err := argInt("tail", args, 0)
			if err != nil {
				return err
			}
			n = v
		}
		return &FrameProxy{Frame: f.Tail(n)}
	}},

	"UNIQUE": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &FrameProxy{Frame: recv.(*FrameProxy).Frame.Unique()}
	}},

	"GROUPBY": {arity: "1+", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		names, err := argStrings("group_by", args)
		if err != nil {
			return err
		}
		out, ferr := f.GroupBy(names...)
		if ferr != nil {
			return engineError(ferr)
		}
		return &GroupedProxy{Grouped: out}
	}},

	"ROLLING": {arity: "1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		window, err := argInt("rolling", args, 0)
		if err != nil {
			return err
		}
		out, ferr := f.Rolling(window)
		if ferr != nil {
			return engineError(ferr)
		}
		return &RollingProxy{Rolling: out}
	}},

	"JOIN": {arity: "1", keywords: []string{"on", "how"}, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		other, ok := args[0].(*FrameProxy)
		if !ok {
			return newStructuredError("TYPE-0001", map[string]any{
				"Function": "join", "Expected": "a table", "Got": string(args[0].Type())})
		}
		var on []string
		if v, ok := kwargs["on"]; ok {
			switch v := v.(type) {
			case *String:
				on = []string{v.Value}
			case *List:
				names, err := argStrings("join", v.Elements)
				if err != nil {
					return err
				}
				on = names
			default:
				return newStructuredError("TYPE-0001", map[string]any{
					"Function": "join", "Expected": "a string or list for on", "Got": string(v.Type())})
			}
		}
		how, err := kwString("join", kwargs, "how", "inner")
		if err != nil {
			return err
		}
		out, ferr := f.Join(other.Frame, on, how)
		if ferr != nil {
			return engineError(ferr)
		}
		return &FrameProxy{Frame: out}
	}},

	"COLUMN": {arity: "1", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		name, err := argString("column", args, 0)
		if err != nil {
			return err
		}
		s, ferr := f.Column(name)
		if ferr != nil {
			return engineError(ferr)
		}
		return &SeriesProxy{Series: s}
	}},

	"TOMAPS": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		f := recv.(*FrameProxy).Frame
		rows := f.ToMaps()
		cols := f.Columns()
		out := &List{Elements: make([]Object, len(rows))}
		for i, row := range rows {
			d := NewDict()
			for _, col := range cols {
				d.Set(&String{Value: col}, nativeToObject(row[col]))
			}
			out.Elements[i] = d
		}
		return out
	}},

	"TOCOLUMNS": {arity: "0", fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		names, values := recv.(*FrameProxy).Frame.ToColumns()
		d := NewDict()
		for i, name := range names {
			list := &List{Elements: make([]Object, len(values[i]))}
			for j, v := range values[i] {
				list.Elements[j] = nativeToObject(v)
			}
			d.Set(&String{Value: name}, list)
		}
		return d
	}},

	"COLUMNS": {property: true, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		names := recv.(*FrameProxy).Frame.Columns()
		out := &List{Elements: make([]Object, len(names))}
		for i, name := range names {
			out.Elements[i] = &String{Value: name}
		}
		return out
	}},

	"HEIGHT": {property: true, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &Integer{Value: int64(recv.(*FrameProxy).Frame.Height())}
	}},

	"WIDTH": {property: true, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &Integer{Value: int64(recv.(*FrameProxy).Frame.Width())}
	}},

	"SHAPE": {property: true, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		h, w := recv.(*FrameProxy).Frame.Shape()
		return &Tuple{Elements: []Object{&Integer{Value: int64(h)}, &Integer{Value: int64(w)}}}
	}},
}

func allStringArgs(args []Object) bool {
	if len(args) == 0 {
		return false
	}
	for _, a := range args {
		switch a.(type) {
		case *String, *List:
		default:
			return false
		}
	}
	return true
}
