package evaluator

import (
	"github.com/chervil-lang/chervil/pkg/frame"
)

// dtypeOps is the allow-list behind the DTYPES registry binding. Every
// entry is a property yielding a dtype value for use with cast.
var dtypeOps = opTable{
	"INT64":    dtypeProp(frame.Int64),
	"INT":      dtypeProp(frame.Int64),
	"FLOAT64":  dtypeProp(frame.Float64),
	"FLOAT":    dtypeProp(frame.Float64),
	"BOOL":     dtypeProp(frame.Bool),
	"STRING":   dtypeProp(frame.String),
	"STR":      dtypeProp(frame.String),
	"DATETIME": dtypeProp(frame.Datetime),
	"DURATION": dtypeProp(frame.Duration),
}

func dtypeProp(dt frame.DType) opEntry {
	return opEntry{property: true, fn: func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object {
		return &DType{Value: dt}
	}}
}
