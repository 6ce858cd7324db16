// Package evaluator walks Chervil parse trees and produces values.
//
// Values are Objects in the interpreter's object model. Engine values
// (frames, column expressions, series, grouped views) never appear bare:
// they are wrapped in capability proxies that expose an explicit allow-list
// of operations and nothing else. The proxy layer is the security boundary
// between user formulas and the pkg/frame engine.
package evaluator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chervil-lang/chervil/pkg/ast"
	cherrors "github.com/chervil-lang/chervil/pkg/errors"
	"github.com/chervil-lang/chervil/pkg/frame"
)

// ObjectType represents the type of objects in the language
type ObjectType string

const (
	INTEGER_OBJ  = "INTEGER"
	FLOAT_OBJ    = "FLOAT"
	BOOLEAN_OBJ  = "BOOLEAN"
	STRING_OBJ   = "STRING"
	NULL_OBJ     = "NULL"
	ERROR_OBJ    = "ERROR"
	BUILTIN_OBJ  = "BUILTIN"
	LAMBDA_OBJ   = "LAMBDA"
	LIST_OBJ     = "LIST"
	TUPLE_OBJ    = "TUPLE"
	DICT_OBJ     = "DICTIONARY"
	DATETIME_OBJ = "DATETIME"
	DURATION_OBJ = "DURATION"

	// Capability-proxy object types. Each wraps exactly one engine value.
	TABLE_OBJ      = "TABLE"
	EXPRESSION_OBJ = "EXPRESSION"
	SERIES_OBJ     = "SERIES"
	GROUPED_OBJ    = "GROUPED_TABLE"
	ROLLING_OBJ    = "ROLLING_TABLE"
	NAMESPACE_OBJ  = "NAMESPACE"
	DTYPE_OBJ      = "DTYPE"
	DTYPES_OBJ     = "DTYPES"
	METHOD_OBJ     = "BOUND_METHOD"
)

// Object represents all values in the language
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Integer represents integer objects
type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }

// Float represents floating-point objects
type Float struct {
	Value float64
}

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return strconv.FormatFloat(f.Value, 'g', -1, 64) }

// Boolean represents boolean objects
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

// String represents string objects
type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// Null represents null objects
type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }

// Datetime represents a point in time
type Datetime struct {
	Value time.Time
}

func (d *Datetime) Type() ObjectType { return DATETIME_OBJ }
func (d *Datetime) Inspect() string  { return d.Value.Format(time.RFC3339) }

// Duration represents a span of time
type Duration struct {
	Value time.Duration
}

func (d *Duration) Type() ObjectType { return DURATION_OBJ }
func (d *Duration) Inspect() string  { return d.Value.String() }

// Error represents error objects. Evaluation errors travel through the tree
// walk as Error objects (checked with isError) and convert to structured
// language errors at the public API boundary.
type Error struct {
	Message string
	Line    int
	Column  int
	Class   cherrors.ErrorClass
	Code    string
	Hints   []string
	Data    map[string]any
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return "ERROR: " + e.Message
}

// ToLanguageError converts this Error to a structured error for callers.
func (e *Error) ToLanguageError() *cherrors.Error {
	class := e.Class
	if class == "" {
		class = cherrors.ClassType
	}
	return &cherrors.Error{
		Class:   class,
		Code:    e.Code,
		Message: e.Message,
		Hints:   e.Hints,
		Line:    e.Line,
		Column:  e.Column,
		Data:    e.Data,
	}
}

// BuiltinFunction is the signature of built-in functions. Keyword arguments
// arrive as a name-to-value map (nil when none were given).
type BuiltinFunction func(args []Object, kwargs map[string]Object, env *Environment) Object

// Builtin represents built-in function objects
type Builtin struct {
	Name     string
	Arity    string   // "0", "1", "1-2", "1+", ...
	Keywords []string // accepted keyword argument names
	Fn       BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "builtin " + b.Name }

// Lambda represents lambda objects. The environment is captured by
// reference; invocation layers a child scope on top of it.
type Lambda struct {
	Params []*ast.Identifier
	Body   ast.Expression
	Env    *Environment
}

func (l *Lambda) Type() ObjectType { return LAMBDA_OBJ }
func (l *Lambda) Inspect() string {
	params := make([]string, len(l.Params))
	for i, p := range l.Params {
		params[i] = p.Value
	}
	return fmt.Sprintf("lambda %s: %s", strings.Join(params, ", "), l.Body.String())
}

// List represents list objects
type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	elements := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		elements[i] = inspectQuoted(e)
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

// Tuple represents tuple objects
type Tuple struct {
	Elements []Object
}

func (t *Tuple) Type() ObjectType { return TUPLE_OBJ }
func (t *Tuple) Inspect() string {
	elements := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		elements[i] = inspectQuoted(e)
	}
	if len(elements) == 1 {
		return "(" + elements[0] + ",)"
	}
	return "(" + strings.Join(elements, ", ") + ")"
}

// DictPair holds one dictionary entry.
type DictPair struct {
	Key   Object
	Value Object
}

// Dict represents dictionary objects. Pairs is keyed by the canonical hash
// of the key object; Order preserves first-insertion order for display.
type Dict struct {
	Pairs map[string]DictPair
	Order []string
}

func (d *Dict) Type() ObjectType { return DICT_OBJ }
func (d *Dict) Inspect() string {
	pairs := make([]string, 0, len(d.Order))
	for _, h := range d.Order {
		pair := d.Pairs[h]
		pairs = append(pairs, inspectQuoted(pair.Key)+": "+inspectQuoted(pair.Value))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// Get looks up a value by key object.
func (d *Dict) Get(key Object) (Object, bool) {
	h, err := hashKey(key)
	if err != nil {
		return nil, false
	}
	pair, ok := d.Pairs[h]
	if !ok {
		return nil, false
	}
	return pair.Value, true
}

// Set binds a key, keeping the original position when the key repeats.
func (d *Dict) Set(key, value Object) *Error {
	h, err := hashKey(key)
	if err != nil {
		return err
	}
	if _, ok := d.Pairs[h]; !ok {
		d.Order = append(d.Order, h)
	}
	d.Pairs[h] = DictPair{Key: key, Value: value}
	return nil
}

// NewDict creates an empty dictionary.
func NewDict() *Dict {
	return &Dict{Pairs: make(map[string]DictPair)}
}

// hashKey returns a canonical, type-tagged encoding of a dictionary key.
// Keys are restricted to strings, numbers, booleans, and tuples of those.
func hashKey(key Object) (string, *Error) {
	switch k := key.(type) {
	case *String:
		return "s:" + k.Value, nil
	case *Integer:
		return "i:" + strconv.FormatInt(k.Value, 10), nil
	case *Float:
		// An integral float hashes like the matching integer
		if k.Value == float64(int64(k.Value)) {
			return "i:" + strconv.FormatInt(int64(k.Value), 10), nil
		}
		return "f:" + strconv.FormatFloat(k.Value, 'g', -1, 64), nil
	case *Boolean:
		return "b:" + strconv.FormatBool(k.Value), nil
	case *Tuple:
		parts := make([]string, len(k.Elements))
		for i, e := range k.Elements {
			h, err := hashKey(e)
			if err != nil {
				return "", err
			}
			parts[i] = strconv.Itoa(len(h)) + ":" + h
		}
		return "t:" + strings.Join(parts, ""), nil
	}
	return "", newStructuredError("TYPE-0004", map[string]any{"Got": string(key.Type())})
}

// inspectQuoted renders a value for display inside a collection, where
// strings keep their quotes.
func inspectQuoted(obj Object) string {
	if s, ok := obj.(*String); ok {
		return strconv.Quote(s.Value)
	}
	if obj == nil {
		return "null"
	}
	return obj.Inspect()
}

// sortedKeys is a small helper for deterministic error hints.
func sortedKeys(m map[string]Object) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FrameProxy wraps an engine frame behind the frame allow-list.
type FrameProxy struct {
	Frame *frame.Frame
}

func (p *FrameProxy) Type() ObjectType { return TABLE_OBJ }
func (p *FrameProxy) Inspect() string  { return p.Frame.String() }

// ExprProxy wraps a lazy column expression behind the expression allow-list.
type ExprProxy struct {
	Expr *frame.Expr
}

func (p *ExprProxy) Type() ObjectType { return EXPRESSION_OBJ }
func (p *ExprProxy) Inspect() string  { return "<expression " + p.Expr.OutputName() + ">" }

// SeriesProxy wraps a typed column behind the series allow-list.
type SeriesProxy struct {
	Series *frame.Series
}

func (p *SeriesProxy) Type() ObjectType { return SERIES_OBJ }
func (p *SeriesProxy) Inspect() string {
	vals := p.Series.ToList()
	parts := make([]string, len(vals))
	for i, v := range vals {
		if v == nil {
			parts[i] = "null"
		} else {
			parts[i] = p.Series.FormatValue(i)
		}
	}
	return fmt.Sprintf("%s [%s] (%s)", p.Series.Name(), strings.Join(parts, ", "), p.Series.DType())
}

// GroupedProxy wraps a group-by view behind the grouped-view allow-list.
type GroupedProxy struct {
	Grouped *frame.GroupedFrame
}

func (p *GroupedProxy) Type() ObjectType { return GROUPED_OBJ }
func (p *GroupedProxy) Inspect() string {
	return fmt.Sprintf("<grouped table by %s (%d groups)>",
		strings.Join(p.Grouped.Keys(), ", "), p.Grouped.NumGroups())
}

// RollingProxy wraps a rolling-window view behind the rolling allow-list.
type RollingProxy struct {
	Rolling *frame.RollingFrame
}

func (p *RollingProxy) Type() ObjectType { return ROLLING_OBJ }
func (p *RollingProxy) Inspect() string {
	return fmt.Sprintf("<rolling table (window %d)>", p.Rolling.Window())
}

// Namespace is a proxy-wrapped sub-object of a column expression: the
// string-operations and temporal-operations views reached via .STR and .DT.
type Namespace struct {
	Kind string // "string namespace" or "temporal namespace"
	Expr *frame.Expr
	ops  opTable
}

func (n *Namespace) Type() ObjectType { return NAMESPACE_OBJ }
func (n *Namespace) Inspect() string  { return "<" + n.Kind + ">" }

// DType represents a scalar type from the registry.
type DType struct {
	Value frame.DType
}

func (d *DType) Type() ObjectType { return DTYPE_OBJ }
func (d *DType) Inspect() string  { return d.Value.String() }

// DTypeRegistry is the scalar type registry bound as DTYPES. Attribute
// access is case-insensitive and resolves through the registry allow-list.
type DTypeRegistry struct{}

func (d *DTypeRegistry) Type() ObjectType { return DTYPES_OBJ }
func (d *DTypeRegistry) Inspect() string  { return "<dtype registry>" }

// BoundMethod is an allow-listed operation bound to its receiver, ready to
// be called. Produced by proxy attribute lookup.
type BoundMethod struct {
	Recv  Object
	Kind  string // receiver kind for error messages, e.g. "table"
	Alias string // the alias as requested
	entry opEntry
}

func (m *BoundMethod) Type() ObjectType { return METHOD_OBJ }
func (m *BoundMethod) Inspect() string  { return fmt.Sprintf("<method %s of %s>", m.Alias, m.Kind) }
