package evaluator

import (
	"sort"
	"strings"
	"time"

	cherrors "github.com/chervil-lang/chervil/pkg/errors"
	"github.com/chervil-lang/chervil/pkg/frame"
	"github.com/chervil-lang/chervil/pkg/lexer"
)

// The capability proxy layer. Every engine value the evaluator can reach is
// wrapped in a proxy, and every operation on it resolves through a static
// allow-list table built once at init. The tables map normalized aliases to
// entries; a miss is an attribute error (with a nearest-alias hint), never
// a fall-through to the engine's full surface. Entries do nothing beyond
// name translation, argument unwrapping, invocation, and result re-wrapping.

// opFunc implements one allow-listed operation.
type opFunc func(recv Object, args []Object, kwargs map[string]Object, env *Environment) Object

// opEntry describes one allow-listed operation.
type opEntry struct {
	fn       opFunc
	arity    string   // argument count spec, as for builtins
	keywords []string // accepted keyword argument names
	property bool     // resolved on attribute access without a call
}

// opTable maps normalized aliases to operations. Keys must already be in
// normalized form (upper-case, no separators).
type opTable map[string]opEntry

// normalizeAlias case-folds a requested attribute name and strips
// underscore separators, so FILTER, filter, and with_column all resolve.
func normalizeAlias(name string) string {
	return strings.ReplaceAll(strings.ToUpper(name), "_", "")
}

// aliases returns the table's alias names, sorted, for did-you-mean hints.
func (t opTable) aliases() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// getProxyAttribute resolves an attribute name against an allow-list.
// A property entry is invoked immediately; anything else binds to the
// receiver and waits for a call. An unknown alias fails with an attribute
// error naming the receiver kind, never reaching the wrapped engine value.
func getProxyAttribute(kind string, table opTable, recv Object, name string, tok lexer.Token) Object {
	entry, ok := table[normalizeAlias(name)]
	if !ok {
		lerr := cherrors.NewUnknownAttribute(kind, name, table.aliases())
		return &Error{
			Message: lerr.Message,
			Class:   lerr.Class,
			Code:    lerr.Code,
			Hints:   lerr.Hints,
			Line:    tok.Line,
			Column:  tok.Column,
			Data:    lerr.Data,
		}
	}

	if entry.property {
		result := entry.fn(recv, nil, nil, nil)
		if err, ok := result.(*Error); ok {
			return err.withPos(tok)
		}
		return result
	}

	return &BoundMethod{Recv: recv, Kind: kind, Alias: name, entry: entry}
}

// call invokes a bound allow-listed operation.
func (m *BoundMethod) call(tok lexer.Token, args []Object, kwargs map[string]Object, env *Environment) Object {
	if !checkArity(m.entry.arity, len(args)) {
		return arityErrorFromSpec(m.Alias, m.entry.arity, len(args)).withPos(tok)
	}
	for _, name := range sortedKeys(kwargs) {
		if !keywordAllowed(m.entry.keywords, name) {
			return newStructuredErrorWithPos("ARITY-0003", tok,
				map[string]any{"Name": name, "Function": m.Alias})
		}
	}
	result := m.entry.fn(m.Recv, args, kwargs, env)
	if err, ok := result.(*Error); ok {
		return err.withPos(tok)
	}
	return result
}

// isProxyOperand reports whether operators on this value must dispatch
// through the proxy layer rather than native semantics.
func isProxyOperand(obj Object) bool {
	switch obj.(type) {
	case *ExprProxy, *SeriesProxy:
		return true
	}
	return false
}

// objectToNative unwraps a scalar object to its engine-native value.
func objectToNative(obj Object) (any, bool) {
	switch obj := obj.(type) {
	case *Integer:
		return obj.Value, true
	case *Float:
		return obj.Value, true
	case *Boolean:
		return obj.Value, true
	case *String:
		return obj.Value, true
	case *Datetime:
		return obj.Value, true
	case *Duration:
		return obj.Value, true
	case *Null:
		return nil, true
	}
	return nil, false
}

// nativeToObject wraps an engine-native scalar back into an object.
func nativeToObject(v any) Object {
	switch v := v.(type) {
	case nil:
		return NULL
	case int64:
		return &Integer{Value: v}
	case int:
		return &Integer{Value: int64(v)}
	case float64:
		return &Float{Value: v}
	case bool:
		return nativeBoolToBooleanObject(v)
	case string:
		return &String{Value: v}
	case time.Time:
		return &Datetime{Value: v}
	case time.Duration:
		return &Duration{Value: v}
	}
	return newError("engine returned unsupported value type %T", v)
}

// toExprOperand converts an operand to an engine column expression: a
// wrapped expression passes through, a plain scalar becomes a literal.
func toExprOperand(obj Object) (*frame.Expr, bool) {
	if p, ok := obj.(*ExprProxy); ok {
		return p.Expr, true
	}
	if v, ok := objectToNative(obj); ok {
		return frame.Lit(v), true
	}
	return nil, false
}

// toSeriesOperand converts an operand to an engine series: a wrapped series
// passes through, a plain scalar becomes a length-1 series that the engine
// broadcasts.
func toSeriesOperand(obj Object) (*frame.Series, bool) {
	if p, ok := obj.(*SeriesProxy); ok {
		return p.Series, true
	}
	if v, ok := objectToNative(obj); ok {
		s, err := frame.FromValues("literal", []any{v})
		if err != nil {
			return nil, false
		}
		return s, true
	}
	return nil, false
}

// evalProxyInfix applies a binary operator where at least one operand is an
// engine value, dispatching to the operator's engine operation. Series
// operands use the eager series kernels; otherwise both sides are promoted
// to lazy column expressions.
func evalProxyInfix(tok lexer.Token, operator string, left, right Object) Object {
	_, leftSeries := left.(*SeriesProxy)
	_, rightSeries := right.(*SeriesProxy)
	_, leftExpr := left.(*ExprProxy)
	_, rightExpr := right.(*ExprProxy)

	if (leftSeries || rightSeries) && !leftExpr && !rightExpr {
		l, lok := toSeriesOperand(left)
		r, rok := toSeriesOperand(right)
		if !lok || !rok {
			return proxyOperatorError(tok, operator, left, right)
		}
		result, err := applySeriesOp(operator, l, r)
		if err != nil {
			return engineError(err).withPos(tok)
		}
		if result == nil {
			return proxyOperatorError(tok, operator, left, right)
		}
		return &SeriesProxy{Series: result}
	}

	l, lok := toExprOperand(left)
	r, rok := toExprOperand(right)
	if !lok || !rok {
		return proxyOperatorError(tok, operator, left, right)
	}
	result := applyExprOp(operator, l, r)
	if result == nil {
		return proxyOperatorError(tok, operator, left, right)
	}
	return &ExprProxy{Expr: result}
}

func proxyOperatorError(tok lexer.Token, operator string, left, right Object) *Error {
	return newStructuredErrorWithPos("OP-0001", tok, map[string]any{
		"LeftType":  string(left.Type()),
		"Operator":  operator,
		"RightType": string(right.Type()),
	})
}

// applyExprOp maps an operator symbol to its expression-engine operation.
func applyExprOp(operator string, l, r *frame.Expr) *frame.Expr {
	switch operator {
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
	return nil
}

// applySeriesOp maps an operator symbol to its series-kernel operation.
func applySeriesOp(operator string, l, r *frame.Series) (*frame.Series, error) {
	switch operator {
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
	return nil, nil
}

// evalProxyPrefix applies a unary operator to an engine value through its
// negation aliases.
func evalProxyPrefix(tok lexer.Token, operator string, right Object) Object {
	switch right := right.(type) {
	case *ExprProxy:
		switch operator {
		case "not", "~":
			return &ExprProxy{Expr: right.Expr.Not()}
		case "-":
			return &ExprProxy{Expr: right.Expr.Neg()}
		}
	case *SeriesProxy:
		switch operator {
		case "not", "~":
			s, err := right.Series.Not()
			if err != nil {
				return engineError(err).withPos(tok)
			}
			return &SeriesProxy{Series: s}
		case "-":
			s, err := right.Series.Neg()
			if err != nil {
				return engineError(err).withPos(tok)
			}
			return &SeriesProxy{Series: s}
		}
	}

	return newStructuredErrorWithPos("OP-0003", tok, map[string]any{
		"Operator": operator,
		"Type":     string(right.Type()),
	})
}

// Argument unwrapping helpers shared by the proxy families.

func argString(alias string, args []Object, i int) (string, *Error) {
	s, ok := args[i].(*String)
	if !ok {
		return "", newStructuredError("TYPE-0001", map[string]any{
			"Function": alias, "Expected": "a string", "Got": string(args[i].Type())})
	}
	return s.Value, nil
}

func argInt(alias string, args []Object, i int) (int, *Error) {
	n, ok := args[i].(*Integer)
	if !ok {
		return 0, newStructuredError("TYPE-0001", map[string]any{
			"Function": alias, "Expected": "an integer", "Got": string(args[i].Type())})
	}
	return int(n.Value), nil
}

// argExpr accepts a column expression or a plain scalar (promoted to a
// wrapped literal).
func argExpr(alias string, args []Object, i int) (*frame.Expr, *Error) {
	e, ok := toExprOperand(args[i])
	if !ok {
		return nil, newStructuredError("TYPE-0001", map[string]any{
			"Function": alias, "Expected": "a column expression", "Got": string(args[i].Type())})
	}
	return e, nil
}

// argStrings accepts either variadic strings or one list of strings.
func argStrings(alias string, args []Object) ([]string, *Error) {
	if len(args) == 1 {
		if list, ok := args[0].(*List); ok {
			args = list.Elements
		}
	}
	names := make([]string, len(args))
	for i := range args {
		name, err := argString(alias, args, i)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

// argDType accepts a dtype object or its name as a string.
func argDType(alias string, args []Object, i int) (frame.DType, *Error) {
	switch v := args[i].(type) {
	case *DType:
		return v.Value, nil
	case *String:
		dt, err := frame.ParseDType(v.Value)
		if err != nil {
			return 0, newStructuredError("TYPE-0005", map[string]any{
				"Value": v.Value, "What": "a dtype"})
		}
		return dt, nil
	}
	return 0, newStructuredError("TYPE-0001", map[string]any{
		"Function": alias, "Expected": "a dtype", "Got": string(args[i].Type())})
}

// kwBool reads an optional boolean keyword argument.
func kwBool(alias string, kwargs map[string]Object, name string, def bool) (bool, *Error) {
	v, ok := kwargs[name]
	if !ok {
		return def, nil
	}
	b, ok := v.(*Boolean)
	if !ok {
		return false, newStructuredError("TYPE-0001", map[string]any{
			"Function": alias, "Expected": "a boolean for " + name, "Got": string(v.Type())})
	}
	return b.Value, nil
}

// kwString reads an optional string keyword argument.
func kwString(alias string, kwargs map[string]Object, name, def string) (string, *Error) {
	v, ok := kwargs[name]
	if !ok {
		return def, nil
	}
	s, ok := v.(*String)
	if !ok {
		return "", newStructuredError("TYPE-0001", map[string]any{
			"Function": alias, "Expected": "a string for " + name, "Got": string(v.Type())})
	}
	return s.Value, nil
}
