package evaluator

import (
	"math"
	"time"

	"github.com/chervil-lang/chervil/pkg/ast"
	cherrors "github.com/chervil-lang/chervil/pkg/errors"
	"github.com/chervil-lang/chervil/pkg/frame"
	"github.com/chervil-lang/chervil/pkg/lexer"
)

// Shared singletons. There is only one true, one false, and one null.
var (
	NULL  = &Null{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

func nativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// Eval walks the parse tree and produces a value. Errors travel back as
// *Error objects; every dispatch arm short-circuits on them, so the first
// error aborts the whole evaluation with no partial results.
func Eval(node ast.Node, env *Environment) Object {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return evalProgram(node, env)

	case *ast.ExpressionStatement:
		return Eval(node.Expression, env)

	case *ast.AssignStatement:
		val := Eval(node.Value, env)
		if isError(val) {
			return val
		}
		env.Set(node.Name.Value, val)
		return val

	// Literals
	case *ast.IntegerLiteral:
		return &Integer{Value: node.Value}

	case *ast.FloatLiteral:
		return &Float{Value: node.Value}

	case *ast.StringLiteral:
		return &String{Value: node.Value}

	case *ast.TableLiteral:
		return evalTableLiteral(node, env)

	case *ast.ColumnLiteral:
		return &ExprProxy{Expr: frame.Col(node.Name)}

	case *ast.ListLiteral:
		elements := evalExpressions(node.Elements, env)
		if len(elements) == 1 && isError(elements[0]) {
			return elements[0]
		}
		return &List{Elements: elements}

	case *ast.TupleLiteral:
		elements := evalExpressions(node.Elements, env)
		if len(elements) == 1 && isError(elements[0]) {
			return elements[0]
		}
		return &Tuple{Elements: elements}

	case *ast.DictLiteral:
		return evalDictLiteral(node, env)

	case *ast.LambdaLiteral:
		return &Lambda{Params: node.Params, Body: node.Body, Env: env}

	// Expressions
	case *ast.Identifier:
		return evalIdentifier(node, env)

	case *ast.PrefixExpression:
		right := Eval(node.Right, env)
		if isError(right) {
			return right
		}
		return evalPrefixExpression(node.Token, node.Operator, right)

	case *ast.InfixExpression:
		left := Eval(node.Left, env)
		if isError(left) {
			return left
		}
		right := Eval(node.Right, env)
		if isError(right) {
			return right
		}
		return evalInfixExpression(node.Token, node.Operator, left, right)

	case *ast.ComparisonExpression:
		return evalComparisonExpression(node, env)

	case *ast.CallExpression:
		return evalCallExpression(node, env)

	case *ast.AttributeExpression:
		return evalAttributeExpression(node, env)
	}

	return newError("unknown node type: %T", node)
}

// evalProgram runs the statements in order. The result is the value of the
// final expression statement; the parser guarantees scripts end with one.
func evalProgram(program *ast.Program, env *Environment) Object {
	var result Object = NULL

	for _, statement := range program.Statements {
		result = Eval(statement, env)
		if isError(result) {
			return result
		}
	}

	return result
}

func evalExpressions(exps []ast.Expression, env *Environment) []Object {
	var result []Object

	for _, e := range exps {
		evaluated := Eval(e, env)
		if isError(evaluated) {
			return []Object{evaluated}
		}
		result = append(result, evaluated)
	}

	return result
}

func evalIdentifier(node *ast.Identifier, env *Environment) Object {
	if val, ok := env.Get(node.Value); ok {
		return val
	}
	return undefinedIdentifierError(node.Token, node.Value, env)
}

func undefinedIdentifierError(tok lexer.Token, name string, env *Environment) *Error {
	lerr := cherrors.NewUndefinedIdentifier(name, env.AllIdentifiers())
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

// evalTableLiteral resolves t"ref" through the environment's TABLE binding,
// so table literals and TABLE(...) calls share one resolution path and
// caller-supplied bindings can replace it.
func evalTableLiteral(node *ast.TableLiteral, env *Environment) Object {
	fn, ok := env.Get("TABLE")
	if !ok {
		return newErrorWithPos(node.Token, "no TABLE binding in this environment")
	}
	result := applyCall(node.Token, fn, []Object{&String{Value: node.Ref}}, nil, env)
	if err, ok := result.(*Error); ok && err.Line == 0 {
		err.Line = node.Token.Line
		err.Column = node.Token.Column
	}
	return result
}

func evalDictLiteral(node *ast.DictLiteral, env *Environment) Object {
	dict := NewDict()

	for i, keyExpr := range node.Keys {
		key := Eval(keyExpr, env)
		if isError(key) {
			return key
		}
		value := Eval(node.Values[i], env)
		if isError(value) {
			return value
		}
		// Duplicate keys keep the last value
		if err := dict.Set(key, value); err != nil {
			return err
		}
	}

	return dict
}

func evalPrefixExpression(tok lexer.Token, operator string, right Object) Object {
	if isProxyOperand(right) {
		return evalProxyPrefix(tok, operator, right)
	}

	switch operator {
	case "not":
		return nativeBoolToBooleanObject(!isTruthy(right))
	case "-":
		switch r := right.(type) {
		case *Integer:
			return &Integer{Value: -r.Value}
		case *Float:
			return &Float{Value: -r.Value}
		case *Duration:
			return &Duration{Value: -r.Value}
		}
	case "~":
		switch r := right.(type) {
		case *Integer:
			return &Integer{Value: ^r.Value}
		case *Boolean:
			return nativeBoolToBooleanObject(!r.Value)
		}
	}

	return newStructuredErrorWithPos("OP-0003", tok, map[string]any{
		"Operator": operator,
		"Type":     string(right.Type()),
	})
}

// isTruthy follows conventional emptiness rules: null, false, zero, and
// empty collections are false, everything else is true.
func isTruthy(obj Object) bool {
	switch obj := obj.(type) {
	case *Null:
		return false
	case *Boolean:
		return obj.Value
	case *Integer:
		return obj.Value != 0
	case *Float:
		return obj.Value != 0
	case *String:
		return obj.Value != ""
	case *List:
		return len(obj.Elements) > 0
	case *Tuple:
		return len(obj.Elements) > 0
	case *Dict:
		return len(obj.Pairs) > 0
	}
	return true
}

func evalInfixExpression(tok lexer.Token, operator string, left, right Object) Object {
	// Engine-typed operands dispatch through the proxy layer, promoting a
	// plain operand to a wrapped literal first.
	if isProxyOperand(left) || isProxyOperand(right) {
		return evalProxyInfix(tok, operator, left, right)
	}

	switch {
	case left.Type() == INTEGER_OBJ && right.Type() == INTEGER_OBJ:
		return evalIntegerInfix(tok, operator, left.(*Integer), right.(*Integer))

	case isNumericObject(left) && isNumericObject(right):
		return evalFloatInfix(tok, operator, toFloat(left), toFloat(right))

	case left.Type() == STRING_OBJ && right.Type() == STRING_OBJ && operator == "+":
		return &String{Value: left.(*String).Value + right.(*String).Value}

	case left.Type() == BOOLEAN_OBJ && right.Type() == BOOLEAN_OBJ:
		l, r := left.(*Boolean).Value, right.(*Boolean).Value
		switch operator {
		case "&":
			return nativeBoolToBooleanObject(l && r)
		case "|":
			return nativeBoolToBooleanObject(l || r)
		case "^":
			return nativeBoolToBooleanObject(l != r)
		}

	case left.Type() == LIST_OBJ && right.Type() == LIST_OBJ && operator == "+":
		l, r := left.(*List), right.(*List)
		elements := make([]Object, 0, len(l.Elements)+len(r.Elements))
		elements = append(elements, l.Elements...)
		elements = append(elements, r.Elements...)
		return &List{Elements: elements}

	case left.Type() == TUPLE_OBJ && right.Type() == TUPLE_OBJ && operator == "+":
		l, r := left.(*Tuple), right.(*Tuple)
		elements := make([]Object, 0, len(l.Elements)+len(r.Elements))
		elements = append(elements, l.Elements...)
		elements = append(elements, r.Elements...)
		return &Tuple{Elements: elements}

	default:
		if result := evalTemporalInfix(operator, left, right); result != nil {
			return result
		}
	}

	return newStructuredErrorWithPos("OP-0001", tok, map[string]any{
		"LeftType":  string(left.Type()),
		"Operator":  operator,
		"RightType": string(right.Type()),
	})
}

func evalIntegerInfix(tok lexer.Token, operator string, left, right *Integer) Object {
	l, r := left.Value, right.Value
	switch operator {
	case "+":
		return &Integer{Value: l + r}
	case "-":
		return &Integer{Value: l - r}
	case "*":
		return &Integer{Value: l * r}
	case "/":
		if r == 0 {
			return newStructuredErrorWithPos("OP-0002", tok, nil)
		}
		// True division always yields a float
		return &Float{Value: float64(l) / float64(r)}
	case "//":
		if r == 0 {
			return newStructuredErrorWithPos("OP-0002", tok, nil)
		}
		return &Integer{Value: floorDivInt(l, r)}
	case "%":
		if r == 0 {
			return newStructuredErrorWithPos("OP-0002", tok, nil)
		}
		return &Integer{Value: floorModInt(l, r)}
	case "**":
		if r < 0 {
			return &Float{Value: math.Pow(float64(l), float64(r))}
		}
		return &Integer{Value: powInt(l, r)}
	case "&":
		return &Integer{Value: l & r}
	case "|":
		return &Integer{Value: l | r}
	case "^":
		return &Integer{Value: l ^ r}
	}
	return newStructuredErrorWithPos("OP-0001", tok, map[string]any{
		"LeftType":  INTEGER_OBJ,
		"Operator":  operator,
		"RightType": INTEGER_OBJ,
	})
}

func evalFloatInfix(tok lexer.Token, operator string, l, r float64) Object {
	switch operator {
	case "+":
		return &Float{Value: l + r}
	case "-":
		return &Float{Value: l - r}
	case "*":
		return &Float{Value: l * r}
	case "/":
		if r == 0 {
			return newStructuredErrorWithPos("OP-0002", tok, nil)
		}
		return &Float{Value: l / r}
	case "//":
		if r == 0 {
			return newStructuredErrorWithPos("OP-0002", tok, nil)
		}
		return &Float{Value: math.Floor(l / r)}
	case "%":
		if r == 0 {
			return newStructuredErrorWithPos("OP-0002", tok, nil)
		}
		return &Float{Value: floorModFloat(l, r)}
	case "**":
		return &Float{Value: math.Pow(l, r)}
	}
	return newStructuredErrorWithPos("OP-0001", tok, map[string]any{
		"LeftType":  FLOAT_OBJ,
		"Operator":  operator,
		"RightType": FLOAT_OBJ,
	})
}

// evalTemporalInfix covers datetime and duration arithmetic. Returns nil
// when the operand combination is not temporal, so the caller can fall
// through to its unknown-operator error.
func evalTemporalInfix(operator string, left, right Object) Object {
	switch l := left.(type) {
	case *Datetime:
		switch r := right.(type) {
		case *Duration:
			switch operator {
			case "+":
				return &Datetime{Value: l.Value.Add(r.Value)}
			case "-":
				return &Datetime{Value: l.Value.Add(-r.Value)}
			}
		case *Datetime:
			if operator == "-" {
				return &Duration{Value: l.Value.Sub(r.Value)}
			}
		}
	case *Duration:
		switch r := right.(type) {
		case *Datetime:
			if operator == "+" {
				return &Datetime{Value: r.Value.Add(l.Value)}
			}
		case *Duration:
			switch operator {
			case "+":
				return &Duration{Value: l.Value + r.Value}
			case "-":
				return &Duration{Value: l.Value - r.Value}
			case "/":
				if r.Value == 0 {
					return newStructuredError("OP-0002", nil)
				}
				return &Float{Value: float64(l.Value) / float64(r.Value)}
			}
		case *Integer:
			switch operator {
			case "*":
				return &Duration{Value: l.Value * time.Duration(r.Value)}
			case "/":
				if r.Value == 0 {
					return newStructuredError("OP-0002", nil)
				}
				return &Duration{Value: l.Value / time.Duration(r.Value)}
			}
		case *Float:
			switch operator {
			case "*":
				return &Duration{Value: time.Duration(float64(l.Value) * r.Value)}
			case "/":
				if r.Value == 0 {
					return newStructuredError("OP-0002", nil)
				}
				return &Duration{Value: time.Duration(float64(l.Value) / r.Value)}
			}
		}
	case *Integer:
		if r, ok := right.(*Duration); ok && operator == "*" {
			return &Duration{Value: time.Duration(l.Value) * r.Value}
		}
	case *Float:
		if r, ok := right.(*Duration); ok && operator == "*" {
			return &Duration{Value: time.Duration(l.Value * float64(r.Value))}
		}
	}
	return nil
}

// evalComparisonExpression evaluates a chained comparison: each operand is
// evaluated exactly once, pairwise comparisons run left to right, and the
// pair results are ANDed eagerly (through the proxy layer when any result
// is a column expression).
func evalComparisonExpression(node *ast.ComparisonExpression, env *Environment) Object {
	left := Eval(node.Operands[0], env)
	if isError(left) {
		return left
	}

	var result Object
	for i, operator := range node.Operators {
		right := Eval(node.Operands[i+1], env)
		if isError(right) {
			return right
		}

		pair := evalCompareOp(node.Token, operator, left, right)
		if isError(pair) {
			return pair
		}

		if result == nil {
			result = pair
		} else {
			result = evalInfixExpression(node.Token, "&", result, pair)
			if isError(result) {
				return result
			}
		}
		left = right
	}

	return result
}

func evalCompareOp(tok lexer.Token, operator string, left, right Object) Object {
	if isProxyOperand(left) || isProxyOperand(right) {
		return evalProxyInfix(tok, operator, left, right)
	}

	switch operator {
	case "==":
		return nativeBoolToBooleanObject(objectsEqual(left, right))
	case "!=":
		return nativeBoolToBooleanObject(!objectsEqual(left, right))
	}

	cmp, ok := compareOrdered(left, right)
	if !ok {
		return newStructuredErrorWithPos("OP-0004", tok, map[string]any{
			"LeftType":  string(left.Type()),
			"RightType": string(right.Type()),
		})
	}

	switch operator {
	case "<":
		return nativeBoolToBooleanObject(cmp < 0)
	case "<=":
		return nativeBoolToBooleanObject(cmp <= 0)
	case ">":
		return nativeBoolToBooleanObject(cmp > 0)
	case ">=":
		return nativeBoolToBooleanObject(cmp >= 0)
	}

	return newError("unknown comparison operator: %s", operator)
}

// objectsEqual implements '==': numeric values compare across int/float,
// collections compare elementwise, and mismatched types are simply unequal.
func objectsEqual(left, right Object) bool {
	if isNumericObject(left) && isNumericObject(right) {
		return toFloat(left) == toFloat(right)
	}

	switch l := left.(type) {
	case *String:
		r, ok := right.(*String)
		return ok && l.Value == r.Value
	case *Boolean:
		r, ok := right.(*Boolean)
		return ok && l.Value == r.Value
	case *Null:
		_, ok := right.(*Null)
		return ok
	case *Datetime:
		r, ok := right.(*Datetime)
		return ok && l.Value.Equal(r.Value)
	case *Duration:
		r, ok := right.(*Duration)
		return ok && l.Value == r.Value
	case *List:
		r, ok := right.(*List)
		return ok && elementsEqual(l.Elements, r.Elements)
	case *Tuple:
		r, ok := right.(*Tuple)
		return ok && elementsEqual(l.Elements, r.Elements)
	}
	return false
}

func elementsEqual(left, right []Object) bool {
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if !objectsEqual(left[i], right[i]) {
			return false
		}
	}
	return true
}

// compareOrdered orders two values for < <= > >=. The second result is
// false when the types have no ordering.
func compareOrdered(left, right Object) (int, bool) {
	if isNumericObject(left) && isNumericObject(right) {
		l, r := toFloat(left), toFloat(right)
		switch {
		case l < r:
			return -1, true
		case l > r:
			return 1, true
		}
		return 0, true
	}

	switch l := left.(type) {
	case *String:
		if r, ok := right.(*String); ok {
			switch {
			case l.Value < r.Value:
				return -1, true
			case l.Value > r.Value:
				return 1, true
			}
			return 0, true
		}
	case *Datetime:
		if r, ok := right.(*Datetime); ok {
			return l.Value.Compare(r.Value), true
		}
	case *Duration:
		if r, ok := right.(*Duration); ok {
			switch {
			case l.Value < r.Value:
				return -1, true
			case l.Value > r.Value:
				return 1, true
			}
			return 0, true
		}
	}
	return 0, false
}

func evalCallExpression(node *ast.CallExpression, env *Environment) Object {
	fn := Eval(node.Function, env)
	if isError(fn) {
		return fn
	}

	args := evalExpressions(node.Arguments, env)
	if len(args) == 1 && isError(args[0]) {
		return args[0]
	}

	var kwargs map[string]Object
	if len(node.Keywords) > 0 {
		kwargs = make(map[string]Object, len(node.Keywords))
		for _, kw := range node.Keywords {
			if _, ok := kwargs[kw.Name.Value]; ok {
				return newStructuredErrorWithPos("ARITY-0002", node.Token,
					map[string]any{"Name": kw.Name.Value})
			}
			val := Eval(kw.Value, env)
			if isError(val) {
				return val
			}
			kwargs[kw.Name.Value] = val
		}
	}

	return applyCall(node.Token, fn, args, kwargs, env)
}

func applyCall(tok lexer.Token, fn Object, args []Object, kwargs map[string]Object, env *Environment) Object {
	switch fn := fn.(type) {
	case *Builtin:
		if !checkArity(fn.Arity, len(args)) {
			return arityErrorFromSpec(fn.Name, fn.Arity, len(args)).withPos(tok)
		}
		for _, name := range sortedKeys(kwargs) {
			if !keywordAllowed(fn.Keywords, name) {
				return newStructuredErrorWithPos("ARITY-0003", tok,
					map[string]any{"Name": name, "Function": fn.Name})
			}
		}
		result := fn.Fn(args, kwargs, env)
		if err, ok := result.(*Error); ok && err.Line == 0 {
			err.Line = tok.Line
			err.Column = tok.Column
		}
		return result

	case *Lambda:
		if len(kwargs) > 0 {
			return newErrorWithClassAndPos(cherrors.ClassArity, tok,
				"lambdas take no keyword arguments")
		}
		if len(args) != len(fn.Params) {
			return newStructuredErrorWithPos("ARITY-0001", tok, map[string]any{
				"Function": "lambda", "Got": len(args), "Want": len(fn.Params)})
		}
		return applyLambda(fn, args)

	case *BoundMethod:
		return fn.call(tok, args, kwargs, env)
	}

	return newStructuredErrorWithPos("TYPE-0003", tok,
		map[string]any{"Got": string(fn.Type())})
}

// applyLambda runs the lambda body in a fresh child scope layered on the
// captured environment. The child scope holds only the parameter bindings
// and is discarded on return, so the caller's environment is untouched even
// when the body fails.
func applyLambda(fn *Lambda, args []Object) Object {
	child := NewEnclosedEnvironment(fn.Env)
	for i, param := range fn.Params {
		child.Set(param.Value, args[i])
	}
	return Eval(fn.Body, child)
}

func keywordAllowed(allowed []string, name string) bool {
	for _, a := range allowed {
		if a == name {
			return true
		}
	}
	return false
}

func evalAttributeExpression(node *ast.AttributeExpression, env *Environment) Object {
	obj := Eval(node.Left, env)
	if isError(obj) {
		return obj
	}

	switch obj := obj.(type) {
	case *FrameProxy:
		return getProxyAttribute("table", frameOps, obj, node.Name, node.Token)
	case *ExprProxy:
		return getProxyAttribute("expression", exprOps, obj, node.Name, node.Token)
	case *SeriesProxy:
		return getProxyAttribute("series", seriesOps, obj, node.Name, node.Token)
	case *GroupedProxy:
		return getProxyAttribute("grouped table", groupedOps, obj, node.Name, node.Token)
	case *RollingProxy:
		return getProxyAttribute("rolling table", rollingOps, obj, node.Name, node.Token)
	case *Namespace:
		return getProxyAttribute(obj.Kind, obj.ops, obj, node.Name, node.Token)
	case *DTypeRegistry:
		return getProxyAttribute("dtype registry", dtypeOps, obj, node.Name, node.Token)
	}

	return newStructuredErrorWithPos("ATTR-0002", node.Token,
		map[string]any{"Type": string(obj.Type())})
}

func isNumericObject(obj Object) bool {
	return obj.Type() == INTEGER_OBJ || obj.Type() == FLOAT_OBJ
}

func toFloat(obj Object) float64 {
	switch obj := obj.(type) {
	case *Integer:
		return float64(obj.Value)
	case *Float:
		return obj.Value
	}
	return 0
}

// floorDivInt divides rounding toward negative infinity.
func floorDivInt(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// floorModInt returns the modulo with the divisor's sign.
func floorModInt(a, b int64) int64 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func floorModFloat(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

// powInt computes x**y for y >= 0 by binary exponentiation.
func powInt(x, y int64) int64 {
	var result int64 = 1
	for y > 0 {
		if y&1 == 1 {
			result *= x
		}
		x *= x
		y >>= 1
	}
	return result
}
