package parser

import (
	"strings"
	"testing"

	"github.com/chervil-lang/chervil/pkg/ast"
	"github.com/chervil-lang/chervil/pkg/lexer"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	l := lexer.New(input)
	p := New(l)
	program := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("parser errors for %q: %v", input, p.Errors())
	}
	return program
}

// parseFormula parses '=expr' input and returns the single expression.
func parseFormula(t *testing.T, input string) ast.Expression {
	t.Helper()
	program := parseProgram(t, input)
	if program.Script {
		t.Fatalf("expected formula, got script for %q", input)
	}
	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d for %q", len(program.Statements), input)
	}
	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected ExpressionStatement, got %T for %q", program.Statements[0], input)
	}
	return stmt.Expression
}

func parseError(t *testing.T, input string) string {
	t.Helper()
	l := lexer.New(input)
	p := New(l)
	_ = p.ParseProgram()
	errors := p.Errors()
	if len(errors) == 0 {
		t.Fatalf("expected parser error for %q, got none", input)
	}
	return errors[0]
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"=1 + 2 * 3", "=(1 + (2 * 3))"},
		{"=1 * 2 + 3", "=((1 * 2) + 3)"},
		{"=(1 + 2) * 3", "=((1 + 2) * 3)"},
		{"=1 + 2 - 3", "=((1 + 2) - 3)"},
		{"=6 / 3 * 2", "=((6 / 3) * 2)"},
		{"=7 // 2 % 3", "=((7 // 2) % 3)"},
		{"=2 ** 3 ** 2", "=(2 ** (3 ** 2))"},
		{"=2 * 3 ** 2", "=(2 * (3 ** 2))"},
		{"=-a * b", "=((-a) * b)"},
		{"=~a + b", "=((~a) + b)"},
		{"=2 * -3", "=(2 * (-3))"},
		{"=not a & b", "=((not a) & b)"},
		{"=a | b ^ c & d", "=(a | (b ^ (c & d)))"},
		{"=a & b | c", "=((a & b) | c)"},
		{"=1 + 2 < 3 * 4 & 5 < 6", "=(((1 + 2) < (3 * 4)) & (5 < 6))"},
		{"=a.FILTER(b).HEAD(2)", "=((a.FILTER)(b).HEAD)(2)"},
		{"=-t.SUM", "=(-(t.SUM))"},
		{"=1 +\n2", "=(1 + 2)"}, // newlines are whitespace in formulas
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parseProgram(t, tt.input)
			actual := program.String()
			if actual != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, actual)
			}
		})
	}
}

func TestChainedComparisons(t *testing.T) {
	expr := parseFormula(t, "=1 < x < 5")
	cmp, ok := expr.(*ast.ComparisonExpression)
	if !ok {
		t.Fatalf("expected ComparisonExpression, got %T", expr)
	}
	if len(cmp.Operands) != 3 {
		t.Fatalf("expected 3 operands, got %d", len(cmp.Operands))
	}
	if len(cmp.Operators) != 2 || cmp.Operators[0] != "<" || cmp.Operators[1] != "<" {
		t.Fatalf("expected operators [< <], got %v", cmp.Operators)
	}
	if cmp.String() != "(1 < x < 5)" {
		t.Errorf("expected %q, got %q", "(1 < x < 5)", cmp.String())
	}
}

func TestComparisonGrouping(t *testing.T) {
	// Parenthesized comparisons do not merge into the outer chain
	expr := parseFormula(t, "=(1 < 2) == (3 < 4)")
	cmp, ok := expr.(*ast.ComparisonExpression)
	if !ok {
		t.Fatalf("expected ComparisonExpression, got %T", expr)
	}
	if len(cmp.Operands) != 2 {
		t.Fatalf("expected 2 operands, got %d", len(cmp.Operands))
	}
	if _, ok := cmp.Operands[0].(*ast.ComparisonExpression); !ok {
		t.Errorf("expected left operand to be a ComparisonExpression, got %T", cmp.Operands[0])
	}
	if cmp.String() != "((1 < 2) == (3 < 4))" {
		t.Errorf("got %q", cmp.String())
	}
}

func TestSingleComparisonUsesChainNode(t *testing.T) {
	expr := parseFormula(t, "=a == b")
	cmp, ok := expr.(*ast.ComparisonExpression)
	if !ok {
		t.Fatalf("expected ComparisonExpression, got %T", expr)
	}
	if len(cmp.Operands) != 2 || len(cmp.Operators) != 1 {
		t.Fatalf("expected 2 operands and 1 operator, got %d and %d",
			len(cmp.Operands), len(cmp.Operators))
	}
	if cmp.Operators[0] != "==" {
		t.Errorf("expected operator ==, got %q", cmp.Operators[0])
	}
}

func TestComparisonOperandPrecedence(t *testing.T) {
	// Arithmetic binds tighter than comparison inside a chain
	expr := parseFormula(t, "=a + 1 < b * 2 < c")
	cmp, ok := expr.(*ast.ComparisonExpression)
	if !ok {
		t.Fatalf("expected ComparisonExpression, got %T", expr)
	}
	if len(cmp.Operands) != 3 {
		t.Fatalf("expected 3 operands, got %d", len(cmp.Operands))
	}
	if cmp.String() != "((a + 1) < (b * 2) < c)" {
		t.Errorf("got %q", cmp.String())
	}
}

func TestIntegerLiteral(t *testing.T) {
	expr := parseFormula(t, "=5")
	lit, ok := expr.(*ast.IntegerLiteral)
	if !ok {
		t.Fatalf("expected IntegerLiteral, got %T", expr)
	}
	if lit.Value != 5 {
		t.Errorf("expected 5, got %d", lit.Value)
	}
}

func TestFloatLiteral(t *testing.T) {
	expr := parseFormula(t, "=3.25")
	lit, ok := expr.(*ast.FloatLiteral)
	if !ok {
		t.Fatalf("expected FloatLiteral, got %T", expr)
	}
	if lit.Value != 3.25 {
		t.Errorf("expected 3.25, got %g", lit.Value)
	}
}

func TestStringLiteral(t *testing.T) {
	expr := parseFormula(t, `="hello world"`)
	lit, ok := expr.(*ast.StringLiteral)
	if !ok {
		t.Fatalf("expected StringLiteral, got %T", expr)
	}
	if lit.Value != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", lit.Value)
	}
}

func TestTableAndColumnLiterals(t *testing.T) {
	expr := parseFormula(t, `=t"Sheet 1!Items"`)
	table, ok := expr.(*ast.TableLiteral)
	if !ok {
		t.Fatalf("expected TableLiteral, got %T", expr)
	}
	if table.Ref != "Sheet 1!Items" {
		t.Errorf("expected ref %q, got %q", "Sheet 1!Items", table.Ref)
	}

	expr = parseFormula(t, `=c"unit price"`)
	col, ok := expr.(*ast.ColumnLiteral)
	if !ok {
		t.Fatalf("expected ColumnLiteral, got %T", expr)
	}
	if col.Name != "unit price" {
		t.Errorf("expected name %q, got %q", "unit price", col.Name)
	}
}

func TestListLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		count    int
	}{
		{"=[1, 2, 3]", "=[1, 2, 3]", 3},
		{"=[1, 2, 3,]", "=[1, 2, 3]", 3}, // trailing comma
		{"=[]", "=[]", 0},
		{"=[1 + 2, 3 * 4]", "=[(1 + 2), (3 * 4)]", 2},
		{"=[[1], [2, 3]]", "=[[1], [2, 3]]", 2},
		{"=[1,\n2,\n3]", "=[1, 2, 3]", 3}, // newlines inside brackets
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := parseFormula(t, tt.input)
			list, ok := expr.(*ast.ListLiteral)
			if !ok {
				t.Fatalf("expected ListLiteral, got %T", expr)
			}
			if len(list.Elements) != tt.count {
				t.Errorf("expected %d elements, got %d", tt.count, len(list.Elements))
			}
			if got := "=" + list.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestTupleLiterals(t *testing.T) {
	tests := []struct {
		input string
		count int
	}{
		{"=(1, 2)", 2},
		{"=(1, 2, 3)", 3},
		{"=(1,)", 1}, // single-element tuple needs the trailing comma
		{"=()", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := parseFormula(t, tt.input)
			tuple, ok := expr.(*ast.TupleLiteral)
			if !ok {
				t.Fatalf("expected TupleLiteral, got %T", expr)
			}
			if len(tuple.Elements) != tt.count {
				t.Errorf("expected %d elements, got %d", tt.count, len(tuple.Elements))
			}
		})
	}
}

func TestParenthesizedExpressionIsNotATuple(t *testing.T) {
	expr := parseFormula(t, "=(5)")
	if _, ok := expr.(*ast.IntegerLiteral); !ok {
		t.Fatalf("expected IntegerLiteral, got %T", expr)
	}
}

func TestDictLiterals(t *testing.T) {
	tests := []struct {
		input string
		count int
	}{
		{`={"a": 1, "b": 2}`, 2},
		{`={"a": 1,}`, 1}, // trailing comma
		{`={}`, 0},
		{`={1: "one", 2.5: "two and a half"}`, 2},
		{`={(1, 2): "pair"}`, 1},
		{`={-1: "negative"}`, 1},
		{`={"a": 1, "a": 2}`, 2}, // duplicates resolved at evaluation
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := parseFormula(t, tt.input)
			dict, ok := expr.(*ast.DictLiteral)
			if !ok {
				t.Fatalf("expected DictLiteral, got %T", expr)
			}
			if len(dict.Keys) != tt.count {
				t.Errorf("expected %d keys, got %d", tt.count, len(dict.Keys))
			}
			if len(dict.Values) != tt.count {
				t.Errorf("expected %d values, got %d", tt.count, len(dict.Values))
			}
		})
	}
}

func TestDictKeyRestrictions(t *testing.T) {
	tests := []struct {
		input         string
		expectedError string
	}{
		{`={a: 1}`, "invalid dictionary key"},
		{`={[1]: 2}`, "invalid dictionary key"},
		{`={1 + 2: 3}`, "invalid dictionary key"},
		{`={{"x": 1}: 2}`, "invalid dictionary key"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := parseError(t, tt.input)
			if !strings.Contains(err, tt.expectedError) {
				t.Errorf("expected error containing %q, got %q", tt.expectedError, err)
			}
		})
	}
}

func TestLambdaLiterals(t *testing.T) {
	tests := []struct {
		input  string
		params []string
		body   string
	}{
		{"=lambda x: x + 1", []string{"x"}, "(x + 1)"},
		{"=lambda a, b: a * b", []string{"a", "b"}, "(a * b)"},
		{"=lambda: 42", []string{}, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := parseFormula(t, tt.input)
			lambda, ok := expr.(*ast.LambdaLiteral)
			if !ok {
				t.Fatalf("expected LambdaLiteral, got %T", expr)
			}
			if len(lambda.Params) != len(tt.params) {
				t.Fatalf("expected %d params, got %d", len(tt.params), len(lambda.Params))
			}
			for i, name := range tt.params {
				if lambda.Params[i].Value != name {
					t.Errorf("param %d: expected %q, got %q", i, name, lambda.Params[i].Value)
				}
			}
			if lambda.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, lambda.Body.String())
			}
		})
	}
}

func TestImmediatelyInvokedLambda(t *testing.T) {
	expr := parseFormula(t, "=(lambda x: x + 1)(5)")
	call, ok := expr.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected CallExpression, got %T", expr)
	}
	if _, ok := call.Function.(*ast.LambdaLiteral); !ok {
		t.Fatalf("expected LambdaLiteral function, got %T", call.Function)
	}
	if len(call.Arguments) != 1 {
		t.Errorf("expected 1 argument, got %d", len(call.Arguments))
	}
}

func TestLambdaBodyStopsAtArgumentComma(t *testing.T) {
	expr := parseFormula(t, "=MAP(lambda x: x + 1, items)")
	call, ok := expr.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected CallExpression, got %T", expr)
	}
	if len(call.Arguments) != 2 {
		t.Fatalf("expected 2 arguments, got %d", len(call.Arguments))
	}
	if _, ok := call.Arguments[0].(*ast.LambdaLiteral); !ok {
		t.Errorf("expected first argument to be a LambdaLiteral, got %T", call.Arguments[0])
	}
}

func TestCallExpressions(t *testing.T) {
	tests := []struct {
		input    string
		args     int
		keywords int
	}{
		{`=COLUMN("price")`, 1, 0},
		{"=F()", 0, 0},
		{"=F(1, 2, 3)", 3, 0},
		{"=F(1, 2,)", 2, 0}, // trailing comma
		{"=F(keep=TRUE)", 0, 1},
		{"=F(mask, keep=TRUE)", 1, 1},
		{"=F(a=1, b=2)", 0, 2},
		{"=F(1, by=c, descending=TRUE)", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := parseFormula(t, tt.input)
			call, ok := expr.(*ast.CallExpression)
			if !ok {
				t.Fatalf("expected CallExpression, got %T", expr)
			}
			if len(call.Arguments) != tt.args {
				t.Errorf("expected %d positional args, got %d", tt.args, len(call.Arguments))
			}
			if len(call.Keywords) != tt.keywords {
				t.Errorf("expected %d keyword args, got %d", tt.keywords, len(call.Keywords))
			}
		})
	}
}

func TestKeywordArgumentNames(t *testing.T) {
	expr := parseFormula(t, "=SORT(t, by=price, descending=TRUE)")
	call, ok := expr.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected CallExpression, got %T", expr)
	}
	if len(call.Keywords) != 2 {
		t.Fatalf("expected 2 keywords, got %d", len(call.Keywords))
	}
	if call.Keywords[0].Name.Value != "by" {
		t.Errorf("expected keyword 'by', got %q", call.Keywords[0].Name.Value)
	}
	if call.Keywords[1].Name.Value != "descending" {
		t.Errorf("expected keyword 'descending', got %q", call.Keywords[1].Name.Value)
	}
}

func TestPositionalAfterKeywordIsAnError(t *testing.T) {
	err := parseError(t, "=F(a=1, 2)")
	if !strings.Contains(err, "positional argument follows keyword argument") {
		t.Errorf("unexpected error: %q", err)
	}
}

func TestAttributeExpressions(t *testing.T) {
	expr := parseFormula(t, "=items.ROWCOUNT")
	attr, ok := expr.(*ast.AttributeExpression)
	if !ok {
		t.Fatalf("expected AttributeExpression, got %T", expr)
	}
	if attr.Name != "ROWCOUNT" {
		t.Errorf("expected name ROWCOUNT, got %q", attr.Name)
	}
	ident, ok := attr.Left.(*ast.Identifier)
	if !ok {
		t.Fatalf("expected Identifier, got %T", attr.Left)
	}
	if ident.Value != "items" {
		t.Errorf("expected items, got %q", ident.Value)
	}
}

func TestMethodChains(t *testing.T) {
	expr := parseFormula(t, `=t"Items".FILTER(mask).SORT(by=price).HEAD(10)`)
	call, ok := expr.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected CallExpression, got %T", expr)
	}
	attr, ok := call.Function.(*ast.AttributeExpression)
	if !ok {
		t.Fatalf("expected AttributeExpression, got %T", call.Function)
	}
	if attr.Name != "HEAD" {
		t.Errorf("expected outermost attribute HEAD, got %q", attr.Name)
	}
}

func TestScriptParsing(t *testing.T) {
	input := "> price = COLUMN(\"price\")\nqty = COLUMN(\"qty\")\nprice * qty"
	program := parseProgram(t, input)

	if !program.Script {
		t.Fatal("expected script program")
	}
	if len(program.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(program.Statements))
	}

	assign1, ok := program.Statements[0].(*ast.AssignStatement)
	if !ok {
		t.Fatalf("expected AssignStatement, got %T", program.Statements[0])
	}
	if assign1.Name.Value != "price" {
		t.Errorf("expected name price, got %q", assign1.Name.Value)
	}

	assign2, ok := program.Statements[1].(*ast.AssignStatement)
	if !ok {
		t.Fatalf("expected AssignStatement, got %T", program.Statements[1])
	}
	if assign2.Name.Value != "qty" {
		t.Errorf("expected name qty, got %q", assign2.Name.Value)
	}

	final, ok := program.Statements[2].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected ExpressionStatement, got %T", program.Statements[2])
	}
	if final.String() != "(price * qty)" {
		t.Errorf("expected final expression (price * qty), got %q", final.String())
	}
}

func TestScriptBlankLines(t *testing.T) {
	input := "> a = 1\n\n\nb = 2\n\na + b\n"
	program := parseProgram(t, input)
	if len(program.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(program.Statements))
	}
}

func TestScriptComparisonIsNotAssignment(t *testing.T) {
	// 'x == 1' on its own line is an expression, not an assignment
	input := "> x = 1\nx == 1"
	program := parseProgram(t, input)
	if len(program.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Statements))
	}
	if _, ok := program.Statements[1].(*ast.ExpressionStatement); !ok {
		t.Errorf("expected ExpressionStatement, got %T", program.Statements[1])
	}
}

func TestSourceFormErrors(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedError string
	}{
		{"no_marker", "1 + 2", "must start with '=' (formula) or '>' (script)"},
		{"script_ends_with_assignment", "> a = 1", "script must end with a bare expression"},
		{"empty_script", ">", "script must end with a bare expression"},
		{"blank_script", ">\n\n", "script must end with a bare expression"},
		{"empty_formula", "=", "unexpected token 'end of input'"},
		{"trailing_garbage", "=1 2", "unexpected token '2'"},
		{"assignment_in_formula", "=a = 1", "unexpected token '='"},
		{"script_newline_mid_expression", "> a = 1 +\n2", "unexpected token 'end of line'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseError(t, tt.input)
			if !strings.Contains(err, tt.expectedError) {
				t.Errorf("expected error containing %q, got %q", tt.expectedError, err)
			}
		})
	}
}

func TestExpectedTokenErrors(t *testing.T) {
	tests := []struct {
		input         string
		expectedError string
	}{
		{"=(1 + 2", "expected ')'"},
		{"=[1, 2", "expected ']'"},
		{`={"a": 1`, "expected '}'"},
		{`={"a" 1}`, "expected ':'"},
		{"=lambda x, y", "expected ':'"},
		{"=a.5", "expected identifier"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := parseError(t, tt.input)
			if !strings.Contains(err, tt.expectedError) {
				t.Errorf("expected error containing %q, got %q", tt.expectedError, err)
			}
		})
	}
}

func TestOnlyFirstErrorReported(t *testing.T) {
	l := lexer.New("=[1, + {")
	p := New(l)
	_ = p.ParseProgram()
	if len(p.Errors()) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %v", len(p.Errors()), p.Errors())
	}
}

func TestErrorPositions(t *testing.T) {
	l := lexer.New("1 + 2")
	p := New(l)
	_ = p.ParseProgram()
	errs := p.StructuredErrors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Line != 1 || errs[0].Column != 1 {
		t.Errorf("expected line 1, column 1, got line %d, column %d", errs[0].Line, errs[0].Column)
	}
	if errs[0].Code != "PARSE-0006" {
		t.Errorf("expected code PARSE-0006, got %q", errs[0].Code)
	}
}

func TestScriptErrorOnSecondLine(t *testing.T) {
	l := lexer.New("> a = 1\nb = *")
	p := New(l)
	_ = p.ParseProgram()
	errs := p.StructuredErrors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Line != 2 {
		t.Errorf("expected error on line 2, got line %d", errs[0].Line)
	}
}

func TestUnterminatedStringError(t *testing.T) {
	err := parseError(t, `="abc`)
	if !strings.Contains(err, "unterminated") {
		t.Errorf("expected unterminated string error, got %q", err)
	}
}

func TestParseFunction(t *testing.T) {
	program, err := Parse("=1 + 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if program == nil || len(program.Statements) != 1 {
		t.Fatal("expected a one-statement program")
	}

	program, err = Parse("1 + 2")
	if err == nil {
		t.Fatal("expected an error for missing marker")
	}
	if program != nil {
		t.Errorf("expected nil program on error, got %v", program)
	}
	if !err.IsParseError() {
		t.Errorf("expected a parse error, got class %s", err.Class)
	}
}

func TestDeepNesting(t *testing.T) {
	expr := parseFormula(t, `={"rows": [t"Items".FILTER(c"qty" > 0), (1, 2.5)], "meta": {"n": 1}}`)
	dict, ok := expr.(*ast.DictLiteral)
	if !ok {
		t.Fatalf("expected DictLiteral, got %T", expr)
	}
	if len(dict.Keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(dict.Keys))
	}
	list, ok := dict.Values[0].(*ast.ListLiteral)
	if !ok {
		t.Fatalf("expected ListLiteral, got %T", dict.Values[0])
	}
	if len(list.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(list.Elements))
	}
	if _, ok := list.Elements[0].(*ast.CallExpression); !ok {
		t.Errorf("expected CallExpression, got %T", list.Elements[0])
	}
	if _, ok := list.Elements[1].(*ast.TupleLiteral); !ok {
		t.Errorf("expected TupleLiteral, got %T", list.Elements[1])
	}
}

func TestLeadingBlankLinesBeforeMarker(t *testing.T) {
	program := parseProgram(t, "\n\n=1 + 2")
	if program.Script {
		t.Fatal("expected formula")
	}
	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Statements))
	}
}
