package evaluator

import (
	"strings"
	"testing"

	"github.com/chervil-lang/chervil/pkg/frame"
	"github.com/chervil-lang/chervil/pkg/parser"
)

// testTables builds the table source the evaluation tests share: Table 2
// with foo=[1,2,3,4] and bar=[1,2,2,1].
func testTables(t *testing.T) TableMap {
	t.Helper()
	f, err := frame.FromColumns(
		[]string{"foo", "bar"},
		[][]any{{int64(1), int64(2), int64(3), int64(4)}, {int64(1), int64(2), int64(2), int64(1)}},
	)
	if err != nil {
		t.Fatalf("building test table: %v", err)
	}
	return TableMap{"Table 2": f}
}

func testEval(t *testing.T, input string) Object {
	t.Helper()
	return testEvalIn(t, input, BuildEnv(testTables(t), nil))
}

func testEvalIn(t *testing.T, input string, env *Environment) Object {
	t.Helper()
	program, perr := parser.Parse(input)
	if perr != nil {
		t.Fatalf("parse error for %q: %v", input, perr)
	}
	return Eval(program, env)
}

func testInteger(t *testing.T, obj Object, want int64) {
	t.Helper()
	result, ok := obj.(*Integer)
	if !ok {
		t.Fatalf("expected Integer, got %T (%s)", obj, obj.Inspect())
	}
	if result.Value != want {
		t.Errorf("expected %d, got %d", want, result.Value)
	}
}

func testFloat(t *testing.T, obj Object, want float64) {
	t.Helper()
	result, ok := obj.(*Float)
	if !ok {
		t.Fatalf("expected Float, got %T (%s)", obj, obj.Inspect())
	}
	if result.Value != want {
		t.Errorf("expected %v, got %v", want, result.Value)
	}
}

func testBoolean(t *testing.T, obj Object, want bool) {
	t.Helper()
	result, ok := obj.(*Boolean)
	if !ok {
		t.Fatalf("expected Boolean, got %T (%s)", obj, obj.Inspect())
	}
	if result.Value != want {
		t.Errorf("expected %v, got %v", want, result.Value)
	}
}

func testErrorCode(t *testing.T, obj Object, code string) *Error {
	t.Helper()
	err, ok := obj.(*Error)
	if !ok {
		t.Fatalf("expected Error, got %T (%s)", obj, obj.Inspect())
	}
	if err.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, err.Code, err.Message)
	}
	return err
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"=1 + 2 * 3", 7},
		{"=(1 + 2) * 3", 9},
		{"=2 ** 3 ** 2", 512}, // right-associative
		{"=-2 ** 3", -8},      // unary binds tighter than **
		{"=7 // 2", 3},
		{"=-7 // 2", -4}, // floor, not truncation
		{"=7 % 3", 1},
		{"=-7 % 3", 2}, // modulo takes the divisor's sign
		{"=5 & 3", 1},
		{"=5 | 3", 7},
		{"=5 ^ 3", 6},
		{"=~5", -6},
		{"=ABS(-4)", 4},
		{"=MIN(3, 1, 2)", 1},
		{"=MAX([3, 1, 2])", 3},
		{"=SUM(1, 2, 3)", 6},
		{"=LEN(\"héllo\")", 5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testInteger(t, testEval(t, tt.input), tt.want)
		})
	}
}

func TestFloatArithmetic(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"=1 / 2", 0.5}, // true division always yields a float
		{"=4 / 2", 2.0},
		{"=2 ** -1", 0.5},
		{"=1.5 + 1", 2.5},
		{"=7.0 // 2", 3.0},
		{"=ROUND(3.14159, 2)", 3.14},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testFloat(t, testEval(t, tt.input), tt.want)
		})
	}
}

func TestChainedComparisons(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"=1 < 2 < 3", true},
		{"=1 < 2 < 2", false},
		{"=3 >= 3 >= 2 >= 2", true},
		{"=1 < 2 > 3", false},
		{"=1 == 1.0", true},
		{"=1 != 2", true},
		{"=\"a\" < \"b\"", true},
		{"=[1, 2] == [1, 2]", true},
		{"=(1, 2) == (1, 2, 3)", false},
		{"=not TRUE", false},
		{"=TRUE & FALSE", false},
		{"=TRUE | FALSE", true},
		{"=True ^ False", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testBoolean(t, testEval(t, tt.input), tt.want)
		})
	}
}

func TestLambdaIsolation(t *testing.T) {
	env := BuildEnv(testTables(t), nil)
	result := testEvalIn(t, "=(lambda x: x + 1)(5)", env)
	testInteger(t, result, 6)

	// Parameter bindings must not leak into the calling environment
	if _, ok := env.Get("x"); ok {
		t.Errorf("lambda parameter x leaked into the outer environment")
	}
}

func TestLambdaCapture(t *testing.T) {
	input := `> n = 10
f = lambda x: x + n
f(5)`
	testInteger(t, testEval(t, input), 15)
}

func TestLambdaArity(t *testing.T) {
	testErrorCode(t, testEval(t, "=(lambda x: x)(1, 2)"), "ARITY-0001")
}

func TestScriptScoping(t *testing.T) {
	input := `> literal = 2
expression = (COLUMN("foo") >= literal) & (COLUMN("bar") >= literal)
TABLE('Table 2').FILTER(expression)`

	result := testEval(t, input)
	proxy, ok := result.(*FrameProxy)
	if !ok {
		t.Fatalf("expected FrameProxy, got %T (%s)", result, result.Inspect())
	}

	foo, err := proxy.Frame.Column("foo")
	if err != nil {
		t.Fatalf("foo column: %v", err)
	}
	bar, err := proxy.Frame.Column("bar")
	if err != nil {
		t.Fatalf("bar column: %v", err)
	}

	wantFoo := []int64{2, 3}
	wantBar := []int64{2, 2}
	if foo.Len() != len(wantFoo) {
		t.Fatalf("expected %d rows, got %d", len(wantFoo), foo.Len())
	}
	for i := range wantFoo {
		if foo.Value(i) != wantFoo[i] {
			t.Errorf("foo[%d]: expected %d, got %v", i, wantFoo[i], foo.Value(i))
		}
		if bar.Value(i) != wantBar[i] {
			t.Errorf("bar[%d]: expected %d, got %v", i, wantBar[i], bar.Value(i))
		}
	}
}

func TestScriptBindingsPersistInEnv(t *testing.T) {
	env := BuildEnv(testTables(t), nil)
	testEvalIn(t, "> a = 1\nb = a + 1\nb", env)

	val, ok := env.Get("b")
	if !ok {
		t.Fatal("expected b to be bound after the script")
	}
	testInteger(t, val, 2)
}

func TestCapabilityRestriction(t *testing.T) {
	// Allow-listed operations succeed and return proxies
	result := testEval(t, `=TABLE('Table 2').FILTER(COL("foo") > 2)`)
	if _, ok := result.(*FrameProxy); !ok {
		t.Fatalf("FILTER: expected FrameProxy, got %T (%s)", result, result.Inspect())
	}

	// Engine I/O and mutation methods exist on the engine type but are not
	// in the allow-list; every spelling must fail with an attribute error.
	for _, input := range []string{
		`=TABLE('Table 2').WriteCSV("/tmp/out.csv")`,
		`=TABLE('Table 2').write_csv("/tmp/out.csv")`,
		`=TABLE('Table 2').ReadCSV("/etc/passwd")`,
		`=TABLE('Table 2').Put("foo", 0, 99)`,
		`=TABLE('Table 2').COLUMN("foo").set(0, 99)`,
	} {
		t.Run(input, func(t *testing.T) {
			testErrorCode(t, testEval(t, input), "ATTR-0001")
		})
	}
}

func TestAttributeSuggestion(t *testing.T) {
	err := testErrorCode(t, testEval(t, `=TABLE('Table 2').FILTRE(COL("foo") > 2)`), "ATTR-0001")
	found := false
	for _, hint := range err.Hints {
		if strings.Contains(hint, "FILTER") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a FILTER suggestion, hints: %v", err.Hints)
	}
}

func TestProxyChaining(t *testing.T) {
	// Every intermediate value stays proxy-typed through the chain.
	input := `=TABLE('Table 2').GROUPBY("bar").AGG(COL("foo").SUM()).SORT("bar")`
	result := testEval(t, input)
	proxy, ok := result.(*FrameProxy)
	if !ok {
		t.Fatalf("expected FrameProxy, got %T (%s)", result, result.Inspect())
	}
	if proxy.Frame.Height() != 2 {
		t.Errorf("expected 2 groups, got %d", proxy.Frame.Height())
	}

	sums, err := proxy.Frame.Column("foo")
	if err != nil {
		t.Fatalf("foo column: %v", err)
	}
	// bar=1 -> 1+4, bar=2 -> 2+3
	if sums.Value(0) != int64(5) || sums.Value(1) != int64(5) {
		t.Errorf("expected sums [5 5], got [%v %v]", sums.Value(0), sums.Value(1))
	}

	grouped := testEval(t, `=TABLE('Table 2').GROUPBY("bar")`)
	if _, ok := grouped.(*GroupedProxy); !ok {
		t.Fatalf("expected GroupedProxy, got %T", grouped)
	}
}

func TestTableLiteral(t *testing.T) {
	result := testEval(t, `=t"Table 2".HEIGHT`)
	testInteger(t, result, 4)

	// A column component yields the column as a series
	series := testEval(t, `=t"Table 2[foo]"`)
	proxy, ok := series.(*SeriesProxy)
	if !ok {
		t.Fatalf("expected SeriesProxy, got %T (%s)", series, series.Inspect())
	}
	if proxy.Series.Len() != 4 {
		t.Errorf("expected 4 values, got %d", proxy.Series.Len())
	}

	// An unresolvable reference degrades to NULL, never an error
	missing := testEval(t, `=t"No Such Table"`)
	if missing != NULL {
		t.Errorf("expected NULL for missing table, got %s", missing.Inspect())
	}
}

func TestTableConstruction(t *testing.T) {
	// dict-of-lists
	result := testEval(t, `=TABLE({"a": [1, 2], "b": [3, 4]}).WITHCOLUMN("c", COL("a") + COL("b"))`)
	proxy, ok := result.(*FrameProxy)
	if !ok {
		t.Fatalf("expected FrameProxy, got %T (%s)", result, result.Inspect())
	}
	c, err := proxy.Frame.Column("c")
	if err != nil {
		t.Fatalf("c column: %v", err)
	}
	if c.Value(0) != int64(4) || c.Value(1) != int64(6) {
		t.Errorf("expected c=[4 6], got [%v %v]", c.Value(0), c.Value(1))
	}

	// list-of-dicts
	result = testEval(t, `=TABLE([{"a": 1}, {"a": 2}]).HEIGHT`)
	testInteger(t, result, 2)
}

func TestSeriesOperations(t *testing.T) {
	result := testEval(t, `=SERIES("xs", [1, 2, 3]).SUM()`)
	testInteger(t, result, 6)

	result = testEval(t, `=(SERIES([1, 2, 3]) * 2).TOLIST()`)
	list, ok := result.(*List)
	if !ok {
		t.Fatalf("expected List, got %T (%s)", result, result.Inspect())
	}
	want := []int64{2, 4, 6}
	if len(list.Elements) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(list.Elements))
	}
	for i, w := range want {
		testInteger(t, list.Elements[i], w)
	}
}

func TestDTypeCast(t *testing.T) {
	result := testEval(t, `=SERIES([1, 2]).CAST(DTYPES.FLOAT64).TOLIST()`)
	list, ok := result.(*List)
	if !ok {
		t.Fatalf("expected List, got %T (%s)", result, result.Inspect())
	}
	testFloat(t, list.Elements[0], 1.0)
	testFloat(t, list.Elements[1], 2.0)
}

func TestStringAndDtNamespaces(t *testing.T) {
	input := `=TABLE({"s": ["Apple", "banana"]}).FILTER(COL("s").STR.STARTSWITH("App")).HEIGHT`
	testInteger(t, testEval(t, input), 1)

	input = `=TABLE({"d": ["2024-01-15", "2023-06-01"]}).WITHCOLUMN("y", COL("d").CAST(DTYPES.DATETIME).DT.YEAR()).COLUMN("y").MAX()`
	testInteger(t, testEval(t, input), 2024)
}

func TestUndefinedIdentifier(t *testing.T) {
	err := testErrorCode(t, testEval(t, "=TABL"), "UNDEF-0001")
	found := false
	for _, hint := range err.Hints {
		if strings.Contains(hint, "TABLE") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a TABLE suggestion, hints: %v", err.Hints)
	}
}

func TestErrorCases(t *testing.T) {
	tests := []struct {
		input string
		code  string
	}{
		{"=1 / 0", "OP-0002"},
		{"=1 // 0", "OP-0002"},
		{"=1 + \"a\"", "OP-0001"},
		{"=-\"a\"", "OP-0003"},
		{"=[1] < [2]", "OP-0004"},
		{"=LEN()", "ARITY-0001"},
		{"=LEN(1, 2)", "ARITY-0001"},
		{"=ABS(1, bogus=2)", "ARITY-0003"},
		{"=5(1)", "TYPE-0003"},
		{"=DURATION(\"nope\")", "TYPE-0005"},
		{"=TABLE('Table 2').SORT(\"foo\", \"bar\", bogus=TRUE)", "ARITY-0003"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testErrorCode(t, testEval(t, tt.input), tt.code)
		})
	}
}

func TestErrorPosition(t *testing.T) {
	err := testErrorCode(t, testEval(t, "=1 + 2 * (3 / 0)"), "OP-0002")
	if err.Line != 1 {
		t.Errorf("expected line 1, got %d", err.Line)
	}
	if err.Column == 0 {
		t.Errorf("expected a column position")
	}
}

func TestDictSemantics(t *testing.T) {
	// Duplicate keys keep the last value
	result := testEval(t, `=TABLE({"a": [1], "a": [2]}).COLUMN("a").FIRST()`)
	testInteger(t, result, 2)

	// Unhashable keys are rejected
	testErrorCode(t, testEval(t, `={[1]: 1}`), "TYPE-0004")
}

func TestTemporalArithmetic(t *testing.T) {
	testBoolean(t, testEval(t, `=DATETIME("2024-01-02") - DATETIME("2024-01-01") == DURATION("24h")`), true)
	testBoolean(t, testEval(t, `=DATE(2024, 1, 1) + DURATION("48h") == DATE(2024, 1, 3)`), true)
	testBoolean(t, testEval(t, `=DURATION("1h") * 2 == DURATION("2h")`), true)
	testBoolean(t, testEval(t, `=NOW() > DATETIME("2000-01-01")`), true)
}

func TestFormat(t *testing.T) {
	result := testEval(t, `=FORMAT(1234567)`)
	s, ok := result.(*String)
	if !ok {
		t.Fatalf("expected String, got %T", result)
	}
	if s.Value != "1,234,567" {
		t.Errorf("expected 1,234,567, got %s", s.Value)
	}

	result = testEval(t, `=FORMAT(1234567, locale="de")`)
	s, ok = result.(*String)
	if !ok {
		t.Fatalf("expected String, got %T", result)
	}
	if s.Value != "1.234.567" {
		t.Errorf("expected 1.234.567, got %s", s.Value)
	}
}

func TestRunAndCheck(t *testing.T) {
	env := BuildEnv(testTables(t), nil)

	result, err := Run("=1 + 2", env)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	testInteger(t, result, 3)

	if _, err := Run("=nope", env); err == nil {
		t.Errorf("expected an error for an undefined identifier")
	}

	if err := Check("=1 +"); err == nil {
		t.Errorf("expected a syntax error from Check")
	}
	if err := Check("=1 + 2"); err != nil {
		t.Errorf("unexpected Check error: %v", err)
	}
}

func TestExtraBindingsWin(t *testing.T) {
	env := BuildEnv(testTables(t), map[string]Object{"ANSWER": &Integer{Value: 42}})
	testInteger(t, testEvalIn(t, "=ANSWER", env), 42)
}
