package frame

import (
	"fmt"
	"math"
	"time"
)

// Binary kernels broadcast a length-1 series against any length. Nulls
// propagate: a null in either operand yields a null result row.

func isNumeric(d DType) bool {
	return d == Int64 || d == Float64
}

// broadcastIdx validates operand lengths and returns the result length plus
// per-operand row mappers.
func broadcastIdx(a, b *Series) (int, func(int) int, func(int) int, error) {
	ident := func(i int) int { return i }
	zero := func(int) int { return 0 }
	switch {
	case a.Len() == b.Len():
		return a.Len(), ident, ident, nil
	case a.Len() == 1:
		return b.Len(), zero, ident, nil
	case b.Len() == 1:
		return a.Len(), ident, zero, nil
	}
	return 0, nil, nil, fmt.Errorf("length mismatch: %d vs %d", a.Len(), b.Len())
}

// Add returns a + b (numeric, duration, datetime+duration, string concat).
func (s *Series) Add(o *Series) (*Series, error) { return arith("+", s, o) }

// Sub returns a - b (numeric, duration, datetime-duration, datetime-datetime).
func (s *Series) Sub(o *Series) (*Series, error) { return arith("-", s, o) }

// Mul returns a * b (numeric, duration*numeric).
func (s *Series) Mul(o *Series) (*Series, error) { return arith("*", s, o) }

// Div returns true division a / b; the result is always Float64 for numeric
// operands. Division by zero is an error.
func (s *Series) Div(o *Series) (*Series, error) { return arith("/", s, o) }

// FloorDiv returns floor division a // b.
func (s *Series) FloorDiv(o *Series) (*Series, error) { return arith("//", s, o) }

// Mod returns the floored modulo a % b (result takes the divisor's sign).
func (s *Series) Mod(o *Series) (*Series, error) { return arith("%", s, o) }

// Pow returns a ** b. Integer bases with all-non-negative integer exponents
// stay Int64; anything else is Float64.
func (s *Series) Pow(o *Series) (*Series, error) { return arith("**", s, o) }

func arith(op string, a, b *Series) (*Series, error) {
	n, ai, bi, err := broadcastIdx(a, b)
	if err != nil {
		return nil, err
	}

	switch {
	case isNumeric(a.dtype) && isNumeric(b.dtype):
		if a.dtype == Int64 && b.dtype == Int64 && op != "/" {
			if op == "**" && !allExponentsNonNegative(b) {
				return floatArith(op, a, b, n, ai, bi)
			}
			return intArith(op, a, b, n, ai, bi)
		}
		return floatArith(op, a, b, n, ai, bi)

	case a.dtype == String && b.dtype == String && op == "+":
		out := &Series{name: a.name, dtype: String, str: make([]string, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !a.valid[ai(i)] || !b.valid[bi(i)] {
				continue
			}
			out.str[i] = a.str[ai(i)] + b.str[bi(i)]
			out.valid[i] = true
		}
		return out, nil

	case a.dtype == Datetime && b.dtype == Duration && (op == "+" || op == "-"):
		out := &Series{name: a.name, dtype: Datetime, t: make([]time.Time, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !a.valid[ai(i)] || !b.valid[bi(i)] {
				continue
			}
			d := b.d[bi(i)]
			if op == "-" {
				d = -d
			}
			out.t[i] = a.t[ai(i)].Add(d)
			out.valid[i] = true
		}
		return out, nil

	case a.dtype == Duration && b.dtype == Datetime && op == "+":
		return arith("+", b, a)

	case a.dtype == Datetime && b.dtype == Datetime && op == "-":
		out := &Series{name: a.name, dtype: Duration, d: make([]time.Duration, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !a.valid[ai(i)] || !b.valid[bi(i)] {
				continue
			}
			out.d[i] = a.t[ai(i)].Sub(b.t[bi(i)])
			out.valid[i] = true
		}
		return out, nil

	case a.dtype == Duration && b.dtype == Duration && (op == "+" || op == "-"):
		out := &Series{name: a.name, dtype: Duration, d: make([]time.Duration, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !a.valid[ai(i)] || !b.valid[bi(i)] {
				continue
			}
			if op == "+" {
				out.d[i] = a.d[ai(i)] + b.d[bi(i)]
			} else {
				out.d[i] = a.d[ai(i)] - b.d[bi(i)]
			}
			out.valid[i] = true
		}
		return out, nil

	case a.dtype == Duration && b.dtype == Duration && op == "/":
		out := &Series{name: a.name, dtype: Float64, f64: make([]float64, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !a.valid[ai(i)] || !b.valid[bi(i)] {
				continue
			}
			if b.d[bi(i)] == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			out.f64[i] = float64(a.d[ai(i)]) / float64(b.d[bi(i)])
			out.valid[i] = true
		}
		return out, nil

	case a.dtype == Duration && isNumeric(b.dtype) && (op == "*" || op == "/"):
		out := &Series{name: a.name, dtype: Duration, d: make([]time.Duration, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !a.valid[ai(i)] || !b.valid[bi(i)] {
				continue
			}
			var f float64
			if b.dtype == Int64 {
				f = float64(b.i64[bi(i)])
			} else {
				f = b.f64[bi(i)]
			}
			if op == "/" {
				if f == 0 {
					return nil, fmt.Errorf("division by zero")
				}
				out.d[i] = time.Duration(float64(a.d[ai(i)]) / f)
			} else {
				out.d[i] = time.Duration(float64(a.d[ai(i)]) * f)
			}
			out.valid[i] = true
		}
		return out, nil

	case isNumeric(a.dtype) && b.dtype == Duration && op == "*":
		return arith("*", b, a)
	}

	return nil, fmt.Errorf("unsupported operand types for %s: %s and %s", op, a.dtype, b.dtype)
}

func allExponentsNonNegative(b *Series) bool {
	for i := 0; i < b.Len(); i++ {
		if b.valid[i] && b.i64[i] < 0 {
			return false
		}
	}
	return true
}

func intArith(op string, a, b *Series, n int, ai, bi func(int) int) (*Series, error) {
	out := &Series{name: a.name, dtype: Int64, i64: make([]int64, n), valid: make([]bool, n)}
	for i := 0; i < n; i++ {
		if !a.valid[ai(i)] || !b.valid[bi(i)] {
			continue
		}
		x, y := a.i64[ai(i)], b.i64[bi(i)]
		switch op {
		case "+":
			out.i64[i] = x + y
		case "-":
			out.i64[i] = x - y
		case "*":
			out.i64[i] = x * y
		case "//":
			if y == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			out.i64[i] = floorDivInt(x, y)
		case "%":
			if y == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			out.i64[i] = floorModInt(x, y)
		case "**":
			out.i64[i] = powInt(x, y)
		default:
			return nil, fmt.Errorf("unsupported operand types for %s: %s and %s", op, a.dtype, b.dtype)
		}
		out.valid[i] = true
	}
	return out, nil
}

func floatArith(op string, a, b *Series, n int, ai, bi func(int) int) (*Series, error) {
	out := &Series{name: a.name, dtype: Float64, f64: make([]float64, n), valid: make([]bool, n)}
	floatAt := func(s *Series, i int) float64 {
		if s.dtype == Int64 {
			return float64(s.i64[i])
		}
		return s.f64[i]
	}
	for i := 0; i < n; i++ {
		if !a.valid[ai(i)] || !b.valid[bi(i)] {
			continue
		}
		x, y := floatAt(a, ai(i)), floatAt(b, bi(i))
		switch op {
		case "+":
			out.f64[i] = x + y
		case "-":
			out.f64[i] = x - y
		case "*":
			out.f64[i] = x * y
		case "/":
			if y == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			out.f64[i] = x / y
		case "//":
			if y == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			out.f64[i] = math.Floor(x / y)
		case "%":
			if y == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			out.f64[i] = floorModFloat(x, y)
		case "**":
			out.f64[i] = math.Pow(x, y)
		default:
			return nil, fmt.Errorf("unsupported operand types for %s: %s and %s", op, a.dtype, b.dtype)
		}
		out.valid[i] = true
	}
	return out, nil
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

// Eq returns the elementwise a == b comparison.
func (s *Series) Eq(o *Series) (*Series, error) { return compare("==", s, o) }

// Ne returns the elementwise a != b comparison.
func (s *Series) Ne(o *Series) (*Series, error) { return compare("!=", s, o) }

// Lt returns the elementwise a < b comparison.
func (s *Series) Lt(o *Series) (*Series, error) { return compare("<", s, o) }

// Le returns the elementwise a <= b comparison.
func (s *Series) Le(o *Series) (*Series, error) { return compare("<=", s, o) }

// Gt returns the elementwise a > b comparison.
func (s *Series) Gt(o *Series) (*Series, error) { return compare(">", s, o) }

// Ge returns the elementwise a >= b comparison.
func (s *Series) Ge(o *Series) (*Series, error) { return compare(">=", s, o) }

func compare(op string, a, b *Series) (*Series, error) {
	n, ai, bi, err := broadcastIdx(a, b)
	if err != nil {
		return nil, err
	}

	var cmpAt func(i, j int) int
	switch {
	case isNumeric(a.dtype) && isNumeric(b.dtype):
		floatAt := func(s *Series, i int) float64 {
			if s.dtype == Int64 {
				return float64(s.i64[i])
			}
			return s.f64[i]
		}
		if a.dtype == Int64 && b.dtype == Int64 {
			cmpAt = func(i, j int) int { return compareInt64(a.i64[i], b.i64[j]) }
		} else {
			cmpAt = func(i, j int) int { return compareFloat64(floatAt(a, i), floatAt(b, j)) }
		}
	case a.dtype == String && b.dtype == String:
		cmpAt = func(i, j int) int {
			switch {
			case a.str[i] < b.str[j]:
				return -1
			case a.str[i] > b.str[j]:
				return 1
			}
			return 0
		}
	case a.dtype == Bool && b.dtype == Bool:
		cmpAt = func(i, j int) int { return compareBool(a.b[i], b.b[j]) }
	case a.dtype == Datetime && b.dtype == Datetime:
		cmpAt = func(i, j int) int { return a.t[i].Compare(b.t[j]) }
	case a.dtype == Duration && b.dtype == Duration:
		cmpAt = func(i, j int) int { return compareInt64(int64(a.d[i]), int64(b.d[j])) }
	default:
		return nil, fmt.Errorf("cannot compare %s and %s", a.dtype, b.dtype)
	}

	out := &Series{name: a.name, dtype: Bool, b: make([]bool, n), valid: make([]bool, n)}
	for i := 0; i < n; i++ {
		if !a.valid[ai(i)] || !b.valid[bi(i)] {
			continue
		}
		cmp := cmpAt(ai(i), bi(i))
		var r bool
		switch op {
		case "==":
			r = cmp == 0
		case "!=":
			r = cmp != 0
		case "<":
			r = cmp < 0
		case "<=":
			r = cmp <= 0
		case ">":
			r = cmp > 0
		case ">=":
			r = cmp >= 0
		}
		out.b[i] = r
		out.valid[i] = true
	}
	return out, nil
}

// And is logical AND on Bool series and bitwise AND on Int64 series.
func (s *Series) And(o *Series) (*Series, error) { return logical("&", s, o) }

// Or is logical OR on Bool series and bitwise OR on Int64 series.
func (s *Series) Or(o *Series) (*Series, error) { return logical("|", s, o) }

// Xor is logical XOR on Bool series and bitwise XOR on Int64 series.
func (s *Series) Xor(o *Series) (*Series, error) { return logical("^", s, o) }

func logical(op string, a, b *Series) (*Series, error) {
	n, ai, bi, err := broadcastIdx(a, b)
	if err != nil {
		return nil, err
	}

	switch {
	case a.dtype == Bool && b.dtype == Bool:
		out := &Series{name: a.name, dtype: Bool, b: make([]bool, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !a.valid[ai(i)] || !b.valid[bi(i)] {
				continue
			}
			x, y := a.b[ai(i)], b.b[bi(i)]
			switch op {
			case "&":
				out.b[i] = x && y
			case "|":
				out.b[i] = x || y
			case "^":
				out.b[i] = x != y
			}
			out.valid[i] = true
		}
		return out, nil

	case a.dtype == Int64 && b.dtype == Int64:
		out := &Series{name: a.name, dtype: Int64, i64: make([]int64, n), valid: make([]bool, n)}
		for i := 0; i < n; i++ {
			if !a.valid[ai(i)] || !b.valid[bi(i)] {
				continue
			}
			x, y := a.i64[ai(i)], b.i64[bi(i)]
			switch op {
			case "&":
				out.i64[i] = x & y
			case "|":
				out.i64[i] = x | y
			case "^":
				out.i64[i] = x ^ y
			}
			out.valid[i] = true
		}
		return out, nil
	}

	return nil, fmt.Errorf("unsupported operand types for %s: %s and %s", op, a.dtype, b.dtype)
}

// Not is logical negation on Bool series and bitwise complement on Int64.
func (s *Series) Not() (*Series, error) {
	switch s.dtype {
	case Bool:
		out := &Series{name: s.name, dtype: Bool, b: make([]bool, s.Len()), valid: make([]bool, s.Len())}
		for i := 0; i < s.Len(); i++ {
			if !s.valid[i] {
				continue
			}
			out.b[i] = !s.b[i]
			out.valid[i] = true
		}
		return out, nil
	case Int64:
		out := &Series{name: s.name, dtype: Int64, i64: make([]int64, s.Len()), valid: make([]bool, s.Len())}
		for i := 0; i < s.Len(); i++ {
			if !s.valid[i] {
				continue
			}
			out.i64[i] = ^s.i64[i]
			out.valid[i] = true
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported operand type for ~: %s", s.dtype)
}

// Neg negates numeric and duration series.
func (s *Series) Neg() (*Series, error) {
	switch s.dtype {
	case Int64:
		out := &Series{name: s.name, dtype: Int64, i64: make([]int64, s.Len()), valid: make([]bool, s.Len())}
		for i := 0; i < s.Len(); i++ {
			if !s.valid[i] {
				continue
			}
			out.i64[i] = -s.i64[i]
			out.valid[i] = true
		}
		return out, nil
	case Float64:
		out := &Series{name: s.name, dtype: Float64, f64: make([]float64, s.Len()), valid: make([]bool, s.Len())}
		for i := 0; i < s.Len(); i++ {
			if !s.valid[i] {
				continue
			}
			out.f64[i] = -s.f64[i]
			out.valid[i] = true
		}
		return out, nil
	case Duration:
		out := &Series{name: s.name, dtype: Duration, d: make([]time.Duration, s.Len()), valid: make([]bool, s.Len())}
		for i := 0; i < s.Len(); i++ {
			if !s.valid[i] {
				continue
			}
			out.d[i] = -s.d[i]
			out.valid[i] = true
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported operand type for -: %s", s.dtype)
}

// Abs returns the absolute value of numeric and duration series.
func (s *Series) Abs() (*Series, error) {
	switch s.dtype {
	case Int64:
		out := &Series{name: s.name, dtype: Int64, i64: make([]int64, s.Len()), valid: make([]bool, s.Len())}
		for i := 0; i < s.Len(); i++ {
			if !s.valid[i] {
				continue
			}
			v := s.i64[i]
			if v < 0 {
				v = -v
			}
			out.i64[i] = v
			out.valid[i] = true
		}
		return out, nil
	case Float64:
		out := &Series{name: s.name, dtype: Float64, f64: make([]float64, s.Len()), valid: make([]bool, s.Len())}
		for i := 0; i < s.Len(); i++ {
			if !s.valid[i] {
				continue
			}
			out.f64[i] = math.Abs(s.f64[i])
			out.valid[i] = true
		}
		return out, nil
	case Duration:
		out := &Series{name: s.name, dtype: Duration, d: make([]time.Duration, s.Len()), valid: make([]bool, s.Len())}
		for i := 0; i < s.Len(); i++ {
			if !s.valid[i] {
				continue
			}
			v := s.d[i]
			if v < 0 {
				v = -v
			}
			out.d[i] = v
			out.valid[i] = true
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported operand type for abs: %s", s.dtype)
}

// Round rounds Float64 series to the given number of decimal places
// (half away from zero). Int64 series pass through unchanged.
func (s *Series) Round(places int) (*Series, error) {
	switch s.dtype {
	case Int64:
		out := *s
		return &out, nil
	case Float64:
		out := &Series{name: s.name, dtype: Float64, f64: make([]float64, s.Len()), valid: make([]bool, s.Len())}
		shift := math.Pow(10, float64(places))
		for i := 0; i < s.Len(); i++ {
			if !s.valid[i] {
				continue
			}
			out.f64[i] = math.Round(s.f64[i]*shift) / shift
			out.valid[i] = true
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported operand type for round: %s", s.dtype)
}

// IsNull returns a Bool series marking null rows.
func (s *Series) IsNull() *Series {
	out := &Series{name: s.name, dtype: Bool, b: make([]bool, s.Len()), valid: make([]bool, s.Len())}
	for i := 0; i < s.Len(); i++ {
		out.b[i] = !s.valid[i]
		out.valid[i] = true
	}
	return out
}

// FillNull replaces null rows with the corresponding row of fill
// (broadcast from length 1 if needed).
func (s *Series) FillNull(fill *Series) (*Series, error) {
	if fill.dtype != s.dtype {
		// Allow int fill on float columns
		if s.dtype == Float64 && fill.dtype == Int64 {
			cast, err := fill.Cast(Float64)
			if err != nil {
				return nil, err
			}
			fill = cast
		} else {
			return nil, fmt.Errorf("fill value type %s does not match column type %s", fill.dtype, s.dtype)
		}
	}
	n, ai, bi, err := broadcastIdx(s, fill)
	if err != nil {
		return nil, err
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = ai(i)
	}
	out := s.gather(idx)
	for i := 0; i < n; i++ {
		if out.valid[i] {
			continue
		}
		j := bi(i)
		if !fill.valid[j] {
			continue
		}
		if err := out.set(i, fill.Value(j)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Aggregations. Empty and all-null series sum to the zero value; the other
// aggregations return nil for "no result".

// Count returns the number of non-null rows.
func (s *Series) Count() int {
	n := 0
	for _, v := range s.valid {
		if v {
			n++
		}
	}
	return n
}

// Sum totals the series. Bool series count their true rows.
func (s *Series) Sum() (any, error) {
	switch s.dtype {
	case Int64:
		var sum int64
		for i, v := range s.valid {
			if v {
				sum += s.i64[i]
			}
		}
		return sum, nil
	case Float64:
		var sum float64
		for i, v := range s.valid {
			if v {
				sum += s.f64[i]
			}
		}
		return sum, nil
	case Bool:
		var sum int64
		for i, v := range s.valid {
			if v && s.b[i] {
				sum++
			}
		}
		return sum, nil
	case Duration:
		var sum time.Duration
		for i, v := range s.valid {
			if v {
				sum += s.d[i]
			}
		}
		return sum, nil
	}
	return nil, fmt.Errorf("cannot sum a %s series", s.dtype)
}

// Mean averages the series: Float64 for numeric and bool input, Duration
// for durations. All-null input yields nil.
func (s *Series) Mean() (any, error) {
	count := s.Count()
	if count == 0 {
		return nil, nil
	}
	switch s.dtype {
	case Int64:
		var sum int64
		for i, v := range s.valid {
			if v {
				sum += s.i64[i]
			}
		}
		return float64(sum) / float64(count), nil
	case Float64:
		var sum float64
		for i, v := range s.valid {
			if v {
				sum += s.f64[i]
			}
		}
		return sum / float64(count), nil
	case Bool:
		var sum float64
		for i, v := range s.valid {
			if v && s.b[i] {
				sum++
			}
		}
		return sum / float64(count), nil
	case Duration:
		var sum time.Duration
		for i, v := range s.valid {
			if v {
				sum += s.d[i]
			}
		}
		return sum / time.Duration(count), nil
	}
	return nil, fmt.Errorf("cannot average a %s series", s.dtype)
}

// Min returns the smallest value, or nil if there is none.
func (s *Series) Min() (any, error) {
	return s.extreme(-1)
}

// Max returns the largest value, or nil if there is none.
func (s *Series) Max() (any, error) {
	return s.extreme(1)
}

func (s *Series) extreme(want int) (any, error) {
	best := -1
	for i := 0; i < s.Len(); i++ {
		if !s.valid[i] {
			continue
		}
		if best == -1 || s.compareAt(i, best) == want {
			best = i
		}
	}
	if best == -1 {
		return nil, nil
	}
	return s.Value(best), nil
}

// First returns the value in the first row (nil when null or empty).
func (s *Series) First() any {
	if s.Len() == 0 {
		return nil
	}
	return s.Value(0)
}

// Last returns the value in the last row (nil when null or empty).
func (s *Series) Last() any {
	if s.Len() == 0 {
		return nil
	}
	return s.Value(s.Len() - 1)
}

// aggregate runs a named aggregation, shared by grouped and rolling views.
func aggregate(s *Series, how string) (any, error) {
	switch how {
	case "sum":
		return s.Sum()
	case "mean":
		return s.Mean()
	case "min":
		return s.Min()
	case "max":
		return s.Max()
	case "count":
		return int64(s.Count()), nil
	case "first":
		return s.First(), nil
	case "last":
		return s.Last(), nil
	}
	return nil, fmt.Errorf("unknown aggregation %q", how)
}

// CumSum returns the running total. Null rows stay null and do not reset
// the accumulator.
func (s *Series) CumSum() (*Series, error) {
	switch s.dtype {
	case Int64:
		out := &Series{name: s.name, dtype: Int64, i64: make([]int64, s.Len()), valid: make([]bool, s.Len())}
		var sum int64
		for i := 0; i < s.Len(); i++ {
			if !s.valid[i] {
				continue
			}
			sum += s.i64[i]
			out.i64[i] = sum
			out.valid[i] = true
		}
		return out, nil
	case Float64:
		out := &Series{name: s.name, dtype: Float64, f64: make([]float64, s.Len()), valid: make([]bool, s.Len())}
		var sum float64
		for i := 0; i < s.Len(); i++ {
			if !s.valid[i] {
				continue
			}
			sum += s.f64[i]
			out.f64[i] = sum
			out.valid[i] = true
		}
		return out, nil
	case Duration:
		out := &Series{name: s.name, dtype: Duration, d: make([]time.Duration, s.Len()), valid: make([]bool, s.Len())}
		var sum time.Duration
		for i := 0; i < s.Len(); i++ {
			if !s.valid[i] {
				continue
			}
			sum += s.d[i]
			out.d[i] = sum
			out.valid[i] = true
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot cumsum a %s series", s.dtype)
}

// rolling applies a windowed aggregation. Rows before the window fills, and
// windows with no valid values, are null.
func (s *Series) rolling(window int, how string) (*Series, error) {
	if window < 1 {
		return nil, fmt.Errorf("window must be at least 1, got %d", window)
	}
	values := make([]any, s.Len())
	for i := 0; i < s.Len(); i++ {
		if i < window-1 {
			continue
		}
		idx := make([]int, window)
		for j := range idx {
			idx[j] = i - window + 1 + j
		}
		win := s.gather(idx)
		v, err := aggregate(win, how)
		if err != nil {
			return nil, err
		}
		// A count of zero means an empty window for the other aggregations
		if how != "count" && win.Count() == 0 {
			continue
		}
		values[i] = v
	}
	out, err := FromValues(s.name, values)
	if err != nil {
		return nil, err
	}
	return out, nil
}
