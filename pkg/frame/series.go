// Package frame implements the columnar engine behind Chervil's proxy
// layer: typed Series with null masks, lazy column expressions, Frame
// operations (filter, sort, group, join), and a CSV codec.
//
// The package is the trusted side of the capability boundary. Some of its
// surface (ReadCSV, WriteCSV, Put) performs I/O or in-place mutation and is
// intended for host code only; the evaluator's proxies expose a restricted
// subset.
package frame

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DType identifies the element type of a Series.
type DType int

const (
	Int64 DType = iota
	Float64
	Bool
	String
	Datetime
	Duration
)

func (d DType) String() string {
	switch d {
	case Int64:
		return "INT64"
	case Float64:
		return "FLOAT64"
	case Bool:
		return "BOOL"
	case String:
		return "STRING"
	case Datetime:
		return "DATETIME"
	case Duration:
		return "DURATION"
	default:
		return "UNKNOWN"
	}
}

// ParseDType converts a type name to a DType. Matching is case-insensitive.
func ParseDType(name string) (DType, error) {
	switch strings.ToUpper(name) {
	case "INT64", "INT":
		return Int64, nil
	case "FLOAT64", "FLOAT":
		return Float64, nil
	case "BOOL":
		return Bool, nil
	case "STRING", "STR":
		return String, nil
	case "DATETIME":
		return Datetime, nil
	case "DURATION":
		return Duration, nil
	default:
		return 0, fmt.Errorf("unknown dtype %q", name)
	}
}

// Series is an immutable typed column with a null mask. All operations
// return new Series; the only exception is the in-place set used by
// Frame.Put, which is host-only surface.
type Series struct {
	name  string
	dtype DType
	i64   []int64
	f64   []float64
	b     []bool
	str   []string
	t     []time.Time
	d     []time.Duration
	valid []bool // true = value present; nil means all valid
}

func validMask(n int, valid []bool) []bool {
	mask := make([]bool, n)
	if valid == nil {
		for i := range mask {
			mask[i] = true
		}
		return mask
	}
	copy(mask, valid)
	return mask
}

// NewInt64 creates an Int64 series. A nil valid mask means all present.
func NewInt64(name string, vals []int64, valid []bool) *Series {
	data := make([]int64, len(vals))
	copy(data, vals)
	return &Series{name: name, dtype: Int64, i64: data, valid: validMask(len(vals), valid)}
}

// NewFloat64 creates a Float64 series.
func NewFloat64(name string, vals []float64, valid []bool) *Series {
	data := make([]float64, len(vals))
	copy(data, vals)
	return &Series{name: name, dtype: Float64, f64: data, valid: validMask(len(vals), valid)}
}

// NewBool creates a Bool series.
func NewBool(name string, vals []bool, valid []bool) *Series {
	data := make([]bool, len(vals))
	copy(data, vals)
	return &Series{name: name, dtype: Bool, b: data, valid: validMask(len(vals), valid)}
}

// NewString creates a String series.
func NewString(name string, vals []string, valid []bool) *Series {
	data := make([]string, len(vals))
	copy(data, vals)
	return &Series{name: name, dtype: String, str: data, valid: validMask(len(vals), valid)}
}

// NewDatetime creates a Datetime series.
func NewDatetime(name string, vals []time.Time, valid []bool) *Series {
	data := make([]time.Time, len(vals))
	copy(data, vals)
	return &Series{name: name, dtype: Datetime, t: data, valid: validMask(len(vals), valid)}
}

// NewDuration creates a Duration series.
func NewDuration(name string, vals []time.Duration, valid []bool) *Series {
	data := make([]time.Duration, len(vals))
	copy(data, vals)
	return &Series{name: name, dtype: Duration, d: data, valid: validMask(len(vals), valid)}
}

// FromValues builds a series from dynamically-typed values, inferring the
// dtype. nil values become nulls. Int and float values may mix (the column
// promotes to Float64); any other mixture is an error.
func FromValues(name string, vals []any) (*Series, error) {
	dtype := Int64
	seen := false
	hasFloat := false

	for _, v := range vals {
		if v == nil {
			continue
		}
		var vt DType
		switch v.(type) {
		case int64, int:
			vt = Int64
		case float64:
			vt = Float64
			hasFloat = true
		case bool:
			vt = Bool
		case string:
			vt = String
		case time.Time:
			vt = Datetime
		case time.Duration:
			vt = Duration
		default:
			return nil, fmt.Errorf("column %q: unsupported value type %T", name, v)
		}
		if !seen {
			dtype = vt
			seen = true
			continue
		}
		if vt == dtype {
			continue
		}
		// int/float promotion is the only allowed mixture
		if (vt == Int64 && dtype == Float64) || (vt == Float64 && dtype == Int64) {
			dtype = Float64
			hasFloat = true
			continue
		}
		return nil, fmt.Errorf("column %q: mixed types %s and %s", name, dtype, vt)
	}
	if hasFloat {
		dtype = Float64
	}

	n := len(vals)
	valid := make([]bool, n)
	s := &Series{name: name, dtype: dtype, valid: valid}
	switch dtype {
	case Int64:
		s.i64 = make([]int64, n)
	case Float64:
		s.f64 = make([]float64, n)
	case Bool:
		s.b = make([]bool, n)
	case String:
		s.str = make([]string, n)
	case Datetime:
		s.t = make([]time.Time, n)
	case Duration:
		s.d = make([]time.Duration, n)
	}

	for i, v := range vals {
		if v == nil {
			continue
		}
		valid[i] = true
		switch dtype {
		case Int64:
			switch x := v.(type) {
			case int64:
				s.i64[i] = x
			case int:
				s.i64[i] = int64(x)
			}
		case Float64:
			switch x := v.(type) {
			case float64:
				s.f64[i] = x
			case int64:
				s.f64[i] = float64(x)
			case int:
				s.f64[i] = float64(x)
			}
		case Bool:
			s.b[i] = v.(bool)
		case String:
			s.str[i] = v.(string)
		case Datetime:
			s.t[i] = v.(time.Time)
		case Duration:
			s.d[i] = v.(time.Duration)
		}
	}
	return s, nil
}

// Name returns the series name.
func (s *Series) Name() string { return s.name }

// DType returns the element type.
func (s *Series) DType() DType { return s.dtype }

// Len returns the number of rows, nulls included.
func (s *Series) Len() int { return len(s.valid) }

// IsValid reports whether row i holds a value.
func (s *Series) IsValid(i int) bool {
	return i >= 0 && i < len(s.valid) && s.valid[i]
}

// Value returns the value at row i, or nil for nulls and out-of-range rows.
func (s *Series) Value(i int) any {
	if !s.IsValid(i) {
		return nil
	}
	switch s.dtype {
	case Int64:
		return s.i64[i]
	case Float64:
		return s.f64[i]
	case Bool:
		return s.b[i]
	case String:
		return s.str[i]
	case Datetime:
		return s.t[i]
	case Duration:
		return s.d[i]
	}
	return nil
}

// ToList returns all values as a slice, nulls as nil.
func (s *Series) ToList() []any {
	out := make([]any, s.Len())
	for i := range out {
		out[i] = s.Value(i)
	}
	return out
}

// Rename returns a copy of the series under a new name.
func (s *Series) Rename(name string) *Series {
	out := *s
	out.name = name
	return &out
}

// empty returns a zero-length series of the given dtype and name.
func empty(name string, dtype DType) *Series {
	return &Series{name: name, dtype: dtype, valid: []bool{}}
}

// gather returns a new series holding the rows at the given indexes, in
// order. Out-of-range indexes are not checked; callers own that invariant.
func (s *Series) gather(idx []int) *Series {
	out := &Series{name: s.name, dtype: s.dtype, valid: make([]bool, len(idx))}
	switch s.dtype {
	case Int64:
		out.i64 = make([]int64, len(idx))
		for j, i := range idx {
			out.i64[j] = s.i64[i]
			out.valid[j] = s.valid[i]
		}
	case Float64:
		out.f64 = make([]float64, len(idx))
		for j, i := range idx {
			out.f64[j] = s.f64[i]
			out.valid[j] = s.valid[i]
		}
	case Bool:
		out.b = make([]bool, len(idx))
		for j, i := range idx {
			out.b[j] = s.b[i]
			out.valid[j] = s.valid[i]
		}
	case String:
		out.str = make([]string, len(idx))
		for j, i := range idx {
			out.str[j] = s.str[i]
			out.valid[j] = s.valid[i]
		}
	case Datetime:
		out.t = make([]time.Time, len(idx))
		for j, i := range idx {
			out.t[j] = s.t[i]
			out.valid[j] = s.valid[i]
		}
	case Duration:
		out.d = make([]time.Duration, len(idx))
		for j, i := range idx {
			out.d[j] = s.d[i]
			out.valid[j] = s.valid[i]
		}
	}
	return out
}

// Head returns the first n rows (fewer if the series is shorter).
func (s *Series) Head(n int) *Series {
	if n < 0 {
		n = 0
	}
	if n > s.Len() {
		n = s.Len()
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return s.gather(idx)
}

// Tail returns the last n rows (fewer if the series is shorter).
func (s *Series) Tail(n int) *Series {
	if n < 0 {
		n = 0
	}
	if n > s.Len() {
		n = s.Len()
	}
	idx := make([]int, n)
	start := s.Len() - n
	for i := range idx {
		idx[i] = start + i
	}
	return s.gather(idx)
}

// Unique returns the distinct values in first-occurrence order. At most one
// null is kept.
func (s *Series) Unique() *Series {
	seen := make(map[any]struct{})
	seenNull := false
	var idx []int
	for i := 0; i < s.Len(); i++ {
		if !s.valid[i] {
			if !seenNull {
				seenNull = true
				idx = append(idx, i)
			}
			continue
		}
		v := s.Value(i)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		idx = append(idx, i)
	}
	return s.gather(idx)
}

// compareAt orders two rows of the same series: -1, 0, or 1. Nulls sort
// after every value regardless of direction.
func (s *Series) compareAt(i, j int) int {
	vi, vj := s.valid[i], s.valid[j]
	if !vi && !vj {
		return 0
	}
	if !vi {
		return 1
	}
	if !vj {
		return -1
	}
	switch s.dtype {
	case Int64:
		return compareInt64(s.i64[i], s.i64[j])
	case Float64:
		return compareFloat64(s.f64[i], s.f64[j])
	case Bool:
		return compareBool(s.b[i], s.b[j])
	case String:
		return strings.Compare(s.str[i], s.str[j])
	case Datetime:
		return s.t[i].Compare(s.t[j])
	case Duration:
		return compareInt64(int64(s.d[i]), int64(s.d[j]))
	}
	return 0
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case !a && b:
		return -1
	case a && !b:
		return 1
	}
	return 0
}

// SortedCopy returns the series sorted ascending (or descending). The sort
// is stable; nulls always land at the end.
func (s *Series) SortedCopy(descending bool) *Series {
	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		cmp := s.compareAt(idx[a], idx[b])
		if cmp == 0 {
			return false
		}
		// Nulls stay last even when descending
		if !s.valid[idx[a]] || !s.valid[idx[b]] {
			return cmp < 0
		}
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
	return s.gather(idx)
}

// Cast converts the series to another dtype. String parses fail hard;
// nulls stay null. Duration numeric casts are in seconds, Datetime numeric
// casts are Unix seconds.
func (s *Series) Cast(to DType) (*Series, error) {
	if to == s.dtype {
		out := *s
		return &out, nil
	}
	n := s.Len()
	out := &Series{name: s.name, dtype: to, valid: make([]bool, n)}
	copy(out.valid, s.valid)
	switch to {
	case Int64:
		out.i64 = make([]int64, n)
	case Float64:
		out.f64 = make([]float64, n)
	case Bool:
		out.b = make([]bool, n)
	case String:
		out.str = make([]string, n)
	case Datetime:
		out.t = make([]time.Time, n)
	case Duration:
		out.d = make([]time.Duration, n)
	}

	for i := 0; i < n; i++ {
		if !s.valid[i] {
			continue
		}
		if err := castValue(s, out, i, to); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func castValue(s, out *Series, i int, to DType) error {
	switch s.dtype {
	case Int64:
		v := s.i64[i]
		switch to {
		case Float64:
			out.f64[i] = float64(v)
		case Bool:
			out.b[i] = v != 0
		case String:
			out.str[i] = strconv.FormatInt(v, 10)
		case Datetime:
			out.t[i] = time.Unix(v, 0).UTC()
		case Duration:
			out.d[i] = time.Duration(v) * time.Second
		default:
			return castError(s.dtype, to)
		}
	case Float64:
		v := s.f64[i]
		switch to {
		case Int64:
			out.i64[i] = int64(v)
		case Bool:
			out.b[i] = v != 0
		case String:
			out.str[i] = strconv.FormatFloat(v, 'g', -1, 64)
		case Duration:
			out.d[i] = time.Duration(v * float64(time.Second))
		default:
			return castError(s.dtype, to)
		}
	case Bool:
		v := s.b[i]
		switch to {
		case Int64:
			if v {
				out.i64[i] = 1
			}
		case Float64:
			if v {
				out.f64[i] = 1
			}
		case String:
			out.str[i] = strconv.FormatBool(v)
		default:
			return castError(s.dtype, to)
		}
	case String:
		v := s.str[i]
		switch to {
		case Int64:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return fmt.Errorf("cannot cast %q to %s", v, to)
			}
			out.i64[i] = n
		case Float64:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("cannot cast %q to %s", v, to)
			}
			out.f64[i] = f
		case Bool:
			b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
			if err != nil {
				return fmt.Errorf("cannot cast %q to %s", v, to)
			}
			out.b[i] = b
		case Datetime:
			t, err := dateparse.ParseAny(v)
			if err != nil {
				return fmt.Errorf("cannot cast %q to %s", v, to)
			}
			out.t[i] = t
		case Duration:
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("cannot cast %q to %s", v, to)
			}
			out.d[i] = d
		default:
			return castError(s.dtype, to)
		}
	case Datetime:
		v := s.t[i]
		switch to {
		case Int64:
			out.i64[i] = v.Unix()
		case String:
			out.str[i] = v.Format(time.RFC3339)
		default:
			return castError(s.dtype, to)
		}
	case Duration:
		v := s.d[i]
		switch to {
		case Int64:
			out.i64[i] = int64(v / time.Second)
		case Float64:
			out.f64[i] = v.Seconds()
		case String:
			out.str[i] = v.String()
		default:
			return castError(s.dtype, to)
		}
	}
	return nil
}

func castError(from, to DType) error {
	return fmt.Errorf("cannot cast %s to %s", from, to)
}

// set writes a value in place. Host-only surface backing Frame.Put.
func (s *Series) set(i int, v any) error {
	if i < 0 || i >= s.Len() {
		return fmt.Errorf("row %d out of range (length %d)", i, s.Len())
	}
	if v == nil {
		s.valid[i] = false
		return nil
	}
	switch s.dtype {
	case Int64:
		switch x := v.(type) {
		case int64:
			s.i64[i] = x
		case int:
			s.i64[i] = int64(x)
		default:
			return fmt.Errorf("cannot put %T into %s column", v, s.dtype)
		}
	case Float64:
		switch x := v.(type) {
		case float64:
			s.f64[i] = x
		case int64:
			s.f64[i] = float64(x)
		case int:
			s.f64[i] = float64(x)
		default:
			return fmt.Errorf("cannot put %T into %s column", v, s.dtype)
		}
	case Bool:
		x, ok := v.(bool)
		if !ok {
			return fmt.Errorf("cannot put %T into %s column", v, s.dtype)
		}
		s.b[i] = x
	case String:
		x, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot put %T into %s column", v, s.dtype)
		}
		s.str[i] = x
	case Datetime:
		x, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("cannot put %T into %s column", v, s.dtype)
		}
		s.t[i] = x
	case Duration:
		x, ok := v.(time.Duration)
		if !ok {
			return fmt.Errorf("cannot put %T into %s column", v, s.dtype)
		}
		s.d[i] = x
	}
	s.valid[i] = true
	return nil
}

// FormatValue renders a single value the way the CSV codec and the table
// renderer print it. Nulls render as the empty string.
func (s *Series) FormatValue(i int) string {
	if !s.IsValid(i) {
		return ""
	}
	switch s.dtype {
	case Int64:
		return strconv.FormatInt(s.i64[i], 10)
	case Float64:
		return strconv.FormatFloat(s.f64[i], 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(s.b[i])
	case String:
		return s.str[i]
	case Datetime:
		return s.t[i].Format(time.RFC3339)
	case Duration:
		return s.d[i].String()
	}
	return ""
}
