package frame

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Frame is an ordered collection of equal-length named columns. All
// operations return new frames; Put is the single in-place exception and is
// host-only surface.
type Frame struct {
	cols []*Series
}

// ColumnNotFoundError reports a missing column and carries the available
// names so callers can suggest a close match.
type ColumnNotFoundError struct {
	Name    string
	Columns []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("no column %q in table", e.Name)
}

// NewFrame builds a frame from columns. Columns must be uniquely named and
// of equal length.
func NewFrame(cols ...*Series) (*Frame, error) {
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if c.Name() == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, ok := seen[c.Name()]; ok {
			return nil, fmt.Errorf("duplicate column %q", c.Name())
		}
		seen[c.Name()] = struct{}{}
		if c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("column %q has length %d, want %d", c.Name(), c.Len(), cols[0].Len())
		}
	}
	out := make([]*Series, len(cols))
	copy(out, cols)
	return &Frame{cols: out}, nil
}

// FromColumns builds a frame from parallel name and value slices, inferring
// each column's dtype.
func FromColumns(names []string, values [][]any) (*Frame, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("got %d names for %d value columns", len(names), len(values))
	}
	cols := make([]*Series, len(names))
	for i, name := range names {
		s, err := FromValues(name, values[i])
		if err != nil {
			return nil, err
		}
		cols[i] = s
	}
	return NewFrame(cols...)
}

// FromMaps builds a frame from row maps. The columns slice fixes column
// order; when nil, the union of keys is used in sorted order. Missing keys
// become nulls.
func FromMaps(rows []map[string]any, columns []string) (*Frame, error) {
	if columns == nil {
		seen := make(map[string]struct{})
		for _, row := range rows {
			for k := range row {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					columns = append(columns, k)
				}
			}
		}
		sort.Strings(columns)
	}
	values := make([][]any, len(columns))
	for i, name := range columns {
		col := make([]any, len(rows))
		for j, row := range rows {
			col[j] = row[name] // absent key stays nil
		}
		values[i] = col
	}
	return FromColumns(columns, values)
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name()
	}
	return names
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Series, error) {
	for _, c := range f.cols {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, &ColumnNotFoundError{Name: name, Columns: f.Columns()}
}

// HasColumn reports whether the frame has a column of that name.
func (f *Frame) HasColumn(name string) bool {
	for _, c := range f.cols {
		if c.Name() == name {
			return true
		}
	}
	return false
}

// Height returns the row count.
func (f *Frame) Height() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Len()
}

// Width returns the column count.
func (f *Frame) Width() int { return len(f.cols) }

// Shape returns (rows, columns).
func (f *Frame) Shape() (int, int) { return f.Height(), f.Width() }

// gatherRows returns a new frame holding the given rows, in order.
func (f *Frame) gatherRows(idx []int) *Frame {
	cols := make([]*Series, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.gather(idx)
	}
	return &Frame{cols: cols}
}

// Select projects the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]*Series, len(names))
	for i, name := range names {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return NewFrame(cols...)
}

// SelectExprs evaluates expressions into a new frame. Length-1 results
// broadcast to the tallest column; other length mismatches are errors.
func (f *Frame) SelectExprs(exprs ...*Expr) (*Frame, error) {
	if len(exprs) == 0 {
		return nil, fmt.Errorf("select needs at least one expression")
	}
	series := make([]*Series, len(exprs))
	height := 0
	for i, e := range exprs {
		s, err := e.Eval(f)
		if err != nil {
			return nil, err
		}
		series[i] = s.Rename(e.OutputName())
		if s.Len() > height {
			height = s.Len()
		}
	}
	for i, s := range series {
		if s.Len() == height {
			continue
		}
		if s.Len() != 1 {
			return nil, fmt.Errorf("column %q has length %d, want %d", s.Name(), s.Len(), height)
		}
		idx := make([]int, height)
		series[i] = s.gather(idx)
	}
	return NewFrame(series...)
}

// Drop removes the named columns.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		if !f.HasColumn(name) {
			return nil, &ColumnNotFoundError{Name: name, Columns: f.Columns()}
		}
		drop[name] = struct{}{}
	}
	var cols []*Series
	for _, c := range f.cols {
		if _, ok := drop[c.Name()]; !ok {
			cols = append(cols, c)
		}
	}
	return &Frame{cols: cols}, nil
}

// Rename renames one column, keeping its position.
func (f *Frame) Rename(old, new string) (*Frame, error) {
	if !f.HasColumn(old) {
		return nil, &ColumnNotFoundError{Name: old, Columns: f.Columns()}
	}
	if new != old && f.HasColumn(new) {
		return nil, fmt.Errorf("column %q already exists", new)
	}
	cols := make([]*Series, len(f.cols))
	for i, c := range f.cols {
		if c.Name() == old {
			cols[i] = c.Rename(new)
		} else {
			cols[i] = c
		}
	}
	return &Frame{cols: cols}, nil
}

// WithColumn adds or replaces a column computed from the expression.
// Length-1 results broadcast to the frame height.
func (f *Frame) WithColumn(name string, e *Expr) (*Frame, error) {
	s, err := e.Eval(f)
	if err != nil {
		return nil, err
	}
	s = s.Rename(name)
	if len(f.cols) > 0 && s.Len() != f.Height() {
		if s.Len() != 1 {
			return nil, fmt.Errorf("column %q has length %d, want %d", name, s.Len(), f.Height())
		}
		idx := make([]int, f.Height())
		s = s.gather(idx)
	}
	cols := make([]*Series, len(f.cols))
	copy(cols, f.cols)
	for i, c := range cols {
		if c.Name() == name {
			cols[i] = s
			return &Frame{cols: cols}, nil
		}
	}
	return &Frame{cols: append(cols, s)}, nil
}

// Filter keeps the rows where the expression is true. The expression must
// produce booleans; nulls drop the row.
func (f *Frame) Filter(e *Expr) (*Frame, error) {
	mask, err := e.Eval(f)
	if err != nil {
		return nil, err
	}
	if mask.DType() != Bool {
		return nil, fmt.Errorf("filter expects a boolean expression, got %s", mask.DType())
	}
	if mask.Len() != f.Height() && mask.Len() != 1 {
		return nil, fmt.Errorf("filter mask has length %d, want %d", mask.Len(), f.Height())
	}
	var idx []int
	for i := 0; i < f.Height(); i++ {
		j := i
		if mask.Len() == 1 {
			j = 0
		}
		if mask.IsValid(j) && mask.b[j] {
			idx = append(idx, i)
		}
	}
	return f.gatherRows(idx), nil
}

// FilterSeries keeps the rows where the mask series is true — the Series
// counterpart of Filter.
func (f *Frame) FilterSeries(mask *Series) (*Frame, error) {
	if mask.DType() != Bool {
		return nil, fmt.Errorf("filter expects a boolean mask, got %s", mask.DType())
	}
	if mask.Len() != f.Height() && mask.Len() != 1 {
		return nil, fmt.Errorf("filter mask has length %d, want %d", mask.Len(), f.Height())
	}
	var idx []int
	for i := 0; i < f.Height(); i++ {
		j := i
		if mask.Len() == 1 {
			j = 0
		}
		if mask.IsValid(j) && mask.b[j] {
			idx = append(idx, i)
		}
	}
	return f.gatherRows(idx), nil
}

// SortKey names a sort column and its direction.
type SortKey struct {
	Column     string
	Descending bool
}

// Sort orders rows by the given keys. The sort is stable; nulls sort last
// within each key regardless of direction.
func (f *Frame) Sort(keys ...SortKey) (*Frame, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("sort needs at least one key")
	}
	series := make([]*Series, len(keys))
	for i, k := range keys {
		s, err := f.Column(k.Column)
		if err != nil {
			return nil, err
		}
		series[i] = s
	}
	idx := make([]int, f.Height())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for i, s := range series {
			cmp := s.compareAt(idx[a], idx[b])
			if cmp == 0 {
				continue
			}
			// Nulls stay last even when descending
			if !s.valid[idx[a]] || !s.valid[idx[b]] {
				return cmp < 0
			}
			if keys[i].Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return f.gatherRows(idx), nil
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n < 0 {
		n = 0
	}
	if n > f.Height() {
		n = f.Height()
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return f.gatherRows(idx)
}

// Tail returns the last n rows.
func (f *Frame) Tail(n int) *Frame {
	if n < 0 {
		n = 0
	}
	if n > f.Height() {
		n = f.Height()
	}
	idx := make([]int, n)
	start := f.Height() - n
	for i := range idx {
		idx[i] = start + i
	}
	return f.gatherRows(idx)
}

// rowSignature builds a collision-safe key for whole-row comparison.
func (f *Frame) rowSignature(row int, cols []*Series) string {
	var sb strings.Builder
	for _, c := range cols {
		if !c.IsValid(row) {
			sb.WriteString("\x01")
		} else if c.DType() == String {
			sb.WriteString(strconv.Quote(c.str[row]))
		} else {
			sb.WriteString(c.FormatValue(row))
		}
		sb.WriteString("\x00")
	}
	return sb.String()
}

// Unique drops duplicate rows, keeping the first occurrence.
func (f *Frame) Unique() *Frame {
	seen := make(map[string]struct{})
	var idx []int
	for i := 0; i < f.Height(); i++ {
		sig := f.rowSignature(i, f.cols)
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		idx = append(idx, i)
	}
	return f.gatherRows(idx)
}

// Join merges two frames on equal key columns. how is "inner", "left", or
// "outer". Overlapping non-key column names from the right side get a
// "_right" suffix. Row order: left rows in order, each with its matches in
// right order; an outer join appends unmatched right rows at the end.
func (f *Frame) Join(other *Frame, on []string, how string) (*Frame, error) {
	if how != "inner" && how != "left" && how != "outer" {
		return nil, fmt.Errorf("unknown join type %q (want inner, left, or outer)", how)
	}
	if len(on) == 0 {
		return nil, fmt.Errorf("join needs at least one key column")
	}
	leftKeys := make([]*Series, len(on))
	rightKeys := make([]*Series, len(on))
	for i, name := range on {
		var err error
		if leftKeys[i], err = f.Column(name); err != nil {
			return nil, err
		}
		if rightKeys[i], err = other.Column(name); err != nil {
			return nil, err
		}
		if leftKeys[i].DType() != rightKeys[i].DType() {
			return nil, fmt.Errorf("join key %q has type %s on the left and %s on the right",
				name, leftKeys[i].DType(), rightKeys[i].DType())
		}
	}

	// Hash the right side by key signature
	rightByKey := make(map[string][]int)
	for i := 0; i < other.Height(); i++ {
		sig := other.rowSignature(i, rightKeys)
		rightByKey[sig] = append(rightByKey[sig], i)
	}

	keySet := make(map[string]struct{}, len(on))
	for _, name := range on {
		keySet[name] = struct{}{}
	}
	var rightVals []*Series
	for _, c := range other.cols {
		if _, ok := keySet[c.Name()]; !ok {
			rightVals = append(rightVals, c)
		}
	}

	var leftIdx, rightIdx []int // rightIdx -1 = null row
	matched := make(map[int]bool)
	for i := 0; i < f.Height(); i++ {
		sig := f.rowSignature(i, leftKeys)
		matches := rightByKey[sig]
		if len(matches) == 0 {
			if how == "left" || how == "outer" {
				leftIdx = append(leftIdx, i)
				rightIdx = append(rightIdx, -1)
			}
			continue
		}
		for _, j := range matches {
			leftIdx = append(leftIdx, i)
			rightIdx = append(rightIdx, j)
			matched[j] = true
		}
	}
	var extraRight []int
	if how == "outer" {
		for j := 0; j < other.Height(); j++ {
			if !matched[j] {
				extraRight = append(extraRight, j)
			}
		}
	}

	height := len(leftIdx) + len(extraRight)
	var cols []*Series

	// Left columns; key columns take right-side values on unmatched-right rows
	for _, c := range f.cols {
		vals := make([]any, height)
		for r, i := range leftIdx {
			vals[r] = c.Value(i)
		}
		if _, isKey := keySet[c.Name()]; isKey && len(extraRight) > 0 {
			rc, _ := other.Column(c.Name())
			for r, j := range extraRight {
				vals[len(leftIdx)+r] = rc.Value(j)
			}
		}
		s, err := fromValuesTyped(c.Name(), c.DType(), vals)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s)
	}

	// Right value columns
	for _, c := range rightVals {
		name := c.Name()
		if f.HasColumn(name) {
			name += "_right"
		}
		vals := make([]any, height)
		for r, j := range rightIdx {
			if j >= 0 {
				vals[r] = c.Value(j)
			}
		}
		for r, j := range extraRight {
			vals[len(leftIdx)+r] = c.Value(j)
		}
		s, err := fromValuesTyped(name, c.DType(), vals)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s)
	}

	return NewFrame(cols...)
}

// fromValuesTyped builds a series of a known dtype from dynamic values,
// keeping the dtype even when every value is nil.
func fromValuesTyped(name string, dtype DType, vals []any) (*Series, error) {
	s, err := FromValues(name, vals)
	if err != nil {
		return nil, err
	}
	if s.DType() != dtype && s.Count() == 0 {
		return s.Cast(dtype)
	}
	if s.DType() != dtype {
		// int column reconstructed from any-values may need the wider type
		return s.Cast(dtype)
	}
	return s, nil
}

// GroupBy groups rows by the given key columns.
func (f *Frame) GroupBy(keys ...string) (*GroupedFrame, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("group by needs at least one key column")
	}
	keyCols := make([]*Series, len(keys))
	for i, name := range keys {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		keyCols[i] = c
	}
	groups := make(map[string]int)
	var order [][]int
	for i := 0; i < f.Height(); i++ {
		sig := f.rowSignature(i, keyCols)
		g, ok := groups[sig]
		if !ok {
			g = len(order)
			groups[sig] = g
			order = append(order, nil)
		}
		order[g] = append(order[g], i)
	}
	return &GroupedFrame{src: f, keys: keys, groups: order}, nil
}

// Rolling creates a row-ordered rolling window view.
func (f *Frame) Rolling(window int) (*RollingFrame, error) {
	if window < 1 {
		return nil, fmt.Errorf("window must be at least 1, got %d", window)
	}
	return &RollingFrame{src: f, window: window}, nil
}

// ToMaps converts the frame to row maps, nulls as nil.
func (f *Frame) ToMaps() []map[string]any {
	rows := make([]map[string]any, f.Height())
	for i := range rows {
		row := make(map[string]any, len(f.cols))
		for _, c := range f.cols {
			row[c.Name()] = c.Value(i)
		}
		rows[i] = row
	}
	return rows
}

// ToColumns converts the frame to parallel name and value slices.
func (f *Frame) ToColumns() ([]string, [][]any) {
	names := f.Columns()
	values := make([][]any, len(f.cols))
	for i, c := range f.cols {
		values[i] = c.ToList()
	}
	return names, values
}

// Put writes one cell in place. This mutates the frame and is host-only
// surface; it must never be reachable from evaluated formulas.
func (f *Frame) Put(column string, row int, value any) error {
	c, err := f.Column(column)
	if err != nil {
		return err
	}
	return c.set(row, normalizeLit(value))
}

// Render budget for String().
const (
	maxRenderRows = 15
	maxRenderCols = 10
)

// String renders the frame as an aligned text table, truncated to a
// row/column budget.
func (f *Frame) String() string {
	h, w := f.Shape()
	var sb strings.Builder
	fmt.Fprintf(&sb, "shape: (%d, %d)\n", h, w)

	cols := f.cols
	truncCols := false
	if len(cols) > maxRenderCols {
		cols = cols[:maxRenderCols]
		truncCols = true
	}
	rows := h
	truncRows := false
	if rows > maxRenderRows {
		rows = maxRenderRows
		truncRows = true
	}

	cells := func(c *Series, i int) string {
		if !c.IsValid(i) {
			return "null"
		}
		return c.FormatValue(i)
	}

	widths := make([]int, len(cols))
	for j, c := range cols {
		widths[j] = len(c.Name())
		if l := len(c.DType().String()); l > widths[j] {
			widths[j] = l
		}
		for i := 0; i < rows; i++ {
			if l := len(cells(c, i)); l > widths[j] {
				widths[j] = l
			}
		}
	}

	writeRow := func(get func(j int) string) {
		for j := range cols {
			if j > 0 {
				sb.WriteString("  ")
			}
			fmt.Fprintf(&sb, "%-*s", widths[j], get(j))
		}
		if truncCols {
			sb.WriteString("  …")
		}
		sb.WriteString("\n")
	}

	writeRow(func(j int) string { return cols[j].Name() })
	writeRow(func(j int) string { return cols[j].DType().String() })
	writeRow(func(j int) string { return strings.Repeat("-", widths[j]) })
	for i := 0; i < rows; i++ {
		row := i
		writeRow(func(j int) string { return cells(cols[j], row) })
	}
	if truncRows {
		fmt.Fprintf(&sb, "… (%d more rows)\n", h-rows)
	}
	return strings.TrimRight(sb.String(), "\n")
}
