package frame

import (
	"fmt"
)

// GroupedFrame is a group-by view over a source frame. Groups keep the
// order in which their keys first appear; the view itself is immutable and
// computes nothing until an aggregation is requested.
type GroupedFrame struct {
	src    *Frame
	keys   []string
	groups [][]int // row indexes per group, in first-appearance order
}

// Keys returns the grouping column names.
func (g *GroupedFrame) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// NumGroups returns the number of distinct key combinations.
func (g *GroupedFrame) NumGroups() int { return len(g.groups) }

// keyFrame builds the per-group key columns (one row per group).
func (g *GroupedFrame) keyFrame() (*Frame, error) {
	firstRows := make([]int, len(g.groups))
	for i, rows := range g.groups {
		firstRows[i] = rows[0]
	}
	keyed, err := g.src.Select(g.keys...)
	if err != nil {
		return nil, err
	}
	return keyed.gatherRows(firstRows), nil
}

// Agg evaluates aggregation expressions per group and returns one row per
// group: the key columns followed by one column per expression. Each
// expression must collapse its group to a single row.
func (g *GroupedFrame) Agg(exprs ...*Expr) (*Frame, error) {
	if len(exprs) == 0 {
		return nil, fmt.Errorf("agg needs at least one expression")
	}
	out, err := g.keyFrame()
	if err != nil {
		return nil, err
	}

	for _, e := range exprs {
		name := e.OutputName()
		if out.HasColumn(name) {
			return nil, fmt.Errorf("aggregation column %q collides with a group key (use an alias)", name)
		}
		vals := make([]any, len(g.groups))
		for i, rows := range g.groups {
			sub := g.src.gatherRows(rows)
			s, err := e.Eval(sub)
			if err != nil {
				return nil, err
			}
			if s.Len() != 1 {
				return nil, fmt.Errorf("aggregation %q produced %d rows per group, want 1", name, s.Len())
			}
			vals[i] = s.Value(0)
		}
		s, err := FromValues(name, vals)
		if err != nil {
			return nil, err
		}
		out, err = appendColumn(out, s)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Count returns the key columns plus a "count" column of group sizes.
func (g *GroupedFrame) Count() (*Frame, error) {
	out, err := g.keyFrame()
	if err != nil {
		return nil, err
	}
	counts := make([]int64, len(g.groups))
	for i, rows := range g.groups {
		counts[i] = int64(len(rows))
	}
	return appendColumn(out, NewInt64("count", counts, nil))
}

// aggAll applies one named aggregation to every non-key column.
func (g *GroupedFrame) aggAll(how string) (*Frame, error) {
	out, err := g.keyFrame()
	if err != nil {
		return nil, err
	}
	keySet := make(map[string]struct{}, len(g.keys))
	for _, k := range g.keys {
		keySet[k] = struct{}{}
	}
	for _, c := range g.src.cols {
		if _, ok := keySet[c.Name()]; ok {
			continue
		}
		vals := make([]any, len(g.groups))
		for i, rows := range g.groups {
			v, err := aggregate(c.gather(rows), how)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		s, err := FromValues(c.Name(), vals)
		if err != nil {
			return nil, err
		}
		out, err = appendColumn(out, s)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SumAll sums every non-key column per group.
func (g *GroupedFrame) SumAll() (*Frame, error) { return g.aggAll("sum") }

// MeanAll averages every non-key column per group.
func (g *GroupedFrame) MeanAll() (*Frame, error) { return g.aggAll("mean") }

// MinAll takes the per-group minimum of every non-key column.
func (g *GroupedFrame) MinAll() (*Frame, error) { return g.aggAll("min") }

// MaxAll takes the per-group maximum of every non-key column.
func (g *GroupedFrame) MaxAll() (*Frame, error) { return g.aggAll("max") }

// First keeps each group's first row.
func (g *GroupedFrame) First() (*Frame, error) { return g.aggAll("first") }

// Last keeps each group's last row.
func (g *GroupedFrame) Last() (*Frame, error) { return g.aggAll("last") }

func appendColumn(f *Frame, s *Series) (*Frame, error) {
	cols := make([]*Series, len(f.cols), len(f.cols)+1)
	copy(cols, f.cols)
	return NewFrame(append(cols, s)...)
}

// RollingFrame is a row-ordered rolling window view over a source frame.
type RollingFrame struct {
	src    *Frame
	window int
}

// Window returns the window size.
func (r *RollingFrame) Window() int { return r.window }

// Agg evaluates aggregation expressions over each trailing window and
// returns the source frame's columns plus one column per expression (same
// height as the source; rows before the window fills are null). Each
// expression must collapse a window to a single row.
func (r *RollingFrame) Agg(exprs ...*Expr) (*Frame, error) {
	if len(exprs) == 0 {
		return nil, fmt.Errorf("agg needs at least one expression")
	}
	out := &Frame{cols: append([]*Series(nil), r.src.cols...)}
	h := r.src.Height()

	for _, e := range exprs {
		name := e.OutputName()
		vals := make([]any, h)
		for i := r.window - 1; i < h; i++ {
			idx := make([]int, r.window)
			for j := range idx {
				idx[j] = i - r.window + 1 + j
			}
			win := r.src.gatherRows(idx)
			s, err := e.Eval(win)
			if err != nil {
				return nil, err
			}
			if s.Len() != 1 {
				return nil, fmt.Errorf("aggregation %q produced %d rows per window, want 1", name, s.Len())
			}
			vals[i] = s.Value(0)
		}
		s, err := FromValues(name, vals)
		if err != nil {
			return nil, err
		}
		if out.HasColumn(name) {
			return nil, fmt.Errorf("aggregation column %q collides with a source column (use an alias)", name)
		}
		var aerr error
		out, aerr = appendColumn(out, s)
		if aerr != nil {
			return nil, aerr
		}
	}
	return out, nil
}
