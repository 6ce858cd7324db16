package frame

import (
	"testing"
)

func groupFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := FromColumns(
		[]string{"dept", "salary"},
		[][]any{
			{"eng", "ops", "eng", "ops", "eng"},
			{int64(100), int64(50), int64(120), int64(60), int64(110)},
		},
	)
	if err != nil {
		t.Fatalf("FromColumns: %v", err)
	}
	return f
}

func TestGroupByAgg(t *testing.T) {
	f := groupFrame(t)
	g, err := f.GroupBy("dept")
	if err != nil {
		t.Fatalf("GroupBy: %v", err)
	}
	if g.NumGroups() != 2 {
		t.Fatalf("expected 2 groups, got %d", g.NumGroups())
	}

	agg, err := g.Agg(
		Col("salary").Sum().Alias("total"),
		Col("salary").Mean().Alias("avg"),
	)
	if err != nil {
		t.Fatalf("Agg: %v", err)
	}
	if !equalStrings(agg.Columns(), []string{"dept", "total", "avg"}) {
		t.Fatalf("agg columns: got %v", agg.Columns())
	}

	// Groups appear in first-seen order
	if !equalStrings(stringColumn(t, agg, "dept"), []string{"eng", "ops"}) {
		t.Errorf("group order: got %v", stringColumn(t, agg, "dept"))
	}
	if !equalInt64(intColumn(t, agg, "total"), []int64{330, 110}) {
		t.Errorf("totals: got %v", intColumn(t, agg, "total"))
	}
}

func TestGroupByNonAggregateExprFails(t *testing.T) {
	f := groupFrame(t)
	g, err := f.GroupBy("dept")
	if err != nil {
		t.Fatalf("GroupBy: %v", err)
	}
	// A per-row expression does not reduce each group to one value
	if _, err := g.Agg(Col("salary").Add(Lit(int64(1)))); err == nil {
		t.Error("expected an error aggregating with a non-reducing expression")
	}
}

func TestGroupByShorthand(t *testing.T) {
	f := groupFrame(t)
	g, err := f.GroupBy("dept")
	if err != nil {
		t.Fatalf("GroupBy: %v", err)
	}

	counts, err := g.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if !equalInt64(intColumn(t, counts, "count"), []int64{3, 2}) {
		t.Errorf("counts: got %v", intColumn(t, counts, "count"))
	}

	maxes, err := g.MaxAll()
	if err != nil {
		t.Fatalf("MaxAll: %v", err)
	}
	if !equalInt64(intColumn(t, maxes, "salary"), []int64{120, 60}) {
		t.Errorf("maxes: got %v", intColumn(t, maxes, "salary"))
	}
}

func TestGroupByMissingKey(t *testing.T) {
	f := groupFrame(t)
	if _, err := f.GroupBy("nope"); err == nil {
		t.Error("expected an error grouping by a missing column")
	}
}

func TestRollingAgg(t *testing.T) {
	f, err := FromColumns([]string{"x"}, [][]any{
		{int64(1), int64(2), int64(3), int64(4)},
	})
	if err != nil {
		t.Fatalf("FromColumns: %v", err)
	}

	r, err := f.Rolling(2)
	if err != nil {
		t.Fatalf("Rolling: %v", err)
	}
	if r.Window() != 2 {
		t.Errorf("Window: got %d", r.Window())
	}

	agg, err := r.Agg(Col("x").Sum().Alias("xsum"))
	if err != nil {
		t.Fatalf("Agg: %v", err)
	}
	xsum, err := agg.Column("xsum")
	if err != nil {
		t.Fatalf("xsum: %v", err)
	}
	// The first row has no full window yet
	if xsum.IsValid(0) {
		t.Error("row before the window fills should be null")
	}
	want := []int64{3, 5, 7}
	for i, w := range want {
		if xsum.Value(i+1) != w {
			t.Errorf("xsum[%d]: expected %d, got %v", i+1, w, xsum.Value(i+1))
		}
	}

	if _, err := f.Rolling(0); err == nil {
		t.Error("expected an error for a zero-width window")
	}
}
