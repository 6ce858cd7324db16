package frame

import (
	"testing"
)

func testFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := FromColumns(
		[]string{"city", "pop", "area"},
		[][]any{
			{"Oslo", "Bergen", "Trondheim", "Stavanger"},
			{int64(700), int64(280), int64(200), int64(140)},
			{454.0, 465.0, 342.0, 71.0},
		},
	)
	if err != nil {
		t.Fatalf("FromColumns: %v", err)
	}
	return f
}

func intColumn(t *testing.T, f *Frame, name string) []int64 {
	t.Helper()
	s, err := f.Column(name)
	if err != nil {
		t.Fatalf("column %s: %v", name, err)
	}
	out := make([]int64, s.Len())
	for i := range out {
		v := s.Value(i)
		n, ok := v.(int64)
		if !ok {
			t.Fatalf("column %s[%d]: expected int64, got %T", name, i, v)
		}
		out[i] = n
	}
	return out
}

func stringColumn(t *testing.T, f *Frame, name string) []string {
	t.Helper()
	s, err := f.Column(name)
	if err != nil {
		t.Fatalf("column %s: %v", name, err)
	}
	out := make([]string, s.Len())
	for i := range out {
		out[i] = s.Value(i).(string)
	}
	return out
}

func equalInt64(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFrameShape(t *testing.T) {
	f := testFrame(t)
	h, w := f.Shape()
	if h != 4 || w != 3 {
		t.Errorf("expected shape (4, 3), got (%d, %d)", h, w)
	}
	if !f.HasColumn("pop") || f.HasColumn("nope") {
		t.Errorf("HasColumn misreported")
	}
}

func TestMismatchedColumnLengths(t *testing.T) {
	_, err := FromColumns([]string{"a", "b"}, [][]any{{int64(1)}, {int64(1), int64(2)}})
	if err == nil {
		t.Fatal("expected an error for mismatched column lengths")
	}
}

func TestSelectAndDrop(t *testing.T) {
	f := testFrame(t)

	sel, err := f.Select("pop", "city")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !equalStrings(sel.Columns(), []string{"pop", "city"}) {
		t.Errorf("Select order: got %v", sel.Columns())
	}

	if _, err := f.Select("nope"); err == nil {
		t.Error("expected an error selecting a missing column")
	}

	dropped, err := f.Drop("area")
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if dropped.HasColumn("area") {
		t.Error("area survived Drop")
	}
	if f.Width() != 3 {
		t.Error("Drop mutated the source frame")
	}
}

func TestFilterAndWithColumn(t *testing.T) {
	f := testFrame(t)

	big, err := f.Filter(Col("pop").Gt(Lit(int64(150))))
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if !equalStrings(stringColumn(t, big, "city"), []string{"Oslo", "Bergen", "Trondheim"}) {
		t.Errorf("Filter rows: got %v", stringColumn(t, big, "city"))
	}

	// Filter predicate must be boolean
	if _, err := f.Filter(Col("pop").Add(Lit(int64(1)))); err == nil {
		t.Error("expected an error filtering on a non-boolean expression")
	}

	dense, err := f.WithColumn("density", Col("pop").Div(Col("area")))
	if err != nil {
		t.Fatalf("WithColumn: %v", err)
	}
	d, err := dense.Column("density")
	if err != nil {
		t.Fatalf("density: %v", err)
	}
	if d.DType() != Float64 {
		t.Errorf("expected Float64 density, got %s", d.DType())
	}
}

func TestSortStability(t *testing.T) {
	f, err := FromColumns(
		[]string{"k", "v"},
		[][]any{
			{int64(2), int64(1), int64(2), int64(1)},
			{int64(10), int64(20), int64(30), int64(40)},
		},
	)
	if err != nil {
		t.Fatalf("FromColumns: %v", err)
	}

	sorted, err := f.Sort(SortKey{Column: "k"})
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	// Equal keys keep their original order
	if !equalInt64(intColumn(t, sorted, "v"), []int64{20, 40, 10, 30}) {
		t.Errorf("stable sort order: got %v", intColumn(t, sorted, "v"))
	}

	desc, err := f.Sort(SortKey{Column: "k", Descending: true})
	if err != nil {
		t.Fatalf("Sort desc: %v", err)
	}
	if !equalInt64(intColumn(t, desc, "v"), []int64{10, 30, 20, 40}) {
		t.Errorf("descending sort order: got %v", intColumn(t, desc, "v"))
	}
}

func TestHeadTailUnique(t *testing.T) {
	f := testFrame(t)

	if f.Head(2).Height() != 2 || f.Tail(1).Height() != 1 {
		t.Error("Head/Tail heights wrong")
	}
	if f.Head(10).Height() != 4 {
		t.Error("Head beyond height should clamp")
	}

	dup, err := FromColumns([]string{"a"}, [][]any{{int64(1), int64(1), int64(2)}})
	if err != nil {
		t.Fatalf("FromColumns: %v", err)
	}
	if dup.Unique().Height() != 2 {
		t.Errorf("Unique: expected 2 rows, got %d", dup.Unique().Height())
	}
}

func TestJoin(t *testing.T) {
	left, _ := FromColumns([]string{"id", "x"}, [][]any{
		{int64(1), int64(2), int64(3)},
		{int64(10), int64(20), int64(30)},
	})
	right, _ := FromColumns([]string{"id", "y"}, [][]any{
		{int64(2), int64(3), int64(4)},
		{int64(200), int64(300), int64(400)},
	})

	inner, err := left.Join(right, []string{"id"}, "inner")
	if err != nil {
		t.Fatalf("inner join: %v", err)
	}
	if inner.Height() != 2 {
		t.Errorf("inner join: expected 2 rows, got %d", inner.Height())
	}

	lj, err := left.Join(right, []string{"id"}, "left")
	if err != nil {
		t.Fatalf("left join: %v", err)
	}
	if lj.Height() != 3 {
		t.Errorf("left join: expected 3 rows, got %d", lj.Height())
	}
	y, err := lj.Column("y")
	if err != nil {
		t.Fatalf("y column: %v", err)
	}
	if y.IsValid(0) {
		t.Error("left join: unmatched row should have null y")
	}

	outer, err := left.Join(right, []string{"id"}, "outer")
	if err != nil {
		t.Fatalf("outer join: %v", err)
	}
	if outer.Height() != 4 {
		t.Errorf("outer join: expected 4 rows, got %d", outer.Height())
	}

	if _, err := left.Join(right, []string{"id"}, "cross"); err == nil {
		t.Error("expected an error for an unknown join kind")
	}
}

func TestFromMaps(t *testing.T) {
	f, err := FromMaps([]map[string]any{
		{"a": int64(1), "b": "x"},
		{"a": int64(2)},
	}, []string{"a", "b"})
	if err != nil {
		t.Fatalf("FromMaps: %v", err)
	}
	b, err := f.Column("b")
	if err != nil {
		t.Fatalf("b column: %v", err)
	}
	if b.IsValid(1) {
		t.Error("missing cell should be null")
	}
}

func TestRename(t *testing.T) {
	f := testFrame(t)
	renamed, err := f.Rename("pop", "population")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if !renamed.HasColumn("population") || renamed.HasColumn("pop") {
		t.Errorf("Rename columns: got %v", renamed.Columns())
	}
	if _, err := f.Rename("nope", "x"); err == nil {
		t.Error("expected an error renaming a missing column")
	}
}
