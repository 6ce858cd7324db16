package frame

import (
	"strings"
	"testing"
	"time"
)

func TestReadCSVInference(t *testing.T) {
	input := `name,age,score,active,joined
ada,36,9.5,true,2021-03-01
bob,,7.25,false,2022-11-15
eve,29,,true,2020-01-05
`
	f, err := ReadCSVFrom(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSVFrom: %v", err)
	}

	if !equalStrings(f.Columns(), []string{"name", "age", "score", "active", "joined"}) {
		t.Fatalf("columns: got %v", f.Columns())
	}

	tests := []struct {
		column string
		dtype  DType
	}{
		{"name", String},
		{"age", Int64},
		{"score", Float64},
		{"active", Bool},
		{"joined", Datetime},
	}
	for _, tt := range tests {
		s, err := f.Column(tt.column)
		if err != nil {
			t.Fatalf("column %s: %v", tt.column, err)
		}
		if s.DType() != tt.dtype {
			t.Errorf("%s: expected %s, got %s", tt.column, tt.dtype, s.DType())
		}
	}

	age, _ := f.Column("age")
	if age.IsValid(1) {
		t.Error("empty cell should be null")
	}
	if age.Value(0) != int64(36) {
		t.Errorf("age[0]: got %v", age.Value(0))
	}

	joined, _ := f.Column("joined")
	want := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	if !joined.Value(0).(time.Time).Equal(want) {
		t.Errorf("joined[0]: got %v", joined.Value(0))
	}
}

func TestCSVMixedColumnFallsBackToString(t *testing.T) {
	input := "x\n1\ntwo\n"
	f, err := ReadCSVFrom(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSVFrom: %v", err)
	}
	s, _ := f.Column("x")
	if s.DType() != String {
		t.Errorf("expected String fallback, got %s", s.DType())
	}
}

func TestWriteCSVNullsAsEmpty(t *testing.T) {
	f, err := NewFrame(
		NewInt64("a", []int64{1, 0}, []bool{true, false}),
		NewString("b", []string{"x", "y"}, nil),
	)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}

	var sb strings.Builder
	if err := WriteCSVTo(f, &sb); err != nil {
		t.Fatalf("WriteCSVTo: %v", err)
	}

	want := "a,b\n1,x\n,y\n"
	if sb.String() != want {
		t.Errorf("expected %q, got %q", want, sb.String())
	}
}

func TestCSVRoundTrip(t *testing.T) {
	f, err := NewFrame(
		NewInt64("n", []int64{1, 2}, nil),
		NewFloat64("f", []float64{1.5, 2.5}, nil),
	)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}

	var sb strings.Builder
	if err := WriteCSVTo(f, &sb); err != nil {
		t.Fatalf("WriteCSVTo: %v", err)
	}
	back, err := ReadCSVFrom(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("ReadCSVFrom: %v", err)
	}

	n, _ := back.Column("n")
	fcol, _ := back.Column("f")
	if n.DType() != Int64 || fcol.DType() != Float64 {
		t.Errorf("round-trip types: %s, %s", n.DType(), fcol.DType())
	}
	if n.Value(1) != int64(2) || fcol.Value(0) != 1.5 {
		t.Errorf("round-trip values: %v, %v", n.Value(1), fcol.Value(0))
	}
}
