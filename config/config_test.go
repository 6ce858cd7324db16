package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chervil-lang/chervil/pkg/tableref"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func testWorkbook(t *testing.T) *Workbook {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "people.csv", "name,age\nada,36\nbob,41\n")
	writeFile(t, dir, "cities.csv", "city\nOslo\n")
	manifest := writeFile(t, dir, "book.yaml", `name: Test Book
sheets:
  - name: Sheet 1
    tables:
      - name: People
        file: ./people.csv
  - name: Sheet 2
    tables:
      - name: Cities
        file: cities.csv
`)

	wb, err := Load(manifest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return wb
}

func TestLoadWorkbook(t *testing.T) {
	wb := testWorkbook(t)

	if wb.Name != "Test Book" {
		t.Errorf("name: got %q", wb.Name)
	}

	f := wb.Lookup(tableref.Parse("People"))
	if f == nil {
		t.Fatal("expected People to resolve")
	}
	if f.Height() != 2 {
		t.Errorf("People: expected 2 rows, got %d", f.Height())
	}

	// Column types come from CSV inference
	age, err := f.Column("age")
	if err != nil {
		t.Fatalf("age: %v", err)
	}
	if age.Value(0) != int64(36) {
		t.Errorf("age[0]: got %v", age.Value(0))
	}
}

func TestSheetQualifiedLookup(t *testing.T) {
	wb := testWorkbook(t)

	if wb.Lookup(tableref.Parse("'Sheet 2'!Cities")) == nil {
		t.Error("sheet-qualified lookup failed")
	}
	if wb.Lookup(tableref.Parse("'Sheet 1'!Cities")) != nil {
		t.Error("lookup in the wrong sheet should not resolve")
	}
	if wb.Lookup(tableref.Parse("Nope")) != nil {
		t.Error("missing table should not resolve")
	}
}

func TestTableNames(t *testing.T) {
	wb := testWorkbook(t)
	names := wb.Tables()
	want := []string{"Sheet 1!People", "Sheet 2!Cities"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d]: expected %q, got %q", i, want[i], names[i])
		}
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing manifest")
	}

	bad := writeFile(t, dir, "bad.yaml", `sheets:
  - name: S
    tables:
      - name: T
        file: ./nope.csv
`)
	if _, err := Load(bad); err == nil {
		t.Error("expected an error for a missing CSV file")
	}

	noName := writeFile(t, dir, "noname.yaml", `sheets:
  - name: S
    tables:
      - file: ./x.csv
`)
	if _, err := Load(noName); err == nil {
		t.Error("expected an error for a table with no name")
	}
}
