package config

// Workbook manifests describe the tables a chervil session can reference:
// a set of sheets, each holding named tables backed by CSV files. The CLI
// loads one with Load and passes the result to the evaluator as its table
// source.

import (
	"fmt"
	"path/filepath"

	"github.com/chervil-lang/chervil/pkg/frame"
	"github.com/chervil-lang/chervil/pkg/tableref"
)

// Manifest is the parsed workbook description.
type Manifest struct {
	BaseDir string  `yaml:"-"` // Directory containing the manifest, for resolving relative paths
	Name    string  `yaml:"name"`
	Sheets  []Sheet `yaml:"sheets"`
}

// Sheet groups tables under a sheet name.
type Sheet struct {
	Name   string  `yaml:"name"`
	Tables []Table `yaml:"tables"`
}

// Table maps a table name to its backing CSV file.
type Table struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// Workbook is a loaded manifest with every table read into a frame. It
// satisfies the evaluator's TableSource; lookups never mutate it.
type Workbook struct {
	Name   string
	sheets []loadedSheet
}

type loadedSheet struct {
	name   string
	tables map[string]*frame.Frame
	order  []string
}

// Lookup resolves a table reference against the workbook. A sheet-qualified
// reference searches only that sheet; a bare table name searches sheets in
// manifest order. A nil return means the reference does not resolve.
func (w *Workbook) Lookup(ref tableref.Ref) *frame.Frame {
	if ref.TableName == "" {
		return nil
	}
	for _, sheet := range w.sheets {
		if ref.SheetName != "" && sheet.name != ref.SheetName {
			continue
		}
		if f, ok := sheet.tables[ref.TableName]; ok {
			return f
		}
	}
	return nil
}

// Tables returns every table name, sheet-qualified where the workbook has
// more than one sheet, in manifest order.
func (w *Workbook) Tables() []string {
	var names []string
	for _, sheet := range w.sheets {
		for _, name := range sheet.order {
			if len(w.sheets) > 1 {
				names = append(names, sheet.name+"!"+name)
			} else {
				names = append(names, name)
			}
		}
	}
	return names
}

// open reads every table's CSV into a frame. Relative file paths resolve
// against the manifest directory.
func (m *Manifest) open() (*Workbook, error) {
	w := &Workbook{Name: m.Name}

	for _, sheet := range m.Sheets {
		loaded := loadedSheet{name: sheet.Name, tables: make(map[string]*frame.Frame)}
		for _, table := range sheet.Tables {
			if table.Name == "" {
				return nil, fmt.Errorf("sheet %q: table with no name", sheet.Name)
			}
			path := table.File
			if path == "" {
				return nil, fmt.Errorf("table %q: no file", table.Name)
			}
			if !filepath.IsAbs(path) {
				path = filepath.Join(m.BaseDir, path)
			}
			f, err := frame.ReadCSV(path)
			if err != nil {
				return nil, fmt.Errorf("table %q: %w", table.Name, err)
			}
			loaded.tables[table.Name] = f
			loaded.order = append(loaded.order, table.Name)
		}
		w.sheets = append(w.sheets, loaded)
	}

	return w, nil
}
