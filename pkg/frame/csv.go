package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

// The CSV codec is host-only engine surface: the CLI and tests load
// workbooks through it, but it must never appear in a proxy allow-list.

// ReadCSV loads a CSV file into a frame. The first record is the header;
// column types are inferred per column.
func ReadCSV(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	frame, err := ReadCSVFrom(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}

// ReadCSVFrom reads CSV data from a reader. Empty cells become nulls. Each
// column takes the narrowest type that fits every non-empty cell, tried in
// the order int, float, bool, datetime, string.
func ReadCSVFrom(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header row")
	}
	header := records[0]
	rows := records[1:]

	values := make([][]any, len(header))
	for col := range header {
		cells := make([]string, len(rows))
		for i, row := range rows {
			cells[i] = row[col]
		}
		values[col] = inferColumn(cells)
	}
	return FromColumns(header, values)
}

// inferColumn converts raw cells to typed values. Inference degrades one
// step at a time: any cell that fails the current candidate type demotes
// the whole column.
func inferColumn(cells []string) []any {
	tryInt := true
	tryFloat := true
	tryBool := true
	tryTime := true
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		if tryInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				tryInt = false
			}
		}
		if tryFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				tryFloat = false
			}
		}
		if tryBool {
			if _, err := strconv.ParseBool(strings.ToLower(cell)); err != nil {
				tryBool = false
			}
		}
		if tryTime {
			if _, err := dateparse.ParseAny(cell); err != nil {
				tryTime = false
			}
		}
	}

	out := make([]any, len(cells))
	for i, cell := range cells {
		if cell == "" {
			continue
		}
		switch {
		case tryInt:
			n, _ := strconv.ParseInt(cell, 10, 64)
			out[i] = n
		case tryFloat:
			f, _ := strconv.ParseFloat(cell, 64)
			out[i] = f
		case tryBool:
			b, _ := strconv.ParseBool(strings.ToLower(cell))
			out[i] = b
		case tryTime:
			// dateparse accepts bare numbers as timestamps, so numeric
			// checks run first
			t, _ := dateparse.ParseAny(cell)
			out[i] = t
		default:
			out[i] = cell
		}
	}
	return out
}

// WriteCSV writes the frame to a CSV file with a header row. Nulls render
// as empty cells.
func WriteCSV(f *Frame, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSVTo(f, file); err != nil {
		file.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return file.Close()
}

// WriteCSVTo writes the frame as CSV to a writer.
func WriteCSVTo(f *Frame, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns()); err != nil {
		return err
	}
	record := make([]string, f.Width())
	for i := 0; i < f.Height(); i++ {
		for j, c := range f.cols {
			record[j] = c.FormatValue(i)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
