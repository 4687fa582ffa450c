// Package csvtable reads and writes the CSV exports that feed the reconciler
// and the auxiliary tools. Columns are resolved by header name, so column
// order in the source files does not matter.
package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Table is a generic CSV table with its header order preserved.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends name to the header unless it is already present.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// rowReader walks CSV records and tracks the line number for error messages.
type rowReader struct {
	r      *csv.Reader
	source string
	header []string
	index  map[string]int
	line   int
}

func newRowReader(r io.Reader, source string, required ...string) (*rowReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", source)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", source, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rr := &rowReader{r: cr, source: source, header: header, index: make(map[string]int, len(header)), line: 1}
	for i, h := range header {
		if _, dup := rr.index[h]; !dup {
			rr.index[h] = i
		}
	}
	for _, col := range required {
		if _, ok := rr.index[col]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", source, col)
		}
	}
	return rr, nil
}

// next returns the next record, or io.EOF.
func (rr *rowReader) next() ([]string, error) {
	rec, err := rr.r.Read()
	rr.line++
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, rr.errorf("%w", err)
	}
	return rec, nil
}

func (rr *rowReader) get(rec []string, col string) string {
	i, ok := rr.index[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (rr *rowReader) int(rec []string, col string) (int, error) {
	s := rr.get(rec, col)
	n, err := strconv.Atoi(s)
	if err != nil {
		// Tables exported from dataframes write integers as "12.0".
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, rr.errorf("column %q: invalid integer %q", col, s)
		}
		n = int(f)
	}
	return n, nil
}

func (rr *rowReader) float(rec []string, col string) (float64, error) {
	s := rr.get(rec, col)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, rr.errorf("column %q: invalid number %q", col, s)
	}
	return f, nil
}

func (rr *rowReader) errorf(format string, args ...any) error {
	return fmt.Errorf("%s line %d: %w", rr.source, rr.line, fmt.Errorf(format, args...))
}

// ReadTable reads any CSV file into a Table.
func ReadTable(r io.Reader, source string) (*Table, error) {
	rr, err := newRowReader(r, source)
	if err != nil {
		return nil, err
	}
	t := &Table{Columns: rr.header}
	for {
		rec, err := rr.next()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(rr.header))
		for i, h := range rr.header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
}

// WriteTable writes t with its header.
func WriteTable(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, c := range t.Columns {
			rec[i] = row[c]
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFile opens path and decodes it with read.
func ReadFile[T any](path string, read func(io.Reader, string) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	return read(f, filepath.Base(path))
}

// WriteFile writes path atomically: the content goes to a temporary file in
// the same directory, which is renamed over path once complete.
func WriteFile(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename output file: %w", err)
	}
	return nil
}
