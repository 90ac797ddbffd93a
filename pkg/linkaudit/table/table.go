package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cognicore/linkaudit/pkg/linkaudit/internalerr"
)

// Table is a header-addressed view over a CSV export.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	index  map[string]int
	lines  []int // source line per row, set by Read
}

// New builds a table from a header and rows. Header names are trimmed.
func New(name string, header []string, rows [][]string) *Table {
	t := &Table{
		Name:   name,
		Header: make([]string, len(header)),
		Rows:   rows,
		index:  make(map[string]int, len(header)),
	}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		t.Header[i] = h
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	return t
}

// Read parses CSV data. The first record is the header.
func Read(name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s table is empty: %w", name, internalerr.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", name, err)
	}

	var (
		rows  [][]string
		lines []int
	)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if isBlank(rec) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, rec)
		lines = append(lines, line)
	}
	t := New(name, header, rows)
	t.lines = lines
	return t, nil
}

// ReadFile opens path and parses it as CSV.
func ReadFile(name, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s table %s: %w", name, path, err)
	}
	defer f.Close()
	return Read(name, f)
}

// Require checks that every column is present in the header.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := t.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &internalerr.ColumnError{Table: t.Name, Missing: missing}
	}
	return nil
}

// Column returns the index of a column and whether it exists.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Value returns the cell of row i in column col, or "" when the row is short.
func (t *Table) Value(i, col int) string {
	row := t.Rows[i]
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Line maps a row index to its 1-based line in the source file. Tables
// built with New assume a header line and no skipped rows.
func (t *Table) Line(i int) int {
	if i >= 0 && i < len(t.lines) {
		return t.lines[i]
	}
	return i + 2
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
