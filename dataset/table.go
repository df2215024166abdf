// Package dataset is the tabular layer of the pipeline: a header plus rows of
// raw cell text, CSV input/output, column selection and the seeded
// train/test split.
package dataset

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
)

// naValues are the cell spellings treated as missing.
var naValues = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "NaN": {}, "nan": {}, "null": {}, "NULL": {}, "#N/A": {},
}

// IsNA reports whether a cell counts as missing.
func IsNA(cell string) bool {
	_, ok := naValues[strings.TrimSpace(cell)]
	return ok
}

// Table is an ordered header with rows of raw cell text. Cells are never
// reformatted, so columns the pipeline only passes through keep their exact
// bytes.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable builds a table, checking that every row has one cell per column.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	if err := checkHeader("", columns); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.NewDataFormatError("", i+2, "row width does not match header", nil)
		}
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

func checkHeader(path string, columns []string) error {
	if len(columns) == 0 {
		return errors.NewDataFormatError(path, 1, "missing header", nil)
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if c == "" {
			return errors.NewDataFormatError(path, 1, "empty column name in header", nil)
		}
		if _, dup := seen[c]; dup {
			return errors.NewDataFormatError(path, 1, "duplicate column "+strconv.Quote(c), nil)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of col in the header, or -1.
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// HasColumn reports whether col is in the header.
func (t *Table) HasColumn(col string) bool { return t.Index(col) >= 0 }

// Drop returns a table without the named columns. Names not present are
// ignored. The remaining columns keep their relative order.
func (t *Table) Drop(cols ...string) *Table {
	drop := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		drop[c] = struct{}{}
	}
	keep := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if _, ok := drop[c]; !ok {
			keep = append(keep, c)
		}
	}
	out, _ := t.Select(keep...)
	return out
}

// Select returns a table holding cols in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = t.Index(c)
		if idx[i] < 0 {
			return nil, errors.NewSchemaError("Select", c, "column not found")
		}
	}
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]string, len(idx))
		for i, j := range idx {
			out[i] = row[j]
		}
		rows[r] = out
	}
	columns := append([]string(nil), cols...)
	return &Table{Columns: columns, Rows: rows}, nil
}

// Take returns a table with the rows at the given positions, in that order.
func (t *Table) Take(rows []int) *Table {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = t.Rows[r]
	}
	return &Table{Columns: append([]string(nil), t.Columns...), Rows: out}
}

// DropEmptyRows removes rows whose cells are all missing and reports how
// many were removed. Partially filled rows are kept as they are.
func (t *Table) DropEmptyRows() (*Table, int) {
	kept := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		empty := true
		for _, cell := range row {
			if !IsNA(cell) {
				empty = false
				break
			}
		}
		if !empty {
			kept = append(kept, row)
		}
	}
	return &Table{Columns: append([]string(nil), t.Columns...), Rows: kept}, len(t.Rows) - len(kept)
}

// Float parses the cell at (row, col). Missing cells are NaN.
func (t *Table) Float(row, col int) (float64, error) {
	cell := strings.TrimSpace(t.Rows[row][col])
	if IsNA(cell) {
		return nan(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, errors.NewDataFormatError("", row+2,
			"column "+strconv.Quote(t.Columns[col])+" has non-numeric value "+strconv.Quote(cell), err)
	}
	return v, nil
}

// Vector returns the named column as float64 values.
func (t *Table) Vector(col string) ([]float64, error) {
	j := t.Index(col)
	if j < 0 {
		return nil, errors.NewSchemaError("Vector", col, "column not found")
	}
	out := make([]float64, len(t.Rows))
	for i := range t.Rows {
		v, err := t.Float(i, j)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Matrix returns the named columns as a rows x len(cols) dense matrix.
func (t *Table) Matrix(cols []string) (*mat.Dense, error) {
	if len(t.Rows) == 0 || len(cols) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	data := make([]float64, 0, len(t.Rows)*len(cols))
	idx := make([]int, len(cols))
	for k, c := range cols {
		idx[k] = t.Index(c)
		if idx[k] < 0 {
			return nil, errors.NewSchemaError("Matrix", c, "column not found")
		}
	}
	for i := range t.Rows {
		for _, j := range idx {
			v, err := t.Float(i, j)
			if err != nil {
				return nil, err
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(len(t.Rows), len(cols), data), nil
}
