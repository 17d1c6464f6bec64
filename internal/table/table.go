// Package table holds the in-memory tabular representation shared by fetchers,
// normalizers and the disk cache. Values are kept as strings; typing is left to
// the caller so that a cached artifact round-trips byte for byte.
package table

import (
	"fmt"
	"strings"
)

// Table is a header plus rows of equal width.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New builds a table, padding or truncating rows to the header width.
func New(columns []string, rows ...[]string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	for _, row := range rows {
		t.Append(row)
	}
	return t
}

// Len returns the number of rows. A nil table has zero rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table is nil, has no columns, or has no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Columns) == 0 || len(t.Rows) == 0
}

// Append adds a row, fitting it to the header width.
func (t *Table) Append(row []string) {
	width := len(t.Columns)
	fitted := make([]string, width)
	copy(fitted, row)
	t.Rows = append(t.Rows, fitted)
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Has reports whether the column exists.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Column returns a copy of one column's values.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// Equal compares header and every cell.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.Columns) != len(other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != other.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		for j := range t.Rows[i] {
			if t.Rows[i][j] != other.Rows[i][j] {
				return false
			}
		}
	}
	return true
}

// RenameFunc returns a copy whose header is mapped through fn.
func (t *Table) RenameFunc(fn func(string) string) *Table {
	out := t.Clone()
	for i, col := range out.Columns {
		out.Columns[i] = fn(col)
	}
	return out
}

// Rename returns a copy with columns renamed by exact match; unknown keys are ignored.
func (t *Table) Rename(mapping map[string]string) *Table {
	return t.RenameFunc(func(col string) string {
		if renamed, ok := mapping[col]; ok {
			return renamed
		}
		return col
	})
}

// Drop returns a copy without the named columns; absent names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]struct{}, len(names))
	for _, name := range names {
		skip[name] = struct{}{}
	}
	keep := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		if _, ok := skip[col]; !ok {
			keep = append(keep, col)
		}
	}
	out, _ := t.Select(keep...)
	return out
}

// Select returns a copy with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = t.Index(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("column %q not found (have %s)", name, strings.Join(t.Columns, ", "))
		}
	}
	out := &Table{Columns: append([]string(nil), names...), Rows: make([][]string, len(t.Rows))}
	for r, row := range t.Rows {
		picked := make([]string, len(idx))
		for i, j := range idx {
			picked[i] = row[j]
		}
		out.Rows[r] = picked
	}
	return out, nil
}

// Filter returns a copy with the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		if keep(Row{table: t, values: row}) {
			out.Rows = append(out.Rows, append([]string(nil), row...))
		}
	}
	return out
}

// Apply returns a copy with fn applied to every value of column name.
func (t *Table) Apply(name string, fn func(string) string) (*Table, error) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := t.Clone()
	for _, row := range out.Rows {
		row[idx] = fn(row[idx])
	}
	return out, nil
}

// Row is a read-only view used by Filter.
type Row struct {
	table  *Table
	values []string
}

// Get returns the value of column name, or "" when the column is absent.
func (r Row) Get(name string) string {
	idx := r.table.Index(name)
	if idx < 0 {
		return ""
	}
	return r.values[idx]
}
