package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/casskit/casskit/internal/table"
)

// Transpose turns a feature-by-sample matrix into sample-by-feature. The index
// column supplies the new header (after keyFn); the old header, minus index,
// becomes the first column named rowName.
func Transpose(t *table.Table, index, rowName string, keyFn func(string) string) (*table.Table, error) {
	idx := t.Index(index)
	if idx < 0 {
		return nil, fmt.Errorf("transpose: index column %q not found", index)
	}
	if keyFn == nil {
		keyFn = func(s string) string { return s }
	}

	header := make([]string, 0, len(t.Rows)+1)
	header = append(header, rowName)
	for _, row := range t.Rows {
		header = append(header, keyFn(row[idx]))
	}

	out := &table.Table{Columns: header}
	for c, col := range t.Columns {
		if c == idx {
			continue
		}
		row := make([]string, 0, len(header))
		row = append(row, col)
		for _, src := range t.Rows {
			row = append(row, src[c])
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// Explode splits column values on sep and emits one row per piece, trimming
// whitespace and skipping empty pieces.
func Explode(t *table.Table, column, sep string) (*table.Table, error) {
	idx := t.Index(column)
	if idx < 0 {
		return nil, fmt.Errorf("explode: column %q not found", column)
	}
	out := &table.Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		pieces := strings.Split(row[idx], sep)
		emitted := false
		for _, piece := range pieces {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			copied := append([]string(nil), row...)
			copied[idx] = piece
			out.Rows = append(out.Rows, copied)
			emitted = true
		}
		if !emitted {
			copied := append([]string(nil), row...)
			copied[idx] = ""
			out.Rows = append(out.Rows, copied)
		}
	}
	return out, nil
}

// RegulationDirection maps TRRUST modes to -1, 0 or 1. Unrecognised modes map
// to 0 as well.
func RegulationDirection(mode string) int {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "repression":
		return -1
	case "activation":
		return 1
	}
	return 0
}

// RegulationColumn derives a signed regulation column from a mode column.
func RegulationColumn(t *table.Table, modeColumn, target string) (*table.Table, error) {
	idx := t.Index(modeColumn)
	if idx < 0 {
		return nil, fmt.Errorf("regulation: column %q not found", modeColumn)
	}
	out := &table.Table{Columns: append(append([]string(nil), t.Columns...), target)}
	for _, row := range t.Rows {
		out.Rows = append(out.Rows, append(append([]string(nil), row...), strconv.Itoa(RegulationDirection(row[idx]))))
	}
	return out, nil
}

var units = map[string]string{
	"log1p":         "log1p",
	"log2":          "log2",
	"log10":         "log10",
	"log2(count+1)": "log1p",
	"absolute":      "counts",
	"abs":           "counts",
	"counts":        "counts",
}

// CanonicalUnit maps a free-text unit from dataset metadata onto the small
// controlled vocabulary. Unknown units are returned with ok=false.
func CanonicalUnit(raw string) (string, bool) {
	unit, ok := units[strings.ToLower(strings.TrimSpace(raw))]
	return unit, ok
}

// SplitColumn splits one column on sep into the named columns, replacing it.
func SplitColumn(t *table.Table, column, sep string, into []string) (*table.Table, error) {
	idx := t.Index(column)
	if idx < 0 {
		return nil, fmt.Errorf("split: column %q not found", column)
	}
	header := make([]string, 0, len(t.Columns)-1+len(into))
	header = append(header, t.Columns[:idx]...)
	header = append(header, into...)
	header = append(header, t.Columns[idx+1:]...)

	out := &table.Table{Columns: header}
	for _, row := range t.Rows {
		parts := strings.Split(row[idx], sep)
		if len(parts) != len(into) {
			return nil, fmt.Errorf("split: value %q has %d parts, want %d", row[idx], len(parts), len(into))
		}
		next := make([]string, 0, len(header))
		next = append(next, row[:idx]...)
		next = append(next, parts...)
		next = append(next, row[idx+1:]...)
		out.Rows = append(out.Rows, next)
	}
	return out, nil
}
