// Package normalize reshapes freshly fetched tables into the canonical schema:
// lowercase underscore column names, chr-prefixed chromosomes and identifiers
// without version suffixes. Everything here is pure.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/casskit/casskit/internal/table"
)

var nonWord = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Janitor lowercases a name, replaces anything outside [a-zA-Z0-9_] with an
// underscore and strips trailing underscores.
func Janitor(name string) string {
	return strings.TrimRight(nonWord.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// CleanColumns applies Janitor to every column name.
func CleanColumns(t *table.Table) *table.Table {
	return t.RenameFunc(Janitor)
}

// PrefixChromosome writes chromosomes as lowercase "chr" plus the name, so
// "1", "Chr1" and "CHR1" all become "chr1". Sex and mitochondrial names are
// upper-cased ("chrx" becomes "chrX"). Empty values stay empty.
func PrefixChromosome(value string) string {
	if value == "" {
		return value
	}
	name := value
	if len(value) >= 3 && strings.EqualFold(value[:3], "chr") {
		name = value[3:]
	}
	switch upper := strings.ToUpper(name); upper {
	case "X", "Y", "M", "MT":
		name = upper
	}
	return "chr" + name
}

// StripVersion truncates an identifier at its first period:
// ENSG00000141510.16 becomes ENSG00000141510.
func StripVersion(id string) string {
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i]
	}
	return id
}

// Mapping is the per-resource recipe consumed by Canonicalize. Rename and Drop
// refer to raw column names; ChromosomeColumns and VersionedColumns refer to
// the cleaned names.
type Mapping struct {
	Rename            map[string]string
	Drop              []string
	ChromosomeColumns []string
	VersionedColumns  []string
}

// Canonicalize renames, drops, cleans column names and harmonises chromosome
// and identifier columns. Listed columns that are absent are skipped so one
// mapping can serve slightly different releases of the same file.
func Canonicalize(raw *table.Table, m Mapping) (*table.Table, error) {
	if raw == nil {
		return nil, fmt.Errorf("canonicalize: nil table")
	}
	out := raw.Rename(m.Rename).Drop(m.Drop...)
	out = CleanColumns(out)
	if err := checkUnique(out.Columns); err != nil {
		return nil, err
	}

	var err error
	for _, col := range m.ChromosomeColumns {
		if !out.Has(col) {
			continue
		}
		if out, err = out.Apply(col, PrefixChromosome); err != nil {
			return nil, err
		}
	}
	for _, col := range m.VersionedColumns {
		if !out.Has(col) {
			continue
		}
		if out, err = out.Apply(col, StripVersion); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func checkUnique(columns []string) error {
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if _, dup := seen[col]; dup {
			return fmt.Errorf("canonicalize: duplicate column %q after cleaning", col)
		}
		seen[col] = struct{}{}
	}
	return nil
}
