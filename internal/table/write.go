package table

import (
	"encoding/csv"
	"io"

	"github.com/carbocation/pfx"
)

// blankRecord is how a record holding a single empty field is written.
// encoding/csv would emit an empty line, which readers skip.
const blankRecord = "\"\"\n"

// Write serialises t as delimited text with a header row. Fields containing the
// separator, quotes or newlines are quoted so that Read restores them exactly.
func Write(w io.Writer, t *Table, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	records := append([][]string{t.Columns}, t.Rows...)
	for _, record := range records {
		if len(record) == 1 && record[0] == "" {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return pfx.Err(err)
			}
			if _, err := io.WriteString(w, blankRecord); err != nil {
				return pfx.Err(err)
			}
			continue
		}
		if err := cw.Write(record); err != nil {
			return pfx.Err(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return pfx.Err(err)
	}
	return nil
}
