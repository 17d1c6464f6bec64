package table

import (
	"encoding/csv"
	"io"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// DecodeRows unmarshals delimited text into a slice of tagged structs
// (`csv:"name"`). With header=false fields are bound by position.
func DecodeRows(r io.Reader, sep rune, header bool, out interface{}) error {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var err error
	if header {
		err = gocsv.UnmarshalCSV(cr, out)
	} else {
		err = gocsv.UnmarshalCSVWithoutHeaders(cr, out)
	}
	if err != nil {
		return pfx.Err(err)
	}
	return nil
}
