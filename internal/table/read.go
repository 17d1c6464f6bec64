package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/carbocation/pfx"
	"github.com/csimplestring/go-csv/detector"
)

// sniffBytes bounds how much input is inspected to guess the delimiter.
const sniffBytes = 64 * 1024

// ReadOptions controls how delimited text is parsed.
type ReadOptions struct {
	// Separator is the field delimiter. Zero means detect it from the input.
	Separator rune
	// Columns, when set, names the fields of a headerless file.
	Columns []string
	// SkipLines drops leading lines (banners, preambles) before the header.
	SkipLines int
	// Comment marks lines to ignore, e.g. '#'.
	Comment rune
	// Sheet selects the worksheet of a workbook; empty means the first one.
	Sheet string
}

// Read parses delimited text into a Table. Without Columns the first record is
// the header. Short rows are padded, long rows are rejected.
func Read(r io.Reader, opts ReadOptions) (*Table, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	for i := 0; i < opts.SkipLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, pfx.Err(fmt.Errorf("input ended while skipping line %d", i+1))
			}
			return nil, pfx.Err(err)
		}
	}

	sep := opts.Separator
	if sep == 0 {
		sep = DetectSeparator(br)
	}

	cr := csv.NewReader(br)
	cr.Comma = sep
	cr.Comment = opts.Comment
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	t := &Table{}
	if len(opts.Columns) > 0 {
		t.Columns = append([]string(nil), opts.Columns...)
	} else {
		header, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return t, nil
			}
			return nil, pfx.Err(err)
		}
		t.Columns = header
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, pfx.Err(err)
		}
		if len(record) > len(t.Columns) {
			return nil, pfx.Err(fmt.Errorf("record %d has %d fields, header has %d", line, len(record), len(t.Columns)))
		}
		t.Append(record)
	}
	return t, nil
}

// DetectSeparator peeks at buffered input and returns the most likely
// delimiter, defaulting to tab. The reader position is not advanced.
func DetectSeparator(br *bufio.Reader) rune {
	sample, _ := br.Peek(sniffBytes)
	if len(sample) == 0 {
		return '\t'
	}
	// only complete lines are representative
	if cut := bytes.LastIndexByte(sample, '\n'); cut > 0 {
		sample = sample[:cut+1]
	}
	d := detector.New()
	candidates := d.DetectDelimiter(bytes.NewReader(sample), '"')
	if len(candidates) > 0 && len(candidates[0]) > 0 {
		return rune(candidates[0][0])
	}
	return '\t'
}
