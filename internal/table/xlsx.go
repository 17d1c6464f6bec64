package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX parses one worksheet of an .xlsx workbook. SkipLines drops leading
// sheet rows (titles, legends) before the header; Columns and Comment behave as
// in Read. Cells are read raw, without the workbook's number formats. Blank
// header cells are named "Unnamed: <index>" and fully blank rows are dropped.
func ReadXLSX(r io.Reader, opts ReadOptions) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &Table{}, nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, pfx.Err(err)
	}
	if opts.SkipLines > len(rows) {
		return nil, pfx.Err(fmt.Errorf("sheet %q ended while skipping row %d", sheet, len(rows)+1))
	}
	rows = rows[opts.SkipLines:]

	var body [][]string
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		if opts.Comment != 0 && strings.HasPrefix(row[0], string(opts.Comment)) {
			continue
		}
		body = append(body, row)
	}

	t := &Table{}
	if len(opts.Columns) > 0 {
		t.Columns = append([]string(nil), opts.Columns...)
	} else {
		if len(body) == 0 {
			return t, nil
		}
		width := 0
		for _, row := range body {
			if len(row) > width {
				width = len(row)
			}
		}
		t.Columns = make([]string, width)
		for i := range t.Columns {
			if i < len(body[0]) && strings.TrimSpace(body[0][i]) != "" {
				t.Columns[i] = strings.TrimSpace(body[0][i])
				continue
			}
			t.Columns[i] = fmt.Sprintf("Unnamed: %d", i)
		}
		body = body[1:]
	}

	for i, row := range body {
		if len(row) > len(t.Columns) {
			return nil, pfx.Err(fmt.Errorf("sheet row %d has %d cells, header has %d", i+1, len(row), len(t.Columns)))
		}
		t.Append(row)
	}
	return t, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
