// Package centromere 注册 UCSC 着丝粒区间，每条染色体一行。
package centromere

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/carbocation/pfx"

	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

const ucscBase = "http://hgdownload.soe.ucsc.edu/goldenPath"

// Columns 是规范输出列。
var Columns = []string{"chromosome", "start", "end"}

// gapRow 对应 hg19 database/gap.txt 的全部列。
type gapRow struct {
	Bin    string `csv:"bin"`
	Chrom  string `csv:"chrom"`
	Start  int64  `csv:"chromStart"`
	End    int64  `csv:"chromEnd"`
	Ix     string `csv:"ix"`
	N      string `csv:"n"`
	Size   string `csv:"size"`
	Type   string `csv:"type"`
	Bridge string `csv:"bridge"`
}

// regionRow 对应 hg38 database/centromeres.txt。
type regionRow struct {
	Bin   string `csv:"bin"`
	Chrom string `csv:"chrom"`
	Start int64  `csv:"chromStart"`
	End   int64  `csv:"chromEnd"`
	Name  string `csv:"name"`
}

func init() {
	resource.MustRegister(resource.Descriptor{
		Name:        resource.Centromeres,
		Description: "UCSC centromere intervals per chromosome",
		BaseURL:     ucscBase,
		URL:         url,
		Params: []resource.ParamSpec{
			{Name: "assembly", Values: []string{"hg19", "hg37", "hg38"}, Description: "genome assembly; hg37 is served from hg19"},
		},
		Format:  compress.Gzip,
		Columns: Columns,
		Hooks: resource.Hooks{
			Parse:   parse,
			Prepare: prepare,
		},
	})
}

func url(base string, p resource.Params) string {
	if p["assembly"] == "hg38" {
		return base + "/hg38/database/centromeres.txt.gz"
	}
	return base + "/hg19/database/gap.txt.gz"
}

func parse(r io.Reader, req *resource.Resolved) (*table.Table, error) {
	if req.Params["assembly"] == "hg38" {
		return parseRegions(r)
	}
	return parseGaps(r)
}

func parseGaps(r io.Reader) (*table.Table, error) {
	var rows []*gapRow
	if err := table.DecodeRows(r, '\t', false, &rows); err != nil {
		return nil, err
	}
	t := table.New([]string{"chrom", "chromStart", "chromEnd", "gap_type"})
	for _, row := range rows {
		t.Append([]string{row.Chrom, itoa(row.Start), itoa(row.End), row.Type})
	}
	return t, nil
}

// parseRegions 合并同一染色体上的多个 alpha-satellite 片段：取最小起点与最大终点。
func parseRegions(r io.Reader) (*table.Table, error) {
	var rows []*regionRow
	if err := table.DecodeRows(r, '\t', false, &rows); err != nil {
		return nil, err
	}
	type span struct{ start, end int64 }
	spans := make(map[string]*span)
	for _, row := range rows {
		if row.End < row.Start {
			return nil, pfx.Err(fmt.Errorf("%s: end %d before start %d", row.Chrom, row.End, row.Start))
		}
		s, ok := spans[row.Chrom]
		if !ok {
			spans[row.Chrom] = &span{start: row.Start, end: row.End}
			continue
		}
		if row.Start < s.start {
			s.start = row.Start
		}
		if row.End > s.end {
			s.end = row.End
		}
	}

	chroms := make([]string, 0, len(spans))
	for chrom := range spans {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)

	t := table.New([]string{"chrom", "chromStart", "chromEnd"})
	for _, chrom := range chroms {
		s := spans[chrom]
		t.Append([]string{chrom, itoa(s.start), itoa(s.end)})
	}
	return t, nil
}

func prepare(raw *table.Table, _ *resource.Resolved) (*table.Table, error) {
	t := raw
	if t.Has("gap_type") {
		t = t.Filter(func(r table.Row) bool { return r.Get("gap_type") == "centromere" }).Drop("gap_type")
	}
	return normalize.Canonicalize(t, normalize.Mapping{
		Rename:            map[string]string{"chrom": "chromosome", "chromStart": "start", "chromEnd": "end"},
		ChromosomeColumns: []string{"chromosome"},
	})
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
