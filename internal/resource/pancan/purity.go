package pancan

import (
	"fmt"

	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

// purityWidth 工作表前 7 列是样本、癌种与五种估计方法，之后是零散的注释单元格。
const purityWidth = 7

var purityMapping = normalize.Mapping{
	Rename: map[string]string{
		"Sample ID":   "sample",
		"Cancer type": "cancer",
	},
}

func preparePurity(raw *table.Table, req *resource.Resolved) (*table.Table, error) {
	width := purityWidth
	if len(raw.Columns) < width {
		width = len(raw.Columns)
	}
	head, err := raw.Select(raw.Columns[:width]...)
	if err != nil {
		return nil, err
	}
	out, err := normalize.Canonicalize(head, purityMapping)
	if err != nil {
		return nil, err
	}
	if req.Params["estimates"] == "all" {
		return out, nil
	}
	if !out.Has("cpe") {
		return nil, fmt.Errorf("tumor purity sheet has no CPE column: %v", out.Columns)
	}
	picked, err := out.Select("cancer", "sample", "cpe")
	if err != nil {
		return nil, err
	}
	return picked.Rename(map[string]string{"cpe": "tumor_purity"}), nil
}
