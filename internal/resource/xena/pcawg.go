package xena

import (
	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

const pcawgHub = "https://pcawg-hub.s3.us-east-1.amazonaws.com/download"

// pcawgStems 将 omic 映射为 hub 上的文件名。
var pcawgStems = map[string]string{
	"rnaseq":     "tophat_star_fpkm_uq.v2_aliquot_gl.sp.log",
	"copynumber": "20170119_final_consensus_copynumber_sp",
	"phenotype":  "project_code_sp",
}

var pcawgMapping = normalize.Mapping{
	Rename:            map[string]string{"chr": "chromosome", "sample": "sample_id"},
	ChromosomeColumns: []string{"chromosome"},
}

func init() {
	resource.MustRegister(resource.Descriptor{
		Name:        resource.PCAWG,
		Description: "PCAWG release data from the Xena PCAWG hub",
		BaseURL:     pcawgHub,
		URL: func(base string, p resource.Params) string {
			return base + "/" + pcawgStems[p["omic"]]
		},
		Params: []resource.ParamSpec{
			{Name: "omic", Values: []string{"rnaseq", "copynumber", "phenotype"}},
		},
		Format: compress.Auto,
		Read:   table.ReadOptions{Separator: '\t'},
		Hooks: resource.Hooks{
			Prepare: func(raw *table.Table, req *resource.Resolved) (*table.Table, error) {
				// rnaseq 为 基因 × aliquot 矩阵，列名是样本标识
				if req.Params["omic"] == "rnaseq" {
					return raw, nil
				}
				return normalize.Canonicalize(raw, pcawgMapping)
			},
		},
	})
}
