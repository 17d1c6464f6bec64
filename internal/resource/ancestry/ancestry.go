// Package ancestry 注册 TCGA 遗传祖先估计，来源为三家机构发布在 GDC 上的文件。
package ancestry

import (
	"fmt"
	"io"

	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

const gdcData = "https://api.gdc.cancer.gov/data"

// Institutes 是可选的发布机构。
var Institutes = []string{"broad", "ucsf", "washu"}

var fileIDs = map[string]string{
	"broad": "1fee3458-14ee-4b4b-964c-a05164b68066",
	"ucsf":  "fdfa536a-c3c8-405d-99d9-bc9375b5084c",
	"washu": "549b67ce-991d-4356-82fa-d09f9d9a23c8",
}

var mappings = map[string]normalize.Mapping{
	"broad": {
		Rename: map[string]string{"SampleID": "sample", "Ancestry_assignment": "ancestry"},
	},
	"ucsf": {
		Rename: map[string]string{
			"Patient_ID":           "sample",
			"Aliquot_ID":           "aliquot_id",
			"pam.ancestry.cluster": "ancestry",
			"race":                 "ethnicity",
		},
	},
	"washu": {
		Rename: map[string]string{"Case": "sample", "Sample": "aliquot_id"},
	},
}

// ucsf 的 ethnicity 与 race 语义重叠：先删原列，再把 race 改名为 ethnicity。
var dropBeforeRename = map[string][]string{
	"ucsf": {"", "Unnamed: 0", "ethnicity"},
}

func init() {
	resource.MustRegister(resource.Descriptor{
		Name:        resource.TCGAAncestry,
		Description: "TCGA genetic ancestry calls and principal components",
		BaseURL:     gdcData,
		URL: func(base string, p resource.Params) string {
			return base + "/" + fileIDs[p["institute"]]
		},
		Params: []resource.ParamSpec{
			{Name: "institute", Values: Institutes, Default: "broad"},
		},
		Format:  compress.Auto,
		Columns: []string{"sample"},
		Hooks:   resource.Hooks{Parse: parse, Prepare: prepare},
	})
}

// parse 对 ucsf 文件嗅探分隔符，其余机构固定为制表符。
func parse(r io.Reader, req *resource.Resolved) (*table.Table, error) {
	opts := table.ReadOptions{Separator: '\t'}
	if req.Params["institute"] == "ucsf" {
		opts.Separator = 0
	}
	return table.Read(r, opts)
}

func prepare(raw *table.Table, req *resource.Resolved) (*table.Table, error) {
	institute := req.Params["institute"]
	m, ok := mappings[institute]
	if !ok {
		return nil, fmt.Errorf("no mapping for institute %q", institute)
	}
	t := raw.Drop(dropBeforeRename[institute]...)
	if institute == "broad" && t.Has("PC1:PC2:PC3") {
		var err error
		if t, err = normalize.SplitColumn(t, "PC1:PC2:PC3", ":", []string{"pc1", "pc2", "pc3"}); err != nil {
			return nil, err
		}
	}
	return normalize.Canonicalize(t, m)
}
