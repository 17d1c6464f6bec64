// Package biogrid 注册 BioGRID 多重验证物理互作（双方均为人类）。
package biogrid

import (
	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

const (
	defaultBase = "https://downloads.thebiogrid.org/Download/BioGRID/Latest-Release"
	organism    = "Homo sapiens"
)

var keep = []string{
	"official_symbol_interactor_a",
	"official_symbol_interactor_b",
	"synonyms_interactor_a",
	"synonyms_interactor_b",
}

func init() {
	resource.MustRegister(resource.Descriptor{
		Name:        resource.BioGRID,
		Description: "BioGRID multi-validated physical interactions, human-human",
		BaseURL:     defaultBase,
		URL:         resource.Template("{base}/BIOGRID-MV-Physical-LATEST.tab3.zip"),
		Format:      compress.Zip,
		Read:        table.ReadOptions{Separator: '\t'},
		Columns:     keep,
		Hooks:       resource.Hooks{Prepare: prepare},
	})
}

func prepare(raw *table.Table, _ *resource.Resolved) (*table.Table, error) {
	clean, err := normalize.Canonicalize(raw, normalize.Mapping{})
	if err != nil {
		return nil, err
	}
	human := clean.Filter(func(r table.Row) bool {
		return r.Get("organism_name_interactor_a") == organism &&
			r.Get("organism_name_interactor_b") == organism
	})
	return human.Select(keep...)
}
