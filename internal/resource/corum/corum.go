// Package corum 注册 CORUM 蛋白复合物数据集（人类子集，每个亚基一行）。
package corum

import (
	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

const (
	defaultBase = "https://mips.helmholtz-muenchen.de/corum/download/releases/current"
	organism    = "Human"
)

func init() {
	resource.MustRegister(resource.Descriptor{
		Name:        resource.CORUM,
		Description: "CORUM mammalian protein complexes, human only, one subunit per row",
		BaseURL:     defaultBase,
		URL:         resource.Template("{base}/allComplexes.txt.zip"),
		Format:      compress.Zip,
		Read:        table.ReadOptions{Separator: '\t'},
		Columns:     []string{"complexid", "complexname", "subunits_gene_name"},
		Hooks:       resource.Hooks{Prepare: prepare},
	})
}

func prepare(raw *table.Table, _ *resource.Resolved) (*table.Table, error) {
	human := raw.Filter(func(r table.Row) bool { return r.Get("Organism") == organism })
	out, err := normalize.Canonicalize(human, normalize.Mapping{})
	if err != nil {
		return nil, err
	}
	if out, err = out.Apply("complexname", normalize.Janitor); err != nil {
		return nil, err
	}
	return normalize.Explode(out, "subunits_gene_name", ";")
}
