// Package trrust 注册 TRRUST 人类转录调控网络。
package trrust

import (
	"io"

	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

const defaultBase = "https://www.grnpedia.org/trrust/data"

// Interaction 是 TRRUST 原始文件中的一行（文件无表头）。
type Interaction struct {
	TranscriptionFactor string `csv:"TranscriptionFactor"`
	TargetGene          string `csv:"TargetGene"`
	ModeOfRegulation    string `csv:"ModeOfRegulation"`
	PMIDs               string `csv:"article-id_pmid"`
}

var columns = []string{"TranscriptionFactor", "TargetGene", "ModeOfRegulation", "article-id_pmid"}

func init() {
	resource.MustRegister(resource.Descriptor{
		Name:        resource.TRRUST,
		Description: "TRRUST v2 human TF-target interactions with signed regulation",
		BaseURL:     defaultBase,
		URL:         resource.Template("{base}/trrust_rawdata.human.tsv"),
		Format:      compress.Auto,
		Columns:     []string{"transcriptionfactor", "targetgene", "modeofregulation", "article_id_pmid", "regulation"},
		Hooks: resource.Hooks{
			Parse:   parse,
			Prepare: prepare,
		},
	})
}

func parse(r io.Reader, _ *resource.Resolved) (*table.Table, error) {
	var rows []*Interaction
	if err := table.DecodeRows(r, '\t', false, &rows); err != nil {
		return nil, err
	}
	t := table.New(columns)
	for _, row := range rows {
		t.Append([]string{row.TranscriptionFactor, row.TargetGene, row.ModeOfRegulation, row.PMIDs})
	}
	return t, nil
}

func prepare(raw *table.Table, _ *resource.Resolved) (*table.Table, error) {
	out, err := normalize.Canonicalize(raw, normalize.Mapping{})
	if err != nil {
		return nil, err
	}
	return normalize.RegulationColumn(out, "modeofregulation", "regulation")
}
