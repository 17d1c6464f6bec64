// Package xena 注册 UCSC Xena 托管的 TCGA（GDC hub）与 PCAWG 数据集。
package xena

import (
	"fmt"

	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

const gdcHub = "https://gdc-hub.s3.us-east-1.amazonaws.com/download"

// Cohorts 为 GDC hub 上可用的 TCGA 队列。
var Cohorts = []string{
	"TCGA-ACC", "TCGA-BLCA", "TCGA-BRCA", "TCGA-CESC", "TCGA-CHOL",
	"TCGA-COAD", "TCGA-DLBC", "TCGA-ESCA", "TCGA-GBM", "TCGA-HNSC",
	"TCGA-KICH", "TCGA-KIRC", "TCGA-KIRP", "TCGA-LAML", "TCGA-LIHC",
	"TCGA-LUAD", "TCGA-LUSC", "TCGA-MESO", "TCGA-OV", "TCGA-PAAD",
	"TCGA-PCPG", "TCGA-PRAD", "TCGA-READ", "TCGA-SARC", "TCGA-SKCM",
	"TCGA-STAD", "TCGA-TGCT", "TCGA-THCA", "TCGA-THYM", "TCGA-UCEC",
	"TCGA-UCS", "TCGA-UVM", "GDC-PANCAN",
}

// Omics 为每个队列提供的数据集，顺序即 build-cache 的抓取顺序。
var Omics = []string{
	"cnv",
	"GDC_phenotype",
	"gistic",
	"htseq_counts",
	"htseq_fpkm",
	"htseq_fpkm-uq",
	"masked_cnv",
	"methylation27",
	"methylation450",
	"mirna",
	"muse_snv",
	"mutect2_snv",
	"somaticsniper_snv",
	"survival",
	"varscan2_snv",
}

var (
	copyNumberMapping = normalize.Mapping{
		Rename:            map[string]string{"Chrom": "Chromosome", "sample": "sample_id"},
		ChromosomeColumns: []string{"chromosome"},
	}
	mutationMapping = normalize.Mapping{
		Rename: map[string]string{
			"Sample_ID": "sample_id",
			"gene":      "gene_name",
			"chrom":     "Chromosome",
			"start":     "Start",
			"end":       "End",
		},
		Drop:              []string{"ref", "alt", "Amino_Acid_Change"},
		ChromosomeColumns: []string{"chromosome"},
	}
)

func init() {
	resource.MustRegister(resource.Descriptor{
		Name:        resource.TCGA,
		Description: "TCGA omics from the Xena GDC hub",
		BaseURL:     gdcHub,
		URL:         tcgaURL,
		Params: []resource.ParamSpec{
			{Name: "cohort", Description: "TCGA project, e.g. TCGA-BRCA", Values: Cohorts},
			{Name: "omic", Description: "Xena dataset", Values: Omics},
		},
		Format: compress.Auto,
		Read:   table.ReadOptions{Separator: '\t'},
		Hooks:  resource.Hooks{Prepare: prepareTCGA},
	})
}

// tcgaURL 除 survival 外均为 .tsv.gz；GDC-PANCAN 全部压缩。
func tcgaURL(base string, p resource.Params) string {
	url := fmt.Sprintf("%s/%s.%s.tsv", base, p["cohort"], p["omic"])
	if gzipped(p["cohort"], p["omic"]) {
		url += ".gz"
	}
	return url
}

func gzipped(cohort, omic string) bool {
	return omic != "survival" || cohort == "GDC-PANCAN"
}

// prepareTCGA 按数据集整形。表达量与 GISTIC 矩阵转置为 样本 × 基因，
// 列名为去版本号的标识符而不做小写处理；甲基化与 miRNA 矩阵保持原样。
func prepareTCGA(raw *table.Table, req *resource.Resolved) (*table.Table, error) {
	switch omic := req.Params["omic"]; omic {
	case "cnv", "masked_cnv":
		return normalize.Canonicalize(raw, copyNumberMapping)
	case "muse_snv", "mutect2_snv", "somaticsniper_snv", "varscan2_snv":
		return normalize.Canonicalize(raw, mutationMapping)
	case "htseq_counts", "htseq_fpkm", "htseq_fpkm-uq":
		return normalize.Transpose(raw, "Ensembl_ID", "sample", normalize.StripVersion)
	case "gistic":
		return normalize.Transpose(raw, "Gene Symbol", "sample", normalize.StripVersion)
	case "methylation27", "methylation450", "mirna":
		return raw, nil
	default:
		return normalize.Canonicalize(raw, normalize.Mapping{})
	}
}
