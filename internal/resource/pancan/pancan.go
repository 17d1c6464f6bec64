// Package pancan 注册 TCGA 泛癌研究发表的补充表：
// Xian 2021 SCNA 评分、Zhang 2018 非编码突变、Aran 2015 肿瘤纯度、
// Liu 2018 临床数据资源（TCGA-CDR）与 Ciani 2022 非整倍体评分。
//
// 前两者是纯文本表，后三者是期刊附件里的 xlsx 工作簿。
package pancan

import (
	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

const (
	scnaBase      = "https://github.com/cartercompbio/SCNA_score_analysis/raw/master/data/SCNA"
	noncodingBase = "https://idekerlab.ucsd.edu/papers/wzhang2017"
	springerBase  = "https://static-content.springer.com/esm/art%3A10.1038%2Fncomms9971/MediaObjects"
	elsevierBase  = "https://ars.els-cdn.com/content/image"
)

func init() {
	resource.MustRegister(resource.Descriptor{
		Name:        resource.SCNAScores,
		Description: "Single-sample SCNA scores (whole-chromosome, arm and focal), Xian et al. 2021",
		BaseURL:     scnaBase,
		URL:         resource.Template("{base}/SCNADf_v3.tsv"),
		Format:      compress.Auto,
		Read:        table.ReadOptions{Separator: '\t'},
		Columns:     []string{"sample"},
		Hooks:       resource.Hooks{Prepare: prepareSCNA},
	})

	resource.MustRegister(resource.Descriptor{
		Name:        resource.NoncodingMutations,
		Description: "Somatic noncoding mutations from 930 TCGA whole genomes, Zhang et al. 2018",
		BaseURL:     noncodingBase,
		URL:         resource.Template("{base}/Somatic_mutations_TCGA_930.txt"),
		Format:      compress.Auto,
		Read:        table.ReadOptions{Separator: '\t'},
		Mapping: normalize.Mapping{
			ChromosomeColumns: []string{"chr", "chrom", "chromosome"},
		},
	})

	resource.MustRegister(resource.Descriptor{
		Name:        resource.TumorPurity,
		Description: "Consensus tumour purity estimates (CPE), Aran et al. 2015",
		BaseURL:     springerBase,
		URL:         resource.Template("{base}/41467_2015_BFncomms9971_MOESM1236_ESM.xlsx"),
		Params: []resource.ParamSpec{{
			Name:        "estimates",
			Description: "cpe keeps the consensus estimate only; all keeps every method",
			Values:      []string{"cpe", "all"},
			Default:     "cpe",
		}},
		Format:  compress.XLSX,
		Read:    table.ReadOptions{SkipLines: 3},
		Columns: []string{"cancer", "sample"},
		Hooks:   resource.Hooks{Prepare: preparePurity},
	})

	resource.MustRegister(resource.Descriptor{
		Name:        resource.TCGACDR,
		Description: "TCGA Pan-Cancer Clinical Data Resource survival endpoints, Liu et al. 2018",
		BaseURL:     elsevierBase,
		URL:         resource.Template("{base}/1-s2.0-S0092867418302290-mmc1.xlsx"),
		Format:      compress.XLSX,
		Mapping:     normalize.Mapping{Drop: []string{"Unnamed: 0"}},
		Columns:     []string{"bcr_patient_barcode", "type"},
	})

	resource.MustRegister(resource.Descriptor{
		Name:        resource.AneuploidyScores,
		Description: "Sample ploidy, LOH and purity measures, Ciani et al. 2022 (Table S1)",
		BaseURL:     elsevierBase,
		URL:         resource.Template("{base}/1-s2.0-S2405471221003835-mmc2.xlsx"),
		Format:      compress.XLSX,
		Read:        table.ReadOptions{SkipLines: 1},
	})
}

// prepareSCNA 第一列是样本索引，表头在不同版本里为空或各不相同，统一命名为 sample。
func prepareSCNA(raw *table.Table, _ *resource.Resolved) (*table.Table, error) {
	renamed := raw.Clone()
	renamed.Columns[0] = "sample"
	return normalize.Canonicalize(renamed, normalize.Mapping{})
}
