package resource

import "sort"

// Name 是资源的稳定标识，同时作为缓存目录名。
type Name string

const (
	TCGA            Name = "tcga"
	TCGAMetadata    Name = "tcga_metadata"
	TCGAAncestry    Name = "tcga_ancestry"
	TCGASubtypes    Name = "tcga_subtypes"
	PCAWG           Name = "pcawg"
	CORUM           Name = "corum"
	TRRUST          Name = "trrust"
	BioGRID         Name = "biogrid"
	COSMIC          Name = "cosmic"
	Centromeres     Name = "centromeres"
	EnsemblVariants Name = "ensembl_variants"

	// 泛癌论文补充表
	SCNAScores         Name = "scna_scores"
	NoncodingMutations Name = "noncoding_mutations"
	TumorPurity        Name = "tumor_purity"
	TCGACDR            Name = "tcga_cdr"
	AneuploidyScores   Name = "aneuploidy_scores"
)

var declared = []Name{
	TCGA,
	TCGAMetadata,
	TCGAAncestry,
	TCGASubtypes,
	PCAWG,
	CORUM,
	TRRUST,
	BioGRID,
	COSMIC,
	Centromeres,
	EnsemblVariants,
	SCNAScores,
	NoncodingMutations,
	TumorPurity,
	TCGACDR,
	AneuploidyScores,
}

// Declared 返回全部已声明的资源名，按字母排序。
func Declared() []Name {
	out := append([]Name(nil), declared...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func isDeclared(name Name) bool {
	for _, n := range declared {
		if n == name {
			return true
		}
	}
	return false
}
