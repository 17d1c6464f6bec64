package normalize

import (
	"strings"
	"testing"

	"github.com/casskit/casskit/internal/table"
)

func TestTransposeExpressionMatrix(t *testing.T) {
	raw := table.New([]string{"Ensembl_ID", "TCGA-01", "TCGA-02"},
		[]string{"ENSG00000141510.16", "5.1", "6.2"},
		[]string{"ENSG00000012048.20", "1.0", "0.0"},
	)
	got, err := Transpose(raw, "Ensembl_ID", "sample_id", StripVersion)
	if err != nil {
		t.Fatalf("transpose: %v", err)
	}
	if strings.Join(got.Columns, ",") != "sample_id,ENSG00000141510,ENSG00000012048" {
		t.Fatalf("unexpected header: %v", got.Columns)
	}
	if got.Len() != 2 || got.Rows[1][0] != "TCGA-02" || got.Rows[1][1] != "6.2" {
		t.Fatalf("unexpected rows: %v", got.Rows)
	}
}

func TestTransposeMissingIndex(t *testing.T) {
	if _, err := Transpose(table.New([]string{"a"}), "Gene Symbol", "sample_id", nil); err == nil {
		t.Fatalf("missing index column should fail")
	}
}

func TestExplode(t *testing.T) {
	raw := table.New([]string{"complex_id", "subunits_gene_name"},
		[]string{"1", "BRCA1;BARD1; "},
		[]string{"2", ""},
	)
	got, err := Explode(raw, "subunits_gene_name", ";")
	if err != nil {
		t.Fatalf("explode: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d: %v", got.Len(), got.Rows)
	}
	if got.Rows[1][1] != "BARD1" || got.Rows[2][0] != "2" {
		t.Fatalf("unexpected rows: %v", got.Rows)
	}
}

func TestRegulationColumn(t *testing.T) {
	raw := table.New([]string{"mode"}, []string{"Activation"}, []string{"Repression"}, []string{"Unknown"}, []string{"other"})
	got, err := RegulationColumn(raw, "mode", "regulation")
	if err != nil {
		t.Fatalf("regulation: %v", err)
	}
	want := []string{"1", "-1", "0", "0"}
	for i, row := range got.Rows {
		if row[1] != want[i] {
			t.Fatalf("row %d: got %s want %s", i, row[1], want[i])
		}
	}
}

func TestCanonicalUnit(t *testing.T) {
	cases := map[string]string{
		"log2(count+1)": "log1p",
		"LOG2":          "log2",
		"abs":           "counts",
		" absolute ":    "counts",
	}
	for in, want := range cases {
		got, ok := CanonicalUnit(in)
		if !ok || got != want {
			t.Errorf("CanonicalUnit(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
	if _, ok := CanonicalUnit("beta value"); ok {
		t.Fatalf("unknown units should not map")
	}
}

func TestSplitColumn(t *testing.T) {
	raw := table.New([]string{"SampleID", "PC1:PC2:PC3"}, []string{"TCGA-01", "0.1:-0.2:0.3"})
	got, err := SplitColumn(raw, "PC1:PC2:PC3", ":", []string{"pc1", "pc2", "pc3"})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if strings.Join(got.Columns, ",") != "SampleID,pc1,pc2,pc3" || got.Rows[0][2] != "-0.2" {
		t.Fatalf("unexpected split: %+v", got)
	}
	bad := table.New([]string{"x"}, []string{"1:2"})
	if _, err := SplitColumn(bad, "x", ":", []string{"a", "b", "c"}); err == nil {
		t.Fatalf("wrong arity should fail")
	}
}
