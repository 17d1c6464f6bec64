package xena

import (
	"context"
	"errors"
	"testing"

	"github.com/casskit/casskit/internal/fetch"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/resource/resourcetest"
	"github.com/casskit/casskit/internal/table"
)

func resolve(t *testing.T, name resource.Name, params resource.Params) *resource.Resolved {
	t.Helper()
	d, err := resource.Lookup(string(name))
	if err != nil {
		t.Fatalf("lookup %s: %v", name, err)
	}
	req, err := d.Resolve(params)
	if err != nil {
		t.Fatalf("resolve %s: %v", name, err)
	}
	return req
}

func TestTCGAURLCompression(t *testing.T) {
	cases := []struct {
		cohort, omic, want string
	}{
		{"TCGA-BRCA", "cnv", gdcHub + "/TCGA-BRCA.cnv.tsv.gz"},
		{"TCGA-BRCA", "GDC_phenotype", gdcHub + "/TCGA-BRCA.GDC_phenotype.tsv.gz"},
		{"TCGA-BRCA", "survival", gdcHub + "/TCGA-BRCA.survival.tsv"},
		{"GDC-PANCAN", "survival", gdcHub + "/GDC-PANCAN.survival.tsv.gz"},
	}
	for _, tc := range cases {
		req := resolve(t, resource.TCGA, resource.Params{"cohort": tc.cohort, "omic": tc.omic})
		if req.URL != tc.want {
			t.Fatalf("%s/%s: got %s want %s", tc.cohort, tc.omic, req.URL, tc.want)
		}
	}
}

func TestTCGARejectsUnknownCohort(t *testing.T) {
	d, _ := resource.Lookup("tcga")
	if _, err := d.Resolve(resource.Params{"cohort": "TCGA-XYZ", "omic": "cnv"}); !errors.Is(err, resource.ErrInvalidParam) {
		t.Fatalf("expected ErrInvalidParam, got %v", err)
	}
}

func TestTCGACopyNumber(t *testing.T) {
	req := resolve(t, resource.TCGA, resource.Params{"cohort": "TCGA-LUAD", "omic": "masked_cnv"})
	dl := resourcetest.NewDownloader().ServeGzip(req.URL, []byte(
		"sample\tChrom\tStart\tEnd\tvalue\n"+
			"TCGA-05-4244-01A\t1\t3301765\t247650984\t0.0132\n"+
			"TCGA-05-4244-01A\tX\t100\t200\t-0.2\n"))

	out, err := req.Produce(context.Background(), &resource.Env{Downloader: dl})
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	want := table.New([]string{"sample_id", "chromosome", "start", "end", "value"},
		[]string{"TCGA-05-4244-01A", "chr1", "3301765", "247650984", "0.0132"},
		[]string{"TCGA-05-4244-01A", "chrX", "100", "200", "-0.2"},
	)
	if !out.Equal(want) {
		t.Fatalf("unexpected table: %+v", out)
	}
}

func TestTCGAMutations(t *testing.T) {
	req := resolve(t, resource.TCGA, resource.Params{"cohort": "TCGA-BRCA", "omic": "mutect2_snv"})
	dl := resourcetest.NewDownloader().ServeGzip(req.URL, []byte(
		"Sample_ID\tgene\tchrom\tstart\tend\tref\talt\tAmino_Acid_Change\teffect\tdna_vaf\n"+
			"TCGA-A1-A0SB-01A\tTP53\tchr17\t7673802\t7673802\tC\tT\tp.R273H\tmissense_variant\t0.41\n"))

	out, err := req.Produce(context.Background(), &resource.Env{Downloader: dl})
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	want := table.New([]string{"sample_id", "gene_name", "chromosome", "start", "end", "effect", "dna_vaf"},
		[]string{"TCGA-A1-A0SB-01A", "TP53", "chr17", "7673802", "7673802", "missense_variant", "0.41"},
	)
	if !out.Equal(want) {
		t.Fatalf("unexpected table: %+v", out)
	}
}

func TestTCGAExpressionIsTransposed(t *testing.T) {
	req := resolve(t, resource.TCGA, resource.Params{"cohort": "TCGA-BRCA", "omic": "htseq_counts"})
	dl := resourcetest.NewDownloader().ServeGzip(req.URL, []byte(
		"Ensembl_ID\tTCGA-01\tTCGA-02\n"+
			"ENSG00000000003.13\t10.2\t9.1\n"+
			"ENSG00000000005.5\t0\t1.5\n"))

	out, err := req.Produce(context.Background(), &resource.Env{Downloader: dl})
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	want := table.New([]string{"sample", "ENSG00000000003", "ENSG00000000005"},
		[]string{"TCGA-01", "10.2", "0"},
		[]string{"TCGA-02", "9.1", "1.5"},
	)
	if !out.Equal(want) {
		t.Fatalf("unexpected table: %+v", out)
	}
}

func TestTCGASurvivalPlainText(t *testing.T) {
	req := resolve(t, resource.TCGA, resource.Params{"cohort": "TCGA-OV", "omic": "survival"})
	dl := resourcetest.NewDownloader().Serve(req.URL, []byte("sample\tOS\t_PATIENT\tOS.time\nTCGA-01\t1\tP1\t300\n"))

	out, err := req.Produce(context.Background(), &resource.Env{Downloader: dl})
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if got := out.Columns; len(got) != 4 || got[2] != "_patient" || got[3] != "os_time" {
		t.Fatalf("unexpected columns %v", got)
	}
}

func TestTCGAMissingDatasetIsUnavailable(t *testing.T) {
	req := resolve(t, resource.TCGA, resource.Params{"cohort": "TCGA-UVM", "omic": "gistic"})
	_, err := req.Produce(context.Background(), &resource.Env{Downloader: resourcetest.NewDownloader()})
	if !errors.Is(err, fetch.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestMetadataUnits(t *testing.T) {
	req := resolve(t, resource.TCGAMetadata, resource.Params{"cohort": "TCGA-BRCA", "omic": "htseq_counts"})
	if req.URL != gdcHub+"/TCGA-BRCA.htseq_counts.tsv.json" {
		t.Fatalf("unexpected url %s", req.URL)
	}
	dl := resourcetest.NewDownloader().Serve(req.URL, []byte(`{"unit":"log2(count+1)","version":"2019-09-09","wrangling_procedure":["a","b"]}`))

	out, err := req.Produce(context.Background(), &resource.Env{Downloader: dl})
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	want := table.New([]string{"key", "value"},
		[]string{"unit", "log1p"},
		[]string{"version", "2019-09-09"},
		[]string{"wrangling_procedure", `["a","b"]`},
	)
	if !out.Equal(want) {
		t.Fatalf("unexpected table: %+v", out)
	}
}

func TestPCAWGCopyNumber(t *testing.T) {
	req := resolve(t, resource.PCAWG, resource.Params{"omic": "copynumber"})
	if req.URL != pcawgHub+"/20170119_final_consensus_copynumber_sp" {
		t.Fatalf("unexpected url %s", req.URL)
	}
	dl := resourcetest.NewDownloader().ServeGzip(req.URL, []byte("sample\tchr\tstart\tend\tvalue\nSP1\t2\t1\t10\t0.5\n"))

	out, err := req.Produce(context.Background(), &resource.Env{Downloader: dl})
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	want := table.New([]string{"sample_id", "chromosome", "start", "end", "value"},
		[]string{"SP1", "chr2", "1", "10", "0.5"},
	)
	if !out.Equal(want) {
		t.Fatalf("unexpected table: %+v", out)
	}
}
