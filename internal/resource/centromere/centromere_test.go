package centromere

import (
	"context"
	"testing"

	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/resource/resourcetest"
	"github.com/casskit/casskit/internal/table"
)

func produce(t *testing.T, assembly string, payload string) (*resource.Resolved, *table.Table) {
	t.Helper()
	d, err := resource.Lookup("centromeres")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	req, err := d.Resolve(resource.Params{"assembly": assembly})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	dl := resourcetest.NewDownloader().ServeGzip(req.URL, []byte(payload))
	out, err := req.Produce(context.Background(), &resource.Env{Downloader: dl})
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	return req, out
}

func TestCentromeresHg19FiltersGaps(t *testing.T) {
	req, out := produce(t, "hg19",
		"585\tchr1\t121535434\t124535434\t1270\tN\t3000000\tcentromere\tno\n"+
			"585\tchr1\t124535434\t142535434\t1271\tN\t18000000\theterochromatin\tno\n"+
			"23\tchr2\t92326171\t95326171\t770\tN\t3000000\tcentromere\tno\n")
	if req.URL != ucscBase+"/hg19/database/gap.txt.gz" {
		t.Fatalf("unexpected url %s", req.URL)
	}
	want := table.New(Columns,
		[]string{"chr1", "121535434", "124535434"},
		[]string{"chr2", "92326171", "95326171"},
	)
	if !out.Equal(want) {
		t.Fatalf("unexpected table: %+v", out)
	}
}

func TestCentromeresHg37SharesHg19Source(t *testing.T) {
	d, err := resource.Lookup("centromeres")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	hg19, _ := d.Resolve(resource.Params{"assembly": "hg19"})
	hg37, _ := d.Resolve(resource.Params{"assembly": "HG37"})
	if hg19.URL != hg37.URL {
		t.Fatalf("hg37 should read the hg19 file, got %s", hg37.URL)
	}
	if hg19.Key.Digest() == hg37.Key.Digest() {
		t.Fatalf("assemblies must not share a cache key")
	}
}

func TestCentromeresHg38MergesRegions(t *testing.T) {
	_, out := produce(t, "hg38",
		"1\tchr2\t92188145\t92188297\tGJ211930.1\n"+
			"1\tchr1\t122026459\t122224535\tGJ211836.1\n"+
			"1\tchr1\t122503247\t124785432\tGJ211837.1\n"+
			"2\tchr2\t92188145\t94090557\tGJ211931.1\n")
	want := table.New(Columns,
		[]string{"chr1", "122026459", "124785432"},
		[]string{"chr2", "92188145", "94090557"},
	)
	if !out.Equal(want) {
		t.Fatalf("unexpected table: %+v", out)
	}
}

func TestCentromeresRejectsUnknownAssembly(t *testing.T) {
	d, _ := resource.Lookup("centromeres")
	if _, err := d.Resolve(resource.Params{"assembly": "mm10"}); err == nil {
		t.Fatalf("expected parameter error")
	}
}
