package xena

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/carbocation/pfx"

	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

func init() {
	resource.MustRegister(resource.Descriptor{
		Name:        resource.TCGAMetadata,
		Description: "Xena dataset metadata (units, version, wrangling notes)",
		BaseURL:     gdcHub,
		URL:         resource.Template("{base}/{cohort}.{omic}.tsv.json"),
		Params: []resource.ParamSpec{
			{Name: "cohort", Values: Cohorts},
			{Name: "omic", Values: Omics},
		},
		Format:  compress.None,
		Columns: []string{"key", "value"},
		Hooks: resource.Hooks{
			Parse:   parseMetadata,
			Prepare: prepareMetadata,
		},
	})
}

// parseMetadata 把 JSON 对象展开为 key/value 两列，非字符串值保留其 JSON 文本。
func parseMetadata(r io.Reader, _ *resource.Resolved) (*table.Table, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, pfx.Err(err)
	}

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	t := table.New([]string{"key", "value"})
	for _, key := range keys {
		var s string
		if err := json.Unmarshal(doc[key], &s); err != nil {
			s = string(doc[key])
		}
		t.Append([]string{key, s})
	}
	return t, nil
}

func prepareMetadata(raw *table.Table, _ *resource.Resolved) (*table.Table, error) {
	out := raw.Clone()
	for _, row := range out.Rows {
		if row[0] != "unit" {
			continue
		}
		unit, ok := normalize.CanonicalUnit(row[1])
		if !ok {
			return nil, fmt.Errorf("unrecognised unit %q", row[1])
		}
		row[1] = unit
	}
	return out, nil
}
