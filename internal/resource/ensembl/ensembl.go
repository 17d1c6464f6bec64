// Package ensembl 注册 Ensembl REST 的基因区间变异查询：
// 先按基因符号解析稳定 ID，再取与该基因重叠的变异。
package ensembl

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/carbocation/pfx"

	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/fetch"
	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

const (
	defaultBase = "http://rest.ensembl.org"
	// requestsPerSecond 是 Ensembl 对匿名客户端公布的上限。
	requestsPerSecond = 15
)

// Columns 是变异表的列。
var Columns = []string{"chromosome", "start", "end", "strand", "id", "consequence_type"}

type xref struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type variant struct {
	SeqRegionName   string      `json:"seq_region_name"`
	Start           json.Number `json:"start"`
	End             json.Number `json:"end"`
	Strand          json.Number `json:"strand"`
	ID              string      `json:"id"`
	ConsequenceType string      `json:"consequence_type"`
}

func init() {
	resource.MustRegister(resource.Descriptor{
		Name:        resource.EnsemblVariants,
		Description: "Ensembl variants overlapping a gene, looked up by symbol",
		BaseURL:     defaultBase,
		URL:         xrefURL,
		Params: []resource.ParamSpec{
			{Name: "species", Default: "homo_sapiens"},
			{Name: "symbol", Description: "gene symbol, e.g. BRCA2"},
		},
		Format:  compress.None,
		Columns: Columns,
		Limiter: fetch.NewRateLimiter(requestsPerSecond),
		Hooks: resource.Hooks{
			Download: download,
			Parse:    parse,
		},
	})
}

func xrefURL(base string, p resource.Params) string {
	return base + "/xrefs/symbol/" + url.PathEscape(p["species"]) + "/" + url.PathEscape(p["symbol"]) + "?object_type=gene"
}

func overlapURL(base, id string) string {
	return base + "/overlap/id/" + url.PathEscape(id) + "?feature=variation"
}

func jsonHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	return h
}

// download 返回重叠变异的 JSON 数组；符号无法解析时返回空数组。
func download(ctx context.Context, env *resource.Env, req *resource.Resolved) ([]byte, error) {
	if env == nil || env.Downloader == nil {
		return nil, fetch.Unavailable(req.URL, pfx.Err(errors.New("no downloader configured")))
	}
	var genes []xref
	err := fetch.DecodeJSON(ctx, env.Downloader, fetch.Request{
		URL:     req.URL,
		Limiter: req.Descriptor.Limiter,
	}, &genes)
	if err != nil {
		return nil, err
	}
	if len(genes) == 0 || genes[0].ID == "" {
		if env.Logger != nil {
			env.Logger.WithField("symbol", req.Params["symbol"]).Warn("ensembl_symbol_unresolved")
		}
		return []byte("[]"), nil
	}
	return req.Get(ctx, env, fetch.Request{
		URL:    overlapURL(req.BaseURL, genes[0].ID),
		Header: jsonHeader(),
	})
}

func parse(r io.Reader, _ *resource.Resolved) (*table.Table, error) {
	var variants []variant
	if err := json.NewDecoder(r).Decode(&variants); err != nil {
		return nil, pfx.Err(err)
	}
	t := table.New(Columns)
	for _, v := range variants {
		t.Append([]string{
			normalize.PrefixChromosome(v.SeqRegionName),
			v.Start.String(),
			v.End.String(),
			v.Strand.String(),
			v.ID,
			v.ConsequenceType,
		})
	}
	return t, nil
}
