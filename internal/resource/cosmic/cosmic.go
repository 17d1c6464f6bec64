// Package cosmic 注册 COSMIC Cancer Gene Census。下载需要注册账号：
// 先以 Basic 认证换取带签名的临时地址，再下载 CSV。
package cosmic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/fetch"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

const defaultBase = "https://cancer.sanger.ac.uk/cosmic/file_download/GRCh38/cosmic/v96"

// ErrMissingCredentials 表示未配置 COSMIC 账号。
var ErrMissingCredentials = errors.New("cosmic: credentials not configured")

type signedURL struct {
	URL string `json:"url"`
}

func init() {
	resource.MustRegister(resource.Descriptor{
		Name:        resource.COSMIC,
		Description: "COSMIC Cancer Gene Census (requires a registered account)",
		BaseURL:     defaultBase,
		URL:         resource.Template("{base}/cancer_gene_census.csv"),
		Format:      compress.Auto,
		Read:        table.ReadOptions{Separator: ','},
		Columns:     []string{"gene_symbol"},
		Hooks:       resource.Hooks{Download: download},
	})
}

func download(ctx context.Context, env *resource.Env, req *resource.Resolved) ([]byte, error) {
	creds := env.Credentials
	if creds.Username == "" || creds.Password == "" {
		return nil, fetch.Unavailable(req.URL, ErrMissingCredentials)
	}

	var link signedURL
	err := fetch.DecodeJSON(ctx, env.Downloader, fetch.Request{
		URL:      req.URL,
		Username: creds.Username,
		Password: creds.Password,
	}, &link)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(link.URL) == "" {
		return nil, fetch.Unavailable(req.URL, fmt.Errorf("cosmic: response carries no download url"))
	}
	return req.Get(ctx, env, fetch.Request{URL: link.URL})
}
