// Package subtypes 注册 TCGA 分子亚型，数据通过 R 的 TCGAbiolinks 包获取。
package subtypes

import (
	"context"
	_ "embed"
	"errors"
	"os"
	"path/filepath"

	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/fetch"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/table"
)

const scriptName = "tcgabiolinks.R"

//go:embed tcgabiolinks.R
var script []byte

// ErrNoScriptRunner 表示环境中未配置 R 执行器。
var ErrNoScriptRunner = errors.New("subtypes: no R script runner configured")

func init() {
	resource.MustRegister(resource.Descriptor{
		Name:        resource.TCGASubtypes,
		Description: "TCGA PanCancer Atlas molecular subtypes via TCGAbiolinks (requires R)",
		URL:         resource.Template("rscript:" + scriptName),
		Format:      compress.None,
		Read:        table.ReadOptions{Separator: ',', SkipLines: 2},
		Columns:     []string{"pan_samplesid", "cancer_type"},
		Hooks:       resource.Hooks{Download: run},
	})
}

// run 把内嵌脚本写入临时目录后交给 ScriptRunner 执行，返回其标准输出。
func run(ctx context.Context, env *resource.Env, req *resource.Resolved) ([]byte, error) {
	if env == nil || env.Scripts == nil {
		return nil, fetch.Unavailable(req.URL, ErrNoScriptRunner)
	}
	dir, err := os.MkdirTemp("", "casskit-r-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, scriptName)
	if err := os.WriteFile(path, script, 0o644); err != nil {
		return nil, err
	}
	out, err := env.Scripts.Run(ctx, path)
	if err != nil {
		return nil, fetch.Unavailable(req.URL, err)
	}
	return out, nil
}
