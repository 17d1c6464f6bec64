package resource

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/casskit/casskit/internal/cache"
	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/fetch"
	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/table"
)

// Producer 将 Produce 适配为 cache.Producer。
func (r *Resolved) Producer(env *Env) cache.Producer {
	return func(ctx context.Context) (*table.Table, error) {
		return r.Produce(ctx, env)
	}
}

// Produce 执行 下载 → 解压 → 解析 → 规范化。解析与规范化失败一律视为永久失败。
func (r *Resolved) Produce(ctx context.Context, env *Env) (*table.Table, error) {
	d := r.Descriptor

	var (
		payload []byte
		err     error
	)
	if d.Hooks.Download != nil {
		payload, err = d.Hooks.Download(ctx, env, r)
	} else {
		payload, err = r.Get(ctx, env, fetch.Request{URL: r.URL})
	}
	if err != nil {
		return nil, err
	}

	rc, err := compress.NewReader(bytes.NewReader(payload), d.Format)
	if err != nil {
		return nil, fetch.Unavailable(r.URL, err)
	}
	defer rc.Close()

	var raw *table.Table
	switch {
	case d.Hooks.Parse != nil:
		raw, err = d.Hooks.Parse(rc, r)
	case d.Format == compress.XLSX:
		raw, err = table.ReadXLSX(rc, d.Read)
	default:
		raw, err = table.Read(rc, d.Read)
	}
	if err != nil {
		return nil, fetch.Unavailable(r.URL, fmt.Errorf("parse %s: %w", d.Name, err))
	}
	if raw.Empty() {
		return raw, nil
	}

	var out *table.Table
	if d.Hooks.Prepare != nil {
		out, err = d.Hooks.Prepare(raw, r)
	} else {
		out, err = normalize.Canonicalize(raw, d.Mapping)
	}
	if err != nil {
		return nil, fetch.Unavailable(r.URL, fmt.Errorf("normalize %s: %w", d.Name, err))
	}
	if err := checkColumns(out, d.Columns); err != nil {
		return nil, fetch.Unavailable(r.URL, fmt.Errorf("%s: %w", d.Name, err))
	}
	return out, nil
}

// Get 以 Descriptor 的限速器发起请求并返回响应体，供 Download 钩子复用。
func (r *Resolved) Get(ctx context.Context, env *Env, req fetch.Request) ([]byte, error) {
	if env == nil || env.Downloader == nil {
		return nil, errors.New("resource: no downloader configured")
	}
	if req.Limiter == nil {
		req.Limiter = r.Descriptor.Limiter
	}
	resp, err := env.Downloader.Get(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func checkColumns(t *table.Table, want []string) error {
	if t.Empty() {
		return nil
	}
	var missing []string
	for _, col := range want {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing expected columns %v", missing)
	}
	return nil
}
