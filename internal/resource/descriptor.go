package resource

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/casskit/casskit/internal/cache"
	"github.com/casskit/casskit/internal/compress"
	"github.com/casskit/casskit/internal/fetch"
	"github.com/casskit/casskit/internal/normalize"
	"github.com/casskit/casskit/internal/table"
)

// Params 是调用方传入的参数，键为参数名。
type Params map[string]string

// ParamSpec 声明一个参数及其取值域。Values 为空时接受任意非空值。
type ParamSpec struct {
	Name        string
	Description string
	Values      []string
	// Default 非空时参数可省略。
	Default string
}

// Credentials 供需要 Basic 认证的门户使用。
type Credentials struct {
	Username string
	Password string
}

// ScriptRunner 执行外部脚本并返回其标准输出。
type ScriptRunner interface {
	Run(ctx context.Context, script string, args ...string) ([]byte, error)
}

// Env 汇集 Produce 运行时需要的外部协作者。
type Env struct {
	Downloader  fetch.Downloader
	Credentials Credentials
	Scripts     ScriptRunner
	Logger      *logrus.Logger
}

// Hooks 允许资源替换默认流水线中的某一步。
type Hooks struct {
	// Download 返回原始（可能压缩的）载荷，默认对 URL 发起一次 GET。
	Download func(ctx context.Context, env *Env, req *Resolved) ([]byte, error)
	// Parse 将解压后的流解析为原始表，默认使用 Descriptor.Read。
	Parse func(r io.Reader, req *Resolved) (*table.Table, error)
	// Prepare 将原始表转为规范表，默认使用 normalize.Canonicalize(Descriptor.Mapping)。
	Prepare func(raw *table.Table, req *Resolved) (*table.Table, error)
}

// Descriptor 是资源的静态描述，注册后不可修改。
type Descriptor struct {
	Name        Name
	Description string

	// BaseURL 可被配置中的 [[Source]] 覆盖。
	BaseURL string
	// URL 由基址与已校验参数生成下载地址。
	URL func(base string, p Params) string

	Params  []ParamSpec
	Format  compress.Format
	Read    table.ReadOptions
	Mapping normalize.Mapping
	// Columns 是规范表必须包含的列。
	Columns []string
	Limiter *fetch.RateLimiter
	Hooks   Hooks
}

// Resolved 是参数校验通过后的一次具体请求。
type Resolved struct {
	Descriptor *Descriptor
	Params     Params
	BaseURL    string
	URL        string
	Key        cache.Key
}

// ResolveOption 调整 Resolve 行为。
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	base string
}

// WithBaseURL 以配置中的地址替换默认基址。
func WithBaseURL(base string) ResolveOption {
	return func(o *resolveOptions) { o.base = base }
}

// Resolve 校验参数并生成 URL 与缓存键。参数值大小写不敏感，结果统一为声明中的写法。
func (d *Descriptor) Resolve(params Params, opts ...ResolveOption) (*Resolved, error) {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	known := make(map[string]struct{}, len(d.Params))
	resolved := make(Params, len(d.Params))
	keyParams := make([]cache.Param, 0, len(d.Params))
	for _, spec := range d.Params {
		known[spec.Name] = struct{}{}
		value := strings.TrimSpace(params[spec.Name])
		if value == "" {
			value = spec.Default
		}
		if value == "" {
			return nil, &ParamError{Resource: d.Name, Param: spec.Name, Reason: "required"}
		}
		if len(spec.Values) > 0 {
			canonical, ok := matchValue(spec.Values, value)
			if !ok {
				return nil, &ParamError{
					Resource: d.Name,
					Param:    spec.Name,
					Reason:   fmt.Sprintf("%q not in {%s}", value, strings.Join(spec.Values, ", ")),
				}
			}
			value = canonical
		}
		resolved[spec.Name] = value
		keyParams = append(keyParams, cache.Param{Name: spec.Name, Value: value})
	}

	unknown := make([]string, 0)
	for name := range params {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &ParamError{Resource: d.Name, Param: strings.Join(unknown, ","), Reason: "unknown parameter"}
	}

	base := d.BaseURL
	if o.base != "" {
		base = strings.TrimRight(o.base, "/")
	}
	url := ""
	if d.URL != nil {
		url = d.URL(base, resolved)
	}

	return &Resolved{
		Descriptor: d,
		Params:     resolved,
		BaseURL:    base,
		URL:        url,
		Key:        cache.NewKey(string(d.Name), keyParams...),
	}, nil
}

// ParamNames 返回参数名列表，用于 CLI 提示。
func (d *Descriptor) ParamNames() []string {
	names := make([]string, len(d.Params))
	for i, spec := range d.Params {
		names[i] = spec.Name
	}
	return names
}

func matchValue(values []string, value string) (string, bool) {
	for _, v := range values {
		if strings.EqualFold(v, value) {
			return v, true
		}
	}
	return "", false
}

// Template 返回按 {base} 与 {参数名} 占位符展开的 URL 生成函数。
func Template(pattern string) func(base string, p Params) string {
	return func(base string, p Params) string {
		pairs := make([]string, 0, 2*len(p)+2)
		pairs = append(pairs, "{base}", base)
		for name, value := range p {
			pairs = append(pairs, "{"+name+"}", value)
		}
		return strings.NewReplacer(pairs...).Replace(pattern)
	}
}
