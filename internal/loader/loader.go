// Package loader 把注册表、抓取器与磁盘缓存串成一次完整的加载：
// Lookup → Resolve → Cache.Fetch(Produce)。
package loader

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/casskit/casskit/internal/cache"
	"github.com/casskit/casskit/internal/config"
	"github.com/casskit/casskit/internal/fetch"
	"github.com/casskit/casskit/internal/logging"
	"github.com/casskit/casskit/internal/metrics"
	"github.com/casskit/casskit/internal/mirror"
	"github.com/casskit/casskit/internal/rbridge"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/resource/xena"
)

// Deps 是 Loader 的全部协作者，测试中可直接注入假实现。
type Deps struct {
	Cache *cache.Cache
	Env   *resource.Env
	// Sources 为资源名 -> 基础地址覆盖。
	Sources map[string]string
	Workers int
	Logger  *logrus.Logger
	Metrics *metrics.LatencyTracker
}

// Loader 是面向调用方的唯一入口，方法可并发调用。
type Loader struct {
	cache   *cache.Cache
	env     *resource.Env
	sources map[string]string
	workers int
	logger  *logrus.Logger
	metrics *metrics.LatencyTracker
}

// New 校验依赖与源覆盖，返回 Loader。
func New(deps Deps) (*Loader, error) {
	if deps.Cache == nil {
		return nil, fmt.Errorf("loader: cache is required")
	}
	if deps.Env == nil {
		deps.Env = &resource.Env{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Env.Logger == nil {
		deps.Env.Logger = deps.Logger
	}
	if deps.Workers <= 0 {
		deps.Workers = 1
	}
	if err := resource.Validate(); err != nil {
		return nil, err
	}
	for name := range deps.Sources {
		if _, err := resource.Lookup(name); err != nil {
			return nil, fmt.Errorf("source override: %w", err)
		}
	}
	return &Loader{
		cache:   deps.Cache,
		env:     deps.Env,
		sources: deps.Sources,
		workers: deps.Workers,
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}, nil
}

// FromConfig 按配置装配 HTTP 客户端、可选的 S3 镜像、R 执行器与缓存。
func FromConfig(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Loader, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	tracker := metrics.NewLatencyTracker(0.01)

	opts := fetch.OptionsFromConfig(cfg)
	opts.Logger = logger
	opts.Metrics = tracker
	client := fetch.New(fetch.NewHTTPClient(cfg), opts)

	cacheOpts := cache.Options{
		Dir:         cfg.Global.CacheDir,
		FileLock:    cfg.Global.FileLock,
		LockTimeout: cfg.Global.LockTimeout.DurationValue(),
		Logger:      logger,
		Metrics:     tracker,
	}
	if cfg.Mirror.Enabled() {
		m, err := mirror.NewS3(ctx, cfg.Mirror)
		if err != nil {
			return nil, err
		}
		cacheOpts.Mirror = m
	}
	c, err := cache.New(cacheOpts)
	if err != nil {
		return nil, err
	}

	return New(Deps{
		Cache: c,
		Env: &resource.Env{
			Downloader: client,
			Credentials: resource.Credentials{
				Username: cfg.Cosmic.Email,
				Password: cfg.Cosmic.Password,
			},
			Scripts: rbridge.New(cfg.Global.RScript, logger),
			Logger:  logger,
		},
		Sources: cfg.SourceOverrides(),
		Workers: cfg.Global.Workers,
		Logger:  logger,
		Metrics: tracker,
	})
}

// Option 调整单次加载。
type Option func(*options)

type options struct {
	force bool
}

// WithForceRefresh 跳过已有条目并重新抓取，成功后覆盖。
func WithForceRefresh() Option {
	return func(o *options) { o.force = true }
}

// Resolve 查找资源并校验参数，不触发任何网络请求。
func (l *Loader) Resolve(name string, params resource.Params) (*resource.Resolved, error) {
	d, err := resource.Lookup(name)
	if err != nil {
		return nil, err
	}
	var opts []resource.ResolveOption
	if base, ok := l.sources[string(d.Name)]; ok && base != "" {
		opts = append(opts, resource.WithBaseURL(base))
	}
	return d.Resolve(params, opts...)
}

// Load 返回资源的规范表；命中缓存时不访问网络。
func (l *Loader) Load(ctx context.Context, name string, params resource.Params, opts ...Option) (*cache.Result, error) {
	req, err := l.Resolve(name, params)
	if err != nil {
		return nil, err
	}
	return l.LoadResolved(ctx, req, opts...)
}

// LoadResolved 加载一个已经 Resolve 过的请求。
func (l *Loader) LoadResolved(ctx context.Context, req *resource.Resolved, opts ...Option) (*cache.Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var fetchOpts []cache.FetchOption
	if o.force {
		fetchOpts = append(fetchOpts, cache.WithForceRefresh())
	}

	started := time.Now()
	res, err := l.cache.Fetch(ctx, req.Key, req.Producer(l.env), fetchOpts...)
	l.metrics.Since(metrics.OpLoad(string(req.Descriptor.Name)), started)

	entry := l.logger.WithFields(logging.LoadFields(string(req.Descriptor.Name), req.Key.String(), "error")).
		WithField("elapsed_ms", time.Since(started).Milliseconds())
	if err != nil {
		entry.WithError(err).Warn("load_failed")
		return nil, err
	}
	entry = entry.WithField("status", string(res.Status)).WithField("rows", res.Table.Len())
	if res.Status == cache.StatusEmpty {
		entry.Warn("load_empty")
	} else {
		entry.Info("load_done")
	}
	return res, nil
}

// Remove 删除资源的缓存条目，条目不存在不算错误。
func (l *Loader) Remove(ctx context.Context, name string, params resource.Params) error {
	req, err := l.Resolve(name, params)
	if err != nil {
		return err
	}
	return l.cache.Remove(ctx, req.Key)
}

// BuildResult 是 BuildCache 中单个 omic 的结果。
type BuildResult struct {
	Omic   string
	Status cache.Status
	Rows   int
	Err    error
}

// BuildCache 以 Workers 并发抓取某个队列的全部 TCGA omic。
// 单个 omic 失败不会中断其余任务，错误记录在对应结果中。
func (l *Loader) BuildCache(ctx context.Context, cohort string, opts ...Option) ([]BuildResult, error) {
	d, err := resource.Lookup(string(resource.TCGA))
	if err != nil {
		return nil, err
	}
	// 先校验队列名，避免每个 omic 各报一次同样的参数错误
	if _, err := d.Resolve(resource.Params{"cohort": cohort, "omic": xena.Omics[0]}); err != nil {
		return nil, err
	}

	p := pool.NewWithResults[BuildResult]().WithMaxGoroutines(l.workers)
	for _, omic := range xena.Omics {
		omic := omic
		p.Go(func() BuildResult {
			out := BuildResult{Omic: omic}
			if err := ctx.Err(); err != nil {
				out.Err = err
				return out
			}
			res, err := l.Load(ctx, string(resource.TCGA), resource.Params{"cohort": cohort, "omic": omic}, opts...)
			if err != nil {
				out.Err = err
				return out
			}
			out.Status = res.Status
			out.Rows = res.Table.Len()
			return out
		})
	}
	results := p.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].Omic < results[j].Omic })

	var failed []string
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Omic)
		}
	}
	l.logger.WithFields(logrus.Fields{
		"action": "build_cache",
		"cohort": cohort,
		"omics":  len(results),
		"failed": strings.Join(failed, ","),
	}).Info("build_cache_done")
	return results, ctx.Err()
}

// Cache 返回底层缓存，供 CLI 的 clear/size 命令与诊断接口使用。
func (l *Loader) Cache() *cache.Cache { return l.cache }

// Metrics 返回加载过程累计的耗时统计。
func (l *Loader) Metrics() *metrics.LatencyTracker { return l.metrics }
