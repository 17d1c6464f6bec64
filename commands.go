package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/casskit/casskit/internal/cache"
	"github.com/casskit/casskit/internal/config"
	"github.com/casskit/casskit/internal/loader"
	"github.com/casskit/casskit/internal/logging"
	"github.com/casskit/casskit/internal/resource"
	"github.com/casskit/casskit/internal/server"
	"github.com/casskit/casskit/internal/server/routes"
	"github.com/casskit/casskit/internal/table"
	"github.com/casskit/casskit/internal/version"
)

// commandEnv 是子命令共享的运行时环境。
type commandEnv struct {
	cfg        *config.Config
	logger     *logrus.Logger
	configPath string
}

type command func(env *commandEnv, args []string) int

var commands = map[string]command{
	"list":        runList,
	"fetch":       runFetch,
	"build-cache": runBuildCache,
	"remove":      runRemove,
	"clear-cache": runClearCache,
	"cache-size":  runCacheSize,
	"serve":       runServe,
}

// newLoader 在需要访问缓存或网络的子命令中按配置装配 Loader。
func (e *commandEnv) newLoader(ctx context.Context) (*loader.Loader, error) {
	return loader.FromConfig(ctx, e.cfg, e.logger)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// parseParams 解析 k=v 形式的资源参数。
func parseParams(args []string) (resource.Params, error) {
	params := resource.Params{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("参数格式应为 key=value: %q", arg)
		}
		params[key] = strings.TrimSpace(value)
	}
	return params, nil
}

// reportError 输出错误并按类别返回退出码：参数类错误为 2，其余为 1。
func reportError(err error) int {
	fmt.Fprintf(stdErr, "错误: %v\n", err)
	if errors.Is(err, resource.ErrUnknownResource) || errors.Is(err, resource.ErrInvalidParam) {
		return 2
	}
	if errors.Is(err, cache.ErrCorruptCache) {
		fmt.Fprintln(stdErr, "缓存条目已损坏，可使用 fetch -force 重新抓取")
	}
	return 1
}

func runList(_ *commandEnv, _ []string) int {
	descs := resource.List()
	sort.Slice(descs, func(i, j int) bool { return descs[i].Name < descs[j].Name })

	tw := tabwriter.NewWriter(stdOut, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tPARAMS\tDESCRIPTION")
	for _, d := range descs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, describeParams(d.Params), d.Description)
	}
	if err := tw.Flush(); err != nil {
		return 1
	}
	return 0
}

func describeParams(specs []resource.ParamSpec) string {
	if len(specs) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(specs))
	for _, spec := range specs {
		var s string
		switch n := len(spec.Values); {
		case n == 0:
			s = spec.Name
		case n <= 6:
			s = spec.Name + "={" + strings.Join(spec.Values, ",") + "}"
		default:
			s = fmt.Sprintf("%s=(%d values)", spec.Name, n)
		}
		if spec.Default != "" {
			s += "[" + spec.Default + "]"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func runFetch(env *commandEnv, args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	force := fs.Bool("force", false, "忽略已有缓存重新抓取")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stdErr, "解析参数失败: %v\n", err)
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(stdErr, "用法: casskit fetch [-force] <resource> key=value...")
		return 2
	}
	params, err := parseParams(rest[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()

	l, err := env.newLoader(ctx)
	if err != nil {
		return reportError(err)
	}
	var opts []loader.Option
	if *force {
		opts = append(opts, loader.WithForceRefresh())
	}
	res, err := l.Load(ctx, rest[0], params, opts...)
	if err != nil {
		return reportError(err)
	}
	if res.Status == cache.StatusEmpty {
		fmt.Fprintf(stdErr, "警告: %s 返回空表，未写入缓存\n", rest[0])
		return 0
	}
	if err := table.Write(stdOut, res.Table, '\t'); err != nil {
		return reportError(err)
	}
	return 0
}

func runBuildCache(env *commandEnv, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(stdErr, "用法: casskit build-cache <cohort>")
		return 2
	}
	ctx, cancel := signalContext()
	defer cancel()

	l, err := env.newLoader(ctx)
	if err != nil {
		return reportError(err)
	}
	results, err := l.BuildCache(ctx, args[0])
	if err != nil && len(results) == 0 {
		return reportError(err)
	}

	code := 0
	tw := tabwriter.NewWriter(stdOut, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OMIC\tSTATUS\tROWS\tERROR")
	for _, r := range results {
		status, detail := string(r.Status), ""
		if r.Err != nil {
			status, detail = "failed", r.Err.Error()
			code = 1
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Omic, status, r.Rows, detail)
	}
	_ = tw.Flush()
	if err != nil {
		fmt.Fprintf(stdErr, "中断: %v\n", err)
		return 1
	}
	return code
}

func runRemove(env *commandEnv, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(stdErr, "用法: casskit remove <resource> key=value...")
		return 2
	}
	params, err := parseParams(args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		return 2
	}
	ctx, cancel := signalContext()
	defer cancel()

	l, err := env.newLoader(ctx)
	if err != nil {
		return reportError(err)
	}
	if err := l.Remove(ctx, args[0], params); err != nil {
		return reportError(err)
	}
	return 0
}

func runClearCache(env *commandEnv, _ []string) int {
	ctx, cancel := signalContext()
	defer cancel()

	l, err := env.newLoader(ctx)
	if err != nil {
		return reportError(err)
	}
	if err := l.Cache().Clear(ctx); err != nil {
		return reportError(err)
	}
	fields := logging.BaseFields("clear_cache", env.configPath)
	fields["cache_dir"] = l.Cache().Dir()
	env.logger.WithFields(fields).Info("缓存已清空")
	return 0
}

func runCacheSize(env *commandEnv, _ []string) int {
	ctx, cancel := signalContext()
	defer cancel()

	l, err := env.newLoader(ctx)
	if err != nil {
		return reportError(err)
	}
	size, err := l.Cache().Size(ctx)
	if err != nil {
		return reportError(err)
	}
	fmt.Fprintf(stdOut, "%s\t%d\t%s\n", l.Cache().Dir(), size, humanBytes(size))
	return 0
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func runServe(env *commandEnv, _ []string) int {
	ctx, cancel := signalContext()
	defer cancel()

	l, err := env.newLoader(ctx)
	if err != nil {
		return reportError(err)
	}

	port := env.cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     env.logger,
		Resolver:   l,
		Tables:     &server.LoaderTables{Loader: l, Logger: env.logger},
		ListenPort: port,
	})
	if err != nil {
		return reportError(err)
	}
	routes.RegisterResourceRoutes(app)
	routes.RegisterCacheRoutes(app, l.Cache(), l.Metrics())

	fields := logging.BaseFields("listen", env.configPath)
	fields["port"] = port
	fields["cache_dir"] = l.Cache().Dir()
	fields["version"] = version.Full()
	env.logger.WithFields(fields).Info("Fiber 服务启动")

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()
	if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}
