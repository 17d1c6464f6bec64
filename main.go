package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/casskit/casskit/internal/config"
	"github.com/casskit/casskit/internal/logging"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	command     string
	args        []string
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

const usage = `usage: casskit [-config file] [-check-config] [-version] <command> [args]

commands:
  list                          列出资源、参数与说明
  fetch [-force] <resource> k=v 经缓存加载资源并以 TSV 输出
  build-cache <cohort>          并发抓取某个 TCGA 队列的全部 omic
  remove <resource> k=v         删除一个缓存条目
  clear-cache                   清空缓存目录
  cache-size                    统计缓存占用
  serve                         启动诊断服务
`

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		fmt.Fprint(stdErr, usage)
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["cache_dir"] = cfg.Global.CacheDir
		fields["mirror"] = cfg.Mirror.Enabled()
		fields["cosmic"] = cfg.Cosmic.HasCredentials()
		fields["sources"] = config.SourceNames(cfg.Sources)
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	if opts.command == "" {
		fmt.Fprint(stdErr, usage)
		return 2
	}

	cmd, ok := commands[opts.command]
	if !ok {
		fmt.Fprintf(stdErr, "未知命令: %s\n", opts.command)
		fmt.Fprint(stdErr, usage)
		return 2
	}
	return cmd(&commandEnv{cfg: cfg, logger: logger, configPath: opts.configPath}, opts.args)
}

// parseCLIFlags 解析全局标志，剩余参数的第一个为子命令。
// 配置路径优先级：-config > CASSKIT_CONFIG > 无（仅默认值与环境变量）。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("casskit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（可被 CASSKIT_CONFIG 提供）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("CASSKIT_CONFIG")
	if configFlag != "" {
		path = configFlag
	}

	opts := cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}
	if rest := fs.Args(); len(rest) > 0 {
		opts.command = strings.ToLower(rest[0])
		opts.args = rest[1:]
	}
	return opts, nil
}
