package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// CacheDirEnv 覆盖缓存根目录，优先级高于配置文件。
const CacheDirEnv = "CASSKIT_CACHE_DIR"

// DefaultUserAgent 模拟浏览器标识，部分数据门户会拒绝默认的 Go 客户端。
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_14_6) " +
	"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.2 Safari/605.1.15"

// DefaultAccept 与 DefaultUserAgent 搭配发送。
const DefaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。path 为空时仅使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if err := v.BindEnv("CacheDir", CacheDirEnv); err != nil {
		return nil, fmt.Errorf("绑定环境变量失败: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absCache, err := filepath.Abs(expandHome(cfg.Global.CacheDir))
	if err != nil {
		return nil, fmt.Errorf("无法解析缓存目录: %w", err)
	}
	cfg.Global.CacheDir = absCache

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "auto")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("CacheDir", defaultCacheDir())
	v.SetDefault("FileLock", true)
	v.SetDefault("LockTimeout", "10m")
	v.SetDefault("UserAgent", DefaultUserAgent)
	v.SetDefault("Accept", DefaultAccept)
	v.SetDefault("MaxRetries", 3)
	v.SetDefault("InitialBackoff", "1s")
	v.SetDefault("MaxBackoff", "1m")
	v.SetDefault("MaxRetryAfter", "5m")
	v.SetDefault("UpstreamTimeout", "5m")
	v.SetDefault("Workers", 2)
	v.SetDefault("ListenPort", 5080)
	v.SetDefault("RScript", "Rscript")
}

func applyGlobalDefaults(g *GlobalConfig) {
	if strings.TrimSpace(g.CacheDir) == "" {
		g.CacheDir = defaultCacheDir()
	}
	if g.LockTimeout.DurationValue() == 0 {
		g.LockTimeout = Duration(10 * time.Minute)
	}
	if g.UserAgent == "" {
		g.UserAgent = DefaultUserAgent
	}
	if g.InitialBackoff.DurationValue() == 0 {
		g.InitialBackoff = Duration(time.Second)
	}
	if g.MaxBackoff.DurationValue() == 0 {
		g.MaxBackoff = Duration(time.Minute)
	}
	if g.MaxRetryAfter.DurationValue() == 0 {
		g.MaxRetryAfter = Duration(5 * time.Minute)
	}
	if g.UpstreamTimeout.DurationValue() == 0 {
		g.UpstreamTimeout = Duration(5 * time.Minute)
	}
	if g.Workers == 0 {
		g.Workers = 1
	}
	if g.LogFormat == "" {
		g.LogFormat = "auto"
	}
	if g.RScript == "" {
		g.RScript = "Rscript"
	}
}

// defaultCacheDir 落在用户目录下的 ~/.cache/casskit。
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "casskit-cache")
	}
	return filepath.Join(home, ".cache", "casskit")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
