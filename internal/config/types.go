package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述全局运行时行为：日志、缓存目录与上游请求参数。
type GlobalConfig struct {
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFormat       string   `mapstructure:"LogFormat"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	CacheDir        string   `mapstructure:"CacheDir"`
	FileLock        bool     `mapstructure:"FileLock"`
	LockTimeout     Duration `mapstructure:"LockTimeout"`
	UserAgent       string   `mapstructure:"UserAgent"`
	Accept          string   `mapstructure:"Accept"`
	MaxRetries      int      `mapstructure:"MaxRetries"`
	InitialBackoff  Duration `mapstructure:"InitialBackoff"`
	MaxBackoff      Duration `mapstructure:"MaxBackoff"`
	// MaxRetryAfter 限制 429 响应中 Retry-After 的最长等待。
	MaxRetryAfter   Duration `mapstructure:"MaxRetryAfter"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
	Workers         int      `mapstructure:"Workers"`
	ListenPort      int      `mapstructure:"ListenPort"`
	RScript         string   `mapstructure:"RScript"`
}

// MirrorConfig 描述可选的 S3 远端镜像，本地未命中时优先从镜像拉取。
type MirrorConfig struct {
	Bucket   string `mapstructure:"Bucket"`
	Region   string `mapstructure:"Region"`
	Prefix   string `mapstructure:"Prefix"`
	Endpoint string `mapstructure:"Endpoint"`
}

// Enabled 表示是否配置了镜像桶。
func (m MirrorConfig) Enabled() bool {
	return strings.TrimSpace(m.Bucket) != ""
}

// CosmicConfig 保存 COSMIC 下载所需的账号信息。
type CosmicConfig struct {
	Email    string `mapstructure:"Email"`
	Password string `mapstructure:"Password"`
}

// HasCredentials 表示是否配置了完整的 COSMIC 凭证。
func (c CosmicConfig) HasCredentials() bool {
	return c.Email != "" && c.Password != ""
}

// SourceConfig 覆盖某个资源的上游基础地址，常用于内网镜像或测试桩。
type SourceConfig struct {
	Name string `mapstructure:"Name"`
	URL  string `mapstructure:"URL"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global  GlobalConfig   `mapstructure:",squash"`
	Mirror  MirrorConfig   `mapstructure:"Mirror"`
	Cosmic  CosmicConfig   `mapstructure:"Cosmic"`
	Sources []SourceConfig `mapstructure:"Source"`
}

// SourceOverrides 将 [[Source]] 列表转换为 name -> URL 映射。
func (c *Config) SourceOverrides() map[string]string {
	if c == nil || len(c.Sources) == 0 {
		return nil
	}
	out := make(map[string]string, len(c.Sources))
	for _, src := range c.Sources {
		out[strings.ToLower(strings.TrimSpace(src.Name))] = strings.TrimSpace(src.URL)
	}
	return out
}

// SourceNames 返回被覆盖的资源名，供日志字段使用。
func SourceNames(sources []SourceConfig) []string {
	if len(sources) == 0 {
		return nil
	}
	result := make([]string, len(sources))
	for i, src := range sources {
		result[i] = src.Name
	}
	return result
}
