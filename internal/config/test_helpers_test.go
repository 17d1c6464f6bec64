package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// testConfigPath 返回 testdata 下的夹具路径。
func testConfigPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join("testdata", name)
}

// writeTempConfig 把 TOML 片段写入临时目录，并清空 CacheDirEnv，避免宿主环境影响解析结果。
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	t.Setenv(CacheDirEnv, "")
	path := filepath.Join(t.TempDir(), "casskit.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

// validConfig 返回一份能通过 Validate 的最小配置，供各校验用例按需改坏。
func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			LogLevel:        "info",
			LogFormat:       "json",
			CacheDir:        "./cache",
			MaxRetries:      1,
			InitialBackoff:  Duration(time.Second),
			MaxBackoff:      Duration(time.Minute),
			UpstreamTimeout: Duration(time.Second),
			Workers:         1,
			ListenPort:      5080,
		},
	}
}
