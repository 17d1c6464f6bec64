package integration

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/casskit/casskit/internal/config"
	"github.com/casskit/casskit/internal/loader"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// testConfig 返回指向 stub 的配置：sources 为资源名 -> stub 上的路径前缀。
func testConfig(t *testing.T, stub *portalStub, sources map[string]string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Global: config.GlobalConfig{
			CacheDir:        t.TempDir(),
			FileLock:        true,
			LockTimeout:     config.Duration(5 * time.Second),
			MaxRetries:      2,
			InitialBackoff:  config.Duration(10 * time.Millisecond),
			MaxBackoff:      config.Duration(40 * time.Millisecond),
			UpstreamTimeout: config.Duration(10 * time.Second),
			Workers:         2,
			ListenPort:      5080,
		},
	}
	for name, prefix := range sources {
		cfg.Sources = append(cfg.Sources, config.SourceConfig{Name: name, URL: stub.URL + prefix})
	}
	return cfg
}

func newTestLoader(t *testing.T, cfg *config.Config) *loader.Loader {
	t.Helper()
	l, err := loader.FromConfig(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("loader error: %v", err)
	}
	return l
}
